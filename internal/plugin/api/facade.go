package api

import (
	"fmt"
	"runtime"
	"sort"

	lua "github.com/yuin/gopher-lua"

	"github.com/vartexter/vartexter/internal/command"
	luart "github.com/vartexter/vartexter/internal/plugin/lua"
)

// Module names.
const (
	ModuleName    = "vt"
	AppModuleName = "vt.app"
)

// Module is one sub-table of the vt module.
type Module interface {
	// Name is the field the module is stored under in vt.
	Name() string
	// Table builds the module table.
	Table(L *lua.LState) *lua.LTable
}

// Facade is the vt module bound to one plugin state.
type Facade struct {
	state  *luart.State
	host   Host
	app    Application
	plugin string

	vt      *lua.LTable
	views   *objects
	modules []Module
}

// Option configures a Facade.
type Option func(*Facade)

// WithApplication exposes app as vt.app.
func WithApplication(app Application) Option {
	return func(f *Facade) {
		f.app = app
	}
}

// WithModules adds modules to vt.
func WithModules(mods ...Module) Option {
	return func(f *Facade) {
		f.modules = append(f.modules, mods...)
	}
}

// Install builds the vt module for state and preloads it. plugin names the
// owning plugin in log records.
func Install(state *luart.State, host Host, plugin string, opts ...Option) *Facade {
	f := &Facade{
		state:  state,
		host:   host,
		plugin: plugin,
	}
	for _, opt := range opts {
		opt(f)
	}

	L := state.L
	f.views = newObjects(L, f)
	f.modules = append([]Module{
		&logModule{f: f},
		&stateModule{name: "state", get: host.State, set: host.SetState, del: host.DeleteState},
		&stateModule{name: "scratch", get: host.Scratch, set: host.SetScratch},
		&commandModule{f: f},
	}, f.modules...)

	vt := L.NewTable()
	for _, m := range f.modules {
		L.SetField(vt, m.Name(), m.Table(L))
	}
	L.SetField(vt, "window", L.NewFunction(f.window))
	L.SetField(vt, "TextCommand", L.NewFunction(f.classConstructor(command.Text)))
	L.SetField(vt, "WindowCommand", L.NewFunction(f.classConstructor(command.Window)))
	L.SetField(vt, "ApplicationCommand", L.NewFunction(f.classConstructor(command.Application)))
	L.SetField(vt, "plugin", lua.LString(plugin))
	L.SetField(vt, "platform", lua.LString(runtime.GOOS))
	L.SetField(vt, "arch", lua.LString(runtime.GOARCH))
	if f.app != nil {
		L.SetField(vt, "version", lua.LString(f.app.APIVersion()))
	}
	f.vt = vt

	state.PreloadModule(ModuleName, func(L *lua.LState) int {
		L.Push(vt)
		return 1
	})
	state.PreloadModule(AppModuleName, func(L *lua.LState) int {
		L.Push(f.appTable(L))
		return 1
	})
	return f
}

// Table returns the vt module table.
func (f *Facade) Table() *lua.LTable {
	return f.vt
}

// Plugin returns the owning plugin name.
func (f *Facade) Plugin() string {
	return f.plugin
}

// window() -> Window or nil
func (f *Facade) window(L *lua.LState) int {
	L.Push(f.views.window(f.host.ActiveWindow()))
	return 1
}

// appTable builds vt.app.
func (f *Facade) appTable(L *lua.LState) *lua.LTable {
	t := L.NewTable()
	if f.app == nil {
		return t
	}
	L.SetField(t, "name", lua.LString(f.app.Name()))
	L.SetField(t, "version", lua.LString(f.app.APIVersion()))
	L.SetField(t, "packages_dir", lua.LString(f.app.PackagesDir()))
	L.SetField(t, "windows", L.NewFunction(func(L *lua.LState) int {
		L.Push(f.state.Bridge().ToLua(f.app.WindowIDs()))
		return 1
	}))
	return t
}

// Classes returns every command class the plugin defines as a global,
// sorted by name.
func (f *Facade) Classes() []*command.Class {
	var names []string
	tables := make(map[string]*lua.LTable)
	f.state.Globals(func(name string, v lua.LValue) {
		if t, ok := v.(*lua.LTable); ok && classKind(t) != command.Unbound {
			names = append(names, name)
			tables[name] = t
		}
	})
	sort.Strings(names)

	out := make([]*command.Class, 0, len(names))
	for _, name := range names {
		out = append(out, f.newClass(name, tables[name]))
	}
	return out
}

// Resolve returns the command class stored in the global symbol.
func (f *Facade) Resolve(symbol string) (*command.Class, error) {
	t, ok := f.state.GetGlobal(symbol).(*lua.LTable)
	if !ok || classKind(t) == command.Unbound {
		return nil, fmt.Errorf("plugin '%s' has no command '%s'", f.plugin, symbol)
	}
	return f.newClass(symbol, t), nil
}
