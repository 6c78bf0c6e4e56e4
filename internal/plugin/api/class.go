package api

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/vartexter/vartexter/internal/command"
)

// kindField marks a table as a command class.
const kindField = "__kind"

// classConstructor returns vt.TextCommand and friends.
//
//	Cmd = vt.TextCommand()         -- new class table
//	Cmd = vt.TextCommand({...})    -- marks an existing table
func (f *Facade) classConstructor(kind command.Kind) lua.LGFunction {
	return func(L *lua.LState) int {
		t := L.OptTable(1, nil)
		if t == nil {
			t = L.NewTable()
		}
		L.SetField(t, kindField, lua.LString(kind.String()))
		L.Push(t)
		return 1
	}
}

func classKind(t *lua.LTable) command.Kind {
	s, ok := t.RawGetString(kindField).(lua.LString)
	if !ok {
		return command.Unbound
	}
	return command.ParseKind(string(s))
}

// newClass wraps a Lua class table.
func (f *Facade) newClass(name string, t *lua.LTable) *command.Class {
	return &command.Class{
		Name: name,
		Kind: classKind(t),
		New: func(target command.Target) (command.Runner, error) {
			return f.instantiate(name, t, target)
		},
	}
}

// instantiate creates an instance table whose metatable indexes the class.
// An init method, when present, runs before the instance is returned.
func (f *Facade) instantiate(name string, class *lua.LTable, target command.Target) (command.Runner, error) {
	if f.state.IsClosed() {
		return nil, fmt.Errorf("plugin '%s' is unloaded", f.plugin)
	}
	L := f.state.L

	self := L.NewTable()
	L.SetField(self, "api", f.vt)
	if target.Window != nil {
		L.SetField(self, "window", f.views.window(target.Window))
	}
	if target.View != nil {
		L.SetField(self, "view", f.views.view(target.View))
		L.SetField(self, "window", f.views.window(target.View.Window()))
	}
	mt := L.NewTable()
	L.SetField(mt, "__index", class)
	L.SetMetatable(self, mt)

	if init, ok := L.GetField(self, "init").(*lua.LFunction); ok {
		if _, err := f.state.CallFunction(init, self); err != nil {
			return nil, err
		}
	}

	run, ok := L.GetField(self, "run").(*lua.LFunction)
	if !ok {
		return nil, fmt.Errorf("command '%s' has no run method", name)
	}
	return &instance{f: f, self: self, run: run}, nil
}

type instance struct {
	f    *Facade
	self *lua.LTable
	run  *lua.LFunction
}

// Run calls self:run(args, kwargs) and returns its first result.
func (i *instance) Run(args []any, kwargs map[string]any) (any, error) {
	b := i.f.state.Bridge()
	if args == nil {
		args = []any{}
	}
	if kwargs == nil {
		kwargs = map[string]any{}
	}
	results, err := i.f.state.CallFunction(i.run, i.self, b.ToLua(args), b.ToLua(kwargs))
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return b.ToGo(results[0]), nil
}
