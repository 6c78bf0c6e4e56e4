package plugin

import (
	"fmt"
	"path/filepath"
	"sort"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/vartexter/vartexter/internal/command"
	"github.com/vartexter/vartexter/internal/logging"
	"github.com/vartexter/vartexter/internal/plugin/api"
	luart "github.com/vartexter/vartexter/internal/plugin/lua"
)

// InitFunction is the optional global a plugin defines to receive the vt
// module after its top-level code ran.
const InitFunction = "initAPI"

// Module is a loaded plugin entry file.
type Module struct {
	Name string
	Path string

	state  *luart.State
	facade *api.Facade
}

// State returns the module's Lua state.
func (m *Module) State() *luart.State {
	return m.state
}

// Facade returns the module's vt facade.
func (m *Module) Facade() *api.Facade {
	return m.facade
}

// Classes returns the command classes the module defines.
func (m *Module) Classes() []*command.Class {
	return m.facade.Classes()
}

// Resolve returns the command class stored in symbol.
func (m *Module) Resolve(symbol string) (*command.Class, error) {
	return m.facade.Resolve(symbol)
}

// Close releases the module's state.
func (m *Module) Close() error {
	return m.state.Close()
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithBlockedImports sets the module prefixes guarded while plugin code loads.
func WithBlockedImports(prefixes []string) LoaderOption {
	return func(l *Loader) {
		l.blocked = append([]string(nil), prefixes...)
	}
}

// WithApplication exposes app to plugins as vt.app.
func WithApplication(app api.Application) LoaderOption {
	return func(l *Loader) {
		l.app = app
	}
}

// WithExecutionTimeout bounds every call into plugin code.
func WithExecutionTimeout(d time.Duration) LoaderOption {
	return func(l *Loader) {
		l.timeout = d
	}
}

// WithLoaderLogger sets the logger.
func WithLoaderLogger(logger *logging.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

// Loader executes plugin entry files in sandboxed states and keeps the
// resulting modules by unique name.
type Loader struct {
	host    api.Host
	app     api.Application
	blocked []string
	timeout time.Duration
	logger  *logging.Logger

	modules map[string]*Module
	order   []string
}

// NewLoader creates a loader whose modules talk to host.
func NewLoader(host api.Host, opts ...LoaderOption) *Loader {
	l := &Loader{
		host:    host,
		blocked: []string{api.AppModuleName},
		timeout: luart.DefaultExecutionTimeout,
		logger:  logging.Nop(),
		modules: make(map[string]*Module),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load executes the file at path under the import guard and records the
// module as uniqueName. A module already recorded under that name is closed
// and replaced. Failures yield *LoadError and record nothing.
func (l *Loader) Load(path, uniqueName string) (*Module, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &LoadError{Plugin: uniqueName, Path: path, Err: err}
	}

	state := luart.NewState(
		luart.WithExecutionTimeout(l.timeout),
		luart.WithModuleDir(filepath.Dir(abs)),
	)
	var opts []api.Option
	if l.app != nil {
		opts = append(opts, api.WithApplication(l.app))
	}
	facade := api.Install(state, l.host, uniqueName, opts...)

	guard := state.Sandbox().GuardImports(l.blocked)
	err = state.DoFile(abs)
	guard.Release()
	if err != nil {
		state.Close()
		return nil, &LoadError{Plugin: uniqueName, Path: abs, Err: err}
	}

	m := &Module{Name: uniqueName, Path: abs, state: state, facade: facade}
	if prev, ok := l.modules[uniqueName]; ok {
		prev.Close()
	} else {
		l.order = append(l.order, uniqueName)
	}
	l.modules[uniqueName] = m
	l.logger.Debug("Loaded module '%s' from %s", uniqueName, abs)
	return m, nil
}

// InitAPI calls the module's initAPI global with the vt module, under the
// same import guard as Load. Modules without initAPI are left alone.
func (l *Loader) InitAPI(m *Module) error {
	fn, ok := m.state.GetGlobal(InitFunction).(*lua.LFunction)
	if !ok {
		return nil
	}
	guard := m.state.Sandbox().GuardImports(l.blocked)
	defer guard.Release()
	if _, err := m.state.CallFunction(fn, m.facade.Table()); err != nil {
		return fmt.Errorf("%s in '%s': %w", InitFunction, m.Name, err)
	}
	return nil
}

// Module returns the module recorded as name.
func (l *Loader) Module(name string) (*Module, bool) {
	m, ok := l.modules[name]
	return m, ok
}

// Modules returns the modules in first-load order.
func (l *Loader) Modules() []*Module {
	out := make([]*Module, 0, len(l.order))
	for _, name := range l.order {
		out = append(out, l.modules[name])
	}
	return out
}

// Names returns the recorded module names, sorted.
func (l *Loader) Names() []string {
	out := make([]string, 0, len(l.modules))
	for name := range l.modules {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Resolve implements command.Resolver for plugin modules.
func (l *Loader) Resolve(plugin, symbol string) (*command.Class, error) {
	m, ok := l.modules[plugin]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotLoaded, plugin)
	}
	return m.Resolve(symbol)
}

// Close closes every module and forgets them.
func (l *Loader) Close() {
	for _, name := range l.order {
		l.modules[name].Close()
	}
	l.modules = make(map[string]*Module)
	l.order = nil
}
