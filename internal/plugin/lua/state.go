package lua

import (
	"context"
	"fmt"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// DefaultExecutionTimeout bounds one top-level call into Lua.
const DefaultExecutionTimeout = 5 * time.Second

// State wraps a gopher-lua VM for one plugin.
//
// gopher-lua's LState is not goroutine-safe, and neither is State. Calls may
// nest: a Lua command that dispatches another command re-enters the same
// state, and only the outermost call carries the execution timeout.
type State struct {
	L *lua.LState

	executionTimeout time.Duration
	sandbox          *Sandbox
	bridge           *Bridge

	depth  int
	closed bool
}

// StateOption configures a State.
type StateOption func(*State)

// WithExecutionTimeout sets the timeout of top-level calls. Zero disables it.
func WithExecutionTimeout(d time.Duration) StateOption {
	return func(s *State) {
		s.executionTimeout = d
	}
}

// WithModuleDir sets the directory plugin-local modules are required from.
func WithModuleDir(dir string) StateOption {
	return func(s *State) {
		s.sandbox.moduleDir = dir
	}
}

// NewState creates a sandboxed Lua state.
func NewState(opts ...StateOption) *State {
	L := lua.NewState(lua.Options{
		SkipOpenLibs: true,
	})
	openSafeLibraries(L)

	s := &State{
		L:                L,
		executionTimeout: DefaultExecutionTimeout,
		sandbox:          NewSandbox(L),
		bridge:           NewBridge(L),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.sandbox.Install()
	return s
}

// openSafeLibraries opens the package loader and the side-effect free
// libraries. io, os and debug stay closed.
func openSafeLibraries(L *lua.LState) {
	libs := []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.LoadLibName, lua.OpenPackage},
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
		{lua.CoroutineLibName, lua.OpenCoroutine},
	}
	for _, lib := range libs {
		L.Push(L.NewFunction(lib.fn))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
}

// DoFile executes a Lua file.
func (s *State) DoFile(path string) error {
	return s.run(path, func() error {
		return s.L.DoFile(path)
	})
}

// DoString executes a Lua chunk.
func (s *State) DoString(code string) error {
	return s.run("", func() error {
		return s.L.DoString(code)
	})
}

// Call calls a global function.
func (s *State) Call(name string, args ...lua.LValue) ([]lua.LValue, error) {
	if s.closed {
		return nil, ErrStateClosed
	}
	fn, ok := s.L.GetGlobal(name).(*lua.LFunction)
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrNotFunction)
	}
	return s.CallFunction(fn, args...)
}

// CallFunction calls fn and returns its results.
// Returns an empty slice (not nil) if the function returns no values.
func (s *State) CallFunction(fn *lua.LFunction, args ...lua.LValue) ([]lua.LValue, error) {
	var results []lua.LValue
	err := s.run("", func() error {
		stackTop := s.L.GetTop()

		s.L.Push(fn)
		for _, arg := range args {
			s.L.Push(arg)
		}
		if err := s.L.PCall(len(args), lua.MultRet, nil); err != nil {
			return err
		}

		nRet := s.L.GetTop() - stackTop
		results = make([]lua.LValue, 0, nRet)
		for i := 0; i < nRet; i++ {
			results = append(results, s.L.Get(stackTop+i+1))
		}
		s.L.Pop(nRet)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// run executes fn with panic recovery. The outermost call sets the execution
// timeout on the VM.
func (s *State) run(source string, fn func() error) (err error) {
	if s.closed {
		return ErrStateClosed
	}

	if s.depth == 0 && s.executionTimeout > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), s.executionTimeout)
		s.L.SetContext(ctx)
		defer func() {
			s.L.RemoveContext()
			cancel()
		}()
	}

	s.depth++
	defer func() {
		s.depth--
		if r := recover(); r != nil {
			err = &ScriptError{Source: source, Err: fmt.Errorf("lua panic: %v", r)}
		}
	}()

	if err := fn(); err != nil {
		return &ScriptError{Source: source, Err: err}
	}
	return nil
}

// GetGlobal returns a global variable value.
func (s *State) GetGlobal(name string) lua.LValue {
	if s.closed {
		return lua.LNil
	}
	return s.L.GetGlobal(name)
}

// SetGlobal sets a global variable.
func (s *State) SetGlobal(name string, value lua.LValue) {
	if s.closed {
		return
	}
	s.L.SetGlobal(name, value)
}

// Globals calls fn for every string-keyed global.
func (s *State) Globals(fn func(name string, value lua.LValue)) {
	if s.closed {
		return
	}
	globals, ok := s.L.Get(lua.GlobalsIndex).(*lua.LTable)
	if !ok {
		return
	}
	globals.ForEach(func(k, v lua.LValue) {
		if name, ok := k.(lua.LString); ok {
			fn(string(name), v)
		}
	})
}

// PreloadModule makes name requirable. loader runs on first require.
func (s *State) PreloadModule(name string, loader lua.LGFunction) {
	if s.closed {
		return
	}
	s.L.PreloadModule(name, loader)
}

// Sandbox returns the state's sandbox.
func (s *State) Sandbox() *Sandbox {
	return s.sandbox
}

// Bridge returns the value converter bound to this state.
func (s *State) Bridge() *Bridge {
	return s.bridge
}

// IsClosed returns true if the state has been closed.
func (s *State) IsClosed() bool {
	return s.closed
}

// Close releases the VM. Further calls return ErrStateClosed.
func (s *State) Close() error {
	if s.closed {
		return nil
	}
	s.L.Close()
	s.closed = true
	return nil
}
