package api

import (
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/vartexter/vartexter/internal/command"
	"github.com/vartexter/vartexter/internal/logging"
	luart "github.com/vartexter/vartexter/internal/plugin/lua"
)

// logModule implements vt.log.
type logModule struct {
	f *Facade
}

func (m *logModule) Name() string { return "log" }

func (m *logModule) Table(L *lua.LState) *lua.LTable {
	t := L.NewTable()
	for _, level := range []logging.Level{logging.LevelDebug, logging.LevelInfo, logging.LevelWarn, logging.LevelError} {
		L.SetField(t, level.Tag(), L.NewFunction(m.logAt(level)))
	}
	L.SetField(t, "warn", L.GetField(t, logging.LevelWarn.Tag()))

	// vt.log(msg [, tag]) logs at the named level, info by default.
	mt := L.NewTable()
	L.SetField(mt, "__call", L.NewFunction(func(L *lua.LState) int {
		msg := L.CheckString(2)
		level := logging.ParseLevel(L.OptString(3, "info"))
		m.f.host.Log(level, msg)
		return 0
	}))
	L.SetMetatable(t, mt)
	return t
}

func (m *logModule) logAt(level logging.Level) lua.LGFunction {
	return func(L *lua.LState) int {
		parts := make([]string, 0, L.GetTop())
		for i := 1; i <= L.GetTop(); i++ {
			parts = append(parts, L.ToStringMeta(L.Get(i)).String())
		}
		m.f.host.Log(level, strings.Join(parts, " "))
		return 0
	}
}

// stateModule implements vt.state and vt.scratch.
type stateModule struct {
	name string
	get  func(path string) (any, bool)
	set  func(path string, value any)
	del  func(path string) bool
}

func (m *stateModule) Name() string { return m.name }

func (m *stateModule) Table(L *lua.LState) *lua.LTable {
	t := L.NewTable()
	b := luart.NewBridge(L)

	// get(path [, default]) -> value
	L.SetField(t, "get", L.NewFunction(func(L *lua.LState) int {
		path := L.CheckString(1)
		if v, ok := m.get(path); ok {
			L.Push(b.ToLua(v))
			return 1
		}
		L.Push(L.Get(2))
		return 1
	}))
	// set(path, value)
	L.SetField(t, "set", L.NewFunction(func(L *lua.LState) int {
		m.set(L.CheckString(1), b.ToGo(L.Get(2)))
		return 0
	}))
	if m.del != nil {
		// delete(path) -> bool
		L.SetField(t, "delete", L.NewFunction(func(L *lua.LState) int {
			L.Push(lua.LBool(m.del(L.CheckString(1))))
			return 1
		}))
	}
	return t
}

// commandModule implements vt.command.
type commandModule struct {
	f *Facade
}

func (m *commandModule) Name() string { return "command" }

func (m *commandModule) Table(L *lua.LState) *lua.LTable {
	t := L.NewTable()
	L.SetField(t, "run", L.NewFunction(m.run))
	L.SetField(t, "list", L.NewFunction(m.list))
	L.SetField(t, "exists", L.NewFunction(m.exists))
	return t
}

// run(name [, args [, kwargs]]) -> result, err
func (m *commandModule) run(L *lua.LState) int {
	b := luart.NewBridge(L)
	inv := command.Invocation{
		Command: L.CheckString(1),
		Args:    b.ToSlice(L.Get(2)),
		Kwargs:  b.ToMap(L.Get(3)),
	}
	out, err := m.f.host.Execute(inv)
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(b.ToLua(out))
	return 1
}

// list() -> {names}
func (m *commandModule) list(L *lua.LState) int {
	L.Push(luart.NewBridge(L).ToLua(m.f.host.Commands()))
	return 1
}

// exists(name) -> bool
func (m *commandModule) exists(L *lua.LState) int {
	name := L.CheckString(1)
	for _, n := range m.f.host.Commands() {
		if n == name {
			L.Push(lua.LTrue)
			return 1
		}
	}
	L.Push(lua.LFalse)
	return 1
}
