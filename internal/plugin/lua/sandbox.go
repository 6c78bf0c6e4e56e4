package lua

import (
	"os"
	"path/filepath"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// safeModules are the built-in libraries require may return.
var safeModules = map[string]bool{
	lua.TabLibName:       true,
	lua.StringLibName:    true,
	lua.MathLibName:      true,
	lua.CoroutineLibName: true,
}

// Sandbox restricts what Lua code can reach.
type Sandbox struct {
	L *lua.LState

	// moduleDir is the root for plugin-local requires; "" disables them.
	moduleDir string
	// denied holds the module name prefixes require refuses.
	denied []string
}

// NewSandbox creates a sandbox for L. Call Install to apply it.
func NewSandbox(L *lua.LState) *Sandbox {
	return &Sandbox{L: L}
}

// Install removes the file-loading globals and replaces require.
func (s *Sandbox) Install() {
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "module"} {
		s.L.SetGlobal(name, lua.LNil)
	}
	s.installSafeRequire()
}

// ModuleDir returns the plugin-local module root.
func (s *Sandbox) ModuleDir() string {
	return s.moduleDir
}

// SetModuleDir changes the plugin-local module root.
func (s *Sandbox) SetModuleDir(dir string) {
	s.moduleDir = dir
}

// installSafeRequire clears the disk search paths and replaces require with a
// version that consults the import guard first.
func (s *Sandbox) installSafeRequire() {
	pkg, ok := s.L.GetGlobal("package").(*lua.LTable)
	if !ok {
		return
	}
	s.L.SetField(pkg, "path", lua.LString(""))
	s.L.SetField(pkg, "cpath", lua.LString(""))

	originalRequire := s.L.GetGlobal("require")

	s.L.SetGlobal("require", s.L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)

		if s.Blocked(name) {
			L.RaiseError("%s: module %q cannot be imported while plugins load", ErrImportBlocked, name)
			return 0
		}

		loaded, _ := L.GetField(pkg, "loaded").(*lua.LTable)
		if loaded != nil {
			if v := loaded.RawGetString(name); lua.LVAsBool(v) {
				L.Push(v)
				return 1
			}
		}

		preload, _ := L.GetField(pkg, "preload").(*lua.LTable)
		if safeModules[name] || (preload != nil && preload.RawGetString(name) != lua.LNil) {
			L.Push(originalRequire)
			L.Push(lua.LString(name))
			L.Call(1, 1)
			return 1
		}

		if path := s.findLocal(name); path != "" {
			fn, err := L.LoadFile(path)
			if err != nil {
				L.RaiseError("%s", err.Error())
				return 0
			}
			L.Push(fn)
			L.Push(lua.LString(name))
			L.Call(1, 1)
			mod := L.Get(-1)
			L.Pop(1)
			if mod == lua.LNil {
				mod = lua.LTrue
			}
			if loaded != nil {
				loaded.RawSetString(name, mod)
			}
			L.Push(mod)
			return 1
		}

		L.RaiseError("module %q is not available", name)
		return 0
	}))
}

// findLocal maps a dotted module name to a file under moduleDir.
func (s *Sandbox) findLocal(name string) string {
	if s.moduleDir == "" || name == "" {
		return ""
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return ""
	}
	rel := filepath.Join(strings.Split(name, ".")...)
	for _, candidate := range []string{
		filepath.Join(s.moduleDir, rel+".lua"),
		filepath.Join(s.moduleDir, rel, "init.lua"),
	} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

// Blocked reports whether name starts with a denied prefix.
func (s *Sandbox) Blocked(name string) bool {
	for _, prefix := range s.denied {
		if prefix != "" && strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// Denied returns the active denylist.
func (s *Sandbox) Denied() []string {
	out := make([]string, len(s.denied))
	copy(out, s.denied)
	return out
}

// ImportGuard is a scoped denylist installed by GuardImports.
type ImportGuard struct {
	sandbox  *Sandbox
	previous []string
	released bool
}

// GuardImports adds prefixes to the denylist until the returned guard is
// released.
func (s *Sandbox) GuardImports(prefixes []string) *ImportGuard {
	g := &ImportGuard{sandbox: s, previous: s.denied}
	next := make([]string, 0, len(s.denied)+len(prefixes))
	next = append(next, s.denied...)
	next = append(next, prefixes...)
	s.denied = next
	return g
}

// Release restores the denylist active before the guard. It is idempotent.
func (g *ImportGuard) Release() {
	if g.released {
		return
	}
	g.sandbox.denied = g.previous
	g.released = true
}
