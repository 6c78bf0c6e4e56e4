// Package lua provides the sandboxed Lua runtime plugins execute in.
//
// Plugins are Lua files run by gopher-lua. Each plugin gets its own State:
// a Lua VM with only the safe standard libraries opened, the file-loading
// globals removed, and a require that resolves three kinds of modules:
//
//   - safe built-ins (string, table, math, coroutine)
//   - host modules preloaded with PreloadModule, such as "vt"
//   - plugin-local files under the module directory ("a.b" is a/b.lua)
//
// # Import guard
//
// While a plugin's top-level code runs, the loader holds an ImportGuard that
// denies modules by name prefix:
//
//	guard := state.Sandbox().GuardImports([]string{"vt.app"})
//	defer guard.Release()
//
// Guards nest. Releasing one restores the denylist that was active before it.
//
// # Bridge
//
// ToGo and ToLua convert between Lua values and the plain Go values the rest
// of the host uses: nil, bool, int64, float64, string, []any and
// map[string]any.
//
// A State is not safe for concurrent use. It is owned by the window's control
// loop.
package lua
