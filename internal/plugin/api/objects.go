package api

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/vartexter/vartexter/internal/editor"
)

const (
	viewTypeName   = "vt.View"
	windowTypeName = "vt.Window"
)

// objects wraps editor windows and views as userdata. Wrappers are cached so
// the same view always maps to the same Lua value.
type objects struct {
	f       *Facade
	L       *lua.LState
	views   map[*editor.View]*lua.LUserData
	windows map[*editor.Window]*lua.LUserData
}

func newObjects(L *lua.LState, f *Facade) *objects {
	o := &objects{
		f:       f,
		L:       L,
		views:   make(map[*editor.View]*lua.LUserData),
		windows: make(map[*editor.Window]*lua.LUserData),
	}
	o.registerView(L)
	o.registerWindow(L)
	return o
}

func (o *objects) view(v *editor.View) lua.LValue {
	if v == nil {
		return lua.LNil
	}
	if ud, ok := o.views[v]; ok {
		return ud
	}
	ud := o.L.NewUserData()
	ud.Value = v
	o.L.SetMetatable(ud, o.L.GetTypeMetatable(viewTypeName))
	o.views[v] = ud
	return ud
}

func (o *objects) window(w *editor.Window) lua.LValue {
	if w == nil {
		return lua.LNil
	}
	if ud, ok := o.windows[w]; ok {
		return ud
	}
	ud := o.L.NewUserData()
	ud.Value = w
	o.L.SetMetatable(ud, o.L.GetTypeMetatable(windowTypeName))
	o.windows[w] = ud
	return ud
}

func checkView(L *lua.LState, n int) *editor.View {
	ud := L.CheckUserData(n)
	if v, ok := ud.Value.(*editor.View); ok {
		return v
	}
	L.ArgError(n, "view expected")
	return nil
}

func checkWindow(L *lua.LState, n int) *editor.Window {
	ud := L.CheckUserData(n)
	if w, ok := ud.Value.(*editor.Window); ok {
		return w
	}
	L.ArgError(n, "window expected")
	return nil
}

// pushResult pushes true, or nil and the error message.
func pushResult(L *lua.LState, err error) int {
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LTrue)
	return 1
}

func (o *objects) registerView(L *lua.LState) {
	mt := L.NewTypeMetatable(viewTypeName)
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"id": func(L *lua.LState) int {
			L.Push(lua.LNumber(checkView(L, 1).ID()))
			return 1
		},
		"title": func(L *lua.LState) int {
			L.Push(lua.LString(checkView(L, 1).Title()))
			return 1
		},
		"set_title": func(L *lua.LState) int {
			checkView(L, 1).SetTitle(L.CheckString(2))
			return 0
		},
		"text": func(L *lua.LState) int {
			L.Push(lua.LString(checkView(L, 1).Text()))
			return 1
		},
		"set_text": func(L *lua.LState) int {
			return pushResult(L, checkView(L, 1).SetText(L.CheckString(2)))
		},
		"insert": func(L *lua.LState) int {
			return pushResult(L, checkView(L, 1).Insert(L.CheckInt(2), L.CheckString(3)))
		},
		"erase": func(L *lua.LState) int {
			return pushResult(L, checkView(L, 1).Erase(L.CheckInt(2), L.CheckInt(3)))
		},
		"size": func(L *lua.LState) int {
			L.Push(lua.LNumber(checkView(L, 1).Size()))
			return 1
		},
		"file": func(L *lua.LState) int {
			L.Push(lua.LString(checkView(L, 1).File()))
			return 1
		},
		"encoding": func(L *lua.LState) int {
			L.Push(lua.LString(checkView(L, 1).Encoding()))
			return 1
		},
		"saved": func(L *lua.LState) int {
			L.Push(lua.LBool(checkView(L, 1).Saved()))
			return 1
		},
		"set_saved": func(L *lua.LState) int {
			checkView(L, 1).SetSaved(L.CheckBool(2))
			return 0
		},
		"read_only": func(L *lua.LState) int {
			L.Push(lua.LBool(checkView(L, 1).ReadOnly()))
			return 1
		},
		"set_read_only": func(L *lua.LState) int {
			checkView(L, 1).SetReadOnly(L.CheckBool(2))
			return 0
		},
		"save": func(L *lua.LState) int {
			return pushResult(L, checkView(L, 1).Save())
		},
		"window": func(L *lua.LState) int {
			L.Push(o.window(checkView(L, 1).Window()))
			return 1
		},
	}))
	L.SetField(mt, "__tostring", L.NewFunction(func(L *lua.LState) int {
		v := checkView(L, 1)
		L.Push(lua.LString(fmt.Sprintf("View(%d, %q)", v.ID(), v.Title())))
		return 1
	}))
}

func (o *objects) registerWindow(L *lua.LState) {
	mt := L.NewTypeMetatable(windowTypeName)
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"id": func(L *lua.LState) int {
			L.Push(lua.LString(checkWindow(L, 1).ID()))
			return 1
		},
		"title": func(L *lua.LState) int {
			L.Push(lua.LString(checkWindow(L, 1).Title()))
			return 1
		},
		"set_title": func(L *lua.LState) int {
			checkWindow(L, 1).SetTitle(L.CheckString(2))
			return 0
		},
		"theme": func(L *lua.LState) int {
			L.Push(lua.LString(checkWindow(L, 1).Theme()))
			return 1
		},
		"set_theme": func(L *lua.LState) int {
			checkWindow(L, 1).SetTheme(L.CheckString(2))
			return 0
		},
		"views": func(L *lua.LState) int {
			views := checkWindow(L, 1).Views()
			t := L.CreateTable(len(views), 0)
			for i, v := range views {
				t.RawSetInt(i+1, o.view(v))
			}
			L.Push(t)
			return 1
		},
		"active_view": func(L *lua.LState) int {
			L.Push(o.view(checkWindow(L, 1).ActiveView()))
			return 1
		},
		"new_file": func(L *lua.LState) int {
			L.Push(o.view(checkWindow(L, 1).NewFile()))
			return 1
		},
		"open_file": func(L *lua.LState) int {
			v, err := checkWindow(L, 1).OpenFile(L.CheckString(2))
			if err != nil {
				L.Push(lua.LNil)
				L.Push(lua.LString(err.Error()))
				return 2
			}
			L.Push(o.view(v))
			return 1
		},
		"focus": func(L *lua.LState) int {
			checkWindow(L, 1).Focus(checkView(L, 2))
			return 0
		},
		"close_view": func(L *lua.LState) int {
			L.Push(lua.LBool(checkWindow(L, 1).CloseView(checkView(L, 2))))
			return 1
		},
		"tab_index": func(L *lua.LState) int {
			// 1-based; 0 when the view is not in this window
			L.Push(lua.LNumber(checkWindow(L, 1).TabIndex(checkView(L, 2)) + 1))
			return 1
		},
		"set_tab": func(L *lua.LState) int {
			L.Push(lua.LBool(checkWindow(L, 1).SetTab(L.CheckInt(2) - 1)))
			return 1
		},
	}))
	L.SetField(mt, "__tostring", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(checkWindow(L, 1).String()))
		return 1
	}))
}
