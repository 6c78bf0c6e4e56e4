package lua

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	glua "github.com/yuin/gopher-lua"
)

func preloadValue(state *State, name, value string) {
	state.PreloadModule(name, func(L *glua.LState) int {
		L.Push(glua.LString(value))
		return 1
	})
}

func TestRequireSafeBuiltins(t *testing.T) {
	state := NewState()
	defer state.Close()

	if err := state.DoString(`local s = require("string"); assert(s.upper("a") == "A")`); err != nil {
		t.Errorf("require(string) error = %v", err)
	}
	for _, mod := range []string{"io", "os", "debug"} {
		if err := state.DoString(`require("` + mod + `")`); err == nil {
			t.Errorf("require(%q) should fail", mod)
		}
	}
}

func TestRequirePreloaded(t *testing.T) {
	state := NewState()
	defer state.Close()
	preloadValue(state, "vt", "facade")

	if err := state.DoString(`v = require("vt")`); err != nil {
		t.Fatalf("require(vt) error = %v", err)
	}
	if state.GetGlobal("v").String() != "facade" {
		t.Errorf("v = %v", state.GetGlobal("v"))
	}
}

func TestImportGuard(t *testing.T) {
	state := NewState()
	defer state.Close()
	preloadValue(state, "vt.app", "host")
	preloadValue(state, "vt", "facade")

	guard := state.Sandbox().GuardImports([]string{"vt.app"})

	err := state.DoString(`require("vt.app")`)
	if err == nil || !strings.Contains(err.Error(), ErrImportBlocked.Error()) {
		t.Errorf("guarded require error = %v", err)
	}
	if err := state.DoString(`require("vt")`); err != nil {
		t.Errorf("unguarded module blocked: %v", err)
	}

	guard.Release()
	guard.Release()

	if err := state.DoString(`app = require("vt.app")`); err != nil {
		t.Errorf("require after release error = %v", err)
	}
	if len(state.Sandbox().Denied()) != 0 {
		t.Errorf("Denied() = %v after release", state.Sandbox().Denied())
	}
}

func TestImportGuardNests(t *testing.T) {
	s := NewState().Sandbox()

	outer := s.GuardImports([]string{"a"})
	inner := s.GuardImports([]string{"b"})
	if !s.Blocked("a.x") || !s.Blocked("b") {
		t.Error("nested guard should deny both prefixes")
	}
	inner.Release()
	if s.Blocked("b") || !s.Blocked("a") {
		t.Error("releasing inner guard should restore outer denylist")
	}
	outer.Release()
	if s.Blocked("a") {
		t.Error("releasing outer guard should clear the denylist")
	}
}

func TestImportGuardReleasedAfterError(t *testing.T) {
	state := NewState()
	defer state.Close()
	preloadValue(state, "vt.app", "host")

	func() {
		guard := state.Sandbox().GuardImports([]string{"vt.app"})
		defer guard.Release()
		_ = state.DoString(`error("plugin failed")`)
	}()

	if err := state.DoString(`require("vt.app")`); err != nil {
		t.Errorf("guard leaked past a failing load: %v", err)
	}
}

func TestRequirePluginLocal(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "lib", "util"), 0755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"helpers.lua":        `return { greet = function() return "hi" end }`,
		"lib/util/init.lua":  `return { n = 7 }`,
		"lib/sideeffect.lua": `touched = (touched or 0) + 1`,
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, filepath.FromSlash(name)), []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
	}

	state := NewState(WithModuleDir(dir))
	defer state.Close()

	code := `
		local h = require("helpers")
		greeting = h.greet()
		util_n = require("lib.util").n
		require("lib.sideeffect")
		require("lib.sideeffect")
	`
	if err := state.DoString(code); err != nil {
		t.Fatalf("local require error = %v", err)
	}
	if state.GetGlobal("greeting").String() != "hi" {
		t.Error("helpers not loaded")
	}
	if state.GetGlobal("util_n").(glua.LNumber) != 7 {
		t.Error("package init.lua not loaded")
	}
	if state.GetGlobal("touched").(glua.LNumber) != 1 {
		t.Error("module executed more than once")
	}

	for _, bad := range []string{"../escape", "missing", "lib/util"} {
		if err := state.DoString(`require("` + bad + `")`); err == nil {
			t.Errorf("require(%q) should fail", bad)
		}
	}
}

func TestBlockedPrefix(t *testing.T) {
	s := NewSandbox(nil)
	g := s.GuardImports([]string{"vt.app", ""})
	defer g.Release()

	tests := map[string]bool{
		"vt.app":        true,
		"vt.app.window": true,
		"vt":            false,
		"string":        false,
	}
	for name, want := range tests {
		if got := s.Blocked(name); got != want {
			t.Errorf("Blocked(%q) = %v, want %v", name, got, want)
		}
	}
}
