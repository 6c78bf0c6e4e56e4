package command

import (
	"errors"
	"testing"

	"github.com/vartexter/vartexter/internal/logging"
)

func TestRegisterFunctionWithClass(t *testing.T) {
	rec := &recorder{}
	r := NewRegistry()

	err := r.RegisterFunction(Registration{
		Class:  rec.class("SaveCommand"),
		Args:   []any{1},
		Kwargs: map[string]any{"force": true},
	})
	if err != nil {
		t.Fatalf("RegisterFunction() error = %v", err)
	}

	d, ok := r.Get("SaveCommand")
	if !ok {
		t.Fatal("SaveCommand not registered")
	}
	if d.Kind != Application || d.Plugin != "" {
		t.Errorf("descriptor = %+v", d)
	}
	if len(d.Args) != 1 || d.Kwargs["force"] != true {
		t.Errorf("defaults = %v %v", d.Args, d.Kwargs)
	}
}

func TestRegisterFunctionResolvesByName(t *testing.T) {
	rec := &recorder{}
	resolver := testResolver{"Minimap": {"ToggleMinimapCommand": rec.class("ToggleMinimapCommand")}}
	r := NewRegistry(WithResolver(resolver))

	if err := r.RegisterFunction(Registration{Name: "ToggleMinimapCommand", Plugin: "Minimap"}); err != nil {
		t.Fatalf("RegisterFunction() error = %v", err)
	}
	if d, _ := r.Get("ToggleMinimapCommand"); d.Plugin != "Minimap" {
		t.Errorf("Plugin = %q", d.Plugin)
	}
}

func TestRegisterFunctionUnresolvableDropsEntry(t *testing.T) {
	logger, panel := newPanelLogger()
	r := NewRegistry(WithResolver(testResolver{}), WithLogger(logger))

	err := r.RegisterFunction(Registration{Name: "Missing", Plugin: "Broken"})
	var rerr *RegistrationError
	if !errors.As(err, &rerr) {
		t.Fatalf("error = %v, want *RegistrationError", err)
	}
	if r.Has("Missing") {
		t.Error("unresolvable command registered")
	}
	if !panel.Contains(logging.LevelError, "Missing") {
		t.Error("registration failure not logged")
	}

	if err := NewRegistry().RegisterFunction(Registration{Name: "X"}); !errors.Is(err, ErrNoResolver) {
		t.Errorf("no resolver error = %v", err)
	}
	if err := NewRegistry().RegisterFunction(Registration{}); !errors.Is(err, ErrEmptyName) {
		t.Errorf("empty name error = %v", err)
	}
}

func TestReRegistrationReplacesEntirely(t *testing.T) {
	rec := &recorder{}
	logger, panel := newPanelLogger()
	r := NewRegistry(WithLogger(logger))

	_ = r.RegisterFunction(Registration{
		Class:  rec.class("Cmd"),
		Args:   []any{"first"},
		Kwargs: map[string]any{"a": 1},
		Plugin: "One",
	})
	_ = r.RegisterFunction(Registration{
		Class:  rec.class("Cmd"),
		Plugin: "Two",
	})

	d, _ := r.Get("Cmd")
	if d.Args != nil || d.Kwargs != nil {
		t.Errorf("defaults merged from first registration: %v %v", d.Args, d.Kwargs)
	}
	if d.Plugin != "Two" {
		t.Errorf("Plugin = %q, want Two", d.Plugin)
	}
	if !panel.Contains(logging.LevelInfo, "re-registered") {
		t.Error("overwrite not logged")
	}
}

func TestRegisterClassUsesOwnName(t *testing.T) {
	rec := &recorder{}
	r := NewRegistry()
	if err := r.RegisterClass(rec.class("UpperCaseCommand"), "TextTools"); err != nil {
		t.Fatal(err)
	}
	d, ok := r.Get("UpperCaseCommand")
	if !ok || d.Plugin != "TextTools" {
		t.Errorf("descriptor = %+v, ok = %v", d, ok)
	}
	if err := r.RegisterClass(nil, "TextTools"); err == nil {
		t.Error("RegisterClass(nil) should fail")
	}
}

func TestRegisterShortcuts(t *testing.T) {
	rec := &recorder{}
	binder := newTestBinder()
	logger, panel := newPanelLogger()
	r := NewRegistry(WithBinder(binder), WithLogger(logger))

	checked := true
	err := r.RegisterFunction(Registration{
		Class:     rec.class("First"),
		Shortcuts: []string{"Ctrl+N"},
		Checkable: true,
		Checked:   &checked,
	})
	if err != nil {
		t.Fatal(err)
	}
	first, _ := r.Get("First")
	if first.Trigger == nil {
		t.Fatal("no trigger created for shortcut")
	}
	if !first.Trigger.Checkable() || !first.Trigger.Checked() {
		t.Error("checkable/checked not applied to trigger")
	}

	_ = r.RegisterFunction(Registration{
		Class:     rec.class("Second"),
		Shortcuts: []string{"Ctrl+N"},
	})
	second, _ := r.Get("Second")
	if second == nil {
		t.Fatal("conflicting shortcut should not drop the command")
	}
	if second.Trigger != nil {
		t.Error("trigger created although every shortcut was taken")
	}
	if binder.bound["Ctrl+N"] != first.Trigger {
		t.Error("first binding lost")
	}
	if !panel.Contains(logging.LevelWarn, "already used") {
		t.Error("conflict not logged")
	}
}

func TestUnregisterPlugin(t *testing.T) {
	rec := &recorder{}
	r := NewRegistry()
	_ = r.RegisterClass(rec.class("A"), "P")
	_ = r.RegisterClass(rec.class("B"), "P")
	_ = r.RegisterClass(rec.class("C"), "")

	if n := r.UnregisterPlugin("P"); n != 2 {
		t.Errorf("UnregisterPlugin() = %d, want 2", n)
	}
	if got := r.Names(); len(got) != 1 || got[0] != "C" {
		t.Errorf("Names() = %v", got)
	}
	if !r.Unregister("C") || r.Unregister("C") {
		t.Error("Unregister semantics wrong")
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %d", r.Len())
	}
}
