package command

import (
	"github.com/vartexter/vartexter/internal/editor"
	"github.com/vartexter/vartexter/internal/logging"
)

// Kind selects the context a command is constructed with.
type Kind int

const (
	// Unbound commands have no resolved kind and cannot run.
	Unbound Kind = iota
	// Text commands receive the API and the focused view.
	Text
	// Window commands receive the API and the active window.
	Window
	// Application commands receive the API only.
	Application
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Window:
		return "window"
	case Application:
		return "application"
	default:
		return "unbound"
	}
}

// ParseKind parses a kind name. Unknown names yield Unbound.
func ParseKind(s string) Kind {
	switch s {
	case "text", "TextCommand":
		return Text
	case "window", "WindowCommand":
		return Window
	case "application", "app", "ApplicationCommand":
		return Application
	default:
		return Unbound
	}
}

// API is the host facade handed to every command.
type API interface {
	// ActiveWindow returns the window commands act on, or nil.
	ActiveWindow() *editor.Window
	// Log writes a message to the log panel.
	Log(level logging.Level, msg string)
	// State returns the persisted value at a dotted path.
	State(path string) (any, bool)
}

// Target is the context a class is constructed with. Only the fields
// matching the class kind are set.
type Target struct {
	API    API
	Window *editor.Window
	View   *editor.View
}

// Runner is a constructed command instance.
type Runner interface {
	Run(args []any, kwargs map[string]any) (any, error)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(args []any, kwargs map[string]any) (any, error)

// Run implements Runner.
func (f RunnerFunc) Run(args []any, kwargs map[string]any) (any, error) {
	return f(args, kwargs)
}

// Class is a registrable command type.
type Class struct {
	Name string
	Kind Kind
	// New constructs one instance for one invocation.
	New func(t Target) (Runner, error)
}

// TextClass builds a Text command class.
func TextClass(name string, fn func(api API, view *editor.View) Runner) *Class {
	return &Class{
		Name: name,
		Kind: Text,
		New: func(t Target) (Runner, error) {
			return fn(t.API, t.View), nil
		},
	}
}

// WindowClass builds a Window command class.
func WindowClass(name string, fn func(api API, w *editor.Window) Runner) *Class {
	return &Class{
		Name: name,
		Kind: Window,
		New: func(t Target) (Runner, error) {
			return fn(t.API, t.Window), nil
		},
	}
}

// ApplicationClass builds an Application command class.
func ApplicationClass(name string, fn func(api API) Runner) *Class {
	return &Class{
		Name: name,
		Kind: Application,
		New: func(t Target) (Runner, error) {
			return fn(t.API), nil
		},
	}
}
