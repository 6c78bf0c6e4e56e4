package api

import (
	"sort"
	"strings"
	"testing"

	"github.com/vartexter/vartexter/internal/command"
	"github.com/vartexter/vartexter/internal/editor"
	"github.com/vartexter/vartexter/internal/logging"
	luart "github.com/vartexter/vartexter/internal/plugin/lua"
)

type logLine struct {
	level logging.Level
	msg   string
}

// fakeHost is an in-memory Host.
type fakeHost struct {
	window  *editor.Window
	state   map[string]any
	scratch map[string]any
	logs    []logLine
	execute func(inv command.Invocation) (any, error)
	names   []string
}

func newFakeHost() *fakeHost {
	w := editor.NewWindow("w1")
	w.NewFile()
	return &fakeHost{
		window:  w,
		state:   map[string]any{},
		scratch: map[string]any{},
	}
}

func (h *fakeHost) ActiveWindow() *editor.Window { return h.window }

func (h *fakeHost) Log(level logging.Level, msg string) {
	h.logs = append(h.logs, logLine{level: level, msg: msg})
}

func (h *fakeHost) State(path string) (any, bool) {
	v, ok := h.state[path]
	return v, ok
}

func (h *fakeHost) SetState(path string, value any) { h.state[path] = value }

func (h *fakeHost) DeleteState(path string) bool {
	_, ok := h.state[path]
	delete(h.state, path)
	return ok
}

func (h *fakeHost) Scratch(path string) (any, bool) {
	v, ok := h.scratch[path]
	return v, ok
}

func (h *fakeHost) SetScratch(path string, value any) { h.scratch[path] = value }

func (h *fakeHost) Execute(inv command.Invocation) (any, error) {
	if h.execute == nil {
		return nil, command.ErrNotFound
	}
	return h.execute(inv)
}

func (h *fakeHost) Commands() []string {
	out := append([]string(nil), h.names...)
	sort.Strings(out)
	return out
}

func (h *fakeHost) logged(level logging.Level, substr string) bool {
	for _, l := range h.logs {
		if l.level == level && strings.Contains(l.msg, substr) {
			return true
		}
	}
	return false
}

type fakeApp struct{}

func (fakeApp) Name() string        { return "VarTexter2" }
func (fakeApp) APIVersion() string  { return "1.3" }
func (fakeApp) PackagesDir() string { return "/tmp/packages" }
func (fakeApp) WindowIDs() []string { return []string{"w1", "w2"} }

// newFacade returns a facade over a fresh state, closed at test end.
func newFacade(t *testing.T, host Host, opts ...Option) (*luart.State, *Facade) {
	t.Helper()
	state := luart.NewState()
	t.Cleanup(func() { state.Close() })
	return state, Install(state, host, "demo", opts...)
}

// mustRun executes code and fails the test on error.
func mustRun(t *testing.T, state *luart.State, code string) {
	t.Helper()
	if err := state.DoString(code); err != nil {
		t.Fatalf("DoString() error = %v", err)
	}
}
