package plugin

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/vartexter/vartexter/internal/command"
	"github.com/vartexter/vartexter/internal/editor"
	"github.com/vartexter/vartexter/internal/logging"
)

type testHost struct {
	window *editor.Window
	state  map[string]any
	logs   []string
	reg    *command.Registry
}

func newTestHost() *testHost {
	w := editor.NewWindow("w1")
	w.NewFile()
	return &testHost{window: w, state: map[string]any{}}
}

func (h *testHost) ActiveWindow() *editor.Window { return h.window }

func (h *testHost) Log(level logging.Level, msg string) {
	h.logs = append(h.logs, level.Tag()+": "+msg)
}

func (h *testHost) State(path string) (any, bool) {
	v, ok := h.state[path]
	return v, ok
}

func (h *testHost) SetState(path string, value any) { h.state[path] = value }

func (h *testHost) DeleteState(path string) bool {
	_, ok := h.state[path]
	delete(h.state, path)
	return ok
}

func (h *testHost) Scratch(path string) (any, bool) { return nil, false }

func (h *testHost) SetScratch(path string, value any) {}

func (h *testHost) Execute(inv command.Invocation) (any, error) {
	return nil, command.ErrNotFound
}

func (h *testHost) Commands() []string {
	if h.reg == nil {
		return nil
	}
	names := h.reg.Names()
	sort.Strings(names)
	return names
}

// writeFiles creates files below root. Keys are slash-separated paths.
func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

// newPanelLogger returns a logger whose records land in the returned panel.
func newPanelLogger() (*logging.Logger, *logging.Panel) {
	panel := logging.NewPanel(0)
	l := logging.New(logging.Config{Level: logging.LevelDebug, Output: io.Discard})
	l.AddSink(panel)
	return l, panel
}

func commandTarget() command.Target {
	return command.Target{API: newTestHost()}
}
