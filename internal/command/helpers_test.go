package command

import (
	"errors"
	"fmt"
	"io"

	"github.com/vartexter/vartexter/internal/editor"
	"github.com/vartexter/vartexter/internal/logging"
)

type testAPI struct {
	window *editor.Window
	state  map[string]any
	logged []string
}

func newTestAPI() *testAPI {
	w := editor.NewWindow("w1")
	w.NewFile()
	return &testAPI{window: w, state: map[string]any{}}
}

func (a *testAPI) ActiveWindow() *editor.Window { return a.window }

func (a *testAPI) Log(level logging.Level, msg string) {
	a.logged = append(a.logged, level.Tag()+": "+msg)
}

func (a *testAPI) State(path string) (any, bool) {
	v, ok := a.state[path]
	return v, ok
}

type testTrigger struct {
	checkable bool
	checked   bool
	inv       Invocation
}

func (t *testTrigger) Checkable() bool     { return t.checkable }
func (t *testTrigger) SetCheckable(b bool) { t.checkable = b }
func (t *testTrigger) Checked() bool       { return t.checked }
func (t *testTrigger) SetChecked(b bool)   { t.checked = b }

type testBinder struct {
	bound   map[string]Trigger
	created []*testTrigger
}

func newTestBinder() *testBinder {
	return &testBinder{bound: map[string]Trigger{}}
}

func (b *testBinder) Bound(combo string) bool {
	_, ok := b.bound[combo]
	return ok
}

func (b *testBinder) NewTrigger(inv Invocation) Trigger {
	t := &testTrigger{inv: inv}
	b.created = append(b.created, t)
	return t
}

func (b *testBinder) BindShortcut(combo string, t Trigger) error {
	if b.Bound(combo) {
		return errors.New("taken")
	}
	b.bound[combo] = t
	return nil
}

type testResolver map[string]map[string]*Class

func (r testResolver) Resolve(plugin, symbol string) (*Class, error) {
	if c, ok := r[plugin][symbol]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("module '%s' has no attribute '%s'", plugin, symbol)
}

// recorder is an application command that records its calls.
type recorder struct {
	calls []call
}

type call struct {
	name   string
	args   []any
	kwargs map[string]any
}

func (r *recorder) class(name string) *Class {
	return ApplicationClass(name, func(API) Runner {
		return RunnerFunc(func(args []any, kwargs map[string]any) (any, error) {
			r.calls = append(r.calls, call{name: name, args: args, kwargs: kwargs})
			return nil, nil
		})
	})
}

func newPanelLogger() (*logging.Logger, *logging.Panel) {
	panel := logging.NewPanel(0)
	l := logging.New(logging.Config{Level: logging.LevelDebug, Output: io.Discard})
	l.AddSink(panel)
	return l, panel
}
