// Package editor is the in-memory model of editor windows and their views.
//
// It stands in for the widget toolkit: a Window is a set of tabs, a View is
// one tab's text plus its file metadata. Commands receive these objects as
// their execution context.
package editor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoFile is returned when saving a view that has no file name.
var ErrNoFile = errors.New("view has no file")

// View is one editable tab.
type View struct {
	id       int
	title    string
	text     string
	file     string
	encoding string
	saved    bool
	readOnly bool
	window   *Window
}

// ID returns the view id, unique within its window.
func (v *View) ID() int { return v.id }

// Window returns the owning window.
func (v *View) Window() *Window { return v.window }

// Title returns the tab title.
func (v *View) Title() string { return v.title }

// SetTitle sets the tab title.
func (v *View) SetTitle(s string) { v.title = s }

// Text returns the whole buffer.
func (v *View) Text() string { return v.text }

// SetText replaces the buffer and marks the view dirty.
func (v *View) SetText(s string) error {
	if v.readOnly {
		return fmt.Errorf("view %d is read-only", v.id)
	}
	v.text = s
	v.saved = false
	return nil
}

// Insert inserts s at byte offset pos, clamped to the buffer.
func (v *View) Insert(pos int, s string) error {
	if v.readOnly {
		return fmt.Errorf("view %d is read-only", v.id)
	}
	pos = clamp(pos, 0, len(v.text))
	v.text = v.text[:pos] + s + v.text[pos:]
	v.saved = false
	return nil
}

// Erase removes the byte range [a, b), clamped to the buffer.
func (v *View) Erase(a, b int) error {
	if v.readOnly {
		return fmt.Errorf("view %d is read-only", v.id)
	}
	if a > b {
		a, b = b, a
	}
	a = clamp(a, 0, len(v.text))
	b = clamp(b, 0, len(v.text))
	v.text = v.text[:a] + v.text[b:]
	v.saved = false
	return nil
}

// Size returns the buffer length in bytes.
func (v *View) Size() int { return len(v.text) }

// File returns the backing file path, or "".
func (v *View) File() string { return v.file }

// SetFile sets the backing file and derives the title from it.
func (v *View) SetFile(path string) {
	v.file = path
	if path != "" {
		v.title = filepath.Base(path)
	}
}

// Encoding returns the text encoding label.
func (v *View) Encoding() string { return v.encoding }

// Saved reports whether the buffer matches its file.
func (v *View) Saved() bool { return v.saved }

// SetSaved sets the saved flag.
func (v *View) SetSaved(b bool) { v.saved = b }

// ReadOnly reports whether edits are rejected.
func (v *View) ReadOnly() bool { return v.readOnly }

// SetReadOnly toggles edit rejection.
func (v *View) SetReadOnly(b bool) { v.readOnly = b }

// Save writes the buffer to its file.
func (v *View) Save() error {
	if v.file == "" {
		return ErrNoFile
	}
	if err := os.WriteFile(v.file, []byte(v.text), 0o644); err != nil {
		return err
	}
	v.saved = true
	return nil
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// Window is a top-level editor window holding ordered views.
type Window struct {
	id     string
	title  string
	views  []*View
	active *View
	nextID int
	theme  string
}

// NewWindow creates an empty window.
func NewWindow(id string) *Window {
	return &Window{id: id, title: "Main"}
}

// ID returns the window id.
func (w *Window) ID() string { return w.id }

// Title returns the window title.
func (w *Window) Title() string { return w.title }

// SetTitle sets the window title.
func (w *Window) SetTitle(s string) { w.title = s }

// Theme returns the current theme file.
func (w *Window) Theme() string { return w.theme }

// SetTheme sets the current theme file.
func (w *Window) SetTheme(s string) { w.theme = s }

// NewFile opens an untitled view and focuses it.
func (w *Window) NewFile() *View {
	w.nextID++
	v := &View{
		id:       w.nextID,
		title:    "Untitled",
		encoding: "UTF-8",
		saved:    true,
		window:   w,
	}
	w.views = append(w.views, v)
	w.active = v
	return v
}

// OpenFile reads path into a new focused view.
// If the file is already open, that view is focused instead.
func (w *Window) OpenFile(path string) (*View, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	for _, v := range w.views {
		if v.file == abs {
			w.active = v
			return v, nil
		}
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, err
	}

	v := w.NewFile()
	v.text = string(data)
	v.SetFile(abs)
	v.saved = true
	return v, nil
}

// Views returns the views in tab order.
func (w *Window) Views() []*View {
	out := make([]*View, len(w.views))
	copy(out, w.views)
	return out
}

// ActiveView returns the focused view, or nil.
func (w *Window) ActiveView() *View { return w.active }

// Focus makes v the active view. Views of other windows are ignored.
func (w *Window) Focus(v *View) {
	if v != nil && v.window == w {
		w.active = v
	}
}

// TabIndex returns the index of v, or -1.
func (w *Window) TabIndex(v *View) int {
	for i, candidate := range w.views {
		if candidate == v {
			return i
		}
	}
	return -1
}

// SetTab focuses the view at index i. Returns false when out of range.
func (w *Window) SetTab(i int) bool {
	if i < 0 || i >= len(w.views) {
		return false
	}
	w.active = w.views[i]
	return true
}

// CloseView removes v. The tab to its left (or the new first tab) gains focus.
func (w *Window) CloseView(v *View) bool {
	i := w.TabIndex(v)
	if i < 0 {
		return false
	}
	w.views = append(w.views[:i], w.views[i+1:]...)
	v.window = nil

	if w.active == v {
		w.active = nil
		if len(w.views) > 0 {
			if i > 0 {
				i--
			}
			w.active = w.views[i]
		}
	}
	return true
}

// Dirty returns the titles of views with unsaved changes.
func (w *Window) Dirty() []string {
	var titles []string
	for _, v := range w.views {
		if !v.saved {
			titles = append(titles, v.title)
		}
	}
	return titles
}

// String summarises the window for logs.
func (w *Window) String() string {
	titles := make([]string, len(w.views))
	for i, v := range w.views {
		titles[i] = v.title
	}
	return fmt.Sprintf("Window(%s: %s)", w.id, strings.Join(titles, ", "))
}
