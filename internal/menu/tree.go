package menu

import (
	"fmt"
	"io"
	"strings"

	"github.com/vartexter/vartexter/internal/command"
)

// Item is an entry of a Menu: *Menu, *Action or Separator.
type Item interface {
	isItem()
}

// Separator divides groups of items.
type Separator struct{}

func (Separator) isItem() {}

// Menu is a titled, ordered list of items.
type Menu struct {
	ID      string
	Caption string
	// Plugin is the plugin that created the menu, "" for the host.
	Plugin string
	Items  []Item
}

func (*Menu) isItem() {}

// NewMenu creates an empty menu.
func NewMenu(id, caption string) *Menu {
	return &Menu{ID: id, Caption: caption}
}

// Add appends item.
func (m *Menu) Add(item Item) {
	m.Items = append(m.Items, item)
}

// AddSeparator appends a separator.
func (m *Menu) AddSeparator() {
	m.Items = append(m.Items, Separator{})
}

// Clear removes every item.
func (m *Menu) Clear() {
	m.Items = nil
}

// FindMenu returns the first submenu with id, searching nested submenus
// depth first. m itself is not matched.
func (m *Menu) FindMenu(id string) *Menu {
	for _, item := range m.Items {
		sub, ok := item.(*Menu)
		if !ok {
			continue
		}
		if sub.ID == id {
			return sub
		}
		if found := sub.FindMenu(id); found != nil {
			return found
		}
	}
	return nil
}

// FindAction returns the first action with caption. Direct items are
// searched before submenus.
func (m *Menu) FindAction(caption string) *Action {
	return m.findAction(func(a *Action) bool { return a.Caption == caption })
}

// FindCommand returns the first action dispatching name.
func (m *Menu) FindCommand(name string) *Action {
	return m.findAction(func(a *Action) bool { return a.Invocation.Command == name })
}

func (m *Menu) findAction(match func(*Action) bool) *Action {
	for _, item := range m.Items {
		if a, ok := item.(*Action); ok && match(a) {
			return a
		}
	}
	for _, item := range m.Items {
		if sub, ok := item.(*Menu); ok {
			if found := sub.findAction(match); found != nil {
				return found
			}
		}
	}
	return nil
}

// Actions returns every action in the tree, depth first.
func (m *Menu) Actions() []*Action {
	var out []*Action
	for _, item := range m.Items {
		switch it := item.(type) {
		case *Action:
			out = append(out, it)
		case *Menu:
			out = append(out, it.Actions()...)
		}
	}
	return out
}

// Write renders the tree as an indented outline.
func (m *Menu) Write(w io.Writer) error {
	return m.write(w, 0)
}

func (m *Menu) write(w io.Writer, depth int) error {
	pad := strings.Repeat("  ", depth)
	for _, item := range m.Items {
		var err error
		switch it := item.(type) {
		case Separator:
			_, err = fmt.Fprintf(w, "%s----\n", pad)
		case *Menu:
			if _, err = fmt.Fprintf(w, "%s%s [%s]\n", pad, it.Caption, it.ID); err == nil {
				err = it.write(w, depth+1)
			}
		case *Action:
			_, err = fmt.Fprintf(w, "%s%s\n", pad, it.describe())
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Action is a trigger handle. It implements command.Trigger.
type Action struct {
	Caption   string
	Shortcut  string
	StatusTip string
	// Invocation is dispatched when the action triggers.
	Invocation command.Invocation
	Plugin     string

	checkable bool
	checked   bool
	handler   func(command.Invocation)
}

// NewAction creates an action dispatching inv.
func NewAction(caption string, inv command.Invocation) *Action {
	return &Action{Caption: caption, Invocation: inv}
}

func (*Action) isItem() {}

// Checkable implements command.Trigger.
func (a *Action) Checkable() bool { return a.checkable }

// SetCheckable implements command.Trigger.
func (a *Action) SetCheckable(b bool) {
	a.checkable = b
	if !b {
		a.checked = false
	}
}

// Checked implements command.Trigger.
func (a *Action) Checked() bool { return a.checked }

// SetChecked implements command.Trigger. It is a no-op unless checkable.
func (a *Action) SetChecked(b bool) {
	if a.checkable {
		a.checked = b
	}
}

// OnTrigger sets the handler called by Trigger.
func (a *Action) OnTrigger(fn func(command.Invocation)) {
	a.handler = fn
}

// Trigger activates the action. It returns false when no handler is wired
// or the action has no command.
func (a *Action) Trigger() bool {
	if a.handler == nil || a.Invocation.Command == "" {
		return false
	}
	a.handler(a.Invocation)
	return true
}

func (a *Action) describe() string {
	var b strings.Builder
	b.WriteString(a.Caption)
	if a.checkable {
		if a.checked {
			b.WriteString(" [x]")
		} else {
			b.WriteString(" [ ]")
		}
	}
	if a.Shortcut != "" {
		b.WriteString("\t" + a.Shortcut)
	}
	if a.Invocation.Command != "" {
		b.WriteString("\t-> " + a.Invocation.Command)
	}
	return b.String()
}
