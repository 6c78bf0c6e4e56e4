package shortcut

import (
	"sort"

	"github.com/vartexter/vartexter/internal/command"
)

type binding struct {
	trigger command.Trigger
	owner   string
}

// Table is the set of bound shortcuts for one window.
// It is owned by the control loop and is not safe for concurrent use.
type Table struct {
	bindings  map[string]binding
	conflicts []*ConflictError
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{bindings: make(map[string]binding)}
}

// Bound reports whether combo already has a binding.
func (t *Table) Bound(combo string) bool {
	_, ok := t.bindings[Canonical(combo)]
	return ok
}

// Bind binds combo to trigger. owner names the command for diagnostics.
// A taken combo yields *ConflictError, which is also kept in Conflicts.
func (t *Table) Bind(combo string, trigger command.Trigger, owner string) error {
	c, err := Parse(combo)
	if err != nil {
		return err
	}
	key := c.String()
	if existing, ok := t.bindings[key]; ok {
		cerr := &ConflictError{Combo: key, Owner: existing.owner, Rejected: owner}
		t.conflicts = append(t.conflicts, cerr)
		return cerr
	}
	t.bindings[key] = binding{trigger: trigger, owner: owner}
	return nil
}

// Lookup returns the trigger bound to combo.
func (t *Table) Lookup(combo string) (command.Trigger, bool) {
	b, ok := t.bindings[Canonical(combo)]
	return b.trigger, ok
}

// Owner returns the command name recorded for combo.
func (t *Table) Owner(combo string) string {
	return t.bindings[Canonical(combo)].owner
}

// Unbind removes combo. Returns true if it was bound.
func (t *Table) Unbind(combo string) bool {
	key := Canonical(combo)
	if _, ok := t.bindings[key]; !ok {
		return false
	}
	delete(t.bindings, key)
	return true
}

// Combos returns the bound combos, sorted.
func (t *Table) Combos() []string {
	out := make([]string, 0, len(t.bindings))
	for k := range t.bindings {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Conflicts returns every rejected binding in the order it was refused.
func (t *Table) Conflicts() []*ConflictError {
	out := make([]*ConflictError, len(t.conflicts))
	copy(out, t.conflicts)
	return out
}

// Len returns the number of bound combos.
func (t *Table) Len() int {
	return len(t.bindings)
}

// Reset removes every binding and recorded conflict.
func (t *Table) Reset() {
	t.bindings = make(map[string]binding)
	t.conflicts = nil
}
