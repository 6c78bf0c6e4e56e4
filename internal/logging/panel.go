package logging

import (
	"strings"
	"sync"
)

// DefaultPanelSize is the number of entries a panel keeps by default.
const DefaultPanelSize = 1000

// Panel is the in-memory log panel. It keeps the most recent entries in
// arrival order.
type Panel struct {
	mu      sync.Mutex
	entries []Entry
	max     int
}

// NewPanel creates a panel holding at most max entries.
func NewPanel(max int) *Panel {
	if max <= 0 {
		max = DefaultPanelSize
	}
	return &Panel{max: max}
}

// Record implements Sink.
func (p *Panel) Record(e Entry) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.entries = append(p.entries, e)
	if over := len(p.entries) - p.max; over > 0 {
		p.entries = append(p.entries[:0:0], p.entries[over:]...)
	}
}

// Entries returns a copy of the stored entries.
func (p *Panel) Entries() []Entry {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Entry, len(p.entries))
	copy(out, p.entries)
	return out
}

// Len returns the number of stored entries.
func (p *Panel) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// Contains reports whether any entry at or above level contains substr.
func (p *Panel) Contains(level Level, substr string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, e := range p.entries {
		if e.Level >= level && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

// Text renders the panel as plain text, one entry per line.
func (p *Panel) Text() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	var b strings.Builder
	for _, e := range p.entries {
		b.WriteString("[")
		b.WriteString(e.Level.Tag())
		b.WriteString("] ")
		b.WriteString(e.Message)
		b.WriteString("\n")
	}
	return b.String()
}

// Clear removes all entries.
func (p *Panel) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = nil
}
