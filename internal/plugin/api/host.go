package api

import (
	"github.com/vartexter/vartexter/internal/command"
)

// Host is the window-side facade the vt module calls into.
type Host interface {
	command.API

	// SetState writes the persisted value at a dotted path.
	SetState(path string, value any)
	// DeleteState removes the persisted value at a dotted path.
	DeleteState(path string) bool
	// Scratch returns the transient value at a dotted path.
	Scratch(path string) (any, bool)
	// SetScratch writes the transient value at a dotted path.
	SetScratch(path string, value any)
	// Execute dispatches a command.
	Execute(inv command.Invocation) (any, error)
	// Commands returns the registered command names.
	Commands() []string
}

// Application is the host application exposed as "vt.app".
type Application interface {
	Name() string
	APIVersion() string
	PackagesDir() string
	// WindowIDs returns the open window ids in creation order.
	WindowIDs() []string
}
