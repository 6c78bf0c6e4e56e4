package command

import (
	"errors"
	"fmt"
)

// Command errors.
var (
	// ErrNotFound is returned when an invocation names an unregistered command.
	ErrNotFound = errors.New("command not found")

	// ErrEmptyName is returned when a registration carries no command name.
	ErrEmptyName = errors.New("command name is empty")

	// ErrNoResolver is returned when a name-only registration cannot be resolved.
	ErrNoResolver = errors.New("no command resolver configured")

	// ErrUnbound is returned when a descriptor's kind is Unbound.
	ErrUnbound = errors.New("command kind is not bound")

	// ErrNoWindow is returned when a window or text command runs without a window.
	ErrNoWindow = errors.New("no active window")

	// ErrNoView is returned when a text command runs without a focused view.
	ErrNoView = errors.New("no active view")
)

// RegistrationError reports a command entry that could not be registered.
type RegistrationError struct {
	Command string
	Plugin  string
	Err     error
}

// Error implements the error interface.
func (e *RegistrationError) Error() string {
	if e.Plugin != "" {
		return fmt.Sprintf("registering '%s' from '%s': %v", e.Command, e.Plugin, e.Err)
	}
	return fmt.Sprintf("registering '%s': %v", e.Command, e.Err)
}

// Unwrap returns the underlying error.
func (e *RegistrationError) Unwrap() error {
	return e.Err
}

// RuntimeError wraps a failure raised while constructing or running a command.
type RuntimeError struct {
	Command string
	Err     error
	// Panicked is true when the failure was a recovered panic.
	Panicked bool
}

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Panicked {
		return fmt.Sprintf("command '%s' panicked: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("command '%s' failed: %v", e.Command, e.Err)
}

// Unwrap returns the underlying error.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}
