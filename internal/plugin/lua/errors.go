package lua

import (
	"errors"
	"fmt"
)

var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrNotFunction is returned when calling a value that is not a function.
	ErrNotFunction = errors.New("not a function")

	// ErrImportBlocked is raised inside Lua when a guarded module is required.
	ErrImportBlocked = errors.New("import blocked")
)

// ScriptError is a failure raised by Lua code, a Lua syntax error, or a panic
// recovered while running Lua.
type ScriptError struct {
	// Source is the file or chunk name.
	Source string
	Err    error
}

func (e *ScriptError) Error() string {
	if e.Source == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *ScriptError) Unwrap() error {
	return e.Err
}
