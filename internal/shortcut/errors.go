package shortcut

import (
	"errors"
	"fmt"
)

// Combo parse errors.
var (
	ErrEmptyCombo   = errors.New("empty key combination")
	ErrInvalidCombo = errors.New("invalid key combination")
)

// ConflictError is returned when a combo already has a binding.
// The first binding is kept.
type ConflictError struct {
	Combo string
	// Owner is the command name of the existing binding, when known.
	Owner string
	// Rejected is the command name of the refused binding, when known.
	Rejected string
}

func (e *ConflictError) Error() string {
	if e.Owner != "" {
		return fmt.Sprintf("shortcut '%s' is already used by '%s'", e.Combo, e.Owner)
	}
	return fmt.Sprintf("shortcut '%s' is already used", e.Combo)
}
