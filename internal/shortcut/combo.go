package shortcut

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Modifier is a set of modifier keys.
type Modifier uint8

const (
	ModNone Modifier = 0
	ModCtrl Modifier = 1 << (iota - 1)
	ModShift
	ModAlt
	ModMeta
)

// Has returns true if m contains mod.
func (m Modifier) Has(mod Modifier) bool {
	return m&mod != 0
}

// String renders m in canonical order, each name followed by "+".
func (m Modifier) String() string {
	var b strings.Builder
	if m.Has(ModCtrl) {
		b.WriteString("Ctrl+")
	}
	if m.Has(ModShift) {
		b.WriteString("Shift+")
	}
	if m.Has(ModAlt) {
		b.WriteString("Alt+")
	}
	if m.Has(ModMeta) {
		b.WriteString("Meta+")
	}
	return b.String()
}

func modifierFromName(name string) Modifier {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "ctrl", "control", "c":
		return ModCtrl
	case "shift", "s":
		return ModShift
	case "alt", "option", "opt", "a":
		return ModAlt
	case "meta", "cmd", "command", "super", "win", "m":
		return ModMeta
	default:
		return ModNone
	}
}

// keyNames maps lowercase aliases to canonical key names.
var keyNames = map[string]string{
	"esc":       "Esc",
	"escape":    "Esc",
	"return":    "Return",
	"enter":     "Return",
	"cr":        "Return",
	"tab":       "Tab",
	"backtab":   "Backtab",
	"backspace": "Backspace",
	"bs":        "Backspace",
	"del":       "Del",
	"delete":    "Del",
	"ins":       "Ins",
	"insert":    "Ins",
	"home":      "Home",
	"end":       "End",
	"pgup":      "PgUp",
	"pageup":    "PgUp",
	"pgdown":    "PgDown",
	"pgdn":      "PgDown",
	"pagedown":  "PgDown",
	"up":        "Up",
	"down":      "Down",
	"left":      "Left",
	"right":     "Right",
	"space":     "Space",
	"plus":      "+",
	"minus":     "-",
	"pause":     "Pause",
	"print":     "Print",
}

// Combo is a parsed key combination.
type Combo struct {
	Mod Modifier
	Key string
}

// String renders the combo canonically, e.g. "Ctrl+Shift+N".
func (c Combo) String() string {
	return c.Mod.String() + c.Key
}

// Parse parses a combo such as "Ctrl+Shift+N", "alt+f4" or "Ctrl++".
func Parse(s string) (Combo, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Combo{}, ErrEmptyCombo
	}

	var keyPart string
	var modParts []string
	switch {
	case s == "+":
		keyPart = "+"
	case strings.HasSuffix(s, "++"):
		keyPart = "+"
		modParts = strings.Split(strings.TrimSuffix(s, "++"), "+")
	default:
		parts := strings.Split(s, "+")
		keyPart = parts[len(parts)-1]
		modParts = parts[:len(parts)-1]
	}

	var mod Modifier
	for _, p := range modParts {
		m := modifierFromName(p)
		if m == ModNone {
			return Combo{}, fmt.Errorf("%w: unknown modifier %q in %q", ErrInvalidCombo, p, s)
		}
		mod |= m
	}

	key, err := keyName(keyPart)
	if err != nil {
		return Combo{}, fmt.Errorf("%w in %q", err, s)
	}
	return Combo{Mod: mod, Key: key}, nil
}

func keyName(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: missing key", ErrInvalidCombo)
	}
	lower := strings.ToLower(s)
	if name, ok := keyNames[lower]; ok {
		return name, nil
	}
	if utf8.RuneCountInString(s) == 1 {
		r, _ := utf8.DecodeRuneInString(s)
		return string(unicode.ToUpper(r)), nil
	}
	if n, ok := functionKey(lower); ok {
		return fmt.Sprintf("F%d", n), nil
	}
	return "", fmt.Errorf("%w: unknown key %q", ErrInvalidCombo, s)
}

func functionKey(lower string) (int, bool) {
	if !strings.HasPrefix(lower, "f") {
		return 0, false
	}
	var n int
	if _, err := fmt.Sscanf(lower[1:], "%d", &n); err != nil || n < 1 || n > 35 {
		return 0, false
	}
	if fmt.Sprintf("f%d", n) != lower {
		return 0, false
	}
	return n, true
}

// Canonical returns the canonical form of combo, or combo unchanged if it
// does not parse.
func Canonical(combo string) string {
	c, err := Parse(combo)
	if err != nil {
		return combo
	}
	return c.String()
}
