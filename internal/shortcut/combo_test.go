package shortcut

import (
	"errors"
	"testing"
)

func TestCanonical(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Ctrl+N", "Ctrl+N"},
		{"shift+ctrl+n", "Ctrl+Shift+N"},
		{"Alt+Shift+Ctrl+s", "Ctrl+Shift+Alt+S"},
		{"ctrl+return", "Ctrl+Return"},
		{"Ctrl+Enter", "Ctrl+Return"},
		{"alt+f4", "Alt+F4"},
		{"Ctrl++", "Ctrl++"},
		{"ctrl+pagedown", "Ctrl+PgDown"},
		{"Cmd+Q", "Meta+Q"},
		{" Ctrl + W ", "Ctrl+W"},
		{"Esc", "Esc"},
		{"Ctrl+Bogus", "Ctrl+Bogus"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Canonical(tt.in); got != tt.want {
				t.Errorf("Canonical(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		in   string
		want error
	}{
		{"", ErrEmptyCombo},
		{"Hyper+N", ErrInvalidCombo},
		{"Ctrl+", ErrInvalidCombo},
		{"Ctrl+NotAKey", ErrInvalidCombo},
		{"F0", ErrInvalidCombo},
	}
	for _, tt := range tests {
		_, err := Parse(tt.in)
		if !errors.Is(err, tt.want) {
			t.Errorf("Parse(%q) error = %v, want %v", tt.in, err, tt.want)
		}
	}
}

func TestModifierString(t *testing.T) {
	m := ModAlt | ModCtrl
	if got := m.String(); got != "Ctrl+Alt+" {
		t.Errorf("String() = %q", got)
	}
	if ModNone.String() != "" {
		t.Error("ModNone should render empty")
	}
}
