package shortcut

import (
	"fmt"
	"unicode"

	"github.com/gdamore/tcell/v2"
)

// tcellKeys names the non-rune keys a terminal reports.
var tcellKeys = map[tcell.Key]string{
	tcell.KeyEnter:      "Return",
	tcell.KeyTab:        "Tab",
	tcell.KeyBacktab:    "Backtab",
	tcell.KeyBackspace:  "Backspace",
	tcell.KeyBackspace2: "Backspace",
	tcell.KeyEscape:     "Esc",
	tcell.KeyDelete:     "Del",
	tcell.KeyInsert:     "Ins",
	tcell.KeyHome:       "Home",
	tcell.KeyEnd:        "End",
	tcell.KeyPgUp:       "PgUp",
	tcell.KeyPgDn:       "PgDown",
	tcell.KeyUp:         "Up",
	tcell.KeyDown:       "Down",
	tcell.KeyLeft:       "Left",
	tcell.KeyRight:      "Right",
	tcell.KeyPause:      "Pause",
	tcell.KeyPrint:      "Print",
}

func convertMod(m tcell.ModMask) Modifier {
	var mod Modifier
	if m&tcell.ModCtrl != 0 {
		mod |= ModCtrl
	}
	if m&tcell.ModShift != 0 {
		mod |= ModShift
	}
	if m&tcell.ModAlt != 0 {
		mod |= ModAlt
	}
	if m&tcell.ModMeta != 0 {
		mod |= ModMeta
	}
	return mod
}

// FromKeyEvent converts a terminal key event to a canonical combo.
// It returns "" for keys that cannot be named.
func FromKeyEvent(ev *tcell.EventKey) string {
	c, ok := comboFromEvent(ev)
	if !ok {
		return ""
	}
	return c.String()
}

func comboFromEvent(ev *tcell.EventKey) (Combo, bool) {
	mod := convertMod(ev.Modifiers())
	k := ev.Key()

	if name, ok := tcellKeys[k]; ok {
		return Combo{Mod: mod, Key: name}, true
	}

	switch {
	case k == tcell.KeyRune:
		r := ev.Rune()
		if r == ' ' {
			return Combo{Mod: mod, Key: "Space"}, true
		}
		// Uppercase letters have implicit Shift
		if unicode.IsUpper(r) {
			mod |= ModShift
		}
		return Combo{Mod: mod, Key: string(unicode.ToUpper(r))}, true
	case k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ:
		return Combo{Mod: mod | ModCtrl, Key: string(rune('A' + (k - tcell.KeyCtrlA)))}, true
	case k == tcell.KeyCtrlSpace:
		return Combo{Mod: mod | ModCtrl, Key: "Space"}, true
	case k >= tcell.KeyF1 && k <= tcell.KeyF12:
		return Combo{Mod: mod, Key: fmt.Sprintf("F%d", int(k-tcell.KeyF1)+1)}, true
	default:
		return Combo{}, false
	}
}
