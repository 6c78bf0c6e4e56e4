// Package shortcut canonicalises key combinations and tracks which combos
// are bound to command triggers.
//
// Combos are written "Ctrl+Shift+Alt+Key". Modifier order and case are
// normalised so that "shift+ctrl+n" and "Ctrl+Shift+N" name the same
// binding. Terminal key events from tcell are translated to the same form,
// so a key press can be looked up directly in a Table.
package shortcut
