package menu

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Menu manifest target keys.
const (
	KeyMainMenu          = "mainMenu"
	KeyMenuBar           = "menuBar"
	KeyTextContextMenu   = "textContextMenu"
	KeyTabBarContextMenu = "tabBarContextMenu"
)

// Translation scopes of the three targets.
const (
	ScopeMainMenu          = "MainMenu"
	ScopeTextContextMenu   = "TextContextMenu"
	ScopeTabBarContextMenu = "TabBarContextMenu"
)

// ErrInvalidManifest is returned for menu or shortcut files of the wrong shape.
var ErrInvalidManifest = errors.New("invalid menu manifest")

// CommandSpec is a command reference inside a manifest.
type CommandSpec struct {
	Command string         `json:"command"`
	Args    []any          `json:"args,omitempty"`
	Kwargs  map[string]any `json:"kwargs,omitempty"`
}

// UnmarshalJSON accepts either a bare command name or an object.
func (c *CommandSpec) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*c = CommandSpec{Command: name}
		return nil
	}
	type plain CommandSpec
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*c = CommandSpec(p)
	return nil
}

// Shortcuts is a list of combos that decodes from a string or an array.
type Shortcuts []string

// UnmarshalJSON implements json.Unmarshaler.
func (s *Shortcuts) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		if one == "" {
			*s = nil
		} else {
			*s = Shortcuts{one}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("shortcut: %w", err)
	}
	*s = many
	return nil
}

// Node is one manifest entry: a separator, a submenu or an action.
type Node struct {
	Caption          string       `json:"caption"`
	ID               string       `json:"id,omitempty"`
	Children         Nodes        `json:"children,omitempty"`
	Shortcut         Shortcuts    `json:"shortcut,omitempty"`
	Command          *CommandSpec `json:"command,omitempty"`
	StatusTip        string       `json:"statusTip,omitempty"`
	Checkable        bool         `json:"checkable,omitempty"`
	Checked          *bool        `json:"checked,omitempty"`
	CheckedStatePath string       `json:"checkedStatePath,omitempty"`
}

// IsSeparator reports whether n is a "-" separator.
func (n Node) IsSeparator() bool {
	return n.Caption == "-"
}

// IsMenu reports whether n describes a submenu.
func (n Node) IsMenu() bool {
	return n.ID != "" || (n.Command == nil && len(n.Children) > 0)
}

// Nodes is a node list that also decodes from a single object.
type Nodes []Node

// UnmarshalJSON implements json.Unmarshaler.
func (ns *Nodes) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var n Node
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*ns = Nodes{n}
		return nil
	}
	var list []Node
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*ns = list
	return nil
}

// File is a parsed menu manifest.
type File struct {
	Main          Nodes
	TextContext   Nodes
	TabBarContext Nodes
}

// Empty reports whether f has no nodes.
func (f *File) Empty() bool {
	return len(f.Main) == 0 && len(f.TextContext) == 0 && len(f.TabBarContext) == 0
}

// ParseFile parses a menu manifest. A top-level array is the main menu; an
// object is keyed by target, or is itself a single main menu node.
func ParseFile(data []byte) (*File, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidManifest)
	}

	f := &File{}
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &f.Main); err != nil {
			return nil, err
		}
		return f, nil
	case '{':
	default:
		return nil, fmt.Errorf("%w: expected array or object", ErrInvalidManifest)
	}

	known, err := parseTargets(data, f)
	if err != nil {
		return nil, err
	}
	if known {
		return f, nil
	}

	if err := json.Unmarshal(data, &f.Main); err != nil {
		return nil, err
	}
	return f, nil
}

// parseTargets decodes the target keys of a manifest object into f in
// document order, so mainMenu and menuBar entries keep their file order.
func parseTargets(data []byte, f *File) (bool, error) {
	if !json.Valid(data) {
		return false, fmt.Errorf("%w: malformed object", ErrInvalidManifest)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return false, err
	}

	known := false
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return false, err
		}
		key, _ := tok.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return false, fmt.Errorf("%s: %w", key, err)
		}

		var dst *Nodes
		switch key {
		case KeyMainMenu, KeyMenuBar:
			dst = &f.Main
		case KeyTextContextMenu:
			dst = &f.TextContext
		case KeyTabBarContextMenu:
			dst = &f.TabBarContext
		default:
			continue
		}
		known = true
		var nodes Nodes
		if err := json.Unmarshal(raw, &nodes); err != nil {
			return false, fmt.Errorf("%s: %w", key, err)
		}
		*dst = append(*dst, nodes...)
	}
	return known, nil
}

// LoadFile reads and parses the menu manifest at path.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := ParseFile(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// ShortcutEntry is one entry of a shortcut manifest.
type ShortcutEntry struct {
	Keys    Shortcuts   `json:"keys"`
	Command CommandSpec `json:"command"`
}

// ParseShortcuts parses a shortcut manifest: an array of entries.
func ParseShortcuts(data []byte) ([]ShortcutEntry, error) {
	var entries []ShortcutEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	for i, e := range entries {
		if e.Command.Command == "" {
			return nil, fmt.Errorf("%w: entry %d has no command", ErrInvalidManifest, i)
		}
	}
	return entries, nil
}

// LoadShortcuts reads and parses the shortcut manifest at path.
func LoadShortcuts(path string) ([]ShortcutEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	entries, err := ParseShortcuts(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}
