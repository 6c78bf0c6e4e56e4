// Package state holds the dotted-path state trees used for window session
// data and for the checked state of toggle commands.
//
// A Tree is a nested map[string]any addressed by dot-separated paths such as
// "state.tabWidget.tabs.0.file". Trees are not safe for concurrent use; they
// belong to the window's control loop.
package state

import (
	"fmt"
	"sort"
	"strings"
)

// Tree is a nested mapping keyed by path segments.
type Tree = map[string]any

// Find walks path through root and returns the terminal value.
// Every segment must name a key of a mapping node; anything else is a miss.
func Find(path string, root Tree) (any, bool) {
	if root == nil {
		return nil, false
	}

	var current any = root
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		val, exists := m[part]
		if !exists {
			return nil, false
		}
		current = val
	}

	return current, true
}

// Add stores value at path, creating intermediate mappings as needed.
// An intermediate segment that holds a non-mapping value is replaced by an
// empty mapping, and whatever sits at the final segment is overwritten.
func Add(path string, value any, root Tree) {
	if root == nil {
		return
	}

	parts := strings.Split(path, ".")
	current := root

	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[part] = next
		}
		current = next
	}

	current[parts[len(parts)-1]] = value
}

// Delete removes the value at path. Returns true if something was removed.
func Delete(path string, root Tree) bool {
	if root == nil {
		return false
	}

	parts := strings.Split(path, ".")
	current := root

	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			return false
		}
		current = next
	}

	key := parts[len(parts)-1]
	if _, exists := current[key]; !exists {
		return false
	}
	delete(current, key)
	return true
}

// Flatten returns every leaf of root keyed by its full dotted path.
// Empty mappings are kept as leaves so they survive a round trip through Add.
func Flatten(root Tree) map[string]any {
	out := make(map[string]any)
	flatten(root, "", out)
	return out
}

func flatten(node map[string]any, prefix string, out map[string]any) {
	for key, val := range node {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		if child, ok := val.(map[string]any); ok && len(child) > 0 {
			flatten(child, full, out)
			continue
		}
		out[full] = val
	}
}

// Paths returns the sorted dotted paths of every leaf in root.
func Paths(root Tree) []string {
	flat := Flatten(root)
	paths := make([]string, 0, len(flat))
	for p := range flat {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// normalize converts decoded generic maps into Tree form so Find can walk them.
func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, child := range val {
			val[k] = normalize(child)
		}
		return val
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[fmt.Sprint(k)] = normalize(child)
		}
		return out
	case []any:
		for i, child := range val {
			val[i] = normalize(child)
		}
		return val
	default:
		return v
	}
}
