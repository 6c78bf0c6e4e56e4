package state

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrNotMapping is returned when a state file does not decode to a mapping.
var ErrNotMapping = errors.New("state: document is not a mapping")

// Store owns one Tree and, optionally, the file it is persisted to.
//
// The persisted form is a msgpack document. A Store without a path is
// transient and only lives for the current run.
type Store struct {
	path string
	tree Tree
}

// NewStore creates an empty store persisted at path.
// An empty path creates a transient store.
func NewStore(path string) *Store {
	return &Store{
		path: path,
		tree: make(Tree),
	}
}

// Path returns the backing file path, or "" for transient stores.
func (s *Store) Path() string {
	return s.path
}

// Tree returns the live tree. Callers must not retain it across Reset.
func (s *Store) Tree() Tree {
	return s.tree
}

// Get returns the value at path.
func (s *Store) Get(path string) (any, bool) {
	return Find(path, s.tree)
}

// Set stores value at path.
func (s *Store) Set(path string, value any) {
	Add(path, value, s.tree)
}

// Delete removes the value at path.
func (s *Store) Delete(path string) bool {
	return Delete(path, s.tree)
}

// Reset discards every value.
func (s *Store) Reset() {
	s.tree = make(Tree)
}

// Load replaces the tree with the contents of the backing file.
// A missing file leaves an empty tree and is not an error.
func (s *Store) Load() error {
	if s.path == "" {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.tree = make(Tree)
			return nil
		}
		return fmt.Errorf("reading state file %s: %w", s.path, err)
	}

	tree, err := Decode(data)
	if err != nil {
		return fmt.Errorf("decoding state file %s: %w", s.path, err)
	}
	s.tree = tree
	return nil
}

// Save writes the tree to the backing file atomically.
func (s *Store) Save() error {
	if s.path == "" {
		return nil
	}

	data, err := Encode(s.tree)
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing state file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing state file: %w", err)
	}
	return nil
}

// Encode serializes a tree as msgpack with sorted keys.
func Encode(tree Tree) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(tree); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses a msgpack document into a tree.
// Integers decode as int64/uint64 and floats as float64.
func Decode(data []byte) (Tree, error) {
	if len(data) == 0 {
		return make(Tree), nil
	}

	dec := msgpack.NewDecoder(bytes.NewReader(data))
	v, err := dec.DecodeInterfaceLoose()
	if err != nil {
		return nil, err
	}

	switch tree := normalize(v).(type) {
	case map[string]any:
		return tree, nil
	case nil:
		return make(Tree), nil
	default:
		return nil, ErrNotMapping
	}
}
