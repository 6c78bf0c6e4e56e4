package plugin

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ManifestNames are the manifest file names, in lookup order.
var ManifestNames = []string{
	"config.json",
	"config.vt-conf",
	"config.yaml",
	"config.yml",
	"config.toml",
}

// Manifest defaults.
const (
	DefaultName    = "Unknown"
	DefaultVersion = "1.0"
)

// Manifest describes a plugin directory.
type Manifest struct {
	Name        string `json:"name" yaml:"name" toml:"name"`
	Version     string `json:"version" yaml:"version" toml:"version"`
	Description string `json:"description" yaml:"description" toml:"description"`

	// Main is the entry Lua file, relative to the plugin directory.
	Main string `json:"main" yaml:"main" toml:"main"`
	// Menu is the menu manifest file.
	Menu string `json:"menu" yaml:"menu" toml:"menu"`
	// Shortcuts is the shortcut manifest file.
	Shortcuts string `json:"sc" yaml:"sc" toml:"sc"`

	// Requirements are package URLs this plugin needs installed.
	Requirements []string `json:"requirements" yaml:"requirements" toml:"requirements"`

	dir  string
	file string
}

// FindManifest returns the first manifest file present in dir.
func FindManifest(dir string) (string, bool) {
	for _, name := range ManifestNames {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, true
		}
	}
	return "", false
}

// LoadManifest reads a manifest file. The format follows the extension;
// ".vt-conf" files are JSON.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ManifestError{Dir: filepath.Dir(path), Path: path, Err: err}
	}

	m, err := ParseManifest(filepath.Ext(path), data)
	if err != nil {
		return nil, &ManifestError{Dir: filepath.Dir(path), Path: path, Err: err}
	}
	m.dir = filepath.Dir(path)
	m.file = path
	return m, nil
}

// LoadManifestFromDir loads the manifest of a plugin directory.
func LoadManifestFromDir(dir string) (*Manifest, error) {
	path, ok := FindManifest(dir)
	if !ok {
		return nil, &ManifestError{Dir: dir, Err: ErrNoManifest}
	}
	return LoadManifest(path)
}

// ParseManifest decodes manifest data in the format named by ext.
func ParseManifest(ext string, data []byte) (*Manifest, error) {
	var m Manifest
	var err error
	switch ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &m)
	case ".toml":
		err = toml.Unmarshal(data, &m)
	case ".json", ".vt-conf":
		err = json.Unmarshal(data, &m)
	default:
		return nil, fmt.Errorf("unknown manifest format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	m.applyDefaults()
	return &m, nil
}

func (m *Manifest) applyDefaults() {
	if m.Name == "" {
		m.Name = DefaultName
	}
	if m.Version == "" {
		m.Version = DefaultVersion
	}
}

// Dir returns the plugin directory.
func (m *Manifest) Dir() string {
	return m.dir
}

// File returns the manifest file path.
func (m *Manifest) File() string {
	return m.file
}

// MainPath returns the entry file path, or "" when the plugin has none.
func (m *Manifest) MainPath() string {
	return m.resolve(m.Main)
}

// MenuPath returns the menu manifest path, or "".
func (m *Manifest) MenuPath() string {
	return m.resolve(m.Menu)
}

// ShortcutsPath returns the shortcut manifest path, or "".
func (m *Manifest) ShortcutsPath() string {
	return m.resolve(m.Shortcuts)
}

func (m *Manifest) resolve(p string) string {
	if p == "" {
		return ""
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.dir, p)
}

// String returns a string representation of the manifest.
func (m *Manifest) String() string {
	return fmt.Sprintf("%s v%s", m.Name, m.Version)
}
