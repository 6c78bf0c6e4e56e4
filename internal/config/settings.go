package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
)

// Settings is the host configuration.
type Settings struct {
	AppName    string `toml:"app_name"`
	APIVersion string `toml:"api_version"`

	// PackagesDir is the root of plugins, themes and UI resources.
	PackagesDir string `toml:"packages_dir"`
	// PackagesDirs overrides PackagesDir per GOOS.
	PackagesDirs map[string]string `toml:"packages_dirs"`

	LogStdout bool   `toml:"log_stdout"`
	LogLevel  string `toml:"log_level"`

	SaveState     bool   `toml:"save_state"`
	RemindOnClose bool   `toml:"remind_on_close"`
	StateFile     string `toml:"state_file"`

	Locale    string `toml:"locale"`
	ThemeFile string `toml:"theme_file"`

	// MenuFile is the host menu manifest, relative to the packages directory.
	MenuFile string `toml:"menu_file"`

	BootstrapPlugin string `toml:"bootstrap_plugin"`
	BootstrapURL    string `toml:"bootstrap_url"`

	// BlockedImports are module prefixes plugins may not require while loading.
	BlockedImports []string `toml:"blocked_imports"`

	// CommandResultLevel is the log level for non-empty command results.
	CommandResultLevel string `toml:"command_result_level"`

	WatchPlugins bool `toml:"watch_plugins"`
}

// Dirs are the directories derived from the packages directory.
type Dirs struct {
	Packages string
	Plugins  string
	Themes   string
	UI       string
	Cache    string
}

// DefaultSettings returns the settings used when no file exists.
func DefaultSettings() Settings {
	return Settings{
		AppName:            "VT2",
		APIVersion:         "1.0",
		PackagesDir:        "./Packages/",
		LogLevel:           "info",
		SaveState:          true,
		Locale:             "auto",
		BootstrapPlugin:    "Basic",
		BlockedImports:     []string{"vt.app"},
		CommandResultLevel: "info",
	}
}

// Load reads settings from path on top of DefaultSettings.
// A missing file is not an error.
func Load(path string) (Settings, error) {
	s := DefaultSettings()
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, fmt.Errorf("reading settings file %s: %w", path, err)
	}

	if err := Parse(path, data, &s); err != nil {
		return DefaultSettings(), err
	}
	if err := s.Validate(); err != nil {
		return DefaultSettings(), err
	}
	return s, nil
}

// Validate checks values that cannot be checked by decoding alone.
func (s Settings) Validate() error {
	if s.Locale == "" || s.Locale == "auto" {
		return nil
	}
	tag := s.Locale
	if i := strings.IndexAny(tag, ".@"); i >= 0 {
		tag = tag[:i]
	}
	if _, err := language.Parse(strings.ReplaceAll(tag, "_", "-")); err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidLocale, s.Locale, err)
	}
	return nil
}

// Parse decodes TOML data into s. Keys absent from data keep their value.
func Parse(source string, data []byte, s *Settings) error {
	if err := toml.Unmarshal(data, s); err != nil {
		perr := &ParseError{Path: source, Message: err.Error(), Err: err}
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			perr.Line, perr.Column = derr.Position()
		}
		return perr
	}
	return nil
}

// Save writes settings to path as TOML.
func Save(path string, s Settings) error {
	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// PackagesPath returns the packages directory for the running platform,
// with "~" and environment variables expanded.
func (s Settings) PackagesPath() string {
	dir := s.PackagesDir
	if override, ok := s.PackagesDirs[runtime.GOOS]; ok && override != "" {
		dir = override
	}
	return ExpandPath(dir)
}

// Resolve derives the standard directories as absolute paths. When create is
// true missing directories are created.
func (s Settings) Resolve(create bool) (Dirs, error) {
	pkg, err := filepath.Abs(s.PackagesPath())
	if err != nil {
		return Dirs{}, fmt.Errorf("resolving packages directory: %w", err)
	}
	d := Dirs{
		Packages: pkg,
		Plugins:  filepath.Join(pkg, "Plugins"),
		Themes:   filepath.Join(pkg, "Themes"),
		UI:       filepath.Join(pkg, "Ui"),
		Cache:    filepath.Join(pkg, "cache"),
	}
	if !create {
		return d, nil
	}
	for _, dir := range []string{d.Packages, d.Plugins, d.Themes, d.UI, d.Cache} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return d, fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return d, nil
}

// StatePath returns the session state file location.
func (s Settings) StatePath(d Dirs) string {
	if s.StateFile != "" {
		return ExpandPath(s.StateFile)
	}
	return filepath.Join(d.Cache, "session.vtstate")
}

// MenuPath returns the host menu manifest path, or "" when unset.
func (s Settings) MenuPath(d Dirs) string {
	if s.MenuFile == "" {
		return ""
	}
	p := ExpandPath(s.MenuFile)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(d.Packages, p)
}

// ExpandPath expands a leading "~" and $VAR / ${VAR} references.
func ExpandPath(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") || strings.HasPrefix(p, `~\`) {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, p[1:])
		}
	}
	return os.ExpandEnv(p)
}
