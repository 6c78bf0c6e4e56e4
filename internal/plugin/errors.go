package plugin

import (
	"errors"
	"fmt"
)

// Plugin system errors.
var (
	// ErrNoManifest is returned when a directory has no manifest file.
	ErrNoManifest = errors.New("plugin has no manifest")

	// ErrNotLoaded is returned when a symbol is resolved against a plugin
	// that has no loaded module.
	ErrNotLoaded = errors.New("plugin is not loaded")

	// ErrAlreadyInstalled is returned when an install target already exists.
	ErrAlreadyInstalled = errors.New("package is already installed")

	// ErrNotInstalled is returned when uninstalling a missing package.
	ErrNotInstalled = errors.New("package is not installed")

	// ErrInvalidPackageName is returned for names that are not a single
	// path element.
	ErrInvalidPackageName = errors.New("invalid package name")

	// ErrEmptyArchive is returned when a downloaded archive holds no directory.
	ErrEmptyArchive = errors.New("archive contains no package directory")
)

// ManifestError reports a manifest that is missing or cannot be parsed.
type ManifestError struct {
	Dir  string
	Path string
	Err  error
}

// Error implements the error interface.
func (e *ManifestError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("manifest in %s: %v", e.Dir, e.Err)
	}
	return fmt.Sprintf("manifest %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *ManifestError) Unwrap() error {
	return e.Err
}

// LoadError reports an entry file that failed to parse or execute.
type LoadError struct {
	Plugin string
	Path   string
	Err    error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	return fmt.Sprintf("loading plugin '%s' from %s: %v", e.Plugin, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// InstallError reports a failed package install.
type InstallError struct {
	URL string
	Err error
}

// Error implements the error interface.
func (e *InstallError) Error() string {
	return fmt.Sprintf("installing %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *InstallError) Unwrap() error {
	return e.Err
}
