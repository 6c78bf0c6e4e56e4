package plugin

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vartexter/vartexter/internal/logging"
)

// Package sites understood by Install.
const (
	SiteGitHub = "github"
	// SiteDirect downloads the URL as given.
	SiteDirect = "direct"
)

// RequirementsFile lists package URLs a package depends on, as a JSON array.
const RequirementsFile = "requirement.vt-plugins"

// maxParallelInstalls bounds concurrent requirement downloads.
const maxParallelInstalls = 4

// InstallerOption configures an Installer.
type InstallerOption func(*Installer)

// WithHTTPClient sets the client used for downloads.
func WithHTTPClient(c *http.Client) InstallerOption {
	return func(i *Installer) {
		i.client = c
	}
}

// WithTempDir sets where archives are unpacked.
func WithTempDir(dir string) InstallerOption {
	return func(i *Installer) {
		i.tempDir = dir
	}
}

// WithInstallerLogger sets the logger.
func WithInstallerLogger(l *logging.Logger) InstallerOption {
	return func(i *Installer) {
		i.logger = l
	}
}

// Installer downloads packages into a plugins directory.
type Installer struct {
	dir     string
	client  *http.Client
	tempDir string
	logger  *logging.Logger

	// inflight dedupes concurrent installs of the same package name.
	mu       sync.Mutex
	inflight map[string]bool
}

// NewInstaller creates an installer for the plugins directory dir.
func NewInstaller(dir string, opts ...InstallerOption) *Installer {
	i := &Installer{
		dir:      dir,
		client:   http.DefaultClient,
		tempDir:  os.TempDir(),
		logger:   logging.Nop(),
		inflight: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Dir returns the plugins directory.
func (i *Installer) Dir() string {
	return i.dir
}

// PackageName derives the install directory name from a package URL.
func PackageName(url string) string {
	return path.Base(strings.TrimRight(url, "/"))
}

// tempName returns a unique temporary directory name carrying the first n
// hex characters of a random UUID.
func tempName(n int) string {
	id := uuid.NewString()
	if n < len(id) {
		id = id[:n]
	}
	return "vt-" + id + "-install"
}

// Install downloads the package at url and moves it into the plugins
// directory, then installs its missing requirements concurrently. For
// SiteGitHub (or an empty site) the repository's master zipball is fetched.
// It returns the installed directory.
func (i *Installer) Install(ctx context.Context, url, site string) (string, error) {
	name := PackageName(url)
	if err := validName(name); err != nil {
		return "", &InstallError{URL: url, Err: err}
	}
	if !i.claim(name) {
		return filepath.Join(i.dir, name), nil
	}
	defer i.release(name)

	final := filepath.Join(i.dir, name)
	if _, err := os.Stat(final); err == nil {
		return final, &InstallError{URL: url, Err: ErrAlreadyInstalled}
	}

	if err := i.fetch(ctx, url, site, final); err != nil {
		return "", &InstallError{URL: url, Err: err}
	}
	i.logger.Info("Installed package '%s' into %s", name, final)

	if err := i.installRequirements(ctx, final); err != nil {
		return final, err
	}
	return final, nil
}

func (i *Installer) claim(name string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.inflight[name] {
		return false
	}
	i.inflight[name] = true
	return true
}

func (i *Installer) release(name string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.inflight, name)
}

// fetch downloads and unpacks url, moving the package directory to final.
func (i *Installer) fetch(ctx context.Context, url, site, final string) error {
	tmp := filepath.Join(i.tempDir, tempName(8))
	if err := os.MkdirAll(tmp, 0o755); err != nil {
		return err
	}
	defer os.RemoveAll(tmp)

	src := url
	if site == "" || site == SiteGitHub {
		src = strings.TrimRight(url, "/") + "/zipball/master"
	}

	archive := filepath.Join(tmp, "package.zip")
	if err := i.download(ctx, src, archive); err != nil {
		return err
	}
	if err := unzip(archive, tmp); err != nil {
		return err
	}
	if err := os.Remove(archive); err != nil {
		return err
	}

	extracted, err := firstDir(tmp)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(i.dir, 0o755); err != nil {
		return err
	}
	return move(extracted, final)
}

func (i *Installer) download(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := i.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("downloading %s: %s", url, resp.Status)
	}

	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Requirements returns the package URLs dir depends on: the requirements
// file followed by manifest requirements, without duplicates.
func (i *Installer) Requirements(dir string) ([]string, error) {
	var urls []string
	data, err := os.ReadFile(filepath.Join(dir, RequirementsFile))
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &urls); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", RequirementsFile, err)
		}
	case !os.IsNotExist(err):
		return nil, err
	}
	if m, err := LoadManifestFromDir(dir); err == nil {
		urls = append(urls, m.Requirements...)
	}

	seen := make(map[string]bool, len(urls))
	out := urls[:0]
	for _, u := range urls {
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out, nil
}

// installRequirements installs every requirement of dir that is not present.
func (i *Installer) installRequirements(ctx context.Context, dir string) error {
	urls, err := i.Requirements(dir)
	if err != nil {
		return &InstallError{URL: dir, Err: err}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelInstalls)
	for _, u := range urls {
		if _, ok := i.Search(PackageName(u)); ok {
			continue
		}
		g.Go(func() error {
			_, err := i.Install(ctx, u, SiteGitHub)
			return err
		})
	}
	return g.Wait()
}

// Uninstall removes the package directory name.
func (i *Installer) Uninstall(name string) error {
	if err := validName(name); err != nil {
		return err
	}
	dir, ok := i.Search(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotInstalled, name)
	}
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	i.logger.Info("Uninstalled package '%s'", name)
	return nil
}

// Search returns the directory of the installed package name.
func (i *Installer) Search(name string) (string, bool) {
	if validName(name) != nil {
		return "", false
	}
	dir := filepath.Join(i.dir, name)
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		return dir, true
	}
	return "", false
}

// Installed returns the installed package names, sorted.
func (i *Installer) Installed() ([]string, error) {
	entries, err := os.ReadDir(i.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

func validName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidPackageName, name)
	}
	return nil
}

// unzip extracts archive into dest. Entries escaping dest are rejected.
func unzip(archive, dest string) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	root := filepath.Clean(dest) + string(os.PathSeparator)
	for _, f := range r.File {
		target := filepath.Join(dest, f.Name)
		if !strings.HasPrefix(target, root) {
			return fmt.Errorf("archive entry %q escapes destination", f.Name)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := extractFile(f, target); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// firstDir returns the first directory inside dir.
func firstDir(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if e.IsDir() {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", ErrEmptyArchive
}

// move renames src to dst, copying when they are on different devices.
func move(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := os.CopyFS(dst, os.DirFS(src)); err != nil {
		return err
	}
	return os.RemoveAll(src)
}
