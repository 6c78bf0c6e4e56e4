package plugin

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vartexter/vartexter/internal/command"
	"github.com/vartexter/vartexter/internal/locale"
	"github.com/vartexter/vartexter/internal/logging"
	"github.com/vartexter/vartexter/internal/menu"
)

// LocaleDir is the directory next to a menu manifest holding its catalogs.
const LocaleDir = "locale"

// Failure is one plugin that did not load cleanly.
type Failure struct {
	Plugin string
	Err    error
}

// Report summarises a scan.
type Report struct {
	// Loaded are the plugins whose entry file ran, in load order.
	Loaded []string
	// Failed are plugins with manifest, load, menu or shortcut failures.
	Failed []Failure
	// Bootstrapped is false when the bootstrap plugin was missing and the
	// recovery invocation ran instead.
	Bootstrapped bool
}

// Failure returns the first failure recorded for plugin.
func (r *Report) Failure(plugin string) error {
	for _, f := range r.Failed {
		if f.Plugin == plugin {
			return f.Err
		}
	}
	return nil
}

func (r *Report) fail(plugin string, err error) {
	r.Failed = append(r.Failed, Failure{Plugin: plugin, Err: err})
}

// ScannerOption configures a Scanner.
type ScannerOption func(*Scanner)

// WithBootstrap sets the plugin loaded first and the invocation dispatched
// when it is missing.
func WithBootstrap(name string, recovery command.Invocation) ScannerOption {
	return func(s *Scanner) {
		s.bootstrap = name
		s.recovery = recovery
	}
}

// WithDispatch sets how the recovery invocation is executed.
func WithDispatch(fn func(command.Invocation)) ScannerOption {
	return func(s *Scanner) {
		s.dispatch = fn
	}
}

// WithLocale sets the language menu catalogs are matched against and the
// catalog they are merged into. The catalog should be the compiler's
// translator.
func WithLocale(lang string, catalog *locale.Catalog) ScannerOption {
	return func(s *Scanner) {
		s.lang = lang
		s.catalog = catalog
	}
}

// WithScannerLogger sets the logger.
func WithScannerLogger(l *logging.Logger) ScannerOption {
	return func(s *Scanner) {
		s.logger = l
	}
}

// Scanner loads every plugin under a root directory.
type Scanner struct {
	loader   *Loader
	registry *command.Registry
	compiler *menu.Compiler
	targets  menu.Targets

	bootstrap string
	recovery  command.Invocation
	dispatch  func(command.Invocation)

	lang    string
	catalog *locale.Catalog
	logger  *logging.Logger
}

// NewScanner creates a scanner. Commands register into registry and menus
// compile into targets.
func NewScanner(loader *Loader, registry *command.Registry, compiler *menu.Compiler, targets menu.Targets, opts ...ScannerOption) *Scanner {
	s := &Scanner{
		loader:    loader,
		registry:  registry,
		compiler:  compiler,
		targets:   targets,
		bootstrap: "Basic",
		logger:    logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// candidate is a plugin directory keyed by its name.
type candidate struct {
	name string
	dir  string
}

// Candidates returns the immediate subdirectories of root that hold a
// manifest, in directory order.
func Candidates(root string) ([]string, error) {
	cs, err := candidates(root)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.name
	}
	return out, nil
}

// candidates resolves root to an absolute path first, so plugin paths stay
// valid after enterDir changes the working directory.
func candidates(root string) ([]candidate, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var out []candidate
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(root, e.Name())
		if _, ok := FindManifest(dir); ok {
			out = append(out, candidate{name: e.Name(), dir: dir})
		}
	}
	return out, nil
}

// Scan loads the plugins under root. The bootstrap plugin loads first; when
// it is absent the recovery invocation is dispatched and the rest still
// load. Per-plugin failures are logged and recorded in the report; only an
// unreadable root is returned as an error.
func (s *Scanner) Scan(root string) (*Report, error) {
	cs, err := candidates(root)
	if err != nil {
		return nil, fmt.Errorf("scanning plugins in %s: %w", root, err)
	}

	report := &Report{}
	ordered := make([]candidate, 0, len(cs))
	for _, c := range cs {
		if c.name == s.bootstrap {
			ordered = append(ordered, c)
			report.Bootstrapped = true
		}
	}
	if !report.Bootstrapped && s.bootstrap != "" {
		s.logger.Warn("Bootstrap plugin '%s' not found", s.bootstrap)
		if s.recovery.Command != "" && s.dispatch != nil {
			s.dispatch(s.recovery)
		}
	}
	for _, c := range cs {
		if c.name != s.bootstrap {
			ordered = append(ordered, c)
		}
	}

	for _, c := range ordered {
		s.scanOne(c, report)
	}
	return report, nil
}

// scanOne loads one plugin with its directory as the working directory.
func (s *Scanner) scanOne(c candidate, report *Report) {
	m, err := LoadManifestFromDir(c.dir)
	if err != nil {
		s.logger.Error("Failed read manifest of '%s': %v", c.name, err)
		report.fail(c.name, err)
		return
	}

	restore, err := enterDir(c.dir)
	if err != nil {
		s.logger.Error("Failed enter plugin directory '%s': %v", c.dir, err)
		report.fail(c.name, err)
		return
	}
	defer restore()

	if p := m.MainPath(); p != "" {
		if err := s.loadModule(c.name, p); err != nil {
			s.logger.Error("Failed load plugin '%s' commands: %v", c.name, err)
			report.fail(c.name, err)
		} else {
			report.Loaded = append(report.Loaded, c.name)
		}
	}

	if p := m.MenuPath(); p != "" {
		if err := s.loadMenu(c.name, p); err != nil {
			s.logger.Error("Failed load menu from '%s': %v", p, err)
			report.fail(c.name, err)
		}
	}

	if p := m.ShortcutsPath(); p != "" {
		entries, err := menu.LoadShortcuts(p)
		if err != nil {
			s.logger.Error("Failed load shortcuts for '%s' from '%s': %v", c.name, p, err)
			report.fail(c.name, err)
		} else {
			s.compiler.BindShortcuts(entries, c.name)
		}
	}
}

// loadModule runs the entry file, calls initAPI and registers every class.
// An initAPI failure is logged and does not fail the plugin.
func (s *Scanner) loadModule(name, path string) error {
	mod, err := s.loader.Load(path, name)
	if err != nil {
		return err
	}
	if err := s.loader.InitAPI(mod); err != nil {
		s.logger.Error("Failed init plugin '%s': %v", name, err)
	}
	for _, class := range mod.Classes() {
		// failures are logged by the registry
		_ = s.registry.RegisterClass(class, name)
	}
	return nil
}

// LoadMenu compiles a menu manifest outside a scan, e.g. the host menu.
func (s *Scanner) LoadMenu(plugin, path string) error {
	return s.loadMenu(plugin, path)
}

func (s *Scanner) loadMenu(plugin, path string) error {
	s.loadLocale(filepath.Join(filepath.Dir(path), LocaleDir))
	f, err := menu.LoadFile(path)
	if err != nil {
		return err
	}
	s.compiler.CompileFile(f, s.targets, plugin)
	return nil
}

// loadLocale merges the catalog in dir matching the scanner language.
func (s *Scanner) loadLocale(dir string) {
	if s.catalog == nil || s.lang == "" {
		return
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return
	}
	c, err := locale.LoadDir(dir, s.lang)
	if err != nil {
		s.logger.Warn("Failed load locale from '%s': %v", dir, err)
		return
	}
	s.catalog.Merge(c)
}

// enterDir changes the working directory to dir. The returned function
// restores the previous one.
func enterDir(dir string) (func(), error) {
	prev, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	if err := os.Chdir(dir); err != nil {
		return nil, err
	}
	return func() {
		_ = os.Chdir(prev)
	}, nil
}
