// Package app wires the plugin runtime into an application: the control
// loop, one plugin manager per window, the built-in commands and session
// persistence.
package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/vartexter/vartexter/internal/config"
	"github.com/vartexter/vartexter/internal/locale"
	"github.com/vartexter/vartexter/internal/logging"
	"github.com/vartexter/vartexter/internal/plugin"
)

// Option configures an Application.
type Option func(*Application)

// WithLogOutput sends log lines to w regardless of the log_stdout setting.
func WithLogOutput(w io.Writer) Option {
	return func(app *Application) {
		app.logOutput = w
	}
}

// WithHTTPClient sets the client used to download packages.
func WithHTTPClient(c *http.Client) Option {
	return func(app *Application) {
		app.httpClient = c
	}
}

// Application owns the settings, the log panel, the control loop and the
// open windows.
type Application struct {
	settings config.Settings
	dirs     config.Dirs
	lang     string

	logger *logging.Logger
	panel  *logging.Panel
	loop   *Loop

	installer  *plugin.Installer
	watcher    *plugin.Watcher
	logOutput  io.Writer
	httpClient *http.Client

	// jobs tracks work running off the loop, such as package installs.
	jobs sync.WaitGroup

	windows []*Window
	active  *Window
	nextID  int
	closed  bool
}

// New creates an application. The packages directories are created when
// missing.
func New(settings config.Settings, opts ...Option) (*Application, error) {
	app := &Application{
		settings: settings,
		panel:    logging.NewPanel(0),
	}
	for _, opt := range opts {
		opt(app)
	}

	out := app.logOutput
	if out == nil {
		out = io.Discard
		if settings.LogStdout {
			out = os.Stderr
		}
	}
	app.logger = logging.New(logging.Config{
		Level:  logging.ParseLevel(settings.LogLevel),
		Output: out,
		Prefix: settings.AppName,
	})
	app.logger.AddSink(app.panel)
	app.loop = NewLoop(app.logger.WithComponent("loop"))

	dirs, err := settings.Resolve(true)
	if err != nil {
		return nil, NewOperationError("resolve", settings.PackagesPath(), err)
	}
	app.dirs = dirs
	app.lang = locale.Detect(settings.Locale)

	installerOpts := []plugin.InstallerOption{
		plugin.WithInstallerLogger(app.logger.WithComponent("installer")),
	}
	if app.httpClient != nil {
		installerOpts = append(installerOpts, plugin.WithHTTPClient(app.httpClient))
	}
	app.installer = plugin.NewInstaller(dirs.Plugins, installerOpts...)
	return app, nil
}

// Name implements api.Application.
func (app *Application) Name() string { return app.settings.AppName }

// APIVersion implements api.Application.
func (app *Application) APIVersion() string { return app.settings.APIVersion }

// PackagesDir implements api.Application.
func (app *Application) PackagesDir() string { return app.dirs.Packages }

// WindowIDs implements api.Application.
func (app *Application) WindowIDs() []string {
	ids := make([]string, len(app.windows))
	for i, w := range app.windows {
		ids[i] = w.ID()
	}
	return ids
}

// Settings returns the settings the application was created with.
func (app *Application) Settings() config.Settings { return app.settings }

// Dirs returns the resolved packages directories.
func (app *Application) Dirs() config.Dirs { return app.dirs }

// Logger returns the application logger.
func (app *Application) Logger() *logging.Logger { return app.logger }

// Panel returns the log panel.
func (app *Application) Panel() *logging.Panel { return app.panel }

// Loop returns the control loop.
func (app *Application) Loop() *Loop { return app.loop }

// Installer returns the package installer.
func (app *Application) Installer() *plugin.Installer { return app.installer }

// NewWindow opens a window: plugins are loaded and, for the first window,
// the saved session is restored.
func (app *Application) NewWindow() (*Window, error) {
	if app.closed {
		return nil, ErrClosed
	}
	app.nextID++
	w := newWindow(app, fmt.Sprintf("w%d", app.nextID), app.nextID == 1)
	app.windows = append(app.windows, w)
	app.active = w

	if err := w.open(); err != nil {
		return w, err
	}
	return w, nil
}

// Windows returns the open windows in creation order.
func (app *Application) Windows() []*Window {
	out := make([]*Window, len(app.windows))
	copy(out, app.windows)
	return out
}

// ActiveWindow returns the focused window, or nil.
func (app *Application) ActiveWindow() *Window { return app.active }

// Window returns the window with id.
func (app *Application) Window(id string) (*Window, error) {
	for _, w := range app.windows {
		if w.ID() == id {
			return w, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrWindowNotFound, id)
}

// Focus makes w the active window.
func (app *Application) Focus(w *Window) {
	for _, candidate := range app.windows {
		if candidate == w {
			app.active = w
			return
		}
	}
}

// removeWindow forgets a closed window.
func (app *Application) removeWindow(w *Window) {
	for i, candidate := range app.windows {
		if candidate == w {
			app.windows = append(app.windows[:i], app.windows[i+1:]...)
			break
		}
	}
	if app.active == w {
		app.active = nil
		if n := len(app.windows); n > 0 {
			app.active = app.windows[n-1]
		}
	}
}

// ReloadAll reloads the plugins of every window.
func (app *Application) ReloadAll() {
	for _, w := range app.windows {
		if _, err := w.Reload(); err != nil {
			app.logger.Error("Failed reload plugins of '%s': %v", w.ID(), err)
		}
	}
}

// Run runs the control loop until ctx is done. With watch_plugins set, a
// change below the plugins directory reloads every window.
func (app *Application) Run(ctx context.Context) error {
	if app.settings.WatchPlugins && app.watcher == nil {
		w, err := plugin.NewWatcher(app.dirs.Plugins, func([]string) {
			app.loop.Post(app.ReloadAll)
		}, plugin.WithWatcherLogger(app.logger.WithComponent("watcher")))
		if err != nil {
			app.logger.Warn("Plugin watcher disabled: %v", err)
		} else {
			app.watcher = w
		}
	}
	return app.loop.Run(ctx)
}

// Go runs fn off the loop. Wait blocks until it returns.
func (app *Application) Go(fn func()) {
	app.jobs.Go(fn)
}

// Wait blocks until background jobs are done and the loop is drained,
// including jobs started by drained tasks. It returns the number of tasks
// run. Callers without a running loop use it before Close.
func (app *Application) Wait() int {
	n := 0
	for {
		app.jobs.Wait()
		ran := app.loop.Drain()
		n += ran
		if ran == 0 && app.loop.Pending() == 0 {
			return n
		}
	}
}

// Close closes every window, saving the session, and stops the watcher.
func (app *Application) Close() error {
	if app.closed {
		return nil
	}
	var errs ErrorList
	for _, w := range app.Windows() {
		errs.Add(w.Close())
	}
	if app.watcher != nil {
		errs.Add(app.watcher.Close())
		app.watcher = nil
	}
	app.closed = true
	return errs.AsError()
}
