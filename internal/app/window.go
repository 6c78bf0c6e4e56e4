package app

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/gdamore/tcell/v2"

	"github.com/vartexter/vartexter/internal/command"
	"github.com/vartexter/vartexter/internal/editor"
	"github.com/vartexter/vartexter/internal/locale"
	"github.com/vartexter/vartexter/internal/logging"
	"github.com/vartexter/vartexter/internal/menu"
	"github.com/vartexter/vartexter/internal/plugin"
	"github.com/vartexter/vartexter/internal/shortcut"
	"github.com/vartexter/vartexter/internal/state"
)

// Session paths.
const (
	tabsPath      = "state.tabWidget.tabs"
	activeTabPath = "state.tabWidget.activeTab"
	themePath     = "settings.themeFile"
	localePath    = "settings.locale"
)

// Window is one editor window and its plugin manager. It is the host the
// vt module talks to, and it creates and binds shortcut triggers and
// resolves command symbols for its registry.
type Window struct {
	app    *Application
	id     string
	editor *editor.Window
	logger *logging.Logger
	lang   string

	session *state.Store
	scratch *state.Store

	registry   *command.Registry
	dispatcher *command.Dispatcher
	shortcuts  *shortcut.Table
	menus      menu.Targets
	catalog    *locale.Catalog
	compiler   *menu.Compiler
	loader     *plugin.Loader
	scanner    *plugin.Scanner
	builtins   map[string]*command.Class
	report     *plugin.Report

	closed bool
}

func newWindow(app *Application, id string, persistent bool) *Window {
	w := &Window{
		app:     app,
		id:      id,
		editor:  editor.NewWindow(id),
		logger:  app.logger.WithField("window", id),
		lang:    app.lang,
		scratch: state.NewStore(""),
	}
	if persistent {
		w.session = state.NewStore(app.settings.StatePath(app.dirs))
	} else {
		w.session = state.NewStore("")
	}
	w.editor.SetTitle(app.settings.AppName)
	w.editor.SetTheme(app.settings.ThemeFile)
	w.builtins = builtinClasses(w)
	w.buildRuntime()
	return w
}

// buildRuntime creates fresh registry, dispatcher, shortcut table, menus
// and loader. Modules of a previous runtime are closed.
func (w *Window) buildRuntime() {
	if w.loader != nil {
		w.loader.Close()
	}

	w.registry = command.NewRegistry(
		command.WithResolver(w),
		command.WithBinder(w),
		command.WithLogger(w.logger),
	)
	w.dispatcher = command.NewDispatcher(w.registry, w,
		command.WithDispatchLogger(w.logger),
		command.WithResultLevel(logging.ParseLevel(w.app.settings.CommandResultLevel)),
	)
	w.shortcuts = shortcut.NewTable()
	w.menus = menu.Targets{
		Main:          menu.NewMenu("menuBar", w.app.settings.AppName),
		TextContext:   menu.NewMenu("textContextMenu", ""),
		TabBarContext: menu.NewMenu("tabBarContextMenu", ""),
	}
	w.catalog = locale.NewCatalog()
	w.compiler = menu.NewCompiler(w.registry, w.shortcuts,
		menu.WithTranslator(w.catalog),
		menu.WithDispatch(w.dispatch),
		menu.WithCompilerLogger(w.logger),
	)
	w.loader = plugin.NewLoader(w,
		plugin.WithApplication(w.app),
		plugin.WithBlockedImports(w.app.settings.BlockedImports),
		plugin.WithLoaderLogger(w.logger),
	)

	var recovery command.Invocation
	if url := w.app.settings.BootstrapURL; url != "" {
		recovery = command.Invocation{Command: "InstallPackageCommand", Args: []any{url}}
	}
	w.scanner = plugin.NewScanner(w.loader, w.registry, w.compiler, w.menus,
		plugin.WithBootstrap(w.app.settings.BootstrapPlugin, recovery),
		plugin.WithDispatch(w.dispatch),
		plugin.WithLocale(w.lang, w.catalog),
		plugin.WithScannerLogger(w.logger),
	)
}

// open loads the session, the plugins and then restores the tabs.
func (w *Window) open() error {
	if err := w.session.Load(); err != nil {
		w.logger.Error("Failed load session: %v", err)
	}
	if v, ok := w.session.Get(localePath); ok {
		if s, ok := v.(string); ok && s != "" {
			w.lang = locale.Detect(s)
			w.buildRuntime()
		}
	}
	if _, err := w.LoadPlugins(); err != nil {
		return err
	}
	w.restoreSession()
	return nil
}

// ID returns the window id.
func (w *Window) ID() string { return w.id }

// Editor returns the editor window.
func (w *Window) Editor() *editor.Window { return w.editor }

// Registry returns the command registry.
func (w *Window) Registry() *command.Registry { return w.registry }

// Shortcuts returns the bound shortcut table.
func (w *Window) Shortcuts() *shortcut.Table { return w.shortcuts }

// Menus returns the main, text context and tab bar menus.
func (w *Window) Menus() menu.Targets { return w.menus }

// Loader returns the plugin loader.
func (w *Window) Loader() *plugin.Loader { return w.loader }

// Report returns the result of the last plugin scan.
func (w *Window) Report() *plugin.Report { return w.report }

// Session returns the persisted state store.
func (w *Window) Session() *state.Store { return w.session }

// LoadPlugins registers the built-in commands, compiles the host menu and
// scans the plugins directory.
func (w *Window) LoadPlugins() (*plugin.Report, error) {
	for _, name := range sortedKeys(w.builtins) {
		_ = w.registry.RegisterClass(w.builtins[name], "")
	}
	if p := w.app.settings.MenuPath(w.app.dirs); p != "" {
		if err := w.scanner.LoadMenu("", p); err != nil {
			w.logger.Error("Failed load menu from '%s': %v", p, err)
		}
	}

	report, err := w.scanner.Scan(w.app.dirs.Plugins)
	if err != nil {
		return nil, NewOperationError("load plugins", w.id, err)
	}
	w.report = report
	w.logger.Info("Loaded %d plugins, %d failures", len(report.Loaded), len(report.Failed))
	return report, nil
}

// Reload discards every plugin, command, shortcut and menu and loads the
// plugins again. Checkable commands are resynced from the session.
func (w *Window) Reload() (*plugin.Report, error) {
	if w.closed {
		return nil, ErrClosed
	}
	w.buildRuntime()
	report, err := w.LoadPlugins()
	if err != nil {
		return nil, err
	}
	w.replayCheckable()
	return report, nil
}

// Execute implements api.Host.
func (w *Window) Execute(inv command.Invocation) (any, error) {
	if w.closed {
		return nil, ErrClosed
	}
	return w.dispatcher.Execute(inv)
}

// RunCommand executes name with args and kwargs.
func (w *Window) RunCommand(name string, args []any, kwargs map[string]any) (any, error) {
	return w.Execute(command.Invocation{Command: name, Args: args, Kwargs: kwargs})
}

// dispatch is the handler wired to triggers. Errors are already logged.
func (w *Window) dispatch(inv command.Invocation) {
	_, _ = w.Execute(inv)
}

// TriggerShortcut activates the trigger bound to combo.
func (w *Window) TriggerShortcut(combo string) bool {
	t, ok := w.shortcuts.Lookup(combo)
	if !ok {
		return false
	}
	a, ok := t.(*menu.Action)
	if !ok {
		return false
	}
	return a.Trigger()
}

// HandleKey triggers the shortcut matching a terminal key event.
func (w *Window) HandleKey(ev *tcell.EventKey) bool {
	combo := shortcut.FromKeyEvent(ev)
	if combo == "" {
		return false
	}
	return w.TriggerShortcut(combo)
}

// ActiveWindow implements command.API.
func (w *Window) ActiveWindow() *editor.Window {
	if w.closed {
		return nil
	}
	return w.editor
}

// Log implements command.API.
func (w *Window) Log(level logging.Level, msg string) {
	w.logger.Log(level, msg)
}

// State implements command.API.
func (w *Window) State(path string) (any, bool) { return w.session.Get(path) }

// SetState implements api.Host.
func (w *Window) SetState(path string, value any) { w.session.Set(path, value) }

// DeleteState implements api.Host.
func (w *Window) DeleteState(path string) bool { return w.session.Delete(path) }

// Scratch implements api.Host.
func (w *Window) Scratch(path string) (any, bool) { return w.scratch.Get(path) }

// SetScratch implements api.Host.
func (w *Window) SetScratch(path string, value any) { w.scratch.Set(path, value) }

// Commands implements api.Host.
func (w *Window) Commands() []string { return w.registry.Names() }

// Bound implements command.Binder.
func (w *Window) Bound(combo string) bool { return w.shortcuts.Bound(combo) }

// NewTrigger implements command.Binder. The trigger is a hidden action.
func (w *Window) NewTrigger(inv command.Invocation) command.Trigger {
	a := menu.NewAction(inv.Command, inv)
	a.OnTrigger(w.dispatch)
	return a
}

// BindShortcut implements command.Binder.
func (w *Window) BindShortcut(combo string, t command.Trigger) error {
	owner := ""
	if a, ok := t.(*menu.Action); ok {
		owner = a.Invocation.Command
		if a.Shortcut == "" {
			a.Shortcut = shortcut.Canonical(combo)
		}
	}
	return w.shortcuts.Bind(combo, t, owner)
}

// Resolve implements command.Resolver. An empty plugin names a built-in.
func (w *Window) Resolve(plugin, symbol string) (*command.Class, error) {
	if plugin == "" {
		if c, ok := w.builtins[symbol]; ok {
			return c, nil
		}
		return nil, fmt.Errorf("no built-in command '%s'", symbol)
	}
	return w.loader.Resolve(plugin, symbol)
}

// RestoreState loads the session and reopens its tabs, then replays every
// checkable command that has a state path.
func (w *Window) RestoreState() error {
	if err := w.session.Load(); err != nil {
		return NewOperationError("restore", w.id, err)
	}
	w.restoreSession()
	return nil
}

func (w *Window) restoreSession() {
	if v, ok := w.session.Get(themePath); ok {
		if s, ok := v.(string); ok {
			w.editor.SetTheme(s)
		}
	}
	w.restoreTabs()
	w.replayCheckable()
}

// restoreTabs reopens saved tabs in index order. Tabs without a readable
// file come back as untitled views with their saved title.
func (w *Window) restoreTabs() {
	v, ok := w.session.Get(tabsPath)
	if !ok {
		return
	}
	tabs, ok := v.(map[string]any)
	if !ok {
		return
	}

	indices := make([]int, 0, len(tabs))
	for k := range tabs {
		if i, err := strconv.Atoi(k); err == nil {
			indices = append(indices, i)
		}
	}
	sort.Ints(indices)

	for _, i := range indices {
		tab, _ := tabs[strconv.Itoa(i)].(map[string]any)
		file, _ := tab["file"].(string)
		title, _ := tab["title"].(string)

		if file != "" {
			if _, err := os.Stat(file); err == nil {
				if _, err := w.editor.OpenFile(file); err == nil {
					continue
				}
			}
			w.logger.Warn("Failed restore tab '%s'", file)
		}
		view := w.editor.NewFile()
		if title != "" {
			view.SetTitle(title)
		}
	}

	if v, ok := w.session.Get(activeTabPath); ok {
		if i, ok := toInt(v); ok {
			w.editor.SetTab(i)
		}
	}
}

// replayCheckable dispatches every checkable command with a state path as
// a restore, so its trigger and effect match the saved state.
func (w *Window) replayCheckable() {
	for _, d := range w.registry.Descriptors() {
		if d.CheckedStatePath == "" || d.Trigger == nil || !d.Trigger.Checkable() {
			continue
		}
		_, _ = w.Execute(command.Invocation{Command: d.Name, Restoring: true})
	}
}

// SaveState writes the open tabs, the active tab, the theme and the locale
// to the session file. It does nothing when save_state is off.
func (w *Window) SaveState() error {
	if !w.app.settings.SaveState {
		return nil
	}
	w.session.Delete(tabsPath)
	for i, v := range w.editor.Views() {
		prefix := fmt.Sprintf("%s.%d.", tabsPath, i)
		w.session.Set(prefix+"file", v.File())
		w.session.Set(prefix+"title", v.Title())
	}
	w.session.Set(activeTabPath, int64(w.editor.TabIndex(w.editor.ActiveView())))
	w.session.Set(themePath, w.editor.Theme())
	w.session.Set(localePath, w.lang)

	if err := w.session.Save(); err != nil {
		return NewOperationError("save state", w.id, err)
	}
	return nil
}

// Close saves the session, unloads the plugins and removes the window from
// the application.
func (w *Window) Close() error {
	if w.closed {
		return nil
	}
	err := w.SaveState()
	w.loader.Close()
	w.scratch.Reset()
	w.closed = true
	w.app.removeWindow(w)
	return err
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

func sortedKeys(m map[string]*command.Class) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
