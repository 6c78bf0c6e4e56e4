package app

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vartexter/vartexter/internal/config"
	"github.com/vartexter/vartexter/internal/logging"
)

var basicPlugin = map[string]string{
	"Basic/config.json": `{"name": "Basic", "main": "basic.lua", "menu": "menu.json", "sc": "sc.json"}`,
	"Basic/basic.lua": `
local vt = require("vt")
Upper = vt.TextCommand()
function Upper:run() self.view:set_text(self.view:text():upper()) end
Wrap = vt.WindowCommand()
function Wrap:run() end
Echo = vt.ApplicationCommand()
function Echo:run(args) return args[1] end
`,
	"Basic/menu.json": `{
		"mainMenu": [
			{"caption": "Edit", "id": "edit", "children": [
				{"caption": "Upper", "shortcut": "Ctrl+U", "command": "Upper"},
				{"caption": "Word wrap", "command": "Wrap", "checkable": true, "checkedStatePath": "editor.wrap"}
			]}
		]
	}`,
	"Basic/sc.json": `[{"keys": ["Ctrl+E"], "command": {"command": "Echo", "args": ["key"]}}]`,
}

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func testSettings(t *testing.T) config.Settings {
	t.Helper()
	s := config.DefaultSettings()
	s.AppName = "VarTexter2"
	s.APIVersion = "1.3"
	s.PackagesDir = t.TempDir()
	s.LogLevel = "debug"
	s.Locale = "en"
	return s
}

func newTestApp(t *testing.T, settings config.Settings, plugins map[string]string, opts ...Option) *Application {
	t.Helper()
	writeFiles(t, filepath.Join(settings.PackagesDir, "Plugins"), plugins)
	app, err := New(settings, append([]Option{WithLogOutput(io.Discard)}, opts...)...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = app.Close() })
	return app
}

// drainUntil runs loop tasks on the calling goroutine until cond holds.
func drainUntil(t *testing.T, app *Application, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		app.Loop().Drain()
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestNewResolvesDirs(t *testing.T) {
	settings := testSettings(t)
	app := newTestApp(t, settings, nil)

	dirs := app.Dirs()
	for _, dir := range []string{dirs.Plugins, dirs.Themes, dirs.UI, dirs.Cache} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Errorf("%s not created: %v", dir, err)
		}
	}
	if app.Name() != "VarTexter2" || app.APIVersion() != "1.3" {
		t.Errorf("Name/APIVersion = %q/%q", app.Name(), app.APIVersion())
	}
	if app.PackagesDir() != settings.PackagesDir {
		t.Errorf("PackagesDir() = %q", app.PackagesDir())
	}
}

func TestNewFailsOnUnusableDir(t *testing.T) {
	settings := testSettings(t)
	blocker := filepath.Join(settings.PackagesDir, "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	settings.PackagesDir = blocker

	_, err := New(settings, WithLogOutput(io.Discard))
	var oerr *OperationError
	if !errors.As(err, &oerr) || oerr.Op != "resolve" {
		t.Fatalf("New() error = %v, want resolve OperationError", err)
	}
}

func TestWindows(t *testing.T) {
	app := newTestApp(t, testSettings(t), basicPlugin)

	w1, err := app.NewWindow()
	if err != nil {
		t.Fatal(err)
	}
	w2, err := app.NewWindow()
	if err != nil {
		t.Fatal(err)
	}

	ids := app.WindowIDs()
	if len(ids) != 2 || ids[0] != "w1" || ids[1] != "w2" {
		t.Errorf("WindowIDs() = %v", ids)
	}
	if app.ActiveWindow() != w2 {
		t.Error("newest window is not active")
	}
	if got, err := app.Window("w1"); err != nil || got != w1 {
		t.Errorf("Window(w1) = %v, %v", got, err)
	}
	if _, err := app.Window("w9"); !errors.Is(err, ErrWindowNotFound) {
		t.Errorf("Window(w9) error = %v", err)
	}

	if w1.Registry() == w2.Registry() {
		t.Error("windows share a registry")
	}
	if w2.Session().Path() != "" {
		t.Errorf("second window session path = %q, want transient", w2.Session().Path())
	}

	app.Focus(w1)
	if app.ActiveWindow() != w1 {
		t.Error("Focus did not change the active window")
	}
	if err := w1.Close(); err != nil {
		t.Fatal(err)
	}
	if app.ActiveWindow() != w2 || len(app.Windows()) != 1 {
		t.Error("closing the active window did not fall back to the remaining one")
	}
	if _, err := w1.Execute(commandInvocation("Echo")); !errors.Is(err, ErrClosed) {
		t.Errorf("Execute on closed window error = %v", err)
	}
}

func TestClose(t *testing.T) {
	app := newTestApp(t, testSettings(t), basicPlugin)
	if _, err := app.NewWindow(); err != nil {
		t.Fatal(err)
	}
	if err := app.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if len(app.Windows()) != 0 {
		t.Error("windows left open after Close")
	}
	if _, err := app.NewWindow(); !errors.Is(err, ErrClosed) {
		t.Errorf("NewWindow after Close error = %v", err)
	}
	if err := app.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func zipball(t *testing.T, top string, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(top + "/" + name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestBootstrapRecoveryInstallsBasic(t *testing.T) {
	files := map[string]string{}
	for name, content := range basicPlugin {
		files[name[len("Basic/"):]] = content
	}
	archive := zipball(t, "vartexter-Basic-1a2b3c", files)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/vartexter/Basic/zipball/master" {
			http.NotFound(w, r)
			return
		}
		w.Write(archive)
	}))
	t.Cleanup(srv.Close)

	settings := testSettings(t)
	settings.BootstrapURL = srv.URL + "/vartexter/Basic"
	app := newTestApp(t, settings, nil, WithHTTPClient(srv.Client()))

	w, err := app.NewWindow()
	if err != nil {
		t.Fatal(err)
	}
	if w.Report().Bootstrapped {
		t.Fatal("bootstrap reported present before install")
	}
	if !app.Panel().Contains(logging.LevelWarn, "Bootstrap plugin 'Basic' not found") {
		t.Errorf("missing bootstrap not logged:\n%s", app.Panel().Text())
	}

	drainUntil(t, app, func() bool { return w.Registry().Has("Upper") })
	if !w.Report().Bootstrapped {
		t.Error("reload after install did not load the bootstrap plugin")
	}
	if !app.Panel().Contains(logging.LevelInfo, "Installed package") {
		t.Errorf("install not logged:\n%s", app.Panel().Text())
	}
}

func TestWaitFinishesInstall(t *testing.T) {
	archive := zipball(t, "u-Extra-9f8e7d", map[string]string{
		"config.json": `{"name": "Extra", "main": "main.lua"}`,
		"main.lua":    `Extra = require("vt").ApplicationCommand() function Extra:run() return "extra" end`,
	})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/u/Extra/zipball/master" {
			http.NotFound(w, r)
			return
		}
		time.Sleep(50 * time.Millisecond)
		w.Write(archive)
	}))
	t.Cleanup(srv.Close)

	app := newTestApp(t, testSettings(t), basicPlugin, WithHTTPClient(srv.Client()))
	w, err := app.NewWindow()
	if err != nil {
		t.Fatal(err)
	}

	if _, err := w.RunCommand("InstallPackageCommand", []any{srv.URL + "/u/Extra"}, nil); err != nil {
		t.Fatalf("InstallPackageCommand error = %v", err)
	}
	if n := app.Wait(); n == 0 {
		t.Error("Wait() ran no tasks")
	}

	if _, err := os.Stat(filepath.Join(app.Dirs().Plugins, "Extra", "config.json")); err != nil {
		t.Errorf("package not installed: %v", err)
	}
	if !app.Panel().Contains(logging.LevelInfo, "Installed package") {
		t.Errorf("install not logged:\n%s", app.Panel().Text())
	}
	if !w.Registry().Has("Extra") {
		t.Error("reload after install did not run")
	}
	if app.Wait() != 0 {
		t.Error("second Wait() ran tasks")
	}
}

func TestRunReloadsOnPluginChange(t *testing.T) {
	settings := testSettings(t)
	settings.WatchPlugins = true
	app := newTestApp(t, settings, basicPlugin)
	w, err := app.NewWindow()
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	// The watcher starts inside Run; give it a moment before changing files.
	time.Sleep(100 * time.Millisecond)
	writeFiles(t, app.Dirs().Plugins, map[string]string{
		"Extra/main.lua":    `Extra = require("vt").ApplicationCommand() function Extra:run() end`,
		"Extra/config.json": `{"name": "Extra", "main": "main.lua"}`,
	})

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		found := make(chan bool, 1)
		app.Loop().Post(func() { found <- w.Registry().Has("Extra") })
		if <-found {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("plugin change did not trigger a reload")
}
