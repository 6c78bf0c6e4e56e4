package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vartexter/vartexter/internal/command"
	"github.com/vartexter/vartexter/internal/logging"
	"github.com/vartexter/vartexter/internal/menu"
)

func commandInvocation(name string, args ...any) command.Invocation {
	return command.Invocation{Command: name, Args: args}
}

func openWindow(t *testing.T, app *Application) *Window {
	t.Helper()
	w, err := app.NewWindow()
	require.NoError(t, err)
	return w
}

func wrapAction(t *testing.T, w *Window) *menu.Action {
	t.Helper()
	edit := w.Menus().Main.FindMenu("edit")
	require.NotNil(t, edit, "edit menu missing")
	a := edit.FindCommand("Wrap")
	require.NotNil(t, a, "Wrap action missing")
	return a
}

func TestWindowLoadsPlugins(t *testing.T) {
	w := openWindow(t, newTestApp(t, testSettings(t), basicPlugin))

	require.NotNil(t, w.Report())
	assert.True(t, w.Report().Bootstrapped)
	assert.Equal(t, []string{"Basic"}, w.Report().Loaded)

	for _, name := range []string{"Upper", "Wrap", "Echo", "NewFileCommand", "OpenFileCommand", "InstallPackageCommand"} {
		assert.True(t, w.Registry().Has(name), "missing command %s", name)
	}
	assert.Contains(t, w.Commands(), "LogConsoleCommand")
	assert.True(t, wrapAction(t, w).Checkable())
	assert.Equal(t, "VarTexter2", w.Editor().Title())
}

func TestWindowHostMenu(t *testing.T) {
	settings := testSettings(t)
	settings.MenuFile = "Ui/menu.json"
	writeFiles(t, settings.PackagesDir, map[string]string{
		"Ui/menu.json": `{"mainMenu": [{"caption": "File", "id": "file", "children": [
			{"caption": "New", "shortcut": "Ctrl+N", "command": "NewFileCommand"}
		]}]}`,
	})
	w := openWindow(t, newTestApp(t, settings, basicPlugin))

	file := w.Menus().Main.FindMenu("file")
	require.NotNil(t, file)
	require.NotNil(t, file.FindCommand("NewFileCommand"))

	assert.True(t, w.TriggerShortcut("ctrl+n"))
	assert.Len(t, w.Editor().Views(), 1)
}

func TestWindowShortcuts(t *testing.T) {
	app := newTestApp(t, testSettings(t), basicPlugin)
	w := openWindow(t, app)

	view := w.Editor().NewFile()
	require.NoError(t, view.SetText("abc"))

	assert.True(t, w.TriggerShortcut("Ctrl+U"))
	assert.Equal(t, "ABC", view.Text())
	assert.False(t, w.TriggerShortcut("Ctrl+Q"))
	assert.Equal(t, "Upper", w.Shortcuts().Owner("ctrl+u"))

	assert.True(t, w.HandleKey(tcell.NewEventKey(tcell.KeyRune, 'e', tcell.ModCtrl)))
	assert.True(t, app.Panel().Contains(logging.LevelInfo, "Command 'Echo' returned 'key'"), app.Panel().Text())
	assert.False(t, w.HandleKey(tcell.NewEventKey(tcell.KeyRune, 'z', tcell.ModNone)))
}

func TestWindowBuiltins(t *testing.T) {
	app := newTestApp(t, testSettings(t), basicPlugin)
	w := openWindow(t, app)

	dir := t.TempDir()
	src := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(src, []byte("hello"), 0o644))

	_, err := w.RunCommand("OpenFileCommand", []any{src}, nil)
	require.NoError(t, err)
	view := w.Editor().ActiveView()
	require.NotNil(t, view)
	assert.Equal(t, "hello", view.Text())

	require.NoError(t, view.Insert(5, " world"))
	dst := filepath.Join(dir, "b.txt")
	_, err = w.RunCommand("SaveFileCommand", nil, map[string]any{"path": dst})
	require.NoError(t, err)
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))

	_, err = w.RunCommand("NewFileCommand", nil, nil)
	require.NoError(t, err)
	assert.Len(t, w.Editor().Views(), 2)

	out, err := w.RunCommand("CloseTabCommand", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, true, out)
	assert.Len(t, w.Editor().Views(), 1)

	_, err = w.RunCommand("OpenFileCommand", nil, nil)
	assert.ErrorIs(t, err, ErrMissingArgument)

	out, err = w.RunCommand("LogConsoleCommand", nil, nil)
	require.NoError(t, err)
	assert.Contains(t, out, "Executed command 'CloseTabCommand'")
	out, err = w.RunCommand("LogConsoleCommand", nil, nil)
	require.NoError(t, err)
	assert.Nil(t, out)

	out, err = w.RunCommand("NewWindowCommand", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "w2", out)
	assert.Equal(t, []string{"w1", "w2"}, app.WindowIDs())
}

func TestWindowReloadCommandIsDeferred(t *testing.T) {
	app := newTestApp(t, testSettings(t), basicPlugin)
	w := openWindow(t, app)
	before := w.Registry()

	writeFiles(t, app.Dirs().Plugins, map[string]string{
		"Basic/basic.lua": basicPlugin["Basic/basic.lua"] + `
Later = vt.ApplicationCommand()
function Later:run() return "later" end
`,
	})

	_, err := w.RunCommand("ReloadPluginsCommand", nil, nil)
	require.NoError(t, err)
	assert.Same(t, before, w.Registry(), "reload ran during dispatch")
	assert.Equal(t, 1, app.Loop().Pending())

	app.Loop().Drain()
	assert.NotSame(t, before, w.Registry())
	out, err := w.RunCommand("Later", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "later", out)
}

func TestWindowUninstall(t *testing.T) {
	app := newTestApp(t, testSettings(t), basicPlugin)
	w := openWindow(t, app)

	_, err := w.RunCommand("UninstallPackageCommand", []any{"Basic"}, nil)
	require.NoError(t, err)
	app.Loop().Drain()

	assert.False(t, w.Registry().Has("Upper"))
	assert.False(t, w.Report().Bootstrapped)
	_, err = os.Stat(filepath.Join(app.Dirs().Plugins, "Basic"))
	assert.True(t, os.IsNotExist(err))
}

func TestWindowCheckableToggle(t *testing.T) {
	w := openWindow(t, newTestApp(t, testSettings(t), basicPlugin))
	action := wrapAction(t, w)
	assert.False(t, action.Checked())

	w.SetState("editor.wrap", true)
	_, err := w.RunCommand("Wrap", nil, nil)
	require.NoError(t, err)
	assert.False(t, action.Checked(), "live toggle should negate the stored value")

	w.SetState("editor.wrap", false)
	assert.True(t, action.Trigger())
	assert.True(t, action.Checked())
}

func TestWindowSessionRoundTrip(t *testing.T) {
	settings := testSettings(t)
	src := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(src, []byte("notes"), 0o644))

	first := newTestApp(t, settings, basicPlugin)
	w := openWindow(t, first)
	_, err := w.Editor().OpenFile(src)
	require.NoError(t, err)
	w.Editor().NewFile().SetTitle("scratch")
	w.Editor().NewFile()
	require.True(t, w.Editor().SetTab(1))
	w.Editor().SetTheme("dark.qss")
	w.SetState("editor.wrap", true)
	require.NoError(t, first.Close())

	_, err = os.Stat(settings.StatePath(first.Dirs()))
	require.NoError(t, err, "session file not written")

	second, err := New(settings, WithLogOutput(nopWriter{}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })
	restored := openWindow(t, second)

	views := restored.Editor().Views()
	require.Len(t, views, 3)
	assert.Equal(t, src, views[0].File())
	assert.Equal(t, "notes", views[0].Text())
	assert.Equal(t, "scratch", views[1].Title())
	assert.Equal(t, "Untitled", views[2].Title())
	assert.Same(t, views[1], restored.Editor().ActiveView())
	assert.Equal(t, "dark.qss", restored.Editor().Theme())
	assert.True(t, wrapAction(t, restored).Checked(), "checkable state not replayed")

	v, ok := restored.State("settings.locale")
	assert.True(t, ok)
	assert.Equal(t, "en", v)
}

func TestWindowSaveStateDisabled(t *testing.T) {
	settings := testSettings(t)
	settings.SaveState = false
	app := newTestApp(t, settings, basicPlugin)
	w := openWindow(t, app)
	w.Editor().NewFile()

	require.NoError(t, w.Close())
	_, err := os.Stat(settings.StatePath(app.Dirs()))
	assert.True(t, os.IsNotExist(err))
}

func TestWindowMissingTabFile(t *testing.T) {
	settings := testSettings(t)
	app := newTestApp(t, settings, basicPlugin)
	w := openWindow(t, app)
	w.SetState("state.tabWidget.tabs.0.file", filepath.Join(t.TempDir(), "gone.txt"))
	w.SetState("state.tabWidget.tabs.0.title", "gone.txt")

	w.restoreTabs()
	views := w.Editor().Views()
	require.Len(t, views, 1)
	assert.Equal(t, "gone.txt", views[0].Title())
	assert.True(t, app.Panel().Contains(logging.LevelWarn, "Failed restore tab"))
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
