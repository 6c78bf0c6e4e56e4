package app

import (
	"context"
	"fmt"
	"time"

	"github.com/vartexter/vartexter/internal/command"
	"github.com/vartexter/vartexter/internal/editor"
	"github.com/vartexter/vartexter/internal/logging"
	"github.com/vartexter/vartexter/internal/plugin"
)

// Scratch path toggled by LogConsoleCommand.
const logConsolePath = "logConsole.visible"

// installTimeout bounds one package install including its requirements.
const installTimeout = 5 * time.Minute

// builtinClasses returns the host commands of w keyed by class name.
func builtinClasses(w *Window) map[string]*command.Class {
	classes := []*command.Class{
		command.WindowClass("NewFileCommand", func(_ command.API, ew *editor.Window) command.Runner {
			return command.RunnerFunc(func(_ []any, _ map[string]any) (any, error) {
				return int64(ew.NewFile().ID()), nil
			})
		}),
		command.WindowClass("OpenFileCommand", func(_ command.API, ew *editor.Window) command.Runner {
			return command.RunnerFunc(func(args []any, kwargs map[string]any) (any, error) {
				path, err := stringArg(args, kwargs, 0, "path")
				if err != nil {
					return nil, err
				}
				v, err := ew.OpenFile(path)
				if err != nil {
					return nil, err
				}
				return int64(v.ID()), nil
			})
		}),
		command.TextClass("SaveFileCommand", func(_ command.API, v *editor.View) command.Runner {
			return command.RunnerFunc(func(args []any, kwargs map[string]any) (any, error) {
				if path, err := stringArg(args, kwargs, 0, "path"); err == nil {
					v.SetFile(path)
				}
				return nil, v.Save()
			})
		}),
		command.WindowClass("CloseTabCommand", func(_ command.API, ew *editor.Window) command.Runner {
			return command.RunnerFunc(func(_ []any, _ map[string]any) (any, error) {
				v := ew.ActiveView()
				if v == nil {
					return false, nil
				}
				return ew.CloseView(v), nil
			})
		}),
		command.ApplicationClass("NewWindowCommand", func(command.API) command.Runner {
			return command.RunnerFunc(func(_ []any, _ map[string]any) (any, error) {
				nw, err := w.app.NewWindow()
				if err != nil {
					return nil, err
				}
				return nw.ID(), nil
			})
		}),
		command.ApplicationClass("ReloadPluginsCommand", func(command.API) command.Runner {
			return command.RunnerFunc(func(_ []any, _ map[string]any) (any, error) {
				w.app.loop.Post(func() {
					if _, err := w.Reload(); err != nil {
						w.logger.Error("Failed reload plugins: %v", err)
					}
				})
				return nil, nil
			})
		}),
		command.ApplicationClass("InstallPackageCommand", func(command.API) command.Runner {
			return command.RunnerFunc(func(args []any, kwargs map[string]any) (any, error) {
				url, err := stringArg(args, kwargs, 0, "url")
				if err != nil {
					return nil, err
				}
				site, err := stringArg(args, kwargs, 1, "site")
				if err != nil {
					site = plugin.SiteGitHub
				}
				w.app.Go(func() { w.install(url, site) })
				return nil, nil
			})
		}),
		command.ApplicationClass("UninstallPackageCommand", func(command.API) command.Runner {
			return command.RunnerFunc(func(args []any, kwargs map[string]any) (any, error) {
				name, err := stringArg(args, kwargs, 0, "name")
				if err != nil {
					return nil, err
				}
				if err := w.app.installer.Uninstall(name); err != nil {
					return nil, err
				}
				w.app.loop.Post(w.app.ReloadAll)
				return nil, nil
			})
		}),
		command.ApplicationClass("LogConsoleCommand", func(command.API) command.Runner {
			return command.RunnerFunc(func(_ []any, _ map[string]any) (any, error) {
				visible := true
				if v, ok := w.Scratch(logConsolePath); ok {
					b, _ := v.(bool)
					visible = !b
				}
				w.SetScratch(logConsolePath, visible)
				if !visible {
					return nil, nil
				}
				return w.app.panel.Text(), nil
			})
		}),
	}

	out := make(map[string]*command.Class, len(classes))
	for _, c := range classes {
		out[c.Name] = c
	}
	return out
}

// install downloads a package off the loop and reports back on it.
func (w *Window) install(url, site string) {
	ctx, cancel := context.WithTimeout(context.Background(), installTimeout)
	defer cancel()

	name, err := w.app.installer.Install(ctx, url, site)
	w.app.loop.Post(func() {
		if err != nil {
			w.Log(logging.LevelError, fmt.Sprintf("Failed install package '%s': %v", url, err))
			return
		}
		w.Log(logging.LevelInfo, fmt.Sprintf("Installed package '%s'", name))
		w.app.ReloadAll()
	})
}

// stringArg returns the positional argument at i, or the keyword argument
// key.
func stringArg(args []any, kwargs map[string]any, i int, key string) (string, error) {
	if v, ok := kwargs[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s, nil
		}
	}
	if i < len(args) {
		if s, ok := args[i].(string); ok && s != "" {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrMissingArgument, key)
}
