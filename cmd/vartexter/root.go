package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vartexter/vartexter/internal/app"
	"github.com/vartexter/vartexter/internal/config"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	settingsPath string
	packagesDir  string
	logLevel     string
	verbose      bool
}

func newRootCommand(version, commit, date string) *cobra.Command {
	flags := &globalFlags{}
	rootCmd := &cobra.Command{
		Use:   "vartexter",
		Short: "VarTexter2 plugin and command runtime",
		Long: `vartexter loads VarTexter2 plugins from the packages directory, compiles
their menus and shortcuts, and dispatches their commands.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.settingsPath, "settings", "", "Path to the settings file (TOML)")
	pf.StringVar(&flags.packagesDir, "plugins", "", "Packages directory, overrides packages_dir")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warning, error)")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "Write log lines to stderr")

	rootCmd.AddCommand(
		newRunCommand(flags),
		newPluginsCommand(flags),
		newMenuCommand(flags),
		newInstallCommand(flags),
		newUninstallCommand(flags),
		newStateCommand(flags),
		newKeysCommand(flags),
	)
	return rootCmd
}

// loadSettings reads the settings file and applies flag overrides.
func (f *globalFlags) loadSettings() (config.Settings, error) {
	settings, err := config.Load(f.settingsPath)
	if err != nil {
		return settings, err
	}
	if f.packagesDir != "" {
		settings.PackagesDir = f.packagesDir
		settings.PackagesDirs = nil
	}
	if f.logLevel != "" {
		settings.LogLevel = f.logLevel
	}
	if f.verbose {
		settings.LogStdout = true
	}
	return settings, nil
}

// openWindow creates the application and its first window. The returned
// close function saves the session.
func (f *globalFlags) openWindow() (*app.Application, *app.Window, func() error, error) {
	settings, err := f.loadSettings()
	if err != nil {
		return nil, nil, nil, err
	}
	application, err := app.New(settings)
	if err != nil {
		return nil, nil, nil, err
	}
	w, err := application.NewWindow()
	if err != nil {
		_ = application.Close()
		return nil, nil, nil, err
	}
	return application, w, application.Close, nil
}

// parseJSONFlag decodes a JSON flag value into out. Empty values are left
// untouched.
func parseJSONFlag(name, value string, out any) error {
	if value == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(value), out); err != nil {
		return fmt.Errorf("invalid --%s: %w", name, err)
	}
	return nil
}
