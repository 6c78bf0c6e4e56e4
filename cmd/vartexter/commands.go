package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vartexter/vartexter/internal/command"
	"github.com/vartexter/vartexter/internal/plugin"
)

func newRunCommand(flags *globalFlags) *cobra.Command {
	var argsJSON, kwargsJSON string
	cmd := &cobra.Command{
		Use:   "run <command>",
		Short: "Execute a registered command",
		Example: `  vartexter run NewFileCommand
  vartexter run OpenFileCommand --args '["notes.txt"]'
  vartexter run Echo --kwargs '{"text": "hi"}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var cmdArgs []any
			var cmdKwargs map[string]any
			if err := parseJSONFlag("args", argsJSON, &cmdArgs); err != nil {
				return err
			}
			if err := parseJSONFlag("kwargs", kwargsJSON, &cmdKwargs); err != nil {
				return err
			}

			application, w, closeFn, err := flags.openWindow()
			if err != nil {
				return err
			}
			defer closeFn()

			out, err := w.RunCommand(args[0], cmdArgs, cmdKwargs)
			application.Wait()
			if err != nil {
				return err
			}
			if out != nil {
				return printJSON(cmd, out)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&argsJSON, "args", "", "Positional arguments as a JSON array")
	cmd.Flags().StringVar(&kwargsJSON, "kwargs", "", "Keyword arguments as a JSON object")
	return cmd
}

func newPluginsCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "plugins",
		Short: "List loaded plugins and their commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, w, closeFn, err := flags.openWindow()
			if err != nil {
				return err
			}
			defer closeFn()

			byPlugin := make(map[string][]*command.Descriptor)
			for _, d := range w.Registry().Descriptors() {
				byPlugin[d.Plugin] = append(byPlugin[d.Plugin], d)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "PLUGIN\tCOMMAND\tKIND\tSTATE PATH")
			names := make([]string, 0, len(byPlugin))
			for name := range byPlugin {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				owner := name
				if owner == "" {
					owner = "(built-in)"
				}
				for _, d := range byPlugin[name] {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", owner, d.Name, d.Kind, d.CheckedStatePath)
				}
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			report := w.Report()
			for _, f := range report.Failed {
				fmt.Fprintf(cmd.ErrOrStderr(), "failed: %s: %v\n", f.Plugin, f.Err)
			}
			if !report.Bootstrapped {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: bootstrap plugin not found")
			}
			return nil
		},
	}
}

func newMenuCommand(flags *globalFlags) *cobra.Command {
	var which string
	cmd := &cobra.Command{
		Use:   "menu",
		Short: "Print the compiled menu tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, w, closeFn, err := flags.openWindow()
			if err != nil {
				return err
			}
			defer closeFn()

			menus := w.Menus()
			switch which {
			case "main":
				return menus.Main.Write(cmd.OutOrStdout())
			case "text":
				return menus.TextContext.Write(cmd.OutOrStdout())
			case "tabs":
				return menus.TabBarContext.Write(cmd.OutOrStdout())
			default:
				return fmt.Errorf("unknown menu %q (want main, text or tabs)", which)
			}
		},
	}
	cmd.Flags().StringVar(&which, "which", "main", "Menu to print: main, text or tabs")
	return cmd
}

func newInstallCommand(flags *globalFlags) *cobra.Command {
	var site string
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "install <url>",
		Short: "Install a package and its requirements",
		Example: `  vartexter install https://github.com/user/MyPlugin
  vartexter install https://example.com/MyPlugin.zip --site direct`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := flags.loadSettings()
			if err != nil {
				return err
			}
			dirs, err := settings.Resolve(true)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			dir, err := plugin.NewInstaller(dirs.Plugins).Install(ctx, args[0], site)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "installed %s\n", dir)
			return nil
		},
	}
	cmd.Flags().StringVar(&site, "site", plugin.SiteGitHub, "Package site: github or direct")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "Install timeout")
	return cmd
}

func newUninstallCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall <name>",
		Short: "Remove an installed package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := flags.loadSettings()
			if err != nil {
				return err
			}
			dirs, err := settings.Resolve(false)
			if err != nil {
				return err
			}
			if err := plugin.NewInstaller(dirs.Plugins).Uninstall(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
			return nil
		},
	}
}

func newStateCommand(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Read or write the saved session",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "get <path>",
		Short: "Print the value at a dotted path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, w, closeFn, err := flags.openWindow()
			if err != nil {
				return err
			}
			defer closeFn()

			v, ok := w.State(args[0])
			if !ok {
				return fmt.Errorf("no value at %s", args[0])
			}
			return printJSON(cmd, v)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set <path> <value>",
		Short: "Store a value at a dotted path",
		Long:  `The value is decoded as JSON when possible and stored as a string otherwise.`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, w, closeFn, err := flags.openWindow()
			if err != nil {
				return err
			}

			var value any
			if err := json.Unmarshal([]byte(args[1]), &value); err != nil {
				value = args[1]
			}
			w.SetState(args[0], value)
			return closeFn()
		},
	})
	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
