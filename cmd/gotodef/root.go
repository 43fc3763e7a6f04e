package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/dshills/gotodef/internal/app"
	"github.com/dshills/gotodef/internal/config"
)

// flags holds the persistent settings shared by every subcommand.
type flags struct {
	configPath string
	workspace  string
	logLevel   string
	timeout    time.Duration
	tabWidth   int
	servers    []string
}

// newRootCmd builds the command tree. base carries settings that flags do
// not cover, such as a custom server dialer.
func newRootCmd(base app.Options) *cobra.Command {
	f := &flags{}

	root := &cobra.Command{
		Use:           "gotodef",
		Short:         "Jump to definitions through a language server",
		Long:          "gotodef asks a language server where the symbol under a cursor is defined and moves the cursor there.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&f.configPath, "config", "c", "", "path to a TOML configuration file")
	pf.StringVarP(&f.workspace, "workspace", "w", "", "workspace root sent to language servers")
	pf.StringVar(&f.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.DurationVar(&f.timeout, "timeout", 0, "how long to wait for a definition")
	pf.IntVar(&f.tabWidth, "tab-width", 0, "tab stop used for display columns")
	pf.StringArrayVarP(&f.servers, "server", "s", nil, `language server for a file type, e.g. "go=gopls serve"`)

	root.AddCommand(
		newLookupCmd(f, base),
		newScriptCmd(f, base),
		newServeCmd(f, base),
		newVersionCmd(),
	)
	return root
}

// options merges flags into base.
func (f *flags) options(base app.Options, files []string) (app.Options, error) {
	servers, err := parseServers(f.servers)
	if err != nil {
		return app.Options{}, err
	}

	opts := base
	opts.ConfigPath = f.configPath
	opts.WorkspacePath = f.workspace
	opts.LogLevel = f.logLevel
	opts.Timeout = f.timeout
	opts.TabWidth = f.tabWidth
	opts.Servers = servers
	opts.Files = files

	if opts.WorkspacePath == "" && len(files) > 0 {
		if abs, err := filepath.Abs(files[0]); err == nil {
			opts.WorkspacePath = filepath.Dir(abs)
		}
	}
	return opts, nil
}

// parseServers parses FILETYPE=COMMAND [ARGS...] entries.
func parseServers(entries []string) (map[string]config.ServerConfig, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	out := make(map[string]config.ServerConfig, len(entries))
	for _, entry := range entries {
		ft, cmdline, ok := strings.Cut(entry, "=")
		fields := strings.Fields(cmdline)
		ft = strings.TrimSpace(ft)
		if !ok || ft == "" || len(fields) == 0 {
			return nil, errors.WithHint(
				errors.Newf("invalid --server %q", entry),
				`use FILETYPE=COMMAND [ARGS...], e.g. --server "go=gopls serve"`)
		}
		out[ft] = config.ServerConfig{Command: fields[0], Args: fields[1:]}
	}
	return out, nil
}

// withApp boots an application, runs fn and shuts it down.
func withApp(opts app.Options, fn func(*app.Application) error) error {
	a, err := app.New(opts)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.Shutdown(shutdownCtx); err != nil {
			a.Logger().Warn("shutdown", "error", err)
		}
	}()
	return fn(a)
}

func newLookupCmd(f *flags, base app.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup FILE:LINE:COL",
		Short: "Print where the symbol at a position is defined",
		Long: "Print where the symbol at a position is defined as FILE:LINE:COL.\n" +
			"LINE starts at 1 and COL is a display column starting at 0.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := app.ParseLocation(args[0])
			if err != nil {
				return err
			}
			opts, err := f.options(base, nil)
			if err != nil {
				return err
			}
			if opts.WorkspacePath == "" {
				if abs, err := filepath.Abs(loc.Path); err == nil {
					opts.WorkspacePath = filepath.Dir(abs)
				}
			}
			return withApp(opts, func(a *app.Application) error {
				got, err := a.Lookup(cmd.Context(), loc)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), got)
				return nil
			})
		},
	}
}

func newScriptCmd(f *flags, base app.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "script SCRIPT.lua [FILE...]",
		Short: "Run a Lua script against the editor",
		Long: "Open FILEs and run a Lua script that drives the editor through the\n" +
			"editor table: open, cursor, move, buffer, line, command and sync.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := f.options(base, args[1:])
			if err != nil {
				return err
			}
			return withApp(opts, func(a *app.Application) error {
				return a.RunScript(cmd.Context(), args[0], cmd.OutOrStdout())
			})
		},
	}
}

func newServeCmd(f *flags, base app.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Answer FILE:LINE:COL lookups read from stdin",
		Long: "Read one FILE:LINE:COL per line from stdin and write one JSON answer\n" +
			"per line to stdout. Language servers stay running between lookups and\n" +
			"the config file is reloaded when it changes.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := f.options(base, nil)
			if err != nil {
				return err
			}
			return withApp(opts, func(a *app.Application) error {
				return a.Serve(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
			})
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "gotodef %s\n", version)
			fmt.Fprintf(out, "Commit: %s\n", commit)
			fmt.Fprintf(out, "Built: %s\n", date)
		},
	}
}
