package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"devdeck/internal/bootstrap"
	configinadapter "devdeck/internal/modules/configedit/adapter/in"
	toolsinadapter "devdeck/internal/modules/tools/adapter/in"
	"devdeck/internal/modules/tools/dto"
	versionsdto "devdeck/internal/modules/versions/dto"
	"devdeck/internal/platform/config"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "devdeck",
		Short:         "Developer tooling control panel",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $XDG_CONFIG_HOME/devdeck/config.yaml)")

	root.AddCommand(newTUICmd(&configPath))
	root.AddCommand(newToolsCmd(&configPath))
	root.AddCommand(newVersionsCmd(&configPath))
	root.AddCommand(newConfigCmd(&configPath))
	root.AddCommand(newSystemCmd(&configPath))
	root.AddCommand(newCacheCmd(&configPath))
	root.AddCommand(newBackendCmd(&configPath))
	root.AddCommand(newMCPCmd(&configPath))
	return root
}

// withApp builds the application for one command and tears it down after.
func withApp(cmd *cobra.Command, configPath string, run func(ctx context.Context, app *bootstrap.App) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()
	return run(ctx, app)
}

func newTUICmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the devdeck terminal UI",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, *configPath, func(_ context.Context, app *bootstrap.App) error {
				return bootstrap.RunTUI(app)
			})
		},
	}
}

func newToolsCmd(configPath *string) *cobra.Command {
	tools := &cobra.Command{Use: "tools", Short: "Globally installed developer tools"}

	var source, query string
	var refresh bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List installed tools",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, *configPath, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.ToolsCLI.List(ctx, dto.ListInput{Source: source, Query: query, Refresh: refresh})
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				if len(out.Tools) == 0 {
					_, _ = fmt.Fprintln(w, "no tools found")
					return nil
				}
				for _, t := range out.Tools {
					_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", t.Key, orDash(t.Version), humanize.Bytes(t.SizeBytes))
				}
				if out.LastFetchAt != nil {
					_, _ = fmt.Fprintf(w, "scanned %s\n", humanize.Time(*out.LastFetchAt))
				}
				return nil
			})
		},
	}
	list.Flags().StringVar(&source, "source", "", "only this package manager")
	list.Flags().StringVar(&query, "query", "", "substring of name or scope")
	list.Flags().BoolVar(&refresh, "refresh", false, "rescan instead of using the cache")
	tools.AddCommand(list)

	tools.AddCommand(&cobra.Command{
		Use:   "summary",
		Short: "Count tools and disk use per source",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, *configPath, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.ToolsCLI.Summary(ctx)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(w, "tools=%d size=%s\n", out.TotalTools, humanize.Bytes(out.TotalSizeBytes))
				sources := make([]string, 0, len(out.BySource))
				for source := range out.BySource {
					sources = append(sources, source)
				}
				sort.Strings(sources)
				for _, source := range sources {
					_, _ = fmt.Fprintf(w, "%s\t%d\n", source, out.BySource[source])
				}
				return nil
			})
		},
	})

	tools.AddCommand(&cobra.Command{
		Use:   "update <source:name>",
		Short: "Update one tool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, *configPath, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.ToolsCLI.Update(ctx, args[0])
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", out.Key, out.Message)
				return nil
			})
		},
	})

	tools.AddCommand(&cobra.Command{
		Use:   "uninstall <source:name>",
		Short: "Uninstall one tool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, *configPath, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.ToolsCLI.Uninstall(ctx, args[0])
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", out.Key, out.Message)
				return nil
			})
		},
	})

	tools.AddCommand(&cobra.Command{
		Use:   "batch <update|uninstall> <source:name>...",
		Short: "Update or uninstall several tools, reporting each",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, *configPath, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.ToolsCLI.Batch(ctx, args[0], args[1:])
				if err != nil {
					return err
				}
				_, _ = fmt.Fprint(cmd.OutOrStdout(), toolsinadapter.FormatBatch(out))
				if out.Failed > 0 {
					return fmt.Errorf("%d of %d items failed", out.Failed, len(out.Results))
				}
				return nil
			})
		},
	})

	var searchSource string
	search := &cobra.Command{
		Use:   "search <query>",
		Short: "Search package registries for tools to install",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, *configPath, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.ToolsCLI.Search(ctx, dto.SearchInput{Source: searchSource, Query: strings.Join(args, " ")})
				if err != nil {
					return err
				}
				_, _ = fmt.Fprint(cmd.OutOrStdout(), toolsinadapter.FormatSearch(out))
				return nil
			})
		},
	}
	search.Flags().StringVar(&searchSource, "source", "", "only this registry (npm, cargo, pip)")
	tools.AddCommand(search)

	tools.AddCommand(&cobra.Command{
		Use:   "install <source:name>",
		Short: "Install a new tool globally",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, *configPath, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.ToolsCLI.Install(ctx, args[0])
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", out.Key, out.Message)
				return nil
			})
		},
	})

	var limit int
	history := &cobra.Command{
		Use:   "history",
		Short: "Show recent tool actions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, *configPath, func(ctx context.Context, app *bootstrap.App) error {
				entries, err := app.ToolsCLI.History(ctx, limit)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				if len(entries) == 0 {
					_, _ = fmt.Fprintln(w, "no actions recorded")
					return nil
				}
				for _, e := range entries {
					status := "ok"
					if !e.Success {
						status = "FAILED"
					}
					_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.At.Local().Format(time.DateTime), e.Kind, e.Target, status, e.Message)
				}
				return nil
			})
		},
	}
	history.Flags().IntVar(&limit, "limit", 0, "number of entries (default 50)")
	tools.AddCommand(history)
	return tools
}

func newVersionsCmd(configPath *string) *cobra.Command {
	versions := &cobra.Command{Use: "versions", Short: "List and switch tool versions, and show language runtimes"}

	versions.AddCommand(&cobra.Command{
		Use:   "list <source:name>",
		Short: "List published versions, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, *configPath, func(ctx context.Context, app *bootstrap.App) error {
				wf, err := app.VersionsCLI.List(ctx, args[0])
				if err != nil {
					return err
				}
				printCandidates(cmd.OutOrStdout(), wf)
				return nil
			})
		},
	})

	versions.AddCommand(&cobra.Command{
		Use:   "use <source:name> <version>",
		Short: "Install a specific version globally",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, *configPath, func(ctx context.Context, app *bootstrap.App) error {
				wf, err := app.VersionsCLI.Use(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), wf.Message)
				return nil
			})
		},
	})

	versions.AddCommand(&cobra.Command{
		Use:   "runtimes",
		Short: "Show installed language runtimes and their version managers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, *configPath, func(ctx context.Context, app *bootstrap.App) error {
				runtimes, err := app.VersionsCLI.Runtimes(ctx)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				for _, r := range runtimes {
					if !r.Installed {
						_, _ = fmt.Fprintf(w, "%s\tnot installed\n", r.Name)
						continue
					}
					_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Name, r.Version, orDash(r.Manager), r.Path)
				}
				return nil
			})
		},
	})
	return versions
}

func printCandidates(w io.Writer, wf versionsdto.Workflow) {
	if len(wf.Candidates) == 0 {
		_, _ = fmt.Fprintf(w, "no versions published for %s\n", wf.ToolKey)
		return
	}
	for _, c := range wf.Candidates {
		marker := " "
		if c.Active {
			marker = "*"
		}
		_, _ = fmt.Fprintf(w, "%s %s\n", marker, c.Version)
	}
}

func newConfigCmd(configPath *string) *cobra.Command {
	cfgCmd := &cobra.Command{Use: "config", Short: "Find and edit tool configuration files"}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "files <source:name>",
		Short: "List config files found for a tool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, *configPath, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.ConfigCLI.Files(ctx, args[0])
				if err != nil {
					return err
				}
				_, _ = fmt.Fprint(cmd.OutOrStdout(), configinadapter.FormatDiscovery(out))
				return nil
			})
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show <path>",
		Short: "Show a config file as flat fields, or raw text if it is not a JSON object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, *configPath, func(ctx context.Context, app *bootstrap.App) error {
				doc, err := app.ConfigCLI.Show(ctx, args[0])
				if err != nil {
					return err
				}
				_, _ = fmt.Fprint(cmd.OutOrStdout(), configinadapter.FormatDocument(doc))
				return nil
			})
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "set <path> <key> <value>",
		Short: "Change one field of a JSON config file",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, *configPath, func(ctx context.Context, app *bootstrap.App) error {
				if _, err := app.ConfigCLI.Set(ctx, args[0], args[1], args[2]); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", args[0])
				return nil
			})
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "write <path>",
		Short: "Replace a config file with text read from stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			return withApp(cmd, *configPath, func(ctx context.Context, app *bootstrap.App) error {
				if err := app.ConfigCLI.Write(ctx, args[0], string(raw)); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", args[0])
				return nil
			})
		},
	})
	return cfgCmd
}

func newSystemCmd(configPath *string) *cobra.Command {
	system := &cobra.Command{Use: "system", Short: "Ports, processes, caches and environment"}
	var refresh bool
	system.PersistentFlags().BoolVar(&refresh, "refresh", false, "rescan instead of using the cache")

	system.AddCommand(&cobra.Command{
		Use:   "ports",
		Short: "List listening ports",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, *configPath, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.SystemCLI.Ports(ctx, refresh)
				if err != nil {
					return err
				}
				for _, p := range out.Ports {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d/%s\t%d\t%s\t%s\n", p.Port, strings.ToLower(p.Protocol), p.PID, p.ProcessName, p.State)
				}
				return nil
			})
		},
	})

	system.AddCommand(&cobra.Command{
		Use:   "processes",
		Short: "List running development processes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, *configPath, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.SystemCLI.Processes(ctx, refresh)
				if err != nil {
					return err
				}
				for _, p := range out.Processes {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%.1f%%\t%.0fMB\t%s\n", p.PID, p.Name, p.CPUPercent, p.MemoryMB, p.Status)
				}
				return nil
			})
		},
	})

	system.AddCommand(&cobra.Command{
		Use:   "caches",
		Short: "List package manager caches and their size",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, *configPath, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.SystemCLI.Caches(ctx, refresh)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				for _, c := range out.Caches {
					size := "absent"
					if c.Exists {
						size = humanize.Bytes(c.SizeBytes)
					}
					_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", c.Name, size, c.Path)
				}
				_, _ = fmt.Fprintf(w, "reclaimable %s\n", humanize.Bytes(out.Reclaimable))
				return nil
			})
		},
	})

	system.AddCommand(&cobra.Command{
		Use:   "env",
		Short: "List environment variables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, *configPath, func(ctx context.Context, app *bootstrap.App) error {
				vars, err := app.SystemCLI.Env(ctx)
				if err != nil {
					return err
				}
				for _, v := range vars {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", v.Name, v.Value)
				}
				return nil
			})
		},
	})

	system.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "List PATH entries in order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, *configPath, func(ctx context.Context, app *bootstrap.App) error {
				entries, err := app.SystemCLI.Path(ctx)
				if err != nil {
					return err
				}
				for _, e := range entries {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), e)
				}
				return nil
			})
		},
	})

	system.AddCommand(&cobra.Command{
		Use:   "clear-cache <name>",
		Short: "Clear one package manager cache",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, *configPath, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.SystemCLI.ClearCache(ctx, args[0])
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), out.Message)
				return nil
			})
		},
	})

	system.AddCommand(&cobra.Command{
		Use:   "kill <pid>",
		Short: "Terminate a process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, *configPath, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.SystemCLI.Kill(ctx, args[0])
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), out.Message)
				return nil
			})
		},
	})
	return system
}

func newCacheCmd(configPath *string) *cobra.Command {
	cache := &cobra.Command{Use: "cache", Short: "Inspect devdeck's own result cache"}

	cache.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show freshness of every cached kind",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, *configPath, func(_ context.Context, app *bootstrap.App) error {
				for _, s := range app.Cache.Status() {
					fetched := "never"
					if s.LastFetchAt != nil {
						fetched = humanize.Time(*s.LastFetchAt)
					}
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\titems=%d\tfresh=%t\tfetched=%s\n", s.Kind, s.Count, s.Valid, fetched)
				}
				return nil
			})
		},
	})

	cache.AddCommand(&cobra.Command{
		Use:   "invalidate",
		Short: "Mark every cached kind stale",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, *configPath, func(ctx context.Context, app *bootstrap.App) error {
				if err := app.InvalidateAll(ctx); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "cache invalidated")
				return nil
			})
		},
	})
	return cache
}

func newBackendCmd(configPath *string) *cobra.Command {
	backend := &cobra.Command{Use: "backend", Short: "Talk to the privileged backend directly"}

	backend.AddCommand(&cobra.Command{
		Use:   "ping",
		Short: "Check that the backend answers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, *configPath, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.BackendCLI.Ping(ctx)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s home=%s\n", out.Name, out.Version, out.Home)
				return nil
			})
		},
	})

	backend.AddCommand(&cobra.Command{
		Use:   "invoke <operation> [json-args]",
		Short: "Run one backend operation and print its JSON result",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			argsJSON := ""
			if len(args) == 2 {
				argsJSON = args[1]
			}
			return withApp(cmd, *configPath, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.BackendCLI.Invoke(ctx, args[0], argsJSON)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			})
		},
	})
	return backend
}

func newMCPCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the tools surface over MCP on stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, *configPath, func(_ context.Context, app *bootstrap.App) error {
				return server.ServeStdio(app.MCPServer(version))
			})
		},
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
