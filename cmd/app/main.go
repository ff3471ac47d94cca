package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/wikisync/internal"
	"github.com/starford/wikisync/internal/mediawiki"
	"github.com/starford/wikisync/internal/pathcodec"
	"github.com/starford/wikisync/internal/scanner"
	"github.com/starford/wikisync/internal/syncer"
	pkgconfig "github.com/starford/wikisync/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	path := cmd.String("config")
	if _, err := os.Stat(path); err == nil {
		if err := pkgconfig.Load(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if cmd.IsSet("config") {
		return nil, fmt.Errorf("config file not found: %s", path)
	}
	if root := cmd.String("root"); root != "" {
		cfg.Project.Root = root
	}
	return cfg, nil
}

// withApp loads the config, wires the application and runs fn against it.
func withApp(cmd *cli.Command, fn func(*internal.App) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	a, err := internal.NewApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseNamespaces(names []string) ([]pathcodec.Namespace, error) {
	var out []pathcodec.Namespace
	for _, name := range names {
		ns, ok := pathcodec.ByName(name)
		if !ok {
			return nil, fmt.Errorf("unknown namespace %q", name)
		}
		out = append(out, ns)
	}
	return out, nil
}

func pullCommand() *cli.Command {
	return &cli.Command{
		Name:  "pull",
		Usage: "Fetch remote pages and write them into the local tree",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "namespace", Aliases: []string{"n"}, Usage: "Namespace to pull (Main, Template, Module, ...); repeatable"},
			&cli.StringFlag{Name: "category", Usage: "Pull the members of one category instead of namespaces"},
			&cli.BoolFlag{Name: "incremental", Usage: "Only pull titles changed since the last pull"},
			&cli.BoolFlag{Name: "force", Usage: "Overwrite local files that carry unsynced edits"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withApp(cmd, func(a *internal.App) error {
				namespaces, err := parseNamespaces(cmd.StringSlice("namespace"))
				if err != nil {
					return err
				}
				remote, err := a.Remote()
				if err != nil {
					return err
				}
				report, err := a.Engine.Pull(ctx, remote, syncer.PullOptions{
					Namespaces:  namespaces,
					Category:    cmd.String("category"),
					Incremental: cmd.Bool("incremental"),
					Force:       cmd.Bool("force"),
				})
				if err != nil {
					return err
				}
				if err := printJSON(report); err != nil {
					return err
				}
				if !report.Success() {
					return cli.Exit("pull finished with conflicts or errors", 1)
				}
				return nil
			})
		},
	}
}

func pushCommand() *cli.Command {
	return &cli.Command{
		Name:  "push",
		Usage: "Send local changes to the remote wiki",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "summary", Value: "wikisync push", Usage: "Edit summary for pushed edits"},
			&cli.BoolFlag{Name: "dry-run", Usage: "Report intended actions without touching the network"},
			&cli.BoolFlag{Name: "force", Usage: "Push over remote-side changes instead of reporting conflicts"},
			&cli.BoolFlag{Name: "delete", Usage: "Also delete remote pages removed locally"},
			&cli.StringFlag{Name: "delete-reason", Value: "removed locally", Usage: "Reason sent with remote deletions"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withApp(cmd, func(a *internal.App) error {
				opts := syncer.PushOptions{
					Summary:      cmd.String("summary"),
					Force:        cmd.Bool("force"),
					DryRun:       cmd.Bool("dry-run"),
					AllowDelete:  cmd.Bool("delete"),
					DeleteReason: cmd.String("delete-reason"),
				}
				var remote mediawiki.Writer
				if !opts.DryRun {
					client, err := a.Remote()
					if err != nil {
						return err
					}
					remote = client
				}
				report, err := a.Engine.Push(ctx, remote, opts)
				if err != nil {
					return err
				}
				if err := printJSON(report); err != nil {
					return err
				}
				if !report.Success() {
					return cli.Exit("push finished with conflicts or errors", 1)
				}
				return nil
			})
		},
	}
}

func diffCommand() *cli.Command {
	return &cli.Command{
		Name:  "diff",
		Usage: "Show local titles that differ from the last-synced state",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withApp(cmd, func(a *internal.App) error {
				entries, err := a.Engine.Diff()
				if err != nil {
					return err
				}
				return printJSON(map[string]any{"entries": entries})
			})
		},
	}
}

func rebuildCommand() *cli.Command {
	return &cli.Command{
		Name:  "rebuild",
		Usage: "Rescan the tree and rebuild the content index",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withApp(cmd, func(a *internal.App) error {
				files, err := scanner.Scan(a.Layout, a.Codec)
				if err != nil {
					return err
				}
				report, err := a.Index.Rebuild(files, a.Layout.Read)
				if err != nil {
					return err
				}
				return printJSON(report)
			})
		},
	}
}

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Report orphans, empty categories, broken links, double redirects and uncategorized pages",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withApp(cmd, func(a *internal.App) error {
				orphans, err := a.Index.Orphans()
				if err != nil {
					return err
				}
				emptyCats, err := a.Index.EmptyCategories()
				if err != nil {
					return err
				}
				broken, err := a.Index.BrokenLinks()
				if err != nil {
					return err
				}
				doubles, err := a.Index.DoubleRedirects()
				if err != nil {
					return err
				}
				uncategorized, err := a.Index.Uncategorized()
				if err != nil {
					return err
				}
				return printJSON(map[string]any{
					"orphans":          orphans,
					"empty_categories": emptyCats,
					"broken_links":     broken,
					"double_redirects": doubles,
					"uncategorized":    uncategorized,
				})
			})
		},
	}
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Full-text search through the indexed pages",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Value: 20, Usage: "Maximum number of results"},
			&cli.BoolFlag{Name: "remote", Usage: "Search the remote wiki instead of the local index"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			query := cmd.Args().First()
			if query == "" {
				return fmt.Errorf("search query is required")
			}
			return withApp(cmd, func(a *internal.App) error {
				limit := int(cmd.Int("limit"))
				if cmd.Bool("remote") {
					remote, err := a.Remote()
					if err != nil {
						return err
					}
					hits, err := remote.Search(ctx, query, limit)
					if err != nil {
						return err
					}
					return printJSON(map[string]any{"results": hits})
				}
				results, err := a.Index.Search(query, limit)
				if err != nil {
					return err
				}
				return printJSON(map[string]any{"results": results})
			})
		},
	}
}

func backlinksCommand() *cli.Command {
	return &cli.Command{
		Name:      "backlinks",
		Usage:     "List pages linking to a title",
		ArgsUsage: "<title>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			title := cmd.Args().First()
			if title == "" {
				return fmt.Errorf("title is required")
			}
			return withApp(cmd, func(a *internal.App) error {
				links, err := a.Index.Backlinks(title)
				if err != nil {
					return err
				}
				return printJSON(map[string]any{"title": title, "backlinks": links})
			})
		},
	}
}

func contextCommand() *cli.Command {
	return &cli.Command{
		Name:      "context",
		Usage:     "Show a structured summary of one page",
		ArgsUsage: "<title>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			title := cmd.Args().First()
			if title == "" {
				return fmt.Errorf("title is required")
			}
			return withApp(cmd, func(a *internal.App) error {
				page, err := a.Index.GetPage(title)
				if err != nil {
					return err
				}
				content, err := a.Layout.Read(page.Path)
				if err != nil {
					return err
				}
				pctx, err := a.Index.Context(title, content)
				if err != nil {
					return err
				}
				return printJSON(pctx)
			})
		},
	}
}

func categoriesCommand() *cli.Command {
	return &cli.Command{
		Name:  "categories",
		Usage: "Manage template category overrides for the path layout",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List stored template category overrides",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withApp(cmd, func(a *internal.App) error {
						overrides, err := a.Index.TemplateCategories()
						if err != nil {
							return err
						}
						return printJSON(map[string]any{"overrides": overrides})
					})
				},
			},
			{
				Name:      "set",
				Usage:     "Map a template title prefix to a folder category",
				ArgsUsage: "<prefix> <category>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					prefix, category := cmd.Args().Get(0), cmd.Args().Get(1)
					if prefix == "" || category == "" {
						return fmt.Errorf("both prefix and category are required")
					}
					return withApp(cmd, func(a *internal.App) error {
						return a.Index.SetTemplateCategory(prefix, category)
					})
				},
			},
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the read-only HTTP API with a file watcher",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return internal.Run(ctx, internal.WithConfig(cfg))
		},
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Run the MCP server on stdin/stdout",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return internal.RunMCP(internal.WithConfig(cfg))
		},
	}
}

func main() {
	cmd := &cli.Command{
		Name:  "wikisync",
		Usage: "Mirror a wiki into a local file tree with a link index and two-way sync",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "root",
				Usage:   "Project root directory (overrides config)",
				Sources: cli.EnvVars("WIKISYNC_ROOT"),
			},
		},
		Commands: []*cli.Command{
			pullCommand(),
			pushCommand(),
			diffCommand(),
			rebuildCommand(),
			checkCommand(),
			searchCommand(),
			backlinksCommand(),
			contextCommand(),
			categoriesCommand(),
			serveCommand(),
			mcpCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
