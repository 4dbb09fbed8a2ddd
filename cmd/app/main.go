package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/agentnote/internal"
	"github.com/starford/agentnote/internal/client"
	"github.com/starford/agentnote/internal/doccache"
	"github.com/starford/agentnote/internal/markdown"
	"github.com/starford/agentnote/internal/models"
	"github.com/starford/agentnote/internal/viewer"
	pkgconfig "github.com/starford/agentnote/pkg/config"
)

var version = "dev"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func appOptions(cmd *cli.Command) ([]internal.Option, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	}, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	opts, err := appOptions(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	opts, err := appOptions(cmd)
	if err != nil {
		return err
	}
	if err := internal.RunMCP(ctx, opts...); err != nil {
		return fmt.Errorf("mcp run error: %w", err)
	}
	return nil
}

func export(ctx context.Context, cmd *cli.Command) error {
	opts, err := appOptions(cmd)
	if err != nil {
		return err
	}
	n, err := internal.Export(ctx, docFilter(cmd), opts...)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	fmt.Printf("Exported %d documents\n", n)
	return nil
}

func docFilter(cmd *cli.Command) models.DocFilter {
	return models.DocFilter{
		Category: cmd.String("category"),
		Tag:      cmd.String("tag"),
		Keyword:  cmd.String("keyword"),
		Limit:    int(cmd.Int("limit")),
	}
}

// session is the viewer wired against a running server.
type session struct {
	api     *client.Client
	cache   *doccache.Cache
	display *viewer.TerminalDisplay
	ctrl    *viewer.Controller
}

func (s *session) Close() {
	s.cache.Close()
}

func newSession(cmd *cli.Command, opts ...viewer.Option) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	vc := cfg.Viewer
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.App.LogLevel}))

	api := client.New(vc.ServerURL,
		client.WithToken(vc.Token),
		client.WithRetry(vc.RetryAttempts, vc.RetryDelay),
	)
	cache := doccache.New(api,
		doccache.WithPreloadDelay(vc.PreloadDelay),
		doccache.WithPreloadWorkers(vc.PreloadWorkers),
		doccache.WithLogger(logger),
	)

	prefsPath := vc.PreferencesPath
	if prefsPath == "" {
		if prefsPath, err = viewer.DefaultPreferencesPath(); err != nil {
			return nil, err
		}
	}

	display := viewer.NewTerminalDisplay(os.Stdout)
	opts = append([]viewer.Option{
		viewer.WithRenderer(markdown.New(markdown.WithTOCTitle(vc.TOCTitle))),
		viewer.WithLogger(logger),
		viewer.WithListLimit(vc.ListLimit),
		viewer.WithPreloadVisible(vc.PreloadVisible),
	}, opts...)
	ctrl := viewer.NewController(api, cache, display, viewer.NewFilePreferences(prefsPath), opts...)
	ctrl.LoadTheme()

	return &session{api: api, cache: cache, display: display, ctrl: ctrl}, nil
}

func idArg(cmd *cli.Command) (int64, error) {
	id, err := strconv.ParseInt(cmd.Args().First(), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid document id %q", cmd.Args().First())
	}
	return id, nil
}

func listDocs(ctx context.Context, cmd *cli.Command) error {
	f := docFilter(cmd)
	s, err := newSession(cmd,
		viewer.WithPreloadVisible(0),
		viewer.WithFilter(viewer.Filter{Category: f.Category, Tag: f.Tag, Keyword: f.Keyword}),
		viewer.WithListLimit(f.Limit),
	)
	if err != nil {
		return err
	}
	defer s.Close()
	return s.ctrl.LoadData(ctx)
}

func viewDoc(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd)
	if err != nil {
		return err
	}
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()
	s.display.RawHTML = cmd.Bool("html")
	return s.ctrl.ViewDoc(ctx, id)
}

func deleteDoc(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd)
	if err != nil {
		return err
	}
	s, err := newSession(cmd, viewer.WithPreloadVisible(0))
	if err != nil {
		return err
	}
	defer s.Close()
	return s.ctrl.DeleteDoc(ctx, id)
}

func theme(_ context.Context, cmd *cli.Command) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	var t viewer.Theme
	if arg := cmd.Args().First(); arg != "" {
		parsed, ok := viewer.ParseTheme(arg)
		if !ok {
			return fmt.Errorf("unknown theme %q, want dark or light", arg)
		}
		t, err = s.ctrl.SetTheme(parsed)
	} else {
		t, err = s.ctrl.ToggleTheme()
	}
	if err != nil {
		return err
	}
	fmt.Printf("Theme: %s\n", t)
	return nil
}

func chat(ctx context.Context, cmd *cli.Command) error {
	msg := strings.Join(cmd.Args().Slice(), " ")
	if strings.TrimSpace(msg) == "" {
		return errors.New("message is required")
	}
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	reply, err := s.api.Chat(ctx, msg)
	if err != nil {
		return err
	}
	if !reply.Success {
		return errors.New(reply.Error)
	}
	fmt.Println(reply.Response)
	return nil
}

func filterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "category", Usage: "Only documents in this category"},
		&cli.StringFlag{Name: "tag", Usage: "Only documents with this tag"},
		&cli.StringFlag{Name: "keyword", Aliases: []string{"k"}, Usage: "Match title, content or summary"},
		&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "Maximum number of documents"},
	}
}

func main() {
	cmd := &cli.Command{
		Name:    "agentnote",
		Usage:   "Knowledge store for AI agents with a REST API, an MCP server and a terminal viewer",
		Version: version,
		Action:  serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the REST API server",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the MCP tools over stdio",
				Action: serveMCP,
			},
			{
				Name:   "export",
				Usage:  "Write stored documents as markdown files into the import directory",
				Flags:  filterFlags(),
				Action: export,
			},
			{
				Name:   "docs",
				Usage:  "List documents with their categories and tags",
				Flags:  filterFlags(),
				Action: listDocs,
			},
			{
				Name:      "view",
				Usage:     "Show a document",
				ArgsUsage: "<id>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "html", Usage: "Print the rendered HTML"},
				},
				Action: viewDoc,
			},
			{
				Name:      "delete",
				Usage:     "Delete a document",
				ArgsUsage: "<id>",
				Action:    deleteDoc,
			},
			{
				Name:      "theme",
				Usage:     "Set the viewer theme, or toggle it when no theme is given",
				ArgsUsage: "[dark|light]",
				Action:    theme,
			},
			{
				Name:      "chat",
				Usage:     "Send a chat command, e.g. /add title | content",
				ArgsUsage: "<message>",
				Action:    chat,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
