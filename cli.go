package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/wordbrain/game/board"
	"github.com/wricardo/wordbrain/game/catalog"
	"github.com/wricardo/wordbrain/game/progress"
	"github.com/wricardo/wordbrain/game/service"
	"github.com/wricardo/wordbrain/transport/websocket"
	"github.com/wricardo/wordbrain/validate"
)

// Save backends
const (
	backendFile   = "file"
	backendSQLite = "sqlite"
	backendMemory = "memory"
)

// appConfig is read from the environment.
type appConfig struct {
	DataDir       string `env:"WORDBRAIN_DATA_DIR" envDefault:"data"`
	SaveBackend   string `env:"WORDBRAIN_SAVE_BACKEND" envDefault:"file"`
	BoardsDir     string `env:"WORDBRAIN_BOARDS_DIR"`
	StartingHints int    `env:"WORDBRAIN_STARTING_HINTS" envDefault:"3"`
	DailyAward    int    `env:"WORDBRAIN_DAILY_AWARD" envDefault:"2"`
	NormalAward   int    `env:"WORDBRAIN_NORMAL_AWARD" envDefault:"1"`
	Strict        bool   `env:"WORDBRAIN_STRICT" envDefault:"false"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	NgrokAuthToken string `env:"NGROK_AUTHTOKEN"`
	NgrokDomain    string `env:"NGROK_DOMAIN"`
}

func loadConfig() (*appConfig, error) {
	var cfg appConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	switch cfg.SaveBackend {
	case backendFile, backendSQLite, backendMemory:
	default:
		return nil, fmt.Errorf("unknown save backend %q (use %s, %s or %s)", cfg.SaveBackend, backendFile, backendSQLite, backendMemory)
	}
	if cfg.StartingHints < 0 || cfg.DailyAward < 0 || cfg.NormalAward < 0 {
		return nil, fmt.Errorf("hint settings must not be negative")
	}
	return &cfg, nil
}

// setupLogging configures the global zerolog logger. Logs always go to
// stderr so stdout stays free for command output and MCP stdio.
func setupLogging(cfg *appConfig) {
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if cfg.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}

// app holds the wired services of one process.
type app struct {
	catalog *catalog.Manager
	store   *progress.Store
	service service.ProgressService
	closers []io.Closer
}

// newApp opens the save, loads the catalog and builds the progress service.
// A non-nil hub receives board setups and events.
func newApp(ctx context.Context, cfg *appConfig, hub *websocket.Hub) (*app, error) {
	a := &app{}

	var (
		cat *catalog.Manager
		err error
	)
	if cfg.BoardsDir != "" {
		cat, err = catalog.NewDirManager(cfg.BoardsDir)
	} else {
		cat, err = catalog.NewDefaultManager()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	a.catalog = cat

	persistence, err := a.openPersistence(cfg)
	if err != nil {
		return nil, err
	}

	a.store = progress.Open(ctx, persistence, cfg.StartingHints, log.Logger.With().Str("component", "progress").Logger())

	serviceLogger := log.Logger.With().Str("component", "service").Logger()
	opts := []service.Option{
		service.WithLogger(serviceLogger),
		service.WithStrict(cfg.Strict),
	}
	if hub != nil {
		opts = append(opts,
			service.WithRenderer(hub),
			service.WithNotifier(service.MultiNotifier{
				Notifiers: []service.Notifier{hub, service.LogNotifier{Logger: serviceLogger}},
				Logger:    serviceLogger,
			}),
		)
	}

	a.service = service.NewProgressService(
		service.Config{DailyAward: cfg.DailyAward, NormalAward: cfg.NormalAward},
		a.store,
		cat,
		opts...,
	)
	return a, nil
}

func (a *app) openPersistence(cfg *appConfig) (progress.Persistence, error) {
	switch cfg.SaveBackend {
	case backendSQLite:
		sp, err := progress.NewSQLitePersistence(filepath.Join(cfg.DataDir, progress.DefaultSaveDB), log.Logger.With().Str("component", "sqlite").Logger())
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite save: %w", err)
		}
		a.closers = append(a.closers, sp)
		return sp, nil
	case backendMemory:
		return progress.NewMemoryPersistence(), nil
	default:
		fp, err := progress.NewFilePersistence(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to create save file: %w", err)
		}
		return fp, nil
	}
}

// Close releases the save backend.
func (a *app) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// newRootCommand builds the command tree. Without a subcommand it serves.
func newRootCommand(cfg *appConfig) *cli.Command {
	return &cli.Command{
		Name:    "wordbrain",
		Usage:   AppName,
		Version: Version,
		Flags:   serverFlags(),
		Action:  runHTTPServer(cfg),
		Commands: []*cli.Command{
			{
				Name:    "serve",
				Aliases: []string{"server", "http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint",
				Flags:   serverFlags(),
				Action:  runHTTPServer(cfg),
			},
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp", "mcp-stdio"},
				Usage:   "Run MCP stdio server with internal HTTP server",
				Flags:   serverFlags(),
				Action:  runStdioMCP(cfg),
			},
			{
				Name:   "status",
				Usage:  "Show hints, the active board and saved progress",
				Action: withApp(cfg, statusAction),
			},
			{
				Name:   "categories",
				Usage:  "List categories and completed levels",
				Action: withApp(cfg, categoriesAction),
			},
			{
				Name:      "start",
				Usage:     "Start or resume a level",
				ArgsUsage: "CATEGORY INDEX",
				Action:    withApp(cfg, startAction),
			},
			{
				Name:   "daily",
				Usage:  "Start or resume today's daily puzzle",
				Action: withApp(cfg, dailyAction),
			},
			{
				Name:   "hint",
				Usage:  "Reveal the next hint letter",
				Action: withApp(cfg, hintAction),
			},
			{
				Name:      "add-hints",
				Usage:     "Add hint credits",
				ArgsUsage: "[AMOUNT]",
				Action:    withApp(cfg, addHintsAction),
			},
			{
				Name:      "found",
				Usage:     "Report a found word and run the completion flow",
				ArgsUsage: "WORD TILE...",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "all", Usage: "This was the last word of the board"},
				},
				Action: withApp(cfg, foundAction),
			},
			{
				Name:   "restart",
				Usage:  "Restart the active board",
				Action: withApp(cfg, restartAction),
			},
			{
				Name:  "reset",
				Usage: "Delete all saved progress",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Usage: "Confirm the reset"},
				},
				Action: withApp(cfg, resetAction),
			},
			{
				Name:      "validate",
				Usage:     "Validate a board catalog",
				ArgsUsage: "[DIR]",
				Action:    validateAction(cfg),
			},
		},
	}
}

// withApp opens the app for one play command and closes it afterwards.
func withApp(cfg *appConfig, fn func(ctx context.Context, cmd *cli.Command, a *app) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		a, err := newApp(ctx, cfg, nil)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(ctx, cmd, a)
	}
}

// output is where command results are written.
func output(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func printJSON(cmd *cli.Command, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(output(cmd), string(data))
	return err
}

// printResult prints result when there is one and returns err. Results of
// operations that could not be saved are still printed.
func printResult(cmd *cli.Command, result interface{}, isNil bool, err error) error {
	if !isNil {
		if perr := printJSON(cmd, result); perr != nil {
			return perr
		}
	}
	return err
}

func statusAction(ctx context.Context, cmd *cli.Command, a *app) error {
	status, err := a.service.Status(ctx)
	if err != nil {
		return err
	}
	return printJSON(cmd, status)
}

func categoriesAction(ctx context.Context, cmd *cli.Command, a *app) error {
	summaries, err := a.service.Categories(ctx)
	if err != nil {
		return err
	}
	w := output(cmd)
	for _, s := range summaries {
		mark := " "
		if s.AllCompleted {
			mark = "✓"
		}
		fmt.Fprintf(w, "%s %-16s %d/%d  %s\n", mark, s.Name, s.CompletedCount, s.LevelCount, s.Description)
	}
	return nil
}

func startAction(ctx context.Context, cmd *cli.Command, a *app) error {
	if cmd.Args().Len() != 2 {
		return fmt.Errorf("usage: start CATEGORY INDEX")
	}
	index, err := strconv.Atoi(cmd.Args().Get(1))
	if err != nil {
		return fmt.Errorf("index must be an integer: %w", err)
	}
	active, err := a.service.StartLevel(ctx, cmd.Args().Get(0), index)
	return printResult(cmd, active, active == nil, err)
}

func dailyAction(ctx context.Context, cmd *cli.Command, a *app) error {
	active, err := a.service.StartDailyPuzzle(ctx)
	return printResult(cmd, active, active == nil, err)
}

func hintAction(ctx context.Context, cmd *cli.Command, a *app) error {
	result, err := a.service.DisplayNextHint(ctx)
	return printResult(cmd, result, result == nil, err)
}

func addHintsAction(ctx context.Context, cmd *cli.Command, a *app) error {
	amount := 1
	if cmd.Args().Len() > 0 {
		n, err := strconv.Atoi(cmd.Args().Get(0))
		if err != nil {
			return fmt.Errorf("amount must be an integer: %w", err)
		}
		amount = n
	}
	hints, err := a.service.AddHint(ctx, amount)
	if err != nil && !service.IsPersistError(err) {
		return err
	}
	return printResult(cmd, map[string]int{"hints": hints}, false, err)
}

// foundAction reports a word and plays the rest of the completion flow, since
// a pending animation does not outlive the process.
func foundAction(ctx context.Context, cmd *cli.Command, a *app) error {
	if cmd.Args().Len() < 1 {
		return fmt.Errorf("usage: found WORD TILE...")
	}
	ev := board.WordFound{
		Word:          strings.ToUpper(cmd.Args().Get(0)),
		AllWordsFound: cmd.Bool("all"),
	}
	for _, arg := range cmd.Args().Slice()[1:] {
		t, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("tile must be an integer: %w", err)
		}
		ev.Tiles = append(ev.Tiles, t)
	}

	res, err := a.service.ReportWordFound(ctx, ev)
	if res == nil {
		return err
	}
	if err := printResult(cmd, res, false, err); err != nil || res.Ignored {
		return err
	}

	completion, err := a.service.FinishAnimation(ctx)
	if completion == nil {
		return err
	}
	if err := printResult(cmd, completion, false, err); err != nil {
		return err
	}

	transition, err := a.service.DismissCompletion(ctx)
	return printResult(cmd, transition, transition == nil, err)
}

func restartAction(ctx context.Context, cmd *cli.Command, a *app) error {
	active, err := a.service.RestartBoard(ctx)
	return printResult(cmd, active, active == nil, err)
}

func resetAction(ctx context.Context, cmd *cli.Command, a *app) error {
	if !cmd.Bool("yes") {
		return fmt.Errorf("refusing to reset progress without --yes")
	}
	if err := a.service.ResetProgress(ctx); err != nil {
		return err
	}
	fmt.Fprintln(output(cmd), "Progress reset")
	return nil
}

func validateAction(cfg *appConfig) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		dir := cmd.Args().Get(0)
		if dir == "" {
			dir = cfg.BoardsDir
		}

		var (
			m   *catalog.Manager
			err error
		)
		if dir != "" {
			m, err = catalog.NewDirManager(dir)
		} else {
			m, err = catalog.NewDefaultManager()
		}
		if err != nil {
			return err
		}

		results, err := validate.Catalog(m)
		if err != nil {
			return err
		}
		if !validate.Report(output(cmd), results) {
			return fmt.Errorf("some boards have errors")
		}
		return nil
	}
}
