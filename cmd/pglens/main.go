package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/rebeliceyang/pglens/internal/app"
	"github.com/rebeliceyang/pglens/internal/config"
	"github.com/rebeliceyang/pglens/internal/db/connection"
	"github.com/rebeliceyang/pglens/internal/db/worker"
	"github.com/rebeliceyang/pglens/internal/export"
	"github.com/rebeliceyang/pglens/internal/history"
	"github.com/rebeliceyang/pglens/internal/logging"
	"github.com/rebeliceyang/pglens/internal/models"
	"github.com/rebeliceyang/pglens/internal/ui/theme"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

const usage = `Usage: pglens [flags] [DATABASE_URL] [SCHEMA]

Browse tables and run SQL against a PostgreSQL database.

The database is taken from the first argument, then connection.database_url
in the config file (or PGLENS_CONNECTION_DATABASE_URL), then the libpq
environment (PGHOST, PGPORT, PGDATABASE, PGUSER, PGPASSWORD, PGSSLMODE).
As a last resort it probes localhost ports 5432-5435 for a running server.

Flags:
`

var errNoDatabase = errors.New("no database given and no local server found: pass a URL, set connection.database_url, or set PGHOST/PGDATABASE")

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "pglens: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := pflag.NewFlagSet("pglens", pflag.ContinueOnError)
	config.DefineFlags(fs)
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if fs.NArg() > 2 {
		fs.Usage()
		return fmt.Errorf("too many arguments")
	}

	configFile, _ := fs.GetString("config")
	loader := config.NewLoader(configFile)
	if err := loader.BindFlags(fs); err != nil {
		return err
	}
	cfg, err := loader.Load()
	if err != nil {
		return err
	}
	if fs.NArg() > 0 {
		cfg.Connection.DatabaseURL = fs.Arg(0)
	}
	if fs.NArg() > 1 {
		cfg.Connection.Schema = fs.Arg(1)
	}

	logger, closer, err := logging.Setup(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pglens: logging disabled: %v\n", err)
	} else {
		defer closer.Close()
	}
	logger = logger.With().Str("session", uuid.NewString()).Logger()
	logger.Info().Str("config", loader.ConfigFileUsed()).Msg("starting")

	dbURL := cfg.Connection.DatabaseURL
	if dbURL == "" {
		dbURL = connection.EnvironmentURL()
	}
	if dbURL == "" {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		dbURL = connection.DiscoverLocalURL(ctx)
		cancel()
		if dbURL != "" {
			logger.Info().Str("url", dbURL).Msg("using local server")
		}
	}
	if dbURL == "" {
		return errNoDatabase
	}
	dbURL = resolvePassword(dbURL, cfg.Connection.RememberPassword, logger)

	target := models.NewConnectionTarget(dbURL, cfg.Connection.Schema, cfg.Connection.PageSize)
	state := models.NewSessionState(target)
	state.ThemeName = theme.GetTheme(cfg.UI.Theme).Name
	state.CompletionEnabled = cfg.Editor.AutoComplete

	workerOpts := []worker.Option{
		worker.WithConnectTimeout(time.Duration(cfg.Connection.ConnectTimeoutMS) * time.Millisecond),
		worker.WithLogger(logger.With().Str("component", "worker").Logger()),
	}
	if cfg.History.Enabled {
		store, err := history.NewStore(cfg.History.Path, cfg.History.MaxEntries)
		if err != nil {
			logger.Warn().Err(err).Msg("query history disabled")
		} else {
			defer store.Close()
			workerOpts = append(workerOpts, worker.WithHistory(store))
		}
	}
	if wd, err := os.Getwd(); err == nil {
		workerOpts = append(workerOpts, worker.WithExporter(export.NewExporter(wd)))
	}

	cmds := make(chan worker.Command, cfg.Worker.CommandQueueSize)
	events := make(chan worker.Event, cfg.Worker.EventQueueSize)
	w := worker.New(worker.PgConnector(cfg.Connection.MaxConns), cmds, events, workerOpts...)

	model := app.New(state, cmds, events,
		app.WithTickRate(time.Duration(cfg.UI.TickRateMS)*time.Millisecond),
		app.WithLogger(logger.With().Str("component", "ui").Logger()),
	)
	program := tea.NewProgram(model, tea.WithAltScreen())

	loader.Watch(
		func(c *config.Config) { program.Send(app.SetTheme{Name: c.UI.Theme}) },
		func(err error) { logger.Warn().Err(err).Msg("ignoring invalid config change") },
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		// the worker may be blocked on a full event queue nobody reads anymore
		defer cancel()
		defer close(cmds)
		final, err := program.Run()
		if err != nil {
			return fmt.Errorf("error running program: %w", err)
		}
		if a, ok := final.(*app.App); ok {
			return a.Err()
		}
		return nil
	})

	err = g.Wait()
	logger.Info().Err(err).Msg("exiting")
	return err
}

// resolvePassword fills in a stored password, or stores the given one when
// remember is set. Keyring problems never stop the session.
func resolvePassword(dbURL string, remember bool, logger zerolog.Logger) string {
	dir, err := config.GetConfigPath()
	if err != nil {
		return dbURL
	}
	store, err := connection.NewPasswordStore(dir)
	if err != nil {
		logger.Warn().Err(err).Msg("keyring unavailable")
		return dbURL
	}
	resolved, err := store.ResolvePassword(dbURL, remember)
	if err != nil {
		logger.Warn().Err(err).Msg("password lookup failed")
	}
	if resolved == "" {
		return dbURL
	}
	return resolved
}
