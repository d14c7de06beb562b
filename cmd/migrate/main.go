// Command migrate manages the postgres paper store schema and seeds it.
//
//	migrate -up
//	migrate -steps -1
//	migrate -seed -sample
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/paper-discovery-service/internal/config"
	"github.com/helixir/paper-discovery-service/internal/database"
	"github.com/helixir/paper-discovery-service/internal/observability"
	"github.com/helixir/paper-discovery-service/internal/repository"
)

const connectTimeout = 30 * time.Second

type options struct {
	up      bool
	down    bool
	steps   int
	version bool
	force   int
	seed    bool
	sample  bool
	path    string
}

// action is one mutually exclusive CLI operation.
type action struct {
	flag     string
	selected bool
	run      func(ctx context.Context, env *env) error
}

type env struct {
	db       *database.DB
	migrator *database.Migrator
	logger   zerolog.Logger
}

func main() {
	var opts options
	flag.BoolVar(&opts.up, "up", false, "Apply all pending migrations")
	flag.BoolVar(&opts.down, "down", false, "Roll back every migration")
	flag.IntVar(&opts.steps, "steps", 0, "Apply N migrations, or roll back N when negative")
	flag.BoolVar(&opts.version, "version", false, "Print the schema version")
	flag.IntVar(&opts.force, "force", -1, "Mark the schema as version V without running anything")
	flag.BoolVar(&opts.seed, "seed", false, "Apply pending migrations, then create the default user")
	flag.BoolVar(&opts.sample, "sample", false, "With -seed, also load sample papers and a recent search")
	flag.StringVar(&opts.path, "path", "", "Read migrations from a directory instead of the embedded set")
	flag.Parse()

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
}

func actions(opts options) []action {
	return []action{
		{flag: "-up", selected: opts.up, run: func(_ context.Context, e *env) error {
			return e.migrator.Up()
		}},
		{flag: "-down", selected: opts.down, run: func(_ context.Context, e *env) error {
			return e.migrator.Down()
		}},
		{flag: "-steps N", selected: opts.steps != 0, run: func(_ context.Context, e *env) error {
			return e.migrator.Steps(opts.steps)
		}},
		{flag: "-version", selected: opts.version, run: func(context.Context, *env) error {
			return nil
		}},
		{flag: "-force V", selected: opts.force >= 0, run: func(_ context.Context, e *env) error {
			return e.migrator.Force(opts.force)
		}},
		{flag: "-seed", selected: opts.seed, run: func(ctx context.Context, e *env) error {
			return seed(ctx, e, opts.sample)
		}},
	}
}

// pick returns the single selected action.
func pick(all []action) (action, error) {
	var chosen []action
	names := make([]string, 0, len(all))
	for _, a := range all {
		names = append(names, a.flag)
		if a.selected {
			chosen = append(chosen, a)
		}
	}
	switch len(chosen) {
	case 0:
		return action{}, fmt.Errorf("no action given, use one of: %s", strings.Join(names, ", "))
	case 1:
		return chosen[0], nil
	default:
		return action{}, errors.New("only one action may be given")
	}
}

func run(opts options) error {
	act, err := pick(actions(opts))
	if err != nil {
		flag.Usage()
		return err
	}
	if opts.sample && !opts.seed {
		return errors.New("-sample requires -seed")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Store.Backend != config.StoreBackendPostgres {
		return fmt.Errorf("store backend is %q, migrations only apply to %q", cfg.Store.Backend, config.StoreBackendPostgres)
	}

	logger := observability.WithComponent(observability.NewLogger(observability.LoggingConfig{
		Level:      "info",
		Format:     "console",
		Output:     "stdout",
		TimeFormat: time.RFC3339,
	}), "migrate")

	path := cfg.Database.MigrationPath
	if opts.path != "" {
		path = opts.path
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	db, err := database.New(ctx, &cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer db.Close()

	migrator, err := database.NewMigrator(db, path, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := migrator.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close migrator")
		}
	}()

	e := &env{db: db, migrator: migrator, logger: logger}
	if err := act.run(ctx, e); err != nil {
		return fmt.Errorf("%s: %w", strings.Fields(act.flag)[0], err)
	}
	logVersion(e)
	return nil
}

func seed(ctx context.Context, e *env, sample bool) error {
	if err := e.migrator.Up(); err != nil {
		return err
	}
	res, err := repository.Seed(ctx, repository.NewPgStore(e.db), repository.SeedOptions{SampleData: sample})
	if err != nil {
		return err
	}
	e.logger.Info().
		Str("username", res.User.Username).
		Int("papers_created", res.PapersCreated).
		Int("searches_added", res.SearchesAdded).
		Msg("store seeded")
	return nil
}

func logVersion(e *env) {
	v, dirty, err := e.migrator.Version()
	if err != nil {
		e.logger.Warn().Err(err).Msg("could not read schema version")
		return
	}
	e.logger.Info().Uint("version", v).Bool("dirty", dirty).Msg("schema version")
}
