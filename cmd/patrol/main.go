// Package main wires together the patrol crawler binary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/JakeFAU/patrol-crawler/internal/clock/system"
	"github.com/JakeFAU/patrol-crawler/internal/config"
	collyfetcher "github.com/JakeFAU/patrol-crawler/internal/fetcher/colly"
	"github.com/JakeFAU/patrol-crawler/internal/identity"
	"github.com/JakeFAU/patrol-crawler/internal/logging"
	"github.com/JakeFAU/patrol-crawler/internal/policy/reference"
	"github.com/JakeFAU/patrol-crawler/internal/progress"
	"github.com/JakeFAU/patrol-crawler/internal/progress/sinks"
	"github.com/JakeFAU/patrol-crawler/internal/scheduler"
	"github.com/JakeFAU/patrol-crawler/internal/server"
	"github.com/JakeFAU/patrol-crawler/internal/storage/postgres"
)

const usage = `usage: patrol <command> [flags]

commands:
  run     start the scheduler loop
  load    bulk-load URLs into the frontier from a file
  initdb  create the database schema
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "run":
		err = runCmd(os.Args[2:])
	case "load":
		err = loadCmd(os.Args[2:])
	case "initdb":
		err = initdbCmd(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "patrol %s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

// setup loads config, builds the logger and opens the database pool. Shared
// by every subcommand.
func setup(ctx context.Context, cfgPath string) (config.Config, *zap.Logger, *pgxpool.Pool, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return config.Config{}, nil, nil, fmt.Errorf("init logger: %w", err)
	}
	zap.ReplaceGlobals(logger)

	pool, err := postgres.Connect(ctx, postgres.Config{
		DSN:             cfg.DB.DSN,
		MaxConns:        int32(cfg.DB.MaxConns),
		MinConns:        int32(cfg.DB.MinConns),
		MaxConnLifetime: cfg.MaxConnLifetime(),
	})
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	return cfg, logger, pool, nil
}

func runCmd(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	cfgPath := fs.String("config", "", "path to config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, logger, pool, err := setup(ctx, *cfgPath)
	if err != nil {
		return err
	}
	defer pool.Close()
	defer func() { _ = logger.Sync() }()

	acquired, err := postgres.AcquireSchedulerLock(ctx, pool)
	if err != nil {
		return err
	}
	if !acquired {
		return errors.New("another patrol scheduler already holds the database lock")
	}

	frontier, err := postgres.NewFrontierStore(pool)
	if err != nil {
		return err
	}
	sessionStore, err := postgres.NewSessionStore(pool)
	if err != nil {
		return err
	}

	promSink, err := sinks.NewPrometheusSink(nil)
	if err != nil {
		return err
	}
	hubSinks := []progress.Sink{promSink}
	if cfg.Logging.Development {
		hubSinks = append(hubSinks, sinks.NewLogSink(logger))
	}
	hub := progress.NewHub(progress.Config{Logger: logger}, hubSinks...)
	defer func() {
		if err := hub.Close(context.Background()); err != nil {
			logger.Warn("progress hub close failed", zap.Error(err))
		}
	}()

	window, err := cfg.Window()
	if err != nil {
		return err
	}
	sched := scheduler.New(
		frontier,
		sessionStore,
		collyfetcher.New(collyfetcher.Config{Timeout: cfg.FetchTimeout()}),
		identity.NewRotator(cfg.Identity.Proxies, cfg.Identity.UserAgents),
		reference.New(logger),
		system.New(),
		hub,
		scheduler.Config{
			Window:       window,
			SkipDelay:    cfg.SkipDelay(),
			FetchTimeout: cfg.FetchTimeout(),
		},
		logger,
	)

	ops := server.New(cfg.Server.Port, logger)
	go func() {
		if err := ops.Run(ctx); err != nil {
			logger.Error("ops server failed", zap.Error(err))
		}
	}()

	if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("run scheduler: %w", err)
	}
	return nil
}

func loadCmd(args []string) error {
	fs := flag.NewFlagSet("load", flag.ExitOnError)
	cfgPath := fs.String("config", "", "path to config file")
	file := fs.String("file", "", "file with one URL per line")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return errors.New("-file is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_, logger, pool, err := setup(ctx, *cfgPath)
	if err != nil {
		return err
	}
	defer pool.Close()

	frontier, err := postgres.NewFrontierStore(pool)
	if err != nil {
		return err
	}
	n, err := frontier.LoadFromFile(ctx, *file)
	if err != nil {
		return err
	}
	logger.Info("urls loaded", zap.Int("count", n), zap.String("file", *file))
	return nil
}

func initdbCmd(args []string) error {
	fs := flag.NewFlagSet("initdb", flag.ExitOnError)
	cfgPath := fs.String("config", "", "path to config file")
	drop := fs.Bool("drop", false, "drop existing tables first")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_, logger, pool, err := setup(ctx, *cfgPath)
	if err != nil {
		return err
	}
	defer pool.Close()

	if *drop {
		if err := postgres.DropSchema(ctx, pool); err != nil {
			return err
		}
		logger.Info("schema dropped")
	}
	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		return err
	}
	logger.Info("schema ensured")
	return nil
}
