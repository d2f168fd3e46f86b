package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	gatekeeper "github.com/fredneedsausername/gatekeeper"
	"github.com/fredneedsausername/gatekeeper/internal/api"
	"github.com/fredneedsausername/gatekeeper/internal/config"
	"github.com/fredneedsausername/gatekeeper/internal/database"
	"github.com/fredneedsausername/gatekeeper/internal/ingest"
)

// version and commit are injected at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	var overrides config.Overrides
	var showVersion bool
	flag.StringVar(&overrides.EnvFile, "env-file", "", "Path to .env file (default: .env)")
	flag.StringVar(&overrides.HTTPAddr, "listen", "", "HTTP listen address (overrides HTTP_ADDR)")
	flag.StringVar(&overrides.LogLevel, "log-level", "", "Log level: debug, info, warn, error (overrides LOG_LEVEL)")
	flag.StringVar(&overrides.DatabaseURL, "database-url", "", "PostgreSQL connection URL (overrides DATABASE_URL)")
	flag.StringVar(&overrides.AppEnv, "env", "", "Runtime mode: development, production, json (overrides APP_ENV)")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("%s (commit=%s)\n", version, commit)
		os.Exit(0)
	}

	startTime := time.Now()

	cfg, err := config.Load(overrides)
	if err != nil {
		early := zerolog.New(os.Stderr).With().Timestamp().Logger()
		early.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		early := zerolog.New(os.Stderr).With().Timestamp().Logger()
		early.Fatal().Err(err).Msg("invalid config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).With().Timestamp().Logger().Level(level)
	log.Info().
		Str("version", version).
		Str("commit", commit).
		Str("env", cfg.AppEnv).
		Str("log_level", level.String()).
		Msg("gatekeeper starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbLog := log.With().Str("component", "database").Logger()
	db, err := database.Connect(ctx, cfg.DatabaseURL, dbLog)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Auto-apply schema on fresh database (no-op if tables already exist)
	if err := db.InitSchema(ctx, gatekeeper.SchemaSQL); err != nil {
		log.Fatal().Err(err).Msg("schema initialization failed")
	}

	// Run idempotent schema migrations — fatal on failure since queries depend on these columns
	if err := db.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("schema migration failed (run ALTER TABLE manually or grant ALTER privileges)")
	}

	pipeline := ingest.NewPipeline(ingest.Options{
		DB:                   db,
		BatteryMaxMillivolts: cfg.BatteryMaxMillivolts,
		CloseOpenLogOnEnter:  cfg.CloseOpenLogOnEnter,
		AutoRegisterTags:     cfg.AutoRegisterTags,
		DeviceTimeout:        cfg.DeviceTimeout,
		Log:                  log,
	})

	srv := api.NewServer(api.ServerOptions{
		Config:    cfg,
		DB:        db,
		Pipeline:  pipeline,
		Stats:     pipeline,
		Version:   version,
		StartTime: startTime,
		Log:       log.With().Str("component", "http").Logger(),
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatal().Err(err).Msg("http server failed")
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown error")
		}
	}

	log.Info().Msg("gatekeeper stopped")
}
