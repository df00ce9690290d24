package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/iconidentify/mediasweep/internal/api"
	"github.com/iconidentify/mediasweep/internal/config"
	"github.com/iconidentify/mediasweep/internal/fetch"
	"github.com/iconidentify/mediasweep/internal/journal"
	"github.com/iconidentify/mediasweep/internal/probe"
	"github.com/iconidentify/mediasweep/internal/prompt"
	"github.com/iconidentify/mediasweep/internal/runner"
	"github.com/iconidentify/mediasweep/internal/scan"
	"github.com/iconidentify/mediasweep/internal/session"
	"github.com/iconidentify/mediasweep/internal/store"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("mediasweep %s (built %s)\n", Version, BuildTime)
		os.Exit(0)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("starting mediasweep",
		"version", Version,
		"build_time", BuildTime,
	)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("interrupted, progress saved up to the last batch")
			os.Exit(0)
		}
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The probe binary being absent is fatal: nothing can be validated.
	prober, err := probe.New(cfg.Probe)
	if err != nil {
		return err
	}

	sess := loadSession(cfg.Session, logger)

	entries, err := store.LoadSource(cfg.Store.SourcePath)
	if err != nil {
		return err
	}
	logger.Info("loaded source list", "path", cfg.Store.SourcePath, "candidates", len(entries))

	resultStore := store.NewResultStore(cfg.Store.ResultsPath)
	if err := resultStore.Load(); err != nil {
		return err
	}
	if resultStore.Len() > 0 {
		valid, invalid := resultStore.Counts()
		logger.Info("resuming from existing results",
			"path", cfg.Store.ResultsPath,
			"records", resultStore.Len(),
			"valid", valid,
			"invalid", invalid,
		)
	}

	progress := runner.NewProgress()
	progress.SetStoreCounts(resultStore.Counts())

	var events runner.EventRecorder
	if cfg.Journal.Enabled {
		j, err := journal.Open(cfg.Journal.Path, logger)
		if err != nil {
			return err
		}
		defer j.Close()
		events = j
	}

	if cfg.Server.Enabled {
		srv := &http.Server{
			Addr:         cfg.Server.Address(),
			Handler:      api.NewRouter(progress),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		}
		go func() {
			logger.Info("status server listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("status server failed", "error", err)
			}
		}()
		defer srv.Shutdown(context.Background())
	}

	fetcher := fetch.NewClient(cfg.Fetch, sess, logger)
	validator := scan.NewValidator(fetcher, prober, cfg.Fetch, logger)

	r := runner.NewRunner(
		runner.Config{Workers: cfg.Worker.Count, BatchSize: cfg.Worker.BatchSize},
		validator,
		resultStore,
		events,
		progress,
		logger,
	)

	loop := runner.NewLoop(r, resultStore, entries, prompt.Terminal{}, logger)
	return loop.Run(ctx)
}

// loadSession builds the authenticated session from the externally
// produced cookie file. A missing or unreadable file degrades to an
// anonymous session; obtaining fresh cookies is the operator's job.
func loadSession(cfg config.SessionConfig, logger *slog.Logger) *session.Session {
	sess, err := session.Load(cfg.CookiesPath, cfg.UserAgent)
	if err != nil {
		logger.Warn("no usable cookie file, fetching unauthenticated",
			"path", cfg.CookiesPath,
			"error", err,
		)
		return session.Anonymous(cfg.UserAgent)
	}
	logger.Info("loaded session cookies", "path", cfg.CookiesPath, "cookies", sess.Len())
	return sess
}
