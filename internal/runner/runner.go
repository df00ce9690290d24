// Package runner executes validation passes over a bounded worker pool
// and drives the outer resume/rescan workflow.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"sync"
	"time"

	"github.com/iconidentify/mediasweep/internal/domain"
	"github.com/iconidentify/mediasweep/internal/journal"
)

// ResultStore is the persistence surface the runner and loop need. The
// CSV-backed implementation lives in the store package.
type ResultStore interface {
	Merge(rec domain.ValidationRecord)
	Get(url string) (domain.ValidationRecord, bool)
	Save() error
	Counts() (valid, invalid int)
	Len() int
	Pending(entries []domain.SourceEntry) []domain.SourceEntry
	InvalidEntries(entries []domain.SourceEntry) []domain.SourceEntry
}

// Validator validates a single URL under a scan mode. Implementations
// must be safe for concurrent use.
type Validator interface {
	Validate(ctx context.Context, entry domain.SourceEntry, mode domain.ScanMode) domain.ProbeOutcome
}

// EventRecorder receives one event per completed validation. The
// SQLite-backed implementation lives in the journal package.
type EventRecorder interface {
	Record(ctx context.Context, ev journal.Event) error
}

// Config holds executor configuration.
type Config struct {
	Workers   int
	BatchSize int
}

// Runner runs validation tasks across a fixed-width worker pool.
// Results are harvested in completion order by a single goroutine,
// which is the only place the ResultStore is mutated.
type Runner struct {
	workers   int
	batchSize int
	validator Validator
	store     ResultStore
	events    EventRecorder // nil disables journaling
	progress  *Progress
	logger    *slog.Logger
}

// NewRunner creates a runner over the given validator and store.
func NewRunner(
	cfg Config,
	validator Validator,
	resultStore ResultStore,
	events EventRecorder,
	progress *Progress,
	logger *slog.Logger,
) *Runner {
	if cfg.Workers <= 0 {
		cfg.Workers = 15
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}

	return &Runner{
		workers:   cfg.Workers,
		batchSize: cfg.BatchSize,
		validator: validator,
		store:     resultStore,
		events:    events,
		progress:  progress,
		logger:    logger,
	}
}

type taskResult struct {
	entry    domain.SourceEntry
	outcome  domain.ProbeOutcome
	duration time.Duration
}

// RunPass validates every entry under mode and merges results into the
// store as they complete. The full snapshot is flushed after every
// batchSize completions and unconditionally at the end of the pass.
//
// All entries are submitted up front; pool width alone bounds the
// concurrent network and subprocess load. The pool drains to completion
// even when ctx is cancelled mid-pass, bounded by per-task timeouts, so
// no harvested result is lost.
func (r *Runner) RunPass(ctx context.Context, entries []domain.SourceEntry, mode domain.ScanMode, runID string) error {
	total := len(entries)
	if total == 0 {
		return nil
	}

	r.progress.BeginPass(total, string(mode))
	logger := r.logger.With("run_id", runID, "mode", mode)
	logger.Info("starting scan pass", "urls", total, "workers", r.workers)

	jobs := make(chan domain.SourceEntry)
	results := make(chan taskResult)

	var wg sync.WaitGroup
	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for entry := range jobs {
				start := time.Now()
				outcome := r.validator.Validate(ctx, entry, mode)
				results <- taskResult{entry: entry, outcome: outcome, duration: time.Since(start)}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, entry := range entries {
			select {
			case jobs <- entry:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		r.harvest(ctx, runID, mode, res, completed, total, logger)

		if completed%r.batchSize == 0 {
			if err := r.store.Save(); err != nil {
				return fmt.Errorf("save snapshot: %w", err)
			}
			logger.Info("progress saved", "records", r.store.Len())
		}
	}

	if err := r.store.Save(); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	valid, invalid := r.store.Counts()
	logger.Info("scan pass finished",
		"completed", completed,
		"valid", valid,
		"invalid", invalid,
		"total", r.store.Len(),
	)

	return ctx.Err()
}

// harvest merges one result into the store. Runs only on the single
// consuming goroutine inside RunPass.
func (r *Runner) harvest(ctx context.Context, runID string, mode domain.ScanMode, res taskResult, completed, total int, logger *slog.Logger) {
	prev, replaced := r.store.Get(res.entry.ActualURL)
	r.store.Merge(domain.NewValidationRecord(res.entry, res.outcome))
	r.progress.Record(res.outcome.IsValid, replaced, prev.IsValid)

	file := path.Base(res.entry.ActualURL)
	progress := fmt.Sprintf("%d/%d", completed, total)
	if res.outcome.IsValid {
		logger.Info("url valid", "progress", progress, "file", file, "method", res.outcome.Method)
	} else {
		logger.Info("url invalid", "progress", progress, "file", file, "error", res.outcome.Error)
	}

	if r.events == nil {
		return
	}
	ev := journal.Event{
		RunID:    runID,
		URL:      res.entry.ActualURL,
		Mode:     string(mode),
		IsValid:  res.outcome.IsValid,
		Method:   string(res.outcome.Method),
		Error:    res.outcome.Error,
		Duration: res.duration,
	}
	if err := r.events.Record(ctx, ev); err != nil {
		logger.Warn("failed to record scan event", "error", err)
	}
}
