package runner

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/iconidentify/mediasweep/internal/domain"
)

// State is one phase of the outer validation workflow.
type State int

const (
	StateComputePending State = iota
	StateChooseMode
	StateRunBatch
	StateReportResults
	StateOfferRescan
	StateDone
)

func (s State) String() string {
	switch s {
	case StateComputePending:
		return "compute_pending"
	case StateChooseMode:
		return "choose_mode"
	case StateRunBatch:
		return "run_batch"
	case StateReportResults:
		return "report_results"
	case StateOfferRescan:
		return "offer_rescan"
	case StateDone:
		return "done"
	}
	return "unknown"
}

// DecisionProvider supplies the operator's choices. The terminal
// implementation lives in the prompt package; tests supply canned
// decisions so the workflow runs headlessly.
type DecisionProvider interface {
	// ChooseMode picks a scan mode for a batch of pending URLs.
	// ok=false means the operator declined to continue.
	ChooseMode(pending int, def domain.ScanMode) (mode domain.ScanMode, ok bool)

	// ConfirmRescan asks whether currently-invalid records should be
	// requeued for another pass.
	ConfirmRescan(invalid int) bool
}

// Loop drives the iterative validation workflow: compute the pending
// set, choose a mode, run a pass, report, and offer rescans of invalid
// records until everything validates or the operator stops.
type Loop struct {
	runner    *Runner
	store     ResultStore
	source    []domain.SourceEntry
	decisions DecisionProvider
	logger    *slog.Logger

	iteration int
	queue     []domain.SourceEntry
	mode      domain.ScanMode
}

// NewLoop creates the workflow loop over a prepared runner and store.
func NewLoop(r *Runner, s ResultStore, source []domain.SourceEntry, decisions DecisionProvider, logger *slog.Logger) *Loop {
	return &Loop{
		runner:    r,
		store:     s,
		source:    source,
		decisions: decisions,
		logger:    logger,
	}
}

// Run executes the state machine until it reaches Done or fails. A
// URL-level failure never surfaces here; only persistence errors and
// cancellation abort the loop.
func (l *Loop) Run(ctx context.Context) error {
	state := StateComputePending
	for state != StateDone {
		if err := ctx.Err(); err != nil {
			return err
		}

		next, err := l.step(ctx, state)
		if err != nil {
			return err
		}
		state = next
	}

	valid, invalid := l.store.Counts()
	l.logger.Info("final results", "valid", valid, "invalid", invalid, "total", l.store.Len())
	return nil
}

func (l *Loop) step(ctx context.Context, state State) (State, error) {
	switch state {
	case StateComputePending:
		l.queue = l.store.Pending(l.source)
		l.logger.Info("computed pending set",
			"pending", len(l.queue),
			"processed", l.store.Len(),
			"candidates", len(l.source),
		)
		if len(l.queue) > 0 {
			return StateChooseMode, nil
		}
		if _, invalid := l.store.Counts(); invalid > 0 {
			return StateOfferRescan, nil
		}
		l.logger.Info("all urls validated")
		return StateDone, nil

	case StateOfferRescan:
		_, invalid := l.store.Counts()
		if invalid == 0 {
			l.logger.Info("all urls validated")
			return StateDone, nil
		}
		if !l.decisions.ConfirmRescan(invalid) {
			return StateDone, nil
		}
		// The only path by which an already-invalid URL re-enters the
		// pending set.
		l.queue = l.store.InvalidEntries(l.source)
		if len(l.queue) == 0 {
			return StateDone, nil
		}
		return StateChooseMode, nil

	case StateChooseMode:
		def := domain.ModeFast
		if l.iteration > 0 {
			def = domain.ModeFull
		}
		mode, ok := l.decisions.ChooseMode(len(l.queue), def)
		if !ok {
			return StateDone, nil
		}
		// An unrecognized mode is not rejected here: each task records
		// it as an invalid_scan_mode outcome, like any other per-URL
		// failure.
		l.mode = mode
		return StateRunBatch, nil

	case StateRunBatch:
		l.iteration++
		runID := uuid.NewString()
		l.logger.Info("running scan", "iteration", l.iteration, "urls", len(l.queue))
		if err := l.runner.RunPass(ctx, l.queue, l.mode, runID); err != nil {
			return StateDone, err
		}
		return StateReportResults, nil

	case StateReportResults:
		valid, invalid := l.store.Counts()
		l.logger.Info("pass results", "valid", valid, "invalid", invalid, "total", l.store.Len())
		if invalid == 0 {
			l.logger.Info("all urls validated")
			return StateDone, nil
		}
		return StateOfferRescan, nil
	}

	return StateDone, nil
}
