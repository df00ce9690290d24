// Package scan composes range fetching and probing into per-URL
// validation under a chosen scan mode.
package scan

import (
	"context"
	"errors"
	"log/slog"
	"path"
	"strings"

	"github.com/iconidentify/mediasweep/internal/config"
	"github.com/iconidentify/mediasweep/internal/domain"
	"github.com/iconidentify/mediasweep/internal/probe"
)

// Fetcher retrieves the leading bytes of a URL up to a ceiling.
type Fetcher interface {
	FetchRange(ctx context.Context, url string, limit int64) ([]byte, error)
}

// Prober turns raw media bytes into a parsed report. A subprocess-backed
// implementation lives in the probe package; tests supply fakes.
type Prober interface {
	Probe(ctx context.Context, data []byte) (*probe.Report, error)
}

// URL markers set by the upstream discovery pass for resources that are
// not yet real media. Matching URLs are rejected before any network I/O.
var sentinelMarkers = []string{"no_media_yet", "tiny_file"}

// Validator validates one URL per call. It holds no mutable state, so a
// single instance is safe across any number of concurrent tasks.
type Validator struct {
	fetcher Fetcher
	prober  Prober
	cfg     config.FetchConfig
	logger  *slog.Logger
}

// NewValidator creates a validator over the given fetch and probe
// capabilities.
func NewValidator(fetcher Fetcher, prober Prober, cfg config.FetchConfig, logger *slog.Logger) *Validator {
	return &Validator{
		fetcher: fetcher,
		prober:  prober,
		cfg:     cfg,
		logger:  logger,
	}
}

// Validate runs the scan policy for mode against a single entry and
// returns its outcome. Failures are captured in the outcome, never
// returned as errors: one URL's failure must not abort a batch.
func (v *Validator) Validate(ctx context.Context, entry domain.SourceEntry, mode domain.ScanMode) domain.ProbeOutcome {
	for _, marker := range sentinelMarkers {
		if strings.Contains(entry.ActualURL, marker) {
			return invalid(domain.ErrCodeSkipped)
		}
	}

	switch mode {
	case domain.ModeFast:
		return v.probeOnce(ctx, entry.ActualURL, true)

	case domain.ModeFull:
		return v.probeOnce(ctx, entry.ActualURL, false)

	case domain.ModeTwoPass:
		fast := v.probeOnce(ctx, entry.ActualURL, true)
		if fast.IsValid {
			return fast
		}
		// Escalate only when the fast pass specifically found no
		// streams: container metadata sometimes needs more leading
		// bytes. Hard failures (HTTP, probe crash) stay as-is; a deep
		// fetch cannot fix a 404.
		if fast.Error != domain.ErrCodeNoStreams {
			return fast
		}
		v.logger.Info("fast scan found no streams, escalating to full scan",
			"file", path.Base(entry.ActualURL),
		)
		return v.probeOnce(ctx, entry.ActualURL, false)
	}

	return invalid(domain.ErrCodeInvalidMode)
}

// probeOnce performs one fetch+probe round at either the partial or the
// deep ceiling and classifies the result.
func (v *Validator) probeOnce(ctx context.Context, url string, partial bool) domain.ProbeOutcome {
	limit := v.cfg.DeepBytes()
	method := domain.MethodFull
	if partial {
		limit = v.cfg.PartialBytes()
		method = domain.MethodPartial
	}

	data, err := v.fetcher.FetchRange(ctx, url, limit)
	if err != nil {
		return invalid(fetchCode(err))
	}

	report, err := v.prober.Probe(ctx, data)
	if err != nil {
		return invalid(probeCode(err))
	}

	if !report.HasStreams() {
		return invalid(domain.ErrCodeNoStreams)
	}

	return domain.ProbeOutcome{
		IsValid: true,
		Method:  method,
		Fields:  probe.Flatten(report),
	}
}

func invalid(code string) domain.ProbeOutcome {
	return domain.ProbeOutcome{IsValid: false, Error: code}
}

func fetchCode(err error) string {
	if errors.Is(err, domain.ErrEmptyBody) {
		return domain.ErrCodeEmptyBody
	}
	var httpErr *domain.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code()
	}
	return "http_error: " + err.Error()
}

func probeCode(err error) string {
	var probeErr *domain.ProbeError
	if errors.As(err, &probeErr) {
		return probeErr.Code()
	}
	return "ffprobe_error: " + err.Error()
}
