// Package probe invokes an external media-probing tool (ffprobe or any
// drop-in replacement) against raw bytes and normalizes its JSON report.
package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"

	"github.com/iconidentify/mediasweep/internal/config"
	"github.com/iconidentify/mediasweep/internal/domain"
)

// maxDiagnosticLen bounds how much of the tool's stderr is carried into
// a ProbeError.
const maxDiagnosticLen = 200

// Report is the parsed output of one probe invocation: an optional
// container-level format object and a sequence of per-stream objects.
// Values are kept as a generic document so flattening loses nothing the
// tool reported.
type Report struct {
	Format  map[string]any   `json:"format"`
	Streams []map[string]any `json:"streams"`
}

// HasStreams reports whether the tool found at least one media stream.
func (r *Report) HasStreams() bool {
	return len(r.Streams) > 0
}

// FFProbe runs the probing tool as a subprocess, feeding media bytes on
// its standard input.
type FFProbe struct {
	path    string
	timeout time.Duration
}

// New resolves the probe binary and returns an invoker. Returns
// domain.ErrProberUnavailable when the binary is not on PATH; callers
// treat that as fatal at startup.
func New(cfg config.ProbeConfig) (*FFProbe, error) {
	path, err := exec.LookPath(cfg.Binary)
	if err != nil {
		return nil, fmt.Errorf("%w: %q not in PATH", domain.ErrProberUnavailable, cfg.Binary)
	}
	return &FFProbe{path: path, timeout: cfg.Timeout}, nil
}

// Probe feeds data to the tool on stdin and parses its JSON report.
// Non-zero exit or malformed output yields *domain.ProbeError.
func (p *FFProbe) Probe(ctx context.Context, data []byte) (*Report, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.path,
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-show_format",
		"-",
	)
	cmd.Stdin = bytes.NewReader(data)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		diag := stderr.String()
		if diag == "" {
			diag = err.Error()
		}
		return nil, &domain.ProbeError{Output: truncate(diag, maxDiagnosticLen)}
	}

	return ParseReport(stdout.Bytes())
}

// ParseReport converts raw probe JSON into a Report. Exported so the
// parsing and flattening behavior is testable without a real binary.
func ParseReport(data []byte) (*Report, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	// Numbers stay as json.Number so flattened values render exactly as
	// the tool printed them.
	dec.UseNumber()

	var r Report
	if err := dec.Decode(&r); err != nil {
		return nil, &domain.ProbeError{Output: truncate("parse report: "+err.Error(), maxDiagnosticLen)}
	}
	return &r, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
