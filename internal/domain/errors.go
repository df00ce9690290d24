package domain

import (
	"errors"
	"fmt"
	"strconv"
)

// Domain errors.
var (
	// ErrEmptyBody is returned when a fetch succeeds at the HTTP level
	// but carries a zero-length payload. Some upstream failure modes
	// answer 200 with no body, so this is never treated as a success.
	ErrEmptyBody = errors.New("empty response body")

	// ErrNoMediaStreams is returned when the probe output parsed
	// cleanly but contained no stream entries. Soft failure: eligible
	// for escalation under two-pass scanning.
	ErrNoMediaStreams = errors.New("no media streams")

	// ErrInvalidScanMode is returned for an unrecognized scan mode.
	ErrInvalidScanMode = errors.New("invalid scan mode")

	// ErrSkippedSentinel is returned when a URL matches an exclusion
	// marker and is rejected before any network I/O.
	ErrSkippedSentinel = errors.New("skipped unsolved or tiny file")

	// ErrSourceNotFound is returned when the input store is missing at
	// startup. Fatal: there is nothing to validate.
	ErrSourceNotFound = errors.New("source list not found")

	// ErrProberUnavailable is returned when the external probing tool
	// cannot be found at startup. Fatal.
	ErrProberUnavailable = errors.New("probe binary not available")
)

// Error codes recorded in the error field of an invalid ValidationRecord.
const (
	ErrCodeEmptyBody   = "empty_response_body"
	ErrCodeNoStreams   = "no_media_streams"
	ErrCodeInvalidMode = "invalid_scan_mode"
	ErrCodeSkipped     = "skipped_unsolved_or_tiny"
)

// HTTPError is a failed range fetch: a non-success status, a connection
// failure, or a timeout. Cause is truncated to a bounded length before
// it reaches logs or the result store.
type HTTPError struct {
	Status int
	Cause  string
}

func (e *HTTPError) Error() string {
	if e.Status > 0 {
		return "http status " + strconv.Itoa(e.Status)
	}
	return "http error: " + e.Cause
}

// Code returns the classification string persisted for this failure.
func (e *HTTPError) Code() string {
	if e.Status > 0 {
		return fmt.Sprintf("http_error: status %d", e.Status)
	}
	return "http_error: " + e.Cause
}

// ProbeError is a failed probe invocation: non-zero subprocess exit or
// unparseable output. Output carries the leading portion of the tool's
// diagnostic text.
type ProbeError struct {
	Output string
}

func (e *ProbeError) Error() string {
	return "probe failed: " + e.Output
}

// Code returns the classification string persisted for this failure.
func (e *ProbeError) Code() string {
	return "ffprobe_error: " + e.Output
}
