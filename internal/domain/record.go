package domain

// ScanMode selects how much of a resource is fetched before probing.
type ScanMode string

const (
	// ModeFast probes a small leading byte range of each URL.
	ModeFast ScanMode = "fast"
	// ModeFull probes a large leading byte range of each URL.
	ModeFull ScanMode = "full"
	// ModeTwoPass runs a fast probe first and escalates to a full
	// probe only when the fast pass finds no media streams.
	ModeTwoPass ScanMode = "two-pass"
)

// Valid reports whether the mode is one of the recognized scan modes.
func (m ScanMode) Valid() bool {
	switch m {
	case ModeFast, ModeFull, ModeTwoPass:
		return true
	}
	return false
}

// ValidationMethod records how deep the probe that produced a result went.
type ValidationMethod string

const (
	MethodPartial ValidationMethod = "partial"
	MethodFull    ValidationMethod = "full"
)

// Sentinel media types assigned by the upstream discovery pass. Entries
// carrying one of these never represent probeable media and are filtered
// out before queueing.
const (
	MediaTypeNoMediaYet    = "no_media_yet"
	MediaTypePDFOrNotFound = "pdf_or_not_found"
	MediaTypeTinyFile      = "tiny_file"
)

// SourceEntry is one candidate URL produced by the upstream discovery
// pass. ActualURL is the unique key across the whole run.
type SourceEntry struct {
	OriginalURL string
	ActualURL   string
	MediaType   string
}

// Excluded reports whether the entry carries a sentinel media type and
// must be dropped before queueing.
func (e SourceEntry) Excluded() bool {
	switch e.MediaType {
	case MediaTypeNoMediaYet, MediaTypePDFOrNotFound, MediaTypeTinyFile:
		return true
	}
	return false
}

// ProbeOutcome is the result of validating a single URL.
//
// IsValid=true implies Error is empty and Fields contains at least one
// stream_0_* key; IsValid=false implies Error carries a classification
// code.
type ProbeOutcome struct {
	IsValid bool
	Method  ValidationMethod
	Error   string
	// Fields is the flattened probe metadata: format_* keys for the
	// container, stream_<i>_<codec_type>_* keys per stream, plus the
	// file_size_bytes convenience key.
	Fields map[string]string
}

// ValidationRecord is the persisted unit: a SourceEntry joined with the
// outcome of its most recent validation. At most one record exists per
// ActualURL; a later validation overwrites the earlier one.
type ValidationRecord struct {
	OriginalURL string
	ActualURL   string
	MediaType   string
	IsValid     bool
	Method      ValidationMethod
	Error       string
	Fields      map[string]string
}

// NewValidationRecord joins a source entry with its probe outcome.
func NewValidationRecord(entry SourceEntry, outcome ProbeOutcome) ValidationRecord {
	return ValidationRecord{
		OriginalURL: entry.OriginalURL,
		ActualURL:   entry.ActualURL,
		MediaType:   entry.MediaType,
		IsValid:     outcome.IsValid,
		Method:      outcome.Method,
		Error:       outcome.Error,
		Fields:      outcome.Fields,
	}
}
