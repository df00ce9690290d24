package scan

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/iconidentify/mediasweep/internal/config"
	"github.com/iconidentify/mediasweep/internal/domain"
	"github.com/iconidentify/mediasweep/internal/probe"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testFetchConfig() config.FetchConfig {
	return config.FetchConfig{PartialMB: 5, DeepMB: 100}
}

// fakeFetcher returns canned bytes or errors, keyed by the fetch limit
// so tests can distinguish partial from deep fetches.
type fakeFetcher struct {
	calls   []int64
	errs    map[int64]error
	payload []byte
}

func (f *fakeFetcher) FetchRange(_ context.Context, _ string, limit int64) ([]byte, error) {
	f.calls = append(f.calls, limit)
	if err, ok := f.errs[limit]; ok && err != nil {
		return nil, err
	}
	if f.payload != nil {
		return f.payload, nil
	}
	return []byte("mediabytes"), nil
}

// fakeProber returns one report (or error) per call, in order.
type fakeProber struct {
	calls   int
	reports []*probe.Report
	errs    []error
}

func (p *fakeProber) Probe(_ context.Context, _ []byte) (*probe.Report, error) {
	i := p.calls
	p.calls++
	if i < len(p.errs) && p.errs[i] != nil {
		return nil, p.errs[i]
	}
	if i < len(p.reports) {
		return p.reports[i], nil
	}
	return &probe.Report{}, nil
}

func streamReport(n int) *probe.Report {
	r := &probe.Report{
		Format: map[string]any{"size": "1000"},
	}
	for i := 0; i < n; i++ {
		r.Streams = append(r.Streams, map[string]any{"codec_type": "video", "codec_name": "h264"})
	}
	return r
}

func newTestValidator(f *fakeFetcher, p *fakeProber) *Validator {
	return NewValidator(f, p, testFetchConfig(), testLogger())
}

func entry(url string) domain.SourceEntry {
	return domain.SourceEntry{OriginalURL: url, ActualURL: url, MediaType: "video"}
}

func TestValidateSentinelURLSkippedBeforeIO(t *testing.T) {
	for _, marker := range []string{"no_media_yet", "tiny_file"} {
		fetcher := &fakeFetcher{}
		prober := &fakeProber{}
		v := newTestValidator(fetcher, prober)

		outcome := v.Validate(context.Background(), entry("https://host/files/"+marker+"_123.mp4"), domain.ModeFast)

		if outcome.IsValid {
			t.Errorf("%s: expected invalid outcome", marker)
		}
		if outcome.Error != domain.ErrCodeSkipped {
			t.Errorf("%s: error = %q, want %q", marker, outcome.Error, domain.ErrCodeSkipped)
		}
		if len(fetcher.calls) != 0 || prober.calls != 0 {
			t.Errorf("%s: sentinel URL reached the network or the prober", marker)
		}
	}
}

func TestValidateFastMode(t *testing.T) {
	fetcher := &fakeFetcher{}
	prober := &fakeProber{reports: []*probe.Report{streamReport(1)}}
	v := newTestValidator(fetcher, prober)

	outcome := v.Validate(context.Background(), entry("https://host/a.mp4"), domain.ModeFast)

	if !outcome.IsValid {
		t.Fatalf("expected valid, got error %q", outcome.Error)
	}
	if outcome.Method != domain.MethodPartial {
		t.Errorf("method = %q, want partial", outcome.Method)
	}
	if len(fetcher.calls) != 1 || fetcher.calls[0] != testFetchConfig().PartialBytes() {
		t.Errorf("fetch calls = %v, want one partial fetch", fetcher.calls)
	}
	if outcome.Fields["file_size_bytes"] != "1000" {
		t.Errorf("file_size_bytes = %q", outcome.Fields["file_size_bytes"])
	}
}

func TestValidateFastModeTerminalOnNoStreams(t *testing.T) {
	fetcher := &fakeFetcher{}
	prober := &fakeProber{reports: []*probe.Report{{}}}
	v := newTestValidator(fetcher, prober)

	outcome := v.Validate(context.Background(), entry("https://host/a.mp4"), domain.ModeFast)

	if outcome.IsValid || outcome.Error != domain.ErrCodeNoStreams {
		t.Errorf("outcome = %+v, want no_media_streams", outcome)
	}
	if len(fetcher.calls) != 1 {
		t.Errorf("fast mode escalated: %v fetches", len(fetcher.calls))
	}
}

func TestValidateFullMode(t *testing.T) {
	fetcher := &fakeFetcher{}
	prober := &fakeProber{reports: []*probe.Report{streamReport(2)}}
	v := newTestValidator(fetcher, prober)

	outcome := v.Validate(context.Background(), entry("https://host/a.mp4"), domain.ModeFull)

	if !outcome.IsValid || outcome.Method != domain.MethodFull {
		t.Errorf("outcome = %+v, want valid/full", outcome)
	}
	if len(fetcher.calls) != 1 || fetcher.calls[0] != testFetchConfig().DeepBytes() {
		t.Errorf("fetch calls = %v, want one deep fetch", fetcher.calls)
	}
}

func TestValidateTwoPassCheapPath(t *testing.T) {
	fetcher := &fakeFetcher{}
	prober := &fakeProber{reports: []*probe.Report{streamReport(1)}}
	v := newTestValidator(fetcher, prober)

	outcome := v.Validate(context.Background(), entry("https://host/a.mp4"), domain.ModeTwoPass)

	if !outcome.IsValid || outcome.Method != domain.MethodPartial {
		t.Errorf("outcome = %+v, want valid/partial", outcome)
	}
	if len(fetcher.calls) != 1 {
		t.Errorf("cheap path still escalated: %v", fetcher.calls)
	}
}

func TestValidateTwoPassEscalatesOnNoStreams(t *testing.T) {
	fetcher := &fakeFetcher{}
	prober := &fakeProber{reports: []*probe.Report{{}, streamReport(3)}}
	v := newTestValidator(fetcher, prober)

	outcome := v.Validate(context.Background(), entry("https://host/a.mp4"), domain.ModeTwoPass)

	if !outcome.IsValid {
		t.Fatalf("expected deep retry to validate, got %q", outcome.Error)
	}
	if outcome.Method != domain.MethodFull {
		t.Errorf("method = %q, want full after escalation", outcome.Method)
	}
	cfg := testFetchConfig()
	wantCalls := []int64{cfg.PartialBytes(), cfg.DeepBytes()}
	if len(fetcher.calls) != 2 || fetcher.calls[0] != wantCalls[0] || fetcher.calls[1] != wantCalls[1] {
		t.Errorf("fetch calls = %v, want %v", fetcher.calls, wantCalls)
	}
}

func TestValidateTwoPassDoesNotEscalateHardFailures(t *testing.T) {
	tests := []struct {
		name     string
		fetchErr error
		probeErr error
		wantCode string
	}{
		{
			name:     "http status",
			fetchErr: &domain.HTTPError{Status: 404},
			wantCode: "http_error: status 404",
		},
		{
			name:     "empty body",
			fetchErr: domain.ErrEmptyBody,
			wantCode: domain.ErrCodeEmptyBody,
		},
		{
			name:     "probe crash",
			probeErr: &domain.ProbeError{Output: "invalid data found"},
			wantCode: "ffprobe_error: invalid data found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testFetchConfig()
			fetcher := &fakeFetcher{}
			if tt.fetchErr != nil {
				fetcher.errs = map[int64]error{cfg.PartialBytes(): tt.fetchErr}
			}
			prober := &fakeProber{errs: []error{tt.probeErr}}
			v := newTestValidator(fetcher, prober)

			outcome := v.Validate(context.Background(), entry("https://host/a.mp4"), domain.ModeTwoPass)

			if outcome.IsValid {
				t.Fatal("expected invalid outcome")
			}
			if outcome.Error != tt.wantCode {
				t.Errorf("error = %q, want %q", outcome.Error, tt.wantCode)
			}
			if len(fetcher.calls) != 1 {
				t.Errorf("hard failure escalated to deep fetch: %v", fetcher.calls)
			}
		})
	}
}

func TestValidateInvalidMode(t *testing.T) {
	fetcher := &fakeFetcher{}
	prober := &fakeProber{}
	v := newTestValidator(fetcher, prober)

	outcome := v.Validate(context.Background(), entry("https://host/a.mp4"), domain.ScanMode("turbo"))

	if outcome.IsValid || outcome.Error != domain.ErrCodeInvalidMode {
		t.Errorf("outcome = %+v, want invalid_scan_mode", outcome)
	}
	if len(fetcher.calls) != 0 {
		t.Error("invalid mode still fetched")
	}
}

func TestValidateValidOutcomeHasStreamKeys(t *testing.T) {
	fetcher := &fakeFetcher{}
	prober := &fakeProber{reports: []*probe.Report{streamReport(1)}}
	v := newTestValidator(fetcher, prober)

	outcome := v.Validate(context.Background(), entry("https://host/a.mp4"), domain.ModeFast)

	if !outcome.IsValid {
		t.Fatal("expected valid outcome")
	}
	if outcome.Error != "" {
		t.Errorf("valid outcome carries error %q", outcome.Error)
	}
	found := false
	for k := range outcome.Fields {
		if strings.HasPrefix(k, "stream_0_") {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("valid outcome missing stream_0_* keys: %v", outcome.Fields)
	}
}
