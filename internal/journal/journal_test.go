package journal

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestJournalRecordAndSummarize(t *testing.T) {
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"), testLogger())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer j.Close()

	ctx := context.Background()
	events := []Event{
		{RunID: "run-1", URL: "https://host/a.mp4", Mode: "fast", IsValid: true, Method: "partial", Duration: 1200 * time.Millisecond},
		{RunID: "run-1", URL: "https://host/b.mp4", Mode: "fast", Error: "no_media_streams", Duration: 800 * time.Millisecond},
		{RunID: "run-2", URL: "https://host/b.mp4", Mode: "full", IsValid: true, Method: "full", Duration: 9 * time.Second},
	}
	for _, ev := range events {
		if err := j.Record(ctx, ev); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	valid, invalid, err := j.RunSummary(ctx, "run-1")
	if err != nil {
		t.Fatalf("RunSummary() error = %v", err)
	}
	if valid != 1 || invalid != 1 {
		t.Errorf("run-1 summary = (%d, %d), want (1, 1)", valid, invalid)
	}

	valid, invalid, err = j.RunSummary(ctx, "run-2")
	if err != nil {
		t.Fatal(err)
	}
	if valid != 1 || invalid != 0 {
		t.Errorf("run-2 summary = (%d, %d), want (1, 0)", valid, invalid)
	}
}

func TestJournalReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	j, err := Open(path, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if err := j.Record(context.Background(), Event{RunID: "run-1", URL: "u", Mode: "fast", IsValid: true}); err != nil {
		t.Fatal(err)
	}
	j.Close()

	// Events survive process restarts.
	j, err = Open(path, testLogger())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer j.Close()

	valid, _, err := j.RunSummary(context.Background(), "run-1")
	if err != nil {
		t.Fatal(err)
	}
	if valid != 1 {
		t.Errorf("valid = %d after reopen, want 1", valid)
	}
}
