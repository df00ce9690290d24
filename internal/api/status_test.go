package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/iconidentify/mediasweep/internal/runner"
)

func TestHealthEndpoint(t *testing.T) {
	router := NewRouter(runner.NewProgress())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp healthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "ok" {
		t.Errorf("status = %q, want ok", resp.Status)
	}
}

func TestProgressEndpoint(t *testing.T) {
	progress := runner.NewProgress()
	progress.SetStoreCounts(10, 3)
	progress.BeginPass(40, "two-pass")
	progress.Record(true, false, false)
	progress.Record(false, false, false)

	router := NewRouter(progress)

	req := httptest.NewRequest(http.MethodGet, "/progress", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var snap runner.Snapshot
	if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
		t.Fatal(err)
	}
	if snap.Mode != "two-pass" || snap.PassTotal != 40 || snap.PassCompleted != 2 {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.StoreValid != 11 || snap.StoreInvalid != 4 {
		t.Errorf("store counters = (%d, %d), want (11, 4)", snap.StoreValid, snap.StoreInvalid)
	}
}
