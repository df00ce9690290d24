package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/iconidentify/mediasweep/internal/runner"
)

// statusHandler exposes scan progress over HTTP.
type statusHandler struct {
	progress *runner.Progress
}

// healthResponse is the JSON response for liveness checks.
type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// Live handles GET /health.
func (h *statusHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Progress handles GET /progress with the live scan counters.
func (h *statusHandler) Progress(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.progress.Snapshot())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
