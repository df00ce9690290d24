// Package api serves the optional status HTTP surface for long scans:
// liveness plus live progress counters. Read-only; all scan control
// stays on the terminal.
package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/iconidentify/mediasweep/internal/runner"
)

// NewRouter creates the status HTTP router.
func NewRouter(progress *runner.Progress) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.CleanPath)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	h := &statusHandler{progress: progress}
	r.Get("/health", h.Live)
	r.Get("/progress", h.Progress)

	return r
}
