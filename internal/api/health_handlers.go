package api

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"
)

// readyTimeout bounds the readiness database ping.
const readyTimeout = 2 * time.Second

// HealthHandlers holds dependencies for liveness and readiness probes.
type HealthHandlers struct {
	db *sql.DB // nil when running on the in-memory store
}

// NewHealthHandlers creates a new HealthHandlers instance.
func NewHealthHandlers(db *sql.DB) *HealthHandlers {
	return &HealthHandlers{db: db}
}

// Health handles GET /health. It reports process liveness only.
func (h *HealthHandlers) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(`{"status":"healthy"}`)); err != nil {
		slog.ErrorContext(r.Context(), "failed to write health response", "error", err)
	}
}

// Ready handles GET /ready. It verifies the backing store is reachable;
// with the in-memory store there is nothing to probe.
func (h *HealthHandlers) Ready(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		if err := h.db.PingContext(ctx); err != nil {
			slog.WarnContext(r.Context(), "readiness ping failed", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ready"}`))
}
