package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"
)

// HealthHandler reports service liveness and DB reachability
type HealthHandler struct {
	db *sql.DB
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *sql.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// ServeHTTP handles GET /health
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		respondWithError(w, http.StatusServiceUnavailable, "database unreachable")
		return
	}
	respond(w, http.StatusOK, "ok", map[string]string{"status": "ok"})
}
