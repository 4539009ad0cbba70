package handlers

import (
	"context"
	"net/http"
	"time"

	"identity-service/internal/apperr"
	"identity-service/internal/logger"
	"identity-service/internal/models"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the liveness probe.
type HealthHandler struct {
	store  Pinger
	logger *zap.Logger
}

// NewHealthHandler creates a health handler backed by store.
func NewHealthHandler(store Pinger, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{store: store, logger: logger}
}

// RegisterRoutes registers /health.
func (h *HealthHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.Handle).Methods(http.MethodGet)
}

// Handle pings the store.
func (h *HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		l := logger.WithRequestID(h.logger, r)
		apperr.Log(l, apperr.Storage("store unreachable", err), "Health check failed")
		writeJSON(w, l, http.StatusServiceUnavailable, models.ErrorResponse{Status: "error", Message: "store unavailable"})
		return
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]string{"status": "ok"})
}
