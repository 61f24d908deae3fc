package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/crickarena/auction-api/pkg/database"
	"github.com/crickarena/auction-api/pkg/logger"
	"github.com/crickarena/auction-api/pkg/redis"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	db     *database.PostgresDB
	cache  *redis.Client
	logger *logger.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *database.PostgresDB, cache *redis.Client, logger *logger.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		cache:  cache,
		logger: logger,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Service   string            `json:"service"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Check handles GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	h.respond(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Service:   "auction-api",
	})
}

// Ready handles GET /health/ready and verifies backing services
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	checks := map[string]string{
		"postgres": "ok",
		"redis":    "ok",
	}
	status := http.StatusOK
	overall := "healthy"

	if err := h.db.Health(ctx); err != nil {
		h.logger.WithError(err).Error("postgres health check failed")
		checks["postgres"] = err.Error()
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}
	if h.cache == nil {
		// The service runs without redis; report it, don't fail readiness.
		checks["redis"] = "disabled"
	} else if err := h.cache.Health(ctx); err != nil {
		h.logger.WithError(err).Error("redis health check failed")
		checks["redis"] = err.Error()
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}

	h.respond(w, status, HealthResponse{
		Status:    overall,
		Timestamp: time.Now().UTC(),
		Service:   "auction-api",
		Checks:    checks,
	})
}

func (h *HealthHandler) respond(w http.ResponseWriter, status int, body HealthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.WithError(err).Error("failed to encode health response")
	}
}
