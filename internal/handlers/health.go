package handlers

import (
	"net/http"
	"time"

	"github.com/civicdesk/grievance-server/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var startTime = time.Now()

const version = "1.2.0"

// HealthHandler provides health check endpoints
type HealthHandler struct {
	db     *pgxpool.Pool
	cache  *redis.Client
	logger *zap.SugaredLogger
}

// NewHealthHandler creates a new health handler. cache may be nil.
func NewHealthHandler(db *pgxpool.Pool, cache *redis.Client, logger *zap.SugaredLogger) *HealthHandler {
	return &HealthHandler{db: db, cache: cache, logger: logger}
}

// Check handles GET /api/health (liveness probe)
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, models.HealthStatus{
		Status:  "ok",
		Version: version,
		Uptime:  time.Since(startTime).String(),
	})
}

// Ready handles GET /api/health/ready (readiness probe)
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	status := models.HealthStatus{
		Status:   "ready",
		Version:  version,
		Uptime:   time.Since(startTime).String(),
		Database: "connected",
	}

	if err := h.db.Ping(r.Context()); err != nil {
		status.Status = "not ready"
		status.Database = "disconnected"
		respondJSON(w, http.StatusServiceUnavailable, status)
		return
	}

	if h.cache != nil {
		status.Cache = "connected"
		if err := h.cache.Ping(r.Context()).Err(); err != nil {
			// The cache is best-effort; degraded, not down.
			status.Cache = "disconnected"
		}
	}

	respondJSON(w, http.StatusOK, status)
}
