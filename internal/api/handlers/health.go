package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/evlq/internal/health"
	"github.com/wonny/evlq/internal/recorder"
	"github.com/wonny/evlq/internal/registry"
	"github.com/wonny/evlq/pkg/logger"
	"github.com/wonny/evlq/pkg/redis"
)

// HealthHandler serves source health and the quality dashboard
type HealthHandler struct {
	monitor  *health.Monitor
	registry *registry.Registry
	recorder *recorder.Recorder
	cache    *redis.Cache
	logger   *logger.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(m *health.Monitor, reg *registry.Registry, rec *recorder.Recorder, cache *redis.Cache, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		monitor:  m,
		registry: reg,
		recorder: rec,
		cache:    cache,
		logger:   log,
	}
}

// SourceHealth returns the cached or freshly computed health of a source
// GET /api/health/{source_id}
func (h *HealthHandler) SourceHealth(w http.ResponseWriter, r *http.Request) {
	sourceID := mux.Vars(r)["source_id"]

	if _, ok := h.registry.Get(sourceID); !ok {
		respondError(w, http.StatusNotFound, "Unknown source "+sourceID)
		return
	}

	snapshot, err := h.monitor.Get(r.Context(), sourceID)
	if err != nil {
		h.logger.WithSource(sourceID).WithError(err).Error("Failed to compute source health")
		respondError(w, http.StatusInternalServerError, "Failed to compute source health")
		return
	}

	respondJSON(w, http.StatusOK, snapshot)
}

// Dashboard returns the quality dashboard built from the latest fetch per source
// GET /api/quality/dashboard
func (h *HealthHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var data health.DashboardData
	err := h.cache.GetOrSet(ctx, redis.DashboardKey(), &data, redis.TTLShort, func() (interface{}, error) {
		latest, err := h.recorder.Store().LatestPerSource(ctx)
		if err != nil {
			return nil, err
		}
		return health.Dashboard(h.registry, latest), nil
	})
	if err != nil {
		h.logger.WithError(err).Error("Failed to build quality dashboard")
		respondError(w, http.StatusInternalServerError, "Failed to build quality dashboard")
		return
	}

	respondJSON(w, http.StatusOK, data)
}
