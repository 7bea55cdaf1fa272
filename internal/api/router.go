package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wonny/evlq/internal/api/handlers"
	"github.com/wonny/evlq/pkg/config"
	"github.com/wonny/evlq/pkg/logger"
)

// Pinger reports whether the record store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers groups the API handlers mounted by NewRouter
type Handlers struct {
	Quality *handlers.QualityHandler
	Health  *handlers.HealthHandler
	Alerts  *handlers.AlertHandler
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(cfg *config.Config, h Handlers, store Pinger, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", healthCheckHandler(store)).Methods("GET")

	if cfg.MetricsEnabled {
		r.Handle(cfg.MetricsPath, promhttp.Handler()).Methods("GET")
	}

	api := r.PathPrefix("/api").Subrouter()

	// Validation & contracts
	api.HandleFunc("/validate/{source_id}", h.Quality.Validate).Methods("POST")
	api.HandleFunc("/contracts", h.Quality.ListContracts).Methods("GET")
	api.HandleFunc("/contracts/{source_id}", h.Quality.GetContract).Methods("GET")
	api.HandleFunc("/fetches/{source_id}", h.Quality.RecentFetches).Methods("GET")

	// Health & dashboard
	api.HandleFunc("/health/{source_id}", h.Health.SourceHealth).Methods("GET")
	api.HandleFunc("/quality/dashboard", h.Health.Dashboard).Methods("GET")

	// Alerts & reconciliation
	api.HandleFunc("/alerts", h.Alerts.ListAlerts).Methods("GET")
	api.HandleFunc("/alerts", h.Alerts.CreateAlert).Methods("POST")
	api.HandleFunc("/alerts/{id:[0-9]+}/resolve", h.Alerts.ResolveAlert).Methods("POST")
	api.HandleFunc("/reconcile", h.Alerts.Reconcile).Methods("POST")

	// 순서: request id → 로깅 → 메트릭 → 복구
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(log))
	r.Use(metricsMiddleware)
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server liveness and store reachability
func healthCheckHandler(store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status, code, db := "ok", http.StatusOK, "ok"
		if err := store.Ping(ctx); err != nil {
			status, code, db = "degraded", http.StatusServiceUnavailable, err.Error()
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":   status,
			"service":  "evlq",
			"database": db,
		})
	}
}
