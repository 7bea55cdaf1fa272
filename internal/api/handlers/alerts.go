package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wonny/evlq/internal/contracts"
	"github.com/wonny/evlq/internal/reconcile"
	"github.com/wonny/evlq/internal/recorder"
	"github.com/wonny/evlq/pkg/logger"
)

// AlertHandler serves the alert lifecycle and reconciliation checks
type AlertHandler struct {
	recorder   *recorder.Recorder
	reconciler *reconcile.Reconciler
	logger     *logger.Logger
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(rec *recorder.Recorder, rc *reconcile.Reconciler, log *logger.Logger) *AlertHandler {
	return &AlertHandler{
		recorder:   rec,
		reconciler: rc,
		logger:     log,
	}
}

// ListAlerts returns alerts, optionally filtered by status
// GET /api/alerts?status=open&limit=N
func (h *AlertHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	status := contracts.AlertStatus(r.URL.Query().Get("status"))
	switch status {
	case "", contracts.AlertOpen, contracts.AlertAcknowledged, contracts.AlertResolved:
	default:
		respondError(w, http.StatusBadRequest, "status must be open, acknowledged or resolved")
		return
	}

	limit, ok := queryInt(r, "limit")
	if !ok {
		respondError(w, http.StatusBadRequest, "limit must be an integer")
		return
	}

	alerts, err := h.recorder.ListAlerts(r.Context(), status, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list alerts")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve alerts")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":  len(alerts),
		"alerts": alerts,
	})
}

// CreateAlertRequest is the body of POST /api/alerts
type CreateAlertRequest struct {
	AlertType string                  `json:"alert_type"`
	SourceID  string                  `json:"source_id"`
	Severity  contracts.AlertSeverity `json:"severity"`
	Message   string                  `json:"message"`
	Details   map[string]any          `json:"details"`
}

// CreateAlert records an alert raised by an external caller
// POST /api/alerts
func (h *AlertHandler) CreateAlert(w http.ResponseWriter, r *http.Request) {
	var req CreateAlertRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.AlertType == "" || req.SourceID == "" || req.Message == "" {
		respondError(w, http.StatusBadRequest, "alert_type, source_id and message are required")
		return
	}

	if req.Severity == "" {
		req.Severity = contracts.AlertWarning
	}
	switch req.Severity {
	case contracts.AlertInfo, contracts.AlertWarning, contracts.AlertError, contracts.AlertCritical:
	default:
		respondError(w, http.StatusBadRequest, "severity must be info, warning, error or critical")
		return
	}

	alert := &contracts.Alert{
		AlertType: req.AlertType,
		SourceID:  req.SourceID,
		Severity:  req.Severity,
		Message:   req.Message,
		Details:   req.Details,
	}
	h.recorder.StoreAlert(r.Context(), alert)

	respondJSON(w, http.StatusCreated, alert)
}

// ResolveAlert closes an alert
// POST /api/alerts/{id}/resolve
func (h *AlertHandler) ResolveAlert(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "id must be an integer")
		return
	}

	if err := h.recorder.ResolveAlert(r.Context(), id); err != nil {
		if errors.Is(err, contracts.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Alert not found")
			return
		}
		h.logger.WithError(err).WithField("alert_id", id).Error("Failed to resolve alert")
		respondError(w, http.StatusInternalServerError, "Failed to resolve alert")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"id":     id,
		"status": contracts.AlertResolved,
	})
}

// ReconcileRequest is the body of POST /api/reconcile
type ReconcileRequest struct {
	CheckType string             `json:"check_type"`
	Values    map[string]float64 `json:"values"`
	Tolerance float64            `json:"tolerance"`
}

// Reconcile compares one metric across sources and records the result
// POST /api/reconcile
func (h *AlertHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	var req ReconcileRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.CheckType == "" || len(req.Values) == 0 {
		respondError(w, http.StatusBadRequest, "check_type and values are required")
		return
	}

	respondJSON(w, http.StatusOK, h.reconciler.Run(r.Context(), req.CheckType, req.Values, req.Tolerance))
}
