package handlers

import (
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/evlq/internal/contracts"
	"github.com/wonny/evlq/internal/payload"
	"github.com/wonny/evlq/internal/recorder"
	"github.com/wonny/evlq/internal/validation"
	"github.com/wonny/evlq/pkg/logger"
)

// QualityHandler serves validation, contracts and fetch history
// ⭐ SSOT: 품질 API 핸들러는 이 구조체에서만
type QualityHandler struct {
	validator *validation.Validator
	recorder  *recorder.Recorder
	logger    *logger.Logger
}

// NewQualityHandler creates a new quality handler
func NewQualityHandler(v *validation.Validator, rec *recorder.Recorder, log *logger.Logger) *QualityHandler {
	return &QualityHandler{
		validator: v,
		recorder:  rec,
		logger:    log,
	}
}

// Validate checks a JSON payload against the contract of a source
// POST /api/validate/{source_id}
func (h *QualityHandler) Validate(w http.ResponseWriter, r *http.Request) {
	sourceID := mux.Vars(r)["source_id"]

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		respondError(w, http.StatusRequestEntityTooLarge, "Request body too large")
		return
	}

	data, err := payload.Decode(body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Request body must be a JSON value")
		return
	}

	respondJSON(w, http.StatusOK, h.validator.ValidateSourceData(sourceID, data))
}

// ListContracts returns every registered contract ordered by source_id
// GET /api/contracts
func (h *QualityHandler) ListContracts(w http.ResponseWriter, r *http.Request) {
	reg := h.validator.Registry()
	ids := reg.SourceIDs()

	out := make([]contracts.DataContract, 0, len(ids))
	for _, id := range ids {
		if c, ok := reg.Get(id); ok {
			out = append(out, c)
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":     len(out),
		"contracts": out,
	})
}

// GetContract returns the contract of one source
// GET /api/contracts/{source_id}
func (h *QualityHandler) GetContract(w http.ResponseWriter, r *http.Request) {
	sourceID := mux.Vars(r)["source_id"]

	c, ok := h.validator.Registry().Get(sourceID)
	if !ok {
		respondError(w, http.StatusNotFound, "No contract for source "+sourceID)
		return
	}

	respondJSON(w, http.StatusOK, c)
}

// RecentFetches returns the newest fetch records of a source
// GET /api/fetches/{source_id}?limit=N
func (h *QualityHandler) RecentFetches(w http.ResponseWriter, r *http.Request) {
	sourceID := mux.Vars(r)["source_id"]

	limit, ok := queryInt(r, "limit")
	if !ok {
		respondError(w, http.StatusBadRequest, "limit must be an integer")
		return
	}

	records, err := h.recorder.GetRecentFetches(r.Context(), sourceID, limit)
	if err != nil {
		h.logger.WithSource(sourceID).WithError(err).Error("Failed to get recent fetches")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve fetch history")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"source_id": sourceID,
		"count":     len(records),
		"fetches":   records,
	})
}
