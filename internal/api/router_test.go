package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/evlq/internal/api/handlers"
	"github.com/wonny/evlq/internal/contracts"
	"github.com/wonny/evlq/internal/health"
	"github.com/wonny/evlq/internal/reconcile"
	"github.com/wonny/evlq/internal/recorder"
	"github.com/wonny/evlq/internal/registry"
	"github.com/wonny/evlq/internal/store/sqlite"
	"github.com/wonny/evlq/internal/validation"
	"github.com/wonny/evlq/pkg/config"
	"github.com/wonny/evlq/pkg/database"
	"github.com/wonny/evlq/pkg/logger"
	"github.com/wonny/evlq/pkg/redis"
)

var now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

func newTestRouter(t *testing.T) (http.Handler, *recorder.Recorder) {
	t.Helper()
	log := logger.Nop()
	clock := func() time.Time { return now }

	store := sqlite.New(database.OpenMemory(t))
	rec := recorder.New(store, log, recorder.WithClock(clock))
	reg := registry.NewDefault()
	cache := redis.NewCache(redis.Disabled(), "evlq")
	monitor := health.NewMonitor(reg, rec, cache, log, health.WithClock(clock))

	h := Handlers{
		Quality: handlers.NewQualityHandler(validation.NewValidator(reg), rec, log),
		Health:  handlers.NewHealthHandler(monitor, reg, rec, cache, log),
		Alerts:  handlers.NewAlertHandler(rec, reconcile.New(rec), log),
	}
	cfg := &config.Config{MetricsEnabled: true, MetricsPath: "/metrics"}
	return NewRouter(cfg, h, store, log), rec
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealthCheck(t *testing.T) {
	h, _ := newTestRouter(t)

	w := do(t, h, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestHealthCheck_StoreDown(t *testing.T) {
	r := NewRouter(&config.Config{}, Handlers{}, failingPinger{}, logger.Nop())

	w := do(t, r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "degraded", decode(t, w)["status"])
}

func TestRequestID_Reused(t *testing.T) {
	h, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestValidate(t *testing.T) {
	h, _ := newTestRouter(t)

	w := do(t, h, http.MethodPost, "/api/validate/entsoe",
		`{"total_generation_mw": 35000, "renewable_generation_mw": 23450, "renewable_share": "high", "available": true}`)
	require.Equal(t, http.StatusOK, w.Code)

	out := decode(t, w)
	assert.Equal(t, false, out["is_valid"])
	assert.Equal(t, 0.7, out["quality_score"])
	errs, ok := out["errors"].([]interface{})
	require.True(t, ok)
	require.Len(t, errs, 1)
	assert.Equal(t, "renewable_share", errs[0].(map[string]interface{})["field"])
}

func TestValidate_UnknownSourceIsValid(t *testing.T) {
	h, _ := newTestRouter(t)

	w := do(t, h, http.MethodPost, "/api/validate/unknown_source_xyz", `{"anything": 1}`)
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.Equal(t, true, out["is_valid"])
	assert.Equal(t, 1.0, out["quality_score"])
}

func TestValidate_BadJSON(t *testing.T) {
	h, _ := newTestRouter(t)

	w := do(t, h, http.MethodPost, "/api/validate/entsoe", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestContracts(t *testing.T) {
	h, _ := newTestRouter(t)

	w := do(t, h, http.MethodGet, "/api/contracts", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 9.0, decode(t, w)["count"])

	w = do(t, h, http.MethodGet, "/api/contracts/openchargemap", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OpenChargeMap", decode(t, w)["source_name"])

	w = do(t, h, http.MethodGet, "/api/contracts/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecentFetches(t *testing.T) {
	h, rec := newTestRouter(t)
	for i := 0; i < 3; i++ {
		rec.StoreFetchMetadata(context.Background(), &contracts.FetchRecord{
			SourceID: "eafo", FetchedAt: now.Add(time.Duration(i) * time.Minute), StatusCode: 200, Success: true, DataQualityScore: 1,
		})
	}

	w := do(t, h, http.MethodGet, "/api/fetches/eafo?limit=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2.0, decode(t, w)["count"])

	w = do(t, h, http.MethodGet, "/api/fetches/eafo?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSourceHealth(t *testing.T) {
	h, rec := newTestRouter(t)
	rec.StoreFetchMetadata(context.Background(), &contracts.FetchRecord{
		SourceID: "entsoe", FetchedAt: now.Add(-time.Hour), StatusCode: 200, Success: true, DataQualityScore: 1,
	})

	w := do(t, h, http.MethodGet, "/api/health/entsoe", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(contracts.HealthHealthy), decode(t, w)["status"])

	w = do(t, h, http.MethodGet, "/api/health/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDashboard(t *testing.T) {
	h, rec := newTestRouter(t)
	rec.StoreFetchMetadata(context.Background(), &contracts.FetchRecord{
		SourceID: "entsoe", FetchedAt: now, StatusCode: 200, Success: true, ValidationPassed: true, DataQualityScore: 1,
	})
	rec.StoreFetchMetadata(context.Background(), &contracts.FetchRecord{
		SourceID: "eurostat", FetchedAt: now, StatusCode: 0, Success: false,
	})

	w := do(t, h, http.MethodGet, "/api/quality/dashboard", "")
	require.Equal(t, http.StatusOK, w.Code)

	out := decode(t, w)
	assert.Equal(t, 2.0, out["sources_total"])
	assert.Equal(t, 1.0, out["sources_active"])
	assert.Equal(t, 50.0, out["overall_quality_percent"])
}

func TestAlertLifecycle(t *testing.T) {
	h, _ := newTestRouter(t)

	w := do(t, h, http.MethodPost, "/api/alerts", `{"alert_type": "staleness", "source_id": "eafo", "message": "eafo is stale"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode(t, w)
	assert.Equal(t, "warning", created["severity"])
	assert.Equal(t, "open", created["status"])
	id := int(created["id"].(float64))
	require.NotZero(t, id)

	w = do(t, h, http.MethodGet, "/api/alerts?status=open", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, decode(t, w)["count"])

	w = do(t, h, http.MethodPost, "/api/alerts/"+strconv.Itoa(id)+"/resolve", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodGet, "/api/alerts?status=open", "")
	assert.Equal(t, 0.0, decode(t, w)["count"])

	w = do(t, h, http.MethodPost, "/api/alerts/999/resolve", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAlerts_BadRequests(t *testing.T) {
	h, _ := newTestRouter(t)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/alerts?status=closed", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/alerts", `{"source_id": "eafo"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/alerts",
		`{"alert_type": "x", "source_id": "eafo", "message": "m", "severity": "fatal"}`).Code)
}

func TestReconcile(t *testing.T) {
	h, _ := newTestRouter(t)

	w := do(t, h, http.MethodPost, "/api/reconcile",
		`{"check_type": "charger_count", "values": {"openchargemap": 100, "osm_traffic": 50}, "tolerance": 0.1}`)
	require.Equal(t, http.StatusOK, w.Code)

	out := decode(t, w)
	assert.Equal(t, false, out["passed"])
	assert.Equal(t, 0.5, out["agreement_score"])

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/reconcile", `{"check_type": "x"}`).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h, _ := newTestRouter(t)
	do(t, h, http.MethodGet, "/api/contracts", "")

	w := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `evlq_http_requests_total{method="GET",route="/api/contracts",status="200"}`)
}
