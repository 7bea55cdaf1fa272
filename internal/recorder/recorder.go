// Package recorder persists fetch metadata and alerts on a best-effort basis.
//
// Write failures are logged and swallowed: recording is observability and
// must never fail the fetch it describes.
package recorder

import (
	"context"
	"time"

	"github.com/wonny/evlq/internal/contracts"
	"github.com/wonny/evlq/pkg/logger"
)

const (
	// DefaultRecentLimit is used when a caller asks for a non-positive limit
	DefaultRecentLimit = 10

	// MaxRecentLimit caps recent-fetch queries
	MaxRecentLimit = 500
)

// Recorder writes FetchRecords, alerts, health snapshots and reconciliation
// results through a contracts.Store
// ⭐ SSOT: 저장 실패는 여기서 로깅 후 흡수
type Recorder struct {
	store        contracts.Store
	log          *logger.Logger
	writeTimeout time.Duration
	now          func() time.Time
}

// Option configures a Recorder
type Option func(*Recorder)

// WithWriteTimeout bounds each write unit of work
func WithWriteTimeout(d time.Duration) Option {
	return func(r *Recorder) { r.writeTimeout = d }
}

// WithClock overrides the clock used for alert timestamps
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

// New creates a Recorder
func New(store contracts.Store, log *logger.Logger, opts ...Option) *Recorder {
	r := &Recorder{
		store:        store,
		log:          log,
		writeTimeout: 5 * time.Second,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Store returns the underlying store for read paths
func (r *Recorder) Store() contracts.Store {
	return r.store
}

// writeContext detaches from ctx cancellation so a record of a finished
// fetch is still written after the caller's context ends
func (r *Recorder) writeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), r.writeTimeout)
}

// StoreFetchMetadata appends rec. It never returns an error.
func (r *Recorder) StoreFetchMetadata(ctx context.Context, rec *contracts.FetchRecord) {
	wctx, cancel := r.writeContext(ctx)
	defer cancel()

	if err := r.store.InsertFetch(wctx, rec); err != nil {
		r.log.WithSource(rec.SourceID).
			WithError(err).
			WithField("op", "store_fetch_metadata").
			Error("Failed to store fetch metadata")
		return
	}

	r.log.WithSource(rec.SourceID).
		WithFields(map[string]interface{}{
			"id":          rec.ID,
			"status_code": rec.StatusCode,
			"success":     rec.Success,
		}).
		Debug("Fetch metadata stored")
}

// GetRecentFetches returns up to limit records for sourceID, newest first.
// Read errors are returned; only writes are best-effort.
func (r *Recorder) GetRecentFetches(ctx context.Context, sourceID string, limit int) ([]contracts.FetchRecord, error) {
	return r.store.RecentFetches(ctx, sourceID, ClampLimit(limit))
}

// StoreAlert appends an alert. It never returns an error.
func (r *Recorder) StoreAlert(ctx context.Context, alert *contracts.Alert) {
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = r.now().UTC()
	}
	if alert.Status == "" {
		alert.Status = contracts.AlertOpen
	}

	wctx, cancel := r.writeContext(ctx)
	defer cancel()

	if err := r.store.InsertAlert(wctx, alert); err != nil {
		r.log.WithSource(alert.SourceID).
			WithError(err).
			WithFields(map[string]interface{}{
				"op":         "store_alert",
				"alert_type": alert.AlertType,
			}).
			Error("Failed to store alert")
		return
	}

	r.log.WithSource(alert.SourceID).
		WithFields(map[string]interface{}{
			"alert_type": alert.AlertType,
			"severity":   alert.Severity,
		}).
		Warn(alert.Message)
}

// ListAlerts returns alerts with status (all when empty), newest first
func (r *Recorder) ListAlerts(ctx context.Context, status contracts.AlertStatus, limit int) ([]contracts.Alert, error) {
	return r.store.ListAlerts(ctx, status, ClampLimit(limit))
}

// HasOpenAlert reports whether sourceID already has an open alert of alertType
func (r *Recorder) HasOpenAlert(ctx context.Context, sourceID, alertType string) (bool, error) {
	return r.store.HasOpenAlert(ctx, sourceID, alertType)
}

// ResolveAlert closes an alert. Unlike the best-effort writes it reports
// contracts.ErrNotFound so callers can answer 404.
func (r *Recorder) ResolveAlert(ctx context.Context, id int64) error {
	return r.store.ResolveAlert(ctx, id, r.now().UTC())
}

// StoreHealth appends a health snapshot. It never returns an error.
func (r *Recorder) StoreHealth(ctx context.Context, h *contracts.SourceHealth) {
	wctx, cancel := r.writeContext(ctx)
	defer cancel()

	if err := r.store.InsertHealth(wctx, h); err != nil {
		r.log.WithSource(h.SourceID).
			WithError(err).
			WithField("op", "store_health").
			Error("Failed to store source health")
	}
}

// StoreReconciliation appends a reconciliation result. It never returns an error.
func (r *Recorder) StoreReconciliation(ctx context.Context, check *contracts.ReconciliationCheck) {
	wctx, cancel := r.writeContext(ctx)
	defer cancel()

	if err := r.store.InsertReconciliation(wctx, check); err != nil {
		r.log.WithError(err).
			WithFields(map[string]interface{}{
				"op":         "store_reconciliation",
				"check_type": check.CheckType,
			}).
			Error("Failed to store reconciliation check")
	}
}

// ClampLimit applies the default and maximum recent-query limits
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultRecentLimit
	case limit > MaxRecentLimit:
		return MaxRecentLimit
	default:
		return limit
	}
}
