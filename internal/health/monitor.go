package health

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/evlq/internal/contracts"
	"github.com/wonny/evlq/internal/recorder"
	"github.com/wonny/evlq/internal/registry"
	"github.com/wonny/evlq/pkg/logger"
	"github.com/wonny/evlq/pkg/redis"
)

// Monitor computes, stores and caches source health and raises alerts
// ⭐ SSOT: source_health 스냅샷과 경보 정책은 Monitor에서만
type Monitor struct {
	registry   *registry.Registry
	recorder   *recorder.Recorder
	cache      *redis.Cache
	log        *logger.Logger
	thresholds Thresholds
	window     time.Duration
	cacheTTL   time.Duration
	now        func() time.Time
}

// MonitorOption configures a Monitor
type MonitorOption func(*Monitor)

// WithThresholds overrides DefaultThresholds
func WithThresholds(th Thresholds) MonitorOption {
	return func(m *Monitor) { m.thresholds = th }
}

// WithWindow sets the history window health is computed over
func WithWindow(d time.Duration) MonitorOption {
	return func(m *Monitor) { m.window = d }
}

// WithCacheTTL sets how long snapshots stay in the cache
func WithCacheTTL(d time.Duration) MonitorOption {
	return func(m *Monitor) { m.cacheTTL = d }
}

// WithClock overrides the monitor clock
func WithClock(now func() time.Time) MonitorOption {
	return func(m *Monitor) { m.now = now }
}

// NewMonitor creates a Monitor. cache may be backed by a disabled Redis client.
func NewMonitor(reg *registry.Registry, rec *recorder.Recorder, cache *redis.Cache, log *logger.Logger, opts ...MonitorOption) *Monitor {
	m := &Monitor{
		registry:   reg,
		recorder:   rec,
		cache:      cache,
		log:        log,
		thresholds: DefaultThresholds,
		window:     24 * time.Hour,
		cacheTTL:   redis.TTLMedium,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Compute derives the current health of sourceID without side effects
func (m *Monitor) Compute(ctx context.Context, sourceID string) (Report, error) {
	now := m.now()
	records, err := m.recorder.Store().FetchesBetween(ctx, sourceID, now.Add(-m.window), now)
	if err != nil {
		return Report{}, fmt.Errorf("load fetch history for %s: %w", sourceID, err)
	}

	contract, _ := m.registry.Get(sourceID)
	return Compute(sourceID, records, contract, now, m.thresholds), nil
}

// Check computes the health of sourceID, stores and caches the snapshot
// and raises any alerts it calls for
func (m *Monitor) Check(ctx context.Context, sourceID string) (Report, error) {
	rep, err := m.Compute(ctx, sourceID)
	if err != nil {
		return Report{}, err
	}

	m.recorder.StoreHealth(ctx, &rep.Health)
	m.cacheHealth(ctx, &rep.Health)
	m.raiseAlerts(ctx, rep)

	m.log.WithSource(sourceID).
		WithFields(map[string]interface{}{
			"status":               rep.Health.Status,
			"success_rate_24h":     rep.Health.SuccessRate24h,
			"consecutive_failures": rep.Health.ConsecutiveFailures,
		}).
		Debug("Source health checked")

	return rep, nil
}

// CheckAll runs Check for every registered source.
// A failing source does not stop the others; their errors are joined.
func (m *Monitor) CheckAll(ctx context.Context) ([]Report, error) {
	ids := m.registry.SourceIDs()
	reports := make([]Report, 0, len(ids))

	var errs []error
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return reports, err
		}

		rep, err := m.Check(ctx, id)
		if err != nil {
			m.log.WithSource(id).WithError(err).Error("Source health check failed")
			errs = append(errs, err)
			continue
		}
		reports = append(reports, rep)
	}

	return reports, errors.Join(errs...)
}

// Get returns the cached snapshot of sourceID or computes a fresh one
func (m *Monitor) Get(ctx context.Context, sourceID string) (*contracts.SourceHealth, error) {
	var h contracts.SourceHealth
	if m.cache != nil {
		found, err := m.cache.Get(ctx, redis.HealthKey(sourceID), &h)
		if err != nil {
			m.log.WithSource(sourceID).WithError(err).Warn("Health cache read failed")
		}
		if found {
			return &h, nil
		}
	}

	rep, err := m.Compute(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	m.cacheHealth(ctx, &rep.Health)
	return &rep.Health, nil
}

func (m *Monitor) cacheHealth(ctx context.Context, h *contracts.SourceHealth) {
	if m.cache == nil {
		return
	}
	if err := m.cache.Set(ctx, redis.HealthKey(h.SourceID), h, m.cacheTTL); err != nil {
		m.log.WithSource(h.SourceID).WithError(err).Warn("Health cache write failed")
	}
}

// raiseAlerts applies the alert policy.
// An open alert of the same type and source suppresses a new one.
func (m *Monitor) raiseAlerts(ctx context.Context, rep Report) {
	h := rep.Health

	var pending []*contracts.Alert
	switch {
	case h.Status == contracts.HealthDown:
		msg := fmt.Sprintf("%s is down: %d consecutive failures", h.SourceID, h.ConsecutiveFailures)
		if h.LastSuccess == nil {
			msg = fmt.Sprintf("%s is down: no successful fetch in the last %.0fh", h.SourceID, m.window.Hours())
		}
		pending = append(pending, &contracts.Alert{
			AlertType: contracts.AlertTypeSourceDown,
			SourceID:  h.SourceID,
			Severity:  contracts.AlertCritical,
			Message:   msg,
			Details: map[string]any{
				"consecutive_failures": h.ConsecutiveFailures,
				"success_rate_24h":     h.SuccessRate24h,
			},
		})
	case rep.Stale:
		pending = append(pending, &contracts.Alert{
			AlertType: contracts.AlertTypeStaleness,
			SourceID:  h.SourceID,
			Severity:  contracts.AlertWarning,
			Message:   fmt.Sprintf("%s: %s", h.SourceID, rep.Freshness.Message),
			Details: map[string]any{
				"data_freshness_hours": h.DataFreshnessHours,
			},
		})
	}

	if h.LastSuccess != nil && h.QualityScore < m.thresholds.MinQuality {
		pending = append(pending, &contracts.Alert{
			AlertType: contracts.AlertTypeValidationFailure,
			SourceID:  h.SourceID,
			Severity:  contracts.AlertError,
			Message:   fmt.Sprintf("%s: mean quality score %.2f below %.2f", h.SourceID, h.QualityScore, m.thresholds.MinQuality),
			Details: map[string]any{
				"quality_score": h.QualityScore,
			},
		})
	}

	for _, a := range pending {
		open, err := m.recorder.HasOpenAlert(ctx, a.SourceID, a.AlertType)
		if err != nil {
			// lookup failure raises the alert rather than dropping it
			m.log.WithSource(h.SourceID).WithError(err).Warn("Could not check open alerts")
		}
		if open {
			continue
		}
		a.CreatedAt = h.CheckedAt
		m.recorder.StoreAlert(ctx, a)
	}
}
