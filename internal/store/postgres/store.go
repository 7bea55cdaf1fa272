// Package postgres is the networked record store backed by pgx.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/evlq/internal/contracts"
)

const fetchColumns = `id, source_id, source_url, fetched_at, response_time_ms, status_code, success,
	error_message, content_hash, data_size_bytes, row_count, validation_passed,
	validation_errors, data_quality_score`

const alertColumns = `id, alert_type, source_id, severity, message, details, status, created_at, resolved_at`

// Store implements contracts.Store on a pgx pool
// ⭐ SSOT: PostgreSQL 영속화는 이 Store에서만
type Store struct {
	pool *pgxpool.Pool
}

// New creates a store on an opened pool (see database.New)
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

var _ contracts.Store = (*Store)(nil)

// Ping checks the pool
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the pool
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// inTx runs fn in its own transaction: commit on success, rollback otherwise
func (s *Store) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// InsertFetch appends one fetch record and sets rec.ID
func (s *Store) InsertFetch(ctx context.Context, rec *contracts.FetchRecord) error {
	errs := rec.ValidationErrors
	if errs == nil {
		errs = []contracts.ValidationError{}
	}
	errsJSON, err := json.Marshal(errs)
	if err != nil {
		return fmt.Errorf("encode validation errors: %w", err)
	}

	return s.inTx(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO fetch_metadata (
				source_id, source_url, fetched_at, response_time_ms, status_code, success,
				error_message, content_hash, data_size_bytes, row_count, validation_passed,
				validation_errors, data_quality_score
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			RETURNING id
		`

		err := tx.QueryRow(ctx, query,
			rec.SourceID,
			rec.SourceURL,
			rec.FetchedAt,
			rec.ResponseTimeMS,
			rec.StatusCode,
			rec.Success,
			optString(rec.ErrorMessage),
			rec.ContentHash,
			rec.DataSizeBytes,
			rec.RowCount,
			rec.ValidationPassed,
			errsJSON,
			rec.DataQualityScore,
		).Scan(&rec.ID)
		if err != nil {
			return fmt.Errorf("insert fetch metadata: %w", err)
		}
		return nil
	})
}

// RecentFetches returns up to limit records for sourceID, newest first
func (s *Store) RecentFetches(ctx context.Context, sourceID string, limit int) ([]contracts.FetchRecord, error) {
	query := `
		SELECT ` + fetchColumns + `
		FROM fetch_metadata
		WHERE source_id = $1
		ORDER BY fetched_at DESC, id DESC
		LIMIT $2
	`

	rows, err := s.pool.Query(ctx, query, sourceID, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent fetches: %w", err)
	}
	return collectFetches(rows)
}

// FetchesBetween returns the records of sourceID with from <= fetched_at <= to, oldest first
func (s *Store) FetchesBetween(ctx context.Context, sourceID string, from, to time.Time) ([]contracts.FetchRecord, error) {
	query := `
		SELECT ` + fetchColumns + `
		FROM fetch_metadata
		WHERE source_id = $1 AND fetched_at >= $2 AND fetched_at <= $3
		ORDER BY fetched_at ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, sourceID, from, to)
	if err != nil {
		return nil, fmt.Errorf("query fetches between: %w", err)
	}
	return collectFetches(rows)
}

// LatestPerSource returns the newest record of every source, ordered by source_id
func (s *Store) LatestPerSource(ctx context.Context) ([]contracts.FetchRecord, error) {
	query := `
		SELECT DISTINCT ON (source_id) ` + fetchColumns + `
		FROM fetch_metadata
		ORDER BY source_id, fetched_at DESC, id DESC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query latest per source: %w", err)
	}
	return collectFetches(rows)
}

// InsertAlert appends an alert and sets its ID
func (s *Store) InsertAlert(ctx context.Context, alert *contracts.Alert) error {
	details := alert.Details
	if details == nil {
		details = map[string]any{}
	}
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("encode alert details: %w", err)
	}
	if alert.Status == "" {
		alert.Status = contracts.AlertOpen
	}

	return s.inTx(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO alerts (alert_type, source_id, severity, message, details, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id
		`

		err := tx.QueryRow(ctx, query,
			alert.AlertType,
			alert.SourceID,
			string(alert.Severity),
			alert.Message,
			detailsJSON,
			string(alert.Status),
			alert.CreatedAt,
		).Scan(&alert.ID)
		if err != nil {
			return fmt.Errorf("insert alert: %w", err)
		}
		return nil
	})
}

// ListAlerts returns alerts newest first; an empty status matches all
func (s *Store) ListAlerts(ctx context.Context, status contracts.AlertStatus, limit int) ([]contracts.Alert, error) {
	query := `
		SELECT ` + alertColumns + `
		FROM alerts
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := s.pool.Query(ctx, query, string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	alerts := []contracts.Alert{}
	for rows.Next() {
		var (
			a                contracts.Alert
			severity, status string
			details          []byte
		)
		if err := rows.Scan(&a.ID, &a.AlertType, &a.SourceID, &severity, &a.Message, &details, &status, &a.CreatedAt, &a.ResolvedAt); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}

		a.Severity = contracts.AlertSeverity(severity)
		a.Status = contracts.AlertStatus(status)
		if len(details) > 0 {
			if err := json.Unmarshal(details, &a.Details); err != nil {
				return nil, fmt.Errorf("decode alert details: %w", err)
			}
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alerts: %w", err)
	}
	return alerts, nil
}

// HasOpenAlert reports whether sourceID has an open alert of alertType
func (s *Store) HasOpenAlert(ctx context.Context, sourceID, alertType string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM alerts
			WHERE source_id = $1 AND alert_type = $2 AND status = $3
		)
	`, sourceID, alertType, string(contracts.AlertOpen)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query open alert: %w", err)
	}
	return exists, nil
}

// ResolveAlert marks an alert resolved; the first resolution time is kept
func (s *Store) ResolveAlert(ctx context.Context, id int64, at time.Time) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE alerts
			SET status = $1, resolved_at = COALESCE(resolved_at, $2)
			WHERE id = $3
		`, string(contracts.AlertResolved), at, id)
		if err != nil {
			return fmt.Errorf("resolve alert: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("alert %d: %w", id, contracts.ErrNotFound)
		}
		return nil
	})
}

// InsertHealth appends a health snapshot and sets its ID
func (s *Store) InsertHealth(ctx context.Context, h *contracts.SourceHealth) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO source_health (
				source_id, checked_at, status, success_rate_24h, avg_response_time_ms,
				data_freshness_hours, quality_score, last_success, last_failure, consecutive_failures
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id
		`

		err := tx.QueryRow(ctx, query,
			h.SourceID,
			h.CheckedAt,
			string(h.Status),
			h.SuccessRate24h,
			h.AvgResponseTimeMS,
			h.DataFreshnessHours,
			h.QualityScore,
			h.LastSuccess,
			h.LastFailure,
			h.ConsecutiveFailures,
		).Scan(&h.ID)
		if err != nil {
			return fmt.Errorf("insert source health: %w", err)
		}
		return nil
	})
}

// LatestHealth returns the newest snapshot of sourceID or contracts.ErrNotFound
func (s *Store) LatestHealth(ctx context.Context, sourceID string) (*contracts.SourceHealth, error) {
	query := `
		SELECT id, source_id, checked_at, status, success_rate_24h, avg_response_time_ms,
			data_freshness_hours, quality_score, last_success, last_failure, consecutive_failures
		FROM source_health
		WHERE source_id = $1
		ORDER BY checked_at DESC, id DESC
		LIMIT 1
	`

	var (
		h      contracts.SourceHealth
		status string
	)
	err := s.pool.QueryRow(ctx, query, sourceID).Scan(
		&h.ID, &h.SourceID, &h.CheckedAt, &status, &h.SuccessRate24h, &h.AvgResponseTimeMS,
		&h.DataFreshnessHours, &h.QualityScore, &h.LastSuccess, &h.LastFailure, &h.ConsecutiveFailures,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("health of %s: %w", sourceID, contracts.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get latest source health: %w", err)
	}

	h.Status = contracts.HealthStatus(status)
	return &h, nil
}

// InsertReconciliation appends a reconciliation result and sets its ID
func (s *Store) InsertReconciliation(ctx context.Context, check *contracts.ReconciliationCheck) error {
	sourcesJSON, err := json.Marshal(check.Sources)
	if err != nil {
		return fmt.Errorf("encode sources: %w", err)
	}
	discJSON, err := json.Marshal(check.Discrepancies)
	if err != nil {
		return fmt.Errorf("encode discrepancies: %w", err)
	}

	return s.inTx(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO reconciliation_checks (check_type, sources, checked_at, agreement_score, discrepancies, passed, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id
		`

		err := tx.QueryRow(ctx, query,
			check.CheckType,
			sourcesJSON,
			check.CheckedAt,
			check.AgreementScore,
			discJSON,
			check.Passed,
			optString(check.Notes),
		).Scan(&check.ID)
		if err != nil {
			return fmt.Errorf("insert reconciliation check: %w", err)
		}
		return nil
	})
}

// UpsertContract stores the contract definition keyed by source_id
func (s *Store) UpsertContract(ctx context.Context, c contracts.DataContract) error {
	def, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode contract: %w", err)
	}

	return s.inTx(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO data_contracts (source_id, source_name, max_lag_hours, max_lag_days, update_frequency, definition, active, last_updated)
			VALUES ($1, $2, $3, $4, $5, $6, TRUE, NOW())
			ON CONFLICT (source_id) DO UPDATE SET
				source_name = EXCLUDED.source_name,
				max_lag_hours = EXCLUDED.max_lag_hours,
				max_lag_days = EXCLUDED.max_lag_days,
				update_frequency = EXCLUDED.update_frequency,
				definition = EXCLUDED.definition,
				active = TRUE,
				last_updated = NOW()
		`

		_, err := tx.Exec(ctx, query,
			c.SourceID,
			c.SourceName,
			optFloat(c.FreshnessSLA.MaxLagHours),
			optFloat(c.FreshnessSLA.MaxLagDays),
			c.UpdateFrequency,
			def,
		)
		if err != nil {
			return fmt.Errorf("upsert contract %s: %w", c.SourceID, err)
		}
		return nil
	})
}

func collectFetches(rows pgx.Rows) ([]contracts.FetchRecord, error) {
	defer rows.Close()

	records := []contracts.FetchRecord{}
	for rows.Next() {
		var (
			rec      contracts.FetchRecord
			errMsg   *string
			errsJSON []byte
		)
		err := rows.Scan(
			&rec.ID, &rec.SourceID, &rec.SourceURL, &rec.FetchedAt, &rec.ResponseTimeMS, &rec.StatusCode,
			&rec.Success, &errMsg, &rec.ContentHash, &rec.DataSizeBytes, &rec.RowCount,
			&rec.ValidationPassed, &errsJSON, &rec.DataQualityScore,
		)
		if err != nil {
			return nil, fmt.Errorf("scan fetch metadata: %w", err)
		}

		if errMsg != nil {
			rec.ErrorMessage = *errMsg
		}
		rec.ValidationErrors = []contracts.ValidationError{}
		if len(errsJSON) > 0 {
			if err := json.Unmarshal(errsJSON, &rec.ValidationErrors); err != nil {
				return nil, fmt.Errorf("decode validation errors: %w", err)
			}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fetches: %w", err)
	}
	return records, nil
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optFloat(f float64) *float64 {
	if f <= 0 {
		return nil
	}
	return &f
}
