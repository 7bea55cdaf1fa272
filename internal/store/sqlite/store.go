// Package sqlite is the embedded record store used when no DATABASE_URL is set.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/evlq/internal/contracts"
)

// timeLayout has a fixed width so TEXT columns sort chronologically
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const fetchColumns = `id, source_id, source_url, fetched_at, response_time_ms, status_code, success,
	error_message, content_hash, data_size_bytes, row_count, validation_passed,
	validation_errors, data_quality_score`

const healthColumns = `id, source_id, checked_at, status, success_rate_24h, avg_response_time_ms,
	data_freshness_hours, quality_score, last_success, last_failure, consecutive_failures`

const alertColumns = `id, alert_type, source_id, severity, message, details, status, created_at, resolved_at`

// Store implements contracts.Store on database/sql with the modernc driver
// ⭐ SSOT: SQLite 영속화는 이 Store에서만
type Store struct {
	db *sql.DB
}

// New wraps an opened database (see database.OpenSQLite)
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

var _ contracts.Store = (*Store)(nil)

// Ping checks the database connection
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// inTx runs fn in its own transaction: commit on success, rollback otherwise
func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
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

	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO fetch_metadata (
				source_id, source_url, fetched_at, response_time_ms, status_code, success,
				error_message, content_hash, data_size_bytes, row_count, validation_passed,
				validation_errors, data_quality_score
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.SourceID,
			rec.SourceURL,
			formatTime(rec.FetchedAt),
			rec.ResponseTimeMS,
			rec.StatusCode,
			rec.Success,
			nullString(rec.ErrorMessage),
			rec.ContentHash,
			rec.DataSizeBytes,
			rec.RowCount,
			rec.ValidationPassed,
			string(errsJSON),
			rec.DataQualityScore,
		)
		if err != nil {
			return fmt.Errorf("insert fetch metadata: %w", err)
		}

		if id, err := res.LastInsertId(); err == nil {
			rec.ID = id
		}
		return nil
	})
}

// RecentFetches returns up to limit records for sourceID, newest first
func (s *Store) RecentFetches(ctx context.Context, sourceID string, limit int) ([]contracts.FetchRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+fetchColumns+`
		FROM fetch_metadata
		WHERE source_id = ?
		ORDER BY fetched_at DESC, id DESC
		LIMIT ?`,
		sourceID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent fetches: %w", err)
	}
	return collectFetches(rows)
}

// FetchesBetween returns the records of sourceID with from <= fetched_at <= to, oldest first
func (s *Store) FetchesBetween(ctx context.Context, sourceID string, from, to time.Time) ([]contracts.FetchRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+fetchColumns+`
		FROM fetch_metadata
		WHERE source_id = ? AND fetched_at >= ? AND fetched_at <= ?
		ORDER BY fetched_at ASC, id ASC`,
		sourceID, formatTime(from), formatTime(to),
	)
	if err != nil {
		return nil, fmt.Errorf("query fetches between: %w", err)
	}
	return collectFetches(rows)
}

// LatestPerSource returns the newest record of every source, ordered by source_id
func (s *Store) LatestPerSource(ctx context.Context) ([]contracts.FetchRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+fetchColumns+`
		FROM fetch_metadata f
		WHERE f.id = (
			SELECT g.id FROM fetch_metadata g
			WHERE g.source_id = f.source_id
			ORDER BY g.fetched_at DESC, g.id DESC
			LIMIT 1
		)
		ORDER BY f.source_id`,
	)
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

	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO alerts (alert_type, source_id, severity, message, details, status, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			alert.AlertType,
			alert.SourceID,
			string(alert.Severity),
			alert.Message,
			string(detailsJSON),
			string(alert.Status),
			formatTime(alert.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("insert alert: %w", err)
		}

		if id, err := res.LastInsertId(); err == nil {
			alert.ID = id
		}
		return nil
	})
}

// ListAlerts returns alerts newest first; an empty status matches all
func (s *Store) ListAlerts(ctx context.Context, status contracts.AlertStatus, limit int) ([]contracts.Alert, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+alertColumns+`
		FROM alerts
		WHERE (? = '' OR status = ?)
		ORDER BY created_at DESC, id DESC
		LIMIT ?`,
		string(status), string(status), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	alerts := []contracts.Alert{}
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
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
	var exists int
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM alerts
			WHERE source_id = ? AND alert_type = ? AND status = ?
		)`,
		sourceID, alertType, string(contracts.AlertOpen),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query open alert: %w", err)
	}
	return exists == 1, nil
}

// ResolveAlert marks an alert resolved; the first resolution time is kept
func (s *Store) ResolveAlert(ctx context.Context, id int64, at time.Time) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE alerts
			SET status = ?, resolved_at = COALESCE(resolved_at, ?)
			WHERE id = ?`,
			string(contracts.AlertResolved), formatTime(at), id,
		)
		if err != nil {
			return fmt.Errorf("resolve alert: %w", err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("resolve alert: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("alert %d: %w", id, contracts.ErrNotFound)
		}
		return nil
	})
}

// InsertHealth appends a health snapshot and sets its ID
func (s *Store) InsertHealth(ctx context.Context, h *contracts.SourceHealth) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO source_health (
				source_id, checked_at, status, success_rate_24h, avg_response_time_ms,
				data_freshness_hours, quality_score, last_success, last_failure, consecutive_failures
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			h.SourceID,
			formatTime(h.CheckedAt),
			string(h.Status),
			h.SuccessRate24h,
			h.AvgResponseTimeMS,
			h.DataFreshnessHours,
			h.QualityScore,
			nullTime(h.LastSuccess),
			nullTime(h.LastFailure),
			h.ConsecutiveFailures,
		)
		if err != nil {
			return fmt.Errorf("insert source health: %w", err)
		}

		if id, err := res.LastInsertId(); err == nil {
			h.ID = id
		}
		return nil
	})
}

// LatestHealth returns the newest snapshot of sourceID or contracts.ErrNotFound
func (s *Store) LatestHealth(ctx context.Context, sourceID string) (*contracts.SourceHealth, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+healthColumns+`
		FROM source_health
		WHERE source_id = ?
		ORDER BY checked_at DESC, id DESC
		LIMIT 1`,
		sourceID,
	)

	var (
		h                        contracts.SourceHealth
		checkedAt, status        string
		lastSuccess, lastFailure sql.NullString
	)
	err := row.Scan(
		&h.ID, &h.SourceID, &checkedAt, &status, &h.SuccessRate24h, &h.AvgResponseTimeMS,
		&h.DataFreshnessHours, &h.QualityScore, &lastSuccess, &lastFailure, &h.ConsecutiveFailures,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("health of %s: %w", sourceID, contracts.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan source health: %w", err)
	}

	h.Status = contracts.HealthStatus(status)
	if h.CheckedAt, err = parseTime(checkedAt); err != nil {
		return nil, err
	}
	if h.LastSuccess, err = parseNullTime(lastSuccess); err != nil {
		return nil, err
	}
	if h.LastFailure, err = parseNullTime(lastFailure); err != nil {
		return nil, err
	}
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

	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO reconciliation_checks (check_type, sources, checked_at, agreement_score, discrepancies, passed, notes)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			check.CheckType,
			string(sourcesJSON),
			formatTime(check.CheckedAt),
			check.AgreementScore,
			string(discJSON),
			check.Passed,
			nullString(check.Notes),
		)
		if err != nil {
			return fmt.Errorf("insert reconciliation check: %w", err)
		}

		if id, err := res.LastInsertId(); err == nil {
			check.ID = id
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

	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO data_contracts (source_id, source_name, max_lag_hours, max_lag_days, update_frequency, definition, active, last_updated)
			VALUES (?, ?, ?, ?, ?, ?, 1, ?)
			ON CONFLICT (source_id) DO UPDATE SET
				source_name = excluded.source_name,
				max_lag_hours = excluded.max_lag_hours,
				max_lag_days = excluded.max_lag_days,
				update_frequency = excluded.update_frequency,
				definition = excluded.definition,
				active = 1,
				last_updated = excluded.last_updated`,
			c.SourceID,
			c.SourceName,
			nullFloat(c.FreshnessSLA.MaxLagHours),
			nullFloat(c.FreshnessSLA.MaxLagDays),
			c.UpdateFrequency,
			string(def),
			formatTime(time.Now()),
		)
		if err != nil {
			return fmt.Errorf("upsert contract %s: %w", c.SourceID, err)
		}
		return nil
	})
}

type scanner interface {
	Scan(dest ...any) error
}

func collectFetches(rows *sql.Rows) ([]contracts.FetchRecord, error) {
	defer rows.Close()

	records := []contracts.FetchRecord{}
	for rows.Next() {
		rec, err := scanFetch(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fetches: %w", err)
	}
	return records, nil
}

func scanFetch(row scanner) (contracts.FetchRecord, error) {
	var (
		rec       contracts.FetchRecord
		fetchedAt string
		errMsg    sql.NullString
		errsJSON  string
	)

	err := row.Scan(
		&rec.ID, &rec.SourceID, &rec.SourceURL, &fetchedAt, &rec.ResponseTimeMS, &rec.StatusCode,
		&rec.Success, &errMsg, &rec.ContentHash, &rec.DataSizeBytes, &rec.RowCount,
		&rec.ValidationPassed, &errsJSON, &rec.DataQualityScore,
	)
	if err != nil {
		return rec, fmt.Errorf("scan fetch metadata: %w", err)
	}

	if rec.FetchedAt, err = parseTime(fetchedAt); err != nil {
		return rec, err
	}
	rec.ErrorMessage = errMsg.String

	rec.ValidationErrors = []contracts.ValidationError{}
	if errsJSON != "" {
		if err := json.Unmarshal([]byte(errsJSON), &rec.ValidationErrors); err != nil {
			return rec, fmt.Errorf("decode validation errors: %w", err)
		}
	}
	return rec, nil
}

func scanAlert(row scanner) (contracts.Alert, error) {
	var (
		a                         contracts.Alert
		severity, status, created string
		details                   string
		resolved                  sql.NullString
	)

	err := row.Scan(&a.ID, &a.AlertType, &a.SourceID, &severity, &a.Message, &details, &status, &created, &resolved)
	if err != nil {
		return a, fmt.Errorf("scan alert: %w", err)
	}

	a.Severity = contracts.AlertSeverity(severity)
	a.Status = contracts.AlertStatus(status)
	if a.CreatedAt, err = parseTime(created); err != nil {
		return a, err
	}
	if a.ResolvedAt, err = parseNullTime(resolved); err != nil {
		return a, err
	}
	if details != "" {
		if err := json.Unmarshal([]byte(details), &a.Details); err != nil {
			return a, fmt.Errorf("decode alert details: %w", err)
		}
	}
	return a, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t.UTC(), nil
}

func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(f float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: f, Valid: f > 0}
}
