package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/evlq/internal/contracts"
	"github.com/wonny/evlq/internal/payload"
	"github.com/wonny/evlq/pkg/database"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newStore(t *testing.T) *Store {
	t.Helper()
	return New(database.OpenMemory(t))
}

func record(sourceID string, at time.Time, success bool) *contracts.FetchRecord {
	rec := &contracts.FetchRecord{
		SourceID:         sourceID,
		SourceURL:        "https://example.test/" + sourceID,
		FetchedAt:        at,
		ResponseTimeMS:   120.5,
		StatusCode:       200,
		Success:          success,
		ContentHash:      "abc123",
		DataSizeBytes:    42,
		RowCount:         3,
		ValidationPassed: success,
		DataQualityScore: 1.0,
	}
	if !success {
		rec.StatusCode = 0
		rec.ErrorMessage = "connection refused"
		rec.ContentHash = ""
		rec.DataQualityScore = 0
	}
	return rec
}

func TestInsertFetch_RoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	rec := record("entsoe", t0, true)
	rec.ValidationErrors = []contracts.ValidationError{
		{Field: "renewable_share", Message: "renewable_share = 1.5 above maximum 1", Severity: contracts.SeverityError, ActualValue: payload.Float(1.5)},
	}
	require.NoError(t, s.InsertFetch(ctx, rec))
	assert.NotZero(t, rec.ID)

	got, err := s.RecentFetches(ctx, "entsoe", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, rec.ID, got[0].ID)
	assert.True(t, got[0].FetchedAt.Equal(t0))
	assert.Equal(t, 200, got[0].StatusCode)
	assert.Equal(t, "abc123", got[0].ContentHash)
	assert.Empty(t, got[0].ErrorMessage)
	require.Len(t, got[0].ValidationErrors, 1)
	assert.True(t, got[0].ValidationErrors[0].ActualValue.Equal(payload.Float(1.5)))
}

func TestRecentFetches_NewestFirstAndLimit(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.InsertFetch(ctx, record("eafo", t0.Add(time.Duration(i)*time.Minute), true)))
	}
	require.NoError(t, s.InsertFetch(ctx, record("entsoe", t0.Add(time.Hour), true)))

	got, err := s.RecentFetches(ctx, "eafo", 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.True(t, got[0].FetchedAt.Equal(t0.Add(4*time.Minute)))
	assert.True(t, got[2].FetchedAt.Equal(t0.Add(2*time.Minute)))

	none, err := s.RecentFetches(ctx, "unknown", 10)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestRecentFetches_SubSecondOrdering(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertFetch(ctx, record("eafo", t0.Add(500*time.Millisecond), true)))
	require.NoError(t, s.InsertFetch(ctx, record("eafo", t0, true)))

	got, err := s.RecentFetches(ctx, "eafo", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].FetchedAt.Equal(t0.Add(500*time.Millisecond)))
}

func TestFetchesBetween(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertFetch(ctx, record("eafo", t0.Add(-48*time.Hour), true)))
	require.NoError(t, s.InsertFetch(ctx, record("eafo", t0.Add(-2*time.Hour), false)))
	require.NoError(t, s.InsertFetch(ctx, record("eafo", t0.Add(-1*time.Hour), true)))

	got, err := s.FetchesBetween(ctx, "eafo", t0.Add(-24*time.Hour), t0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.False(t, got[0].Success)
	assert.Equal(t, "connection refused", got[0].ErrorMessage)
	assert.True(t, got[1].Success)
}

func TestLatestPerSource(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertFetch(ctx, record("entsoe", t0, true)))
	require.NoError(t, s.InsertFetch(ctx, record("entsoe", t0.Add(time.Hour), false)))
	require.NoError(t, s.InsertFetch(ctx, record("eafo", t0, true)))

	got, err := s.LatestPerSource(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "eafo", got[0].SourceID)
	assert.Equal(t, "entsoe", got[1].SourceID)
	assert.False(t, got[1].Success)
}

func TestAlerts_Lifecycle(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	alert := &contracts.Alert{
		AlertType: contracts.AlertTypeStaleness,
		SourceID:  "eurostat",
		Severity:  contracts.AlertWarning,
		Message:   "Data stale: 400.0d > 365d SLA",
		Details:   map[string]any{"age_hours": 9600.0},
		CreatedAt: t0,
	}
	require.NoError(t, s.InsertAlert(ctx, alert))
	assert.Equal(t, contracts.AlertOpen, alert.Status)

	open, err := s.ListAlerts(ctx, contracts.AlertOpen, 10)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, 9600.0, open[0].Details["age_hours"])
	assert.Nil(t, open[0].ResolvedAt)

	require.NoError(t, s.ResolveAlert(ctx, alert.ID, t0.Add(time.Hour)))
	require.NoError(t, s.ResolveAlert(ctx, alert.ID, t0.Add(2*time.Hour)))

	open, err = s.ListAlerts(ctx, contracts.AlertOpen, 10)
	require.NoError(t, err)
	assert.Empty(t, open)

	all, err := s.ListAlerts(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, contracts.AlertResolved, all[0].Status)
	require.NotNil(t, all[0].ResolvedAt)
	assert.True(t, all[0].ResolvedAt.Equal(t0.Add(time.Hour)), "first resolution time is kept")

	err = s.ResolveAlert(ctx, 9999, t0)
	assert.ErrorIs(t, err, contracts.ErrNotFound)
}

func TestAlerts_HasOpenAlert(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	alert := &contracts.Alert{
		AlertType: contracts.AlertTypeSourceDown,
		SourceID:  "entsoe",
		Severity:  contracts.AlertCritical,
		CreatedAt: t0,
	}
	require.NoError(t, s.InsertAlert(ctx, alert))

	open, err := s.HasOpenAlert(ctx, "entsoe", contracts.AlertTypeSourceDown)
	require.NoError(t, err)
	assert.True(t, open)

	open, err = s.HasOpenAlert(ctx, "entsoe", contracts.AlertTypeStaleness)
	require.NoError(t, err)
	assert.False(t, open, "other alert type")

	open, err = s.HasOpenAlert(ctx, "eafo", contracts.AlertTypeSourceDown)
	require.NoError(t, err)
	assert.False(t, open, "other source")

	require.NoError(t, s.ResolveAlert(ctx, alert.ID, t0))
	open, err = s.HasOpenAlert(ctx, "entsoe", contracts.AlertTypeSourceDown)
	require.NoError(t, err)
	assert.False(t, open, "resolved alerts do not count")
}

func TestHealth_Latest(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.LatestHealth(ctx, "entsoe")
	assert.ErrorIs(t, err, contracts.ErrNotFound)

	last := t0.Add(-time.Hour)
	require.NoError(t, s.InsertHealth(ctx, &contracts.SourceHealth{
		SourceID: "entsoe", CheckedAt: t0, Status: contracts.HealthDegraded, SuccessRate24h: 0.8,
	}))
	require.NoError(t, s.InsertHealth(ctx, &contracts.SourceHealth{
		SourceID: "entsoe", CheckedAt: t0.Add(15 * time.Minute), Status: contracts.HealthHealthy,
		SuccessRate24h: 1, LastSuccess: &last,
	}))

	h, err := s.LatestHealth(ctx, "entsoe")
	require.NoError(t, err)
	assert.Equal(t, contracts.HealthHealthy, h.Status)
	require.NotNil(t, h.LastSuccess)
	assert.True(t, h.LastSuccess.Equal(last))
	assert.Nil(t, h.LastFailure)
}

func TestInsertReconciliation(t *testing.T) {
	s := newStore(t)

	check := &contracts.ReconciliationCheck{
		CheckType:      "charger_count",
		Sources:        []string{"openchargemap", "eafo"},
		CheckedAt:      t0,
		AgreementScore: 0.95,
		Discrepancies:  map[string]float64{"eafo": 0.05},
		Passed:         true,
	}
	require.NoError(t, s.InsertReconciliation(context.Background(), check))
	assert.NotZero(t, check.ID)
}

func TestUpsertContract(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	c := contracts.DataContract{SourceID: "entsoe", SourceName: "ENTSO-E", FreshnessSLA: contracts.FreshnessSLA{MaxLagHours: 6}}
	require.NoError(t, s.UpsertContract(ctx, c))
	c.SourceName = "ENTSO-E Transparency Platform"
	require.NoError(t, s.UpsertContract(ctx, c))

	var name string
	var n int
	require.NoError(t, s.db.QueryRow(`SELECT source_name, (SELECT COUNT(*) FROM data_contracts) FROM data_contracts WHERE source_id = 'entsoe'`).Scan(&name, &n))
	assert.Equal(t, "ENTSO-E Transparency Platform", name)
	assert.Equal(t, 1, n)
}

func TestInsertFetch_RollbackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO fetch_metadata").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err = New(db).InsertFetch(context.Background(), record("entsoe", t0, true))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertFetch_CommitError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO fetch_metadata").WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectCommit().WillReturnError(errors.New("database is locked"))

	rec := record("entsoe", t0, true)
	err = New(db).InsertFetch(context.Background(), rec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "commit tx")
	assert.NoError(t, mock.ExpectationsWereMet())
}
