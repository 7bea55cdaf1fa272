package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/evlq/internal/recorder"
	"github.com/wonny/evlq/internal/store/sqlite"
	"github.com/wonny/evlq/pkg/database"
	"github.com/wonny/evlq/pkg/logger"
)

var at = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestCompare_Agreement(t *testing.T) {
	check := Compare("uk_bev_registrations", map[string]float64{
		"eafo":                  1000,
		"dft_vehicle_licensing": 950,
		"eurostat":              900,
	}, 0.15, at)

	assert.Equal(t, []string{"dft_vehicle_licensing", "eafo", "eurostat"}, check.Sources)
	assert.InDelta(t, 0.9, check.AgreementScore, 1e-9)
	assert.True(t, check.Passed)
	assert.InDelta(t, 0.0, check.Discrepancies["dft_vehicle_licensing"], 1e-9)
	assert.InDelta(t, 50.0/950, check.Discrepancies["eafo"], 1e-9)
	assert.InDelta(t, -50.0/950, check.Discrepancies["eurostat"], 1e-9)
	assert.True(t, check.CheckedAt.Equal(at))
}

func TestCompare_FailsOutsideTolerance(t *testing.T) {
	check := Compare("grid_demand_mw", map[string]float64{"entsoe": 30000, "national_grid_eso": 20000}, 0.1, at)
	assert.InDelta(t, 2.0/3, check.AgreementScore, 1e-9)
	assert.False(t, check.Passed)
	assert.InDelta(t, 0.2, check.Discrepancies["entsoe"], 1e-9)
}

func TestCompare_EdgeCases(t *testing.T) {
	single := Compare("x", map[string]float64{"a": 5}, 0, at)
	assert.Equal(t, 1.0, single.AgreementScore)
	assert.True(t, single.Passed)

	zeros := Compare("x", map[string]float64{"a": 0, "b": 0}, 0, at)
	assert.Equal(t, 1.0, zeros.AgreementScore)
	assert.Equal(t, 0.0, zeros.Discrepancies["a"])

	equal := Compare("x", map[string]float64{"a": 7, "b": 7, "c": 7}, 0, at)
	assert.Equal(t, 1.0, equal.AgreementScore)
}

func TestReconciler_RunStores(t *testing.T) {
	db := database.OpenMemory(t)
	r := New(recorder.New(sqlite.New(db), logger.Nop()))

	check := r.Run(context.Background(), "charger_count", map[string]float64{"openchargemap": 100, "osm_traffic": 98}, 0.05)
	require.True(t, check.Passed)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM reconciliation_checks`).Scan(&n))
	assert.Equal(t, 1, n)
	assert.NotZero(t, check.ID)
}
