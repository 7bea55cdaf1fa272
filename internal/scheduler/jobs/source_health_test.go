package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/evlq/internal/contracts"
	"github.com/wonny/evlq/internal/health"
	"github.com/wonny/evlq/internal/recorder"
	"github.com/wonny/evlq/internal/registry"
	"github.com/wonny/evlq/internal/store/sqlite"
	"github.com/wonny/evlq/pkg/database"
	"github.com/wonny/evlq/pkg/logger"
	"github.com/wonny/evlq/pkg/redis"
)

func TestSourceHealthJob(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := recorder.New(sqlite.New(database.OpenMemory(t)), logger.Nop())
	monitor := health.NewMonitor(registry.NewDefault(), rec, redis.NewCache(redis.Disabled(), "evlq"), logger.Nop(),
		health.WithClock(func() time.Time { return now }))

	rec.StoreFetchMetadata(context.Background(), &contracts.FetchRecord{
		SourceID: "entsoe", FetchedAt: now.Add(-time.Hour), StatusCode: 200, Success: true, DataQualityScore: 1.0,
	})

	job := NewSourceHealthJob(monitor, "", logger.Nop())
	assert.Equal(t, "source-health", job.Name())
	assert.Equal(t, "0 */15 * * * *", job.Schedule())

	require.NoError(t, job.Run(context.Background()))

	h, err := rec.Store().LatestHealth(context.Background(), "entsoe")
	require.NoError(t, err)
	assert.Equal(t, contracts.HealthHealthy, h.Status)
}
