package jobs

import (
	"context"

	"github.com/wonny/evlq/internal/contracts"
	"github.com/wonny/evlq/internal/health"
	"github.com/wonny/evlq/pkg/logger"
)

// SourceHealthJob recomputes the health of every registered source
type SourceHealthJob struct {
	monitor  *health.Monitor
	schedule string
	logger   *logger.Logger
}

// NewSourceHealthJob creates the job. An empty schedule runs every 15 minutes.
func NewSourceHealthJob(monitor *health.Monitor, schedule string, log *logger.Logger) *SourceHealthJob {
	if schedule == "" {
		schedule = "0 */15 * * * *"
	}
	return &SourceHealthJob{
		monitor:  monitor,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *SourceHealthJob) Name() string {
	return "source-health"
}

// Schedule returns the cron schedule
func (j *SourceHealthJob) Schedule() string {
	return j.schedule
}

// Run checks all sources. Partial failures fail the run so it is retried.
func (j *SourceHealthJob) Run(ctx context.Context) error {
	reports, err := j.monitor.CheckAll(ctx)

	counts := map[contracts.HealthStatus]int{}
	for _, r := range reports {
		counts[r.Health.Status]++
	}

	j.logger.WithFields(map[string]interface{}{
		"checked":  len(reports),
		"healthy":  counts[contracts.HealthHealthy],
		"degraded": counts[contracts.HealthDegraded],
		"down":     counts[contracts.HealthDown],
	}).Info("Source health check completed")

	return err
}
