package scheduler

import (
	"context"
	"time"
)

// historyLimit caps the results kept per job
const historyLimit = 100

// Job represents a scheduled job
// ⭐ SSOT: 스케줄 작업 인터페이스는 여기서만 정의
type Job interface {
	// Name returns the job name
	Name() string

	// Run executes the job. ctx is cancelled when the scheduler stops.
	Run(ctx context.Context) error

	// Schedule returns the cron schedule expression (with seconds)
	// Examples: "0 */15 * * * *" (every 15 minutes)
	//           "@every 5m", "@hourly"
	Schedule() string
}

// JobResult is one scheduled run, retries included
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Attempts  int           `json:"attempts"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// JobHistory stores the latest results of a job, oldest first
type JobHistory struct {
	Results []JobResult
}

// AddResult appends result, dropping the oldest beyond historyLimit
func (h *JobHistory) AddResult(result JobResult) {
	h.Results = append(h.Results, result)
	if len(h.Results) > historyLimit {
		h.Results = h.Results[len(h.Results)-historyLimit:]
	}
}

// Latest returns the newest result
func (h *JobHistory) Latest() (JobResult, bool) {
	if len(h.Results) == 0 {
		return JobResult{}, false
	}
	return h.Results[len(h.Results)-1], true
}

// LastWhere returns the start time of the newest result with the given outcome
func (h *JobHistory) LastWhere(success bool) *time.Time {
	for i := len(h.Results) - 1; i >= 0; i-- {
		if h.Results[i].Success == success {
			t := h.Results[i].StartTime
			return &t
		}
	}
	return nil
}

// Failures counts failed results
func (h *JobHistory) Failures() int {
	n := 0
	for _, r := range h.Results {
		if !r.Success {
			n++
		}
	}
	return n
}

// ConsecutiveFailures counts failed results from the newest backwards
func (h *JobHistory) ConsecutiveFailures() int {
	n := 0
	for i := len(h.Results) - 1; i >= 0 && !h.Results[i].Success; i-- {
		n++
	}
	return n
}

// SuccessRate returns the share of successful results (0.0 - 1.0)
func (h *JobHistory) SuccessRate() float64 {
	if len(h.Results) == 0 {
		return 0.0
	}
	return float64(len(h.Results)-h.Failures()) / float64(len(h.Results))
}
