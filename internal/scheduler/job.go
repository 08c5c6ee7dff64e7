package scheduler

import (
	"context"
	"time"
)

// Job is a unit of scheduled work
// ⭐ SSOT: scheduled work implements this interface only
type Job interface {
	// Name returns the unique job name
	Name() string

	// Run executes the job once
	Run(ctx context.Context) error

	// Schedule returns a six-field cron expression (seconds first),
	// e.g. "0 */5 * * * *", or a descriptor such as "@hourly"
	Schedule() string
}

// JobResult is the outcome of one execution, retries included
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Attempts  int           `json:"attempts"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// historyLimit is how many results a JobHistory keeps
const historyLimit = 100

// JobHistory stores recent results of one job
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

// Latest returns the last n results, oldest first
func (h *JobHistory) Latest(n int) []JobResult {
	if n > len(h.Results) {
		n = len(h.Results)
	}
	if n <= 0 {
		return []JobResult{}
	}
	return h.Results[len(h.Results)-n:]
}

// Failures returns every failed result
func (h *JobHistory) Failures() []JobResult {
	failed := make([]JobResult, 0)
	for _, r := range h.Results {
		if !r.Success {
			failed = append(failed, r)
		}
	}
	return failed
}

// SuccessRate returns the share of successful results (0.0 - 1.0)
func (h *JobHistory) SuccessRate() float64 {
	if len(h.Results) == 0 {
		return 0
	}
	return float64(len(h.Results)-len(h.Failures())) / float64(len(h.Results))
}
