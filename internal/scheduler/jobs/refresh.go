// Package jobs holds the scheduled jobs of the dashboard.
package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/dietdash/internal/freshness"
	"github.com/wonny/dietdash/pkg/logger"
)

// Refresher is the part of the freshness cache a warm refresh needs
type Refresher interface {
	EnsureFresh(ctx context.Context) (*freshness.Snapshot, error)
}

// RefreshJob keeps the dataset generation warm so requests rarely pay for a
// recompute
type RefreshJob struct {
	cache    Refresher
	schedule string
	logger   *logger.Logger
	lastGen  string
}

// NewRefreshJob creates a refresh job running on schedule
func NewRefreshJob(cache Refresher, schedule string, log *logger.Logger) *RefreshJob {
	return &RefreshJob{
		cache:    cache,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *RefreshJob) Name() string {
	return "dataset_refresh"
}

// Schedule returns the configured cron expression
func (j *RefreshJob) Schedule() string {
	return j.schedule
}

// Run checks the source fingerprint and rebuilds when it changed.
// Serving stale data still counts as a failed run.
func (j *RefreshJob) Run(ctx context.Context) error {
	snap, err := j.cache.EnsureFresh(ctx)
	if err != nil {
		return fmt.Errorf("refresh dataset: %w", err)
	}

	if snap.Generation != j.lastGen {
		j.logger.WithFields(map[string]interface{}{
			"generation": snap.Generation,
			"rows":       snap.Table.Len(),
		}).Info("Dataset generation changed")
		j.lastGen = snap.Generation
	}
	return nil
}
