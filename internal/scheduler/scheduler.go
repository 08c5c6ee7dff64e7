package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/wonny/dietdash/internal/contracts"
	"github.com/wonny/dietdash/pkg/logger"
)

// Scheduler runs jobs on cron schedules
// ⭐ SSOT: background work is scheduled only through this type
type Scheduler struct {
	cron    *cron.Cron
	logger  *logger.Logger
	jobs    map[string]Job
	entries map[string]cron.EntryID
	history map[string]*JobHistory
	mu      sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc

	maxRetries int
	retryDelay time.Duration
	jobTimeout time.Duration
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithRetry sets how often a failed run is retried and the pause between tries
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(s *Scheduler) {
		s.maxRetries = maxRetries
		s.retryDelay = delay
	}
}

// WithJobTimeout bounds every attempt
func WithJobTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		s.jobTimeout = d
	}
}

// New creates a scheduler; overlapping runs of one job are skipped
func New(log *logger.Logger, opts ...Option) *Scheduler {
	log = log.WithComponent("scheduler")
	cl := cronLogger{log: log}
	ctx, cancel := context.WithCancel(context.Background())

	s := &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger:     log,
		jobs:       make(map[string]Job),
		entries:    make(map[string]cron.EntryID),
		history:    make(map[string]*JobHistory),
		ctx:        ctx,
		cancel:     cancel,
		maxRetries: 2,
		retryDelay: 10 * time.Second,
		jobTimeout: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddJob registers job on its schedule
func (s *Scheduler) AddJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already exists", name)
	}

	id, err := s.cron.AddFunc(job.Schedule(), func() {
		s.runJob(s.ctx, job)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", name, err)
	}

	s.jobs[name] = job
	s.entries[name] = id
	s.history[name] = &JobHistory{}

	s.logger.WithFields(map[string]interface{}{
		"job":      name,
		"schedule": job.Schedule(),
	}).Info("Job added to scheduler")

	return nil
}

// RemoveJob unschedules a job; its history is kept
func (s *Scheduler) RemoveJob(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, exists := s.entries[name]
	if !exists {
		return fmt.Errorf("job %s not found", name)
	}

	s.cron.Remove(id)
	delete(s.jobs, name)
	delete(s.entries, name)
	s.logger.WithField("job", name).Info("Job removed from scheduler")

	return nil
}

// Start starts the cron loop
func (s *Scheduler) Start() {
	s.logger.Info("Starting scheduler")
	s.cron.Start()
}

// Stop cancels running jobs and waits for them to return
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	s.cancel()
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

// RunNow executes a registered job immediately and waits for the result
func (s *Scheduler) RunNow(ctx context.Context, name string) (JobResult, error) {
	s.mu.RLock()
	job, exists := s.jobs[name]
	s.mu.RUnlock()

	if !exists {
		return JobResult{}, fmt.Errorf("job %s not found", name)
	}
	return s.runJob(ctx, job), nil
}

// runJob executes job, retrying failures except invalid-schema errors
func (s *Scheduler) runJob(ctx context.Context, job Job) JobResult {
	name := job.Name()
	result := JobResult{JobName: name, StartTime: time.Now()}

	s.logger.WithField("job", name).Debug("Job started")

	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		result.Attempts = attempt + 1

		lastErr = s.attempt(ctx, job)
		if lastErr == nil {
			result.Success = true
			break
		}
		if errors.Is(lastErr, contracts.ErrSchema) || ctx.Err() != nil || attempt == s.maxRetries {
			break
		}

		s.logger.WithFields(map[string]interface{}{
			"job":     name,
			"attempt": attempt + 1,
			"error":   lastErr.Error(),
		}).Warn("Job execution failed, retrying")

		select {
		case <-time.After(s.retryDelay):
		case <-ctx.Done():
		}
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	if !result.Success && lastErr != nil {
		result.Error = lastErr.Error()
	}

	s.mu.Lock()
	if h, exists := s.history[name]; exists {
		h.AddResult(result)
	}
	s.mu.Unlock()

	log := s.logger.WithFields(map[string]interface{}{
		"job":      name,
		"duration": result.Duration,
		"attempts": result.Attempts,
	})
	if result.Success {
		log.Debug("Job completed successfully")
	} else {
		log.WithError(lastErr).Error("Job failed")
	}

	return result
}

func (s *Scheduler) attempt(ctx context.Context, job Job) error {
	if s.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.jobTimeout)
		defer cancel()
	}
	return job.Run(ctx)
}

// JobHistory returns the history of a job
func (s *Scheduler) JobHistory(name string) (*JobHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, exists := s.history[name]
	if !exists {
		return nil, fmt.Errorf("job %s not found", name)
	}
	return h, nil
}

// Jobs returns registered job names in sorted order
func (s *Scheduler) Jobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// JobStats summarizes the history of one job
type JobStats struct {
	JobName      string     `json:"job_name"`
	Schedule     string     `json:"schedule"`
	TotalRuns    int        `json:"total_runs"`
	SuccessCount int        `json:"success_count"`
	FailureCount int        `json:"failure_count"`
	SuccessRate  float64    `json:"success_rate"`
	LastRun      *time.Time `json:"last_run,omitempty"`
	LastSuccess  *time.Time `json:"last_success,omitempty"`
	LastFailure  *time.Time `json:"last_failure,omitempty"`
}

// Stats returns statistics for every registered job
func (s *Scheduler) Stats() map[string]JobStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]JobStats, len(s.jobs))
	for name, job := range s.jobs {
		h := s.history[name]
		failed := len(h.Failures())

		st := JobStats{
			JobName:      name,
			Schedule:     job.Schedule(),
			TotalRuns:    len(h.Results),
			SuccessCount: len(h.Results) - failed,
			FailureCount: failed,
			SuccessRate:  h.SuccessRate(),
		}
		if latest := h.Latest(1); len(latest) == 1 {
			start := latest[0].StartTime
			st.LastRun = &start
			if latest[0].Success {
				st.LastSuccess = &start
			} else {
				st.LastFailure = &start
			}
		}
		stats[name] = st
	}
	return stats
}

// cronLogger routes robfig/cron log lines into the service logger
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(kvFields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.WithError(err).WithFields(kvFields(keysAndValues)).Error(msg)
}

func kvFields(kv []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return fields
}
