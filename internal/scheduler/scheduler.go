// Package scheduler runs jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"portfolioSim/internal/ports"
)

// Job represents a scheduled job
type Job interface {
	Run() error
	Name() string
}

// Scheduler manages background jobs
type Scheduler struct {
	cron   *cron.Cron
	logger ports.Logger
}

// New creates a scheduler using standard five-field cron specs.
func New(logger ports.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		logger: logger,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info(context.Background(), "Scheduler started", map[string]interface{}{"jobs": len(s.cron.Entries())})
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info(context.Background(), "Scheduler stopped")
}

// AddJob registers a job with a cron schedule, e.g. "15 9 * * MON-FRI" or "@every 1h".
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() { s.run(job) })
	if err != nil {
		return fmt.Errorf("invalid schedule %q for job %s: %w", schedule, job.Name(), err)
	}

	s.logger.Info(context.Background(), "Job registered", map[string]interface{}{"schedule": schedule, "job": job.Name()})
	return nil
}

// RunNow executes a job immediately (outside schedule)
func (s *Scheduler) RunNow(job Job) error {
	s.logger.Info(context.Background(), "Running job immediately", map[string]interface{}{"job": job.Name()})
	return job.Run()
}

func (s *Scheduler) run(job Job) {
	ctx := context.Background()
	s.logger.Debug(ctx, "Running job", map[string]interface{}{"job": job.Name()})
	if err := job.Run(); err != nil {
		s.logger.Error(ctx, err, "Job failed", map[string]interface{}{"job": job.Name()})
		return
	}
	s.logger.Debug(ctx, "Job completed", map[string]interface{}{"job": job.Name()})
}
