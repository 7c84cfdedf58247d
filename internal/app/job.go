package app

import (
	"context"
	"time"
)

// CatchUpJob runs SimulationService.CatchUp on a schedule. It satisfies
// scheduler.Job.
type CatchUpJob struct {
	Service *SimulationService
	Timeout time.Duration // Zero means no timeout
}

// Name implements scheduler.Job.
func (j CatchUpJob) Name() string { return "simulation-catch-up" }

// Run implements scheduler.Job.
func (j CatchUpJob) Run() error {
	ctx := context.Background()
	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}
	_, err := j.Service.CatchUp(ctx)
	return err
}
