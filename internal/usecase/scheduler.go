package usecase

import (
	"context"
	"log/slog"
	"time"

	"ComedyAnalyzer/internal/ports"
)

// Scheduler wires the ticking driver with the pending-job sweep.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	logger   *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring sweeps.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, logger *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, pipeline: pipeline, logger: logger}
}

// Start registers the sweep with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	job := func(trigger time.Time) {
		completed, err := s.pipeline.ProcessPending(ctx)
		if err != nil {
			if s.logger != nil {
				s.logger.Error("process pending", "error", err)
			}
			return
		}
		if s.logger != nil && completed > 0 {
			s.logger.Info("pending jobs processed", "completed", completed, "trigger", trigger.Format(time.RFC3339))
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
