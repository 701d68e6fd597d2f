package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

// PassRunner runs one reconciliation pass.
type PassRunner interface {
	RunOnce(ctx context.Context) (Result, error)
}

// Scheduler triggers a pass immediately and then on every interval tick.
type Scheduler struct {
	runner   PassRunner
	clock    clockwork.Clock
	interval time.Duration
	logger   *slog.Logger
}

// NewScheduler creates a Scheduler.
func NewScheduler(runner PassRunner, clock clockwork.Clock, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{runner: runner, clock: clock, interval: interval, logger: logger}
}

// Run blocks until ctx is cancelled. Pass errors are logged and the next tick
// retries from scratch.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("scheduler started", "interval", s.interval)
	s.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	res, err := s.runner.RunOnce(ctx)
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, ErrPassInProgress):
		s.logger.Warn("previous pass still running, tick skipped")
	case ctx.Err() != nil:
		s.logger.Info("pass interrupted by shutdown", "pass_id", res.PassID)
	default:
		s.logger.Error("reconciliation pass failed", "pass_id", res.PassID, "error", err)
	}
}
