package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/atlasnomad/backend/internal/domain"
)

// Runner is the trigger surface shared by the interval scheduler and the
// manual sync endpoint.
type Runner interface {
	Run(ctx context.Context) domain.RunResult
}

// Scheduler invokes the ingestor on a fixed interval, the background
// counterpart to the manual sync action. Run-exclusivity lives in the
// Ingestor itself, so an overlapping manual trigger is refused, not queued.
type Scheduler struct {
	runner   Runner
	interval time.Duration
	logger   *slog.Logger
}

// NewScheduler constructs a Scheduler ticking every interval.
func NewScheduler(r Runner, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{runner: r, interval: interval, logger: logger}
}

// Start blocks, running the ingestor once per interval until ctx is
// cancelled. Call it from its own goroutine.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("email sync scheduler started", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("email sync scheduler stopped")
			return
		case <-ticker.C:
			res := s.runner.Run(ctx)
			if !res.Success {
				s.logger.Warn("scheduled email sync unsuccessful", "message", res.Message)
			}
		}
	}
}

// Disabled is a Runner used when mailbox or oracle credentials are not
// configured. Every trigger fails fast with the configuration diagnostic,
// before any I/O.
type Disabled struct {
	Reason string
}

// Run reports the missing configuration.
func (d Disabled) Run(context.Context) domain.RunResult {
	return domain.RunResult{Success: false, Message: d.Reason}
}
