// Package scheduler drives periodic synchronization runs.
package scheduler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-sync/internal/service"
)

// SyncRunner triggers one synchronization pass.
type SyncRunner interface {
	Run(ctx context.Context) (*service.SyncReport, error)
}

// SyncScheduler is a supervised service that fires the pipeline on a fixed
// interval. It does not fire at startup; the first run happens one interval
// after the service starts.
type SyncScheduler struct {
	runner   SyncRunner
	interval time.Duration
	logger   *zap.Logger
}

// NewSyncScheduler constructs the scheduler.
func NewSyncScheduler(runner SyncRunner, interval time.Duration, logger *zap.Logger) *SyncScheduler {
	return &SyncScheduler{runner: runner, interval: interval, logger: logger}
}

// Serve runs until the supervisor cancels the context.
func (s *SyncScheduler) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("sync scheduler started", zap.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.fire(ctx)
		}
	}
}

func (s *SyncScheduler) fire(ctx context.Context) {
	report, err := s.runner.Run(ctx)
	if err != nil {
		if errors.Is(err, service.ErrSyncBusy) {
			s.logger.Debug("scheduled run skipped, another run active")
			return
		}
		s.logger.Error("scheduled sync run failed", zap.Error(err))
		return
	}
	s.logger.Info("scheduled sync run finished",
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
	)
}

func (s *SyncScheduler) String() string { return "sync-scheduler" }
