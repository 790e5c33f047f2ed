package scheduler

import (
	"context"
	"log/slog"
	"time"
)

type sweeper interface {
	Sweep(ctx context.Context, now time.Time) (completed, purged int64, err error)
}

// Scheduler runs the maintenance sweep on a fixed interval: past-dated
// upcoming sessions get completed and expired photo grants get purged.
type Scheduler struct {
	svc      sweeper
	interval time.Duration
	log      *slog.Logger
}

func New(svc sweeper, interval time.Duration, log *slog.Logger) *Scheduler {
	return &Scheduler{
		svc:      svc,
		interval: interval,
		log:      log,
	}
}

// Start blocks until ctx is cancelled
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("scheduler started", slog.Duration("interval", s.interval))

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	completed, purged, err := s.svc.Sweep(ctx, time.Now().UTC())
	if err != nil {
		s.log.Error("sweep failed", slog.Any("error", err))
		return
	}

	if completed > 0 || purged > 0 {
		s.log.Info("sweep done",
			slog.Int64("sessions_completed", completed),
			slog.Int64("grants_purged", purged),
		)
	}
}
