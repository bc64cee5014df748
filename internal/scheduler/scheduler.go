// Package scheduler runs the periodic sweep that expires unpaid bookings.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
)

// sweepBatch bounds how many bookings one tick expires.
const sweepBatch = 500

type bookingExpirer interface {
	ExpireStale(ctx context.Context, now time.Time, limit int) ([]*model.Booking, error)
}

// Scheduler expires stale pending bookings on a fixed interval.
type Scheduler struct {
	bookings bookingExpirer
	interval time.Duration
	log      *slog.Logger
	now      func() time.Time
}

func New(bookings bookingExpirer, interval time.Duration, log *slog.Logger) *Scheduler {
	return &Scheduler{
		bookings: bookings,
		interval: interval,
		log:      log,
		now:      time.Now,
	}
}

// Start blocks until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.InfoContext(ctx, "expiry sweeper started", slog.Duration("interval", s.interval))

	for {
		select {
		case <-ctx.Done():
			s.log.Info("expiry sweeper stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	expired, err := s.bookings.ExpireStale(ctx, s.now().UTC(), sweepBatch)
	for _, b := range expired {
		s.log.InfoContext(ctx, "booking expired",
			slog.String("booking_id", b.ID),
			slog.String("event_id", b.EventID),
			slog.Int("released_units", b.Units),
		)
	}
	if err != nil {
		s.log.ErrorContext(ctx, "expiry sweep failed", slog.String("error", err.Error()))
	}
}
