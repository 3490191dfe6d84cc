// Package scheduler runs the background reminder poller. Every tick it asks
// the reminder service to dispatch whatever is due; the service owns ordering
// and bookkeeping, the scheduler only owns the clock.
package scheduler

import (
	"context"
	"time"

	"babylog-sync-server/internal/service"

	"github.com/rs/zerolog"
)

type Scheduler struct {
	reminders *service.ReminderService
	interval  time.Duration
	log       zerolog.Logger
}

func New(reminders *service.ReminderService, interval time.Duration, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		reminders: reminders,
		interval:  interval,
		log:       log.With().Str("component", "scheduler").Logger(),
	}
}

// Run blocks until ctx is cancelled. The first poll happens one interval in,
// not at startup, so a crash-looping process does not spam notifications.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info().Dur("interval", s.interval).Msg("reminder poller started")
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("reminder poller stopped")
			return
		case now := <-ticker.C:
			dispatched, err := s.reminders.DispatchDue(ctx, now.UTC())
			if err != nil {
				s.log.Error().Err(err).Msg("reminder dispatch failed")
				continue
			}
			if dispatched > 0 {
				s.log.Info().Int("dispatched", dispatched).Msg("reminders dispatched")
			}
		}
	}
}
