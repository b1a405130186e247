package worker

import (
	"context"
	"time"

	"vacancy/internal/domain"
	"vacancy/internal/metrics"

	"github.com/rs/zerolog"
)

// Reaper periodically removes expired holds from storage. This is hygiene
// only: expiry is enforced by read-time filtering, so a slow or stopped
// reaper never makes a dead hold block availability.
type Reaper struct {
	holds    domain.HoldRepository
	interval time.Duration
	logger   *zerolog.Logger
}

func NewReaper(holds domain.HoldRepository, interval time.Duration, logger *zerolog.Logger) *Reaper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Reaper{holds: holds, interval: interval, logger: logger}
}

func (r *Reaper) Start(ctx context.Context) {
	r.logger.Info().Dur("interval", r.interval).Msg("Hold reaper started")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("Hold reaper stopped")
			return
		case <-ticker.C:
			removed, err := r.holds.DeleteExpired(ctx)
			if err != nil {
				r.logger.Error().Err(err).Msg("Failed to reap expired holds")
				continue
			}
			if removed > 0 {
				metrics.AddReapedHolds(removed)
				r.logger.Debug().Int("removed", removed).Msg("Reaped expired holds")
			}
		}
	}
}
