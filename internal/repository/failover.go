package repository

import (
	"context"
	"sync/atomic"
	"time"

	"vacancy/internal/domain"
	"vacancy/internal/models"

	"github.com/rs/zerolog"
)

const recoveryProbeInterval = time.Minute

// FailoverHoldRepository prefers Redis and degrades to the in-memory store
// when Redis is unreachable. Holds taken while degraded live only in this
// process; on recovery new holds go back to Redis.
type FailoverHoldRepository struct {
	primary   *RedisHoldRepository
	fallback  *MemoryHoldRepository
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastProbe atomic.Int64
}

func NewFailoverHoldRepository(primary *RedisHoldRepository, fallback *MemoryHoldRepository, logger *zerolog.Logger) *FailoverHoldRepository {
	return &FailoverHoldRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverHoldRepository) active(ctx context.Context) domain.HoldRepository {
	if !r.isDown.Load() {
		return r.primary
	}

	// Probe at most once per interval while degraded.
	now := time.Now().UnixNano()
	last := r.lastProbe.Load()
	if now-last > int64(recoveryProbeInterval) && r.lastProbe.CompareAndSwap(last, now) {
		if err := r.primary.Ping(ctx); err == nil {
			r.isDown.Store(false)
			r.logger.Info().Msg("Redis recovered, hold storage switched back to primary")
			return r.primary
		}
	}
	return r.fallback
}

func (r *FailoverHoldRepository) markDown(err error) {
	if r.isDown.CompareAndSwap(false, true) {
		r.lastProbe.Store(time.Now().UnixNano())
		r.logger.Warn().Err(err).Msg("Redis unavailable, hold storage degraded to in-memory")
	}
}

func (r *FailoverHoldRepository) Save(ctx context.Context, hold *models.ReservationHold) error {
	repo := r.active(ctx)
	err := repo.Save(ctx, hold)
	if err != nil && repo == domain.HoldRepository(r.primary) && !isDomainErr(err) {
		r.markDown(err)
		return r.fallback.Save(ctx, hold)
	}
	return err
}

func (r *FailoverHoldRepository) Get(ctx context.Context, id string) (*models.ReservationHold, error) {
	repo := r.active(ctx)
	hold, err := repo.Get(ctx, id)
	if err != nil && repo == domain.HoldRepository(r.primary) && !isDomainErr(err) {
		r.markDown(err)
		return r.fallback.Get(ctx, id)
	}
	return hold, err
}

func (r *FailoverHoldRepository) Delete(ctx context.Context, id string) error {
	repo := r.active(ctx)
	err := repo.Delete(ctx, id)
	if err != nil && repo == domain.HoldRepository(r.primary) && !isDomainErr(err) {
		r.markDown(err)
		return r.fallback.Delete(ctx, id)
	}
	return err
}

func (r *FailoverHoldRepository) ListByRoom(ctx context.Context, roomID int64) ([]*models.ReservationHold, error) {
	repo := r.active(ctx)
	holds, err := repo.ListByRoom(ctx, roomID)
	if err != nil && repo == domain.HoldRepository(r.primary) {
		r.markDown(err)
		return r.fallback.ListByRoom(ctx, roomID)
	}
	return holds, err
}

func (r *FailoverHoldRepository) ListByHolder(ctx context.Context, holderID string) ([]*models.ReservationHold, error) {
	repo := r.active(ctx)
	holds, err := repo.ListByHolder(ctx, holderID)
	if err != nil && repo == domain.HoldRepository(r.primary) {
		r.markDown(err)
		return r.fallback.ListByHolder(ctx, holderID)
	}
	return holds, err
}

func (r *FailoverHoldRepository) DeleteExpired(ctx context.Context) (int, error) {
	// The in-memory side needs reaping even while Redis is primary, because
	// holds written during a past degradation stay there until expiry.
	n, err := r.fallback.DeleteExpired(ctx)
	if err != nil {
		return n, err
	}
	if !r.isDown.Load() {
		pn, err := r.primary.DeleteExpired(ctx)
		return n + pn, err
	}
	return n, nil
}

func isDomainErr(err error) bool {
	switch err {
	case domain.ErrHoldNotFound, domain.ErrHoldExpired:
		return true
	}
	return false
}
