package service

import (
	"context"
	"time"

	"vacancy/internal/domain"
	"vacancy/internal/metrics"
	"vacancy/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// HoldService grants short-lived exclusive claims on room date ranges. The
// availability check and the hold insert run under the room's lock, so two
// concurrent claims on overlapping ranges cannot both succeed.
type HoldService struct {
	store        domain.Store
	holds        domain.HoldRepository
	availability *AvailabilityService
	locks        *RoomLocks
	defaultTTL   time.Duration
	maxTTL       time.Duration
	logger       *zerolog.Logger
}

func NewHoldService(
	store domain.Store,
	holds domain.HoldRepository,
	availability *AvailabilityService,
	locks *RoomLocks,
	defaultTTL, maxTTL time.Duration,
	logger *zerolog.Logger,
) *HoldService {
	if defaultTTL <= 0 {
		defaultTTL = models.DefaultHoldTTL
	}
	if maxTTL <= 0 {
		maxTTL = models.MaxHoldTTL
	}
	return &HoldService{
		store:        store,
		holds:        holds,
		availability: availability,
		locks:        locks,
		defaultTTL:   defaultTTL,
		maxTTL:       maxTTL,
		logger:       logger,
	}
}

func (s *HoldService) clampTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return s.defaultTTL
	}
	if ttl > s.maxTTL {
		return s.maxTTL
	}
	return ttl
}

// Acquire claims the range for holderID. The holder's own live holds do not
// conflict, so retrying a checkout does not lock the guest out of their own
// claim.
func (s *HoldService) Acquire(ctx context.Context, roomID int64, rng models.DateRange, holderID string, ttl time.Duration) (*models.ReservationHold, error) {
	ttl = s.clampTTL(ttl)

	lock := s.locks.ForRoom(roomID)
	lock.Lock()
	defer lock.Unlock()

	// Opportunistic sweep keeps storage small; correctness never needs it.
	if n, err := s.holds.DeleteExpired(ctx); err == nil && n > 0 {
		metrics.AddReapedHolds(n)
	}

	if err := s.availability.Check(ctx, roomID, rng, holderID); err != nil {
		switch err {
		case domain.ErrUnavailable:
			metrics.IncHoldAcquire("conflict")
		default:
			metrics.IncHoldAcquire("rejected")
		}
		return nil, err
	}

	now := time.Now()
	hold := &models.ReservationHold{
		ID:        uuid.NewString(),
		RoomID:    roomID,
		CheckIn:   rng.CheckIn,
		CheckOut:  rng.CheckOut,
		HolderID:  holderID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := s.holds.Save(ctx, hold); err != nil {
		metrics.IncHoldAcquire("rejected")
		return nil, err
	}

	metrics.IncHoldAcquire("granted")
	s.logger.Info().
		Str("hold_id", hold.ID).
		Int64("room_id", roomID).
		Str("holder_id", holderID).
		Str("range", rng.String()).
		Time("expires_at", hold.ExpiresAt).
		Msg("Hold acquired")
	return hold, nil
}

// Get returns the hold, mapping an expired-but-not-yet-reaped hold to
// ErrHoldExpired.
func (s *HoldService) Get(ctx context.Context, holdID string) (*models.ReservationHold, error) {
	hold, err := s.holds.Get(ctx, holdID)
	if err != nil {
		return nil, err
	}
	if !hold.Live(time.Now()) {
		return nil, domain.ErrHoldExpired
	}
	return hold, nil
}

// Renew extends a live hold. A hold that already expired cannot be renewed:
// the range may have been claimed by someone else in the meantime.
func (s *HoldService) Renew(ctx context.Context, holdID, holderID string, ttl time.Duration) (*models.ReservationHold, error) {
	ttl = s.clampTTL(ttl)

	hold, err := s.holds.Get(ctx, holdID)
	if err != nil {
		return nil, err
	}
	if hold.HolderID != holderID {
		return nil, domain.ErrHoldNotFound
	}

	lock := s.locks.ForRoom(hold.RoomID)
	lock.Lock()
	defer lock.Unlock()

	now := time.Now()
	if !hold.Live(now) {
		_ = s.holds.Delete(ctx, holdID)
		return nil, domain.ErrHoldExpired
	}

	hold.ExpiresAt = now.Add(ttl)
	if err := s.holds.Save(ctx, hold); err != nil {
		return nil, err
	}

	s.logger.Debug().Str("hold_id", holdID).Time("expires_at", hold.ExpiresAt).Msg("Hold renewed")
	return hold, nil
}

// Release drops a hold. Releasing an unknown or already-expired hold is a
// no-op: the caller's intent, that the range is free, already holds.
func (s *HoldService) Release(ctx context.Context, holdID string) error {
	return s.holds.Delete(ctx, holdID)
}

// ReleaseAllForHolder drops every hold owned by holderID. Used when a guest
// session ends or a guest account is closed.
func (s *HoldService) ReleaseAllForHolder(ctx context.Context, holderID string) (int, error) {
	holds, err := s.holds.ListByHolder(ctx, holderID)
	if err != nil {
		return 0, err
	}

	released := 0
	for _, hold := range holds {
		if err := s.holds.Delete(ctx, hold.ID); err != nil {
			return released, err
		}
		released++
	}
	if released > 0 {
		s.logger.Info().Str("holder_id", holderID).Int("released", released).Msg("Released all holds for holder")
	}
	return released, nil
}

// ReleaseAllForRoom drops every hold on a room. Used when a room is taken out
// of service.
func (s *HoldService) ReleaseAllForRoom(ctx context.Context, roomID int64) (int, error) {
	holds, err := s.holds.ListByRoom(ctx, roomID)
	if err != nil {
		return 0, err
	}

	released := 0
	for _, hold := range holds {
		if err := s.holds.Delete(ctx, hold.ID); err != nil {
			return released, err
		}
		released++
	}
	if released > 0 {
		s.logger.Info().Int64("room_id", roomID).Int("released", released).Msg("Released all holds for room")
	}
	return released, nil
}
