package service

import (
	"context"
	"time"

	"vacancy/internal/domain"
	"vacancy/internal/events"
	"vacancy/internal/models"

	"github.com/rs/zerolog"
)

// BlockService manages host-imposed calendar blocks. A block stops new claims
// on its date but never touches existing bookings: a host closing a date over
// a paid stay is an operator decision, and silently cancelling the stay would
// be worse than the conflict.
type BlockService struct {
	store   domain.Store
	locks   *RoomLocks
	sweeper domain.Sweeper
	wake    func()
	logger  *zerolog.Logger
}

// OnEnqueue registers a callback fired after each outbox write.
func (s *BlockService) OnEnqueue(fn func()) {
	s.wake = fn
}

func NewBlockService(store domain.Store, locks *RoomLocks, sweeper domain.Sweeper, logger *zerolog.Logger) *BlockService {
	return &BlockService{store: store, locks: locks, sweeper: sweeper, logger: logger}
}

// Block closes a single date on a room's calendar. Blocking an already
// blocked date returns ErrAlreadyBlocked. priceOverride, when set, is kept on
// the same row for the host's rate calendar.
func (s *BlockService) Block(ctx context.Context, roomID int64, date time.Time, priceOverride *int64) (*models.BlockedDate, error) {
	if _, err := s.store.GetRoom(ctx, roomID); err != nil {
		return nil, err
	}

	lock := s.locks.ForRoom(roomID)
	lock.Lock()

	block := &models.BlockedDate{
		RoomID:        roomID,
		Date:          models.Day(date),
		Blocked:       true,
		PriceOverride: priceOverride,
	}
	err := s.store.InsertBlockedDate(ctx, block)
	lock.Unlock()
	if err != nil {
		return nil, err
	}

	enqueueEvent(ctx, s.store, s.logger, s.wake, events.EventDatesBlocked, 0, events.BlockEvent{
		RoomID: roomID,
		Date:   block.Date.Format(models.DateLayout),
	})
	s.logger.Info().Int64("room_id", roomID).Str("date", block.Date.Format(models.DateLayout)).Msg("Date blocked")
	return block, nil
}

// Unblock reopens a date and re-evaluates the room's waitlist, since capacity
// was just returned to the calendar. Unblocking an open date is a no-op.
func (s *BlockService) Unblock(ctx context.Context, roomID int64, date time.Time) error {
	if _, err := s.store.GetRoom(ctx, roomID); err != nil {
		return err
	}

	lock := s.locks.ForRoom(roomID)
	lock.Lock()
	err := s.store.DeleteBlockedDate(ctx, roomID, date)
	lock.Unlock()
	if err != nil {
		return err
	}

	enqueueEvent(ctx, s.store, s.logger, s.wake, events.EventDatesUnblocked, 0, events.BlockEvent{
		RoomID: roomID,
		Date:   models.Day(date).Format(models.DateLayout),
	})

	if s.sweeper != nil {
		if _, err := s.sweeper.Sweep(ctx, roomID); err != nil {
			s.logger.Error().Err(err).Int64("room_id", roomID).Msg("Waitlist sweep after unblock failed")
		}
	}

	s.logger.Info().Int64("room_id", roomID).Str("date", models.Day(date).Format(models.DateLayout)).Msg("Date unblocked")
	return nil
}
