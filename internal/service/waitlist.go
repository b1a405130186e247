package service

import (
	"context"

	"vacancy/internal/domain"
	"vacancy/internal/events"
	"vacancy/internal/metrics"
	"vacancy/internal/models"

	"github.com/rs/zerolog"
)

// WaitlistService registers interest in ranges that are currently taken and
// notifies waiting guests when capacity frees up. Each entry is notified at
// most once; the notified flag in the store is the arbiter, so concurrent
// sweeps cannot double-notify.
type WaitlistService struct {
	store        domain.Store
	availability *AvailabilityService
	wake         func()
	logger       *zerolog.Logger
}

// OnEnqueue registers a callback fired after each outbox write.
func (s *WaitlistService) OnEnqueue(fn func()) {
	s.wake = fn
}

func NewWaitlistService(store domain.Store, availability *AvailabilityService, logger *zerolog.Logger) *WaitlistService {
	return &WaitlistService{store: store, availability: availability, logger: logger}
}

// Register adds a guest to a room's waitlist. The range must be well-formed
// and the room must exist, but the range being currently taken is not
// required: registering for a free range just means the sweep notifies
// immediately on the next capacity change.
func (s *WaitlistService) Register(ctx context.Context, entry *models.WaitlistEntry) error {
	if !entry.Range().Valid() {
		return domain.ErrInvalidRange
	}
	if _, err := s.store.GetRoom(ctx, entry.RoomID); err != nil {
		return err
	}

	if err := s.store.CreateWaitlistEntry(ctx, entry); err != nil {
		return err
	}

	s.logger.Info().
		Int64("entry_id", entry.ID).
		Int64("room_id", entry.RoomID).
		Int64("guest_id", entry.GuestID).
		Str("range", entry.Range().String()).
		Msg("Waitlist entry registered")
	return nil
}

// Sweep walks the room's unnotified entries and notifies each one whose range
// is now free. MarkWaitlistNotified flips the flag with a guarded update;
// only the caller that wins the flip enqueues the notification. Notifying an
// entry does not reserve anything, so several freed entries on the same range
// may all be notified and race for the booking.
func (s *WaitlistService) Sweep(ctx context.Context, roomID int64) (int, error) {
	entries, err := s.store.UnnotifiedByRoom(ctx, roomID)
	if err != nil {
		return 0, err
	}

	notified := 0
	for _, entry := range entries {
		err := s.availability.Check(ctx, entry.RoomID, entry.Range(), "")
		switch err {
		case nil:
		case domain.ErrUnavailable, domain.ErrMinimumStayNotMet, domain.ErrRoomInactive:
			continue
		default:
			return notified, err
		}

		won, err := s.store.MarkWaitlistNotified(ctx, entry.ID)
		if err != nil {
			return notified, err
		}
		if !won {
			continue
		}

		enqueueEvent(ctx, s.store, s.logger, s.wake, events.EventWaitlistNotified, 0, events.WaitlistEvent{
			EntryID:  entry.ID,
			RoomID:   entry.RoomID,
			GuestID:  entry.GuestID,
			Contact:  entry.Contact,
			CheckIn:  entry.CheckIn.Format(models.DateLayout),
			CheckOut: entry.CheckOut.Format(models.DateLayout),
		})
		metrics.IncWaitlistNotified()
		notified++

		s.logger.Info().
			Int64("entry_id", entry.ID).
			Int64("room_id", entry.RoomID).
			Msg("Waitlist entry notified")
	}
	return notified, nil
}
