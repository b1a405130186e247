package service

import (
	"context"
	"strconv"
	"time"

	"vacancy/internal/domain"
	"vacancy/internal/events"
	"vacancy/internal/metrics"
	"vacancy/internal/models"

	"github.com/rs/zerolog"
)

// BookingService drives the booking lifecycle: pending on creation, confirmed
// on payment, completed after the stay, cancelled from pending or confirmed.
// Every transition goes through optimistic versioning and emits an outbox
// event after the write commits.
type BookingService struct {
	store        domain.Store
	holds        domain.HoldRepository
	availability *AvailabilityService
	locks        *RoomLocks
	sweeper      domain.Sweeper
	wake         func()
	logger       *zerolog.Logger
}

// OnEnqueue registers a callback fired after each outbox write, typically the
// dispatcher's wake signal.
func (s *BookingService) OnEnqueue(fn func()) {
	s.wake = fn
}

func NewBookingService(
	store domain.Store,
	holds domain.HoldRepository,
	availability *AvailabilityService,
	locks *RoomLocks,
	sweeper domain.Sweeper,
	logger *zerolog.Logger,
) *BookingService {
	return &BookingService{
		store:        store,
		holds:        holds,
		availability: availability,
		locks:        locks,
		sweeper:      sweeper,
		logger:       logger,
	}
}

// HolderForGuest is the hold-owner key for an authenticated guest. Anonymous
// checkout sessions use their own opaque keys and are not covered by
// guest-level cascades.
func HolderForGuest(guestID int64) string {
	return strconv.FormatInt(guestID, 10)
}

// CreateFromHold converts a hold into a pending booking. The hold must still
// be live; its expiry deadline is checked here, not assumed from storage. The
// availability re-check and the insert run under the room lock, with the
// transaction in the store as a second guard.
func (s *BookingService) CreateFromHold(ctx context.Context, holdID string, guestID int64, guests int, totalPrice int64, notes string) (*models.Booking, error) {
	hold, err := s.holds.Get(ctx, holdID)
	if err != nil {
		return nil, err
	}

	lock := s.locks.ForRoom(hold.RoomID)
	lock.Lock()

	if !hold.Live(time.Now()) {
		lock.Unlock()
		_ = s.holds.Delete(ctx, holdID)
		return nil, domain.ErrHoldExpired
	}

	if err := s.availability.Check(ctx, hold.RoomID, hold.Range(), hold.HolderID); err != nil {
		lock.Unlock()
		return nil, err
	}

	booking := &models.Booking{
		RoomID:     hold.RoomID,
		GuestID:    guestID,
		CheckIn:    hold.CheckIn,
		CheckOut:   hold.CheckOut,
		Guests:     guests,
		Status:     models.StatusPending,
		TotalPrice: totalPrice,
		Notes:      notes,
	}
	if err := s.store.CreateBookingExclusive(ctx, booking); err != nil {
		lock.Unlock()
		return nil, err
	}

	// The hold served its purpose; the booking now owns the range.
	_ = s.holds.Delete(ctx, holdID)
	lock.Unlock()

	metrics.IncBookingTransition(models.StatusPending)
	enqueueEvent(ctx, s.store, s.logger, s.wake, events.EventBookingCreated, booking.ID, events.NewBookingEvent(booking))
	s.logger.Info().
		Int64("booking_id", booking.ID).
		Int64("room_id", booking.RoomID).
		Int64("guest_id", guestID).
		Str("range", booking.Range().String()).
		Msg("Booking created from hold")
	return booking, nil
}

// Confirm moves a pending booking to confirmed.
func (s *BookingService) Confirm(ctx context.Context, bookingID int64) (*models.Booking, error) {
	return s.transition(ctx, bookingID, models.StatusConfirmed, events.EventBookingConfirmed,
		func(b *models.Booking, _ time.Time) bool {
			return b.Status == models.StatusPending
		})
}

// Cancel releases a pending or confirmed booking and re-evaluates the
// waitlist for its room. The sweep runs after the room lock is gone.
func (s *BookingService) Cancel(ctx context.Context, bookingID int64) (*models.Booking, error) {
	booking, err := s.transition(ctx, bookingID, models.StatusCancelled, events.EventBookingCancelled,
		func(b *models.Booking, _ time.Time) bool {
			return b.Status == models.StatusPending || b.Status == models.StatusConfirmed
		})
	if err != nil {
		return nil, err
	}

	if s.sweeper != nil {
		if _, err := s.sweeper.Sweep(ctx, booking.RoomID); err != nil {
			s.logger.Error().Err(err).Int64("room_id", booking.RoomID).Msg("Waitlist sweep after cancellation failed")
		}
	}
	return booking, nil
}

// Complete closes out a confirmed stay. Only allowed once the checkout date
// has passed; completing a future stay is an invalid transition.
func (s *BookingService) Complete(ctx context.Context, bookingID int64) (*models.Booking, error) {
	return s.transition(ctx, bookingID, models.StatusCompleted, events.EventBookingCompleted,
		func(b *models.Booking, now time.Time) bool {
			return b.Status == models.StatusConfirmed && !now.Before(b.CheckOut)
		})
}

func (s *BookingService) transition(ctx context.Context, bookingID int64, target, eventType string, allowed func(*models.Booking, time.Time) bool) (*models.Booking, error) {
	booking, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !allowed(booking, time.Now()) {
		return nil, domain.ErrInvalidTransition
	}

	if err := s.store.UpdateBookingStatusWithVersion(ctx, booking.ID, booking.Version, target); err != nil {
		return nil, err
	}
	booking.Status = target
	booking.Version++

	metrics.IncBookingTransition(target)
	enqueueEvent(ctx, s.store, s.logger, s.wake, eventType, booking.ID, events.NewBookingEvent(booking))
	s.logger.Info().
		Int64("booking_id", booking.ID).
		Str("status", target).
		Msg("Booking transitioned")
	return booking, nil
}

// ReleaseAllForGuest cancels the guest's pending bookings and drops their
// holds. Confirmed stays survive: tearing down a session must not undo paid
// reservations.
func (s *BookingService) ReleaseAllForGuest(ctx context.Context, guestID int64) (int, error) {
	released := 0

	pending, err := s.store.ListPendingByGuest(ctx, guestID)
	if err != nil {
		return 0, err
	}
	for _, booking := range pending {
		if _, err := s.Cancel(ctx, booking.ID); err != nil {
			return released, err
		}
		released++
	}

	holds, err := s.holds.ListByHolder(ctx, HolderForGuest(guestID))
	if err != nil {
		return released, err
	}
	for _, hold := range holds {
		if err := s.holds.Delete(ctx, hold.ID); err != nil {
			return released, err
		}
		released++
	}

	s.logger.Info().Int64("guest_id", guestID).Int("released", released).Msg("Released all claims for guest")
	return released, nil
}

// ReleaseAllForRoom cancels pending bookings and drops holds on a room, then
// deactivates it. Confirmed stays are left for the operator to resolve.
func (s *BookingService) ReleaseAllForRoom(ctx context.Context, roomID int64) (int, error) {
	released := 0

	pending, err := s.store.ListPendingByRoom(ctx, roomID)
	if err != nil {
		return 0, err
	}
	for _, booking := range pending {
		if _, err := s.Cancel(ctx, booking.ID); err != nil {
			return released, err
		}
		released++
	}

	holds, err := s.holds.ListByRoom(ctx, roomID)
	if err != nil {
		return released, err
	}
	for _, hold := range holds {
		if err := s.holds.Delete(ctx, hold.ID); err != nil {
			return released, err
		}
		released++
	}

	if err := s.store.DeactivateRoom(ctx, roomID); err != nil {
		return released, err
	}

	s.logger.Info().Int64("room_id", roomID).Int("released", released).Msg("Room retired and claims released")
	return released, nil
}
