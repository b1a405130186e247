package service

import (
	"context"
	"time"

	"vacancy/internal/domain"
	"vacancy/internal/models"

	"github.com/rs/zerolog"
)

// AvailabilityService answers whether a room can be claimed for a date range.
// It reads bookings, live holds and blocked dates; it never mutates anything,
// so callers that need atomicity wrap it in the room lock themselves.
type AvailabilityService struct {
	store  domain.Store
	holds  domain.HoldRepository
	logger *zerolog.Logger
}

func NewAvailabilityService(store domain.Store, holds domain.HoldRepository, logger *zerolog.Logger) *AvailabilityService {
	return &AvailabilityService{store: store, holds: holds, logger: logger}
}

// Check validates the range against the room's calendar. excludeHolder names
// a holder whose own live holds do not count against them, so renewing or
// converting a hold does not collide with itself. Empty string excludes
// nothing.
//
// Failure order: invalid range, unknown room, inactive room, minimum stay,
// then occupancy conflicts.
func (s *AvailabilityService) Check(ctx context.Context, roomID int64, rng models.DateRange, excludeHolder string) error {
	if !rng.Valid() {
		return domain.ErrInvalidRange
	}

	room, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if !room.IsActive {
		return domain.ErrRoomInactive
	}
	if rng.Nights() < room.MinNights {
		return domain.ErrMinimumStayNotMet
	}

	bookings, err := s.store.OverlappingBookings(ctx, roomID, rng)
	if err != nil {
		return err
	}
	if len(bookings) > 0 {
		return domain.ErrUnavailable
	}

	holds, err := s.holds.ListByRoom(ctx, roomID)
	if err != nil {
		return err
	}
	now := time.Now()
	for _, hold := range holds {
		if !hold.Live(now) {
			continue
		}
		if excludeHolder != "" && hold.HolderID == excludeHolder {
			continue
		}
		if hold.Range().Overlaps(rng) {
			return domain.ErrUnavailable
		}
	}

	blocks, err := s.store.CountActiveBlocks(ctx, roomID, rng)
	if err != nil {
		return err
	}
	if blocks > 0 {
		return domain.ErrUnavailable
	}

	return nil
}

// ActiveRooms lists the bookable inventory.
func (s *AvailabilityService) ActiveRooms(ctx context.Context) ([]*models.Room, error) {
	return s.store.GetActiveRooms(ctx)
}

// AvailableRooms filters the active rooms down to those free for rng. Rooms
// whose minimum stay exceeds the range are omitted rather than erroring.
func (s *AvailabilityService) AvailableRooms(ctx context.Context, rng models.DateRange) ([]*models.Room, error) {
	if !rng.Valid() {
		return nil, domain.ErrInvalidRange
	}

	rooms, err := s.store.GetActiveRooms(ctx)
	if err != nil {
		return nil, err
	}

	var available []*models.Room
	for _, room := range rooms {
		err := s.Check(ctx, room.ID, rng, "")
		switch err {
		case nil:
			available = append(available, room)
		case domain.ErrUnavailable, domain.ErrMinimumStayNotMet, domain.ErrRoomInactive:
			continue
		default:
			return nil, err
		}
	}
	return available, nil
}
