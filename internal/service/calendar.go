package service

import (
	"context"
	"time"

	"vacancy/internal/domain"
	"vacancy/internal/models"

	"github.com/rs/zerolog"
)

// CalendarService projects a room's occupancy over a range for dashboards
// and exports. It is read-only and deliberately includes completed stays,
// unlike the availability decision path.
type CalendarService struct {
	store  domain.Store
	holds  domain.HoldRepository
	logger *zerolog.Logger
}

func NewCalendarService(store domain.Store, holds domain.HoldRepository, logger *zerolog.Logger) *CalendarService {
	return &CalendarService{store: store, holds: holds, logger: logger}
}

// Occupancy returns the room's bookings and blocks intersecting rng.
func (s *CalendarService) Occupancy(ctx context.Context, roomID int64, rng models.DateRange) (*models.Occupancy, error) {
	if !rng.Valid() {
		return nil, domain.ErrInvalidRange
	}
	if _, err := s.store.GetRoom(ctx, roomID); err != nil {
		return nil, err
	}

	bookings, err := s.store.BookingsIntersecting(ctx, roomID, rng)
	if err != nil {
		return nil, err
	}
	blocks, err := s.store.BlockedDatesInRange(ctx, roomID, rng)
	if err != nil {
		return nil, err
	}

	occ := &models.Occupancy{RoomID: roomID, Range: rng}
	for _, b := range bookings {
		occ.Bookings = append(occ.Bookings, *b)
	}
	for _, bl := range blocks {
		occ.Blocked = append(occ.Blocked, *bl)
	}
	return occ, nil
}

// LiveHolds returns the room's unexpired holds. Holds are transient so they
// stay out of Occupancy; dashboards that want them ask explicitly.
func (s *CalendarService) LiveHolds(ctx context.Context, roomID int64) ([]*models.ReservationHold, error) {
	holds, err := s.holds.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var live []*models.ReservationHold
	for _, hold := range holds {
		if hold.Live(now) {
			live = append(live, hold)
		}
	}
	return live, nil
}
