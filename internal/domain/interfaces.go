package domain

import (
	"context"
	"time"

	"vacancy/internal/models"
)

// Store is the authoritative persistence layer for rooms, bookings, blocked
// dates, waitlist entries and the notification outbox.
type Store interface {
	// Rooms
	CreateRoom(ctx context.Context, room *models.Room) error
	UpsertRoom(ctx context.Context, room *models.Room) error
	GetRoom(ctx context.Context, id int64) (*models.Room, error)
	GetActiveRooms(ctx context.Context) ([]*models.Room, error)
	DeactivateRoom(ctx context.Context, id int64) error

	// Bookings
	CreateBooking(ctx context.Context, booking *models.Booking) error
	CreateBookingExclusive(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	OverlappingBookings(ctx context.Context, roomID int64, rng models.DateRange) ([]*models.Booking, error)
	BookingsIntersecting(ctx context.Context, roomID int64, rng models.DateRange) ([]*models.Booking, error)
	UpdateBookingStatusWithVersion(ctx context.Context, id, version int64, status string) error
	ListPendingByGuest(ctx context.Context, guestID int64) ([]*models.Booking, error)
	ListPendingByRoom(ctx context.Context, roomID int64) ([]*models.Booking, error)

	// Blocked dates
	InsertBlockedDate(ctx context.Context, block *models.BlockedDate) error
	DeleteBlockedDate(ctx context.Context, roomID int64, date time.Time) error
	BlockedDatesInRange(ctx context.Context, roomID int64, rng models.DateRange) ([]*models.BlockedDate, error)
	CountActiveBlocks(ctx context.Context, roomID int64, rng models.DateRange) (int, error)

	// Waitlist
	CreateWaitlistEntry(ctx context.Context, entry *models.WaitlistEntry) error
	UnnotifiedByRoom(ctx context.Context, roomID int64) ([]*models.WaitlistEntry, error)
	MarkWaitlistNotified(ctx context.Context, id int64) (bool, error)

	// Notification outbox
	CreateNotification(ctx context.Context, n *models.Notification) error
	PendingNotifications(ctx context.Context, limit int) ([]*models.Notification, error)
	UpdateNotificationStatus(ctx context.Context, id int64, status, errMsg string, nextRetryAt *time.Time) error
}

// HoldRepository stores live reservation holds. Implementations persist and
// list; they never provide atomicity. Exclusion comes from the per-room lock
// in the service layer plus read-time expiry filtering.
type HoldRepository interface {
	Save(ctx context.Context, hold *models.ReservationHold) error
	Get(ctx context.Context, id string) (*models.ReservationHold, error)
	Delete(ctx context.Context, id string) error
	ListByRoom(ctx context.Context, roomID int64) ([]*models.ReservationHold, error)
	ListByHolder(ctx context.Context, holderID string) ([]*models.ReservationHold, error)
	DeleteExpired(ctx context.Context) (int, error)
}

// EventPublisher hands a serialized domain event to whoever formats and
// sends guest/host messages. The engine never formats messages itself.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// Sweeper re-evaluates waitlist interest on a room after part of its
// calendar was explicitly freed.
type Sweeper interface {
	Sweep(ctx context.Context, roomID int64) (int, error)
}
