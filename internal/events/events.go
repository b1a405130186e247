package events

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"vacancy/internal/models"

	"github.com/rs/zerolog"
)

// Event types emitted by the reservation engine. Subscribers format and
// deliver guest/host messages; the engine only states what happened.
const (
	EventBookingCreated   = "booking_created"
	EventBookingConfirmed = "booking_confirmed"
	EventBookingCancelled = "booking_cancelled"
	EventBookingCompleted = "booking_completed"
	EventWaitlistNotified = "waitlist_notified"
	EventDatesBlocked     = "dates_blocked"
	EventDatesUnblocked   = "dates_unblocked"
)

// BookingEvent is the payload for booking lifecycle events.
type BookingEvent struct {
	BookingID int64  `json:"booking_id"`
	RoomID    int64  `json:"room_id"`
	GuestID   int64  `json:"guest_id"`
	CheckIn   string `json:"check_in"`
	CheckOut  string `json:"check_out"`
	Status    string `json:"status"`
}

// WaitlistEvent is the payload for waitlist_notified.
type WaitlistEvent struct {
	EntryID  int64  `json:"entry_id"`
	RoomID   int64  `json:"room_id"`
	GuestID  int64  `json:"guest_id"`
	Contact  string `json:"contact"`
	CheckIn  string `json:"check_in"`
	CheckOut string `json:"check_out"`
}

// BlockEvent is the payload for dates_blocked / dates_unblocked.
type BlockEvent struct {
	RoomID int64  `json:"room_id"`
	Date   string `json:"date"`
}

// NewBookingEvent snapshots a booking for event payloads.
func NewBookingEvent(b *models.Booking) BookingEvent {
	return BookingEvent{
		BookingID: b.ID,
		RoomID:    b.RoomID,
		GuestID:   b.GuestID,
		CheckIn:   b.CheckIn.Format(models.DateLayout),
		CheckOut:  b.CheckOut.Format(models.DateLayout),
		Status:    b.Status,
	}
}

// Handler receives the event type and serialized payload. Handlers run on the
// publisher goroutine and must not block.
type Handler func(eventType string, payload []byte)

// Bus is an in-process fan-out of domain events. Subscription order is
// delivery order.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
	logger   *zerolog.Logger
}

func NewBus(logger *zerolog.Logger) *Bus {
	return &Bus{logger: logger}
}

func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// PublishJSON serializes the payload and delivers it to every subscriber.
func (b *Bus) PublishJSON(eventType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}

	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	b.logger.Debug().
		Str("event_type", eventType).
		Int("subscribers", len(handlers)).
		Time("published_at", time.Now()).
		Msg("Publishing domain event")

	for _, h := range handlers {
		h(eventType, data)
	}
	return nil
}
