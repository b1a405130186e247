package service

import (
	"context"
	"encoding/json"

	"vacancy/internal/domain"
	"vacancy/internal/models"

	"github.com/rs/zerolog"
)

// enqueueEvent writes an outbox row for the dispatcher. Enqueue failures are
// logged, not returned: the state transition already committed and must not
// be rolled back because a notification could not be queued. wake, when set,
// nudges the dispatcher; polling alone is correct, the wake only trims
// latency.
func enqueueEvent(ctx context.Context, store domain.Store, logger *zerolog.Logger, wake func(), eventType string, bookingID int64, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Error().Err(err).Str("event_type", eventType).Msg("Failed to marshal event payload")
		return
	}

	n := &models.Notification{
		EventType: eventType,
		BookingID: bookingID,
		Payload:   string(data),
		Status:    models.NotificationPending,
	}
	if err := store.CreateNotification(ctx, n); err != nil {
		logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", bookingID).Msg("Failed to enqueue notification")
		return
	}
	if wake != nil {
		wake()
	}
}
