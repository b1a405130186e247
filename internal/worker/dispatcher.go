package worker

import (
	"context"
	"encoding/json"
	"time"

	"vacancy/internal/domain"
	"vacancy/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const deadLetterKey = "notifications:dead_letter"

// Dispatcher drains the notification outbox and hands each event to the
// publisher. State transitions only write outbox rows; all delivery happens
// here, outside every room critical section.
//
// Work arrives two ways: a non-blocking wake signal from the services for low
// latency, and a poll ticker that picks up anything a crash or missed wake
// left behind. The outbox row is the source of truth either way.
type Dispatcher struct {
	store     domain.Store
	publisher domain.EventPublisher
	redis     *redis.Client
	policy    RetryPolicy
	interval  time.Duration
	batchSize int
	wake      chan struct{}
	logger    *zerolog.Logger
}

func NewDispatcher(
	store domain.Store,
	publisher domain.EventPublisher,
	redisClient *redis.Client,
	policy RetryPolicy,
	interval time.Duration,
	batchSize int,
	logger *zerolog.Logger,
) *Dispatcher {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 20
	}
	return &Dispatcher{
		store:     store,
		publisher: publisher,
		redis:     redisClient,
		policy:    policy,
		interval:  interval,
		batchSize: batchSize,
		wake:      make(chan struct{}, 1),
		logger:    logger,
	}
}

// Wake nudges the dispatcher without blocking the caller. A full signal
// buffer means a drain is already due.
func (d *Dispatcher) Wake() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	d.logger.Info().Dur("poll_interval", d.interval).Int("batch_size", d.batchSize).Msg("Notification dispatcher started")

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info().Msg("Notification dispatcher stopped")
			return
		case <-d.wake:
			d.Drain(ctx)
		case <-ticker.C:
			d.Drain(ctx)
		}
	}
}

// Drain processes one batch of due notifications.
func (d *Dispatcher) Drain(ctx context.Context) {
	notifications, err := d.store.PendingNotifications(ctx, d.batchSize)
	if err != nil {
		d.logger.Error().Err(err).Msg("Failed to fetch pending notifications")
		return
	}

	for _, n := range notifications {
		d.process(ctx, n)
	}
}

func (d *Dispatcher) process(ctx context.Context, n *models.Notification) {
	err := d.publisher.PublishJSON(n.EventType, json.RawMessage(n.Payload))
	if err == nil {
		if err := d.store.UpdateNotificationStatus(ctx, n.ID, models.NotificationCompleted, "", nil); err != nil {
			d.logger.Error().Err(err).Int64("notification_id", n.ID).Msg("Failed to mark notification completed")
		}
		return
	}

	if d.policy.Exhausted(n.RetryCount + 1) {
		d.logger.Error().Err(err).
			Int64("notification_id", n.ID).
			Str("event_type", n.EventType).
			Int("retries", n.RetryCount).
			Msg("Notification delivery exhausted retries, dead-lettering")
		if updateErr := d.store.UpdateNotificationStatus(ctx, n.ID, models.NotificationFailed, err.Error(), nil); updateErr != nil {
			d.logger.Error().Err(updateErr).Int64("notification_id", n.ID).Msg("Failed to mark notification failed")
		}
		d.deadLetter(ctx, n)
		return
	}

	next := time.Now().Add(d.policy.NextDelay(n.RetryCount))
	d.logger.Warn().Err(err).
		Int64("notification_id", n.ID).
		Time("next_retry_at", next).
		Msg("Notification delivery failed, scheduling retry")
	if updateErr := d.store.UpdateNotificationStatus(ctx, n.ID, models.NotificationRetry, err.Error(), &next); updateErr != nil {
		d.logger.Error().Err(updateErr).Int64("notification_id", n.ID).Msg("Failed to schedule notification retry")
	}
}

// deadLetter pushes an exhausted notification onto a Redis list for manual
// inspection. Without Redis the failed outbox row itself is the record.
func (d *Dispatcher) deadLetter(ctx context.Context, n *models.Notification) {
	if d.redis == nil {
		return
	}

	data, err := json.Marshal(n)
	if err != nil {
		d.logger.Error().Err(err).Int64("notification_id", n.ID).Msg("Failed to marshal dead letter")
		return
	}
	if err := d.redis.LPush(ctx, deadLetterKey, data).Err(); err != nil {
		d.logger.Error().Err(err).Int64("notification_id", n.ID).Msg("Failed to push dead letter")
	}
}
