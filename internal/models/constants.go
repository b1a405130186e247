package models

import "time"

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

const (
	NotificationPending   = "pending"
	NotificationRetry     = "retry"
	NotificationCompleted = "completed"
	NotificationFailed    = "failed"
)

const (
	// DefaultHoldTTL keeps an unconfirmed hold alive through a normal
	// checkout flow. Minutes, not hours: abandoned carts must free the
	// range quickly.
	DefaultHoldTTL = 15 * time.Minute

	// MaxHoldTTL caps what a caller may request, renewals included.
	MaxHoldTTL = 2 * time.Hour

	// DefaultReaperInterval controls the storage-hygiene sweep of expired
	// holds. Correctness never depends on it.
	DefaultReaperInterval = time.Minute

	// DefaultMinNights applies when a room does not specify its own.
	DefaultMinNights = 1

	// DispatcherQueueSize bounds the in-memory notification queue.
	DispatcherQueueSize = 1000
)
