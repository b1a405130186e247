package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	holdAcquires = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vacancy",
			Name:      "hold_acquires_total",
			Help:      "Hold acquisition attempts by result.",
		},
		[]string{"result"},
	)

	bookingTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vacancy",
			Name:      "booking_transitions_total",
			Help:      "Booking lifecycle transitions by target status.",
		},
		[]string{"status"},
	)

	waitlistNotifications = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "vacancy",
			Name:      "waitlist_notifications_total",
			Help:      "Waitlist entries notified.",
		},
	)

	reapedHolds = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "vacancy",
			Name:      "reaped_holds_total",
			Help:      "Expired holds removed by the reaper.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vacancy",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			holdAcquires,
			bookingTransitions,
			waitlistNotifications,
			reapedHolds,
			httpRequests,
		)
	})
}

// IncHoldAcquire counts an acquisition attempt: granted, conflict, rejected.
func IncHoldAcquire(result string) {
	holdAcquires.WithLabelValues(result).Inc()
}

// IncBookingTransition counts a lifecycle transition by target status.
func IncBookingTransition(status string) {
	bookingTransitions.WithLabelValues(status).Inc()
}

// IncWaitlistNotified counts one exactly-once waitlist notification.
func IncWaitlistNotified() {
	waitlistNotifications.Inc()
}

// AddReapedHolds counts holds removed for storage hygiene.
func AddReapedHolds(n int) {
	reapedHolds.Add(float64(n))
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}
