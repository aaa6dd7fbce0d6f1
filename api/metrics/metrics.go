package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "billing"
	subsystem = "stripe"
)

// Outcome label values.
const (
	OutcomeOK        = "ok"
	OutcomeError     = "error"
	OutcomeDuplicate = "duplicate"
	OutcomeIgnored   = "ignored"
)

// EventTypeOther labels webhook event types the service does not handle.
const EventTypeOther = "other"


var (
	// WebhookEventsTotal counts handled webhook events by event type and outcome.
	WebhookEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "webhook_events_total",
		Help:      "Total webhook events handled by event type and outcome.",
	}, []string{"event_type", "outcome"})

	// WebhookDuration tracks webhook handling latency.
	WebhookDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "webhook_duration_seconds",
		Help:      "Webhook handling duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"event_type"})

	// CheckoutSessionsTotal counts checkout session creations by gateway mode and outcome.
	CheckoutSessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "checkout_sessions_total",
		Help:      "Total checkout sessions created by gateway mode and outcome.",
	}, []string{"mode", "outcome"})

	// SubscriptionCancellationsTotal counts cancellation requests by outcome.
	SubscriptionCancellationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "subscription_cancellations_total",
		Help:      "Total subscription cancellations by outcome.",
	}, []string{"outcome"})

	// EventsPublishedTotal counts billing events handed to the publisher.
	EventsPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "events_published_total",
		Help:      "Total billing events published by outcome.",
	}, []string{"outcome"})
)

// Outcome maps an error to the ok/error label.
func Outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}
