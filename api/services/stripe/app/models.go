package app

import (
	"context"
	"time"

	stripedb "github.com/realityinspector/auto-hyperflask/api/services/stripe/db"
	"github.com/realityinspector/auto-hyperflask/api/services/stripe/events"
)

// Options are the facade settings read from configuration.
type Options struct {
	Enabled bool
	// Mode is reported while disabled; once a gateway is set its mode wins.
	Mode            string
	PublishableKey  string
	WebhookSecret   string
	CheckoutBaseURL string
}

// CheckoutRequest asks for a hosted checkout page for one price.
type CheckoutRequest struct {
	CustomerEmail string
	PriceID       string
	// Optional; derived from Options.CheckoutBaseURL when empty.
	SuccessURL string
	CancelURL  string
	// Optional; "subscription" when empty.
	Mode string
}

// AccountStore persists what webhooks learn about a customer's subscription.
type AccountStore interface {
	ActivateSubscription(ctx context.Context, a stripedb.Activation) error
	UpdateSubscriptionStatus(ctx context.Context, subscriptionID, status string, endsAt *time.Time) (bool, error)
}

// EventGuard deduplicates webhook deliveries by provider event id.
type EventGuard interface {
	FirstSeen(ctx context.Context, eventID string) (bool, error)
	Forget(ctx context.Context, eventID string) error
}

// Deps are the optional collaborators of the facade. Nil members disable
// the matching feature.
type Deps struct {
	Accounts  AccountStore
	Guard     EventGuard
	Publisher events.Publisher
	Plans     []Plan
}

// ConfigView is what the frontend needs to render checkout buttons.
type ConfigView struct {
	Enabled        bool   `json:"enabled"`
	Mode           string `json:"mode"`
	PublishableKey string `json:"publishable_key,omitempty"`
}

type WebhookOutcome string

const (
	WebhookHandled   WebhookOutcome = "handled"
	WebhookDuplicate WebhookOutcome = "duplicate"
	WebhookIgnored   WebhookOutcome = "ignored"
)

// WebhookResult reports what HandleWebhookEvent did with an event.
type WebhookResult struct {
	EventID   string         `json:"event_id"`
	EventType string         `json:"event_type"`
	Outcome   WebhookOutcome `json:"outcome"`
}

// Billing event types published after a webhook is applied.
const (
	BillingSubscriptionActivated = "subscription.activated"
	BillingSubscriptionCanceled  = "subscription.canceled"
	BillingSubscriptionUpdated   = "subscription.updated"
)

// SubscriptionChange is the payload of published billing events.
type SubscriptionChange struct {
	Email          string `json:"email,omitempty"`
	CustomerID     string `json:"customer_id,omitempty"`
	SubscriptionID string `json:"subscription_id"`
	Status         string `json:"status"`
	Plan           string `json:"plan,omitempty"`
	EndsAt         *int64 `json:"ends_at,omitempty"`
}
