package gateway

import "encoding/json"

type SubscriptionStatus string

type SessionStatus string

type PaymentStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
)

const (
	SessionStatusOpen     SessionStatus = "open"
	SessionStatusComplete SessionStatus = "complete"
)

const PaymentStatusPaid PaymentStatus = "paid"

// Checkout modes.
const (
	CheckoutModeSubscription = "subscription"
	CheckoutModePayment      = "payment"
)

// Event types emitted by the simulator and handled by the webhook dispatcher.
const (
	EventCheckoutSessionCompleted    = "checkout.session.completed"
	EventCustomerSubscriptionDeleted = "customer.subscription.deleted"
	EventCustomerSubscriptionUpdated = "customer.subscription.updated"
)

// CheckoutParams are the inputs of a checkout session creation.
type CheckoutParams struct {
	CustomerEmail string
	PriceID       string
	SuccessURL    string
	CancelURL     string
	Mode          string
}

type LineItem struct {
	Price    string `json:"price"`
	Quantity int64  `json:"quantity"`
}

type Customer struct {
	ID       string            `json:"id"`
	Email    string            `json:"email"`
	Created  int64             `json:"created"`
	Metadata map[string]string `json:"metadata"`
}

type Subscription struct {
	ID                 string
	CustomerID         string
	Status             SubscriptionStatus
	CurrentPeriodStart int64
	CurrentPeriodEnd   int64
	PriceID            string
	// CanceledAt is zero until the subscription is canceled.
	CanceledAt int64
	Metadata   map[string]string
}

// Completion holds what a checkout session gains once paid. A session
// without a Completion is open.
type Completion struct {
	CustomerID     string
	SubscriptionID string
	PaymentStatus  PaymentStatus
}

type CheckoutSession struct {
	ID            string
	CustomerEmail string
	Mode          string
	URL           string
	SuccessURL    string
	CancelURL     string
	LineItems     []LineItem
	Metadata      map[string]string
	Completion    *Completion
}

// Status derives the session state from its completion.
func (s CheckoutSession) Status() SessionStatus {
	if s.Completion != nil {
		return SessionStatusComplete
	}
	return SessionStatusOpen
}

// PriceID returns the price of the first line item, if any.
func (s CheckoutSession) PriceID() string {
	if len(s.LineItems) == 0 {
		return ""
	}
	return s.LineItems[0].Price
}

// Event is a provider notification. Data holds a JSON snapshot of the
// object the event is about.
type Event struct {
	ID      string
	Type    string
	Created int64
	Data    json.RawMessage
}
