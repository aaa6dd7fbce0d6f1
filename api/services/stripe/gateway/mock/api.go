package mockgw

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	gw "github.com/realityinspector/auto-hyperflask/api/services/stripe/gateway"
)

const (
	checkoutURLBase = "https://checkout.stripe.com/mock/"
	billingPeriod   = 30 * 24 * time.Hour
)

// API simulates the payments provider in memory so checkout and subscription
// flows can run without network calls or credentials.
type API struct {
	mu  sync.Mutex
	st  *store
	now func() time.Time
}

// Option configures an API.
type Option func(*API)

// WithClock overrides the time source used for timestamps and periods.
func WithClock(now func() time.Time) Option {
	return func(a *API) { a.now = now }
}

// New returns an empty simulator.
func New(opts ...Option) *API {
	a := &API{st: newStore(), now: time.Now}
	for _, o := range opts {
		o(a)
	}
	return a
}

var (
	_ gw.Gateway   = (*API)(nil)
	_ gw.Simulator = (*API)(nil)
)

func (a *API) Mode() string { return gw.ModeMock }

// CreateCustomer stores and returns a new customer. It always succeeds.
func (a *API) CreateCustomer(email string, metadata map[string]string) gw.Customer {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.createCustomer(email, metadata)
}

func (a *API) createCustomer(email string, metadata map[string]string) gw.Customer {
	c := gw.Customer{
		ID:       newID(customerPrefix, shortIDBytes),
		Email:    email,
		Created:  a.now().Unix(),
		Metadata: copyMetadata(metadata),
	}
	a.st.customers[c.ID] = c
	return cloneCustomer(c)
}

// CreateSubscription stores an active subscription with a 30 day period
// starting now. The customer id is not checked against the customer store.
func (a *API) CreateSubscription(customerID, priceID string, metadata map[string]string) gw.Subscription {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.createSubscription(customerID, priceID, metadata)
}

func (a *API) createSubscription(customerID, priceID string, metadata map[string]string) gw.Subscription {
	now := a.now()
	s := gw.Subscription{
		ID:                 newID(subscriptionPrefix, shortIDBytes),
		CustomerID:         customerID,
		Status:             gw.SubscriptionStatusActive,
		CurrentPeriodStart: now.Unix(),
		CurrentPeriodEnd:   now.Add(billingPeriod).Unix(),
		PriceID:            priceID,
		Metadata:           copyMetadata(metadata),
	}
	a.st.subscriptions[s.ID] = s
	return cloneSubscription(s)
}

// CreateCheckoutSession stores an open session with a synthetic checkout URL.
func (a *API) CreateCheckoutSession(_ context.Context, p gw.CheckoutParams) (gw.CheckoutSession, error) {
	mode := p.Mode
	if mode == "" {
		mode = gw.CheckoutModeSubscription
	}
	id := newID(sessionPrefix, sessionIDBytes)
	s := gw.CheckoutSession{
		ID:            id,
		CustomerEmail: p.CustomerEmail,
		Mode:          mode,
		URL:           checkoutURLBase + id,
		SuccessURL:    p.SuccessURL,
		CancelURL:     p.CancelURL,
		LineItems:     []gw.LineItem{{Price: p.PriceID, Quantity: 1}},
		Metadata:      map[string]string{},
	}

	a.mu.Lock()
	a.st.sessions[id] = s
	a.mu.Unlock()

	slog.Debug("mock checkout session created", "session_id", id, "price_id", p.PriceID)
	return cloneSession(s), nil
}

// CompleteCheckoutSession simulates the customer paying: it creates the
// customer and subscription, marks the session complete and records a
// checkout.session.completed event. Completing an already complete session
// creates another customer/subscription pair.
func (a *API) CompleteCheckoutSession(id string) (gw.CheckoutSession, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	s, ok := a.st.sessions[id]
	if !ok {
		return gw.CheckoutSession{}, fmt.Errorf("%w: checkout session %s", gw.ErrNotFound, id)
	}

	cust := a.createCustomer(s.CustomerEmail, nil)
	sub := a.createSubscription(cust.ID, s.PriceID(), nil)

	s.Completion = &gw.Completion{
		CustomerID:     cust.ID,
		SubscriptionID: sub.ID,
		PaymentStatus:  gw.PaymentStatusPaid,
	}
	a.st.sessions[id] = s

	if _, err := a.recordEvent(gw.EventCheckoutSessionCompleted, s); err != nil {
		return gw.CheckoutSession{}, err
	}
	return cloneSession(s), nil
}

// CancelSubscription marks the subscription canceled and records a
// customer.subscription.deleted event. Canceling twice is allowed and moves
// the cancellation timestamp.
func (a *API) CancelSubscription(_ context.Context, id string) (gw.Subscription, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	s, ok := a.st.subscriptions[id]
	if !ok {
		return gw.Subscription{}, fmt.Errorf("%w: subscription %s", gw.ErrNotFound, id)
	}
	s.Status = gw.SubscriptionStatusCanceled
	s.CanceledAt = a.now().Unix()
	a.st.subscriptions[id] = s

	if _, err := a.recordEvent(gw.EventCustomerSubscriptionDeleted, s); err != nil {
		return gw.Subscription{}, err
	}
	return cloneSubscription(s), nil
}

// RecordEvent appends an event wrapping a snapshot of payload.
func (a *API) RecordEvent(eventType string, payload any) (gw.Event, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.recordEvent(eventType, payload)
}

func (a *API) recordEvent(eventType string, payload any) (gw.Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return gw.Event{}, fmt.Errorf("snapshot for %s: %w", eventType, err)
	}
	e := gw.Event{
		ID:      newID(eventPrefix, shortIDBytes),
		Type:    eventType,
		Created: a.now().Unix(),
		Data:    data,
	}
	a.st.events = append(a.st.events, e)
	return e, nil
}

// ConstructEvent parses a webhook payload. No signature verification is done
// in mock mode; sigHeader and secret are ignored.
func (a *API) ConstructEvent(payload []byte, _ string, _ string) (gw.Event, error) {
	var e gw.Event
	if err := json.Unmarshal(payload, &e); err != nil {
		return gw.Event{}, fmt.Errorf("%w: %v", gw.ErrBadPayload, err)
	}
	return e, nil
}

// GetSubscription returns the stored subscription.
func (a *API) GetSubscription(_ context.Context, id string) (gw.Subscription, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.st.subscriptions[id]
	if !ok {
		return gw.Subscription{}, fmt.Errorf("%w: subscription %s", gw.ErrNotFound, id)
	}
	return cloneSubscription(s), nil
}

// Customer returns the stored customer, if any.
func (a *API) Customer(id string) (gw.Customer, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	c, ok := a.st.customers[id]
	return cloneCustomer(c), ok
}

// CheckoutSession returns the stored session, if any.
func (a *API) CheckoutSession(id string) (gw.CheckoutSession, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.st.sessions[id]
	return cloneSession(s), ok
}

// Events returns the recorded events in order.
func (a *API) Events() []gw.Event {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]gw.Event, len(a.st.events))
	copy(out, a.st.events)
	return out
}

// Counts reports the size of each store.
type Counts struct {
	Customers     int `json:"customers"`
	Subscriptions int `json:"subscriptions"`
	Sessions      int `json:"checkout_sessions"`
	Events        int `json:"events"`
}

func (a *API) Counts() Counts {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Counts{
		Customers:     len(a.st.customers),
		Subscriptions: len(a.st.subscriptions),
		Sessions:      len(a.st.sessions),
		Events:        len(a.st.events),
	}
}

func cloneCustomer(c gw.Customer) gw.Customer {
	if c.Metadata != nil {
		c.Metadata = copyMetadata(c.Metadata)
	}
	return c
}

func cloneSubscription(s gw.Subscription) gw.Subscription {
	if s.Metadata != nil {
		s.Metadata = copyMetadata(s.Metadata)
	}
	return s
}

func cloneSession(s gw.CheckoutSession) gw.CheckoutSession {
	if s.Metadata != nil {
		s.Metadata = copyMetadata(s.Metadata)
	}
	if s.LineItems != nil {
		s.LineItems = append([]gw.LineItem(nil), s.LineItems...)
	}
	if s.Completion != nil {
		c := *s.Completion
		s.Completion = &c
	}
	return s
}
