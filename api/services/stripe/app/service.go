package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/realityinspector/auto-hyperflask/api/metrics"
	"github.com/realityinspector/auto-hyperflask/api/services/stripe/events"
	gw "github.com/realityinspector/auto-hyperflask/api/services/stripe/gateway"
)

// Service defines the business operations for the Stripe domain.
type Service interface {
	Enabled() bool
	Mode() string
	PublishableKey() (string, error)
	Config() ConfigView
	Plans() []Plan
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (gw.CheckoutSession, error)
	CompleteMockCheckout(ctx context.Context, sessionID string) (gw.CheckoutSession, error)
	ConstructWebhookEvent(payload []byte, sigHeader string) (gw.Event, error)
	HandleWebhookEvent(ctx context.Context, event gw.Event) (WebhookResult, error)
	GetSubscription(ctx context.Context, subscriptionID string) (gw.Subscription, error)
	CancelSubscription(ctx context.Context, subscriptionID string) (gw.Subscription, error)
}

type serviceImpl struct {
	opts Options
	gw   gw.Gateway
	deps Deps
	now  func() time.Time
}

// NewService builds the facade around g. A nil g disables the facade: every
// provider operation then fails with ErrDisabled.
func NewService(opts Options, g gw.Gateway, deps Deps) Service {
	if opts.Enabled && g == nil {
		slog.Warn("payments enabled without a gateway, disabling")
		opts.Enabled = false
	}
	if g != nil {
		opts.Mode = g.Mode()
	}
	if opts.Mode == "" {
		opts.Mode = gw.ModeMock
	}
	opts.CheckoutBaseURL = strings.TrimRight(opts.CheckoutBaseURL, "/")
	if deps.Publisher == nil {
		deps.Publisher = events.Nop{}
	}
	if deps.Plans == nil {
		deps.Plans = DefaultPlans
	}
	return serviceImpl{opts: opts, gw: g, deps: deps, now: time.Now}
}

func (s serviceImpl) Enabled() bool { return s.opts.Enabled }

func (s serviceImpl) Mode() string { return s.opts.Mode }

// PublishableKey returns the key the frontend initialises the provider's JS with.
func (s serviceImpl) PublishableKey() (string, error) {
	if !s.opts.Enabled {
		return "", ErrDisabled
	}
	return s.opts.PublishableKey, nil
}

func (s serviceImpl) Config() ConfigView {
	v := ConfigView{Enabled: s.opts.Enabled, Mode: s.opts.Mode}
	if key, err := s.PublishableKey(); err == nil {
		v.PublishableKey = key
	}
	return v
}

// Plans is available whether or not payments are enabled.
func (s serviceImpl) Plans() []Plan {
	out := make([]Plan, len(s.deps.Plans))
	copy(out, s.deps.Plans)
	return out
}

// CreateCheckoutSession starts a hosted checkout for one price.
func (s serviceImpl) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (gw.CheckoutSession, error) {
	if !s.opts.Enabled {
		return gw.CheckoutSession{}, ErrDisabled
	}
	email := strings.TrimSpace(req.CustomerEmail)
	if email == "" {
		return gw.CheckoutSession{}, fmt.Errorf("%w: customer email is required", ErrBadRequest)
	}
	if req.PriceID == "" {
		return gw.CheckoutSession{}, fmt.Errorf("%w: price id is required", ErrBadRequest)
	}
	mode := req.Mode
	if mode == "" {
		mode = gw.CheckoutModeSubscription
	}
	if mode != gw.CheckoutModeSubscription && mode != gw.CheckoutModePayment {
		return gw.CheckoutSession{}, fmt.Errorf("%w: unsupported checkout mode %q", ErrBadRequest, mode)
	}
	params := gw.CheckoutParams{
		CustomerEmail: email,
		PriceID:       req.PriceID,
		SuccessURL:    req.SuccessURL,
		CancelURL:     req.CancelURL,
		Mode:          mode,
	}
	if params.SuccessURL == "" {
		params.SuccessURL = s.opts.CheckoutBaseURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}"
	}
	if params.CancelURL == "" {
		params.CancelURL = s.opts.CheckoutBaseURL + "/checkout/cancel"
	}

	session, err := s.gw.CreateCheckoutSession(ctx, params)
	metrics.CheckoutSessionsTotal.WithLabelValues(s.opts.Mode, metrics.Outcome(err)).Inc()
	if err != nil {
		return gw.CheckoutSession{}, fmt.Errorf("creating checkout session: %w", err)
	}
	slog.Info("checkout session created", "session_id", session.ID, "price_id", params.PriceID, "mode", s.opts.Mode)
	return session, nil
}

// CompleteMockCheckout plays the customer paying for sessionID. The
// completion event is then applied in-process, as the provider would have
// delivered it through the webhook.
func (s serviceImpl) CompleteMockCheckout(ctx context.Context, sessionID string) (gw.CheckoutSession, error) {
	if !s.opts.Enabled {
		return gw.CheckoutSession{}, ErrDisabled
	}
	sim, ok := s.gw.(gw.Simulator)
	if !ok {
		return gw.CheckoutSession{}, ErrNotMockMode
	}
	session, err := sim.CompleteCheckoutSession(sessionID)
	if err != nil {
		return gw.CheckoutSession{}, fmt.Errorf("completing checkout session %s: %w", sessionID, err)
	}
	s.deliverLocally(ctx, gw.EventCheckoutSessionCompleted, session)
	return session, nil
}

// ConstructWebhookEvent parses a webhook body, verifying its signature
// against the configured secret where the gateway supports it.
func (s serviceImpl) ConstructWebhookEvent(payload []byte, sigHeader string) (gw.Event, error) {
	if !s.opts.Enabled {
		return gw.Event{}, ErrDisabled
	}
	return s.gw.ConstructEvent(payload, sigHeader, s.opts.WebhookSecret)
}

// deliverLocally hands a simulator-side change to the webhook handler.
// Failures are logged; the simulated provider call itself succeeded.
func (s serviceImpl) deliverLocally(ctx context.Context, eventType string, object any) {
	raw, err := json.Marshal(object)
	if err != nil {
		slog.Error("encoding simulated event", "event_type", eventType, "error", err)
		return
	}
	ev := gw.Event{Type: eventType, Created: s.now().Unix(), Data: raw}
	if _, err := s.HandleWebhookEvent(ctx, ev); err != nil {
		slog.Error("applying simulated event", "event_type", eventType, "error", err)
	}
}
