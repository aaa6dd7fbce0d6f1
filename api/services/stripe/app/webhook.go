package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/realityinspector/auto-hyperflask/api/metrics"
	stripedb "github.com/realityinspector/auto-hyperflask/api/services/stripe/db"
	"github.com/realityinspector/auto-hyperflask/api/services/stripe/events"
	gw "github.com/realityinspector/auto-hyperflask/api/services/stripe/gateway"
)

// applied describes a webhook event that changed an account.
type applied struct {
	billingType string
	change      SubscriptionChange
}

// HandleWebhookEvent applies a verified provider event to the account store
// and publishes the resulting billing event. Redeliveries of an event id
// already handled are acknowledged without side effects.
func (s serviceImpl) HandleWebhookEvent(ctx context.Context, event gw.Event) (WebhookResult, error) {
	if !s.opts.Enabled {
		return WebhookResult{}, ErrDisabled
	}
	label := eventTypeLabel(event.Type)
	start := s.now()
	defer func() {
		metrics.WebhookDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
	}()

	res := WebhookResult{EventID: event.ID, EventType: event.Type}
	claimed := false
	if event.ID != "" && s.deps.Guard != nil {
		first, err := s.deps.Guard.FirstSeen(ctx, event.ID)
		switch {
		case err != nil:
			slog.Warn("idempotency check failed, processing event", "event_id", event.ID, "error", err)
		case !first:
			slog.Info("duplicate webhook event skipped", "event_id", event.ID, "event_type", event.Type)
			res.Outcome = WebhookDuplicate
			metrics.WebhookEventsTotal.WithLabelValues(label, metrics.OutcomeDuplicate).Inc()
			return res, nil
		default:
			claimed = true
		}
	}

	a, err := s.dispatch(ctx, event)
	if err != nil {
		if claimed {
			// Let the provider's retry run the handler again.
			if ferr := s.deps.Guard.Forget(ctx, event.ID); ferr != nil {
				slog.Warn("releasing webhook event failed", "event_id", event.ID, "error", ferr)
			}
		}
		metrics.WebhookEventsTotal.WithLabelValues(label, metrics.OutcomeError).Inc()
		slog.Error("webhook event failed", "event_id", event.ID, "event_type", event.Type, "error", err)
		return res, err
	}
	if a == nil {
		res.Outcome = WebhookIgnored
		metrics.WebhookEventsTotal.WithLabelValues(label, metrics.OutcomeIgnored).Inc()
		return res, nil
	}

	s.publish(ctx, event.ID, *a)
	res.Outcome = WebhookHandled
	metrics.WebhookEventsTotal.WithLabelValues(label, metrics.OutcomeOK).Inc()
	return res, nil
}

// eventTypeLabel bounds the metric label set; event types come from the
// request body.
func eventTypeLabel(eventType string) string {
	switch eventType {
	case gw.EventCheckoutSessionCompleted, gw.EventCustomerSubscriptionDeleted, gw.EventCustomerSubscriptionUpdated:
		return eventType
	}
	return metrics.EventTypeOther
}

func (s serviceImpl) dispatch(ctx context.Context, event gw.Event) (*applied, error) {
	switch event.Type {
	case gw.EventCheckoutSessionCompleted:
		return s.handleCheckoutSessionCompleted(ctx, event)
	case gw.EventCustomerSubscriptionDeleted:
		return s.handleSubscriptionChanged(ctx, event, BillingSubscriptionCanceled)
	case gw.EventCustomerSubscriptionUpdated:
		return s.handleSubscriptionChanged(ctx, event, BillingSubscriptionUpdated)
	default:
		slog.Info("unhandled webhook event type", "event_id", event.ID, "event_type", event.Type)
		return nil, nil
	}
}

// handleCheckoutSessionCompleted activates the subscription bought with the session.
func (s serviceImpl) handleCheckoutSessionCompleted(ctx context.Context, event gw.Event) (*applied, error) {
	var session gw.CheckoutSession
	if err := event.DecodeObject(&session); err != nil {
		return nil, err
	}
	email := normalizeEmail(session.CustomerEmail)
	if email == "" {
		return nil, fmt.Errorf("%w: customer email not found in CheckoutSession", ErrBadEvent)
	}
	if session.Completion == nil || session.Completion.CustomerID == "" {
		return nil, fmt.Errorf("%w: customer ID not found in CheckoutSession", ErrBadEvent)
	}
	if session.Completion.SubscriptionID == "" {
		return nil, fmt.Errorf("%w: subscription ID not found in CheckoutSession", ErrBadEvent)
	}
	c := session.Completion

	priceID := session.PriceID()
	if priceID == "" {
		// Provider payloads carry no line items; the subscription knows its price.
		sub, err := s.gw.GetSubscription(ctx, c.SubscriptionID)
		if err != nil {
			slog.Warn("resolving plan from subscription failed", "subscription_id", c.SubscriptionID, "error", err)
		} else {
			priceID = sub.PriceID
		}
	}
	planName := ""
	if p, ok := PlanForPrice(s.deps.Plans, priceID); ok {
		planName = strings.ToLower(p.Name)
	}

	if s.deps.Accounts != nil {
		err := s.deps.Accounts.ActivateSubscription(ctx, stripedb.Activation{
			Email:          email,
			CustomerID:     c.CustomerID,
			SubscriptionID: c.SubscriptionID,
			Plan:           planName,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: error activating subscription: %v", ErrDatabase, err)
		}
	}
	slog.Info("subscription activated", "email", email, "subscription_id", c.SubscriptionID, "plan", planName)

	return &applied{
		billingType: BillingSubscriptionActivated,
		change: SubscriptionChange{
			Email:          email,
			CustomerID:     c.CustomerID,
			SubscriptionID: c.SubscriptionID,
			Status:         string(gw.SubscriptionStatusActive),
			Plan:           planName,
		},
	}, nil
}

// handleSubscriptionChanged mirrors the subscription status onto the account holding it.
func (s serviceImpl) handleSubscriptionChanged(ctx context.Context, event gw.Event, billingType string) (*applied, error) {
	var sub gw.Subscription
	if err := event.DecodeObject(&sub); err != nil {
		return nil, err
	}
	if sub.ID == "" {
		return nil, fmt.Errorf("%w: subscription ID not found in Subscription", ErrBadEvent)
	}
	status := sub.Status
	if event.Type == gw.EventCustomerSubscriptionDeleted {
		status = gw.SubscriptionStatusCanceled
	}
	if status == "" {
		return nil, fmt.Errorf("%w: status not found in Subscription", ErrBadEvent)
	}
	sub.Status = status
	ends := endsAt(sub, s.now())

	if s.deps.Accounts != nil {
		found, err := s.deps.Accounts.UpdateSubscriptionStatus(ctx, sub.ID, string(status), ends)
		if err != nil {
			return nil, fmt.Errorf("%w: error updating subscription status: %v", ErrDatabase, err)
		}
		if !found {
			slog.Warn("no account holds subscription", "subscription_id", sub.ID, "event_type", event.Type)
		}
	}
	slog.Info("subscription status changed", "subscription_id", sub.ID, "status", status)

	return &applied{
		billingType: billingType,
		change: SubscriptionChange{
			CustomerID:     sub.CustomerID,
			SubscriptionID: sub.ID,
			Status:         string(status),
			EndsAt:         unixPtr(ends),
		},
	}, nil
}

// publish emits the billing event for a; failures are logged only.
func (s serviceImpl) publish(ctx context.Context, sourceID string, a applied) {
	ev, err := events.NewBillingEvent(a.billingType, sourceID, a.change.SubscriptionID, a.change)
	if err == nil {
		err = s.deps.Publisher.Publish(ctx, ev)
	}
	metrics.EventsPublishedTotal.WithLabelValues(metrics.Outcome(err)).Inc()
	if err != nil {
		slog.Error("publishing billing event failed", "event_type", a.billingType, "source_id", sourceID, "error", err)
	}
}
