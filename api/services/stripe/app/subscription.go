package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/realityinspector/auto-hyperflask/api/metrics"
	gw "github.com/realityinspector/auto-hyperflask/api/services/stripe/gateway"
)

// GetSubscription fetches a subscription from the provider by its ID.
func (s serviceImpl) GetSubscription(ctx context.Context, subscriptionID string) (gw.Subscription, error) {
	if !s.opts.Enabled {
		return gw.Subscription{}, ErrDisabled
	}
	if subscriptionID == "" {
		return gw.Subscription{}, fmt.Errorf("%w: subscription id is required", ErrBadRequest)
	}
	sub, err := s.gw.GetSubscription(ctx, subscriptionID)
	if err != nil {
		return gw.Subscription{}, fmt.Errorf("fetching subscription %s: %w", subscriptionID, err)
	}
	return sub, nil
}

// CancelSubscription attempts to cancel a Stripe subscription by its ID.
// In mock mode the resulting deletion event is applied in-process.
func (s serviceImpl) CancelSubscription(ctx context.Context, subscriptionID string) (gw.Subscription, error) {
	if !s.opts.Enabled {
		return gw.Subscription{}, ErrDisabled
	}
	if subscriptionID == "" {
		return gw.Subscription{}, fmt.Errorf("%w: subscription id is required", ErrBadRequest)
	}
	sub, err := s.gw.CancelSubscription(ctx, subscriptionID)
	metrics.SubscriptionCancellationsTotal.WithLabelValues(metrics.Outcome(err)).Inc()
	if err != nil {
		return gw.Subscription{}, fmt.Errorf("canceling subscription %s: %w", subscriptionID, err)
	}
	slog.Info("subscription canceled", "subscription_id", sub.ID, "mode", s.opts.Mode)
	if _, ok := s.gw.(gw.Simulator); ok {
		s.deliverLocally(ctx, gw.EventCustomerSubscriptionDeleted, sub)
	}
	return sub, nil
}
