package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	stripedb "github.com/realityinspector/auto-hyperflask/api/services/stripe/db"
	"github.com/realityinspector/auto-hyperflask/api/services/stripe/events"
	gw "github.com/realityinspector/auto-hyperflask/api/services/stripe/gateway"
)

// fakeGateway stands in for the SDK-backed gateway in test/live modes.
type fakeGateway struct {
	mode      string
	subs      map[string]gw.Subscription
	lastParam gw.CheckoutParams
	err       error
}

func (f *fakeGateway) Mode() string { return f.mode }

func (f *fakeGateway) CreateCheckoutSession(_ context.Context, p gw.CheckoutParams) (gw.CheckoutSession, error) {
	f.lastParam = p
	if f.err != nil {
		return gw.CheckoutSession{}, f.err
	}
	return gw.CheckoutSession{ID: "cs_test_fake", CustomerEmail: p.CustomerEmail, Mode: p.Mode, URL: "https://checkout.example/cs_test_fake",
		LineItems: []gw.LineItem{{Price: p.PriceID, Quantity: 1}}}, nil
}

func (f *fakeGateway) ConstructEvent(payload []byte, sigHeader, secret string) (gw.Event, error) {
	if sigHeader != "t=1,v1="+secret {
		return gw.Event{}, fmt.Errorf("%w: bad header", gw.ErrSignatureInvalid)
	}
	return gw.Event{ID: "evt_fake", Type: "ping", Data: payload}, nil
}

func (f *fakeGateway) GetSubscription(_ context.Context, id string) (gw.Subscription, error) {
	if f.err != nil {
		return gw.Subscription{}, f.err
	}
	sub, ok := f.subs[id]
	if !ok {
		return gw.Subscription{}, fmt.Errorf("%w: subscription %s", gw.ErrNotFound, id)
	}
	return sub, nil
}

func (f *fakeGateway) CancelSubscription(ctx context.Context, id string) (gw.Subscription, error) {
	sub, err := f.GetSubscription(ctx, id)
	if err != nil {
		return gw.Subscription{}, err
	}
	sub.Status = gw.SubscriptionStatusCanceled
	sub.CanceledAt = time.Now().Unix()
	return sub, nil
}

type statusUpdate struct {
	SubscriptionID string
	Status         string
	EndsAt         *time.Time
}

type fakeAccounts struct {
	activations []stripedb.Activation
	updates     []statusUpdate
	known       map[string]bool
	err         error
}

func (f *fakeAccounts) ActivateSubscription(_ context.Context, a stripedb.Activation) error {
	if f.err != nil {
		return f.err
	}
	f.activations = append(f.activations, a)
	if f.known == nil {
		f.known = map[string]bool{}
	}
	f.known[a.SubscriptionID] = true
	return nil
}

func (f *fakeAccounts) UpdateSubscriptionStatus(_ context.Context, subscriptionID, status string, endsAt *time.Time) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.updates = append(f.updates, statusUpdate{SubscriptionID: subscriptionID, Status: status, EndsAt: endsAt})
	return f.known[subscriptionID], nil
}

type fakeGuard struct {
	seen      map[string]bool
	forgotten []string
	err       error
}

func (f *fakeGuard) FirstSeen(_ context.Context, id string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	if f.seen[id] {
		return false, nil
	}
	f.seen[id] = true
	return true, nil
}

func (f *fakeGuard) Forget(_ context.Context, id string) error {
	delete(f.seen, id)
	f.forgotten = append(f.forgotten, id)
	return nil
}

type fakePublisher struct {
	published []events.BillingEvent
	err       error
}

func (f *fakePublisher) Publish(_ context.Context, ev events.BillingEvent) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, ev)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

var errBoom = errors.New("boom")
