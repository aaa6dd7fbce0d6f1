package stripegw

import (
	stripe "github.com/stripe/stripe-go"
	"github.com/stripe/stripe-go/checkout/session"
	"github.com/stripe/stripe-go/sub"
	"github.com/stripe/stripe-go/webhook"
)

//go:generate mockgen -destination=mocks/mock_sdk.go -package=mocks github.com/realityinspector/auto-hyperflask/api/services/stripe/gateway/stripe SDK

// SDK is the part of the stripe-go surface the client calls.
type SDK interface {
	NewCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	GetSubscription(id string, params *stripe.SubscriptionParams) (*stripe.Subscription, error)
	CancelSubscription(id string, params *stripe.SubscriptionCancelParams) (*stripe.Subscription, error)
	ConstructEvent(payload []byte, header, secret string) (stripe.Event, error)
}

// SetKey configures the Stripe SDK key once during bootstrap.
func SetKey(key string) { stripe.Key = key }

// packageSDK forwards to the package-level stripe-go functions.
type packageSDK struct{}

func (packageSDK) NewCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return session.New(params)
}

func (packageSDK) GetSubscription(id string, params *stripe.SubscriptionParams) (*stripe.Subscription, error) {
	return sub.Get(id, params)
}

func (packageSDK) CancelSubscription(id string, params *stripe.SubscriptionCancelParams) (*stripe.Subscription, error) {
	return sub.Cancel(id, params)
}

func (packageSDK) ConstructEvent(payload []byte, header, secret string) (stripe.Event, error) {
	return webhook.ConstructEvent(payload, header, secret)
}
