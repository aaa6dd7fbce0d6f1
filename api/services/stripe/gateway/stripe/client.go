package stripegw

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	stripe "github.com/stripe/stripe-go"
	"github.com/stripe/stripe-go/webhook"

	gw "github.com/realityinspector/auto-hyperflask/api/services/stripe/gateway"
)

// Client is the Stripe SDK-backed implementation of the gateway, used in
// test and live modes.
type Client struct {
	mode string
	sdk  SDK
}

var _ gw.Gateway = Client{}

// New returns a Client backed by the official Stripe SDK. The key must have
// been set with SetKey.
func New(mode string) Client { return NewWithSDK(mode, packageSDK{}) }

// NewWithSDK returns a Client calling sdk.
func NewWithSDK(mode string, sdk SDK) Client { return Client{mode: mode, sdk: sdk} }

func (c Client) Mode() string { return c.mode }

func (c Client) CreateCheckoutSession(ctx context.Context, p gw.CheckoutParams) (gw.CheckoutSession, error) {
	mode := p.Mode
	if mode == "" {
		mode = gw.CheckoutModeSubscription
	}
	params := &stripe.CheckoutSessionParams{
		CustomerEmail:      stripe.String(p.CustomerEmail),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Quantity: stripe.Int64(1)},
		},
		Mode:       stripe.String(mode),
		SuccessURL: stripe.String(p.SuccessURL),
		CancelURL:  stripe.String(p.CancelURL),
	}
	// v70 line items have no price field; the form key carries it.
	params.AddExtra("line_items[0][price]", p.PriceID)
	params.Context = ctx

	s, err := c.sdk.NewCheckoutSession(params)
	if err != nil {
		return gw.CheckoutSession{}, wrapSDKError("creating checkout session", err)
	}
	out := toCheckoutSession(s)
	if len(out.LineItems) == 0 {
		out.LineItems = []gw.LineItem{{Price: p.PriceID, Quantity: 1}}
	}
	return out, nil
}

// ConstructEvent verifies the signature header against the webhook secret.
func (c Client) ConstructEvent(payload []byte, sigHeader, secret string) (gw.Event, error) {
	ev, err := c.sdk.ConstructEvent(payload, sigHeader, secret)
	if err != nil {
		if isSignatureError(err) {
			return gw.Event{}, fmt.Errorf("%w: %v", gw.ErrSignatureInvalid, err)
		}
		return gw.Event{}, fmt.Errorf("%w: %v", gw.ErrBadPayload, err)
	}
	return toEvent(ev), nil
}

func (c Client) GetSubscription(ctx context.Context, id string) (gw.Subscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	s, err := c.sdk.GetSubscription(id, params)
	if err != nil {
		return gw.Subscription{}, wrapSDKError("getting subscription "+id, err)
	}
	if s == nil {
		return gw.Subscription{}, fmt.Errorf("%w: subscription %s", gw.ErrNotFound, id)
	}
	return toSubscription(s), nil
}

func (c Client) CancelSubscription(ctx context.Context, id string) (gw.Subscription, error) {
	params := &stripe.SubscriptionCancelParams{}
	params.Context = ctx
	s, err := c.sdk.CancelSubscription(id, params)
	if err != nil {
		return gw.Subscription{}, wrapSDKError("canceling subscription "+id, err)
	}
	if s == nil {
		return gw.Subscription{ID: id, Status: gw.SubscriptionStatusCanceled}, nil
	}
	return toSubscription(s), nil
}

func isSignatureError(err error) bool {
	return errors.Is(err, webhook.ErrNotSigned) ||
		errors.Is(err, webhook.ErrInvalidHeader) ||
		errors.Is(err, webhook.ErrNoValidSignature) ||
		errors.Is(err, webhook.ErrTooOld)
}

// wrapSDKError maps missing resources to ErrNotFound and everything else to ErrGateway.
func wrapSDKError(op string, err error) error {
	var serr *stripe.Error
	if errors.As(err, &serr) && (serr.HTTPStatusCode == http.StatusNotFound || serr.Code == stripe.ErrorCodeResourceMissing) {
		return fmt.Errorf("%w: %s: %v", gw.ErrNotFound, op, err)
	}
	return fmt.Errorf("%w: %s: %v", gw.ErrGateway, op, err)
}
