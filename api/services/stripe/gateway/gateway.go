package gateway

import "context"

// Mode names accepted by the gateway implementations.
const (
	ModeMock = "mock"
	ModeTest = "test"
	ModeLive = "live"
)

// Gateway abstracts the payments provider operations needed by the app layer.
// One implementation simulates the provider in memory, the other calls the
// provider SDK. Methods return values (not pointers) to keep the public
// interfaces free of pointer types.
type Gateway interface {
	Mode() string
	CreateCheckoutSession(ctx context.Context, p CheckoutParams) (CheckoutSession, error)
	ConstructEvent(payload []byte, sigHeader, secret string) (Event, error)
	GetSubscription(ctx context.Context, id string) (Subscription, error)
	CancelSubscription(ctx context.Context, id string) (Subscription, error)
}

// Simulator is implemented by gateways that can drive a checkout to
// completion without a real customer paying.
type Simulator interface {
	CompleteCheckoutSession(id string) (CheckoutSession, error)
}
