package gateway

import "errors"

// Typed errors shared by the gateway implementations. The app and transport
// layers match on these instead of SDK-specific error types.
var (
	// ErrNotFound indicates a session or subscription id absent from its store.
	ErrNotFound = errors.New("not found")
	// ErrBadPayload indicates a webhook payload that cannot be parsed.
	ErrBadPayload = errors.New("invalid payload")
	// ErrSignatureInvalid indicates the provider rejected a webhook signature.
	ErrSignatureInvalid = errors.New("invalid webhook signature")
	// ErrGateway indicates a failure from the provider API calls.
	ErrGateway = errors.New("gateway error")
)
