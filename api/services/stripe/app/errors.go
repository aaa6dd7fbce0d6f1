package app

import (
	"errors"

	gw "github.com/realityinspector/auto-hyperflask/api/services/stripe/gateway"
)

// Typed errors for the Stripe app layer. These enable HTTP mapping without
// relying on SDK-specific error types at the transport layer.
var (
	// ErrDisabled indicates payments are switched off by configuration.
	ErrDisabled = errors.New("payments are not enabled")
	// ErrNotMockMode indicates a simulator-only operation called against a real provider.
	ErrNotMockMode = errors.New("operation only available in mock mode")
	// ErrBadRequest indicates a request missing required fields.
	ErrBadRequest = errors.New("bad request")
	// ErrDatabase indicates a database-related failure.
	ErrDatabase = errors.New("database error")

	// ErrBadEvent indicates the incoming event payload is invalid or missing required fields.
	ErrBadEvent = gw.ErrBadPayload
	// ErrGateway indicates a failure from the Stripe gateway / API calls.
	ErrGateway = gw.ErrGateway
	// ErrNotFound indicates an unknown checkout session or subscription.
	ErrNotFound = gw.ErrNotFound
	// ErrSignatureInvalid indicates a webhook whose signature the provider rejected.
	ErrSignatureInvalid = gw.ErrSignatureInvalid
)
