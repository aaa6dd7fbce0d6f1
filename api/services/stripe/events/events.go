package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Producer names this service in published envelopes.
const Producer = "billing-api"

// BillingEvent is the envelope published after a webhook event is handled.
type BillingEvent struct {
	EventID      string          `json:"event_id"`
	EventType    string          `json:"event_type"`
	EventVersion int             `json:"event_version"`
	OccurredAt   time.Time       `json:"occurred_at"`
	Producer     string          `json:"producer"`
	SourceID     string          `json:"source_id,omitempty"` // provider event id
	Key          string          `json:"-"`
	Payload      json.RawMessage `json:"payload"`
}

// NewBillingEvent builds an envelope with a fresh id around payload.
func NewBillingEvent(eventType, sourceID, key string, payload any) (BillingEvent, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return BillingEvent{}, fmt.Errorf("encoding %s payload: %w", eventType, err)
	}
	return BillingEvent{
		EventID:      uuid.NewString(),
		EventType:    eventType,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     Producer,
		SourceID:     sourceID,
		Key:          key,
		Payload:      b,
	}, nil
}

// Publisher delivers billing events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, ev BillingEvent) error
	Close() error
}

// Nop discards events. It is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, BillingEvent) error { return nil }
func (Nop) Close() error                                { return nil }
