package gateway

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckoutSession_DecodeProviderPayload(t *testing.T) {
	raw := []byte(`{
		"id": "cs_test_completed",
		"object": "checkout.session",
		"customer_email": "flow@example.com",
		"customer": "cus_test_123",
		"subscription": {"id": "sub_test_123", "object": "subscription"},
		"payment_status": "paid",
		"line_items": {"object": "list", "data": [{"price": {"id": "price_test_pro_monthly"}, "quantity": 1}]}
	}`)

	var s CheckoutSession
	require.NoError(t, json.Unmarshal(raw, &s))
	assert.Equal(t, SessionStatusComplete, s.Status())
	require.NotNil(t, s.Completion)
	assert.Equal(t, "cus_test_123", s.Completion.CustomerID)
	assert.Equal(t, "sub_test_123", s.Completion.SubscriptionID)
	assert.Equal(t, PaymentStatusPaid, s.Completion.PaymentStatus)
	assert.Equal(t, "price_test_pro_monthly", s.PriceID())
}

func TestCheckoutSession_EmailFromCustomerDetails(t *testing.T) {
	raw := []byte(`{"id": "cs_1", "customer_email": null, "customer_details": {"email": "details@example.com"}, "status": "complete"}`)

	var s CheckoutSession
	require.NoError(t, json.Unmarshal(raw, &s))
	assert.Equal(t, "details@example.com", s.CustomerEmail)
	assert.Equal(t, SessionStatusComplete, s.Status())
}

func TestCheckoutSession_OpenHasNoCompletionFields(t *testing.T) {
	s := CheckoutSession{ID: "cs_test_1", CustomerEmail: "a@x.com", LineItems: []LineItem{{Price: "p1", Quantity: 1}}}
	b, err := json.Marshal(s)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "open", m["status"])
	assert.Equal(t, "checkout.session", m["object"])
	assert.NotContains(t, m, "customer")
	assert.NotContains(t, m, "subscription")
	assert.NotContains(t, m, "payment_status")
}

func TestSubscription_DecodeFallsBackToPlan(t *testing.T) {
	raw := []byte(`{"id":"sub_1","customer":{"id":"cus_1"},"status":"canceled","canceled_at":1700000000,"plan":{"id":"price_legacy"},"items":{"data":[]}}`)

	var s Subscription
	require.NoError(t, json.Unmarshal(raw, &s))
	assert.Equal(t, "cus_1", s.CustomerID)
	assert.Equal(t, SubscriptionStatusCanceled, s.Status)
	assert.Equal(t, int64(1700000000), s.CanceledAt)
	assert.Equal(t, "price_legacy", s.PriceID)
}

func TestEvent_DecodeObjectWithoutData(t *testing.T) {
	var e Event
	require.NoError(t, json.Unmarshal([]byte(`{"id":"evt_1","type":"customer.subscription.deleted"}`), &e))

	var s Subscription
	assert.ErrorIs(t, e.DecodeObject(&s), ErrBadPayload)
}

func TestEvent_MarshalShape(t *testing.T) {
	e := Event{ID: "evt_1", Type: EventCheckoutSessionCompleted, Created: 42, Data: json.RawMessage(`{"id":"cs_1"}`)}
	b, err := json.Marshal(e)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"evt_1","object":"event","type":"checkout.session.completed","created":42,"data":{"object":{"id":"cs_1"}}}`, string(b))
}
