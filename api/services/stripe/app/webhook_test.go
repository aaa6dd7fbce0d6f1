package app

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realityinspector/auto-hyperflask/api/metrics"
	stripedb "github.com/realityinspector/auto-hyperflask/api/services/stripe/db"
	gw "github.com/realityinspector/auto-hyperflask/api/services/stripe/gateway"
	mockgw "github.com/realityinspector/auto-hyperflask/api/services/stripe/gateway/mock"
)

func eventOf(t *testing.T, id, eventType string, object any) gw.Event {
	t.Helper()
	raw, err := json.Marshal(object)
	require.NoError(t, err)
	return gw.Event{ID: id, Type: eventType, Created: time.Now().Unix(), Data: raw}
}

func completedSession(email, priceID string) gw.CheckoutSession {
	return gw.CheckoutSession{
		ID:            "cs_test_1",
		CustomerEmail: email,
		Mode:          gw.CheckoutModeSubscription,
		LineItems:     []gw.LineItem{{Price: priceID, Quantity: 1}},
		Completion:    &gw.Completion{CustomerID: "cus_1", SubscriptionID: "sub_1", PaymentStatus: gw.PaymentStatusPaid},
	}
}

func TestHandleWebhook_CheckoutCompletedActivatesAccount(t *testing.T) {
	accounts := &fakeAccounts{}
	pub := &fakePublisher{}
	svc := NewService(enabledOpts(), &fakeGateway{mode: gw.ModeTest}, Deps{Accounts: accounts, Publisher: pub})

	res, err := svc.HandleWebhookEvent(context.Background(),
		eventOf(t, "evt_1", gw.EventCheckoutSessionCompleted, completedSession("Buyer@Example.com", "price_test_pro_monthly")))
	require.NoError(t, err)
	assert.Equal(t, WebhookHandled, res.Outcome)

	require.Len(t, accounts.activations, 1)
	assert.Equal(t, stripedb.Activation{Email: "buyer@example.com", CustomerID: "cus_1", SubscriptionID: "sub_1", Plan: "pro"}, accounts.activations[0])

	require.Len(t, pub.published, 1)
	ev := pub.published[0]
	assert.Equal(t, BillingSubscriptionActivated, ev.EventType)
	assert.Equal(t, "evt_1", ev.SourceID)
	assert.Equal(t, "sub_1", ev.Key)
	var change SubscriptionChange
	require.NoError(t, json.Unmarshal(ev.Payload, &change))
	assert.Equal(t, "active", change.Status)
	assert.Equal(t, "pro", change.Plan)
}

func TestHandleWebhook_CheckoutCompletedResolvesPlanFromSubscription(t *testing.T) {
	accounts := &fakeAccounts{}
	g := &fakeGateway{mode: gw.ModeTest, subs: map[string]gw.Subscription{"sub_1": {ID: "sub_1", PriceID: "price_test_basic_monthly"}}}
	svc := NewService(enabledOpts(), g, Deps{Accounts: accounts})

	session := completedSession("a@x.com", "")
	session.LineItems = nil
	_, err := svc.HandleWebhookEvent(context.Background(), eventOf(t, "evt_2", gw.EventCheckoutSessionCompleted, session))
	require.NoError(t, err)
	require.Len(t, accounts.activations, 1)
	assert.Equal(t, "basic", accounts.activations[0].Plan)
}

func TestHandleWebhook_CheckoutCompletedUnknownPrice(t *testing.T) {
	accounts := &fakeAccounts{}
	svc := NewService(enabledOpts(), &fakeGateway{mode: gw.ModeTest}, Deps{Accounts: accounts})

	_, err := svc.HandleWebhookEvent(context.Background(), eventOf(t, "evt_3", gw.EventCheckoutSessionCompleted, completedSession("a@x.com", "price_custom")))
	require.NoError(t, err)
	require.Len(t, accounts.activations, 1)
	assert.Empty(t, accounts.activations[0].Plan)
}

func TestHandleWebhook_CheckoutCompletedBadEvents(t *testing.T) {
	svc := NewService(enabledOpts(), &fakeGateway{mode: gw.ModeTest}, Deps{Accounts: &fakeAccounts{}})
	ctx := context.Background()

	noEmail := completedSession("", "p1")
	open := completedSession("a@x.com", "p1")
	open.Completion = nil
	noSub := completedSession("a@x.com", "p1")
	noSub.Completion.SubscriptionID = ""

	cases := map[string]gw.Event{
		"no email":        eventOf(t, "", gw.EventCheckoutSessionCompleted, noEmail),
		"open session":    eventOf(t, "", gw.EventCheckoutSessionCompleted, open),
		"no subscription": eventOf(t, "", gw.EventCheckoutSessionCompleted, noSub),
		"no data":         {Type: gw.EventCheckoutSessionCompleted},
		"not an object":   {Type: gw.EventCheckoutSessionCompleted, Data: json.RawMessage(`[1,2]`)},
	}
	for name, ev := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.HandleWebhookEvent(ctx, ev)
			assert.ErrorIs(t, err, ErrBadEvent)
		})
	}
}

func TestHandleWebhook_DatabaseErrorReleasesGuard(t *testing.T) {
	guard := &fakeGuard{}
	pub := &fakePublisher{}
	svc := NewService(enabledOpts(), &fakeGateway{mode: gw.ModeTest}, Deps{Accounts: &fakeAccounts{err: errBoom}, Guard: guard, Publisher: pub})

	_, err := svc.HandleWebhookEvent(context.Background(), eventOf(t, "evt_db", gw.EventCheckoutSessionCompleted, completedSession("a@x.com", "p1")))
	assert.ErrorIs(t, err, ErrDatabase)
	assert.Equal(t, []string{"evt_db"}, guard.forgotten)
	assert.Empty(t, pub.published)
}

func TestHandleWebhook_DuplicateIsSkipped(t *testing.T) {
	accounts := &fakeAccounts{}
	svc := NewService(enabledOpts(), &fakeGateway{mode: gw.ModeTest}, Deps{Accounts: accounts, Guard: &fakeGuard{}})
	ctx := context.Background()
	ev := eventOf(t, "evt_dup", gw.EventCheckoutSessionCompleted, completedSession("a@x.com", "p1"))

	res, err := svc.HandleWebhookEvent(ctx, ev)
	require.NoError(t, err)
	assert.Equal(t, WebhookHandled, res.Outcome)

	res, err = svc.HandleWebhookEvent(ctx, ev)
	require.NoError(t, err)
	assert.Equal(t, WebhookDuplicate, res.Outcome)
	assert.Len(t, accounts.activations, 1)
}

func TestHandleWebhook_GuardFailureStillProcesses(t *testing.T) {
	accounts := &fakeAccounts{}
	svc := NewService(enabledOpts(), &fakeGateway{mode: gw.ModeTest}, Deps{Accounts: accounts, Guard: &fakeGuard{err: errBoom}})

	res, err := svc.HandleWebhookEvent(context.Background(), eventOf(t, "evt_g", gw.EventCheckoutSessionCompleted, completedSession("a@x.com", "p1")))
	require.NoError(t, err)
	assert.Equal(t, WebhookHandled, res.Outcome)
	assert.Len(t, accounts.activations, 1)
}

func TestHandleWebhook_SubscriptionDeleted(t *testing.T) {
	accounts := &fakeAccounts{known: map[string]bool{"sub_1": true}}
	pub := &fakePublisher{}
	svc := NewService(enabledOpts(), &fakeGateway{mode: gw.ModeTest}, Deps{Accounts: accounts, Publisher: pub})

	canceledAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	sub := gw.Subscription{ID: "sub_1", CustomerID: "cus_1", Status: gw.SubscriptionStatusCanceled, CanceledAt: canceledAt.Unix()}
	res, err := svc.HandleWebhookEvent(context.Background(), eventOf(t, "evt_del", gw.EventCustomerSubscriptionDeleted, sub))
	require.NoError(t, err)
	assert.Equal(t, WebhookHandled, res.Outcome)

	require.Len(t, accounts.updates, 1)
	u := accounts.updates[0]
	assert.Equal(t, "sub_1", u.SubscriptionID)
	assert.Equal(t, "canceled", u.Status)
	require.NotNil(t, u.EndsAt)
	assert.True(t, canceledAt.Equal(*u.EndsAt))

	require.Len(t, pub.published, 1)
	assert.Equal(t, BillingSubscriptionCanceled, pub.published[0].EventType)
}

func TestHandleWebhook_SubscriptionDeletedUnknownAccount(t *testing.T) {
	accounts := &fakeAccounts{}
	svc := NewService(enabledOpts(), &fakeGateway{mode: gw.ModeTest}, Deps{Accounts: accounts})

	sub := gw.Subscription{ID: "sub_unknown", Status: gw.SubscriptionStatusActive}
	_, err := svc.HandleWebhookEvent(context.Background(), eventOf(t, "", gw.EventCustomerSubscriptionDeleted, sub))
	require.NoError(t, err)
	require.Len(t, accounts.updates, 1)
	assert.Equal(t, "canceled", accounts.updates[0].Status)
	assert.NotNil(t, accounts.updates[0].EndsAt)
}

func TestHandleWebhook_SubscriptionUpdated(t *testing.T) {
	accounts := &fakeAccounts{known: map[string]bool{"sub_1": true}}
	svc := NewService(enabledOpts(), &fakeGateway{mode: gw.ModeTest}, Deps{Accounts: accounts})
	ctx := context.Background()

	_, err := svc.HandleWebhookEvent(ctx, eventOf(t, "", gw.EventCustomerSubscriptionUpdated, gw.Subscription{ID: "sub_1", Status: gw.SubscriptionStatus("past_due")}))
	require.NoError(t, err)
	require.Len(t, accounts.updates, 1)
	assert.Equal(t, "past_due", accounts.updates[0].Status)
	assert.Nil(t, accounts.updates[0].EndsAt)

	_, err = svc.HandleWebhookEvent(ctx, eventOf(t, "", gw.EventCustomerSubscriptionUpdated, gw.Subscription{ID: "sub_1"}))
	assert.ErrorIs(t, err, ErrBadEvent)
}

func TestHandleWebhook_UnknownTypeIgnored(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewService(enabledOpts(), &fakeGateway{mode: gw.ModeTest}, Deps{Publisher: pub})

	res, err := svc.HandleWebhookEvent(context.Background(), gw.Event{ID: "evt_x", Type: "invoice.paid"})
	require.NoError(t, err)
	assert.Equal(t, WebhookIgnored, res.Outcome)
	assert.Empty(t, pub.published)
}

func TestHandleWebhook_PublishFailureIsNotAnError(t *testing.T) {
	svc := NewService(enabledOpts(), &fakeGateway{mode: gw.ModeTest}, Deps{Publisher: &fakePublisher{err: errBoom}})

	res, err := svc.HandleWebhookEvent(context.Background(), eventOf(t, "evt_p", gw.EventCheckoutSessionCompleted, completedSession("a@x.com", "p1")))
	require.NoError(t, err)
	assert.Equal(t, WebhookHandled, res.Outcome)
}

// The mock lifecycle end to end: checkout, simulated payment, webhook body
// round trip, cancellation.
func TestMockLifecycle(t *testing.T) {
	api := mockgw.New()
	accounts := &fakeAccounts{}
	pub := &fakePublisher{}
	svc := NewService(enabledOpts(), api, Deps{Accounts: accounts, Publisher: pub})
	ctx := context.Background()

	session, err := svc.CreateCheckoutSession(ctx, CheckoutRequest{CustomerEmail: "a@x.com", PriceID: "price_test_basic_monthly"})
	require.NoError(t, err)
	assert.Equal(t, gw.SessionStatusOpen, session.Status())
	assert.Equal(t, "https://checkout.stripe.com/mock/"+session.ID, session.URL)

	completed, err := svc.CompleteMockCheckout(ctx, session.ID)
	require.NoError(t, err)
	require.NotNil(t, completed.Completion)
	assert.Equal(t, gw.PaymentStatusPaid, completed.Completion.PaymentStatus)

	require.Len(t, accounts.activations, 1)
	assert.Equal(t, stripedb.Activation{
		Email: "a@x.com", CustomerID: completed.Completion.CustomerID, SubscriptionID: completed.Completion.SubscriptionID, Plan: "basic",
	}, accounts.activations[0])

	// The recorded event survives a trip through the webhook endpoint's parser.
	recorded := api.Events()
	require.Len(t, recorded, 1)
	body, err := json.Marshal(recorded[0])
	require.NoError(t, err)
	parsed, err := svc.ConstructWebhookEvent(body, "")
	require.NoError(t, err)
	assert.Equal(t, recorded[0].ID, parsed.ID)
	var parsedSession gw.CheckoutSession
	require.NoError(t, parsed.DecodeObject(&parsedSession))
	assert.Equal(t, completed.Completion, parsedSession.Completion)

	sub, err := svc.GetSubscription(ctx, completed.Completion.SubscriptionID)
	require.NoError(t, err)
	assert.Equal(t, gw.SubscriptionStatusActive, sub.Status)

	canceled, err := svc.CancelSubscription(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, gw.SubscriptionStatusCanceled, canceled.Status)
	require.Len(t, accounts.updates, 1)
	assert.Equal(t, "canceled", accounts.updates[0].Status)

	assert.Len(t, api.Events(), 2)
	require.Len(t, pub.published, 2)
	assert.Equal(t, BillingSubscriptionActivated, pub.published[0].EventType)
	assert.Equal(t, BillingSubscriptionCanceled, pub.published[1].EventType)

	_, err = svc.CancelSubscription(ctx, "sub_mock_missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHandleWebhook_UnhandledTypesShareOneMetricSeries(t *testing.T) {
	svc := NewService(enabledOpts(), &fakeGateway{mode: gw.ModeMock}, Deps{})
	other := metrics.WebhookEventsTotal.WithLabelValues(metrics.EventTypeOther, metrics.OutcomeIgnored)
	before := testutil.ToFloat64(other)
	series := testutil.CollectAndCount(metrics.WebhookEventsTotal)

	for i := 0; i < 50; i++ {
		res, err := svc.HandleWebhookEvent(context.Background(), eventOf(t, "", fmt.Sprintf("junk.%d", i), map[string]string{}))
		require.NoError(t, err)
		assert.Equal(t, WebhookIgnored, res.Outcome)
	}

	assert.Equal(t, before+50, testutil.ToFloat64(other))
	assert.Equal(t, series, testutil.CollectAndCount(metrics.WebhookEventsTotal))
	assert.Equal(t, gw.EventCustomerSubscriptionDeleted, eventTypeLabel(gw.EventCustomerSubscriptionDeleted))
	assert.Equal(t, metrics.EventTypeOther, eventTypeLabel("invoice.paid"))
}
