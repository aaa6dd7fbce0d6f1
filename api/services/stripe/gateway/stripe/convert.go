package stripegw

import (
	stripe "github.com/stripe/stripe-go"

	gw "github.com/realityinspector/auto-hyperflask/api/services/stripe/gateway"
)

func toCheckoutSession(s *stripe.CheckoutSession) gw.CheckoutSession {
	if s == nil {
		return gw.CheckoutSession{}
	}
	out := gw.CheckoutSession{
		ID:            s.ID,
		CustomerEmail: s.CustomerEmail,
		Mode:          string(s.Mode),
		SuccessURL:    s.SuccessURL,
		CancelURL:     s.CancelURL,
		Metadata:      s.Metadata,
	}
	var custID, subID string
	if s.Customer != nil {
		custID = s.Customer.ID
	}
	if s.Subscription != nil {
		subID = s.Subscription.ID
	}
	if custID != "" || subID != "" {
		out.Completion = &gw.Completion{CustomerID: custID, SubscriptionID: subID, PaymentStatus: gw.PaymentStatusPaid}
	}
	return out
}

func toSubscription(s *stripe.Subscription) gw.Subscription {
	out := gw.Subscription{
		ID:                 s.ID,
		Status:             gw.SubscriptionStatus(s.Status),
		CurrentPeriodStart: s.CurrentPeriodStart,
		CurrentPeriodEnd:   s.CurrentPeriodEnd,
		CanceledAt:         s.CanceledAt,
		Metadata:           s.Metadata,
	}
	if s.Customer != nil {
		out.CustomerID = s.Customer.ID
	}
	if s.Plan != nil {
		out.PriceID = s.Plan.ID
	}
	return out
}

func toEvent(e stripe.Event) gw.Event {
	out := gw.Event{ID: e.ID, Type: e.Type, Created: e.Created}
	if e.Data != nil {
		out.Data = e.Data.Raw
	}
	return out
}
