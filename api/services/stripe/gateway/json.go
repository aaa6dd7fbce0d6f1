package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// The records below marshal to the provider's wire shape so that snapshots
// recorded by the simulator and payloads sent by the provider decode the
// same way.

func (c Customer) MarshalJSON() ([]byte, error) {
	type alias Customer
	return json.Marshal(struct {
		Object string `json:"object"`
		alias
	}{"customer", alias(c)})
}

type priceRef struct {
	ID string `json:"id"`
}

type subscriptionItem struct {
	Price priceRef `json:"price"`
}

type subscriptionItems struct {
	Data []subscriptionItem `json:"data"`
}

type subscriptionJSON struct {
	ID                 string             `json:"id"`
	Object             string             `json:"object"`
	Customer           json.RawMessage    `json:"customer"`
	Status             SubscriptionStatus `json:"status"`
	CurrentPeriodStart int64              `json:"current_period_start"`
	CurrentPeriodEnd   int64              `json:"current_period_end"`
	CanceledAt         int64              `json:"canceled_at,omitempty"`
	Items              subscriptionItems  `json:"items"`
	Plan               *priceRef          `json:"plan,omitempty"`
	Metadata           map[string]string  `json:"metadata"`
}

func (s Subscription) MarshalJSON() ([]byte, error) {
	cust, err := json.Marshal(s.CustomerID)
	if err != nil {
		return nil, err
	}
	w := subscriptionJSON{
		ID:                 s.ID,
		Object:             "subscription",
		Customer:           cust,
		Status:             s.Status,
		CurrentPeriodStart: s.CurrentPeriodStart,
		CurrentPeriodEnd:   s.CurrentPeriodEnd,
		CanceledAt:         s.CanceledAt,
		Items:              subscriptionItems{Data: []subscriptionItem{}},
		Metadata:           nonNil(s.Metadata),
	}
	if s.PriceID != "" {
		w.Items.Data = append(w.Items.Data, subscriptionItem{Price: priceRef{ID: s.PriceID}})
	}
	return json.Marshal(w)
}

func (s *Subscription) UnmarshalJSON(b []byte) error {
	var w subscriptionJSON
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	cust, err := expandableID(w.Customer)
	if err != nil {
		return fmt.Errorf("subscription customer: %w", err)
	}
	*s = Subscription{
		ID:                 w.ID,
		CustomerID:         cust,
		Status:             w.Status,
		CurrentPeriodStart: w.CurrentPeriodStart,
		CurrentPeriodEnd:   w.CurrentPeriodEnd,
		CanceledAt:         w.CanceledAt,
		Metadata:           w.Metadata,
	}
	if len(w.Items.Data) > 0 {
		s.PriceID = w.Items.Data[0].Price.ID
	} else if w.Plan != nil {
		s.PriceID = w.Plan.ID
	}
	return nil
}

type checkoutSessionJSON struct {
	ID            string            `json:"id"`
	Object        string            `json:"object"`
	CustomerEmail string            `json:"customer_email"`
	Mode          string            `json:"mode"`
	Status        SessionStatus     `json:"status,omitempty"`
	URL           string            `json:"url,omitempty"`
	SuccessURL    string            `json:"success_url"`
	CancelURL     string            `json:"cancel_url"`
	LineItems     json.RawMessage   `json:"line_items,omitempty"`
	Metadata      map[string]string `json:"metadata"`
	Customer      json.RawMessage   `json:"customer,omitempty"`
	Subscription  json.RawMessage   `json:"subscription,omitempty"`
	PaymentStatus PaymentStatus     `json:"payment_status,omitempty"`
	// Sent by the provider when the customer typed their email at checkout.
	CustomerDetails *struct {
		Email string `json:"email"`
	} `json:"customer_details,omitempty"`
}

func (s CheckoutSession) MarshalJSON() ([]byte, error) {
	items := s.LineItems
	if items == nil {
		items = []LineItem{}
	}
	rawItems, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	w := checkoutSessionJSON{
		ID:            s.ID,
		Object:        "checkout.session",
		CustomerEmail: s.CustomerEmail,
		Mode:          s.Mode,
		Status:        s.Status(),
		URL:           s.URL,
		SuccessURL:    s.SuccessURL,
		CancelURL:     s.CancelURL,
		LineItems:     rawItems,
		Metadata:      nonNil(s.Metadata),
	}
	if c := s.Completion; c != nil {
		w.Customer, _ = json.Marshal(c.CustomerID)
		w.Subscription, _ = json.Marshal(c.SubscriptionID)
		w.PaymentStatus = c.PaymentStatus
	}
	return json.Marshal(w)
}

func (s *CheckoutSession) UnmarshalJSON(b []byte) error {
	var w checkoutSessionJSON
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	cust, err := expandableID(w.Customer)
	if err != nil {
		return fmt.Errorf("checkout session customer: %w", err)
	}
	sub, err := expandableID(w.Subscription)
	if err != nil {
		return fmt.Errorf("checkout session subscription: %w", err)
	}
	*s = CheckoutSession{
		ID:            w.ID,
		CustomerEmail: w.CustomerEmail,
		Mode:          w.Mode,
		URL:           w.URL,
		SuccessURL:    w.SuccessURL,
		CancelURL:     w.CancelURL,
		LineItems:     decodeLineItems(w.LineItems),
		Metadata:      w.Metadata,
	}
	if s.CustomerEmail == "" && w.CustomerDetails != nil {
		s.CustomerEmail = w.CustomerDetails.Email
	}
	if w.Status == SessionStatusComplete || cust != "" || sub != "" {
		s.Completion = &Completion{CustomerID: cust, SubscriptionID: sub, PaymentStatus: w.PaymentStatus}
	}
	return nil
}

type eventData struct {
	Object json.RawMessage `json:"object"`
}

type eventJSON struct {
	ID      string    `json:"id"`
	Object  string    `json:"object"`
	Type    string    `json:"type"`
	Created int64     `json:"created"`
	Data    eventData `json:"data"`
}

func (e Event) MarshalJSON() ([]byte, error) {
	data := e.Data
	if len(data) == 0 {
		data = json.RawMessage("null")
	}
	return json.Marshal(eventJSON{ID: e.ID, Object: "event", Type: e.Type, Created: e.Created, Data: eventData{Object: data}})
}

func (e *Event) UnmarshalJSON(b []byte) error {
	var w eventJSON
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*e = Event{ID: w.ID, Type: w.Type, Created: w.Created, Data: w.Data.Object}
	return nil
}

// DecodeObject decodes the event's data object into v.
func (e Event) DecodeObject(v any) error {
	if len(e.Data) == 0 || bytes.Equal(e.Data, []byte("null")) {
		return fmt.Errorf("%w: event %q has no data object", ErrBadPayload, e.Type)
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("%w: decoding %s object: %v", ErrBadPayload, e.Type, err)
	}
	return nil
}

// expandableID accepts either a bare id string or an expanded object with an id.
func expandableID(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		return id, nil
	}
	var obj priceRef
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", err
	}
	return obj.ID, nil
}

// decodeLineItems accepts the simulator's flat array and the provider's list
// object. Anything else yields no items.
func decodeLineItems(raw json.RawMessage) []LineItem {
	if len(raw) == 0 {
		return nil
	}
	var flat []LineItem
	if err := json.Unmarshal(raw, &flat); err == nil {
		return flat
	}
	var list struct {
		Data []struct {
			Price    priceRef `json:"price"`
			Quantity int64    `json:"quantity"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil
	}
	items := make([]LineItem, 0, len(list.Data))
	for _, d := range list.Data {
		items = append(items, LineItem{Price: d.Price.ID, Quantity: d.Quantity})
	}
	return items
}

func nonNil(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
