package app

import (
	"strings"
	"time"

	gw "github.com/realityinspector/auto-hyperflask/api/services/stripe/gateway"
)

// IsSubscriptionCancelled returns true if the subscription is canceled or was canceled in the past
func IsSubscriptionCancelled(sub gw.Subscription) bool {
	if sub.Status == gw.SubscriptionStatusCanceled {
		return true
	}
	if sub.CanceledAt != 0 && time.Now().Unix() >= sub.CanceledAt {
		return true
	}
	return false
}

// endsAt is when the subscription stops granting access, nil if it still does.
func endsAt(sub gw.Subscription, now time.Time) *time.Time {
	if !IsSubscriptionCancelled(sub) {
		return nil
	}
	t := now.UTC()
	if sub.CanceledAt != 0 {
		t = time.Unix(sub.CanceledAt, 0).UTC()
	}
	return &t
}

func unixPtr(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	u := t.Unix()
	return &u
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
