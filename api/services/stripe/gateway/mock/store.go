package mockgw

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	gw "github.com/realityinspector/auto-hyperflask/api/services/stripe/gateway"
)

// Identifier prefixes and the number of random bytes behind each.
const (
	customerPrefix     = "cus_mock_"
	subscriptionPrefix = "sub_mock_"
	sessionPrefix      = "cs_test_"
	eventPrefix        = "evt_mock_"

	shortIDBytes   = 8
	sessionIDBytes = 16
)

// store keeps every simulated record in process memory. Nothing is evicted.
type store struct {
	customers     map[string]gw.Customer
	subscriptions map[string]gw.Subscription
	sessions      map[string]gw.CheckoutSession
	events        []gw.Event
}

func newStore() *store {
	return &store{
		customers:     make(map[string]gw.Customer),
		subscriptions: make(map[string]gw.Subscription),
		sessions:      make(map[string]gw.CheckoutSession),
	}
}

// newID returns prefix followed by n random bytes in hex.
func newID(prefix string, n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("mockgw: reading random bytes: %v", err))
	}
	return prefix + hex.EncodeToString(b)
}

func copyMetadata(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
