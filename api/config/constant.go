package config

import (
	"fmt"
	"strings"
)

// Stripe modes.
const (
	ModeMock = "mock"
	ModeTest = "test"
	ModeLive = "live"
)

const (
	// ProdDbId is the identifier for the production database
	ProdDbId = "prod-billing"

	DefaultHTTPPort        = "8080"
	DefaultGRPCPort        = "50051"
	DefaultKafkaTopic      = "billing-events"
	DefaultCheckoutBaseURL = "http://localhost:8080"
)

// CheckNotProdDB returns an error if databaseURL contains ProdDbId.
// This should be called at the start of any test that interacts with the database.
func CheckNotProdDB(databaseURL string) error {
	if databaseURL == "" {
		return fmt.Errorf("DatabaseURL is not configured")
	}
	if strings.Contains(databaseURL, ProdDbId) {
		return fmt.Errorf("tests aborted: DatabaseURL contains production identifier %s", ProdDbId)
	}
	return nil
}
