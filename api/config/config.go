package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	// Payments provider
	StripeEnabled        bool
	StripeMode           string
	StripePublishableKey string
	StripeSecretKey      string
	StripeWebhookSecret  string
	StripeLiveConfirmed  bool
	// Base URL of the web app; checkout success/cancel URLs hang off it
	CheckoutBaseURL string
	// Optional backing services; each feature is off when its URL is empty
	DatabaseURL  string
	RedisURL     string
	KafkaBrokers []string
	KafkaTopic   string
	// Optional: base URL for running remote HTTP integration tests (e.g., https://api.example.com)
	IntegrationBaseURL string
	// Server ports
	HTTPPort string
	GRPCPort string
}

type varKind int

const (
	kindString varKind = iota
	kindBool
	kindCSV
)

var envVars = []struct {
	name    string
	envVar  string
	display string
	kind    varKind
}{
	{"StripeEnabled", "STRIPE_ENABLED", "Stripe Enabled", kindBool},
	{"StripeMode", "STRIPE_MODE", "Stripe Mode", kindString},
	{"StripePublishableKey", "STRIPE_PUBLISHABLE_KEY", "Stripe Publishable Key", kindString},
	{"StripeSecretKey", "STRIPE_SECRET_KEY", "Stripe Secret Key", kindString},
	{"StripeWebhookSecret", "STRIPE_WEBHOOK_SECRET", "Stripe Webhook Secret", kindString},
	{"StripeLiveConfirmed", "STRIPE_LIVE_CONFIRMED", "Stripe Live Mode Confirmation", kindBool},
	{"CheckoutBaseURL", "CHECKOUT_BASE_URL", "Checkout Base URL", kindString},
	{"DatabaseURL", "DATABASE_URL", "Database URL", kindString},
	{"RedisURL", "REDIS_URL", "Redis URL", kindString},
	{"KafkaBrokers", "KAFKA_BROKERS", "Kafka Brokers", kindCSV},
	{"KafkaTopic", "KAFKA_TOPIC", "Kafka Topic", kindString},
	{"IntegrationBaseURL", "INTEGRATION_BASE_URL", "Integration Base URL", kindString},
	{"HTTPPort", "PORT", "HTTP Port", kindString},
	{"GRPCPort", "GRPC_PORT", "gRPC Port", kindString},
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Try to load .env file from current directory and parent directories
	currentDir, _ := os.Getwd()
	for currentDir != "/" && currentDir != "." {
		envPath := filepath.Join(currentDir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			if err := godotenv.Load(envPath); err != nil {
				return nil, fmt.Errorf("failed to load .env file: %v", err)
			}
			break
		}
		// Move up one directory
		currentDir = filepath.Dir(currentDir)
	}
	return Parse(os.Getenv)
}

// Parse builds a Config from getenv, applies defaults and validates it.
func Parse(getenv func(string) string) (*Config, error) {
	config := &Config{}
	for _, v := range envVars {
		value := strings.TrimSpace(getenv(v.envVar))
		field := reflect.ValueOf(config).Elem().FieldByName(v.name)
		switch v.kind {
		case kindBool:
			if value == "" {
				continue
			}
			b, err := strconv.ParseBool(value)
			if err != nil {
				return nil, fmt.Errorf("invalid boolean for %s: %q", v.display, value)
			}
			field.SetBool(b)
		case kindCSV:
			field.Set(reflect.ValueOf(splitCSV(value)))
		default:
			field.SetString(value)
		}
	}

	// Defaults
	if config.StripeMode == "" {
		config.StripeMode = ModeMock
	}
	config.StripeMode = strings.ToLower(config.StripeMode)
	if config.CheckoutBaseURL == "" {
		config.CheckoutBaseURL = DefaultCheckoutBaseURL
	}
	if config.KafkaTopic == "" {
		config.KafkaTopic = DefaultKafkaTopic
	}
	if config.HTTPPort == "" {
		config.HTTPPort = DefaultHTTPPort
	}
	if config.GRPCPort == "" {
		config.GRPCPort = DefaultGRPCPort
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the mode and the keys that mode needs.
func (c *Config) Validate() error {
	switch c.StripeMode {
	case ModeMock, ModeTest, ModeLive:
	default:
		return fmt.Errorf("invalid Stripe Mode %q: must be one of mock, test, live", c.StripeMode)
	}
	if !c.StripeEnabled || c.StripeMode == ModeMock {
		return nil
	}
	if c.StripeSecretKey == "" {
		return fmt.Errorf("missing required environment variable: Stripe Secret Key")
	}
	if c.StripeWebhookSecret == "" {
		return fmt.Errorf("missing required environment variable: Stripe Webhook Secret")
	}
	switch c.StripeMode {
	case ModeTest:
		if !strings.HasPrefix(c.StripeSecretKey, "sk_test_") {
			return fmt.Errorf("stripe mode test requires a sk_test_ secret key")
		}
	case ModeLive:
		if !strings.HasPrefix(c.StripeSecretKey, "sk_live_") {
			return fmt.Errorf("stripe mode live requires a sk_live_ secret key")
		}
		if !c.StripeLiveConfirmed {
			return fmt.Errorf("stripe mode live requires STRIPE_LIVE_CONFIRMED=true")
		}
	}
	return nil
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
