package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/realityinspector/auto-hyperflask/api/config"
	"github.com/realityinspector/auto-hyperflask/api/database"
	stripeapp "github.com/realityinspector/auto-hyperflask/api/services/stripe/app"
	stripedb "github.com/realityinspector/auto-hyperflask/api/services/stripe/db"
	"github.com/realityinspector/auto-hyperflask/api/services/stripe/events"
	gw "github.com/realityinspector/auto-hyperflask/api/services/stripe/gateway"
	mockgw "github.com/realityinspector/auto-hyperflask/api/services/stripe/gateway/mock"
	stripegw "github.com/realityinspector/auto-hyperflask/api/services/stripe/gateway/stripe"
	"github.com/realityinspector/auto-hyperflask/api/services/stripe/idempotency"
)

// App holds the wired services and the resources they own.
type App struct {
	Config  *config.Config
	Gateway gw.Gateway
	Service stripeapp.Service

	db        *sql.DB
	guard     *idempotency.Guard
	publisher events.Publisher
}

// New initializes the database, Redis and Kafka clients named by cfg and
// wires the Stripe service. Backing services with an empty URL are skipped.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg, publisher: events.Nop{}}
	deps := stripeapp.Deps{}

	if cfg.DatabaseURL != "" {
		db, err := database.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		a.db = db
		deps.Accounts = stripedb.NewStore(db)
	} else {
		slog.Info("DATABASE_URL not set, billing accounts are not persisted")
	}

	if cfg.RedisURL != "" {
		guard, err := idempotency.NewFromURL(ctx, cfg.RedisURL, idempotency.DefaultTTL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to initialize redis: %w", err)
		}
		a.guard = guard
		deps.Guard = guard
	}

	if len(cfg.KafkaBrokers) > 0 {
		a.publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		slog.Info("publishing billing events", "topic", cfg.KafkaTopic, "brokers", len(cfg.KafkaBrokers))
	}
	deps.Publisher = a.publisher

	a.Gateway = NewGateway(cfg)
	a.Service = stripeapp.NewService(stripeapp.Options{
		Enabled:         cfg.StripeEnabled,
		Mode:            cfg.StripeMode,
		PublishableKey:  cfg.StripePublishableKey,
		WebhookSecret:   cfg.StripeWebhookSecret,
		CheckoutBaseURL: cfg.CheckoutBaseURL,
	}, a.Gateway, deps)

	slog.Info("stripe service initialized", "enabled", cfg.StripeEnabled, "mode", a.Service.Mode())
	return a, nil
}

// NewGateway selects the gateway for cfg's mode. It returns nil when
// payments are disabled.
func NewGateway(cfg *config.Config) gw.Gateway {
	if !cfg.StripeEnabled {
		return nil
	}
	if cfg.StripeMode == config.ModeMock {
		return mockgw.New()
	}
	stripegw.SetKey(cfg.StripeSecretKey)
	return stripegw.New(cfg.StripeMode)
}

// DB returns the database handle, or nil when none is configured.
func (a *App) DB() *sql.DB { return a.db }

// Close releases the clients opened by New.
func (a *App) Close() error {
	var errs []error
	if a.publisher != nil {
		errs = append(errs, a.publisher.Close())
	}
	if a.guard != nil {
		errs = append(errs, a.guard.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}
