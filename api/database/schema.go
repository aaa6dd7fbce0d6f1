package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// schema is applied statement by statement; every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS billing_account (
		id UUID PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		stripe_customer_id TEXT,
		stripe_subscription_id TEXT,
		subscription_status TEXT,
		subscription_plan TEXT,
		subscription_ends_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS ix_billing_account_customer ON billing_account (stripe_customer_id)`,
	`CREATE INDEX IF NOT EXISTS ix_billing_account_subscription ON billing_account (stripe_subscription_id)`,
}

// EnsureSchema creates the billing tables when missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema statement %d: %w", i, err)
		}
	}
	slog.Info("database schema ensured", "statements", len(schema))
	return nil
}
