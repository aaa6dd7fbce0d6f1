package stripedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrAccountNotFound is returned by lookups that match no billing account.
var ErrAccountNotFound = errors.New("billing account not found")

// Account is the subscription state of one application user, keyed by email.
type Account struct {
	ID                   uuid.UUID
	Email                string
	StripeCustomerID     string
	StripeSubscriptionID string
	SubscriptionStatus   string
	SubscriptionPlan     string
	SubscriptionEndsAt   *time.Time
	UpdatedAt            time.Time
}

// Activation is what a completed checkout records for an account.
type Activation struct {
	Email          string
	CustomerID     string
	SubscriptionID string
	Plan           string
}

// Store persists billing accounts in Postgres.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ActivateSubscription upserts the account for a.Email with an active subscription.
func (s *Store) ActivateSubscription(ctx context.Context, a Activation) error {
	email := normalizeEmail(a.Email)
	if email == "" {
		return fmt.Errorf("activation requires an email")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO billing_account (id, email, stripe_customer_id, stripe_subscription_id, subscription_status, subscription_plan, subscription_ends_at, updated_at)
		VALUES ($1, $2, $3, $4, 'active', NULLIF($5, ''), NULL, NOW())
		ON CONFLICT (email) DO UPDATE SET
			stripe_customer_id = EXCLUDED.stripe_customer_id,
			stripe_subscription_id = EXCLUDED.stripe_subscription_id,
			subscription_status = EXCLUDED.subscription_status,
			subscription_plan = EXCLUDED.subscription_plan,
			subscription_ends_at = NULL,
			updated_at = NOW()`,
		uuid.New(), email, a.CustomerID, a.SubscriptionID, a.Plan)
	if err != nil {
		return fmt.Errorf("upserting billing_account: %w", err)
	}
	return nil
}

// UpdateSubscriptionStatus sets the status of every account holding
// subscriptionID. It reports whether any account matched.
func (s *Store) UpdateSubscriptionStatus(ctx context.Context, subscriptionID, status string, endsAt *time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE billing_account
		SET subscription_status = $2, subscription_ends_at = $3, updated_at = NOW()
		WHERE stripe_subscription_id = $1`,
		subscriptionID, status, endsAt)
	if err != nil {
		return false, fmt.Errorf("updating billing_account status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading rows affected: %w", err)
	}
	return n > 0, nil
}

const selectAccount = `
	SELECT id, email, stripe_customer_id, stripe_subscription_id, subscription_status, subscription_plan, subscription_ends_at, updated_at
	FROM billing_account`

// GetAccountByEmail returns the account for email.
func (s *Store) GetAccountByEmail(ctx context.Context, email string) (Account, error) {
	return s.getOne(ctx, selectAccount+` WHERE email = $1`, normalizeEmail(email))
}

// GetAccountBySubscription returns the account holding subscriptionID.
func (s *Store) GetAccountBySubscription(ctx context.Context, subscriptionID string) (Account, error) {
	return s.getOne(ctx, selectAccount+` WHERE stripe_subscription_id = $1 ORDER BY updated_at DESC LIMIT 1`, subscriptionID)
}

func (s *Store) getOne(ctx context.Context, query string, arg any) (Account, error) {
	var (
		a                       Account
		cust, sub, status, plan sql.NullString
		endsAt                  sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&a.ID, &a.Email, &cust, &sub, &status, &plan, &endsAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, ErrAccountNotFound
	}
	if err != nil {
		return Account{}, fmt.Errorf("querying billing_account: %w", err)
	}
	a.StripeCustomerID = cust.String
	a.StripeSubscriptionID = sub.String
	a.SubscriptionStatus = status.String
	a.SubscriptionPlan = plan.String
	if endsAt.Valid {
		t := endsAt.Time
		a.SubscriptionEndsAt = &t
	}
	return a, nil
}
