package stripedb_test

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/realityinspector/auto-hyperflask/api/config"
	database "github.com/realityinspector/auto-hyperflask/api/database"
	stripedb "github.com/realityinspector/auto-hyperflask/api/services/stripe/db"
)

var testEmails = []string{"db-test@example.com", "db-cancel@example.com", "db-reactivate@example.com"}

// openTestDB connects to DATABASE_URL, ensures the schema and clears the rows
// used by this package. Tests skip without a database.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping database test in -short mode")
	}
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	// Prevent tests from running against production database
	require.NoError(t, config.CheckNotProdDB(dsn))

	ctx := context.Background()
	db, err := database.Open(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, database.EnsureSchema(ctx, db))

	cleanup := func() {
		for _, e := range testEmails {
			_, _ = db.Exec("DELETE FROM billing_account WHERE email = $1", e)
		}
	}
	cleanup()
	t.Cleanup(func() {
		cleanup()
		db.Close()
	})
	return db
}

func TestActivateAndGetAccount(t *testing.T) {
	store := stripedb.NewStore(openTestDB(t))
	ctx := context.Background()

	_, err := store.GetAccountByEmail(ctx, "db-test@example.com")
	assert.ErrorIs(t, err, stripedb.ErrAccountNotFound)

	err = store.ActivateSubscription(ctx, stripedb.Activation{
		Email:          " DB-Test@example.com ",
		CustomerID:     "cus_1",
		SubscriptionID: "sub_1",
		Plan:           "Basic",
	})
	require.NoError(t, err)

	a, err := store.GetAccountByEmail(ctx, "db-test@example.com")
	require.NoError(t, err)
	assert.Equal(t, "db-test@example.com", a.Email)
	assert.Equal(t, "cus_1", a.StripeCustomerID)
	assert.Equal(t, "sub_1", a.StripeSubscriptionID)
	assert.Equal(t, "active", a.SubscriptionStatus)
	assert.Equal(t, "Basic", a.SubscriptionPlan)
	assert.Nil(t, a.SubscriptionEndsAt)
}

func TestUpdateSubscriptionStatus(t *testing.T) {
	store := stripedb.NewStore(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, store.ActivateSubscription(ctx, stripedb.Activation{Email: "db-cancel@example.com", CustomerID: "cus_2", SubscriptionID: "sub_cancel"}))

	endsAt := time.Now().UTC().Truncate(time.Second)
	found, err := store.UpdateSubscriptionStatus(ctx, "sub_cancel", "canceled", &endsAt)
	require.NoError(t, err)
	assert.True(t, found)

	a, err := store.GetAccountBySubscription(ctx, "sub_cancel")
	require.NoError(t, err)
	assert.Equal(t, "canceled", a.SubscriptionStatus)
	require.NotNil(t, a.SubscriptionEndsAt)
	assert.True(t, endsAt.Equal(*a.SubscriptionEndsAt))
	assert.Empty(t, a.SubscriptionPlan)

	found, err = store.UpdateSubscriptionStatus(ctx, "sub_unknown", "canceled", nil)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestActivateSubscription_ReplacesCanceledSubscription(t *testing.T) {
	store := stripedb.NewStore(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, store.ActivateSubscription(ctx, stripedb.Activation{Email: "db-reactivate@example.com", CustomerID: "cus_3", SubscriptionID: "sub_old"}))
	now := time.Now()
	_, err := store.UpdateSubscriptionStatus(ctx, "sub_old", "canceled", &now)
	require.NoError(t, err)

	require.NoError(t, store.ActivateSubscription(ctx, stripedb.Activation{Email: "db-reactivate@example.com", CustomerID: "cus_3", SubscriptionID: "sub_new", Plan: "Pro"}))

	a, err := store.GetAccountByEmail(ctx, "db-reactivate@example.com")
	require.NoError(t, err)
	assert.Equal(t, "sub_new", a.StripeSubscriptionID)
	assert.Equal(t, "active", a.SubscriptionStatus)
	assert.Equal(t, "Pro", a.SubscriptionPlan)
	assert.Nil(t, a.SubscriptionEndsAt)
}

func TestActivateSubscription_RequiresEmail(t *testing.T) {
	store := stripedb.NewStore(openTestDB(t))
	err := store.ActivateSubscription(context.Background(), stripedb.Activation{Email: "  "})
	assert.Error(t, err)
}
