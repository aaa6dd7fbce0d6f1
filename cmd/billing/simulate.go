package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	stripeapp "github.com/realityinspector/auto-hyperflask/api/services/stripe/app"
	gw "github.com/realityinspector/auto-hyperflask/api/services/stripe/gateway"
	mockgw "github.com/realityinspector/auto-hyperflask/api/services/stripe/gateway/mock"
)

var (
	simEmail  string
	simPrice  string
	simCancel bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a checkout lifecycle against the in-memory gateway and print its events",
	Long: `Run checkout, payment and (optionally) cancellation against the mock
gateway and print the provider events it recorded, one JSON object per line.

Example:
  billing simulate --email a@x.com --price price_test_pro_monthly`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return simulate(cmd.Context(), cmd.OutOrStdout(), simEmail, simPrice, simCancel)
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simEmail, "email", "test@example.com", "customer email")
	simulateCmd.Flags().StringVar(&simPrice, "price", "price_test_basic_monthly", "price id")
	simulateCmd.Flags().BoolVar(&simCancel, "cancel", true, "cancel the subscription afterwards")
}

func simulate(ctx context.Context, out io.Writer, email, priceID string, cancel bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	api := mockgw.New()
	svc := stripeapp.NewService(stripeapp.Options{Enabled: true}, api, stripeapp.Deps{})

	session, err := svc.CreateCheckoutSession(ctx, stripeapp.CheckoutRequest{CustomerEmail: email, PriceID: priceID})
	if err != nil {
		return err
	}
	session, err = svc.CompleteMockCheckout(ctx, session.ID)
	if err != nil {
		return err
	}
	if cancel {
		if _, err := svc.CancelSubscription(ctx, session.Completion.SubscriptionID); err != nil {
			return err
		}
	}

	enc := json.NewEncoder(out)
	for _, ev := range api.Events() {
		if err := enc.Encode(ev); err != nil {
			return fmt.Errorf("writing event %s: %w", ev.ID, err)
		}
	}
	c := api.Counts()
	fmt.Fprintf(out, "# %d customers, %d subscriptions, %d sessions, %d events (%s)\n",
		c.Customers, c.Subscriptions, c.Sessions, c.Events, gw.ModeMock)
	return nil
}
