package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/realityinspector/auto-hyperflask/api/config"
	"github.com/realityinspector/auto-hyperflask/api/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the billing account schema in DATABASE_URL",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if cfg.DatabaseURL == "" {
			return errors.New("DATABASE_URL is not set")
		}
		ctx := cmd.Context()
		db, err := database.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := database.EnsureSchema(ctx, db); err != nil {
			return err
		}
		slog.Info("database schema applied")
		fmt.Fprintln(cmd.OutOrStdout(), "✓ billing schema applied")
		return nil
	},
}
