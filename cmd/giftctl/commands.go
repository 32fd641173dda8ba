package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"giftaihub/internal/app"
	"giftaihub/internal/auth"
	"giftaihub/internal/catalog"
	"giftaihub/internal/client"
	"giftaihub/internal/config"
	"giftaihub/internal/logging"
	"giftaihub/internal/metrics"
	"giftaihub/internal/model"
	"giftaihub/internal/outbox"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "giftctl",
		Short:         "Operator tools for the gift storefront",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(grantAdminCmd())
	rootCmd.AddCommand(tokenCmd())
	rootCmd.AddCommand(inspectCmd())

	return rootCmd
}

func loadConfig() (*config.Config, error) {
	_ = godotenv.Load()

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// openApp connects to the database only; queues and metrics stay local.
func openApp() (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	db, err := client.InitDBClient(cfg.Database)
	if err != nil {
		return nil, err
	}

	logger := logging.New(cfg.Log)
	return app.New(db, cfg, logger,
		client.NewStripeClient(&cfg.Stripe),
		client.NewBrevoClient(&cfg.Brevo),
		outbox.NewPublisher(nil, ""),
		metrics.Noop{},
	), nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			// InitDBClient migrates on open.
			db, err := client.InitDBClient(cfg.Database)
			if err != nil {
				return err
			}
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			defer sqlDB.Close()

			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the platform catalog",
		Long: `Load the platform catalog into the database.

Without --file the catalog embedded in the binary is used. Existing
platforms and subscriptions are updated in place.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			platforms, err := readCatalog(file)
			if err != nil {
				return err
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Catalog.Seed(cmd.Context(), platforms); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d platforms\n", len(platforms))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "catalog YAML file")
	return cmd
}

func readCatalog(path string) ([]model.Platform, error) {
	if path == "" {
		return catalog.Default()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	return catalog.Load(f)
}

func grantAdminCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "grant-admin [user-id]",
		Short: "Give a user the admin role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Admin.GrantAdmin(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "granted admin to %s\n", args[0])
			return nil
		},
	}
}

func tokenCmd() *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token [user-id]",
		Short: "Issue an admin bearer token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if ttl > 0 {
				cfg.Admin.TokenTTL = ttl
			}

			token, err := auth.IssueToken(&cfg.Admin, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to ADMIN_TOKEN_TTL)")
	return cmd
}

func inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [code]",
		Short: "Show a gift code's status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			status, err := a.Admin.GetGiftCodeStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(status)
		},
	}
}
