package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/moneylens/pkg/config"
	"github.com/dmitrymomot/moneylens/pkg/entitlement"
	"github.com/dmitrymomot/moneylens/pkg/pg"
	"github.com/dmitrymomot/moneylens/svc/store"
)

var ErrMigrateNeedsPostgres = errors.New("migrations only apply to the postgres storage driver")

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply postgres schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			var cfg AppConfig
			if err := config.Load(&cfg); err != nil {
				return err
			}
			if cfg.StorageDriver != StoragePostgres {
				return ErrMigrateNeedsPostgres
			}
			var pgCfg pg.Config
			if err := config.Load(&pgCfg); err != nil {
				return err
			}

			log := newLogger(cfg)
			pool, err := pg.Connect(cmd.Context(), pgCfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := pg.Migrate(cmd.Context(), pool, store.Migrations(), pgCfg, log); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func newEntitlementCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "entitlement <user-id>",
		Short: "Evaluate and print the entitlement of a user",
		Long: "Evaluate and print the entitlement of a user. " +
			"An expired grant is downgraded in the store, exactly as on a gated request.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			status, err := a.svc.Status(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(status)
		},
	}
}

func newPaymentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payments",
		Short: "Manage payment audit records",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set-status <payment-id> <successful|failed>",
		Short: "Move a pending payment to a final status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid payment id: %w", err)
			}
			status := entitlement.PaymentStatus(args[1])

			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			if err := a.svc.UpdatePaymentStatus(cmd.Context(), id, status); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "payment %s is %s\n", id, status)
			return nil
		},
	})
	return cmd
}
