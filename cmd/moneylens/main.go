// Command moneylens runs the entitlement and paywall backend of the
// calculator bot.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/moneylens/pkg/config"
)

// Version information (set at build time with -ldflags)
var (
	Version   = "dev"
	GitCommit = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFiles []string

	root := &cobra.Command{
		Use:           "moneylens",
		Short:         "Entitlement and paywall backend for the calculator bot",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.LoadEnv(envFiles...)
		},
	}
	root.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "load variables from .env files (default ./.env if present)")

	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newEntitlementCmd(),
		newPaymentsCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "moneylens %s\n", Version)
			if GitCommit != "unknown" {
				fmt.Fprintf(cmd.OutOrStdout(), "Commit: %s\n", GitCommit)
			}
		},
	}
}

// loadApp reads AppConfig and bootstraps the backends for one command run.
func loadApp(cmd *cobra.Command) (*app, error) {
	var cfg AppConfig
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	log := newLogger(cfg)
	a, err := bootstrap(cmd.Context(), cfg, log)
	if err != nil {
		_ = a.Close(cmd.Context())
		return nil, err
	}
	return a, nil
}
