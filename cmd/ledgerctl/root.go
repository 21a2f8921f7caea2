package main

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/brokerledger/internal/chart"
	"github.com/MrJamesThe3rd/brokerledger/internal/config"
	"github.com/MrJamesThe3rd/brokerledger/internal/database"
)

type options struct {
	chartPath string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Operate the brokerage ledger",
		Long: `ledgerctl runs maintenance tasks against the brokerage ledger database.

Connection settings come from the same environment variables (or .env file)
as the API server.

Example:
  ledgerctl migrate
  ledgerctl trial-balance --from 2025-09-01 --to 2025-09-30
  ledgerctl sequence current general
  ledgerctl sequence seed trust 1999`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.chartPath, "chart", "", "chart YAML file (default is the embedded chart)")

	root.AddCommand(
		newMigrateCmd(),
		newChartCmd(opts),
		newTrialBalanceCmd(opts),
		newSequenceCmd(opts),
	)

	return root
}

func (o *options) chart() (*chart.Chart, error) {
	if o.chartPath == "" {
		return chart.Default()
	}

	return chart.LoadFile(o.chartPath)
}

func openDB() (*sql.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return db, nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			if err := database.Migrate(cfg.ConnectionString(), cfg.DB.Name); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")

			return nil
		},
	}
}

func newChartCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Inspect the chart of accounts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Load and validate the chart, then print a summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.chart()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d accounts, %d series, %d payment types\n",
				len(c.Accounts.List()), len(c.Series), len(c.Templates))

			for _, t := range c.Templates {
				fmt.Fprintf(out, "  %-20s limit %d, %d legs\n", t.Name, t.Limit, len(t.Legs))
			}

			return nil
		},
	})

	return cmd
}
