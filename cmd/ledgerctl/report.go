package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/brokerledger/internal/balance"
	"github.com/MrJamesThe3rd/brokerledger/internal/ledger"
	ledgerStore "github.com/MrJamesThe3rd/brokerledger/internal/ledger/store"
	"github.com/MrJamesThe3rd/brokerledger/internal/sequence"
	seqStore "github.com/MrJamesThe3rd/brokerledger/internal/sequence/store"
)

func newTrialBalanceCmd(opts *options) *cobra.Command {
	var (
		from, to string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "trial-balance",
		Short: "Print debit and credit totals per account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fromDate, err := parseDate(from, ledger.Beginning)
			if err != nil {
				return err
			}

			toDate, err := parseDate(to, time.Now().UTC())
			if err != nil {
				return err
			}

			c, err := opts.chart()
			if err != nil {
				return err
			}

			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			svc := balance.NewService(ledger.NewService(ledgerStore.New(db), c.Accounts))

			tb, err := svc.TrialBalance(cmd.Context(), fromDate, toDate)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")

				return enc.Encode(tb)
			}

			return printTrialBalance(cmd.OutOrStdout(), tb)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first date, YYYY-MM-DD (default: beginning of the ledger)")
	cmd.Flags().StringVar(&to, "to", "", "last date, YYYY-MM-DD (default: today)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")

	return cmd
}

func parseDate(s string, fallback time.Time) (time.Time, error) {
	if s == "" {
		return fallback, nil
	}

	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}

	return t, nil
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	amountStyle = cellStyle.Align(lipgloss.Right)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
)

func printTrialBalance(w io.Writer, tb *balance.TrialBalance) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers("ACCOUNT", "DEBIT", "CREDIT", "NET").
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0:
				return cellStyle
			default:
				return amountStyle
			}
		})

	for _, row := range tb.Rows {
		t.Row(row.AccountNumber, row.DebitTotal.StringFixed(2), row.CreditTotal.StringFixed(2), row.Net.StringFixed(2))
	}

	t.Row("TOTAL", tb.DebitTotal.StringFixed(2), tb.CreditTotal.StringFixed(2), "")

	fmt.Fprintln(w, t.Render())

	if !tb.Balanced() {
		diff := tb.DebitTotal.Sub(tb.CreditTotal).StringFixed(2)
		fmt.Fprintln(w, warnStyle.Render("out of balance by "+diff))

		return fmt.Errorf("trial balance is out of balance by %s", diff)
	}

	return nil
}

func newSequenceCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sequence",
		Short: "Inspect or seed payment reference counters",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "current <series>",
		Short: "Print the last issued number of a series",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.chart()
			if err != nil {
				return err
			}

			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			svc := sequence.NewService(seqStore.New(db), c.Series)

			ser, err := svc.Series(args[0])
			if err != nil {
				return err
			}

			n, err := svc.Current(cmd.Context(), ser.Name)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: current %d, next %s\n", ser.Name, n, ser.Reference(n+1))

			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "seed <series> <value>",
		Short: "Set a counter so the next number issued is value+1",
		Long: `seed carries a counter over from a previous system. The next payment in
the series is numbered value+1. Seeding below an issued number would reissue
references, so only seed a series before its first payment.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil || value < 0 {
				return fmt.Errorf("invalid value %q", args[1])
			}

			c, err := opts.chart()
			if err != nil {
				return err
			}

			if _, err := sequence.NewService(nil, c.Series).Series(args[0]); err != nil {
				return err
			}

			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := seqStore.New(db).Seed(cmd.Context(), args[0], value); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s seeded at %d\n", args[0], value)

			return nil
		},
	})

	return cmd
}
