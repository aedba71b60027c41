package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/boddenberg/finance-store-go/internal/domain"
	"github.com/boddenberg/finance-store-go/internal/infra/observability"
	"github.com/boddenberg/finance-store-go/internal/money"
)

var summaryJSON bool

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print the dashboard summary of the configured store",
	Long: `summary opens the configured store, prints balances, the last 30 days of
cash flow, the portfolio and goal progress, then closes the store.
With the default in-memory backend the store is always empty; set
STORE_BACKEND=sqlite to read a database file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSummary(cmd.Context(), cmd.OutOrStdout())
	},
}

func init() {
	summaryCmd.Flags().BoolVar(&summaryJSON, "json", false, "print the summary as JSON")
}

func runSummary(ctx context.Context, out io.Writer) error {
	metrics := observability.NewMetrics()
	facade := newFacade(cfg, metrics, logger)
	if _, err := facade.Open(ctx); err != nil {
		return err
	}
	defer facade.Close(context.Background())

	summary, err := newService(cfg, facade, metrics, logger).Dashboard(ctx)
	if err != nil {
		return err
	}
	if summaryJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}
	printSummary(out, summary)
	return nil
}

func printSummary(out io.Writer, s *domain.DashboardSummary) {
	cur := s.Currency
	fmt.Fprintf(out, "Accounts:        %d\n", s.AccountCount)
	fmt.Fprintf(out, "Total balance:   %s\n", s.TotalBalanceDisplay)
	fmt.Fprintf(out, "Net worth:       %s\n", s.NetWorthDisplay)
	fmt.Fprintf(out, "Last 30 days:    +%s / -%s\n", money.Format(s.Last30Days.Income, cur), money.Format(s.Last30Days.Expense, cur))
	fmt.Fprintf(out, "Portfolio:       %s (%s%%)\n", money.Format(s.Portfolio.Value, cur), s.Portfolio.GainPct.StringFixed(2))
	fmt.Fprintf(out, "Goal progress:   %s%%\n", s.AverageGoalProgress.StringFixed(2))
	if len(s.RecentTransactions) == 0 {
		return
	}
	fmt.Fprintln(out, "\nRecent transactions:")
	for _, tx := range s.RecentTransactions {
		fmt.Fprintf(out, "  %s  %-8s %12s  %s\n",
			domain.FromMillis(tx.Date, nil).Format("2006-01-02"),
			tx.Type,
			money.FormatFloat(tx.Amount, tx.Currency),
			tx.Description,
		)
	}
}
