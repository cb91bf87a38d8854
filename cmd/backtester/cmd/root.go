package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "backtester",
	Short: "Bar-by-bar strategy backtester",
	Long: `Backtester replays historical OHLCV bars through a trading strategy
against a simulated single-instrument portfolio.

It provides tools for:
  - Running backtests from a YAML or JSON config file
  - Downloading bars from Binance or Alpaca
  - Journaling runs, trades and equity curves to CSV, SQLite or Postgres
  - Writing org-mode run reports and equity curve CSVs`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and runs it with ctx.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
