package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query stored backtest runs",
	Long: `Query runs journaled to SQLite or Postgres.

Subcommands:
  list    - List stored runs, newest first
  show    - Print the org-mode report of a run
  equity  - Print the equity curve of a run as CSV

Examples:
  backtester journal list --db ./backtest.sqlite
  backtester journal show 01HV6Z5Q0J4X7M3B9T2K8C1D5E
  backtester journal equity 01HV6Z5Q0J4X7M3B9T2K8C1D5E --dsn postgres://localhost/backtest`,
}

var journalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored runs",
	Args:  cobra.NoArgs,
	RunE:  runJournalList,
}

var journalShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print the org-mode report of a run",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalShow,
}

var journalEquityCmd = &cobra.Command{
	Use:   "equity <run-id>",
	Short: "Print the equity curve of a run",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalEquity,
}

var (
	journalDBPath string
	journalDSN    string
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalListCmd)
	journalCmd.AddCommand(journalShowCmd)
	journalCmd.AddCommand(journalEquityCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "./backtest.sqlite", "path to SQLite journal DB")
	journalCmd.PersistentFlags().StringVar(&journalDSN, "dsn", "", "Postgres DSN; takes precedence over --db")
}

type journalReader interface {
	journal.Reader
	Close() error
}

func openReader() (journalReader, error) {
	if journalDSN != "" {
		return journal.NewPostgres(journalDSN)
	}
	return journal.NewSQLite(journalDBPath)
}

func runJournalList(cmd *cobra.Command, args []string) error {
	j, err := openReader()
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	runs, err := j.ListRuns(cmd.Context())
	if err != nil {
		return fmt.Errorf("query runs: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "no runs")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tCREATED\tSTRATEGY\tPAIR\tTF\tTRADES\tWIN RATE\tNET PROFIT\tMAX DD")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%.2f%%\t%.2f\t%.2f\n",
			r.RunID,
			r.Created.Local().Format("2006-01-02 15:04"),
			r.Strategy,
			r.Pair,
			r.Timeframe,
			r.Trades,
			r.WinRate*100,
			r.NetProfit,
			r.MaxDrawdown,
		)
	}
	return tw.Flush()
}

func runJournalShow(cmd *cobra.Command, args []string) error {
	j, err := openReader()
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	ctx := cmd.Context()
	run, err := j.GetRun(ctx, args[0])
	if err != nil {
		return fmt.Errorf("get run: %w", err)
	}
	trades, err := j.ListTradesByRunID(ctx, run.RunID)
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}

	rep := journal.RunReport{Run: run, Trades: trades}
	return rep.WriteOrg(cmd.OutOrStdout())
}

func runJournalEquity(cmd *cobra.Command, args []string) error {
	j, err := openReader()
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	snaps, err := j.ListEquityByRunID(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("query equity: %w", err)
	}
	return backtest.WriteEquityCSV(cmd.OutOrStdout(), backtest.EquityPoints(snaps))
}
