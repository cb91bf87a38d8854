package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/backtester/market"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <bars-file>",
	Short: "Report gaps in a bar file",
	Long: `Load a CSV or Parquet bar file and report missing bars for its timeframe.

Gaps of a day or more starting Friday to Sunday (UTC) count as weekend gaps;
other day-long gaps and runs of ten or more missing bars are suspicious.

Example:
  backtester inspect ./data/BTCUSDT-1h.csv --timeframe 1h`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

var (
	inspectTimeframe string
	inspectFormat    string
	inspectList      bool
)

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringVar(&inspectTimeframe, "timeframe", "1h", "bar timeframe of the file")
	inspectCmd.Flags().StringVar(&inspectFormat, "format", "csv", "file format (csv, parquet)")
	inspectCmd.Flags().BoolVar(&inspectList, "list", false, "list every gap")
}

func runInspect(cmd *cobra.Command, args []string) error {
	tf, err := market.ParseTimeframe(inspectTimeframe)
	if err != nil {
		return fmt.Errorf("timeframe: %w", err)
	}
	bars, err := market.Load(args[0], inspectFormat, market.CSVOptions{})
	if err != nil {
		return fmt.Errorf("load bars: %w", err)
	}

	out := cmd.OutOrStdout()
	market.PrintGapReport(out, bars, tf)
	if inspectList {
		for _, g := range market.FindGaps(bars, tf) {
			fmt.Fprintf(out, "%s  %4d bars  %s\n", g.Start.Format("2006-01-02 15:04"), g.Missing, g.Kind)
		}
	}
	return nil
}
