package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/backtester/config"
	"github.com/rustyeddy/backtester/internal/tradelog"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/market/data"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download historical bars",
	Long: `Download OHLCV bars from Binance USDⓈ-M futures or Alpaca market data
and save them as CSV or Parquet for the run command.

API keys are read from the environment (and .env):
  binance: BINANCE_API_KEY, BINANCE_SECRET_KEY
  alpaca:  APCA_API_KEY_ID, APCA_API_SECRET_KEY

Examples:
  backtester fetch --symbol BTCUSDT --interval 1h --start 2024-01-01 --end 2024-07-01
  backtester fetch --source alpaca --symbol AAPL --interval 1d --start 2023-01-01 --format parquet`,
	RunE: runFetch,
}

var (
	fetchSource   string
	fetchSymbol   string
	fetchInterval string
	fetchStart    string
	fetchEnd      string
	fetchOut      string
	fetchFormat   string
	fetchEnvFile  string
	fetchBaseURL  string
)

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVar(&fetchSource, "source", "binance", "data source (binance, alpaca)")
	fetchCmd.Flags().StringVar(&fetchSymbol, "symbol", "", "symbol to download (required)")
	fetchCmd.Flags().StringVar(&fetchInterval, "interval", "1h", "bar timeframe (e.g. 15m, 1h, 1d)")
	fetchCmd.Flags().StringVar(&fetchStart, "start", "", "start date YYYY-MM-DD or RFC3339 (required)")
	fetchCmd.Flags().StringVar(&fetchEnd, "end", "", "end date, exclusive (default now)")
	fetchCmd.Flags().StringVarP(&fetchOut, "out", "o", "", "output file (default ./data/<SYMBOL>-<interval>.<format>)")
	fetchCmd.Flags().StringVar(&fetchFormat, "format", "csv", "output format (csv, parquet)")
	fetchCmd.Flags().StringVar(&fetchEnvFile, "env", ".env", "dotenv file with API keys")
	fetchCmd.Flags().StringVar(&fetchBaseURL, "base-url", "", "override the API base URL")

	fetchCmd.MarkFlagRequired("symbol")
	fetchCmd.MarkFlagRequired("start")
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(time.DateOnly, s)
}

func credentials(source string) data.Credentials {
	var creds data.Credentials
	switch strings.ToLower(source) {
	case "binance":
		creds.Key = os.Getenv("BINANCE_API_KEY")
		creds.Secret = os.Getenv("BINANCE_SECRET_KEY")
	case "alpaca":
		creds.Key = os.Getenv("APCA_API_KEY_ID")
		creds.Secret = os.Getenv("APCA_API_SECRET_KEY")
	}
	creds.BaseURL = fetchBaseURL
	return creds
}

func runFetch(cmd *cobra.Command, args []string) error {
	if err := config.LoadDotEnv(fetchEnvFile); err != nil {
		return err
	}

	tf, err := market.ParseTimeframe(fetchInterval)
	if err != nil {
		return fmt.Errorf("interval: %w", err)
	}
	start, err := parseDate(fetchStart)
	if err != nil {
		return fmt.Errorf("start: %w", err)
	}
	end := time.Now().UTC().Truncate(tf.Duration())
	if fetchEnd != "" {
		if end, err = parseDate(fetchEnd); err != nil {
			return fmt.Errorf("end: %w", err)
		}
	}
	switch fetchFormat {
	case "csv", "parquet":
	default:
		return fmt.Errorf("format must be 'csv' or 'parquet'")
	}

	log := tradelog.NewLogger(tradelog.All, cmd.ErrOrStderr())
	src, err := data.New(fetchSource, credentials(fetchSource), log)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Fetching %s %s from %s: %s → %s\n",
		fetchSymbol, tf, src.Name(), start.Format(time.DateOnly), end.Format(time.DateOnly))

	bars, err := src.Bars(cmd.Context(), data.Request{
		Symbol:   fetchSymbol,
		Interval: tf,
		Start:    start,
		End:      end,
	})
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	if len(bars) == 0 {
		return fmt.Errorf("no bars returned for %s", fetchSymbol)
	}

	path := fetchOut
	if path == "" {
		path = fmt.Sprintf("./data/%s-%s.%s", strings.ToUpper(fetchSymbol), tf, fetchFormat)
	}
	if err := market.Save(path, fetchFormat, bars); err != nil {
		return fmt.Errorf("save: %w", err)
	}

	first, last := market.Range(bars)
	fmt.Fprintf(out, "✓ Wrote %d bars to %s (%s → %s)\n",
		len(bars), path, first.Format(time.RFC3339), last.Format(time.RFC3339))
	return nil
}
