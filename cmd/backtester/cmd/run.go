package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/config"
	"github.com/rustyeddy/backtester/internal/tradelog"
	"github.com/rustyeddy/backtester/journal"
	"github.com/rustyeddy/backtester/market"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a backtest from a config file",
	Long: `Run a backtest using settings from a configuration file.

The config names the bar file, the account cost model, the strategy and
where results go. Variables from .env and BACKTEST_* environment variables
override the file; flags override both.

Example:
  backtester run -f backtest.yaml
  backtester run -f backtest.yaml --data ./data/ETHUSDT-1h.csv --log-level all`,
	RunE: runRun,
}

var (
	runConfigPath string
	runEnvFile    string
	runDataPath   string
	runLogLevel   string
	runOrgFile    string
	runEquityFile string
	runWindow     int
	runResample   string
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "f", "", "path to config file (YAML or JSON); defaults apply when empty")
	runCmd.Flags().StringVar(&runEnvFile, "env", ".env", "dotenv file to load before reading BACKTEST_* variables")
	runCmd.Flags().StringVarP(&runDataPath, "data", "d", "", "override data.path")
	runCmd.Flags().StringVar(&runLogLevel, "log-level", "", "override log.level (none, info, all)")
	runCmd.Flags().StringVar(&runOrgFile, "org", "", "write an org-mode report to this file")
	runCmd.Flags().StringVar(&runEquityFile, "equity", "", "write the equity curve CSV to this file")
	runCmd.Flags().IntVar(&runWindow, "window", 0, "override strategy.sma_window")
	runCmd.Flags().StringVar(&runResample, "resample", "", "aggregate bars to this timeframe before running (e.g. 4h)")
}

func loadRunConfig() (*config.Config, error) {
	cfg := config.Default()
	if runConfigPath != "" {
		var err error
		if cfg, err = config.LoadFromFile(runConfigPath); err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}
	if err := cfg.ApplyEnv(runEnvFile); err != nil {
		return nil, fmt.Errorf("apply env: %w", err)
	}

	if runDataPath != "" {
		cfg.Data.Path = runDataPath
	}
	if runLogLevel != "" {
		cfg.Log.Level = runLogLevel
	}
	if runOrgFile != "" {
		cfg.Report.OrgFile = runOrgFile
	}
	if runEquityFile != "" {
		cfg.Report.EquityFile = runEquityFile
	}
	if runWindow != 0 {
		cfg.Strategy.SMAWindow = runWindow
	}
	if runResample != "" {
		cfg.Market.Timeframe = runResample
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// openTradeLog truncates the log file and returns a logger writing to it.
func openTradeLog(cfg *config.Config) (*slog.Logger, func() error, error) {
	level := cfg.LogLevel()
	if level == tradelog.None {
		return tradelog.Discard(), func() error { return nil }, nil
	}
	if cfg.Log.File == "" {
		return tradelog.NewLogger(level, os.Stderr), func() error { return nil }, nil
	}

	sink, err := tradelog.OpenFile(cfg.Log.File, tradelog.DefaultThreshold)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return tradelog.NewLogger(level, sink), sink.Close, nil
}

func openJournal(cfg config.JournalConfig) (journal.Journal, error) {
	switch cfg.Type {
	case "", "none":
		return journal.Nop{}, nil
	case "csv":
		return journal.NewCSV(cfg.TradesFile, cfg.EquityFile)
	case "sqlite":
		return journal.NewSQLite(cfg.DBPath)
	case "postgres":
		return journal.NewPostgres(cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown journal type %q", cfg.Type)
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig()
	if err != nil {
		return err
	}

	bars, err := market.Load(cfg.Data.Path, cfg.Data.Format, cfg.CSVOptions())
	if err != nil {
		return fmt.Errorf("load bars: %w", err)
	}
	if cfg.Market.Timeframe != "" {
		tf, err := market.ParseTimeframe(cfg.Market.Timeframe)
		if err != nil {
			return fmt.Errorf("market.timeframe: %w", err)
		}
		if runResample != "" {
			bars = market.Resample(bars, tf, 1)
		}
		if s := market.GapReport(bars, tf); s.SuspiciousGaps > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %d suspicious gaps in %s (%d bars missing); see backtester inspect\n",
				s.SuspiciousGaps, cfg.Data.Path, s.Missing)
		}
	}

	log, closeLog, err := openTradeLog(cfg)
	if err != nil {
		return err
	}

	recap, err := backtest.Simulate(cmd.Context(), cfg, bars, log)
	if cerr := closeLog(); cerr != nil && err == nil {
		err = fmt.Errorf("flush log: %w", cerr)
	}
	if err != nil {
		return fmt.Errorf("simulate: %w", err)
	}

	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	j, err := openJournal(cfg.Journal)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	run, err := backtest.Persist(j, recap, backtest.RunInfo{
		Pair:      cfg.Market.Pair,
		Timeframe: cfg.Market.Timeframe,
		Dataset:   cfg.Data.Path,
		Config:    string(raw),
	})
	if cerr := j.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("journal: %w", err)
	}

	if cfg.Report.EquityFile != "" {
		if err := backtest.SaveEquityCSV(cfg.Report.EquityFile, recap.Equity); err != nil {
			return err
		}
	}
	if cfg.Report.OrgFile != "" {
		rep := backtest.OrgReport(run, recap, cfg.Report.EquityFile)
		if err := rep.WriteOrgFile(cfg.Report.OrgFile); err != nil {
			return fmt.Errorf("write org report: %w", err)
		}
	}

	labels := backtest.LabelsFor(cfg)
	labels.RunID = run.RunID
	backtest.PrintSummary(cmd.OutOrStdout(), recap, labels)
	return nil
}
