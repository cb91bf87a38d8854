// Package config loads and validates backtest run configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/backtester/internal/tradelog"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/market/strategies"
	"github.com/rustyeddy/backtester/sim"
)

// Config represents a complete backtest run.
type Config struct {
	Data     DataConfig     `json:"data" yaml:"data"`
	Market   MarketConfig   `json:"market" yaml:"market"`
	Account  AccountConfig  `json:"account" yaml:"account"`
	Strategy StrategyConfig `json:"strategy" yaml:"strategy"`
	Log      LogConfig      `json:"log" yaml:"log"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
	Report   ReportConfig   `json:"report" yaml:"report"`
}

// DataConfig locates the bar series.
type DataConfig struct {
	Path       string            `json:"path" yaml:"path"`
	Format     string            `json:"format,omitempty" yaml:"format,omitempty"` // "csv" or "parquet"
	Headers    map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	TimeFormat string            `json:"time_format,omitempty" yaml:"time_format,omitempty"`
}

// MarketConfig describes what the bars are. It labels reports only.
type MarketConfig struct {
	Pair          string `json:"pair" yaml:"pair"`
	Timeframe     string `json:"timeframe" yaml:"timeframe"`
	BaseCurrency  string `json:"base_currency" yaml:"base_currency"`
	QuoteCurrency string `json:"quote_currency" yaml:"quote_currency"`
}

// AccountConfig holds the portfolio cost model.
type AccountConfig struct {
	BaseFunds float64 `json:"base_funds" yaml:"base_funds"`
	// TransactionFee is a fraction of allocated capital (0.001 = 0.1%),
	// charged on entry and on exit.
	TransactionFee float64 `json:"transaction_fee" yaml:"transaction_fee"`
	Slippage       float64 `json:"slippage" yaml:"slippage"`
	TradeFraction  float64 `json:"trade_fraction" yaml:"trade_fraction"`
	// StopLoss and TakeProfit are fractions of the entry price; 0 disables.
	StopLoss   float64 `json:"stop_loss,omitempty" yaml:"stop_loss,omitempty"`
	TakeProfit float64 `json:"take_profit,omitempty" yaml:"take_profit,omitempty"`
}

// StrategyConfig selects and tunes the signal generator.
type StrategyConfig struct {
	Name      string `json:"name" yaml:"name"`
	SMAWindow int    `json:"sma_window" yaml:"sma_window"`

	// ema-cross and ema-cross-adx
	FastPeriod   int     `json:"fast_period,omitempty" yaml:"fast_period,omitempty"`
	SlowPeriod   int     `json:"slow_period,omitempty" yaml:"slow_period,omitempty"`
	MinSpread    float64 `json:"min_spread,omitempty" yaml:"min_spread,omitempty"`
	ADXPeriod    int     `json:"adx_period,omitempty" yaml:"adx_period,omitempty"`
	ADXThreshold float64 `json:"adx_threshold,omitempty" yaml:"adx_threshold,omitempty"`
	RequireDI    bool    `json:"require_di,omitempty" yaml:"require_di,omitempty"`
}

// LogConfig controls the trade log side channel.
type LogConfig struct {
	Level string `json:"level" yaml:"level"` // none, info, all
	File  string `json:"file,omitempty" yaml:"file,omitempty"`
}

// JournalConfig contains journaling parameters.
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "none", "csv", "sqlite" or "postgres"
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	DSN        string `json:"dsn,omitempty" yaml:"dsn,omitempty"`
}

// ReportConfig names optional output files.
type ReportConfig struct {
	OrgFile    string `json:"org_file,omitempty" yaml:"org_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
}

// LoadFromFile loads configuration from a file. YAML is tried first, then
// JSON. Missing values are taken from Default().
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		cfg = Default()
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes YAML for .yaml/.yml paths and indented JSON otherwise.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks ranges and cross-field requirements.
func (c *Config) Validate() error {
	if c.Data.Path == "" {
		return fmt.Errorf("data.path is required")
	}
	switch c.Data.Format {
	case "", "csv", "parquet":
	default:
		return fmt.Errorf("data.format must be 'csv' or 'parquet'")
	}
	for field := range c.Data.Headers {
		if !isBarField(field) {
			return fmt.Errorf("data.headers: unknown field %q", field)
		}
	}
	if c.Market.Timeframe != "" {
		if _, err := market.ParseTimeframe(c.Market.Timeframe); err != nil {
			return fmt.Errorf("market.timeframe: %w", err)
		}
	}
	if c.Account.BaseFunds <= 0 {
		return fmt.Errorf("account.base_funds must be positive")
	}
	if c.Account.TransactionFee < 0 {
		return fmt.Errorf("account.transaction_fee must not be negative")
	}
	if c.Account.Slippage < 0 {
		return fmt.Errorf("account.slippage must not be negative")
	}
	if c.Account.TradeFraction <= 0 || c.Account.TradeFraction > 1 {
		return fmt.Errorf("account.trade_fraction must be in (0, 1]")
	}
	if c.Account.StopLoss < 0 || c.Account.StopLoss >= 1 {
		return fmt.Errorf("account.stop_loss must be in [0, 1)")
	}
	if c.Account.TakeProfit < 0 {
		return fmt.Errorf("account.take_profit must not be negative")
	}
	if c.Strategy.SMAWindow <= 0 {
		return fmt.Errorf("strategy.sma_window must be positive")
	}
	if _, err := strategies.New(c.Strategy.Name, c.StrategyParams()); err != nil {
		return fmt.Errorf("strategy.name: %w", err)
	}
	if _, err := tradelog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}

	switch c.Journal.Type {
	case "", "none":
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal trades_file and equity_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	case "postgres":
		if c.Journal.DSN == "" {
			return fmt.Errorf("journal dsn required for Postgres type")
		}
	default:
		return fmt.Errorf("journal.type must be 'none', 'csv', 'sqlite' or 'postgres'")
	}
	return nil
}

// Portfolio returns the simulator settings.
func (c *Config) Portfolio() sim.Config {
	return sim.Config{
		InitialCash:    c.Account.BaseFunds,
		CommissionRate: c.Account.TransactionFee,
		Slippage:       c.Account.Slippage,
		TradeFraction:  c.Account.TradeFraction,
		StopLoss:       c.Account.StopLoss,
		TakeProfit:     c.Account.TakeProfit,
	}
}

// StrategyParams returns the strategy tunables.
func (c *Config) StrategyParams() strategies.Params {
	return strategies.Params{
		SMAWindow:    c.Strategy.SMAWindow,
		FastPeriod:   c.Strategy.FastPeriod,
		SlowPeriod:   c.Strategy.SlowPeriod,
		MinSpread:    c.Strategy.MinSpread,
		ADXPeriod:    c.Strategy.ADXPeriod,
		ADXThreshold: c.Strategy.ADXThreshold,
		RequireDI:    c.Strategy.RequireDI,
	}
}

// CSVOptions returns the bar loader settings.
func (c *Config) CSVOptions() market.CSVOptions {
	return market.CSVOptions{Headers: c.Data.Headers, TimeLayout: c.Data.TimeFormat}
}

// LogLevel returns the parsed trade log verbosity.
func (c *Config) LogLevel() tradelog.Level {
	l, _ := tradelog.ParseLevel(c.Log.Level)
	return l
}

// Environment variables applied by ApplyEnv.
const (
	EnvDataPath    = "BACKTEST_DATA_PATH"
	EnvBaseFunds   = "BACKTEST_BASE_FUNDS"
	EnvLogLevel    = "BACKTEST_LOG_LEVEL"
	EnvJournalType = "BACKTEST_JOURNAL_TYPE"
	EnvJournalDSN  = "BACKTEST_JOURNAL_DSN"
)

// LoadDotEnv loads variables from .env files without overriding ones
// already set. Missing files are skipped; no arguments means ".env".
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv runs LoadDotEnv and overrides fields from BACKTEST_* variables.
func (c *Config) ApplyEnv(files ...string) error {
	if err := LoadDotEnv(files...); err != nil {
		return err
	}

	if v := os.Getenv(EnvDataPath); v != "" {
		c.Data.Path = v
	}
	if v := os.Getenv(EnvBaseFunds); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvBaseFunds, err)
		}
		c.Account.BaseFunds = f
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvJournalType); v != "" {
		c.Journal.Type = v
	}
	if v := os.Getenv(EnvJournalDSN); v != "" {
		c.Journal.DSN = v
	}
	return nil
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			Path:       "./data/BTCUSDT-1h.csv",
			Format:     "csv",
			Headers:    market.DefaultHeaders(),
			TimeFormat: market.DefaultTimeLayout,
		},
		Market: MarketConfig{
			Pair:          "BTCUSDT",
			Timeframe:     "1h",
			BaseCurrency:  "BTC",
			QuoteCurrency: "USDT",
		},
		Account: AccountConfig{
			BaseFunds:      10000,
			TransactionFee: 0.001,
			Slippage:       0.001,
			TradeFraction:  sim.DefaultTradeFraction,
		},
		Strategy: StrategyConfig{
			Name:      "sma-cross",
			SMAWindow: strategies.DefaultSMAWindow,
		},
		Log: LogConfig{
			Level: "info",
			File:  "./backtest.log",
		},
		Journal: JournalConfig{
			Type: "none",
		},
	}
}

func isBarField(s string) bool {
	for _, f := range market.BarFields {
		if f == s {
			return true
		}
	}
	return false
}
