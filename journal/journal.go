// Package journal persists backtest runs: run summaries, closed trades and
// equity samples.
package journal

import (
	"context"
	"time"
)

// RunRecord is the summary row of one backtest run.
type RunRecord struct {
	RunID     string
	Created   time.Time
	Strategy  string
	Pair      string
	Timeframe string
	Dataset   string

	Start time.Time
	End   time.Time
	Bars  int

	StartBalance float64
	EndBalance   float64

	Trades              int
	Wins                int
	Losses              int
	NetProfit           float64
	Commission          float64
	WinRate             float64
	AvgProfit           float64
	AvgLoss             float64
	MaxDrawdown         float64
	MaxDrawdownDuration int

	Config string // YAML of the run configuration
}

// TradeRecord is one closed trade of a run.
type TradeRecord struct {
	RunID      string
	TradeID    string
	Direction  string
	EntryTime  time.Time
	ExitTime   time.Time
	EntryPrice float64
	ExitPrice  float64
	Allocated  float64
	Commission float64
	NetProfit  float64
	Reason     string
}

// EquitySnapshot is one equity-curve sample of a run.
type EquitySnapshot struct {
	RunID  string
	Time   time.Time
	Equity float64
}

// Journal is an append-only sink for run results.
type Journal interface {
	RecordRun(RunRecord) error
	RecordTrade(TradeRecord) error
	RecordEquity(EquitySnapshot) error
	Close() error
}

// Reader queries runs back out of a database journal.
type Reader interface {
	ListRuns(ctx context.Context) ([]RunRecord, error)
	GetRun(ctx context.Context, runID string) (RunRecord, error)
	ListTradesByRunID(ctx context.Context, runID string) ([]TradeRecord, error)
	ListEquityByRunID(ctx context.Context, runID string) ([]EquitySnapshot, error)
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordRun(RunRecord) error { return nil }

func (Nop) RecordTrade(TradeRecord) error { return nil }

func (Nop) RecordEquity(EquitySnapshot) error { return nil }

func (Nop) Close() error { return nil }
