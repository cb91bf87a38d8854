package backtest

import (
	"fmt"
	"time"

	"github.com/rustyeddy/backtester/journal"
	"github.com/rustyeddy/backtester/pkg/id"
	"github.com/rustyeddy/backtester/sim"
)

// RunInfo describes a run for the journal.
type RunInfo struct {
	RunID     string // generated when empty
	Pair      string
	Timeframe string
	Dataset   string
	Config    string
}

// RunRecord flattens a recap into a journal row.
func RunRecord(r Recap, info RunInfo) journal.RunRecord {
	m := r.Metrics
	return journal.RunRecord{
		RunID:               info.RunID,
		Created:             time.Now().UTC(),
		Strategy:            r.Strategy,
		Pair:                info.Pair,
		Timeframe:           info.Timeframe,
		Dataset:             info.Dataset,
		Start:               r.Start,
		End:                 r.End,
		Bars:                r.Bars,
		StartBalance:        r.StartCash,
		EndBalance:          r.EndCash,
		Trades:              m.TotalTrades,
		Wins:                m.Wins,
		Losses:              m.Losses,
		NetProfit:           m.TotalProfit,
		Commission:          m.TotalCommission,
		WinRate:             m.WinRate,
		AvgProfit:           m.AvgProfit,
		AvgLoss:             m.AvgLoss,
		MaxDrawdown:         m.MaxDrawdown,
		MaxDrawdownDuration: m.MaxDrawdownDuration,
		Config:              info.Config,
	}
}

// TradeRecords converts the ledger into journal rows of runID.
func TradeRecords(runID string, trades []sim.Trade) []journal.TradeRecord {
	out := make([]journal.TradeRecord, 0, len(trades))
	for _, t := range trades {
		out = append(out, journal.TradeRecord{
			RunID:      runID,
			TradeID:    t.ID,
			Direction:  t.Direction.String(),
			EntryTime:  t.EntryTime,
			ExitTime:   t.ExitTime,
			EntryPrice: t.EntryPrice,
			ExitPrice:  t.ExitPrice,
			Allocated:  t.Allocated,
			Commission: t.Commission,
			NetProfit:  t.NetProfit,
			Reason:     t.ExitReason,
		})
	}
	return out
}

// Persist writes the run summary, every closed trade and the equity curve
// to j and returns the stored run row.
func Persist(j journal.Journal, r Recap, info RunInfo) (journal.RunRecord, error) {
	if info.RunID == "" {
		info.RunID = id.New()
	}
	run := RunRecord(r, info)

	if err := j.RecordRun(run); err != nil {
		return run, fmt.Errorf("record run: %w", err)
	}
	for _, t := range TradeRecords(run.RunID, r.Trades) {
		if err := j.RecordTrade(t); err != nil {
			return run, fmt.Errorf("record trade %s: %w", t.TradeID, err)
		}
	}
	for _, p := range r.Equity {
		if err := j.RecordEquity(journal.EquitySnapshot{RunID: run.RunID, Time: p.Time, Equity: p.Equity}); err != nil {
			return run, fmt.Errorf("record equity: %w", err)
		}
	}
	return run, nil
}

// OrgReport builds the org-mode report of a stored run.
func OrgReport(run journal.RunRecord, r Recap, equityCSV string) journal.RunReport {
	return journal.RunReport{
		Run:       run,
		Trades:    TradeRecords(run.RunID, r.Trades),
		EquityCSV: equityCSV,
	}
}

// EquityPoints converts stored snapshots back into an equity curve.
func EquityPoints(snaps []journal.EquitySnapshot) []sim.EquityPoint {
	out := make([]sim.EquityPoint, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, sim.EquityPoint{Time: s.Time, Equity: s.Equity})
	}
	return out
}
