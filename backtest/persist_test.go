package backtest

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rustyeddy/backtester/journal"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/pkg/id"
	"github.com/rustyeddy/backtester/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingJournal struct {
	journal.Nop
	failOn string
}

func (j failingJournal) RecordRun(journal.RunRecord) error {
	if j.failOn == "run" {
		return errors.New("disk full")
	}
	return nil
}

func (j failingJournal) RecordTrade(journal.TradeRecord) error {
	if j.failOn == "trade" {
		return errors.New("disk full")
	}
	return nil
}

func TestPersistSQLiteRoundTrip(t *testing.T) {
	t.Parallel()

	j, err := journal.NewSQLite(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	r, _ := newRunner(t, 3)
	recap, err := r.Run(context.Background(), barsFromCloses(10, 10, 10, 12, 14, 9, 8, 13, 15.6))
	require.NoError(t, err)

	run, err := Persist(j, recap, RunInfo{Pair: "BTCUSDT", Timeframe: "1h", Dataset: "btc.csv", Config: "x: 1\n"})
	require.NoError(t, err)
	require.NotEmpty(t, run.RunID)
	_, err = id.Time(run.RunID)
	assert.NoError(t, err)

	ctx := context.Background()
	got, err := j.GetRun(ctx, run.RunID)
	require.NoError(t, err)
	assert.Equal(t, "SMA_CROSS(3)", got.Strategy)
	assert.Equal(t, "BTCUSDT", got.Pair)
	assert.Equal(t, 9, got.Bars)
	assert.Equal(t, 2, got.Trades)
	assert.InDelta(t, recap.Metrics.TotalProfit, got.NetProfit, 1e-9)
	assert.InDelta(t, recap.EndCash, got.EndBalance, 1e-9)
	assert.Equal(t, "x: 1\n", got.Config)

	trades, err := j.ListTradesByRunID(ctx, run.RunID)
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, recap.Trades[0].ID, trades[0].TradeID)
	assert.Equal(t, "Long", trades[0].Direction)
	assert.Equal(t, "signal", trades[0].Reason)
	assert.Equal(t, DefaultCloseReason, trades[1].Reason)

	equity, err := j.ListEquityByRunID(ctx, run.RunID)
	require.NoError(t, err)
	assert.Len(t, equity, len(recap.Equity))
}

func TestPersistKeepsGivenRunID(t *testing.T) {
	t.Parallel()

	run, err := Persist(journal.Nop{}, sampleRecap(), RunInfo{RunID: "fixed"})
	require.NoError(t, err)
	assert.Equal(t, "fixed", run.RunID)
	assert.Equal(t, 3, run.Trades)
	assert.False(t, run.Created.IsZero())
}

func TestPersistErrors(t *testing.T) {
	t.Parallel()

	_, err := Persist(failingJournal{failOn: "run"}, sampleRecap(), RunInfo{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record run")

	_, err = Persist(failingJournal{failOn: "trade"}, sampleRecap(), RunInfo{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record trade T1")
}

func TestTradeRecords(t *testing.T) {
	t.Parallel()

	trades := []sim.Trade{{ID: "A", Direction: market.Short, EntryPrice: 99.9, ExitPrice: 90, NetProfit: 9, ExitReason: "signal"}}
	recs := TradeRecords("R1", trades)

	require.Len(t, recs, 1)
	assert.Equal(t, journal.TradeRecord{
		RunID:      "R1",
		TradeID:    "A",
		Direction:  "Short",
		EntryPrice: 99.9,
		ExitPrice:  90,
		NetProfit:  9,
		Reason:     "signal",
	}, recs[0])
}

func TestOrgReport(t *testing.T) {
	t.Parallel()

	recap := sampleRecap()
	run := RunRecord(recap, RunInfo{RunID: "R1", Pair: "BTCUSDT"})
	rep := OrgReport(run, recap, "eq.csv")

	assert.Equal(t, "R1", rep.Run.RunID)
	assert.Len(t, rep.Trades, 3)
	assert.Equal(t, "R1", rep.Trades[0].RunID)
	assert.Equal(t, "eq.csv", rep.EquityCSV)
	assert.InDelta(t, 2.5, rep.ReturnPct(), 1e-9)
}

func TestEquityPoints(t *testing.T) {
	t.Parallel()

	recap := sampleRecap()
	var snaps []journal.EquitySnapshot
	for _, p := range recap.Equity {
		snaps = append(snaps, journal.EquitySnapshot{RunID: "R1", Time: p.Time, Equity: p.Equity})
	}

	assert.Equal(t, recap.Equity, EquityPoints(snaps))
	assert.Empty(t, EquityPoints(nil))
}
