// Package backtest drives a strategy over a bar series against a simulated
// portfolio and aggregates the outcome.
package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/market/strategies"
	"github.com/rustyeddy/backtester/sim"
)

// DefaultCloseReason annotates the trade force-closed on the last bar.
const DefaultCloseReason = "end of data"

// Recap is the outcome of one run.
type Recap struct {
	Strategy string
	Trades   []sim.Trade
	Equity   []sim.EquityPoint
	Metrics  Metrics

	Start     time.Time
	End       time.Time
	Bars      int
	StartCash float64
	EndCash   float64
}

// Runner replays bars through Strategy and applies its signals to Portfolio.
// A Runner, its Strategy and its Portfolio serve a single run.
type Runner struct {
	Strategy  strategies.Strategy
	Portfolio *sim.Portfolio

	// LeaveOpen skips the forced exit after the last bar; the open trade is
	// then left out of Trades and Metrics.
	LeaveOpen bool

	// CloseReason labels the forced exit of a trade still open after the
	// last bar. Empty uses DefaultCloseReason.
	CloseReason string
}

// Run executes the tick loop:
//  0. protective stops of the open trade, when configured
//  1. strategy.OnBar(bar, portfolio direction)
//  2. warm-up bars (no decision) are skipped entirely
//  3. Buy enters Long, Sell exits an open trade, Hold does nothing
//  4. one equity sample at the bar close
//
// After the last bar an open trade is exited at the last close, then
// metrics are computed over the ledger. Bars must already be sorted and
// valid (see market.Validate); ctx is checked between bars.
func (r *Runner) Run(ctx context.Context, bars []market.Bar) (Recap, error) {
	if r.Strategy == nil {
		return Recap{}, fmt.Errorf("backtest: Strategy is required")
	}
	if r.Portfolio == nil {
		return Recap{}, fmt.Errorf("backtest: Portfolio is required")
	}

	r.Strategy.Reset()
	startCash := r.Portfolio.Cash()
	pf := r.Portfolio

	for _, bar := range bars {
		if err := ctx.Err(); err != nil {
			return Recap{}, err
		}

		pf.CheckStops(bar)

		sig, ok := r.Strategy.OnBar(bar, pf.Direction())
		if !ok {
			continue
		}

		switch sig {
		case market.Buy:
			pf.Enter(bar.Time, bar.Close, market.Long)
		case market.Sell:
			// flat Sells repeat on every bar below the average
			if pf.Direction() != market.Flat {
				pf.Exit(bar.Time, bar.Close)
			}
		}
		pf.Mark(bar.Time, bar.Close)
	}

	if !r.LeaveOpen && len(bars) > 0 && pf.Direction() != market.Flat {
		last := bars[len(bars)-1]
		reason := r.CloseReason
		if reason == "" {
			reason = DefaultCloseReason
		}
		pf.ExitWithReason(last.Time, last.Close, reason)
	}

	trades := pf.ClosedTrades()
	start, end := market.Range(bars)

	return Recap{
		Strategy:  r.Strategy.Name(),
		Trades:    trades,
		Equity:    pf.EquityCurve(),
		Metrics:   ComputeMetrics(trades),
		Start:     start,
		End:       end,
		Bars:      len(bars),
		StartCash: startCash,
		EndCash:   pf.Cash(),
	}, nil
}
