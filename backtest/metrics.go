package backtest

import "github.com/rustyeddy/backtester/sim"

// Metrics summarises a closed-trade ledger.
type Metrics struct {
	TotalTrades     int     `json:"total_trades" yaml:"total_trades"`
	Wins            int     `json:"wins" yaml:"wins"`
	Losses          int     `json:"losses" yaml:"losses"`
	TotalProfit     float64 `json:"total_profit" yaml:"total_profit"`
	TotalCommission float64 `json:"total_commission" yaml:"total_commission"`
	WinRate         float64 `json:"win_rate" yaml:"win_rate"`
	AvgProfit       float64 `json:"avg_profit" yaml:"avg_profit"`
	AvgLoss         float64 `json:"avg_loss" yaml:"avg_loss"`

	// MaxDrawdown is the most negative sum of net profit over a run of
	// consecutive losing trades; MaxDrawdownDuration is that run's length in
	// trades.
	MaxDrawdown         float64 `json:"max_drawdown" yaml:"max_drawdown"`
	MaxDrawdownDuration int     `json:"max_drawdown_duration" yaml:"max_drawdown_duration"`
}

// ComputeMetrics makes a single pass over trades in ledger order.
//
// A trade with NetProfit > 0 is a win, anything else a loss. AvgProfit and
// AvgLoss both divide the aggregate net profit (not per-side sums) by the
// win and loss counts. Drawdown is measured over the trade sequence, not
// the equity curve: losing trades extend the current run, any other trade
// closes it.
func ComputeMetrics(trades []sim.Trade) Metrics {
	var (
		m          Metrics
		ddCurrent  float64
		ddDuration int
	)

	commit := func() {
		if ddCurrent < m.MaxDrawdown {
			m.MaxDrawdown = ddCurrent
			m.MaxDrawdownDuration = ddDuration
		}
		ddCurrent = 0
		ddDuration = 0
	}

	for _, t := range trades {
		m.TotalProfit += t.NetProfit
		m.TotalCommission += t.Commission
		if t.Win() {
			m.Wins++
		} else {
			m.Losses++
		}

		if t.NetProfit < 0 {
			ddCurrent += t.NetProfit
			ddDuration++
			continue
		}
		commit()
	}
	// A losing run that reaches the end of the ledger still counts.
	commit()

	m.TotalTrades = len(trades)
	if m.TotalTrades > 0 {
		m.WinRate = float64(m.Wins) / float64(m.TotalTrades)
	}
	if m.Wins > 0 {
		m.AvgProfit = m.TotalProfit / float64(m.Wins)
	}
	if m.Losses > 0 {
		m.AvgLoss = m.TotalProfit / float64(m.Losses)
	}
	return m
}
