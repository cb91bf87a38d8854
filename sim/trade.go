package sim

import (
	"time"

	"github.com/rustyeddy/backtester/market"
)

// Trade is one round trip. Entry fields are fixed when the trade opens; exit
// fields are set exactly once when it closes.
type Trade struct {
	ID         string
	Direction  market.Direction // Long or Short, never Flat
	EntryTime  time.Time
	EntryPrice float64 // after slippage
	Allocated  float64 // capital committed at entry
	Commission float64 // entry + exit charges

	// protective levels, 0 when disabled
	StopPrice float64
	TakePrice float64

	ExitTime   time.Time
	ExitPrice  float64 // after slippage
	NetProfit  float64 // after commission
	ExitReason string

	closed bool
}

// Closed reports whether the exit fields are final.
func (t Trade) Closed() bool { return t.closed }

// Win reports a strictly positive net profit.
func (t Trade) Win() bool { return t.NetProfit > 0 }

// Value is the mark-to-market worth of the allocated capital at price.
// It uses the raw price ratio: slippage and commission are only paid on a
// real exit.
func (t Trade) Value(price float64) float64 {
	if t.Direction == market.Short {
		return t.Allocated * t.EntryPrice / price
	}
	return t.Allocated * price / t.EntryPrice
}

// EquityPoint is one sample of the equity curve.
type EquityPoint struct {
	Time   time.Time
	Equity float64
}

// entryPrice applies slippage against the trader when opening.
func entryPrice(price, slippage float64, dir market.Direction) float64 {
	if dir == market.Short {
		return price * (1 - slippage)
	}
	return price * (1 + slippage)
}

// exitPrice applies slippage against the trader when closing.
func exitPrice(price, slippage float64, dir market.Direction) float64 {
	if dir == market.Short {
		return price * (1 + slippage)
	}
	return price * (1 - slippage)
}

// grossProfit is the P/L of allocated capital between two effective prices.
func grossProfit(allocated, entry, exit float64, dir market.Direction) float64 {
	if dir == market.Short {
		return allocated * (entry - exit) / entry
	}
	return allocated * (exit - entry) / entry
}
