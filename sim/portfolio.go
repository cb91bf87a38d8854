// Package sim is the single-instrument portfolio simulator: cash, at most one
// open trade, the closed-trade ledger and the equity curve.
package sim

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/pkg/id"
)

// Config sets the cost model and sizing of a Portfolio.
type Config struct {
	InitialCash float64
	// CommissionRate is a plain fraction of allocated capital charged on
	// entry and again on exit (0.001 = 0.1%).
	CommissionRate float64
	// Slippage is a fractional price penalty against the trader (0.001 = 0.1%).
	Slippage float64
	// TradeFraction is the share of current cash committed per trade, in (0, 1].
	TradeFraction float64
	// StopLoss and TakeProfit are fractional distances from the entry price
	// at which the open trade is closed by CheckStops. 0 disables.
	StopLoss   float64
	TakeProfit float64
}

// DefaultTradeFraction commits a tenth of free cash to each trade.
const DefaultTradeFraction = 0.1

func (c Config) Validate() error {
	if c.InitialCash <= 0 {
		return fmt.Errorf("sim: initial cash must be positive, got %g", c.InitialCash)
	}
	if c.CommissionRate < 0 {
		return fmt.Errorf("sim: commission rate must be >= 0, got %g", c.CommissionRate)
	}
	if c.Slippage < 0 {
		return fmt.Errorf("sim: slippage must be >= 0, got %g", c.Slippage)
	}
	if c.TradeFraction <= 0 || c.TradeFraction > 1 {
		return fmt.Errorf("sim: trade fraction must be in (0, 1], got %g", c.TradeFraction)
	}
	if c.StopLoss < 0 || c.StopLoss >= 1 {
		return fmt.Errorf("sim: stop loss must be in [0, 1), got %g", c.StopLoss)
	}
	if c.TakeProfit < 0 {
		return fmt.Errorf("sim: take profit must be >= 0, got %g", c.TakeProfit)
	}
	return nil
}

// Portfolio is the trade-lifecycle state machine. It is Flat with no open
// trade, or Long/Short with exactly one. It is not safe for concurrent use;
// each run owns its own Portfolio.
type Portfolio struct {
	cfg    Config
	cash   float64
	open   *Trade
	closed []Trade
	equity []EquityPoint
	log    *slog.Logger
}

// NewPortfolio returns a Flat portfolio holding cfg.InitialCash. A nil
// logger discards warnings.
func NewPortfolio(cfg Config, log *slog.Logger) (*Portfolio, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Portfolio{
		cfg:  cfg,
		cash: cfg.InitialCash,
		log:  log,
	}, nil
}

func (p *Portfolio) Config() Config { return p.cfg }

// Cash is free capital not committed to the open trade.
func (p *Portfolio) Cash() float64 { return p.cash }

// Direction is the side of the open trade, Flat when there is none.
func (p *Portfolio) Direction() market.Direction {
	if p.open == nil {
		return market.Flat
	}
	return p.open.Direction
}

// OpenTrade returns a copy of the open trade.
func (p *Portfolio) OpenTrade() (Trade, bool) {
	if p.open == nil {
		return Trade{}, false
	}
	return *p.open, true
}

// ClosedTrades returns a copy of the ledger in closing order.
func (p *Portfolio) ClosedTrades() []Trade {
	out := make([]Trade, len(p.closed))
	copy(out, p.closed)
	return out
}

// EquityCurve returns a copy of the recorded equity samples.
func (p *Portfolio) EquityCurve() []EquityPoint {
	out := make([]EquityPoint, len(p.equity))
	copy(out, p.equity)
	return out
}

// Equity is cash plus the mark-to-market value of the open trade at price.
func (p *Portfolio) Equity(price float64) float64 {
	if p.open == nil {
		return p.cash
	}
	return p.cash + p.open.Value(price)
}

// Enter opens a trade at price in direction dir, committing TradeFraction of
// current cash. It reports whether a trade was opened; rejected entries are
// logged and leave the portfolio untouched.
func (p *Portfolio) Enter(t time.Time, price float64, dir market.Direction) bool {
	if p.open != nil {
		p.log.Warn("double entry attempted", "time", t, "open", p.open.Direction.String())
		return false
	}
	if dir != market.Long && dir != market.Short {
		p.log.Warn("entry needs a direction", "time", t, "direction", dir.String())
		return false
	}

	allocated := p.cash * p.cfg.TradeFraction
	if allocated <= 0 {
		p.log.Warn("insufficient funds", "time", t, "cash", p.cash)
		return false
	}

	trade := &Trade{
		ID:         id.At(t),
		Direction:  dir,
		EntryTime:  t,
		EntryPrice: entryPrice(price, p.cfg.Slippage, dir),
		Allocated:  allocated,
		Commission: p.cfg.CommissionRate * allocated,
	}
	trade.StopPrice, trade.TakePrice = levels(trade.EntryPrice, p.cfg.StopLoss, p.cfg.TakeProfit, dir)
	p.cash -= allocated
	p.open = trade

	p.log.Info("entering trade",
		"time", t,
		"direction", dir.String(),
		"price", trade.EntryPrice,
		"allocated", allocated,
		"cash", p.cash,
	)
	return true
}

// Exit closes the open trade at price and appends it to the ledger. It
// reports whether a trade was closed; with nothing open it logs and returns
// false.
func (p *Portfolio) Exit(t time.Time, price float64) bool {
	return p.exit(t, price, "signal")
}

// ExitWithReason is Exit with a ledger annotation, e.g. "end of data".
func (p *Portfolio) ExitWithReason(t time.Time, price float64, reason string) bool {
	return p.exit(t, price, reason)
}

func (p *Portfolio) exit(t time.Time, price float64, reason string) bool {
	if p.open == nil {
		p.log.Warn("nothing to exit", "time", t)
		return false
	}

	trade := *p.open
	trade.ExitTime = t
	trade.ExitPrice = exitPrice(price, p.cfg.Slippage, trade.Direction)
	trade.Commission += p.cfg.CommissionRate * trade.Allocated
	trade.NetProfit = grossProfit(trade.Allocated, trade.EntryPrice, trade.ExitPrice, trade.Direction) - trade.Commission
	trade.ExitReason = reason
	trade.closed = true

	p.cash += trade.Allocated + trade.NetProfit
	p.closed = append(p.closed, trade)
	p.open = nil

	p.log.Info("exiting trade",
		"time", t,
		"price", trade.ExitPrice,
		"net_profit", trade.NetProfit,
		"reason", reason,
	)
	return true
}

// CheckStops closes the open trade when bar trades through its stop or
// take-profit level. The stop wins when a bar spans both. It reports whether
// a trade was closed.
func (p *Portfolio) CheckStops(bar market.Bar) bool {
	if p.open == nil {
		return false
	}
	if price, ok := hitStopLoss(p.open, bar); ok {
		return p.exit(bar.Time, price, ReasonStopLoss)
	}
	if price, ok := hitTakeProfit(p.open, bar); ok {
		return p.exit(bar.Time, price, ReasonTakeProfit)
	}
	return false
}

// Mark appends one equity sample valued at price.
func (p *Portfolio) Mark(t time.Time, price float64) {
	p.equity = append(p.equity, EquityPoint{Time: t, Equity: p.Equity(price)})
}
