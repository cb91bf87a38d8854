package strategies

import "github.com/rustyeddy/backtester/market"

// Noop holds on every bar. Useful as a baseline: the equity curve stays at
// the starting cash.
type Noop struct{}

func (Noop) Name() string { return "NOOP" }
func (Noop) Reset()       {}

func (Noop) OnBar(market.Bar, market.Direction) (market.Signal, bool) {
	return market.Hold, true
}
