package strategies

import "github.com/rustyeddy/backtester/market"

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// relation is -1 when fast is below slow, +1 above and 0 when equal.
func relation(fast, slow float64) int {
	switch {
	case fast > slow:
		return +1
	case fast < slow:
		return -1
	default:
		return 0
	}
}

// want turns a desired direction into a signal, holding when pos already
// satisfies it.
func want(dir market.Direction, pos market.Direction) market.Signal {
	switch {
	case dir == market.Long && pos != market.Long:
		return market.Buy
	case dir == market.Short && pos != market.Short:
		return market.Sell
	default:
		return market.Hold
	}
}
