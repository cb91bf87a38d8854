package sim

import "github.com/rustyeddy/backtester/market"

// Exit reasons of protective levels.
const (
	ReasonStopLoss   = "stop loss"
	ReasonTakeProfit = "take profit"
)

// levels returns the stop and take prices of a trade entered at entry.
// A zero fraction disables its level.
func levels(entry, stopLoss, takeProfit float64, dir market.Direction) (stop, take float64) {
	sign := 1.0
	if dir == market.Short {
		sign = -1
	}
	if stopLoss > 0 {
		stop = entry * (1 - sign*stopLoss)
	}
	if takeProfit > 0 {
		take = entry * (1 + sign*takeProfit)
	}
	return stop, take
}

// hitStopLoss reports whether bar traded through the stop and the fill
// price. A bar that opens beyond the stop fills at its open.
func hitStopLoss(t *Trade, bar market.Bar) (float64, bool) {
	if t.StopPrice == 0 {
		return 0, false
	}
	if t.Direction == market.Short {
		if bar.High >= t.StopPrice {
			return max(bar.Open, t.StopPrice), true
		}
		return 0, false
	}
	if bar.Low <= t.StopPrice {
		return min(bar.Open, t.StopPrice), true
	}
	return 0, false
}

// hitTakeProfit is hitStopLoss for the profit target. A bar that opens
// beyond the target fills at its open.
func hitTakeProfit(t *Trade, bar market.Bar) (float64, bool) {
	if t.TakePrice == 0 {
		return 0, false
	}
	if t.Direction == market.Short {
		if bar.Low <= t.TakePrice {
			return min(bar.Open, t.TakePrice), true
		}
		return 0, false
	}
	if bar.High >= t.TakePrice {
		return max(bar.Open, t.TakePrice), true
	}
	return 0, false
}
