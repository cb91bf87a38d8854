package strategies

import (
	"fmt"

	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/market/indicators"
)

const (
	DefaultFastPeriod = 9
	DefaultSlowPeriod = 21
)

var _ Strategy = (*EMACross)(nil)

// EMACross signals when a fast EMA crosses a slow EMA. It fires on the
// cross event only, not on every bar while the averages stay crossed.
type EMACross struct {
	fast *indicators.EMA
	slow *indicators.EMA

	// -1 fast below slow, +1 above, 0 before the baseline is set
	prevRel int

	minSpread float64
	name      string
}

func NewEMACross(p Params) (*EMACross, error) {
	fast, slow, err := emaPeriods(p)
	if err != nil {
		return nil, fmt.Errorf("ema-cross: %w", err)
	}
	return &EMACross{
		fast:      indicators.NewEMA(fast),
		slow:      indicators.NewEMA(slow),
		minSpread: p.MinSpread,
		name:      fmt.Sprintf("EMA_CROSS(%d,%d)", fast, slow),
	}, nil
}

func emaPeriods(p Params) (fast, slow int, err error) {
	fast, slow = p.FastPeriod, p.SlowPeriod
	if fast == 0 {
		fast = DefaultFastPeriod
	}
	if slow == 0 {
		slow = DefaultSlowPeriod
	}
	if fast < 0 || slow < 0 {
		return 0, 0, fmt.Errorf("periods must be positive, got %d/%d", fast, slow)
	}
	if fast >= slow {
		return 0, 0, fmt.Errorf("fast period %d must be below slow period %d", fast, slow)
	}
	if p.MinSpread < 0 {
		return 0, 0, fmt.Errorf("min spread must not be negative")
	}
	return fast, slow, nil
}

func (x *EMACross) Name() string { return x.name }

func (x *EMACross) Reset() {
	x.fast.Reset()
	x.slow.Reset()
	x.prevRel = 0
}

func (x *EMACross) OnBar(bar market.Bar, pos market.Direction) (market.Signal, bool) {
	x.fast.Update(bar)
	x.slow.Update(bar)
	if !x.fast.Ready() || !x.slow.Ready() {
		return market.Hold, false
	}
	return x.cross(pos), true
}

// cross advances the fast/slow relationship and returns the signal for a
// cross event.
func (x *EMACross) cross(pos market.Direction) market.Signal {
	fv, sv := x.fast.Value(), x.slow.Value()
	if x.minSpread > 0 && abs(fv-sv) < x.minSpread {
		return market.Hold
	}

	rel := relation(fv, sv)
	prev := x.prevRel
	if rel != 0 {
		x.prevRel = rel
	}

	switch {
	case prev == -1 && rel == +1:
		return want(market.Long, pos)
	case prev == +1 && rel == -1:
		return want(market.Short, pos)
	default:
		return market.Hold
	}
}
