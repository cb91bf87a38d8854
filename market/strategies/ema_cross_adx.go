package strategies

import (
	"fmt"

	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/market/indicators"
)

const (
	DefaultADXPeriod    = 14
	DefaultADXThreshold = 20.0
)

var _ Strategy = (*EMACrossADX)(nil)

// EMACrossADX is EMACross gated by trend strength: crosses are ignored while
// ADX is below the threshold. With RequireDI a buy also needs +DI > -DI and a
// sell -DI > +DI. No decision is made until ADX is ready.
type EMACrossADX struct {
	cross *EMACross
	adx   *indicators.ADX

	threshold float64
	requireDI bool
	name      string
}

func NewEMACrossADX(p Params) (*EMACrossADX, error) {
	x, err := NewEMACross(p)
	if err != nil {
		return nil, fmt.Errorf("ema-cross-adx: %w", err)
	}
	period := p.ADXPeriod
	if period == 0 {
		period = DefaultADXPeriod
	}
	if period < 0 {
		return nil, fmt.Errorf("ema-cross-adx: adx period must be positive, got %d", period)
	}
	threshold := p.ADXThreshold
	if threshold <= 0 {
		threshold = DefaultADXThreshold
	}

	fast, slow := x.fast.Warmup(), x.slow.Warmup()
	return &EMACrossADX{
		cross:     x,
		adx:       indicators.NewADX(period),
		threshold: threshold,
		requireDI: p.RequireDI,
		name:      fmt.Sprintf("EMA_CROSS_ADX(%d,%d,ADX%d@%.1f)", fast, slow, period, threshold),
	}, nil
}

func (x *EMACrossADX) Name() string { return x.name }

func (x *EMACrossADX) Reset() {
	x.cross.Reset()
	x.adx.Reset()
}

func (x *EMACrossADX) OnBar(bar market.Bar, pos market.Direction) (market.Signal, bool) {
	x.cross.fast.Update(bar)
	x.cross.slow.Update(bar)
	x.adx.Update(bar)
	if !x.cross.fast.Ready() || !x.cross.slow.Ready() || !x.adx.Ready() {
		return market.Hold, false
	}

	sig := x.cross.cross(pos)
	if x.adx.Value() < x.threshold {
		return market.Hold, true
	}
	if x.requireDI {
		switch {
		case sig == market.Buy && x.adx.PlusDI() <= x.adx.MinusDI():
			return market.Hold, true
		case sig == market.Sell && x.adx.MinusDI() <= x.adx.PlusDI():
			return market.Hold, true
		}
	}
	return sig, true
}
