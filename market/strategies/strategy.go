// Package strategies holds the signal generators that drive a backtest.
package strategies

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rustyeddy/backtester/market"
)

// Strategy turns bars into trading decisions.
//
// OnBar is called once per bar in time order. pos is the portfolio's current
// direction; strategies must not track their own copy of it. ok is false
// while the strategy is still warming up, in which case the caller takes no
// action for the bar.
type Strategy interface {
	Name() string
	Reset()
	OnBar(bar market.Bar, pos market.Direction) (sig market.Signal, ok bool)
}

// Params carries the tunables a factory may use.
type Params struct {
	SMAWindow int

	FastPeriod int
	SlowPeriod int
	MinSpread  float64 // price units; 0 disables

	ADXPeriod    int
	ADXThreshold float64
	RequireDI    bool
}

// Factory builds a fresh strategy instance for one run.
type Factory func(p Params) (Strategy, error)

var registry = map[string]Factory{}

// Register makes a strategy available by name. Names are case-insensitive.
func Register(name string, f Factory) {
	registry[strings.ToLower(strings.TrimSpace(name))] = f
}

// New builds the named strategy.
func New(name string, p Params) (Strategy, error) {
	f, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (supported: %s)", name, strings.Join(Names(), ", "))
	}
	return f(p)
}

// Names lists registered strategies in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register("sma-cross", func(p Params) (Strategy, error) {
		return NewSMACross(p.SMAWindow)
	})
	Register("ema-cross", func(p Params) (Strategy, error) {
		return NewEMACross(p)
	})
	Register("ema-cross-adx", func(p Params) (Strategy, error) {
		return NewEMACrossADX(p)
	})
	Register("noop", func(Params) (Strategy, error) {
		return Noop{}, nil
	})
}
