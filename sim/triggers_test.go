package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/backtester/market"
)

func bar(h int, o, hi, lo, c float64) market.Bar {
	return market.Bar{Time: at(h), Open: o, High: hi, Low: lo, Close: c}
}

func TestLevels(t *testing.T) {
	t.Parallel()

	stop, take := levels(100, 0.05, 0.1, market.Long)
	assert.InDelta(t, 95, stop, 1e-9)
	assert.InDelta(t, 110, take, 1e-9)

	stop, take = levels(100, 0.05, 0.1, market.Short)
	assert.InDelta(t, 105, stop, 1e-9)
	assert.InDelta(t, 90, take, 1e-9)

	stop, take = levels(100, 0, 0, market.Long)
	assert.Zero(t, stop)
	assert.Zero(t, take)
}

func TestCheckStops(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		dir       market.Direction
		bar       market.Bar
		wantPrice float64
		reason    string
	}{
		{"long stop", market.Long, bar(1, 99, 100, 94, 96), 95, ReasonStopLoss},
		{"long stop gapped", market.Long, bar(1, 90, 91, 88, 89), 90, ReasonStopLoss},
		{"long take", market.Long, bar(1, 101, 112, 100, 111), 110, ReasonTakeProfit},
		{"long take gapped", market.Long, bar(1, 115, 116, 114, 115), 115, ReasonTakeProfit},
		{"long bar spans both", market.Long, bar(1, 100, 120, 80, 100), 95, ReasonStopLoss},
		{"short stop", market.Short, bar(1, 101, 106, 100, 104), 105, ReasonStopLoss},
		{"short take", market.Short, bar(1, 99, 100, 89, 91), 90, ReasonTakeProfit},
		{"short take gapped", market.Short, bar(1, 85, 86, 84, 85), 85, ReasonTakeProfit},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := frictionless()
			cfg.StopLoss, cfg.TakeProfit = 0.05, 0.1
			p, _ := newPortfolio(t, cfg)
			require.True(t, p.Enter(at(0), 100, tt.dir))

			require.True(t, p.CheckStops(tt.bar))
			assert.Equal(t, market.Flat, p.Direction())

			closed := p.ClosedTrades()
			require.Len(t, closed, 1)
			assert.InDelta(t, tt.wantPrice, closed[0].ExitPrice, 1e-9)
			assert.Equal(t, tt.reason, closed[0].ExitReason)
		})
	}
}

func TestCheckStopsQuiet(t *testing.T) {
	t.Parallel()

	cfg := frictionless()
	cfg.StopLoss, cfg.TakeProfit = 0.05, 0.1
	p, buf := newPortfolio(t, cfg)

	// nothing open: no warning, unlike Exit
	assert.False(t, p.CheckStops(bar(0, 100, 200, 1, 100)))
	assert.NotContains(t, buf.String(), "nothing to exit")

	require.True(t, p.Enter(at(0), 100, market.Long))
	assert.False(t, p.CheckStops(bar(1, 100, 109, 96, 104)))
	assert.Equal(t, market.Long, p.Direction())

	// disabled levels never fire
	p2, _ := newPortfolio(t, frictionless())
	require.True(t, p2.Enter(at(0), 100, market.Long))
	assert.False(t, p2.CheckStops(bar(1, 100, 1000, 1, 100)))
}
