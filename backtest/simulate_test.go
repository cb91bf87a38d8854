package backtest

import (
	"context"
	"testing"

	"github.com/rustyeddy/backtester/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulate(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Account.BaseFunds = 1000
	cfg.Account.TransactionFee = 0
	cfg.Account.Slippage = 0
	cfg.Strategy.SMAWindow = 3

	recap, err := Simulate(context.Background(), cfg, barsFromCloses(10, 10, 10, 12, 14, 9, 8, 13, 15.6), nil)
	require.NoError(t, err)

	assert.Equal(t, "SMA_CROSS(3)", recap.Strategy)
	assert.Equal(t, 2, recap.Metrics.TotalTrades)
	assert.InDelta(t, -5.5, recap.Metrics.TotalProfit, 1e-9)
}

func TestSimulateWithCosts(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Account.BaseFunds = 1000
	cfg.Strategy.SMAWindow = 3

	recap, err := Simulate(context.Background(), cfg, barsFromCloses(10, 10, 10, 12, 14, 9, 8, 13, 15.6), nil)
	require.NoError(t, err)

	require.Len(t, recap.Trades, 2)
	for _, tr := range recap.Trades {
		// Entry and exit each charge the fee on the allocation.
		assert.InDelta(t, 2*cfg.Account.TransactionFee*tr.Allocated, tr.Commission, 1e-9)
	}
	assert.Less(t, recap.Metrics.TotalProfit, -5.5)
}

func TestSimulateNoop(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Strategy.Name = "noop"

	recap, err := Simulate(context.Background(), cfg, barsFromCloses(1, 2, 3), nil)
	require.NoError(t, err)
	assert.Empty(t, recap.Trades)
	assert.Len(t, recap.Equity, 3)
}

func TestSimulateBadConfig(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Strategy.Name = "moon"
	_, err := Simulate(context.Background(), cfg, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "build strategy")

	cfg = config.Default()
	cfg.Account.TradeFraction = 0
	_, err = Simulate(context.Background(), cfg, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "build portfolio")
}
