package backtest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rustyeddy/backtester/config"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/market/strategies"
	"github.com/rustyeddy/backtester/sim"
)

// Simulate runs the strategy named in cfg over bars with a fresh portfolio.
// A nil logger discards the trade log.
func Simulate(ctx context.Context, cfg *config.Config, bars []market.Bar, log *slog.Logger) (Recap, error) {
	strat, err := strategies.New(cfg.Strategy.Name, cfg.StrategyParams())
	if err != nil {
		return Recap{}, fmt.Errorf("build strategy: %w", err)
	}

	pf, err := sim.NewPortfolio(cfg.Portfolio(), log)
	if err != nil {
		return Recap{}, fmt.Errorf("build portfolio: %w", err)
	}

	r := &Runner{Strategy: strat, Portfolio: pf}
	return r.Run(ctx, bars)
}
