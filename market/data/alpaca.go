package data

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"github.com/rustyeddy/backtester/market"
)

// barsFunc fetches bars for one symbol.
type barsFunc func(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error)

var _ Source = (*Alpaca)(nil)

// Alpaca downloads bars from the Alpaca market-data API.
type Alpaca struct {
	bars  barsFunc
	feed  marketdata.Feed
	retry *retrier
	log   *slog.Logger
}

func NewAlpaca(creds Credentials, log *slog.Logger) *Alpaca {
	opts := marketdata.ClientOpts{
		APIKey:    creds.Key,
		APISecret: creds.Secret,
	}
	if creds.BaseURL != "" {
		opts.BaseURL = creds.BaseURL
	}
	client := marketdata.NewClient(opts)
	return newAlpaca(client.GetBars, log)
}

func newAlpaca(fetch barsFunc, log *slog.Logger) *Alpaca {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Alpaca{
		bars: fetch,
		feed: marketdata.IEX,
		// the free plan allows 200 requests per minute
		retry: newRetrier(3, 5, log),
		log:   log,
	}
}

func (a *Alpaca) Name() string { return "alpaca" }

// Bars fetches the whole range in one call; the client pages internally.
func (a *Alpaca) Bars(ctx context.Context, req Request) ([]market.Bar, error) {
	if err := req.validate(); err != nil {
		return nil, fmt.Errorf("alpaca: %w", err)
	}
	tf, err := alpacaTimeFrame(req.Interval)
	if err != nil {
		return nil, fmt.Errorf("alpaca: %w", err)
	}

	var raw []marketdata.Bar
	err = a.retry.do(ctx, "alpaca bars", func() error {
		var err error
		raw, err = a.bars(req.Symbol, marketdata.GetBarsRequest{
			TimeFrame: tf,
			Start:     req.Start,
			End:       req.End,
			Feed:      a.feed,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	bars := make([]market.Bar, 0, len(raw))
	for _, ab := range raw {
		bars = append(bars, market.Bar{
			Time:   ab.Timestamp.UTC(),
			Open:   ab.Open,
			High:   ab.High,
			Low:    ab.Low,
			Close:  ab.Close,
			Volume: float64(ab.Volume),
		})
	}
	a.log.Info("fetched bars", "symbol", req.Symbol, "timeframe", req.Interval.String(), "count", len(bars))

	return normalize(bars, req.Start, req.End), nil
}

func alpacaTimeFrame(tf market.Timeframe) (marketdata.TimeFrame, error) {
	switch tf.Unit {
	case 'm':
		if tf.N > 59 {
			return marketdata.TimeFrame{}, fmt.Errorf("timeframe %s: minutes must be below 60", tf)
		}
		return marketdata.NewTimeFrame(tf.N, marketdata.Min), nil
	case 'h':
		if tf.N > 23 {
			return marketdata.TimeFrame{}, fmt.Errorf("timeframe %s: hours must be below 24", tf)
		}
		return marketdata.NewTimeFrame(tf.N, marketdata.Hour), nil
	case 'd':
		if tf.N != 1 {
			return marketdata.TimeFrame{}, fmt.Errorf("timeframe %s: only 1d is supported", tf)
		}
		return marketdata.OneDay, nil
	case 'w':
		if tf.N != 1 {
			return marketdata.TimeFrame{}, fmt.Errorf("timeframe %s: only 1w is supported", tf)
		}
		return marketdata.NewTimeFrame(1, marketdata.Week), nil
	default:
		return marketdata.TimeFrame{}, fmt.Errorf("unsupported timeframe %s", tf)
	}
}
