package data

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2/futures"

	"github.com/rustyeddy/backtester/market"
)

// binanceLimit is the largest page the klines endpoint returns.
const binanceLimit = 1500

// klineFunc fetches one page of klines in [start, end] (unix ms).
type klineFunc func(ctx context.Context, symbol, interval string, start, end int64, limit int) ([]*futures.Kline, error)

var _ Source = (*Binance)(nil)

// Binance downloads USDⓈ-M futures klines.
type Binance struct {
	klines klineFunc
	retry  *retrier
	log    *slog.Logger
}

func NewBinance(creds Credentials, log *slog.Logger) *Binance {
	client := futures.NewClient(creds.Key, creds.Secret)
	client.HTTPClient = &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	if creds.BaseURL != "" {
		client.BaseURL = creds.BaseURL
	}

	fetch := func(ctx context.Context, symbol, interval string, start, end int64, limit int) ([]*futures.Kline, error) {
		return client.NewKlinesService().
			Symbol(symbol).
			Interval(interval).
			StartTime(start).
			EndTime(end).
			Limit(limit).
			Do(ctx)
	}
	return newBinance(fetch, log)
}

func newBinance(fetch klineFunc, log *slog.Logger) *Binance {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Binance{
		klines: fetch,
		// 10 requests per second with burst of 20
		retry: newRetrier(10, 20, log),
		log:   log,
	}
}

func (b *Binance) Name() string { return "binance" }

// Bars pages through the klines endpoint from req.Start until req.End.
func (b *Binance) Bars(ctx context.Context, req Request) ([]market.Bar, error) {
	if err := req.validate(); err != nil {
		return nil, fmt.Errorf("binance: %w", err)
	}

	interval := req.Interval.String()
	startMs := req.Start.UnixMilli()
	endMs := req.End.UnixMilli() - 1

	var bars []market.Bar
	for startMs <= endMs {
		var page []*futures.Kline
		err := b.retry.do(ctx, "binance klines", func() error {
			var err error
			page, err = b.klines(ctx, req.Symbol, interval, startMs, endMs, binanceLimit)
			return err
		})
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}

		last := startMs
		for _, k := range page {
			bar, err := klineToBar(k)
			if err != nil {
				return nil, fmt.Errorf("binance: kline at %d: %w", k.OpenTime, err)
			}
			bars = append(bars, bar)
			if k.OpenTime > last {
				last = k.OpenTime
			}
		}

		b.log.Info("fetched klines", "symbol", req.Symbol, "interval", interval, "count", len(page), "through", time.UnixMilli(last).UTC())
		if len(page) < binanceLimit {
			break
		}
		startMs = last + 1
	}

	return normalize(bars, req.Start, req.End), nil
}

func klineToBar(k *futures.Kline) (market.Bar, error) {
	var (
		bar market.Bar
		err error
	)
	bar.Time = time.UnixMilli(k.OpenTime).UTC()

	fields := []struct {
		name string
		in   string
		out  *float64
	}{
		{"open", k.Open, &bar.Open},
		{"high", k.High, &bar.High},
		{"low", k.Low, &bar.Low},
		{"close", k.Close, &bar.Close},
		{"volume", k.Volume, &bar.Volume},
	}
	for _, f := range fields {
		*f.out, err = strconv.ParseFloat(f.in, 64)
		if err != nil {
			return market.Bar{}, fmt.Errorf("bad %s %q", f.name, f.in)
		}
	}
	return bar, nil
}
