// Package data downloads historical bars from exchange APIs.
package data

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/rustyeddy/backtester/market"
)

// Request selects a bar series. End is exclusive.
type Request struct {
	Symbol   string
	Interval market.Timeframe
	Start    time.Time
	End      time.Time
}

func (r Request) validate() error {
	if strings.TrimSpace(r.Symbol) == "" {
		return fmt.Errorf("symbol is required")
	}
	if r.Interval.N <= 0 {
		return fmt.Errorf("interval is required")
	}
	if !r.End.After(r.Start) {
		return fmt.Errorf("end %s must be after start %s", r.End.Format(time.RFC3339), r.Start.Format(time.RFC3339))
	}
	return nil
}

// Source downloads bars for a request.
type Source interface {
	Name() string
	Bars(ctx context.Context, req Request) ([]market.Bar, error)
}

// Credentials are the API keys of a Source.
type Credentials struct {
	Key     string
	Secret  string
	BaseURL string
}

// New returns the Source registered as name ("binance" or "alpaca").
func New(name string, creds Credentials, log *slog.Logger) (Source, error) {
	switch strings.ToLower(name) {
	case "binance":
		return NewBinance(creds, log), nil
	case "alpaca":
		return NewAlpaca(creds, log), nil
	default:
		return nil, fmt.Errorf("unknown source %q (supported: alpaca, binance)", name)
	}
}

// retrier paces calls with a token bucket and retries failures with
// exponential backoff.
type retrier struct {
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration
	log        *slog.Logger
}

func newRetrier(perSecond float64, burst int, log *slog.Logger) *retrier {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &retrier{
		limiter:    rate.NewLimiter(rate.Limit(perSecond), burst),
		maxRetries: 3,
		backoff:    100 * time.Millisecond,
		log:        log,
	}
}

func (r *retrier) do(ctx context.Context, what string, call func() error) error {
	var err error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if err := r.limiter.Wait(ctx); err != nil {
			return err
		}

		if err = call(); err == nil {
			return nil
		}
		if attempt == r.maxRetries {
			break
		}

		wait := time.Duration(math.Pow(2, float64(attempt))) * r.backoff
		r.log.Warn("request failed, retrying", "call", what, "attempt", attempt+1, "wait", wait, "err", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return fmt.Errorf("%s: %w", what, err)
}

// normalize sorts bars by time, drops duplicate timestamps and anything
// outside [start, end).
func normalize(bars []market.Bar, start, end time.Time) []market.Bar {
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })

	out := bars[:0]
	for _, b := range bars {
		if b.Time.Before(start) || !b.Time.Before(end) {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Time.Equal(b.Time) {
			continue
		}
		out = append(out, b)
	}
	return out
}
