package strategies

import (
	"fmt"

	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/market/indicators"
)

// DefaultSMAWindow is the lookback used when none is configured.
const DefaultSMAWindow = 14

var _ Strategy = (*SMACross)(nil)

// SMACross compares each close against the simple moving average of the
// last Window closes. Above the average it asks to go long, below it asks
// to get out; a request already satisfied by the current position becomes
// Hold.
type SMACross struct {
	sma  *indicators.SMA
	name string
}

func NewSMACross(window int) (*SMACross, error) {
	if window == 0 {
		window = DefaultSMAWindow
	}
	if window < 0 {
		return nil, fmt.Errorf("sma-cross: window must be positive, got %d", window)
	}
	return &SMACross{
		sma:  indicators.NewSMA(window),
		name: fmt.Sprintf("SMA_CROSS(%d)", window),
	}, nil
}

func (s *SMACross) Name() string { return s.name }

func (s *SMACross) Reset() { s.sma.Reset() }

// Window returns the warm-up length.
func (s *SMACross) Window() int { return s.sma.Warmup() }

func (s *SMACross) OnBar(bar market.Bar, pos market.Direction) (market.Signal, bool) {
	s.sma.Update(bar)
	if !s.sma.Ready() {
		return market.Hold, false
	}

	avg := s.sma.Value()
	switch {
	case bar.Close > avg && pos != market.Long:
		return market.Buy, true
	case bar.Close < avg && pos != market.Short:
		return market.Sell, true
	default:
		return market.Hold, true
	}
}
