// Package indicators provides streaming technical indicators over bars.
package indicators

import (
	"fmt"

	"github.com/rustyeddy/backtester/market"
)

// Indicator computes a single streaming value from bars.
type Indicator interface {
	// Name returns a stable identifier like "SMA(14)".
	Name() string

	// Warmup returns how many updates are needed before Ready() is true.
	Warmup() int

	// Reset clears all internal state.
	Reset()

	// Update consumes the next closed bar.
	Update(b market.Bar)

	// Ready reports whether Value() is meaningful.
	Ready() bool

	Value() float64
}

var _ Indicator = (*SMA)(nil)

// SMA is a streaming simple moving average of closing prices.
// It keeps the last n closes in a ring buffer.
type SMA struct {
	n    int
	buf  []float64
	next int
	seen int
	name string
}

func NewSMA(period int) *SMA {
	if period <= 0 {
		panic("SMA period must be > 0")
	}
	return &SMA{
		n:    period,
		buf:  make([]float64, period),
		name: fmt.Sprintf("SMA(%d)", period),
	}
}

func (s *SMA) Name() string { return s.name }
func (s *SMA) Warmup() int  { return s.n }
func (s *SMA) Ready() bool  { return s.seen >= s.n }

func (s *SMA) Reset() {
	for i := range s.buf {
		s.buf[i] = 0
	}
	s.next = 0
	s.seen = 0
}

func (s *SMA) Update(b market.Bar) {
	s.Push(b.Close)
}

// Push adds a raw price.
func (s *SMA) Push(x float64) {
	s.buf[s.next] = x
	s.next = (s.next + 1) % s.n
	s.seen++
}

// Value returns the mean of the last n prices, or 0 until ready.
func (s *SMA) Value() float64 {
	if !s.Ready() {
		return 0
	}
	sum := 0.0
	for _, x := range s.buf {
		sum += x
	}
	return sum / float64(s.n)
}

// Mean is the batch equivalent of SMA.Value over the last period closes.
func Mean(bars []market.Bar, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(bars) < period {
		return 0, fmt.Errorf("not enough bars: need %d, got %d", period, len(bars))
	}

	sum := 0.0
	for i := len(bars) - period; i < len(bars); i++ {
		sum += bars[i].Close
	}
	return sum / float64(period), nil
}
