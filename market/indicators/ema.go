package indicators

import (
	"fmt"

	"github.com/rustyeddy/backtester/market"
)

var _ Indicator = (*EMA)(nil)

// EMA is an exponential moving average of closing prices, seeded with the
// first close. It is Ready after period updates.
type EMA struct {
	n     int
	alpha float64

	seen  int
	value float64

	name string
}

func NewEMA(period int) *EMA {
	if period <= 0 {
		panic("EMA period must be > 0")
	}
	return &EMA{
		n:     period,
		alpha: 2.0 / float64(period+1),
		name:  fmt.Sprintf("EMA(%d)", period),
	}
}

func (e *EMA) Name() string   { return e.name }
func (e *EMA) Warmup() int    { return e.n }
func (e *EMA) Ready() bool    { return e.seen >= e.n }
func (e *EMA) Value() float64 { return e.value }

func (e *EMA) Reset() {
	e.seen = 0
	e.value = 0
}

func (e *EMA) Update(b market.Bar) {
	e.Push(b.Close)
}

// Push adds a raw price.
func (e *EMA) Push(x float64) {
	e.seen++
	if e.seen == 1 {
		e.value = x
		return
	}
	e.value = e.alpha*x + (1.0-e.alpha)*e.value
}
