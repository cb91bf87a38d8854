package market

import (
	"fmt"
	"math"
	"time"
)

// Bar is one OHLCV sample for a fixed interval.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Direction is the side of the open position, Flat when there is none.
type Direction int8

const (
	Flat Direction = iota
	Long
	Short
)

func (d Direction) String() string {
	switch d {
	case Long:
		return "Long"
	case Short:
		return "Short"
	default:
		return "Flat"
	}
}

// Signal is a strategy decision for a single bar.
type Signal int

const (
	Hold Signal = iota
	Buy
	Sell
)

func (s Signal) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return "HOLD"
	}
}

// Validate checks the bar source contract: finite positive prices, open and
// close within [low, high] and strictly increasing time. The simulation
// trusts bars that pass.
func Validate(bars []Bar) error {
	for i, b := range bars {
		for _, v := range []float64{b.Open, b.High, b.Low, b.Close, b.Volume} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("bar %d (%s): non-finite value", i, b.Time.Format(time.RFC3339))
			}
		}
		if b.Low <= 0 {
			return fmt.Errorf("bar %d (%s): non-positive low %g", i, b.Time.Format(time.RFC3339), b.Low)
		}
		if b.High < b.Low {
			return fmt.Errorf("bar %d (%s): high %g below low %g", i, b.Time.Format(time.RFC3339), b.High, b.Low)
		}
		if b.Open < b.Low || b.Open > b.High || b.Close < b.Low || b.Close > b.High {
			return fmt.Errorf("bar %d (%s): open/close outside low/high", i, b.Time.Format(time.RFC3339))
		}
		if i > 0 && !b.Time.After(bars[i-1].Time) {
			return fmt.Errorf("bar %d (%s): time not after previous bar %s",
				i, b.Time.Format(time.RFC3339), bars[i-1].Time.Format(time.RFC3339))
		}
	}
	return nil
}

// Range returns the first and last bar times, zero values for an empty series.
func Range(bars []Bar) (start, end time.Time) {
	if len(bars) == 0 {
		return
	}
	return bars[0].Time, bars[len(bars)-1].Time
}
