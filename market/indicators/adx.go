package indicators

import (
	"fmt"
	"math"

	"github.com/rustyeddy/backtester/market"
)

var _ Indicator = (*ADX)(nil)

// ADX is Wilder's Average Directional Index over bar high, low and close.
//
// The first bar only seeds the previous bar. The next N periods build the
// smoothed true range and directional movement, then N DX values seed the
// ADX, so Warmup reports 2N.
type ADX struct {
	n    int
	name string

	prev    market.Bar
	hasPrev bool
	periods int
	ready   bool

	adx     float64
	plusDI  float64
	minusDI float64
	lastDX  float64

	smTR      float64
	smPlusDM  float64
	smMinusDM float64

	dxSum   float64
	dxCount int
}

func NewADX(period int) *ADX {
	if period <= 0 {
		panic("ADX period must be > 0")
	}
	return &ADX{
		n:    period,
		name: fmt.Sprintf("ADX(%d)", period),
	}
}

func (a *ADX) Name() string   { return a.name }
func (a *ADX) Warmup() int    { return 2 * a.n }
func (a *ADX) Ready() bool    { return a.ready }
func (a *ADX) Value() float64 { return a.adx }

func (a *ADX) PlusDI() float64  { return a.plusDI }
func (a *ADX) MinusDI() float64 { return a.minusDI }
func (a *ADX) DX() float64      { return a.lastDX }

func (a *ADX) Reset() {
	*a = ADX{n: a.n, name: a.name}
}

func (a *ADX) Update(b market.Bar) {
	if !a.hasPrev {
		a.prev = b
		a.hasPrev = true
		return
	}

	tr := math.Max(b.High-b.Low, math.Max(math.Abs(b.High-a.prev.Close), math.Abs(b.Low-a.prev.Close)))
	up := b.High - a.prev.High
	down := a.prev.Low - b.Low

	var plusDM, minusDM float64
	if up > down && up > 0 {
		plusDM = up
	}
	if down > up && down > 0 {
		minusDM = down
	}
	a.prev = b
	a.periods++

	nf := float64(a.n)
	if a.periods <= a.n {
		a.smTR += tr
		a.smPlusDM += plusDM
		a.smMinusDM += minusDM
		if a.periods < a.n {
			return
		}
	} else {
		// Wilder smoothing
		a.smTR = a.smTR - a.smTR/nf + tr
		a.smPlusDM = a.smPlusDM - a.smPlusDM/nf + plusDM
		a.smMinusDM = a.smMinusDM - a.smMinusDM/nf + minusDM
	}

	a.plusDI, a.minusDI = di(a.smPlusDM, a.smMinusDM, a.smTR)
	a.lastDX = dx(a.plusDI, a.minusDI)

	if a.ready {
		a.adx = (a.adx*(nf-1) + a.lastDX) / nf
		return
	}
	a.dxSum += a.lastDX
	a.dxCount++
	if a.dxCount >= a.n {
		a.adx = a.dxSum / nf
		a.ready = true
	}
}

func di(smPlusDM, smMinusDM, smTR float64) (plus, minus float64) {
	if smTR <= 0 {
		return 0, 0
	}
	return 100 * (smPlusDM / smTR), 100 * (smMinusDM / smTR)
}

func dx(plusDI, minusDI float64) float64 {
	den := plusDI + minusDI
	if den <= 0 {
		return 0
	}
	return 100 * (math.Abs(plusDI-minusDI) / den)
}
