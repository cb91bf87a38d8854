package strategies

import (
	"testing"

	"github.com/rustyeddy/backtester/market"
	"github.com/stretchr/testify/assert"
)

func TestNoop_OnBar(t *testing.T) {
	t.Parallel()

	var s Strategy = Noop{}
	s.Reset()

	for _, pos := range []market.Direction{market.Flat, market.Long, market.Short} {
		sig, ok := s.OnBar(market.Bar{Close: 1}, pos)
		assert.True(t, ok)
		assert.Equal(t, market.Hold, sig)
	}
	assert.Equal(t, "NOOP", s.Name())
}
