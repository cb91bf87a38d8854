package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeframe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
		dur  time.Duration
	}{
		{"1m", "1m", time.Minute},
		{"15m", "15m", 15 * time.Minute},
		{"1h", "1h", time.Hour},
		{" 4h ", "4h", 4 * time.Hour},
		{"1d", "1d", 24 * time.Hour},
		{"1w", "1w", 7 * 24 * time.Hour},
		{"M5", "5m", 5 * time.Minute},
		{"H1", "1h", time.Hour},
		{"D1", "1d", 24 * time.Hour},
		{"W1", "1w", 7 * 24 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			tf, err := ParseTimeframe(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, tf.String())
			assert.Equal(t, tt.dur, tf.Duration())
		})
	}
}

func TestParseTimeframeErrors(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "h", "0h", "-1h", "1y", "xh", "1M", "M0"} {
		_, err := ParseTimeframe(in)
		assert.Error(t, err, in)
	}
}
