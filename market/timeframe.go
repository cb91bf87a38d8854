package market

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Timeframe is a bar interval such as 15m, 1h or 1d.
type Timeframe struct {
	N    int
	Unit byte // 'm', 'h', 'd' or 'w'
}

// ParseTimeframe accepts exchange style strings ("1m", "4h", "1d", "1w")
// and the broker style aliases M1, M5, M15, M30, H1, H4, D1 and W1.
func ParseTimeframe(s string) (Timeframe, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return Timeframe{}, fmt.Errorf("invalid timeframe %q", s)
	}

	// M15 -> 15m, H4 -> 4h
	if c := s[0]; c == 'M' || c == 'H' || c == 'D' || c == 'W' {
		n, err := strconv.Atoi(s[1:])
		if err == nil && n > 0 {
			return Timeframe{N: n, Unit: c + ('a' - 'A')}, nil
		}
	}

	unit := s[len(s)-1]
	switch unit {
	case 'm', 'h', 'd', 'w':
	default:
		return Timeframe{}, fmt.Errorf("invalid timeframe %q: unit must be m, h, d or w", s)
	}
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n <= 0 {
		return Timeframe{}, fmt.Errorf("invalid timeframe %q", s)
	}
	return Timeframe{N: n, Unit: unit}, nil
}

func (tf Timeframe) String() string {
	return strconv.Itoa(tf.N) + string(tf.Unit)
}

// Duration is the length of one bar.
func (tf Timeframe) Duration() time.Duration {
	var d time.Duration
	switch tf.Unit {
	case 'm':
		d = time.Minute
	case 'h':
		d = time.Hour
	case 'd':
		d = 24 * time.Hour
	case 'w':
		d = 7 * 24 * time.Hour
	}
	return time.Duration(tf.N) * d
}
