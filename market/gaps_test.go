package market

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hoursAt(start time.Time, offsets ...int) []Bar {
	out := make([]Bar, len(offsets))
	for i, h := range offsets {
		c := float64(100 + i)
		out[i] = Bar{Time: start.Add(time.Duration(h) * time.Hour), Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 1}
	}
	return out
}

func mustTF(t *testing.T, s string) Timeframe {
	t.Helper()
	tf, err := ParseTimeframe(s)
	require.NoError(t, err)
	return tf
}

func TestFindGaps(t *testing.T) {
	t.Parallel()

	// 2024-01-03 is a Wednesday, 2024-01-05 a Friday.
	wed := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	fri := time.Date(2024, 1, 5, 20, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		bars    []Bar
		missing int
		kind    string
	}{
		{"minor", hoursAt(wed, 0, 3), 2, GapMinor},
		{"suspicious", hoursAt(wed, 0, 12), 11, GapSuspicious},
		{"day long midweek", hoursAt(wed, 0, 30), 29, GapSuspicious},
		{"weekend", hoursAt(fri, 0, 50), 49, GapWeekend},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gaps := FindGaps(tt.bars, mustTF(t, "1h"))
			require.Len(t, gaps, 1)
			assert.Equal(t, tt.missing, gaps[0].Missing)
			assert.Equal(t, tt.kind, gaps[0].Kind)
			assert.Equal(t, tt.bars[0].Time.Add(time.Hour), gaps[0].Start)
		})
	}

	assert.Empty(t, FindGaps(hoursAt(wed, 0, 1, 2, 3), mustTF(t, "1h")))
	assert.Empty(t, FindGaps(nil, mustTF(t, "1h")))
}

func TestGapReport(t *testing.T) {
	t.Parallel()

	fri := time.Date(2024, 1, 5, 20, 0, 0, 0, time.UTC)
	bars := hoursAt(fri, 0, 1, 3, 52, 53, 70)

	s := GapReport(bars, mustTF(t, "1h"))
	assert.Equal(t, 6, s.Present)
	assert.Equal(t, 1+48+16, s.Missing)
	assert.Equal(t, 6+65, s.Expected)
	assert.Equal(t, 3, s.GapCount)
	assert.Equal(t, 1, s.WeekendGaps)
	assert.Equal(t, 1, s.SuspiciousGaps)
	assert.Equal(t, 48, s.LongestGap)
	assert.Equal(t, GapWeekend, s.LongestGapKind)

	var buf bytes.Buffer
	PrintGapReport(&buf, bars, mustTF(t, "1h"))
	assert.Contains(t, buf.String(), "Missing Bars: 65")
	assert.Contains(t, buf.String(), "Longest Gap: 48 bars (weekend)")
}

func TestResample(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var m15 []Bar
	for i, c := range []float64{10, 12, 9, 11, 20, 21} {
		m15 = append(m15, Bar{
			Time:   start.Add(time.Duration(i) * 15 * time.Minute),
			Open:   c - 0.5,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 2,
		})
	}

	h1 := Resample(m15, mustTF(t, "1h"), 1)
	require.Len(t, h1, 2)
	assert.Equal(t, Bar{Time: start, Open: 9.5, High: 13, Low: 8, Close: 11, Volume: 8}, h1[0])
	assert.Equal(t, Bar{Time: start.Add(time.Hour), Open: 19.5, High: 22, Low: 19, Close: 21, Volume: 4}, h1[1])
	assert.NoError(t, Validate(h1))

	// the second hour has only two of four bars
	assert.Len(t, Resample(m15, mustTF(t, "1h"), 3), 1)
	assert.Nil(t, Resample(nil, mustTF(t, "1h"), 1))
}
