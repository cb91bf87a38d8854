package market

import (
	"fmt"
	"io"
	"time"
)

// Gap kinds.
const (
	GapMinor      = "minor"
	GapWeekend    = "weekend"
	GapSuspicious = "suspicious"
)

// suspiciousBars is the missing-bar count from which a short gap is flagged.
const suspiciousBars = 10

// Gap is a run of missing bars.
type Gap struct {
	Start   time.Time // open time of the first missing bar
	Missing int
	Kind    string
}

type GapStats struct {
	Expected       int
	Present        int
	Missing        int
	GapCount       int
	WeekendGaps    int
	SuspiciousGaps int
	LongestGap     int
	LongestGapKind string
}

// FindGaps reports every place where consecutive bars are more than one
// timeframe apart.
func FindGaps(bars []Bar, tf Timeframe) []Gap {
	step := tf.Duration()
	if step <= 0 {
		return nil
	}

	var gaps []Gap
	for i := 1; i < len(bars); i++ {
		delta := bars[i].Time.Sub(bars[i-1].Time)
		missing := int(delta/step) - 1
		if missing <= 0 {
			continue
		}
		start := bars[i-1].Time.Add(step)
		gaps = append(gaps, Gap{
			Start:   start,
			Missing: missing,
			Kind:    classifyGap(start, time.Duration(missing)*step, missing),
		})
	}
	return gaps
}

// classifyGap calls a gap of a day or more that starts Friday to Sunday
// (UTC) a weekend; other day-long gaps and gaps of suspiciousBars or more are
// suspicious.
func classifyGap(start time.Time, length time.Duration, missing int) string {
	if length >= 24*time.Hour {
		switch start.UTC().Weekday() {
		case time.Friday, time.Saturday, time.Sunday:
			return GapWeekend
		}
		return GapSuspicious
	}
	if missing >= suspiciousBars {
		return GapSuspicious
	}
	return GapMinor
}

// GapReport summarizes the gaps of a series.
func GapReport(bars []Bar, tf Timeframe) GapStats {
	var s GapStats
	s.Present = len(bars)
	for _, g := range FindGaps(bars, tf) {
		s.Missing += g.Missing
		s.GapCount++
		if g.Missing > s.LongestGap {
			s.LongestGap = g.Missing
			s.LongestGapKind = g.Kind
		}
		switch g.Kind {
		case GapWeekend:
			s.WeekendGaps++
		case GapSuspicious:
			s.SuspiciousGaps++
		}
	}
	s.Expected = s.Present + s.Missing
	return s
}

// PrintGapReport writes the gap summary of bars to w.
func PrintGapReport(w io.Writer, bars []Bar, tf Timeframe) {
	s := GapReport(bars, tf)
	first, last := Range(bars)

	fmt.Fprintf(w, "---- Bar Series (%s) ----\n", tf)
	fmt.Fprintf(w, "Range: %s → %s\n", first.Format(time.RFC3339), last.Format(time.RFC3339))
	fmt.Fprintf(w, "      Expected Bars: %d\n", s.Expected)
	fmt.Fprintf(w, "       Present Bars: %d\n", s.Present)
	fmt.Fprintf(w, "       Missing Bars: %d\n", s.Missing)
	fmt.Fprintf(w, "         Total Gaps: %d\n", s.GapCount)
	fmt.Fprintf(w, "       Weekend Gaps: %d\n", s.WeekendGaps)
	fmt.Fprintf(w, "    Suspicious Gaps: %d\n", s.SuspiciousGaps)
	fmt.Fprintf(w, "Longest Gap: %d bars (%s)\n", s.LongestGap, s.LongestGapKind)
	fmt.Fprintln(w, "--------------------------")
}

// Resample aggregates bars into tf buckets aligned to tf boundaries (UTC).
// Buckets with fewer than minBars source bars are dropped. Volume is summed.
func Resample(bars []Bar, tf Timeframe, minBars int) []Bar {
	step := tf.Duration()
	if step <= 0 || len(bars) == 0 {
		return nil
	}
	if minBars < 1 {
		minBars = 1
	}

	var (
		out   []Bar
		cur   Bar
		count int
	)
	flush := func() {
		if count >= minBars {
			out = append(out, cur)
		}
	}
	for _, b := range bars {
		bucket := b.Time.UTC().Truncate(step)
		if count > 0 && bucket.Equal(cur.Time) {
			cur.High = max(cur.High, b.High)
			cur.Low = min(cur.Low, b.Low)
			cur.Close = b.Close
			cur.Volume += b.Volume
			count++
			continue
		}
		if count > 0 {
			flush()
		}
		cur = Bar{Time: bucket, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume}
		count = 1
	}
	flush()
	return out
}
