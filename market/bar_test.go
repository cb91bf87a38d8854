package market

import (
	"bytes"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

func sampleBars() []Bar {
	return []Bar{
		{Time: t0, Open: 100, High: 101, Low: 99, Close: 100.5, Volume: 10},
		{Time: t0.Add(time.Hour), Open: 100.5, High: 102, Low: 100, Close: 101.25, Volume: 12},
		{Time: t0.Add(2 * time.Hour), Open: 101.25, High: 101.5, Low: 98, Close: 98.75, Volume: 20},
	}
}

func TestDirectionAndSignalString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Flat", Flat.String())
	assert.Equal(t, "Long", Long.String())
	assert.Equal(t, "Short", Short.String())
	assert.Equal(t, "BUY", Buy.String())
	assert.Equal(t, "SELL", Sell.String())
	assert.Equal(t, "HOLD", Hold.String())

	var d Direction
	assert.Equal(t, Flat, d, "zero value is Flat")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(b []Bar)
		wantErr string
	}{
		{name: "valid", mutate: func(b []Bar) {}},
		{name: "high below low", mutate: func(b []Bar) { b[1].High = 90 }, wantErr: "below low"},
		{name: "duplicate time", mutate: func(b []Bar) { b[2].Time = b[1].Time }, wantErr: "not after previous"},
		{name: "unsorted", mutate: func(b []Bar) { b[2].Time = t0.Add(-time.Hour) }, wantErr: "not after previous"},
		{name: "nan close", mutate: func(b []Bar) { b[0].Close = math.NaN() }, wantErr: "non-finite"},
		{name: "inf volume", mutate: func(b []Bar) { b[0].Volume = math.Inf(1) }, wantErr: "non-finite"},
		{name: "zero low", mutate: func(b []Bar) { b[1].Low = 0 }, wantErr: "non-positive low"},
		{name: "negative prices", mutate: func(b []Bar) { b[2].Low, b[2].Close = -1, -0.5 }, wantErr: "non-positive low"},
		{name: "zero close", mutate: func(b []Bar) { b[0].Close = 0 }, wantErr: "outside low/high"},
		{name: "open above high", mutate: func(b []Bar) { b[1].Open = 103 }, wantErr: "outside low/high"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			bars := sampleBars()
			tt.mutate(bars)
			err := Validate(bars)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	assert.NoError(t, Validate(nil))
}

func TestRange(t *testing.T) {
	t.Parallel()

	start, end := Range(nil)
	assert.True(t, start.IsZero())
	assert.True(t, end.IsZero())

	start, end = Range(sampleBars())
	assert.Equal(t, t0, start)
	assert.Equal(t, t0.Add(2*time.Hour), end)
}

func TestReadCSV(t *testing.T) {
	t.Parallel()

	t.Run("default headers", func(t *testing.T) {
		t.Parallel()

		in := "timestamp,open,high,low,close,volume\n" +
			"2024-01-02 00:00:00,100,101,99,100.5,10\n" +
			"2024-01-02 01:00:00,100.5,102,100,101.25,12\n"
		bars, err := ReadCSV(strings.NewReader(in), CSVOptions{})
		require.NoError(t, err)
		require.Len(t, bars, 2)
		assert.Equal(t, t0, bars[0].Time)
		assert.Equal(t, 101.25, bars[1].Close)
		assert.Equal(t, 12.0, bars[1].Volume)
	})

	t.Run("mapped headers in any order", func(t *testing.T) {
		t.Parallel()

		in := "Vol,Date,C,L,H,O\n" +
			"10,2024-01-02T00:00:00Z,100.5,99,101,100\n"
		bars, err := ReadCSV(strings.NewReader(in), CSVOptions{
			Headers: map[string]string{
				"timestamp": "Date", "open": "O", "high": "H",
				"low": "L", "close": "C", "volume": "Vol",
			},
		})
		require.NoError(t, err)
		require.Len(t, bars, 1)
		assert.Equal(t, Bar{Time: t0, Open: 100, High: 101, Low: 99, Close: 100.5, Volume: 10}, bars[0])
	})

	t.Run("custom layout", func(t *testing.T) {
		t.Parallel()

		in := "timestamp,open,high,low,close,volume\n02/01/2024 00:00,1,1,1,1,1\n"
		bars, err := ReadCSV(strings.NewReader(in), CSVOptions{TimeLayout: "02/01/2006 15:04"})
		require.NoError(t, err)
		assert.Equal(t, t0, bars[0].Time)
	})

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()

		bars, err := ReadCSV(strings.NewReader(""), CSVOptions{})
		require.NoError(t, err)
		assert.Empty(t, bars)
	})

	t.Run("missing column", func(t *testing.T) {
		t.Parallel()

		_, err := ReadCSV(strings.NewReader("timestamp,open,high,low,close\n"), CSVOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `missing column "volume"`)
	})

	t.Run("bad number aborts", func(t *testing.T) {
		t.Parallel()

		in := "timestamp,open,high,low,close,volume\n2024-01-02 00:00:00,x,1,1,1,1\n"
		_, err := ReadCSV(strings.NewReader(in), CSVOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "line 2")
		assert.Contains(t, err.Error(), "bad open")
	})

	t.Run("bad time aborts", func(t *testing.T) {
		t.Parallel()

		in := "timestamp,open,high,low,close,volume\nyesterday,1,1,1,1,1\n"
		_, err := ReadCSV(strings.NewReader(in), CSVOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bad time")
	})

	t.Run("unsorted rejected", func(t *testing.T) {
		t.Parallel()

		in := "timestamp,open,high,low,close,volume\n" +
			"2024-01-02 01:00:00,1,1,1,1,1\n" +
			"2024-01-02 00:00:00,1,1,1,1,1\n"
		_, err := ReadCSV(strings.NewReader(in), CSVOptions{})
		require.Error(t, err)
	})
}

func TestWriteCSVRoundTrip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleBars()))

	got, err := ReadCSV(&buf, CSVOptions{})
	require.NoError(t, err)
	assert.Equal(t, sampleBars(), got)
}

func TestParquetRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bars", "btc.parquet")
	require.NoError(t, WriteParquet(path, sampleBars()))

	got, err := Load(path, "parquet", CSVOptions{})
	require.NoError(t, err)
	assert.Equal(t, sampleBars(), got)
}

func TestLoadUnknownFormat(t *testing.T) {
	t.Parallel()

	_, err := Load("bars.json", "json", CSVOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown bar format")
}

func TestLoadCSVMissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadCSV(filepath.Join(t.TempDir(), "nope.csv"), CSVOptions{})
	assert.Error(t, err)
}

func TestSaveAndLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, format := range []string{"csv", "parquet"} {
		t.Run(format, func(t *testing.T) {
			path := filepath.Join(dir, format, "bars."+format)
			require.NoError(t, Save(path, format, sampleBars()))

			got, err := Load(path, format, CSVOptions{})
			require.NoError(t, err)
			assert.Equal(t, sampleBars(), got)
		})
	}

	err := Save(filepath.Join(dir, "bars.json"), "json", sampleBars())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown bar format")
}
