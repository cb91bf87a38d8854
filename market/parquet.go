package market

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
)

// BarRecord is the on-disk Parquet schema for bars.
type BarRecord struct {
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Open      float64 `parquet:"open"`
	High      float64 `parquet:"high"`
	Low       float64 `parquet:"low"`
	Close     float64 `parquet:"close"`
	Volume    float64 `parquet:"volume"`
}

// LoadParquet reads and validates all bars in path.
func LoadParquet(path string) ([]Bar, error) {
	rows, err := parquet.ReadFile[BarRecord](path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	bars := make([]Bar, 0, len(rows))
	for _, r := range rows {
		bars = append(bars, Bar{
			Time:   time.UnixMilli(r.Timestamp).UTC(),
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
		})
	}

	if err := Validate(bars); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return bars, nil
}

// WriteParquet stores bars at path, creating parent directories.
func WriteParquet(path string, bars []Bar) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	rows := make([]BarRecord, 0, len(bars))
	for _, b := range bars {
		rows = append(rows, BarRecord{
			Timestamp: b.Time.UnixMilli(),
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
		})
	}
	return parquet.WriteFile(path, rows)
}

// Load dispatches on format ("csv" or "parquet"; empty means csv).
func Load(path, format string, opts CSVOptions) ([]Bar, error) {
	switch format {
	case "", "csv":
		return LoadCSV(path, opts)
	case "parquet":
		return LoadParquet(path)
	default:
		return nil, fmt.Errorf("unknown bar format %q (supported: csv, parquet)", format)
	}
}

// Save writes bars to path in format ("csv" or "parquet"; empty means csv),
// creating parent directories.
func Save(path, format string, bars []Bar) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	switch format {
	case "", "csv":
		fh, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := WriteCSV(fh, bars); err != nil {
			fh.Close()
			return err
		}
		return fh.Close()
	case "parquet":
		return WriteParquet(path, bars)
	default:
		return fmt.Errorf("unknown bar format %q (supported: csv, parquet)", format)
	}
}
