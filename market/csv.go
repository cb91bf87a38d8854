package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeLayout is the timestamp layout of exported kline CSVs
// ("2024-01-02 15:04:05").
const DefaultTimeLayout = "2006-01-02 15:04:05"

// Bar fields that must be mapped to a CSV column.
var BarFields = []string{"timestamp", "open", "high", "low", "close", "volume"}

// DefaultHeaders maps every bar field to a column of the same name.
func DefaultHeaders() map[string]string {
	h := make(map[string]string, len(BarFields))
	for _, f := range BarFields {
		h[f] = f
	}
	return h
}

// CSVOptions controls how ReadCSV parses a file.
//
// Headers maps a bar field (timestamp, open, high, low, close, volume) to the
// column name used in the file. Missing entries fall back to the field name.
// TimeLayout defaults to DefaultTimeLayout; RFC3339 is always accepted.
type CSVOptions struct {
	Headers    map[string]string
	TimeLayout string
}

// LoadCSV reads and validates all bars in path.
func LoadCSV(path string, opts CSVOptions) ([]Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	bars, err := ReadCSV(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return bars, nil
}

// ReadCSV parses bars from r. The first row must be a header row. Rows that
// fail to parse abort the read; the series is validated before returning.
func ReadCSV(r io.Reader, opts CSVOptions) ([]Bar, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	cols, err := columnIndex(header, opts.Headers)
	if err != nil {
		return nil, err
	}

	layout := opts.TimeLayout
	if layout == "" {
		layout = DefaultTimeLayout
	}

	var bars []Bar
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}

		b, err := parseBarRow(row, cols, layout)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		bars = append(bars, b)
	}

	if err := Validate(bars); err != nil {
		return nil, err
	}
	return bars, nil
}

// WriteCSV writes bars with a header row of the default field names.
func WriteCSV(w io.Writer, bars []Bar) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(BarFields); err != nil {
		return err
	}
	for _, b := range bars {
		err := cw.Write([]string{
			b.Time.UTC().Format(DefaultTimeLayout),
			ff(b.Open),
			ff(b.High),
			ff(b.Low),
			ff(b.Close),
			ff(b.Volume),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func columnIndex(header []string, headers map[string]string) (map[string]int, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[strings.TrimSpace(h)] = i
	}

	cols := make(map[string]int, len(BarFields))
	for _, field := range BarFields {
		name := field
		if headers != nil && headers[field] != "" {
			name = headers[field]
		}
		i, ok := pos[name]
		if !ok {
			return nil, fmt.Errorf("missing column %q for %s", name, field)
		}
		cols[field] = i
	}
	return cols, nil
}

func parseBarRow(row []string, cols map[string]int, layout string) (Bar, error) {
	get := func(field string) (string, error) {
		i := cols[field]
		if i >= len(row) {
			return "", fmt.Errorf("short row: no %s column", field)
		}
		return strings.TrimSpace(row[i]), nil
	}

	ts, err := get("timestamp")
	if err != nil {
		return Bar{}, err
	}
	t, err := parseTime(ts, layout)
	if err != nil {
		return Bar{}, err
	}

	b := Bar{Time: t}
	targets := []struct {
		field string
		dst   *float64
	}{
		{"open", &b.Open},
		{"high", &b.High},
		{"low", &b.Low},
		{"close", &b.Close},
		{"volume", &b.Volume},
	}
	for _, tg := range targets {
		s, err := get(tg.field)
		if err != nil {
			return Bar{}, err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Bar{}, fmt.Errorf("bad %s %q: %w", tg.field, s, err)
		}
		*tg.dst = v
	}
	return b, nil
}

func parseTime(s, layout string) (time.Time, error) {
	t, err := time.ParseInLocation(layout, s, time.UTC)
	if err == nil {
		return t, nil
	}
	if t2, err2 := time.Parse(time.RFC3339Nano, s); err2 == nil {
		return t2.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("bad time %q: %w", s, err)
}

func ff(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
