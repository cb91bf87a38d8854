package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

var _ Journal = (*CSVJournal)(nil)

// CSVJournal writes trades and equity samples to two CSV files. Run summaries
// are not kept; use a database journal for those.
type CSVJournal struct {
	trades *csv.Writer
	equity *csv.Writer
	tf, ef *os.File
}

var (
	tradeHeader  = []string{"run_id", "trade_id", "direction", "entry_time", "exit_time", "entry_price", "exit_price", "allocated", "commission", "net_profit", "reason"}
	equityHeader = []string{"run_id", "time", "equity"}
)

func NewCSV(tradesPath, equityPath string) (*CSVJournal, error) {
	tf, err := os.Create(tradesPath)
	if err != nil {
		return nil, err
	}
	ef, err := os.Create(equityPath)
	if err != nil {
		tf.Close()
		return nil, err
	}

	j := &CSVJournal{trades: csv.NewWriter(tf), equity: csv.NewWriter(ef), tf: tf, ef: ef}
	if err := j.write(j.trades, tradeHeader); err != nil {
		j.Close()
		return nil, err
	}
	if err := j.write(j.equity, equityHeader); err != nil {
		j.Close()
		return nil, err
	}
	return j, nil
}

func (j *CSVJournal) RecordRun(RunRecord) error { return nil }

func (j *CSVJournal) RecordTrade(t TradeRecord) error {
	return j.write(j.trades, []string{
		t.RunID,
		t.TradeID,
		t.Direction,
		t.EntryTime.Format(time.RFC3339),
		t.ExitTime.Format(time.RFC3339),
		f(t.EntryPrice),
		f(t.ExitPrice),
		f(t.Allocated),
		f(t.Commission),
		f(t.NetProfit),
		t.Reason,
	})
}

func (j *CSVJournal) RecordEquity(e EquitySnapshot) error {
	return j.write(j.equity, []string{
		e.RunID,
		e.Time.Format(time.RFC3339),
		f(e.Equity),
	})
}

func (j *CSVJournal) write(w *csv.Writer, rec []string) error {
	if err := w.Write(rec); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func (j *CSVJournal) Close() error {
	j.trades.Flush()
	j.equity.Flush()
	err := j.trades.Error()
	if err == nil {
		err = j.equity.Error()
	}

	if cerr := j.tf.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if cerr := j.ef.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
