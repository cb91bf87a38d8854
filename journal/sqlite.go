package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

var (
	_ Journal = (*SQLite)(nil)
	_ Reader  = (*SQLite)(nil)
)

// SQLite journals runs into a single database file.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordRun(r RunRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO runs
		(run_id, created, strategy, pair, timeframe, dataset, start_time, end_time, bars,
		 start_balance, end_balance, trades, wins, losses, net_profit, commission,
		 win_rate, avg_profit, avg_loss, max_drawdown, max_drawdown_duration, config)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Created, r.Strategy, r.Pair, r.Timeframe, r.Dataset, r.Start, r.End, r.Bars,
		r.StartBalance, r.EndBalance, r.Trades, r.Wins, r.Losses, r.NetProfit, r.Commission,
		r.WinRate, r.AvgProfit, r.AvgLoss, r.MaxDrawdown, r.MaxDrawdownDuration, r.Config,
	)
	return err
}

func (j *SQLite) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, run_id, direction, entry_time, exit_time, entry_price, exit_price,
		 allocated, commission, net_profit, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TradeID, t.RunID, t.Direction, t.EntryTime, t.ExitTime, t.EntryPrice, t.ExitPrice,
		t.Allocated, t.Commission, t.NetProfit, t.Reason,
	)
	return err
}

func (j *SQLite) RecordEquity(e EquitySnapshot) error {
	_, err := j.db.Exec(`
		INSERT INTO equity (run_id, time, equity)
		VALUES (?, ?, ?)`,
		e.RunID, e.Time, e.Equity,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
