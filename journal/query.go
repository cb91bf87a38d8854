package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const runColumns = `run_id, created, strategy, pair, timeframe, dataset, start_time, end_time, bars,
	start_balance, end_balance, trades, wins, losses, net_profit, commission,
	win_rate, avg_profit, avg_loss, max_drawdown, max_drawdown_duration, config`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (RunRecord, error) {
	var r RunRecord
	err := s.Scan(
		&r.RunID, &r.Created, &r.Strategy, &r.Pair, &r.Timeframe, &r.Dataset,
		&r.Start, &r.End, &r.Bars,
		&r.StartBalance, &r.EndBalance, &r.Trades, &r.Wins, &r.Losses,
		&r.NetProfit, &r.Commission, &r.WinRate, &r.AvgProfit, &r.AvgLoss,
		&r.MaxDrawdown, &r.MaxDrawdownDuration, &r.Config,
	)
	return r, err
}

// ListRuns returns all runs, newest first.
func (j *SQLite) ListRuns(ctx context.Context) ([]RunRecord, error) {
	rows, err := j.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY created DESC, run_id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetRun returns a single run by ID.
func (j *SQLite) GetRun(ctx context.Context, runID string) (RunRecord, error) {
	row := j.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RunRecord{}, fmt.Errorf("run %q not found", runID)
		}
		return RunRecord{}, err
	}
	return r, nil
}

// ListTradesByRunID returns the trades of a run ordered by exit time.
func (j *SQLite) ListTradesByRunID(ctx context.Context, runID string) ([]TradeRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, trade_id, direction, entry_time, exit_time, entry_price, exit_price,
			allocated, commission, net_profit, reason
		FROM trades
		WHERE run_id = ?
		ORDER BY exit_time ASC, trade_id ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var t TradeRecord
		if err := rows.Scan(
			&t.RunID,
			&t.TradeID,
			&t.Direction,
			&t.EntryTime,
			&t.ExitTime,
			&t.EntryPrice,
			&t.ExitPrice,
			&t.Allocated,
			&t.Commission,
			&t.NetProfit,
			&t.Reason,
		); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListEquityByRunID returns the equity curve of a run in time order.
func (j *SQLite) ListEquityByRunID(ctx context.Context, runID string) ([]EquitySnapshot, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, time, equity
		FROM equity
		WHERE run_id = ?
		ORDER BY time ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquitySnapshot
	for rows.Next() {
		var e EquitySnapshot
		if err := rows.Scan(&e.RunID, &e.Time, &e.Equity); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
