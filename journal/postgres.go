package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	_ Journal = (*Postgres)(nil)
	_ Reader  = (*Postgres)(nil)
)

type runModel struct {
	RunID               string    `gorm:"primaryKey"`
	Created             time.Time `gorm:"index"`
	Strategy            string
	Pair                string
	Timeframe           string
	Dataset             string
	StartTime           time.Time
	EndTime             time.Time
	Bars                int
	StartBalance        float64
	EndBalance          float64
	Trades              int
	Wins                int
	Losses              int
	NetProfit           float64
	Commission          float64
	WinRate             float64
	AvgProfit           float64
	AvgLoss             float64
	MaxDrawdown         float64
	MaxDrawdownDuration int
	Config              string
}

func (runModel) TableName() string { return "runs" }

type tradeModel struct {
	TradeID    string `gorm:"primaryKey"`
	RunID      string `gorm:"index:idx_trades_run"`
	Direction  string
	EntryTime  time.Time
	ExitTime   time.Time `gorm:"index:idx_trades_run"`
	EntryPrice float64
	ExitPrice  float64
	Allocated  float64
	Commission float64
	NetProfit  float64
	Reason     string
}

func (tradeModel) TableName() string { return "trades" }

type equityModel struct {
	ID     uint      `gorm:"primaryKey"`
	RunID  string    `gorm:"index:idx_equity_run"`
	Time   time.Time `gorm:"index:idx_equity_run"`
	Equity float64
}

func (equityModel) TableName() string { return "equity" }

// Postgres journals runs into a PostgreSQL database through gorm.
type Postgres struct {
	db *gorm.DB
}

// NewPostgres connects with dsn and migrates the journal tables.
func NewPostgres(dsn string) (*Postgres, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return NewGorm(db)
}

// NewGorm uses an already opened gorm connection.
func NewGorm(db *gorm.DB) (*Postgres, error) {
	if err := db.AutoMigrate(&runModel{}, &tradeModel{}, &equityModel{}); err != nil {
		return nil, fmt.Errorf("migrate journal tables: %w", err)
	}
	return &Postgres{db: db}, nil
}

func (j *Postgres) RecordRun(r RunRecord) error {
	return j.db.Create(&runModel{
		RunID:               r.RunID,
		Created:             r.Created,
		Strategy:            r.Strategy,
		Pair:                r.Pair,
		Timeframe:           r.Timeframe,
		Dataset:             r.Dataset,
		StartTime:           r.Start,
		EndTime:             r.End,
		Bars:                r.Bars,
		StartBalance:        r.StartBalance,
		EndBalance:          r.EndBalance,
		Trades:              r.Trades,
		Wins:                r.Wins,
		Losses:              r.Losses,
		NetProfit:           r.NetProfit,
		Commission:          r.Commission,
		WinRate:             r.WinRate,
		AvgProfit:           r.AvgProfit,
		AvgLoss:             r.AvgLoss,
		MaxDrawdown:         r.MaxDrawdown,
		MaxDrawdownDuration: r.MaxDrawdownDuration,
		Config:              r.Config,
	}).Error
}

func (j *Postgres) RecordTrade(t TradeRecord) error {
	return j.db.Create(&tradeModel{
		TradeID:    t.TradeID,
		RunID:      t.RunID,
		Direction:  t.Direction,
		EntryTime:  t.EntryTime,
		ExitTime:   t.ExitTime,
		EntryPrice: t.EntryPrice,
		ExitPrice:  t.ExitPrice,
		Allocated:  t.Allocated,
		Commission: t.Commission,
		NetProfit:  t.NetProfit,
		Reason:     t.Reason,
	}).Error
}

func (j *Postgres) RecordEquity(e EquitySnapshot) error {
	return j.db.Create(&equityModel{RunID: e.RunID, Time: e.Time, Equity: e.Equity}).Error
}

func (j *Postgres) ListRuns(ctx context.Context) ([]RunRecord, error) {
	var rows []runModel
	if err := j.db.WithContext(ctx).Order("created DESC, run_id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]RunRecord, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.record())
	}
	return out, nil
}

func (j *Postgres) GetRun(ctx context.Context, runID string) (RunRecord, error) {
	var m runModel
	err := j.db.WithContext(ctx).Where("run_id = ?", runID).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RunRecord{}, fmt.Errorf("run %q not found", runID)
		}
		return RunRecord{}, err
	}
	return m.record(), nil
}

func (j *Postgres) ListTradesByRunID(ctx context.Context, runID string) ([]TradeRecord, error) {
	var rows []tradeModel
	err := j.db.WithContext(ctx).Where("run_id = ?", runID).Order("exit_time ASC, trade_id ASC").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]TradeRecord, 0, len(rows))
	for _, m := range rows {
		out = append(out, TradeRecord{
			RunID:      m.RunID,
			TradeID:    m.TradeID,
			Direction:  m.Direction,
			EntryTime:  m.EntryTime,
			ExitTime:   m.ExitTime,
			EntryPrice: m.EntryPrice,
			ExitPrice:  m.ExitPrice,
			Allocated:  m.Allocated,
			Commission: m.Commission,
			NetProfit:  m.NetProfit,
			Reason:     m.Reason,
		})
	}
	return out, nil
}

func (j *Postgres) ListEquityByRunID(ctx context.Context, runID string) ([]EquitySnapshot, error) {
	var rows []equityModel
	err := j.db.WithContext(ctx).Where("run_id = ?", runID).Order("time ASC, id ASC").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]EquitySnapshot, 0, len(rows))
	for _, m := range rows {
		out = append(out, EquitySnapshot{RunID: m.RunID, Time: m.Time, Equity: m.Equity})
	}
	return out, nil
}

func (j *Postgres) Close() error {
	sqlDB, err := j.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (m runModel) record() RunRecord {
	return RunRecord{
		RunID:               m.RunID,
		Created:             m.Created,
		Strategy:            m.Strategy,
		Pair:                m.Pair,
		Timeframe:           m.Timeframe,
		Dataset:             m.Dataset,
		Start:               m.StartTime,
		End:                 m.EndTime,
		Bars:                m.Bars,
		StartBalance:        m.StartBalance,
		EndBalance:          m.EndBalance,
		Trades:              m.Trades,
		Wins:                m.Wins,
		Losses:              m.Losses,
		NetProfit:           m.NetProfit,
		Commission:          m.Commission,
		WinRate:             m.WinRate,
		AvgProfit:           m.AvgProfit,
		AvgLoss:             m.AvgLoss,
		MaxDrawdown:         m.MaxDrawdown,
		MaxDrawdownDuration: m.MaxDrawdownDuration,
		Config:              m.Config,
	}
}
