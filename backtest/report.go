package backtest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/backtester/config"
	"github.com/rustyeddy/backtester/sim"
)

// Labels decorates the printed summary.
type Labels struct {
	RunID     string
	Pair      string
	Timeframe string
	Quote     string // currency of cash amounts
	Dataset   string
	BaseFunds float64 // denominator of the percentages
	OrgFile   string
	Equity    string
}

// LabelsFor takes the labels from a run configuration.
func LabelsFor(cfg *config.Config) Labels {
	return Labels{
		Pair:      cfg.Market.Pair,
		Timeframe: cfg.Market.Timeframe,
		Quote:     cfg.Market.QuoteCurrency,
		Dataset:   cfg.Data.Path,
		BaseFunds: cfg.Account.BaseFunds,
		OrgFile:   cfg.Report.OrgFile,
		Equity:    cfg.Report.EquityFile,
	}
}

// money rounds a cash amount to cents.
func money(x float64) string {
	return decimal.NewFromFloat(x).StringFixed(2)
}

// pct renders x as a percentage of base, 0 when base is 0.
func pct(x, base float64) string {
	if base == 0 {
		return "0.00"
	}
	return decimal.NewFromFloat(x).Div(decimal.NewFromFloat(base)).Shift(2).StringFixed(2)
}

func withUnit(s, unit string) string {
	if unit == "" {
		return s
	}
	return s + " " + unit
}

// PrintSummary writes the human readable result of a run.
func PrintSummary(w io.Writer, r Recap, l Labels) {
	m := r.Metrics
	base := l.BaseFunds
	if base == 0 {
		base = r.StartCash
	}

	fmt.Fprintln(w, "==================================================")
	fmt.Fprintf(w, " Backtest results on %s\n", l.Pair)
	fmt.Fprintln(w, "==================================================")

	if l.RunID != "" {
		fmt.Fprintf(w, "Run ID:           %s\n", l.RunID)
	}
	fmt.Fprintf(w, "Strategy:         %s\n", r.Strategy)
	if l.Timeframe != "" {
		fmt.Fprintf(w, "Timeframe:        %s\n", l.Timeframe)
	}
	if l.Dataset != "" {
		fmt.Fprintf(w, "Dataset:          %s\n", l.Dataset)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Period")
	fmt.Fprintln(w, "--------------------------------------------------")
	if r.Bars > 0 {
		fmt.Fprintf(w, "Start:            %s\n", r.Start.Format(time.RFC3339))
		fmt.Fprintf(w, "End:              %s\n", r.End.Format(time.RFC3339))
	}
	fmt.Fprintf(w, "Bars:             %d\n", r.Bars)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Total trades:     %d\n", m.TotalTrades)
	fmt.Fprintf(w, "Wins:             %d\n", m.Wins)
	fmt.Fprintf(w, "Losses:           %d\n", m.Losses)
	fmt.Fprintf(w, "Win rate:         %s%%\n", decimal.NewFromFloat(m.WinRate).Shift(2).StringFixed(2))
	fmt.Fprintf(w, "Average profit:   %s\n", withUnit(money(m.AvgProfit), l.Quote))
	fmt.Fprintf(w, "Average loss:     %s\n", withUnit(money(m.AvgLoss), l.Quote))

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Account Performance")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start balance:    %s\n", withUnit(money(r.StartCash), l.Quote))
	fmt.Fprintf(w, "End balance:      %s\n", withUnit(money(r.EndCash), l.Quote))
	fmt.Fprintf(w, "Total profit:     %s (%s%%)\n", withUnit(money(m.TotalProfit), l.Quote), pct(m.TotalProfit, base))
	fmt.Fprintf(w, "Total commission: %s\n", withUnit(money(m.TotalCommission), l.Quote))
	fmt.Fprintf(w, "Max drawdown:     %s (%s%%)\n", withUnit(money(m.MaxDrawdown), l.Quote), pct(m.MaxDrawdown, base))
	fmt.Fprintf(w, "Max DD duration:  %d trades\n", m.MaxDrawdownDuration)

	if l.Equity != "" || l.OrgFile != "" {
		fmt.Fprintln(w)
	}
	if l.Equity != "" {
		fmt.Fprintf(w, "Equity Curve:     %s\n", l.Equity)
	}
	if l.OrgFile != "" {
		fmt.Fprintf(w, "Org Report:       %s\n", l.OrgFile)
	}

	fmt.Fprintln(w)
}

// WriteEquityCSV writes the equity curve as time,equity rows.
func WriteEquityCSV(w io.Writer, points []sim.EquityPoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time", "equity"}); err != nil {
		return err
	}
	for _, p := range points {
		if err := cw.Write([]string{
			p.Time.Format(time.RFC3339),
			strconv.FormatFloat(p.Equity, 'f', 6, 64),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveEquityCSV writes the equity curve into path.
func SaveEquityCSV(path string, points []sim.EquityPoint) error {
	fh, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create equity file: %w", err)
	}
	if err := WriteEquityCSV(fh, points); err != nil {
		fh.Close()
		return fmt.Errorf("write equity file: %w", err)
	}
	return fh.Close()
}
