package journal

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"
	"time"
)

// RunReport is the data behind the org-mode run report.
type RunReport struct {
	Run       RunRecord
	Trades    []TradeRecord
	EquityCSV string
	Notes     []string
}

// ReturnPct is the net profit as a percentage of the starting balance.
func (r RunReport) ReturnPct() float64 {
	if r.Run.StartBalance == 0 {
		return 0
	}
	return r.Run.NetProfit / r.Run.StartBalance * 100
}

// DrawdownPct is the max drawdown as a percentage of the starting balance.
func (r RunReport) DrawdownPct() float64 {
	if r.Run.StartBalance == 0 {
		return 0
	}
	return r.Run.MaxDrawdown / r.Run.StartBalance * 100
}

var orgFuncs = template.FuncMap{
	"mul100": func(x float64) float64 { return x * 100.0 },
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
	"trade": FormatTradeOrg,
}

var runOrgTemplate = template.Must(template.New("run").Funcs(orgFuncs).Parse(RunOrgTemplate))

// WriteOrg renders the report to w.
func (r RunReport) WriteOrg(w io.Writer) error {
	return runOrgTemplate.Execute(w, r)
}

// WriteOrgFile renders the report into path.
func (r RunReport) WriteOrgFile(path string) error {
	buf := new(bytes.Buffer)
	if err := r.WriteOrg(buf); err != nil {
		return fmt.Errorf("render org report: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

const RunOrgTemplate = `* BACKTEST: {{.Run.Strategy}} {{.Run.Pair}} {{if .Run.Timeframe}}{{.Run.Timeframe}}{{else}}(timeframe?){{end}}
:PROPERTIES:
:RUN_ID:      {{if .Run.RunID}}{{.Run.RunID}}{{else}}(run-id?){{end}}
:STRATEGY:    {{.Run.Strategy}}
:PAIR:        {{.Run.Pair}}
:TIMEFRAME:   {{if .Run.Timeframe}}{{.Run.Timeframe}}{{else}}(timeframe?){{end}}
:DATASET:     {{if .Run.Dataset}}{{.Run.Dataset}}{{else}}(dataset?){{end}}
:START_DATE:  {{.Run.Start.Format "2006-01-02"}}
:END_DATE:    {{.Run.End.Format "2006-01-02"}}
:BARS:        {{.Run.Bars}}
:START_BAL:   {{printf "%.2f" .Run.StartBalance}}
:END_BAL:     {{printf "%.2f" .Run.EndBalance}}
:NET_PROFIT:  {{printf "%.2f" .Run.NetProfit}}
:RETURN_PCT:  {{printf "%.2f" .ReturnPct}}
:MAX_DD:      {{printf "%.2f" .Run.MaxDrawdown}}
:MAX_DD_TRADES: {{.Run.MaxDrawdownDuration}}
:TRADES:      {{.Run.Trades}}
:WINS:        {{.Run.Wins}}
:LOSSES:      {{.Run.Losses}}
:WIN_RATE:    {{printf "%.2f" (mul100 .Run.WinRate)}}
:CREATED:     [{{(orTime .Run.Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Performance Summary
- Net Profit:       *{{printf "%.2f" .Run.NetProfit}}*
- Return:           *{{printf "%.2f" .ReturnPct}}%*
- Commission:       *{{printf "%.2f" .Run.Commission}}*
- Max Drawdown:     *{{printf "%.2f" .Run.MaxDrawdown}} ({{printf "%.2f" .DrawdownPct}}%) over {{.Run.MaxDrawdownDuration}} trades*
- Win Rate:         *{{printf "%.2f" (mul100 .Run.WinRate)}}%*
- Avg Profit:       *{{printf "%.2f" .Run.AvgProfit}}*
- Avg Loss:         *{{printf "%.2f" .Run.AvgLoss}}*

** Equity Curve
{{- if .EquityCSV }}
[[file:{{.EquityCSV}}]]
{{- else }}
# (optional) export the equity curve with --equity
{{- end }}

** Trade Distribution
| Outcome | Count |
|---------+-------|
| Wins    | {{.Run.Wins}} |
| Losses  | {{.Run.Losses}} |
| Total   | {{.Run.Trades}} |
{{- if .Run.Config }}

** Configuration
#+begin_src yaml
{{.Run.Config}}#+end_src
{{- end }}
{{- if .Trades }}

** Trades
{{- range .Trades }}

{{ trade . }}
{{- end }}
{{- end }}
{{- if .Notes }}

** Observations
{{- range .Notes }}
- {{.}}
{{- end }}
{{- end }}
`

// FormatTradeOrg renders one trade as an org subheading.
func FormatTradeOrg(t TradeRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*** Trade: %s (%s)\n", t.Direction, shortID(t.TradeID))
	b.WriteString(":PROPERTIES:\n")
	fmt.Fprintf(&b, ":TRADE_ID: %s\n", t.TradeID)
	fmt.Fprintf(&b, ":RUN_ID: %s\n", t.RunID)
	fmt.Fprintf(&b, ":DIRECTION: %s\n", t.Direction)
	fmt.Fprintf(&b, ":ENTRY_TIME: %s\n", t.EntryTime.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, ":EXIT_TIME: %s\n", t.ExitTime.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, ":ENTRY_PRICE: %.5f\n", t.EntryPrice)
	fmt.Fprintf(&b, ":EXIT_PRICE: %.5f\n", t.ExitPrice)
	fmt.Fprintf(&b, ":ALLOCATED: %.2f\n", t.Allocated)
	fmt.Fprintf(&b, ":COMMISSION: %.2f\n", t.Commission)
	fmt.Fprintf(&b, ":NET_PROFIT: %.2f\n", t.NetProfit)
	fmt.Fprintf(&b, ":REASON: %s\n", t.Reason)
	b.WriteString(":END:")
	return b.String()
}

// FormatTradesOrg renders multiple trades separated by blank lines.
func FormatTradesOrg(trades []TradeRecord) string {
	var b strings.Builder
	for i, t := range trades {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(FormatTradeOrg(t))
	}
	return b.String()
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[len(id)-8:]
}
