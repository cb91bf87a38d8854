package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/backtester/config"
	"github.com/rustyeddy/backtester/market"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := Execute(context.Background())
	return out.String(), err
}

// resetFlags restores the command globals after the test. Cobra keeps
// parsed flag values in them between Execute calls.
func resetFlags(t *testing.T) {
	t.Helper()

	t.Cleanup(func() {
		runConfigPath = ""
		runEnvFile = ".env"
		runDataPath = ""
		runLogLevel = ""
		runOrgFile = ""
		runEquityFile = ""
		runWindow = 0
		runResample = ""
		journalDBPath = "./backtest.sqlite"
		journalDSN = ""
	})
}

func writeBars(t *testing.T, path string, closes ...float64) {
	t.Helper()

	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]market.Bar, len(closes))
	for i, c := range closes {
		bars[i] = market.Bar{Time: t0.Add(time.Duration(i) * time.Hour), Open: c, High: c, Low: c, Close: c, Volume: 1}
	}
	require.NoError(t, market.Save(path, "csv", bars))
}

func TestRunAndJournal(t *testing.T) {
	resetFlags(t)
	dir := t.TempDir()
	dataPath := filepath.Join(dir, "bars.csv")
	dbPath := filepath.Join(dir, "runs.sqlite")
	cfgPath := filepath.Join(dir, "backtest.yaml")
	orgPath := filepath.Join(dir, "report.org")
	equityPath := filepath.Join(dir, "equity.csv")

	writeBars(t, dataPath, 10, 10, 10, 12, 14, 9, 8, 13, 15.6)

	cfg := config.Default()
	cfg.Data.Path = dataPath
	cfg.Strategy.SMAWindow = 3
	cfg.Log.Level = "none"
	cfg.Journal.Type = "sqlite"
	cfg.Journal.DBPath = dbPath
	require.NoError(t, cfg.SaveToFile(cfgPath))

	out, err := execute(t, "config", "validate", "-f", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration valid")

	out, err = execute(t, "run", "-f", cfgPath, "--env", filepath.Join(dir, "missing.env"),
		"--org", orgPath, "--equity", equityPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Backtest results on BTCUSDT")
	assert.Contains(t, out, "Run ID:")
	assert.Contains(t, out, "Total trades:     2")
	assert.FileExists(t, orgPath)
	assert.FileExists(t, equityPath)

	out, err = execute(t, "journal", "list", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "SMA_CROSS(3)")
	assert.Contains(t, out, "BTCUSDT")

	_, err = execute(t, "journal", "show", "NOPE", "--db", dbPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestRunRejectsBadConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "backtest.yaml")

	cfg := config.Default()
	cfg.Data.Path = filepath.Join(dir, "missing.csv")
	require.NoError(t, cfg.SaveToFile(cfgPath))

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"log level", []string{"--log-level", "loud"}, "log.level"},
		{"resample timeframe", []string{"--resample", "7q"}, "market.timeframe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags(t)
			args := append([]string{"run", "-f", cfgPath, "--env", filepath.Join(dir, "missing.env")}, tt.args...)
			_, err := execute(t, args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRunReportFlagsDoNotLeak(t *testing.T) {
	dir := t.TempDir()
	dataPath := filepath.Join(dir, "bars.csv")
	cfgPath := filepath.Join(dir, "backtest.yaml")
	writeBars(t, dataPath, 10, 11, 12, 11, 10)

	cfg := config.Default()
	cfg.Data.Path = dataPath
	cfg.Strategy.SMAWindow = 2
	cfg.Log.Level = "none"
	require.NoError(t, cfg.SaveToFile(cfgPath))

	t.Run("with reports", func(t *testing.T) {
		resetFlags(t)
		out, err := execute(t, "run", "-f", cfgPath, "--env", filepath.Join(dir, "missing.env"),
			"--org", filepath.Join(t.TempDir(), "report.org"),
			"--equity", filepath.Join(t.TempDir(), "equity.csv"))
		require.NoError(t, err)
		assert.Contains(t, out, "Org Report:")
		assert.Contains(t, out, "Equity Curve:")
	})

	assert.Empty(t, runOrgFile)
	assert.Empty(t, runEquityFile)

	resetFlags(t)
	out, err := execute(t, "run", "-f", cfgPath, "--env", filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	assert.NotContains(t, out, "Org Report:")
	assert.NotContains(t, out, "Equity Curve:")
}

func TestParseDate(t *testing.T) {
	d, err := parseDate("2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), d)

	d, err = parseDate("2024-03-01T12:00:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), d)

	_, err = parseDate("March 1")
	assert.Error(t, err)
}

func TestInspect(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bars.csv")
	t0 := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	bars := []market.Bar{
		{Time: t0, Open: 1, High: 1, Low: 1, Close: 1},
		{Time: t0.Add(time.Hour), Open: 1, High: 1, Low: 1, Close: 1},
		{Time: t0.Add(20 * time.Hour), Open: 1, High: 1, Low: 1, Close: 1},
	}
	require.NoError(t, market.Save(path, "csv", bars))

	out, err := execute(t, "inspect", path, "--timeframe", "1h", "--list")
	require.NoError(t, err)
	assert.Contains(t, out, "Missing Bars: 18")
	assert.Contains(t, out, "Suspicious Gaps: 1")
	assert.Contains(t, out, "2024-01-03 02:00    18 bars  suspicious")
}
