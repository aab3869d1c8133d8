package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const (
	forecastCSV = "timestamp,group_id,value\n" +
		"2024-01-01 00:00:00,North,110\n" +
		"2024-01-01 01:00:00,South,50\n"
	actualCSV = "Timestamp,North,South\n" +
		"2024-01-01 00:00:00,100,40\n" +
		"2024-01-01 01:00:00,90,40\n"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func runCmd(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Summary(t *testing.T) {
	dir := t.TempDir()
	forecast := writeFile(t, dir, "forecast.csv", forecastCSV)
	actual := writeFile(t, dir, "actual.csv", actualCSV)
	summary := filepath.Join(dir, "reports", "summary.txt")

	code, stdout, stderr := runCmd(t, "-forecast", forecast, "-actual", actual, "-summary", summary)
	require.Equal(t, 0, code, stderr)

	// North: |110-100|/100 = 10%, South: |50-40|/40 = 25%
	assert.Contains(t, stdout, "Overall MAPE: 17.50%")
	assert.Contains(t, stdout, "Total Records: 2")
	assert.Contains(t, stdout, "Unmatched Forecast Records: 0")
	assert.Contains(t, stdout, "Unmatched Actual Records: 2")
	assert.Contains(t, stdout, "  North: 10.00%")
	assert.Contains(t, stdout, "  South: 25.00%")

	written, err := os.ReadFile(summary)
	require.NoError(t, err)
	assert.Contains(t, string(written), "Overall MAPE: 17.50%")
}

func TestRun_Export(t *testing.T) {
	tests := []struct {
		name   string
		out    string
		format string
	}{
		{"csv by extension", "out/report.csv", ""},
		{"xlsx by extension", "out/report.xlsx", ""},
		{"explicit format", "out/report.dat", "xlsx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			forecast := writeFile(t, dir, "forecast.csv", forecastCSV)
			actual := writeFile(t, dir, "actual.csv", actualCSV)
			out := filepath.Join(dir, tt.out)

			args := []string{"-forecast", forecast, "-actual", actual, "-out", out}
			if tt.format != "" {
				args = append(args, "-format", tt.format)
			}
			code, stdout, stderr := runCmd(t, args...)
			require.Equal(t, 0, code, stderr)
			assert.Contains(t, stdout, "Exported 2 records to "+out)

			if filepath.Ext(tt.out) == ".csv" {
				data, err := os.ReadFile(out)
				require.NoError(t, err)
				assert.Contains(t, string(data), "Timestamp,GroupId,Forecast,Actual")
				return
			}
			f, err := excelize.OpenFile(out)
			require.NoError(t, err)
			defer f.Close()
			assert.Contains(t, f.GetSheetList(), "Records")
		})
	}
}

func TestRun_NoMatches(t *testing.T) {
	dir := t.TempDir()
	forecast := writeFile(t, dir, "forecast.csv", "timestamp,group_id,value\n2024-01-01 00:00:00,East,10\n")
	actual := writeFile(t, dir, "actual.csv", actualCSV)

	code, stdout, stderr := runCmd(t, "-forecast", forecast, "-actual", actual)
	assert.Equal(t, 0, code)
	assert.Contains(t, stderr, "No matching records found")
	assert.Contains(t, stdout, "Total Records: 0")
}

func TestRun_Failures(t *testing.T) {
	tests := []struct {
		name       string
		forecast   string
		actual     string
		extra      []string
		wantCode   int
		wantStderr string
	}{
		{
			name:       "empty forecast",
			forecast:   "",
			actual:     actualCSV,
			wantCode:   1,
			wantStderr: "appears to be empty",
		},
		{
			name:       "no valid actual records",
			forecast:   forecastCSV,
			actual:     "timestamp,group_id,value\nbad,North,x\n",
			wantCode:   1,
			wantStderr: "0 were successfully parsed",
		},
		{
			name:       "unknown format",
			forecast:   forecastCSV,
			actual:     actualCSV,
			extra:      []string{"-format", "pdf"},
			wantCode:   1,
			wantStderr: `unsupported export format "pdf"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			args := []string{
				"-forecast", writeFile(t, dir, "forecast.csv", tt.forecast),
				"-actual", writeFile(t, dir, "actual.csv", tt.actual),
			}
			code, _, stderr := runCmd(t, append(args, tt.extra...)...)
			assert.Equal(t, tt.wantCode, code)
			assert.Contains(t, stderr, tt.wantStderr)
		})
	}
}

func TestRun_MissingInput(t *testing.T) {
	dir := t.TempDir()
	actual := writeFile(t, dir, "actual.csv", actualCSV)

	code, _, stderr := runCmd(t, "-forecast", filepath.Join(dir, "missing.csv"), "-actual", actual)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "missing.csv")
}

func TestRun_Usage(t *testing.T) {
	code, _, stderr := runCmd(t, "-forecast", "only.csv")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "Both -forecast and -actual are required")
}

func TestRun_Version(t *testing.T) {
	code, stdout, _ := runCmd(t, "-version")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "Enerlytics v")
}
