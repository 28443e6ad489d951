package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odbc-perf/runner/exporter"
	"github.com/odbc-perf/runner/types"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(quietLogger())
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--config", ""))
	err := root.Execute()
	return out.String(), err
}

func writeResults(t *testing.T, dir, driverType string, query, fetch time.Duration, n int) {
	t.Helper()
	ts := time.Unix(1700000000, 0)
	results := make([]types.TestResult, n)
	for i := range results {
		results[i] = types.TestResult{Iteration: i + 1, Timestamp: ts, QueryTime: query, FetchTime: fetch}
	}
	require.NoError(t, exporter.WriteQueryCSV(exporter.ResultsFilename(dir, "select_1", driverType, ts), results))
}

func TestVerifyCommand(t *testing.T) {
	dir := t.TempDir()
	writeResults(t, dir, "old", time.Second, time.Second, 3)
	writeResults(t, dir, "new", time.Second, time.Second, 3)

	out, err := execute(t, "verify", "--dir", dir, "--test", "select_1", "--min-iterations", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "3 iterations")

	_, err = execute(t, "verify", "--dir", dir, "--test", "select_1", "--min-iterations", "4")
	assert.Error(t, err)

	_, err = execute(t, "verify", "--dir", dir, "--test", "select_1", "--metadata")
	assert.Error(t, err, "metadata files are missing")
}

func TestCompareCommand(t *testing.T) {
	dir := t.TempDir()
	writeResults(t, dir, "old", time.Second, time.Second, 3)
	writeResults(t, dir, "new", 1500*time.Millisecond, time.Second, 3)

	out, err := execute(t, "compare", "--dir", dir, "--test", "select_1")
	require.NoError(t, err)
	assert.Contains(t, out, "query_median")
	assert.Contains(t, out, "critical")

	_, err = execute(t, "compare", "--dir", dir, "--test", "select_1", "--fail-on-critical")
	assert.Error(t, err)

	out, err = execute(t, "compare", "--dir", dir, "--test", "select_1", "--json")
	require.NoError(t, err)
	var report types.RegressionReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "old", report.Baseline)
	require.Len(t, report.Regressions, 1)
	assert.InDelta(t, 50.0, report.Regressions[0].PercentChange, 1e-6)
}

func TestCompareCommand_Thresholds(t *testing.T) {
	dir := t.TempDir()
	writeResults(t, dir, "old", time.Second, time.Second, 1)
	writeResults(t, dir, "new", 1500*time.Millisecond, time.Second, 1)

	thresholds := filepath.Join(dir, "thresholds.yaml")
	require.NoError(t, os.WriteFile(thresholds, []byte(`
query_median:
  minor_threshold: 60
  major_threshold: 80
  critical_threshold: 100
  direction: increase
`), 0644))

	out, err := execute(t, "compare", "--dir", dir, "--test", "select_1", "--thresholds", thresholds, "--fail-on-critical")
	require.NoError(t, err)
	assert.Contains(t, out, "no significant change")
}

func TestCommandsRequireFlags(t *testing.T) {
	_, err := execute(t, "verify")
	assert.Error(t, err)
	_, err = execute(t, "compare")
	assert.Error(t, err)
	_, err = execute(t, "fixtures")
	assert.Error(t, err)
	_, err = execute(t, "upload", "file.csv")
	assert.Error(t, err)
	_, err = execute(t, "history", "prune", "--older-than", "0s")
	assert.Error(t, err)
}

func TestServeCommand_Flags(t *testing.T) {
	root := newRootCmd(quietLogger())
	serve, _, err := root.Find([]string{"serve"})
	require.NoError(t, err)
	require.Equal(t, "serve", serve.Name())

	assert.Equal(t, ":8081", serve.Flags().Lookup("addr").DefValue)
	assert.Equal(t, "30s", serve.Flags().Lookup("poll").DefValue)

	_, err = execute(t, "serve", "--thresholds", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
