package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/odbc-perf/runner/analysis"
	"github.com/odbc-perf/runner/config"
	"github.com/odbc-perf/runner/exporter"
	"github.com/odbc-perf/runner/storage"
	"github.com/odbc-perf/runner/types"
	"github.com/odbc-perf/runner/validator"
)

type compareOptions struct {
	dir            string
	testName       string
	baseline       string
	candidate      string
	thresholdsPath string
	fromHistory    bool
	outputJSON     bool
	failOnCritical bool
}

func newCompareCmd(logger *logrus.Logger, root *rootOptions) *cobra.Command {
	opts := compareOptions{}

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare the timings of two driver variants",
		Long: `Compare the newest results of a test for two driver types and report
regressions and improvements per timing metric. With --from-history the
latest runs recorded in the history database are compared instead of files.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.testName == "" {
				return fmt.Errorf("--test is required")
			}

			thresholds, err := loadThresholds(opts.thresholdsPath)
			if err != nil {
				return err
			}

			var baseline, candidate *types.HistoricRun
			if opts.fromHistory {
				baseline, candidate, err = historyRuns(cmd.Context(), logger, root, opts)
			} else {
				baseline, candidate, err = fileRuns(opts)
			}
			if err != nil {
				return err
			}

			report, err := analysis.NewComparator(thresholds, logger).CompareDrivers(baseline, candidate)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.outputJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else {
				printReport(out, report)
			}

			if opts.failOnCritical && report.HasCritical {
				return fmt.Errorf("critical regression detected")
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.dir, "dir", config.DefaultResultsDir, "Results directory")
	flags.StringVar(&opts.testName, "test", "", "Test name")
	flags.StringVar(&opts.baseline, "baseline", "old", "Baseline driver type")
	flags.StringVar(&opts.candidate, "candidate", "new", "Candidate driver type")
	flags.StringVar(&opts.thresholdsPath, "thresholds", "", "YAML file of per-metric thresholds")
	flags.BoolVar(&opts.fromHistory, "from-history", false, "Compare the latest runs in the history database")
	flags.BoolVar(&opts.outputJSON, "json", false, "Print the report as JSON")
	flags.BoolVar(&opts.failOnCritical, "fail-on-critical", false, "Exit non-zero on a critical regression")

	return cmd
}

func fileRuns(opts compareOptions) (*types.HistoricRun, *types.HistoricRun, error) {
	load := func(driverType string) (*types.HistoricRun, error) {
		report, err := validator.VerifyResults(opts.dir, opts.testName, driverType, 1)
		if err != nil {
			return nil, err
		}
		file, err := exporter.ReadResultsCSV(report.Path)
		if err != nil {
			return nil, err
		}
		return analysis.RunFromResults(file, opts.testName, driverType), nil
	}

	baseline, err := load(opts.baseline)
	if err != nil {
		return nil, nil, err
	}
	candidate, err := load(opts.candidate)
	if err != nil {
		return nil, nil, err
	}
	return baseline, candidate, nil
}

func historyRuns(ctx context.Context, logger *logrus.Logger, root *rootOptions, opts compareOptions) (*types.HistoricRun, *types.HistoricRun, error) {
	integrations, err := root.integrations(logger)
	if err != nil {
		return nil, nil, err
	}

	store, err := storage.OpenHistoryStore(ctx, &integrations.History.PostgreSQL, logger)
	if err != nil {
		return nil, nil, err
	}
	defer store.Close()

	baseline, err := store.LatestRun(ctx, opts.testName, opts.baseline)
	if err != nil {
		return nil, nil, err
	}
	candidate, err := store.LatestRun(ctx, opts.testName, opts.candidate)
	if err != nil {
		return nil, nil, err
	}
	return baseline, candidate, nil
}

// loadThresholds reads a YAML map of metric name to threshold
func loadThresholds(path string) (map[string]analysis.RegressionThreshold, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read thresholds file: %w", err)
	}

	var thresholds map[string]analysis.RegressionThreshold
	if err := yaml.Unmarshal(data, &thresholds); err != nil {
		return nil, fmt.Errorf("failed to parse thresholds file: %w", err)
	}
	return thresholds, nil
}

func printReport(w io.Writer, report *types.RegressionReport) {
	fmt.Fprintln(w, report.Summary)
	if len(report.Regressions) == 0 && len(report.Improvements) == 0 {
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tMETRIC\tBASELINE\tCANDIDATE\tCHANGE\tSEVERITY")
	for _, r := range report.Regressions {
		fmt.Fprintf(tw, "regression\t%s\t%.3fs\t%.3fs\t%+.1f%%\t%s\n", r.Metric, r.BaselineValue, r.CurrentValue, r.PercentChange, r.Severity)
	}
	for _, r := range report.Improvements {
		fmt.Fprintf(tw, "improvement\t%s\t%.3fs\t%.3fs\t%+.1f%%\t%s\n", r.Metric, r.BaselineValue, r.CurrentValue, r.PercentChange, r.Severity)
	}
	tw.Flush()
}
