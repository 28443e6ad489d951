package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/odbc-perf/runner/config"
	"github.com/odbc-perf/runner/exporter"
	"github.com/odbc-perf/runner/validator"
)

func newVerifyCmd(logger *logrus.Logger) *cobra.Command {
	var (
		dir           string
		testName      string
		driverTypes   []string
		minIterations int
		checkMeta     bool
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that a run left complete results behind",
		Long: `Check the newest results file of a test for each driver type: the header
must carry the timestamp and query_s columns and the file must hold at least
--min-iterations rows. With --metadata the run metadata file of each driver
type is also validated against its schema.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if testName == "" {
				return fmt.Errorf("--test is required")
			}

			out := cmd.OutOrStdout()
			failed := 0
			for _, driverType := range driverTypes {
				log := logger.WithFields(logrus.Fields{"test_name": testName, "driver_type": driverType})

				report, err := validator.VerifyResults(dir, testName, driverType, minIterations)
				if err != nil {
					log.WithError(err).Error("Results check failed")
					failed++
					continue
				}
				fmt.Fprintf(out, "OK  %s: %d iterations\n", report.Path, report.Iterations)

				if !checkMeta {
					continue
				}
				path := exporter.MetadataFilename(dir, driverType)
				violations, err := validator.ValidateMetadata(path)
				if err != nil {
					log.WithError(err).Error("Metadata check failed")
					failed++
					continue
				}
				if len(violations) > 0 {
					for _, v := range violations {
						log.WithField("path", path).Error(v)
					}
					failed++
					continue
				}
				fmt.Fprintf(out, "OK  %s\n", path)
			}

			if failed > 0 {
				return fmt.Errorf("%d check(s) failed", failed)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&dir, "dir", config.DefaultResultsDir, "Results directory")
	flags.StringVar(&testName, "test", "", "Test name")
	flags.StringSliceVar(&driverTypes, "driver-type", []string{"old", "new"}, "Driver types to check")
	flags.IntVar(&minIterations, "min-iterations", 1, "Minimum number of result rows")
	flags.BoolVar(&checkMeta, "metadata", false, "Also validate the run metadata files")

	return cmd
}
