package main

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/odbc-perf/runner/analysis"
	"github.com/odbc-perf/runner/api"
)

func newServeCmd(logger *logrus.Logger, root *rootOptions) *cobra.Command {
	var (
		addr           string
		poll           time.Duration
		thresholdsPath string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the run history over HTTP and announce new runs on a websocket",
		RunE: func(cmd *cobra.Command, _ []string) error {
			thresholds, err := loadThresholds(thresholdsPath)
			if err != nil {
				return err
			}

			store, err := openHistory(cmd, logger, root)
			if err != nil {
				return err
			}
			defer store.Close()

			server := api.NewServer(addr, store, analysis.NewComparator(thresholds, logger), poll, logger)
			return server.Run(cmd.Context())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&addr, "addr", ":8081", "Listen address")
	flags.DurationVar(&poll, "poll", 30*time.Second, "How often to check for new runs; 0 disables announcements")
	flags.StringVar(&thresholdsPath, "thresholds", "", "YAML file of per-metric regression thresholds")

	return cmd
}
