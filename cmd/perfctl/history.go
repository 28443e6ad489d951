package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/odbc-perf/runner/storage"
	"github.com/odbc-perf/runner/types"
)

func newHistoryCmd(logger *logrus.Logger, root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse and prune the run history",
	}
	cmd.AddCommand(newHistoryListCmd(logger, root), newHistoryPruneCmd(logger, root))
	return cmd
}

func openHistory(cmd *cobra.Command, logger *logrus.Logger, root *rootOptions) (*storage.HistoryStore, error) {
	integrations, err := root.integrations(logger)
	if err != nil {
		return nil, err
	}
	return storage.OpenHistoryStore(cmd.Context(), &integrations.History.PostgreSQL, logger)
}

func newHistoryListCmd(logger *logrus.Logger, root *rootOptions) *cobra.Command {
	var (
		filter types.RunFilter
		since  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openHistory(cmd, logger, root)
			if err != nil {
				return err
			}
			defer store.Close()

			if since > 0 {
				filter.Since = time.Now().Add(-since)
			}
			runs, err := store.ListRuns(cmd.Context(), filter)
			if err != nil {
				return err
			}
			printRuns(cmd.OutOrStdout(), runs)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&filter.TestName, "test", "", "Only runs of this test")
	flags.StringVar(&filter.DriverType, "driver-type", "", "Only runs of this driver type")
	flags.DurationVar(&since, "since", 0, "Only runs newer than this (e.g. 168h)")
	flags.IntVar(&filter.Limit, "limit", 20, "Maximum number of runs")

	return cmd
}

func newHistoryPruneCmd(logger *logrus.Logger, root *rootOptions) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete runs older than --older-than",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive")
			}

			store, err := openHistory(cmd, logger, root)
			if err != nil {
				return err
			}
			defer store.Close()

			deleted, err := store.DeleteOldRuns(cmd.Context(), time.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d run(s)\n", deleted)
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 90*24*time.Hour, "Age of the oldest run to keep")
	return cmd
}

func printRuns(w io.Writer, runs []*types.HistoricRun) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTIMESTAMP\tTEST\tTYPE\tDRIVER\tVERSION\tITER\tQUERY_MEDIAN\tFETCH_MEDIAN")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%d\t%.3fs\t%.3fs\n",
			r.ID, r.Timestamp.Format(time.RFC3339), r.TestName, r.TestType, r.DriverType,
			r.DriverVersion, r.Iterations, r.Query.Median, r.Fetch.Median)
	}
	tw.Flush()
}
