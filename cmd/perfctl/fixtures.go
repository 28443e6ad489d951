package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/odbc-perf/runner/storage"
	"github.com/odbc-perf/runner/storage/s3"
)

func newFixturesCmd(logger *logrus.Logger, root *rootOptions) *cobra.Command {
	var (
		prefix string
		dest   string
	)

	cmd := &cobra.Command{
		Use:   "fixtures",
		Short: "Download PUT fixtures from the bucket",
		Long: `Download every object under --prefix of the configured bucket into --dest.
A destination that already holds files is left alone, so repeated runs on
the same host download once.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dest == "" {
				return fmt.Errorf("--dest is required")
			}

			integrations, err := root.integrations(logger)
			if err != nil {
				return err
			}
			store, err := s3.New(integrations.Upload.S3)
			if err != nil {
				return err
			}

			n, err := storage.DownloadPrefix(cmd.Context(), store, prefix, dest, logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "downloaded %d file(s) to %s\n", n, dest)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&prefix, "prefix", "", "Key prefix to download")
	flags.StringVar(&dest, "dest", "", "Local directory")

	return cmd
}
