package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/odbc-perf/runner/storage"
	"github.com/odbc-perf/runner/storage/s3"
)

func newUploadCmd(logger *logrus.Logger, root *rootOptions) *cobra.Command {
	var driverType string

	cmd := &cobra.Command{
		Use:   "upload FILE...",
		Short: "Upload result files to the bucket",
		Long:  `Upload result and metadata files under <prefix>/<driver type>/ in the configured bucket.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, files []string) error {
			if driverType == "" {
				return fmt.Errorf("--driver-type is required")
			}

			integrations, err := root.integrations(logger)
			if err != nil {
				return err
			}
			store, err := s3.New(integrations.Upload.S3)
			if err != nil {
				return err
			}

			uploaded, err := storage.UploadResults(cmd.Context(), store, driverType, files, logger)
			if err != nil {
				return err
			}
			for _, info := range uploaded {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", info.Key, info.Size)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&driverType, "driver-type", "", "Driver type the files belong to")
	return cmd
}
