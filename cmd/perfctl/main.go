// Package main provides perfctl, the operator CLI around harness results:
// verifying and comparing result files, staging PUT fixtures, uploading
// results and browsing the run history.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/odbc-perf/runner/config"
)

func main() {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(logger)
	if err := root.ExecuteContext(ctx); err != nil {
		logger.WithError(err).Error("perfctl failed")
		stop()
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd(logger *logrus.Logger) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "perfctl",
		Short: "Operator tooling for the ODBC performance harness",
		Long: `perfctl works with what the harness leaves behind: result CSVs and run
metadata in the results directory, the PostgreSQL run history and the
S3 bucket results and PUT fixtures live in.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			level, err := logrus.ParseLevel(opts.logLevel)
			if err != nil {
				return err
			}
			logger.SetLevel(level)
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", os.Getenv("PERF_CONFIG"),
		"Path to the integrations YAML file (default $PERF_CONFIG)")
	flags.StringVar(&opts.logLevel, "log-level", "info",
		"Log level: debug, info, warn, error")

	root.AddCommand(
		newVerifyCmd(logger),
		newCompareCmd(logger, opts),
		newFixturesCmd(logger, opts),
		newUploadCmd(logger, opts),
		newHistoryCmd(logger, opts),
		newServeCmd(logger, opts),
	)

	return root
}

func (o *rootOptions) integrations(log logrus.FieldLogger) (*config.IntegrationsConfig, error) {
	return config.LoadIntegrations(o.configPath, log)
}
