package main

import (
	"os"

	"github.com/spf13/cobra"

	"FeedCurator/internal/app"
	"FeedCurator/internal/config"
	"FeedCurator/internal/logging"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	rootCmd := &cobra.Command{
		Use:           "feedcurator",
		Short:         "Feed ingestion, enrichment, and quality-scoring service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newServeCommand(&configFlag))
	rootCmd.AddCommand(newJobsCommand(&configFlag))
	rootCmd.AddCommand(newValidateCommand(&configFlag))
	rootCmd.AddCommand(newImportCommand(&configFlag))

	return rootCmd
}

// loadApp builds a wired application for one-shot commands and the daemon.
func loadApp(configFlag *string) (*app.Application, config.Config, error) {
	if configFlag != nil && *configFlag != "" {
		os.Setenv("FEEDCURATOR_CONFIG", *configFlag)
	}
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	application, err := app.New(cfg, logger)
	if err != nil {
		return nil, cfg, err
	}
	return application, cfg, nil
}
