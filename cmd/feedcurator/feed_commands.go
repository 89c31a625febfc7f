package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"FeedCurator/internal/config"
	"FeedCurator/internal/feed"
	"FeedCurator/internal/logging"
	"FeedCurator/internal/opml"
)

func newValidateCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <url>",
		Short: "Validate and classify a feed URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if *configFlag != "" {
				os.Setenv("FEEDCURATOR_CONFIG", *configFlag)
			}
			cfg := config.Load()
			logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

			validator := feed.NewValidator(nil, logger.With("component", "validator"))
			result := validator.Validate(cmd.Context(), args[0])

			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}

func newImportCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.opml>",
		Short: "Enqueue validation jobs for every feed in an OPML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			application, _, err := loadApp(configFlag)
			if err != nil {
				return err
			}
			defer application.Close()

			importer := opml.NewImporter(application.JobStore(), 0, 0)
			enqueued, err := importer.Import(cmd.Context(), raw)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d feeds queued for validation\n", enqueued)
			return nil
		},
	}
}
