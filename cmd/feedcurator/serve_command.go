package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newServeCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the API server, worker, and scheduler until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, _, err := loadApp(configFlag)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return application.Run(ctx)
		},
	}
}
