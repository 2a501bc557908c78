package main

import (
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and the pending-job sweep",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, logger, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			if err := application.Serve(cmd.Context()); err != nil {
				logger.Error("application stopped", "error", err)
				return err
			}
			return nil
		},
	}
}
