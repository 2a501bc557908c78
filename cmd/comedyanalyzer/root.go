package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"ComedyAnalyzer/internal/app"
	"ComedyAnalyzer/internal/config"
	"ComedyAnalyzer/internal/logging"
)

// newRootCmd builds the comedyanalyzer command tree.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "comedyanalyzer",
		Short: "Comedy script analysis pipeline",
		Long: `comedyanalyzer runs comedy scripts through a catalog of analysis stages:
joke detection, pacing, humor gaps, callbacks and simulated audience engagement.

Example usage:
  comedyanalyzer stages --tier pro      # List stages available on the pro tier
  comedyanalyzer analyze script.txt     # Analyze a script and print callbacks and engagement
  comedyanalyzer serve                  # Start the HTTP API and the pending-job sweep`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newStagesCmd(), newAnalyzeCmd(), newServeCmd())
	return root
}

// bootstrap loads configuration and builds the application for a command run.
func bootstrap(cmd *cobra.Command) (*app.Application, *slog.Logger, error) {
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	application, err := app.New(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return application, logger, nil
}
