package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ComedyAnalyzer/internal/domain"
	"ComedyAnalyzer/internal/stage"
	"ComedyAnalyzer/internal/stages"
)

type fileReport struct {
	File    string         `json:"file"`
	JobID   string         `json:"jobId"`
	Status  string         `json:"status"`
	Outputs map[string]any `json:"outputs"`
}

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <file>...",
		Short: "Analyze script files",
		Long: `Analyze one or more script files (plain text or HTML) and print the results as JSON.
Files are analyzed concurrently, up to pipeline.concurrency at a time.

Examples:
  comedyanalyzer analyze set.txt                 # Callbacks and engagement
  comedyanalyzer analyze set.txt --all           # Every stage output
  comedyanalyzer analyze a.txt b.txt --stages 1,2,3 --tier free`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAnalyze,
	}

	cmd.Flags().IntSlice("stages", nil, "stage ids to run (default: pipeline.stages)")
	cmd.Flags().String("tier", "", "caller tier (default: pipeline.tier)")
	cmd.Flags().Bool("all", false, "print every stage output")
	return cmd
}

func runAnalyze(cmd *cobra.Command, files []string) error {
	stageIDs, _ := cmd.Flags().GetIntSlice("stages")
	tierFlag, _ := cmd.Flags().GetString("tier")
	all, _ := cmd.Flags().GetBool("all")

	var tier domain.Tier
	if tierFlag != "" {
		parsed, ok := domain.ParseTier(tierFlag)
		if !ok {
			return fmt.Errorf("unknown tier %q", tierFlag)
		}
		tier = parsed
	}

	scripts := make([]string, len(files))
	for i, file := range files {
		raw, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read %s: %w", file, err)
		}
		scripts[i] = string(raw)
	}

	application, logger, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer application.Close()

	results, err := application.Pipeline().AnalyzeBatch(cmd.Context(), scripts, stageIDs, tier)
	if err != nil {
		return err
	}
	logger.Debug("analysis finished", "files", len(files))

	reports := make([]fileReport, 0, len(results))
	for i, result := range results {
		reports = append(reports, fileReport{
			File:    files[i],
			JobID:   result.Job.ID,
			Status:  string(result.Job.Status),
			Outputs: selectOutputs(result.Outputs, all),
		})
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(reports)
}

// selectOutputs drops the run seeds and, unless all is set, keeps only callbacks and engagement.
func selectOutputs(state stage.State, all bool) map[string]any {
	out := map[string]any{}
	for key, value := range state {
		switch key {
		case stage.KeyJobID, stage.KeyScriptText:
			continue
		}
		if !all && key != stages.KeyCallbackAnalysis && key != stages.KeyAudienceEngagement {
			continue
		}
		out[key] = value
	}
	return out
}
