package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ComedyAnalyzer/internal/domain"
)

func newStagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stages",
		Short: "List analysis stages",
		Long: `List registered analysis stages in execution order.

Examples:
  comedyanalyzer stages                # Every stage
  comedyanalyzer stages --tier free    # Stages a free caller may run
  comedyanalyzer stages --json         # Output as JSON`,
		Args: cobra.NoArgs,
		RunE: runStages,
	}

	cmd.Flags().String("tier", "", "only list stages visible to this tier (free, pro, expert)")
	cmd.Flags().Bool("json", false, "output as JSON")
	return cmd
}

func runStages(cmd *cobra.Command, _ []string) error {
	tierFlag, _ := cmd.Flags().GetString("tier")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	application, _, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer application.Close()

	defs := application.Registry().All()
	if tierFlag != "" {
		tier, ok := domain.ParseTier(tierFlag)
		if !ok {
			return fmt.Errorf("unknown tier %q", tierFlag)
		}
		defs = application.Registry().ByTier(tier)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(defs)
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIER\tOUTPUT\tINPUTS")
	for _, def := range defs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", def.ID, def.Name, def.Tier, def.OutputKey, strings.Join(def.RequiredInputs, ", "))
	}
	return w.Flush()
}
