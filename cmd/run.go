package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full workflow",
	Long:  "Sync highlights, generate ideas, curate them, and draft the shortlisted ones in one pass.",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		result, err := app.orch.Run(cmd.Context())
		if err != nil {
			return fmt.Errorf("workflow failed at %s stage: %w", result.State.Step, err)
		}

		fmt.Printf("Synced %d highlights (%d new, %d updated)\n",
			result.Sync.HighlightsCount, result.Sync.NewHighlights, result.Sync.UpdatedHighlights)
		fmt.Printf("Generated %d ideas in batch %d, shortlisted %d\n",
			result.IdeaCount, result.IdeaBatchID, len(result.ShortlistedIdeas))
		for _, d := range result.Drafts {
			if d.Error != "" {
				fmt.Printf("  draft failed for idea %s: %s\n", d.IdeaID, d.Error)
				continue
			}
			fmt.Printf("  draft %s (%d words)\n", d.DraftID, d.WordCount)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
