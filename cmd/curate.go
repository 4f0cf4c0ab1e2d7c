package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var curateBatch int

var curateCmd = &cobra.Command{
	Use:   "curate",
	Short: "Score and shortlist an idea batch",
	Long:  "Score every idea of a batch against the curation rubric and shortlist up to three. Defaults to the latest batch.",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		batch := curateBatch
		if batch == 0 {
			batch, err = app.store.MaxBatch()
			if err != nil {
				return err
			}
			if batch == 0 {
				return fmt.Errorf("no idea batches exist yet, run 'draftsmith ideas' first")
			}
		}

		result, err := app.orch.Curate(batch)
		if err != nil {
			return fmt.Errorf("curation failed: %w", err)
		}

		fmt.Printf("Batch %d: %d scored, %d shortlisted\n\n", batch, len(result.Feedback), len(result.ShortlistedIdeas))
		for _, ideaID := range result.ShortlistedIdeas {
			idea, err := app.store.GetIdea(ideaID)
			if err != nil {
				return err
			}
			score := result.Feedback[ideaID]
			fmt.Printf("%s %s\n", scoreStyle.Render(fmt.Sprintf("%.2f", score.Average)), titleStyle.Render(idea.Title))
			fmt.Printf("     %s\n", faintStyle.Render("id: "+ideaID))
			fmt.Printf("     %s\n\n", score.Feedback)
		}
		if result.ShouldRegenerate {
			fmt.Println(warnStyle.Render("Batch below quality bar, regeneration recommended:"))
			fmt.Println("  " + app.orch.RegenerationFeedback(result.Feedback))
		}
		return nil
	},
}

func init() {
	curateCmd.Flags().IntVar(&curateBatch, "batch", 0, "Batch number to curate (default: latest)")
	rootCmd.AddCommand(curateCmd)
}
