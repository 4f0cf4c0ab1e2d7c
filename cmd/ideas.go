package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var ideasFeedback string

var ideasCmd = &cobra.Command{
	Use:   "ideas",
	Short: "Generate a batch of blog ideas",
	Long:  "Generate 5-10 blog ideas from the most recent highlights. Use --feedback to steer regeneration after a rejected batch.",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		result, err := app.orch.Generate(cmd.Context(), ideasFeedback)
		if err != nil {
			return fmt.Errorf("idea generation failed: %w", err)
		}

		ideas, err := app.store.IdeasByBatch(result.IdeaBatchID)
		if err != nil {
			return err
		}

		fmt.Printf("Batch %d: %d ideas\n\n", result.IdeaBatchID, len(ideas))
		for i, idea := range ideas {
			fmt.Printf("%d. %s\n", i+1, titleStyle.Render(idea.Title))
			fmt.Printf("   %s\n", idea.Hook)
			fmt.Printf("   %s\n", faintStyle.Render(fmt.Sprintf("id: %s  cites: %d  risk: %.2f  novelty: %.2f",
				idea.ID, len(idea.HighlightIDs), idea.RiskOfGeneric, idea.NoveltyScore)))
			if len(idea.Outline) > 0 {
				fmt.Printf("   %s\n", faintStyle.Render("outline: "+strings.Join(idea.Outline, " | ")))
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	ideasCmd.Flags().StringVar(&ideasFeedback, "feedback", "", "Corrective feedback from a previous batch")
	rootCmd.AddCommand(ideasCmd)
}
