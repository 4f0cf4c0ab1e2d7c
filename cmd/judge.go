package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var judgeCmd = &cobra.Command{
	Use:   "judge <draft-id>",
	Short: "Judge a draft's quality",
	Long:  "Rate a finished draft on accuracy, readability, brand relevance, and style consistency with a separate judge model.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		draft, err := app.store.GetDraft(args[0])
		if err != nil {
			return err
		}
		if draft == nil {
			return fmt.Errorf("draft %s not found", args[0])
		}

		idea, err := app.store.GetIdea(draft.IdeaID)
		if err != nil {
			return err
		}
		if idea == nil {
			return fmt.Errorf("idea %s not found for draft", draft.IdeaID)
		}

		score, err := app.judge.JudgeDraft(cmd.Context(), draft, idea)
		if err != nil {
			return fmt.Errorf("judging failed: %w", err)
		}

		fmt.Println(titleStyle.Render(idea.Title))
		fmt.Printf("  accuracy:          %s\n", scoreStyle.Render(fmt.Sprintf("%.2f", score.Accuracy)))
		fmt.Printf("  readability:       %s\n", scoreStyle.Render(fmt.Sprintf("%.2f", score.Readability)))
		fmt.Printf("  brand relevance:   %s\n", scoreStyle.Render(fmt.Sprintf("%.2f", score.BrandRelevance)))
		fmt.Printf("  style consistency: %s\n", scoreStyle.Render(fmt.Sprintf("%.2f", score.StyleConsistency)))
		fmt.Printf("  overall:           %s\n\n", scoreStyle.Render(fmt.Sprintf("%.2f", score.OverallScore)))
		fmt.Println(score.Feedback)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(judgeCmd)
}
