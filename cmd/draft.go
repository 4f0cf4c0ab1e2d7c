package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var draftCmd = &cobra.Command{
	Use:   "draft <idea-id>...",
	Short: "Create drafts from shortlisted ideas",
	Long:  "Expand one or more ideas into full blog drafts grounded in their cited and related highlights.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		outcomes := app.orch.CreateDrafts(cmd.Context(), args)
		failures := 0
		for _, o := range outcomes {
			if o.Error != "" {
				failures++
				fmt.Printf("%s idea %s: %s\n", warnStyle.Render("FAIL"), o.IdeaID, o.Error)
				continue
			}
			fmt.Printf("%s draft %s (%d words)\n", scoreStyle.Render("OK"), o.DraftID, o.WordCount)
		}
		if failures == len(outcomes) {
			return fmt.Errorf("all %d draft attempts failed", failures)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(draftCmd)
}
