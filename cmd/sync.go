package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var fullSync bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync highlights from Readwise",
	Long:  "Fetch highlights from Readwise into the local store. Incremental by default; --full refetches everything within the max-age window.",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		result, err := app.orch.Sync(cmd.Context(), !fullSync)
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}

		fmt.Printf("Synced %d highlights (%d new, %d updated)\n",
			result.Sync.HighlightsCount, result.Sync.NewHighlights, result.Sync.UpdatedHighlights)
		return nil
	},
}

func init() {
	syncCmd.Flags().BoolVar(&fullSync, "full", false, "Full sync instead of incremental")
	rootCmd.AddCommand(syncCmd)
}
