package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/user/draftsmith/internal/config"
	"github.com/user/draftsmith/internal/readwise"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all Readwise highlights to a JSON file",
	Long:  "Fetch every highlight from Readwise, unfiltered by age, and write the raw records to a JSON file.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		client := readwise.NewClient(os.Getenv("READWISE_TOKEN"), cfg.Readwise.BaseURL)

		ok, err := client.VerifyToken(cmd.Context())
		if err != nil {
			return fmt.Errorf("token verification failed: %w", err)
		}
		if !ok {
			return fmt.Errorf("READWISE_TOKEN is invalid")
		}

		// Full export: no watermark, no age window.
		highlights, err := client.FetchHighlights(cmd.Context(), time.Time{}, 0)
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		data, err := json.MarshalIndent(highlights, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(exportOut, data, 0644); err != nil {
			return err
		}

		fmt.Printf("Exported %d highlights to %s\n", len(highlights), exportOut)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "readwise-highlights.json", "Output file path")
	rootCmd.AddCommand(exportCmd)
}
