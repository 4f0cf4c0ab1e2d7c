package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "draftsmith",
	Short: "Turn reading highlights into blog drafts",
	Long:  "An agent pipeline that syncs Readwise highlights, generates and curates blog ideas, and expands the best ones into full drafts.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("data-dir", "", "Data directory (default: ~/.draftsmith)")
}
