package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/user/draftsmith/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long:  "Expose the workflow and its data over HTTP for the web UI.",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		srv := server.New(app.store, app.orch, app.judge)
		fmt.Printf("Listening on %s\n", serveAddr)
		return srv.Start(serveAddr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")
	rootCmd.AddCommand(serveCmd)
}
