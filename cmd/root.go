// Package cmd provides the ndu CLI.
//
// Commands:
//   - serve: HTTP API server for the conference assistant
//   - version: build information
//
// serve installs signal handlers and shuts down gracefully on SIGINT and
// SIGTERM.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ndu",
	Short: "Ndu - AI assistant for API Conference Lagos 2025",
	Long: `Ndu is the conversational assistant for API Conference Lagos 2025.
It answers questions about speakers, sessions, the schedule and getting to
the venue, backed by the curated conference dataset and live site data.

Run "ndu serve" to start the HTTP API.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
