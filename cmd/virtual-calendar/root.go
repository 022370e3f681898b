package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "virtual-calendar",
	Short: "Single-user calendar engine with a local HTTP API",
	Long: `virtual-calendar keeps a single user's events and recurring series in
memory and serves them over a local HTTP API: date and range queries,
availability checks, series-aware edits, and an iCalendar export for
subscription clients.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(hashTokenCmd)
	rootCmd.AddCommand(versionCmd)
}
