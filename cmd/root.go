// Package cmd wires the CLI commands onto the workflow pipeline.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "codescribe",
	Short: "CodeScribe turns a branch into a pull request and a synced ticket",
	Long: `CodeScribe analyzes the current git branch, creates or updates the pull
request for it, and synchronizes the issue-tracker ticket named in the
branch: status transitions, progress comments, time tracking, scope-change
detection, and sub-ticket suggestions.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(prCmd)
	rootCmd.AddCommand(commitCmd)
	rootCmd.AddCommand(codeReviewOnlyCmd)
	rootCmd.AddCommand(issueTrackerOnlyCmd)
}
