package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ManagementMO/CodeScribe-sub000/internal/workflow"
)

var prCmd = &cobra.Command{
	Use:     "pr",
	Aliases: []string{"run"},
	Short:   "Create or update the pull request and sync the ticket",
	Long: `Analyzes the current branch, creates or updates its pull request, and
synchronizes the issue-tracker ticket named in the branch.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(cmd, "pr", workflow.Options{})
	},
}
