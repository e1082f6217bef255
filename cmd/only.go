package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ManagementMO/CodeScribe-sub000/internal/workflow"
)

var codeReviewOnlyCmd = &cobra.Command{
	Use:   "code-review-only",
	Short: "Create or update the pull request without touching the ticket",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(cmd, "code-review-only", workflow.Options{})
	},
}

var issueTrackerOnlyCmd = &cobra.Command{
	Use:   "issue-tracker-only",
	Short: "Sync the ticket without touching the pull request",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(cmd, "issue-tracker-only", workflow.Options{})
	},
}
