package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ManagementMO/CodeScribe-sub000/internal/workflow"
)

var commitOpts workflow.Options

var commitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Stage, commit, and push the working copy",
	Long: `Stages changes per the flags, commits with the given or a synthesized
conventional-commit message, and pushes the branch unless --no-push.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(cmd, "commit", commitOpts)
	},
}

func init() {
	commitCmd.Flags().StringVarP(&commitOpts.Message, "message", "m", "", "commit message (synthesized when omitted)")
	commitCmd.Flags().BoolVarP(&commitOpts.All, "all", "a", false, "stage all changes including untracked files")
	commitCmd.Flags().BoolVar(&commitOpts.AddModified, "add-modified", false, "stage modified and deleted tracked files only")
	commitCmd.Flags().BoolVar(&commitOpts.NoPush, "no-push", false, "skip pushing after the commit")
	commitCmd.Flags().BoolVar(&commitOpts.Force, "force", false, "commit even when nothing is detected to commit")
}
