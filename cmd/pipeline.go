package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ManagementMO/CodeScribe-sub000/internal/ai"
	"github.com/ManagementMO/CodeScribe-sub000/internal/analyzer"
	"github.com/ManagementMO/CodeScribe-sub000/internal/config"
	"github.com/ManagementMO/CodeScribe-sub000/internal/gitops"
	"github.com/ManagementMO/CodeScribe-sub000/internal/history"
	"github.com/ManagementMO/CodeScribe-sub000/internal/linear"
	"github.com/ManagementMO/CodeScribe-sub000/internal/logging"
	"github.com/ManagementMO/CodeScribe-sub000/internal/tracker"
	"github.com/ManagementMO/CodeScribe-sub000/internal/workflow"
	"github.com/ManagementMO/CodeScribe-sub000/pkg/models"
)

// runPipeline is the shared command body: load configuration, gather the
// Context, run the command's workflow selection, persist the history
// record, and print the outcome.
func runPipeline(cmd *cobra.Command, command string, opts workflow.Options) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if err := logging.Configure(cfg.Logging.Level, cfg.Logging.Console, cfg.Logging.File); err != nil {
		logging.Warn("failed to configure logging", "error", err)
	}

	ctx := cmd.Context()
	git := gitops.NewRunner(".")
	start := time.Now()

	c, err := analyzer.New(git, cfg).Gather(ctx)
	if err != nil {
		// Committing does not need a diff against the integration branch
		// or a ticket in the branch name.
		if command == "commit" && tolerableForCommit(err) {
			logging.Warn("continuing with partial context", "reason", err.Error())
			c, err = minimalContext(cmd, git)
		}
		if err != nil {
			return err
		}
	}

	aiClient := ai.NewClient(cfg.AI)

	var machine workflow.TicketMachine
	if linearClient, err := linear.NewClient(cfg.Linear); err == nil {
		machine = tracker.NewMachine(linearClient, cfg.Workflows.IssueTracker, nil)
	} else {
		logging.Debug("issue tracker not configured", "reason", err.Error())
	}

	orchestrator := workflow.NewOrchestrator()
	for _, w := range []workflow.Workflow{
		workflow.NewCodeReviewWorkflow(cfg, aiClient),
		workflow.NewIssueTrackerWorkflow(cfg, machine),
		workflow.NewCommitWorkflow(cfg, git, aiClient),
	} {
		if err := orchestrator.Register(w); err != nil {
			return err
		}
	}

	results, runErr := orchestrator.Run(ctx, command, c, opts)

	entry := history.Entry{
		Timestamp:  start,
		Command:    command,
		Options:    opts,
		Context:    c,
		Workflows:  workflow.WorkflowsFor(command),
		Results:    results,
		DurationMS: time.Since(start).Milliseconds(),
		Success:    runErr == nil,
	}
	if runErr != nil {
		entry.Error = runErr.Error()
	}
	if err := history.NewStore(git.Dir(), cfg.History).Record(entry); err != nil {
		logging.Warn("failed to record history", "error", err)
	}

	printResults(cmd, results)
	return runErr
}

func tolerableForCommit(err error) bool {
	var noChanges *analyzer.NoChangesError
	var badBranch *analyzer.BranchNamingError
	return errors.As(err, &noChanges) || errors.As(err, &badBranch)
}

// minimalContext builds the branch-and-ticket subset of the Context used
// when full analysis is unavailable.
func minimalContext(cmd *cobra.Command, git *gitops.Runner) (*models.Context, error) {
	branch, err := git.CurrentBranch(cmd.Context())
	if err != nil {
		return nil, err
	}
	remoteURL, _ := git.RemoteURL(cmd.Context())

	c := &models.Context{}
	c.Git.Branch = branch
	c.Git.RemoteURL = remoteURL
	c.Ticket.ID = analyzer.ParseTicketID(branch)
	return c, nil
}

func printResults(cmd *cobra.Command, results []workflow.Result) {
	for _, result := range results {
		switch {
		case result.Skipped:
			fmt.Fprintf(cmd.OutOrStdout(), "⏭  %s skipped: %s\n", result.Name, result.Reason)
		case result.Error != "":
			fmt.Fprintf(cmd.OutOrStdout(), "✗  %s failed: %s\n", result.Name, result.Error)
		default:
			fmt.Fprintf(cmd.OutOrStdout(), "✓  %s completed%s\n", result.Name, resultDetail(result.Output))
		}
	}
}

func resultDetail(output any) string {
	switch v := output.(type) {
	case *models.CodeReviewResult:
		return fmt.Sprintf(": %s pull request #%d %s", v.Action, v.Number, v.URL)
	case *models.TrackerOutcome:
		return fmt.Sprintf(": ticket %s phase %s", v.TicketID, v.Phase)
	case *workflow.CommitResult:
		detail := fmt.Sprintf(": %q", v.Message)
		if v.Pushed {
			detail += " (pushed)"
		}
		return detail
	default:
		return ""
	}
}
