package workflow

import (
	"context"

	"github.com/ManagementMO/CodeScribe-sub000/internal/config"
	"github.com/ManagementMO/CodeScribe-sub000/pkg/models"
)

// TicketMachine is the state-machine surface; *tracker.Machine implements it.
type TicketMachine interface {
	Execute(ctx context.Context, c *models.Context, review *models.CodeReviewResult, integrationBranch string) (*models.TrackerOutcome, error)
}

// IssueTrackerWorkflow syncs the ticket with the analyzed Context and the
// code-review result. It is non-critical: a tracker outage never blocks the
// review itself.
type IssueTrackerWorkflow struct {
	cfg     *config.Config
	machine TicketMachine
}

// NewIssueTrackerWorkflow builds the issue-tracker workflow around a ticket
// state machine. A nil machine means the tracker is not configured; the
// workflow then only ever reports itself non-executable.
func NewIssueTrackerWorkflow(cfg *config.Config, machine TicketMachine) *IssueTrackerWorkflow {
	return &IssueTrackerWorkflow{cfg: cfg, machine: machine}
}

func (w *IssueTrackerWorkflow) Name() string           { return "issue-tracker" }
func (w *IssueTrackerWorkflow) Critical() bool         { return false }
func (w *IssueTrackerWorkflow) Dependencies() []string { return []string{"code-review"} }
func (w *IssueTrackerWorkflow) Parallel() bool         { return false }

func (w *IssueTrackerWorkflow) IsEnabled() bool {
	return w.cfg.Workflows.IssueTracker.Enabled
}

func (w *IssueTrackerWorkflow) CanExecute(c *models.Context) (bool, string) {
	if w.cfg.Linear.APIKey == "" || w.machine == nil {
		return false, "LINEAR_API_KEY is not configured"
	}
	if c.Ticket.ID == "" {
		return false, "no ticket identifier in the branch name"
	}
	return true, ""
}

// Execute runs the ticket state machine with whatever the code-review
// workflow produced. A missing review result is fine; phase inference falls
// back to commit and branch signals.
func (w *IssueTrackerWorkflow) Execute(ctx context.Context, c *models.Context, opts Options) (any, error) {
	var review *models.CodeReviewResult
	if v, ok := c.Result("code-review"); ok {
		if r, ok := v.(*models.CodeReviewResult); ok {
			review = r
		}
	}
	return w.machine.Execute(ctx, c, review, w.cfg.Git.DefaultBranch)
}
