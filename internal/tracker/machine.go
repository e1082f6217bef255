package tracker

import (
	"context"
	"fmt"

	"github.com/ManagementMO/CodeScribe-sub000/internal/config"
	"github.com/ManagementMO/CodeScribe-sub000/internal/linear"
	"github.com/ManagementMO/CodeScribe-sub000/internal/logging"
	"github.com/ManagementMO/CodeScribe-sub000/pkg/models"
)

// Client is the issue-tracker surface the state machine drives.
// *linear.Client implements it.
type Client interface {
	GetIssue(ctx context.Context, identifier string) (*models.TicketData, *models.ProjectData, error)
	TeamStates(ctx context.Context, teamID string) ([]linear.WorkflowState, error)
	UpdateIssueState(ctx context.Context, issueID, stateID string) error
	CreateComment(ctx context.Context, issueID, body string) error
	CreateIssue(ctx context.Context, input linear.IssueCreateInput) (id, identifier string, err error)
	CreateRelation(ctx context.Context, issueID, relatedIssueID, relationType string) error
}

// Machine executes the ticket state machine for one invocation.
type Machine struct {
	client Client
	cfg    config.IssueTrackerConfig
	table  TransitionTable
	times  *TimeStore
}

// NewMachine builds a Machine with the default transition table.
func NewMachine(client Client, cfg config.IssueTrackerConfig, times *TimeStore) *Machine {
	if times == nil {
		times = NewTimeStore()
	}
	return &Machine{
		client: client,
		cfg:    cfg,
		table:  DefaultTransitionTable(),
		times:  times,
	}
}

// Execute looks up the ticket, infers the phase, and drives transitions,
// time tracking, scope detection, sub-ticket synthesis, and the summary
// comment. Sub-step failures are isolated in their sub-results; only a
// missing issue or a failed summary comment is fatal.
func (m *Machine) Execute(ctx context.Context, c *models.Context, review *models.CodeReviewResult, integrationBranch string) (*models.TrackerOutcome, error) {
	ticket, project, err := m.client.GetIssue(ctx, c.Ticket.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to locate issue %s: %w", c.Ticket.ID, err)
	}
	c.Ticket.IssueID = ticket.IssueID
	c.Ticket.Data = ticket
	c.Ticket.Project = project

	phase := InferPhase(c, review, integrationBranch)
	outcome := &models.TrackerOutcome{
		TicketID: ticket.Identifier,
		IssueID:  ticket.IssueID,
		Phase:    phase,
	}
	logging.Info("ticket state machine",
		"ticket", ticket.Identifier,
		"state", ticket.StateName,
		"phase", string(phase))

	if m.cfg.AutoTransition {
		outcome.StatusTransition = m.applyTransition(ctx, ticket, phase)
	} else {
		outcome.StatusTransition = models.TransitionResult{Skipped: true, Reason: "auto-transition disabled"}
	}

	if m.cfg.TrackTime {
		outcome.TimeTracking = m.trackTime(ctx, ticket, phase)
	} else {
		outcome.TimeTracking = models.TimeTrackingResult{Action: "disabled"}
	}

	if m.cfg.DetectScopeChanges {
		outcome.ScopeChange = DetectScopeChange(c, ticket.Estimate)
		if outcome.ScopeChange.Changed && outcome.ScopeChange.RiskLevel == models.RiskHigh && m.cfg.NotifyOnScopeChange {
			if err := m.client.CreateComment(ctx, ticket.IssueID, scopeChangeComment(outcome.ScopeChange)); err != nil {
				outcome.ScopeChange.Error = err.Error()
			} else {
				outcome.ScopeChange.Notified = true
			}
		}
	}

	if ShouldBreakdown(c, m.cfg) {
		outcome.SubTickets = m.synthesizeSubTickets(ctx, c, ticket, project)
	}

	if m.cfg.AddComments {
		body := summaryComment(c, outcome, review)
		if err := m.client.CreateComment(ctx, ticket.IssueID, body); err != nil {
			return nil, fmt.Errorf("failed to post summary comment on %s: %w", ticket.Identifier, err)
		}
		outcome.CommentAdded = true
	}

	return outcome, nil
}

// trackTime advances the time-tracking machine and logs sessions of at
// least five minutes back to the tracker as a comment.
func (m *Machine) trackTime(ctx context.Context, ticket *models.TicketData, phase models.Phase) models.TimeTrackingResult {
	result := m.times.Apply(ticket.Identifier, phase, ticket.Estimate)
	if (result.Action == "paused" || result.Action == "completed") && result.SessionMinutes >= minimumLoggedSessionMinutes {
		if err := m.client.CreateComment(ctx, ticket.IssueID, timeLogComment(ticket.Identifier, result)); err != nil {
			result.Error = err.Error()
		} else {
			result.Logged = true
		}
	}
	return result
}

// synthesizeSubTickets builds suggestions and, when auto-creation is
// enabled, creates each as an issue linked to the parent with a blocks
// relation. Creation failures are recorded per suggestion.
func (m *Machine) synthesizeSubTickets(ctx context.Context, c *models.Context, ticket *models.TicketData, project *models.ProjectData) []models.SubTicketResult {
	suggestions := BuildSuggestions(c, ticket, project)
	results := make([]models.SubTicketResult, 0, len(suggestions))

	for _, suggestion := range suggestions {
		result := models.SubTicketResult{Suggestion: suggestion}
		if !m.cfg.AutoCreateSubTickets {
			results = append(results, result)
			continue
		}

		id, identifier, err := m.client.CreateIssue(ctx, linear.IssueCreateInput{
			TeamID:      suggestion.TeamID,
			Title:       suggestion.Title,
			Description: suggestion.Description,
			Priority:    suggestion.Priority,
			Estimate:    float64(suggestion.EstimateHours),
			ProjectID:   suggestion.ProjectID,
			AssigneeID:  suggestion.AssigneeID,
		})
		if err != nil {
			result.Error = err.Error()
			results = append(results, result)
			continue
		}
		result.Created = true
		result.IssueID = id
		result.Identifier = identifier

		if err := m.client.CreateRelation(ctx, id, suggestion.ParentIssueID, "blocks"); err != nil {
			result.Error = fmt.Sprintf("created but not linked: %v", err)
		}
		results = append(results, result)
	}
	return results
}
