package tracker

import (
	"context"
	"strings"

	"github.com/ManagementMO/CodeScribe-sub000/internal/logging"
	"github.com/ManagementMO/CodeScribe-sub000/pkg/models"
)

// TransitionTable maps a current state name to the target state for each
// event. State names are matched case-insensitively.
type TransitionTable map[string]map[Event]string

// DefaultTransitionTable is the built-in table. Rows without an entry for
// an event mean the transition is skipped.
func DefaultTransitionTable() TransitionTable {
	backlogRow := map[Event]string{
		EventBranchCreated: "In Progress",
		EventFirstCommit:   "In Progress",
		EventPRCreated:     "In Review",
		EventPRApproved:    "Ready for Deploy",
		EventPRMerged:      "Done",
	}
	return TransitionTable{
		"todo":    backlogRow,
		"backlog": backlogRow,
		"in progress": {
			EventPRCreated:  "In Review",
			EventPRApproved: "Ready for Deploy",
			EventPRMerged:   "Done",
		},
		"in review": {
			EventPRApproved:         "Ready for Deploy",
			EventPRMerged:           "Done",
			EventPRChangesRequested: "In Progress",
		},
		"ready for deploy": {
			EventPRMerged: "Done",
		},
	}
}

// Target looks up the target state for a (current state, event) pair.
func (t TransitionTable) Target(currentState string, event Event) (string, bool) {
	row, ok := t[strings.ToLower(strings.TrimSpace(currentState))]
	if !ok {
		return "", false
	}
	target, ok := row[event]
	return target, ok
}

// applyTransition computes and applies the state transition for the
// inferred phase. Missing table entries and no-op transitions are skipped;
// a target state absent from the team's workflow is recorded as failed
// with reason "state not found". None of these outcomes is fatal.
func (m *Machine) applyTransition(ctx context.Context, ticket *models.TicketData, phase models.Phase) models.TransitionResult {
	result := models.TransitionResult{From: ticket.StateName}

	event, ok := EventFor(phase)
	if !ok {
		result.Skipped = true
		result.Reason = "no event for phase"
		return result
	}

	target, ok := m.table.Target(ticket.StateName, event)
	if !ok {
		result.Skipped = true
		result.Reason = "no transition defined"
		return result
	}
	result.To = target

	if strings.EqualFold(target, ticket.StateName) {
		result.Skipped = true
		result.Reason = "no change"
		return result
	}

	states, err := m.client.TeamStates(ctx, ticket.TeamID)
	if err != nil {
		result.Reason = "failed to list team states: " + err.Error()
		return result
	}
	stateID := ""
	for _, s := range states {
		if strings.EqualFold(s.Name, target) {
			stateID = s.ID
			break
		}
	}
	if stateID == "" {
		result.Reason = "state not found"
		return result
	}

	if err := m.client.UpdateIssueState(ctx, ticket.IssueID, stateID); err != nil {
		result.Reason = err.Error()
		return result
	}

	logging.Info("ticket transitioned",
		"ticket", ticket.Identifier,
		"from", ticket.StateName,
		"to", target,
		"event", string(event))
	result.Applied = true
	return result
}
