// Package tracker drives the ticket state machine: it infers the current
// development phase from the Context, applies the per-project transition
// table, maintains per-ticket time tracking, detects scope drift, and
// synthesizes sub-tickets for complex changes. It is the only component
// that mutates remote ticket state.
package tracker

import (
	"github.com/ManagementMO/CodeScribe-sub000/pkg/models"
)

// Event is a development milestone the transition table reacts to.
type Event string

const (
	EventBranchCreated      Event = "onBranchCreated"
	EventFirstCommit        Event = "onFirstCommit"
	EventPRCreated          Event = "onPRCreated"
	EventPRApproved         Event = "onPRApproved"
	EventPRMerged           Event = "onPRMerged"
	EventPRChangesRequested Event = "onPRChangesRequested"
)

// InferPhase derives the development phase from the Context and the
// code-review workflow's result. Precedence: merged review, requested
// changes, any open review, branch commits, branch existence.
func InferPhase(c *models.Context, review *models.CodeReviewResult, integrationBranch string) models.Phase {
	if review != nil {
		if review.Merged {
			return models.PhaseCompleted
		}
		if review.ChangesRequested || review.ReviewComments > 0 {
			return models.PhaseChangesRequested
		}
		if review.State == "open" {
			return models.PhaseInReview
		}
	}
	if len(c.Git.Commits) > 0 {
		return models.PhaseDevelopment
	}
	if c.Git.Branch != "" && c.Git.Branch != integrationBranch {
		return models.PhaseStarted
	}
	return models.PhaseUnknown
}

// EventFor maps a phase onto the transition-table event it triggers.
// Unknown phases trigger no event.
func EventFor(phase models.Phase) (Event, bool) {
	switch phase {
	case models.PhaseStarted:
		return EventBranchCreated, true
	case models.PhaseDevelopment:
		return EventFirstCommit, true
	case models.PhaseInReview:
		return EventPRCreated, true
	case models.PhaseChangesRequested:
		return EventPRChangesRequested, true
	case models.PhaseCompleted:
		return EventPRMerged, true
	default:
		return "", false
	}
}
