package models

import "time"

// Phase is the inferred development phase of the branch.
type Phase string

const (
	PhaseStarted          Phase = "started"
	PhaseDevelopment      Phase = "development"
	PhaseInReview         Phase = "in_review"
	PhaseChangesRequested Phase = "changes_requested"
	PhaseCompleted        Phase = "completed"
	PhaseUnknown          Phase = "unknown"
)

// TransitionResult records the outcome of one attempted ticket state
// transition.
type TransitionResult struct {
	From    string `json:"from,omitempty"`
	To      string `json:"to,omitempty"`
	Applied bool   `json:"applied"`
	Skipped bool   `json:"skipped"`
	Reason  string `json:"reason,omitempty"`
}

// TimeSession is one closed tracking interval.
type TimeSession struct {
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Minutes float64   `json:"minutes"`
}

// TimeTrackingState is the per-ticket tracking record. It is process-local
// and lost on exit.
type TimeTrackingState struct {
	StartTime    *time.Time    `json:"start_time,omitempty"`
	TotalMinutes float64       `json:"total_minutes"`
	Sessions     []TimeSession `json:"sessions,omitempty"`
}

// TimeTrackingResult reports what the tracker did on this invocation.
type TimeTrackingResult struct {
	Action         string  `json:"action"`
	SessionMinutes float64 `json:"session_minutes,omitempty"`
	TotalMinutes   float64 `json:"total_minutes,omitempty"`
	Efficiency     float64 `json:"efficiency,omitempty"`
	EfficiencyBand string  `json:"efficiency_band,omitempty"`
	Logged         bool    `json:"logged"`
	Error          string  `json:"error,omitempty"`
}

// ScopeChangeResult is the outcome of scope-drift detection.
type ScopeChangeResult struct {
	Changed         bool      `json:"changed"`
	RiskLevel       RiskLevel `json:"risk_level"`
	Reasons         []string  `json:"reasons,omitempty"`
	Recommendations []string  `json:"recommendations,omitempty"`
	Notified        bool      `json:"notified"`
	Error           string    `json:"error,omitempty"`
}

// SubTicketType classifies a synthesized sub-ticket suggestion.
type SubTicketType string

const (
	SubTicketFunctionalityGroup  SubTicketType = "functionality_group"
	SubTicketComplexityRefactor  SubTicketType = "complexity_refactor"
	SubTicketSecurityFixes       SubTicketType = "security_fixes"
	SubTicketDependencyMigration SubTicketType = "dependency_migration"
)

// SubTicketSuggestion is a proposed decomposition of a complex change into
// a tracker issue linked to the parent with a blocks relation.
type SubTicketSuggestion struct {
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	Priority      int               `json:"priority"`
	EstimateHours int               `json:"estimate_hours"`
	Labels        []string          `json:"labels,omitempty"`
	ParentIssueID string            `json:"parent_issue_id"`
	TeamID        string            `json:"team_id"`
	ProjectID     string            `json:"project_id,omitempty"`
	AssigneeID    string            `json:"assignee_id,omitempty"`
	Metadata      SubTicketMetadata `json:"metadata"`
}

// SubTicketMetadata carries the evidence behind a suggestion.
type SubTicketMetadata struct {
	Type         SubTicketType   `json:"type"`
	Files        []string        `json:"files,omitempty"`
	Complexity   ComplexityLevel `json:"complexity"`
	ParentTicket string          `json:"parent_ticket"`
}

// SubTicketResult records one created (or merely suggested) sub-ticket.
type SubTicketResult struct {
	Suggestion SubTicketSuggestion `json:"suggestion"`
	Created    bool                `json:"created"`
	IssueID    string              `json:"issue_id,omitempty"`
	Identifier string              `json:"identifier,omitempty"`
	Error      string              `json:"error,omitempty"`
}

// TrackerOutcome is the issue-tracker workflow's aggregate result.
type TrackerOutcome struct {
	TicketID         string             `json:"ticket_id"`
	IssueID          string             `json:"issue_id"`
	Phase            Phase              `json:"phase"`
	CommentAdded     bool               `json:"comment_added"`
	StatusTransition TransitionResult   `json:"status_transition"`
	TimeTracking     TimeTrackingResult `json:"time_tracking"`
	ScopeChange      ScopeChangeResult  `json:"scope_change"`
	SubTickets       []SubTicketResult  `json:"sub_tickets,omitempty"`
}
