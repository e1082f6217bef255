// Package models defines data structures shared across the application.
package models

import (
	"fmt"
	"time"
)

// Context is the analyzed snapshot of the working copy and its associated
// ticket. It is produced once per invocation by the context analyzer and
// threaded through every workflow. Analyzer-populated fields are read-only
// after Gather; workflows append their own results under their name via
// SetResult and never overwrite another workflow's entry.
type Context struct {
	Git     GitContext     `json:"git"`
	Code    CodeContext    `json:"code"`
	Project ProjectContext `json:"project"`
	Ticket  TicketContext  `json:"ticket"`

	// Results holds per-workflow outputs keyed by workflow name.
	Results map[string]any `json:"results,omitempty"`
}

// SetResult records a workflow's output under its name. Each key may be
// written exactly once.
func (c *Context) SetResult(name string, value any) error {
	if c.Results == nil {
		c.Results = make(map[string]any)
	}
	if _, exists := c.Results[name]; exists {
		return fmt.Errorf("result %q already recorded", name)
	}
	c.Results[name] = value
	return nil
}

// Result returns the output previously recorded by the named workflow.
func (c *Context) Result(name string) (any, bool) {
	v, ok := c.Results[name]
	return v, ok
}

// GitContext captures everything the version-control probe knows about the
// branch under review.
type GitContext struct {
	Branch           string             `json:"branch"`
	RemoteURL        string             `json:"remote_url"`
	Diff             string             `json:"diff"`
	DiffStats        DiffStats          `json:"diff_stats"`
	Commits          []Commit           `json:"commits"`
	BranchHistory    BranchHistory      `json:"branch_history"`
	MergeBase        MergeBaseAnalysis  `json:"merge_base_analysis"`
	Conflicts        ConflictPrediction `json:"conflict_detection"`
	CommitAnalysis   CommitAnalysis     `json:"commit_analysis"`
	BranchValidation BranchValidation   `json:"branch_validation"`
}

// DiffStats summarizes the diff against the integration branch.
type DiffStats struct {
	FilesChanged int `json:"files_changed"`
	Insertions   int `json:"insertions"`
	Deletions    int `json:"deletions"`
}

// Commit is one commit on the branch since its merge-base.
type Commit struct {
	Hash      string    `json:"hash"`
	ShortHash string    `json:"short_hash"`
	Subject   string    `json:"subject"`
	Author    string    `json:"author"`
	Date      time.Time `json:"date"`
}

// BranchHistory describes where and when the branch forked off the
// integration branch.
type BranchHistory struct {
	CreationPoint string    `json:"creation_point"`
	CreatedAt     time.Time `json:"created_at"`
	CommitCount   int       `json:"commit_count"`
	MergeCount    int       `json:"merge_count"`
	AgeDays       int       `json:"age_days"`
}

// MergeBaseAnalysis reports how far the branch has drifted from the
// integration branch.
type MergeBaseAnalysis struct {
	MergeBase   string `json:"merge_base"`
	Ahead       int    `json:"ahead"`
	Behind      int    `json:"behind"`
	NeedsRebase bool   `json:"needs_rebase"`
	IsUpToDate  bool   `json:"is_up_to_date"`
}

// ConflictPrediction estimates how likely a merge into the integration
// branch is to conflict. Method records whether a scratch merge was
// simulated or the file-intersection fallback was used.
type ConflictPrediction struct {
	Method        string    `json:"method"`
	ConflictCount int       `json:"conflict_count"`
	Files         []string  `json:"files,omitempty"`
	RiskLevel     RiskLevel `json:"risk_level"`
}

// CommitAnalysis summarizes commit-message hygiene on the branch.
type CommitAnalysis struct {
	Total           int      `json:"total"`
	Conventional    int      `json:"conventional"`
	ShortMessages   []string `json:"short_messages,omitempty"`
	LongMessages    []string `json:"long_messages,omitempty"`
	BreakingChanges []string `json:"breaking_changes,omitempty"`
}

// BranchValidation reports whether the branch name follows the expected
// naming convention.
type BranchValidation struct {
	Valid    bool     `json:"valid"`
	TicketID string   `json:"ticket_id,omitempty"`
	Type     string   `json:"type,omitempty"`
	Issues   []string `json:"issues,omitempty"`
}

// TicketContext links the invocation to its issue-tracker ticket. ID is the
// identifier parsed from the branch name; the remaining fields are filled by
// the ticket workflow once the tracker has been queried.
type TicketContext struct {
	ID      string       `json:"ticket_id"`
	IssueID string       `json:"issue_id,omitempty"`
	Data    *TicketData  `json:"ticket_data,omitempty"`
	Project *ProjectData `json:"project_data,omitempty"`
}

// TicketData mirrors the tracker's view of the issue.
type TicketData struct {
	IssueID     string  `json:"issue_id"`
	Identifier  string  `json:"identifier"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	StateName   string  `json:"state_name"`
	TeamID      string  `json:"team_id"`
	Estimate    float64 `json:"estimate,omitempty"`
	URL         string  `json:"url,omitempty"`
}

// ProjectData mirrors the tracker's view of the project the issue belongs to.
type ProjectData struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
