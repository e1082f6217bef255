// Package workflow defines the workflow contract and the orchestrator that
// selects, orders, and runs workflows for a command. Workflows receive the
// analyzed Context, never re-derive it, and publish their output back into
// it under their own name.
package workflow

import (
	"context"
	"time"

	"github.com/ManagementMO/CodeScribe-sub000/pkg/models"
)

// Options carry the per-invocation flags shared with every workflow.
type Options struct {
	Message     string `json:"message,omitempty"`
	All         bool   `json:"all,omitempty"`
	AddModified bool   `json:"add_modified,omitempty"`
	NoPush      bool   `json:"no_push,omitempty"`
	Force       bool   `json:"force,omitempty"`
}

// Workflow is the unit of orchestration.
type Workflow interface {
	// Name is the registry key and the Context result key.
	Name() string
	// Critical workflows abort the run on failure.
	Critical() bool
	// Dependencies lists workflow names that must run first.
	Dependencies() []string
	// Parallel reports whether the workflow could run concurrently with
	// its peers. Execution is currently sequential either way.
	Parallel() bool
	// IsEnabled reports whether configuration enables the workflow.
	IsEnabled() bool
	// CanExecute reports whether the Context satisfies the workflow's
	// preconditions, with a human-readable reason when it does not.
	CanExecute(c *models.Context) (bool, string)
	// Execute runs the workflow and returns its result value.
	Execute(ctx context.Context, c *models.Context, opts Options) (any, error)
}

// ErrorHandler lets a workflow observe its own failure and optionally
// recover; returning nil marks the failure handled.
type ErrorHandler interface {
	HandleError(ctx context.Context, c *models.Context, err error) error
}

// Cleaner lets a workflow release resources after the run.
type Cleaner interface {
	Cleanup(ctx context.Context, c *models.Context) error
}

// Result records what happened to one workflow during a run.
type Result struct {
	Name     string        `json:"name"`
	Skipped  bool          `json:"skipped,omitempty"`
	Reason   string        `json:"reason,omitempty"`
	Output   any           `json:"output,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ms"`
}
