package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/ManagementMO/CodeScribe-sub000/internal/config"
	"github.com/ManagementMO/CodeScribe-sub000/pkg/models"
)

// stager is the working-copy surface the commit workflow mutates.
// *gitops.Runner implements it.
type stager interface {
	HasUncommittedChanges(ctx context.Context) (bool, error)
	StageAll(ctx context.Context) error
	StageModified(ctx context.Context) error
	Commit(ctx context.Context, message string) error
	Push(ctx context.Context, branch string) error
}

// CommitResult is the commit workflow's output.
type CommitResult struct {
	Message string `json:"message"`
	Staged  string `json:"staged"`
	Pushed  bool   `json:"pushed"`
	Branch  string `json:"branch"`
}

// CommitWorkflow stages, commits, and pushes the working copy. It is the
// only workflow that mutates the repository.
type CommitWorkflow struct {
	cfg *config.Config
	git stager
	ai  generator
}

// NewCommitWorkflow builds the commit workflow.
func NewCommitWorkflow(cfg *config.Config, git stager, gen generator) *CommitWorkflow {
	return &CommitWorkflow{cfg: cfg, git: git, ai: gen}
}

func (w *CommitWorkflow) Name() string           { return "commit" }
func (w *CommitWorkflow) Critical() bool         { return true }
func (w *CommitWorkflow) Dependencies() []string { return nil }
func (w *CommitWorkflow) Parallel() bool         { return false }

func (w *CommitWorkflow) IsEnabled() bool {
	return w.cfg.Workflows.Commit.Enabled
}

func (w *CommitWorkflow) CanExecute(c *models.Context) (bool, string) {
	return true, ""
}

// Execute stages per the options, commits with the given or synthesized
// message, and pushes unless suppressed. With nothing to commit the run
// fails unless forced.
func (w *CommitWorkflow) Execute(ctx context.Context, c *models.Context, opts Options) (any, error) {
	dirty, err := w.git.HasUncommittedChanges(ctx)
	if err != nil {
		return nil, err
	}
	if !dirty && !opts.Force {
		return nil, fmt.Errorf("nothing to commit (use --force to override)")
	}

	staged := "index"
	switch {
	case opts.All:
		if err := w.git.StageAll(ctx); err != nil {
			return nil, err
		}
		staged = "all"
	case opts.AddModified:
		if err := w.git.StageModified(ctx); err != nil {
			return nil, err
		}
		staged = "modified"
	}

	message := opts.Message
	if message == "" {
		message = w.commitMessage(ctx, c)
	}
	if err := w.git.Commit(ctx, message); err != nil {
		return nil, err
	}

	result := &CommitResult{
		Message: message,
		Staged:  staged,
		Branch:  c.Git.Branch,
	}
	if !opts.NoPush && w.cfg.Git.AutoPush {
		if err := w.git.Push(ctx, c.Git.Branch); err != nil {
			return nil, fmt.Errorf("committed but push failed: %w", err)
		}
		result.Pushed = true
	}
	return result, nil
}

func (w *CommitWorkflow) commitMessage(ctx context.Context, c *models.Context) string {
	fallback := func() string { return fallbackCommitMessage(c, w.cfg.Workflows.Commit.ConventionalCommits) }
	if w.ai == nil {
		return fallback()
	}
	prompt := fmt.Sprintf(
		"Write a conventional commit message (one line, type(scope): subject, no quotes) for ticket %s. "+
			"Changed files:\n%s",
		c.Ticket.ID, changedPaths(c))
	message := strings.TrimSpace(w.ai.GenerateWithFallback(ctx, prompt, fallback))
	if message == "" {
		return fallback()
	}
	return firstLine(message)
}

// fallbackCommitMessage derives a message from the change-set shape when
// generation is unavailable.
func fallbackCommitMessage(c *models.Context, conventional bool) string {
	subject := fmt.Sprintf("update %d files", len(c.Code.ChangedFiles))
	if len(c.Code.ChangedFiles) == 0 {
		subject = "update working copy"
	}
	if c.Ticket.ID != "" {
		subject = fmt.Sprintf("%s (%s)", subject, c.Ticket.ID)
	}
	if !conventional {
		return subject
	}
	return changeType(c) + ": " + subject
}

// changeType picks a conventional-commit type from the change set: all test
// files test, all config files chore, dependency changes chore, anything
// else feat.
func changeType(c *models.Context) string {
	if len(c.Code.ChangedFiles) == 0 {
		return "chore"
	}
	allTests, allConfig := true, true
	for _, f := range c.Code.ChangedFiles {
		if !f.IsTest {
			allTests = false
		}
		if !f.IsConfig {
			allConfig = false
		}
	}
	switch {
	case allTests:
		return "test"
	case allConfig:
		return "chore"
	case len(c.Code.Dependencies.Updated)+len(c.Code.Dependencies.Added) > 0 && c.Code.Metrics.SourceFiles == 0:
		return "chore"
	default:
		return "feat"
	}
}

func changedPaths(c *models.Context) string {
	var b strings.Builder
	for _, f := range c.Code.ChangedFiles {
		b.WriteString("- ")
		b.WriteString(f.Path)
		b.WriteString("\n")
	}
	return b.String()
}
