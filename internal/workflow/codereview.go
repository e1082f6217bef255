package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/ManagementMO/CodeScribe-sub000/internal/config"
	"github.com/ManagementMO/CodeScribe-sub000/internal/github"
	"github.com/ManagementMO/CodeScribe-sub000/internal/logging"
	"github.com/ManagementMO/CodeScribe-sub000/pkg/models"
)

// reviewHost is the hosted-VCS surface the workflow drives. *github.Client
// implements it.
type reviewHost interface {
	ListOpenByHead(ctx context.Context, branch string) ([]github.PullRequest, error)
	Get(ctx context.Context, number int) (github.PullRequest, error)
	Create(ctx context.Context, title, body, branch, base string, draft bool) (github.PullRequest, error)
	Update(ctx context.Context, number int, title, body string) (github.PullRequest, error)
}

// generator is the text-synthesis surface; *ai.Client implements it.
type generator interface {
	GenerateWithFallback(ctx context.Context, prompt string, fallback func() string) string
}

// CodeReviewWorkflow creates or updates the pull request for the branch.
type CodeReviewWorkflow struct {
	cfg *config.Config
	ai  generator

	// newHost is swappable in tests.
	newHost func(cfg config.GitHubConfig, remoteURL string) (reviewHost, error)
}

// NewCodeReviewWorkflow builds the code-review workflow.
func NewCodeReviewWorkflow(cfg *config.Config, gen generator) *CodeReviewWorkflow {
	return &CodeReviewWorkflow{
		cfg: cfg,
		ai:  gen,
		newHost: func(gh config.GitHubConfig, remoteURL string) (reviewHost, error) {
			return github.NewClient(gh, remoteURL)
		},
	}
}

func (w *CodeReviewWorkflow) Name() string          { return "code-review" }
func (w *CodeReviewWorkflow) Critical() bool        { return true }
func (w *CodeReviewWorkflow) Dependencies() []string { return nil }
func (w *CodeReviewWorkflow) Parallel() bool        { return false }

func (w *CodeReviewWorkflow) IsEnabled() bool {
	return w.cfg.Workflows.CodeReview.Enabled
}

func (w *CodeReviewWorkflow) CanExecute(c *models.Context) (bool, string) {
	if w.cfg.GitHub.Token == "" {
		return false, "GITHUB_TOKEN is not configured"
	}
	if !c.Code.HasChanges {
		return false, "no changes to review"
	}
	return true, ""
}

// Execute finds the open pull request for the head branch and updates it, or
// creates a new one when none exists. At most one open pull request per head
// branch ever results.
func (w *CodeReviewWorkflow) Execute(ctx context.Context, c *models.Context, opts Options) (any, error) {
	host, err := w.newHost(w.cfg.GitHub, c.Git.RemoteURL)
	if err != nil {
		return nil, err
	}

	title := w.reviewTitle(ctx, c)
	body := w.reviewBody(ctx, c)

	existing, err := host.ListOpenByHead(ctx, c.Git.Branch)
	if err != nil {
		return nil, err
	}

	var pr github.PullRequest
	action := "created"
	if len(existing) > 0 {
		pr, err = host.Update(ctx, existing[0].Number, title, body)
		action = "updated"
	} else {
		pr, err = host.Create(ctx, title, body, c.Git.Branch, w.cfg.Git.DefaultBranch, w.cfg.Workflows.CodeReview.CreateDraft)
	}
	if err != nil {
		return nil, err
	}

	if action == "updated" {
		// The update response carries no review state; a changes-requested
		// review without inline comments is only visible through Get.
		if full, getErr := host.Get(ctx, pr.Number); getErr == nil {
			pr.ChangesRequested = full.ChangesRequested
			pr.ReviewComments = full.ReviewComments
			pr.Merged = pr.Merged || full.Merged
		} else {
			logging.Warn("failed to read review state", "number", pr.Number, "error", getErr)
		}
	}

	return &models.CodeReviewResult{
		Number:           pr.Number,
		URL:              pr.URL,
		Title:            pr.Title,
		Action:           action,
		State:            pr.State,
		Draft:            pr.Draft,
		Merged:           pr.Merged,
		ChangesRequested: pr.ChangesRequested,
		ReviewComments:   pr.ReviewComments,
	}, nil
}

func (w *CodeReviewWorkflow) reviewTitle(ctx context.Context, c *models.Context) string {
	fallback := func() string { return fallbackTitle(c) }
	if w.ai == nil {
		return fallback()
	}
	prompt := fmt.Sprintf(
		"Write a pull request title (one line, at most 70 characters, no quotes) for ticket %s covering these commits:\n%s",
		c.Ticket.ID, commitSubjects(c))
	title := strings.TrimSpace(w.ai.GenerateWithFallback(ctx, prompt, fallback))
	if title == "" {
		return fallback()
	}
	return firstLine(title)
}

func (w *CodeReviewWorkflow) reviewBody(ctx context.Context, c *models.Context) string {
	fallback := func() string { return templateBody(c) }
	if w.ai == nil {
		return fallback()
	}
	prompt := fmt.Sprintf(
		"Write a concise pull request description in markdown for ticket %s. "+
			"Changes: %d files (+%d/-%d). Commits:\n%s\nKeep it factual, no preamble.",
		c.Ticket.ID, c.Git.DiffStats.FilesChanged, c.Git.DiffStats.Insertions,
		c.Git.DiffStats.Deletions, commitSubjects(c))
	body := strings.TrimSpace(w.ai.GenerateWithFallback(ctx, prompt, fallback))
	if body == "" {
		return fallback()
	}
	return body
}

// fallbackTitle derives a title from the ticket and the most recent commit
// subject, falling back to the branch name. Commit subjects that already
// name the ticket are kept as-is; branch names always get the prefix since
// the embedded ticket slug is not a visible tag.
func fallbackTitle(c *models.Context) string {
	if len(c.Git.Commits) > 0 {
		subject := c.Git.Commits[0].Subject
		if c.Ticket.ID != "" && !strings.Contains(subject, c.Ticket.ID) {
			return fmt.Sprintf("[%s] %s", c.Ticket.ID, subject)
		}
		return subject
	}
	if c.Ticket.ID != "" {
		return fmt.Sprintf("[%s] %s", c.Ticket.ID, c.Git.Branch)
	}
	return c.Git.Branch
}

// templateBody renders the structured description used when generation is
// unavailable.
func templateBody(c *models.Context) string {
	var b strings.Builder

	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "Changes for **%s** on `%s`.\n\n", c.Ticket.ID, c.Git.Branch)

	b.WriteString("## Changes\n\n")
	fmt.Fprintf(&b, "- %d files changed (+%d/-%d)\n",
		c.Git.DiffStats.FilesChanged, c.Git.DiffStats.Insertions, c.Git.DiffStats.Deletions)
	fmt.Fprintf(&b, "- %d commits on the branch\n", len(c.Git.Commits))
	for _, commit := range c.Git.Commits {
		fmt.Fprintf(&b, "  - %s %s\n", commit.ShortHash, commit.Subject)
	}

	fmt.Fprintf(&b, "\n## Complexity\n\n%s (average score %.1f across %d scored files)\n",
		c.Code.Complexity.Level, c.Code.Complexity.AverageScore, len(c.Code.Complexity.Files))

	fmt.Fprintf(&b, "\n## Security\n\nRisk level: %s", c.Code.Security.RiskLevel)
	if n := len(c.Code.Security.Vulnerabilities); n > 0 {
		fmt.Fprintf(&b, " (%d findings)", n)
	}
	b.WriteString("\n")

	deps := c.Code.Dependencies
	if len(deps.Added)+len(deps.Updated)+len(deps.Removed) > 0 {
		b.WriteString("\n## Dependencies\n\n")
		for _, dep := range deps.Added {
			fmt.Fprintf(&b, "- added %s %s\n", dep.Name, dep.NewVersion)
		}
		for _, dep := range deps.Updated {
			fmt.Fprintf(&b, "- updated %s %s -> %s\n", dep.Name, dep.OldVersion, dep.NewVersion)
		}
		for _, dep := range deps.Removed {
			fmt.Fprintf(&b, "- removed %s\n", dep.Name)
		}
		for _, dep := range deps.BreakingChanges {
			fmt.Fprintf(&b, "- ⚠️ breaking: %s %s -> %s\n", dep.Name, dep.OldVersion, dep.NewVersion)
		}
	}

	fmt.Fprintf(&b, "\n---\nTicket: %s\n", c.Ticket.ID)
	return b.String()
}

func commitSubjects(c *models.Context) string {
	var b strings.Builder
	for _, commit := range c.Git.Commits {
		b.WriteString("- ")
		b.WriteString(commit.Subject)
		b.WriteString("\n")
	}
	return b.String()
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return s
}
