// Package analyzer produces the Context: a deterministic snapshot of the
// working copy covering branch state, the diff against the integration
// branch, parsed source facts, dependency deltas, security findings,
// conflict prediction, and project structure. It is the only component that
// reads the version-control probe and walks the filesystem; no remote
// service is contacted during gathering.
package analyzer

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/ManagementMO/CodeScribe-sub000/internal/config"
	"github.com/ManagementMO/CodeScribe-sub000/internal/gitops"
	"github.com/ManagementMO/CodeScribe-sub000/internal/logging"
	"github.com/ManagementMO/CodeScribe-sub000/pkg/models"
)

// ticketPattern matches issue-tracker identifiers like ABC-12.
var ticketPattern = regexp.MustCompile(`[A-Z]+-\d+`)

// NoChangesError reports an empty diff against the integration branch.
type NoChangesError struct {
	Base string
}

func (e *NoChangesError) Error() string {
	return fmt.Sprintf("no changes detected against %s", e.Base)
}

// BranchNamingError reports a branch name without a ticket identifier.
type BranchNamingError struct {
	Branch string
}

func (e *BranchNamingError) Error() string {
	return fmt.Sprintf("branch %q does not contain a ticket identifier (expected e.g. ABC-123)", e.Branch)
}

// Probe is the version-control surface the analyzer reads. *gitops.Runner
// implements it.
type Probe interface {
	Dir() string
	CurrentBranch(ctx context.Context) (string, error)
	RemoteURL(ctx context.Context) (string, error)
	RevParse(ctx context.Context, ref string) (string, error)
	MergeBase(ctx context.Context, ref1, ref2 string) (string, error)
	Diff(ctx context.Context, base string) (string, error)
	DiffStat(ctx context.Context, base string) (models.DiffStats, error)
	NameStatus(ctx context.Context, base string) ([]models.ChangedFile, error)
	CommitsSince(ctx context.Context, ref string) ([]models.Commit, error)
	CommitDate(ctx context.Context, rev string) (time.Time, error)
	CountCommits(ctx context.Context, ref string, mergesOnly bool) (int, error)
	AheadBehind(ctx context.Context, ref string) (ahead, behind int, err error)
	FilesChangedBetween(ctx context.Context, from, to string) ([]string, error)
	RemoteBranchExists(ctx context.Context, branch string) bool
	Push(ctx context.Context, branch string) error
	HasUncommittedChanges(ctx context.Context) (bool, error)
	SimulateMerge(ctx context.Context, ref string) (gitops.MergeSimulation, error)
	WorkingFileContent(path string) (string, error)
}

// Analyzer gathers the Context for one invocation.
type Analyzer struct {
	probe Probe
	cfg   *config.Config

	// now is swappable in tests.
	now func() time.Time
}

// New creates an Analyzer over the given probe.
func New(probe Probe, cfg *config.Config) *Analyzer {
	return &Analyzer{probe: probe, cfg: cfg, now: time.Now}
}

// Gather produces the complete Context. It fails with NoChangesError when
// the diff against the integration branch is empty and with
// BranchNamingError when the branch name carries no ticket identifier.
func (a *Analyzer) Gather(ctx context.Context) (*models.Context, error) {
	result := &models.Context{}

	gitCtx, err := a.collectGitContext(ctx)
	if err != nil {
		return nil, err
	}
	result.Git = *gitCtx

	codeCtx, err := a.analyzeCode(ctx, gitCtx.Diff)
	if err != nil {
		return nil, err
	}
	// Security updates are the dependency updates that touch a package
	// flagged by the audit.
	markSecurityUpdates(&codeCtx.Dependencies, codeCtx.Security)
	result.Code = *codeCtx

	projectCtx, err := a.analyzeProject()
	if err != nil {
		return nil, err
	}
	result.Project = *projectCtx

	ticketID := ticketPattern.FindString(gitCtx.Branch)
	if ticketID == "" {
		return nil, &BranchNamingError{Branch: gitCtx.Branch}
	}
	result.Ticket = models.TicketContext{ID: ticketID}

	logging.Info("context gathered",
		"branch", gitCtx.Branch,
		"ticket", ticketID,
		"changed_files", len(codeCtx.ChangedFiles),
		"complexity", codeCtx.Complexity.Level)
	return result, nil
}

// ParseTicketID extracts the first ticket identifier from a branch name.
func ParseTicketID(branch string) string {
	return ticketPattern.FindString(branch)
}

func markSecurityUpdates(delta *models.DependencyDelta, security models.SecurityReport) {
	flagged := make(map[string]bool)
	for _, v := range security.Vulnerabilities {
		if v.Package != "" {
			flagged[v.Package] = true
		}
	}
	for _, upd := range delta.Updated {
		if flagged[upd.Name] {
			delta.SecurityUpdates = append(delta.SecurityUpdates, upd)
		}
	}
}

// integrationRef returns the remote ref of the configured integration
// branch, e.g. origin/main.
func (a *Analyzer) integrationRef() string {
	branch := a.cfg.Git.DefaultBranch
	if branch == "" {
		branch = "main"
	}
	return "origin/" + branch
}
