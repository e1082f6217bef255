package analyzer

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ManagementMO/CodeScribe-sub000/internal/logging"
	"github.com/ManagementMO/CodeScribe-sub000/pkg/models"
)

// conventionalPattern matches conventional commit subjects.
var conventionalPattern = regexp.MustCompile(`^(feat|fix|docs|style|refactor|perf|test|chore|ci|build|revert)(\(.+\))?: .+`)

// breakingTypePattern matches a "!" marker in the commit type.
var breakingTypePattern = regexp.MustCompile(`^[a-z]+(\(.+\))?!:`)

// kebabPattern matches the branch name with its ticket identifier removed.
var kebabPattern = regexp.MustCompile(`^[a-z0-9/-]*$`)

// branchTypePrefixes are the accepted branch type prefixes.
var branchTypePrefixes = []string{"feature", "feat", "fix", "hotfix", "bugfix", "chore", "docs", "refactor", "test"}

// collectGitContext reads the branch state from the probe. Local commits
// missing on the remote are pushed first so the review host sees the same
// history; push failures are downgraded to warnings.
func (a *Analyzer) collectGitContext(ctx context.Context) (*models.GitContext, error) {
	base := a.integrationRef()

	branch, err := a.probe.CurrentBranch(ctx)
	if err != nil {
		return nil, fmt.Errorf("git context gathering failed: %w", err)
	}
	remoteURL, err := a.probe.RemoteURL(ctx)
	if err != nil {
		return nil, fmt.Errorf("git context gathering failed: %w", err)
	}

	a.pushIfNeeded(ctx, branch)

	diff, err := a.probe.Diff(ctx, base)
	if err != nil {
		return nil, fmt.Errorf("git context gathering failed: %w", err)
	}
	if strings.TrimSpace(diff) == "" {
		return nil, &NoChangesError{Base: base}
	}

	stats, err := a.probe.DiffStat(ctx, base)
	if err != nil {
		return nil, fmt.Errorf("git context gathering failed: %w", err)
	}

	mergeBase, err := a.probe.MergeBase(ctx, base, "HEAD")
	if err != nil {
		return nil, fmt.Errorf("git context gathering failed: %w", err)
	}

	commits, err := a.probe.CommitsSince(ctx, mergeBase)
	if err != nil {
		return nil, fmt.Errorf("git context gathering failed: %w", err)
	}

	gitCtx := &models.GitContext{
		Branch:    branch,
		RemoteURL: remoteURL,
		Diff:      diff,
		DiffStats: stats,
		Commits:   commits,
	}

	gitCtx.BranchHistory = a.branchHistory(ctx, mergeBase, commits)
	gitCtx.MergeBase = a.mergeBaseAnalysis(ctx, base, mergeBase)
	gitCtx.Conflicts = a.predictConflicts(ctx, base, mergeBase)
	gitCtx.CommitAnalysis = AnalyzeCommits(commits)
	gitCtx.BranchValidation = ValidateBranchName(branch)

	return gitCtx, nil
}

// pushIfNeeded pushes local commits the remote has not seen, creating the
// remote branch with upstream when it does not exist. Failures never abort
// the analysis.
func (a *Analyzer) pushIfNeeded(ctx context.Context, branch string) {
	if !a.cfg.Git.AutoPush {
		return
	}
	if !a.probe.RemoteBranchExists(ctx, branch) {
		if err := a.probe.Push(ctx, branch); err != nil {
			logging.Warn("failed to create remote branch", "branch", branch, "error", err)
		}
		return
	}
	ahead, _, err := a.probe.AheadBehind(ctx, "origin/"+branch)
	if err != nil {
		logging.Warn("failed to compare with remote branch", "branch", branch, "error", err)
		return
	}
	if ahead > 0 {
		if err := a.probe.Push(ctx, branch); err != nil {
			logging.Warn("failed to push local commits", "branch", branch, "error", err)
		}
	}
}

func (a *Analyzer) branchHistory(ctx context.Context, mergeBase string, commits []models.Commit) models.BranchHistory {
	history := models.BranchHistory{
		CreationPoint: mergeBase,
		CommitCount:   len(commits),
	}
	if created, err := a.probe.CommitDate(ctx, mergeBase); err == nil {
		history.CreatedAt = created
		history.AgeDays = int(a.now().Sub(created).Hours() / 24)
	} else {
		logging.Debug("failed to read branch creation date", "error", err)
	}
	if merges, err := a.probe.CountCommits(ctx, mergeBase, true); err == nil {
		history.MergeCount = merges
	}
	return history
}

func (a *Analyzer) mergeBaseAnalysis(ctx context.Context, base, mergeBase string) models.MergeBaseAnalysis {
	analysis := models.MergeBaseAnalysis{MergeBase: mergeBase}
	ahead, behind, err := a.probe.AheadBehind(ctx, base)
	if err != nil {
		logging.Debug("failed to compute ahead/behind", "error", err)
		return analysis
	}
	analysis.Ahead = ahead
	analysis.Behind = behind
	analysis.NeedsRebase = behind > 0
	if head, err := a.probe.RevParse(ctx, base); err == nil {
		analysis.IsUpToDate = head == mergeBase
	}
	return analysis
}

// predictConflicts first tries a scratch-branch merge simulation and falls
// back to intersecting the files changed on both sides of the merge-base.
func (a *Analyzer) predictConflicts(ctx context.Context, base, mergeBase string) models.ConflictPrediction {
	if sim, err := a.probe.SimulateMerge(ctx, base); err == nil && sim.Performed {
		return models.ConflictPrediction{
			Method:        "merge-simulation",
			ConflictCount: len(sim.ConflictFiles),
			Files:         sim.ConflictFiles,
			RiskLevel:     conflictRisk(len(sim.ConflictFiles)),
		}
	} else if err != nil {
		logging.Debug("merge simulation unavailable, using file intersection", "error", err)
	}

	branchFiles, err := a.probe.FilesChangedBetween(ctx, mergeBase, "HEAD")
	if err != nil {
		logging.Warn("conflict prediction failed", "error", err)
		return models.ConflictPrediction{Method: "none", RiskLevel: models.RiskLow}
	}
	integrationFiles, err := a.probe.FilesChangedBetween(ctx, mergeBase, base)
	if err != nil {
		logging.Warn("conflict prediction failed", "error", err)
		return models.ConflictPrediction{Method: "none", RiskLevel: models.RiskLow}
	}

	overlap := intersect(branchFiles, integrationFiles)
	return models.ConflictPrediction{
		Method:        "file-intersection",
		ConflictCount: len(overlap),
		Files:         overlap,
		RiskLevel:     conflictRisk(len(overlap)),
	}
}

func conflictRisk(count int) models.RiskLevel {
	switch {
	case count == 0:
		return models.RiskLow
	case count <= 2:
		return models.RiskMedium
	default:
		return models.RiskHigh
	}
}

func intersect(a, b []string) []string {
	set := make(map[string]bool, len(a))
	for _, f := range a {
		set[f] = true
	}
	var out []string
	for _, f := range b {
		if set[f] {
			out = append(out, f)
			set[f] = false
		}
	}
	return out
}

// AnalyzeCommits summarizes commit-message hygiene: conventional-commit
// conformance, subject length, and breaking-change markers.
func AnalyzeCommits(commits []models.Commit) models.CommitAnalysis {
	analysis := models.CommitAnalysis{Total: len(commits)}
	for _, c := range commits {
		subject := c.Subject
		if conventionalPattern.MatchString(subject) {
			analysis.Conventional++
		}
		if len(subject) < 10 {
			analysis.ShortMessages = append(analysis.ShortMessages, subject)
		} else if len(subject) > 72 {
			analysis.LongMessages = append(analysis.LongMessages, subject)
		}
		if strings.Contains(subject, "BREAKING CHANGE:") || breakingTypePattern.MatchString(subject) {
			analysis.BreakingChanges = append(analysis.BreakingChanges, subject)
		}
	}
	return analysis
}

// ValidateBranchName checks the branch naming convention: a ticket
// identifier, a recognized type prefix, a descriptive kebab-case part, and
// an overall length of at most 50 characters.
func ValidateBranchName(branch string) models.BranchValidation {
	validation := models.BranchValidation{Valid: true}

	validation.TicketID = ticketPattern.FindString(branch)
	if validation.TicketID == "" {
		validation.Valid = false
		validation.Issues = append(validation.Issues, "missing ticket identifier (e.g. ABC-123)")
	}

	for _, prefix := range branchTypePrefixes {
		if strings.HasPrefix(branch, prefix+"/") {
			validation.Type = prefix
			break
		}
	}
	if validation.Type == "" {
		validation.Valid = false
		validation.Issues = append(validation.Issues, "missing type prefix (feature/, fix/, chore/, ...)")
	}

	descriptive := branch
	if validation.Type != "" {
		descriptive = strings.TrimPrefix(descriptive, validation.Type+"/")
	}
	if validation.TicketID != "" {
		descriptive = strings.Replace(descriptive, validation.TicketID, "", 1)
	}
	descriptive = strings.Trim(descriptive, "-/")
	if len(descriptive) <= 3 {
		validation.Valid = false
		validation.Issues = append(validation.Issues, "missing descriptive part after the ticket identifier")
	}

	kebab := branch
	if validation.TicketID != "" {
		kebab = strings.Replace(kebab, validation.TicketID, "", 1)
	}
	if !kebabPattern.MatchString(kebab) {
		validation.Valid = false
		validation.Issues = append(validation.Issues, "branch name must be kebab-case")
	}

	if len(branch) > 50 {
		validation.Valid = false
		validation.Issues = append(validation.Issues, "branch name exceeds 50 characters")
	}

	return validation
}
