// Package gitops is the version-control probe: a narrow git abstraction
// used by the context analyzer for reads and by the commit workflow for
// stage/commit/push. Every operation shells out to git in the repository
// directory and wraps failures with the invoked intent.
package gitops

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ManagementMO/CodeScribe-sub000/internal/logging"
	"github.com/ManagementMO/CodeScribe-sub000/pkg/models"
)

// Runner executes git commands in a fixed working directory.
type Runner struct {
	dir string
}

// NewRunner returns a Runner operating on the repository at dir.
func NewRunner(dir string) *Runner {
	return &Runner{dir: dir}
}

// Dir returns the repository directory the runner operates on.
func (r *Runner) Dir() string {
	return r.dir
}

// run executes git with the given arguments and returns trimmed stdout.
func (r *Runner) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return strings.TrimSpace(string(out)), nil
}

// CurrentBranch returns the checked-out branch name.
func (r *Runner) CurrentBranch(ctx context.Context) (string, error) {
	out, err := r.run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", fmt.Errorf("failed to read current branch: %w", err)
	}
	return out, nil
}

// RemoteURL returns the origin remote URL.
func (r *Runner) RemoteURL(ctx context.Context) (string, error) {
	out, err := r.run(ctx, "config", "--get", "remote.origin.url")
	if err != nil {
		return "", fmt.Errorf("failed to read remote url: %w", err)
	}
	return out, nil
}

// RevParse resolves a ref to a commit hash.
func (r *Runner) RevParse(ctx context.Context, ref string) (string, error) {
	out, err := r.run(ctx, "rev-parse", "--verify", ref)
	if err != nil {
		return "", fmt.Errorf("failed to resolve ref %s: %w", ref, err)
	}
	return out, nil
}

// MergeBase returns the most recent common ancestor of two refs.
func (r *Runner) MergeBase(ctx context.Context, ref1, ref2 string) (string, error) {
	out, err := r.run(ctx, "merge-base", ref1, ref2)
	if err != nil {
		return "", fmt.Errorf("failed to find merge base of %s and %s: %w", ref1, ref2, err)
	}
	return out, nil
}

// Diff returns the textual diff of the working copy against base.
func (r *Runner) Diff(ctx context.Context, base string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "diff", base)
	cmd.Dir = r.dir
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to diff against %s: %w", base, err)
	}
	return string(out), nil
}

// DiffStat returns the files/insertions/deletions summary against base.
func (r *Runner) DiffStat(ctx context.Context, base string) (models.DiffStats, error) {
	out, err := r.run(ctx, "diff", "--shortstat", base)
	if err != nil {
		return models.DiffStats{}, fmt.Errorf("failed to read diff stats against %s: %w", base, err)
	}
	return ParseShortStat(out), nil
}

// ParseShortStat parses the output of git diff --shortstat, e.g.
// " 3 files changed, 40 insertions(+), 5 deletions(-)".
func ParseShortStat(out string) models.DiffStats {
	var stats models.DiffStats
	for _, part := range strings.Split(out, ",") {
		fields := strings.Fields(strings.TrimSpace(part))
		if len(fields) < 2 {
			continue
		}
		n, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		switch {
		case strings.HasPrefix(fields[1], "file"):
			stats.FilesChanged = n
		case strings.HasPrefix(fields[1], "insertion"):
			stats.Insertions = n
		case strings.HasPrefix(fields[1], "deletion"):
			stats.Deletions = n
		}
	}
	return stats
}

// NameStatus returns the per-file change status against base.
func (r *Runner) NameStatus(ctx context.Context, base string) ([]models.ChangedFile, error) {
	out, err := r.run(ctx, "diff", "--name-status", base)
	if err != nil {
		return nil, fmt.Errorf("failed to read name-status diff against %s: %w", base, err)
	}
	return ParseNameStatus(out), nil
}

// ParseNameStatus converts name-status output into changed-file records.
// Renames and copies report the destination path.
func ParseNameStatus(out string) []models.ChangedFile {
	var files []models.ChangedFile
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			continue
		}
		status := statusFromCode(fields[0])
		path := fields[1]
		if (status == models.StatusRenamed || status == models.StatusCopied) && len(fields) > 2 {
			path = fields[2]
		}
		ext := strings.ToLower(filepath.Ext(path))
		files = append(files, models.ChangedFile{
			Path:         path,
			Status:       status,
			Extension:    ext,
			IsJavaScript: IsJavaScriptExt(ext),
			IsConfig:     IsConfigPath(path),
			IsTest:       IsTestPath(path),
		})
	}
	return files
}

func statusFromCode(code string) models.FileStatus {
	switch {
	case strings.HasPrefix(code, "A"):
		return models.StatusAdded
	case strings.HasPrefix(code, "D"):
		return models.StatusDeleted
	case strings.HasPrefix(code, "R"):
		return models.StatusRenamed
	case strings.HasPrefix(code, "C"):
		return models.StatusCopied
	case strings.HasPrefix(code, "U"):
		return models.StatusUnmerged
	default:
		return models.StatusModified
	}
}

// javascriptExtensions are the source extensions the analyzer parses.
var javascriptExtensions = map[string]bool{
	".js": true, ".jsx": true, ".ts": true, ".tsx": true, ".mjs": true, ".cjs": true,
}

// IsJavaScriptExt reports whether ext is an ECMAScript source extension.
func IsJavaScriptExt(ext string) bool {
	return javascriptExtensions[ext]
}

// IsConfigPath reports whether path looks like a configuration file.
func IsConfigPath(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	switch base {
	case "package.json", "package-lock.json", "tsconfig.json", "jsconfig.json",
		"babel.config.js", ".babelrc", ".eslintrc", ".eslintrc.js", ".eslintrc.json",
		".prettierrc", "jest.config.js", "webpack.config.js", "vite.config.js",
		"vite.config.ts", "rollup.config.js", "dockerfile", "docker-compose.yml",
		"makefile", ".env", ".env.example":
		return true
	}
	ext := filepath.Ext(base)
	return ext == ".yml" || ext == ".yaml" || ext == ".toml" || ext == ".ini"
}

// IsTestPath reports whether path looks like a test file: a source file
// named *.test.<ext> or *.spec.<ext>, or anything under a tests directory.
func IsTestPath(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	ext := filepath.Ext(base)
	if IsJavaScriptExt(ext) {
		stem := strings.TrimSuffix(base, ext)
		if strings.HasSuffix(stem, ".test") || strings.HasSuffix(stem, ".spec") {
			return true
		}
	}
	for _, seg := range strings.Split(filepath.ToSlash(path), "/") {
		switch strings.ToLower(seg) {
		case "__tests__", "test", "tests":
			return true
		}
	}
	return false
}

// CommitsSince lists commits reachable from HEAD but not from ref.
func (r *Runner) CommitsSince(ctx context.Context, ref string) ([]models.Commit, error) {
	out, err := r.run(ctx, "log", "--format=%H|%h|%s|%an|%aI", ref+"..HEAD")
	if err != nil {
		return nil, fmt.Errorf("failed to list commits since %s: %w", ref, err)
	}
	return ParseCommitLog(out), nil
}

// ParseCommitLog parses log output in the %H|%h|%s|%an|%aI format.
func ParseCommitLog(out string) []models.Commit {
	var commits []models.Commit
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, "|", 5)
		if len(fields) < 5 {
			continue
		}
		date, _ := time.Parse(time.RFC3339, fields[4])
		commits = append(commits, models.Commit{
			Hash:      fields[0],
			ShortHash: fields[1],
			Subject:   fields[2],
			Author:    fields[3],
			Date:      date,
		})
	}
	return commits
}

// CommitDate returns the author date of a commit.
func (r *Runner) CommitDate(ctx context.Context, rev string) (time.Time, error) {
	out, err := r.run(ctx, "show", "-s", "--format=%aI", rev)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read commit date of %s: %w", rev, err)
	}
	t, err := time.Parse(time.RFC3339, out)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse commit date of %s: %w", rev, err)
	}
	return t, nil
}

// CountCommits counts commits in the range ref..HEAD.
func (r *Runner) CountCommits(ctx context.Context, ref string, mergesOnly bool) (int, error) {
	args := []string{"rev-list", "--count"}
	if mergesOnly {
		args = append(args, "--merges")
	}
	args = append(args, ref+"..HEAD")
	out, err := r.run(ctx, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to count commits since %s: %w", ref, err)
	}
	n, err := strconv.Atoi(out)
	if err != nil {
		return 0, fmt.Errorf("failed to parse commit count %q: %w", out, err)
	}
	return n, nil
}

// AheadBehind returns how many commits HEAD is ahead of and behind ref.
func (r *Runner) AheadBehind(ctx context.Context, ref string) (ahead, behind int, err error) {
	out, err := r.run(ctx, "rev-list", "--left-right", "--count", "HEAD..."+ref)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to compare HEAD with %s: %w", ref, err)
	}
	fields := strings.Fields(out)
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("unexpected rev-list output %q", out)
	}
	ahead, err = strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, fmt.Errorf("failed to parse ahead count %q: %w", fields[0], err)
	}
	behind, err = strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, fmt.Errorf("failed to parse behind count %q: %w", fields[1], err)
	}
	return ahead, behind, nil
}

// FilesChangedBetween lists the files changed between two revisions.
func (r *Runner) FilesChangedBetween(ctx context.Context, from, to string) ([]string, error) {
	out, err := r.run(ctx, "diff", "--name-only", from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list files changed between %s and %s: %w", from, to, err)
	}
	var files []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			files = append(files, line)
		}
	}
	return files, nil
}

// RemoteBranchExists reports whether origin has a branch with this name.
func (r *Runner) RemoteBranchExists(ctx context.Context, branch string) bool {
	out, err := r.run(ctx, "ls-remote", "--heads", "origin", branch)
	return err == nil && out != ""
}

// Push pushes the branch to origin. If the push is rejected because the
// remote branch does not exist, it retries with upstream creation.
func (r *Runner) Push(ctx context.Context, branch string) error {
	if _, err := r.run(ctx, "push", "origin", branch); err == nil {
		return nil
	}
	if _, err := r.run(ctx, "push", "--set-upstream", "origin", branch); err != nil {
		return fmt.Errorf("failed to push branch %s: %w", branch, err)
	}
	return nil
}

// HasUncommittedChanges reports whether the working copy is dirty.
func (r *Runner) HasUncommittedChanges(ctx context.Context) (bool, error) {
	out, err := r.run(ctx, "status", "--porcelain")
	if err != nil {
		return false, fmt.Errorf("failed to read working copy status: %w", err)
	}
	return out != "", nil
}

// StageAll stages every change in the working copy.
func (r *Runner) StageAll(ctx context.Context) error {
	if _, err := r.run(ctx, "add", "-A"); err != nil {
		return fmt.Errorf("failed to stage changes: %w", err)
	}
	return nil
}

// StageModified stages tracked modified and deleted files only.
func (r *Runner) StageModified(ctx context.Context) error {
	if _, err := r.run(ctx, "add", "-u"); err != nil {
		return fmt.Errorf("failed to stage modified files: %w", err)
	}
	return nil
}

// Commit records the staged changes with the given message.
func (r *Runner) Commit(ctx context.Context, message string) error {
	if _, err := r.run(ctx, "commit", "-m", message); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// WorkingFileContent reads a file at its working-copy version.
func (r *Runner) WorkingFileContent(path string) (string, error) {
	data, err := os.ReadFile(filepath.Join(r.dir, path))
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

// MergeSimulation is the outcome of a scratch-branch merge attempt.
type MergeSimulation struct {
	Performed     bool
	ConflictFiles []string
}

// SimulateMerge attempts a merge of ref into HEAD on an ephemeral scratch
// branch and aborts it, reporting conflicting files. It refuses to run on a
// dirty working copy. All paths restore the starting branch and delete the
// scratch branch.
func (r *Runner) SimulateMerge(ctx context.Context, ref string) (MergeSimulation, error) {
	dirty, err := r.HasUncommittedChanges(ctx)
	if err != nil {
		return MergeSimulation{}, err
	}
	if dirty {
		return MergeSimulation{}, fmt.Errorf("cannot simulate merge: working copy has uncommitted changes")
	}

	original, err := r.CurrentBranch(ctx)
	if err != nil {
		return MergeSimulation{}, err
	}

	scratch := "codescribe-merge-check-" + uuid.NewString()[:8]
	if _, err := r.run(ctx, "checkout", "-b", scratch); err != nil {
		return MergeSimulation{}, fmt.Errorf("failed to create scratch branch: %w", err)
	}

	var conflicts []string
	_, mergeErr := r.run(ctx, "merge", "--no-commit", "--no-ff", ref)
	if mergeErr != nil {
		if out, err := r.run(ctx, "diff", "--name-only", "--diff-filter=U"); err == nil {
			for _, line := range strings.Split(out, "\n") {
				if line = strings.TrimSpace(line); line != "" {
					conflicts = append(conflicts, line)
				}
			}
		}
	}

	// Abort may fail when the merge never started; restoring the branch
	// matters more than the abort result.
	if _, err := r.run(ctx, "merge", "--abort"); err != nil {
		logging.Debug("merge abort failed", "error", err)
	}
	if _, err := r.run(ctx, "checkout", original); err != nil {
		return MergeSimulation{}, fmt.Errorf("failed to restore branch %s: %w", original, err)
	}
	if _, err := r.run(ctx, "branch", "-D", scratch); err != nil {
		logging.Warn("failed to delete scratch branch", "branch", scratch, "error", err)
	}

	return MergeSimulation{Performed: true, ConflictFiles: conflicts}, nil
}
