package analyzer

import (
	"context"
	"fmt"
	"strings"

	"github.com/ManagementMO/CodeScribe-sub000/internal/logging"
	"github.com/ManagementMO/CodeScribe-sub000/pkg/models"
)

// analyzeCode enumerates the changed files and derives complexity,
// security, and dependency reports from their working-copy contents and
// the diff gathered by the git pass.
func (a *Analyzer) analyzeCode(ctx context.Context, diff string) (*models.CodeContext, error) {
	base := a.integrationRef()

	files, err := a.probe.NameStatus(ctx, base)
	if err != nil {
		return nil, fmt.Errorf("code analysis failed: %w", err)
	}

	code := &models.CodeContext{
		HasChanges:   len(files) > 0,
		ChangedFiles: files,
	}

	var sources []sourceFile
	for _, f := range files {
		if f.Status == models.StatusDeleted || !f.IsJavaScript {
			continue
		}
		content, err := a.probe.WorkingFileContent(f.Path)
		if err != nil {
			logging.Debug("skipping unreadable file", "path", f.Path, "error", err)
			continue
		}
		sources = append(sources, sourceFile{path: f.Path, content: content})
	}

	code.Complexity, code.Source = analyzeComplexity(sources)
	code.Security = a.scanSecurity(sources)
	code.Dependencies = ParseManifestDiff(diff)
	code.Metrics = computeMetrics(files)

	if stats, err := a.probe.DiffStat(ctx, base); err == nil {
		code.Metrics.Additions = stats.Insertions
		code.Metrics.Deletions = stats.Deletions
	}

	return code, nil
}

type sourceFile struct {
	path    string
	content string
}

// analyzeComplexity parses each source file and scores it. Files that fail
// to parse are estimated from their line count.
func analyzeComplexity(sources []sourceFile) (models.ComplexityReport, []models.FileFacts) {
	var report models.ComplexityReport
	var facts []models.FileFacts

	for _, src := range sources {
		fc, ff, err := scoreSource(src.path, src.content)
		if err != nil {
			lines := countLines(src.content)
			fc = models.FileComplexity{
				Path:      src.path,
				Score:     lines / 20,
				Lines:     lines,
				Issues:    []string{fmt.Sprintf("parse failed: %v", err)},
				Estimated: true,
			}
		} else {
			facts = append(facts, ff)
		}
		report.Files = append(report.Files, fc)
		report.TotalScore += fc.Score
	}

	if len(report.Files) > 0 {
		report.AverageScore = float64(report.TotalScore) / float64(len(report.Files))
	}
	report.Level = models.ComplexityLevelFor(report.AverageScore)
	return report, facts
}

func countLines(content string) int {
	if content == "" {
		return 0
	}
	return strings.Count(content, "\n") + 1
}

func computeMetrics(files []models.ChangedFile) models.CodeMetrics {
	metrics := models.CodeMetrics{TotalFiles: len(files)}
	for _, f := range files {
		switch {
		case f.IsTest:
			metrics.TestFiles++
		case f.IsConfig:
			metrics.ConfigFiles++
		case f.IsJavaScript:
			metrics.SourceFiles++
		}
	}
	return metrics
}
