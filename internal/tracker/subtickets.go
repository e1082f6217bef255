package tracker

import (
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ManagementMO/CodeScribe-sub000/internal/config"
	"github.com/ManagementMO/CodeScribe-sub000/pkg/models"
)

// priorityFor maps a named priority onto the tracker's numeric values.
func priorityFor(name string) int {
	switch name {
	case "urgent":
		return 1
	case "high":
		return 2
	case "medium":
		return 3
	default:
		return 4
	}
}

// baseEstimateHours are the per-type starting estimates before scaling.
var baseEstimateHours = map[models.SubTicketType]int{
	models.SubTicketFunctionalityGroup:  4,
	models.SubTicketComplexityRefactor:  6,
	models.SubTicketSecurityFixes:       3,
	models.SubTicketDependencyMigration: 8,
}

// functionalityBuckets are evaluated in order; the first match wins.
var functionalityBuckets = []struct {
	name     string
	segments []string
}{
	{"api", []string{"api", "routes", "controllers", "endpoints"}},
	{"ui-components", []string{"components", "views", "pages"}},
	{"services", []string{"services", "service"}},
	{"utilities", []string{"utils", "utilities", "helpers", "lib"}},
	{"data-models", []string{"models", "schemas", "entities", "types"}},
	{"testing", []string{"__tests__", "test", "tests"}},
	{"configuration", []string{"config", "configuration"}},
	{"documentation", []string{"docs", "doc"}},
}

// ShouldBreakdown reports whether the change set is complex enough to
// propose sub-tickets: average complexity or file count over the
// configured thresholds, breaking dependency changes, or high security
// risk.
func ShouldBreakdown(c *models.Context, cfg config.IssueTrackerConfig) bool {
	if c.Code.Complexity.AverageScore > cfg.SubTicketComplexityThreshold {
		return true
	}
	if len(c.Code.ChangedFiles) > cfg.SubTicketFileCountThreshold {
		return true
	}
	if len(c.Code.Dependencies.BreakingChanges) > 0 {
		return true
	}
	return c.Code.Security.RiskLevel == models.RiskHigh
}

// BuildSuggestions synthesizes sub-ticket suggestions from the Context.
// The result is deterministic: a pure function of the Context fields.
func BuildSuggestions(c *models.Context, ticket *models.TicketData, project *models.ProjectData) []models.SubTicketSuggestion {
	var suggestions []models.SubTicketSuggestion
	level := c.Code.Complexity.Level
	parent := ticket.Identifier
	projectID := ""
	if project != nil {
		projectID = project.ID
	}

	base := func(t models.SubTicketType, files []string, priority string) models.SubTicketSuggestion {
		return models.SubTicketSuggestion{
			Priority:      priorityFor(priority),
			EstimateHours: scaleEstimate(t, level, len(files)),
			Labels:        []string{"codescribe", string(t)},
			ParentIssueID: ticket.IssueID,
			TeamID:        ticket.TeamID,
			ProjectID:     projectID,
			Metadata: models.SubTicketMetadata{
				Type:         t,
				Files:        files,
				Complexity:   level,
				ParentTicket: parent,
			},
		}
	}

	// Path-based functionality groups with more than two files each.
	for _, group := range groupByFunctionality(c.Code.ChangedFiles) {
		if len(group.files) <= 2 {
			continue
		}
		s := base(models.SubTicketFunctionalityGroup, group.files, "medium")
		s.Title = fmt.Sprintf("%s: split out %s changes", parent, group.name)
		s.Description = fmt.Sprintf(
			"The change set touches %d files in the %s area. Extract these into their own reviewable unit:\n\n%s",
			len(group.files), group.name, bulletList(group.files))
		suggestions = append(suggestions, s)
	}

	// Individually complex files.
	for _, fc := range c.Code.Complexity.Files {
		if fc.Score <= 10 {
			continue
		}
		s := base(models.SubTicketComplexityRefactor, []string{fc.Path}, "medium")
		s.Title = fmt.Sprintf("%s: refactor %s", parent, filepath.Base(fc.Path))
		s.Description = fmt.Sprintf(
			"%s has a complexity score of %d (functions: %d, conditionals: %d, loops: %d, max nesting: %d). Break it into smaller units.",
			fc.Path, fc.Score, fc.Functions, fc.Conditionals, fc.Loops, fc.MaxDepth)
		suggestions = append(suggestions, s)
	}

	// One aggregate ticket for high-severity security findings.
	var securityFiles []string
	seen := map[string]bool{}
	for _, v := range c.Code.Security.Vulnerabilities {
		if v.Severity != models.SeverityHigh {
			continue
		}
		key := v.File
		if key == "" {
			key = v.Package
		}
		if key != "" && !seen[key] {
			seen[key] = true
			securityFiles = append(securityFiles, key)
		}
	}
	if len(securityFiles) > 0 {
		sort.Strings(securityFiles)
		s := base(models.SubTicketSecurityFixes, securityFiles, "urgent")
		s.Title = fmt.Sprintf("%s: resolve high-severity security findings", parent)
		s.Description = fmt.Sprintf(
			"High-severity security findings were detected in:\n\n%s", bulletList(securityFiles))
		suggestions = append(suggestions, s)
	}

	// One migration ticket when any dependency bump is breaking.
	if len(c.Code.Dependencies.BreakingChanges) > 0 {
		var deps []string
		for _, dep := range c.Code.Dependencies.BreakingChanges {
			deps = append(deps, fmt.Sprintf("%s %s -> %s", dep.Name, dep.OldVersion, dep.NewVersion))
		}
		s := base(models.SubTicketDependencyMigration, deps, "high")
		s.Title = fmt.Sprintf("%s: migrate breaking dependency upgrades", parent)
		s.Description = fmt.Sprintf(
			"Major-version upgrades need a migration pass:\n\n%s", bulletList(deps))
		suggestions = append(suggestions, s)
	}

	return suggestions
}

type functionalityGroup struct {
	name  string
	files []string
}

// groupByFunctionality buckets changed files by path-based functionality
// areas, returning groups in stable bucket order.
func groupByFunctionality(files []models.ChangedFile) []functionalityGroup {
	buckets := make(map[string][]string)
	for _, f := range files {
		buckets[bucketFor(f.Path)] = append(buckets[bucketFor(f.Path)], f.Path)
	}

	var groups []functionalityGroup
	for _, bucket := range functionalityBuckets {
		if paths, ok := buckets[bucket.name]; ok {
			groups = append(groups, functionalityGroup{name: bucket.name, files: paths})
		}
	}
	if paths, ok := buckets["general"]; ok {
		groups = append(groups, functionalityGroup{name: "general", files: paths})
	}
	return groups
}

func bucketFor(path string) string {
	segments := strings.Split(strings.ToLower(filepath.ToSlash(path)), "/")
	for _, bucket := range functionalityBuckets {
		for _, seg := range segments {
			for _, marker := range bucket.segments {
				if seg == marker {
					return bucket.name
				}
			}
		}
	}
	return "general"
}

// scaleEstimate applies the complexity multiplier and the large-group
// surcharge to the per-type base estimate, rounding up.
func scaleEstimate(t models.SubTicketType, level models.ComplexityLevel, fileCount int) int {
	estimate := float64(baseEstimateHours[t])
	switch level {
	case models.ComplexityLow:
		estimate *= 0.5
	case models.ComplexityHigh, models.ComplexityVeryHigh:
		estimate *= 1.5
	}
	if fileCount > 3 {
		estimate *= 1.2
	}
	return int(math.Ceil(estimate))
}

func bulletList(items []string) string {
	var b strings.Builder
	for _, item := range items {
		b.WriteString("- ")
		b.WriteString(item)
		b.WriteString("\n")
	}
	return b.String()
}
