package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManagementMO/CodeScribe-sub000/pkg/models"
)

func TestShouldBreakdown(t *testing.T) {
	cfg := defaultTrackerConfig()

	t.Run("simple change needs no breakdown", func(t *testing.T) {
		assert.False(t, ShouldBreakdown(developmentContext(), cfg))
	})

	t.Run("average complexity over threshold", func(t *testing.T) {
		c := developmentContext()
		c.Code.Complexity.AverageScore = 16
		assert.True(t, ShouldBreakdown(c, cfg))
	})

	t.Run("file count over threshold", func(t *testing.T) {
		c := developmentContext()
		c.Code.ChangedFiles = manyFiles(9, true)
		assert.True(t, ShouldBreakdown(c, cfg))
	})

	t.Run("breaking dependency changes", func(t *testing.T) {
		c := developmentContext()
		c.Code.Dependencies.BreakingChanges = []models.DependencyChange{{Name: "react"}}
		assert.True(t, ShouldBreakdown(c, cfg))
	})

	t.Run("high security risk", func(t *testing.T) {
		c := developmentContext()
		c.Code.Security.RiskLevel = models.RiskHigh
		assert.True(t, ShouldBreakdown(c, cfg))
	})
}

func breakdownContext() *models.Context {
	c := developmentContext()
	c.Code.ChangedFiles = []models.ChangedFile{
		{Path: "src/api/users.js", IsJavaScript: true},
		{Path: "src/api/sessions.js", IsJavaScript: true},
		{Path: "src/api/tokens.js", IsJavaScript: true},
		{Path: "src/components/Login.jsx", IsJavaScript: true},
		{Path: "docs/setup.md"},
	}
	c.Code.Complexity = models.ComplexityReport{
		AverageScore: 16,
		Level:        models.ComplexityHigh,
		Files: []models.FileComplexity{
			{Path: "src/api/users.js", Score: 14, Functions: 6, Conditionals: 5, Loops: 1, MaxDepth: 5},
			{Path: "src/components/Login.jsx", Score: 4},
		},
	}
	c.Code.Security.Vulnerabilities = []models.Vulnerability{
		{File: "src/api/tokens.js", Severity: models.SeverityHigh, Type: "hardcoded_secret"},
		{File: "src/api/sessions.js", Severity: models.SeverityHigh, Type: "eval_usage"},
		{File: "src/api/tokens.js", Severity: models.SeverityHigh, Type: "weak_random"},
		{File: "src/components/Login.jsx", Severity: models.SeverityLow, Type: "console_log"},
	}
	c.Code.Dependencies.BreakingChanges = []models.DependencyChange{
		{Name: "react", OldVersion: "^17.0.2", NewVersion: "^18.2.0"},
	}
	return c
}

func TestBuildSuggestions(t *testing.T) {
	c := breakdownContext()
	suggestions := BuildSuggestions(c, todoTicket(), &models.ProjectData{ID: "proj-1"})

	require.Len(t, suggestions, 4)

	group := suggestions[0]
	assert.Equal(t, models.SubTicketFunctionalityGroup, group.Metadata.Type)
	assert.Contains(t, group.Title, "api")
	assert.Len(t, group.Metadata.Files, 3)
	assert.Equal(t, 3, group.Priority)
	assert.Equal(t, "proj-1", group.ProjectID)
	assert.Equal(t, "issue-1", group.ParentIssueID)

	refactor := suggestions[1]
	assert.Equal(t, models.SubTicketComplexityRefactor, refactor.Metadata.Type)
	assert.Contains(t, refactor.Title, "users.js")

	security := suggestions[2]
	assert.Equal(t, models.SubTicketSecurityFixes, security.Metadata.Type)
	assert.Equal(t, 1, security.Priority)
	// High-severity files are deduplicated and sorted.
	assert.Equal(t, []string{"src/api/sessions.js", "src/api/tokens.js"}, security.Metadata.Files)

	migration := suggestions[3]
	assert.Equal(t, models.SubTicketDependencyMigration, migration.Metadata.Type)
	assert.Equal(t, 2, migration.Priority)
	assert.Contains(t, migration.Description, "react ^17.0.2 -> ^18.2.0")
}

func TestBuildSuggestionsIsDeterministic(t *testing.T) {
	c := breakdownContext()
	ticket := todoTicket()
	project := &models.ProjectData{ID: "proj-1"}

	first := BuildSuggestions(c, ticket, project)
	second := BuildSuggestions(c, ticket, project)

	assert.Equal(t, first, second)
}

func TestBuildSuggestionsIgnoresSmallGroupsAndSimpleFiles(t *testing.T) {
	c := developmentContext()
	c.Code.Complexity.Files = []models.FileComplexity{{Path: "src/login.js", Score: 8}}

	suggestions := BuildSuggestions(c, todoTicket(), nil)

	assert.Empty(t, suggestions)
}

func TestScaleEstimate(t *testing.T) {
	tests := []struct {
		name      string
		t         models.SubTicketType
		level     models.ComplexityLevel
		fileCount int
		want      int
	}{
		{"base functionality group", models.SubTicketFunctionalityGroup, models.ComplexityMedium, 3, 4},
		{"low complexity halves", models.SubTicketComplexityRefactor, models.ComplexityLow, 1, 3},
		{"high complexity scales up", models.SubTicketComplexityRefactor, models.ComplexityHigh, 1, 9},
		{"very high behaves like high", models.SubTicketSecurityFixes, models.ComplexityVeryHigh, 2, 5},
		{"large group surcharge rounds up", models.SubTicketFunctionalityGroup, models.ComplexityMedium, 4, 5},
		{"migration with high complexity and many files", models.SubTicketDependencyMigration, models.ComplexityHigh, 5, 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scaleEstimate(tt.t, tt.level, tt.fileCount))
		})
	}
}

func TestBucketFor(t *testing.T) {
	tests := []struct {
		path   string
		bucket string
	}{
		{"src/api/users.js", "api"},
		{"src/routes/index.js", "api"},
		{"src/components/Button.jsx", "ui-components"},
		{"src/services/auth.js", "services"},
		{"src/utils/format.js", "utilities"},
		{"src/models/user.js", "data-models"},
		{"src/__tests__/user.test.js", "testing"},
		{"config/default.json", "configuration"},
		{"docs/readme.md", "documentation"},
		{"src/index.js", "general"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.bucket, bucketFor(tt.path), tt.path)
	}
}
