package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManagementMO/CodeScribe-sub000/pkg/models"
)

func manyFiles(n int, js bool) []models.ChangedFile {
	files := make([]models.ChangedFile, n)
	for i := range files {
		files[i] = models.ChangedFile{Path: "src/file.js", IsJavaScript: js}
	}
	return files
}

func TestDetectScopeChange(t *testing.T) {
	t.Run("small change within estimate is unchanged", func(t *testing.T) {
		c := developmentContext()

		result := DetectScopeChange(c, 2)

		assert.False(t, result.Changed)
		assert.Equal(t, models.RiskLow, result.RiskLevel)
		assert.Empty(t, result.Reasons)
	})

	t.Run("complexity over the estimate budget is medium risk", func(t *testing.T) {
		c := developmentContext()
		// Budget for a 2h estimate is 10 score points; 16 exceeds 1.5x.
		c.Code.Complexity.AverageScore = 16

		result := DetectScopeChange(c, 2)

		assert.True(t, result.Changed)
		assert.Equal(t, models.RiskMedium, result.RiskLevel)
		assert.NotEmpty(t, result.Recommendations)
	})

	t.Run("no estimate disables the complexity budget", func(t *testing.T) {
		c := developmentContext()
		c.Code.Complexity.AverageScore = 100

		result := DetectScopeChange(c, 0)

		assert.False(t, result.Changed)
	})

	t.Run("more than ten files flags drift", func(t *testing.T) {
		c := developmentContext()
		c.Code.ChangedFiles = manyFiles(11, false)

		result := DetectScopeChange(c, 2)

		assert.True(t, result.Changed)
		assert.Equal(t, models.RiskLow, result.RiskLevel)
	})

	t.Run("more than five source files flags drift", func(t *testing.T) {
		c := developmentContext()
		c.Code.ChangedFiles = manyFiles(6, true)

		result := DetectScopeChange(c, 2)

		assert.True(t, result.Changed)
	})

	t.Run("test files do not count as source files", func(t *testing.T) {
		c := developmentContext()
		files := manyFiles(6, true)
		for i := range files {
			files[i].IsTest = true
		}
		c.Code.ChangedFiles = files

		result := DetectScopeChange(c, 2)

		assert.False(t, result.Changed)
	})

	t.Run("new dependencies flag drift", func(t *testing.T) {
		c := developmentContext()
		c.Code.Dependencies.Added = []models.DependencyChange{{Name: "lodash", NewVersion: "^4.17.21"}}

		result := DetectScopeChange(c, 2)

		assert.True(t, result.Changed)
		assert.Equal(t, models.RiskLow, result.RiskLevel)
	})

	t.Run("breaking dependency changes are high risk", func(t *testing.T) {
		c := developmentContext()
		c.Code.Dependencies.BreakingChanges = []models.DependencyChange{
			{Name: "react", OldVersion: "^17.0.2", NewVersion: "^18.2.0"},
		}

		result := DetectScopeChange(c, 2)

		assert.True(t, result.Changed)
		assert.Equal(t, models.RiskHigh, result.RiskLevel)
		require.NotEmpty(t, result.Reasons)
		assert.Contains(t, result.Reasons[0], "react")
	})

	t.Run("missing estimate produces an estimate recommendation", func(t *testing.T) {
		c := developmentContext()
		c.Code.ChangedFiles = manyFiles(11, false)

		result := DetectScopeChange(c, 0)

		require.True(t, result.Changed)
		assert.Contains(t, result.Recommendations[0], "add an estimate")
	})
}

func TestScopeChangeComment(t *testing.T) {
	result := models.ScopeChangeResult{
		Changed:         true,
		RiskLevel:       models.RiskHigh,
		Reasons:         []string{"breaking dependency change: react ^17.0.2 -> ^18.2.0"},
		Recommendations: []string{"review the breaking dependency changes with the team before merging"},
	}

	body := scopeChangeComment(result)

	assert.Contains(t, body, "## ⚠️ Scope Change Detected")
	assert.Contains(t, body, "react")
	assert.Contains(t, body, "risk level high")
	assert.Contains(t, body, "**Recommendations:**")
}
