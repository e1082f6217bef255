package tracker

import (
	"fmt"

	"github.com/ManagementMO/CodeScribe-sub000/pkg/models"
)

// DetectScopeChange flags scope drift between the ticket's estimate and
// the observed change set. The complexity budget is estimate hours times
// five score points; exceeding it by half signals drift.
func DetectScopeChange(c *models.Context, estimateHours float64) models.ScopeChangeResult {
	result := models.ScopeChangeResult{RiskLevel: models.RiskLow}

	complexityBudget := estimateHours * 5
	significantComplexity := complexityBudget > 0 && c.Code.Complexity.AverageScore > 1.5*complexityBudget
	if significantComplexity {
		result.Changed = true
		result.Reasons = append(result.Reasons,
			fmt.Sprintf("average complexity %.1f exceeds the estimate budget %.1f",
				c.Code.Complexity.AverageScore, complexityBudget))
	}

	if total := len(c.Code.ChangedFiles); total > 10 {
		result.Changed = true
		result.Reasons = append(result.Reasons, fmt.Sprintf("%d files changed (more than 10)", total))
	}

	sourceFiles := 0
	for _, f := range c.Code.ChangedFiles {
		if f.IsJavaScript && !f.IsTest {
			sourceFiles++
		}
	}
	if sourceFiles > 5 {
		result.Changed = true
		result.Reasons = append(result.Reasons, fmt.Sprintf("%d source files changed (more than 5)", sourceFiles))
	}

	if len(c.Code.Dependencies.Added) > 0 {
		result.Changed = true
		result.Reasons = append(result.Reasons,
			fmt.Sprintf("%d new dependencies added", len(c.Code.Dependencies.Added)))
	}

	if len(c.Code.Dependencies.BreakingChanges) > 0 {
		result.Changed = true
		result.RiskLevel = models.RiskHigh
		for _, dep := range c.Code.Dependencies.BreakingChanges {
			result.Reasons = append(result.Reasons,
				fmt.Sprintf("breaking dependency change: %s %s -> %s", dep.Name, dep.OldVersion, dep.NewVersion))
		}
	} else if significantComplexity {
		result.RiskLevel = models.RiskMedium
	}

	if result.Changed {
		result.Recommendations = buildScopeRecommendations(result, estimateHours)
	}
	return result
}

func buildScopeRecommendations(result models.ScopeChangeResult, estimateHours float64) []string {
	var recs []string
	if result.RiskLevel == models.RiskHigh {
		recs = append(recs, "review the breaking dependency changes with the team before merging")
	}
	if estimateHours > 0 {
		recs = append(recs, fmt.Sprintf("revisit the %gh estimate against the observed change set", estimateHours))
	} else {
		recs = append(recs, "add an estimate to the ticket so scope drift can be measured")
	}
	recs = append(recs, "consider splitting the change into smaller reviews")
	return recs
}

// scopeChangeComment renders the notification posted before the summary
// when scope drift is high risk.
func scopeChangeComment(result models.ScopeChangeResult) string {
	body := "## ⚠️ Scope Change Detected\n\n**Changes:**\n"
	for _, reason := range result.Reasons {
		body += "- " + reason + "\n"
	}
	body += fmt.Sprintf("\n**Impact:** risk level %s\n", result.RiskLevel)
	if len(result.Recommendations) > 0 {
		body += "\n**Recommendations:**\n"
		for _, rec := range result.Recommendations {
			body += "- " + rec + "\n"
		}
	}
	return body
}
