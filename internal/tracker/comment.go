package tracker

import (
	"fmt"
	"strings"

	"github.com/ManagementMO/CodeScribe-sub000/pkg/models"
)

// summaryComment renders the aggregate progress comment. Headers are
// stable text; sections for skipped sub-results are omitted.
func summaryComment(c *models.Context, outcome *models.TrackerOutcome, review *models.CodeReviewResult) string {
	var b strings.Builder

	b.WriteString("## 🤖 Development Progress Update\n\n")
	fmt.Fprintf(&b, "**Phase:** %s\n", outcome.Phase)
	fmt.Fprintf(&b, "**Branch:** `%s`\n", c.Git.Branch)
	fmt.Fprintf(&b, "**Changes:** %d files (+%d/-%d)\n",
		c.Git.DiffStats.FilesChanged, c.Git.DiffStats.Insertions, c.Git.DiffStats.Deletions)
	fmt.Fprintf(&b, "**Complexity:** %s (average %.1f)\n",
		c.Code.Complexity.Level, c.Code.Complexity.AverageScore)
	fmt.Fprintf(&b, "**Security risk:** %s\n", c.Code.Security.RiskLevel)

	if review != nil && review.Number > 0 {
		b.WriteString("\n### Code Review\n")
		action := review.Action
		if action == "" {
			action = "linked"
		}
		fmt.Fprintf(&b, "%s pull request [#%d](%s)\n", capitalize(action), review.Number, review.URL)
	}

	if !outcome.StatusTransition.Skipped {
		b.WriteString("\n### Status Transition\n")
		if outcome.StatusTransition.Applied {
			fmt.Fprintf(&b, "%s → %s\n", outcome.StatusTransition.From, outcome.StatusTransition.To)
		} else {
			fmt.Fprintf(&b, "Transition to %s failed: %s\n", outcome.StatusTransition.To, outcome.StatusTransition.Reason)
		}
	}

	if outcome.TimeTracking.Action != "disabled" && outcome.TimeTracking.Action != "idle" {
		b.WriteString("\n### Time Tracking\n")
		fmt.Fprintf(&b, "Action: %s", outcome.TimeTracking.Action)
		if outcome.TimeTracking.SessionMinutes > 0 {
			fmt.Fprintf(&b, ", session %.0f min", outcome.TimeTracking.SessionMinutes)
		}
		if outcome.TimeTracking.TotalMinutes > 0 {
			fmt.Fprintf(&b, ", total %.0f min", outcome.TimeTracking.TotalMinutes)
		}
		if outcome.TimeTracking.EfficiencyBand != "" {
			fmt.Fprintf(&b, ", efficiency %s (%.2f)", outcome.TimeTracking.EfficiencyBand, outcome.TimeTracking.Efficiency)
		}
		b.WriteString("\n")
	}

	if outcome.ScopeChange.Changed {
		b.WriteString("\n### Scope Findings\n")
		fmt.Fprintf(&b, "Risk level: %s\n", outcome.ScopeChange.RiskLevel)
		for _, reason := range outcome.ScopeChange.Reasons {
			b.WriteString("- " + reason + "\n")
		}
	}

	if blockers := collectBlockers(c); len(blockers) > 0 {
		b.WriteString("\n### Blockers\n")
		for _, blocker := range blockers {
			b.WriteString("- " + blocker + "\n")
		}
	}

	if len(outcome.SubTickets) > 0 {
		b.WriteString("\n### Sub-tickets\n")
		for _, st := range outcome.SubTickets {
			switch {
			case st.Created:
				fmt.Fprintf(&b, "- Created %s: %s\n", st.Identifier, st.Suggestion.Title)
			case st.Error != "":
				fmt.Fprintf(&b, "- Failed %q: %s\n", st.Suggestion.Title, st.Error)
			default:
				fmt.Fprintf(&b, "- Suggested: %s (est. %dh)\n", st.Suggestion.Title, st.Suggestion.EstimateHours)
			}
		}
	}

	return b.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// collectBlockers surfaces conditions that should hold up the review.
func collectBlockers(c *models.Context) []string {
	var blockers []string
	if c.Git.Conflicts.RiskLevel == models.RiskHigh {
		blockers = append(blockers, fmt.Sprintf("high conflict risk: %d overlapping files with the integration branch", c.Git.Conflicts.ConflictCount))
	}
	if c.Git.MergeBase.NeedsRebase {
		blockers = append(blockers, fmt.Sprintf("branch is %d commits behind the integration branch", c.Git.MergeBase.Behind))
	}
	if c.Code.Security.RiskLevel == models.RiskHigh {
		blockers = append(blockers, "high-severity security findings in the change set")
	}
	return blockers
}
