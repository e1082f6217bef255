package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ManagementMO/CodeScribe-sub000/pkg/models"
)

func TestInferPhase(t *testing.T) {
	withCommits := &models.Context{}
	withCommits.Git.Branch = "feature/ABC-1-thing"
	withCommits.Git.Commits = []models.Commit{{Subject: "feat: thing"}}

	bareBranch := &models.Context{}
	bareBranch.Git.Branch = "feature/ABC-1-thing"

	onMain := &models.Context{}
	onMain.Git.Branch = "main"

	tests := []struct {
		name   string
		c      *models.Context
		review *models.CodeReviewResult
		want   models.Phase
	}{
		{
			name:   "merged review wins over everything",
			c:      withCommits,
			review: &models.CodeReviewResult{Merged: true, ChangesRequested: true, State: "closed"},
			want:   models.PhaseCompleted,
		},
		{
			name:   "changes requested beats open review",
			c:      withCommits,
			review: &models.CodeReviewResult{State: "open", ChangesRequested: true},
			want:   models.PhaseChangesRequested,
		},
		{
			name:   "review comments alone mean changes requested",
			c:      withCommits,
			review: &models.CodeReviewResult{State: "open", ReviewComments: 2},
			want:   models.PhaseChangesRequested,
		},
		{
			name:   "open review without feedback is in review",
			c:      withCommits,
			review: &models.CodeReviewResult{State: "open"},
			want:   models.PhaseInReview,
		},
		{
			name: "commits without a review mean development",
			c:    withCommits,
			want: models.PhaseDevelopment,
		},
		{
			name: "branch without commits means started",
			c:    bareBranch,
			want: models.PhaseStarted,
		},
		{
			name: "integration branch itself is unknown",
			c:    onMain,
			want: models.PhaseUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InferPhase(tt.c, tt.review, "main"))
		})
	}
}

func TestEventFor(t *testing.T) {
	tests := []struct {
		phase models.Phase
		event Event
		ok    bool
	}{
		{models.PhaseStarted, EventBranchCreated, true},
		{models.PhaseDevelopment, EventFirstCommit, true},
		{models.PhaseInReview, EventPRCreated, true},
		{models.PhaseChangesRequested, EventPRChangesRequested, true},
		{models.PhaseCompleted, EventPRMerged, true},
		{models.PhaseUnknown, "", false},
	}

	for _, tt := range tests {
		event, ok := EventFor(tt.phase)
		assert.Equal(t, tt.ok, ok, "phase %s", tt.phase)
		assert.Equal(t, tt.event, event, "phase %s", tt.phase)
	}
}
