package tracker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManagementMO/CodeScribe-sub000/pkg/models"
)

func newTestTimeStore(start time.Time) (*TimeStore, *time.Time) {
	clock := start
	store := NewTimeStore()
	store.now = func() time.Time { return clock }
	return store, &clock
}

func TestTimeStoreSessionLifecycle(t *testing.T) {
	start := time.Date(2026, 8, 27, 9, 0, 0, 0, time.UTC)
	store, clock := newTestTimeStore(start)

	result := store.Apply("ABC-12", models.PhaseDevelopment, 2)
	assert.Equal(t, "started", result.Action)

	*clock = start.Add(30 * time.Minute)
	result = store.Apply("ABC-12", models.PhaseDevelopment, 2)
	assert.Equal(t, "continuing", result.Action)
	assert.InDelta(t, 30, result.SessionMinutes, 0.01)

	*clock = start.Add(45 * time.Minute)
	result = store.Apply("ABC-12", models.PhaseInReview, 2)
	assert.Equal(t, "paused", result.Action)
	assert.InDelta(t, 45, result.SessionMinutes, 0.01)
	assert.InDelta(t, 45, result.TotalMinutes, 0.01)

	state := store.State("ABC-12")
	require.Len(t, state.Sessions, 1)
	assert.Nil(t, state.StartTime)
}

func TestTimeStoreCompletedComputesEfficiency(t *testing.T) {
	start := time.Date(2026, 8, 27, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		estimateHours float64
		workedMinutes time.Duration
		band          string
	}{
		{"finished faster than estimated", 2, 60 * time.Minute, "high"},
		{"on estimate", 1, 60 * time.Minute, "normal"},
		{"overran the estimate", 1, 120 * time.Minute, "low"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, clock := newTestTimeStore(start)
			store.Apply("ABC-12", models.PhaseDevelopment, tt.estimateHours)
			*clock = start.Add(tt.workedMinutes)

			result := store.Apply("ABC-12", models.PhaseCompleted, tt.estimateHours)

			assert.Equal(t, "completed", result.Action)
			assert.Equal(t, tt.band, result.EfficiencyBand)
			assert.InDelta(t, tt.estimateHours*60/tt.workedMinutes.Minutes(), result.Efficiency, 0.01)
		})
	}
}

func TestTimeStoreNoEstimateSkipsEfficiency(t *testing.T) {
	start := time.Date(2026, 8, 27, 9, 0, 0, 0, time.UTC)
	store, clock := newTestTimeStore(start)

	store.Apply("ABC-12", models.PhaseDevelopment, 0)
	*clock = start.Add(30 * time.Minute)
	result := store.Apply("ABC-12", models.PhaseCompleted, 0)

	assert.Equal(t, "completed", result.Action)
	assert.Zero(t, result.Efficiency)
	assert.Empty(t, result.EfficiencyBand)
}

func TestTimeStorePauseWithoutSessionIsIdle(t *testing.T) {
	store, _ := newTestTimeStore(time.Now())

	result := store.Apply("ABC-12", models.PhaseInReview, 2)

	assert.Equal(t, "idle", result.Action)
	assert.Zero(t, result.SessionMinutes)
}

func TestTimeStoreTicketsAreIndependent(t *testing.T) {
	start := time.Date(2026, 8, 27, 9, 0, 0, 0, time.UTC)
	store, clock := newTestTimeStore(start)

	store.Apply("ABC-1", models.PhaseDevelopment, 1)
	*clock = start.Add(10 * time.Minute)
	store.Apply("ABC-2", models.PhaseDevelopment, 1)
	*clock = start.Add(20 * time.Minute)

	first := store.Apply("ABC-1", models.PhaseInReview, 1)
	second := store.Apply("ABC-2", models.PhaseInReview, 1)

	assert.InDelta(t, 20, first.SessionMinutes, 0.01)
	assert.InDelta(t, 10, second.SessionMinutes, 0.01)
}

func TestTrackTimeLogsOnlyMeaningfulSessions(t *testing.T) {
	start := time.Date(2026, 8, 27, 9, 0, 0, 0, time.UTC)

	t.Run("short session is not logged", func(t *testing.T) {
		client := &fakeClient{}
		store, clock := newTestTimeStore(start)
		m := NewMachine(client, defaultTrackerConfig(), store)

		m.trackTime(context.Background(), todoTicket(), models.PhaseDevelopment)
		*clock = start.Add(3 * time.Minute)
		result := m.trackTime(context.Background(), todoTicket(), models.PhaseInReview)

		assert.Equal(t, "paused", result.Action)
		assert.False(t, result.Logged)
		assert.Empty(t, client.comments)
	})

	t.Run("long session is logged as a comment", func(t *testing.T) {
		client := &fakeClient{}
		store, clock := newTestTimeStore(start)
		m := NewMachine(client, defaultTrackerConfig(), store)

		m.trackTime(context.Background(), todoTicket(), models.PhaseDevelopment)
		*clock = start.Add(25 * time.Minute)
		result := m.trackTime(context.Background(), todoTicket(), models.PhaseInReview)

		assert.True(t, result.Logged)
		require.Len(t, client.comments, 1)
		assert.Contains(t, client.comments[0], "Time log for ABC-12")
	})
}
