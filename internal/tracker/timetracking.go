package tracker

import (
	"fmt"
	"sync"
	"time"

	"github.com/ManagementMO/CodeScribe-sub000/pkg/models"
)

// minimumLoggedSessionMinutes is the shortest session worth posting back
// to the tracker.
const minimumLoggedSessionMinutes = 5

// TimeStore keeps per-ticket tracking state. It is process-local memory:
// state does not survive the host process.
type TimeStore struct {
	mu      sync.Mutex
	tickets map[string]*models.TimeTrackingState

	// now is swappable in tests.
	now func() time.Time
}

// NewTimeStore creates an empty store.
func NewTimeStore() *TimeStore {
	return &TimeStore{
		tickets: make(map[string]*models.TimeTrackingState),
		now:     time.Now,
	}
}

// State returns the tracking record for a ticket, creating it on first use.
func (s *TimeStore) State(ticketID string) *models.TimeTrackingState {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.tickets[ticketID]
	if !ok {
		state = &models.TimeTrackingState{}
		s.tickets[ticketID] = state
	}
	return state
}

// Apply advances the tracking state machine for the inferred phase and
// returns what happened. Estimate is the ticket's estimate in hours; zero
// means no estimate, which disables the efficiency computation.
func (s *TimeStore) Apply(ticketID string, phase models.Phase, estimateHours float64) models.TimeTrackingResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.tickets[ticketID]
	if !ok {
		state = &models.TimeTrackingState{}
		s.tickets[ticketID] = state
	}
	now := s.now()

	switch phase {
	case models.PhaseStarted, models.PhaseDevelopment:
		if state.StartTime == nil {
			state.StartTime = &now
			return models.TimeTrackingResult{Action: "started"}
		}
		elapsed := now.Sub(*state.StartTime).Minutes()
		return models.TimeTrackingResult{
			Action:         "continuing",
			SessionMinutes: elapsed,
			TotalMinutes:   state.TotalMinutes + elapsed,
		}

	case models.PhaseInReview, models.PhaseChangesRequested:
		if state.StartTime == nil {
			return models.TimeTrackingResult{Action: "idle", TotalMinutes: state.TotalMinutes}
		}
		session := s.closeSession(state, now)
		return models.TimeTrackingResult{
			Action:         "paused",
			SessionMinutes: session.Minutes,
			TotalMinutes:   state.TotalMinutes,
		}

	case models.PhaseCompleted:
		result := models.TimeTrackingResult{Action: "completed", TotalMinutes: state.TotalMinutes}
		if state.StartTime != nil {
			session := s.closeSession(state, now)
			result.SessionMinutes = session.Minutes
			result.TotalMinutes = state.TotalMinutes
		}
		if estimateHours > 0 && state.TotalMinutes > 0 {
			result.Efficiency = estimateHours * 60 / state.TotalMinutes
			result.EfficiencyBand = efficiencyBand(result.Efficiency)
		}
		return result

	default:
		return models.TimeTrackingResult{Action: "idle", TotalMinutes: state.TotalMinutes}
	}
}

func (s *TimeStore) closeSession(state *models.TimeTrackingState, now time.Time) models.TimeSession {
	session := models.TimeSession{
		Start:   *state.StartTime,
		End:     now,
		Minutes: now.Sub(*state.StartTime).Minutes(),
	}
	state.Sessions = append(state.Sessions, session)
	state.TotalMinutes += session.Minutes
	state.StartTime = nil
	return session
}

func efficiencyBand(efficiency float64) string {
	switch {
	case efficiency > 1.2:
		return "high"
	case efficiency < 0.8:
		return "low"
	default:
		return "normal"
	}
}

// timeLogComment renders the human-readable comment used to log a session;
// the tracker has no first-class time endpoint.
func timeLogComment(ticketID string, result models.TimeTrackingResult) string {
	return fmt.Sprintf("⏱ Time log for %s: session %.0f min (total %.0f min, action: %s)",
		ticketID, result.SessionMinutes, result.TotalMinutes, result.Action)
}
