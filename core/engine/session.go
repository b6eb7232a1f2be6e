package engine

import (
	"time"

	"github.com/ayurmitra/scheduler/core/model"
	"github.com/ayurmitra/scheduler/core/store"
)

// Session is the engine's atomic unit of work: one concrete therapy visit
// expanded from a treatment plan. Sessions are built fresh per run and are
// immutable once the model is built; scheduling outcomes live in Schedule
// values, not on the session.
type Session struct {
	ID          string
	PlanID      string
	PatientID   string
	TherapistID string

	PhaseSequence int
	PhaseName     model.PhaseName
	PhaseStartDay int
	PhaseEndDay   int

	// RequiredDay is the 1-based day offset from plan start the session
	// belongs on. Every stage of the engine keys off this field.
	RequiredDay int

	TherapyID   string
	TherapyName string
	TherapyType string

	SessionNumber          int // global position in the run's model
	SessionInTherapy       int // 1-based within its therapy course
	TotalSessionsInTherapy int

	DurationMinutes int
	BufferMinutes   int

	Frequency                     model.Frequency
	RequiresPreviousPhaseComplete bool
	MinimumDayGap                 int
	AllowsParallelSessions        bool

	PreferredTime   model.TimeOfDay // from the therapy catalog
	SpecificTime    model.ClockTime
	HasSpecificTime bool
	RequiresFasting bool
	SkillLevel      string

	PatientPreferredTime model.TimeOfDay
	SkipWeekends         bool
	FlexDays             int
	PlanStart            time.Time

	// DependsOn lists session IDs that must be scheduled on or before this
	// session, subject to MinimumDayGap.
	DependsOn []string
}

// TotalMinutes is the calendar footprint of the session including buffer.
func (s *Session) TotalMinutes() int { return s.DurationMinutes + s.BufferMinutes }

// TargetDate is the exact calendar day implied by RequiredDay.
func (s *Session) TargetDate() time.Time {
	return model.DateOnly(s.PlanStart).AddDate(0, 0, s.RequiredDay-1)
}

// PhaseStartDate and PhaseEndDate translate the phase's day range to dates.
func (s *Session) PhaseStartDate() time.Time {
	return model.DateOnly(s.PlanStart).AddDate(0, 0, s.PhaseStartDay-1)
}

func (s *Session) PhaseEndDate() time.Time {
	return model.DateOnly(s.PlanStart).AddDate(0, 0, s.PhaseEndDay-1)
}

// Slot is a candidate (therapist, date, time) unit from the availability
// grid. Cost is filled by the cost evaluator.
type Slot struct {
	TherapistID string
	Date        time.Time // midnight of the slot's day
	Start       time.Time
	End         time.Time
	Cost        float64
}

// Model is the in-memory scheduling model for one run: the expanded session
// arena plus the master-data snapshot all stages read from.
type Model struct {
	Plans      []model.TreatmentPlan
	Sessions   []*Session // sorted by (requiredDay, phase, dependency depth, number)
	Therapists map[string]model.Therapist

	TherapistBusy store.BusyIntervals
	PatientBusy   store.BusyIntervals

	byID map[string]*Session
}

// Session looks a session up by ID.
func (m *Model) Session(id string) *Session { return m.byID[id] }

// PlanSessions returns the model's sessions belonging to one plan, in model
// order.
func (m *Model) PlanSessions(planID string) []*Session {
	var out []*Session
	for _, s := range m.Sessions {
		if s.PlanID == planID {
			out = append(out, s)
		}
	}
	return out
}

// EarliestStart returns the earliest plan start date in the model.
func (m *Model) EarliestStart() time.Time {
	var min time.Time
	for _, p := range m.Plans {
		start := model.DateOnly(p.Preferences.StartDate)
		if min.IsZero() || start.Before(min) {
			min = start
		}
	}
	return min
}

// TherapistIDs returns the unique therapist IDs referenced by the model.
func (m *Model) TherapistIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, s := range m.Sessions {
		if !seen[s.TherapistID] {
			seen[s.TherapistID] = true
			ids = append(ids, s.TherapistID)
		}
	}
	return ids
}
