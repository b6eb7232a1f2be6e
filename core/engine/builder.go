package engine

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ayurmitra/scheduler/core/logger"
	"github.com/ayurmitra/scheduler/core/model"
	"github.com/ayurmitra/scheduler/core/store"
)

var (
	// ErrTherapyNotFound aborts a run: the model cannot be built without
	// master data.
	ErrTherapyNotFound = errors.New("therapy not found")
	// ErrTherapistNotFound aborts a run for the same reason.
	ErrTherapistNotFound = errors.New("therapist not found")
)

// modelBuilder expands treatment plans into the flat session arena the
// stages operate on.
type modelBuilder struct {
	cfg Config
	log logger.Logger
}

func newModelBuilder(cfg Config, log logger.Logger) *modelBuilder {
	return &modelBuilder{cfg: cfg, log: log}
}

// Build expands every plan's phases into sessions, wires dependency edges
// and returns the arena sorted by (requiredDay, phaseSequence, dependency
// depth, sessionNumber). An unresolved therapy or therapist reference fails
// the whole build.
func (b *modelBuilder) Build(
	plans []model.TreatmentPlan,
	therapies map[string]model.Therapy,
	therapists map[string]model.Therapist,
	therapistBusy, patientBusy store.BusyIntervals,
) (*Model, error) {
	m := &Model{
		Plans:         plans,
		Therapists:    therapists,
		TherapistBusy: therapistBusy,
		PatientBusy:   patientBusy,
		byID:          make(map[string]*Session),
	}

	for i := range plans {
		plan := &plans[i]
		if _, ok := therapists[plan.TherapistID]; !ok {
			return nil, fmt.Errorf("%w: %s (plan %s)", ErrTherapistNotFound, plan.TherapistID, plan.ID)
		}
		sessions, err := b.expandPlan(plan, therapies)
		if err != nil {
			return nil, err
		}
		m.Sessions = append(m.Sessions, sessions...)
	}

	for _, s := range m.Sessions {
		m.byID[s.ID] = s
	}

	depth := dependencyDepths(m.Sessions, m.byID)
	sort.SliceStable(m.Sessions, func(i, j int) bool {
		a, z := m.Sessions[i], m.Sessions[j]
		if a.RequiredDay != z.RequiredDay {
			return a.RequiredDay < z.RequiredDay
		}
		if a.PhaseSequence != z.PhaseSequence {
			return a.PhaseSequence < z.PhaseSequence
		}
		if depth[a.ID] != depth[z.ID] {
			return depth[a.ID] < depth[z.ID]
		}
		return a.SessionNumber < z.SessionNumber
	})

	b.log.Debugw("session model built", map[string]any{
		"plans":    len(plans),
		"sessions": len(m.Sessions),
	})
	return m, nil
}

// expandPlan walks the plan's phases in sequence order, maintaining a
// running day offset so each phase occupies its own contiguous day range.
func (b *modelBuilder) expandPlan(plan *model.TreatmentPlan, therapies map[string]model.Therapy) ([]*Session, error) {
	windows, err := BuildPhaseWindows(plan)
	if err != nil {
		return nil, err
	}

	flex := plan.Preferences.FlexibilityWindowDays
	if flex <= 0 {
		flex = b.cfg.DefaultFlexDays
	}

	var (
		out       []*Session
		number    int
		prevPhase []*Session
	)
	for _, w := range windows {
		var phaseSessions []*Session
		for _, spec := range w.Phase.TherapySessions {
			therapy, ok := therapies[spec.TherapyID]
			if !ok {
				return nil, fmt.Errorf("%w: %s (plan %s, phase %d)", ErrTherapyNotFound, spec.TherapyID, plan.ID, w.Phase.SequenceNumber)
			}

			count := spec.SessionCount
			if count < 1 {
				count = 1
			}
			duration := spec.DurationMinutes
			if duration <= 0 {
				duration = therapy.StandardDuration
			}
			if duration <= 0 {
				duration = b.cfg.DefaultDurationMin
			}
			buffer := therapy.BufferTime
			if buffer <= 0 {
				buffer = b.cfg.DefaultBufferMin
			}

			currentDay := w.StartDay
			var prevInTherapy *Session
			for n := 1; n <= count; n++ {
				number++
				required := currentDay
				if required > w.EndDay {
					required = w.EndDay
				}
				s := &Session{
					ID:          fmt.Sprintf("%s-ph%d-%s-%d", plan.ID, w.Phase.SequenceNumber, spec.TherapyID, n),
					PlanID:      plan.ID,
					PatientID:   plan.PatientID,
					TherapistID: plan.TherapistID,

					PhaseSequence: w.Phase.SequenceNumber,
					PhaseName:     w.Phase.Name,
					PhaseStartDay: w.StartDay,
					PhaseEndDay:   w.EndDay,
					RequiredDay:   required,

					TherapyID:   therapy.ID,
					TherapyName: therapy.Name,
					TherapyType: therapy.Type,

					SessionNumber:          number,
					SessionInTherapy:       n,
					TotalSessionsInTherapy: count,

					DurationMinutes: duration,
					BufferMinutes:   buffer,

					Frequency:                     spec.Frequency,
					RequiresPreviousPhaseComplete: spec.RequiresPreviousPhaseComplete,
					MinimumDayGap:                 spec.MinimumDaysSincePreviousSession,
					AllowsParallelSessions:        spec.AllowsParallelSessions,

					PreferredTime:   therapy.Constraints.PreferredTime,
					SpecificTime:    therapy.Constraints.SpecificTime,
					HasSpecificTime: therapy.Constraints.HasSpecificTime,
					RequiresFasting: therapy.Constraints.RequiresFasting,
					SkillLevel:      therapy.Resources.SkillLevel,

					PatientPreferredTime: plan.Preferences.PreferredTimeSlot,
					SkipWeekends:         plan.Preferences.SkipWeekends,
					FlexDays:             flex,
					PlanStart:            model.DateOnly(plan.Preferences.StartDate),
				}

				// Parallel sessions share a day; the last one still advances
				// the cursor so the next therapy group starts fresh.
				if !spec.AllowsParallelSessions || n == count {
					currentDay += spec.Frequency.DayIncrement()
				}

				if spec.RequiresPreviousPhaseComplete {
					for _, p := range prevPhase {
						s.DependsOn = append(s.DependsOn, p.ID)
					}
				}
				if prevInTherapy != nil {
					s.DependsOn = append(s.DependsOn, prevInTherapy.ID)
				}
				prevInTherapy = s
				phaseSessions = append(phaseSessions, s)
			}
		}
		out = append(out, phaseSessions...)
		prevPhase = phaseSessions
	}
	return out, nil
}

// dependencyDepths computes the longest dependency chain below each session.
// Sessions with no dependencies have depth 0.
func dependencyDepths(sessions []*Session, byID map[string]*Session) map[string]int {
	depth := make(map[string]int, len(sessions))
	var compute func(s *Session, seen map[string]bool) int
	compute = func(s *Session, seen map[string]bool) int {
		if d, ok := depth[s.ID]; ok {
			return d
		}
		if seen[s.ID] {
			return 0 // cycle guard; the builder never produces one
		}
		seen[s.ID] = true
		max := 0
		for _, dep := range s.DependsOn {
			if ds, ok := byID[dep]; ok {
				if d := compute(ds, seen) + 1; d > max {
					max = d
				}
			}
		}
		depth[s.ID] = max
		return max
	}
	for _, s := range sessions {
		compute(s, make(map[string]bool))
	}
	return depth
}
