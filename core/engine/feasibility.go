package engine

import (
	"fmt"
	"time"

	"github.com/ayurmitra/scheduler/core/logger"
	"github.com/ayurmitra/scheduler/core/model"
)

// Feasibility is the CP stage's output: per session, the slots that survive
// every hard constraint, or a reason why none did. Zero feasible slots is a
// recoverable per-session outcome, never a batch failure.
type Feasibility struct {
	Slots     map[string][]Slot
	Conflicts map[string]string
}

// feasibilityFilter narrows the slot grid to the hard-constraint-satisfying
// candidates of each session.
type feasibilityFilter struct {
	cfg  Config
	log  logger.Logger
	grid *slotGrid
}

func newFeasibilityFilter(cfg Config, log logger.Logger, grid *slotGrid) *feasibilityFilter {
	return &feasibilityFilter{cfg: cfg, log: log, grid: grid}
}

// Filter runs every session of the model through the constraint checks.
func (f *feasibilityFilter) Filter(m *Model) *Feasibility {
	out := &Feasibility{
		Slots:     make(map[string][]Slot, len(m.Sessions)),
		Conflicts: make(map[string]string),
	}
	for _, s := range m.Sessions {
		slots, reason := f.feasibleSlots(m, s)
		if len(slots) == 0 {
			out.Conflicts[s.ID] = reason
			f.log.Debugw("session has no feasible slot", map[string]any{
				"session": s.ID,
				"day":     s.RequiredDay,
				"reason":  reason,
			})
			continue
		}
		out.Slots[s.ID] = slots
	}
	return out
}

// feasibleSlots computes the session's search window and keeps the grid
// slots that satisfy all hard constraints. The window is the flexibility
// range around the required-day target, clamped to the phase's date range;
// the clamp is what keeps a session from ever landing in the wrong phase.
func (f *feasibilityFilter) feasibleSlots(m *Model, s *Session) ([]Slot, string) {
	target := s.TargetDate()
	from := target.AddDate(0, 0, -s.FlexDays)
	to := target.AddDate(0, 0, s.FlexDays)
	if phaseStart := s.PhaseStartDate(); from.Before(phaseStart) {
		from = phaseStart
	}
	if phaseEnd := s.PhaseEndDate(); to.After(phaseEnd) {
		to = phaseEnd
	}
	if to.Before(from) {
		return nil, fmt.Sprintf("flexibility window is empty after clamping to phase days %d-%d", s.PhaseStartDay, s.PhaseEndDay)
	}

	therapist := m.Therapists[s.TherapistID]
	checked := 0
	var slots []Slot
	for date := from; !date.After(to); date = date.AddDate(0, 0, 1) {
		if s.SkipWeekends && model.IsWeekend(date) {
			continue
		}
		for _, slot := range f.grid.slotsOn(s.TherapistID, date) {
			checked++
			if f.admissible(m, s, therapist, slot) {
				slots = append(slots, slot)
			}
		}
	}
	if len(slots) == 0 {
		return nil, fmt.Sprintf("no feasible slot between %s and %s (%d candidates checked)",
			from.Format("2006-01-02"), to.Format("2006-01-02"), checked)
	}
	return slots, ""
}

// admissible applies the per-slot hard constraints.
func (f *feasibilityFilter) admissible(m *Model, s *Session, therapist model.Therapist, slot Slot) bool {
	end := slot.Start.Add(time.Duration(s.TotalMinutes()) * time.Minute)

	// The whole session, buffer included, must fit inside the working
	// window the slot belongs to.
	we, ok := windowEnd(therapist, slot)
	if !ok || end.After(we) {
		return false
	}

	if s.RequiresFasting {
		minutes := slot.Start.Hour()*60 + slot.Start.Minute()
		if minutes >= f.cfg.FastingCutoffMinutes {
			return false
		}
	}
	if s.HasSpecificTime {
		want := s.SpecificTime.On(slot.Date)
		diff := slot.Start.Sub(want)
		if diff < 0 {
			diff = -diff
		}
		if diff > time.Duration(f.cfg.SpecificTimeTolerance)*time.Minute {
			return false
		}
	}

	window := model.Interval{Start: slot.Start, End: end}
	for _, busy := range m.TherapistBusy[s.TherapistID] {
		if window.Overlaps(busy) {
			return false
		}
	}
	for _, busy := range m.PatientBusy[s.PatientID] {
		if window.Overlaps(busy) {
			return false
		}
	}

	// Minimum day gaps are checked against each dependency's required-day
	// target; actual assigned dates can only move within the same phase
	// window, so the target is the stable reference.
	if s.MinimumDayGap > 0 {
		for _, depID := range s.DependsOn {
			dep := m.Session(depID)
			if dep == nil {
				continue
			}
			if model.DaysBetween(dep.TargetDate(), slot.Date) < s.MinimumDayGap {
				return false
			}
		}
	}
	return true
}
