package engine

import (
	"time"

	"github.com/ayurmitra/scheduler/core/model"
)

// Penalty points of the soft cost terms. The weights that blend them live
// in CostWeights; these are the raw magnitudes each term emits.
const (
	preferenceMismatchPatientPts = 20.0
	preferenceMismatchTherapyPts = 15.0

	idleGapWidePts   = 30.0 // > 2h dead time around the slot
	idleGapMediumPts = 15.0 // > 1h
	idleGapTightPts  = 5.0  // < 30m, back-to-back squeeze

	workloadFullPts  = 100.0 // at or over daily capacity
	workloadHighPts  = 30.0  // >= 80% of capacity
	workloadBusyPts  = 10.0  // >= 60% of capacity
	frequencyFarPts  = 20.0  // > 3 days off the ideal gap
	frequencyNearPts = 10.0  // > 1 day off
)

// costEvaluator scores (session, slot) pairs against the partial schedule.
// Lower is better. The required-day term dominates every other term by
// construction, so an off-day slot can never beat an on-day one.
type costEvaluator struct {
	cfg Config
}

func newCostEvaluator(cfg Config) *costEvaluator { return &costEvaluator{cfg: cfg} }

func (e *costEvaluator) cost(m *Model, s *Session, slot Slot, led *claimLedger) float64 {
	w := e.cfg.Weights
	total := 0.0

	// (a) required-day deviation, the dominant term.
	dayDiff := model.DaysBetween(s.TargetDate(), slot.Date)
	if dayDiff < 0 {
		dayDiff = -dayDiff
	}
	total += w.RequiredDay * float64(dayDiff) * w.RequiredDayUnitCost

	// (b) makespan: earlier absolute dates are cheaper.
	total += w.Makespan * float64(model.DaysBetween(s.PlanStart, slot.Date))

	// (c, d) time-of-day preference mismatches.
	bucket := model.TimeOfDayForHour(slot.Start.Hour())
	if pref := s.PatientPreferredTime; pref != "" && pref != model.Flexible && pref != bucket {
		total += w.PatientPreference * preferenceMismatchPatientPts
	}
	if pref := s.PreferredTime; pref != "" && pref != model.Flexible && pref != bucket {
		total += w.TherapyPreference * preferenceMismatchTherapyPts
	}

	// (e) idle gaps to the therapist's other same-day assignments.
	total += w.IdleTime * e.idlePts(s, slot, led)

	// (f) workload balance against the therapist's daily capacity.
	total += w.Workload * e.workloadPts(m, s, slot, led)

	// (g) frequency adherence to the therapy's ideal inter-session gap.
	total += w.Frequency * e.frequencyPts(m, s, slot, led)

	return total
}

// idlePts looks at the nearest same-therapist assignment on the slot's day
// and penalizes dead time outside the comfortable 30-60 minute band.
func (e *costEvaluator) idlePts(s *Session, slot Slot, led *claimLedger) float64 {
	neighbors := led.dayAssignments(s.TherapistID, slot.Date)
	if len(neighbors) == 0 {
		return 0
	}
	end := slot.Start.Add(time.Duration(s.TotalMinutes()) * time.Minute)
	minGap := time.Duration(-1)
	for _, a := range neighbors {
		var gap time.Duration
		switch {
		case !a.End.After(slot.Start):
			gap = slot.Start.Sub(a.End)
		case !end.After(a.Start):
			gap = a.Start.Sub(end)
		default:
			continue // overlapping candidate; feasibility or claiming will reject it
		}
		if minGap < 0 || gap < minGap {
			minGap = gap
		}
	}
	switch {
	case minGap < 0:
		return 0
	case minGap > 2*time.Hour:
		return idleGapWidePts
	case minGap > time.Hour:
		return idleGapMediumPts
	case minGap < 30*time.Minute:
		return idleGapTightPts
	}
	return 0
}

func (e *costEvaluator) workloadPts(m *Model, s *Session, slot Slot, led *claimLedger) float64 {
	capacity := m.Therapists[s.TherapistID].Availability.PatientCap()
	load := led.dailyLoad(s.TherapistID, slot.Date)
	ratio := float64(load) / float64(capacity)
	switch {
	case ratio >= 1.0:
		return workloadFullPts
	case ratio >= 0.8:
		return workloadHighPts
	case ratio >= 0.6:
		return workloadBusyPts
	}
	return 0
}

// frequencyPts compares the gap to the previous session of the same therapy
// course against the frequency's ideal spacing.
func (e *costEvaluator) frequencyPts(m *Model, s *Session, slot Slot, led *claimLedger) float64 {
	if s.SessionInTherapy <= 1 {
		return 0
	}
	var prev *Session
	for _, depID := range s.DependsOn {
		dep := m.Session(depID)
		if dep != nil && dep.TherapyID == s.TherapyID && dep.SessionInTherapy == s.SessionInTherapy-1 {
			prev = dep
			break
		}
	}
	if prev == nil {
		return 0
	}
	prevDate := prev.TargetDate()
	if a, ok := led.assignment(prev.ID); ok {
		prevDate = a.Date
	}
	gap := float64(model.DaysBetween(prevDate, slot.Date))
	dev := gap - s.Frequency.IdealGapDays()
	if dev < 0 {
		dev = -dev
	}
	switch {
	case dev > 3:
		return frequencyFarPts
	case dev > 1:
		return frequencyNearPts
	}
	return 0
}
