package engine

import (
	"strings"
	"testing"

	"github.com/ayurmitra/scheduler/core/logger"
	"github.com/ayurmitra/scheduler/core/model"
)

func TestValidateSchedule_FlagsPhaseInversion(t *testing.T) {
	cfg := DefaultConfig()
	m := buildTestModel(t, cfg,
		[]model.TreatmentPlan{threePhasePlan()},
		map[string]model.Therapy{"abhyanga": abhyanga()},
		map[string]model.Therapist{"th-1": weekdayTherapist("th-1", "09:00", "17:00")},
		nil, nil)

	sched := NewSchedule()
	var p1, p2 *Session
	for _, s := range m.Sessions {
		if s.PhaseSequence == 1 && p1 == nil {
			p1 = s
		}
		if s.PhaseSequence == 2 && p2 == nil {
			p2 = s
		}
	}
	// Hand-build an inverted schedule: a phase-2 session a week before a
	// phase-1 session.
	sched.Assignments[p1.ID] = Assignment{SessionID: p1.ID, Date: monday.AddDate(0, 0, 10)}
	sched.Assignments[p2.ID] = Assignment{SessionID: p2.ID, Date: monday.AddDate(0, 0, 3)}

	warnings := validateSchedule(m, sched, logger.Nop{})
	if len(warnings) != 1 {
		t.Fatalf("expected one warning, got %d: %v", len(warnings), warnings)
	}
	if !strings.Contains(warnings[0], "phase 2") {
		t.Fatalf("warning should name the offending phase: %q", warnings[0])
	}
}

func TestValidateSchedule_CleanScheduleSilent(t *testing.T) {
	cfg := DefaultConfig()
	m := buildTestModel(t, cfg,
		[]model.TreatmentPlan{dailyPlan("plan-ok", "patient-1", "th-1", 5)},
		map[string]model.Therapy{"abhyanga": abhyanga()},
		map[string]model.Therapist{"th-1": weekdayTherapist("th-1", "09:00", "17:00")},
		nil, nil)
	sched, _ := runAssign(t, cfg, m)

	if warnings := validateSchedule(m, sched, logger.Nop{}); len(warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", warnings)
	}
}
