package engine

import (
	"errors"
	"testing"

	"github.com/ayurmitra/scheduler/core/logger"
	"github.com/ayurmitra/scheduler/core/model"
)

func threePhasePlan() model.TreatmentPlan {
	phase := func(seq int, name model.PhaseName, days int) model.Phase {
		return model.Phase{
			SequenceNumber: seq,
			Name:           name,
			TotalDays:      days,
			TherapySessions: []model.TherapySessionSpec{{
				TherapyID:    "abhyanga",
				SessionCount: days,
				Frequency:    model.FrequencyDaily,
			}},
		}
	}
	return model.TreatmentPlan{
		ID:          "plan-3p",
		PatientID:   "patient-1",
		TherapistID: "th-1",
		Phases: []model.Phase{
			phase(1, model.Purvakarma, 7),
			phase(2, model.Pradhanakarma, 3),
			phase(3, model.Paschatkarma, 18),
		},
		Preferences: model.SchedulingPreferences{StartDate: monday, FlexibilityWindowDays: 2},
	}
}

func TestBuild_PhaseDayRanges(t *testing.T) {
	cfg := DefaultConfig()
	m := buildTestModel(t, cfg,
		[]model.TreatmentPlan{threePhasePlan()},
		map[string]model.Therapy{"abhyanga": abhyanga()},
		map[string]model.Therapist{"th-1": weekdayTherapist("th-1", "09:00", "17:00")},
		nil, nil)

	if len(m.Sessions) != 28 {
		t.Fatalf("expected 28 sessions, got %d", len(m.Sessions))
	}

	ranges := map[int][2]int{1: {1, 7}, 2: {8, 10}, 3: {11, 28}}
	for _, s := range m.Sessions {
		r := ranges[s.PhaseSequence]
		if s.RequiredDay < r[0] || s.RequiredDay > r[1] {
			t.Errorf("phase %d session on day %d outside [%d,%d]", s.PhaseSequence, s.RequiredDay, r[0], r[1])
		}
		if s.PhaseStartDay != r[0] || s.PhaseEndDay != r[1] {
			t.Errorf("phase %d boundaries [%d,%d], expected [%d,%d]", s.PhaseSequence, s.PhaseStartDay, s.PhaseEndDay, r[0], r[1])
		}
	}

	for i := 1; i < len(m.Sessions); i++ {
		if m.Sessions[i].RequiredDay < m.Sessions[i-1].RequiredDay {
			t.Fatalf("sessions not sorted by required day at index %d", i)
		}
	}
}

func TestBuild_RequiredDayClampedToPhaseEnd(t *testing.T) {
	plan := dailyPlan("plan-clamp", "patient-1", "th-1", 3)
	plan.Phases[0].TherapySessions[0].SessionCount = 5 // more sessions than days

	cfg := DefaultConfig()
	m := buildTestModel(t, cfg,
		[]model.TreatmentPlan{plan},
		map[string]model.Therapy{"abhyanga": abhyanga()},
		map[string]model.Therapist{"th-1": weekdayTherapist("th-1", "09:00", "17:00")},
		nil, nil)

	want := []int{1, 2, 3, 3, 3}
	if len(m.Sessions) != len(want) {
		t.Fatalf("expected %d sessions, got %d", len(want), len(m.Sessions))
	}
	for i, s := range m.Sessions {
		if s.RequiredDay != want[i] {
			t.Errorf("session %d: expected day %d, got %d", i, want[i], s.RequiredDay)
		}
	}
}

func TestBuild_TwiceDailySharesDay(t *testing.T) {
	plan := dailyPlan("plan-td", "patient-1", "th-1", 1)
	plan.Phases[0].TherapySessions[0].SessionCount = 2
	plan.Phases[0].TherapySessions[0].Frequency = model.FrequencyTwiceDaily

	cfg := DefaultConfig()
	m := buildTestModel(t, cfg,
		[]model.TreatmentPlan{plan},
		map[string]model.Therapy{"abhyanga": abhyanga()},
		map[string]model.Therapist{"th-1": weekdayTherapist("th-1", "09:00", "17:00")},
		nil, nil)

	for _, s := range m.Sessions {
		if s.RequiredDay != 1 {
			t.Errorf("twice-daily session %s on day %d, expected 1", s.ID, s.RequiredDay)
		}
	}
}

func TestBuild_ParallelSessionsShareDay(t *testing.T) {
	plan := dailyPlan("plan-par", "patient-1", "th-1", 3)
	plan.Phases[0].TherapySessions[0].AllowsParallelSessions = true

	cfg := DefaultConfig()
	m := buildTestModel(t, cfg,
		[]model.TreatmentPlan{plan},
		map[string]model.Therapy{"abhyanga": abhyanga()},
		map[string]model.Therapist{"th-1": weekdayTherapist("th-1", "09:00", "17:00")},
		nil, nil)

	for _, s := range m.Sessions {
		if s.RequiredDay != 1 {
			t.Errorf("parallel session %s on day %d, expected 1", s.ID, s.RequiredDay)
		}
	}
}

func TestBuild_DependencyEdges(t *testing.T) {
	plan := threePhasePlan()
	plan.Phases[1].TherapySessions[0].RequiresPreviousPhaseComplete = true

	cfg := DefaultConfig()
	m := buildTestModel(t, cfg,
		[]model.TreatmentPlan{plan},
		map[string]model.Therapy{"abhyanga": abhyanga()},
		map[string]model.Therapist{"th-1": weekdayTherapist("th-1", "09:00", "17:00")},
		nil, nil)

	for _, s := range m.Sessions {
		if s.PhaseSequence == 2 && s.SessionInTherapy == 1 {
			// all 7 phase-1 sessions plus nothing else
			if len(s.DependsOn) != 7 {
				t.Fatalf("first phase-2 session should depend on 7 phase-1 sessions, got %d", len(s.DependsOn))
			}
		}
		if s.SessionInTherapy > 1 {
			found := false
			for _, dep := range s.DependsOn {
				d := m.Session(dep)
				if d != nil && d.TherapyID == s.TherapyID && d.PhaseSequence == s.PhaseSequence && d.SessionInTherapy == s.SessionInTherapy-1 {
					found = true
				}
			}
			if !found {
				t.Errorf("session %s missing edge to its predecessor", s.ID)
			}
		}
	}
}

func TestBuild_MissingTherapyIsFatal(t *testing.T) {
	plan := dailyPlan("plan-x", "patient-1", "th-1", 2)
	_, err := newModelBuilder(DefaultConfig(), logger.Nop{}).Build(
		[]model.TreatmentPlan{plan},
		map[string]model.Therapy{}, // empty catalog
		map[string]model.Therapist{"th-1": weekdayTherapist("th-1", "09:00", "17:00")},
		nil, nil)
	if !errors.Is(err, ErrTherapyNotFound) {
		t.Fatalf("expected ErrTherapyNotFound, got %v", err)
	}
}

func TestBuild_MissingTherapistIsFatal(t *testing.T) {
	plan := dailyPlan("plan-x", "patient-1", "th-missing", 2)
	_, err := newModelBuilder(DefaultConfig(), logger.Nop{}).Build(
		[]model.TreatmentPlan{plan},
		map[string]model.Therapy{"abhyanga": abhyanga()},
		map[string]model.Therapist{},
		nil, nil)
	if !errors.Is(err, ErrTherapistNotFound) {
		t.Fatalf("expected ErrTherapistNotFound, got %v", err)
	}
}

func TestBuildPhaseWindows_Contiguous(t *testing.T) {
	plan := threePhasePlan()
	windows, err := BuildPhaseWindows(&plan)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(windows) != 3 {
		t.Fatalf("expected 3 windows, got %d", len(windows))
	}
	if windows[0].StartDay != 1 {
		t.Fatalf("first window must start on day 1, got %d", windows[0].StartDay)
	}
	for i := 1; i < len(windows); i++ {
		if windows[i].StartDay != windows[i-1].EndDay+1 {
			t.Errorf("window %d starts on day %d, expected %d", i, windows[i].StartDay, windows[i-1].EndDay+1)
		}
	}

	if w, ok := windowForDay(windows, 9); !ok || w.Phase.SequenceNumber != 2 {
		t.Fatalf("day 9 should fall in phase 2")
	}
	if _, ok := windowForDay(windows, 29); ok {
		t.Fatal("day 29 is past the plan")
	}
}

func TestBuildPhaseWindows_EmptyPlan(t *testing.T) {
	plan := model.TreatmentPlan{ID: "empty"}
	if _, err := BuildPhaseWindows(&plan); err == nil {
		t.Fatal("expected error for a plan without phases")
	}
}
