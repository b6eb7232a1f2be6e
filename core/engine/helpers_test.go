package engine

import (
	"testing"
	"time"

	"github.com/ayurmitra/scheduler/core/logger"
	"github.com/ayurmitra/scheduler/core/model"
	"github.com/ayurmitra/scheduler/core/store"
)

// monday is the reference plan start used across the engine tests.
var monday = time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

func weekdayTherapist(id, start, end string) model.Therapist {
	win := model.TimeWindow{Start: model.MustClockTime(start), End: model.MustClockTime(end)}
	days := make(map[time.Weekday]model.DayAvailability)
	for wd := time.Monday; wd <= time.Friday; wd++ {
		days[wd] = model.DayAvailability{Available: true, Windows: []model.TimeWindow{win}}
	}
	return model.Therapist{
		ID:           id,
		Name:         "Therapist " + id,
		Availability: model.WeeklyAvailability{Days: days},
	}
}

func everydayTherapist(id, start, end string) model.Therapist {
	t := weekdayTherapist(id, start, end)
	win := t.Availability.Days[time.Monday]
	t.Availability.Days[time.Saturday] = win
	t.Availability.Days[time.Sunday] = win
	return t
}

func abhyanga() model.Therapy {
	return model.Therapy{
		ID:               "abhyanga",
		Name:             "Abhyanga",
		Type:             "massage",
		StandardDuration: 60,
		BufferTime:       15,
		Constraints:      model.TherapyConstraints{PreferredTime: model.Morning},
	}
}

func dailyPlan(id, patientID, therapistID string, days int) model.TreatmentPlan {
	return model.TreatmentPlan{
		ID:          id,
		PatientID:   patientID,
		TherapistID: therapistID,
		Phases: []model.Phase{{
			SequenceNumber: 1,
			Name:           model.Purvakarma,
			TotalDays:      days,
			TherapySessions: []model.TherapySessionSpec{{
				TherapyID:    "abhyanga",
				SessionCount: days,
				Frequency:    model.FrequencyDaily,
			}},
		}},
		Preferences: model.SchedulingPreferences{
			StartDate:             monday,
			PreferredTimeSlot:     model.Morning,
			SkipWeekends:          true,
			FlexibilityWindowDays: 2,
		},
	}
}

func buildTestModel(t *testing.T, cfg Config, plans []model.TreatmentPlan, therapies map[string]model.Therapy, therapists map[string]model.Therapist, therapistBusy, patientBusy store.BusyIntervals) *Model {
	t.Helper()
	m, err := newModelBuilder(cfg, logger.Nop{}).Build(plans, therapies, therapists, therapistBusy, patientBusy)
	if err != nil {
		t.Fatalf("build model: %v", err)
	}
	return m
}

// assertNoOverlaps fails if any two assignments share a therapist or a
// patient with intersecting [start, end+buffer) windows.
func assertNoOverlaps(t *testing.T, m *Model, sched *Schedule) {
	t.Helper()
	ids := sched.SortedSessionIDs()
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			a, b := sched.Assignments[ids[i]], sched.Assignments[ids[j]]
			sa, sb := m.Session(ids[i]), m.Session(ids[j])
			ia := model.Interval{Start: a.Start, End: a.Start.Add(time.Duration(sa.TotalMinutes()) * time.Minute)}
			ib := model.Interval{Start: b.Start, End: b.Start.Add(time.Duration(sb.TotalMinutes()) * time.Minute)}
			if !ia.Overlaps(ib) {
				continue
			}
			if a.TherapistID == b.TherapistID {
				t.Errorf("therapist %s double-booked: %s and %s", a.TherapistID, ids[i], ids[j])
			}
			if sa.PatientID == sb.PatientID {
				t.Errorf("patient %s double-booked: %s and %s", sa.PatientID, ids[i], ids[j])
			}
		}
	}
}
