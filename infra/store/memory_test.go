package store

import (
	"context"
	"testing"
	"time"

	"github.com/ayurmitra/scheduler/core/model"
)

func sampleConsultation(id, planID, patientID, therapistID string, start time.Time) model.Consultation {
	return model.Consultation{
		ID:              id,
		PlanID:          planID,
		PatientID:       patientID,
		TherapistID:     therapistID,
		TherapyID:       "abhyanga",
		ScheduledAt:     start,
		EndTime:         start.Add(time.Hour),
		DurationMinutes: 60,
		Status:          model.ConsultationDraft,
		CreatedAt:       start,
	}
}

func TestMemoryStore_SaveScheduleUpdatesPlan(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.PutPlan(model.TreatmentPlan{ID: "plan-1", PatientID: "pat-1", TherapistID: "th-1"})

	start := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	err := s.SaveSchedule(ctx,
		[]model.Consultation{sampleConsultation("c-1", "plan-1", "pat-1", "th-1", start)},
		[]model.PlanUpdate{{
			PlanID: "plan-1",
			Status: model.StatusScheduled,
			GeneratedSessions: []model.GeneratedSession{
				{ConsultationID: "c-1", DayNumber: 1, Status: "scheduled"},
			},
			Metadata: model.SchedulingMetadata{AlgorithmUsed: "cp-greedy", OptimizationScore: 1},
		}})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	plans, err := s.Plans(ctx, []string{"plan-1"})
	if err != nil || len(plans) != 1 {
		t.Fatalf("plans: %v (%d)", err, len(plans))
	}
	p := plans[0]
	if p.SchedulingStatus != model.StatusScheduled {
		t.Fatalf("expected status scheduled, got %s", p.SchedulingStatus)
	}
	if len(p.GeneratedSessions) != 1 || p.GeneratedSessions[0].ConsultationID != "c-1" {
		t.Fatalf("generated sessions not written back: %+v", p.GeneratedSessions)
	}
	if p.SchedulingMetadata == nil || p.SchedulingMetadata.AlgorithmUsed != "cp-greedy" {
		t.Fatal("metadata not written back")
	}
}

func TestMemoryStore_SaveScheduleUnknownPlanIsAtomic(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	start := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	err := s.SaveSchedule(ctx,
		[]model.Consultation{sampleConsultation("c-1", "plan-missing", "pat-1", "th-1", start)},
		[]model.PlanUpdate{{PlanID: "plan-missing"}})
	if err == nil {
		t.Fatal("expected error for unknown plan")
	}
	if got, _ := s.DailySchedule(ctx, "th-1", start); len(got) != 0 {
		t.Fatal("failed save must not leave consultations behind")
	}
}

func TestMemoryStore_BusyExcludesCancelled(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.PutPlan(model.TreatmentPlan{ID: "plan-1"})

	start := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	active := sampleConsultation("c-1", "plan-1", "pat-1", "th-1", start)
	cancelled := sampleConsultation("c-2", "plan-1", "pat-1", "th-1", start.Add(2*time.Hour))
	cancelled.Status = model.ConsultationCancelled
	if err := s.SaveSchedule(ctx, []model.Consultation{active, cancelled}, []model.PlanUpdate{{PlanID: "plan-1"}}); err != nil {
		t.Fatalf("save: %v", err)
	}

	therapists, patients, err := s.Busy(ctx, []string{"th-1"}, []string{"pat-1"}, start.AddDate(0, 0, -1))
	if err != nil {
		t.Fatalf("busy: %v", err)
	}
	if len(therapists["th-1"]) != 1 {
		t.Fatalf("expected 1 therapist interval, got %d", len(therapists["th-1"]))
	}
	if len(patients["pat-1"]) != 1 {
		t.Fatalf("expected 1 patient interval, got %d", len(patients["pat-1"]))
	}
}

func TestMemoryStore_BusyKeepsOngoingConsultation(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.PutPlan(model.TreatmentPlan{ID: "plan-1"})

	start := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	ongoing := sampleConsultation("c-1", "plan-1", "pat-1", "th-1", start)
	finished := sampleConsultation("c-2", "plan-1", "pat-1", "th-1", start.Add(-3*time.Hour))
	if err := s.SaveSchedule(ctx, []model.Consultation{ongoing, finished}, []model.PlanUpdate{{PlanID: "plan-1"}}); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Mid-consultation cutoff: c-1 started half an hour ago but runs until
	// 10:00, so it still counts as busy; c-2 ended well before.
	therapists, patients, err := s.Busy(ctx, []string{"th-1"}, []string{"pat-1"}, start.Add(30*time.Minute))
	if err != nil {
		t.Fatalf("busy: %v", err)
	}
	if len(therapists["th-1"]) != 1 {
		t.Fatalf("expected the ongoing interval only, got %d", len(therapists["th-1"]))
	}
	if len(patients["pat-1"]) != 1 {
		t.Fatalf("expected the ongoing patient interval only, got %d", len(patients["pat-1"]))
	}
}

func TestMemoryStore_DailyScheduleOrdered(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.PutPlan(model.TreatmentPlan{ID: "plan-1"})

	day := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	late := sampleConsultation("c-late", "plan-1", "pat-1", "th-1", day.Add(14*time.Hour))
	early := sampleConsultation("c-early", "plan-1", "pat-2", "th-1", day.Add(9*time.Hour))
	other := sampleConsultation("c-other", "plan-1", "pat-3", "th-2", day.Add(10*time.Hour))
	if err := s.SaveSchedule(ctx, []model.Consultation{late, early, other}, []model.PlanUpdate{{PlanID: "plan-1"}}); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.DailySchedule(ctx, "th-1", day)
	if err != nil {
		t.Fatalf("daily schedule: %v", err)
	}
	if len(got) != 2 || got[0].ID != "c-early" || got[1].ID != "c-late" {
		t.Fatalf("unexpected daily schedule: %+v", got)
	}
}
