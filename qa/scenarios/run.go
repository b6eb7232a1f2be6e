package scenarios

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ayurmitra/scheduler/core/engine"
	"github.com/ayurmitra/scheduler/core/logger"
	"github.com/ayurmitra/scheduler/infra/metrics"
	"github.com/ayurmitra/scheduler/infra/store"
)

// RunScenario seeds a fresh in-memory store from the scenario, runs one
// scheduling batch and checks the expectations.
func RunScenario(t *testing.T, sc *Scenario) {
	t.Helper()

	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}

	st := store.NewMemoryStore()
	planIDs := make([]string, 0, len(sc.Plans))
	for _, d := range sc.Therapists {
		therapist, err := d.ToModel()
		if err != nil {
			t.Fatalf("scenario %s: %v", sc.Name, err)
		}
		st.PutTherapist(therapist)
	}
	for _, d := range sc.Therapies {
		therapy, err := d.ToModel()
		if err != nil {
			t.Fatalf("scenario %s: %v", sc.Name, err)
		}
		st.PutTherapy(therapy)
	}
	for _, d := range sc.Plans {
		plan, err := d.ToModel()
		if err != nil {
			t.Fatalf("scenario %s: %v", sc.Name, err)
		}
		st.PutPlan(plan)
		planIDs = append(planIDs, plan.ID)
	}

	cfg := engine.DefaultConfig()
	cfg.GA.Seed = 1
	eng, err := engine.New(cfg, st, logger.Nop{}, sink)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}

	now := time.Now()
	if sc.Now != "" {
		parsed, err := time.Parse("2006-01-02", sc.Now)
		if err != nil {
			t.Fatalf("scenario %s now: %v", sc.Name, err)
		}
		now = parsed
	}

	result, err := eng.Schedule(context.Background(), engine.Request{
		PlanIDs: planIDs,
		Force:   sc.Force,
		Now:     now,
	})
	if err != nil {
		t.Fatalf("scenario %s: schedule: %v", sc.Name, err)
	}

	if result.ScheduledCount != sc.Expected.Scheduled {
		t.Errorf("scenario %s: expected %d scheduled, got %d", sc.Name, sc.Expected.Scheduled, result.ScheduledCount)
	}
	if result.ConflictCount != sc.Expected.Conflicts {
		t.Errorf("scenario %s: expected %d conflicts, got %d", sc.Name, sc.Expected.Conflicts, result.ConflictCount)
	}
	for planID, want := range sc.Expected.Status {
		found := false
		for _, plan := range result.Plans {
			if plan.PlanID == planID {
				found = true
				if string(plan.Status) != want {
					t.Errorf("scenario %s: plan %s status %s, want %s", sc.Name, planID, plan.Status, want)
				}
			}
		}
		if !found {
			t.Errorf("scenario %s: plan %s missing from result", sc.Name, planID)
		}
	}
}
