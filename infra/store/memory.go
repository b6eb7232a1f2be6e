// Package store provides persistence adapters for the scheduling engine:
// an in-memory implementation for tests and demos, and a PostgreSQL
// implementation for production.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ayurmitra/scheduler/core/model"
	corestore "github.com/ayurmitra/scheduler/core/store"
)

// MemoryStore is a thread-safe in-memory Store. It backs tests, fixtures
// and the demo CLI; data does not survive the process.
type MemoryStore struct {
	mu sync.RWMutex

	plans      map[string]model.TreatmentPlan
	therapists map[string]model.Therapist
	therapies  map[string]model.Therapy

	consultations []model.Consultation

	// extraBusy seeds busy intervals not derived from stored consultations,
	// e.g. external calendar blocks.
	extraTherapistBusy corestore.BusyIntervals
	extraPatientBusy   corestore.BusyIntervals
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		plans:              make(map[string]model.TreatmentPlan),
		therapists:         make(map[string]model.Therapist),
		therapies:          make(map[string]model.Therapy),
		extraTherapistBusy: make(corestore.BusyIntervals),
		extraPatientBusy:   make(corestore.BusyIntervals),
	}
}

// PutPlan stores or replaces a treatment plan.
func (s *MemoryStore) PutPlan(p model.TreatmentPlan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[p.ID] = p
}

// PutTherapist stores or replaces a therapist.
func (s *MemoryStore) PutTherapist(t model.Therapist) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.therapists[t.ID] = t
}

// PutTherapy stores or replaces a therapy catalog entry.
func (s *MemoryStore) PutTherapy(t model.Therapy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.therapies[t.ID] = t
}

// AddTherapistBusy seeds an external busy interval for a therapist.
func (s *MemoryStore) AddTherapistBusy(id string, iv model.Interval) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.extraTherapistBusy[id] = append(s.extraTherapistBusy[id], iv)
}

// Plans implements core/store.PlanSource.
func (s *MemoryStore) Plans(_ context.Context, ids []string) ([]model.TreatmentPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.TreatmentPlan
	for _, id := range ids {
		if p, ok := s.plans[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// Therapists implements core/store.TherapistSource.
func (s *MemoryStore) Therapists(_ context.Context, ids []string) (map[string]model.Therapist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]model.Therapist)
	for _, id := range ids {
		if t, ok := s.therapists[id]; ok {
			out[id] = t
		}
	}
	return out, nil
}

// Therapies implements core/store.TherapySource.
func (s *MemoryStore) Therapies(_ context.Context, ids []string) (map[string]model.Therapy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]model.Therapy)
	for _, id := range ids {
		if t, ok := s.therapies[id]; ok {
			out[id] = t
		}
	}
	return out, nil
}

// Busy implements core/store.BookingSource: intervals come from stored
// non-cancelled consultations plus any seeded external blocks.
func (s *MemoryStore) Busy(_ context.Context, therapistIDs, patientIDs []string, from time.Time) (corestore.BusyIntervals, corestore.BusyIntervals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wantT := toSet(therapistIDs)
	wantP := toSet(patientIDs)
	therapists := make(corestore.BusyIntervals)
	patients := make(corestore.BusyIntervals)

	for _, c := range s.consultations {
		// Compare on EndTime so a consultation already running at from still
		// blocks its remainder.
		if c.Status == model.ConsultationCancelled || c.EndTime.Before(from) {
			continue
		}
		if wantT[c.TherapistID] {
			therapists[c.TherapistID] = append(therapists[c.TherapistID], c.Busy())
		}
		if wantP[c.PatientID] {
			patients[c.PatientID] = append(patients[c.PatientID], c.Busy())
		}
	}
	for id, ivs := range s.extraTherapistBusy {
		if wantT[id] {
			therapists[id] = append(therapists[id], ivs...)
		}
	}
	for id, ivs := range s.extraPatientBusy {
		if wantP[id] {
			patients[id] = append(patients[id], ivs...)
		}
	}
	return therapists, patients, nil
}

// SaveSchedule implements core/store.ConsultationStore. The write is atomic
// under the store's lock: either all records land or none.
func (s *MemoryStore) SaveSchedule(_ context.Context, consultations []model.Consultation, updates []model.PlanUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range updates {
		if _, ok := s.plans[u.PlanID]; !ok {
			return fmt.Errorf("plan %s not found", u.PlanID)
		}
	}

	s.consultations = append(s.consultations, consultations...)
	for _, u := range updates {
		p := s.plans[u.PlanID]
		p.GeneratedSessions = u.GeneratedSessions
		p.SchedulingStatus = u.Status
		meta := u.Metadata
		p.SchedulingMetadata = &meta
		s.plans[u.PlanID] = p
	}
	return nil
}

// DailySchedule implements core/store.ConsultationStore.
func (s *MemoryStore) DailySchedule(_ context.Context, therapistID string, day time.Time) ([]model.Consultation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Consultation
	for _, c := range s.consultations {
		if c.TherapistID == therapistID && c.Status != model.ConsultationCancelled && model.SameDate(c.ScheduledAt, day) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out, nil
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
