// Package store defines the persistence contracts the scheduling engine
// depends on. The engine fetches a snapshot of plans, therapists, therapies
// and existing bookings up front, computes entirely in memory, and persists
// its output through SaveSchedule in a single transactional boundary.
package store

import (
	"context"
	"time"

	"github.com/ayurmitra/scheduler/core/model"
)

// PlanSource resolves treatment plans by ID.
type PlanSource interface {
	Plans(ctx context.Context, ids []string) ([]model.TreatmentPlan, error)
}

// TherapistSource resolves therapist master records by ID.
type TherapistSource interface {
	Therapists(ctx context.Context, ids []string) (map[string]model.Therapist, error)
}

// TherapySource resolves therapy catalog entries by ID.
type TherapySource interface {
	Therapies(ctx context.Context, ids []string) (map[string]model.Therapy, error)
}

// BusyIntervals maps a therapist or patient ID to the time ranges already
// blocked by non-cancelled bookings.
type BusyIntervals map[string][]model.Interval

// BookingSource reads existing bookings so a run never double-books against
// what is already on the calendar at fetch time.
type BookingSource interface {
	// Busy returns busy intervals for the given therapists and patients,
	// considering bookings from the given date forward.
	Busy(ctx context.Context, therapistIDs, patientIDs []string, from time.Time) (therapists, patients BusyIntervals, err error)
}

// ConsultationStore persists the output of a run. Implementations must make
// consultation creation and plan updates atomic: either all records of a run
// are written or none.
type ConsultationStore interface {
	SaveSchedule(ctx context.Context, consultations []model.Consultation, updates []model.PlanUpdate) error

	// DailySchedule lists a therapist's non-cancelled consultations on one day,
	// ordered by start time.
	DailySchedule(ctx context.Context, therapistID string, day time.Time) ([]model.Consultation, error)
}

// Store bundles everything the engine needs from persistence.
type Store interface {
	PlanSource
	TherapistSource
	TherapySource
	BookingSource
	ConsultationStore
}
