package model

import "time"

// ConsultationStatus is the lifecycle state of a persisted booking.
type ConsultationStatus string

const (
	ConsultationDraft     ConsultationStatus = "draft"
	ConsultationConfirmed ConsultationStatus = "confirmed"
	ConsultationCancelled ConsultationStatus = "cancelled"
	ConsultationCompleted ConsultationStatus = "completed"
)

// Consultation is the persisted booking derived 1:1 from a scheduled
// session. Draft consultations await therapist approval before becoming
// confirmed; approval is an external workflow.
type Consultation struct {
	ID          string
	PlanID      string
	PatientID   string
	TherapistID string

	TherapyID   string
	TherapyName string
	TherapyType string

	PhaseName     PhaseName
	PhaseSequence int

	// DayNumber is the session's 1-based day offset within the plan. It is
	// carried from the session's required day, never recomputed from dates
	// unless the required day is absent.
	DayNumber              int
	SessionNumber          int
	SessionInTherapy       int
	TotalSessionsInTherapy int

	ScheduledAt     time.Time
	EndTime         time.Time
	DurationMinutes int

	Status    ConsultationStatus
	Notes     string
	CreatedAt time.Time
}

// Busy returns the interval this consultation blocks for both participants.
func (c Consultation) Busy() Interval {
	return Interval{Start: c.ScheduledAt, End: c.EndTime}
}
