package model

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// PhaseName identifies one of the three Panchakarma phases.
type PhaseName string

const (
	Purvakarma    PhaseName = "purvakarma"
	Pradhanakarma PhaseName = "pradhanakarma"
	Paschatkarma  PhaseName = "paschatkarma"
)

// SchedulingStatus tracks where a treatment plan is in the scheduling
// lifecycle.
type SchedulingStatus string

const (
	StatusUnscheduled SchedulingStatus = "unscheduled"
	StatusScheduled   SchedulingStatus = "scheduled"
	StatusPartial     SchedulingStatus = "partial"
	StatusFailed      SchedulingStatus = "failed"
	StatusApproved    SchedulingStatus = "approved"
)

// TherapySessionSpec describes a course of one therapy inside a phase.
type TherapySessionSpec struct {
	TherapyID                       string
	SessionCount                    int
	Frequency                       Frequency
	DurationMinutes                 int // overrides the therapy's standard duration when set
	RequiresPreviousPhaseComplete   bool
	MinimumDaysSincePreviousSession int
	AllowsParallelSessions          bool
}

// Phase is one stage of a treatment plan. Phases execute strictly in
// SequenceNumber order.
type Phase struct {
	SequenceNumber  int
	Name            PhaseName
	TotalDays       int // explicit duration; 0 means derive from therapy sessions
	TherapySessions []TherapySessionSpec
}

// Duration returns the phase length in days: the explicit TotalDays when set,
// otherwise the longest course implied by its therapy sessions, never less
// than one day.
func (p Phase) Duration() int {
	if p.TotalDays > 0 {
		return p.TotalDays
	}
	maxDays := 1
	for _, ts := range p.TherapySessions {
		count := ts.SessionCount
		if count < 1 {
			count = 1
		}
		days := count * ts.Frequency.DayIncrement()
		if days > maxDays {
			maxDays = days
		}
	}
	return maxDays
}

// SchedulingPreferences carries the patient-facing knobs of a plan.
type SchedulingPreferences struct {
	StartDate             time.Time
	PreferredTimeSlot     TimeOfDay
	SkipWeekends          bool
	FlexibilityWindowDays int
}

// GeneratedSession is the durable per-session summary written back to the
// plan after a scheduling run.
type GeneratedSession struct {
	ConsultationID     string
	PhaseSequence      int
	PhaseName          PhaseName
	TherapyID          string
	TherapyName        string
	SessionNumber      int
	DayNumber          int
	ScheduledDate      time.Time
	ScheduledStartTime time.Time
	ScheduledEndTime   time.Time
	Status             string // "scheduled" or "conflict"
	ConflictReason     string
}

// SchedulingMetadata records how a plan's last scheduling run went.
type SchedulingMetadata struct {
	AlgorithmUsed     string
	ExecutionTime     time.Duration
	OptimizationScore float64
	Warnings          []string
	ScheduledAt       time.Time
}

// TreatmentPlan is a multi-phase Panchakarma program for one patient with
// one assigned therapist. The engine reads the clinical fields and writes
// only the scheduling fields (GeneratedSessions, SchedulingStatus,
// SchedulingMetadata).
type TreatmentPlan struct {
	ID            string
	PatientID     string
	TherapistID   string
	TreatmentName string
	Phases        []Phase
	Preferences   SchedulingPreferences

	GeneratedSessions  []GeneratedSession
	SchedulingStatus   SchedulingStatus
	SchedulingMetadata *SchedulingMetadata
}

// ErrPlanNotReady indicates a plan is missing the data scheduling needs.
var ErrPlanNotReady = errors.New("treatment plan not ready for scheduling")

// Ready reports whether the plan satisfies the scheduling precondition:
// it has phases, a start date and an assigned therapist.
func (p TreatmentPlan) Ready() error {
	switch {
	case len(p.Phases) == 0:
		return fmt.Errorf("%w: plan %s has no phases", ErrPlanNotReady, p.ID)
	case p.Preferences.StartDate.IsZero():
		return fmt.Errorf("%w: plan %s has no start date", ErrPlanNotReady, p.ID)
	case p.TherapistID == "":
		return fmt.Errorf("%w: plan %s has no assigned therapist", ErrPlanNotReady, p.ID)
	}
	return nil
}

// SortedPhases returns the phases ordered by sequence number without
// modifying the plan.
func (p TreatmentPlan) SortedPhases() []Phase {
	phases := make([]Phase, len(p.Phases))
	copy(phases, p.Phases)
	sort.Slice(phases, func(i, j int) bool {
		return phases[i].SequenceNumber < phases[j].SequenceNumber
	})
	return phases
}

// PlannedDays returns the total planned duration of the plan in days.
func (p TreatmentPlan) PlannedDays() int {
	total := 0
	for _, phase := range p.Phases {
		total += phase.Duration()
	}
	return total
}

// PlanUpdate is the write-back record produced by a scheduling run for one
// plan. It is persisted together with the created consultations.
type PlanUpdate struct {
	PlanID            string
	GeneratedSessions []GeneratedSession
	Status            SchedulingStatus
	Metadata          SchedulingMetadata
}
