package engine

import (
	"time"

	"github.com/ayurmitra/scheduler/core/model"
)

// SessionOutcome is the per-session line of a plan report.
type SessionOutcome struct {
	SessionID      string          `json:"session_id"`
	ConsultationID string          `json:"consultation_id,omitempty"`
	TherapyName    string          `json:"therapy_name"`
	PhaseName      model.PhaseName `json:"phase_name"`
	DayNumber      int             `json:"day_number"`
	Scheduled      bool            `json:"scheduled"`
	Date           time.Time       `json:"date,omitempty"`
	StartTime      time.Time       `json:"start_time,omitempty"`
	EndTime        time.Time       `json:"end_time,omitempty"`
	ConflictReason string          `json:"conflict_reason,omitempty"`
}

// PlanReport is the per-plan breakdown of a run.
type PlanReport struct {
	PlanID            string                 `json:"plan_id"`
	PatientID         string                 `json:"patient_id"`
	TherapistID       string                 `json:"therapist_id"`
	Status            model.SchedulingStatus `json:"status"`
	TotalSessions     int                    `json:"total_sessions"`
	ScheduledCount    int                    `json:"scheduled_count"`
	ConflictCount     int                    `json:"conflict_count"`
	OptimizationScore float64                `json:"optimization_score"`
	FirstDate         time.Time              `json:"first_date,omitempty"`
	LastDate          time.Time              `json:"last_date,omitempty"`
	Sessions          []SessionOutcome       `json:"sessions"`
}

// TherapistUtilization summarises one therapist's booked load across the
// run's active days.
type TherapistUtilization struct {
	TherapistID    string  `json:"therapist_id"`
	ActiveDays     int     `json:"active_days"`
	BookedMinutes  int     `json:"booked_minutes"`
	SessionsPlaced int     `json:"sessions_placed"`
	Utilization    float64 `json:"utilization"` // booked share of the working day, 0-1
}

// QualityMetrics aggregates scheduling quality over the whole run.
type QualityMetrics struct {
	SuccessRate         float64 `json:"success_rate"`
	PreferenceMatchRate float64 `json:"preference_match_rate"`
	UtilizationBalance  float64 `json:"utilization_balance"`
	OverallScore        float64 `json:"overall_score"`
}

// Result is the structured outcome of one scheduling run.
type Result struct {
	RunID                string                          `json:"run_id"`
	TotalSessions        int                             `json:"total_sessions"`
	ScheduledCount       int                             `json:"scheduled_count"`
	ConflictCount        int                             `json:"conflict_count"`
	SuccessRate          float64                         `json:"success_rate"`
	ConsultationsCreated int                             `json:"consultations_created"`
	Duration             time.Duration                   `json:"duration"`
	AlgorithmUsed        string                          `json:"algorithm_used"`
	Warnings             []string                        `json:"warnings,omitempty"`
	Plans                []PlanReport                    `json:"plans"`
	ResourceUtilization  map[string]TherapistUtilization `json:"resource_utilization"`
	Quality              QualityMetrics                  `json:"quality_metrics"`
}
