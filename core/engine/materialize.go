package engine

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ayurmitra/scheduler/core/logger"
	"github.com/ayurmitra/scheduler/core/model"
)

// workingDayMinutes is the reference day length utilization is reported
// against.
const workingDayMinutes = 8 * 60

// Blend weights of the per-plan optimization score and the run-level
// quality score. Calibration values carried as constants here because the
// materializer only reports them; the engine's decision weights live in
// Config.
const (
	planScoreSuccessWeight = 0.7
	planScorePrefWeight    = 0.3

	runScoreSuccessWeight = 0.5
	runScorePrefWeight    = 0.25
	runScoreBalanceWeight = 0.25
)

// materializer turns a final schedule into persistable consultations, plan
// write-backs and the run report.
type materializer struct {
	cfg   Config
	log   logger.Logger
	now   func() time.Time
	newID func() string
}

func newMaterializer(cfg Config, log logger.Logger) *materializer {
	return &materializer{cfg: cfg, log: log, now: time.Now, newID: uuid.NewString}
}

// Materialize builds one draft consultation per scheduled session, a
// PlanUpdate per plan and the aggregated Result.
func (mz *materializer) Materialize(m *Model, sched *Schedule, runID, algorithm string, warnings []string, elapsed time.Duration) ([]model.Consultation, []model.PlanUpdate, *Result) {
	now := mz.now()

	consultations := make([]model.Consultation, 0, sched.ScheduledCount())
	consultationBySession := make(map[string]model.Consultation, sched.ScheduledCount())
	for _, id := range sched.SortedSessionIDs() {
		s := m.Session(id)
		if s == nil {
			continue
		}
		a := sched.Assignments[id]
		c := mz.consultation(s, a, now, &warnings)
		consultations = append(consultations, c)
		consultationBySession[id] = c
	}

	result := &Result{
		RunID:                runID,
		TotalSessions:        len(m.Sessions),
		ScheduledCount:       sched.ScheduledCount(),
		ConflictCount:        sched.ConflictCount(),
		ConsultationsCreated: len(consultations),
		Duration:             elapsed,
		AlgorithmUsed:        algorithm,
		Warnings:             warnings,
		ResourceUtilization:  utilizationReport(m, sched),
	}
	if result.TotalSessions > 0 {
		result.SuccessRate = float64(result.ScheduledCount) / float64(result.TotalSessions)
	}

	var updates []model.PlanUpdate
	for i := range m.Plans {
		plan := &m.Plans[i]
		report, update := mz.planOutcome(m, plan, sched, consultationBySession, algorithm, warnings, elapsed, now)
		result.Plans = append(result.Plans, report)
		updates = append(updates, update)
	}

	result.Quality = mz.quality(m, sched, result)
	sort.Strings(result.Warnings)
	return consultations, updates, result
}

// consultation maps one assignment to a draft booking. The day number is
// the session's required day; recomputing it from dates is a degraded
// fallback used only when the required day is absent.
func (mz *materializer) consultation(s *Session, a Assignment, now time.Time, warnings *[]string) model.Consultation {
	day := s.RequiredDay
	if day <= 0 {
		day = model.DaysBetween(s.PlanStart, a.Date) + 1
		w := "session " + s.ID + ": required day absent, derived day number from scheduled date"
		*warnings = append(*warnings, w)
		mz.log.Warnf("%s", w)
	}
	return model.Consultation{
		ID:          mz.newID(),
		PlanID:      s.PlanID,
		PatientID:   s.PatientID,
		TherapistID: a.TherapistID,

		TherapyID:   s.TherapyID,
		TherapyName: s.TherapyName,
		TherapyType: s.TherapyType,

		PhaseName:     s.PhaseName,
		PhaseSequence: s.PhaseSequence,

		DayNumber:              day,
		SessionNumber:          s.SessionNumber,
		SessionInTherapy:       s.SessionInTherapy,
		TotalSessionsInTherapy: s.TotalSessionsInTherapy,

		ScheduledAt:     a.Start,
		EndTime:         a.End,
		DurationMinutes: s.DurationMinutes,

		Status:    model.ConsultationDraft,
		CreatedAt: now,
	}
}

func (mz *materializer) planOutcome(m *Model, plan *model.TreatmentPlan, sched *Schedule, bysession map[string]model.Consultation, algorithm string, warnings []string, elapsed time.Duration, now time.Time) (PlanReport, model.PlanUpdate) {
	report := PlanReport{
		PlanID:      plan.ID,
		PatientID:   plan.PatientID,
		TherapistID: plan.TherapistID,
	}
	var generated []model.GeneratedSession
	prefHits := 0

	for _, s := range m.PlanSessions(plan.ID) {
		report.TotalSessions++
		gs := model.GeneratedSession{
			PhaseSequence: s.PhaseSequence,
			PhaseName:     s.PhaseName,
			TherapyID:     s.TherapyID,
			TherapyName:   s.TherapyName,
			SessionNumber: s.SessionNumber,
			DayNumber:     s.RequiredDay,
		}
		outcome := SessionOutcome{
			SessionID:   s.ID,
			TherapyName: s.TherapyName,
			PhaseName:   s.PhaseName,
			DayNumber:   s.RequiredDay,
		}

		if a, ok := sched.Assignments[s.ID]; ok {
			report.ScheduledCount++
			c := bysession[s.ID]
			gs.ConsultationID = c.ID
			gs.ScheduledDate = a.Date
			gs.ScheduledStartTime = a.Start
			gs.ScheduledEndTime = a.End
			gs.Status = "scheduled"

			outcome.ConsultationID = c.ID
			outcome.Scheduled = true
			outcome.Date = a.Date
			outcome.StartTime = a.Start
			outcome.EndTime = a.End

			if report.FirstDate.IsZero() || a.Date.Before(report.FirstDate) {
				report.FirstDate = a.Date
			}
			if a.Date.After(report.LastDate) {
				report.LastDate = a.Date
			}
			if matchesPreference(s, a) {
				prefHits++
			}
		} else {
			report.ConflictCount++
			reason := sched.Conflicts[s.ID]
			gs.Status = "conflict"
			gs.ConflictReason = reason
			outcome.ConflictReason = reason
		}
		generated = append(generated, gs)
		report.Sessions = append(report.Sessions, outcome)
	}

	switch {
	case report.ScheduledCount == report.TotalSessions && report.TotalSessions > 0:
		report.Status = model.StatusScheduled
	case report.ScheduledCount > 0:
		report.Status = model.StatusPartial
	default:
		report.Status = model.StatusFailed
	}

	if report.TotalSessions > 0 {
		success := float64(report.ScheduledCount) / float64(report.TotalSessions)
		prefRate := 0.0
		if report.ScheduledCount > 0 {
			prefRate = float64(prefHits) / float64(report.ScheduledCount)
		}
		report.OptimizationScore = planScoreSuccessWeight*success + planScorePrefWeight*prefRate
	}

	update := model.PlanUpdate{
		PlanID:            plan.ID,
		GeneratedSessions: generated,
		Status:            report.Status,
		Metadata: model.SchedulingMetadata{
			AlgorithmUsed:     algorithm,
			ExecutionTime:     elapsed,
			OptimizationScore: report.OptimizationScore,
			Warnings:          warnings,
			ScheduledAt:       now,
		},
	}
	return report, update
}

func matchesPreference(s *Session, a Assignment) bool {
	pref := s.PatientPreferredTime
	if pref == "" || pref == model.Flexible {
		return true
	}
	return model.TimeOfDayForHour(a.Start.Hour()) == pref
}

func utilizationReport(m *Model, sched *Schedule) map[string]TherapistUtilization {
	type acc struct {
		minutes int
		placed  int
		days    map[string]bool
	}
	accs := make(map[string]*acc)
	for id, a := range sched.Assignments {
		s := m.Session(id)
		if s == nil {
			continue
		}
		u := accs[a.TherapistID]
		if u == nil {
			u = &acc{days: make(map[string]bool)}
			accs[a.TherapistID] = u
		}
		u.minutes += s.TotalMinutes()
		u.placed++
		u.days[a.Date.Format("2006-01-02")] = true
	}

	out := make(map[string]TherapistUtilization, len(accs))
	for id, u := range accs {
		t := TherapistUtilization{
			TherapistID:    id,
			ActiveDays:     len(u.days),
			BookedMinutes:  u.minutes,
			SessionsPlaced: u.placed,
		}
		if t.ActiveDays > 0 {
			t.Utilization = float64(u.minutes) / float64(t.ActiveDays*workingDayMinutes)
		}
		out[id] = t
	}
	return out
}

func (mz *materializer) quality(m *Model, sched *Schedule, result *Result) QualityMetrics {
	q := QualityMetrics{SuccessRate: result.SuccessRate}

	prefHits, scheduled := 0, 0
	byTher := make(map[string]float64)
	for id, a := range sched.Assignments {
		s := m.Session(id)
		if s == nil {
			continue
		}
		scheduled++
		if matchesPreference(s, a) {
			prefHits++
		}
		byTher[a.TherapistID] += float64(s.TotalMinutes())
	}
	if scheduled > 0 {
		q.PreferenceMatchRate = float64(prefHits) / float64(scheduled)
	}
	q.UtilizationBalance = utilizationBalance(byTher) / 100

	q.OverallScore = runScoreSuccessWeight*q.SuccessRate +
		runScorePrefWeight*q.PreferenceMatchRate +
		runScoreBalanceWeight*q.UtilizationBalance
	return q
}
