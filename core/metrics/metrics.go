package metrics

import "time"

// RunResult summarises one scheduling run for observability sinks.
type RunResult struct {
	RunID         string
	Plans         int
	TotalSessions int
	Scheduled     int
	Conflicted    int
	SuccessRate   float64
	Algorithm     string
	Duration      time.Duration
	Time          time.Time
}

// PlanResult is the per-plan slice of a run.
type PlanResult struct {
	RunID             string
	PlanID            string
	TherapistID       string
	TotalSessions     int
	Scheduled         int
	Conflicted        int
	OptimizationScore float64
	Time              time.Time
}

// MetricsSink records scheduling outcomes for observability purposes.
type MetricsSink interface {
	RecordRun(run RunResult) error
	RecordPlan(plan PlanResult) error
}

// NopSink ignores all events.
type NopSink struct{}

// RecordRun implements MetricsSink.
func (NopSink) RecordRun(RunResult) error { return nil }

// RecordPlan implements MetricsSink.
func (NopSink) RecordPlan(PlanResult) error { return nil }
