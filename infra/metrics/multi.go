package metrics

import coremetrics "github.com/ayurmitra/scheduler/core/metrics"

// MultiSink fans scheduling records out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordRun forwards the record to all sinks, returning the first error
// encountered.
func (m *MultiSink) RecordRun(run coremetrics.RunResult) error {
	for _, s := range m.Sinks {
		if err := s.RecordRun(run); err != nil {
			return err
		}
	}
	return nil
}

// RecordPlan forwards the per-plan record to all sinks.
func (m *MultiSink) RecordPlan(plan coremetrics.PlanResult) error {
	for _, s := range m.Sinks {
		if err := s.RecordPlan(plan); err != nil {
			return err
		}
	}
	return nil
}
