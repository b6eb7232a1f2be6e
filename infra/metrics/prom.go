package metrics

import (
	coremetrics "github.com/ayurmitra/scheduler/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records scheduling outcomes in Prometheus metrics.
type PromSink struct {
	runs        *prometheus.CounterVec
	sessions    *prometheus.CounterVec
	successRate prometheus.Gauge
	duration    prometheus.Histogram
	planScore   *prometheus.GaugeVec
}

// NewPromSink registers scheduling metrics on the default Prometheus
// registerer. The Prometheus server should be started separately.
func NewPromSink() (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduling_runs_total",
		Help: "Total number of scheduling runs",
	}, []string{"algorithm"})
	sessions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduling_sessions_total",
		Help: "Sessions processed by outcome",
	}, []string{"outcome"})
	successRate := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "scheduling_last_success_rate",
		Help: "Success rate of the most recent scheduling run",
	})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "scheduling_run_duration_seconds",
		Help:    "Wall-clock duration of scheduling runs",
		Buckets: prometheus.DefBuckets,
	})
	planScore := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "scheduling_plan_optimization_score",
		Help: "Optimization score of the last run per plan",
	}, []string{"plan_id"})

	if err := reg.Register(runs); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			runs = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(sessions); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			sessions = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(successRate); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			successRate = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(duration); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			duration = are.ExistingCollector.(prometheus.Histogram)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(planScore); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			planScore = are.ExistingCollector.(*prometheus.GaugeVec)
		} else {
			return nil, err
		}
	}

	return &PromSink{
		runs:        runs,
		sessions:    sessions,
		successRate: successRate,
		duration:    duration,
		planScore:   planScore,
	}, nil
}

// RecordRun updates the run-level counters and gauges.
func (s *PromSink) RecordRun(run coremetrics.RunResult) error {
	s.runs.WithLabelValues(run.Algorithm).Inc()
	s.sessions.WithLabelValues("scheduled").Add(float64(run.Scheduled))
	s.sessions.WithLabelValues("conflicted").Add(float64(run.Conflicted))
	s.successRate.Set(run.SuccessRate)
	s.duration.Observe(run.Duration.Seconds())
	return nil
}

// RecordPlan sets the per-plan optimization score gauge.
func (s *PromSink) RecordPlan(plan coremetrics.PlanResult) error {
	s.planScore.WithLabelValues(plan.PlanID).Set(plan.OptimizationScore)
	return nil
}
