package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/ayurmitra/scheduler/core/metrics"
	"github.com/ayurmitra/scheduler/infra/logger"
)

// InfluxSink writes scheduling events to an InfluxDB instance using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordRun writes the run summary as a line-protocol point.
func (s *InfluxSink) RecordRun(run coremetrics.RunResult) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("scheduling_run").
		AddTag("run_id", run.RunID).
		AddTag("algorithm", run.Algorithm).
		AddTag("component", "scheduling_engine").
		AddField("plans", run.Plans).
		AddField("total_sessions", run.TotalSessions).
		AddField("scheduled", run.Scheduled).
		AddField("conflicted", run.Conflicted).
		AddField("success_rate", round3(run.SuccessRate)).
		AddField("duration_ms", run.Duration.Milliseconds()).
		SetTime(run.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordPlan writes the per-plan outcome of a run.
func (s *InfluxSink) RecordPlan(plan coremetrics.PlanResult) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("plan_schedule").
		AddTag("run_id", plan.RunID).
		AddTag("plan_id", plan.PlanID).
		AddTag("therapist_id", plan.TherapistID).
		AddTag("component", "scheduling_engine").
		AddField("total_sessions", plan.TotalSessions).
		AddField("scheduled", plan.Scheduled).
		AddField("conflicted", plan.Conflicted).
		AddField("optimization_score", round3(plan.OptimizationScore)).
		SetTime(plan.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying client.
func (s *InfluxSink) Close() {
	s.client.Close()
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
