package metrics

import (
	"fmt"

	coremetrics "github.com/ayurmitra/scheduler/core/metrics"
)

// Config selects and parameterizes the metrics sinks to build.
type Config struct {
	Prometheus bool `json:"prometheus"`

	Influx struct {
		Enabled bool   `json:"enabled"`
		URL     string `json:"url"`
		Token   string `json:"token"`
		Org     string `json:"org"`
		Bucket  string `json:"bucket"`
	} `json:"influx"`
}

// NewSink assembles the configured sinks into one MetricsSink. With nothing
// enabled it returns a NopSink.
func NewSink(cfg Config) (coremetrics.MetricsSink, error) {
	var sinks []coremetrics.MetricsSink
	if cfg.Prometheus {
		prom, err := NewPromSink()
		if err != nil {
			return nil, fmt.Errorf("prometheus sink: %w", err)
		}
		sinks = append(sinks, prom)
	}
	if cfg.Influx.Enabled {
		sinks = append(sinks, NewInfluxSinkWithFallback(cfg.Influx.URL, cfg.Influx.Token, cfg.Influx.Org, cfg.Influx.Bucket))
	}
	switch len(sinks) {
	case 0:
		return coremetrics.NopSink{}, nil
	case 1:
		return sinks[0], nil
	default:
		return NewMultiSink(sinks...), nil
	}
}
