// Package infra contains adapters binding the scheduling core to external
// systems: structured logging, metrics sinks, MQTT event publishing and the
// persistence layer.
package infra
