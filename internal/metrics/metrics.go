// Package metrics counts Liquibase invocations in a Prometheus registry and
// writes them out in the node-exporter textfile format.
package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	liquibase "github.com/bcomnes/goliquibase"
)

const namespace = "goliquibase"

// Outcome label values.
const (
	OutcomeSuccess     = "success"
	OutcomeFailure     = "failure"
	OutcomeLaunchError = "launch_error"
)

// Metrics is a liquibase.Recorder backed by its own registry.
type Metrics struct {
	registry    *prometheus.Registry
	invocations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

var _ liquibase.Recorder = (*Metrics)(nil)

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invocations_total",
			Help:      "Liquibase invocations by command and outcome.",
		}, []string{"command", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "invocation_duration_seconds",
			Help:      "Wall time of Liquibase invocations.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"command"}),
	}
	m.registry.MustRegister(m.invocations, m.duration)
	return m
}

// Registry exposes the underlying registry, e.g. for promhttp.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Record counts inv. It never fails.
func (m *Metrics) Record(_ context.Context, inv liquibase.Invocation) error {
	cmd := string(inv.Command)
	m.invocations.WithLabelValues(cmd, outcome(inv)).Inc()
	m.duration.WithLabelValues(cmd).Observe(inv.Duration.Seconds())
	return nil
}

// outcome classifies an invocation.
func outcome(inv liquibase.Invocation) string {
	switch {
	case inv.Succeeded():
		return OutcomeSuccess
	case !inv.Launched:
		return OutcomeLaunchError
	default:
		return OutcomeFailure
	}
}

// WriteTextfile atomically writes every metric to path.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
