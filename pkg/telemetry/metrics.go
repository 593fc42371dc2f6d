package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus counters for harness activity. A nil *Metrics
// is a valid no-op recorder.
type Metrics struct {
	deploys       *prometheus.CounterVec
	destroys      *prometheus.CounterVec
	workflowPolls *prometheus.CounterVec
	assertions    *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates a metrics collector with its own registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "stackprobe"
	}
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		deploys: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "deploys_total",
				Help:      "Deployment attempts by result.",
			},
			[]string{"result"},
		),
		destroys: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "destroys_total",
				Help:      "Teardown attempts by result.",
			},
			[]string{"result"},
		),
		workflowPolls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "workflow_polls_total",
				Help:      "Durable-mode status polls by observed status.",
			},
			[]string{"status"},
		),
		assertions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "assertions_total",
				Help:      "Matcher evaluations by result.",
			},
			[]string{"result"},
		),
	}

	registry.MustRegister(m.deploys, m.destroys, m.workflowPolls, m.assertions)
	return m
}

// RecordDeploy records a deployment attempt.
func (m *Metrics) RecordDeploy(result string) {
	if m == nil {
		return
	}
	m.deploys.WithLabelValues(result).Inc()
}

// RecordDestroy records a teardown attempt.
func (m *Metrics) RecordDestroy(result string) {
	if m == nil {
		return
	}
	m.destroys.WithLabelValues(result).Inc()
}

// RecordWorkflowPoll records one durable-mode status poll.
func (m *Metrics) RecordWorkflowPoll(status string) {
	if m == nil {
		return
	}
	m.workflowPolls.WithLabelValues(status).Inc()
}

// RecordAssertion records one matcher evaluation.
func (m *Metrics) RecordAssertion(pass bool) {
	if m == nil {
		return
	}
	result := "fail"
	if pass {
		result = "pass"
	}
	m.assertions.WithLabelValues(result).Inc()
}

// Handler returns an HTTP handler exposing the metrics registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
