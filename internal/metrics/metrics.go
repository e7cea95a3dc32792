// Package metrics exposes Prometheus collectors for the validation pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JaimeStill/bluecite/internal/pipeline"
	"github.com/JaimeStill/bluecite/internal/stages"
)

const namespace = "bluecite"

// Metrics holds the pipeline collectors on a private registry. It satisfies
// pipeline.Observer and is safe for concurrent use.
type Metrics struct {
	registry *prometheus.Registry

	citations         *prometheus.CounterVec
	stageDuration     *prometheus.HistogramVec
	inferenceAttempts *prometheus.CounterVec
	evidenceFailures  *prometheus.CounterVec
}

// New creates the collectors and registers them, along with the Go runtime
// and process collectors, on a new registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		citations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "citations_total",
			Help:      "Citations validated, by exit stage and verdict.",
		}, []string{"stage_at_exit", "valid"}),
		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Time spent in each validation stage.",
			Buckets:   []float64{0.0001, 0.001, 0.01, 0.1, 0.5, 1, 5, 15, 30, 60, 120},
		}, []string{"stage"}),
		inferenceAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inference_attempts_total",
			Help:      "Inference service attempts, by outcome.",
		}, []string{"outcome"}),
		evidenceFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evidence_failures_total",
			Help:      "Findings in finalized reports that failed evidence validation, by status.",
		}, []string{"status"}),
	}
}

// Registry returns the registry backing the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) StageCompleted(stage stages.Name, elapsed time.Duration) {
	m.stageDuration.WithLabelValues(string(stage)).Observe(elapsed.Seconds())
}

func (m *Metrics) CitationCompleted(report *pipeline.Report) {
	m.citations.WithLabelValues(
		string(report.StageAtExit),
		strconv.FormatBool(report.FinalResult.IsValid),
	).Inc()

	for _, e := range report.FinalResult.Errors {
		if !e.IsServiceFailure() && e.EvidenceStatus != stages.EvidenceVerified {
			m.evidenceFailures.WithLabelValues(string(e.EvidenceStatus)).Inc()
		}
	}
}

// InferenceAttempt counts one inference attempt. It matches stages.AttemptObserver.
func (m *Metrics) InferenceAttempt(outcome string) {
	m.inferenceAttempts.WithLabelValues(outcome).Inc()
}
