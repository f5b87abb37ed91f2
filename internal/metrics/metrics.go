// Package metrics records pipeline events.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Kind identifies what an Event measures.
type Kind string

const (
	KindQuery       Kind = "query"
	KindURL         Kind = "url"
	KindExtraction  Kind = "extraction"
	KindGatewayCall Kind = "gateway_call"
	KindRun         Kind = "run"
)

// Outcomes used in Event.Outcome.
const (
	OutcomeOK      = "ok"
	OutcomeEmpty   = "empty"
	OutcomeError   = "error"
	OutcomeRobots  = "robots_denied"
	OutcomeFetch   = "fetch_failed"
	OutcomeSkipped = "skipped"
)

// Event is one measured step of a resolution.
type Event struct {
	Kind     Kind
	Outcome  string
	Source   string
	Count    int
	Duration time.Duration
}

// Recorder receives pipeline events. Implementations must be safe for
// concurrent use.
type Recorder interface {
	Record(Event)
}

// Nop discards events.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(Event) {}

// Prometheus exports events as Prometheus series on its own registry.
type Prometheus struct {
	registry    *prometheus.Registry
	events      *prometheus.CounterVec
	durations   *prometheus.HistogramVec
	executives  *prometheus.CounterVec
	runDuration prometheus.Histogram
}

// NewPrometheus creates a Prometheus recorder with a fresh registry that
// also carries the Go runtime and process collectors.
func NewPrometheus() *Prometheus {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Prometheus{
		registry: reg,
		events: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "execscraper_events_total",
				Help: "Pipeline steps by kind and outcome",
			},
			[]string{"kind", "outcome", "source"},
		),
		durations: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "execscraper_step_duration_seconds",
				Help:    "Duration of pipeline steps in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"kind"},
		),
		executives: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "execscraper_executives_total",
				Help: "Executives found, by source",
			},
			[]string{"source"},
		),
		runDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "execscraper_run_duration_seconds",
				Help:    "Wall time of a full resolution",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
			},
		),
	}
}

// Record implements Recorder.
func (p *Prometheus) Record(e Event) {
	outcome := e.Outcome
	if outcome == "" {
		outcome = OutcomeOK
	}
	p.events.WithLabelValues(string(e.Kind), outcome, e.Source).Inc()

	switch e.Kind {
	case KindRun:
		p.runDuration.Observe(e.Duration.Seconds())
	case KindGatewayCall, KindExtraction:
		if e.Count > 0 && e.Source != "" {
			p.executives.WithLabelValues(e.Source).Add(float64(e.Count))
		}
		fallthrough
	default:
		if e.Duration > 0 {
			p.durations.WithLabelValues(string(e.Kind)).Observe(e.Duration.Seconds())
		}
	}
}

// Registry exposes the underlying registry.
func (p *Prometheus) Registry() *prometheus.Registry { return p.registry }

// Handler serves the registry in the Prometheus text format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
