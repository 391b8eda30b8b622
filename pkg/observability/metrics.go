package observability

import (
	"net/http"
	"time"

	"github.com/aretw0/stategraph/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Tool call outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// Metrics groups the collectors exported by stategraph.
type Metrics struct {
	toolCalls    *prometheus.CounterVec
	toolDuration *prometheus.HistogramVec
	mutations    *prometheus.CounterVec
	graphStates  prometheus.Gauge
	graphEdges   prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered, which suits tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		toolCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stategraph_tool_calls_total",
				Help: "Total number of tool invocations by tool and outcome",
			},
			[]string{"tool", "outcome"},
		),
		toolDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stategraph_tool_duration_seconds",
				Help:    "Duration of tool invocations",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
			[]string{"tool"},
		),
		mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stategraph_refinement_mutations_total",
				Help: "Total number of applied refinement mutations by kind",
			},
			[]string{"kind"},
		),
		graphStates: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stategraph_navigation_states",
			Help: "Number of states in the graph served to navigation",
		}),
		graphEdges: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stategraph_navigation_transitions",
			Help: "Number of transitions in the graph served to navigation",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.toolCalls, m.toolDuration, m.mutations, m.graphStates, m.graphEdges)
	}
	return m
}

// ObserveTool records one tool invocation.
func (m *Metrics) ObserveTool(tool, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(tool, outcome).Inc()
	m.toolDuration.WithLabelValues(tool).Observe(d.Seconds())
}

// ObserveMutation records an applied refinement mutation.
func (m *Metrics) ObserveMutation(kind string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(kind).Inc()
}

// SetGraphSize publishes the size of the navigation graph.
func (m *Metrics) SetGraphSize(c domain.Counts) {
	if m == nil {
		return
	}
	m.graphStates.Set(float64(c.States))
	m.graphEdges.Set(float64(c.Transitions))
}

// Handler exposes the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
