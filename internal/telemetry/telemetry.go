package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "crisis"

// #region metrics
// Metrics holds the session counters. A nil *Metrics is a valid no-op sink.
type Metrics struct {
	registry    *prometheus.Registry
	transitions *prometheus.CounterVec
	rejections  *prometheus.CounterVec
	rankings    *prometheus.CounterVec
	reflections *prometheus.CounterVec
	confirmed   prometheus.Counter
	completed   prometheus.Counter
}

// New creates counters on a private registry, with Go runtime collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "phase_transitions_total",
			Help:      "Accepted session phase transitions.",
		}, []string{"from", "to"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejected_actions_total",
			Help:      "Participant actions rejected by a guard.",
		}, []string{"action"}),
		rankings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rankings_submitted_total",
			Help:      "Accepted ranking submissions per basis.",
		}, []string{"basis"}),
		reflections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reflection_checks_total",
			Help:      "Contradiction checks run on keep-choice, by outcome.",
		}, []string{"triggered"}),
		confirmed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_confirmed_total",
			Help:      "Scenario decisions confirmed.",
		}),
		completed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_completed_total",
			Help:      "Sessions that confirmed the final scenario.",
		}),
	}
	reg.MustRegister(
		m.transitions, m.rejections, m.rankings, m.reflections, m.confirmed, m.completed,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry for tests and custom handlers.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// #endregion metrics

// #region observers
func (m *Metrics) Transition(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) Rejected(action string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(action).Inc()
}

// RankingSubmitted satisfies ranking.UsageCounter.
func (m *Metrics) RankingSubmitted(basis string) {
	if m == nil {
		return
	}
	m.rankings.WithLabelValues(basis).Inc()
}

func (m *Metrics) ReflectionChecked(triggered bool) {
	if m == nil {
		return
	}
	label := "false"
	if triggered {
		label = "true"
	}
	m.reflections.WithLabelValues(label).Inc()
}

func (m *Metrics) DecisionConfirmed(last bool) {
	if m == nil {
		return
	}
	m.confirmed.Inc()
	if last {
		m.completed.Inc()
	}
}

// #endregion observers
