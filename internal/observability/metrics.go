package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/upb/qms-dashboard/services/progress"
)

// Metrics holds the Prometheus collectors of the dashboard backend.
type Metrics struct {
	Dispatches      *prometheus.CounterVec
	TaskTransitions *prometheus.CounterVec
	RoleSwitches    *prometheus.CounterVec
	Deletions       *prometheus.CounterVec
	registry        *prometheus.Registry
}

// NewMetrics registers the collectors with registry. A nil registry gets a
// fresh isolated one.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		Dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qms",
			Name:      "dispatches_total",
			Help:      "Dispatched record actions by resource, action and outcome.",
		}, []string{"resource", "action", "outcome"}),
		TaskTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qms",
			Name:      "task_transitions_total",
			Help:      "Progress task transitions by kind and state.",
		}, []string{"kind", "state"}),
		RoleSwitches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qms",
			Name:      "role_switches_total",
			Help:      "Session role switches by target role.",
		}, []string{"role"}),
		Deletions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qms",
			Name:      "deletions_total",
			Help:      "Two-phase deletions by resource and result.",
		}, []string{"resource", "result"}),
		registry: registry,
	}

	registry.MustRegister(
		m.Dispatches,
		m.TaskTransitions,
		m.RoleSwitches,
		m.Deletions,
	)
	return m
}

// ObserveDispatch counts one dispatch outcome
func (m *Metrics) ObserveDispatch(resource, action, outcome string) {
	m.Dispatches.WithLabelValues(resource, action, outcome).Inc()
}

// TaskTransition counts one progress task transition
func (m *Metrics) TaskTransition(kind string, state progress.State) {
	m.TaskTransitions.WithLabelValues(kind, string(state)).Inc()
}

// ObserveRoleSwitch counts a role switch. Unknown roles share one label value.
func (m *Metrics) ObserveRoleSwitch(role string, known bool) {
	if !known {
		role = "unknown"
	}
	m.RoleSwitches.WithLabelValues(role).Inc()
}

// ObserveDeletion counts a confirmed or cancelled deletion
func (m *Metrics) ObserveDeletion(resource, result string) {
	m.Deletions.WithLabelValues(resource, result).Inc()
}

// TrackRunningTasks exposes running as the qms_tasks_running gauge
func (m *Metrics) TrackRunningTasks(running func() int64) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "qms",
		Name:      "tasks_running",
		Help:      "Progress tasks currently executing.",
	}, func() float64 { return float64(running()) }))
}

// Handler returns an HTTP handler that exposes metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

var _ progress.Observer = (*Metrics)(nil)
