package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for authorization flows.
type Metrics struct {
	FlowsInitiated   *prometheus.CounterVec
	FlowOutcomes     *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec
}

// New registers the flow metrics on reg. pending reports the number of
// issued-but-unconsumed nonces and backs a gauge.
func New(reg prometheus.Registerer, pending func() int) *Metrics {
	factory := promauto.With(reg)
	if pending != nil {
		factory.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "relay_pending_nonces",
			Help: "Number of issued state nonces not yet consumed",
		}, func() float64 { return float64(pending()) })
	}
	return &Metrics{
		FlowsInitiated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_flows_initiated_total",
			Help: "Authorization flows started, by action",
		}, []string{"action"}),
		FlowOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_flow_outcomes_total",
			Help: "Authorization flow callbacks, by terminal outcome",
		}, []string{"outcome"}),
		UpstreamDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "relay_upstream_duration_seconds",
			Help:    "Latency of identity provider and profile calls",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"endpoint", "result"}),
	}
}

// IncrementInitiated records a started flow. The default action is reported as "default".
func (m *Metrics) IncrementInitiated(action string) {
	if action == "" {
		action = "default"
	}
	m.FlowsInitiated.WithLabelValues(action).Inc()
}

// IncrementOutcome records a terminal flow outcome.
func (m *Metrics) IncrementOutcome(outcome string) {
	m.FlowOutcomes.WithLabelValues(outcome).Inc()
}

// ObserveUpstream records an upstream call. Call with time.Now() taken before the call.
func (m *Metrics) ObserveUpstream(endpoint string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.UpstreamDuration.WithLabelValues(endpoint, result).Observe(time.Since(start).Seconds())
}
