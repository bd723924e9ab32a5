package resilience

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	BreakerState       *prometheus.GaugeVec
	BreakerTransitions *prometheus.CounterVec

	registerOnce sync.Once
)

// MustRegisterMetrics registers breaker gauges and counters. Breakers created
// before registration simply skip telemetry.
func MustRegisterMetrics(namespace string, reg prometheus.Registerer) {
	registerOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		BreakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "breaker_state",
			Help:      "Current breaker state: 0=closed,1=open,2=half-open",
		}, []string{"target"})
		BreakerTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "breaker_transition_total",
			Help:      "Count of breaker state transitions",
		}, []string{"target", "from", "to"})
		reg.MustRegister(BreakerState, BreakerTransitions)
	})
}
