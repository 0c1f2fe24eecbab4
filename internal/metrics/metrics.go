// Package metrics exposes Prometheus instrumentation for the terminal
// adapter. All collectors are registered on the default registry via
// promauto so the /metrics endpoint picks them up without wiring.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "verifonepayment",
		Subsystem: "events",
		Name:      "dispatched_total",
		Help:      "Normalized terminal events fanned out to observers, by category.",
	}, []string{"category"})

	eventsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "verifonepayment",
		Subsystem: "events",
		Name:      "dropped_total",
		Help:      "Events dropped before delivery, by category and reason.",
	}, []string{"category", "reason"})

	eventsUnknownType = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "verifonepayment",
		Subsystem: "events",
		Name:      "unknown_type_total",
		Help:      "Raw callbacks whose type tag failed to parse.",
	})

	operations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "verifonepayment",
		Subsystem: "session",
		Name:      "operations_total",
		Help:      "Orchestrator operations by name and outcome class.",
	}, []string{"operation", "outcome"})

	operationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "verifonepayment",
		Subsystem: "session",
		Name:      "operation_duration_seconds",
		Help:      "Wall time from command issue to confirming event.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"operation"})

	sessionState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "verifonepayment",
		Subsystem: "session",
		Name:      "state",
		Help:      "Current orchestrator state (1 for the active state, 0 otherwise).",
	}, []string{"state"})

	basketItems = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "verifonepayment",
		Subsystem: "basket",
		Name:      "items",
		Help:      "Line items currently in the basket.",
	})

	inputRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "verifonepayment",
		Subsystem: "userinput",
		Name:      "requests_total",
		Help:      "Interactive prompts received from the terminal, by input kind.",
	}, []string{"kind"})

	inputDefaults = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "verifonepayment",
		Subsystem: "userinput",
		Name:      "default_responses_total",
		Help:      "Safe default responses sent when classification or handling failed.",
	})
)

// IncEventDispatched counts one delivered event for the category.
func IncEventDispatched(category string) {
	eventsDispatched.WithLabelValues(category).Inc()
}

// IncEventDropped counts one dropped event with its reason.
func IncEventDropped(category, reason string) {
	eventsDropped.WithLabelValues(category, reason).Inc()
}

// IncUnknownEventType counts one unparseable type tag.
func IncUnknownEventType() {
	eventsUnknownType.Inc()
}

// IncOperation counts one orchestrator operation outcome.
func IncOperation(operation, outcome string) {
	operations.WithLabelValues(operation, outcome).Inc()
}

// ObserveOperationSeconds records the duration of one operation.
func ObserveOperationSeconds(operation string, seconds float64) {
	operationSeconds.WithLabelValues(operation).Observe(seconds)
}

// SetSessionState marks the given state as active and clears the others.
func SetSessionState(active string, all []string) {
	for _, s := range all {
		v := 0.0
		if s == active {
			v = 1.0
		}
		sessionState.WithLabelValues(s).Set(v)
	}
}

// SetBasketItems records the current basket size.
func SetBasketItems(n int) {
	basketItems.Set(float64(n))
}

// IncInputRequest counts one interactive prompt by kind.
func IncInputRequest(kind string) {
	inputRequests.WithLabelValues(kind).Inc()
}

// IncInputDefaultResponse counts one liveness fallback response.
func IncInputDefaultResponse() {
	inputDefaults.Inc()
}
