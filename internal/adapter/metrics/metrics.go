package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SagaMetrics is the prometheus implementation of port.SagaMetrics. All
// counters live under the localy_settlement namespace.
type SagaMetrics struct {
	registry             *prometheus.Registry
	paymentsApproved     prometheus.Counter
	paymentsRejected     *prometheus.CounterVec
	compensationsApplied prometheus.Counter
	compensationsFailed  prometheus.Counter
	ordersReconciled     prometheus.Counter
	deadLetters          *prometheus.CounterVec
}

func NewSagaMetrics() *SagaMetrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &SagaMetrics{
		registry: registry,
		paymentsApproved: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "localy_settlement",
			Name:      "payments_approved_total",
			Help:      "Settlements that completed the full ledger transfer.",
		}),
		paymentsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "localy_settlement",
			Name:      "payments_rejected_total",
			Help:      "Settlements rejected, by failure reason.",
		}, []string{"reason"}),
		compensationsApplied: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "localy_settlement",
			Name:      "compensations_applied_total",
			Help:      "Compensating credits applied after a failed settlement step.",
		}),
		compensationsFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "localy_settlement",
			Name:      "compensations_failed_total",
			Help:      "Compensating credits that failed and need an operator.",
		}),
		ordersReconciled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "localy_settlement",
			Name:      "orders_reconciled_total",
			Help:      "Stale PENDING orders re-emitted by the reconciliation sweep.",
		}),
		deadLetters: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "localy_settlement",
			Name:      "events_dead_lettered_total",
			Help:      "Events the bus gave up on, by event name.",
		}, []string{"event"}),
	}
}

func (m *SagaMetrics) PaymentApproved() { m.paymentsApproved.Inc() }

func (m *SagaMetrics) CompensationApplied() { m.compensationsApplied.Inc() }

func (m *SagaMetrics) CompensationFailed() { m.compensationsFailed.Inc() }

func (m *SagaMetrics) OrdersReconciled(count int) { m.ordersReconciled.Add(float64(count)) }

func (m *SagaMetrics) PaymentRejected(reason string) {
	m.paymentsRejected.WithLabelValues(reason).Inc()
}

func (m *SagaMetrics) EventDeadLettered(eventName string) {
	m.deadLetters.WithLabelValues(eventName).Inc()
}

// Handler serves the scrape endpoint for this registry.
func (m *SagaMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
