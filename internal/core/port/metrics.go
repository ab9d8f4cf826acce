package port

// SagaMetrics counts settlement outcomes. The prometheus implementation
// lives in the metrics adapter; tests use Nop.
type SagaMetrics interface {
	PaymentApproved()
	PaymentRejected(reason string)
	CompensationApplied()
	CompensationFailed()
	OrdersReconciled(count int)
	EventDeadLettered(eventName string)
}

type NopSagaMetrics struct{}

func (NopSagaMetrics) PaymentApproved() {}
func (NopSagaMetrics) PaymentRejected(string) {}
func (NopSagaMetrics) CompensationApplied() {}
func (NopSagaMetrics) CompensationFailed() {}
func (NopSagaMetrics) OrdersReconciled(int) {}
func (NopSagaMetrics) EventDeadLettered(string) {}
