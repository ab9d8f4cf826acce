package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrder_ApplyPaymentResult(t *testing.T) {
	paymentID := int64(77)

	t.Run("approved completes", func(t *testing.T) {
		order := Order{Status: OrderStatusPending}
		err := order.ApplyPaymentResult(PaymentResult{
			OrderID:   1,
			PaymentID: &paymentID,
			Status:    PaymentStatusApproved,
		})
		assert.NoError(t, err)
		assert.Equal(t, OrderStatusPaymentCompleted, order.Status)
		assert.Equal(t, &paymentID, order.PaymentID)
	})

	t.Run("rejected fails with reason", func(t *testing.T) {
		order := Order{Status: OrderStatusPending}
		err := order.ApplyPaymentResult(PaymentResult{
			OrderID:       1,
			Status:        PaymentStatusRejected,
			FailureReason: ReasonInsufficientFunds,
		})
		assert.NoError(t, err)
		assert.Equal(t, OrderStatusPaymentFailed, order.Status)
		assert.Equal(t, string(ReasonInsufficientFunds), order.FailureReason)
	})

	t.Run("terminal statuses never transition", func(t *testing.T) {
		for _, status := range []OrderStatus{OrderStatusPaymentCompleted, OrderStatusPaymentFailed} {
			order := Order{Status: status}
			err := order.ApplyPaymentResult(PaymentResult{OrderID: 1, Status: PaymentStatusRejected})
			assert.ErrorIs(t, err, ErrOrderAlreadySettled)
			assert.Equal(t, status, order.Status)
		}
	})

	t.Run("unknown result status", func(t *testing.T) {
		order := Order{Status: OrderStatusPending}
		err := order.ApplyPaymentResult(PaymentResult{OrderID: 1, Status: "HALF_APPROVED"})
		assert.ErrorIs(t, err, ErrBadRequest)
		assert.Equal(t, OrderStatusPending, order.Status)
	})
}
