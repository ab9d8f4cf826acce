package domain

import (
	"time"

	"github.com/govalues/decimal"
)

type OrderStatus string

const (
	OrderStatusPending          OrderStatus = "PENDING"
	OrderStatusPaymentCompleted OrderStatus = "PAYMENT_COMPLETED"
	OrderStatusPaymentFailed    OrderStatus = "PAYMENT_FAILED"
)

// Terminal reports whether the status admits no further transitions.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusPaymentCompleted || s == OrderStatusPaymentFailed
}

type LineItem struct {
	ID         int64
	OrderID    int64
	MenuID     int64
	MenuName   string
	Quantity   int32
	UnitPrice  decimal.Decimal
	TotalPrice decimal.Decimal
	CreatedAt  time.Time
}

type Order struct {
	ID            int64
	UserID        string
	StoreID       int64
	LineItems     []LineItem
	TotalAmount   decimal.Decimal
	Status        OrderStatus
	PaymentID     *int64
	FailureReason string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ApplyPaymentResult moves the order to its terminal status. Transitions out
// of a terminal status are forbidden: a redelivered result for a settled
// order returns ErrOrderAlreadySettled and leaves the order untouched.
func (o *Order) ApplyPaymentResult(result PaymentResult) error {
	if o.Status.Terminal() {
		return ErrOrderAlreadySettled
	}

	switch result.Status {
	case PaymentStatusApproved:
		o.Status = OrderStatusPaymentCompleted
		o.PaymentID = result.PaymentID
	case PaymentStatusRejected:
		o.Status = OrderStatusPaymentFailed
		o.FailureReason = string(result.FailureReason)
	default:
		return ErrBadRequest
	}

	o.UpdatedAt = time.Now()
	return nil
}
