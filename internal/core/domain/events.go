package domain

import (
	"github.com/govalues/decimal"
)

// Event is a message exchanged between the order and payment services.
// PartitionKey keeps every event for one order on the same bus partition,
// so handlers for the same order never run concurrently.
type Event interface {
	EventName() string
	PartitionKey() int64
}

const (
	EventOrderCreated  = "order.created"
	EventPaymentResult = "payment.result"
)

// OrderCreated is produced once per placed order. The bus may redeliver it;
// consumers treat OrderID as the dedup key.
type OrderCreated struct {
	OrderID     int64           `json:"orderId"`
	UserID      string          `json:"userId"`
	StoreID     int64           `json:"storeId"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

func (OrderCreated) EventName() string { return EventOrderCreated }
func (e OrderCreated) PartitionKey() int64 { return e.OrderID }

func NewOrderCreated(o *Order) OrderCreated {
	return OrderCreated{
		OrderID:     o.ID,
		UserID:      o.UserID,
		StoreID:     o.StoreID,
		TotalAmount: o.TotalAmount,
	}
}

// PaymentResult is produced once per processed OrderCreated. PaymentID is
// nil when the payment was rejected.
type PaymentResult struct {
	OrderID       int64         `json:"orderId"`
	PaymentID     *int64        `json:"paymentId"`
	Status        PaymentStatus `json:"status"`
	FailureReason FailureReason `json:"failureReason,omitempty"`
}

func (PaymentResult) EventName() string { return EventPaymentResult }
func (e PaymentResult) PartitionKey() int64 { return e.OrderID }

func NewPaymentResult(p *Payment) PaymentResult {
	result := PaymentResult{
		OrderID:       p.OrderID,
		Status:        p.Status,
		FailureReason: p.FailureReason,
	}
	if p.Status == PaymentStatusApproved {
		id := p.ID
		result.PaymentID = &id
	}
	return result
}
