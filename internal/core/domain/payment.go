package domain

import (
	"time"

	"github.com/govalues/decimal"
)

type PaymentStatus string

const (
	PaymentStatusApproved PaymentStatus = "APPROVED"
	PaymentStatusRejected PaymentStatus = "REJECTED"
)

type FailureReason string

const (
	ReasonCustomerAccountNotFound FailureReason = "CUSTOMER_ACCOUNT_NOT_FOUND"
	ReasonInsufficientFunds       FailureReason = "INSUFFICIENT_FUNDS"
	ReasonStoreAccountNotFound    FailureReason = "STORE_ACCOUNT_NOT_FOUND"
)

// Payment is written exactly once per processed order and never updated.
// The unique constraint on OrderID is the idempotency guard against
// duplicate event delivery.
type Payment struct {
	ID            int64
	OrderID       int64
	Status        PaymentStatus
	Amount        decimal.Decimal
	FailureReason FailureReason
	CreatedAt     time.Time
}

// PaymentOutcome is the explicit result of running a settlement: business
// failures are values here, not errors that abort the handler.
type PaymentOutcome struct {
	Status PaymentStatus
	Reason FailureReason
}

func Approved() PaymentOutcome {
	return PaymentOutcome{Status: PaymentStatusApproved}
}

func Rejected(reason FailureReason) PaymentOutcome {
	return PaymentOutcome{Status: PaymentStatusRejected, Reason: reason}
}
