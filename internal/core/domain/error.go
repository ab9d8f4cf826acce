package domain

import (
	"errors"
)

var (
	ErrInternal = errors.New("internal error")

	// * Data errors.
	ErrDataNotFound    = errors.New("data not found")
	ErrConflictingData = errors.New("data conflicts with existing data in unique column")

	// * Communication errors.
	ErrBadRequest        = errors.New("error parsing request")
	ErrMissingUserHeader = errors.New("user id header is not provided")
	ErrForbidden         = errors.New("user is forbidden to access the resource")

	// * Business errors.
	ErrEmptyOrder           = errors.New("order has no line items")
	ErrBadLineItem          = errors.New("line item quantity and price must be positive")
	ErrAccountNotFound      = errors.New("ledger account not found")
	ErrAccountAlreadyExists = errors.New("ledger account already exists for owner")
	ErrInsufficientFunds    = errors.New("account balance is not enough")
	ErrOrderAlreadySettled  = errors.New("order is already in a terminal status")

	// * Saga errors.
	// ErrCompensationFailed means a compensating credit after a failed
	// settlement step itself failed. Money is stuck until an operator
	// intervenes, so the event must be dead-lettered, not retried.
	ErrCompensationFailed = errors.New("compensating credit failed")
)
