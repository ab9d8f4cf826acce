package port

import (
	"context"
	"time"

	"github.com/govalues/decimal"
	"github.com/hetrkumt/localy-v1/internal/core/domain"
)

// OrderRepository is owned by the order saga coordinator. The payment side
// never touches it; everything it needs arrives through events.
//
//go:generate mockgen -source=repository.go -destination=mock/repository.go -package=mock
type OrderRepository interface {
	CreateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error)
	UpdateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error)
	ReadOrder(ctx context.Context, orderID int64) (*domain.Order, error)
	ListOrdersByUser(ctx context.Context, userID string) ([]*domain.Order, error)
	// ListPendingBefore returns orders still PENDING that were created
	// before the cutoff. Used by the reconciliation sweep.
	ListPendingBefore(ctx context.Context, cutoff time.Time) ([]*domain.Order, error)
}

// PaymentRepository is owned by the payment processor.
type PaymentRepository interface {
	// CreatePayment inserts the row and returns it with the generated ID.
	// A second insert for the same order fails with ErrConflictingData.
	CreatePayment(ctx context.Context, payment *domain.Payment) (*domain.Payment, error)
	ReadPaymentByOrder(ctx context.Context, orderID int64) (*domain.Payment, error)
}

// Ledger maintains the virtual accounts. Debit and Credit are single atomic
// storage operations: the balance check and the decrement happen as one
// conditional update, never as a read followed by a write.
type Ledger interface {
	CreateUserAccount(ctx context.Context, userID string, initial decimal.Decimal) (*domain.Account, error)
	CreateStoreAccount(ctx context.Context, storeID int64, ownerUserID string, initial decimal.Decimal) (*domain.Account, error)
	LookupUser(ctx context.Context, userID string) (*domain.Account, error)
	LookupStore(ctx context.Context, storeID int64) (*domain.Account, error)
	// Debit fails with ErrInsufficientFunds when the balance does not cover
	// the amount, leaving the balance untouched.
	Debit(ctx context.Context, accountID int64, amount decimal.Decimal) error
	Credit(ctx context.Context, accountID int64, amount decimal.Decimal) error
}
