package port

import (
	"context"

	"github.com/govalues/decimal"
	"github.com/hetrkumt/localy-v1/internal/core/domain"
)

// NewLineItem is the caller-supplied shape of a cart line. The total is
// recomputed server-side from unit price and quantity; client totals are
// never trusted.
type NewLineItem struct {
	MenuID    int64
	MenuName  string
	Quantity  int32
	UnitPrice decimal.Decimal
}

type OrderService interface {
	PlaceOrder(ctx context.Context, userID string, storeID int64, items []NewLineItem) (*domain.Order, error)
	GetOrder(ctx context.Context, orderID int64, userID string) (*domain.Order, error)
	ListOrdersByUser(ctx context.Context, userID string) ([]*domain.Order, error)
}

type PaymentService interface {
	GetPaymentByOrder(ctx context.Context, orderID int64) (*domain.Payment, error)
}

type AccountService interface {
	CreateUserAccount(ctx context.Context, userID string, initial decimal.Decimal) (*domain.Account, error)
	CreateStoreAccount(ctx context.Context, storeID int64, ownerUserID string, initial decimal.Decimal) (*domain.Account, error)
	GetUserBalance(ctx context.Context, userID string) (*domain.Account, error)
}
