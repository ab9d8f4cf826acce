package memory

import (
	"context"
	"sync"

	"github.com/hetrkumt/localy-v1/internal/core/domain"
)

type PaymentRepository struct {
	mu      sync.Mutex
	byOrder map[int64]*domain.Payment
	nextID  int64
}

func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{byOrder: make(map[int64]*domain.Payment)}
}

func (pr *PaymentRepository) CreatePayment(ctx context.Context, payment *domain.Payment) (*domain.Payment, error) {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	if _, ok := pr.byOrder[payment.OrderID]; ok {
		return nil, domain.ErrConflictingData
	}

	pr.nextID++
	payment.ID = pr.nextID
	stored := *payment
	pr.byOrder[payment.OrderID] = &stored

	return payment, nil
}

func (pr *PaymentRepository) ReadPaymentByOrder(ctx context.Context, orderID int64) (*domain.Payment, error) {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	payment, ok := pr.byOrder[orderID]
	if !ok {
		return nil, domain.ErrDataNotFound
	}
	stored := *payment

	return &stored, nil
}
