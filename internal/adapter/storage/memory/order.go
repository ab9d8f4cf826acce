package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hetrkumt/localy-v1/internal/core/domain"
)

type OrderRepository struct {
	mu     sync.Mutex
	orders map[int64]*domain.Order
	nextID int64
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{orders: make(map[int64]*domain.Order)}
}

func (or *OrderRepository) CreateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	or.mu.Lock()
	defer or.mu.Unlock()

	or.nextID++
	order.ID = or.nextID
	for i := range order.LineItems {
		order.LineItems[i].OrderID = order.ID
	}
	or.orders[order.ID] = copyOrder(order)

	return copyOrder(order), nil
}

func (or *OrderRepository) UpdateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	or.mu.Lock()
	defer or.mu.Unlock()

	if _, ok := or.orders[order.ID]; !ok {
		return nil, domain.ErrDataNotFound
	}
	or.orders[order.ID] = copyOrder(order)

	return copyOrder(order), nil
}

func (or *OrderRepository) ReadOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	or.mu.Lock()
	defer or.mu.Unlock()

	order, ok := or.orders[orderID]
	if !ok {
		return nil, domain.ErrDataNotFound
	}
	return copyOrder(order), nil
}

func (or *OrderRepository) ListOrdersByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	or.mu.Lock()
	defer or.mu.Unlock()

	list := make([]*domain.Order, 0)
	for _, order := range or.orders {
		if order.UserID == userID {
			list = append(list, copyOrder(order))
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })

	return list, nil
}

func (or *OrderRepository) ListPendingBefore(ctx context.Context, cutoff time.Time) ([]*domain.Order, error) {
	or.mu.Lock()
	defer or.mu.Unlock()

	list := make([]*domain.Order, 0)
	for _, order := range or.orders {
		if order.Status == domain.OrderStatusPending && order.CreatedAt.Before(cutoff) {
			list = append(list, copyOrder(order))
		}
	}

	return list, nil
}

func copyOrder(o *domain.Order) *domain.Order {
	c := *o
	c.LineItems = append([]domain.LineItem(nil), o.LineItems...)
	if o.PaymentID != nil {
		id := *o.PaymentID
		c.PaymentID = &id
	}
	return &c
}
