package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/govalues/decimal"
	"github.com/hetrkumt/localy-v1/internal/core/domain"
	"github.com/hetrkumt/localy-v1/internal/core/port"
	"go.uber.org/zap"
)

// OrderSaga owns the orders table, starts the settlement by publishing
// OrderCreated and finishes it by consuming PaymentResult. It never reads
// the payment service's store.
type OrderSaga struct {
	orders  port.OrderRepository
	bus     port.EventPublisher
	metrics port.SagaMetrics
	logger  *zap.Logger
}

func NewOrderSaga(orders port.OrderRepository, bus port.EventPublisher,
	metrics port.SagaMetrics, logger *zap.Logger) (*OrderSaga, error) {
	return &OrderSaga{
		orders:  orders,
		bus:     bus,
		metrics: metrics,
		logger:  logger,
	}, nil
}

// PlaceOrder validates the cart, recomputes the total server-side from the
// line items, persists the order as PENDING and publishes OrderCreated. The
// caller gets the order back immediately; the terminal status arrives later
// through the saga.
func (s *OrderSaga) PlaceOrder(ctx context.Context, userID string, storeID int64,
	items []port.NewLineItem) (*domain.Order, error) {
	if userID == "" || storeID == 0 {
		return nil, domain.ErrBadRequest
	}
	if len(items) == 0 {
		return nil, domain.ErrEmptyOrder
	}

	now := time.Now()
	order := &domain.Order{
		UserID:      userID,
		StoreID:     storeID,
		Status:      domain.OrderStatusPending,
		TotalAmount: decimal.Zero,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	for _, item := range items {
		if item.Quantity <= 0 || item.UnitPrice.Cmp(decimal.Zero) <= 0 {
			return nil, domain.ErrBadLineItem
		}

		qty, err := decimal.New(int64(item.Quantity), 0)
		if err != nil {
			return nil, fmt.Errorf("math error:%w", err)
		}
		lineTotal, err := item.UnitPrice.Mul(qty)
		if err != nil {
			return nil, fmt.Errorf("math error:%w", err)
		}
		total, err := order.TotalAmount.Add(lineTotal)
		if err != nil {
			return nil, fmt.Errorf("math error:%w", err)
		}
		order.TotalAmount = total

		order.LineItems = append(order.LineItems, domain.LineItem{
			MenuID:     item.MenuID,
			MenuName:   item.MenuName,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			TotalPrice: lineTotal,
			CreatedAt:  now,
		})
	}

	newOrder, err := s.orders.CreateOrder(ctx, order)
	if err != nil {
		s.logger.Error("Create order", zap.Error(err))
		return nil, err
	}

	// A lost publish is not fatal: the reconciliation sweep re-publishes
	// for orders stuck in PENDING.
	err = s.bus.Publish(ctx, domain.NewOrderCreated(newOrder))
	if err != nil {
		s.logger.Error("Publish OrderCreated",
			zap.Int64("order", newOrder.ID), zap.Error(err))
	}

	return newOrder, nil
}

// HandleEvent is the bus entry point.
func (s *OrderSaga) HandleEvent(ctx context.Context, event domain.Event) error {
	evt, ok := event.(domain.PaymentResult)
	if !ok {
		return fmt.Errorf("unexpected event %q: %w", event.EventName(), domain.ErrBadRequest)
	}
	return s.HandlePaymentResult(ctx, evt)
}

// HandlePaymentResult transitions the order to its terminal status. A
// result redelivered to an already-settled order is a logged no-op.
func (s *OrderSaga) HandlePaymentResult(ctx context.Context, evt domain.PaymentResult) error {
	log := s.logger.With(zap.Int64("order", evt.OrderID))

	order, err := s.orders.ReadOrder(ctx, evt.OrderID)
	if err != nil {
		if errors.Is(err, domain.ErrDataNotFound) {
			log.Error("PaymentResult for unknown order")
			return nil
		}
		return err
	}

	err = order.ApplyPaymentResult(evt)
	if err != nil {
		if errors.Is(err, domain.ErrOrderAlreadySettled) {
			log.Info("Duplicate PaymentResult discarded",
				zap.String("status", string(order.Status)))
			return nil
		}
		return err
	}

	_, err = s.orders.UpdateOrder(ctx, order)
	if err != nil {
		log.Error("Update order status", zap.Error(err))
		return err
	}

	log.Info("Order settled", zap.String("status", string(order.Status)))
	return nil
}

// ReconcilePending re-publishes OrderCreated for orders stuck in PENDING
// longer than maxAge. The payment processor's idempotency guard makes the
// duplicate publishes safe.
func (s *OrderSaga) ReconcilePending(ctx context.Context, maxAge time.Duration) error {
	stale, err := s.orders.ListPendingBefore(ctx, time.Now().Add(-maxAge))
	if err != nil {
		s.logger.Error("List pending orders", zap.Error(err))
		return err
	}

	for _, order := range stale {
		err = s.bus.Publish(ctx, domain.NewOrderCreated(order))
		if err != nil {
			s.logger.Error("Re-publish OrderCreated",
				zap.Int64("order", order.ID), zap.Error(err))
			return err
		}
		s.logger.Info("Re-published OrderCreated for stale order",
			zap.Int64("order", order.ID))
	}

	if len(stale) > 0 {
		s.metrics.OrdersReconciled(len(stale))
	}
	return nil
}

// RunReconciler drives ReconcilePending on a ticker until ctx is done.
func (s *OrderSaga) RunReconciler(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.ReconcilePending(ctx, maxAge); err != nil {
				s.logger.Error("Reconciliation sweep", zap.Error(err))
			}
		case <-ctx.Done():
			s.logger.Debug("Reconciler stopped")
			return
		}
	}
}

func (s *OrderSaga) GetOrder(ctx context.Context, orderID int64, userID string) (*domain.Order, error) {
	order, err := s.orders.ReadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, domain.ErrForbidden
	}
	return order, nil
}

func (s *OrderSaga) ListOrdersByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	list, err := s.orders.ListOrdersByUser(ctx, userID)
	if err != nil {
		s.logger.Error("List orders for user", zap.Error(err))
		return nil, err
	}
	return list, nil
}
