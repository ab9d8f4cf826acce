package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/govalues/decimal"
	"github.com/hetrkumt/localy-v1/internal/core/domain"
	"github.com/hetrkumt/localy-v1/internal/core/port"
	"github.com/hetrkumt/localy-v1/internal/core/port/mock"
	"github.com/hetrkumt/localy-v1/internal/core/service"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestOrderSaga_PlaceOrder(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	logger, _ := zap.NewProduction()

	goodItems := []port.NewLineItem{
		{MenuID: 1, MenuName: "americano", Quantity: 2, UnitPrice: decimal.MustNew(1000, 0)},
		{MenuID: 2, MenuName: "croissant", Quantity: 1, UnitPrice: decimal.MustNew(1000, 0)},
	}

	tests := []struct {
		name     string
		userID   string
		storeID  int64
		items    []port.NewLineItem
		mock     func(orders *mock.MockOrderRepository, bus *mock.MockEventPublisher)
		expError error
	}{
		{
			name:    "Good order is persisted and published",
			userID:  "user-1",
			storeID: 7,
			items:   goodItems,
			mock: func(orders *mock.MockOrderRepository, bus *mock.MockEventPublisher) {
				orders.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, o *domain.Order) (*domain.Order, error) {
						// total is recomputed from line items, 2*1000 + 1*1000
						assert.Zero(t, o.TotalAmount.Cmp(decimal.MustNew(3000, 0)))
						assert.Equal(t, domain.OrderStatusPending, o.Status)
						assert.Len(t, o.LineItems, 2)
						o.ID = 42
						return o, nil
					})
				bus.EXPECT().Publish(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, e domain.Event) error {
						evt := e.(domain.OrderCreated)
						assert.Equal(t, int64(42), evt.OrderID)
						assert.Zero(t, evt.TotalAmount.Cmp(decimal.MustNew(3000, 0)))
						return nil
					})
			},
		},
		{
			name:    "Publish failure still returns the order",
			userID:  "user-1",
			storeID: 7,
			items:   goodItems,
			mock: func(orders *mock.MockOrderRepository, bus *mock.MockEventPublisher) {
				orders.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, o *domain.Order) (*domain.Order, error) {
						o.ID = 43
						return o, nil
					})
				bus.EXPECT().Publish(gomock.Any(), gomock.Any()).
					Return(domain.ErrInternal)
			},
		},
		{
			name:     "Empty cart",
			userID:   "user-1",
			storeID:  7,
			items:    nil,
			mock:     func(orders *mock.MockOrderRepository, bus *mock.MockEventPublisher) {},
			expError: domain.ErrEmptyOrder,
		},
		{
			name:    "Zero quantity line item",
			userID:  "user-1",
			storeID: 7,
			items: []port.NewLineItem{
				{MenuID: 1, MenuName: "americano", Quantity: 0, UnitPrice: decimal.MustNew(1000, 0)},
			},
			mock:     func(orders *mock.MockOrderRepository, bus *mock.MockEventPublisher) {},
			expError: domain.ErrBadLineItem,
		},
		{
			name:    "Non-positive unit price",
			userID:  "user-1",
			storeID: 7,
			items: []port.NewLineItem{
				{MenuID: 1, MenuName: "americano", Quantity: 1, UnitPrice: decimal.Zero},
			},
			mock:     func(orders *mock.MockOrderRepository, bus *mock.MockEventPublisher) {},
			expError: domain.ErrBadLineItem,
		},
		{
			name:     "Missing user",
			userID:   "",
			storeID:  7,
			items:    goodItems,
			mock:     func(orders *mock.MockOrderRepository, bus *mock.MockEventPublisher) {},
			expError: domain.ErrBadRequest,
		},
		{
			name:     "Missing store",
			userID:   "user-1",
			storeID:  0,
			items:    goodItems,
			mock:     func(orders *mock.MockOrderRepository, bus *mock.MockEventPublisher) {},
			expError: domain.ErrBadRequest,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			orders := mock.NewMockOrderRepository(mockCtrl)
			bus := mock.NewMockEventPublisher(mockCtrl)
			test.mock(orders, bus)

			s, err := service.NewOrderSaga(orders, bus, port.NopSagaMetrics{}, logger)
			assert.NoError(t, err)

			order, err := s.PlaceOrder(context.Background(), test.userID, test.storeID, test.items)
			if test.expError != nil {
				assert.ErrorIs(t, err, test.expError)
				assert.Nil(t, order)
				return
			}
			assert.NoError(t, err)
			assert.NotNil(t, order)
		})
	}
}

func TestOrderSaga_HandlePaymentResult(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	logger, _ := zap.NewProduction()

	paymentID := int64(77)
	pendingOrder := func() *domain.Order {
		return &domain.Order{
			ID:      42,
			UserID:  "user-1",
			StoreID: 7,
			Status:  domain.OrderStatusPending,
		}
	}

	tests := []struct {
		name      string
		event     domain.PaymentResult
		mock      func(orders *mock.MockOrderRepository)
		expError  error
	}{
		{
			name: "Approved result completes the order",
			event: domain.PaymentResult{
				OrderID:   42,
				PaymentID: &paymentID,
				Status:    domain.PaymentStatusApproved,
			},
			mock: func(orders *mock.MockOrderRepository) {
				orders.EXPECT().ReadOrder(gomock.Any(), int64(42)).Return(pendingOrder(), nil)
				orders.EXPECT().UpdateOrder(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, o *domain.Order) (*domain.Order, error) {
						assert.Equal(t, domain.OrderStatusPaymentCompleted, o.Status)
						if assert.NotNil(t, o.PaymentID) {
							assert.Equal(t, paymentID, *o.PaymentID)
						}
						return o, nil
					})
			},
		},
		{
			name: "Rejected result fails the order with reason",
			event: domain.PaymentResult{
				OrderID:       42,
				Status:        domain.PaymentStatusRejected,
				FailureReason: domain.ReasonInsufficientFunds,
			},
			mock: func(orders *mock.MockOrderRepository) {
				orders.EXPECT().ReadOrder(gomock.Any(), int64(42)).Return(pendingOrder(), nil)
				orders.EXPECT().UpdateOrder(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, o *domain.Order) (*domain.Order, error) {
						assert.Equal(t, domain.OrderStatusPaymentFailed, o.Status)
						assert.Equal(t, string(domain.ReasonInsufficientFunds), o.FailureReason)
						return o, nil
					})
			},
		},
		{
			name: "Redelivery to settled order is a no-op",
			event: domain.PaymentResult{
				OrderID: 42,
				Status:  domain.PaymentStatusRejected,
			},
			mock: func(orders *mock.MockOrderRepository) {
				settled := pendingOrder()
				settled.Status = domain.OrderStatusPaymentCompleted
				orders.EXPECT().ReadOrder(gomock.Any(), int64(42)).Return(settled, nil)
			},
		},
		{
			name: "Unknown order is logged and dropped",
			event: domain.PaymentResult{
				OrderID: 99,
				Status:  domain.PaymentStatusApproved,
			},
			mock: func(orders *mock.MockOrderRepository) {
				orders.EXPECT().ReadOrder(gomock.Any(), int64(99)).
					Return(nil, domain.ErrDataNotFound)
			},
		},
		{
			name: "Storage error is returned for redelivery",
			event: domain.PaymentResult{
				OrderID: 42,
				Status:  domain.PaymentStatusApproved,
			},
			mock: func(orders *mock.MockOrderRepository) {
				orders.EXPECT().ReadOrder(gomock.Any(), int64(42)).
					Return(nil, domain.ErrInternal)
			},
			expError: domain.ErrInternal,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			orders := mock.NewMockOrderRepository(mockCtrl)
			test.mock(orders)

			s, err := service.NewOrderSaga(orders, mock.NewMockEventPublisher(mockCtrl),
				port.NopSagaMetrics{}, logger)
			assert.NoError(t, err)

			err = s.HandlePaymentResult(context.Background(), test.event)
			if test.expError != nil {
				assert.ErrorIs(t, err, test.expError)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOrderSaga_ReconcilePending(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	logger, _ := zap.NewProduction()

	orders := mock.NewMockOrderRepository(mockCtrl)
	bus := mock.NewMockEventPublisher(mockCtrl)

	stale := []*domain.Order{
		{ID: 1, UserID: "user-1", StoreID: 7, Status: domain.OrderStatusPending},
		{ID: 2, UserID: "user-2", StoreID: 8, Status: domain.OrderStatusPending},
	}
	orders.EXPECT().ListPendingBefore(gomock.Any(), gomock.Any()).Return(stale, nil)

	republished := []int64{}
	bus.EXPECT().Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, e domain.Event) error {
			republished = append(republished, e.(domain.OrderCreated).OrderID)
			return nil
		}).Times(2)

	s, err := service.NewOrderSaga(orders, bus, port.NopSagaMetrics{}, logger)
	assert.NoError(t, err)

	err = s.ReconcilePending(context.Background(), time.Minute)
	assert.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, republished)
}

func TestOrderSaga_GetOrderChecksOwnership(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	logger, _ := zap.NewProduction()

	orders := mock.NewMockOrderRepository(mockCtrl)
	orders.EXPECT().ReadOrder(gomock.Any(), int64(42)).
		Return(&domain.Order{ID: 42, UserID: "user-1"}, nil).Times(2)

	s, err := service.NewOrderSaga(orders, mock.NewMockEventPublisher(mockCtrl),
		port.NopSagaMetrics{}, logger)
	assert.NoError(t, err)

	order, err := s.GetOrder(context.Background(), 42, "user-1")
	assert.NoError(t, err)
	assert.Equal(t, int64(42), order.ID)

	_, err = s.GetOrder(context.Background(), 42, "user-2")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
