package e2etest

import (
	"context"
	"testing"
	"time"

	"github.com/govalues/decimal"
	"github.com/hetrkumt/localy-v1/internal/adapter/bus"
	"github.com/hetrkumt/localy-v1/internal/adapter/storage/memory"
	"github.com/hetrkumt/localy-v1/internal/core/domain"
	"github.com/hetrkumt/localy-v1/internal/core/port"
	"github.com/hetrkumt/localy-v1/internal/core/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// saga wires the full settlement path on in-memory storage and a real bus:
// order saga -> OrderCreated -> payment processor -> PaymentResult -> order saga.
type saga struct {
	orders     *memory.OrderRepository
	payments   *memory.PaymentRepository
	ledger     *memory.Ledger
	bus        *bus.Bus
	orderSaga  *service.OrderSaga
	processor  *service.PaymentProcessor
	deadLetter chan error
}

func startSaga(t *testing.T) *saga {
	t.Helper()

	logger := zap.NewNop()

	s := &saga{
		orders:     memory.NewOrderRepository(),
		payments:   memory.NewPaymentRepository(),
		ledger:     memory.NewLedger(),
		deadLetter: make(chan error, 16),
	}

	s.bus = bus.NewBus(4, 3, 5*time.Millisecond,
		func(_ domain.Event, _ int, err error) { s.deadLetter <- err },
		port.NopSagaMetrics{}, logger)

	var err error
	s.orderSaga, err = service.NewOrderSaga(s.orders, s.bus, port.NopSagaMetrics{}, logger)
	require.NoError(t, err)
	s.processor, err = service.NewPaymentProcessor(s.payments, s.ledger, s.bus,
		port.NopSagaMetrics{}, logger)
	require.NoError(t, err)

	s.bus.Subscribe(domain.EventOrderCreated, s.processor.HandleEvent)
	s.bus.Subscribe(domain.EventPaymentResult, s.orderSaga.HandleEvent)

	s.bus.Start(context.Background())
	t.Cleanup(s.bus.Stop)

	return s
}

func (s *saga) waitSettled(t *testing.T, orderID int64) *domain.Order {
	t.Helper()

	var settled *domain.Order
	require.Eventually(t, func() bool {
		order, err := s.orders.ReadOrder(context.Background(), orderID)
		if err != nil || !order.Status.Terminal() {
			return false
		}
		settled = order
		return true
	}, 3*time.Second, 10*time.Millisecond)

	return settled
}

func (s *saga) userBalance(t *testing.T, userID string) decimal.Decimal {
	t.Helper()
	account, err := s.ledger.LookupUser(context.Background(), userID)
	require.NoError(t, err)
	return account.Balance
}

func (s *saga) storeBalance(t *testing.T, storeID int64) decimal.Decimal {
	t.Helper()
	account, err := s.ledger.LookupStore(context.Background(), storeID)
	require.NoError(t, err)
	return account.Balance
}

func coffeeFor(total int64) []port.NewLineItem {
	return []port.NewLineItem{
		{MenuID: 1, MenuName: "americano", Quantity: 1, UnitPrice: decimal.MustNew(total, 0)},
	}
}

func TestSaga_ApprovedSettlement(t *testing.T) {
	ctx := context.Background()
	s := startSaga(t)

	_, err := s.ledger.CreateUserAccount(ctx, "user-1", decimal.MustNew(10000, 0))
	require.NoError(t, err)
	_, err = s.ledger.CreateStoreAccount(ctx, 7, "owner-1", decimal.MustNew(500, 0))
	require.NoError(t, err)

	order, err := s.orderSaga.PlaceOrder(ctx, "user-1", 7, coffeeFor(3000))
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, order.Status)

	settled := s.waitSettled(t, order.ID)
	assert.Equal(t, domain.OrderStatusPaymentCompleted, settled.Status)
	require.NotNil(t, settled.PaymentID)

	payment, err := s.payments.ReadPaymentByOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusApproved, payment.Status)
	assert.Equal(t, *settled.PaymentID, payment.ID)

	assert.Zero(t, s.userBalance(t, "user-1").Cmp(decimal.MustNew(7000, 0)))
	assert.Zero(t, s.storeBalance(t, 7).Cmp(decimal.MustNew(3500, 0)))
}

func TestSaga_InsufficientFundsLeavesBalancesUntouched(t *testing.T) {
	ctx := context.Background()
	s := startSaga(t)

	_, err := s.ledger.CreateUserAccount(ctx, "user-1", decimal.MustNew(1000, 0))
	require.NoError(t, err)
	_, err = s.ledger.CreateStoreAccount(ctx, 7, "owner-1", decimal.Zero)
	require.NoError(t, err)

	order, err := s.orderSaga.PlaceOrder(ctx, "user-1", 7, coffeeFor(3000))
	require.NoError(t, err)

	settled := s.waitSettled(t, order.ID)
	assert.Equal(t, domain.OrderStatusPaymentFailed, settled.Status)
	assert.Equal(t, string(domain.ReasonInsufficientFunds), settled.FailureReason)

	payment, err := s.payments.ReadPaymentByOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusRejected, payment.Status)
	assert.Equal(t, domain.ReasonInsufficientFunds, payment.FailureReason)

	assert.Zero(t, s.userBalance(t, "user-1").Cmp(decimal.MustNew(1000, 0)))
	assert.Zero(t, s.storeBalance(t, 7).Cmp(decimal.Zero))
}

func TestSaga_MissingStoreCompensatesDebit(t *testing.T) {
	ctx := context.Background()
	s := startSaga(t)

	_, err := s.ledger.CreateUserAccount(ctx, "user-1", decimal.MustNew(5000, 0))
	require.NoError(t, err)
	// store account 7 is never created

	order, err := s.orderSaga.PlaceOrder(ctx, "user-1", 7, coffeeFor(2000))
	require.NoError(t, err)

	settled := s.waitSettled(t, order.ID)
	assert.Equal(t, domain.OrderStatusPaymentFailed, settled.Status)
	assert.Equal(t, string(domain.ReasonStoreAccountNotFound), settled.FailureReason)

	// the debited 2000 was credited back
	assert.Zero(t, s.userBalance(t, "user-1").Cmp(decimal.MustNew(5000, 0)))
}

func TestSaga_DuplicateOrderCreatedMovesMoneyOnce(t *testing.T) {
	ctx := context.Background()
	s := startSaga(t)

	_, err := s.ledger.CreateUserAccount(ctx, "user-1", decimal.MustNew(10000, 0))
	require.NoError(t, err)
	_, err = s.ledger.CreateStoreAccount(ctx, 7, "owner-1", decimal.Zero)
	require.NoError(t, err)

	order, err := s.orderSaga.PlaceOrder(ctx, "user-1", 7, coffeeFor(3000))
	require.NoError(t, err)

	settled := s.waitSettled(t, order.ID)
	require.Equal(t, domain.OrderStatusPaymentCompleted, settled.Status)

	// redeliver the start event; the processor must emit the stored result
	// without touching the ledger again
	err = s.bus.Publish(ctx, domain.NewOrderCreated(order))
	require.NoError(t, err)

	assert.Never(t, func() bool {
		return s.userBalance(t, "user-1").Cmp(decimal.MustNew(7000, 0)) != 0 ||
			s.storeBalance(t, 7).Cmp(decimal.MustNew(3000, 0)) != 0
	}, 300*time.Millisecond, 20*time.Millisecond)

	final, err := s.orders.ReadOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPaymentCompleted, final.Status)
	assert.Empty(t, s.deadLetter)
}

func TestSaga_ReconcilerRecoversLostStartEvent(t *testing.T) {
	ctx := context.Background()
	s := startSaga(t)

	_, err := s.ledger.CreateUserAccount(ctx, "user-1", decimal.MustNew(10000, 0))
	require.NoError(t, err)
	_, err = s.ledger.CreateStoreAccount(ctx, 7, "owner-1", decimal.Zero)
	require.NoError(t, err)

	// simulate a lost publish: the order exists but no event went out
	order, err := s.orders.CreateOrder(ctx, &domain.Order{
		UserID:      "user-1",
		StoreID:     7,
		Status:      domain.OrderStatusPending,
		TotalAmount: decimal.MustNew(3000, 0),
		CreatedAt:   time.Now().Add(-time.Hour),
		UpdatedAt:   time.Now().Add(-time.Hour),
	})
	require.NoError(t, err)

	require.NoError(t, s.orderSaga.ReconcilePending(ctx, time.Minute))

	settled := s.waitSettled(t, order.ID)
	assert.Equal(t, domain.OrderStatusPaymentCompleted, settled.Status)
	assert.Zero(t, s.userBalance(t, "user-1").Cmp(decimal.MustNew(7000, 0)))
	assert.Zero(t, s.storeBalance(t, 7).Cmp(decimal.MustNew(3000, 0)))
}
