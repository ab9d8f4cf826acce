package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hetrkumt/localy-v1/internal/core/domain"
	"github.com/hetrkumt/localy-v1/internal/core/port"
	"go.uber.org/zap"
)

// PaymentProcessor consumes OrderCreated events, moves money between the
// customer and store ledger accounts, records the Payment row and emits the
// PaymentResult. It owns the payments and accounts tables and nothing else.
type PaymentProcessor struct {
	payments port.PaymentRepository
	ledger   port.Ledger
	bus      port.EventPublisher
	metrics  port.SagaMetrics
	logger   *zap.Logger
}

func NewPaymentProcessor(payments port.PaymentRepository, ledger port.Ledger,
	bus port.EventPublisher, metrics port.SagaMetrics, logger *zap.Logger) (*PaymentProcessor, error) {
	return &PaymentProcessor{
		payments: payments,
		ledger:   ledger,
		bus:      bus,
		metrics:  metrics,
		logger:   logger,
	}, nil
}

// HandleEvent is the bus entry point.
func (p *PaymentProcessor) HandleEvent(ctx context.Context, event domain.Event) error {
	evt, ok := event.(domain.OrderCreated)
	if !ok {
		return fmt.Errorf("unexpected event %q: %w", event.EventName(), domain.ErrBadRequest)
	}
	return p.HandleOrderCreated(ctx, evt)
}

// HandleOrderCreated runs the settlement for one order. Business failures
// (missing account, insufficient funds) end as a REJECTED payment and a
// normal result event; only infra errors are returned, which leaves the
// event unacknowledged so the bus redelivers it.
func (p *PaymentProcessor) HandleOrderCreated(ctx context.Context, evt domain.OrderCreated) error {
	log := p.logger.With(zap.Int64("order", evt.OrderID))

	// Idempotency guard: one Payment row per order. On redelivery the
	// result is emitted again from the stored row, so a coordinator that
	// never saw it still reaches a terminal status, but no money moves.
	existing, err := p.payments.ReadPaymentByOrder(ctx, evt.OrderID)
	if err != nil && !errors.Is(err, domain.ErrDataNotFound) {
		return err
	}
	if existing != nil {
		log.Info("Duplicate OrderCreated, re-emitting stored result",
			zap.String("status", string(existing.Status)))
		return p.bus.Publish(ctx, domain.NewPaymentResult(existing))
	}

	customer, err := p.ledger.LookupUser(ctx, evt.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) || errors.Is(err, domain.ErrDataNotFound) {
			log.Warn("Customer account not found", zap.String("user", evt.UserID))
			return p.reject(ctx, evt, domain.ReasonCustomerAccountNotFound)
		}
		return err
	}

	err = p.ledger.Debit(ctx, customer.ID, evt.TotalAmount)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientFunds) {
			log.Info("Insufficient funds", zap.String("user", evt.UserID))
			return p.reject(ctx, evt, domain.ReasonInsufficientFunds)
		}
		return err
	}

	// The customer is debited from here on: every failure path below must
	// credit the amount back before recording the rejection.
	store, err := p.ledger.LookupStore(ctx, evt.StoreID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) || errors.Is(err, domain.ErrDataNotFound) {
			log.Warn("Store account not found after debit", zap.Int64("store", evt.StoreID))
			if err := p.compensate(ctx, evt, customer.ID); err != nil {
				return err
			}
			return p.reject(ctx, evt, domain.ReasonStoreAccountNotFound)
		}
		if err := p.compensate(ctx, evt, customer.ID); err != nil {
			return err
		}
		return err
	}

	err = p.ledger.Credit(ctx, store.ID, evt.TotalAmount)
	if err != nil {
		// Credit only fails when the account vanished under us; same
		// dangerous case as a failed store lookup.
		log.Warn("Store credit failed after debit", zap.Int64("store", evt.StoreID), zap.Error(err))
		if err := p.compensate(ctx, evt, customer.ID); err != nil {
			return err
		}
		return p.reject(ctx, evt, domain.ReasonStoreAccountNotFound)
	}

	payment, err := p.payments.CreatePayment(ctx, &domain.Payment{
		OrderID:   evt.OrderID,
		Status:    domain.PaymentStatusApproved,
		Amount:    evt.TotalAmount,
		CreatedAt: time.Now(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflictingData) {
			// Lost a duplicate race: another delivery already settled
			// this order, so our transfer doubled it. Reverse it.
			log.Warn("Duplicate settlement detected on insert, reversing transfer")
			return p.reverse(ctx, evt, customer.ID, store.ID)
		}
		log.Error("Persisting approved payment", zap.Error(err))
		return err
	}

	log.Info("Payment approved", zap.Int64("payment", payment.ID))
	p.metrics.PaymentApproved()
	return p.bus.Publish(ctx, domain.NewPaymentResult(payment))
}

// reject records the REJECTED payment and emits the failure result. A
// conflicting row means a duplicate delivery already recorded the outcome;
// then the stored result is emitted instead.
func (p *PaymentProcessor) reject(ctx context.Context, evt domain.OrderCreated, reason domain.FailureReason) error {
	payment, err := p.payments.CreatePayment(ctx, &domain.Payment{
		OrderID:       evt.OrderID,
		Status:        domain.PaymentStatusRejected,
		Amount:        evt.TotalAmount,
		FailureReason: reason,
		CreatedAt:     time.Now(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflictingData) {
			existing, err := p.payments.ReadPaymentByOrder(ctx, evt.OrderID)
			if err != nil {
				return err
			}
			return p.bus.Publish(ctx, domain.NewPaymentResult(existing))
		}
		p.logger.Error("Persisting rejected payment",
			zap.Int64("order", evt.OrderID), zap.Error(err))
		return err
	}

	p.metrics.PaymentRejected(string(reason))
	return p.bus.Publish(ctx, domain.NewPaymentResult(payment))
}

// compensate credits the already-debited amount back to the customer. Its
// own failure is fatal: the ledger is inconsistent and retrying the whole
// event could debit the customer twice, so the error wraps
// ErrCompensationFailed and the bus dead-letters the event for an operator.
func (p *PaymentProcessor) compensate(ctx context.Context, evt domain.OrderCreated, customerAccountID int64) error {
	err := p.ledger.Credit(ctx, customerAccountID, evt.TotalAmount)
	if err != nil {
		p.logger.Error("Compensating credit failed, ledger inconsistent",
			zap.Int64("order", evt.OrderID),
			zap.Int64("account", customerAccountID),
			zap.Error(err))
		p.metrics.CompensationFailed()
		return fmt.Errorf("order %d: %w: %w", evt.OrderID, domain.ErrCompensationFailed, err)
	}

	p.logger.Info("Compensating credit applied",
		zap.Int64("order", evt.OrderID),
		zap.Int64("account", customerAccountID))
	p.metrics.CompensationApplied()
	return nil
}

// reverse undoes a completed transfer after losing the duplicate-insert
// race. The surviving Payment row already carries the outcome, so nothing
// is emitted here.
func (p *PaymentProcessor) reverse(ctx context.Context, evt domain.OrderCreated, customerAccountID, storeAccountID int64) error {
	if err := p.ledger.Debit(ctx, storeAccountID, evt.TotalAmount); err != nil {
		p.metrics.CompensationFailed()
		return fmt.Errorf("order %d: %w: %w", evt.OrderID, domain.ErrCompensationFailed, err)
	}
	if err := p.ledger.Credit(ctx, customerAccountID, evt.TotalAmount); err != nil {
		p.metrics.CompensationFailed()
		return fmt.Errorf("order %d: %w: %w", evt.OrderID, domain.ErrCompensationFailed, err)
	}
	p.metrics.CompensationApplied()
	return nil
}

func (p *PaymentProcessor) GetPaymentByOrder(ctx context.Context, orderID int64) (*domain.Payment, error) {
	payment, err := p.payments.ReadPaymentByOrder(ctx, orderID)
	if err != nil {
		if !errors.Is(err, domain.ErrDataNotFound) {
			p.logger.Error("Read payment", zap.Int64("order", orderID), zap.Error(err))
		}
		return nil, err
	}
	return payment, nil
}
