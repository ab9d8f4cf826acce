package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/hetrkumt/localy-v1/internal/adapter/storage"
	"github.com/hetrkumt/localy-v1/internal/core/domain"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PaymentRepository persists payment rows. The unique constraint on
// order_id is what makes duplicate event processing detectable.
type PaymentRepository struct {
	db *storage.DB
}

func NewPaymentRepository(db *storage.DB) (*PaymentRepository, error) {
	return &PaymentRepository{db: db}, nil
}

func (pr *PaymentRepository) CreatePayment(ctx context.Context, payment *domain.Payment) (*domain.Payment, error) {
	statement := pr.db.QueryBuilder.
		Insert("payments").
		Columns("order_id", "status", "amount", "failure_reason", "created_at").
		Values(payment.OrderID, payment.Status, payment.Amount,
			nullableString(string(payment.FailureReason)), payment.CreatedAt).
		Suffix("returning id")

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	err = pr.db.QueryRow(ctx, sql, args...).Scan(&payment.ID)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, domain.ErrConflictingData
		}
		return nil, err
	}

	return payment, nil
}

func (pr *PaymentRepository) ReadPaymentByOrder(ctx context.Context, orderID int64) (*domain.Payment, error) {
	statement := pr.db.QueryBuilder.
		Select("id", "order_id", "status", "amount", "failure_reason", "created_at").
		From("payments").
		Where(sq.Eq{"order_id": orderID})

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	payment := domain.Payment{}
	var failureReason *string

	err = pr.db.QueryRow(ctx, sql, args...).Scan(
		&payment.ID,
		&payment.OrderID,
		&payment.Status,
		&payment.Amount,
		&failureReason,
		&payment.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrDataNotFound
		}
		return nil, err
	}
	if failureReason != nil {
		payment.FailureReason = domain.FailureReason(*failureReason)
	}

	return &payment, nil
}
