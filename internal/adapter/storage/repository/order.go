package repository

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/hetrkumt/localy-v1/internal/adapter/storage"
	"github.com/hetrkumt/localy-v1/internal/core/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// OrderRepository persists orders and their line items. It belongs to the
// order saga coordinator; the payment side has no access to these tables.
type OrderRepository struct {
	db *storage.DB
}

func NewOrderRepository(db *storage.DB) (*OrderRepository, error) {
	return &OrderRepository{db: db}, nil
}

func (or *OrderRepository) CreateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	err := pgx.BeginFunc(ctx, or.db, func(tx pgx.Tx) error {
		orderSt := or.db.QueryBuilder.
			Insert("orders").
			Columns("user_id", "store_id", "total_amount", "status", "created_at", "updated_at").
			Values(order.UserID, order.StoreID, order.TotalAmount, order.Status,
				order.CreatedAt, order.UpdatedAt).
			Suffix("returning id")

		sql, args, err := orderSt.ToSql()
		if err != nil {
			return err
		}

		err = tx.QueryRow(ctx, sql, args...).Scan(&order.ID)
		if err != nil {
			return err
		}

		if len(order.LineItems) == 0 {
			return nil
		}

		itemSt := or.db.QueryBuilder.
			Insert("order_line_items").
			Columns("order_id", "menu_id", "menu_name", "quantity",
				"unit_price", "total_price", "created_at")
		for i := range order.LineItems {
			item := &order.LineItems[i]
			item.OrderID = order.ID
			itemSt = itemSt.Values(item.OrderID, item.MenuID, item.MenuName,
				item.Quantity, item.UnitPrice, item.TotalPrice, item.CreatedAt)
		}

		sql, args, err = itemSt.ToSql()
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, sql, args...)
		return err
	})

	if err != nil {
		if _, ok := err.(*pgconn.PgError); ok {
			return nil, domain.ErrInternal
		}
		return nil, err
	}

	return order, nil
}

func (or *OrderRepository) UpdateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	statement := or.db.QueryBuilder.
		Update("orders").
		Set("status", order.Status).
		Set("payment_id", order.PaymentID).
		Set("failure_reason", nullableString(order.FailureReason)).
		Set("updated_at", order.UpdatedAt).
		Where(sq.Eq{"id": order.ID})

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	tag, err := or.db.Exec(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.ErrDataNotFound
	}

	return order, nil
}

func (or *OrderRepository) ReadOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	statement := or.db.QueryBuilder.
		Select("id", "user_id", "store_id", "total_amount", "status",
			"payment_id", "failure_reason", "created_at", "updated_at").
		From("orders").
		Where(sq.Eq{"id": orderID})

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	order := domain.Order{}
	var failureReason *string

	err = or.db.QueryRow(ctx, sql, args...).Scan(
		&order.ID,
		&order.UserID,
		&order.StoreID,
		&order.TotalAmount,
		&order.Status,
		&order.PaymentID,
		&failureReason,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrDataNotFound
		}
		return nil, err
	}
	if failureReason != nil {
		order.FailureReason = *failureReason
	}

	items, err := or.readLineItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.LineItems = items

	return &order, nil
}

func (or *OrderRepository) readLineItems(ctx context.Context, orderID int64) ([]domain.LineItem, error) {
	statement := or.db.QueryBuilder.
		Select("id", "order_id", "menu_id", "menu_name", "quantity",
			"unit_price", "total_price", "created_at").
		From("order_line_items").
		Where(sq.Eq{"order_id": orderID}).
		OrderBy("id")

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := or.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.LineItem, 0)
	for rows.Next() {
		item := domain.LineItem{}
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.MenuID,
			&item.MenuName,
			&item.Quantity,
			&item.UnitPrice,
			&item.TotalPrice,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

func (or *OrderRepository) ListOrdersByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	statement := or.db.QueryBuilder.
		Select("id", "user_id", "store_id", "total_amount", "status",
			"payment_id", "failure_reason", "created_at", "updated_at").
		From("orders").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at desc")

	return or.queryOrders(ctx, statement)
}

func (or *OrderRepository) ListPendingBefore(ctx context.Context, cutoff time.Time) ([]*domain.Order, error) {
	statement := or.db.QueryBuilder.
		Select("id", "user_id", "store_id", "total_amount", "status",
			"payment_id", "failure_reason", "created_at", "updated_at").
		From("orders").
		Where(sq.Eq{"status": domain.OrderStatusPending}).
		Where(sq.Lt{"created_at": cutoff})

	return or.queryOrders(ctx, statement)
}

func (or *OrderRepository) queryOrders(ctx context.Context, statement sq.SelectBuilder) ([]*domain.Order, error) {
	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := or.db.Query(ctx, sql, args...)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrDataNotFound
		}
		return nil, err
	}
	defer rows.Close()

	list := make([]*domain.Order, 0)
	for rows.Next() {
		order := domain.Order{}
		var failureReason *string
		err := rows.Scan(
			&order.ID,
			&order.UserID,
			&order.StoreID,
			&order.TotalAmount,
			&order.Status,
			&order.PaymentID,
			&failureReason,
			&order.CreatedAt,
			&order.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		if failureReason != nil {
			order.FailureReason = *failureReason
		}
		list = append(list, &order)
	}

	return list, rows.Err()
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
