package repository

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/govalues/decimal"
	"github.com/hetrkumt/localy-v1/internal/adapter/storage"
	"github.com/hetrkumt/localy-v1/internal/core/domain"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// AccountRepository is the Postgres ledger. Debit and credit are single
// conditional updates so the balance check and the mutation cannot be
// interleaved by a concurrent order, even across service instances.
type AccountRepository struct {
	db *storage.DB
}

func NewAccountRepository(db *storage.DB) (*AccountRepository, error) {
	return &AccountRepository{db: db}, nil
}

func (ar *AccountRepository) CreateUserAccount(ctx context.Context, userID string,
	initial decimal.Decimal) (*domain.Account, error) {
	return ar.createAccount(ctx, &domain.Account{
		UserID:  userID,
		Role:    domain.AccountRoleCustomer,
		Balance: initial,
	})
}

func (ar *AccountRepository) CreateStoreAccount(ctx context.Context, storeID int64,
	ownerUserID string, initial decimal.Decimal) (*domain.Account, error) {
	return ar.createAccount(ctx, &domain.Account{
		UserID:  ownerUserID,
		StoreID: storeID,
		Role:    domain.AccountRoleStore,
		Balance: initial,
	})
}

func (ar *AccountRepository) createAccount(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now

	statement := ar.db.QueryBuilder.
		Insert("accounts").
		Columns("user_id", "store_id", "role", "balance", "created_at", "updated_at").
		Values(nullableString(account.UserID), nullableInt64(account.StoreID),
			account.Role, account.Balance, account.CreatedAt, account.UpdatedAt).
		Suffix("returning id")

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	err = ar.db.QueryRow(ctx, sql, args...).Scan(&account.ID)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, domain.ErrConflictingData
		}
		return nil, err
	}

	return account, nil
}

func (ar *AccountRepository) LookupUser(ctx context.Context, userID string) (*domain.Account, error) {
	return ar.lookup(ctx, sq.Eq{"user_id": userID, "role": domain.AccountRoleCustomer})
}

func (ar *AccountRepository) LookupStore(ctx context.Context, storeID int64) (*domain.Account, error) {
	return ar.lookup(ctx, sq.Eq{"store_id": storeID, "role": domain.AccountRoleStore})
}

func (ar *AccountRepository) lookup(ctx context.Context, where sq.Eq) (*domain.Account, error) {
	statement := ar.db.QueryBuilder.
		Select("id", "user_id", "store_id", "role", "balance", "created_at", "updated_at").
		From("accounts").
		Where(where)

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	account := domain.Account{}
	var userID *string
	var storeID *int64

	err = ar.db.QueryRow(ctx, sql, args...).Scan(
		&account.ID,
		&userID,
		&storeID,
		&account.Role,
		&account.Balance,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	if userID != nil {
		account.UserID = *userID
	}
	if storeID != nil {
		account.StoreID = *storeID
	}

	return &account, nil
}

// Debit decrements the balance only when it covers the amount; the check
// and the write are one UPDATE. Zero affected rows means either the balance
// was short or the account does not exist, told apart by a follow-up read.
func (ar *AccountRepository) Debit(ctx context.Context, accountID int64, amount decimal.Decimal) error {
	statement := ar.db.QueryBuilder.
		Update("accounts").
		Set("balance", sq.Expr("balance - ?", amount)).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": accountID}).
		Where(sq.GtOrEq{"balance": amount})

	sql, args, err := statement.ToSql()
	if err != nil {
		return err
	}

	tag, err := ar.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		exists, err := ar.accountExists(ctx, accountID)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrAccountNotFound
		}
		return domain.ErrInsufficientFunds
	}

	return nil
}

func (ar *AccountRepository) Credit(ctx context.Context, accountID int64, amount decimal.Decimal) error {
	statement := ar.db.QueryBuilder.
		Update("accounts").
		Set("balance", sq.Expr("balance + ?", amount)).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": accountID})

	sql, args, err := statement.ToSql()
	if err != nil {
		return err
	}

	tag, err := ar.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

func (ar *AccountRepository) accountExists(ctx context.Context, accountID int64) (bool, error) {
	statement := ar.db.QueryBuilder.
		Select("1").
		From("accounts").
		Where(sq.Eq{"id": accountID})

	sql, args, err := statement.ToSql()
	if err != nil {
		return false, err
	}

	var one int
	err = ar.db.QueryRow(ctx, sql, args...).Scan(&one)
	if err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

func nullableInt64(v int64) *int64 {
	if v == 0 {
		return nil
	}
	return &v
}
