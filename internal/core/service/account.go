package service

import (
	"context"
	"errors"

	"github.com/govalues/decimal"
	"github.com/hetrkumt/localy-v1/internal/core/domain"
	"github.com/hetrkumt/localy-v1/internal/core/port"
	"go.uber.org/zap"
)

// AccountProvisioner fronts the ledger for the provisioning API: accounts
// must exist before any order for them can settle.
type AccountProvisioner struct {
	ledger port.Ledger
	logger *zap.Logger
}

func NewAccountProvisioner(ledger port.Ledger, logger *zap.Logger) (*AccountProvisioner, error) {
	return &AccountProvisioner{ledger: ledger, logger: logger}, nil
}

func (a *AccountProvisioner) CreateUserAccount(ctx context.Context, userID string,
	initial decimal.Decimal) (*domain.Account, error) {
	if userID == "" || initial.Cmp(decimal.Zero) < 0 {
		return nil, domain.ErrBadRequest
	}

	account, err := a.ledger.CreateUserAccount(ctx, userID, initial)
	if err != nil {
		if errors.Is(err, domain.ErrConflictingData) {
			return nil, domain.ErrAccountAlreadyExists
		}
		a.logger.Error("Create user account", zap.String("user", userID), zap.Error(err))
		return nil, err
	}
	return account, nil
}

func (a *AccountProvisioner) CreateStoreAccount(ctx context.Context, storeID int64,
	ownerUserID string, initial decimal.Decimal) (*domain.Account, error) {
	if storeID == 0 || ownerUserID == "" || initial.Cmp(decimal.Zero) < 0 {
		return nil, domain.ErrBadRequest
	}

	account, err := a.ledger.CreateStoreAccount(ctx, storeID, ownerUserID, initial)
	if err != nil {
		if errors.Is(err, domain.ErrConflictingData) {
			return nil, domain.ErrAccountAlreadyExists
		}
		a.logger.Error("Create store account", zap.Int64("store", storeID), zap.Error(err))
		return nil, err
	}
	return account, nil
}

func (a *AccountProvisioner) GetUserBalance(ctx context.Context, userID string) (*domain.Account, error) {
	account, err := a.ledger.LookupUser(ctx, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrAccountNotFound) && !errors.Is(err, domain.ErrDataNotFound) {
			a.logger.Error("Lookup user account", zap.String("user", userID), zap.Error(err))
		}
		return nil, err
	}
	return account, nil
}
