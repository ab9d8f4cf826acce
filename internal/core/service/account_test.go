package service_test

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/govalues/decimal"
	"github.com/hetrkumt/localy-v1/internal/core/domain"
	"github.com/hetrkumt/localy-v1/internal/core/port/mock"
	"github.com/hetrkumt/localy-v1/internal/core/service"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestAccountProvisioner_CreateUserAccount(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	logger, _ := zap.NewProduction()
	initial := decimal.MustNew(10000, 0)

	tests := []struct {
		name     string
		userID   string
		initial  decimal.Decimal
		mock     func(ledger *mock.MockLedger)
		expError error
	}{
		{
			name:    "Good account",
			userID:  "user-1",
			initial: initial,
			mock: func(ledger *mock.MockLedger) {
				ledger.EXPECT().CreateUserAccount(gomock.Any(), "user-1", initial).
					Return(&domain.Account{ID: 1, UserID: "user-1",
						Role: domain.AccountRoleCustomer, Balance: initial}, nil)
			},
		},
		{
			name:     "Duplicate account",
			userID:   "user-1",
			initial:  initial,
			expError: domain.ErrAccountAlreadyExists,
			mock: func(ledger *mock.MockLedger) {
				ledger.EXPECT().CreateUserAccount(gomock.Any(), "user-1", initial).
					Return(nil, domain.ErrConflictingData)
			},
		},
		{
			name:     "Empty user id",
			userID:   "",
			initial:  initial,
			expError: domain.ErrBadRequest,
			mock:     func(ledger *mock.MockLedger) {},
		},
		{
			name:     "Negative initial balance",
			userID:   "user-1",
			initial:  decimal.MustNew(-1, 0),
			expError: domain.ErrBadRequest,
			mock:     func(ledger *mock.MockLedger) {},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ledger := mock.NewMockLedger(mockCtrl)
			test.mock(ledger)

			a, err := service.NewAccountProvisioner(ledger, logger)
			assert.NoError(t, err)

			account, err := a.CreateUserAccount(context.Background(), test.userID, test.initial)
			if test.expError != nil {
				assert.ErrorIs(t, err, test.expError)
				assert.Nil(t, account)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, test.userID, account.UserID)
		})
	}
}

func TestAccountProvisioner_CreateStoreAccount(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	logger, _ := zap.NewProduction()
	initial := decimal.MustNew(500, 0)

	ledger := mock.NewMockLedger(mockCtrl)
	ledger.EXPECT().CreateStoreAccount(gomock.Any(), int64(7), "owner-1", initial).
		Return(&domain.Account{ID: 2, StoreID: 7, Role: domain.AccountRoleStore,
			Balance: initial}, nil)

	a, err := service.NewAccountProvisioner(ledger, logger)
	assert.NoError(t, err)

	account, err := a.CreateStoreAccount(context.Background(), 7, "owner-1", initial)
	assert.NoError(t, err)
	assert.Equal(t, int64(7), account.StoreID)

	_, err = a.CreateStoreAccount(context.Background(), 0, "owner-1", initial)
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}
