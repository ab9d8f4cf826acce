package memory

import (
	"context"
	"sync"
	"time"

	"github.com/govalues/decimal"
	"github.com/hetrkumt/localy-v1/internal/core/domain"
)

// Ledger is the in-memory account store. The mutex plays the role of the
// database's conditional update: the balance check and the mutation happen
// under one critical section, never as two separate steps.
type Ledger struct {
	mu       sync.Mutex
	accounts map[int64]*domain.Account
	byUser   map[string]int64
	byStore  map[int64]int64
	nextID   int64
}

func NewLedger() *Ledger {
	return &Ledger{
		accounts: make(map[int64]*domain.Account),
		byUser:   make(map[string]int64),
		byStore:  make(map[int64]int64),
	}
}

func (l *Ledger) CreateUserAccount(ctx context.Context, userID string,
	initial decimal.Decimal) (*domain.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.byUser[userID]; ok {
		return nil, domain.ErrConflictingData
	}

	account := l.newAccount(domain.AccountRoleCustomer, initial)
	account.UserID = userID
	l.byUser[userID] = account.ID

	return copyAccount(account), nil
}

func (l *Ledger) CreateStoreAccount(ctx context.Context, storeID int64,
	ownerUserID string, initial decimal.Decimal) (*domain.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.byStore[storeID]; ok {
		return nil, domain.ErrConflictingData
	}

	account := l.newAccount(domain.AccountRoleStore, initial)
	account.UserID = ownerUserID
	account.StoreID = storeID
	l.byStore[storeID] = account.ID

	return copyAccount(account), nil
}

func (l *Ledger) newAccount(role domain.AccountRole, initial decimal.Decimal) *domain.Account {
	l.nextID++
	now := time.Now()
	account := &domain.Account{
		ID:        l.nextID,
		Role:      role,
		Balance:   initial,
		CreatedAt: now,
		UpdatedAt: now,
	}
	l.accounts[account.ID] = account
	return account
}

func (l *Ledger) LookupUser(ctx context.Context, userID string) (*domain.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id, ok := l.byUser[userID]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return copyAccount(l.accounts[id]), nil
}

func (l *Ledger) LookupStore(ctx context.Context, storeID int64) (*domain.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id, ok := l.byStore[storeID]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return copyAccount(l.accounts[id]), nil
}

func (l *Ledger) Debit(ctx context.Context, accountID int64, amount decimal.Decimal) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	account, ok := l.accounts[accountID]
	if !ok {
		return domain.ErrAccountNotFound
	}
	if account.Balance.Cmp(amount) < 0 {
		return domain.ErrInsufficientFunds
	}

	balance, err := account.Balance.Sub(amount)
	if err != nil {
		return err
	}
	account.Balance = balance
	account.UpdatedAt = time.Now()

	return nil
}

func (l *Ledger) Credit(ctx context.Context, accountID int64, amount decimal.Decimal) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	account, ok := l.accounts[accountID]
	if !ok {
		return domain.ErrAccountNotFound
	}

	balance, err := account.Balance.Add(amount)
	if err != nil {
		return err
	}
	account.Balance = balance
	account.UpdatedAt = time.Now()

	return nil
}

// DropStore removes a store account. Only tests use it, to stage the
// missing-store compensation path.
func (l *Ledger) DropStore(storeID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if id, ok := l.byStore[storeID]; ok {
		delete(l.accounts, id)
		delete(l.byStore, storeID)
	}
}

func copyAccount(a *domain.Account) *domain.Account {
	c := *a
	return &c
}
