package domain

import (
	"time"

	"github.com/govalues/decimal"
)

type AccountRole string

const (
	AccountRoleCustomer AccountRole = "CUSTOMER"
	AccountRoleStore    AccountRole = "STORE"
)

// Account is an internal virtual ledger entry. Balance is mutated only
// through atomic debit/credit operations and never goes negative.
type Account struct {
	ID        int64
	UserID    string
	StoreID   int64
	Role      AccountRole
	Balance   decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}
