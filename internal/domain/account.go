package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType classifies what an account may do in the ledger.
type AccountType string

const (
	AccountTypeCurrent AccountType = "current"
	AccountTypeSavings AccountType = "savings"
	AccountTypeBlocked AccountType = "blocked"
)

// IsValid reports whether t is a known account type.
func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeCurrent, AccountTypeSavings, AccountTypeBlocked:
		return true
	}
	return false
}

// IsSubAccountType reports whether t may be used for a sub-account.
func (t AccountType) IsSubAccountType() bool {
	return t == AccountTypeSavings || t == AccountTypeBlocked
}

// Account represents a bank account identified by its IBAN.
type Account struct {
	IBAN       string
	Name       string
	BIC        string
	Currency   Currency
	Type       AccountType
	Balance    decimal.Decimal
	ParentIBAN *string
	OwnerID    *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsRoot reports whether the account has no parent.
func (a *Account) IsRoot() bool {
	return a.ParentIBAN == nil
}

// IsBlocked reports whether the account is blocked.
func (a *Account) IsBlocked() bool {
	return a.Type == AccountTypeBlocked
}

// CanBeParent reports whether sub-accounts may be attached to a.
func (a *Account) CanBeParent() bool {
	return a.Type == AccountTypeCurrent
}

// ValidateEmit checks that the account may send amount out, either by
// debit or transfer. Blocked accounts may only receive credits.
func (a *Account) ValidateEmit(amount decimal.Decimal) error {
	if a.IsBlocked() {
		return ErrEmitterBlocked
	}
	if a.Balance.LessThan(amount) {
		return ErrInsufficientFunds
	}
	return nil
}
