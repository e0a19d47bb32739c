package domain

import (
	"errors"
	"fmt"
)

var (
	// Account errors
	ErrAccountNotFound       = errors.New("account not found")
	ErrParentNotFound        = errors.New("parent account not found")
	ErrParentTypeInvalid     = errors.New("parent account must be of type current")
	ErrInvalidSubAccountType = errors.New("sub-account type must be savings or blocked")
	ErrAccountBlocked        = errors.New("blocked accounts cannot be deleted")
	ErrAccountNotBlocked     = errors.New("account is not blocked")
	ErrAccountHasSubAccounts = errors.New("account has sub-accounts")

	// Transaction errors
	ErrEmitterBlocked        = errors.New("blocked accounts may only receive credits")
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrInvalidAmount         = errors.New("amount must be positive")
	ErrTransactionNotFound   = errors.New("transaction not found")
	ErrTransactionNotPending = errors.New("transaction is not pending approval")

	// User errors
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = fmt.Errorf("%w: email already registered", ErrConflict)

	// Input and store errors
	ErrValidationFailed    = errors.New("validation failed")
	ErrUnsupportedCurrency = errors.New("unsupported currency")
	ErrConflict            = errors.New("resource already exists")
	ErrStoreUnavailable    = errors.New("store unavailable")
)
