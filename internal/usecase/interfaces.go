package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
)

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, tx Transaction, account *domain.Account) error
	GetByIBAN(ctx context.Context, iban string) (*domain.Account, error)
	GetByIBANForUpdate(ctx context.Context, tx Transaction, iban string) (*domain.Account, error)
	// GetByIBANsForUpdate locks the rows in ascending IBAN order. Missing
	// IBANs are left out of the result.
	GetByIBANsForUpdate(ctx context.Context, tx Transaction, ibans []string) ([]*domain.Account, error)
	// IncrementBalance adds delta (which may be negative) to the stored
	// balance without reading it first.
	IncrementBalance(ctx context.Context, tx Transaction, iban string, delta decimal.Decimal, updatedAt time.Time) (*domain.Account, error)
	SetAccountType(ctx context.Context, tx Transaction, iban string, accountType domain.AccountType, updatedAt time.Time) (*domain.Account, error)
	Delete(ctx context.Context, tx Transaction, iban string) error
	ListChildren(ctx context.Context, parentIBAN string) ([]*domain.Account, error)
	CountChildren(ctx context.Context, tx Transaction, parentIBAN string) (int, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Account, error)
	CountRoots(ctx context.Context) (int, error)
	ListRoots(ctx context.Context, limit, offset int) ([]*domain.Account, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

// TransactionRepository defines data access for transactions.
type TransactionRepository interface {
	// Create fails with domain.ErrConflict when the ID or idempotency key
	// is already stored.
	Create(ctx context.Context, tx Transaction, transaction *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Transaction, error)
	GetByIdempotencyKey(ctx context.Context, tx Transaction, key string) (*domain.Transaction, error)
	// UpdateStatus sets the status and, when appliedAt is non-nil, marks the
	// balance effects as applied.
	UpdateStatus(ctx context.Context, tx Transaction, id string, status domain.TransactionStatus, appliedAt *time.Time, updatedAt time.Time) (*domain.Transaction, error)
	List(ctx context.Context, filter domain.TransactionFilter, limit, offset int) ([]*domain.Transaction, error)
	Count(ctx context.Context, filter domain.TransactionFilter) (int, error)
	// NetAppliedAmount sums the applied effects on an account: incoming
	// amounts minus outgoing amounts.
	NetAppliedAmount(ctx context.Context, iban string) (decimal.Decimal, error)
}

// UserRepository defines data access for users. Users live outside the
// ledger transactions.
type UserRepository interface {
	// Create fails with domain.ErrConflict when the email is taken.
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// GetByEmail expects a normalized email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByResetTokenHash(ctx context.Context, hash string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) (*domain.User, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, limit, offset int) ([]*domain.User, error)
	Count(ctx context.Context) (int, error)
}

// UserLookup resolves account owners.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// Transaction represents a store transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Retrier re-runs an operation while it fails with a transient store error.
// The operation must be safe to repeat.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release removes the key so a failed request can be retried.
	Release(ctx context.Context, key string) error
}
