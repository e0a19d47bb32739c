package memory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	store *Store
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(store *Store) *TransactionRepository {
	return &TransactionRepository{store: store}
}

// Create stages a new transaction. IDs and idempotency keys are unique.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Transaction, transaction *domain.Transaction) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}

	keys := []string{transactionKey(transaction.ID)}
	if transaction.IdempotencyKey != nil {
		keys = append(keys, idempotencyKey(*transaction.IdempotencyKey))
	}
	if err := t.lock(ctx, keys...); err != nil {
		return err
	}

	if _, exists := r.store.transaction(t, transaction.ID); exists {
		return domain.ErrConflict
	}
	if transaction.IdempotencyKey != nil {
		if _, found := r.findByIdempotencyKey(t, *transaction.IdempotencyKey); found {
			return domain.ErrConflict
		}
	}

	t.transactions[transaction.ID] = copyTransaction(transaction)
	return nil
}

// GetByID retrieves a committed transaction.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	txn, ok := r.store.transaction(nil, id)
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	return copyTransaction(txn), nil
}

// GetByIDForUpdate locks and retrieves a transaction.
func (r *TransactionRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Transaction, error) {
	t, err := asTx(tx)
	if err != nil {
		return nil, err
	}
	if err := t.lock(ctx, transactionKey(id)); err != nil {
		return nil, err
	}
	txn, ok := r.store.transaction(t, id)
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	return copyTransaction(txn), nil
}

// GetByIdempotencyKey retrieves the transaction recorded under key. The key
// stays locked until tx ends, so concurrent requests with the same key are
// serialized.
func (r *TransactionRepository) GetByIdempotencyKey(ctx context.Context, tx usecase.Transaction, key string) (*domain.Transaction, error) {
	t, err := asTx(tx)
	if err != nil {
		return nil, err
	}
	if err := t.lock(ctx, idempotencyKey(key)); err != nil {
		return nil, err
	}
	txn, ok := r.findByIdempotencyKey(t, key)
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	return copyTransaction(txn), nil
}

func (r *TransactionRepository) findByIdempotencyKey(t *Tx, key string) (*domain.Transaction, bool) {
	for _, txn := range r.store.transactionsView(t) {
		if txn.IdempotencyKey != nil && *txn.IdempotencyKey == key {
			return txn, true
		}
	}
	return nil, false
}

// UpdateStatus changes the status of a locked transaction.
func (r *TransactionRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.TransactionStatus, appliedAt *time.Time, updatedAt time.Time) (*domain.Transaction, error) {
	t, err := asTx(tx)
	if err != nil {
		return nil, err
	}
	if err := t.lock(ctx, transactionKey(id)); err != nil {
		return nil, err
	}
	txn, ok := r.store.transaction(t, id)
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}

	updated := copyTransaction(txn)
	updated.Status = status
	updated.UpdatedAt = updatedAt
	if appliedAt != nil {
		at := *appliedAt
		updated.AppliedAt = &at
	}
	t.transactions[id] = updated
	return copyTransaction(updated), nil
}

// List lists committed transactions matching filter, newest first.
func (r *TransactionRepository) List(ctx context.Context, filter domain.TransactionFilter, limit, offset int) ([]*domain.Transaction, error) {
	matched := r.match(filter)
	page := paginate(matched, limit, offset)

	out := make([]*domain.Transaction, len(page))
	for i, txn := range page {
		out[i] = copyTransaction(txn)
	}
	return out, nil
}

// Count counts committed transactions matching filter.
func (r *TransactionRepository) Count(ctx context.Context, filter domain.TransactionFilter) (int, error) {
	return len(r.match(filter)), nil
}

func (r *TransactionRepository) match(filter domain.TransactionFilter) []*domain.Transaction {
	var out []*domain.Transaction
	for _, txn := range r.store.transactionsView(nil) {
		if r.matches(txn, filter) {
			out = append(out, txn)
		}
	}
	return out
}

func (r *TransactionRepository) matches(txn *domain.Transaction, f domain.TransactionFilter) bool {
	if f.Status != "" && txn.Status != f.Status {
		return false
	}
	if f.Type != "" && txn.Type != f.Type {
		return false
	}
	if f.CreatedFrom != nil && txn.CreatedAt.Before(*f.CreatedFrom) {
		return false
	}
	if f.CreatedTo != nil && !txn.CreatedAt.Before(*f.CreatedTo) {
		return false
	}
	if f.AccountIBAN != "" && !touches(txn, f.AccountIBAN) {
		return false
	}
	if f.EmitterAccountType != "" {
		if txn.EmitterIBAN == nil {
			return false
		}
		emitter, ok := r.store.account(nil, *txn.EmitterIBAN)
		if !ok || emitter.Type != f.EmitterAccountType {
			return false
		}
	}
	if f.OwnerID != "" && !r.ownedBy(txn, f.OwnerID) {
		return false
	}
	return true
}

func touches(txn *domain.Transaction, iban string) bool {
	return (txn.EmitterIBAN != nil && *txn.EmitterIBAN == iban) ||
		(txn.ReceiverIBAN != nil && *txn.ReceiverIBAN == iban)
}

func (r *TransactionRepository) ownedBy(txn *domain.Transaction, ownerID string) bool {
	for _, iban := range txn.AccountIBANs() {
		a, ok := r.store.account(nil, iban)
		if ok && a.OwnerID != nil && *a.OwnerID == ownerID {
			return true
		}
	}
	return false
}

// NetAppliedAmount sums the applied effects of committed transactions on iban.
func (r *TransactionRepository) NetAppliedAmount(ctx context.Context, iban string) (decimal.Decimal, error) {
	net := decimal.Zero
	for _, txn := range r.store.transactionsView(nil) {
		if !txn.IsApplied() {
			continue
		}
		if txn.ReceiverIBAN != nil && *txn.ReceiverIBAN == iban {
			net = net.Add(txn.Amount)
		}
		if txn.EmitterIBAN != nil && *txn.EmitterIBAN == iban {
			net = net.Sub(txn.Amount)
		}
	}
	return net, nil
}
