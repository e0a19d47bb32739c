package memory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	store *Store
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(store *Store) *AccountRepository {
	return &AccountRepository{store: store}
}

// Create stages a new account.
func (r *AccountRepository) Create(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}
	if err := t.lock(ctx, accountKey(account.IBAN)); err != nil {
		return err
	}
	if _, exists := r.store.account(t, account.IBAN); exists {
		return domain.ErrConflict
	}

	t.accounts[account.IBAN] = copyAccount(account)
	delete(t.deleted, account.IBAN)
	return nil
}

// GetByIBAN retrieves a committed account.
func (r *AccountRepository) GetByIBAN(ctx context.Context, iban string) (*domain.Account, error) {
	a, ok := r.store.account(nil, iban)
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return copyAccount(a), nil
}

// GetByIBANForUpdate locks and retrieves an account.
func (r *AccountRepository) GetByIBANForUpdate(ctx context.Context, tx usecase.Transaction, iban string) (*domain.Account, error) {
	t, err := asTx(tx)
	if err != nil {
		return nil, err
	}
	if err := t.lock(ctx, accountKey(iban)); err != nil {
		return nil, err
	}
	a, ok := r.store.account(t, iban)
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return copyAccount(a), nil
}

// GetByIBANsForUpdate locks the accounts in IBAN order and returns the ones
// that exist.
func (r *AccountRepository) GetByIBANsForUpdate(ctx context.Context, tx usecase.Transaction, ibans []string) ([]*domain.Account, error) {
	t, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	keys := make([]string, len(ibans))
	for i, iban := range ibans {
		keys[i] = accountKey(iban)
	}
	if err := t.lock(ctx, keys...); err != nil {
		return nil, err
	}

	accounts := make([]*domain.Account, 0, len(ibans))
	for _, iban := range ibans {
		if a, ok := r.store.account(t, iban); ok {
			accounts = append(accounts, copyAccount(a))
		}
	}
	return accounts, nil
}

// IncrementBalance adds delta to the balance of a locked account.
func (r *AccountRepository) IncrementBalance(ctx context.Context, tx usecase.Transaction, iban string, delta decimal.Decimal, updatedAt time.Time) (*domain.Account, error) {
	return r.update(ctx, tx, iban, func(a *domain.Account) {
		a.Balance = a.Balance.Add(delta)
		a.UpdatedAt = updatedAt
	})
}

// SetAccountType changes the type of a locked account.
func (r *AccountRepository) SetAccountType(ctx context.Context, tx usecase.Transaction, iban string, accountType domain.AccountType, updatedAt time.Time) (*domain.Account, error) {
	return r.update(ctx, tx, iban, func(a *domain.Account) {
		a.Type = accountType
		a.UpdatedAt = updatedAt
	})
}

func (r *AccountRepository) update(ctx context.Context, tx usecase.Transaction, iban string, fn func(*domain.Account)) (*domain.Account, error) {
	t, err := asTx(tx)
	if err != nil {
		return nil, err
	}
	if err := t.lock(ctx, accountKey(iban)); err != nil {
		return nil, err
	}
	a, ok := r.store.account(t, iban)
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	updated := copyAccount(a)
	fn(updated)
	t.accounts[iban] = updated
	return copyAccount(updated), nil
}

// Delete stages the removal of an account.
func (r *AccountRepository) Delete(ctx context.Context, tx usecase.Transaction, iban string) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}
	if err := t.lock(ctx, accountKey(iban)); err != nil {
		return err
	}
	if _, ok := r.store.account(t, iban); !ok {
		return domain.ErrAccountNotFound
	}
	delete(t.accounts, iban)
	t.deleted[iban] = true
	return nil
}

// ListChildren lists the committed sub-accounts of parentIBAN.
func (r *AccountRepository) ListChildren(ctx context.Context, parentIBAN string) ([]*domain.Account, error) {
	return copyAccounts(children(r.store.accountsView(nil), parentIBAN)), nil
}

// CountChildren counts the sub-accounts of parentIBAN as seen by tx.
func (r *AccountRepository) CountChildren(ctx context.Context, tx usecase.Transaction, parentIBAN string) (int, error) {
	t, err := asTx(tx)
	if err != nil {
		return 0, err
	}
	return len(children(r.store.accountsView(t), parentIBAN)), nil
}

func children(accounts []*domain.Account, parentIBAN string) []*domain.Account {
	var out []*domain.Account
	for _, a := range accounts {
		if a.ParentIBAN != nil && *a.ParentIBAN == parentIBAN {
			out = append(out, a)
		}
	}
	return out
}

// ListByOwner lists every account of an owner.
func (r *AccountRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Account, error) {
	var out []*domain.Account
	for _, a := range r.store.accountsView(nil) {
		if a.OwnerID != nil && *a.OwnerID == ownerID {
			out = append(out, copyAccount(a))
		}
	}
	return out, nil
}

// CountRoots counts the accounts without a parent.
func (r *AccountRepository) CountRoots(ctx context.Context) (int, error) {
	return len(roots(r.store.accountsView(nil))), nil
}

// ListRoots lists the accounts without a parent, oldest first.
func (r *AccountRepository) ListRoots(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	return copyAccounts(paginate(roots(r.store.accountsView(nil)), limit, offset)), nil
}

// List lists all accounts ordered by IBAN.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	return copyAccounts(paginate(r.store.accountsView(nil), limit, offset)), nil
}

func roots(accounts []*domain.Account) []*domain.Account {
	var out []*domain.Account
	for _, a := range accounts {
		if a.IsRoot() {
			out = append(out, a)
		}
	}
	sortByCreation(out)
	return out
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
