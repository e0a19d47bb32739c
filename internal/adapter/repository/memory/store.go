// Package memory is an in-process account and transaction store. It honors the
// same locking contract as the Postgres store: rows read for update stay
// locked until the owning transaction commits or rolls back, and writes are
// invisible to other readers until commit.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

var errForeignTx = errors.New("memory: transaction was not started by this store")

// Store holds committed accounts and transactions.
type Store struct {
	mu           sync.RWMutex
	accounts     map[string]*domain.Account
	transactions map[string]*domain.Transaction

	locksMu sync.Mutex
	locks   map[string]*semaphore.Weighted

	usersMu sync.RWMutex
	users   map[string]*domain.User
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		accounts:     make(map[string]*domain.Account),
		transactions: make(map[string]*domain.Transaction),
		locks:        make(map[string]*semaphore.Weighted),
		users:        make(map[string]*domain.User),
	}
}

func (s *Store) lockFor(key string) *semaphore.Weighted {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[key]
	if !ok {
		l = semaphore.NewWeighted(1)
		s.locks[key] = l
	}
	return l
}

// TxManager implements usecase.TransactionManager.
type TxManager struct {
	store *Store
}

// NewTxManager creates a new TxManager.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// Begin starts a new transaction.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return &Tx{
		store:        m.store,
		heldSet:      make(map[string]bool),
		accounts:     make(map[string]*domain.Account),
		deleted:      make(map[string]bool),
		transactions: make(map[string]*domain.Transaction),
	}, nil
}

// Tx stages writes and holds row locks until it ends.
type Tx struct {
	store *Store
	done  bool

	held    []string
	heldSet map[string]bool

	accounts     map[string]*domain.Account
	deleted      map[string]bool
	transactions map[string]*domain.Transaction
}

// lock acquires the row locks for keys in sorted order, skipping the ones
// already held by tx.
func (t *Tx) lock(ctx context.Context, keys ...string) error {
	if t.done {
		return errors.New("memory: transaction already closed")
	}

	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)

	for _, key := range sorted {
		if t.heldSet[key] {
			continue
		}
		if err := t.store.lockFor(key).Acquire(ctx, 1); err != nil {
			return fmt.Errorf("%w: lock %s: %v", domain.ErrStoreUnavailable, key, err)
		}
		t.heldSet[key] = true
		t.held = append(t.held, key)
	}
	return nil
}

func (t *Tx) release() {
	for _, key := range t.held {
		t.store.lockFor(key).Release(1)
	}
	t.held = nil
	t.heldSet = make(map[string]bool)
}

// Commit publishes the staged writes and releases every lock.
func (t *Tx) Commit(ctx context.Context) error {
	if t.done {
		return errors.New("memory: transaction already closed")
	}
	t.done = true
	defer t.release()

	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for iban := range t.deleted {
		delete(s.accounts, iban)
	}
	for iban, a := range t.accounts {
		s.accounts[iban] = a
	}
	for id, txn := range t.transactions {
		s.transactions[id] = txn
	}
	return nil
}

// Rollback discards the staged writes and releases every lock. Calling it
// after Commit is a no-op.
func (t *Tx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.release()
	return nil
}

func asTx(tx usecase.Transaction) (*Tx, error) {
	t, ok := tx.(*Tx)
	if !ok {
		return nil, errForeignTx
	}
	if t.done {
		return nil, errors.New("memory: transaction already closed")
	}
	return t, nil
}

// account returns the account as seen by tx, or by committed state when tx is nil.
func (s *Store) account(t *Tx, iban string) (*domain.Account, bool) {
	if t != nil {
		if t.deleted[iban] {
			return nil, false
		}
		if a, ok := t.accounts[iban]; ok {
			return a, true
		}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[iban]
	return a, ok
}

// accountsView returns every account as seen by tx.
func (s *Store) accountsView(t *Tx) []*domain.Account {
	s.mu.RLock()
	all := make(map[string]*domain.Account, len(s.accounts))
	for iban, a := range s.accounts {
		all[iban] = a
	}
	s.mu.RUnlock()

	if t != nil {
		for iban := range t.deleted {
			delete(all, iban)
		}
		for iban, a := range t.accounts {
			all[iban] = a
		}
	}

	accounts := make([]*domain.Account, 0, len(all))
	for _, a := range all {
		accounts = append(accounts, a)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].IBAN < accounts[j].IBAN })
	return accounts
}

func (s *Store) transaction(t *Tx, id string) (*domain.Transaction, bool) {
	if t != nil {
		if txn, ok := t.transactions[id]; ok {
			return txn, true
		}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	txn, ok := s.transactions[id]
	return txn, ok
}

// transactionsView returns every transaction as seen by tx, newest first.
func (s *Store) transactionsView(t *Tx) []*domain.Transaction {
	s.mu.RLock()
	all := make(map[string]*domain.Transaction, len(s.transactions))
	for id, txn := range s.transactions {
		all[id] = txn
	}
	s.mu.RUnlock()

	if t != nil {
		for id, txn := range t.transactions {
			all[id] = txn
		}
	}

	transactions := make([]*domain.Transaction, 0, len(all))
	for _, txn := range all {
		transactions = append(transactions, txn)
	}
	sort.Slice(transactions, func(i, j int) bool {
		a, b := transactions[i], transactions[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return transactions
}

func copyAccount(a *domain.Account) *domain.Account {
	c := *a
	if a.ParentIBAN != nil {
		p := *a.ParentIBAN
		c.ParentIBAN = &p
	}
	if a.OwnerID != nil {
		o := *a.OwnerID
		c.OwnerID = &o
	}
	return &c
}

func copyTransaction(t *domain.Transaction) *domain.Transaction {
	c := *t
	c.EmitterIBAN = copyString(t.EmitterIBAN)
	c.ReceiverIBAN = copyString(t.ReceiverIBAN)
	c.IdempotencyKey = copyString(t.IdempotencyKey)
	if t.AppliedAt != nil {
		at := *t.AppliedAt
		c.AppliedAt = &at
	}
	return &c
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

func accountKey(iban string) string    { return "account:" + iban }
func transactionKey(id string) string  { return "transaction:" + id }
func idempotencyKey(key string) string { return "idempotency:" + key }

func copyAccounts(in []*domain.Account) []*domain.Account {
	out := make([]*domain.Account, len(in))
	for i, a := range in {
		out[i] = copyAccount(a)
	}
	return out
}

func sortByCreation(accounts []*domain.Account) {
	sort.SliceStable(accounts, func(i, j int) bool {
		a, b := accounts[i], accounts[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.IBAN < b.IBAN
	})
}
