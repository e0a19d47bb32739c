package mocks

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

// MockAccountRepository is a mock implementation of AccountRepository.
// Without overrides it behaves like a map-backed store.
type MockAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account

	CreateFunc              func(ctx context.Context, tx usecase.Transaction, account *domain.Account) error
	GetByIBANFunc           func(ctx context.Context, iban string) (*domain.Account, error)
	GetByIBANForUpdateFunc  func(ctx context.Context, tx usecase.Transaction, iban string) (*domain.Account, error)
	GetByIBANsForUpdateFunc func(ctx context.Context, tx usecase.Transaction, ibans []string) ([]*domain.Account, error)
	IncrementBalanceFunc    func(ctx context.Context, tx usecase.Transaction, iban string, delta decimal.Decimal, updatedAt time.Time) (*domain.Account, error)
	SetAccountTypeFunc      func(ctx context.Context, tx usecase.Transaction, iban string, accountType domain.AccountType, updatedAt time.Time) (*domain.Account, error)
	DeleteFunc              func(ctx context.Context, tx usecase.Transaction, iban string) error
	ListFunc                func(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		accounts: make(map[string]*domain.Account),
	}
}

// Add stores account directly, bypassing CreateFunc.
func (m *MockAccountRepository) Add(account *domain.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.IBAN] = account
}

func (m *MockAccountRepository) Create(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[account.IBAN]; ok {
		return domain.ErrConflict
	}
	m.accounts[account.IBAN] = account
	return nil
}

func (m *MockAccountRepository) GetByIBAN(ctx context.Context, iban string) (*domain.Account, error) {
	if m.GetByIBANFunc != nil {
		return m.GetByIBANFunc(ctx, iban)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if acc, ok := m.accounts[iban]; ok {
		return acc, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) GetByIBANForUpdate(ctx context.Context, tx usecase.Transaction, iban string) (*domain.Account, error) {
	if m.GetByIBANForUpdateFunc != nil {
		return m.GetByIBANForUpdateFunc(ctx, tx, iban)
	}
	return m.GetByIBAN(ctx, iban)
}

func (m *MockAccountRepository) GetByIBANsForUpdate(ctx context.Context, tx usecase.Transaction, ibans []string) ([]*domain.Account, error) {
	if m.GetByIBANsForUpdateFunc != nil {
		return m.GetByIBANsForUpdateFunc(ctx, tx, ibans)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var accounts []*domain.Account
	for _, iban := range ibans {
		if acc, ok := m.accounts[iban]; ok {
			accounts = append(accounts, acc)
		}
	}
	return accounts, nil
}

func (m *MockAccountRepository) IncrementBalance(ctx context.Context, tx usecase.Transaction, iban string, delta decimal.Decimal, updatedAt time.Time) (*domain.Account, error) {
	if m.IncrementBalanceFunc != nil {
		return m.IncrementBalanceFunc(ctx, tx, iban, delta, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[iban]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	acc.Balance = acc.Balance.Add(delta)
	acc.UpdatedAt = updatedAt
	return acc, nil
}

func (m *MockAccountRepository) SetAccountType(ctx context.Context, tx usecase.Transaction, iban string, accountType domain.AccountType, updatedAt time.Time) (*domain.Account, error) {
	if m.SetAccountTypeFunc != nil {
		return m.SetAccountTypeFunc(ctx, tx, iban, accountType, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[iban]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	acc.Type = accountType
	acc.UpdatedAt = updatedAt
	return acc, nil
}

func (m *MockAccountRepository) Delete(ctx context.Context, tx usecase.Transaction, iban string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, tx, iban)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[iban]; !ok {
		return domain.ErrAccountNotFound
	}
	delete(m.accounts, iban)
	return nil
}

func (m *MockAccountRepository) ListChildren(ctx context.Context, parentIBAN string) ([]*domain.Account, error) {
	return m.filter(func(a *domain.Account) bool {
		return a.ParentIBAN != nil && *a.ParentIBAN == parentIBAN
	}), nil
}

func (m *MockAccountRepository) CountChildren(ctx context.Context, tx usecase.Transaction, parentIBAN string) (int, error) {
	children, _ := m.ListChildren(ctx, parentIBAN)
	return len(children), nil
}

func (m *MockAccountRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Account, error) {
	return m.filter(func(a *domain.Account) bool {
		return a.OwnerID != nil && *a.OwnerID == ownerID
	}), nil
}

func (m *MockAccountRepository) CountRoots(ctx context.Context) (int, error) {
	return len(m.filter((*domain.Account).IsRoot)), nil
}

func (m *MockAccountRepository) ListRoots(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	return page(m.filter((*domain.Account).IsRoot), limit, offset), nil
}

func (m *MockAccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return page(m.filter(func(*domain.Account) bool { return true }), limit, offset), nil
}

func (m *MockAccountRepository) filter(keep func(*domain.Account) bool) []*domain.Account {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var accounts []*domain.Account
	for _, acc := range m.accounts {
		if keep(acc) {
			accounts = append(accounts, acc)
		}
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].IBAN < accounts[j].IBAN })
	return accounts
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// MockTransactionRepository is a mock implementation of TransactionRepository.
type MockTransactionRepository struct {
	mu           sync.RWMutex
	transactions map[string]*domain.Transaction

	CreateFunc           func(ctx context.Context, tx usecase.Transaction, transaction *domain.Transaction) error
	GetByIDFunc          func(ctx context.Context, id string) (*domain.Transaction, error)
	UpdateStatusFunc     func(ctx context.Context, tx usecase.Transaction, id string, status domain.TransactionStatus, appliedAt *time.Time, updatedAt time.Time) (*domain.Transaction, error)
	ListFunc             func(ctx context.Context, filter domain.TransactionFilter, limit, offset int) ([]*domain.Transaction, error)
	CountFunc            func(ctx context.Context, filter domain.TransactionFilter) (int, error)
	NetAppliedAmountFunc func(ctx context.Context, iban string) (decimal.Decimal, error)
}

func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		transactions: make(map[string]*domain.Transaction),
	}
}

// Add stores transaction directly, bypassing CreateFunc.
func (m *MockTransactionRepository) Add(transaction *domain.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[transaction.ID] = transaction
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx usecase.Transaction, transaction *domain.Transaction) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, transaction)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.transactions[transaction.ID]; ok {
		return domain.ErrConflict
	}
	m.transactions[transaction.ID] = transaction
	return nil
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.transactions[id]; ok {
		return t, nil
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *MockTransactionRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Transaction, error) {
	return m.GetByID(ctx, id)
}

func (m *MockTransactionRepository) GetByIdempotencyKey(ctx context.Context, tx usecase.Transaction, key string) (*domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.transactions {
		if t.IdempotencyKey != nil && *t.IdempotencyKey == key {
			return t, nil
		}
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *MockTransactionRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.TransactionStatus, appliedAt *time.Time, updatedAt time.Time) (*domain.Transaction, error) {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, tx, id, status, appliedAt, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transactions[id]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	t.Status = status
	if appliedAt != nil {
		t.AppliedAt = appliedAt
	}
	t.UpdatedAt = updatedAt
	return t, nil
}

func (m *MockTransactionRepository) List(ctx context.Context, filter domain.TransactionFilter, limit, offset int) ([]*domain.Transaction, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter, limit, offset)
	}
	return page(m.all(), limit, offset), nil
}

func (m *MockTransactionRepository) Count(ctx context.Context, filter domain.TransactionFilter) (int, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx, filter)
	}
	return len(m.all()), nil
}

func (m *MockTransactionRepository) NetAppliedAmount(ctx context.Context, iban string) (decimal.Decimal, error) {
	if m.NetAppliedAmountFunc != nil {
		return m.NetAppliedAmountFunc(ctx, iban)
	}
	net := decimal.Zero
	for _, t := range m.all() {
		if !t.IsApplied() {
			continue
		}
		if t.ReceiverIBAN != nil && *t.ReceiverIBAN == iban {
			net = net.Add(t.Amount)
		}
		if t.EmitterIBAN != nil && *t.EmitterIBAN == iban {
			net = net.Sub(t.Amount)
		}
	}
	return net, nil
}

func (m *MockTransactionRepository) all() []*domain.Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	transactions := make([]*domain.Transaction, 0, len(m.transactions))
	for _, t := range m.transactions {
		transactions = append(transactions, t)
	}
	sort.Slice(transactions, func(i, j int) bool { return transactions[i].ID < transactions[j].ID })
	return transactions
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	mu        sync.Mutex
	begun     []*MockTransaction
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	tx := &MockTransaction{}
	m.mu.Lock()
	m.begun = append(m.begun, tx)
	m.mu.Unlock()
	return tx, nil
}

// Commits returns how many transactions begun by m were committed.
func (m *MockTransactionManager) Commits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, tx := range m.begun {
		if tx.Committed {
			n++
		}
	}
	return n
}

// MockTransaction is a mock implementation of Transaction.
type MockTransaction struct {
	Committed  bool
	RolledBack bool

	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	m.Committed = true
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	if !m.Committed {
		m.RolledBack = true
	}
	return nil
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	GenerateFunc func() string
	Prefix       string
	counter      int
	mu           sync.Mutex
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{Prefix: "mock-id-"}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return m.Prefix + strconv.Itoa(m.counter)
}

// MockRetrier is a mock implementation of Retrier. It retries up to Attempts
// times while ShouldRetry reports true.
type MockRetrier struct {
	Attempts    int
	ShouldRetry func(err error) bool
	Calls       int
}

func (m *MockRetrier) Retry(ctx context.Context, operation func() error) error {
	var err error
	for i := 0; i < m.Attempts || i == 0; i++ {
		m.Calls++
		err = operation()
		if err == nil || m.ShouldRetry == nil || !m.ShouldRetry(err) {
			return err
		}
	}
	return err
}

// MockIdempotencyStore is a mock implementation of IdempotencyStore.
type MockIdempotencyStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	CheckAndSetFunc func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	UpdateFunc      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
	ReleaseFunc     func(ctx context.Context, key string) error
}

func NewMockIdempotencyStore() *MockIdempotencyStore {
	return &MockIdempotencyStore{
		data: make(map[string][]byte),
	}
}

func (m *MockIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if m.CheckAndSetFunc != nil {
		return m.CheckAndSetFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.data[key]; ok {
		return true, existing, nil
	}
	if response != nil {
		m.data[key] = response
	} else {
		m.data[key] = []byte("processing")
	}
	return false, nil, nil
}

func (m *MockIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = response
	return nil
}

func (m *MockIdempotencyStore) Release(ctx context.Context, key string) error {
	if m.ReleaseFunc != nil {
		return m.ReleaseFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
