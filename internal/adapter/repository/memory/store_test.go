package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/bankledger/internal/domain"
)

func newAccount(iban string, balance int64) *domain.Account {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return &domain.Account{
		IBAN:      iban,
		Name:      "Test",
		BIC:       "BICTEST",
		Currency:  domain.CurrencyEuro,
		Type:      domain.AccountTypeCurrent,
		Balance:   decimal.NewFromInt(balance),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func seed(t *testing.T, store *Store, accounts ...*domain.Account) {
	t.Helper()
	ctx := context.Background()
	repo := NewAccountRepository(store)
	tx, err := NewTxManager(store).Begin(ctx)
	require.NoError(t, err)
	for _, a := range accounts {
		require.NoError(t, repo.Create(ctx, tx, a))
	}
	require.NoError(t, tx.Commit(ctx))
}

func TestTx_CommitPublishesWrites(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	seed(t, store, newAccount("CI-A", 100))

	repo := NewAccountRepository(store)
	tx, err := NewTxManager(store).Begin(ctx)
	require.NoError(t, err)

	updated, err := repo.IncrementBalance(ctx, tx, "CI-A", decimal.NewFromInt(-40), time.Now())
	require.NoError(t, err)
	assert.True(t, updated.Balance.Equal(decimal.NewFromInt(60)))

	// Not visible before commit
	committed, err := repo.GetByIBAN(ctx, "CI-A")
	require.NoError(t, err)
	assert.True(t, committed.Balance.Equal(decimal.NewFromInt(100)))

	require.NoError(t, tx.Commit(ctx))

	committed, err = repo.GetByIBAN(ctx, "CI-A")
	require.NoError(t, err)
	assert.True(t, committed.Balance.Equal(decimal.NewFromInt(60)))
}

func TestTx_RollbackDiscardsWrites(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	seed(t, store, newAccount("CI-A", 100))

	repo := NewAccountRepository(store)
	tx, err := NewTxManager(store).Begin(ctx)
	require.NoError(t, err)

	_, err = repo.IncrementBalance(ctx, tx, "CI-A", decimal.NewFromInt(25), time.Now())
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, tx, "CI-A"))
	require.NoError(t, tx.Rollback(ctx))

	a, err := repo.GetByIBAN(ctx, "CI-A")
	require.NoError(t, err)
	assert.True(t, a.Balance.Equal(decimal.NewFromInt(100)))

	// Rollback after rollback is harmless
	assert.NoError(t, tx.Rollback(ctx))
}

func TestTx_LockedRowBlocksOtherTransactions(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	seed(t, store, newAccount("CI-A", 100))

	repo := NewAccountRepository(store)
	txm := NewTxManager(store)

	first, err := txm.Begin(ctx)
	require.NoError(t, err)
	_, err = repo.GetByIBANForUpdate(ctx, first, "CI-A")
	require.NoError(t, err)

	second, err := txm.Begin(ctx)
	require.NoError(t, err)
	defer second.Rollback(ctx)

	waitCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, err = repo.GetByIBANForUpdate(waitCtx, second, "CI-A")
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)

	require.NoError(t, first.Commit(ctx))

	_, err = repo.GetByIBANForUpdate(ctx, second, "CI-A")
	assert.NoError(t, err)
}

func TestAccountRepository_CreateDuplicate(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	seed(t, store, newAccount("CI-A", 0))

	tx, err := NewTxManager(store).Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	err = NewAccountRepository(store).Create(ctx, tx, newAccount("CI-A", 0))
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestAccountRepository_Hierarchy(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	parent := newAccount("CI-P", 0)
	owner := "user-1"
	parent.OwnerID = &owner
	child := newAccount("CI-C", 0)
	child.Type = domain.AccountTypeSavings
	child.ParentIBAN = &parent.IBAN
	child.OwnerID = &owner
	seed(t, store, parent, child, newAccount("CI-Z", 0))

	repo := NewAccountRepository(store)

	children, err := repo.ListChildren(ctx, "CI-P")
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "CI-C", children[0].IBAN)

	roots, err := repo.CountRoots(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, roots)

	owned, err := repo.ListByOwner(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, owned, 2)

	page, err := repo.ListRoots(ctx, 1, 1)
	require.NoError(t, err)
	assert.Len(t, page, 1)
}

func TestTransactionRepository_UniqueKeys(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := NewTransactionRepository(store)
	txm := NewTxManager(store)

	key := "idem-1"
	receiver := "CI-A"
	txn := &domain.Transaction{
		ID:             "01TX",
		Type:           domain.TransactionTypeCredit,
		Status:         domain.TransactionStatusApproved,
		Amount:         decimal.NewFromInt(10),
		ReceiverIBAN:   &receiver,
		IdempotencyKey: &key,
		CreatedAt:      time.Now(),
	}

	tx, err := txm.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, tx, txn))
	require.NoError(t, tx.Commit(ctx))

	dup := *txn
	dup.ID = "01TY"
	tx, err = txm.Begin(ctx)
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Create(ctx, tx, &dup), domain.ErrConflict)

	found, err := repo.GetByIdempotencyKey(ctx, tx, key)
	require.NoError(t, err)
	assert.Equal(t, "01TX", found.ID)
	require.NoError(t, tx.Rollback(ctx))
}

func TestTransactionRepository_ListFilters(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	owner := "user-1"
	a := newAccount("CI-A", 0)
	a.OwnerID = &owner
	b := newAccount("CI-B", 0)
	b.Type = domain.AccountTypeSavings
	seed(t, store, a, b)

	day := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	ibanA, ibanB := "CI-A", "CI-B"
	applied := day

	transactions := []*domain.Transaction{
		{ID: "1", Type: domain.TransactionTypeCredit, Status: domain.TransactionStatusApproved, Amount: decimal.NewFromInt(100), ReceiverIBAN: &ibanA, CreatedAt: day, AppliedAt: &applied},
		{ID: "2", Type: domain.TransactionTypeTransfer, Status: domain.TransactionStatusApproved, Amount: decimal.NewFromInt(30), EmitterIBAN: &ibanA, ReceiverIBAN: &ibanB, CreatedAt: day.Add(time.Hour), AppliedAt: &applied},
		{ID: "3", Type: domain.TransactionTypeDebit, Status: domain.TransactionStatusInProcess, Amount: decimal.NewFromInt(5), EmitterIBAN: &ibanB, CreatedAt: day.AddDate(0, 0, 1)},
	}

	repo := NewTransactionRepository(store)
	tx, err := NewTxManager(store).Begin(ctx)
	require.NoError(t, err)
	for _, txn := range transactions {
		require.NoError(t, repo.Create(ctx, tx, txn))
	}
	require.NoError(t, tx.Commit(ctx))

	from := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)

	tests := []struct {
		name   string
		filter domain.TransactionFilter
		want   []string
	}{
		{"all newest first", domain.TransactionFilter{}, []string{"3", "2", "1"}},
		{"status", domain.TransactionFilter{Status: domain.TransactionStatusInProcess}, []string{"3"}},
		{"type", domain.TransactionFilter{Type: domain.TransactionTypeCredit}, []string{"1"}},
		{"account either side", domain.TransactionFilter{AccountIBAN: "CI-B"}, []string{"3", "2"}},
		{"emitter account type", domain.TransactionFilter{EmitterAccountType: domain.AccountTypeSavings}, []string{"3"}},
		{"owner", domain.TransactionFilter{OwnerID: owner}, []string{"2", "1"}},
		{"day", domain.TransactionFilter{CreatedFrom: &from, CreatedTo: &to}, []string{"2", "1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.List(ctx, tt.filter, 10, 0)
			require.NoError(t, err)

			ids := make([]string, len(got))
			for i, txn := range got {
				ids[i] = txn.ID
			}
			assert.Equal(t, tt.want, ids)

			count, err := repo.Count(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, len(tt.want), count)
		})
	}

	net, err := repo.NetAppliedAmount(ctx, "CI-A")
	require.NoError(t, err)
	assert.True(t, net.Equal(decimal.NewFromInt(70)), "got %s", net)

	// in_process debits are not applied
	net, err = repo.NetAppliedAmount(ctx, "CI-B")
	require.NoError(t, err)
	assert.True(t, net.Equal(decimal.NewFromInt(30)), "got %s", net)
}
