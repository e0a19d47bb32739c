package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
	"github.com/iho/bankledger/internal/usecase/mocks"
)

var admin = &domain.User{ID: "admin-1", Role: domain.RoleAdmin, Active: true}

func newTestAccount(iban string, accountType domain.AccountType, balance int64) *domain.Account {
	return &domain.Account{
		IBAN:     iban,
		Name:     "Main",
		BIC:      "BICCI001",
		Currency: domain.CurrencyEuro,
		Type:     accountType,
		Balance:  decimal.NewFromInt(balance),
	}
}

type ledgerFixture struct {
	accounts     *mocks.MockAccountRepository
	transactions *mocks.MockTransactionRepository
	txManager    *mocks.MockTransactionManager
	uc           *usecase.LedgerUseCase
}

func newLedgerFixture(accounts ...*domain.Account) *ledgerFixture {
	f := &ledgerFixture{
		accounts:     mocks.NewMockAccountRepository(),
		transactions: mocks.NewMockTransactionRepository(),
		txManager:    mocks.NewMockTransactionManager(),
	}
	for _, a := range accounts {
		f.accounts.Add(a)
	}
	f.uc = usecase.NewLedgerUseCase(f.txManager, f.accounts, f.transactions, mocks.NewMockIDGenerator())
	return f
}

func (f *ledgerFixture) balance(t *testing.T, iban string) decimal.Decimal {
	t.Helper()
	a, err := f.accounts.GetByIBAN(context.Background(), iban)
	if err != nil {
		t.Fatalf("account %s: %v", iban, err)
	}
	return a.Balance
}

func TestLedgerUseCase_CreateTransaction(t *testing.T) {
	tests := []struct {
		name          string
		input         usecase.CreateTransactionInput
		expectError   error
		wantAmount    string
		wantBalances  map[string]int64
		wantDecimals  map[string]string
		wantPersisted bool
	}{
		{
			name:          "credit in canonical currency",
			input:         usecase.CreateTransactionInput{Type: "credit", Amount: decimal.NewFromInt(50), ReceiverIBAN: "CI-A"},
			wantAmount:    "50",
			wantBalances:  map[string]int64{"CI-A": 150},
			wantPersisted: true,
		},
		{
			name:          "credit converts USD",
			input:         usecase.CreateTransactionInput{Type: "credit", Amount: decimal.NewFromInt(10), Currency: "USD", ReceiverIBAN: "CI-A"},
			wantAmount:    "8.33",
			wantDecimals:  map[string]string{"CI-A": "108.33"},
			wantPersisted: true,
		},
		{
			name:          "credit into blocked account is allowed",
			input:         usecase.CreateTransactionInput{Type: "credit", Amount: decimal.NewFromInt(5), ReceiverIBAN: "CI-BLK"},
			wantAmount:    "5",
			wantBalances:  map[string]int64{"CI-BLK": 25},
			wantPersisted: true,
		},
		{
			name:          "debit",
			input:         usecase.CreateTransactionInput{Type: "debit", Amount: decimal.NewFromInt(40), EmitterIBAN: "CI-A"},
			wantAmount:    "40",
			wantBalances:  map[string]int64{"CI-A": 60},
			wantPersisted: true,
		},
		{
			name:          "debit of the whole balance",
			input:         usecase.CreateTransactionInput{Type: "debit", Amount: decimal.NewFromInt(100), EmitterIBAN: "CI-A"},
			wantAmount:    "100",
			wantBalances:  map[string]int64{"CI-A": 0},
			wantPersisted: true,
		},
		{
			name:          "transfer moves funds",
			input:         usecase.CreateTransactionInput{Type: "transfer", Amount: decimal.NewFromInt(30), EmitterIBAN: "CI-A", ReceiverIBAN: "CI-B"},
			wantAmount:    "30",
			wantBalances:  map[string]int64{"CI-A": 70, "CI-B": 30},
			wantPersisted: true,
		},
		{
			name:         "debit beyond balance",
			input:        usecase.CreateTransactionInput{Type: "debit", Amount: decimal.NewFromInt(101), EmitterIBAN: "CI-A"},
			expectError:  domain.ErrInsufficientFunds,
			wantBalances: map[string]int64{"CI-A": 100},
		},
		{
			name:         "transfer beyond balance",
			input:        usecase.CreateTransactionInput{Type: "transfer", Amount: decimal.NewFromInt(200), EmitterIBAN: "CI-A", ReceiverIBAN: "CI-B"},
			expectError:  domain.ErrInsufficientFunds,
			wantBalances: map[string]int64{"CI-A": 100, "CI-B": 0},
		},
		{
			name:         "debit from blocked account",
			input:        usecase.CreateTransactionInput{Type: "debit", Amount: decimal.NewFromInt(1), EmitterIBAN: "CI-BLK"},
			expectError:  domain.ErrEmitterBlocked,
			wantBalances: map[string]int64{"CI-BLK": 20},
		},
		{
			name:         "transfer from blocked account",
			input:        usecase.CreateTransactionInput{Type: "transfer", Amount: decimal.NewFromInt(1), EmitterIBAN: "CI-BLK", ReceiverIBAN: "CI-A"},
			expectError:  domain.ErrEmitterBlocked,
			wantBalances: map[string]int64{"CI-BLK": 20, "CI-A": 100},
		},
		{
			name:        "credit to unknown account",
			input:       usecase.CreateTransactionInput{Type: "credit", Amount: decimal.NewFromInt(1), ReceiverIBAN: "CI-NOPE"},
			expectError: domain.ErrAccountNotFound,
		},
		{
			name:         "transfer to unknown account",
			input:        usecase.CreateTransactionInput{Type: "transfer", Amount: decimal.NewFromInt(1), EmitterIBAN: "CI-A", ReceiverIBAN: "CI-NOPE"},
			expectError:  domain.ErrAccountNotFound,
			wantBalances: map[string]int64{"CI-A": 100},
		},
		{
			name:        "zero amount",
			input:       usecase.CreateTransactionInput{Type: "credit", Amount: decimal.Zero, ReceiverIBAN: "CI-A"},
			expectError: domain.ErrValidationFailed,
		},
		{
			name:        "transfer to same account",
			input:       usecase.CreateTransactionInput{Type: "transfer", Amount: decimal.NewFromInt(1), EmitterIBAN: "CI-A", ReceiverIBAN: "CI-A"},
			expectError: domain.ErrValidationFailed,
		},
		{
			name:        "conversion rounding to zero",
			input:       usecase.CreateTransactionInput{Type: "credit", Amount: decimal.RequireFromString("0.01"), Currency: "FCFA", ReceiverIBAN: "CI-A"},
			expectError: domain.ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLedgerFixture(
				newTestAccount("CI-A", domain.AccountTypeCurrent, 100),
				newTestAccount("CI-B", domain.AccountTypeSavings, 0),
				newTestAccount("CI-BLK", domain.AccountTypeBlocked, 20),
			)

			txn, err := f.uc.CreateTransaction(context.Background(), tt.input)

			if tt.expectError != nil {
				if !errors.Is(err, tt.expectError) {
					t.Fatalf("expected error %v, got %v", tt.expectError, err)
				}
			} else {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if txn.Amount.String() != tt.wantAmount {
					t.Errorf("expected amount %s, got %s", tt.wantAmount, txn.Amount)
				}
				if txn.Status != domain.TransactionStatusApproved || !txn.IsApplied() {
					t.Errorf("expected applied approved transaction, got %s applied=%v", txn.Status, txn.IsApplied())
				}
			}

			for iban, want := range tt.wantBalances {
				if got := f.balance(t, iban); !got.Equal(decimal.NewFromInt(want)) {
					t.Errorf("balance %s: expected %d, got %s", iban, want, got)
				}
			}
			for iban, want := range tt.wantDecimals {
				if got := f.balance(t, iban); got.String() != want {
					t.Errorf("balance %s: expected %s, got %s", iban, want, got)
				}
			}

			count, _ := f.transactions.Count(context.Background(), domain.TransactionFilter{})
			if tt.wantPersisted && count != 1 {
				t.Errorf("expected 1 persisted transaction, got %d", count)
			}
			if !tt.wantPersisted && count != 0 {
				t.Errorf("expected no persisted transaction, got %d", count)
			}
		})
	}
}

func TestLedgerUseCase_CreateTransaction_RecordsOriginalAmount(t *testing.T) {
	f := newLedgerFixture(newTestAccount("CI-A", domain.AccountTypeCurrent, 0))

	txn, err := f.uc.CreateTransaction(context.Background(), usecase.CreateTransactionInput{
		Type:         "credit",
		Amount:       decimal.NewFromInt(656),
		Currency:     "fcfa",
		ReceiverIBAN: "CI-A",
		Reason:       "salary",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !txn.Amount.Equal(decimal.NewFromInt(1)) {
		t.Errorf("expected canonical amount 1, got %s", txn.Amount)
	}
	if !txn.OriginalAmount.Equal(decimal.NewFromInt(656)) || txn.OriginalCurrency != domain.CurrencyFCFA {
		t.Errorf("expected original 656 FCFA, got %s %s", txn.OriginalAmount, txn.OriginalCurrency)
	}
	if txn.Reason != "salary" {
		t.Errorf("expected reason to be kept, got %q", txn.Reason)
	}
}

func TestLedgerUseCase_CreateTransaction_DebitIsNotConverted(t *testing.T) {
	f := newLedgerFixture(newTestAccount("CI-A", domain.AccountTypeCurrent, 100))

	_, err := f.uc.CreateTransaction(context.Background(), usecase.CreateTransactionInput{
		Type:        "debit",
		Amount:      decimal.NewFromInt(12),
		Currency:    "USD",
		EmitterIBAN: "CI-A",
	})
	if !errors.Is(err, domain.ErrValidationFailed) {
		t.Fatalf("expected validation error for non-canonical debit, got %v", err)
	}

	txn, err := f.uc.CreateTransaction(context.Background(), usecase.CreateTransactionInput{
		Type:        "debit",
		Amount:      decimal.NewFromInt(12),
		Currency:    "EURO",
		EmitterIBAN: "CI-A",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !txn.Amount.Equal(decimal.NewFromInt(12)) {
		t.Errorf("expected face-value amount 12, got %s", txn.Amount)
	}
	if got := f.balance(t, "CI-A"); !got.Equal(decimal.NewFromInt(88)) {
		t.Errorf("expected balance 88, got %s", got)
	}
}

func TestLedgerUseCase_CreateTransaction_ValidationReportsEveryField(t *testing.T) {
	f := newLedgerFixture()

	_, err := f.uc.CreateTransaction(context.Background(), usecase.CreateTransactionInput{
		Type:     "transfer",
		Amount:   decimal.NewFromInt(-1),
		Currency: "GBP",
	})

	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if len(verr.Fields) < 4 {
		t.Errorf("expected amount, currency, emitter and receiver errors, got %+v", verr.Fields)
	}
}

func TestLedgerUseCase_CreateTransaction_IdempotencyKey(t *testing.T) {
	f := newLedgerFixture(newTestAccount("CI-A", domain.AccountTypeCurrent, 0))
	input := usecase.CreateTransactionInput{
		Type:           "credit",
		Amount:         decimal.NewFromInt(10),
		ReceiverIBAN:   "CI-A",
		IdempotencyKey: "req-1",
	}

	first, err := f.uc.CreateTransaction(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := f.uc.CreateTransaction(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("expected replay to return %s, got %s", first.ID, second.ID)
	}
	if got := f.balance(t, "CI-A"); !got.Equal(decimal.NewFromInt(10)) {
		t.Errorf("expected balance 10 after replay, got %s", got)
	}
}

func TestLedgerUseCase_CreateTransaction_IdempotencyKeyReusedForDifferentRequest(t *testing.T) {
	f := newLedgerFixture(
		newTestAccount("CI-A", domain.AccountTypeCurrent, 0),
		newTestAccount("CI-B", domain.AccountTypeCurrent, 0),
	)
	input := usecase.CreateTransactionInput{
		Type:           "credit",
		Amount:         decimal.NewFromInt(10),
		ReceiverIBAN:   "CI-A",
		IdempotencyKey: "req-1",
	}
	if _, err := f.uc.CreateTransaction(context.Background(), input); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	changes := map[string]func(in *usecase.CreateTransactionInput){
		"amount":   func(in *usecase.CreateTransactionInput) { in.Amount = decimal.NewFromInt(11) },
		"receiver": func(in *usecase.CreateTransactionInput) { in.ReceiverIBAN = "CI-B" },
		"currency": func(in *usecase.CreateTransactionInput) { in.Currency = "USD" },
	}
	for name, change := range changes {
		t.Run(name, func(t *testing.T) {
			changed := input
			change(&changed)

			_, err := f.uc.CreateTransaction(context.Background(), changed)
			if !errors.Is(err, domain.ErrConflict) {
				t.Fatalf("expected ErrConflict, got %v", err)
			}
		})
	}

	if got := f.balance(t, "CI-A"); !got.Equal(decimal.NewFromInt(10)) {
		t.Errorf("expected balance 10, got %s", got)
	}
	if got := f.balance(t, "CI-B"); !got.IsZero() {
		t.Errorf("expected CI-B untouched, got %s", got)
	}
}

func TestLedgerUseCase_CreateTransaction_RetryDoesNotApplyTwice(t *testing.T) {
	f := newLedgerFixture(newTestAccount("CI-A", domain.AccountTypeCurrent, 0))

	// The first commit reports a transient failure after the store applied it.
	var commits int
	f.txManager.BeginFunc = func(ctx context.Context) (usecase.Transaction, error) {
		return &mocks.MockTransaction{
			CommitFunc: func(ctx context.Context) error {
				commits++
				if commits == 1 {
					return domain.ErrStoreUnavailable
				}
				return nil
			},
		}, nil
	}

	retrier := &mocks.MockRetrier{
		Attempts:    3,
		ShouldRetry: func(err error) bool { return errors.Is(err, domain.ErrStoreUnavailable) },
	}
	uc := usecase.NewLedgerUseCase(f.txManager, f.accounts, f.transactions, mocks.NewMockIDGenerator(), usecase.WithRetrier(retrier))

	txn, err := uc.CreateTransaction(context.Background(), usecase.CreateTransactionInput{
		Type:         "credit",
		Amount:       decimal.NewFromInt(10),
		ReceiverIBAN: "CI-A",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if retrier.Calls != 2 {
		t.Errorf("expected 2 attempts, got %d", retrier.Calls)
	}
	if got := f.balance(t, "CI-A"); !got.Equal(decimal.NewFromInt(10)) {
		t.Errorf("expected balance 10, got %s", got)
	}
	if stored, _ := f.transactions.GetByID(context.Background(), txn.ID); stored == nil {
		t.Errorf("expected transaction %s to be stored", txn.ID)
	}
}

func TestLedgerUseCase_CreateTransaction_StoreFailureRollsBack(t *testing.T) {
	f := newLedgerFixture(newTestAccount("CI-A", domain.AccountTypeCurrent, 100))
	f.transactions.CreateFunc = func(ctx context.Context, tx usecase.Transaction, transaction *domain.Transaction) error {
		return domain.ErrStoreUnavailable
	}

	_, err := f.uc.CreateTransaction(context.Background(), usecase.CreateTransactionInput{
		Type:        "debit",
		Amount:      decimal.NewFromInt(10),
		EmitterIBAN: "CI-A",
	})
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if f.txManager.Commits() != 0 {
		t.Errorf("expected no commit")
	}
	if got := f.balance(t, "CI-A"); !got.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected untouched balance, got %s", got)
	}
}

func TestLedgerUseCase_LocksAccountsInSortedOrder(t *testing.T) {
	f := newLedgerFixture(
		newTestAccount("CI-Z", domain.AccountTypeCurrent, 100),
		newTestAccount("CI-A", domain.AccountTypeCurrent, 0),
	)

	var locked []string
	f.accounts.GetByIBANsForUpdateFunc = func(ctx context.Context, tx usecase.Transaction, ibans []string) ([]*domain.Account, error) {
		locked = ibans
		return []*domain.Account{
			newTestAccount("CI-A", domain.AccountTypeCurrent, 0),
			newTestAccount("CI-Z", domain.AccountTypeCurrent, 100),
		}, nil
	}

	_, err := f.uc.CreateTransaction(context.Background(), usecase.CreateTransactionInput{
		Type:         "transfer",
		Amount:       decimal.NewFromInt(10),
		EmitterIBAN:  "CI-Z",
		ReceiverIBAN: "CI-A",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(locked) != 2 || locked[0] != "CI-A" || locked[1] != "CI-Z" {
		t.Errorf("expected sorted lock order [CI-A CI-Z], got %v", locked)
	}
}

func TestLedgerUseCase_ApprovalWorkflow(t *testing.T) {
	ctx := context.Background()

	t.Run("deferred transaction has no effect until approved", func(t *testing.T) {
		f := newLedgerFixture(newTestAccount("CI-A", domain.AccountTypeCurrent, 100))

		txn, err := f.uc.CreateTransaction(ctx, usecase.CreateTransactionInput{
			Type:            "debit",
			Amount:          decimal.NewFromInt(30),
			EmitterIBAN:     "CI-A",
			RequireApproval: true,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if txn.Status != domain.TransactionStatusInProcess || txn.IsApplied() {
			t.Fatalf("expected pending transaction, got %s applied=%v", txn.Status, txn.IsApplied())
		}
		if got := f.balance(t, "CI-A"); !got.Equal(decimal.NewFromInt(100)) {
			t.Fatalf("expected untouched balance, got %s", got)
		}

		approved, err := f.uc.ApproveTransaction(ctx, txn.ID, admin)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if approved.Status != domain.TransactionStatusApproved || !approved.IsApplied() {
			t.Errorf("expected applied approval, got %s", approved.Status)
		}
		if got := f.balance(t, "CI-A"); !got.Equal(decimal.NewFromInt(70)) {
			t.Errorf("expected balance 70, got %s", got)
		}
	})

	t.Run("double approval applies once", func(t *testing.T) {
		f := newLedgerFixture(
			newTestAccount("CI-A", domain.AccountTypeCurrent, 100),
			newTestAccount("CI-B", domain.AccountTypeCurrent, 0),
		)

		txn, err := f.uc.CreateTransaction(ctx, usecase.CreateTransactionInput{
			Type:            "transfer",
			Amount:          decimal.NewFromInt(40),
			EmitterIBAN:     "CI-A",
			ReceiverIBAN:    "CI-B",
			RequireApproval: true,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		for i := 0; i < 2; i++ {
			if _, err := f.uc.ApproveTransaction(ctx, txn.ID, admin); err != nil {
				t.Fatalf("approve %d: unexpected error: %v", i+1, err)
			}
		}

		if got := f.balance(t, "CI-A"); !got.Equal(decimal.NewFromInt(60)) {
			t.Errorf("expected emitter balance 60, got %s", got)
		}
		if got := f.balance(t, "CI-B"); !got.Equal(decimal.NewFromInt(40)) {
			t.Errorf("expected receiver balance 40, got %s", got)
		}
	})

	t.Run("approval rechecks funds", func(t *testing.T) {
		f := newLedgerFixture(newTestAccount("CI-A", domain.AccountTypeCurrent, 50))

		txn, err := f.uc.CreateTransaction(ctx, usecase.CreateTransactionInput{
			Type:            "debit",
			Amount:          decimal.NewFromInt(50),
			EmitterIBAN:     "CI-A",
			RequireApproval: true,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if _, err := f.uc.CreateTransaction(ctx, usecase.CreateTransactionInput{
			Type: "debit", Amount: decimal.NewFromInt(20), EmitterIBAN: "CI-A",
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		_, err = f.uc.ApproveTransaction(ctx, txn.ID, admin)
		if !errors.Is(err, domain.ErrInsufficientFunds) {
			t.Fatalf("expected ErrInsufficientFunds, got %v", err)
		}
		stored, _ := f.transactions.GetByID(ctx, txn.ID)
		if stored.Status != domain.TransactionStatusInProcess {
			t.Errorf("expected transaction to stay pending, got %s", stored.Status)
		}
	})

	t.Run("reject", func(t *testing.T) {
		f := newLedgerFixture(newTestAccount("CI-A", domain.AccountTypeCurrent, 0))

		txn, err := f.uc.CreateTransaction(ctx, usecase.CreateTransactionInput{
			Type:            "credit",
			Amount:          decimal.NewFromInt(10),
			ReceiverIBAN:    "CI-A",
			RequireApproval: true,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		rejected, err := f.uc.RejectTransaction(ctx, txn.ID, admin)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rejected.Status != domain.TransactionStatusRejected {
			t.Errorf("expected rejected, got %s", rejected.Status)
		}

		if _, err := f.uc.RejectTransaction(ctx, txn.ID, admin); err != nil {
			t.Errorf("expected second reject to be a no-op, got %v", err)
		}
		if _, err := f.uc.ApproveTransaction(ctx, txn.ID, admin); !errors.Is(err, domain.ErrTransactionNotPending) {
			t.Errorf("expected ErrTransactionNotPending, got %v", err)
		}
		if got := f.balance(t, "CI-A"); !got.IsZero() {
			t.Errorf("expected untouched balance, got %s", got)
		}
	})

	t.Run("approved cannot be rejected", func(t *testing.T) {
		f := newLedgerFixture(newTestAccount("CI-A", domain.AccountTypeCurrent, 0))

		txn, err := f.uc.CreateTransaction(ctx, usecase.CreateTransactionInput{
			Type: "credit", Amount: decimal.NewFromInt(10), ReceiverIBAN: "CI-A",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if _, err := f.uc.RejectTransaction(ctx, txn.ID, admin); !errors.Is(err, domain.ErrTransactionNotPending) {
			t.Errorf("expected ErrTransactionNotPending, got %v", err)
		}
	})

	t.Run("authorization", func(t *testing.T) {
		f := newLedgerFixture()
		operator := &domain.User{ID: "op", Role: domain.RoleOperator}

		if _, err := f.uc.ApproveTransaction(ctx, "x", nil); !errors.Is(err, domain.ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized, got %v", err)
		}
		if _, err := f.uc.ApproveTransaction(ctx, "x", operator); !errors.Is(err, domain.ErrInsufficientRole) {
			t.Errorf("expected ErrInsufficientRole, got %v", err)
		}
		if _, err := f.uc.RejectTransaction(ctx, "x", operator); !errors.Is(err, domain.ErrInsufficientRole) {
			t.Errorf("expected ErrInsufficientRole, got %v", err)
		}
		if _, err := f.uc.ApproveTransaction(ctx, "missing", admin); !errors.Is(err, domain.ErrTransactionNotFound) {
			t.Errorf("expected ErrTransactionNotFound, got %v", err)
		}
	})
}

func TestLedgerUseCase_ListTransactions(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults and filter translation", func(t *testing.T) {
		f := newLedgerFixture()

		var gotFilter domain.TransactionFilter
		var gotLimit, gotOffset int
		f.transactions.ListFunc = func(ctx context.Context, filter domain.TransactionFilter, limit, offset int) ([]*domain.Transaction, error) {
			gotFilter, gotLimit, gotOffset = filter, limit, offset
			return nil, nil
		}
		f.transactions.CountFunc = func(ctx context.Context, filter domain.TransactionFilter) (int, error) {
			return 42, nil
		}

		day := time.Date(2024, 5, 17, 15, 30, 0, 0, time.UTC)
		page, err := f.uc.ListTransactions(ctx, usecase.ListTransactionsInput{
			Day:                &day,
			Status:             "approved",
			EmitterAccountType: "savings",
			Limit:              500,
			Offset:             -3,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if gotLimit != 100 || gotOffset != 0 {
			t.Errorf("expected clamped paging 100/0, got %d/%d", gotLimit, gotOffset)
		}
		if page.Total != 42 {
			t.Errorf("expected total 42, got %d", page.Total)
		}
		wantFrom := time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC)
		if gotFilter.CreatedFrom == nil || !gotFilter.CreatedFrom.Equal(wantFrom) {
			t.Errorf("expected day start %v, got %v", wantFrom, gotFilter.CreatedFrom)
		}
		if gotFilter.CreatedTo == nil || !gotFilter.CreatedTo.Equal(wantFrom.AddDate(0, 0, 1)) {
			t.Errorf("expected day end, got %v", gotFilter.CreatedTo)
		}
		if gotFilter.Status != domain.TransactionStatusApproved || gotFilter.EmitterAccountType != domain.AccountTypeSavings {
			t.Errorf("unexpected filter %+v", gotFilter)
		}
	})

	t.Run("invalid filters", func(t *testing.T) {
		f := newLedgerFixture()

		_, err := f.uc.ListTransactions(ctx, usecase.ListTransactionsInput{Status: "done", Type: "refund"})

		var verr *domain.ValidationError
		if !errors.As(err, &verr) || len(verr.Fields) != 2 {
			t.Fatalf("expected two field errors, got %v", err)
		}
	})
}

func TestLedgerUseCase_GetTransaction(t *testing.T) {
	f := newLedgerFixture()
	f.transactions.Add(&domain.Transaction{ID: "tx-1", Type: domain.TransactionTypeCredit})

	txn, err := f.uc.GetTransaction(context.Background(), "tx-1")
	if err != nil || txn.ID != "tx-1" {
		t.Fatalf("expected tx-1, got %v, %v", txn, err)
	}

	if _, err := f.uc.GetTransaction(context.Background(), "tx-2"); !errors.Is(err, domain.ErrTransactionNotFound) {
		t.Errorf("expected ErrTransactionNotFound, got %v", err)
	}
}
