package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/infrastructure/metrics"
)

// LedgerUseCase processes transactions and applies their balance effects.
type LedgerUseCase struct {
	txManager       TransactionManager
	accountRepo     AccountRepository
	transactionRepo TransactionRepository
	idGen           IDGenerator
	retrier         Retrier
	metrics         *metrics.Metrics
	logger          zerolog.Logger
	now             func() time.Time
}

// LedgerOption configures optional LedgerUseCase collaborators.
type LedgerOption func(*LedgerUseCase)

// WithRetrier retries whole store transactions on transient failures.
func WithRetrier(r Retrier) LedgerOption {
	return func(uc *LedgerUseCase) {
		if r != nil {
			uc.retrier = r
		}
	}
}

// WithLedgerMetrics records engine metrics.
func WithLedgerMetrics(m *metrics.Metrics) LedgerOption {
	return func(uc *LedgerUseCase) { uc.metrics = m }
}

// WithLedgerLogger sets the engine logger.
func WithLedgerLogger(l zerolog.Logger) LedgerOption {
	return func(uc *LedgerUseCase) { uc.logger = l }
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	transactionRepo TransactionRepository,
	idGen IDGenerator,
	opts ...LedgerOption,
) *LedgerUseCase {
	uc := &LedgerUseCase{
		txManager:       txManager,
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		idGen:           idGen,
		retrier:         noRetry{},
		logger:          zerolog.Nop(),
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// CreateTransactionInput represents input for creating a transaction.
type CreateTransactionInput struct {
	Type           string
	Amount         decimal.Decimal
	Currency       string
	EmitterIBAN    string
	ReceiverIBAN   string
	Reason         string
	IdempotencyKey string
	// RequireApproval stores the transaction as in_process without touching
	// balances until it is approved.
	RequireApproval bool
}

func (in CreateTransactionInput) fields() domain.TransactionFields {
	return domain.TransactionFields{
		Type:           in.Type,
		Amount:         in.Amount,
		Currency:       in.Currency,
		EmitterIBAN:    in.EmitterIBAN,
		ReceiverIBAN:   in.ReceiverIBAN,
		Reason:         in.Reason,
		IdempotencyKey: in.IdempotencyKey,
	}
}

// CreateTransaction validates, converts and persists a transaction and, unless
// approval is required, applies its balance effects in the same store
// transaction.
func (uc *LedgerUseCase) CreateTransaction(ctx context.Context, input CreateTransactionInput) (*domain.Transaction, error) {
	start := time.Now()

	req, err := domain.ValidateTransactionRequest(input.fields())
	if err != nil {
		uc.recordError(err)
		return nil, err
	}

	txn, err := uc.newTransaction(req, input)
	if err != nil {
		uc.recordError(err)
		return nil, err
	}

	var (
		result  *domain.Transaction
		attempt int
	)
	err = uc.retrier.Retry(ctx, func() error {
		var err error
		attempt++
		result, err = uc.createOnce(ctx, txn, attempt > 1)
		return err
	})
	if err != nil {
		uc.recordError(err)
		uc.logger.Debug().Err(err).Str("type", string(txn.Type)).Msg("transaction refused")
		return nil, err
	}

	if uc.metrics != nil && result.ID == txn.ID {
		uc.metrics.TransactionsCreated.WithLabelValues(string(result.Type), string(result.Status)).Inc()
		uc.metrics.TransactionAmount.WithLabelValues(string(result.Type)).Observe(result.Amount.InexactFloat64())
		uc.metrics.TransactionDuration.Observe(time.Since(start).Seconds())
	}

	uc.logger.Info().
		Str("transaction_id", result.ID).
		Str("type", string(result.Type)).
		Str("status", string(result.Status)).
		Str("amount", result.Amount.String()).
		Msg("transaction recorded")

	return result, nil
}

// newTransaction builds the record for a validated request. The ID is
// generated here, once, so that retried attempts share it.
func (uc *LedgerUseCase) newTransaction(req domain.TransactionRequest, input CreateTransactionInput) (*domain.Transaction, error) {
	now := uc.now().UTC()

	txn := &domain.Transaction{
		ID:             uc.idGen.Generate(),
		Type:           req.Type(),
		OriginalAmount: input.Amount,
		Reason:         input.Reason,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	switch r := req.(type) {
	case domain.CreditRequest:
		amount, err := canonicalAmount(r.Amount, r.Currency)
		if err != nil {
			return nil, err
		}
		txn.Amount = amount
		txn.OriginalCurrency = r.Currency
		txn.ReceiverIBAN = &r.Receiver
	case domain.DebitRequest:
		txn.Amount = r.Amount
		txn.OriginalCurrency = domain.CanonicalCurrency
		txn.EmitterIBAN = &r.Emitter
	case domain.TransferRequest:
		amount, err := canonicalAmount(r.Amount, r.Currency)
		if err != nil {
			return nil, err
		}
		txn.Amount = amount
		txn.OriginalCurrency = r.Currency
		txn.EmitterIBAN = &r.Emitter
		txn.ReceiverIBAN = &r.Receiver
	default:
		return nil, domain.ErrValidationFailed
	}

	if input.IdempotencyKey != "" {
		key := input.IdempotencyKey
		txn.IdempotencyKey = &key
	}

	if input.RequireApproval {
		txn.Status = domain.TransactionStatusInProcess
	} else {
		txn.Status = domain.TransactionStatusApproved
		txn.AppliedAt = &now
	}

	return txn, nil
}

func canonicalAmount(amount decimal.Decimal, currency domain.Currency) (decimal.Decimal, error) {
	converted, err := domain.Convert(amount, currency)
	if err != nil {
		return decimal.Zero, err
	}
	if !converted.IsPositive() {
		return decimal.Zero, domain.ErrInvalidAmount
	}
	return converted, nil
}

func (uc *LedgerUseCase) createOnce(ctx context.Context, txn *domain.Transaction, retried bool) (*domain.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	// A failed commit may still have been applied by the store.
	if retried {
		existing, err := uc.transactionRepo.GetByID(ctx, txn.ID)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, domain.ErrTransactionNotFound) {
			return nil, err
		}
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// 1. Replay a request already recorded under the same idempotency key
	if txn.IdempotencyKey != nil {
		existing, err := uc.transactionRepo.GetByIdempotencyKey(ctx, tx, *txn.IdempotencyKey)
		if err == nil {
			return replayed(existing, txn)
		}
		if !errors.Is(err, domain.ErrTransactionNotFound) {
			return nil, err
		}
	}

	// 2. Lock accounts in sorted order
	accounts, err := uc.lockAccounts(ctx, tx, txn.AccountIBANs())
	if err != nil {
		return nil, err
	}

	req := txn.Request()
	if err := checkPreconditions(req, accounts); err != nil {
		return nil, err
	}

	// 3. Persist the record
	if err := uc.transactionRepo.Create(ctx, tx, txn); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			_ = tx.Rollback(ctx)
			return uc.findExisting(ctx, txn, err)
		}
		return nil, err
	}

	// 4. Apply balance effects
	if txn.Status == domain.TransactionStatusApproved {
		if err := uc.applyEffects(ctx, tx, req, txn.CreatedAt); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return txn, nil
}

// findExisting resolves a create conflict: either an earlier attempt of this
// call already committed the record, or a concurrent request used the same
// idempotency key.
func (uc *LedgerUseCase) findExisting(ctx context.Context, txn *domain.Transaction, conflict error) (*domain.Transaction, error) {
	existing, err := uc.transactionRepo.GetByID(ctx, txn.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrTransactionNotFound) {
		return nil, err
	}

	if txn.IdempotencyKey == nil {
		return nil, conflict
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	existing, err = uc.transactionRepo.GetByIdempotencyKey(ctx, tx, *txn.IdempotencyKey)
	if err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			return nil, conflict
		}
		return nil, err
	}
	return replayed(existing, txn)
}

// replayed returns the transaction recorded under txn's idempotency key, or
// ErrConflict when the key was used for a different request.
func replayed(existing, txn *domain.Transaction) (*domain.Transaction, error) {
	if !existing.SameRequest(txn) {
		return nil, fmt.Errorf("%w: idempotency key %q was used for a different request", domain.ErrConflict, *txn.IdempotencyKey)
	}
	return existing, nil
}

// ApproveTransaction applies a deferred transaction. Approving an already
// approved transaction returns it unchanged.
func (uc *LedgerUseCase) ApproveTransaction(ctx context.Context, id string, approver *domain.User) (*domain.Transaction, error) {
	if err := authorizeApprover(approver); err != nil {
		return nil, err
	}

	var (
		result  *domain.Transaction
		changed bool
	)
	err := uc.retrier.Retry(ctx, func() error {
		var err error
		result, changed, err = uc.approveOnce(ctx, id)
		return err
	})
	if err != nil {
		uc.recordError(err)
		return nil, err
	}

	if changed {
		if uc.metrics != nil {
			uc.metrics.TransactionsApproved.Inc()
		}
		uc.logger.Info().Str("transaction_id", id).Str("approver", approver.ID).Msg("transaction approved")
	} else {
		uc.logger.Warn().Str("transaction_id", id).Msg("transaction already approved")
	}

	return result, nil
}

func (uc *LedgerUseCase) approveOnce(ctx context.Context, id string) (*domain.Transaction, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback(ctx)

	txn, err := uc.transactionRepo.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, false, err
	}

	switch txn.Status {
	case domain.TransactionStatusApproved:
		return txn, false, nil
	case domain.TransactionStatusRejected:
		return nil, false, domain.ErrTransactionNotPending
	}

	accounts, err := uc.lockAccounts(ctx, tx, txn.AccountIBANs())
	if err != nil {
		return nil, false, err
	}

	req := txn.Request()
	if err := checkPreconditions(req, accounts); err != nil {
		return nil, false, err
	}

	now := uc.now().UTC()
	if err := uc.applyEffects(ctx, tx, req, now); err != nil {
		return nil, false, err
	}

	updated, err := uc.transactionRepo.UpdateStatus(ctx, tx, id, domain.TransactionStatusApproved, &now, now)
	if err != nil {
		return nil, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, err
	}

	return updated, true, nil
}

// RejectTransaction rejects a deferred transaction without touching balances.
// Rejecting an already rejected transaction returns it unchanged.
func (uc *LedgerUseCase) RejectTransaction(ctx context.Context, id string, approver *domain.User) (*domain.Transaction, error) {
	if err := authorizeApprover(approver); err != nil {
		return nil, err
	}

	var (
		result  *domain.Transaction
		changed bool
	)
	err := uc.retrier.Retry(ctx, func() error {
		var err error
		result, changed, err = uc.rejectOnce(ctx, id)
		return err
	})
	if err != nil {
		uc.recordError(err)
		return nil, err
	}

	if changed {
		if uc.metrics != nil {
			uc.metrics.TransactionsRejected.Inc()
		}
		uc.logger.Info().Str("transaction_id", id).Str("approver", approver.ID).Msg("transaction rejected")
	}

	return result, nil
}

func (uc *LedgerUseCase) rejectOnce(ctx context.Context, id string) (*domain.Transaction, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback(ctx)

	txn, err := uc.transactionRepo.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, false, err
	}

	switch txn.Status {
	case domain.TransactionStatusRejected:
		return txn, false, nil
	case domain.TransactionStatusApproved:
		return nil, false, domain.ErrTransactionNotPending
	}

	now := uc.now().UTC()
	updated, err := uc.transactionRepo.UpdateStatus(ctx, tx, id, domain.TransactionStatusRejected, nil, now)
	if err != nil {
		return nil, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, err
	}

	return updated, true, nil
}

func authorizeApprover(approver *domain.User) error {
	if approver == nil {
		return domain.ErrUnauthorized
	}
	if !approver.Role.CanApprove() {
		return domain.ErrInsufficientRole
	}
	return nil
}

// GetTransaction retrieves a transaction by ID.
func (uc *LedgerUseCase) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	return uc.transactionRepo.GetByID(ctx, id)
}

// ListTransactionsInput represents input for listing transactions.
type ListTransactionsInput struct {
	// Day restricts the listing to transactions created on that UTC calendar day.
	Day                *time.Time
	Status             string
	Type               string
	AccountIBAN        string
	EmitterAccountType string
	OwnerID            string
	Limit              int
	Offset             int
}

// TransactionPage is one page of a transaction listing.
type TransactionPage struct {
	Transactions []*domain.Transaction
	Total        int
	Limit        int
	Offset       int
}

// ListTransactions lists transactions matching the input filters.
func (uc *LedgerUseCase) ListTransactions(ctx context.Context, input ListTransactionsInput) (*TransactionPage, error) {
	filter, err := input.filter()
	if err != nil {
		return nil, err
	}

	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)

	transactions, err := uc.transactionRepo.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, err
	}

	total, err := uc.transactionRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &TransactionPage{
		Transactions: transactions,
		Total:        total,
		Limit:        limit,
		Offset:       offset,
	}, nil
}

func (in ListTransactionsInput) filter() (domain.TransactionFilter, error) {
	var fields []domain.FieldError

	filter := domain.TransactionFilter{
		Status:             domain.TransactionStatus(in.Status),
		Type:               domain.TransactionType(in.Type),
		AccountIBAN:        in.AccountIBAN,
		EmitterAccountType: domain.AccountType(in.EmitterAccountType),
		OwnerID:            in.OwnerID,
	}

	if filter.Status != "" && !filter.Status.IsValid() {
		fields = append(fields, domain.FieldError{Field: "status", Message: "must be one of: in_process, approved, rejected"})
	}
	if filter.Type != "" && !filter.Type.IsValid() {
		fields = append(fields, domain.FieldError{Field: "transactionType", Message: "must be one of: credit, debit, transfer"})
	}
	if filter.EmitterAccountType != "" && !filter.EmitterAccountType.IsValid() {
		fields = append(fields, domain.FieldError{Field: "accountType", Message: "must be one of: current, savings, blocked"})
	}
	if len(fields) > 0 {
		return filter, &domain.ValidationError{Fields: fields}
	}

	if in.Day != nil {
		d := in.Day.UTC()
		from := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
		to := from.AddDate(0, 0, 1)
		filter.CreatedFrom = &from
		filter.CreatedTo = &to
	}

	return filter, nil
}

func (uc *LedgerUseCase) lockAccounts(ctx context.Context, tx Transaction, ibans []string) (map[string]*domain.Account, error) {
	sorted := append([]string(nil), ibans...)
	sort.Strings(sorted)

	accounts, err := uc.accountRepo.GetByIBANsForUpdate(ctx, tx, sorted)
	if err != nil {
		return nil, err
	}

	m := make(map[string]*domain.Account, len(accounts))
	for _, a := range accounts {
		m[a.IBAN] = a
	}
	return m, nil
}

// checkPreconditions enforces the per-type rules against locked accounts.
func checkPreconditions(req domain.TransactionRequest, accounts map[string]*domain.Account) error {
	switch r := req.(type) {
	case domain.CreditRequest:
		if accounts[r.Receiver] == nil {
			return domain.ErrAccountNotFound
		}
		return nil
	case domain.DebitRequest:
		emitter := accounts[r.Emitter]
		if emitter == nil {
			return domain.ErrAccountNotFound
		}
		return emitter.ValidateEmit(r.Amount)
	case domain.TransferRequest:
		emitter, receiver := accounts[r.Emitter], accounts[r.Receiver]
		if emitter == nil || receiver == nil {
			return domain.ErrAccountNotFound
		}
		return emitter.ValidateEmit(r.Amount)
	}
	return domain.ErrValidationFailed
}

type balanceChange struct {
	iban  string
	delta decimal.Decimal
}

func balanceChanges(req domain.TransactionRequest) []balanceChange {
	switch r := req.(type) {
	case domain.CreditRequest:
		return []balanceChange{{iban: r.Receiver, delta: r.Amount}}
	case domain.DebitRequest:
		return []balanceChange{{iban: r.Emitter, delta: r.Amount.Neg()}}
	case domain.TransferRequest:
		return []balanceChange{
			{iban: r.Emitter, delta: r.Amount.Neg()},
			{iban: r.Receiver, delta: r.Amount},
		}
	}
	return nil
}

func (uc *LedgerUseCase) applyEffects(ctx context.Context, tx Transaction, req domain.TransactionRequest, at time.Time) error {
	for _, change := range balanceChanges(req) {
		if _, err := uc.accountRepo.IncrementBalance(ctx, tx, change.iban, change.delta, at); err != nil {
			return err
		}
	}
	return nil
}

var transactionErrorLabels = []struct {
	err   error
	label string
}{
	{domain.ErrValidationFailed, "validation"},
	{domain.ErrInvalidAmount, "invalid_amount"},
	{domain.ErrUnsupportedCurrency, "unsupported_currency"},
	{domain.ErrAccountNotFound, "account_not_found"},
	{domain.ErrEmitterBlocked, "emitter_blocked"},
	{domain.ErrInsufficientFunds, "insufficient_funds"},
	{domain.ErrTransactionNotFound, "transaction_not_found"},
	{domain.ErrTransactionNotPending, "not_pending"},
	{domain.ErrConflict, "conflict"},
	{domain.ErrStoreUnavailable, "store_unavailable"},
}

func (uc *LedgerUseCase) recordError(err error) {
	if uc.metrics == nil {
		return
	}
	label := "internal"
	for _, l := range transactionErrorLabels {
		if errors.Is(err, l.err) {
			label = l.label
			break
		}
	}
	uc.metrics.TransactionErrors.WithLabelValues(label).Inc()
}
