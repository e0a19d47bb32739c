package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/infrastructure/postgres/generated"
	"github.com/iho/bankledger/internal/usecase"
)

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	queries *generated.Queries
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return newTransactionRepository(pool)
}

func newTransactionRepository(db generated.DBTX) *TransactionRepository {
	return &TransactionRepository{queries: generated.New(db)}
}

func (r *TransactionRepository) txQueries(tx usecase.Transaction) (*generated.Queries, error) {
	t, err := pgxTx(tx)
	if err != nil {
		return nil, err
	}
	return r.queries.WithTx(t), nil
}

// Create inserts a transaction. A duplicate ID or idempotency key yields
// domain.ErrConflict.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Transaction, transaction *domain.Transaction) error {
	queries, err := r.txQueries(tx)
	if err != nil {
		return err
	}

	err = queries.CreateTransaction(ctx, generated.CreateTransactionParams{
		ID:               transaction.ID,
		TransactionType:  string(transaction.Type),
		Status:           string(transaction.Status),
		Amount:           decimalToNumeric(transaction.Amount),
		OriginalAmount:   decimalToNumeric(transaction.OriginalAmount),
		OriginalCurrency: string(transaction.OriginalCurrency),
		EmitterIban:      textOrNull(transaction.EmitterIBAN),
		ReceiverIban:     textOrNull(transaction.ReceiverIBAN),
		Reason:           transaction.Reason,
		IdempotencyKey:   textOrNull(transaction.IdempotencyKey),
		CreatedAt:        timeToPgTimestamptz(transaction.CreatedAt),
		UpdatedAt:        timeToPgTimestamptz(transaction.UpdatedAt),
		AppliedAt:        optionalTime(transaction.AppliedAt),
	})

	return mapError(err)
}

// GetByID retrieves a transaction by ID.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	row, err := r.queries.GetTransactionByID(ctx, id)
	if err != nil {
		return nil, notFound(err, domain.ErrTransactionNotFound)
	}

	return rowToTransaction(row), nil
}

// GetByIDForUpdate retrieves a transaction by ID with a FOR UPDATE lock.
func (r *TransactionRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Transaction, error) {
	queries, err := r.txQueries(tx)
	if err != nil {
		return nil, err
	}

	row, err := queries.GetTransactionByIDForUpdate(ctx, id)
	if err != nil {
		return nil, notFound(err, domain.ErrTransactionNotFound)
	}

	return rowToTransaction(row), nil
}

// GetByIdempotencyKey retrieves the transaction recorded under key.
func (r *TransactionRepository) GetByIdempotencyKey(ctx context.Context, tx usecase.Transaction, key string) (*domain.Transaction, error) {
	queries, err := r.txQueries(tx)
	if err != nil {
		return nil, err
	}

	row, err := queries.GetTransactionByIdempotencyKey(ctx, pgtype.Text{String: key, Valid: true})
	if err != nil {
		return nil, notFound(err, domain.ErrTransactionNotFound)
	}

	return rowToTransaction(row), nil
}

// UpdateStatus changes the status of a transaction. A nil appliedAt keeps
// the stored value.
func (r *TransactionRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.TransactionStatus, appliedAt *time.Time, updatedAt time.Time) (*domain.Transaction, error) {
	queries, err := r.txQueries(tx)
	if err != nil {
		return nil, err
	}

	row, err := queries.UpdateTransactionStatus(ctx, generated.UpdateTransactionStatusParams{
		ID:        id,
		Status:    string(status),
		UpdatedAt: timeToPgTimestamptz(updatedAt),
		AppliedAt: optionalTime(appliedAt),
	})
	if err != nil {
		return nil, notFound(err, domain.ErrTransactionNotFound)
	}

	return rowToTransaction(row), nil
}

// List lists transactions matching filter, newest first.
func (r *TransactionRepository) List(ctx context.Context, filter domain.TransactionFilter, limit, offset int) ([]*domain.Transaction, error) {
	p := filterParams(filter)

	rows, err := r.queries.ListTransactions(ctx, generated.ListTransactionsParams{
		Status:             p.Status,
		TransactionType:    p.TransactionType,
		CreatedFrom:        p.CreatedFrom,
		CreatedTo:          p.CreatedTo,
		AccountIban:        p.AccountIban,
		EmitterAccountType: p.EmitterAccountType,
		OwnerID:            p.OwnerID,
		Limit:              int32(limit),
		Offset:             int32(offset),
	})
	if err != nil {
		return nil, mapError(err)
	}

	transactions := make([]*domain.Transaction, 0, len(rows))
	for _, row := range rows {
		transactions = append(transactions, rowToTransaction(row))
	}

	return transactions, nil
}

// Count counts transactions matching filter.
func (r *TransactionRepository) Count(ctx context.Context, filter domain.TransactionFilter) (int, error) {
	count, err := r.queries.CountTransactions(ctx, filterParams(filter))
	if err != nil {
		return 0, mapError(err)
	}

	return int(count), nil
}

// NetAppliedAmount sums the applied effects of every transaction on iban.
func (r *TransactionRepository) NetAppliedAmount(ctx context.Context, iban string) (decimal.Decimal, error) {
	net, err := r.queries.NetAppliedAmount(ctx, pgtype.Text{String: iban, Valid: true})
	if err != nil {
		return decimal.Zero, mapError(err)
	}

	return numericToDecimal(net), nil
}

func filterParams(f domain.TransactionFilter) generated.CountTransactionsParams {
	return generated.CountTransactionsParams{
		Status:             textFilter(string(f.Status)),
		TransactionType:    textFilter(string(f.Type)),
		CreatedFrom:        optionalTime(f.CreatedFrom),
		CreatedTo:          optionalTime(f.CreatedTo),
		AccountIban:        textFilter(f.AccountIBAN),
		EmitterAccountType: textFilter(string(f.EmitterAccountType)),
		OwnerID:            textFilter(f.OwnerID),
	}
}

func rowToTransaction(row generated.Transaction) *domain.Transaction {
	return &domain.Transaction{
		ID:               row.ID,
		Type:             domain.TransactionType(row.TransactionType),
		Status:           domain.TransactionStatus(row.Status),
		Amount:           numericToDecimal(row.Amount),
		OriginalAmount:   numericToDecimal(row.OriginalAmount),
		OriginalCurrency: domain.Currency(row.OriginalCurrency),
		EmitterIBAN:      textToPtr(row.EmitterIban),
		ReceiverIBAN:     textToPtr(row.ReceiverIban),
		Reason:           row.Reason,
		IdempotencyKey:   textToPtr(row.IdempotencyKey),
		CreatedAt:        row.CreatedAt.Time.UTC(),
		UpdatedAt:        row.UpdatedAt.Time.UTC(),
		AppliedAt:        optionalTimeFromPg(row.AppliedAt),
	}
}
