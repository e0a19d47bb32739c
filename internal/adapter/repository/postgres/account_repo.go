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

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	queries *generated.Queries
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return newAccountRepository(pool)
}

func newAccountRepository(db generated.DBTX) *AccountRepository {
	return &AccountRepository{queries: generated.New(db)}
}

func (r *AccountRepository) txQueries(tx usecase.Transaction) (*generated.Queries, error) {
	t, err := pgxTx(tx)
	if err != nil {
		return nil, err
	}
	return r.queries.WithTx(t), nil
}

// Create inserts a new account. An existing IBAN yields domain.ErrConflict.
func (r *AccountRepository) Create(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	queries, err := r.txQueries(tx)
	if err != nil {
		return err
	}

	err = queries.CreateAccount(ctx, generated.CreateAccountParams{
		Iban:        account.IBAN,
		Name:        account.Name,
		Bic:         account.BIC,
		Currency:    string(account.Currency),
		AccountType: string(account.Type),
		Balance:     decimalToNumeric(account.Balance),
		ParentIban:  textOrNull(account.ParentIBAN),
		OwnerID:     textOrNull(account.OwnerID),
		CreatedAt:   timeToPgTimestamptz(account.CreatedAt),
		UpdatedAt:   timeToPgTimestamptz(account.UpdatedAt),
	})

	return mapError(err)
}

// GetByIBAN retrieves an account by IBAN.
func (r *AccountRepository) GetByIBAN(ctx context.Context, iban string) (*domain.Account, error) {
	row, err := r.queries.GetAccountByIBAN(ctx, iban)
	if err != nil {
		return nil, notFound(err, domain.ErrAccountNotFound)
	}

	return rowToAccount(row), nil
}

// GetByIBANForUpdate retrieves an account by IBAN with a FOR UPDATE lock.
func (r *AccountRepository) GetByIBANForUpdate(ctx context.Context, tx usecase.Transaction, iban string) (*domain.Account, error) {
	queries, err := r.txQueries(tx)
	if err != nil {
		return nil, err
	}

	row, err := queries.GetAccountByIBANForUpdate(ctx, iban)
	if err != nil {
		return nil, notFound(err, domain.ErrAccountNotFound)
	}

	return rowToAccount(row), nil
}

// GetByIBANsForUpdate locks the accounts in IBAN order. Missing IBANs are
// omitted from the result.
func (r *AccountRepository) GetByIBANsForUpdate(ctx context.Context, tx usecase.Transaction, ibans []string) ([]*domain.Account, error) {
	queries, err := r.txQueries(tx)
	if err != nil {
		return nil, err
	}

	rows, err := queries.GetAccountsByIBANsForUpdate(ctx, ibans)
	if err != nil {
		return nil, mapError(err)
	}

	return rowsToAccounts(rows), nil
}

// IncrementBalance atomically adds delta to the balance of an account.
func (r *AccountRepository) IncrementBalance(ctx context.Context, tx usecase.Transaction, iban string, delta decimal.Decimal, updatedAt time.Time) (*domain.Account, error) {
	queries, err := r.txQueries(tx)
	if err != nil {
		return nil, err
	}

	row, err := queries.IncrementAccountBalance(ctx, generated.IncrementAccountBalanceParams{
		Iban:      iban,
		Balance:   decimalToNumeric(delta),
		UpdatedAt: timeToPgTimestamptz(updatedAt),
	})
	if err != nil {
		return nil, notFound(err, domain.ErrAccountNotFound)
	}

	return rowToAccount(row), nil
}

// SetAccountType changes the type of an account.
func (r *AccountRepository) SetAccountType(ctx context.Context, tx usecase.Transaction, iban string, accountType domain.AccountType, updatedAt time.Time) (*domain.Account, error) {
	queries, err := r.txQueries(tx)
	if err != nil {
		return nil, err
	}

	row, err := queries.SetAccountType(ctx, generated.SetAccountTypeParams{
		Iban:        iban,
		AccountType: string(accountType),
		UpdatedAt:   timeToPgTimestamptz(updatedAt),
	})
	if err != nil {
		return nil, notFound(err, domain.ErrAccountNotFound)
	}

	return rowToAccount(row), nil
}

// Delete removes an account.
func (r *AccountRepository) Delete(ctx context.Context, tx usecase.Transaction, iban string) error {
	queries, err := r.txQueries(tx)
	if err != nil {
		return err
	}

	affected, err := queries.DeleteAccount(ctx, iban)
	if err != nil {
		return mapError(err)
	}
	if affected == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

// ListChildren lists the sub-accounts of parentIBAN, oldest first.
func (r *AccountRepository) ListChildren(ctx context.Context, parentIBAN string) ([]*domain.Account, error) {
	rows, err := r.queries.ListChildAccounts(ctx, pgtype.Text{String: parentIBAN, Valid: true})
	if err != nil {
		return nil, mapError(err)
	}

	return rowsToAccounts(rows), nil
}

// CountChildren counts the sub-accounts of parentIBAN inside tx.
func (r *AccountRepository) CountChildren(ctx context.Context, tx usecase.Transaction, parentIBAN string) (int, error) {
	queries, err := r.txQueries(tx)
	if err != nil {
		return 0, err
	}

	count, err := queries.CountChildAccounts(ctx, pgtype.Text{String: parentIBAN, Valid: true})
	if err != nil {
		return 0, mapError(err)
	}

	return int(count), nil
}

// ListByOwner lists every account of an owner.
func (r *AccountRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Account, error) {
	rows, err := r.queries.ListAccountsByOwner(ctx, pgtype.Text{String: ownerID, Valid: true})
	if err != nil {
		return nil, mapError(err)
	}

	return rowsToAccounts(rows), nil
}

// CountRoots counts the accounts without a parent.
func (r *AccountRepository) CountRoots(ctx context.Context) (int, error) {
	count, err := r.queries.CountRootAccounts(ctx)
	if err != nil {
		return 0, mapError(err)
	}

	return int(count), nil
}

// ListRoots lists the accounts without a parent, oldest first.
func (r *AccountRepository) ListRoots(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	rows, err := r.queries.ListRootAccounts(ctx, generated.ListRootAccountsParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		return nil, mapError(err)
	}

	return rowsToAccounts(rows), nil
}

// List lists all accounts ordered by IBAN.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	rows, err := r.queries.ListAccounts(ctx, generated.ListAccountsParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		return nil, mapError(err)
	}

	return rowsToAccounts(rows), nil
}

func rowToAccount(row generated.Account) *domain.Account {
	return &domain.Account{
		IBAN:       row.Iban,
		Name:       row.Name,
		BIC:        row.Bic,
		Currency:   domain.Currency(row.Currency),
		Type:       domain.AccountType(row.AccountType),
		Balance:    numericToDecimal(row.Balance),
		ParentIBAN: textToPtr(row.ParentIban),
		OwnerID:    textToPtr(row.OwnerID),
		CreatedAt:  row.CreatedAt.Time.UTC(),
		UpdatedAt:  row.UpdatedAt.Time.UTC(),
	}
}

func rowsToAccounts(rows []generated.Account) []*domain.Account {
	accounts := make([]*domain.Account, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, rowToAccount(row))
	}

	return accounts
}
