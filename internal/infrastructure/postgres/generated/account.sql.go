package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const countChildAccounts = `-- name: CountChildAccounts :one
SELECT COUNT(*) FROM accounts WHERE parent_iban = $1
`

func (q *Queries) CountChildAccounts(ctx context.Context, parentIban pgtype.Text) (int64, error) {
	row := q.db.QueryRow(ctx, countChildAccounts, parentIban)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const countRootAccounts = `-- name: CountRootAccounts :one
SELECT COUNT(*) FROM accounts WHERE parent_iban IS NULL
`

func (q *Queries) CountRootAccounts(ctx context.Context) (int64, error) {
	row := q.db.QueryRow(ctx, countRootAccounts)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const createAccount = `-- name: CreateAccount :exec
INSERT INTO accounts (iban, name, bic, currency, account_type, balance, parent_iban, owner_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`

type CreateAccountParams struct {
	Iban        string             `json:"iban"`
	Name        string             `json:"name"`
	Bic         string             `json:"bic"`
	Currency    string             `json:"currency"`
	AccountType string             `json:"account_type"`
	Balance     pgtype.Numeric     `json:"balance"`
	ParentIban  pgtype.Text        `json:"parent_iban"`
	OwnerID     pgtype.Text        `json:"owner_id"`
	CreatedAt   pgtype.Timestamptz `json:"created_at"`
	UpdatedAt   pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) CreateAccount(ctx context.Context, arg CreateAccountParams) error {
	_, err := q.db.Exec(ctx, createAccount,
		arg.Iban,
		arg.Name,
		arg.Bic,
		arg.Currency,
		arg.AccountType,
		arg.Balance,
		arg.ParentIban,
		arg.OwnerID,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const deleteAccount = `-- name: DeleteAccount :execrows
DELETE FROM accounts WHERE iban = $1
`

func (q *Queries) DeleteAccount(ctx context.Context, iban string) (int64, error) {
	result, err := q.db.Exec(ctx, deleteAccount, iban)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const getAccountByIBAN = `-- name: GetAccountByIBAN :one
SELECT iban, name, bic, currency, account_type, balance, parent_iban, owner_id, created_at, updated_at FROM accounts WHERE iban = $1
`

func (q *Queries) GetAccountByIBAN(ctx context.Context, iban string) (Account, error) {
	row := q.db.QueryRow(ctx, getAccountByIBAN, iban)
	var i Account
	err := row.Scan(
		&i.Iban,
		&i.Name,
		&i.Bic,
		&i.Currency,
		&i.AccountType,
		&i.Balance,
		&i.ParentIban,
		&i.OwnerID,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getAccountByIBANForUpdate = `-- name: GetAccountByIBANForUpdate :one
SELECT iban, name, bic, currency, account_type, balance, parent_iban, owner_id, created_at, updated_at FROM accounts WHERE iban = $1 FOR UPDATE
`

func (q *Queries) GetAccountByIBANForUpdate(ctx context.Context, iban string) (Account, error) {
	row := q.db.QueryRow(ctx, getAccountByIBANForUpdate, iban)
	var i Account
	err := row.Scan(
		&i.Iban,
		&i.Name,
		&i.Bic,
		&i.Currency,
		&i.AccountType,
		&i.Balance,
		&i.ParentIban,
		&i.OwnerID,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getAccountsByIBANsForUpdate = `-- name: GetAccountsByIBANsForUpdate :many
SELECT iban, name, bic, currency, account_type, balance, parent_iban, owner_id, created_at, updated_at FROM accounts WHERE iban = ANY($1::text[]) ORDER BY iban FOR UPDATE
`

func (q *Queries) GetAccountsByIBANsForUpdate(ctx context.Context, dollar_1 []string) ([]Account, error) {
	rows, err := q.db.Query(ctx, getAccountsByIBANsForUpdate, dollar_1)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Account{}
	for rows.Next() {
		var i Account
		if err := rows.Scan(
			&i.Iban,
			&i.Name,
			&i.Bic,
			&i.Currency,
			&i.AccountType,
			&i.Balance,
			&i.ParentIban,
			&i.OwnerID,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const incrementAccountBalance = `-- name: IncrementAccountBalance :one
UPDATE accounts
SET balance = balance + $2, updated_at = $3
WHERE iban = $1
RETURNING iban, name, bic, currency, account_type, balance, parent_iban, owner_id, created_at, updated_at
`

type IncrementAccountBalanceParams struct {
	Iban      string             `json:"iban"`
	Balance   pgtype.Numeric     `json:"balance"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) IncrementAccountBalance(ctx context.Context, arg IncrementAccountBalanceParams) (Account, error) {
	row := q.db.QueryRow(ctx, incrementAccountBalance, arg.Iban, arg.Balance, arg.UpdatedAt)
	var i Account
	err := row.Scan(
		&i.Iban,
		&i.Name,
		&i.Bic,
		&i.Currency,
		&i.AccountType,
		&i.Balance,
		&i.ParentIban,
		&i.OwnerID,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listAccounts = `-- name: ListAccounts :many
SELECT iban, name, bic, currency, account_type, balance, parent_iban, owner_id, created_at, updated_at FROM accounts ORDER BY iban LIMIT $1 OFFSET $2
`

type ListAccountsParams struct {
	Limit  int32 `json:"limit"`
	Offset int32 `json:"offset"`
}

func (q *Queries) ListAccounts(ctx context.Context, arg ListAccountsParams) ([]Account, error) {
	rows, err := q.db.Query(ctx, listAccounts, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Account{}
	for rows.Next() {
		var i Account
		if err := rows.Scan(
			&i.Iban,
			&i.Name,
			&i.Bic,
			&i.Currency,
			&i.AccountType,
			&i.Balance,
			&i.ParentIban,
			&i.OwnerID,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listAccountsByOwner = `-- name: ListAccountsByOwner :many
SELECT iban, name, bic, currency, account_type, balance, parent_iban, owner_id, created_at, updated_at FROM accounts WHERE owner_id = $1 ORDER BY created_at, iban
`

func (q *Queries) ListAccountsByOwner(ctx context.Context, ownerID pgtype.Text) ([]Account, error) {
	rows, err := q.db.Query(ctx, listAccountsByOwner, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Account{}
	for rows.Next() {
		var i Account
		if err := rows.Scan(
			&i.Iban,
			&i.Name,
			&i.Bic,
			&i.Currency,
			&i.AccountType,
			&i.Balance,
			&i.ParentIban,
			&i.OwnerID,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listChildAccounts = `-- name: ListChildAccounts :many
SELECT iban, name, bic, currency, account_type, balance, parent_iban, owner_id, created_at, updated_at FROM accounts WHERE parent_iban = $1 ORDER BY created_at, iban
`

func (q *Queries) ListChildAccounts(ctx context.Context, parentIban pgtype.Text) ([]Account, error) {
	rows, err := q.db.Query(ctx, listChildAccounts, parentIban)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Account{}
	for rows.Next() {
		var i Account
		if err := rows.Scan(
			&i.Iban,
			&i.Name,
			&i.Bic,
			&i.Currency,
			&i.AccountType,
			&i.Balance,
			&i.ParentIban,
			&i.OwnerID,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listRootAccounts = `-- name: ListRootAccounts :many
SELECT iban, name, bic, currency, account_type, balance, parent_iban, owner_id, created_at, updated_at FROM accounts WHERE parent_iban IS NULL ORDER BY created_at, iban LIMIT $1 OFFSET $2
`

type ListRootAccountsParams struct {
	Limit  int32 `json:"limit"`
	Offset int32 `json:"offset"`
}

func (q *Queries) ListRootAccounts(ctx context.Context, arg ListRootAccountsParams) ([]Account, error) {
	rows, err := q.db.Query(ctx, listRootAccounts, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Account{}
	for rows.Next() {
		var i Account
		if err := rows.Scan(
			&i.Iban,
			&i.Name,
			&i.Bic,
			&i.Currency,
			&i.AccountType,
			&i.Balance,
			&i.ParentIban,
			&i.OwnerID,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const setAccountType = `-- name: SetAccountType :one
UPDATE accounts
SET account_type = $2, updated_at = $3
WHERE iban = $1
RETURNING iban, name, bic, currency, account_type, balance, parent_iban, owner_id, created_at, updated_at
`

type SetAccountTypeParams struct {
	Iban        string             `json:"iban"`
	AccountType string             `json:"account_type"`
	UpdatedAt   pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) SetAccountType(ctx context.Context, arg SetAccountTypeParams) (Account, error) {
	row := q.db.QueryRow(ctx, setAccountType, arg.Iban, arg.AccountType, arg.UpdatedAt)
	var i Account
	err := row.Scan(
		&i.Iban,
		&i.Name,
		&i.Bic,
		&i.Currency,
		&i.AccountType,
		&i.Balance,
		&i.ParentIban,
		&i.OwnerID,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
