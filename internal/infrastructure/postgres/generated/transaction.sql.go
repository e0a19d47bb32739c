package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const countTransactions = `-- name: CountTransactions :one
SELECT COUNT(*) FROM transactions t
LEFT JOIN accounts e ON e.iban = t.emitter_iban
LEFT JOIN accounts r ON r.iban = t.receiver_iban
WHERE ($1::text IS NULL OR t.status = $1)
  AND ($2::text IS NULL OR t.transaction_type = $2)
  AND ($3::timestamptz IS NULL OR t.created_at >= $3)
  AND ($4::timestamptz IS NULL OR t.created_at < $4)
  AND ($5::text IS NULL OR t.emitter_iban = $5 OR t.receiver_iban = $5)
  AND ($6::text IS NULL OR e.account_type = $6)
  AND ($7::text IS NULL OR e.owner_id = $7 OR r.owner_id = $7)
`

type CountTransactionsParams struct {
	Status             pgtype.Text        `json:"status"`
	TransactionType    pgtype.Text        `json:"transaction_type"`
	CreatedFrom        pgtype.Timestamptz `json:"created_from"`
	CreatedTo          pgtype.Timestamptz `json:"created_to"`
	AccountIban        pgtype.Text        `json:"account_iban"`
	EmitterAccountType pgtype.Text        `json:"emitter_account_type"`
	OwnerID            pgtype.Text        `json:"owner_id"`
}

func (q *Queries) CountTransactions(ctx context.Context, arg CountTransactionsParams) (int64, error) {
	row := q.db.QueryRow(ctx, countTransactions,
		arg.Status,
		arg.TransactionType,
		arg.CreatedFrom,
		arg.CreatedTo,
		arg.AccountIban,
		arg.EmitterAccountType,
		arg.OwnerID,
	)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const createTransaction = `-- name: CreateTransaction :exec
INSERT INTO transactions (
    id, transaction_type, status, amount, original_amount, original_currency,
    emitter_iban, receiver_iban, reason, idempotency_key, created_at, updated_at, applied_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
`

type CreateTransactionParams struct {
	ID               string             `json:"id"`
	TransactionType  string             `json:"transaction_type"`
	Status           string             `json:"status"`
	Amount           pgtype.Numeric     `json:"amount"`
	OriginalAmount   pgtype.Numeric     `json:"original_amount"`
	OriginalCurrency string             `json:"original_currency"`
	EmitterIban      pgtype.Text        `json:"emitter_iban"`
	ReceiverIban     pgtype.Text        `json:"receiver_iban"`
	Reason           string             `json:"reason"`
	IdempotencyKey   pgtype.Text        `json:"idempotency_key"`
	CreatedAt        pgtype.Timestamptz `json:"created_at"`
	UpdatedAt        pgtype.Timestamptz `json:"updated_at"`
	AppliedAt        pgtype.Timestamptz `json:"applied_at"`
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) error {
	_, err := q.db.Exec(ctx, createTransaction,
		arg.ID,
		arg.TransactionType,
		arg.Status,
		arg.Amount,
		arg.OriginalAmount,
		arg.OriginalCurrency,
		arg.EmitterIban,
		arg.ReceiverIban,
		arg.Reason,
		arg.IdempotencyKey,
		arg.CreatedAt,
		arg.UpdatedAt,
		arg.AppliedAt,
	)
	return err
}

const getTransactionByID = `-- name: GetTransactionByID :one
SELECT id, transaction_type, status, amount, original_amount, original_currency, emitter_iban, receiver_iban, reason, idempotency_key, created_at, updated_at, applied_at FROM transactions WHERE id = $1
`

func (q *Queries) GetTransactionByID(ctx context.Context, id string) (Transaction, error) {
	row := q.db.QueryRow(ctx, getTransactionByID, id)
	var i Transaction
	err := row.Scan(
		&i.ID,
		&i.TransactionType,
		&i.Status,
		&i.Amount,
		&i.OriginalAmount,
		&i.OriginalCurrency,
		&i.EmitterIban,
		&i.ReceiverIban,
		&i.Reason,
		&i.IdempotencyKey,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.AppliedAt,
	)
	return i, err
}

const getTransactionByIDForUpdate = `-- name: GetTransactionByIDForUpdate :one
SELECT id, transaction_type, status, amount, original_amount, original_currency, emitter_iban, receiver_iban, reason, idempotency_key, created_at, updated_at, applied_at FROM transactions WHERE id = $1 FOR UPDATE
`

func (q *Queries) GetTransactionByIDForUpdate(ctx context.Context, id string) (Transaction, error) {
	row := q.db.QueryRow(ctx, getTransactionByIDForUpdate, id)
	var i Transaction
	err := row.Scan(
		&i.ID,
		&i.TransactionType,
		&i.Status,
		&i.Amount,
		&i.OriginalAmount,
		&i.OriginalCurrency,
		&i.EmitterIban,
		&i.ReceiverIban,
		&i.Reason,
		&i.IdempotencyKey,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.AppliedAt,
	)
	return i, err
}

const getTransactionByIdempotencyKey = `-- name: GetTransactionByIdempotencyKey :one
SELECT id, transaction_type, status, amount, original_amount, original_currency, emitter_iban, receiver_iban, reason, idempotency_key, created_at, updated_at, applied_at FROM transactions WHERE idempotency_key = $1
`

func (q *Queries) GetTransactionByIdempotencyKey(ctx context.Context, idempotencyKey pgtype.Text) (Transaction, error) {
	row := q.db.QueryRow(ctx, getTransactionByIdempotencyKey, idempotencyKey)
	var i Transaction
	err := row.Scan(
		&i.ID,
		&i.TransactionType,
		&i.Status,
		&i.Amount,
		&i.OriginalAmount,
		&i.OriginalCurrency,
		&i.EmitterIban,
		&i.ReceiverIban,
		&i.Reason,
		&i.IdempotencyKey,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.AppliedAt,
	)
	return i, err
}

const listTransactions = `-- name: ListTransactions :many
SELECT t.id, t.transaction_type, t.status, t.amount, t.original_amount, t.original_currency, t.emitter_iban, t.receiver_iban, t.reason, t.idempotency_key, t.created_at, t.updated_at, t.applied_at FROM transactions t
LEFT JOIN accounts e ON e.iban = t.emitter_iban
LEFT JOIN accounts r ON r.iban = t.receiver_iban
WHERE ($1::text IS NULL OR t.status = $1)
  AND ($2::text IS NULL OR t.transaction_type = $2)
  AND ($3::timestamptz IS NULL OR t.created_at >= $3)
  AND ($4::timestamptz IS NULL OR t.created_at < $4)
  AND ($5::text IS NULL OR t.emitter_iban = $5 OR t.receiver_iban = $5)
  AND ($6::text IS NULL OR e.account_type = $6)
  AND ($7::text IS NULL OR e.owner_id = $7 OR r.owner_id = $7)
ORDER BY t.created_at DESC, t.id DESC
LIMIT $8 OFFSET $9
`

type ListTransactionsParams struct {
	Status             pgtype.Text        `json:"status"`
	TransactionType    pgtype.Text        `json:"transaction_type"`
	CreatedFrom        pgtype.Timestamptz `json:"created_from"`
	CreatedTo          pgtype.Timestamptz `json:"created_to"`
	AccountIban        pgtype.Text        `json:"account_iban"`
	EmitterAccountType pgtype.Text        `json:"emitter_account_type"`
	OwnerID            pgtype.Text        `json:"owner_id"`
	Limit              int32              `json:"limit"`
	Offset             int32              `json:"offset"`
}

func (q *Queries) ListTransactions(ctx context.Context, arg ListTransactionsParams) ([]Transaction, error) {
	rows, err := q.db.Query(ctx, listTransactions,
		arg.Status,
		arg.TransactionType,
		arg.CreatedFrom,
		arg.CreatedTo,
		arg.AccountIban,
		arg.EmitterAccountType,
		arg.OwnerID,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Transaction{}
	for rows.Next() {
		var i Transaction
		if err := rows.Scan(
			&i.ID,
			&i.TransactionType,
			&i.Status,
			&i.Amount,
			&i.OriginalAmount,
			&i.OriginalCurrency,
			&i.EmitterIban,
			&i.ReceiverIban,
			&i.Reason,
			&i.IdempotencyKey,
			&i.CreatedAt,
			&i.UpdatedAt,
			&i.AppliedAt,
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

const netAppliedAmount = `-- name: NetAppliedAmount :one
SELECT (
    COALESCE(SUM(amount) FILTER (WHERE receiver_iban = $1), 0)
  - COALESCE(SUM(amount) FILTER (WHERE emitter_iban = $1), 0)
)::numeric AS net
FROM transactions
WHERE applied_at IS NOT NULL AND (emitter_iban = $1 OR receiver_iban = $1)
`

func (q *Queries) NetAppliedAmount(ctx context.Context, iban pgtype.Text) (pgtype.Numeric, error) {
	row := q.db.QueryRow(ctx, netAppliedAmount, iban)
	var net pgtype.Numeric
	err := row.Scan(&net)
	return net, err
}

const updateTransactionStatus = `-- name: UpdateTransactionStatus :one
UPDATE transactions
SET status = $2, applied_at = COALESCE($4, applied_at), updated_at = $3
WHERE id = $1
RETURNING id, transaction_type, status, amount, original_amount, original_currency, emitter_iban, receiver_iban, reason, idempotency_key, created_at, updated_at, applied_at
`

type UpdateTransactionStatusParams struct {
	ID        string             `json:"id"`
	Status    string             `json:"status"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
	AppliedAt pgtype.Timestamptz `json:"applied_at"`
}

func (q *Queries) UpdateTransactionStatus(ctx context.Context, arg UpdateTransactionStatusParams) (Transaction, error) {
	row := q.db.QueryRow(ctx, updateTransactionStatus,
		arg.ID,
		arg.Status,
		arg.UpdatedAt,
		arg.AppliedAt,
	)
	var i Transaction
	err := row.Scan(
		&i.ID,
		&i.TransactionType,
		&i.Status,
		&i.Amount,
		&i.OriginalAmount,
		&i.OriginalCurrency,
		&i.EmitterIban,
		&i.ReceiverIban,
		&i.Reason,
		&i.IdempotencyKey,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.AppliedAt,
	)
	return i, err
}
