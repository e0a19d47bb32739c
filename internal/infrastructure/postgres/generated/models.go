package generated

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type Account struct {
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

type Transaction struct {
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

type User struct {
	ID             string             `json:"id"`
	Email          string             `json:"email"`
	Name           string             `json:"name"`
	PasswordHash   string             `json:"password_hash"`
	Role           string             `json:"role"`
	Active         bool               `json:"active"`
	ResetTokenHash pgtype.Text        `json:"reset_token_hash"`
	ResetExpiresAt pgtype.Timestamptz `json:"reset_expires_at"`
	CreatedAt      pgtype.Timestamptz `json:"created_at"`
	UpdatedAt      pgtype.Timestamptz `json:"updated_at"`
}
