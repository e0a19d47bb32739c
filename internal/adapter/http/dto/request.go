package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

// CreateAccountRequest represents a request to create a main account.
type CreateAccountRequest struct {
	Name     string `json:"name"`
	Currency string `json:"currency"`
	BIC      string `json:"bic"`
	OwnerID  string `json:"ownerId,omitempty"`
}

// ToUseCaseInput converts to use case input. An empty OwnerID is filled
// with the acting user.
func (r *CreateAccountRequest) ToUseCaseInput(actingUserID string) usecase.CreateRootAccountInput {
	owner := r.OwnerID
	if owner == "" {
		owner = actingUserID
	}

	return usecase.CreateRootAccountInput{
		Name:     r.Name,
		Currency: r.Currency,
		BIC:      r.BIC,
		OwnerID:  owner,
	}
}

// CreateSubAccountRequest represents a request to attach a sub-account.
type CreateSubAccountRequest struct {
	Type string `json:"accountType"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateSubAccountRequest) ToUseCaseInput(parentIBAN string) usecase.CreateSubAccountInput {
	return usecase.CreateSubAccountInput{
		ParentIBAN: parentIBAN,
		Type:       r.Type,
	}
}

// CreateTransactionRequest represents a request to create a transaction.
// Amount accepts either a JSON number or a decimal string.
type CreateTransactionRequest struct {
	Type            string          `json:"transactionType"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency,omitempty"`
	EmitterIBAN     string          `json:"accountIbanEmitter,omitempty"`
	ReceiverIBAN    string          `json:"accountIbanReceiver,omitempty"`
	Reason          string          `json:"reason,omitempty"`
	RequireApproval bool            `json:"requireApproval,omitempty"`
}

// ToUseCaseInput converts to use case input. idempotencyKey comes from the
// Idempotency-Key header.
func (r *CreateTransactionRequest) ToUseCaseInput(idempotencyKey string) usecase.CreateTransactionInput {
	return usecase.CreateTransactionInput{
		Type:            r.Type,
		Amount:          r.Amount,
		Currency:        r.Currency,
		EmitterIBAN:     r.EmitterIBAN,
		ReceiverIBAN:    r.ReceiverIBAN,
		Reason:          r.Reason,
		IdempotencyKey:  idempotencyKey,
		RequireApproval: r.RequireApproval,
	}
}

// ListTransactionsQuery holds the query parameters of a transaction listing.
type ListTransactionsQuery struct {
	Status      string
	Type        string
	AccountIBAN string
	AccountType string
	OwnerID     string
	Date        string
	Limit       int
	Offset      int
}

// ToUseCaseInput converts to use case input. Date must be YYYY-MM-DD.
func (q ListTransactionsQuery) ToUseCaseInput() (usecase.ListTransactionsInput, error) {
	input := usecase.ListTransactionsInput{
		Status:             q.Status,
		Type:               q.Type,
		AccountIBAN:        q.AccountIBAN,
		EmitterAccountType: q.AccountType,
		OwnerID:            q.OwnerID,
		Limit:              q.Limit,
		Offset:             q.Offset,
	}

	if q.Date != "" {
		day, err := time.Parse(time.DateOnly, q.Date)
		if err != nil {
			return input, &domain.ValidationError{Fields: []domain.FieldError{
				{Field: "date", Message: "must be formatted as YYYY-MM-DD"},
			}}
		}
		input.Day = &day
	}

	return input, nil
}

// SignupRequest represents a self-service registration.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ToUseCaseInput converts to use case input.
func (r *SignupRequest) ToUseCaseInput() usecase.CreateUserInput {
	return usecase.CreateUserInput{Name: r.Name, Email: r.Email, Password: r.Password}
}

// LoginRequest represents login credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ForgotPasswordRequest asks for a password reset token.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest sets a new password with a reset token.
type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// UpdateUserRequest represents an admin change to a user.
type UpdateUserRequest struct {
	Name   *string `json:"name,omitempty"`
	Role   *string `json:"role,omitempty"`
	Active *bool   `json:"active,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *UpdateUserRequest) ToUseCaseInput(id string) usecase.UpdateUserInput {
	return usecase.UpdateUserInput{ID: id, Name: r.Name, Role: r.Role, Active: r.Active}
}
