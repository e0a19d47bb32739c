package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	IBAN       string          `json:"iban"`
	Name       string          `json:"name"`
	BIC        string          `json:"bic"`
	Currency   string          `json:"currency"`
	Type       string          `json:"accountType"`
	Balance    decimal.Decimal `json:"balance"`
	ParentIBAN *string         `json:"parentIban,omitempty"`
	OwnerID    *string         `json:"ownerId,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		IBAN:       a.IBAN,
		Name:       a.Name,
		BIC:        a.BIC,
		Currency:   string(a.Currency),
		Type:       string(a.Type),
		Balance:    a.Balance,
		ParentIBAN: a.ParentIBAN,
		OwnerID:    a.OwnerID,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// AccountPageResponse is one page of main accounts.
type AccountPageResponse struct {
	Data         []*AccountResponse `json:"data"`
	TotalRecords int                `json:"totalRecords"`
	TotalPages   int                `json:"totalPages"`
	CurrentPage  int                `json:"currentPage"`
	PageSize     int                `json:"pageSize"`
}

// AccountPageFromUseCase converts a use case page to a response.
func AccountPageFromUseCase(p *usecase.AccountPage) *AccountPageResponse {
	return &AccountPageResponse{
		Data:         AccountsFromDomain(p.Accounts),
		TotalRecords: p.TotalRecords,
		TotalPages:   p.TotalPages,
		CurrentPage:  p.CurrentPage,
		PageSize:     p.PageSize,
	}
}

// AccountTreeResponse is a main account with its sub-accounts.
type AccountTreeResponse struct {
	*AccountResponse
	SubAccounts []*AccountResponse `json:"subAccounts"`
}

// AccountTreesFromUseCase converts owner trees to responses.
func AccountTreesFromUseCase(trees []*usecase.AccountTree) []*AccountTreeResponse {
	result := make([]*AccountTreeResponse, len(trees))
	for i, tree := range trees {
		result[i] = &AccountTreeResponse{
			AccountResponse: AccountFromDomain(tree.Account),
			SubAccounts:     AccountsFromDomain(tree.SubAccounts),
		}
	}
	return result
}

// TransactionResponse represents a transaction in API responses.
type TransactionResponse struct {
	ID               string          `json:"id"`
	Type             string          `json:"transactionType"`
	Status           string          `json:"status"`
	Amount           decimal.Decimal `json:"amount"`
	OriginalAmount   decimal.Decimal `json:"originalAmount"`
	OriginalCurrency string          `json:"originalCurrency"`
	EmitterIBAN      *string         `json:"accountIbanEmitter,omitempty"`
	ReceiverIBAN     *string         `json:"accountIbanReceiver,omitempty"`
	Reason           string          `json:"reason,omitempty"`
	IdempotencyKey   *string         `json:"idempotencyKey,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
	AppliedAt        *time.Time      `json:"appliedAt,omitempty"`
}

// TransactionFromDomain converts domain transaction to response.
func TransactionFromDomain(t *domain.Transaction) *TransactionResponse {
	return &TransactionResponse{
		ID:               t.ID,
		Type:             string(t.Type),
		Status:           string(t.Status),
		Amount:           t.Amount,
		OriginalAmount:   t.OriginalAmount,
		OriginalCurrency: string(t.OriginalCurrency),
		EmitterIBAN:      t.EmitterIBAN,
		ReceiverIBAN:     t.ReceiverIBAN,
		Reason:           t.Reason,
		IdempotencyKey:   t.IdempotencyKey,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
		AppliedAt:        t.AppliedAt,
	}
}

// TransactionsFromDomain converts domain transactions to responses.
func TransactionsFromDomain(transactions []*domain.Transaction) []*TransactionResponse {
	result := make([]*TransactionResponse, len(transactions))
	for i, t := range transactions {
		result[i] = TransactionFromDomain(t)
	}
	return result
}

// TransactionPageResponse is one page of a transaction listing.
type TransactionPageResponse struct {
	Data   []*TransactionResponse `json:"data"`
	Total  int                    `json:"total"`
	Limit  int                    `json:"limit"`
	Offset int                    `json:"offset"`
}

// TransactionPageFromUseCase converts a use case page to a response.
func TransactionPageFromUseCase(p *usecase.TransactionPage) *TransactionPageResponse {
	return &TransactionPageResponse{
		Data:   TransactionsFromDomain(p.Transactions),
		Total:  p.Total,
		Limit:  p.Limit,
		Offset: p.Offset,
	}
}

// ReconciliationResponse describes one reconciled account.
type ReconciliationResponse struct {
	IBAN              string          `json:"iban"`
	RecordedBalance   decimal.Decimal `json:"recordedBalance"`
	CalculatedBalance decimal.Decimal `json:"calculatedBalance"`
	Difference        decimal.Decimal `json:"difference"`
	IsReconciled      bool            `json:"isReconciled"`
	LastChecked       time.Time       `json:"lastChecked"`
}

// ReconciliationFromUseCase converts a reconciliation result to a response.
func ReconciliationFromUseCase(r *usecase.ReconciliationResult) *ReconciliationResponse {
	return &ReconciliationResponse{
		IBAN:              r.IBAN,
		RecordedBalance:   r.RecordedBalance,
		CalculatedBalance: r.CalculatedBalance,
		Difference:        r.Difference,
		IsReconciled:      r.IsReconciled,
		LastChecked:       r.LastChecked,
	}
}

// ReconciliationReportResponse summarizes a ledger-wide reconciliation.
type ReconciliationReportResponse struct {
	TotalAccounts      int                       `json:"totalAccounts"`
	ReconciledAccounts int                       `json:"reconciledAccounts"`
	Discrepancies      []*ReconciliationResponse `json:"discrepancies"`
	CheckedAt          time.Time                 `json:"checkedAt"`
}

// ReconciliationReportFromUseCase converts a report to a response.
func ReconciliationReportFromUseCase(r *usecase.ReconciliationReport) *ReconciliationReportResponse {
	discrepancies := make([]*ReconciliationResponse, len(r.Discrepancies))
	for i, d := range r.Discrepancies {
		discrepancies[i] = ReconciliationFromUseCase(d)
	}

	return &ReconciliationReportResponse{
		TotalAccounts:      r.TotalAccounts,
		ReconciledAccounts: r.ReconciledAccounts,
		Discrepancies:      discrepancies,
		CheckedAt:          r.CheckedAt,
	}
}

// UserResponse represents a user in API responses. Credentials never
// leave the service.
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UserFromDomain converts a domain user to a response.
func UserFromDomain(u *domain.User) *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      string(u.Role),
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// AuthResponse carries a signed token and its user.
type AuthResponse struct {
	Token string        `json:"token"`
	User  *UserResponse `json:"user"`
}

// UserPageResponse is one page of users.
type UserPageResponse struct {
	Data         []*UserResponse `json:"data"`
	TotalRecords int             `json:"totalRecords"`
	TotalPages   int             `json:"totalPages"`
	CurrentPage  int             `json:"currentPage"`
	PageSize     int             `json:"pageSize"`
}

// UserPageFromUseCase converts a use case page to a response.
func UserPageFromUseCase(p *usecase.UserPage) *UserPageResponse {
	data := make([]*UserResponse, len(p.Users))
	for i, u := range p.Users {
		data[i] = UserFromDomain(u)
	}
	totalPages := 0
	if p.PageSize > 0 {
		totalPages = (p.Total + p.PageSize - 1) / p.PageSize
	}
	return &UserPageResponse{
		Data:         data,
		TotalRecords: p.Total,
		TotalPages:   totalPages,
		CurrentPage:  p.CurrentPage,
		PageSize:     p.PageSize,
	}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string              `json:"error"`
	Message string              `json:"message,omitempty"`
	Fields  []domain.FieldError `json:"fields,omitempty"`
}
