package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/iho/bankledger/internal/adapter/http/dto"
	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

// IdempotencyKeyHeader carries the client's retry key for a transaction.
const IdempotencyKeyHeader = "Idempotency-Key"

// TransactionService defines the behavior needed by TransactionHandler.
type TransactionService interface {
	CreateTransaction(ctx context.Context, input usecase.CreateTransactionInput) (*domain.Transaction, error)
	ApproveTransaction(ctx context.Context, id string, approver *domain.User) (*domain.Transaction, error)
	RejectTransaction(ctx context.Context, id string, approver *domain.User) (*domain.Transaction, error)
	GetTransaction(ctx context.Context, id string) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, input usecase.ListTransactionsInput) (*usecase.TransactionPage, error)
}

// TransactionHandler handles credit, debit and transfer requests.
type TransactionHandler struct {
	ledgerUC TransactionService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(ledgerUC TransactionService) *TransactionHandler {
	return &TransactionHandler{ledgerUC: ledgerUC}
}

// Create records a transaction. Immediate transactions answer 201,
// transactions waiting for approval answer 202.
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input := req.ToUseCaseInput(strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader)))

	txn, err := h.ledgerUC.CreateTransaction(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to create transaction", err)
		return
	}

	status := http.StatusCreated
	if txn.Status == domain.TransactionStatusInProcess {
		status = http.StatusAccepted
	}
	writeJSON(w, status, dto.TransactionFromDomain(txn))
}

// Get retrieves a transaction by ID.
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	txn, err := h.ledgerUC.GetTransaction(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get transaction", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(txn))
}

// List lists transactions matching the query filters, newest first.
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	input, err := dto.ListTransactionsQuery{
		Status:      q.Get("status"),
		Type:        q.Get("transactionType"),
		AccountIBAN: q.Get("iban"),
		AccountType: q.Get("accountType"),
		OwnerID:     q.Get("ownerId"),
		Date:        q.Get("date"),
		Limit:       parseIntQuery(r, "limit", 0),
		Offset:      parseIntQuery(r, "offset", 0),
	}.ToUseCaseInput()
	if err != nil {
		writeDomainError(w, "invalid query", err)
		return
	}

	page, err := h.ledgerUC.ListTransactions(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to list transactions", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionPageFromUseCase(page))
}

// Approve applies a transaction waiting for approval.
func (h *TransactionHandler) Approve(w http.ResponseWriter, r *http.Request) {
	txn, err := h.ledgerUC.ApproveTransaction(r.Context(), chi.URLParam(r, "id"), actingUser(r))
	if err != nil {
		writeDomainError(w, "failed to approve transaction", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(txn))
}

// Reject discards a transaction waiting for approval.
func (h *TransactionHandler) Reject(w http.ResponseWriter, r *http.Request) {
	txn, err := h.ledgerUC.RejectTransaction(r.Context(), chi.URLParam(r, "id"), actingUser(r))
	if err != nil {
		writeDomainError(w, "failed to reject transaction", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(txn))
}
