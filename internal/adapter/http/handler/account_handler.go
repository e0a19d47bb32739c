package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/bankledger/internal/adapter/http/dto"
	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

// AccountService defines the behavior needed by AccountHandler.
type AccountService interface {
	CreateRootAccount(ctx context.Context, input usecase.CreateRootAccountInput) (*domain.Account, error)
	CreateSubAccount(ctx context.Context, input usecase.CreateSubAccountInput) (*domain.Account, error)
	BlockAccount(ctx context.Context, iban string) (*domain.Account, error)
	UnblockAccount(ctx context.Context, iban string) (*domain.Account, error)
	DeleteAccount(ctx context.Context, iban string) error
	GetAccount(ctx context.Context, iban string) (*domain.Account, error)
	ListRootAccounts(ctx context.Context, input usecase.ListRootAccountsInput) (*usecase.AccountPage, error)
	ListSubAccounts(ctx context.Context, parentIBAN string) ([]*domain.Account, error)
	GetOwnerAccounts(ctx context.Context, ownerID string) ([]*usecase.AccountTree, error)
}

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	accountUC AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountUC AccountService) *AccountHandler {
	return &AccountHandler{accountUC: accountUC}
}

// Create opens a main account.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	var actingID string
	if user := actingUser(r); user != nil && user != domain.SystemUser {
		actingID = user.ID
	}

	account, err := h.accountUC.CreateRootAccount(r.Context(), req.ToUseCaseInput(actingID))
	if err != nil {
		writeDomainError(w, "failed to create account", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.AccountFromDomain(account))
}

// CreateSubAccount attaches a savings or blocked account to a main account.
func (h *AccountHandler) CreateSubAccount(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateSubAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	account, err := h.accountUC.CreateSubAccount(r.Context(), req.ToUseCaseInput(chi.URLParam(r, "iban")))
	if err != nil {
		writeDomainError(w, "failed to create sub-account", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.AccountFromDomain(account))
}

// Get retrieves an account by IBAN.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	iban := chi.URLParam(r, "iban")
	if iban == "" {
		writeError(w, http.StatusBadRequest, "missing account IBAN", "")
		return
	}

	account, err := h.accountUC.GetAccount(r.Context(), iban)
	if err != nil {
		writeDomainError(w, "failed to get account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// List lists main accounts page by page.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.accountUC.ListRootAccounts(r.Context(), usecase.ListRootAccountsInput{
		Page:     parseIntQuery(r, "page", 1),
		PageSize: parseIntQuery(r, "pageSize", 0),
	})
	if err != nil {
		writeDomainError(w, "failed to list accounts", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountPageFromUseCase(page))
}

// ListSubAccounts lists the sub-accounts of a main account.
func (h *AccountHandler) ListSubAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accountUC.ListSubAccounts(r.Context(), chi.URLParam(r, "iban"))
	if err != nil {
		writeDomainError(w, "failed to list sub-accounts", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountsFromDomain(accounts))
}

// ListByOwner lists every account tree of an owner.
func (h *AccountHandler) ListByOwner(w http.ResponseWriter, r *http.Request) {
	trees, err := h.accountUC.GetOwnerAccounts(r.Context(), chi.URLParam(r, "ownerID"))
	if err != nil {
		writeDomainError(w, "failed to list owner accounts", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountTreesFromUseCase(trees))
}

// Block turns a savings sub-account into a blocked one.
func (h *AccountHandler) Block(w http.ResponseWriter, r *http.Request) {
	account, err := h.accountUC.BlockAccount(r.Context(), chi.URLParam(r, "iban"))
	if err != nil {
		writeDomainError(w, "failed to block account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// Unblock turns a blocked sub-account back into a savings one.
func (h *AccountHandler) Unblock(w http.ResponseWriter, r *http.Request) {
	account, err := h.accountUC.UnblockAccount(r.Context(), chi.URLParam(r, "iban"))
	if err != nil {
		writeDomainError(w, "failed to unblock account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// Delete removes an account.
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.accountUC.DeleteAccount(r.Context(), chi.URLParam(r, "iban")); err != nil {
		writeDomainError(w, "failed to delete account", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
