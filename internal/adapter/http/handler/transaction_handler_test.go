package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/bankledger/internal/adapter/http/dto"
	"github.com/iho/bankledger/internal/adapter/repository/memory"
	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
	"github.com/iho/bankledger/internal/usecase/mocks"
)

type transactionServiceStub struct {
	createFn  func(ctx context.Context, input usecase.CreateTransactionInput) (*domain.Transaction, error)
	approveFn func(ctx context.Context, id string, approver *domain.User) (*domain.Transaction, error)
	rejectFn  func(ctx context.Context, id string, approver *domain.User) (*domain.Transaction, error)
	getFn     func(ctx context.Context, id string) (*domain.Transaction, error)
	listFn    func(ctx context.Context, input usecase.ListTransactionsInput) (*usecase.TransactionPage, error)
}

func (s *transactionServiceStub) CreateTransaction(ctx context.Context, input usecase.CreateTransactionInput) (*domain.Transaction, error) {
	return s.createFn(ctx, input)
}

func (s *transactionServiceStub) ApproveTransaction(ctx context.Context, id string, approver *domain.User) (*domain.Transaction, error) {
	return s.approveFn(ctx, id, approver)
}

func (s *transactionServiceStub) RejectTransaction(ctx context.Context, id string, approver *domain.User) (*domain.Transaction, error) {
	return s.rejectFn(ctx, id, approver)
}

func (s *transactionServiceStub) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	return s.getFn(ctx, id)
}

func (s *transactionServiceStub) ListTransactions(ctx context.Context, input usecase.ListTransactionsInput) (*usecase.TransactionPage, error) {
	return s.listFn(ctx, input)
}

func transactionRouter(h *TransactionHandler, user *domain.User) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if user != nil {
				req = req.WithContext(domain.ContextWithUser(req.Context(), user))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Post("/transactions", h.Create)
	r.Get("/transactions", h.List)
	r.Get("/transactions/{id}", h.Get)
	r.Post("/transactions/{id}/approve", h.Approve)
	r.Post("/transactions/{id}/reject", h.Reject)
	return r
}

func testTransaction(status domain.TransactionStatus) *domain.Transaction {
	receiver := "CI-B"
	return &domain.Transaction{
		ID:               "01TX",
		Type:             domain.TransactionTypeCredit,
		Status:           status,
		Amount:           decimal.NewFromInt(10),
		OriginalAmount:   decimal.NewFromInt(10),
		OriginalCurrency: domain.CurrencyEuro,
		ReceiverIBAN:     &receiver,
	}
}

func TestTransactionHandler_Create(t *testing.T) {
	var captured usecase.CreateTransactionInput
	h := NewTransactionHandler(&transactionServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateTransactionInput) (*domain.Transaction, error) {
			captured = input
			if input.RequireApproval {
				return testTransaction(domain.TransactionStatusInProcess), nil
			}
			return testTransaction(domain.TransactionStatusApproved), nil
		},
	})
	router := transactionRouter(h, nil)

	req := httptest.NewRequest(http.MethodPost, "/transactions",
		strings.NewReader(`{"transactionType":"credit","amount":"10.50","currency":"EURO","accountIbanReceiver":"CI-B"}`))
	req.Header.Set(IdempotencyKeyHeader, " key-1 ")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "credit", captured.Type)
	assert.True(t, captured.Amount.Equal(decimal.RequireFromString("10.50")))
	assert.Equal(t, "CI-B", captured.ReceiverIBAN)
	assert.Equal(t, "key-1", captured.IdempotencyKey)

	req = httptest.NewRequest(http.MethodPost, "/transactions",
		strings.NewReader(`{"transactionType":"credit","amount":"10","accountIbanReceiver":"CI-B","requireApproval":true}`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	var resp dto.TransactionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "in_process", resp.Status)
}

func TestTransactionHandler_Create_Errors(t *testing.T) {
	h := NewTransactionHandler(&transactionServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateTransactionInput) (*domain.Transaction, error) {
			switch input.EmitterIBAN {
			case "CI-POOR":
				return nil, domain.ErrInsufficientFunds
			case "CI-DOWN":
				return nil, domain.ErrStoreUnavailable
			}
			return nil, domain.ErrAccountNotFound
		},
	})
	router := transactionRouter(h, nil)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"malformed json", `{"transactionType":`, http.StatusBadRequest},
		{"bad amount", `{"transactionType":"debit","amount":"ten"}`, http.StatusBadRequest},
		{"numeric amount", `{"transactionType":"debit","amount":10,"accountIbanEmitter":"CI-POOR"}`, http.StatusUnprocessableEntity},
		{"insufficient funds", `{"transactionType":"debit","amount":"10","accountIbanEmitter":"CI-POOR"}`, http.StatusUnprocessableEntity},
		{"store down", `{"transactionType":"debit","amount":"10","accountIbanEmitter":"CI-DOWN"}`, http.StatusServiceUnavailable},
		{"unknown account", `{"transactionType":"debit","amount":"10","accountIbanEmitter":"CI-X"}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader(tt.body)))
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestTransactionHandler_Create_ReportsEveryInvalidField(t *testing.T) {
	store := memory.NewStore()
	engine := usecase.NewLedgerUseCase(
		memory.NewTxManager(store),
		memory.NewAccountRepository(store),
		memory.NewTransactionRepository(store),
		mocks.NewMockIDGenerator(),
	)
	router := transactionRouter(NewTransactionHandler(engine), nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader(`{"transactionType":"bogus"}`)))

	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	fields := make([]string, 0, len(resp.Fields))
	for _, f := range resp.Fields {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(t, []string{"transactionType", "amount", "accountIbanEmitter", "accountIbanReceiver"}, fields)
}

func TestTransactionHandler_List(t *testing.T) {
	var captured usecase.ListTransactionsInput
	h := NewTransactionHandler(&transactionServiceStub{
		listFn: func(ctx context.Context, input usecase.ListTransactionsInput) (*usecase.TransactionPage, error) {
			captured = input
			return &usecase.TransactionPage{
				Transactions: []*domain.Transaction{testTransaction(domain.TransactionStatusApproved)},
				Total:        1,
				Limit:        10,
			}, nil
		},
	})
	router := transactionRouter(h, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/transactions?status=approved&transactionType=credit&iban=CI-B&accountType=savings&ownerId=u1&date=2024-03-10&limit=10&offset=5", nil))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "approved", captured.Status)
	assert.Equal(t, "credit", captured.Type)
	assert.Equal(t, "CI-B", captured.AccountIBAN)
	assert.Equal(t, "savings", captured.EmitterAccountType)
	assert.Equal(t, "u1", captured.OwnerID)
	assert.Equal(t, 10, captured.Limit)
	assert.Equal(t, 5, captured.Offset)
	require.NotNil(t, captured.Day)
	assert.True(t, captured.Day.Equal(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)))

	var page dto.TransactionPageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Total)
	assert.Len(t, page.Data, 1)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/transactions?date=yesterday", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTransactionHandler_GetApproveReject(t *testing.T) {
	var approver *domain.User
	h := NewTransactionHandler(&transactionServiceStub{
		getFn: func(ctx context.Context, id string) (*domain.Transaction, error) {
			if id != "01TX" {
				return nil, domain.ErrTransactionNotFound
			}
			return testTransaction(domain.TransactionStatusApproved), nil
		},
		approveFn: func(ctx context.Context, id string, user *domain.User) (*domain.Transaction, error) {
			approver = user
			if user == nil {
				return nil, domain.ErrUnauthorized
			}
			if !user.Role.CanApprove() {
				return nil, domain.ErrInsufficientRole
			}
			return testTransaction(domain.TransactionStatusApproved), nil
		},
		rejectFn: func(ctx context.Context, id string, user *domain.User) (*domain.Transaction, error) {
			return nil, domain.ErrTransactionNotPending
		},
	})

	admin := &domain.User{ID: "admin-1", Role: domain.RoleAdmin}

	rec := httptest.NewRecorder()
	transactionRouter(h, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/transactions/01TX", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	transactionRouter(h, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/transactions/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	transactionRouter(h, admin).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/transactions/01TX/approve", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, approver)
	assert.Equal(t, "admin-1", approver.ID)

	rec = httptest.NewRecorder()
	transactionRouter(h, &domain.User{ID: "v", Role: domain.RoleViewer}).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/transactions/01TX/approve", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	transactionRouter(h, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/transactions/01TX/approve", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	transactionRouter(h, admin).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/transactions/01TX/reject", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
