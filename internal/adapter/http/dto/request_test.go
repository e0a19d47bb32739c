package dto

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

func TestCreateAccountRequest_ToUseCaseInput(t *testing.T) {
	req := &CreateAccountRequest{Name: "Main", Currency: "USD", BIC: "BICCI001"}

	got := req.ToUseCaseInput("user-1")
	want := usecase.CreateRootAccountInput{Name: "Main", Currency: "USD", BIC: "BICCI001", OwnerID: "user-1"}
	if got != want {
		t.Fatalf("ToUseCaseInput() = %+v, want %+v", got, want)
	}

	req.OwnerID = "customer-9"
	if got := req.ToUseCaseInput("user-1"); got.OwnerID != "customer-9" {
		t.Fatalf("expected explicit owner to win, got %s", got.OwnerID)
	}
}

func TestCreateSubAccountRequest_ToUseCaseInput(t *testing.T) {
	req := &CreateSubAccountRequest{Type: "savings"}

	got := req.ToUseCaseInput("CI-P")
	if got.ParentIBAN != "CI-P" || got.Type != "savings" {
		t.Fatalf("unexpected input: %+v", got)
	}
}

func TestCreateTransactionRequest_ToUseCaseInput(t *testing.T) {
	req := &CreateTransactionRequest{
		Type:         "transfer",
		Amount:       decimal.RequireFromString("12.34"),
		Currency:     "USD",
		EmitterIBAN:  "CI-A",
		ReceiverIBAN: "CI-B",
		Reason:       "rent",
	}
	want := usecase.CreateTransactionInput{
		Type:           "transfer",
		Amount:         decimal.RequireFromString("12.34"),
		Currency:       "USD",
		EmitterIBAN:    "CI-A",
		ReceiverIBAN:   "CI-B",
		Reason:         "rent",
		IdempotencyKey: "key-1",
	}

	got := req.ToUseCaseInput("key-1")
	if !got.Amount.Equal(want.Amount) {
		t.Fatalf("amount = %s, want %s", got.Amount, want.Amount)
	}
	got.Amount = want.Amount
	if got != want {
		t.Fatalf("ToUseCaseInput() = %+v, want %+v", got, want)
	}
}

func TestCreateTransactionRequest_DecodeAmount(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		want        string
		expectError bool
	}{
		{name: "decimal string", body: `{"amount":"12.34"}`, want: "12.34"},
		{name: "json number", body: `{"amount":12.34}`, want: "12.34"},
		{name: "integer number", body: `{"amount":100}`, want: "100"},
		{name: "missing amount", body: `{"transactionType":"credit"}`, want: "0"},
		{name: "malformed amount", body: `{"amount":"12,34"}`, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req CreateTransactionRequest
			err := json.Unmarshal([]byte(tt.body), &req)
			if tt.expectError {
				if err == nil {
					t.Fatal("expected decode error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !req.Amount.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("amount = %s, want %s", req.Amount, tt.want)
			}
		})
	}
}

func TestListTransactionsQuery_ToUseCaseInput(t *testing.T) {
	q := ListTransactionsQuery{Status: "approved", AccountType: "savings", Date: "2024-03-10", Limit: 5}

	got, err := q.ToUseCaseInput()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Day == nil || !got.Day.Equal(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected day: %v", got.Day)
	}
	if got.EmitterAccountType != "savings" || got.Status != "approved" || got.Limit != 5 {
		t.Fatalf("unexpected input: %+v", got)
	}

	q.Date = "10/03/2024"
	if _, err := q.ToUseCaseInput(); !errors.Is(err, domain.ErrValidationFailed) {
		t.Fatalf("expected validation error for bad date, got %v", err)
	}
}
