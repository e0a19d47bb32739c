package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/adapter/http/dto"
	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

type reconciliationServiceStub struct {
	accountFn func(ctx context.Context, iban string) (*usecase.ReconciliationResult, error)
	reportFn  func(ctx context.Context) (*usecase.ReconciliationReport, error)
}

func (s *reconciliationServiceStub) ReconcileAccount(ctx context.Context, iban string) (*usecase.ReconciliationResult, error) {
	return s.accountFn(ctx, iban)
}

func (s *reconciliationServiceStub) GenerateReconciliationReport(ctx context.Context) (*usecase.ReconciliationReport, error) {
	return s.reportFn(ctx)
}

func ledgerRouter(h *LedgerHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/ledger/reconciliation", h.Reconcile)
	r.Get("/ledger/reconciliation/{iban}", h.ReconcileAccount)
	return r
}

func TestLedgerHandler_Reconcile(t *testing.T) {
	tests := []struct {
		name   string
		report *usecase.ReconciliationReport
		err    error
		status int
	}{
		{
			name:   "consistent",
			report: &usecase.ReconciliationReport{TotalAccounts: 3, ReconciledAccounts: 3},
			status: http.StatusOK,
		},
		{
			name: "discrepancy",
			report: &usecase.ReconciliationReport{
				TotalAccounts:      3,
				ReconciledAccounts: 2,
				Discrepancies: []*usecase.ReconciliationResult{{
					IBAN:            "CI-B",
					RecordedBalance: decimal.NewFromInt(5),
					Difference:      decimal.NewFromInt(5),
				}},
			},
			status: http.StatusConflict,
		},
		{
			name:   "store error",
			err:    errors.New("boom"),
			status: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewLedgerHandler(&reconciliationServiceStub{
				reportFn: func(ctx context.Context) (*usecase.ReconciliationReport, error) {
					return tt.report, tt.err
				},
			})

			rec := httptest.NewRecorder()
			ledgerRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ledger/reconciliation", nil))

			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
			if tt.report == nil {
				return
			}

			var resp dto.ReconciliationReportResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.TotalAccounts != tt.report.TotalAccounts || len(resp.Discrepancies) != len(tt.report.Discrepancies) {
				t.Fatalf("unexpected report: %+v", resp)
			}
		})
	}
}

func TestLedgerHandler_ReconcileAccount(t *testing.T) {
	h := NewLedgerHandler(&reconciliationServiceStub{
		accountFn: func(ctx context.Context, iban string) (*usecase.ReconciliationResult, error) {
			switch iban {
			case "CI-OK":
				return &usecase.ReconciliationResult{IBAN: iban, IsReconciled: true}, nil
			case "CI-BAD":
				return &usecase.ReconciliationResult{IBAN: iban, Difference: decimal.NewFromInt(1)}, nil
			}
			return nil, domain.ErrAccountNotFound
		},
	})

	tests := map[string]int{
		"CI-OK":  http.StatusOK,
		"CI-BAD": http.StatusConflict,
		"CI-X":   http.StatusNotFound,
	}
	for iban, want := range tests {
		rec := httptest.NewRecorder()
		ledgerRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ledger/reconciliation/"+iban, nil))
		if rec.Code != want {
			t.Fatalf("%s: expected %d, got %d", iban, want, rec.Code)
		}
	}
}
