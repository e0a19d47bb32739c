package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestAccount_ValidateEmit(t *testing.T) {
	tests := []struct {
		name        string
		accountType AccountType
		balance     decimal.Decimal
		amount      decimal.Decimal
		expectError error
	}{
		{
			name:        "amount below balance",
			accountType: AccountTypeCurrent,
			balance:     decimal.NewFromInt(100),
			amount:      decimal.NewFromInt(50),
		},
		{
			name:        "whole balance",
			accountType: AccountTypeSavings,
			balance:     decimal.NewFromInt(100),
			amount:      decimal.NewFromInt(100),
		},
		{
			name:        "more than balance",
			accountType: AccountTypeCurrent,
			balance:     decimal.NewFromInt(100),
			amount:      decimal.RequireFromString("100.01"),
			expectError: ErrInsufficientFunds,
		},
		{
			name:        "blocked account",
			accountType: AccountTypeBlocked,
			balance:     decimal.NewFromInt(100),
			amount:      decimal.NewFromInt(1),
			expectError: ErrEmitterBlocked,
		},
		{
			name:        "blocked wins over funds",
			accountType: AccountTypeBlocked,
			balance:     decimal.Zero,
			amount:      decimal.NewFromInt(1),
			expectError: ErrEmitterBlocked,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := &Account{Type: tt.accountType, Balance: tt.balance}

			err := acc.ValidateEmit(tt.amount)

			if tt.expectError == nil && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tt.expectError != nil && !errors.Is(err, tt.expectError) {
				t.Errorf("expected error %v, got %v", tt.expectError, err)
			}
		})
	}
}

func TestAccountType(t *testing.T) {
	tests := []struct {
		accountType AccountType
		valid       bool
		subAccount  bool
	}{
		{AccountTypeCurrent, true, false},
		{AccountTypeSavings, true, true},
		{AccountTypeBlocked, true, true},
		{AccountType("checking"), false, false},
		{AccountType(""), false, false},
	}

	for _, tt := range tests {
		if got := tt.accountType.IsValid(); got != tt.valid {
			t.Errorf("%q.IsValid() = %v, want %v", tt.accountType, got, tt.valid)
		}
		if got := tt.accountType.IsSubAccountType(); got != tt.subAccount {
			t.Errorf("%q.IsSubAccountType() = %v, want %v", tt.accountType, got, tt.subAccount)
		}
	}
}

func TestAccount_Hierarchy(t *testing.T) {
	parent := &Account{IBAN: "CI-P", Type: AccountTypeCurrent}
	if !parent.IsRoot() || !parent.CanBeParent() {
		t.Errorf("expected current root account to accept sub-accounts")
	}

	child := &Account{IBAN: "CI-C", Type: AccountTypeSavings, ParentIBAN: &parent.IBAN}
	if child.IsRoot() || child.CanBeParent() {
		t.Errorf("expected savings sub-account to be neither root nor parent")
	}
}
