package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestConvert(t *testing.T) {
	t.Parallel()

	tests := []struct {
		amount   string
		currency Currency
		want     string
	}{
		{"100", CurrencyEuro, "100"},
		{"1.005", CurrencyEuro, "1.01"},
		{"1.004", CurrencyEuro, "1"},
		{"10", CurrencyUSD, "8.33"},
		{"1", CurrencyUSD, "0.83"},
		{"120", CurrencyUSD, "100"},
		{"656", CurrencyFCFA, "1"},
		{"1000", CurrencyFCFA, "1.52"},
		{"0.01", CurrencyFCFA, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.amount+" "+string(tt.currency), func(t *testing.T) {
			got, err := Convert(decimal.RequireFromString(tt.amount), tt.currency)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("Convert(%s %s) = %s, want %s", tt.amount, tt.currency, got, tt.want)
			}
		})
	}
}

func TestConvert_UnsupportedCurrency(t *testing.T) {
	t.Parallel()

	if _, err := Convert(decimal.NewFromInt(1), Currency("GBP")); !errors.Is(err, ErrUnsupportedCurrency) {
		t.Fatalf("expected ErrUnsupportedCurrency, got %v", err)
	}
}

func TestParseCurrency(t *testing.T) {
	t.Parallel()

	for _, code := range []string{"EURO", "euro", " usd ", "Fcfa"} {
		c, err := ParseCurrency(code)
		if err != nil {
			t.Errorf("ParseCurrency(%q): unexpected error %v", code, err)
			continue
		}
		if !c.IsSupported() {
			t.Errorf("ParseCurrency(%q) = %q, not supported", code, c)
		}
	}

	for _, code := range []string{"", "EUR", "XYZ"} {
		if _, err := ParseCurrency(code); !errors.Is(err, ErrUnsupportedCurrency) {
			t.Errorf("ParseCurrency(%q): expected ErrUnsupportedCurrency, got %v", code, err)
		}
	}
}
