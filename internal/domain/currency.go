package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency is one of the currencies accepted by the ledger.
type Currency string

const (
	CurrencyEuro Currency = "EURO"
	CurrencyUSD  Currency = "USD"
	CurrencyFCFA Currency = "FCFA"

	// CanonicalCurrency is the currency every stored amount is expressed in.
	CanonicalCurrency = CurrencyEuro

	// AmountScale is the number of decimal places kept after conversion.
	AmountScale int32 = 2
)

// Units of each currency per one unit of the canonical currency.
var exchangeRates = map[Currency]decimal.Decimal{
	CurrencyEuro: decimal.NewFromInt(1),
	CurrencyUSD:  decimal.RequireFromString("1.2"),
	CurrencyFCFA: decimal.NewFromInt(656),
}

// ParseCurrency normalizes and checks a currency code.
func ParseCurrency(code string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(code)))
	if !c.IsSupported() {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedCurrency, code)
	}
	return c, nil
}

// IsSupported reports whether c has an exchange rate.
func (c Currency) IsSupported() bool {
	_, ok := exchangeRates[c]
	return ok
}

// Convert expresses amount, given in from, in the canonical currency.
//
// The quotient is rounded to AmountScale places with decimal.Round, which
// rounds half away from zero (half-up for the positive amounts the ledger
// accepts): 1.005 EURO becomes 1.01, 10 USD becomes 8.33.
func Convert(amount decimal.Decimal, from Currency) (decimal.Decimal, error) {
	rate, ok := exchangeRates[from]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnsupportedCurrency, from)
	}
	return amount.Div(rate).Round(AmountScale), nil
}
