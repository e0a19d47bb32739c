package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the discriminant of a transaction.
type TransactionType string

const (
	TransactionTypeCredit   TransactionType = "credit"
	TransactionTypeDebit    TransactionType = "debit"
	TransactionTypeTransfer TransactionType = "transfer"
)

// IsValid reports whether t is a known transaction type.
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeCredit, TransactionTypeDebit, TransactionTypeTransfer:
		return true
	}
	return false
}

// TransactionStatus tracks the approval workflow of a transaction.
type TransactionStatus string

const (
	TransactionStatusInProcess TransactionStatus = "in_process"
	TransactionStatusApproved  TransactionStatus = "approved"
	TransactionStatusRejected  TransactionStatus = "rejected"
)

// IsValid reports whether s is a known status.
func (s TransactionStatus) IsValid() bool {
	switch s {
	case TransactionStatusInProcess, TransactionStatusApproved, TransactionStatusRejected:
		return true
	}
	return false
}

// Transaction is a persisted movement of funds on one or two accounts.
// Amount is always expressed in the canonical currency.
type Transaction struct {
	CreatedAt        time.Time
	UpdatedAt        time.Time
	AppliedAt        *time.Time
	EmitterIBAN      *string
	ReceiverIBAN     *string
	IdempotencyKey   *string
	ID               string
	Reason           string
	Type             TransactionType
	Status           TransactionStatus
	OriginalCurrency Currency
	Amount           decimal.Decimal
	OriginalAmount   decimal.Decimal
}

// IsApplied reports whether the balance effects have been written.
func (t *Transaction) IsApplied() bool {
	return t.AppliedAt != nil
}

// AccountIBANs returns the IBANs the transaction touches.
func (t *Transaction) AccountIBANs() []string {
	var ibans []string
	if t.EmitterIBAN != nil {
		ibans = append(ibans, *t.EmitterIBAN)
	}
	if t.ReceiverIBAN != nil && (t.EmitterIBAN == nil || *t.ReceiverIBAN != *t.EmitterIBAN) {
		ibans = append(ibans, *t.ReceiverIBAN)
	}
	return ibans
}

// SameRequest reports whether t and other were created from the same
// request: same type, parties and amounts. Status and timestamps are ignored.
func (t *Transaction) SameRequest(other *Transaction) bool {
	return t.Type == other.Type &&
		t.Amount.Equal(other.Amount) &&
		t.OriginalAmount.Equal(other.OriginalAmount) &&
		t.OriginalCurrency == other.OriginalCurrency &&
		deref(t.EmitterIBAN) == deref(other.EmitterIBAN) &&
		deref(t.ReceiverIBAN) == deref(other.ReceiverIBAN)
}

// Request returns the typed request equivalent of a stored transaction, used
// to replay its balance effects when a deferred transaction is approved.
func (t *Transaction) Request() TransactionRequest {
	switch t.Type {
	case TransactionTypeCredit:
		return CreditRequest{Receiver: deref(t.ReceiverIBAN), Amount: t.Amount, Currency: CanonicalCurrency}
	case TransactionTypeDebit:
		return DebitRequest{Emitter: deref(t.EmitterIBAN), Amount: t.Amount}
	case TransactionTypeTransfer:
		return TransferRequest{
			Emitter:  deref(t.EmitterIBAN),
			Receiver: deref(t.ReceiverIBAN),
			Amount:   t.Amount,
			Currency: CanonicalCurrency,
		}
	}
	return nil
}

// TransactionRequest is a validated transaction request. Only CreditRequest,
// DebitRequest and TransferRequest implement it.
type TransactionRequest interface {
	Type() TransactionType
	isTransactionRequest()
}

// CreditRequest adds funds to a receiver.
type CreditRequest struct {
	Receiver string
	Currency Currency
	Amount   decimal.Decimal
}

// DebitRequest removes funds from an emitter. The amount is taken at face
// value in the canonical currency.
type DebitRequest struct {
	Emitter string
	Amount  decimal.Decimal
}

// TransferRequest moves funds from an emitter to a receiver.
type TransferRequest struct {
	Emitter  string
	Receiver string
	Currency Currency
	Amount   decimal.Decimal
}

func (CreditRequest) Type() TransactionType   { return TransactionTypeCredit }
func (DebitRequest) Type() TransactionType    { return TransactionTypeDebit }
func (TransferRequest) Type() TransactionType { return TransactionTypeTransfer }

func (CreditRequest) isTransactionRequest()   {}
func (DebitRequest) isTransactionRequest()    {}
func (TransferRequest) isTransactionRequest() {}

// TransactionFilter narrows transaction listings. Zero values match all.
type TransactionFilter struct {
	CreatedFrom        *time.Time
	CreatedTo          *time.Time
	Status             TransactionStatus
	Type               TransactionType
	AccountIBAN        string
	EmitterAccountType AccountType
	OwnerID            string
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
