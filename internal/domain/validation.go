package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidAccountName = errors.New("invalid account name")
)

// Validation constants
const (
	MaxAccountNameLength = 255
	MinAccountNameLength = 1
	MaxTransactionAmount = "1000000000000" // 1 trillion
)

var maxTransactionAmount = decimal.RequireFromString(MaxTransactionAmount)

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every invalid field of a request.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Field + " " + f.Message
	}
	return ErrValidationFailed.Error() + ": " + strings.Join(msgs, "; ")
}

// Is makes errors.Is(err, ErrValidationFailed) hold.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// TransactionFields is the raw shape of a create-transaction request.
type TransactionFields struct {
	Type           string          `json:"transactionType"     validate:"required,oneof=credit debit transfer"`
	Amount         decimal.Decimal `json:"amount"              validate:"positive_amount,max_amount"`
	Currency       string          `json:"currency"            validate:"omitempty,oneof=EURO USD FCFA"`
	EmitterIBAN    string          `json:"accountIbanEmitter"  validate:"omitempty,max=64"`
	ReceiverIBAN   string          `json:"accountIbanReceiver" validate:"omitempty,max=64"`
	Reason         string          `json:"reason"              validate:"omitempty,max=255"`
	IdempotencyKey string          `json:"idempotencyKey"      validate:"omitempty,max=128"`
}

// AccountFields is the raw shape of a create-account request.
type AccountFields struct {
	Name     string `json:"name"     validate:"required,max=255"`
	Currency string `json:"currency" validate:"required,oneof=EURO USD FCFA"`
	BIC      string `json:"bic"      validate:"required,alphanum,max=11"`
}

// UserFields is the raw shape of a signup request.
type UserFields struct {
	Name     string `json:"name"     validate:"required,min=3,max=100"`
	Email    string `json:"email"    validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72,password_strength"`
}

type passwordFields struct {
	Password string `json:"password" validate:"required,min=8,max=72,password_strength"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	// Decimals are validated through their string form.
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	_ = v.RegisterValidation("positive_amount", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && d.IsPositive()
	})
	_ = v.RegisterValidation("max_amount", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && d.LessThanOrEqual(maxTransactionAmount)
	})

	_ = v.RegisterValidation("password_strength", func(fl validator.FieldLevel) bool {
		var upper, lower, digit bool
		for _, r := range fl.Field().String() {
			switch {
			case unicode.IsUpper(r):
				upper = true
			case unicode.IsLower(r):
				lower = true
			case unicode.IsDigit(r):
				digit = true
			}
		}
		return upper && lower && digit
	})

	v.RegisterStructValidation(transactionStructLevel, TransactionFields{})

	return v
}

// transactionStructLevel enforces the per-type required parties.
func transactionStructLevel(sl validator.StructLevel) {
	f := sl.Current().Interface().(TransactionFields)

	switch TransactionType(f.Type) {
	case TransactionTypeCredit:
		if f.ReceiverIBAN == "" {
			sl.ReportError(f.ReceiverIBAN, "accountIbanReceiver", "ReceiverIBAN", "required", "")
		}
	case TransactionTypeDebit:
		if f.EmitterIBAN == "" {
			sl.ReportError(f.EmitterIBAN, "accountIbanEmitter", "EmitterIBAN", "required", "")
		}
		if f.Currency != "" && Currency(f.Currency) != CanonicalCurrency {
			sl.ReportError(f.Currency, "currency", "Currency", "canonical", string(CanonicalCurrency))
		}
	case TransactionTypeTransfer:
		if f.EmitterIBAN == "" {
			sl.ReportError(f.EmitterIBAN, "accountIbanEmitter", "EmitterIBAN", "required", "")
		}
		if f.ReceiverIBAN == "" {
			sl.ReportError(f.ReceiverIBAN, "accountIbanReceiver", "ReceiverIBAN", "required", "")
		}
		if f.EmitterIBAN != "" && f.EmitterIBAN == f.ReceiverIBAN {
			sl.ReportError(f.ReceiverIBAN, "accountIbanReceiver", "ReceiverIBAN", "nefield", "accountIbanEmitter")
		}
	default:
		// Unknown type: at least one party is still required.
		if f.EmitterIBAN == "" && f.ReceiverIBAN == "" {
			sl.ReportError(f.EmitterIBAN, "accountIbanEmitter", "EmitterIBAN", "required", "")
			sl.ReportError(f.ReceiverIBAN, "accountIbanReceiver", "ReceiverIBAN", "required", "")
		}
	}
}

// ValidateTransactionRequest checks every field of f and, when all of them
// are valid, returns the typed request for its transaction type.
func ValidateTransactionRequest(f TransactionFields) (TransactionRequest, error) {
	f.Type = strings.ToLower(strings.TrimSpace(f.Type))
	f.Currency = strings.ToUpper(strings.TrimSpace(f.Currency))
	f.EmitterIBAN = strings.TrimSpace(f.EmitterIBAN)
	f.ReceiverIBAN = strings.TrimSpace(f.ReceiverIBAN)

	if err := validateStruct(f); err != nil {
		return nil, err
	}

	currency := CanonicalCurrency
	if f.Currency != "" {
		currency = Currency(f.Currency)
	}

	switch TransactionType(f.Type) {
	case TransactionTypeCredit:
		return CreditRequest{Receiver: f.ReceiverIBAN, Amount: f.Amount, Currency: currency}, nil
	case TransactionTypeDebit:
		return DebitRequest{Emitter: f.EmitterIBAN, Amount: f.Amount}, nil
	default:
		return TransferRequest{
			Emitter:  f.EmitterIBAN,
			Receiver: f.ReceiverIBAN,
			Amount:   f.Amount,
			Currency: currency,
		}, nil
	}
}

// ValidateAccountFields checks a create-account request.
func ValidateAccountFields(f AccountFields) error {
	f.Currency = strings.ToUpper(strings.TrimSpace(f.Currency))

	var fields []FieldError
	if err := validateStruct(f); err != nil {
		var verr *ValidationError
		if !errors.As(err, &verr) {
			return err
		}
		fields = verr.Fields
	}

	if !hasField(fields, "name") {
		if err := ValidateAccountName(f.Name); err != nil {
			msg := strings.TrimPrefix(err.Error(), ErrInvalidAccountName.Error()+": ")
			fields = append(fields, FieldError{Field: "name", Message: msg})
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateUserFields checks a signup request.
func ValidateUserFields(f UserFields) error {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = NormalizeEmail(f.Email)
	return validateStruct(f)
}

// ValidatePassword checks the strength of a new password.
func ValidatePassword(password string) error {
	return validateStruct(passwordFields{Password: password})
}

func hasField(fields []FieldError, name string) bool {
	for _, f := range fields {
		if f.Field == name {
			return true
		}
	}
	return false
}

func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "positive_amount":
		return "must be strictly positive"
	case "max_amount":
		return "must not exceed " + MaxTransactionAmount
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "email":
		return "must be a valid email address"
	case "password_strength":
		return "must contain uppercase, lowercase and digits"
	case "alphanum":
		return "must contain only letters and digits"
	case "canonical":
		return "debit amounts must be expressed in " + fe.Param()
	case "nefield":
		return "must differ from " + fe.Param()
	default:
		return "is invalid"
	}
}

// ValidateAccountName validates account name
func ValidateAccountName(name string) error {
	name = strings.TrimSpace(name)

	if len(name) < MinAccountNameLength {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidAccountName)
	}

	if len(name) > MaxAccountNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidAccountName, MaxAccountNameLength)
	}

	// Check for SQL injection attempts
	dangerous := []string{"--", "/*", "*/", ";", "DROP", "DELETE", "INSERT", "UPDATE"}
	nameUpper := strings.ToUpper(name)
	for _, pattern := range dangerous {
		if strings.Contains(nameUpper, pattern) {
			return fmt.Errorf("%w: contains forbidden characters", ErrInvalidAccountName)
		}
	}

	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int) {
	const MaxPageSize = 100
	const DefaultPageSize = 20

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
