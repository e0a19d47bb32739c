package usecase

import (
	"context"
	"time"
)

const (
	// DefaultTransactionTimeout is the maximum duration for a store transaction
	// This prevents long-running transactions from holding account locks
	DefaultTransactionTimeout = 10 * time.Second

	// DefaultIBANPrefix is prepended to generated account identifiers
	DefaultIBANPrefix = "CI"

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour
)

// noRetry runs the operation exactly once.
type noRetry struct{}

func (noRetry) Retry(_ context.Context, operation func() error) error {
	return operation()
}
