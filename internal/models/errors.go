package models

import "github.com/cockroachdb/errors"

var (
	// ErrInvalidRecord marks a fixture record missing required fields.
	ErrInvalidRecord = errors.New("invalid fixture record")
	// ErrSuspended marks an upstream account suspension or exhausted provider quota.
	ErrSuspended = errors.New("upstream access suspended")
	// ErrBudgetExhausted marks the local API call budget being spent.
	ErrBudgetExhausted = errors.New("api call budget exhausted")
)

// IsFatal reports whether err should stop the poll loop.
func IsFatal(err error) bool {
	return errors.Is(err, ErrSuspended) || errors.Is(err, ErrBudgetExhausted)
}
