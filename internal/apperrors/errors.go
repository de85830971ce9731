package apperrors

import (
	"errors"
	"fmt"
)

// Domain entity errors represent missing or invalid entities in the system.
// These errors indicate that a requested resource does not exist.
var (
	// ErrHoldingNotFound indicates that a holding with the given ID does not exist
	// or is not owned by the requesting user.
	ErrHoldingNotFound = errors.New("holding not found")

	// ErrInstrumentNotFound indicates that no instrument is registered under the given symbol.
	ErrInstrumentNotFound = errors.New("instrument not found")

	// ErrUserNotFound indicates that a user with the given ID or email does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrSnapshotNotFound indicates that no portfolio snapshot exists for the requested range.
	ErrSnapshotNotFound = errors.New("portfolio snapshot not found")
)

// Business logic errors represent validation failures or constraint violations.
var (
	// ErrEmailTaken indicates that an account with the same email already exists.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials indicates a login with an unknown email or wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken indicates a bearer token that is malformed or fails verification.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired indicates a bearer token that verified but is past its lifetime.
	ErrTokenExpired = errors.New("token has expired")

	// ErrInvalidDateRange indicates that the provided date range is invalid
	// (e.g., start date is after end date).
	ErrInvalidDateRange = errors.New("invalid date range")
)

// Operation failure errors represent system-level failures when retrieving or processing data.
var (
	// ErrQuoteUnavailable is matched by every *QuoteUnavailableError.
	ErrQuoteUnavailable = errors.New("quote unavailable")

	// ErrStoreUnavailable indicates that the holding store could not be read.
	ErrStoreUnavailable = errors.New("holding store unavailable")

	// ErrSentimentUnavailable indicates that no sentiment classifier is configured.
	ErrSentimentUnavailable = errors.New("sentiment classifier unavailable")
)

// Data integrity errors represent inconsistencies or corruption in the data.
var (
	// ErrDataInconsistency indicates that the data is in an inconsistent state
	// (e.g., a holding references an instrument that doesn't exist).
	ErrDataInconsistency = errors.New("data inconsistency detected")
)

// QuoteUnavailableError reports that no usable live quote could be obtained for Symbol.
// Err carries the underlying cause (transport failure, timeout, non-positive price).
type QuoteUnavailableError struct {
	Symbol string
	Err    error
}

// NewQuoteUnavailable wraps cause as a quote failure for symbol.
func NewQuoteUnavailable(symbol string, cause error) *QuoteUnavailableError {
	return &QuoteUnavailableError{Symbol: symbol, Err: cause}
}

func (e *QuoteUnavailableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("quote unavailable for %s", e.Symbol)
	}
	return fmt.Sprintf("quote unavailable for %s: %v", e.Symbol, e.Err)
}

func (e *QuoteUnavailableError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrQuoteUnavailable) match any symbol.
func (e *QuoteUnavailableError) Is(target error) bool {
	return target == ErrQuoteUnavailable
}
