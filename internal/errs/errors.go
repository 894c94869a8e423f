package errs

import (
	"errors"
	"fmt"
)

// ErrInvalidProviderResponse indicates the upstream payload did not match the
// expected shape (empty sample list, undecodable body). The decode fails
// closed rather than trusting a partial payload.
var ErrInvalidProviderResponse = errors.New("invalid provider response")

// ProviderError wraps a failed upstream forecast call. StatusCode is zero when
// the failure happened before an HTTP status was received (timeout, transport
// error, open circuit). Body holds the raw response for diagnostics.
type ProviderError struct {
	Provider   string
	StatusCode int
	Body       string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider %s: HTTP %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// StoreErrorKind classifies persistence failures so callers can decide whether
// to retry, report, or ignore.
type StoreErrorKind string

const (
	StoreErrUnique       StoreErrorKind = "unique_violation"
	StoreErrConnectivity StoreErrorKind = "connectivity"
	StoreErrQuery        StoreErrorKind = "query"
)

// StoreError wraps a failed store operation with its classification.
type StoreError struct {
	Kind StoreErrorKind
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Kind, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// AsProviderError reports whether err is (or wraps) a ProviderError.
func AsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	ok := errors.As(err, &pe)
	return pe, ok
}

// AsStoreError reports whether err is (or wraps) a StoreError.
func AsStoreError(err error) (*StoreError, bool) {
	var se *StoreError
	ok := errors.As(err, &se)
	return se, ok
}
