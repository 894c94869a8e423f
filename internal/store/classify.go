package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"

	"github.com/lib/pq"

	"forecastd/internal/errs"
)

// classify wraps a persistence failure as a *errs.StoreError so callers can
// distinguish uniqueness violations, connectivity failures, and generic query
// failures. Never called for sql.ErrNoRows; absence is not an error.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == "23505":
			return &errs.StoreError{Kind: errs.StoreErrUnique, Err: err}
		case pqErr.Code.Class() == "08":
			return &errs.StoreError{Kind: errs.StoreErrConnectivity, Err: err}
		default:
			return &errs.StoreError{Kind: errs.StoreErrQuery, Err: err}
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, context.DeadlineExceeded) {
		return &errs.StoreError{Kind: errs.StoreErrConnectivity, Err: err}
	}

	return &errs.StoreError{Kind: errs.StoreErrQuery, Err: err}
}
