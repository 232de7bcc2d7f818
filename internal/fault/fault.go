// Package fault defines the error kinds the order core reports to callers.
// Stores and workflows wrap these sentinels with context via %w; callers
// classify with errors.Is and decide how to present them.
package fault

import "errors"

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotFound      = errors.New("not found")
	ErrOutOfStock    = errors.New("out of stock")
	ErrQuotaExceeded = errors.New("quota exceeded")
	ErrInvalidState  = errors.New("invalid state")
	ErrConflict      = errors.New("conflict")
	ErrUnavailable   = errors.New("store unavailable")
)

var kinds = []error{
	ErrInvalidInput,
	ErrNotFound,
	ErrOutOfStock,
	ErrQuotaExceeded,
	ErrInvalidState,
	ErrConflict,
	ErrUnavailable,
}

// Any reports whether err already carries one of the kinds above.
func Any(err error) bool {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return true
		}
	}
	return false
}
