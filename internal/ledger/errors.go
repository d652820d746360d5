package ledger

import (
	"errors"
	"fmt"

	"github.com/mmynk/racha/internal/storage"
)

// Error kinds. Every error returned by Manager wraps exactly one of these;
// use errors.Is to classify.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	// ErrStorage marks failures of the storage backend. They are not domain
	// errors; callers may retry.
	ErrStorage = errors.New("storage error")
)

var (
	ErrTableNotFound   = fmt.Errorf("table %w", ErrNotFound)
	ErrExpenseNotFound = fmt.Errorf("expense %w", ErrNotFound)
	ErrMemberNotFound  = fmt.Errorf("member %w", ErrNotFound)

	// ErrCodeCollision means no free table code was found. Transient; retry.
	ErrCodeCollision = fmt.Errorf("%w: could not generate a unique table code", ErrConflict)
)

// storeError converts a storage error into a ledger error. notFound is the
// ledger error to use when the store reports a missing record.
func storeError(err, notFound error, key string) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("%w: %s", notFound, key)
	case isKind(err):
		// Raised by our own update callback; already classified.
		return err
	default:
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
}

func isKind(err error) bool {
	for _, kind := range []error{ErrNotFound, ErrConflict, ErrInvalidInput, ErrUnauthorized, ErrStorage} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
