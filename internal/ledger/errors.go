// Package ledger implements the stock ledger core: the reservation
// coordinator that atomically sells stock across multiple records and the
// bulk allocator that restocks it.  Both are the only writers to the stock
// table and its history journal, and both guarantee that every error
// surfaces only after the enclosing transaction has fully rolled back.
package ledger

import (
	"errors"
	"fmt"

	"github.com/iliyamo/godown-stock-ledger/internal/repository"
)

// ValidationError reports a malformed request.  It is always raised
// before any transaction is opened, so a validation failure is guaranteed
// to have had no effect on stored state.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string { return "validation: " + e.Detail }

// NotFoundError reports that a referenced entity does not exist.
type NotFoundError struct {
	Entity string // "stock", "godown", "booking", ...
	Key    string // identifier as the caller supplied it
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s not found: %s", e.Entity, e.Key) }

// InsufficientStockError reports that a requested quantity exceeds what
// the locked stock record holds.  It names the offending product so
// callers can render a precise message.  The whole operation it aborted
// has been rolled back; no partial decrement survives.
type InsufficientStockError struct {
	StockID     uint64
	ProductName string
	Requested   int64
	Available   int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: %s (available: %d, requested: %d)",
		e.ProductName, e.Available, e.Requested)
}

// ConflictError reports a uniqueness violation, such as a duplicate bill
// number or godown name.
type ConflictError struct {
	Detail string
}

func (e *ConflictError) Error() string { return "conflict: " + e.Detail }

// StorageError reports a transaction-infrastructure failure.  Retryable
// is true for lock wait timeouts and deadlock-victim rollbacks, which a
// caller may safely retry verbatim; every other kind in this package's
// taxonomy must not be retried blindly.
type StorageError struct {
	Op        string
	Retryable bool
	Err       error
}

func (e *StorageError) Error() string {
	if e.Retryable {
		return fmt.Sprintf("storage: %s: %v (retryable)", e.Op, e.Err)
	}
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// storageErr wraps a low-level database error, classifying lock
// contention as retryable.
func storageErr(op string, err error) *StorageError {
	return &StorageError{Op: op, Retryable: repository.IsLockContention(err), Err: err}
}

// IsRetryable reports whether err is a StorageError a caller may retry.
func IsRetryable(err error) bool {
	var se *StorageError
	return errors.As(err, &se) && se.Retryable
}
