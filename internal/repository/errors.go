// Package repository defines error values that are reused across multiple
// repositories.  These sentinel values allow higher layers such as the
// ledger coordinators and handlers to distinguish between different failure
// scenarios.  For example, ErrNegativeStock indicates that a requested
// decrement would drive a stock record below zero, while ErrDuplicate
// signals that an insert collided with a uniqueness constraint.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNegativeStock is returned by ApplyDeltaTx when the delta would make
// current_cases negative.  The stock row is left untouched; callers are
// expected to roll back the enclosing transaction.
var ErrNegativeStock = errors.New("negative stock")

// ErrDuplicate is returned when an insert or rename violates a uniqueness
// constraint (duplicate godown name, bill number, brand name or stock
// tuple).  Handlers should translate this into an HTTP 409 response.
var ErrDuplicate = errors.New("duplicate")

// ErrBrandInUse is returned when a brand cannot be deleted because catalog
// products still reference it.
var ErrBrandInUse = errors.New("brand in use")

// MySQL server error numbers this package cares about.
const (
	mysqlErrDuplicateEntry  = 1062 // ER_DUP_ENTRY
	mysqlErrLockWaitTimeout = 1205 // ER_LOCK_WAIT_TIMEOUT
	mysqlErrDeadlock        = 1213 // ER_LOCK_DEADLOCK
)

// IsDuplicateEntry reports whether err is a MySQL duplicate-key violation.
func IsDuplicateEntry(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlErrDuplicateEntry
}

// IsLockContention reports whether err is a lock wait timeout or a deadlock
// victim rollback.  Both leave the transaction aborted and are safe to
// retry from the top.
func IsLockContention(err error) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return false
	}
	return me.Number == mysqlErrLockWaitTimeout || me.Number == mysqlErrDeadlock
}
