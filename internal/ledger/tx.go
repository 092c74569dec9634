package ledger

import (
	"context"
	"database/sql"
)

// withTx runs fn inside a transaction and guarantees exactly one of
// commit or rollback on every exit path.  fn's error is returned as-is
// (after the rollback) so typed ledger errors pass through untouched;
// begin/commit failures come back as StorageError.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("begin", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return storageErr("commit", err)
	}
	committed = true
	return nil
}
