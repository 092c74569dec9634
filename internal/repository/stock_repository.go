package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/godown-stock-ledger/internal/model"
)

// StockRepo is the authoritative store for per-godown stock quantities.
// All quantity mutations go through ApplyDeltaTx while the caller holds
// the row's exclusive lock, acquired via GetForUpdateTx or
// CreateOrGetForUpdateTx.  The repo never mutates quantities outside a
// caller-owned transaction.
type StockRepo struct {
	db *sql.DB
}

// NewStockRepo returns a new StockRepo bound to the given database.
func NewStockRepo(db *sql.DB) *StockRepo { return &StockRepo{db: db} }

// DB exposes the underlying handle so coordinators can open transactions.
func (r *StockRepo) DB() *sql.DB { return r.db }

const stockColumns = `id, godown_id, product_type, product_name, brand, brand_id,
	current_cases, per_case, taken_cases, date_added, last_taken_at`

func scanStock(row *sql.Row) (*model.Stock, error) {
	var s model.Stock
	var brandID sql.NullInt64
	var lastTaken sql.NullTime
	err := row.Scan(&s.ID, &s.GodownID, &s.ProductType, &s.ProductName, &s.Brand, &brandID,
		&s.CurrentCases, &s.PerCase, &s.TakenCases, &s.DateAdded, &lastTaken)
	if err != nil {
		return nil, err
	}
	if brandID.Valid {
		id := uint64(brandID.Int64)
		s.BrandID = &id
	}
	if lastTaken.Valid {
		t := lastTaken.Time
		s.LastTakenAt = &t
	}
	return &s, nil
}

// GetByID returns a stock record without locking it.  sql.ErrNoRows is
// returned when the record does not exist.
func (r *StockRepo) GetByID(ctx context.Context, id uint64) (*model.Stock, error) {
	return scanStock(r.db.QueryRowContext(ctx,
		`SELECT `+stockColumns+` FROM stock WHERE id = ?`, id))
}

// GetByTuple returns the stock record for one
// (godown, product type, product name, brand) combination without
// locking it.  sql.ErrNoRows is returned when no such record exists.
func (r *StockRepo) GetByTuple(ctx context.Context, godownID uint64, productType, productName, brand string) (*model.Stock, error) {
	return scanStock(r.db.QueryRowContext(ctx,
		`SELECT `+stockColumns+` FROM stock
		 WHERE godown_id = ? AND product_type = ? AND product_name = ? AND brand = ?`,
		godownID, productType, productName, brand))
}

// GetForUpdateTx loads a stock record with an exclusive row lock held for
// the remainder of the transaction.  Concurrent callers block here until
// the owning transaction commits or rolls back, which is what serializes
// competing decrements on the same record.
func (r *StockRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Stock, error) {
	return scanStock(tx.QueryRowContext(ctx,
		`SELECT `+stockColumns+` FROM stock WHERE id = ? FOR UPDATE`, id))
}

// CreateOrGetForUpdateTx resolves the stock record for a tuple, creating
// it with zero cases when absent, and returns it locked.  The insert may
// race with a concurrent transaction creating the same tuple; the
// duplicate-key failure from the loser is absorbed by re-selecting the
// winner's row under lock.
func (r *StockRepo) CreateOrGetForUpdateTx(ctx context.Context, tx *sql.Tx, godownID uint64, productType, productName, brand string, brandID uint64, perCase int64) (*model.Stock, error) {
	lock := func() (*model.Stock, error) {
		return scanStock(tx.QueryRowContext(ctx,
			`SELECT `+stockColumns+` FROM stock
			 WHERE godown_id = ? AND product_type = ? AND product_name = ? AND brand = ?
			 FOR UPDATE`,
			godownID, productType, productName, brand))
	}
	s, err := lock()
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO stock (godown_id, product_type, product_name, brand, brand_id, current_cases, per_case)
		 VALUES (?, ?, ?, ?, ?, 0, ?)`,
		godownID, productType, productName, brand, brandID, perCase)
	if err != nil && !IsDuplicateEntry(err) {
		return nil, err
	}
	return lock()
}

// ApplyDeltaTx adjusts a locked stock record by delta cases (negative for
// "taken", positive for "added").  It returns ErrNegativeStock when the
// result would go below zero and leaves the row untouched.  On success
// the passed record is updated in place to reflect the new quantities.
// Callers must pair every successful call with exactly one history append
// in the same transaction.
func (r *StockRepo) ApplyDeltaTx(ctx context.Context, tx *sql.Tx, s *model.Stock, delta int64) error {
	newCases := s.CurrentCases + delta
	if newCases < 0 {
		return ErrNegativeStock
	}
	if delta < 0 {
		newTaken := s.TakenCases - delta
		_, err := tx.ExecContext(ctx,
			`UPDATE stock SET current_cases = ?, taken_cases = ?, last_taken_at = UTC_TIMESTAMP() WHERE id = ?`,
			newCases, newTaken, s.ID)
		if err != nil {
			return err
		}
		s.TakenCases = newTaken
	} else {
		_, err := tx.ExecContext(ctx,
			`UPDATE stock SET current_cases = ?, date_added = UTC_TIMESTAMP() WHERE id = ?`,
			newCases, s.ID)
		if err != nil {
			return err
		}
	}
	s.CurrentCases = newCases
	return nil
}

// StockRow is the listing view of a stock record joined with the brand's
// agent name and the owning godown's name.
type StockRow struct {
	ID           uint64  `json:"id"`
	GodownID     uint64  `json:"godown_id"`
	GodownName   string  `json:"godown_name"`
	ProductType  string  `json:"product_type"`
	ProductName  string  `json:"product_name"`
	Brand        string  `json:"brand"`
	AgentName    string  `json:"agent_name"`
	CurrentCases int64   `json:"current_cases"`
	PerCase      int64   `json:"per_case"`
	TakenCases   int64   `json:"taken_cases"`
	DateAdded    string  `json:"date_added"`
	LastTakenAt  *string `json:"last_taken_at,omitempty"`
}

// ListByGodown returns all stock rows for one godown ordered by product
// type then product name.  Missing agent names render as "-", matching
// the bill layout downstream systems expect.
func (r *StockRepo) ListByGodown(ctx context.Context, godownID uint64) ([]StockRow, error) {
	const q = `SELECT s.id, s.godown_id, g.name, s.product_type, s.product_name, s.brand,
	                  COALESCE(b.agent_name, '-'), s.current_cases, s.per_case, s.taken_cases,
	                  s.date_added, s.last_taken_at
	           FROM stock s
	           JOIN godowns g ON g.id = s.godown_id
	           LEFT JOIN brands b ON b.name = s.brand
	           WHERE s.godown_id = ?
	           ORDER BY s.product_type, s.product_name`
	rows, err := r.db.QueryContext(ctx, q, godownID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]StockRow, 0)
	for rows.Next() {
		var it StockRow
		var dateAdded sql.NullTime
		var lastTaken sql.NullTime
		if err := rows.Scan(&it.ID, &it.GodownID, &it.GodownName, &it.ProductType, &it.ProductName,
			&it.Brand, &it.AgentName, &it.CurrentCases, &it.PerCase, &it.TakenCases,
			&dateAdded, &lastTaken); err != nil {
			return nil, err
		}
		if dateAdded.Valid {
			it.DateAdded = dateAdded.Time.UTC().Format("2006-01-02 15:04:05")
		}
		if lastTaken.Valid {
			s := lastTaken.Time.UTC().Format("2006-01-02 15:04:05")
			it.LastTakenAt = &s
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
