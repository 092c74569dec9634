package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/godown-stock-ledger/internal/model"
)

// GodownRepo provides CRUD operations for godowns (warehouses).  Godown
// names are normalized to lowercase with underscores so that "Main Depot"
// and "main depot" refer to the same warehouse.
type GodownRepo struct {
	db *sql.DB
}

// NewGodownRepo returns a new GodownRepo bound to the given database.
func NewGodownRepo(db *sql.DB) *GodownRepo { return &GodownRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions that
// span several repositories.
func (r *GodownRepo) DB() *sql.DB { return r.db }

// NormalizeName lowercases a godown name and collapses whitespace runs
// into single underscores.  The normalized form is what gets persisted.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(name))), "_")
}

// Create inserts a new godown and returns its ID.  A name collision is
// reported as ErrDuplicate.
func (r *GodownRepo) Create(ctx context.Context, name string) (uint64, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO godowns (name) VALUES (?)`, NormalizeName(name))
	if err != nil {
		if IsDuplicateEntry(err) {
			return 0, ErrDuplicate
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID returns a single godown.  sql.ErrNoRows is returned when the
// godown does not exist.
func (r *GodownRepo) GetByID(ctx context.Context, id uint64) (*model.Godown, error) {
	var g model.Godown
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM godowns WHERE id = ?`, id).
		Scan(&g.ID, &g.Name)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// List returns all godowns ordered by name.
func (r *GodownRepo) List(ctx context.Context) ([]model.Godown, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM godowns ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	godowns := make([]model.Godown, 0)
	for rows.Next() {
		var g model.Godown
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, err
		}
		godowns = append(godowns, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return godowns, nil
}

// ListSummaries returns one aggregate row per godown: total cases on hand
// and the number of stock records.  Godowns with no stock report zeros.
func (r *GodownRepo) ListSummaries(ctx context.Context) ([]model.GodownSummary, error) {
	const q = `SELECT g.id, g.name,
	                  COALESCE(SUM(s.current_cases), 0) AS total_cases,
	                  COUNT(s.id) AS stock_items
	           FROM godowns g
	           LEFT JOIN stock s ON s.godown_id = g.id
	           GROUP BY g.id, g.name
	           ORDER BY g.name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	summaries := make([]model.GodownSummary, 0)
	for rows.Next() {
		var s model.GodownSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.TotalCases, &s.StockItems); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return summaries, nil
}

// Rename updates a godown's name after normalization.  It returns
// ErrDuplicate when another godown already carries the new name and
// sql.ErrNoRows when the godown does not exist.
func (r *GodownRepo) Rename(ctx context.Context, id uint64, name string) (string, error) {
	formatted := NormalizeName(name)
	res, err := r.db.ExecContext(ctx, `UPDATE godowns SET name = ? WHERE id = ?`, formatted, id)
	if err != nil {
		if IsDuplicateEntry(err) {
			return "", ErrDuplicate
		}
		return "", err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "", err
	}
	if n == 0 {
		// Either the godown is missing or the name is unchanged; a second
		// lookup disambiguates.
		var exists int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM godowns WHERE id = ?`, id).Scan(&exists); err != nil {
			return "", err
		}
	}
	return formatted, nil
}

// Delete removes a godown.  Stock records cascade at the database level,
// which in turn cascades their history entries.  sql.ErrNoRows is
// returned when nothing was deleted.
func (r *GodownRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM godowns WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
