package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/godown-stock-ledger/internal/model"
)

// BrandRepo provides access to brand reference data.  Brand names are
// stored lowercase; lookups lowercase their input so "Standard" and
// "standard" resolve to the same brand.
type BrandRepo struct {
	db *sql.DB
}

// NewBrandRepo returns a new BrandRepo bound to the given database.
func NewBrandRepo(db *sql.DB) *BrandRepo { return &BrandRepo{db: db} }

// List returns all brands ordered by name.
func (r *BrandRepo) List(ctx context.Context) ([]model.Brand, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, agent_name FROM brands ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	brands := make([]model.Brand, 0)
	for rows.Next() {
		var b model.Brand
		var agent sql.NullString
		if err := rows.Scan(&b.ID, &b.Name, &agent); err != nil {
			return nil, err
		}
		if agent.Valid {
			a := agent.String
			b.AgentName = &a
		}
		brands = append(brands, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return brands, nil
}

// Create inserts a brand with an optional agent name.  ErrDuplicate is
// returned on a name collision.
func (r *BrandRepo) Create(ctx context.Context, name string, agentName *string) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO brands (name, agent_name) VALUES (?, ?)`,
		strings.ToLower(strings.TrimSpace(name)), agentName)
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

// ResolveOrCreateTx returns the ID of the brand with the given name,
// inserting it when absent, all within the caller's transaction.  A
// concurrent insert of the same name is absorbed by re-reading after the
// duplicate-key failure.
func (r *BrandRepo) ResolveOrCreateTx(ctx context.Context, tx *sql.Tx, name string) (uint64, error) {
	formatted := strings.ToLower(strings.TrimSpace(name))
	var id uint64
	err := tx.QueryRowContext(ctx, `SELECT id FROM brands WHERE name = ?`, formatted).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, `INSERT INTO brands (name) VALUES (?)`, formatted)
	if err != nil {
		if IsDuplicateEntry(err) {
			// Lost the race; the winner's row is visible now.
			err = tx.QueryRowContext(ctx, `SELECT id FROM brands WHERE name = ?`, formatted).Scan(&id)
			return id, err
		}
		return 0, err
	}
	newID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(newID), nil
}

// Update renames a brand and/or changes its agent name.  sql.ErrNoRows
// is returned when the brand does not exist and ErrDuplicate when the
// new name is taken.
func (r *BrandRepo) Update(ctx context.Context, id uint64, name string, agentName *string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE brands SET name = ?, agent_name = ? WHERE id = ?`,
		strings.ToLower(strings.TrimSpace(name)), agentName, id)
	if err != nil {
		if IsDuplicateEntry(err) {
			return ErrDuplicate
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM brands WHERE id = ?`, id).Scan(&exists); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a brand.  ErrBrandInUse is returned when catalog
// products still reference it; sql.ErrNoRows when it does not exist.
func (r *BrandRepo) Delete(ctx context.Context, id uint64) error {
	var inUse int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products WHERE brand_id = ?`, id).Scan(&inUse)
	if err != nil {
		return err
	}
	if inUse > 0 {
		return ErrBrandInUse
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM brands WHERE id = ?`, id)
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
