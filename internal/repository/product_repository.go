package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/godown-stock-ledger/internal/model"
)

// ProductRepo provides catalog access: product types and products.  The
// catalog is read-mostly reference data consumed by the stock ledger for
// per-case sizes and rates; the ledger never writes to it.  All product
// categories live in one table discriminated by product_type.
type ProductRepo struct {
	db *sql.DB
}

// NewProductRepo returns a new ProductRepo bound to the given database.
func NewProductRepo(db *sql.DB) *ProductRepo { return &ProductRepo{db: db} }

// ListTypes returns all product type names ordered alphabetically.
func (r *ProductRepo) ListTypes(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM product_types ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	types := make([]string, 0)
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return types, nil
}

// CreateType registers a new product type.  The name is normalized the
// same way godown names are.  ErrDuplicate is returned on collision.
func (r *ProductRepo) CreateType(ctx context.Context, name string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO product_types (name) VALUES (?)`, NormalizeName(name))
	if err != nil && IsDuplicateEntry(err) {
		return ErrDuplicate
	}
	return err
}

// DeleteType removes a product type and every catalog product carrying
// it.  Stock and history rows are untouched: quantities already in a
// godown remain auditable even after the catalog entry disappears.
func (r *ProductRepo) DeleteType(ctx context.Context, name string) error {
	formatted := NormalizeName(name)
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	res, err := tx.ExecContext(ctx, `DELETE FROM product_types WHERE name = ?`, formatted)
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
	if _, err := tx.ExecContext(ctx, `DELETE FROM products WHERE product_type = ?`, formatted); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

const productColumns = `id, product_type, serial_number, product_name, price, wprice,
	per, per_case, discount, brand_id, status, fast_running`

func scanProduct(scan func(dest ...any) error) (*model.Product, error) {
	var p model.Product
	var price, wprice, discount string
	err := scan(&p.ID, &p.ProductType, &p.SerialNumber, &p.Name, &price, &wprice,
		&p.Per, &p.PerCase, &discount, &p.BrandID, &p.Status, &p.FastRunning)
	if err != nil {
		return nil, err
	}
	if p.Price, err = decimal.NewFromString(price); err != nil {
		return nil, err
	}
	if p.WPrice, err = decimal.NewFromString(wprice); err != nil {
		return nil, err
	}
	if p.Discount, err = decimal.NewFromString(discount); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a catalog product and returns its ID.
func (r *ProductRepo) Create(ctx context.Context, p *model.Product) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO products (product_type, serial_number, product_name, price, wprice, per, per_case, discount, brand_id, status, fast_running)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ProductType, p.SerialNumber, p.Name, p.Price.StringFixed(2), p.WPrice.StringFixed(2),
		p.Per, p.PerCase, p.Discount.StringFixed(2), p.BrandID, p.Status, p.FastRunning)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Update rewrites a product's mutable fields.  sql.ErrNoRows is returned
// when the product does not exist.
func (r *ProductRepo) Update(ctx context.Context, p *model.Product) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET serial_number = ?, product_name = ?, price = ?, wprice = ?, per = ?,
		        per_case = ?, discount = ?, brand_id = ?, status = ?, fast_running = ?
		 WHERE id = ?`,
		p.SerialNumber, p.Name, p.Price.StringFixed(2), p.WPrice.StringFixed(2), p.Per,
		p.PerCase, p.Discount.StringFixed(2), p.BrandID, p.Status, p.FastRunning, p.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM products WHERE id = ?`, p.ID).Scan(&exists); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a product.  sql.ErrNoRows is returned when nothing was
// deleted.
func (r *ProductRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
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

// ListByType returns all products of one type ordered by serial number.
func (r *ProductRepo) ListByType(ctx context.Context, productType string) ([]model.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE product_type = ? ORDER BY serial_number`,
		NormalizeName(productType))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	products := make([]model.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows.Scan)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

// GetByNameAndBrand resolves a catalog product by type, name and brand
// name (case-insensitive).  The ledger uses this to pick up per_case and
// the wholesale rate when stocking a godown.  sql.ErrNoRows is returned
// when the product is not in the catalog.
func (r *ProductRepo) GetByNameAndBrand(ctx context.Context, productType, productName, brand string) (*model.Product, error) {
	const q = `SELECT ` + productColumns + `
	           FROM products p
	           JOIN brands b ON b.id = p.brand_id
	           WHERE p.product_type = ? AND LOWER(p.product_name) = LOWER(?) AND b.name = ?
	           LIMIT 1`
	row := r.db.QueryRowContext(ctx, q, NormalizeName(productType), productName,
		strings.ToLower(strings.TrimSpace(brand)))
	return scanProduct(row.Scan)
}

// SetStatus flips a product's visibility between "on" and "off".
func (r *ProductRepo) SetStatus(ctx context.Context, id uint64, status string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE products SET status = ? WHERE id = ?`, status, id)
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

// SetFastRunning toggles the fast-running flag.
func (r *ProductRepo) SetFastRunning(ctx context.Context, id uint64, fast bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE products SET fast_running = ? WHERE id = ?`, fast, id)
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
