package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/godown-stock-ledger/internal/model"
)

// BookingRepo persists bookings (sale records) and serves the customer
// directory derived from them.  Bookings are only ever inserted from
// inside the reservation transaction; there is no update path.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// NextBillNumberTx allocates the next bill number within the caller's
// transaction by inserting into the bill_sequence table and formatting
// the generated id.  Unlike deriving the number from COUNT(*), the
// sequence cannot hand the same number to two concurrent bookings.
func (r *BookingRepo) NextBillNumberTx(ctx context.Context, tx *sql.Tx) (string, error) {
	res, err := tx.ExecContext(ctx, `INSERT INTO bill_sequence () VALUES ()`)
	if err != nil {
		return "", err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("BILL-%03d", id), nil
}

// CreateTx inserts a booking within the caller's transaction and
// populates the generated ID.  A bill number collision surfaces as
// ErrDuplicate.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO bookings (bill_number, bill_date, customer_name, address, gstin, lr_number,
		        agent_name, from_place, to_place, through, stock_from, items, total, extra_charges)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.BillNumber, b.BillDate, b.CustomerName, b.Address, b.GSTIN, b.LRNumber,
		b.AgentName, b.FromPlace, b.ToPlace, b.Through, b.StockFrom, b.Items,
		b.Total.StringFixed(2), b.ExtraCharges)
	if err != nil {
		if IsDuplicateEntry(err) {
			return ErrDuplicate
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// BookingSummary is the listing view of a booking: identity and totals
// without the JSON snapshots.
type BookingSummary struct {
	ID           uint64 `json:"id"`
	BillNumber   string `json:"bill_number"`
	BillDate     string `json:"bill_date"`
	CustomerName string `json:"customer_name"`
	FromPlace    string `json:"from"`
	ToPlace      string `json:"to"`
	Total        string `json:"total"`
	CreatedAt    string `json:"created_at"`
}

// List returns bookings newest first.
func (r *BookingRepo) List(ctx context.Context) ([]BookingSummary, error) {
	const q = `SELECT id, bill_number, bill_date, customer_name, from_place, to_place, total, created_at
	           FROM bookings ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	bookings := make([]BookingSummary, 0)
	for rows.Next() {
		var b BookingSummary
		var billDate, createdAt sql.NullTime
		if err := rows.Scan(&b.ID, &b.BillNumber, &billDate, &b.CustomerName,
			&b.FromPlace, &b.ToPlace, &b.Total, &createdAt); err != nil {
			return nil, err
		}
		if billDate.Valid {
			b.BillDate = billDate.Time.UTC().Format("2006-01-02")
		}
		if createdAt.Valid {
			b.CreatedAt = createdAt.Time.UTC().Format("2006-01-02 15:04:05")
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bookings, nil
}

// GetByID returns one booking with its full JSON snapshots.
// sql.ErrNoRows is returned when the booking does not exist.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	const q = `SELECT id, bill_number, bill_date, customer_name, address, gstin, lr_number,
	                  agent_name, from_place, to_place, through, stock_from, items, total,
	                  extra_charges, created_at
	           FROM bookings WHERE id = ?`
	var b model.Booking
	var billDate sql.NullTime
	var total string
	err := r.db.QueryRowContext(ctx, q, id).Scan(&b.ID, &b.BillNumber, &billDate, &b.CustomerName,
		&b.Address, &b.GSTIN, &b.LRNumber, &b.AgentName, &b.FromPlace, &b.ToPlace, &b.Through,
		&b.StockFrom, &b.Items, &total, &b.ExtraCharges, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	if billDate.Valid {
		b.BillDate = billDate.Time.UTC().Format("2006-01-02")
	}
	if b.Total, err = decimal.NewFromString(total); err != nil {
		return nil, err
	}
	return &b, nil
}

// Customers returns the most recent metadata recorded for each distinct
// customer, for prefilling new bookings.
func (r *BookingRepo) Customers(ctx context.Context) ([]model.CustomerDefaults, error) {
	// MySQL has no DISTINCT ON; the self-join keeps only each customer's
	// latest booking row.
	const q = `SELECT b.customer_name, b.address, b.gstin, b.lr_number, b.agent_name,
	                  b.from_place, b.to_place, b.through
	           FROM bookings b
	           JOIN (SELECT customer_name, MAX(id) AS max_id
	                 FROM bookings
	                 WHERE customer_name <> ''
	                 GROUP BY customer_name) latest
	             ON latest.max_id = b.id
	           ORDER BY b.customer_name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	customers := make([]model.CustomerDefaults, 0)
	for rows.Next() {
		var c model.CustomerDefaults
		if err := rows.Scan(&c.Name, &c.Address, &c.GSTIN, &c.LRNumber, &c.AgentName,
			&c.FromPlace, &c.ToPlace, &c.Through); err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return customers, nil
}
