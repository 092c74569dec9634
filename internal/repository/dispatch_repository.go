package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/godown-stock-ledger/internal/model"
)

// DispatchRepo records transport status entries against committed
// bookings.  Dispatch rows never feed back into stock quantities.
type DispatchRepo struct {
	db *sql.DB
}

// NewDispatchRepo returns a new DispatchRepo bound to the given database.
func NewDispatchRepo(db *sql.DB) *DispatchRepo { return &DispatchRepo{db: db} }

// Create inserts a dispatch entry and returns its ID.
func (r *DispatchRepo) Create(ctx context.Context, d *model.Dispatch) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO dispatches (booking_id, status, vehicle, notes) VALUES (?, ?, ?, ?)`,
		d.BookingID, d.Status, d.Vehicle, d.Notes)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// List returns all dispatch entries newest first.
func (r *DispatchRepo) List(ctx context.Context) ([]model.Dispatch, error) {
	return r.query(ctx, `SELECT id, booking_id, status, vehicle, notes, created_at
	                     FROM dispatches ORDER BY created_at DESC, id DESC`)
}

// ListByBooking returns the dispatch entries for one booking, newest
// first.
func (r *DispatchRepo) ListByBooking(ctx context.Context, bookingID uint64) ([]model.Dispatch, error) {
	return r.query(ctx, `SELECT id, booking_id, status, vehicle, notes, created_at
	                     FROM dispatches WHERE booking_id = ? ORDER BY created_at DESC, id DESC`, bookingID)
}

func (r *DispatchRepo) query(ctx context.Context, q string, args ...any) ([]model.Dispatch, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	dispatches := make([]model.Dispatch, 0)
	for rows.Next() {
		var d model.Dispatch
		var notes sql.NullString
		if err := rows.Scan(&d.ID, &d.BookingID, &d.Status, &d.Vehicle, &notes, &d.CreatedAt); err != nil {
			return nil, err
		}
		if notes.Valid {
			n := notes.String
			d.Notes = &n
		}
		dispatches = append(dispatches, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return dispatches, nil
}
