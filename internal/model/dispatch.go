package model

import "time"

// Dispatch is a transport status entry recorded against a committed
// booking.  Dispatch rows are strictly downstream of the stock
// ledger: creating one never touches stock quantities.
//
// Fields:
//  ID         – primary key identifier.
//  BookingID  – booking the goods belong to.
//  Status     – free-form status ("loaded", "in transit", "delivered").
//  Vehicle    – vehicle or LR reference.
//  Notes      – optional remarks.
//  CreatedAt  – entry timestamp.
type Dispatch struct {
	ID        uint64    // dispatches.id
	BookingID uint64    // dispatches.booking_id
	Status    string    // dispatches.status
	Vehicle   string    // dispatches.vehicle
	Notes     *string   // dispatches.notes (nullable)
	CreatedAt time.Time // dispatches.created_at
}
