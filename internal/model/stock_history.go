package model

import "time"

// Stock history actions.  The database column carries a CHECK
// constraint restricting values to this pair.
const (
	ActionAdded = "added" // stock was added (restock / allocation)
	ActionTaken = "taken" // stock was taken (booking / dispatch)
)

// StockHistory is one immutable entry in the append-only quantity
// journal.  Entries are written in the same transaction as the stock
// mutation they describe and are never updated or deleted; the
// repository exposes no method that could do so.
//
// Fields:
//  ID           – primary key identifier.
//  StockID      – the stock record this entry belongs to.
//  Action       – "added" or "taken".
//  Cases        – number of cases moved (always positive).
//  PerCaseTotal – cases × per_case captured at event time; not
//                 recomputed if per_case ever changes.
//  Date         – event timestamp.
//  Actor        – optional customer/agent annotation.
type StockHistory struct {
	ID           uint64    // stock_history.id
	StockID      uint64    // stock_history.stock_id
	Action       string    // stock_history.action
	Cases        int64     // stock_history.cases
	PerCaseTotal int64     // stock_history.per_case_total
	Date         time.Time // stock_history.date
	Actor        *string   // stock_history.actor (nullable)
}
