package model

import "time"

// Stock is the authoritative quantity record for one
// (godown, product type, product name, brand) combination.  The
// tuple carries a uniqueness constraint in the database so that a
// given product/brand can appear at most once per godown.
//
// Two invariants are maintained by the ledger package and verified
// by its tests:
//
//  1. CurrentCases never goes below zero.
//  2. CurrentCases equals the sum of all "added" history events
//     minus the sum of all "taken" events for this record, and
//     TakenCases equals the "taken" sum alone.
//
// Fields:
//  ID           – primary key identifier.
//  GodownID     – owning godown.
//  ProductType  – product category discriminant (single table,
//                 no per-category physical tables).
//  ProductName  – product name as stocked.
//  Brand        – brand name as stocked.
//  BrandID      – resolved brand reference (nullable for legacy rows).
//  CurrentCases – cases currently available.
//  PerCase      – units packed per case, fixed at creation.
//  TakenCases   – cumulative lifetime cases removed.
//  DateAdded    – when stock was last added.
//  LastTakenAt  – when stock was last taken (nil until first take).
type Stock struct {
	ID           uint64     // stock.id
	GodownID     uint64     // stock.godown_id
	ProductType  string     // stock.product_type
	ProductName  string     // stock.product_name
	Brand        string     // stock.brand
	BrandID      *uint64    // stock.brand_id (nullable)
	CurrentCases int64      // stock.current_cases
	PerCase      int64      // stock.per_case
	TakenCases   int64      // stock.taken_cases
	DateAdded    time.Time  // stock.date_added
	LastTakenAt  *time.Time // stock.last_taken_at (nullable)
}
