package model

import "github.com/shopspring/decimal"

// Product is a catalog entry.  The catalog is read-mostly reference
// data: the ledger consults it for per-case sizes and wholesale
// rates but never mutates it.  All product categories share one
// table with a product_type discriminant column.
//
// Fields:
//  ID           – primary key identifier.
//  ProductType  – category the product belongs to.
//  SerialNumber – catalog serial.
//  Name         – product name.
//  Price        – retail price per box.
//  WPrice       – wholesale price per box.
//  Per          – selling unit ("pieces", "box" or "pkt").
//  PerCase      – units packed per case.
//  Discount     – default discount percentage.
//  BrandID      – owning brand.
//  Status       – "on" when visible, "off" otherwise.
//  FastRunning  – flag for high-volume items.
type Product struct {
	ID           uint64          // products.id
	ProductType  string          // products.product_type
	SerialNumber string          // products.serial_number
	Name         string          // products.product_name
	Price        decimal.Decimal // products.price
	WPrice       decimal.Decimal // products.wprice
	Per          string          // products.per
	PerCase      int64           // products.per_case
	Discount     decimal.Decimal // products.discount
	BrandID      uint64          // products.brand_id
	Status       string          // products.status
	FastRunning  bool            // products.fast_running
}
