package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Booking is the persisted sale record produced by a successful
// reservation.  Line items and the charge breakdown are stored as
// JSON snapshots so the bill can be re-rendered later exactly as it
// was computed, even if catalog prices change.
//
// Fields:
//  ID           – primary key identifier.
//  BillNumber   – unique bill number ("BILL-007").
//  BillDate     – bill date (date only).
//  CustomerName – party the goods were sold to.
//  Address      – customer address.
//  GSTIN        – customer tax registration.
//  LRNumber     – lorry receipt number.
//  AgentName    – selling agent, empty for direct sales.
//  FromPlace    – transport origin.
//  ToPlace      – transport destination.
//  Through      – carrier.
//  StockFrom    – godown the stock was drawn from.
//  Items        – JSON snapshot of the processed line items.
//  Total        – grand total after round-off.
//  ExtraCharges – JSON snapshot of flags/percentages used for totals.
//  CreatedAt    – insertion timestamp.
type Booking struct {
	ID           uint64          // bookings.id
	BillNumber   string          // bookings.bill_number
	BillDate     string          // bookings.bill_date
	CustomerName string          // bookings.customer_name
	Address      string          // bookings.address
	GSTIN        string          // bookings.gstin
	LRNumber     string          // bookings.lr_number
	AgentName    string          // bookings.agent_name
	FromPlace    string          // bookings.from_place
	ToPlace      string          // bookings.to_place
	Through      string          // bookings.through
	StockFrom    string          // bookings.stock_from
	Items        string          // bookings.items (JSON)
	Total        decimal.Decimal // bookings.total
	ExtraCharges string          // bookings.extra_charges (JSON)
	CreatedAt    time.Time       // bookings.created_at
}

// CustomerDefaults is the latest booking metadata recorded for a
// customer, used to prefill subsequent bookings.
type CustomerDefaults struct {
	Name      string `json:"name"`
	Address   string `json:"address"`
	GSTIN     string `json:"gstin"`
	LRNumber  string `json:"lr_number"`
	AgentName string `json:"agent_name"`
	FromPlace string `json:"from"`
	ToPlace   string `json:"to"`
	Through   string `json:"through"`
}
