package model

// Godown represents a physical warehouse holding stock.  Names are
// normalized to lowercase with underscores before insertion and are
// unique across the system.  Deleting a godown cascades to its stock
// records at the database level.
//
// Fields:
//  ID   – primary key identifier.
//  Name – unique, normalized godown name.
type Godown struct {
	ID   uint64 // godowns.id
	Name string // godowns.name
}

// GodownSummary is the aggregate view returned by the fast godown
// listing: one row per godown with its total case count and the
// number of distinct stock records it holds.
type GodownSummary struct {
	ID         uint64 `json:"id"`          // godowns.id
	Name       string `json:"name"`        // godowns.name
	TotalCases int64  `json:"total_cases"` // SUM(stock.current_cases)
	StockItems int64  `json:"stock_items"` // COUNT(stock.id)
}
