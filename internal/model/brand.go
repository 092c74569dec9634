package model

// Brand is a reference-data row shared by the catalog and the stock
// ledger.  Brand names are stored lowercase.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – unique, lowercase brand name.
//  AgentName – optional selling agent attached to the brand.
type Brand struct {
	ID        uint64  // brands.id
	Name      string  // brands.name
	AgentName *string // brands.agent_name (nullable)
}
