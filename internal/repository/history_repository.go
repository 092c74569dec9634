package repository

import (
	"context"
	"database/sql"
)

// HistoryRepo provides access to the append-only stock_history journal.
// The journal is the source of truth for reconstructing a stock record's
// quantity over time: current_cases must always equal the sum of "added"
// entries minus the sum of "taken" entries.  Deliberately, this type
// exposes no update or delete operation — immutability of the journal is
// structural, not a convention.
type HistoryRepo struct {
	db *sql.DB
}

// NewHistoryRepo returns a new HistoryRepo bound to the given database.
func NewHistoryRepo(db *sql.DB) *HistoryRepo { return &HistoryRepo{db: db} }

// AppendTx writes one journal entry within the caller's transaction.
// perCaseTotal is cases × per_case captured at event time; it is stored
// rather than derived so later per_case edits cannot rewrite history.
// actor may be nil when no customer/agent annotation applies.
func (r *HistoryRepo) AppendTx(ctx context.Context, tx *sql.Tx, stockID uint64, action string, cases, perCaseTotal int64, actor *string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO stock_history (stock_id, action, cases, per_case_total, actor)
		 VALUES (?, ?, ?, ?, ?)`,
		stockID, action, cases, perCaseTotal, actor)
	return err
}

// HistoryDetail is a journal entry joined with the product identity of
// its stock record, as served to clients inspecting a record's history.
type HistoryDetail struct {
	ID           uint64  `json:"id"`
	StockID      uint64  `json:"stock_id"`
	Action       string  `json:"action"`
	Cases        int64   `json:"cases"`
	PerCaseTotal int64   `json:"per_case_total"`
	Date         string  `json:"date"`
	Actor        *string `json:"actor,omitempty"`
	ProductType  string  `json:"product_type"`
	ProductName  string  `json:"product_name"`
	Brand        string  `json:"brand"`
	AgentName    string  `json:"agent_name"`
}

// ListByRecord returns all journal entries for one stock record, newest
// first.  Re-issuing the query yields a consistent snapshot as of call
// time; entries committed afterwards simply appear at the head of the
// next call's result.
func (r *HistoryRepo) ListByRecord(ctx context.Context, stockID uint64) ([]HistoryDetail, error) {
	const q = `SELECT h.id, h.stock_id, h.action, h.cases, h.per_case_total, h.date, h.actor,
	                  s.product_type, s.product_name, s.brand, COALESCE(b.agent_name, '-')
	           FROM stock_history h
	           JOIN stock s ON s.id = h.stock_id
	           LEFT JOIN brands b ON b.name = s.brand
	           WHERE h.stock_id = ?
	           ORDER BY h.date DESC, h.id DESC`
	rows, err := r.db.QueryContext(ctx, q, stockID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := make([]HistoryDetail, 0)
	for rows.Next() {
		var e HistoryDetail
		var date sql.NullTime
		if err := rows.Scan(&e.ID, &e.StockID, &e.Action, &e.Cases, &e.PerCaseTotal, &date, &e.Actor,
			&e.ProductType, &e.ProductName, &e.Brand, &e.AgentName); err != nil {
			return nil, err
		}
		if date.Valid {
			e.Date = date.Time.UTC().Format("2006-01-02 15:04:05")
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// SumByRecordTx totals the journal for one stock record within a
// transaction: added-sum, taken-sum.  Used by integration tests and the
// reconciliation endpoint to verify the ledger invariants.
func (r *HistoryRepo) SumByRecordTx(ctx context.Context, tx *sql.Tx, stockID uint64) (added int64, taken int64, err error) {
	const q = `SELECT
	             COALESCE(SUM(CASE WHEN action = 'added' THEN cases ELSE 0 END), 0),
	             COALESCE(SUM(CASE WHEN action = 'taken' THEN cases ELSE 0 END), 0)
	           FROM stock_history WHERE stock_id = ?`
	err = tx.QueryRowContext(ctx, q, stockID).Scan(&added, &taken)
	return added, taken, err
}
