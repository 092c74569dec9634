package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/iliyamo/godown-stock-ledger/internal/model"
	"github.com/iliyamo/godown-stock-ledger/internal/repository"
)

// AllocationEntry is one requested restock row: the target tuple, the
// per-case size to use if the stock record has to be created, and the
// number of cases to add.
type AllocationEntry struct {
	GodownID    uint64 `json:"godown_id"`
	ProductType string `json:"product_type"`
	ProductName string `json:"productname"`
	Brand       string `json:"brand"`
	PerCase     int64  `json:"per_case"`
	CasesAdded  int64  `json:"cases_added"`
}

// AppliedEntry describes one restock row that took effect.
type AppliedEntry struct {
	GodownID    uint64 `json:"godown_id"`
	StockID     uint64 `json:"stock_id"`
	ProductName string `json:"productname"`
	Brand       string `json:"brand"`
	CasesAdded  int64  `json:"cases_added"`
}

// SkippedEntry names a rejected row and why.  Skips are per-row policy,
// not failures: a skipped row does not abort the batch.
type SkippedEntry struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// AllocationResult distinguishes rows actually applied from rows the
// batch tolerated and skipped.
type AllocationResult struct {
	AppliedCount int            `json:"applied_count"`
	Applied      []AppliedEntry `json:"applied"`
	Skipped      []SkippedEntry `json:"skipped"`
}

// Allocator orchestrates batch restocks.  The whole batch commits or
// rolls back as one transaction: malformed rows are skipped without
// aborting, but an infrastructure failure on any row undoes every row.
type Allocator struct {
	db      *sql.DB
	stocks  *repository.StockRepo
	history *repository.HistoryRepo
	brands  *repository.BrandRepo
}

// NewAllocator constructs an Allocator.  All dependencies must be
// non-nil.
func NewAllocator(db *sql.DB, stocks *repository.StockRepo, history *repository.HistoryRepo, brands *repository.BrandRepo) *Allocator {
	if db == nil || stocks == nil || history == nil || brands == nil {
		panic("nil dependency passed to NewAllocator")
	}
	return &Allocator{db: db, stocks: stocks, history: history, brands: brands}
}

// skipReason returns a non-empty reason when the entry must be skipped.
func skipReason(e AllocationEntry) string {
	switch {
	case e.CasesAdded <= 0:
		return "cases_added must be > 0"
	case e.GodownID == 0:
		return "godown_id is required"
	case e.ProductType == "" || e.ProductName == "" || e.Brand == "":
		return "product_type, productname and brand are required"
	case e.PerCase <= 0:
		return "per_case must be > 0"
	}
	return ""
}

// Allocate applies a batch of restock rows in one transaction.  For each
// valid row it resolves or creates the brand, resolves or creates the
// stock record for the tuple (locked for the rest of the transaction),
// applies a positive delta and appends one "added" history entry.  Rows
// failing the per-row checks are reported in Skipped.  An empty batch is
// rejected before any transaction is opened.
func (a *Allocator) Allocate(ctx context.Context, entries []AllocationEntry) (*AllocationResult, error) {
	if len(entries) == 0 {
		return nil, &ValidationError{Detail: "no allocations"}
	}

	result := &AllocationResult{
		Applied: make([]AppliedEntry, 0, len(entries)),
		Skipped: make([]SkippedEntry, 0),
	}
	// Rows are processed in deterministic tuple order, not input order, so
	// two concurrent batches touching the same tuples acquire their locks
	// in the same sequence.  Skip reports still carry input indexes.
	order := make([]int, len(entries))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(x, y int) bool {
		ex, ey := entries[order[x]], entries[order[y]]
		if ex.GodownID != ey.GodownID {
			return ex.GodownID < ey.GodownID
		}
		if ex.ProductType != ey.ProductType {
			return ex.ProductType < ey.ProductType
		}
		if ex.ProductName != ey.ProductName {
			return ex.ProductName < ey.ProductName
		}
		return ex.Brand < ey.Brand
	})
	err := withTx(ctx, a.db, func(tx *sql.Tx) error {
		for _, i := range order {
			e := entries[i]
			if reason := skipReason(e); reason != "" {
				result.Skipped = append(result.Skipped, SkippedEntry{Index: i, Reason: reason})
				continue
			}
			brandID, err := a.brands.ResolveOrCreateTx(ctx, tx, e.Brand)
			if err != nil {
				return storageErr("resolve brand", err)
			}
			rec, err := a.stocks.CreateOrGetForUpdateTx(ctx, tx, e.GodownID, e.ProductType, e.ProductName, e.Brand, brandID, e.PerCase)
			if err != nil {
				return storageErr("resolve stock", err)
			}
			if err := a.stocks.ApplyDeltaTx(ctx, tx, rec, e.CasesAdded); err != nil {
				return storageErr("apply delta", err)
			}
			// Unit total uses the record's per_case: for a fresh record that
			// is the entry's value, for an existing record the size fixed at
			// creation wins.
			if err := a.history.AppendTx(ctx, tx, rec.ID, model.ActionAdded, e.CasesAdded, e.CasesAdded*rec.PerCase, nil); err != nil {
				return storageErr("append history", err)
			}
			result.Applied = append(result.Applied, AppliedEntry{
				GodownID:    e.GodownID,
				StockID:     rec.ID,
				ProductName: e.ProductName,
				Brand:       e.Brand,
				CasesAdded:  e.CasesAdded,
			})
		}
		result.AppliedCount = len(result.Applied)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AddToGodown adds cases of one product to a godown, creating the stock
// record on first allocation.  perCase is taken from the catalog by the
// caller.  Returns the stock record ID.
func (a *Allocator) AddToGodown(ctx context.Context, godownID uint64, productType, productName, brand string, perCase, cases int64) (uint64, error) {
	if godownID == 0 || productType == "" || productName == "" || brand == "" {
		return 0, &ValidationError{Detail: "all fields required"}
	}
	if cases <= 0 {
		return 0, &ValidationError{Detail: "cases must be > 0"}
	}
	if perCase <= 0 {
		return 0, &ValidationError{Detail: "per_case must be > 0"}
	}
	var stockID uint64
	err := withTx(ctx, a.db, func(tx *sql.Tx) error {
		brandID, err := a.brands.ResolveOrCreateTx(ctx, tx, brand)
		if err != nil {
			return storageErr("resolve brand", err)
		}
		rec, err := a.stocks.CreateOrGetForUpdateTx(ctx, tx, godownID, productType, productName, brand, brandID, perCase)
		if err != nil {
			return storageErr("resolve stock", err)
		}
		if err := a.stocks.ApplyDeltaTx(ctx, tx, rec, cases); err != nil {
			return storageErr("apply delta", err)
		}
		if err := a.history.AppendTx(ctx, tx, rec.ID, model.ActionAdded, cases, cases*rec.PerCase, nil); err != nil {
			return storageErr("append history", err)
		}
		stockID = rec.ID
		return nil
	})
	if err != nil {
		return 0, err
	}
	return stockID, nil
}

// AddToExisting adds cases to a stock record that already exists,
// identified by ID.
func (a *Allocator) AddToExisting(ctx context.Context, stockID uint64, cases int64) (*model.Stock, error) {
	if stockID == 0 || cases <= 0 {
		return nil, &ValidationError{Detail: "valid stock_id and cases > 0 required"}
	}
	var rec *model.Stock
	err := withTx(ctx, a.db, func(tx *sql.Tx) error {
		s, err := a.stocks.GetForUpdateTx(ctx, tx, stockID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return &NotFoundError{Entity: "stock", Key: fmt.Sprintf("%d", stockID)}
			}
			return storageErr("lock stock", err)
		}
		if err := a.stocks.ApplyDeltaTx(ctx, tx, s, cases); err != nil {
			return storageErr("apply delta", err)
		}
		if err := a.history.AppendTx(ctx, tx, s.ID, model.ActionAdded, cases, cases*s.PerCase, nil); err != nil {
			return storageErr("append history", err)
		}
		rec = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}
