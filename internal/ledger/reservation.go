package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/godown-stock-ledger/internal/model"
	"github.com/iliyamo/godown-stock-ledger/internal/repository"
)

// ReservationLine is one requested line item of a booking.  Lines are
// transient: they exist only for the duration of a Reserve call and are
// snapshotted into the booking's items JSON once processed.
type ReservationLine struct {
	StockID         uint64          `json:"id"`
	ProductName     string          `json:"productname"`
	Brand           string          `json:"brand"`
	Cases           int64           `json:"cases"`
	RatePerBox      decimal.Decimal `json:"rate_per_box"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Godown          string          `json:"godown"`
}

// BookingMeta carries the sale-level fields of a reservation request.
type BookingMeta struct {
	CustomerName       string
	Address            string
	GSTIN              string
	LRNumber           string
	AgentName          string
	FromPlace          string
	ToPlace            string
	Through            string
	StockFrom          string
	ApplyPacking       bool
	PackingPercent     decimal.Decimal
	ExtraTaxable       decimal.Decimal
	AdditionalDiscount decimal.Decimal
	ApplyCGST          bool
	ApplySGST          bool
	ApplyIGST          bool
}

// ProcessedItem is the committed snapshot of one line: quantities and
// the amount as computed at reservation time.
type ProcessedItem struct {
	SNo             int             `json:"s_no"`
	StockID         uint64          `json:"stock_id"`
	ProductName     string          `json:"productname"`
	Brand           string          `json:"brand"`
	Cases           int64           `json:"cases"`
	PerCase         int64           `json:"per_case"`
	Quantity        int64           `json:"quantity"`
	RatePerBox      decimal.Decimal `json:"rate_per_box"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Amount          decimal.Decimal `json:"amount"`
	Godown          string          `json:"godown"`
}

// ReservationResult is returned on a successful Reserve: the persisted
// booking's identity plus the full charge breakdown.
type ReservationResult struct {
	BookingID  uint64          `json:"booking_id"`
	BillNumber string          `json:"bill_number"`
	Items      []ProcessedItem `json:"items"`
	Totals     Totals          `json:"totals"`
}

// Coordinator orchestrates multi-line reservations against the stock
// ledger.  It is one of exactly two writers to the stock table and its
// history journal (the other being Allocator).
type Coordinator struct {
	db       *sql.DB
	stocks   *repository.StockRepo
	history  *repository.HistoryRepo
	bookings *repository.BookingRepo
}

// NewCoordinator constructs a Coordinator.  All dependencies must be
// non-nil.
func NewCoordinator(db *sql.DB, stocks *repository.StockRepo, history *repository.HistoryRepo, bookings *repository.BookingRepo) *Coordinator {
	if db == nil || stocks == nil || history == nil || bookings == nil {
		panic("nil dependency passed to NewCoordinator")
	}
	return &Coordinator{db: db, stocks: stocks, history: history, bookings: bookings}
}

// validate rejects malformed requests before any transaction is opened,
// so a bad request is a cheap no-op against the database.
func validate(meta BookingMeta, lines []ReservationLine) error {
	if meta.CustomerName == "" {
		return &ValidationError{Detail: "customer_name is required"}
	}
	if meta.FromPlace == "" || meta.ToPlace == "" || meta.Through == "" {
		return &ValidationError{Detail: "from, to and through are required"}
	}
	if len(lines) == 0 {
		return &ValidationError{Detail: "at least one item is required"}
	}
	for i, l := range lines {
		if l.StockID == 0 || l.ProductName == "" || l.Brand == "" {
			return &ValidationError{Detail: fmt.Sprintf("item %d: missing stock id or product data", i)}
		}
		if l.Cases <= 0 {
			return &ValidationError{Detail: fmt.Sprintf("item %d: cases must be > 0", i)}
		}
		if l.RatePerBox.IsNegative() {
			return &ValidationError{Detail: fmt.Sprintf("item %d: rate must not be negative", i)}
		}
		if l.DiscountPercent.IsNegative() || l.DiscountPercent.GreaterThan(hundred) {
			return &ValidationError{Detail: fmt.Sprintf("item %d: discount must be between 0 and 100", i)}
		}
	}
	return nil
}

// lockOrder returns the distinct stock IDs referenced by the lines in
// ascending order.  Locks are always acquired in this order, regardless
// of line order, so two concurrent reservations over an overlapping set
// of records can never wait on each other in a cycle.
func lockOrder(lines []ReservationLine) []uint64 {
	seen := make(map[uint64]struct{}, len(lines))
	ids := make([]uint64, 0, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.StockID]; !ok {
			seen[l.StockID] = struct{}{}
			ids = append(ids, l.StockID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Reserve executes a multi-line sale as one atomic unit: it locks every
// implicated stock record in deterministic order, re-validates
// availability under those locks, applies the decrements, appends one
// "taken" history entry per line and persists the booking — all in a
// single transaction.  On any failure every effect is rolled back; stock
// state is exactly as before the call.
func (c *Coordinator) Reserve(ctx context.Context, meta BookingMeta, lines []ReservationLine) (*ReservationResult, error) {
	if err := validate(meta, lines); err != nil {
		return nil, err
	}

	var result *ReservationResult
	err := withTx(ctx, c.db, func(tx *sql.Tx) error {
		// Phase 1: lock all records, ascending by ID.  Validation must not
		// happen before this point; a check against an unlocked row could
		// pass and then be invalidated by a concurrent commit.
		locked := make(map[uint64]*model.Stock, len(lines))
		for _, id := range lockOrder(lines) {
			s, err := c.stocks.GetForUpdateTx(ctx, tx, id)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return &NotFoundError{Entity: "stock", Key: fmt.Sprintf("%d", id)}
				}
				return storageErr("lock stock", err)
			}
			locked[id] = s
		}

		// Phase 2: per line, validate against the locked (and so far
		// decremented) quantity, then decrement and journal.  A line that
		// fails aborts the whole transaction; earlier lines' decrements
		// are rolled back with it.
		subtotal := decimal.Zero
		items := make([]ProcessedItem, 0, len(lines))
		actor := meta.CustomerName
		for i, l := range lines {
			rec := locked[l.StockID]
			if l.Cases > rec.CurrentCases {
				return &InsufficientStockError{
					StockID:     rec.ID,
					ProductName: rec.ProductName,
					Requested:   l.Cases,
					Available:   rec.CurrentCases,
				}
			}
			qty := l.Cases * rec.PerCase
			amount := LineAmount(l.Cases, rec.PerCase, l.RatePerBox, l.DiscountPercent)
			if err := c.stocks.ApplyDeltaTx(ctx, tx, rec, -l.Cases); err != nil {
				if errors.Is(err, repository.ErrNegativeStock) {
					// Unreachable after the check above; kept as a guard on I1.
					return &InsufficientStockError{StockID: rec.ID, ProductName: rec.ProductName, Requested: l.Cases, Available: rec.CurrentCases}
				}
				return storageErr("apply delta", err)
			}
			if err := c.history.AppendTx(ctx, tx, rec.ID, model.ActionTaken, l.Cases, qty, &actor); err != nil {
				return storageErr("append history", err)
			}
			subtotal = subtotal.Add(amount)
			godown := l.Godown
			if godown == "" {
				godown = meta.StockFrom
			}
			items = append(items, ProcessedItem{
				SNo:             i + 1,
				StockID:         rec.ID,
				ProductName:     l.ProductName,
				Brand:           l.Brand,
				Cases:           l.Cases,
				PerCase:         rec.PerCase,
				Quantity:        qty,
				RatePerBox:      l.RatePerBox,
				DiscountPercent: l.DiscountPercent,
				Amount:          amount.Round(2),
				Godown:          godown,
			})
		}

		totals := ComputeTotals(TotalsInput{
			Subtotal:           subtotal,
			ApplyPacking:       meta.ApplyPacking,
			PackingPercent:     meta.PackingPercent,
			ExtraTaxable:       meta.ExtraTaxable,
			AdditionalDiscount: meta.AdditionalDiscount,
			ApplyCGST:          meta.ApplyCGST,
			ApplySGST:          meta.ApplySGST,
			ApplyIGST:          meta.ApplyIGST,
		})

		billNumber, err := c.bookings.NextBillNumberTx(ctx, tx)
		if err != nil {
			return storageErr("bill number", err)
		}
		itemsJSON, err := json.Marshal(items)
		if err != nil {
			return storageErr("marshal items", err)
		}
		extraJSON, err := json.Marshal(map[string]any{
			"packing_percent":      meta.PackingPercent,
			"additional_discount":  meta.AdditionalDiscount,
			"taxable_value":        meta.ExtraTaxable,
			"apply_processing_fee": meta.ApplyPacking,
			"apply_cgst":           meta.ApplyCGST,
			"apply_sgst":           meta.ApplySGST,
			"apply_igst":           meta.ApplyIGST,
		})
		if err != nil {
			return storageErr("marshal extra charges", err)
		}

		booking := &model.Booking{
			BillNumber:   billNumber,
			BillDate:     time.Now().UTC().Format("2006-01-02"),
			CustomerName: meta.CustomerName,
			Address:      meta.Address,
			GSTIN:        meta.GSTIN,
			LRNumber:     meta.LRNumber,
			AgentName:    meta.AgentName,
			FromPlace:    meta.FromPlace,
			ToPlace:      meta.ToPlace,
			Through:      meta.Through,
			StockFrom:    meta.StockFrom,
			Items:        string(itemsJSON),
			Total:        totals.GrandTotal,
			ExtraCharges: string(extraJSON),
		}
		if err := c.bookings.CreateTx(ctx, tx, booking); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return &ConflictError{Detail: "bill number already exists: " + billNumber}
			}
			return storageErr("create booking", err)
		}

		result = &ReservationResult{
			BookingID:  booking.ID,
			BillNumber: billNumber,
			Items:      items,
			Totals:     totals,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// TakeStock removes cases from a single stock record outside of a
// booking (manual dispatch, breakage, sampling).  Same discipline as
// Reserve: lock, validate under the lock, decrement, journal, commit.
func (c *Coordinator) TakeStock(ctx context.Context, stockID uint64, cases int64, actor *string) (*model.Stock, error) {
	if stockID == 0 || cases <= 0 {
		return nil, &ValidationError{Detail: "valid stock_id and cases > 0 required"}
	}
	var rec *model.Stock
	err := withTx(ctx, c.db, func(tx *sql.Tx) error {
		s, err := c.stocks.GetForUpdateTx(ctx, tx, stockID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return &NotFoundError{Entity: "stock", Key: fmt.Sprintf("%d", stockID)}
			}
			return storageErr("lock stock", err)
		}
		if cases > s.CurrentCases {
			return &InsufficientStockError{StockID: s.ID, ProductName: s.ProductName, Requested: cases, Available: s.CurrentCases}
		}
		if err := c.stocks.ApplyDeltaTx(ctx, tx, s, -cases); err != nil {
			return storageErr("apply delta", err)
		}
		if err := c.history.AppendTx(ctx, tx, s.ID, model.ActionTaken, cases, cases*s.PerCase, actor); err != nil {
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
