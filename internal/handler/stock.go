package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/godown-stock-ledger/internal/cache"
	"github.com/iliyamo/godown-stock-ledger/internal/ledger"
	"github.com/iliyamo/godown-stock-ledger/internal/repository"
)

// StockHandler serves the stock ledger endpoints: adding stock to a
// godown, bulk allocation, manual takes, listings, per-record history
// and the journal reconciliation check.
type StockHandler struct {
	DB        *sql.DB
	Allocator *ledger.Allocator
	Coord     *ledger.Coordinator
	Godowns   *repository.GodownRepo
	Stocks    *repository.StockRepo
	History   *repository.HistoryRepo
	Products  *repository.ProductRepo
	Reference *cache.ReferenceCache
}

// NewStockHandler constructs a StockHandler.
func NewStockHandler(db *sql.DB, alloc *ledger.Allocator, coord *ledger.Coordinator,
	godowns *repository.GodownRepo, stocks *repository.StockRepo, history *repository.HistoryRepo,
	products *repository.ProductRepo, ref *cache.ReferenceCache) *StockHandler {
	return &StockHandler{
		DB: db, Allocator: alloc, Coord: coord,
		Godowns: godowns, Stocks: stocks, History: history,
		Products: products, Reference: ref,
	}
}

// AddStock handles POST /v1/godowns/:id/stock: add cases of one product
// to a godown, creating the stock record on first allocation.  When
// per_case is omitted it is resolved from the catalog; the product must
// then exist there.
func (h *StockHandler) AddStock(c echo.Context) error {
	godownID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid godown id"})
	}
	var body struct {
		ProductType string `json:"product_type"`
		ProductName string `json:"productname"`
		Brand       string `json:"brand"`
		Cases       int64  `json:"cases"`
		PerCase     int64  `json:"per_case"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	ctx := c.Request().Context()
	if _, err := h.Godowns.GetByID(ctx, godownID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "godown not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	// Reference data check goes through the snapshot cache; quantity
	// decisions further down never do.
	ok, err := h.Reference.HasProductType(ctx, body.ProductType)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown product type: " + body.ProductType})
	}
	perCase := body.PerCase
	if perCase <= 0 {
		p, err := h.Products.GetByNameAndBrand(ctx, body.ProductType, body.ProductName, body.Brand)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "per_case not given and product not in catalog"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
		}
		perCase = p.PerCase
	}
	stockID, err := h.Allocator.AddToGodown(ctx, godownID, repository.NormalizeName(body.ProductType),
		strings.TrimSpace(body.ProductName), body.Brand, perCase, body.Cases)
	if err != nil {
		return writeLedgerError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"stock_id": stockID, "cases_added": body.Cases})
}

// Allocate handles POST /v1/stock/allocate: a batch restock applied in
// one transaction, with per-row skips reported back.
func (h *StockHandler) Allocate(c echo.Context) error {
	var body struct {
		Allocations []ledger.AllocationEntry `json:"allocations"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	result, err := h.Allocator.Allocate(c.Request().Context(), body.Allocations)
	if err != nil {
		return writeLedgerError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// TakeStock handles POST /v1/stock/:id/take: remove cases from one
// record outside of a booking.
func (h *StockHandler) TakeStock(c echo.Context) error {
	stockID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid stock id"})
	}
	var body struct {
		Cases int64   `json:"cases"`
		Actor *string `json:"actor"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	rec, err := h.Coord.TakeStock(c.Request().Context(), stockID, body.Cases, body.Actor)
	if err != nil {
		return writeLedgerError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"stock_id":      rec.ID,
		"current_cases": rec.CurrentCases,
		"taken_cases":   rec.TakenCases,
	})
}

// AddToStock handles POST /v1/stock/:id/add: add cases to an existing
// record identified by ID.
func (h *StockHandler) AddToStock(c echo.Context) error {
	stockID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid stock id"})
	}
	var body struct {
		Cases int64 `json:"cases"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	rec, err := h.Allocator.AddToExisting(c.Request().Context(), stockID, body.Cases)
	if err != nil {
		return writeLedgerError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"stock_id":      rec.ID,
		"current_cases": rec.CurrentCases,
	})
}

// ListStock handles GET /v1/godowns/:id/stock.
func (h *StockHandler) ListStock(c echo.Context) error {
	godownID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid godown id"})
	}
	ctx := c.Request().Context()
	if _, err := h.Godowns.GetByID(ctx, godownID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "godown not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	items, err := h.Stocks.ListByGodown(ctx, godownID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// StockHistory handles GET /v1/stock/:id/history: the full journal for
// one record, newest first.
func (h *StockHandler) StockHistory(c echo.Context) error {
	stockID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid stock id"})
	}
	ctx := c.Request().Context()
	if _, err := h.Stocks.GetByID(ctx, stockID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "stock record not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	entries, err := h.History.ListByRecord(ctx, stockID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": entries})
}

// Reconcile handles GET /v1/stock/:id/reconcile: compares the record's
// current_cases against the journal sums.  The record is read inside
// the same transaction as the sums, so a concurrent write cannot
// produce a false mismatch.
func (h *StockHandler) Reconcile(c echo.Context) error {
	stockID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid stock id"})
	}
	ctx := c.Request().Context()
	tx, err := h.DB.BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	defer func() { _ = tx.Rollback() }() // read-only; rollback is always safe

	rec, err := h.Stocks.GetForUpdateTx(ctx, tx, stockID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "stock record not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	added, taken, err := h.History.SumByRecordTx(ctx, tx, stockID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"stock_id":      rec.ID,
		"current_cases": rec.CurrentCases,
		"journal_added": added,
		"journal_taken": taken,
		"consistent":    rec.CurrentCases == added-taken,
	})
}
