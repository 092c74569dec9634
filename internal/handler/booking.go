package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/godown-stock-ledger/internal/ledger"
	"github.com/iliyamo/godown-stock-ledger/internal/queue"
	"github.com/iliyamo/godown-stock-ledger/internal/repository"
	queue_publisher "github.com/iliyamo/godown-stock-ledger/internal/service"
)

// BookingHandler serves booking creation and the read views derived
// from bookings (listing, detail, customer directory).
type BookingHandler struct {
	Coord          *ledger.Coordinator
	Bookings       *repository.BookingRepo
	DefaultPacking decimal.Decimal
}

// NewBookingHandler constructs a BookingHandler.  defaultPacking is the
// packing percentage applied when a request enables packing without
// naming its own rate.
func NewBookingHandler(coord *ledger.Coordinator, bookings *repository.BookingRepo, defaultPacking decimal.Decimal) *BookingHandler {
	return &BookingHandler{Coord: coord, Bookings: bookings, DefaultPacking: defaultPacking}
}

// bookingRequest is the JSON body of POST /v1/bookings.
type bookingRequest struct {
	CustomerName       string                   `json:"customer_name"`
	Address            string                   `json:"address"`
	GSTIN              string                   `json:"gstin"`
	LRNumber           string                   `json:"lr_number"`
	AgentName          string                   `json:"agent_name"`
	FromPlace          string                   `json:"from"`
	ToPlace            string                   `json:"to"`
	Through            string                   `json:"through"`
	StockFrom          string                   `json:"stock_from"`
	Items              []ledger.ReservationLine `json:"items"`
	ApplyProcessingFee bool                     `json:"apply_processing_fee"`
	PackingPercent     *decimal.Decimal         `json:"packing_percent"`
	TaxableValue       decimal.Decimal          `json:"taxable_value"`
	AdditionalDiscount decimal.Decimal          `json:"additional_discount"`
	ApplyCGST          bool                     `json:"apply_cgst"`
	ApplySGST          bool                     `json:"apply_sgst"`
	ApplyIGST          bool                     `json:"apply_igst"`
}

// CreateBooking handles POST /v1/bookings: the multi-line reservation.
// On success the booking has committed; the created event is published
// best-effort afterwards and never affects the response.
func (h *BookingHandler) CreateBooking(c echo.Context) error {
	var body bookingRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	packing := h.DefaultPacking
	if body.PackingPercent != nil {
		packing = *body.PackingPercent
	}
	meta := ledger.BookingMeta{
		CustomerName:       body.CustomerName,
		Address:            body.Address,
		GSTIN:              body.GSTIN,
		LRNumber:           body.LRNumber,
		AgentName:          body.AgentName,
		FromPlace:          body.FromPlace,
		ToPlace:            body.ToPlace,
		Through:            body.Through,
		StockFrom:          body.StockFrom,
		ApplyPacking:       body.ApplyProcessingFee,
		PackingPercent:     packing,
		ExtraTaxable:       body.TaxableValue,
		AdditionalDiscount: body.AdditionalDiscount,
		ApplyCGST:          body.ApplyCGST,
		ApplySGST:          body.ApplySGST,
		ApplyIGST:          body.ApplyIGST,
	}
	result, err := h.Coord.Reserve(c.Request().Context(), meta, body.Items)
	if err != nil {
		return writeLedgerError(c, err)
	}

	// The reservation is durable at this point.  Publishing runs on its
	// own context so a slow broker cannot hold the response, and a
	// failure is logged inside the publisher rather than surfaced.
	go func(ev queue.BookingCreatedEvent) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = queue_publisher.PublishBookingCreated(ctx, ev)
	}(buildBookingEvent(meta, result))

	return c.JSON(http.StatusCreated, result)
}

// buildBookingEvent flattens a reservation result into the queue event.
func buildBookingEvent(meta ledger.BookingMeta, res *ledger.ReservationResult) queue.BookingCreatedEvent {
	var totalCases int64
	products := make([]string, 0, len(res.Items))
	for _, it := range res.Items {
		totalCases += it.Cases
		products = append(products, it.ProductName+" ("+it.Brand+")")
	}
	return queue.BookingCreatedEvent{
		BookingID:    res.BookingID,
		BillNumber:   res.BillNumber,
		CustomerName: meta.CustomerName,
		AgentName:    meta.AgentName,
		FromPlace:    meta.FromPlace,
		ToPlace:      meta.ToPlace,
		Through:      meta.Through,
		TotalCases:   totalCases,
		Products:     products,
		GrandTotal:   res.Totals.GrandTotal.StringFixed(2),
		CreatedAt:    time.Now().UTC().Format("2006-01-02 15:04:05"),
	}
}

// ListBookings handles GET /v1/bookings, newest first.
func (h *BookingHandler) ListBookings(c echo.Context) error {
	bookings, err := h.Bookings.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": bookings})
}

// GetBooking handles GET /v1/bookings/:id with the full JSON snapshots.
func (h *BookingHandler) GetBooking(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	b, err := h.Bookings.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id":            b.ID,
		"bill_number":   b.BillNumber,
		"bill_date":     b.BillDate,
		"customer_name": b.CustomerName,
		"address":       b.Address,
		"gstin":         b.GSTIN,
		"lr_number":     b.LRNumber,
		"agent_name":    b.AgentName,
		"from":          b.FromPlace,
		"to":            b.ToPlace,
		"through":       b.Through,
		"stock_from":    b.StockFrom,
		"items":         json.RawMessage(b.Items),
		"total":         b.Total.StringFixed(2),
		"extra_charges": json.RawMessage(b.ExtraCharges),
		"created_at":    b.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
	})
}

// Customers handles GET /v1/customers: the latest metadata per customer
// for prefilling new bookings.
func (h *BookingHandler) Customers(c echo.Context) error {
	customers, err := h.Bookings.Customers(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": customers})
}
