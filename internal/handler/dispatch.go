package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/godown-stock-ledger/internal/model"
	"github.com/iliyamo/godown-stock-ledger/internal/repository"
)

// DispatchHandler serves transport status tracking for committed
// bookings.  Dispatch entries never touch stock quantities.
type DispatchHandler struct {
	Dispatches *repository.DispatchRepo
	Bookings   *repository.BookingRepo
}

// NewDispatchHandler constructs a DispatchHandler.
func NewDispatchHandler(dispatches *repository.DispatchRepo, bookings *repository.BookingRepo) *DispatchHandler {
	return &DispatchHandler{Dispatches: dispatches, Bookings: bookings}
}

// CreateDispatch handles POST /v1/dispatches.
func (h *DispatchHandler) CreateDispatch(c echo.Context) error {
	var body struct {
		BookingID uint64  `json:"booking_id"`
		Status    string  `json:"status"`
		Vehicle   string  `json:"vehicle"`
		Notes     *string `json:"notes"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.BookingID == 0 || strings.TrimSpace(body.Status) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking_id and status are required"})
	}
	ctx := c.Request().Context()
	if _, err := h.Bookings.GetByID(ctx, body.BookingID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	id, err := h.Dispatches.Create(ctx, &model.Dispatch{
		BookingID: body.BookingID,
		Status:    strings.TrimSpace(body.Status),
		Vehicle:   strings.TrimSpace(body.Vehicle),
		Notes:     body.Notes,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create dispatch"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// ListDispatches handles GET /v1/dispatches, newest first.
func (h *DispatchHandler) ListDispatches(c echo.Context) error {
	dispatches, err := h.Dispatches.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": dispatches})
}

// ListBookingDispatches handles GET /v1/bookings/:id/dispatches.
func (h *DispatchHandler) ListBookingDispatches(c echo.Context) error {
	bookingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	dispatches, err := h.Dispatches.ListByBooking(c.Request().Context(), bookingID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": dispatches})
}
