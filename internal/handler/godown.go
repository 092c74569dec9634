// Package handler contains the HTTP handlers for the stock ledger API.
// Handlers bind and validate request bodies, delegate to the ledger
// coordinators and repositories, and translate the error taxonomy into
// HTTP status codes.  No business rule lives here.
package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/godown-stock-ledger/internal/repository"
)

// GodownHandler serves warehouse administration: create, list, rename,
// delete and the aggregate summary view.
type GodownHandler struct {
	Godowns *repository.GodownRepo
	Stocks  *repository.StockRepo
}

// NewGodownHandler constructs a GodownHandler.
func NewGodownHandler(godowns *repository.GodownRepo, stocks *repository.StockRepo) *GodownHandler {
	return &GodownHandler{Godowns: godowns, Stocks: stocks}
}

// CreateGodown handles POST /v1/godowns.
func (h *GodownHandler) CreateGodown(c echo.Context) error {
	var body struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(body.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	id, err := h.Godowns.Create(c.Request().Context(), body.Name)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "godown already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create godown"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id, "name": repository.NormalizeName(body.Name)})
}

// ListGodowns handles GET /v1/godowns and returns each godown with its
// full stock listing embedded.
func (h *GodownHandler) ListGodowns(c echo.Context) error {
	ctx := c.Request().Context()
	godowns, err := h.Godowns.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	type godownView struct {
		ID    uint64                `json:"id"`
		Name  string                `json:"name"`
		Stock []repository.StockRow `json:"stock"`
	}
	out := make([]godownView, 0, len(godowns))
	for _, g := range godowns {
		stock, err := h.Stocks.ListByGodown(ctx, g.ID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
		}
		out = append(out, godownView{ID: g.ID, Name: g.Name, Stock: stock})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GodownSummaries handles GET /v1/godowns/summary: one aggregate row per
// godown, cheap enough for dashboards that poll.
func (h *GodownHandler) GodownSummaries(c echo.Context) error {
	summaries, err := h.Godowns.ListSummaries(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": summaries})
}

// RenameGodown handles PUT /v1/godowns/:id.
func (h *GodownHandler) RenameGodown(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(body.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	name, err := h.Godowns.Rename(c.Request().Context(), id, body.Name)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "godown name already in use"})
		}
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "godown not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "name": name})
}

// DeleteGodown handles DELETE /v1/godowns/:id.  Stock records and their
// history cascade away with the godown.
func (h *GodownHandler) DeleteGodown(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Godowns.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "godown not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.NoContent(http.StatusNoContent)
}
