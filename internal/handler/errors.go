package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/godown-stock-ledger/internal/ledger"
)

// writeLedgerError maps the ledger error taxonomy onto HTTP responses.
// Every response carries enough structured detail for the client to
// render a precise message; retryable storage failures answer 503 so
// clients know a verbatim retry is safe.
func writeLedgerError(c echo.Context, err error) error {
	var ve *ledger.ValidationError
	if errors.As(err, &ve) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": ve.Detail})
	}
	var nfe *ledger.NotFoundError
	if errors.As(err, &nfe) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": nfe.Error()})
	}
	var ise *ledger.InsufficientStockError
	if errors.As(err, &ise) {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":     ise.Error(),
			"stock_id":  ise.StockID,
			"product":   ise.ProductName,
			"requested": ise.Requested,
			"available": ise.Available,
		})
	}
	var ce *ledger.ConflictError
	if errors.As(err, &ce) {
		return c.JSON(http.StatusConflict, echo.Map{"error": ce.Detail})
	}
	if ledger.IsRetryable(err) {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "storage busy, retry", "retryable": true})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
}
