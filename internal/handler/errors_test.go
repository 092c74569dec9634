package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/godown-stock-ledger/internal/ledger"
)

func invoke(t *testing.T, err error) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if werr := writeLedgerError(c, err); werr != nil {
		t.Fatalf("writeLedgerError returned %v", werr)
	}
	return rec
}

func TestWriteLedgerErrorStatusCodes(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", &ledger.ValidationError{Detail: "cases must be > 0"}, http.StatusBadRequest},
		{"not found", &ledger.NotFoundError{Entity: "stock", Key: "42"}, http.StatusNotFound},
		{"insufficient", &ledger.InsufficientStockError{StockID: 1, ProductName: "sparklers", Requested: 9, Available: 3}, http.StatusConflict},
		{"conflict", &ledger.ConflictError{Detail: "bill number already exists"}, http.StatusConflict},
		{"retryable storage", &ledger.StorageError{Op: "lock stock", Retryable: true, Err: errors.New("deadlock")}, http.StatusServiceUnavailable},
		{"non-retryable storage", &ledger.StorageError{Op: "commit", Err: errors.New("gone")}, http.StatusInternalServerError},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
		{"wrapped typed error", fmt.Errorf("reserve: %w", &ledger.ValidationError{Detail: "bad"}), http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := invoke(t, tc.err)
			if rec.Code != tc.status {
				t.Errorf("status = %d, want %d", rec.Code, tc.status)
			}
		})
	}
}

func TestWriteLedgerErrorInsufficientDetail(t *testing.T) {
	rec := invoke(t, &ledger.InsufficientStockError{
		StockID: 7, ProductName: "flower pots", Requested: 9, Available: 3,
	})
	var body struct {
		StockID   uint64 `json:"stock_id"`
		Product   string `json:"product"`
		Requested int64  `json:"requested"`
		Available int64  `json:"available"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if body.StockID != 7 || body.Product != "flower pots" || body.Requested != 9 || body.Available != 3 {
		t.Errorf("unexpected detail payload: %+v", body)
	}
}
