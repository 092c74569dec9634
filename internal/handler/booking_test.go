package handler

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/godown-stock-ledger/internal/ledger"
)

func TestBuildBookingEvent(t *testing.T) {
	meta := ledger.BookingMeta{
		CustomerName: "acme traders",
		AgentName:    "ravi",
		FromPlace:    "salem",
		ToPlace:      "chennai",
		Through:      "vrl",
	}
	res := &ledger.ReservationResult{
		BookingID:  7,
		BillNumber: "BILL-007",
		Items: []ledger.ProcessedItem{
			{ProductName: "flower pots", Brand: "standard", Cases: 3},
			{ProductName: "sparklers", Brand: "standard", Cases: 5},
		},
		Totals: ledger.Totals{GrandTotal: decimal.NewFromInt(2700)},
	}

	ev := buildBookingEvent(meta, res)

	if ev.BookingID != 7 || ev.BillNumber != "BILL-007" {
		t.Errorf("booking identity = %d/%s, want 7/BILL-007", ev.BookingID, ev.BillNumber)
	}
	if ev.TotalCases != 8 {
		t.Errorf("TotalCases = %d, want 8", ev.TotalCases)
	}
	if ev.GrandTotal != "2700.00" {
		t.Errorf("GrandTotal = %q, want %q", ev.GrandTotal, "2700.00")
	}
	want := []string{"flower pots (standard)", "sparklers (standard)"}
	if len(ev.Products) != len(want) {
		t.Fatalf("Products = %v, want %v", ev.Products, want)
	}
	for i, p := range ev.Products {
		if p != want[i] {
			t.Errorf("Products[%d] = %q, want %q", i, p, want[i])
		}
		// The consumer wraps and joins these itself; names must arrive
		// unquoted or the log line ends up with escaped quotes.
		if strings.Contains(p, `"`) {
			t.Errorf("Products[%d] = %q carries quoting", i, p)
		}
	}
}
