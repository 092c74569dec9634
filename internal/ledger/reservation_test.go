package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func validMeta() BookingMeta {
	return BookingMeta{
		CustomerName: "acme traders",
		FromPlace:    "salem",
		ToPlace:      "chennai",
		Through:      "vrl",
	}
}

func validLine() ReservationLine {
	return ReservationLine{
		StockID:     1,
		ProductName: "sparkle 10pk",
		Brand:       "standard",
		Cases:       2,
		RatePerBox:  decimal.NewFromInt(50),
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m *BookingMeta, lines *[]ReservationLine)
		ok     bool
	}{
		{"valid request", func(m *BookingMeta, lines *[]ReservationLine) {}, true},
		{"missing customer", func(m *BookingMeta, lines *[]ReservationLine) { m.CustomerName = "" }, false},
		{"missing from", func(m *BookingMeta, lines *[]ReservationLine) { m.FromPlace = "" }, false},
		{"missing to", func(m *BookingMeta, lines *[]ReservationLine) { m.ToPlace = "" }, false},
		{"missing through", func(m *BookingMeta, lines *[]ReservationLine) { m.Through = "" }, false},
		{"no items", func(m *BookingMeta, lines *[]ReservationLine) { *lines = nil }, false},
		{"zero stock id", func(m *BookingMeta, lines *[]ReservationLine) { (*lines)[0].StockID = 0 }, false},
		{"blank product name", func(m *BookingMeta, lines *[]ReservationLine) { (*lines)[0].ProductName = "" }, false},
		{"blank brand", func(m *BookingMeta, lines *[]ReservationLine) { (*lines)[0].Brand = "" }, false},
		{"zero cases", func(m *BookingMeta, lines *[]ReservationLine) { (*lines)[0].Cases = 0 }, false},
		{"negative cases", func(m *BookingMeta, lines *[]ReservationLine) { (*lines)[0].Cases = -3 }, false},
		{"negative rate", func(m *BookingMeta, lines *[]ReservationLine) { (*lines)[0].RatePerBox = decimal.NewFromInt(-1) }, false},
		{"zero rate allowed", func(m *BookingMeta, lines *[]ReservationLine) { (*lines)[0].RatePerBox = decimal.Zero }, true},
		{"negative discount", func(m *BookingMeta, lines *[]ReservationLine) { (*lines)[0].DiscountPercent = decimal.NewFromInt(-5) }, false},
		{"discount above 100", func(m *BookingMeta, lines *[]ReservationLine) { (*lines)[0].DiscountPercent = decimal.NewFromInt(150) }, false},
		{"full discount allowed", func(m *BookingMeta, lines *[]ReservationLine) { (*lines)[0].DiscountPercent = decimal.NewFromInt(100) }, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			meta := validMeta()
			lines := []ReservationLine{validLine()}
			tc.mutate(&meta, &lines)
			err := validate(meta, lines)
			if tc.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tc.ok {
				var ve *ValidationError
				if !errors.As(err, &ve) {
					t.Errorf("want ValidationError, got %v", err)
				}
			}
		})
	}
}

func TestLockOrder(t *testing.T) {
	lines := []ReservationLine{
		{StockID: 9}, {StockID: 3}, {StockID: 9}, {StockID: 1}, {StockID: 3},
	}
	got := lockOrder(lines)
	want := []uint64{1, 3, 9}
	if len(got) != len(want) {
		t.Fatalf("lockOrder = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("lockOrder = %v, want %v", got, want)
		}
	}
}

func TestReserveValidationBeforeTransaction(t *testing.T) {
	// A malformed request must be rejected before the coordinator touches
	// the database; a zero-value coordinator would panic otherwise.
	c := &Coordinator{}
	_, err := c.Reserve(context.Background(), BookingMeta{}, nil)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("want ValidationError, got %v", err)
	}

	_, err = c.TakeStock(context.Background(), 0, 5, nil)
	if !errors.As(err, &ve) {
		t.Fatalf("want ValidationError for zero stock id, got %v", err)
	}
	_, err = c.TakeStock(context.Background(), 1, 0, nil)
	if !errors.As(err, &ve) {
		t.Fatalf("want ValidationError for zero cases, got %v", err)
	}
}
