package ledger

import (
	"context"
	"errors"
	"testing"
)

func TestSkipReason(t *testing.T) {
	valid := AllocationEntry{
		GodownID:    1,
		ProductType: "crackers",
		ProductName: "flower pots",
		Brand:       "standard",
		PerCase:     10,
		CasesAdded:  5,
	}
	tests := []struct {
		name   string
		mutate func(e *AllocationEntry)
		skip   bool
	}{
		{"valid entry", func(e *AllocationEntry) {}, false},
		{"zero cases", func(e *AllocationEntry) { e.CasesAdded = 0 }, true},
		{"negative cases", func(e *AllocationEntry) { e.CasesAdded = -4 }, true},
		{"missing godown", func(e *AllocationEntry) { e.GodownID = 0 }, true},
		{"missing product type", func(e *AllocationEntry) { e.ProductType = "" }, true},
		{"missing product name", func(e *AllocationEntry) { e.ProductName = "" }, true},
		{"missing brand", func(e *AllocationEntry) { e.Brand = "" }, true},
		{"zero per case", func(e *AllocationEntry) { e.PerCase = 0 }, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := valid
			tc.mutate(&e)
			reason := skipReason(e)
			if tc.skip && reason == "" {
				t.Errorf("want a skip reason, got none")
			}
			if !tc.skip && reason != "" {
				t.Errorf("unexpected skip reason: %q", reason)
			}
		})
	}
}

func TestAllocateValidationBeforeTransaction(t *testing.T) {
	a := &Allocator{}
	var ve *ValidationError

	if _, err := a.Allocate(context.Background(), nil); !errors.As(err, &ve) {
		t.Fatalf("want ValidationError for empty batch, got %v", err)
	}
	if _, err := a.AddToGodown(context.Background(), 0, "crackers", "flower pots", "standard", 10, 5); !errors.As(err, &ve) {
		t.Fatalf("want ValidationError for zero godown, got %v", err)
	}
	if _, err := a.AddToGodown(context.Background(), 1, "crackers", "flower pots", "standard", 10, 0); !errors.As(err, &ve) {
		t.Fatalf("want ValidationError for zero cases, got %v", err)
	}
	if _, err := a.AddToGodown(context.Background(), 1, "crackers", "flower pots", "standard", 0, 5); !errors.As(err, &ve) {
		t.Fatalf("want ValidationError for zero per_case, got %v", err)
	}
	if _, err := a.AddToExisting(context.Background(), 1, -2); !errors.As(err, &ve) {
		t.Fatalf("want ValidationError for negative cases, got %v", err)
	}
}
