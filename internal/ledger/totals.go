package ledger

import "github.com/shopspring/decimal"

// GST rates.  IGST applies alone on inter-state sales; CGST and SGST
// apply together, and only together, on same-state sales.
var (
	igstRate = decimal.NewFromFloat(0.18)
	cgstRate = decimal.NewFromFloat(0.09)
	sgstRate = decimal.NewFromFloat(0.09)
)

var hundred = decimal.NewFromInt(100)

// TotalsInput carries the sale-level knobs for the charge computation.
// Subtotal is the sum of the per-line amounts (already net of line
// discounts).
type TotalsInput struct {
	Subtotal           decimal.Decimal
	ApplyPacking       bool            // add a packing charge on the subtotal
	PackingPercent     decimal.Decimal // packing charge rate, e.g. 3.0
	ExtraTaxable       decimal.Decimal // flat user-supplied taxable addend
	AdditionalDiscount decimal.Decimal // percent off the combined taxable base
	ApplyCGST          bool
	ApplySGST          bool
	ApplyIGST          bool
}

// Totals is the full charge breakdown of a booking.  GrandTotal is
// rounded to the nearest whole rupee and RoundOff is the signed
// difference carried explicitly so the printed lines always reconcile:
// NetBeforeTax + TotalTax + RoundOff == GrandTotal.
type Totals struct {
	Subtotal            decimal.Decimal `json:"subtotal"`
	PackingCharges      decimal.Decimal `json:"packing_charges"`
	SubtotalWithPacking decimal.Decimal `json:"subtotal_with_packing"`
	TaxableValue        decimal.Decimal `json:"taxable_value"`
	AdditionalDiscount  decimal.Decimal `json:"additional_discount"`
	NetBeforeTax        decimal.Decimal `json:"net_before_tax"`
	CGST                decimal.Decimal `json:"cgst"`
	SGST                decimal.Decimal `json:"sgst"`
	IGST                decimal.Decimal `json:"igst"`
	TotalTax            decimal.Decimal `json:"total_tax"`
	RoundOff            decimal.Decimal `json:"round_off"`
	GrandTotal          decimal.Decimal `json:"grand_total"`
}

// ComputeTotals derives the booking totals from the line subtotal:
// optional packing charge, plus the flat extra taxable value, minus the
// additional discount on that combined base, then tax.
//
// Tax policy, preserved from the billing rules this system replaces:
// IGST, when requested, applies alone at 18% and overrides the CGST/SGST
// pair.  CGST 9% + SGST 9% apply only when BOTH flags are set; a request
// carrying just one half of the pair yields zero tax rather than an
// error.
func ComputeTotals(in TotalsInput) Totals {
	t := Totals{Subtotal: in.Subtotal}

	if in.ApplyPacking {
		t.PackingCharges = in.Subtotal.Mul(in.PackingPercent).Div(hundred)
	}
	t.SubtotalWithPacking = in.Subtotal.Add(t.PackingCharges)
	t.TaxableValue = t.SubtotalWithPacking.Add(in.ExtraTaxable)

	t.AdditionalDiscount = t.TaxableValue.Mul(in.AdditionalDiscount).Div(hundred)
	t.NetBeforeTax = t.TaxableValue.Sub(t.AdditionalDiscount)

	switch {
	case in.ApplyIGST:
		t.IGST = t.NetBeforeTax.Mul(igstRate)
	case in.ApplyCGST && in.ApplySGST:
		t.CGST = t.NetBeforeTax.Mul(cgstRate)
		t.SGST = t.NetBeforeTax.Mul(sgstRate)
	}
	t.TotalTax = t.CGST.Add(t.SGST).Add(t.IGST)

	exact := t.NetBeforeTax.Add(t.TotalTax)
	t.GrandTotal = exact.Round(0)
	t.RoundOff = t.GrandTotal.Sub(exact)
	return t
}

// LineAmount computes one reservation line's monetary amount:
// cases × per_case × rate × (1 − discount/100).
func LineAmount(cases, perCase int64, rate, discountPercent decimal.Decimal) decimal.Decimal {
	qty := decimal.NewFromInt(cases * perCase)
	gross := qty.Mul(rate)
	return gross.Sub(gross.Mul(discountPercent).Div(hundred))
}
