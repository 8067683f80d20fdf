// Package pricing turns order lines into totals. Everything here is pure:
// the same lines and rates always produce the same Totals.
package pricing

import (
	"github.com/shopspring/decimal"
)

// MinorUnits is the number of decimal places money is kept at.
const MinorUnits = 2

var hundred = decimal.NewFromInt(100)

// Line is the priced view of an order line.
type Line struct {
	UnitPrice   decimal.Decimal
	Adjustments []decimal.Decimal
	Quantity    int
}

// Amount is (unit price + modifier adjustments) * quantity.
func (l Line) Amount() decimal.Decimal {
	unit := l.UnitPrice
	for _, adj := range l.Adjustments {
		unit = unit.Add(adj)
	}
	return unit.Mul(decimal.NewFromInt(int64(l.Quantity))).Round(MinorUnits)
}

// Rates are percentages (5 means 5%). A zero RoundingUnit disables round-off.
type Rates struct {
	TaxPercent           decimal.Decimal
	ServiceChargePercent decimal.Decimal
	DiscountPercent      decimal.Decimal
	RoundingUnit         decimal.Decimal
}

type Totals struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	ServiceCharge  decimal.Decimal `json:"service_charge"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	RoundOff       decimal.Decimal `json:"round_off"`
	Total          decimal.Decimal `json:"total"`
}

// ComputeTotals applies tax, service charge and discount to the pre-discount
// subtotal, then rounds the grand total to the nearest rounding unit.
func ComputeTotals(lines []Line, r Rates) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Amount())
	}

	t := Totals{
		Subtotal:       subtotal,
		TaxAmount:      Percent(subtotal, r.TaxPercent),
		ServiceCharge:  Percent(subtotal, r.ServiceChargePercent),
		DiscountAmount: Percent(subtotal, r.DiscountPercent),
	}

	raw := t.Subtotal.Add(t.TaxAmount).Add(t.ServiceCharge).Sub(t.DiscountAmount)
	t.RoundOff = RoundOff(raw, r.RoundingUnit)
	t.Total = raw.Add(t.RoundOff)
	return t
}

// Percent returns amount * pct / 100 at currency precision.
func Percent(amount, pct decimal.Decimal) decimal.Decimal {
	if pct.IsZero() {
		return decimal.Zero
	}
	return amount.Mul(pct).Div(hundred).Round(MinorUnits)
}

// RoundOff is the signed adjustment that brings amount to the nearest
// multiple of unit, halves rounding away from zero.
func RoundOff(amount, unit decimal.Decimal) decimal.Decimal {
	if !unit.IsPositive() {
		return decimal.Zero
	}
	rounded := amount.Div(unit).Round(0).Mul(unit)
	return rounded.Sub(amount)
}

// SplitTax divides a tax amount into CGST and SGST halves. When the amount
// has an odd minor unit the extra unit goes to SGST so the halves always sum
// back to the tax amount.
func SplitTax(tax decimal.Decimal) (cgst, sgst decimal.Decimal) {
	cgst = tax.Div(decimal.NewFromInt(2)).RoundDown(MinorUnits)
	sgst = tax.Sub(cgst)
	return cgst, sgst
}

// Balanced reports whether the total invariant holds.
func (t Totals) Balanced() bool {
	want := t.Subtotal.Add(t.TaxAmount).Add(t.ServiceCharge).Sub(t.DiscountAmount).Add(t.RoundOff)
	return want.Equal(t.Total)
}
