package billing

import (
	"time"

	"github.com/appetiteclub/appetite/pkg/enums/paymentmethod"
	"github.com/appetiteclub/appetite/services/pos/internal/order"
	"github.com/appetiteclub/appetite/services/pos/internal/poserr"
	"github.com/appetiteclub/appetite/services/pos/internal/pricing"
	"github.com/appetiteclub/apt"
	"github.com/shopspring/decimal"
)

const op = "billing.PrepareBill"

// Meta carries the values PrepareBill does not compute itself.
type Meta struct {
	BillNumber string
	PaidAt     time.Time
	// InterState reports the whole tax as IGST instead of CGST/SGST halves.
	InterState bool
}

// PrepareBill recomputes the order totals from its stored items with the
// given discount, checks the payment against the total and returns the bill.
// Totals carried by the order are ignored.
func PrepareBill(o *order.Order, discountPercent decimal.Decimal, p Payment, meta Meta) (Bill, error) {
	if o == nil {
		return Bill{}, poserr.Validation(op, "order is required")
	}
	if !o.IsOpen() {
		return Bill{}, poserr.State(op, "order %s is %s and cannot be billed", o.OrderNumber, o.Status)
	}
	if len(o.Items) == 0 {
		return Bill{}, poserr.Validation(op, poserr.MsgEmptyOrder)
	}
	if discountPercent.IsNegative() || discountPercent.GreaterThan(decimal.NewFromInt(100)) {
		return Bill{}, poserr.Validation(op, "discount must be between 0 and 100")
	}

	rates := o.Rates()
	rates.DiscountPercent = discountPercent
	totals := pricing.ComputeTotals(o.Lines(), rates)

	method := paymentmethod.ByName(p.Method)
	if method == nil {
		return Bill{}, poserr.Validation(op, "unknown payment method %q", p.Method)
	}

	bill := Bill{
		ID:              apt.GenerateNewID(),
		BillNumber:      meta.BillNumber,
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		OrderType:       o.OrderType,
		Totals:          totals,
		DiscountPercent: discountPercent,
		PaymentMethod:   method.Code(),
		CashierID:       p.CashierID,
		PaidAt:          meta.PaidAt,
		CGST:            decimal.Zero,
		SGST:            decimal.Zero,
		IGST:            decimal.Zero,
	}

	if meta.InterState {
		bill.IGST = totals.TaxAmount
	} else {
		bill.CGST, bill.SGST = pricing.SplitTax(totals.TaxAmount)
	}

	var err error
	if *method == paymentmethod.Methods.Split {
		err = settleSplit(&bill, p.Splits)
	} else {
		err = settleSingle(&bill, *method, p.AmountPaid)
	}
	if err != nil {
		return Bill{}, err
	}

	return bill, nil
}

func settleSplit(b *Bill, splits []SplitPayment) error {
	if len(splits) == 0 {
		return poserr.Validation(op, "split payment needs at least one part")
	}

	sum := decimal.Zero
	parts := make([]SplitPayment, 0, len(splits))
	for _, s := range splits {
		m := paymentmethod.ByName(s.Method)
		if m == nil || *m == paymentmethod.Methods.Split {
			return poserr.Validation(op, "invalid split payment method %q", s.Method)
		}
		if !s.Amount.IsPositive() {
			return poserr.Validation(op, "split payment amounts must be positive")
		}
		sum = sum.Add(s.Amount)
		parts = append(parts, SplitPayment{Method: m.Code(), Amount: s.Amount})
	}

	if !sum.Equal(b.Total) {
		return poserr.Validation(op, "%s: paid %s, total %s", poserr.MsgSplitMismatch, sum.StringFixed(pricing.MinorUnits), b.Total.StringFixed(pricing.MinorUnits))
	}

	b.SplitPayments = parts
	b.AmountPaid = sum
	b.ChangeGiven = decimal.Zero
	return nil
}

func settleSingle(b *Bill, m paymentmethod.Method, tendered decimal.Decimal) error {
	if tendered.IsNegative() {
		return poserr.Validation(op, "amount paid cannot be negative")
	}
	if tendered.IsZero() {
		tendered = b.Total
	}
	if tendered.LessThan(b.Total) {
		return poserr.Validation(op, poserr.MsgInsufficientPayment)
	}
	if tendered.GreaterThan(b.Total) && !m.GivesChange() {
		return poserr.Validation(op, "%s payments must match the total exactly", m.Code())
	}

	b.AmountPaid = tendered
	b.ChangeGiven = tendered.Sub(b.Total)
	return nil
}
