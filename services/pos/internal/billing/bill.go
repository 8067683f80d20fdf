package billing

import (
	"time"

	"github.com/appetiteclub/appetite/services/pos/internal/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SplitPayment struct {
	Method string          `json:"method"`
	Amount decimal.Decimal `json:"amount"`
}

// Payment is what the cashier hands in. AmountPaid may be left zero for an
// exact payment; Splits is only read when Method is split.
type Payment struct {
	Method     string          `json:"payment_method"`
	AmountPaid decimal.Decimal `json:"amount_paid"`
	Splits     []SplitPayment  `json:"split_payments,omitempty"`
	CashierID  string          `json:"cashier_id,omitempty"`
}

// Bill is produced once per order at payment time and never changes
// afterwards.
type Bill struct {
	ID          uuid.UUID `json:"id"`
	BillNumber  string    `json:"bill_number"`
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	OrderType   string    `json:"order_type"`

	pricing.Totals
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	CGST            decimal.Decimal `json:"cgst"`
	SGST            decimal.Decimal `json:"sgst"`
	IGST            decimal.Decimal `json:"igst"`

	PaymentMethod string          `json:"payment_method"`
	SplitPayments []SplitPayment  `json:"split_payments,omitempty"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	ChangeGiven   decimal.Decimal `json:"change_given"`
	CashierID     string          `json:"cashier_id,omitempty"`
	PaidAt        time.Time       `json:"paid_at"`
}

func (b *Bill) GetID() uuid.UUID {
	return b.ID
}

func (b *Bill) ResourceType() string {
	return "bill"
}

// TaxTotal is the sum of the reported tax components.
func (b Bill) TaxTotal() decimal.Decimal {
	return b.CGST.Add(b.SGST).Add(b.IGST)
}

// Clone returns a copy that shares no slices with b.
func (b Bill) Clone() Bill {
	c := b
	if b.SplitPayments != nil {
		c.SplitPayments = append([]SplitPayment(nil), b.SplitPayments...)
	}
	return c
}
