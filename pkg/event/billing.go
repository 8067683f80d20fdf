package event

import "time"

const (
	BillingTopic  = "billing.bills"
	EventBillPaid = "billing.bill.paid"
)

type BillPaidEvent struct {
	EventType     string    `json:"event_type"`
	OccurredAt    time.Time `json:"occurred_at"`
	BillID        string    `json:"bill_id"`
	BillNumber    string    `json:"bill_number"`
	OrderID       string    `json:"order_id"`
	OrderNumber   string    `json:"order_number"`
	PaymentMethod string    `json:"payment_method"`
	Total         string    `json:"total"`
	AmountPaid    string    `json:"amount_paid"`
	ChangeGiven   string    `json:"change_given"`
	CashierID     string    `json:"cashier_id,omitempty"`
}
