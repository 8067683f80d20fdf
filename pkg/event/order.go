package event

import "time"

const (
	OrdersTopic             = "orders.lifecycle"
	EventOrderSubmitted     = "order.submitted"
	EventOrderStatusChanged = "order.status_changed"
)

// OrderSubmittedEvent is published once the order, its items and its kitchen
// tickets have been committed.
type OrderSubmittedEvent struct {
	EventType   string    `json:"event_type"`
	OccurredAt  time.Time `json:"occurred_at"`
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	OrderType   string    `json:"order_type"`
	TableID     string    `json:"table_id,omitempty"`
	TokenNumber int       `json:"token_number,omitempty"`
	WaiterID    string    `json:"waiter_id,omitempty"`
	ItemCount   int       `json:"item_count"`
	Total       string    `json:"total"`
	Stations    []string  `json:"stations"`
}

type OrderStatusChangedEvent struct {
	EventType      string    `json:"event_type"`
	OccurredAt     time.Time `json:"occurred_at"`
	OrderID        string    `json:"order_id"`
	OrderNumber    string    `json:"order_number"`
	NewStatus      string    `json:"new_status"`
	PreviousStatus string    `json:"previous_status"`
}
