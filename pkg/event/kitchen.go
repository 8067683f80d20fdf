package event

import "time"

const (
	KitchenTicketsTopic            = "kitchen.tickets"
	EventKitchenTicketCreated      = "kitchen.ticket.created"
	EventKitchenTicketUpdated      = "kitchen.ticket.updated"
	EventKitchenTicketStatusChange = "kitchen.ticket.status_changed"
)

type KitchenTicketEventMetadata struct {
	EventType   string    `json:"event_type"`
	OccurredAt  time.Time `json:"occurred_at"`
	TicketID    string    `json:"ticket_id"`
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	Station     string    `json:"station"`

	// Denormalized data for display
	TableID     string `json:"table_id,omitempty"`
	TokenNumber int    `json:"token_number,omitempty"`
}

type KitchenTicketItem struct {
	Name      string   `json:"name"`
	Quantity  int      `json:"quantity"`
	Modifiers []string `json:"modifiers,omitempty"`
	Notes     string   `json:"notes,omitempty"`
}

// KitchenTicketCreatedEvent is emitted for new tickets and for tickets whose
// items were replaced by a re-route (EventKitchenTicketUpdated).
type KitchenTicketCreatedEvent struct {
	KitchenTicketEventMetadata
	Status   string              `json:"status"`
	Priority bool                `json:"priority"`
	Items    []KitchenTicketItem `json:"items"`
}

type KitchenTicketStatusChangedEvent struct {
	KitchenTicketEventMetadata
	NewStatus      string     `json:"new_status"`
	PreviousStatus string     `json:"previous_status"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	ReadyAt        *time.Time `json:"ready_at,omitempty"`
	BumpedAt       *time.Time `json:"bumped_at,omitempty"`
}
