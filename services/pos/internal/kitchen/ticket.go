package kitchen

import (
	"time"

	"github.com/appetiteclub/appetite/pkg/enums/kitchenstatus"
	"github.com/appetiteclub/appetite/services/pos/internal/poserr"
	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
)

type TicketID = uuid.UUID
type OrderID = uuid.UUID

// Ticket is the kitchen's copy of the part of an order one station
// prepares. It is never the source of truth for order contents.
type Ticket struct {
	ID          TicketID     `json:"id"`
	OrderID     OrderID      `json:"order_id"`
	OrderNumber string       `json:"order_number"`
	OrderType   string       `json:"order_type"`
	TableID     *uuid.UUID   `json:"table_id,omitempty"`
	TokenNumber int          `json:"token_number,omitempty"`
	Station     string       `json:"station"`
	Items       []TicketItem `json:"items"`
	Priority    bool         `json:"priority"`
	Status      string       `json:"status"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	ReadyAt   *time.Time `json:"ready_at,omitempty"`
	BumpedAt  *time.Time `json:"bumped_at,omitempty"`
}

type TicketItem struct {
	OrderItemID uuid.UUID `json:"order_item_id"`
	Name        string    `json:"name"`
	Quantity    int       `json:"quantity"`
	Modifiers   []string  `json:"modifiers,omitempty"`
	Notes       string    `json:"notes,omitempty"`
}

type Action string

const (
	ActionStart  Action = "start"
	ActionReady  Action = "ready"
	ActionHold   Action = "hold"
	ActionUnhold Action = "unhold"
	ActionBump   Action = "bump"
	// ActionCancel retires a ticket whose order was cancelled. It is not
	// offered to stations.
	ActionCancel Action = "cancel"
)

func NewTicket(orderID OrderID, stationCode string, at time.Time) *Ticket {
	return &Ticket{
		ID:        apt.GenerateNewID(),
		OrderID:   orderID,
		Station:   stationCode,
		Status:    kitchenstatus.Statuses.Pending.Code(),
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func (t *Ticket) GetID() uuid.UUID {
	return t.ID
}

func (t *Ticket) ResourceType() string {
	return "ticket"
}

func (t *Ticket) SetID(id uuid.UUID) {
	t.ID = id
}

// Active reports whether the ticket still belongs on a station screen.
func (t Ticket) Active() bool {
	s := kitchenstatus.ByName(t.Status)
	return s == nil || !s.Terminal()
}

// Apply runs one status transition:
//
//	pending -> preparing -> ready -> bumped
//	preparing <-> hold
//	any active state -> cancelled
//
// Bump is accepted from any active state except hold.
func (t *Ticket) Apply(action Action, at time.Time) error {
	const op = "kitchen.Apply"
	s := kitchenstatus.Statuses

	switch action {
	case ActionStart:
		if t.Status != s.Pending.Code() {
			return poserr.State(op, "cannot start ticket in status %s", t.Status)
		}
		t.Status = s.Preparing.Code()
		t.StartedAt = timeRef(at)

	case ActionReady:
		if t.Status != s.Preparing.Code() {
			return poserr.State(op, "cannot mark ticket ready in status %s", t.Status)
		}
		t.Status = s.Ready.Code()
		t.ReadyAt = timeRef(at)

	case ActionHold:
		if t.Status != s.Preparing.Code() {
			return poserr.State(op, "only preparing tickets can be held, status is %s", t.Status)
		}
		t.Status = s.Hold.Code()

	case ActionUnhold:
		if t.Status != s.Hold.Code() {
			return poserr.State(op, "ticket is not on hold")
		}
		t.Status = s.Preparing.Code()

	case ActionBump:
		switch t.Status {
		case s.Hold.Code():
			return poserr.State(op, poserr.MsgTicketOnHold)
		case s.Bumped.Code():
			return poserr.State(op, "ticket already bumped")
		case s.Cancelled.Code():
			return poserr.State(op, "ticket was cancelled")
		}
		t.Status = s.Bumped.Code()
		t.BumpedAt = timeRef(at)

	case ActionCancel:
		if !t.Active() {
			return poserr.State(op, "cannot cancel ticket in status %s", t.Status)
		}
		t.Status = s.Cancelled.Code()

	default:
		return poserr.Validation(op, "unknown ticket action %q", action)
	}

	t.UpdatedAt = at
	return nil
}

// ElapsedMinutes is the whole minutes since the ticket was created. It is
// computed on read and never stored.
func (t Ticket) ElapsedMinutes(now time.Time) int {
	d := now.Sub(t.CreatedAt)
	if d < 0 {
		return 0
	}
	return int(d / time.Minute)
}

func (t Ticket) Clone() Ticket {
	c := t
	c.Items = make([]TicketItem, len(t.Items))
	for i, it := range t.Items {
		c.Items[i] = it
		if it.Modifiers != nil {
			c.Items[i].Modifiers = append([]string(nil), it.Modifiers...)
		}
	}
	if t.TableID != nil {
		id := *t.TableID
		c.TableID = &id
	}
	c.StartedAt = copyTime(t.StartedAt)
	c.ReadyAt = copyTime(t.ReadyAt)
	c.BumpedAt = copyTime(t.BumpedAt)
	return c
}

func timeRef(t time.Time) *time.Time {
	return &t
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
