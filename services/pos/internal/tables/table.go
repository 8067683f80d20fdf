package tables

import (
	"time"

	"github.com/appetiteclub/appetite/pkg/enums/tablestatus"
	"github.com/appetiteclub/appetite/services/pos/internal/poserr"
	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
)

// Table holds a non-owning reference to the order seated at it. Its status
// follows the order lifecycle and is not set directly by callers.
type Table struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	Capacity       int        `json:"capacity"`
	Status         string     `json:"status"`
	CurrentOrderID *uuid.UUID `json:"current_order_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func NewTable(name string, capacity int) *Table {
	return &Table{
		ID:       apt.GenerateNewID(),
		Name:     name,
		Capacity: capacity,
		Status:   tablestatus.Statuses.Available.Code(),
	}
}

func (t *Table) GetID() uuid.UUID {
	return t.ID
}

func (t *Table) ResourceType() string {
	return "table"
}

func (t *Table) SetID(id uuid.UUID) {
	t.ID = id
}

func (t *Table) EnsureID() {
	if t.ID == uuid.Nil {
		t.ID = apt.GenerateNewID()
	}
}

func (t *Table) BeforeCreate() {
	t.EnsureID()
	t.CreatedAt = time.Now()
	t.UpdatedAt = time.Now()
}

func (t *Table) BeforeUpdate() {
	t.UpdatedAt = time.Now()
}

// Occupy seats orderID at the table. A table holds at most one open order;
// seating the same order again is a no-op.
func (t *Table) Occupy(orderID uuid.UUID, at time.Time) error {
	const op = "tables.Occupy"

	if t.CurrentOrderID != nil {
		if *t.CurrentOrderID == orderID {
			return nil
		}
		return poserr.State(op, "table %s already has an open order", t.Name)
	}

	switch t.Status {
	case tablestatus.Statuses.Available.Code(), tablestatus.Statuses.Reserved.Code():
	default:
		return poserr.State(op, "table %s is %s", t.Name, t.Status)
	}

	id := orderID
	t.CurrentOrderID = &id
	t.Status = tablestatus.Statuses.Occupied.Code()
	t.UpdatedAt = at
	return nil
}

// Release frees the table once orderID is paid or cancelled.
func (t *Table) Release(orderID uuid.UUID, at time.Time) error {
	if t.CurrentOrderID == nil || *t.CurrentOrderID != orderID {
		return poserr.State("tables.Release", "order %s is not seated at table %s", orderID, t.Name)
	}
	t.CurrentOrderID = nil
	t.Status = tablestatus.Statuses.Available.Code()
	t.UpdatedAt = at
	return nil
}

func (t *Table) Clone() *Table {
	c := *t
	if t.CurrentOrderID != nil {
		id := *t.CurrentOrderID
		c.CurrentOrderID = &id
	}
	return &c
}
