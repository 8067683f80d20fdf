package order

import (
	"sort"
	"time"

	"github.com/appetiteclub/appetite/pkg/enums/orderstatus"
	"github.com/appetiteclub/appetite/pkg/enums/ordertype"
	"github.com/appetiteclub/appetite/services/pos/internal/menu"
	"github.com/appetiteclub/appetite/services/pos/internal/poserr"
	"github.com/appetiteclub/appetite/services/pos/internal/pricing"
	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem is a line of an order. Name and UnitPrice are snapshots taken
// when the line was added; later menu edits do not touch them.
type OrderItem struct {
	ID         uuid.UUID               `json:"id"`
	MenuItemID uuid.UUID               `json:"menu_item_id"`
	Name       string                  `json:"name"`
	Category   string                  `json:"category"`
	UnitPrice  decimal.Decimal         `json:"unit_price"`
	Quantity   int                     `json:"quantity"`
	Modifiers  []menu.SelectedModifier `json:"modifiers,omitempty"`
	Notes      string                  `json:"notes,omitempty"`
	Station    string                  `json:"station"`
}

func (i OrderItem) Line() pricing.Line {
	adj := make([]decimal.Decimal, 0, len(i.Modifiers))
	for _, m := range i.Modifiers {
		adj = append(adj, m.PriceAdjustment)
	}
	return pricing.Line{UnitPrice: i.UnitPrice, Adjustments: adj, Quantity: i.Quantity}
}

func (i OrderItem) Amount() decimal.Decimal {
	return i.Line().Amount()
}

func (i OrderItem) clone() OrderItem {
	c := i
	if i.Modifiers != nil {
		c.Modifiers = append([]menu.SelectedModifier(nil), i.Modifiers...)
	}
	return c
}

type Order struct {
	ID          uuid.UUID   `json:"id"`
	OrderNumber string      `json:"order_number"`
	OrderType   string      `json:"order_type"`
	TableID     *uuid.UUID  `json:"table_id,omitempty"`
	TokenNumber int         `json:"token_number,omitempty"`
	Status      string      `json:"status"`
	Items       []OrderItem `json:"items"`

	pricing.Totals
	TaxPercent           decimal.Decimal `json:"tax_percent"`
	ServiceChargePercent decimal.Decimal `json:"service_charge_percent"`
	DiscountPercent      decimal.Decimal `json:"discount_percent"`
	RoundingUnit         decimal.Decimal `json:"rounding_unit"`

	WaiterID    string     `json:"waiter_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (o *Order) GetID() uuid.UUID {
	return o.ID
}

func (o *Order) ResourceType() string {
	return "order"
}

func (o *Order) SetID(id uuid.UUID) {
	o.ID = id
}

func (o *Order) EnsureID() {
	if o.ID == uuid.Nil {
		o.ID = apt.GenerateNewID()
	}
}

func (o *Order) BeforeCreate() {
	o.EnsureID()
	now := time.Now()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = o.CreatedAt
}

func (o *Order) BeforeUpdate() {
	o.UpdatedAt = time.Now()
}

func (o *Order) Type() ordertype.Type {
	if t := ordertype.ByName(o.OrderType); t != nil {
		return *t
	}
	return ordertype.Types.DineIn
}

// Rates returns the percentages the order was priced with.
func (o *Order) Rates() pricing.Rates {
	return pricing.Rates{
		TaxPercent:           o.TaxPercent,
		ServiceChargePercent: o.ServiceChargePercent,
		DiscountPercent:      o.DiscountPercent,
		RoundingUnit:         o.RoundingUnit,
	}
}

func (o *Order) Lines() []pricing.Line {
	lines := make([]pricing.Line, 0, len(o.Items))
	for _, it := range o.Items {
		lines = append(lines, it.Line())
	}
	return lines
}

// Recalculate refreshes the totals from the current items.
func (o *Order) Recalculate() {
	o.Totals = pricing.ComputeTotals(o.Lines(), o.Rates())
}

// IsOpen reports whether the order is neither completed nor cancelled.
func (o *Order) IsOpen() bool {
	s := orderstatus.ByName(o.Status)
	return s != nil && s.Open()
}

// TransitionTo moves the order to next and returns the previous status.
func (o *Order) TransitionTo(next string, at time.Time) (string, error) {
	const op = "order.TransitionTo"

	to := orderstatus.ByName(next)
	if to == nil {
		return "", poserr.Validation(op, "unknown order status %q", next)
	}
	from := orderstatus.ByName(o.Status)
	if from == nil {
		return "", poserr.State(op, "order %s has unknown status %q", o.OrderNumber, o.Status)
	}
	if !from.CanTransitionTo(*to) {
		return "", poserr.State(op, "cannot move order %s from %s to %s", o.OrderNumber, from.Name, to.Name)
	}

	previous := o.Status
	o.Status = to.Code()
	o.UpdatedAt = at
	if *to == orderstatus.Statuses.Completed {
		completed := at
		o.CompletedAt = &completed
	}
	return previous, nil
}

func (o *Order) Clone() *Order {
	c := *o
	c.Items = make([]OrderItem, len(o.Items))
	for i, it := range o.Items {
		c.Items[i] = it.clone()
	}
	if o.TableID != nil {
		id := *o.TableID
		c.TableID = &id
	}
	if o.CompletedAt != nil {
		at := *o.CompletedAt
		c.CompletedAt = &at
	}
	return &c
}

// ListFilter narrows an order listing. Empty fields match every order.
type ListFilter struct {
	Status    string
	OrderType string
	Limit     int
}

// DefaultListLimit caps a listing when the caller sets no limit.
const DefaultListLimit = 100

func (f ListFilter) Validate() error {
	if f.Status != "" && orderstatus.ByName(f.Status) == nil {
		return poserr.Validation("order.ListFilter", "unknown status %q", f.Status)
	}
	if f.OrderType != "" && ordertype.ByName(f.OrderType) == nil {
		return poserr.Validation("order.ListFilter", "unknown order type %q", f.OrderType)
	}
	if f.Limit < 0 {
		return poserr.Validation("order.ListFilter", "limit must not be negative")
	}
	return nil
}

func (f ListFilter) Matches(o Order) bool {
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	return f.OrderType == "" || o.OrderType == f.OrderType
}

// EffectiveLimit is Limit, or DefaultListLimit when unset.
func (f ListFilter) EffectiveLimit() int {
	if f.Limit <= 0 {
		return DefaultListLimit
	}
	return f.Limit
}

// SortNewestFirst orders by creation time, latest first, ties broken by
// order number descending.
func SortNewestFirst(orders []Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].OrderNumber > orders[j].OrderNumber
	})
}
