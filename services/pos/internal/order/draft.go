package order

import (
	"time"

	"github.com/appetiteclub/appetite/pkg/enums/orderstatus"
	"github.com/appetiteclub/appetite/pkg/enums/ordertype"
	"github.com/appetiteclub/appetite/pkg/enums/station"
	"github.com/appetiteclub/appetite/services/pos/internal/menu"
	"github.com/appetiteclub/appetite/services/pos/internal/poserr"
	"github.com/appetiteclub/appetite/services/pos/internal/pricing"
	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DraftOptions struct {
	OrderType string     `json:"order_type"`
	TableID   *uuid.UUID `json:"table_id,omitempty"`
	WaiterID  string     `json:"waiter_id,omitempty"`
}

// Draft is the order a waiter session is assembling. It is not safe for
// concurrent use; the owning session serializes access.
type Draft struct {
	SessionID       string          `json:"session_id"`
	OrderType       string          `json:"order_type"`
	TableID         *uuid.UUID      `json:"table_id,omitempty"`
	WaiterID        string          `json:"waiter_id,omitempty"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Items           []OrderItem     `json:"items"`
	pricing.Totals

	rates    pricing.Rates
	stations station.Mapper
}

// NewDraft validates the order type and table combination. Dine-in drafts
// need a table; takeaway and delivery drafts never carry one.
func NewDraft(sessionID string, opts DraftOptions, rates pricing.Rates, stations station.Mapper) (*Draft, error) {
	const op = "order.NewDraft"

	if opts.OrderType == "" {
		opts.OrderType = ordertype.Types.DineIn.Code()
	}
	typ := ordertype.ByName(opts.OrderType)
	if typ == nil {
		return nil, poserr.Validation(op, "unknown order type %q", opts.OrderType)
	}

	tableID := opts.TableID
	if typ.UsesTable() {
		if tableID == nil || *tableID == uuid.Nil {
			return nil, poserr.Validation(op, "dine-in orders need a table")
		}
	} else {
		tableID = nil
	}

	d := &Draft{
		SessionID: sessionID,
		OrderType: typ.Code(),
		TableID:   tableID,
		WaiterID:  opts.WaiterID,
		Items:     []OrderItem{},
		rates:     rates,
		stations:  stations,
	}
	d.recalculate()
	return d, nil
}

// AddItem adds quantity units of item with the given modifier selections.
// A line with the same menu item and the same modifier set absorbs the
// quantity instead of a new line being appended.
func (d *Draft) AddItem(item menu.MenuItem, quantity int, selections []menu.Selection, notes string) (OrderItem, error) {
	const op = "order.AddItem"

	if quantity < 1 {
		return OrderItem{}, poserr.Validation(op, poserr.MsgInvalidQuantity)
	}
	if !item.IsAvailable {
		return OrderItem{}, poserr.Validation(op, "%s: %s", poserr.MsgItemUnavailable, item.Name)
	}

	mods, err := item.Resolve(selections)
	if err != nil {
		return OrderItem{}, err
	}

	key := menu.Key(mods)
	for i := range d.Items {
		line := &d.Items[i]
		if line.MenuItemID != item.ID || menu.Key(line.Modifiers) != key {
			continue
		}
		line.Quantity += quantity
		if line.Notes == "" {
			line.Notes = notes
		}
		d.recalculate()
		return line.clone(), nil
	}

	line := OrderItem{
		ID:         apt.GenerateNewID(),
		MenuItemID: item.ID,
		Name:       item.Name,
		Category:   item.Category,
		UnitPrice:  item.PriceFor(d.Type()),
		Quantity:   quantity,
		Modifiers:  mods,
		Notes:      notes,
		Station:    d.stations.ForCategory(item.Category).Code(),
	}
	d.Items = append(d.Items, line)
	d.recalculate()
	return line.clone(), nil
}

func (d *Draft) RemoveItem(lineID uuid.UUID) error {
	i := d.indexOf(lineID)
	if i < 0 {
		return poserr.NotFound("order.RemoveItem", "line", lineID)
	}
	d.Items = append(d.Items[:i], d.Items[i+1:]...)
	d.recalculate()
	return nil
}

// SetQuantity replaces the quantity of a line; zero removes it.
func (d *Draft) SetQuantity(lineID uuid.UUID, quantity int) error {
	const op = "order.SetQuantity"

	if quantity < 0 {
		return poserr.Validation(op, poserr.MsgInvalidQuantity)
	}
	i := d.indexOf(lineID)
	if i < 0 {
		return poserr.NotFound(op, "line", lineID)
	}
	if quantity == 0 {
		return d.RemoveItem(lineID)
	}
	d.Items[i].Quantity = quantity
	d.recalculate()
	return nil
}

func (d *Draft) SetDiscount(pct decimal.Decimal) error {
	if pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
		return poserr.Validation("order.SetDiscount", "discount must be between 0 and 100")
	}
	d.DiscountPercent = pct
	d.recalculate()
	return nil
}

func (d *Draft) Empty() bool {
	return len(d.Items) == 0
}

func (d *Draft) Type() ordertype.Type {
	if t := ordertype.ByName(d.OrderType); t != nil {
		return *t
	}
	return ordertype.Types.DineIn
}

// Finalize builds the pending order the draft describes. The draft itself
// is left untouched so the caller can keep it until persistence succeeds.
func (d *Draft) Finalize(orderNumber string, token int, now time.Time) (*Order, error) {
	if d.Empty() {
		return nil, poserr.Validation("order.Submit", poserr.MsgEmptyOrder)
	}

	o := &Order{
		ID:                   apt.GenerateNewID(),
		OrderNumber:          orderNumber,
		OrderType:            d.OrderType,
		Status:               orderstatus.Statuses.Pending.Code(),
		Items:                make([]OrderItem, len(d.Items)),
		TaxPercent:           d.rates.TaxPercent,
		ServiceChargePercent: d.rates.ServiceChargePercent,
		DiscountPercent:      d.DiscountPercent,
		RoundingUnit:         d.rates.RoundingUnit,
		WaiterID:             d.WaiterID,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	for i, it := range d.Items {
		o.Items[i] = it.clone()
	}
	if d.TableID != nil {
		id := *d.TableID
		o.TableID = &id
	} else {
		o.TokenNumber = token
	}
	o.Recalculate()
	return o, nil
}

// Clone returns a deep copy, used to restore a draft after a failed submit.
func (d *Draft) Clone() *Draft {
	c := *d
	c.Items = make([]OrderItem, len(d.Items))
	for i, it := range d.Items {
		c.Items[i] = it.clone()
	}
	if d.TableID != nil {
		id := *d.TableID
		c.TableID = &id
	}
	return &c
}

func (d *Draft) indexOf(lineID uuid.UUID) int {
	for i, it := range d.Items {
		if it.ID == lineID {
			return i
		}
	}
	return -1
}

func (d *Draft) recalculate() {
	lines := make([]pricing.Line, 0, len(d.Items))
	for _, it := range d.Items {
		lines = append(lines, it.Line())
	}
	rates := d.rates
	rates.DiscountPercent = d.DiscountPercent
	d.Totals = pricing.ComputeTotals(lines, rates)
}
