package mongo

import (
	"time"

	"github.com/appetiteclub/appetite/services/pos/internal/billing"
	"github.com/appetiteclub/appetite/services/pos/internal/kitchen"
	"github.com/appetiteclub/appetite/services/pos/internal/menu"
	"github.com/appetiteclub/appetite/services/pos/internal/order"
	"github.com/appetiteclub/appetite/services/pos/internal/pricing"
	"github.com/appetiteclub/appetite/services/pos/internal/tables"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Money is stored as Decimal128 so amounts keep their exact minor units.

func d128(d decimal.Decimal) primitive.Decimal128 {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.NewDecimal128(0, 0)
	}
	return v
}

func fromD128(v primitive.Decimal128) decimal.Decimal {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

func idRef(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func parseRef(s *string) *uuid.UUID {
	if s == nil {
		return nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil
	}
	return &id
}

func parseID(s string) uuid.UUID {
	id, _ := uuid.Parse(s)
	return id
}

type menuItemDoc struct {
	ID          string               `bson:"_id"`
	Name        string               `bson:"name"`
	Category    string               `bson:"category"`
	DineIn      primitive.Decimal128 `bson:"price_dine_in"`
	Takeaway    primitive.Decimal128 `bson:"price_takeaway"`
	Delivery    primitive.Decimal128 `bson:"price_delivery"`
	GSTPercent  primitive.Decimal128 `bson:"gst_percent"`
	FoodType    string               `bson:"food_type"`
	IsAvailable bool                 `bson:"is_available"`
	Modifiers   []modifierDoc        `bson:"modifiers,omitempty"`
	CreatedAt   time.Time            `bson:"created_at"`
	UpdatedAt   time.Time            `bson:"updated_at"`
}

type modifierDoc struct {
	ID          string              `bson:"id"`
	Name        string              `bson:"name"`
	Required    bool                `bson:"required"`
	MultiSelect bool                `bson:"multi_select"`
	Options     []modifierOptionDoc `bson:"options"`
}

type modifierOptionDoc struct {
	ID    string               `bson:"id"`
	Name  string               `bson:"name"`
	Price primitive.Decimal128 `bson:"price"`
}

func menuItemToDoc(m menu.MenuItem) menuItemDoc {
	doc := menuItemDoc{
		ID:          m.ID.String(),
		Name:        m.Name,
		Category:    m.Category,
		DineIn:      d128(m.Prices.DineIn),
		Takeaway:    d128(m.Prices.Takeaway),
		Delivery:    d128(m.Prices.Delivery),
		GSTPercent:  d128(m.GSTPercent),
		FoodType:    string(m.FoodType),
		IsAvailable: m.IsAvailable,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	for _, mod := range m.Modifiers {
		md := modifierDoc{ID: mod.ID, Name: mod.Name, Required: mod.Required, MultiSelect: mod.MultiSelect}
		for _, opt := range mod.Options {
			md.Options = append(md.Options, modifierOptionDoc{ID: opt.ID, Name: opt.Name, Price: d128(opt.Price)})
		}
		doc.Modifiers = append(doc.Modifiers, md)
	}
	return doc
}

func (d menuItemDoc) toDomain() menu.MenuItem {
	m := menu.MenuItem{
		ID:       parseID(d.ID),
		Name:     d.Name,
		Category: d.Category,
		Prices: menu.Prices{
			DineIn:   fromD128(d.DineIn),
			Takeaway: fromD128(d.Takeaway),
			Delivery: fromD128(d.Delivery),
		},
		GSTPercent:  fromD128(d.GSTPercent),
		FoodType:    menu.FoodType(d.FoodType),
		IsAvailable: d.IsAvailable,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	for _, md := range d.Modifiers {
		mod := menu.Modifier{ID: md.ID, Name: md.Name, Required: md.Required, MultiSelect: md.MultiSelect}
		for _, o := range md.Options {
			mod.Options = append(mod.Options, menu.ModifierOption{ID: o.ID, Name: o.Name, Price: fromD128(o.Price)})
		}
		m.Modifiers = append(m.Modifiers, mod)
	}
	return m
}

type tableDoc struct {
	ID             string    `bson:"_id"`
	Name           string    `bson:"name"`
	Capacity       int       `bson:"capacity"`
	Status         string    `bson:"status"`
	CurrentOrderID *string   `bson:"current_order_id"`
	CreatedAt      time.Time `bson:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at"`
}

func tableToDoc(t tables.Table) tableDoc {
	return tableDoc{
		ID:             t.ID.String(),
		Name:           t.Name,
		Capacity:       t.Capacity,
		Status:         t.Status,
		CurrentOrderID: idRef(t.CurrentOrderID),
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

func (d tableDoc) toDomain() tables.Table {
	return tables.Table{
		ID:             parseID(d.ID),
		Name:           d.Name,
		Capacity:       d.Capacity,
		Status:         d.Status,
		CurrentOrderID: parseRef(d.CurrentOrderID),
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

type selectedModifierDoc struct {
	ModifierID      string               `bson:"modifier_id"`
	OptionID        string               `bson:"option_id"`
	Name            string               `bson:"name"`
	PriceAdjustment primitive.Decimal128 `bson:"price_adjustment"`
}

type orderItemDoc struct {
	ID         string                `bson:"id"`
	MenuItemID string                `bson:"menu_item_id"`
	Name       string                `bson:"name"`
	Category   string                `bson:"category"`
	UnitPrice  primitive.Decimal128  `bson:"unit_price"`
	Quantity   int                   `bson:"quantity"`
	Modifiers  []selectedModifierDoc `bson:"modifiers,omitempty"`
	Notes      string                `bson:"notes,omitempty"`
	Station    string                `bson:"station"`
}

func orderItemsToDocs(items []order.OrderItem) []orderItemDoc {
	docs := make([]orderItemDoc, 0, len(items))
	for _, it := range items {
		doc := orderItemDoc{
			ID:         it.ID.String(),
			MenuItemID: it.MenuItemID.String(),
			Name:       it.Name,
			Category:   it.Category,
			UnitPrice:  d128(it.UnitPrice),
			Quantity:   it.Quantity,
			Notes:      it.Notes,
			Station:    it.Station,
		}
		for _, m := range it.Modifiers {
			doc.Modifiers = append(doc.Modifiers, selectedModifierDoc{
				ModifierID:      m.ModifierID,
				OptionID:        m.OptionID,
				Name:            m.Name,
				PriceAdjustment: d128(m.PriceAdjustment),
			})
		}
		docs = append(docs, doc)
	}
	return docs
}

func (d orderItemDoc) toDomain() order.OrderItem {
	it := order.OrderItem{
		ID:         parseID(d.ID),
		MenuItemID: parseID(d.MenuItemID),
		Name:       d.Name,
		Category:   d.Category,
		UnitPrice:  fromD128(d.UnitPrice),
		Quantity:   d.Quantity,
		Notes:      d.Notes,
		Station:    d.Station,
	}
	for _, m := range d.Modifiers {
		it.Modifiers = append(it.Modifiers, menu.SelectedModifier{
			ModifierID:      m.ModifierID,
			OptionID:        m.OptionID,
			Name:            m.Name,
			PriceAdjustment: fromD128(m.PriceAdjustment),
		})
	}
	return it
}

type totalsDoc struct {
	Subtotal       primitive.Decimal128 `bson:"subtotal"`
	TaxAmount      primitive.Decimal128 `bson:"tax_amount"`
	ServiceCharge  primitive.Decimal128 `bson:"service_charge"`
	DiscountAmount primitive.Decimal128 `bson:"discount_amount"`
	RoundOff       primitive.Decimal128 `bson:"round_off"`
	Total          primitive.Decimal128 `bson:"total"`
}

func totalsToDoc(t pricing.Totals) totalsDoc {
	return totalsDoc{
		Subtotal:       d128(t.Subtotal),
		TaxAmount:      d128(t.TaxAmount),
		ServiceCharge:  d128(t.ServiceCharge),
		DiscountAmount: d128(t.DiscountAmount),
		RoundOff:       d128(t.RoundOff),
		Total:          d128(t.Total),
	}
}

func (d totalsDoc) toDomain() pricing.Totals {
	return pricing.Totals{
		Subtotal:       fromD128(d.Subtotal),
		TaxAmount:      fromD128(d.TaxAmount),
		ServiceCharge:  fromD128(d.ServiceCharge),
		DiscountAmount: fromD128(d.DiscountAmount),
		RoundOff:       fromD128(d.RoundOff),
		Total:          fromD128(d.Total),
	}
}

type orderDoc struct {
	ID          string         `bson:"_id"`
	OrderNumber string         `bson:"order_number"`
	OrderType   string         `bson:"order_type"`
	TableID     *string        `bson:"table_id,omitempty"`
	TokenNumber int            `bson:"token_number,omitempty"`
	Status      string         `bson:"status"`
	Items       []orderItemDoc `bson:"items"`
	Totals      totalsDoc      `bson:"totals"`

	TaxPercent           primitive.Decimal128 `bson:"tax_percent"`
	ServiceChargePercent primitive.Decimal128 `bson:"service_charge_percent"`
	DiscountPercent      primitive.Decimal128 `bson:"discount_percent"`
	RoundingUnit         primitive.Decimal128 `bson:"rounding_unit"`

	WaiterID    string     `bson:"waiter_id,omitempty"`
	CreatedAt   time.Time  `bson:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at"`
	CompletedAt *time.Time `bson:"completed_at,omitempty"`
}

// orderToDoc leaves items out; they are written by InsertOrderItems.
func orderToDoc(o order.Order) orderDoc {
	return orderDoc{
		ID:                   o.ID.String(),
		OrderNumber:          o.OrderNumber,
		OrderType:            o.OrderType,
		TableID:              idRef(o.TableID),
		TokenNumber:          o.TokenNumber,
		Status:               o.Status,
		Items:                []orderItemDoc{},
		Totals:               totalsToDoc(o.Totals),
		TaxPercent:           d128(o.TaxPercent),
		ServiceChargePercent: d128(o.ServiceChargePercent),
		DiscountPercent:      d128(o.DiscountPercent),
		RoundingUnit:         d128(o.RoundingUnit),
		WaiterID:             o.WaiterID,
		CreatedAt:            o.CreatedAt,
		UpdatedAt:            o.UpdatedAt,
		CompletedAt:          o.CompletedAt,
	}
}

func (d orderDoc) toDomain() order.Order {
	o := order.Order{
		ID:                   parseID(d.ID),
		OrderNumber:          d.OrderNumber,
		OrderType:            d.OrderType,
		TableID:              parseRef(d.TableID),
		TokenNumber:          d.TokenNumber,
		Status:               d.Status,
		Totals:               d.Totals.toDomain(),
		TaxPercent:           fromD128(d.TaxPercent),
		ServiceChargePercent: fromD128(d.ServiceChargePercent),
		DiscountPercent:      fromD128(d.DiscountPercent),
		RoundingUnit:         fromD128(d.RoundingUnit),
		WaiterID:             d.WaiterID,
		CreatedAt:            d.CreatedAt,
		UpdatedAt:            d.UpdatedAt,
		CompletedAt:          d.CompletedAt,
	}
	for _, it := range d.Items {
		o.Items = append(o.Items, it.toDomain())
	}
	return o
}

type ticketItemDoc struct {
	OrderItemID string   `bson:"order_item_id"`
	Name        string   `bson:"name"`
	Quantity    int      `bson:"quantity"`
	Modifiers   []string `bson:"modifiers,omitempty"`
	Notes       string   `bson:"notes,omitempty"`
}

type ticketDoc struct {
	ID          string          `bson:"_id"`
	OrderID     string          `bson:"order_id"`
	OrderNumber string          `bson:"order_number"`
	OrderType   string          `bson:"order_type"`
	TableID     *string         `bson:"table_id,omitempty"`
	TokenNumber int             `bson:"token_number,omitempty"`
	Station     string          `bson:"station"`
	Items       []ticketItemDoc `bson:"items"`
	Priority    bool            `bson:"priority"`
	Status      string          `bson:"status"`
	CreatedAt   time.Time       `bson:"created_at"`
	UpdatedAt   time.Time       `bson:"updated_at"`
	StartedAt   *time.Time      `bson:"started_at,omitempty"`
	ReadyAt     *time.Time      `bson:"ready_at,omitempty"`
	BumpedAt    *time.Time      `bson:"bumped_at,omitempty"`
}

func ticketToDoc(t kitchen.Ticket) ticketDoc {
	doc := ticketDoc{
		ID:          t.ID.String(),
		OrderID:     t.OrderID.String(),
		OrderNumber: t.OrderNumber,
		OrderType:   t.OrderType,
		TableID:     idRef(t.TableID),
		TokenNumber: t.TokenNumber,
		Station:     t.Station,
		Priority:    t.Priority,
		Status:      t.Status,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		StartedAt:   t.StartedAt,
		ReadyAt:     t.ReadyAt,
		BumpedAt:    t.BumpedAt,
	}
	for _, it := range t.Items {
		doc.Items = append(doc.Items, ticketItemDoc{
			OrderItemID: it.OrderItemID.String(),
			Name:        it.Name,
			Quantity:    it.Quantity,
			Modifiers:   it.Modifiers,
			Notes:       it.Notes,
		})
	}
	return doc
}

func (d ticketDoc) toDomain() kitchen.Ticket {
	t := kitchen.Ticket{
		ID:          parseID(d.ID),
		OrderID:     parseID(d.OrderID),
		OrderNumber: d.OrderNumber,
		OrderType:   d.OrderType,
		TableID:     parseRef(d.TableID),
		TokenNumber: d.TokenNumber,
		Station:     d.Station,
		Priority:    d.Priority,
		Status:      d.Status,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
		StartedAt:   d.StartedAt,
		ReadyAt:     d.ReadyAt,
		BumpedAt:    d.BumpedAt,
	}
	for _, it := range d.Items {
		t.Items = append(t.Items, kitchen.TicketItem{
			OrderItemID: parseID(it.OrderItemID),
			Name:        it.Name,
			Quantity:    it.Quantity,
			Modifiers:   it.Modifiers,
			Notes:       it.Notes,
		})
	}
	return t
}

type splitPaymentDoc struct {
	Method string               `bson:"method"`
	Amount primitive.Decimal128 `bson:"amount"`
}

type billDoc struct {
	ID              string               `bson:"_id"`
	BillNumber      string               `bson:"bill_number"`
	OrderID         string               `bson:"order_id"`
	OrderNumber     string               `bson:"order_number"`
	OrderType       string               `bson:"order_type"`
	Totals          totalsDoc            `bson:"totals"`
	DiscountPercent primitive.Decimal128 `bson:"discount_percent"`
	CGST            primitive.Decimal128 `bson:"cgst"`
	SGST            primitive.Decimal128 `bson:"sgst"`
	IGST            primitive.Decimal128 `bson:"igst"`
	PaymentMethod   string               `bson:"payment_method"`
	SplitPayments   []splitPaymentDoc    `bson:"split_payments,omitempty"`
	AmountPaid      primitive.Decimal128 `bson:"amount_paid"`
	ChangeGiven     primitive.Decimal128 `bson:"change_given"`
	CashierID       string               `bson:"cashier_id,omitempty"`
	PaidAt          time.Time            `bson:"paid_at"`
}

func billToDoc(b billing.Bill) billDoc {
	doc := billDoc{
		ID:              b.ID.String(),
		BillNumber:      b.BillNumber,
		OrderID:         b.OrderID.String(),
		OrderNumber:     b.OrderNumber,
		OrderType:       b.OrderType,
		Totals:          totalsToDoc(b.Totals),
		DiscountPercent: d128(b.DiscountPercent),
		CGST:            d128(b.CGST),
		SGST:            d128(b.SGST),
		IGST:            d128(b.IGST),
		PaymentMethod:   b.PaymentMethod,
		AmountPaid:      d128(b.AmountPaid),
		ChangeGiven:     d128(b.ChangeGiven),
		CashierID:       b.CashierID,
		PaidAt:          b.PaidAt,
	}
	for _, s := range b.SplitPayments {
		doc.SplitPayments = append(doc.SplitPayments, splitPaymentDoc{Method: s.Method, Amount: d128(s.Amount)})
	}
	return doc
}

func (d billDoc) toDomain() billing.Bill {
	b := billing.Bill{
		ID:              parseID(d.ID),
		BillNumber:      d.BillNumber,
		OrderID:         parseID(d.OrderID),
		OrderNumber:     d.OrderNumber,
		OrderType:       d.OrderType,
		Totals:          d.Totals.toDomain(),
		DiscountPercent: fromD128(d.DiscountPercent),
		CGST:            fromD128(d.CGST),
		SGST:            fromD128(d.SGST),
		IGST:            fromD128(d.IGST),
		PaymentMethod:   d.PaymentMethod,
		AmountPaid:      fromD128(d.AmountPaid),
		ChangeGiven:     fromD128(d.ChangeGiven),
		CashierID:       d.CashierID,
		PaidAt:          d.PaidAt,
	}
	for _, s := range d.SplitPayments {
		b.SplitPayments = append(b.SplitPayments, billing.SplitPayment{Method: s.Method, Amount: fromD128(s.Amount)})
	}
	return b
}
