package sqlstore

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
)

type menuItemRecord struct {
	ID            string          `gorm:"type:char(36);primaryKey"`
	Name          string          `gorm:"not null"`
	Category      string          `gorm:"index"`
	PriceDineIn   decimal.Decimal `gorm:"type:decimal(10,2)"`
	PriceTakeaway decimal.Decimal `gorm:"type:decimal(10,2)"`
	PriceDelivery decimal.Decimal `gorm:"type:decimal(10,2)"`
	GSTPercent    decimal.Decimal `gorm:"type:decimal(5,2)"`
	FoodType      string
	IsAvailable   bool            `gorm:"default:true"`
	Modifiers     []menu.Modifier `gorm:"serializer:json"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (menuItemRecord) TableName() string { return "menu_items" }

type tableRecord struct {
	ID             string `gorm:"type:char(36);primaryKey"`
	Name           string `gorm:"uniqueIndex;size:64"`
	Capacity       int
	Status         string  `gorm:"size:16;index"`
	CurrentOrderID *string `gorm:"type:char(36)"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (tableRecord) TableName() string { return "restaurant_tables" }

type orderRecord struct {
	ID          string  `gorm:"type:char(36);primaryKey"`
	OrderNumber string  `gorm:"uniqueIndex;size:32"`
	OrderType   string  `gorm:"size:16"`
	TableID     *string `gorm:"type:char(36);index"`
	TokenNumber int
	Status      string `gorm:"size:16;index"`

	Subtotal       decimal.Decimal `gorm:"type:decimal(10,2)"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(10,2)"`
	ServiceCharge  decimal.Decimal `gorm:"type:decimal(10,2)"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(10,2)"`
	RoundOff       decimal.Decimal `gorm:"type:decimal(10,2)"`
	Total          decimal.Decimal `gorm:"type:decimal(10,2)"`

	TaxPercent           decimal.Decimal `gorm:"type:decimal(5,2)"`
	ServiceChargePercent decimal.Decimal `gorm:"type:decimal(5,2)"`
	DiscountPercent      decimal.Decimal `gorm:"type:decimal(5,2)"`
	RoundingUnit         decimal.Decimal `gorm:"type:decimal(10,2)"`

	WaiterID    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time

	Items []orderItemRecord `gorm:"foreignKey:OrderID"`
}

func (orderRecord) TableName() string { return "orders" }

type orderItemRecord struct {
	ID         string `gorm:"type:char(36);primaryKey"`
	OrderID    string `gorm:"type:char(36);index"`
	Position   int
	MenuItemID string `gorm:"type:char(36)"`
	Name       string
	Category   string
	UnitPrice  decimal.Decimal         `gorm:"type:decimal(10,2)"`
	Quantity   int                     `gorm:"not null"`
	Modifiers  []menu.SelectedModifier `gorm:"serializer:json"`
	Notes      string                  `gorm:"type:text"`
	Station    string                  `gorm:"size:16"`
}

func (orderItemRecord) TableName() string { return "order_items" }

type ticketRecord struct {
	ID          string `gorm:"type:char(36);primaryKey"`
	OrderID     string `gorm:"type:char(36);uniqueIndex:idx_ticket_route"`
	Station     string `gorm:"size:16;uniqueIndex:idx_ticket_route"`
	OrderNumber string
	OrderType   string  `gorm:"size:16"`
	TableID     *string `gorm:"type:char(36)"`
	TokenNumber int
	Items       []kitchen.TicketItem `gorm:"serializer:json"`
	Priority    bool
	Status      string `gorm:"size:16;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	StartedAt   *time.Time
	ReadyAt     *time.Time
	BumpedAt    *time.Time
}

func (ticketRecord) TableName() string { return "kitchen_tickets" }

type billRecord struct {
	ID          string `gorm:"type:char(36);primaryKey"`
	BillNumber  string `gorm:"uniqueIndex;size:32"`
	OrderID     string `gorm:"type:char(36);uniqueIndex"`
	OrderNumber string
	OrderType   string `gorm:"size:16"`

	Subtotal        decimal.Decimal `gorm:"type:decimal(10,2)"`
	TaxAmount       decimal.Decimal `gorm:"type:decimal(10,2)"`
	ServiceCharge   decimal.Decimal `gorm:"type:decimal(10,2)"`
	DiscountAmount  decimal.Decimal `gorm:"type:decimal(10,2)"`
	RoundOff        decimal.Decimal `gorm:"type:decimal(10,2)"`
	Total           decimal.Decimal `gorm:"type:decimal(10,2)"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(5,2)"`
	CGST            decimal.Decimal `gorm:"type:decimal(10,2)"`
	SGST            decimal.Decimal `gorm:"type:decimal(10,2)"`
	IGST            decimal.Decimal `gorm:"type:decimal(10,2)"`

	PaymentMethod string                 `gorm:"size:16"`
	SplitPayments []billing.SplitPayment `gorm:"serializer:json"`
	AmountPaid    decimal.Decimal        `gorm:"type:decimal(10,2)"`
	ChangeGiven   decimal.Decimal        `gorm:"type:decimal(10,2)"`
	CashierID     string
	PaidAt        time.Time `gorm:"index"`
}

func (billRecord) TableName() string { return "bills" }

type counterRecord struct {
	Name  string `gorm:"primaryKey;size:64"`
	Value int64
}

func (counterRecord) TableName() string { return "counters" }

func ref(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func deref(s *string) *uuid.UUID {
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

func menuItemToRecord(m menu.MenuItem) menuItemRecord {
	return menuItemRecord{
		ID:            m.ID.String(),
		Name:          m.Name,
		Category:      m.Category,
		PriceDineIn:   m.Prices.DineIn,
		PriceTakeaway: m.Prices.Takeaway,
		PriceDelivery: m.Prices.Delivery,
		GSTPercent:    m.GSTPercent,
		FoodType:      string(m.FoodType),
		IsAvailable:   m.IsAvailable,
		Modifiers:     m.Modifiers,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func (r menuItemRecord) toDomain() menu.MenuItem {
	return menu.MenuItem{
		ID:       parseID(r.ID),
		Name:     r.Name,
		Category: r.Category,
		Prices: menu.Prices{
			DineIn:   r.PriceDineIn,
			Takeaway: r.PriceTakeaway,
			Delivery: r.PriceDelivery,
		},
		GSTPercent:  r.GSTPercent,
		FoodType:    menu.FoodType(r.FoodType),
		IsAvailable: r.IsAvailable,
		Modifiers:   r.Modifiers,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func tableToRecord(t tables.Table) tableRecord {
	return tableRecord{
		ID:             t.ID.String(),
		Name:           t.Name,
		Capacity:       t.Capacity,
		Status:         t.Status,
		CurrentOrderID: ref(t.CurrentOrderID),
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

func (r tableRecord) toDomain() tables.Table {
	return tables.Table{
		ID:             parseID(r.ID),
		Name:           r.Name,
		Capacity:       r.Capacity,
		Status:         r.Status,
		CurrentOrderID: deref(r.CurrentOrderID),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func orderToRecord(o order.Order) orderRecord {
	return orderRecord{
		ID:                   o.ID.String(),
		OrderNumber:          o.OrderNumber,
		OrderType:            o.OrderType,
		TableID:              ref(o.TableID),
		TokenNumber:          o.TokenNumber,
		Status:               o.Status,
		Subtotal:             o.Subtotal,
		TaxAmount:            o.TaxAmount,
		ServiceCharge:        o.ServiceCharge,
		DiscountAmount:       o.DiscountAmount,
		RoundOff:             o.RoundOff,
		Total:                o.Total,
		TaxPercent:           o.TaxPercent,
		ServiceChargePercent: o.ServiceChargePercent,
		DiscountPercent:      o.DiscountPercent,
		RoundingUnit:         o.RoundingUnit,
		WaiterID:             o.WaiterID,
		CreatedAt:            o.CreatedAt,
		UpdatedAt:            o.UpdatedAt,
		CompletedAt:          o.CompletedAt,
	}
}

func (r orderRecord) toDomain() order.Order {
	o := order.Order{
		ID:          parseID(r.ID),
		OrderNumber: r.OrderNumber,
		OrderType:   r.OrderType,
		TableID:     deref(r.TableID),
		TokenNumber: r.TokenNumber,
		Status:      r.Status,
		Totals: pricing.Totals{
			Subtotal:       r.Subtotal,
			TaxAmount:      r.TaxAmount,
			ServiceCharge:  r.ServiceCharge,
			DiscountAmount: r.DiscountAmount,
			RoundOff:       r.RoundOff,
			Total:          r.Total,
		},
		TaxPercent:           r.TaxPercent,
		ServiceChargePercent: r.ServiceChargePercent,
		DiscountPercent:      r.DiscountPercent,
		RoundingUnit:         r.RoundingUnit,
		WaiterID:             r.WaiterID,
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
		CompletedAt:          r.CompletedAt,
	}
	for _, it := range r.Items {
		o.Items = append(o.Items, order.OrderItem{
			ID:         parseID(it.ID),
			MenuItemID: parseID(it.MenuItemID),
			Name:       it.Name,
			Category:   it.Category,
			UnitPrice:  it.UnitPrice,
			Quantity:   it.Quantity,
			Modifiers:  it.Modifiers,
			Notes:      it.Notes,
			Station:    it.Station,
		})
	}
	return o
}

func orderItemsToRecords(orderID uuid.UUID, offset int, items []order.OrderItem) []orderItemRecord {
	recs := make([]orderItemRecord, 0, len(items))
	for i, it := range items {
		recs = append(recs, orderItemRecord{
			ID:         it.ID.String(),
			OrderID:    orderID.String(),
			Position:   offset + i,
			MenuItemID: it.MenuItemID.String(),
			Name:       it.Name,
			Category:   it.Category,
			UnitPrice:  it.UnitPrice,
			Quantity:   it.Quantity,
			Modifiers:  it.Modifiers,
			Notes:      it.Notes,
			Station:    it.Station,
		})
	}
	return recs
}

func ticketToRecord(t kitchen.Ticket) ticketRecord {
	return ticketRecord{
		ID:          t.ID.String(),
		OrderID:     t.OrderID.String(),
		Station:     t.Station,
		OrderNumber: t.OrderNumber,
		OrderType:   t.OrderType,
		TableID:     ref(t.TableID),
		TokenNumber: t.TokenNumber,
		Items:       t.Items,
		Priority:    t.Priority,
		Status:      t.Status,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		StartedAt:   t.StartedAt,
		ReadyAt:     t.ReadyAt,
		BumpedAt:    t.BumpedAt,
	}
}

func (r ticketRecord) toDomain() kitchen.Ticket {
	return kitchen.Ticket{
		ID:          parseID(r.ID),
		OrderID:     parseID(r.OrderID),
		OrderNumber: r.OrderNumber,
		OrderType:   r.OrderType,
		TableID:     deref(r.TableID),
		TokenNumber: r.TokenNumber,
		Station:     r.Station,
		Items:       r.Items,
		Priority:    r.Priority,
		Status:      r.Status,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		StartedAt:   r.StartedAt,
		ReadyAt:     r.ReadyAt,
		BumpedAt:    r.BumpedAt,
	}
}

func billToRecord(b billing.Bill) billRecord {
	return billRecord{
		ID:              b.ID.String(),
		BillNumber:      b.BillNumber,
		OrderID:         b.OrderID.String(),
		OrderNumber:     b.OrderNumber,
		OrderType:       b.OrderType,
		Subtotal:        b.Subtotal,
		TaxAmount:       b.TaxAmount,
		ServiceCharge:   b.ServiceCharge,
		DiscountAmount:  b.DiscountAmount,
		RoundOff:        b.RoundOff,
		Total:           b.Total,
		DiscountPercent: b.DiscountPercent,
		CGST:            b.CGST,
		SGST:            b.SGST,
		IGST:            b.IGST,
		PaymentMethod:   b.PaymentMethod,
		SplitPayments:   b.SplitPayments,
		AmountPaid:      b.AmountPaid,
		ChangeGiven:     b.ChangeGiven,
		CashierID:       b.CashierID,
		PaidAt:          b.PaidAt,
	}
}

func (r billRecord) toDomain() billing.Bill {
	return billing.Bill{
		ID:          parseID(r.ID),
		BillNumber:  r.BillNumber,
		OrderID:     parseID(r.OrderID),
		OrderNumber: r.OrderNumber,
		OrderType:   r.OrderType,
		Totals: pricing.Totals{
			Subtotal:       r.Subtotal,
			TaxAmount:      r.TaxAmount,
			ServiceCharge:  r.ServiceCharge,
			DiscountAmount: r.DiscountAmount,
			RoundOff:       r.RoundOff,
			Total:          r.Total,
		},
		DiscountPercent: r.DiscountPercent,
		CGST:            r.CGST,
		SGST:            r.SGST,
		IGST:            r.IGST,
		PaymentMethod:   r.PaymentMethod,
		SplitPayments:   r.SplitPayments,
		AmountPaid:      r.AmountPaid,
		ChangeGiven:     r.ChangeGiven,
		CashierID:       r.CashierID,
		PaidAt:          r.PaidAt,
	}
}
