package sqlstore

import (
	"testing"

	"github.com/appetiteclub/appetite/services/pos/internal/order"
	"github.com/appetiteclub/appetite/services/pos/internal/tables"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestOrderItemsToRecordsContinuesPositions(t *testing.T) {
	orderID := uuid.New()
	items := []order.OrderItem{
		{ID: uuid.New(), Name: "Veg Biryani", UnitPrice: decimal.NewFromInt(260), Quantity: 1},
		{ID: uuid.New(), Name: "Raita", UnitPrice: decimal.NewFromInt(60), Quantity: 2},
	}

	recs := orderItemsToRecords(orderID, 3, items)

	for i, r := range recs {
		if r.Position != 3+i {
			t.Errorf("record %d position = %d", i, r.Position)
		}
		if r.OrderID != orderID.String() {
			t.Errorf("record %d order id = %s", i, r.OrderID)
		}
	}
}

func TestOrderRecordRestoresItemsInPositionOrder(t *testing.T) {
	o := order.Order{ID: uuid.New(), OrderNumber: "ORD-000007", Status: "pending"}
	items := []order.OrderItem{
		{ID: uuid.New(), Name: "Veg Biryani", Quantity: 1},
		{ID: uuid.New(), Name: "Raita", Quantity: 2},
	}

	rec := orderToRecord(o)
	rec.Items = orderItemsToRecords(o.ID, 0, items)
	back := rec.toDomain()

	if len(back.Items) != 2 || back.Items[0].Name != "Veg Biryani" || back.Items[1].Quantity != 2 {
		t.Errorf("items = %+v", back.Items)
	}
}

func TestTableRecordCurrentOrder(t *testing.T) {
	tb := tables.NewTable("T4", 6)
	if rec := tableToRecord(*tb); rec.CurrentOrderID != nil {
		t.Fatalf("free table stored with order %v", *rec.CurrentOrderID)
	}

	orderID := uuid.New()
	tb.CurrentOrderID = &orderID
	back := tableToRecord(*tb).toDomain()
	if back.CurrentOrderID == nil || *back.CurrentOrderID != orderID {
		t.Errorf("current order = %v", back.CurrentOrderID)
	}
}
