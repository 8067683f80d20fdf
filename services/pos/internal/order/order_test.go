package order

import (
	"testing"
	"time"

	"github.com/appetiteclub/appetite/services/pos/internal/poserr"
	"github.com/appetiteclub/appetite/services/pos/internal/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestOrderGetID(t *testing.T) {
	tests := []struct {
		name  string
		order *Order
		want  uuid.UUID
	}{
		{
			name:  "returnsCorrectID",
			order: &Order{ID: uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")},
			want:  uuid.MustParse("550e8400-e29b-41d4-a716-446655440000"),
		},
		{
			name:  "returnsNilUUIDWhenNotSet",
			order: &Order{},
			want:  uuid.Nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.order.GetID(); got != tt.want {
				t.Errorf("Order.GetID() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOrderResourceType(t *testing.T) {
	order := &Order{}
	if got := order.ResourceType(); got != "order" {
		t.Errorf("Order.ResourceType() = %q, want %q", got, "order")
	}
}

func TestOrderEnsureID(t *testing.T) {
	order := &Order{}
	order.EnsureID()
	if order.ID == uuid.Nil {
		t.Error("EnsureID() should generate non-nil UUID")
	}

	id := order.ID
	order.EnsureID()
	if order.ID != id {
		t.Errorf("EnsureID() changed existing ID from %v to %v", id, order.ID)
	}
}

func TestOrderTransitionTo(t *testing.T) {
	at := time.Date(2026, 10, 19, 20, 30, 0, 0, time.UTC)

	tests := []struct {
		name          string
		from          string
		to            string
		wantKind      poserr.Kind
		wantCompleted bool
	}{
		{name: "pendingToPreparing", from: "pending", to: "preparing"},
		{name: "readyToServed", from: "ready", to: "served"},
		{name: "servedToCompleted", from: "served", to: "completed", wantCompleted: true},
		{name: "cancelFromPreparing", from: "preparing", to: "cancelled"},
		{name: "regressionRejected", from: "served", to: "ready", wantKind: poserr.KindState},
		{name: "cancelCompletedRejected", from: "completed", to: "cancelled", wantKind: poserr.KindState},
		{name: "unknownTarget", from: "pending", to: "eaten", wantKind: poserr.KindValidation},
		{name: "corruptCurrent", from: "lost", to: "ready", wantKind: poserr.KindState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &Order{OrderNumber: "ORD-000001", Status: tt.from}

			prev, err := o.TransitionTo(tt.to, at)
			if poserr.KindOf(err) != tt.wantKind {
				t.Fatalf("TransitionTo() error = %v, want kind %v", err, tt.wantKind)
			}
			if err != nil {
				if o.Status != tt.from {
					t.Errorf("failed transition changed status to %q", o.Status)
				}
				return
			}
			if prev != tt.from || o.Status != tt.to {
				t.Errorf("TransitionTo() prev=%q status=%q, want %q -> %q", prev, o.Status, tt.from, tt.to)
			}
			if (o.CompletedAt != nil) != tt.wantCompleted {
				t.Errorf("CompletedAt = %v, want set %v", o.CompletedAt, tt.wantCompleted)
			}
		})
	}
}

func TestOrderRecalculateFromItems(t *testing.T) {
	o := &Order{
		Items: []OrderItem{
			{UnitPrice: decimal.NewFromInt(280), Quantity: 2},
			{UnitPrice: decimal.NewFromInt(80), Quantity: 2},
		},
		TaxPercent:           decimal.NewFromInt(5),
		ServiceChargePercent: decimal.NewFromInt(5),
		Totals:               pricing.Totals{Total: decimal.NewFromInt(1)},
	}

	o.Recalculate()

	if !o.Total.Equal(decimal.NewFromInt(792)) {
		t.Errorf("Total = %s, want 792", o.Total)
	}
}

func TestOrderIsOpen(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{"pending", true},
		{"served", true},
		{"completed", false},
		{"cancelled", false},
		{"", false},
	}

	for _, tt := range tests {
		o := &Order{Status: tt.status}
		if got := o.IsOpen(); got != tt.want {
			t.Errorf("IsOpen(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestListFilter(t *testing.T) {
	pending := Order{Status: "pending", OrderType: "dine-in"}
	takeaway := Order{Status: "served", OrderType: "takeaway"}

	tests := []struct {
		name     string
		filter   ListFilter
		wantKind poserr.Kind
		matches  []bool
		limit    int
	}{
		{name: "empty", filter: ListFilter{}, matches: []bool{true, true}, limit: DefaultListLimit},
		{name: "byStatus", filter: ListFilter{Status: "pending"}, matches: []bool{true, false}, limit: DefaultListLimit},
		{name: "byType", filter: ListFilter{OrderType: "takeaway", Limit: 5}, matches: []bool{false, true}, limit: 5},
		{name: "both", filter: ListFilter{Status: "pending", OrderType: "takeaway"}, matches: []bool{false, false}, limit: DefaultListLimit},
		{name: "unknownStatus", filter: ListFilter{Status: "eaten"}, wantKind: poserr.KindValidation},
		{name: "unknownType", filter: ListFilter{OrderType: "drive-thru"}, wantKind: poserr.KindValidation},
		{name: "negativeLimit", filter: ListFilter{Limit: -1}, wantKind: poserr.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.filter.Validate()
			if tt.wantKind != poserr.KindUnknown {
				if poserr.KindOf(err) != tt.wantKind {
					t.Fatalf("Validate() error = %v, want %v", err, tt.wantKind)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() error: %v", err)
			}
			for i, o := range []Order{pending, takeaway} {
				if got := tt.filter.Matches(o); got != tt.matches[i] {
					t.Errorf("Matches(%s/%s) = %v, want %v", o.Status, o.OrderType, got, tt.matches[i])
				}
			}
			if got := tt.filter.EffectiveLimit(); got != tt.limit {
				t.Errorf("EffectiveLimit() = %d, want %d", got, tt.limit)
			}
		})
	}
}

func TestSortNewestFirst(t *testing.T) {
	base := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	orders := []Order{
		{OrderNumber: "ORD-000001", CreatedAt: base},
		{OrderNumber: "ORD-000003", CreatedAt: base.Add(time.Minute)},
		{OrderNumber: "ORD-000002", CreatedAt: base},
	}

	SortNewestFirst(orders)

	want := []string{"ORD-000003", "ORD-000002", "ORD-000001"}
	for i, o := range orders {
		if o.OrderNumber != want[i] {
			t.Errorf("position %d = %s, want %s", i, o.OrderNumber, want[i])
		}
	}
}
