package pos

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/appetiteclub/appetite/pkg"
	"github.com/appetiteclub/appetite/pkg/enums/kitchenstatus"
	"github.com/appetiteclub/appetite/pkg/enums/orderstatus"
	"github.com/appetiteclub/appetite/pkg/enums/tablestatus"
	"github.com/appetiteclub/appetite/pkg/event"
	"github.com/appetiteclub/appetite/services/pos/internal/billing"
	"github.com/appetiteclub/appetite/services/pos/internal/kitchen"
	"github.com/appetiteclub/appetite/services/pos/internal/menu"
	"github.com/appetiteclub/appetite/services/pos/internal/notify"
	"github.com/appetiteclub/appetite/services/pos/internal/order"
	"github.com/appetiteclub/appetite/services/pos/internal/poserr"
	"github.com/appetiteclub/appetite/services/pos/internal/sequence"
	"github.com/appetiteclub/appetite/services/pos/internal/session"
	"github.com/appetiteclub/appetite/services/pos/internal/settings"
	"github.com/appetiteclub/appetite/services/pos/internal/tables"
	"github.com/appetiteclub/apt"
	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

var errConnReset = errors.New("connection reset")

func paneer() menu.MenuItem {
	return menu.MenuItem{
		ID:          uuid.MustParse("550e8400-e29b-41d4-a716-446655440001"),
		Name:        "Paneer Tikka",
		Category:    "Starters",
		IsAvailable: true,
		Prices:      menu.Prices{DineIn: decimal.NewFromInt(280), Takeaway: decimal.NewFromInt(260), Delivery: decimal.NewFromInt(300)},
	}
}

func lassi() menu.MenuItem {
	return menu.MenuItem{
		ID:          uuid.MustParse("550e8400-e29b-41d4-a716-446655440002"),
		Name:        "Sweet Lassi",
		Category:    "Beverages",
		IsAvailable: true,
		Prices:      menu.Prices{DineIn: decimal.NewFromInt(80), Takeaway: decimal.NewFromInt(80), Delivery: decimal.NewFromInt(90)},
	}
}

type fixture struct {
	svc   *Service
	gw    *MockGateway
	pub   *MockPublisher
	table tables.Table
	now   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	f := &fixture{gw: NewMockGateway(), pub: NewMockPublisher(), now: testNow}
	clock := func() time.Time { return f.now }

	for _, it := range []menu.MenuItem{paneer(), lassi()} {
		if err := f.gw.SaveMenuItem(ctx, it); err != nil {
			t.Fatalf("SaveMenuItem() error: %v", err)
		}
	}
	f.table = *tables.NewTable("T1", 4)
	if err := f.gw.SaveTable(ctx, f.table); err != nil {
		t.Fatalf("SaveTable() error: %v", err)
	}

	st := settings.Default()
	sessions := session.NewManager(actor.NewActorSystem(), f.gw, session.Options{
		Rates:          st.Rates(),
		Stations:       st.StationMapper(),
		RequestTimeout: 5 * time.Second,
	}, apt.NewNoopLogger())
	t.Cleanup(func() { _ = sessions.Stop(context.Background()) })

	router := kitchen.NewRouter(nil, apt.NewNoopLogger(), kitchen.WithPublisher(f.pub), kitchen.WithClock(clock))

	f.svc = NewService(ServiceDeps{
		Gateway:   f.gw,
		Sessions:  sessions,
		Router:    router,
		Numbers:   sequence.NewNumbers(sequence.NewMemory(), clock),
		Notifier:  notify.NewCenter(f.pub, apt.NewNoopLogger()),
		Settings:  st,
		Publisher: f.pub,
		Clock:     clock,
	}, apt.NewNoopLogger())
	return f
}

// draftScenarioA builds 2 x Paneer Tikka (280) + 2 x Sweet Lassi (80) for
// the fixture table.
func (f *fixture) draftScenarioA(t *testing.T, sid string) {
	t.Helper()
	ctx := context.Background()
	if _, err := f.svc.StartDraft(ctx, sid, order.DraftOptions{OrderType: "dine-in", TableID: &f.table.ID, WaiterID: "w-1"}); err != nil {
		t.Fatalf("StartDraft() error: %v", err)
	}
	for _, id := range []uuid.UUID{paneer().ID, lassi().ID} {
		if _, _, err := f.svc.AddItem(ctx, sid, session.AddItemRequest{MenuItemID: id, Quantity: 2}); err != nil {
			t.Fatalf("AddItem() error: %v", err)
		}
	}
}

func (f *fixture) submitScenarioA(t *testing.T) (*order.Order, []kitchen.Ticket) {
	t.Helper()
	f.draftScenarioA(t, "s1")
	o, tickets, err := f.svc.Submit(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Submit() error: %v", err)
	}
	return o, tickets
}

func ticketFor(t *testing.T, tickets []kitchen.Ticket, code string) kitchen.Ticket {
	t.Helper()
	for _, tk := range tickets {
		if tk.Station == code {
			return tk
		}
	}
	t.Fatalf("no %s ticket in %d tickets", code, len(tickets))
	return kitchen.Ticket{}
}

func TestServiceSubmitFansOutPerStation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o, tickets := f.submitScenarioA(t)

	if o.OrderNumber != "ORD-000001" || o.Status != orderstatus.Statuses.Pending.Code() {
		t.Errorf("order = %s %s", o.OrderNumber, o.Status)
	}
	if !o.Total.Equal(decimal.NewFromInt(792)) {
		t.Errorf("total = %s, want 792", o.Total)
	}

	if len(tickets) != 2 {
		t.Fatalf("tickets = %d, want 2", len(tickets))
	}
	for _, code := range []string{"HOT", "BAR"} {
		if tk := ticketFor(t, tickets, code); tk.Status != kitchenstatus.Statuses.Pending.Code() {
			t.Errorf("%s ticket status = %s", code, tk.Status)
		}
	}

	stored, err := f.gw.LoadOrder(ctx, o.ID)
	if err != nil {
		t.Fatalf("LoadOrder() error: %v", err)
	}
	if len(stored.Items) != 2 {
		t.Errorf("stored items = %d, want 2", len(stored.Items))
	}

	active, _ := f.gw.ListActiveTickets(ctx)
	if len(active) != 2 {
		t.Errorf("persisted tickets = %d, want 2", len(active))
	}

	tbl, _ := f.gw.LoadTable(ctx, f.table.ID)
	if tbl.Status != tablestatus.Statuses.Occupied.Code() || tbl.CurrentOrderID == nil || *tbl.CurrentOrderID != o.ID {
		t.Errorf("table = %+v", tbl)
	}

	if _, err := f.svc.Draft(ctx, "s1"); !poserr.IsNotFound(err) {
		t.Errorf("draft should be cleared after submit, got %v", err)
	}

	if got := f.svc.Notifications(notify.RoleKitchen); len(got) != 1 || got[0].Type != notify.TypeNewOrder {
		t.Errorf("kitchen notifications = %+v", got)
	}
	if f.pub.Count(event.OrdersTopic) != 1 || f.pub.Count(event.KitchenTicketsTopic) != 2 || f.pub.Count(pkg.TableStatusTopic) != 1 {
		t.Errorf("published orders=%d kitchen=%d tables=%d",
			f.pub.Count(event.OrdersTopic), f.pub.Count(event.KitchenTicketsTopic), f.pub.Count(pkg.TableStatusTopic))
	}
}

func TestServiceSubmitGatewayFailureLeavesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.draftScenarioA(t, "s1")
	f.gw.SetCommitErr(errConnReset)

	_, _, err := f.svc.Submit(ctx, "s1")
	if !poserr.IsGateway(err) || !errors.Is(err, errConnReset) {
		t.Fatalf("Submit() error = %v, want gateway error", err)
	}

	d, err := f.svc.Draft(ctx, "s1")
	if err != nil {
		t.Fatalf("Draft() error: %v", err)
	}
	if len(d.Items) != 2 {
		t.Errorf("draft items = %d, want 2", len(d.Items))
	}

	if active, _ := f.gw.ListActiveTickets(ctx); len(active) != 0 {
		t.Errorf("persisted tickets = %d, want 0", len(active))
	}
	if views, _ := f.svc.StationTickets("HOT"); len(views) != 0 {
		t.Errorf("station view should be empty, got %d", len(views))
	}
	if tbl, _ := f.gw.LoadTable(ctx, f.table.ID); tbl.Status != tablestatus.Statuses.Available.Code() {
		t.Errorf("table status = %s", tbl.Status)
	}
	if f.pub.Count(event.OrdersTopic) != 0 {
		t.Error("no order event should be published")
	}

	f.gw.SetCommitErr(nil)
	o, tickets, err := f.svc.Submit(ctx, "s1")
	if err != nil {
		t.Fatalf("retried Submit() error: %v", err)
	}
	if len(tickets) != 2 || len(o.Items) != 2 {
		t.Errorf("retried submit: items=%d tickets=%d", len(o.Items), len(tickets))
	}
}

func TestServiceSubmitErrors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, f *fixture)
		want  poserr.Kind
	}{
		{
			name: "emptyDraft",
			setup: func(t *testing.T, f *fixture) {
				if _, err := f.svc.StartDraft(context.Background(), "s2", order.DraftOptions{OrderType: "takeaway"}); err != nil {
					t.Fatal(err)
				}
			},
			want: poserr.KindValidation,
		},
		{
			name:  "noDraft",
			setup: func(t *testing.T, f *fixture) {},
			want:  poserr.KindNotFound,
		},
		{
			name: "tableAlreadySeated",
			setup: func(t *testing.T, f *fixture) {
				f.submitScenarioA(t)
				f.draftScenarioA(t, "s2")
			},
			want: poserr.KindState,
		},
		{
			name: "beginFails",
			setup: func(t *testing.T, f *fixture) {
				f.draftScenarioA(t, "s2")
				f.gw.BeginErr = errConnReset
			},
			want: poserr.KindGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setup(t, f)

			_, _, err := f.svc.Submit(context.Background(), "s2")
			if got := poserr.KindOf(err); got != tt.want {
				t.Errorf("Submit() kind = %v (%v), want %v", got, err, tt.want)
			}
		})
	}
}

func TestServiceSubmitTakeawayGetsToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i, sid := range []string{"a", "b"} {
		if _, err := f.svc.StartDraft(ctx, sid, order.DraftOptions{OrderType: "takeaway"}); err != nil {
			t.Fatalf("StartDraft() error: %v", err)
		}
		if _, _, err := f.svc.AddItem(ctx, sid, session.AddItemRequest{MenuItemID: lassi().ID, Quantity: 1}); err != nil {
			t.Fatalf("AddItem() error: %v", err)
		}
		o, tickets, err := f.svc.Submit(ctx, sid)
		if err != nil {
			t.Fatalf("Submit() error: %v", err)
		}
		if o.TableID != nil || o.TokenNumber != i+1 {
			t.Errorf("order %d: table=%v token=%d", i, o.TableID, o.TokenNumber)
		}
		if tickets[0].TokenNumber != o.TokenNumber {
			t.Errorf("ticket token = %d, want %d", tickets[0].TokenNumber, o.TokenNumber)
		}
	}
}

func TestServiceTicketHoldAndBump(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, tickets := f.submitScenarioA(t)
	hot := ticketFor(t, tickets, "HOT")

	steps := []struct {
		action kitchen.Action
		status string
		kind   poserr.Kind
	}{
		{action: kitchen.ActionStart, status: "preparing"},
		{action: kitchen.ActionHold, status: "hold"},
		{action: kitchen.ActionBump, kind: poserr.KindState},
		{action: kitchen.ActionUnhold, status: "preparing"},
		{action: kitchen.ActionReady, status: "ready"},
		{action: kitchen.ActionBump, status: "bumped"},
	}

	for _, st := range steps {
		got, err := f.svc.TicketAction(ctx, hot.ID, st.action)
		if st.kind != poserr.KindUnknown {
			if poserr.KindOf(err) != st.kind {
				t.Fatalf("%s: error = %v, want kind %v", st.action, err, st.kind)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: error = %v", st.action, err)
		}
		if got.Status != st.status {
			t.Fatalf("%s: status = %s, want %s", st.action, got.Status, st.status)
		}
	}

	bumped, _ := f.svc.Ticket(hot.ID)
	if bumped.BumpedAt == nil {
		t.Error("bumped ticket should record bumpedAt")
	}

	waiter := f.svc.Notifications(notify.RoleWaiter)
	if len(waiter) != 2 || waiter[0].Type != notify.TypeOrderBumped || waiter[1].Type != notify.TypeOrderReady {
		t.Errorf("waiter notifications = %+v", waiter)
	}

	views, _ := f.svc.StationTickets("hot")
	if len(views) != 0 {
		t.Errorf("bumped ticket should leave the station view, got %d", len(views))
	}
}

func TestServiceTicketActionGatewayFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, tickets := f.submitScenarioA(t)
	bar := ticketFor(t, tickets, "BAR")

	f.gw.SetCommitErr(errConnReset)
	if _, err := f.svc.TicketAction(ctx, bar.ID, kitchen.ActionStart); !poserr.IsGateway(err) {
		t.Fatalf("TicketAction() error = %v, want gateway", err)
	}

	got, _ := f.svc.Ticket(bar.ID)
	if got.Status != kitchenstatus.Statuses.Pending.Code() {
		t.Errorf("cached status = %s, want pending", got.Status)
	}
}

func TestServiceUpdateOrderStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o, _ := f.submitScenarioA(t)

	if _, err := f.svc.UpdateOrderStatus(ctx, o.ID, "preparing"); err != nil {
		t.Fatalf("UpdateOrderStatus(preparing) error: %v", err)
	}
	if _, err := f.svc.UpdateOrderStatus(ctx, o.ID, "pending"); !poserr.IsState(err) {
		t.Errorf("regression error = %v, want state", err)
	}
	if _, err := f.svc.UpdateOrderStatus(ctx, o.ID, "eaten"); !poserr.IsValidation(err) {
		t.Errorf("unknown status error = %v, want validation", err)
	}
	if _, err := f.svc.UpdateOrderStatus(ctx, uuid.New(), "ready"); !poserr.IsNotFound(err) {
		t.Errorf("unknown order error = %v, want not found", err)
	}

	cancelled, err := f.svc.UpdateOrderStatus(ctx, o.ID, "cancelled")
	if err != nil {
		t.Fatalf("UpdateOrderStatus(cancelled) error: %v", err)
	}
	if cancelled.Status != "cancelled" {
		t.Errorf("status = %s", cancelled.Status)
	}
	if tbl, _ := f.gw.LoadTable(ctx, f.table.ID); tbl.Status != tablestatus.Statuses.Available.Code() || tbl.CurrentOrderID != nil {
		t.Errorf("cancel should free the table, got %+v", tbl)
	}
	if f.svc.orders.size() != 0 {
		t.Error("order locks should be released")
	}
}

func TestServicePayCash(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o, _ := f.submitScenarioA(t)

	bill, err := f.svc.Pay(ctx, o.ID, PayRequest{Payment: billing.Payment{
		Method:     "cash",
		AmountPaid: decimal.NewFromInt(1000),
		CashierID:  "c-1",
	}})
	if err != nil {
		t.Fatalf("Pay() error: %v", err)
	}

	if bill.BillNumber != "BILL-20260314-00001" {
		t.Errorf("bill number = %s", bill.BillNumber)
	}
	checks := map[string][2]decimal.Decimal{
		"total":  {bill.Total, decimal.NewFromInt(792)},
		"cgst":   {bill.CGST, decimal.NewFromInt(18)},
		"sgst":   {bill.SGST, decimal.NewFromInt(18)},
		"change": {bill.ChangeGiven, decimal.NewFromInt(208)},
	}
	for name, c := range checks {
		if !c[0].Equal(c[1]) {
			t.Errorf("%s = %s, want %s", name, c[0], c[1])
		}
	}

	stored, _ := f.gw.LoadOrder(ctx, o.ID)
	if stored.Status != orderstatus.Statuses.Completed.Code() || stored.CompletedAt == nil {
		t.Errorf("order after payment = %s completedAt=%v", stored.Status, stored.CompletedAt)
	}
	if tbl, _ := f.gw.LoadTable(ctx, f.table.ID); tbl.Status != tablestatus.Statuses.Available.Code() {
		t.Errorf("table status = %s", tbl.Status)
	}
	if f.pub.Count(event.BillingTopic) != 1 {
		t.Errorf("bill events = %d", f.pub.Count(event.BillingTopic))
	}
	if admin := f.svc.Notifications(notify.RoleAdmin); len(admin) != 1 || admin[0].Type != notify.TypeInfo {
		t.Errorf("admin notifications = %+v", admin)
	}

	if _, err := f.svc.Pay(ctx, o.ID, PayRequest{Payment: billing.Payment{Method: "card"}}); !poserr.IsState(err) {
		t.Errorf("second Pay() error = %v, want state", err)
	}
}

func TestServicePayFailures(t *testing.T) {
	tests := []struct {
		name    string
		payment billing.Payment
		failTx  bool
		want    poserr.Kind
	}{
		{
			name: "splitMismatch",
			payment: billing.Payment{Method: "split", Splits: []billing.SplitPayment{
				{Method: "cash", Amount: decimal.NewFromInt(500)},
				{Method: "card", Amount: decimal.NewFromInt(200)},
			}},
			want: poserr.KindValidation,
		},
		{
			name:    "insufficientCash",
			payment: billing.Payment{Method: "cash", AmountPaid: decimal.NewFromInt(500)},
			want:    poserr.KindValidation,
		},
		{
			name:    "gatewayDown",
			payment: billing.Payment{Method: "upi"},
			failTx:  true,
			want:    poserr.KindGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			o, _ := f.submitScenarioA(t)
			if tt.failTx {
				f.gw.SetCommitErr(errConnReset)
			}

			_, err := f.svc.Pay(ctx, o.ID, PayRequest{Payment: tt.payment})
			if got := poserr.KindOf(err); got != tt.want {
				t.Fatalf("Pay() kind = %v (%v), want %v", got, err, tt.want)
			}

			stored, _ := f.gw.LoadOrder(ctx, o.ID)
			if stored.Status != orderstatus.Statuses.Pending.Code() {
				t.Errorf("order status = %s, want pending", stored.Status)
			}
			if bills, _ := f.gw.ListBills(ctx, testNow.Add(-time.Hour), testNow.Add(time.Hour)); len(bills) != 0 {
				t.Errorf("bills = %d, want 0", len(bills))
			}
		})
	}
}

func TestServiceSalesReport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o, _ := f.submitScenarioA(t)

	if _, err := f.svc.Pay(ctx, o.ID, PayRequest{Payment: billing.Payment{Method: "card"}}); err != nil {
		t.Fatalf("Pay() error: %v", err)
	}

	rep, err := f.svc.SalesReport(ctx, testNow)
	if err != nil {
		t.Fatalf("SalesReport() error: %v", err)
	}
	if rep.TotalOrders != 1 || !rep.TotalSales.Equal(decimal.NewFromInt(792)) {
		t.Errorf("report = %d orders, %s sales", rep.TotalOrders, rep.TotalSales)
	}
	if !rep.ByPaymentMethod["card"].Equal(decimal.NewFromInt(792)) {
		t.Errorf("card = %s", rep.ByPaymentMethod["card"])
	}
	if len(rep.TopItems) != 2 || rep.TopItems[0].Quantity != 2 {
		t.Errorf("top items = %+v", rep.TopItems)
	}

	next, err := f.svc.SalesReport(ctx, testNow.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("SalesReport() error: %v", err)
	}
	if next.TotalOrders != 0 {
		t.Errorf("next day orders = %d", next.TotalOrders)
	}
}

func TestServiceStationTicketsUnknownStation(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.StationTickets("grill"); !poserr.IsValidation(err) {
		t.Errorf("StationTickets() error = %v, want validation", err)
	}
}

func TestServiceConcurrentSubmitSeatsTableOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.draftScenarioA(t, "s1")
	f.draftScenarioA(t, "s2")

	// Hold each table read until the other submit has read too, or until
	// the wait runs out because the first one holds the table.
	var arrived int32
	both := make(chan struct{})
	var once sync.Once
	f.gw.BeforeLoadTable = func() {
		if atomic.AddInt32(&arrived, 1) == 2 {
			once.Do(func() { close(both) })
		}
		select {
		case <-both:
		case <-time.After(200 * time.Millisecond):
		}
	}

	type result struct {
		o   *order.Order
		err error
	}
	results := make(chan result, 2)
	var wg sync.WaitGroup
	for _, sid := range []string{"s1", "s2"} {
		wg.Add(1)
		go func(sid string) {
			defer wg.Done()
			o, _, err := f.svc.Submit(ctx, sid)
			results <- result{o: o, err: err}
		}(sid)
	}
	wg.Wait()
	close(results)

	var seated *order.Order
	failures := 0
	for r := range results {
		switch {
		case r.err == nil:
			if seated != nil {
				t.Fatal("both submits seated an order at the same table")
			}
			seated = r.o
		case poserr.IsState(r.err):
			failures++
		default:
			t.Errorf("Submit() error = %v, want state", r.err)
		}
	}
	if seated == nil || failures != 1 {
		t.Fatalf("successes=%v failures=%d, want exactly one of each", seated != nil, failures)
	}

	tbl, _ := f.gw.LoadTable(ctx, f.table.ID)
	if tbl.CurrentOrderID == nil || *tbl.CurrentOrderID != seated.ID {
		t.Errorf("table holds %v, want %s", tbl.CurrentOrderID, seated.ID)
	}
	orders, _ := f.gw.ListOrders(ctx, order.ListFilter{})
	if len(orders) != 1 {
		t.Errorf("stored orders = %d, want 1", len(orders))
	}
	if active, _ := f.gw.ListActiveTickets(ctx); len(active) != 2 {
		t.Errorf("persisted tickets = %d, want 2", len(active))
	}
	if f.svc.tables.size() != 0 {
		t.Error("table locks should be released")
	}
}

// newServiceOn builds a service with its own sessions, router and numbers,
// the way a restarted process would, on top of gw.
func newServiceOn(t *testing.T, gw *MockGateway) *Service {
	t.Helper()
	clock := func() time.Time { return testNow }
	st := settings.Default()
	sessions := session.NewManager(actor.NewActorSystem(), gw, session.Options{
		Rates:          st.Rates(),
		Stations:       st.StationMapper(),
		RequestTimeout: 5 * time.Second,
	}, apt.NewNoopLogger())
	t.Cleanup(func() { _ = sessions.Stop(context.Background()) })

	return NewService(ServiceDeps{
		Gateway:   gw,
		Sessions:  sessions,
		Settings:  st,
		Publisher: NewMockPublisher(),
		Clock:     clock,
	}, apt.NewNoopLogger())
}

func TestServiceNumbersSurviveRestart(t *testing.T) {
	ctx := context.Background()
	gw := NewMockGateway()
	if err := gw.SaveMenuItem(ctx, lassi()); err != nil {
		t.Fatal(err)
	}

	var orders []*order.Order
	var bills []billing.Bill
	for _, sid := range []string{"before", "after"} {
		svc := newServiceOn(t, gw)
		if _, err := svc.StartDraft(ctx, sid, order.DraftOptions{OrderType: "takeaway"}); err != nil {
			t.Fatalf("StartDraft() error: %v", err)
		}
		if _, _, err := svc.AddItem(ctx, sid, session.AddItemRequest{MenuItemID: lassi().ID, Quantity: 1}); err != nil {
			t.Fatalf("AddItem() error: %v", err)
		}
		o, _, err := svc.Submit(ctx, sid)
		if err != nil {
			t.Fatalf("Submit() error: %v", err)
		}
		bill, err := svc.Pay(ctx, o.ID, PayRequest{Payment: billing.Payment{Method: "card"}})
		if err != nil {
			t.Fatalf("Pay() error: %v", err)
		}
		orders = append(orders, o)
		bills = append(bills, bill)
	}

	if orders[0].OrderNumber != "ORD-000001" || orders[1].OrderNumber != "ORD-000002" {
		t.Errorf("order numbers = %s, %s", orders[0].OrderNumber, orders[1].OrderNumber)
	}
	if orders[0].TokenNumber != 1 || orders[1].TokenNumber != 2 {
		t.Errorf("tokens = %d, %d", orders[0].TokenNumber, orders[1].TokenNumber)
	}
	if bills[0].BillNumber != "BILL-20260314-00001" || bills[1].BillNumber != "BILL-20260314-00002" {
		t.Errorf("bill numbers = %s, %s", bills[0].BillNumber, bills[1].BillNumber)
	}
}

func TestServicePayDiscountDefaultsToDraft(t *testing.T) {
	zero := decimal.Zero

	tests := []struct {
		name     string
		discount *decimal.Decimal
		want     decimal.Decimal
	}{
		{name: "keepsDraftDiscount", discount: nil, want: decimal.NewFromInt(10)},
		{name: "explicitOverride", discount: &zero, want: decimal.Zero},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			f.draftScenarioA(t, "s1")
			if _, err := f.svc.SetDiscount(ctx, "s1", decimal.NewFromInt(10)); err != nil {
				t.Fatalf("SetDiscount() error: %v", err)
			}
			o, _, err := f.svc.Submit(ctx, "s1")
			if err != nil {
				t.Fatalf("Submit() error: %v", err)
			}

			bill, err := f.svc.Pay(ctx, o.ID, PayRequest{DiscountPercent: tt.discount, Payment: billing.Payment{Method: "card"}})
			if err != nil {
				t.Fatalf("Pay() error: %v", err)
			}
			if !bill.DiscountPercent.Equal(tt.want) {
				t.Errorf("bill discount = %s, want %s", bill.DiscountPercent, tt.want)
			}
			if tt.discount == nil && !bill.Total.Equal(o.Total) {
				t.Errorf("bill total = %s, order total = %s", bill.Total, o.Total)
			}
			if tt.discount != nil && !bill.Total.Equal(decimal.NewFromInt(792)) {
				t.Errorf("bill total = %s, want 792", bill.Total)
			}
		})
	}
}

func TestServiceCancelRetiresKitchenTickets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o, tickets := f.submitScenarioA(t)

	hot := ticketFor(t, tickets, "HOT")
	if _, err := f.svc.TicketAction(ctx, hot.ID, kitchen.ActionStart); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.TicketAction(ctx, hot.ID, kitchen.ActionHold); err != nil {
		t.Fatal(err)
	}
	bar := ticketFor(t, tickets, "BAR")
	if _, err := f.svc.TicketAction(ctx, bar.ID, kitchen.ActionBump); err != nil {
		t.Fatal(err)
	}
	before := f.pub.Count(event.KitchenTicketsTopic)

	if _, err := f.svc.UpdateOrderStatus(ctx, o.ID, "cancelled"); err != nil {
		t.Fatalf("UpdateOrderStatus(cancelled) error: %v", err)
	}

	for _, code := range []string{"HOT", "BAR"} {
		if views, _ := f.svc.StationTickets(code); len(views) != 0 {
			t.Errorf("%s view = %d tickets, want 0", code, len(views))
		}
	}
	if got, _ := f.svc.Ticket(hot.ID); got.Status != kitchenstatus.Statuses.Cancelled.Code() {
		t.Errorf("held ticket status = %s, want cancelled", got.Status)
	}
	if got, _ := f.svc.Ticket(bar.ID); got.Status != kitchenstatus.Statuses.Bumped.Code() {
		t.Errorf("bumped ticket status = %s, want bumped", got.Status)
	}
	if active, _ := f.gw.ListActiveTickets(ctx); len(active) != 0 {
		t.Errorf("persisted active tickets = %d, want 0", len(active))
	}
	if got := f.pub.Count(event.KitchenTicketsTopic) - before; got != 1 {
		t.Errorf("kitchen events after cancel = %d, want 1", got)
	}
	kitchenInbox := f.svc.Notifications(notify.RoleKitchen)
	if len(kitchenInbox) == 0 || kitchenInbox[0].Type != notify.TypeInfo {
		t.Errorf("kitchen should be told about the cancellation, got %+v", kitchenInbox)
	}

	if _, err := f.svc.TicketAction(ctx, hot.ID, kitchen.ActionUnhold); !poserr.IsState(err) {
		t.Errorf("unhold after cancel error = %v, want state", err)
	}
}

func TestServiceCancelGatewayFailureKeepsTickets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o, _ := f.submitScenarioA(t)
	f.gw.SetCommitErr(errConnReset)

	if _, err := f.svc.UpdateOrderStatus(ctx, o.ID, "cancelled"); !poserr.IsGateway(err) {
		t.Fatalf("UpdateOrderStatus() error = %v, want gateway", err)
	}

	if views, _ := f.svc.StationTickets("HOT"); len(views) != 1 {
		t.Errorf("HOT view = %d tickets, want 1", len(views))
	}
	stored, _ := f.gw.LoadOrder(ctx, o.ID)
	if stored.Status != orderstatus.Statuses.Pending.Code() {
		t.Errorf("order status = %s, want pending", stored.Status)
	}
	if tbl, _ := f.gw.LoadTable(ctx, f.table.ID); tbl.CurrentOrderID == nil {
		t.Error("table should stay seated")
	}
}
