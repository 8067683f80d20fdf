// Package pos wires the order, kitchen and billing components into the
// operations the point of sale exposes, and serves them over HTTP.
package pos

import (
	"context"
	"fmt"
	"time"

	"github.com/appetiteclub/appetite/pkg/enums/orderstatus"
	"github.com/appetiteclub/appetite/pkg/enums/station"
	"github.com/appetiteclub/appetite/pkg/enums/tablestatus"
	"github.com/appetiteclub/appetite/services/pos/internal/billing"
	"github.com/appetiteclub/appetite/services/pos/internal/gateway"
	"github.com/appetiteclub/appetite/services/pos/internal/kitchen"
	"github.com/appetiteclub/appetite/services/pos/internal/menu"
	"github.com/appetiteclub/appetite/services/pos/internal/notify"
	"github.com/appetiteclub/appetite/services/pos/internal/order"
	"github.com/appetiteclub/appetite/services/pos/internal/poserr"
	"github.com/appetiteclub/appetite/services/pos/internal/report"
	"github.com/appetiteclub/appetite/services/pos/internal/sequence"
	"github.com/appetiteclub/appetite/services/pos/internal/session"
	"github.com/appetiteclub/appetite/services/pos/internal/settings"
	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MenuStore reads and writes menu items. The Redis menu cache satisfies it
// so writes also drop the cached copy.
type MenuStore interface {
	LoadMenuItem(ctx context.Context, id uuid.UUID) (menu.MenuItem, error)
	SaveMenuItem(ctx context.Context, item menu.MenuItem) error
}

type ServiceDeps struct {
	Gateway   gateway.Gateway
	Menu      MenuStore
	Sessions  *session.Manager
	Router    *kitchen.Router
	Numbers   *sequence.Numbers
	Notifier  *notify.Center
	Settings  *settings.Settings
	Publisher events.Publisher
	Clock     func() time.Time
}

type Service struct {
	gw        gateway.Gateway
	menu      MenuStore
	sessions  *session.Manager
	router    *kitchen.Router
	numbers   *sequence.Numbers
	notifier  *notify.Center
	settings  *settings.Settings
	publisher events.Publisher
	orders    *keyedMutex
	tables    *keyedMutex
	now       func() time.Time
	logger    apt.Logger
}

func NewService(deps ServiceDeps, logger apt.Logger) *Service {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Settings == nil {
		deps.Settings = settings.Default()
	}
	if deps.Router == nil {
		deps.Router = kitchen.NewRouter(nil, logger, kitchen.WithPublisher(deps.Publisher), kitchen.WithClock(deps.Clock))
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.NewCenter(deps.Publisher, logger)
	}
	if deps.Menu == nil {
		if m, ok := deps.Gateway.(MenuStore); ok {
			deps.Menu = m
		}
	}
	if deps.Numbers == nil {
		var gen sequence.Generator = sequence.NewMemory()
		if g, ok := deps.Gateway.(sequence.Generator); ok {
			gen = g
		}
		deps.Numbers = sequence.NewNumbers(gen, deps.Clock)
	}

	return &Service{
		gw:        deps.Gateway,
		menu:      deps.Menu,
		sessions:  deps.Sessions,
		router:    deps.Router,
		numbers:   deps.Numbers,
		notifier:  deps.Notifier,
		settings:  deps.Settings,
		publisher: deps.Publisher,
		orders:    newKeyedMutex(),
		tables:    newKeyedMutex(),
		now:       deps.Clock,
		logger:    logger,
	}
}

// Draft operations

func (s *Service) StartDraft(ctx context.Context, sessionID string, opts order.DraftOptions) (*order.Draft, error) {
	return s.sessions.Start(ctx, sessionID, opts)
}

func (s *Service) Draft(ctx context.Context, sessionID string) (*order.Draft, error) {
	return s.sessions.Draft(ctx, sessionID)
}

func (s *Service) AddItem(ctx context.Context, sessionID string, req session.AddItemRequest) (order.OrderItem, *order.Draft, error) {
	return s.sessions.AddItem(ctx, sessionID, req)
}

func (s *Service) RemoveItem(ctx context.Context, sessionID string, lineID uuid.UUID) (*order.Draft, error) {
	return s.sessions.RemoveItem(ctx, sessionID, lineID)
}

func (s *Service) SetQuantity(ctx context.Context, sessionID string, lineID uuid.UUID, quantity int) (*order.Draft, error) {
	return s.sessions.SetQuantity(ctx, sessionID, lineID, quantity)
}

func (s *Service) SetDiscount(ctx context.Context, sessionID string, pct decimal.Decimal) (*order.Draft, error) {
	return s.sessions.SetDiscount(ctx, sessionID, pct)
}

// Submit turns the session draft into a pending order. The order, its
// items, its kitchen tickets and the table seat are written in one
// transaction; if any of it fails nothing is kept and the draft stays in
// the session.
func (s *Service) Submit(ctx context.Context, sessionID string) (*order.Order, []kitchen.Ticket, error) {
	var tickets []kitchen.Ticket

	o, err := s.sessions.Submit(ctx, sessionID, func(ctx context.Context, d *order.Draft) (*order.Order, error) {
		o, err := s.finalize(ctx, d)
		if err != nil {
			return nil, err
		}
		tickets, err = s.persistSubmit(ctx, o)
		if err != nil {
			return nil, err
		}
		return o, nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.publishOrderSubmitted(ctx, o, tickets)
	if o.TableID != nil {
		s.publishTableStatus(ctx, *o.TableID, tablestatus.Statuses.Occupied.Code(), tablestatus.Statuses.Available.Code(), o.ID, "order_submitted")
	}
	s.notifier.Notify(ctx, notify.TypeNewOrder,
		fmt.Sprintf("New order %s", o.OrderNumber),
		fmt.Sprintf("%s with %d items for %s", o.OrderNumber, len(o.Items), placeOf(o)),
		notify.RoleKitchen, &o.ID)

	s.logger.Info("order submitted", "order_id", o.ID, "order_number", o.OrderNumber, "tickets", len(tickets))
	return o, tickets, nil
}

func (s *Service) finalize(ctx context.Context, d *order.Draft) (*order.Order, error) {
	const op = "pos.Submit"

	if d.Empty() {
		return nil, poserr.Validation(op, poserr.MsgEmptyOrder)
	}

	number, err := s.numbers.OrderNumber(ctx)
	if err != nil {
		return nil, poserr.Gateway(op, err)
	}

	token := 0
	if !d.Type().UsesTable() {
		token, err = s.numbers.Token(ctx)
		if err != nil {
			return nil, poserr.Gateway(op, err)
		}
	}

	return d.Finalize(number, token, s.now())
}

// persistSubmit holds the table lock from the seat check until the commit,
// so two sessions cannot both seat an order at the same table. The adapters
// refuse the seat write as well when another order already holds it.
func (s *Service) persistSubmit(ctx context.Context, o *order.Order) ([]kitchen.Ticket, error) {
	const op = "pos.Submit"

	if o.TableID != nil {
		unlock := s.tables.Lock(*o.TableID)
		defer unlock()

		t, err := s.gw.LoadTable(ctx, *o.TableID)
		if err != nil {
			return nil, poserr.Gateway(op, err)
		}
		if err := t.Occupy(o.ID, s.now()); err != nil {
			return nil, err
		}
	}

	tx, err := s.gw.BeginTx(ctx)
	if err != nil {
		return nil, poserr.Gateway(op, err)
	}

	if err := s.stageOrder(ctx, tx, o); err != nil {
		_ = tx.Rollback(ctx)
		return nil, err
	}

	tickets, err := s.router.RouteOrder(ctx, o, func(ctx context.Context, ts []kitchen.Ticket) error {
		for _, t := range ts {
			if err := tx.UpsertTicket(ctx, t); err != nil {
				return poserr.Gateway(op, err)
			}
		}
		return poserr.Gateway(op, tx.Commit(ctx))
	})
	if err != nil {
		_ = tx.Rollback(ctx)
		return nil, err
	}
	return tickets, nil
}

func (s *Service) stageOrder(ctx context.Context, tx gateway.Tx, o *order.Order) error {
	const op = "pos.Submit"

	if err := tx.InsertOrder(ctx, *o); err != nil {
		return poserr.Gateway(op, err)
	}
	if err := tx.InsertOrderItems(ctx, o.ID, o.Items); err != nil {
		return poserr.Gateway(op, err)
	}
	if o.TableID != nil {
		id := o.ID
		if err := tx.UpdateTableStatus(ctx, *o.TableID, tablestatus.Statuses.Occupied.Code(), &id); err != nil {
			return poserr.Gateway(op, err)
		}
	}
	return nil
}

func (s *Service) Order(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	o, err := s.gw.LoadOrder(ctx, id)
	if err != nil {
		return nil, poserr.Gateway("pos.Order", err)
	}
	return &o, nil
}

// ListOrders returns the orders matching filter, newest first.
func (s *Service) ListOrders(ctx context.Context, filter order.ListFilter) ([]order.Order, error) {
	const op = "pos.ListOrders"

	if err := filter.Validate(); err != nil {
		return nil, err
	}
	orders, err := s.gw.ListOrders(ctx, filter)
	if err != nil {
		return nil, poserr.Gateway(op, err)
	}
	return orders, nil
}

// UpdateOrderStatus moves an order forward, or cancels it. Cancelling a
// dine-in order frees its table, and cancelling any order retires its
// kitchen tickets, in the same transaction as the status change.
func (s *Service) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status string) (*order.Order, error) {
	const op = "pos.UpdateOrderStatus"

	unlock := s.orders.Lock(id)
	defer unlock()

	o, err := s.gw.LoadOrder(ctx, id)
	if err != nil {
		return nil, poserr.Gateway(op, err)
	}

	now := s.now()
	previous, err := o.TransitionTo(status, now)
	if err != nil {
		return nil, err
	}

	releases := o.TableID != nil && !o.IsOpen()
	if releases {
		unlockTable := s.tables.Lock(*o.TableID)
		defer unlockTable()
	}

	write := func(ctx context.Context, tickets []kitchen.Ticket) error {
		err := gateway.Run(ctx, s.gw, func(tx gateway.Tx) error {
			if err := tx.UpdateOrderStatus(ctx, o.ID, o.Status, now); err != nil {
				return err
			}
			if releases {
				if err := tx.UpdateTableStatus(ctx, *o.TableID, tablestatus.Statuses.Available.Code(), nil); err != nil {
					return err
				}
			}
			for _, t := range tickets {
				if err := tx.UpsertTicket(ctx, t); err != nil {
					return err
				}
			}
			return nil
		})
		return poserr.Gateway(op, err)
	}

	var cancelled []kitchen.Ticket
	if o.Status == orderstatus.Statuses.Cancelled.Code() {
		cancelled, err = s.router.CancelOrder(ctx, o.ID, write)
	} else {
		err = write(ctx, nil)
	}
	if err != nil {
		return nil, err
	}

	s.publishOrderStatusChanged(ctx, &o, previous)
	if releases {
		s.publishTableStatus(ctx, *o.TableID, tablestatus.Statuses.Available.Code(), tablestatus.Statuses.Occupied.Code(), o.ID, "order_"+o.Status)
	}
	if len(cancelled) > 0 {
		s.notifier.Notify(ctx, notify.TypeInfo,
			fmt.Sprintf("Order %s cancelled", o.OrderNumber),
			fmt.Sprintf("Stop work on %s, %d tickets withdrawn", placeOf(&o), len(cancelled)),
			notify.RoleKitchen, &o.ID)
	}

	s.logger.Info("order status changed", "order_id", o.ID, "from", previous, "to", o.Status, "tickets_cancelled", len(cancelled))
	return &o, nil
}

// Menu operations

// SetMenuItemAvailability marks an item in or out of stock. Drafts already
// holding the item keep their lines; only new additions are refused.
func (s *Service) SetMenuItemAvailability(ctx context.Context, id uuid.UUID, available bool) (menu.MenuItem, error) {
	const op = "pos.SetMenuItemAvailability"

	if s.menu == nil {
		return menu.MenuItem{}, poserr.State(op, "menu is read only")
	}
	item, err := s.menu.LoadMenuItem(ctx, id)
	if err != nil {
		return menu.MenuItem{}, poserr.Gateway(op, err)
	}
	if item.IsAvailable == available {
		return item, nil
	}

	item.IsAvailable = available
	item.UpdatedAt = s.now()
	if err := s.menu.SaveMenuItem(ctx, item); err != nil {
		return menu.MenuItem{}, poserr.Gateway(op, err)
	}

	s.logger.Info("menu item availability changed", "menu_item_id", item.ID, "name", item.Name, "available", available)
	return item, nil
}

// Kitchen operations

func (s *Service) StationTickets(code string) ([]kitchen.TicketView, error) {
	st := station.ByName(code)
	if st == nil {
		return nil, poserr.Validation("pos.StationTickets", "unknown station %q", code)
	}
	return s.router.StationView(st.Code(), s.now()), nil
}

func (s *Service) OrderTickets(orderID uuid.UUID) []kitchen.Ticket {
	return s.router.TicketsForOrder(orderID)
}

func (s *Service) Ticket(id uuid.UUID) (kitchen.Ticket, error) {
	return s.router.Get(id)
}

// TicketAction runs a ticket transition and persists the result before the
// kitchen view changes.
func (s *Service) TicketAction(ctx context.Context, id uuid.UUID, action kitchen.Action) (kitchen.Ticket, error) {
	t, _, err := s.router.Transition(ctx, id, action, s.commitTickets("pos.TicketAction"))
	if err != nil {
		return kitchen.Ticket{}, err
	}

	switch action {
	case kitchen.ActionReady:
		s.notifier.Notify(ctx, notify.TypeOrderReady,
			fmt.Sprintf("Order %s ready", t.OrderNumber),
			fmt.Sprintf("%s items for %s are ready", stationLabel(t.Station), placeOfTicket(t)),
			notify.RoleWaiter, &t.OrderID)
	case kitchen.ActionBump:
		s.notifier.Notify(ctx, notify.TypeOrderBumped,
			fmt.Sprintf("Order %s bumped", t.OrderNumber),
			fmt.Sprintf("%s cleared %s", stationLabel(t.Station), placeOfTicket(t)),
			notify.RoleWaiter, &t.OrderID)
	}
	return t, nil
}

func (s *Service) SetTicketPriority(ctx context.Context, id uuid.UUID, priority bool) (kitchen.Ticket, error) {
	return s.router.SetPriority(ctx, id, priority, s.commitTickets("pos.SetTicketPriority"))
}

func (s *Service) commitTickets(op string) kitchen.CommitFunc {
	return func(ctx context.Context, tickets []kitchen.Ticket) error {
		err := gateway.Run(ctx, s.gw, func(tx gateway.Tx) error {
			for _, t := range tickets {
				if err := tx.UpsertTicket(ctx, t); err != nil {
					return err
				}
			}
			return nil
		})
		return poserr.Gateway(op, err)
	}
}

// Billing

// PayRequest carries the payment. A nil DiscountPercent keeps the discount
// set on the draft.
type PayRequest struct {
	DiscountPercent *decimal.Decimal `json:"discount_percent,omitempty"`
	billing.Payment
}

// Pay bills an open order. The bill, the completed order and the freed
// table are committed together.
func (s *Service) Pay(ctx context.Context, orderID uuid.UUID, req PayRequest) (billing.Bill, error) {
	const op = "pos.Pay"

	unlock := s.orders.Lock(orderID)
	defer unlock()

	o, err := s.gw.LoadOrder(ctx, orderID)
	if err != nil {
		return billing.Bill{}, poserr.Gateway(op, err)
	}
	if !o.IsOpen() {
		return billing.Bill{}, poserr.State(op, "order %s is %s", o.OrderNumber, o.Status)
	}

	number, err := s.numbers.BillNumber(ctx)
	if err != nil {
		return billing.Bill{}, poserr.Gateway(op, err)
	}

	discount := o.DiscountPercent
	if req.DiscountPercent != nil {
		discount = *req.DiscountPercent
	}

	if o.TableID != nil {
		unlockTable := s.tables.Lock(*o.TableID)
		defer unlockTable()
	}

	now := s.now()
	bill, err := billing.PrepareBill(&o, discount, req.Payment, billing.Meta{
		BillNumber: number,
		PaidAt:     now,
		InterState: s.settings.InterState(),
	})
	if err != nil {
		return billing.Bill{}, err
	}

	previous := o.Status
	err = gateway.Run(ctx, s.gw, func(tx gateway.Tx) error {
		if err := tx.InsertBill(ctx, bill); err != nil {
			return err
		}
		if err := tx.UpdateOrderStatus(ctx, o.ID, orderstatus.Statuses.Completed.Code(), now); err != nil {
			return err
		}
		if o.TableID != nil {
			return tx.UpdateTableStatus(ctx, *o.TableID, tablestatus.Statuses.Available.Code(), nil)
		}
		return nil
	})
	if err != nil {
		return billing.Bill{}, poserr.Gateway(op, err)
	}

	o.Status = orderstatus.Statuses.Completed.Code()
	s.publishBillPaid(ctx, bill)
	s.publishOrderStatusChanged(ctx, &o, previous)
	if o.TableID != nil {
		s.publishTableStatus(ctx, *o.TableID, tablestatus.Statuses.Available.Code(), tablestatus.Statuses.Occupied.Code(), o.ID, "bill_paid")
	}
	s.notifier.Notify(ctx, notify.TypeInfo,
		fmt.Sprintf("Bill %s paid", bill.BillNumber),
		fmt.Sprintf("%s paid %s by %s", o.OrderNumber, bill.Total.StringFixed(2), bill.PaymentMethod),
		notify.RoleAdmin, &o.ID)

	s.logger.Info("bill paid", "bill_number", bill.BillNumber, "order_id", o.ID, "total", bill.Total.String())
	return bill, nil
}

// SalesReport summarizes the bills paid on date. Orders that can no longer
// be loaded only drop out of the top items.
func (s *Service) SalesReport(ctx context.Context, date time.Time) (report.SalesReport, error) {
	const op = "pos.SalesReport"

	from, to := report.DayRange(date)
	bills, err := s.gw.ListBills(ctx, from, to)
	if err != nil {
		return report.SalesReport{}, poserr.Gateway(op, err)
	}

	orders := make(map[uuid.UUID]order.Order, len(bills))
	for _, b := range bills {
		o, err := s.gw.LoadOrder(ctx, b.OrderID)
		if poserr.IsNotFound(err) {
			s.logger.Debug("order of bill not found", "bill_number", b.BillNumber, "order_id", b.OrderID)
			continue
		}
		if err != nil {
			return report.SalesReport{}, poserr.Gateway(op, err)
		}
		orders[o.ID] = o
	}

	return report.Build(date, bills, orders), nil
}

// Notifications

func (s *Service) Notifications(role string) []notify.Notification {
	return s.notifier.ListForRole(role)
}

func (s *Service) UnreadNotifications(role string) int {
	return s.notifier.UnreadCount(role)
}

func (s *Service) MarkNotificationRead(id uuid.UUID) error {
	return s.notifier.MarkRead(id)
}

func placeOf(o *order.Order) string {
	if o.TableID != nil {
		return "dine-in"
	}
	return fmt.Sprintf("%s token %d", o.OrderType, o.TokenNumber)
}

func placeOfTicket(t kitchen.Ticket) string {
	if t.TableID != nil {
		return "order " + t.OrderNumber
	}
	return fmt.Sprintf("token %d", t.TokenNumber)
}

func stationLabel(code string) string {
	if st := station.ByName(code); st != nil {
		return st.Label()
	}
	return code
}
