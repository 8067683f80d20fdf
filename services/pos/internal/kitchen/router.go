package kitchen

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/appetiteclub/appetite/pkg/event"
	"github.com/appetiteclub/appetite/services/pos/internal/order"
	"github.com/appetiteclub/appetite/services/pos/internal/poserr"
	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/google/uuid"
)

// CommitFunc persists tickets. The router calls it while holding its
// mutation lock and only updates the cache when it returns nil.
type CommitFunc func(ctx context.Context, tickets []Ticket) error

// Router fans orders out to station tickets and runs ticket transitions.
// All mutations go through one lock; reads are served by the cache.
type Router struct {
	mu        sync.Mutex
	cache     *TicketStateCache
	publisher events.Publisher
	logger    apt.Logger
	now       func() time.Time
}

type RouterOption func(*Router)

func WithPublisher(p events.Publisher) RouterOption {
	return func(r *Router) {
		r.publisher = p
	}
}

func WithClock(now func() time.Time) RouterOption {
	return func(r *Router) {
		r.now = now
	}
}

func NewRouter(cache *TicketStateCache, logger apt.Logger, opts ...RouterOption) *Router {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	if cache == nil {
		cache = NewTicketStateCache(nil, nil, logger)
	}
	r := &Router{
		cache:  cache,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Router) Cache() *TicketStateCache {
	return r.cache
}

// RouteOrder groups the order items by station and upserts one ticket per
// (order, station). Routing the same order twice yields the same ticket ids;
// existing tickets keep their status and only get fresh item copies.
// Tickets of stations the order no longer uses are left untouched.
func (r *Router) RouteOrder(ctx context.Context, o *order.Order, commit CommitFunc) ([]Ticket, error) {
	if o == nil || len(o.Items) == 0 {
		return nil, poserr.Validation("kitchen.RouteOrder", poserr.MsgEmptyOrder)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	stations, grouped := groupByStation(o.Items)

	tickets := make([]Ticket, 0, len(stations))
	created := make(map[uuid.UUID]bool, len(stations))
	for _, code := range stations {
		t, ok := r.cache.Lookup(o.ID, code)
		if !ok {
			t = *NewTicket(o.ID, code, now)
			created[t.ID] = true
		}
		t.OrderNumber = o.OrderNumber
		t.OrderType = o.OrderType
		t.TableID = o.TableID
		t.TokenNumber = o.TokenNumber
		t.Items = grouped[code]
		t.UpdatedAt = now
		tickets = append(tickets, t)
	}

	if commit != nil {
		if err := commit(ctx, tickets); err != nil {
			return nil, err
		}
	}

	r.cache.SetAll(tickets)

	for _, t := range tickets {
		r.publish(ctx, CreatedEvent(t, !created[t.ID]))
	}

	r.logger.Info("order routed", "order_id", o.ID, "order_number", o.OrderNumber, "tickets", len(tickets))
	return tickets, nil
}

// Transition applies action to a ticket. It returns the updated ticket and
// the status it had before.
func (r *Router) Transition(ctx context.Context, id uuid.UUID, action Action, commit CommitFunc) (Ticket, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.cache.Get(id)
	if !ok {
		return Ticket{}, "", poserr.NotFound("kitchen.Transition", "ticket", id)
	}

	previous := t.Status
	if err := t.Apply(action, r.now()); err != nil {
		return Ticket{}, "", err
	}

	if commit != nil {
		if err := commit(ctx, []Ticket{t}); err != nil {
			return Ticket{}, "", err
		}
	}

	r.cache.Set(t)
	r.publish(ctx, StatusChangedEvent(t, previous))

	r.logger.Info("ticket status changed", "ticket_id", t.ID, "station", t.Station, "from", previous, "to", t.Status)
	return t, previous, nil
}

func (r *Router) Start(ctx context.Context, id uuid.UUID, commit CommitFunc) (Ticket, error) {
	t, _, err := r.Transition(ctx, id, ActionStart, commit)
	return t, err
}

func (r *Router) MarkReady(ctx context.Context, id uuid.UUID, commit CommitFunc) (Ticket, error) {
	t, _, err := r.Transition(ctx, id, ActionReady, commit)
	return t, err
}

func (r *Router) Hold(ctx context.Context, id uuid.UUID, commit CommitFunc) (Ticket, error) {
	t, _, err := r.Transition(ctx, id, ActionHold, commit)
	return t, err
}

func (r *Router) Unhold(ctx context.Context, id uuid.UUID, commit CommitFunc) (Ticket, error) {
	t, _, err := r.Transition(ctx, id, ActionUnhold, commit)
	return t, err
}

func (r *Router) Bump(ctx context.Context, id uuid.UUID, commit CommitFunc) (Ticket, error) {
	t, _, err := r.Transition(ctx, id, ActionBump, commit)
	return t, err
}

// CancelOrder retires every active ticket of an order. commit is always
// called, with an empty slice when nothing is left on a station, so the
// caller can write the order change in the same transaction.
func (r *Router) CancelOrder(ctx context.Context, orderID uuid.UUID, commit CommitFunc) ([]Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	var cancelled []Ticket
	var previous []string
	for _, t := range r.cache.ForOrder(orderID) {
		if !t.Active() {
			continue
		}
		prev := t.Status
		if err := t.Apply(ActionCancel, now); err != nil {
			return nil, err
		}
		cancelled = append(cancelled, t)
		previous = append(previous, prev)
	}

	if commit != nil {
		if err := commit(ctx, cancelled); err != nil {
			return nil, err
		}
	}

	r.cache.SetAll(cancelled)
	for i, t := range cancelled {
		r.publish(ctx, StatusChangedEvent(t, previous[i]))
	}

	if len(cancelled) > 0 {
		r.logger.Info("order tickets cancelled", "order_id", orderID, "tickets", len(cancelled))
	}
	return cancelled, nil
}

// SetPriority flags a ticket for display. It has no effect on ordering.
func (r *Router) SetPriority(ctx context.Context, id uuid.UUID, priority bool, commit CommitFunc) (Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.cache.Get(id)
	if !ok {
		return Ticket{}, poserr.NotFound("kitchen.SetPriority", "ticket", id)
	}
	if !t.Active() {
		return Ticket{}, poserr.State("kitchen.SetPriority", "ticket is %s", t.Status)
	}

	t.Priority = priority
	t.UpdatedAt = r.now()

	if commit != nil {
		if err := commit(ctx, []Ticket{t}); err != nil {
			return Ticket{}, err
		}
	}

	r.cache.Set(t)
	r.publish(ctx, CreatedEvent(t, true))
	return t, nil
}

func (r *Router) Get(id uuid.UUID) (Ticket, error) {
	t, ok := r.cache.Get(id)
	if !ok {
		return Ticket{}, poserr.NotFound("kitchen.Get", "ticket", id)
	}
	return t, nil
}

func (r *Router) TicketsForOrder(orderID uuid.UUID) []Ticket {
	return r.cache.ForOrder(orderID)
}

// StationView lists the active tickets of a station oldest first, with
// elapsed minutes and urgency computed against now.
func (r *Router) StationView(stationCode string, now time.Time) []TicketView {
	tickets := r.cache.GetByStationCode(stationCode)
	views := make([]TicketView, 0, len(tickets))
	for _, t := range tickets {
		views = append(views, ViewOf(t, now))
	}
	return views
}

func (r *Router) publish(ctx context.Context, payload any) {
	if r.publisher == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		r.logger.Error("cannot marshal kitchen event", "error", err)
		return
	}
	if err := r.publisher.Publish(ctx, event.KitchenTicketsTopic, data); err != nil {
		r.logger.Error("cannot publish kitchen event", "error", err)
	}
}

// groupByStation returns the stations in first-seen order and the ticket
// items for each.
func groupByStation(items []order.OrderItem) ([]string, map[string][]TicketItem) {
	var stations []string
	grouped := make(map[string][]TicketItem)
	for _, it := range items {
		if _, ok := grouped[it.Station]; !ok {
			stations = append(stations, it.Station)
		}
		grouped[it.Station] = append(grouped[it.Station], ticketItemFrom(it))
	}
	return stations, grouped
}

func ticketItemFrom(it order.OrderItem) TicketItem {
	ti := TicketItem{
		OrderItemID: it.ID,
		Name:        it.Name,
		Quantity:    it.Quantity,
		Notes:       it.Notes,
	}
	for _, m := range it.Modifiers {
		ti.Modifiers = append(ti.Modifiers, m.Name)
	}
	return ti
}
