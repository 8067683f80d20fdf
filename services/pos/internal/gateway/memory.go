package gateway

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/appetiteclub/appetite/pkg/enums/orderstatus"
	"github.com/appetiteclub/appetite/pkg/enums/tablestatus"
	"github.com/appetiteclub/appetite/services/pos/internal/billing"
	"github.com/appetiteclub/appetite/services/pos/internal/kitchen"
	"github.com/appetiteclub/appetite/services/pos/internal/menu"
	"github.com/appetiteclub/appetite/services/pos/internal/order"
	"github.com/appetiteclub/appetite/services/pos/internal/poserr"
	"github.com/appetiteclub/appetite/services/pos/internal/tables"
	"github.com/google/uuid"
)

var _ Store = (*Memory)(nil)

type memState struct {
	menu    map[uuid.UUID]menu.MenuItem
	tables  map[uuid.UUID]tables.Table
	orders  map[uuid.UUID]order.Order
	tickets map[uuid.UUID]kitchen.Ticket
	bills   map[uuid.UUID]billing.Bill
}

func newMemState() memState {
	return memState{
		menu:    make(map[uuid.UUID]menu.MenuItem),
		tables:  make(map[uuid.UUID]tables.Table),
		orders:  make(map[uuid.UUID]order.Order),
		tickets: make(map[uuid.UUID]kitchen.Ticket),
		bills:   make(map[uuid.UUID]billing.Bill),
	}
}

// copy duplicates the maps. Values are replaced on write, never mutated in
// place, so a shallow copy is enough to stage a transaction.
func (s memState) copy() memState {
	c := newMemState()
	for k, v := range s.menu {
		c.menu[k] = v
	}
	for k, v := range s.tables {
		c.tables[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.tickets {
		c.tickets[k] = v
	}
	for k, v := range s.bills {
		c.bills[k] = v
	}
	return c
}

// Memory keeps everything in process. Transactions stage their writes and
// apply them all at once on Commit.
type Memory struct {
	mu       sync.RWMutex
	state    memState
	counters map[string]int64
}

func NewMemory() *Memory {
	return &Memory{state: newMemState(), counters: make(map[string]int64)}
}

// Next advances a named counter. Counters live as long as the store and
// survive Reset, so every service sharing the store draws from them.
func (m *Memory) Next(ctx context.Context, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[name]++
	return m.counters[name], nil
}

func (m *Memory) Start(ctx context.Context) error { return nil }

func (m *Memory) Stop(ctx context.Context) error { return nil }

func (m *Memory) LoadMenuItem(ctx context.Context, id uuid.UUID) (menu.MenuItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	item, ok := m.state.menu[id]
	if !ok {
		return menu.MenuItem{}, poserr.NotFound("gateway.LoadMenuItem", "menu item", id)
	}
	return item.Clone(), nil
}

func (m *Memory) LoadOrder(ctx context.Context, id uuid.UUID) (order.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	o, ok := m.state.orders[id]
	if !ok {
		return order.Order{}, poserr.NotFound("gateway.LoadOrder", "order", id)
	}
	return *o.Clone(), nil
}

func (m *Memory) LoadTable(ctx context.Context, id uuid.UUID) (tables.Table, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.state.tables[id]
	if !ok {
		return tables.Table{}, poserr.NotFound("gateway.LoadTable", "table", id)
	}
	return *t.Clone(), nil
}

func (m *Memory) ListOrders(ctx context.Context, filter order.ListFilter) ([]order.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]order.Order, 0)
	for _, o := range m.state.orders {
		if filter.Matches(o) {
			out = append(out, *o.Clone())
		}
	}
	order.SortNewestFirst(out)
	if limit := filter.EffectiveLimit(); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) ListActiveTickets(ctx context.Context) ([]kitchen.Ticket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]kitchen.Ticket, 0, len(m.state.tickets))
	for _, t := range m.state.tickets {
		if t.Active() {
			out = append(out, t.Clone())
		}
	}
	kitchen.SortFIFO(out)
	return out, nil
}

func (m *Memory) ListBills(ctx context.Context, from, to time.Time) ([]billing.Bill, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []billing.Bill
	for _, b := range m.state.bills {
		if !b.PaidAt.Before(from) && b.PaidAt.Before(to) {
			out = append(out, b.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PaidAt.Before(out[j].PaidAt) })
	return out, nil
}

func (m *Memory) SaveMenuItem(ctx context.Context, item menu.MenuItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.menu[item.ID] = item.Clone()
	return nil
}

func (m *Memory) SaveTable(ctx context.Context, t tables.Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.tables[t.ID] = *t.Clone()
	return nil
}

func (m *Memory) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.orders = make(map[uuid.UUID]order.Order)
	m.state.tickets = make(map[uuid.UUID]kitchen.Ticket)
	m.state.bills = make(map[uuid.UUID]billing.Bill)
	for id, t := range m.state.tables {
		t.Status = tablestatus.Statuses.Available.Code()
		t.CurrentOrderID = nil
		m.state.tables[id] = t
	}
	return nil
}

func (m *Memory) BeginTx(ctx context.Context) (Tx, error) {
	return &memTx{store: m}, nil
}

type memOp func(s *memState) error

type memTx struct {
	store *Memory
	ops   []memOp
	done  bool
}

func (tx *memTx) stage(op string, fn memOp) error {
	if tx.done {
		return poserr.Gateway(op, errTxClosed)
	}
	tx.ops = append(tx.ops, fn)
	return nil
}

func (tx *memTx) InsertOrder(ctx context.Context, o order.Order) error {
	c := o.Clone()
	c.Items = nil
	return tx.stage("gateway.InsertOrder", func(s *memState) error {
		if _, exists := s.orders[c.ID]; exists {
			return poserr.Gateway("gateway.InsertOrder", errDuplicate)
		}
		s.orders[c.ID] = *c
		return nil
	})
}

func (tx *memTx) InsertOrderItems(ctx context.Context, orderID uuid.UUID, items []order.OrderItem) error {
	staged := (&order.Order{Items: items}).Clone().Items
	return tx.stage("gateway.InsertOrderItems", func(s *memState) error {
		o, ok := s.orders[orderID]
		if !ok {
			return poserr.NotFound("gateway.InsertOrderItems", "order", orderID)
		}
		o.Items = append(append([]order.OrderItem(nil), o.Items...), staged...)
		s.orders[orderID] = o
		return nil
	})
}

func (tx *memTx) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status string, at time.Time) error {
	return tx.stage("gateway.UpdateOrderStatus", func(s *memState) error {
		o, ok := s.orders[id]
		if !ok {
			return poserr.NotFound("gateway.UpdateOrderStatus", "order", id)
		}
		o.Status = status
		o.UpdatedAt = at
		if status == orderstatus.Statuses.Completed.Code() {
			completed := at
			o.CompletedAt = &completed
		}
		s.orders[id] = o
		return nil
	})
}

func (tx *memTx) UpsertTicket(ctx context.Context, t kitchen.Ticket) error {
	staged := t.Clone()
	return tx.stage("gateway.UpsertTicket", func(s *memState) error {
		s.tickets[staged.ID] = staged
		return nil
	})
}

func (tx *memTx) UpdateTableStatus(ctx context.Context, id uuid.UUID, status string, currentOrderID *uuid.UUID) error {
	var ref *uuid.UUID
	if currentOrderID != nil {
		v := *currentOrderID
		ref = &v
	}
	return tx.stage("gateway.UpdateTableStatus", func(s *memState) error {
		t, ok := s.tables[id]
		if !ok {
			return poserr.NotFound("gateway.UpdateTableStatus", "table", id)
		}
		if ref != nil && t.CurrentOrderID != nil && *t.CurrentOrderID != *ref {
			return poserr.State("gateway.UpdateTableStatus", "table %s is held by order %s", t.Name, *t.CurrentOrderID)
		}
		t.Status = status
		t.CurrentOrderID = ref
		t.UpdatedAt = time.Now()
		s.tables[id] = t
		return nil
	})
}

func (tx *memTx) InsertBill(ctx context.Context, b billing.Bill) error {
	staged := b.Clone()
	return tx.stage("gateway.InsertBill", func(s *memState) error {
		if _, exists := s.bills[staged.ID]; exists {
			return poserr.Gateway("gateway.InsertBill", errDuplicate)
		}
		for _, other := range s.bills {
			if other.OrderID == staged.OrderID {
				return poserr.Gateway("gateway.InsertBill", errDuplicate)
			}
		}
		s.bills[staged.ID] = staged
		return nil
	})
}

func (tx *memTx) Commit(ctx context.Context) error {
	if tx.done {
		return poserr.Gateway("gateway.Commit", errTxClosed)
	}
	tx.done = true

	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()

	next := tx.store.state.copy()
	for _, op := range tx.ops {
		if err := op(&next); err != nil {
			return err
		}
	}
	tx.store.state = next
	return nil
}

func (tx *memTx) Rollback(ctx context.Context) error {
	tx.done = true
	tx.ops = nil
	return nil
}
