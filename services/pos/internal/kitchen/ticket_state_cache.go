package kitchen

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/appetiteclub/appetite/pkg/event"
	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/google/uuid"
)

// TicketLoader is the read side the cache warms from.
type TicketLoader interface {
	ListActiveTickets(ctx context.Context) ([]Ticket, error)
}

type routeKey struct {
	orderID uuid.UUID
	station string
}

// TicketStateCache keeps tickets in memory, indexed by station, status and
// (order, station) so station views and re-routing never hit storage.
type TicketStateCache struct {
	mu        sync.RWMutex
	tickets   map[uuid.UUID]*Ticket
	byStation map[string][]uuid.UUID
	byStatus  map[string][]uuid.UUID
	byRoute   map[routeKey]uuid.UUID

	stream events.StreamConsumer // replay fallback
	repo   TicketLoader
	logger apt.Logger
}

func NewTicketStateCache(stream events.StreamConsumer, repo TicketLoader, logger apt.Logger) *TicketStateCache {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &TicketStateCache{
		tickets:   make(map[uuid.UUID]*Ticket),
		byStation: make(map[string][]uuid.UUID),
		byStatus:  make(map[string][]uuid.UUID),
		byRoute:   make(map[routeKey]uuid.UUID),
		stream:    stream,
		repo:      repo,
		logger:    logger,
	}
}

// Warm loads active tickets from the repository. If the repository is not
// configured or fails, the kitchen event stream is replayed instead.
func (c *TicketStateCache) Warm(ctx context.Context) error {
	if c.repo != nil {
		err := c.warmFromRepo(ctx)
		if err == nil {
			return nil
		}
		c.logger.Info("ticket repository warm failed, trying event stream", "error", err)
	}

	if c.stream == nil {
		c.logger.Info("neither repository nor stream available, ticket cache remains empty")
		return nil
	}

	if err := c.warmFromStream(ctx); err != nil {
		c.logger.Info("stream replay failed, ticket cache remains empty", "error", err)
		return nil
	}
	c.removeFinishedTickets()
	return nil
}

func (c *TicketStateCache) warmFromRepo(ctx context.Context) error {
	c.logger.Info("warming ticket cache from repository")

	tickets, err := c.repo.ListActiveTickets(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range tickets {
		t := tickets[i].Clone()
		c.setLocked(&t)
	}

	c.logger.Info("ticket cache warmed from repository", "count", len(tickets))
	return nil
}

func (c *TicketStateCache) warmFromStream(ctx context.Context) error {
	c.logger.Info("warming ticket cache from event stream")

	messages, err := c.stream.Fetch(ctx, 10000)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, msg := range messages {
		c.applyEventLocked(msg.Data)
	}

	c.logger.Info("ticket cache warmed from stream", "events", len(messages), "tickets", len(c.tickets))
	return nil
}

// Apply folds one published kitchen event into the cache.
func (c *TicketStateCache) Apply(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.applyEventLocked(data)
}

func (c *TicketStateCache) applyEventLocked(data []byte) {
	var base struct {
		EventType string `json:"event_type"`
	}
	if err := json.Unmarshal(data, &base); err != nil {
		c.logger.Error("failed to unmarshal event type", "error", err)
		return
	}

	switch base.EventType {
	case event.EventKitchenTicketCreated, event.EventKitchenTicketUpdated:
		var evt event.KitchenTicketCreatedEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			c.logger.Error("failed to unmarshal ticket event", "event_type", base.EventType, "error", err)
			return
		}
		t := ticketFromCreated(evt)
		if existing, ok := c.tickets[t.ID]; ok {
			t.CreatedAt = existing.CreatedAt
			t.StartedAt = existing.StartedAt
			t.ReadyAt = existing.ReadyAt
			t.BumpedAt = existing.BumpedAt
		}
		c.setLocked(&t)

	case event.EventKitchenTicketStatusChange:
		var evt event.KitchenTicketStatusChangedEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			c.logger.Error("failed to unmarshal ticket status event", "error", err)
			return
		}
		id, err := uuid.Parse(evt.TicketID)
		if err != nil {
			return
		}
		existing, ok := c.tickets[id]
		if !ok {
			// status change for a ticket created before the retained window
			return
		}
		t := existing.Clone()
		t.Status = evt.NewStatus
		t.UpdatedAt = evt.OccurredAt
		t.StartedAt = evt.StartedAt
		t.ReadyAt = evt.ReadyAt
		t.BumpedAt = evt.BumpedAt
		c.setLocked(&t)
	}
}

// removeFinishedTickets drops bumped and cancelled tickets left over from a
// stream replay.
func (c *TicketStateCache) removeFinishedTickets() {
	c.mu.Lock()
	defer c.mu.Unlock()

	var removed int
	for id, t := range c.tickets {
		if !t.Active() {
			c.removeLocked(id)
			removed++
		}
	}
	c.logger.Info("removed finished tickets from cache", "count", removed)
}

func (c *TicketStateCache) Set(t Ticket) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := t.Clone()
	c.setLocked(&cp)
}

func (c *TicketStateCache) SetAll(tickets []Ticket) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range tickets {
		cp := tickets[i].Clone()
		c.setLocked(&cp)
	}
}

func (c *TicketStateCache) setLocked(t *Ticket) {
	if t == nil {
		return
	}

	if old, ok := c.tickets[t.ID]; ok {
		c.removeFromIndex(c.byStation, old.Station, t.ID)
		c.removeFromIndex(c.byStatus, old.Status, t.ID)
	}

	c.tickets[t.ID] = t
	c.byStation[t.Station] = append(c.byStation[t.Station], t.ID)
	c.byStatus[t.Status] = append(c.byStatus[t.Status], t.ID)
	c.byRoute[routeKey{orderID: t.OrderID, station: t.Station}] = t.ID
}

func (c *TicketStateCache) Remove(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(id)
}

func (c *TicketStateCache) removeLocked(id uuid.UUID) {
	t, ok := c.tickets[id]
	if !ok {
		return
	}
	c.removeFromIndex(c.byStation, t.Station, id)
	c.removeFromIndex(c.byStatus, t.Status, id)
	key := routeKey{orderID: t.OrderID, station: t.Station}
	if c.byRoute[key] == id {
		delete(c.byRoute, key)
	}
	delete(c.tickets, id)
}

// Get returns a copy of the ticket.
func (c *TicketStateCache) Get(id uuid.UUID) (Ticket, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tickets[id]
	if !ok {
		return Ticket{}, false
	}
	return t.Clone(), true
}

// Lookup finds the ticket routed for (orderID, station).
func (c *TicketStateCache) Lookup(orderID uuid.UUID, stationCode string) (Ticket, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.byRoute[routeKey{orderID: orderID, station: stationCode}]
	if !ok {
		return Ticket{}, false
	}
	return c.tickets[id].Clone(), true
}

// GetByStationCode returns the active tickets of a station, oldest first.
func (c *TicketStateCache) GetByStationCode(code string) []Ticket {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.collectLocked(c.byStation[code], true)
}

func (c *TicketStateCache) GetByStatus(status string) []Ticket {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.collectLocked(c.byStatus[status], false)
}

func (c *TicketStateCache) ForOrder(orderID uuid.UUID) []Ticket {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var ids []uuid.UUID
	for key, id := range c.byRoute {
		if key.orderID == orderID {
			ids = append(ids, id)
		}
	}
	return c.collectLocked(ids, false)
}

func (c *TicketStateCache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tickets)
}

func (c *TicketStateCache) collectLocked(ids []uuid.UUID, activeOnly bool) []Ticket {
	out := make([]Ticket, 0, len(ids))
	for _, id := range ids {
		t, ok := c.tickets[id]
		if !ok || (activeOnly && !t.Active()) {
			continue
		}
		out = append(out, t.Clone())
	}
	SortFIFO(out)
	return out
}

func (c *TicketStateCache) removeFromIndex(index map[string][]uuid.UUID, key string, id uuid.UUID) {
	ids := index[key]
	for i, v := range ids {
		if v == id {
			index[key] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(index[key]) == 0 {
		delete(index, key)
	}
}

// SortFIFO orders tickets by creation time, oldest first. Ties fall back to
// the ticket id so the order is stable across calls.
func SortFIFO(tickets []Ticket) {
	sort.SliceStable(tickets, func(i, j int) bool {
		a, b := tickets[i], tickets[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})
}
