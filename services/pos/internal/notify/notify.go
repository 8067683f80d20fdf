// Package notify keeps role targeted notifications and publishes them as
// events. Delivery to screens is left to whoever consumes the topic.
package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/appetiteclub/appetite/pkg/event"
	"github.com/appetiteclub/appetite/services/pos/internal/poserr"
	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/google/uuid"
)

type Type string

const (
	TypeOrderReady  Type = "order-ready"
	TypeOrderBumped Type = "order-bumped"
	TypeNewOrder    Type = "new-order"
	TypeInfo        Type = "info"
)

const (
	RoleWaiter  = "waiter"
	RoleKitchen = "kitchen"
	RoleCashier = "cashier"
	RoleAdmin   = "admin"
)

// InboxSize is how many notifications a role keeps.
const InboxSize = 50

type Notification struct {
	ID         uuid.UUID  `json:"id"`
	Type       Type       `json:"type"`
	Title      string     `json:"title"`
	Message    string     `json:"message"`
	TargetRole string     `json:"target_role"`
	OrderID    *uuid.UUID `json:"order_id,omitempty"`
	Read       bool       `json:"read"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (n *Notification) GetID() uuid.UUID {
	return n.ID
}

func (n *Notification) ResourceType() string {
	return "notification"
}

type Center struct {
	mu        sync.RWMutex
	inboxes   map[string][]*Notification
	byID      map[uuid.UUID]*Notification
	publisher events.Publisher
	logger    apt.Logger
	now       func() time.Time
}

func NewCenter(publisher events.Publisher, logger apt.Logger) *Center {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Center{
		inboxes:   make(map[string][]*Notification),
		byID:      make(map[uuid.UUID]*Notification),
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Notify stores a notification in the role inbox, newest first, dropping
// the oldest beyond InboxSize, and publishes it.
func (c *Center) Notify(ctx context.Context, t Type, title, message, role string, orderID *uuid.UUID) Notification {
	n := &Notification{
		ID:         apt.GenerateNewID(),
		Type:       t,
		Title:      title,
		Message:    message,
		TargetRole: role,
		CreatedAt:  c.now(),
	}
	if orderID != nil {
		id := *orderID
		n.OrderID = &id
	}

	c.mu.Lock()
	c.storeLocked(n)
	out := *n
	c.mu.Unlock()

	c.publish(ctx, out)
	return out
}

// Ingest stores a notification raised elsewhere without publishing it
// again. It reports false for ids the center already holds.
func (c *Center) Ingest(n Notification) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.byID[n.ID]; ok {
		return false
	}
	stored := n
	c.storeLocked(&stored)
	return true
}

func (c *Center) storeLocked(n *Notification) {
	inbox := append([]*Notification{n}, c.inboxes[n.TargetRole]...)
	if len(inbox) > InboxSize {
		for _, old := range inbox[InboxSize:] {
			delete(c.byID, old.ID)
		}
		inbox = inbox[:InboxSize]
	}
	c.inboxes[n.TargetRole] = inbox
	c.byID[n.ID] = n
}

func (c *Center) ListForRole(role string) []Notification {
	c.mu.RLock()
	defer c.mu.RUnlock()

	inbox := c.inboxes[role]
	out := make([]Notification, 0, len(inbox))
	for _, n := range inbox {
		out = append(out, *n)
	}
	return out
}

func (c *Center) MarkRead(id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.byID[id]
	if !ok {
		return poserr.NotFound("notify.MarkRead", "notification", id)
	}
	n.Read = true
	return nil
}

func (c *Center) UnreadCount(role string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var count int
	for _, n := range c.inboxes[role] {
		if !n.Read {
			count++
		}
	}
	return count
}

func (c *Center) publish(ctx context.Context, n Notification) {
	if c.publisher == nil {
		return
	}

	evt := event.NotificationEvent{
		EventType:      event.EventNotificationCreated,
		OccurredAt:     n.CreatedAt,
		NotificationID: n.ID.String(),
		Type:           string(n.Type),
		Title:          n.Title,
		Message:        n.Message,
		TargetRole:     n.TargetRole,
	}
	if n.OrderID != nil {
		evt.OrderID = n.OrderID.String()
	}

	data, err := json.Marshal(evt)
	if err != nil {
		c.logger.Error("cannot marshal notification event", "error", err)
		return
	}
	if err := c.publisher.Publish(ctx, event.NotificationsTopic, data); err != nil {
		c.logger.Error("cannot publish notification", "notification_id", n.ID, "error", err)
	}
}
