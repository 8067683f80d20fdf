package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/appetiteclub/appetite/pkg/event"
	"github.com/appetiteclub/appetite/services/pos/internal/poserr"
	"github.com/google/uuid"
)

type MockPublisher struct {
	Published   [][]byte
	Topics      []string
	PublishFunc func(ctx context.Context, topic string, data []byte) error
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, data []byte) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, topic, data)
	}
	m.Topics = append(m.Topics, topic)
	m.Published = append(m.Published, data)
	return nil
}

func TestNotifyStoresNewestFirst(t *testing.T) {
	c := NewCenter(nil, nil)
	ctx := context.Background()

	c.Notify(ctx, TypeNewOrder, "New order", "ORD-000001", RoleKitchen, nil)
	c.Notify(ctx, TypeNewOrder, "New order", "ORD-000002", RoleKitchen, nil)
	c.Notify(ctx, TypeOrderReady, "Order ready", "ORD-000001", RoleWaiter, nil)

	kitchen := c.ListForRole(RoleKitchen)
	if len(kitchen) != 2 {
		t.Fatalf("kitchen inbox = %d", len(kitchen))
	}
	if kitchen[0].Message != "ORD-000002" {
		t.Errorf("newest first expected, got %s", kitchen[0].Message)
	}
	if n := len(c.ListForRole(RoleWaiter)); n != 1 {
		t.Errorf("waiter inbox = %d", n)
	}
	if n := len(c.ListForRole(RoleAdmin)); n != 0 {
		t.Errorf("admin inbox = %d", n)
	}
}

func TestNotifyBoundsInbox(t *testing.T) {
	c := NewCenter(nil, nil)
	ctx := context.Background()

	first := c.Notify(ctx, TypeInfo, "first", "", RoleAdmin, nil)
	for i := 0; i < InboxSize; i++ {
		c.Notify(ctx, TypeInfo, fmt.Sprintf("n%d", i), "", RoleAdmin, nil)
	}

	inbox := c.ListForRole(RoleAdmin)
	if len(inbox) != InboxSize {
		t.Fatalf("inbox = %d, want %d", len(inbox), InboxSize)
	}
	if err := c.MarkRead(first.ID); !poserr.IsNotFound(err) {
		t.Errorf("evicted notification still addressable: %v", err)
	}
}

func TestMarkRead(t *testing.T) {
	c := NewCenter(nil, nil)
	ctx := context.Background()

	n := c.Notify(ctx, TypeOrderReady, "Order ready", "T1", RoleWaiter, nil)
	c.Notify(ctx, TypeOrderBumped, "Order bumped", "T1", RoleWaiter, nil)

	if got := c.UnreadCount(RoleWaiter); got != 2 {
		t.Fatalf("unread = %d", got)
	}
	if err := c.MarkRead(n.ID); err != nil {
		t.Fatal(err)
	}
	if got := c.UnreadCount(RoleWaiter); got != 1 {
		t.Errorf("unread = %d, want 1", got)
	}
	if err := c.MarkRead(uuid.New()); !poserr.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestNotifyPublishes(t *testing.T) {
	pub := &MockPublisher{}
	c := NewCenter(pub, nil)
	orderID := uuid.New()

	c.Notify(context.Background(), TypeNewOrder, "New order", "ORD-000009", RoleKitchen, &orderID)

	if len(pub.Published) != 1 || pub.Topics[0] != event.NotificationsTopic {
		t.Fatalf("published = %d", len(pub.Published))
	}
	var evt event.NotificationEvent
	if err := json.Unmarshal(pub.Published[0], &evt); err != nil {
		t.Fatal(err)
	}
	if evt.Type != "new-order" || evt.OrderID != orderID.String() || evt.TargetRole != RoleKitchen {
		t.Errorf("event = %+v", evt)
	}
}

func TestNotifyPublishFailureKeepsNotification(t *testing.T) {
	pub := &MockPublisher{PublishFunc: func(ctx context.Context, topic string, data []byte) error {
		return errors.New("nats down")
	}}
	c := NewCenter(pub, nil)

	c.Notify(context.Background(), TypeInfo, "Bill paid", "BILL-20260314-00001", RoleAdmin, nil)

	if n := len(c.ListForRole(RoleAdmin)); n != 1 {
		t.Errorf("inbox = %d", n)
	}
}
