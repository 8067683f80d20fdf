package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/appetiteclub/appetite/pkg/event"
	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/google/uuid"
)

// Subscriber feeds notifications published by other POS instances into the
// local center so every instance serves the same inboxes.
type Subscriber struct {
	subscriber events.Subscriber
	center     *Center
	logger     apt.Logger
}

func NewSubscriber(sub events.Subscriber, center *Center, logger apt.Logger) *Subscriber {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Subscriber{
		subscriber: sub,
		center:     center,
		logger:     logger,
	}
}

func (s *Subscriber) Start(ctx context.Context) error {
	if s.subscriber == nil {
		return fmt.Errorf("notification subscriber not configured")
	}
	s.logger.Info("starting notification subscriber", "topic", event.NotificationsTopic)
	return s.subscriber.Subscribe(ctx, event.NotificationsTopic, s.handleEvent)
}

func (s *Subscriber) Stop(ctx context.Context) error {
	return nil
}

func (s *Subscriber) handleEvent(ctx context.Context, msg []byte) error {
	var evt event.NotificationEvent
	if err := json.Unmarshal(msg, &evt); err != nil {
		s.logger.Info("invalid notification event", "error", err)
		return nil
	}
	if evt.EventType != event.EventNotificationCreated {
		return nil
	}

	id, err := uuid.Parse(evt.NotificationID)
	if err != nil {
		s.logger.Info("invalid notification id in event", "notification_id", evt.NotificationID)
		return nil
	}

	n := Notification{
		ID:         id,
		Type:       Type(evt.Type),
		Title:      evt.Title,
		Message:    evt.Message,
		TargetRole: evt.TargetRole,
		CreatedAt:  evt.OccurredAt,
	}
	if evt.OrderID != "" {
		if orderID, err := uuid.Parse(evt.OrderID); err == nil {
			n.OrderID = &orderID
		}
	}

	if s.center.Ingest(n) {
		s.logger.Debug("notification received", "notification_id", id, "role", n.TargetRole)
	}
	return nil
}
