package event

import "time"

const (
	NotificationsTopic       = "pos.notifications"
	EventNotificationCreated = "pos.notification.created"
)

type NotificationEvent struct {
	EventType      string    `json:"event_type"`
	OccurredAt     time.Time `json:"occurred_at"`
	NotificationID string    `json:"notification_id"`
	Type           string    `json:"type"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	TargetRole     string    `json:"target_role,omitempty"`
	OrderID        string    `json:"order_id,omitempty"`
}
