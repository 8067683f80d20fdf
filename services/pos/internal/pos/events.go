package pos

import (
	"context"
	"encoding/json"

	"github.com/appetiteclub/appetite/pkg"
	"github.com/appetiteclub/appetite/pkg/event"
	"github.com/appetiteclub/appetite/services/pos/internal/billing"
	"github.com/appetiteclub/appetite/services/pos/internal/kitchen"
	"github.com/appetiteclub/appetite/services/pos/internal/order"
	"github.com/google/uuid"
)

const eventSource = "pos"

func (s *Service) publishOrderSubmitted(ctx context.Context, o *order.Order, tickets []kitchen.Ticket) {
	stations := make([]string, 0, len(tickets))
	for _, t := range tickets {
		stations = append(stations, t.Station)
	}

	evt := event.OrderSubmittedEvent{
		EventType:   event.EventOrderSubmitted,
		OccurredAt:  s.now(),
		OrderID:     o.ID.String(),
		OrderNumber: o.OrderNumber,
		OrderType:   o.OrderType,
		TokenNumber: o.TokenNumber,
		WaiterID:    o.WaiterID,
		ItemCount:   len(o.Items),
		Total:       o.Total.StringFixed(2),
		Stations:    stations,
	}
	if o.TableID != nil {
		evt.TableID = o.TableID.String()
	}
	s.publish(ctx, event.OrdersTopic, evt)
}

func (s *Service) publishOrderStatusChanged(ctx context.Context, o *order.Order, previous string) {
	s.publish(ctx, event.OrdersTopic, event.OrderStatusChangedEvent{
		EventType:      event.EventOrderStatusChanged,
		OccurredAt:     s.now(),
		OrderID:        o.ID.String(),
		OrderNumber:    o.OrderNumber,
		NewStatus:      o.Status,
		PreviousStatus: previous,
	})
}

func (s *Service) publishBillPaid(ctx context.Context, b billing.Bill) {
	s.publish(ctx, event.BillingTopic, event.BillPaidEvent{
		EventType:     event.EventBillPaid,
		OccurredAt:    b.PaidAt,
		BillID:        b.ID.String(),
		BillNumber:    b.BillNumber,
		OrderID:       b.OrderID.String(),
		OrderNumber:   b.OrderNumber,
		PaymentMethod: b.PaymentMethod,
		Total:         b.Total.StringFixed(2),
		AmountPaid:    b.AmountPaid.StringFixed(2),
		ChangeGiven:   b.ChangeGiven.StringFixed(2),
		CashierID:     b.CashierID,
	})
}

func (s *Service) publishTableStatus(ctx context.Context, tableID uuid.UUID, status, previous string, orderID uuid.UUID, reason string) {
	s.publish(ctx, pkg.TableStatusTopic, pkg.TableStatusEvent{
		EventType:      pkg.EventTableStatusChanged,
		TableID:        tableID.String(),
		Status:         status,
		PreviousStatus: previous,
		OrderID:        orderID.String(),
		Reason:         reason,
		Source:         eventSource,
		OccurredAt:     s.now(),
	})
}

// publish never fails the caller; the state change it reports is already
// committed.
func (s *Service) publish(ctx context.Context, topic string, payload any) {
	if s.publisher == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("cannot encode event", "topic", topic, "error", err)
		return
	}

	if err := s.publisher.Publish(ctx, topic, data); err != nil {
		s.logger.Error("cannot publish event", "topic", topic, "error", err)
	}
}
