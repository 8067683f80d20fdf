package kitchen

import (
	"time"

	"github.com/appetiteclub/appetite/pkg/event"
	"github.com/google/uuid"
)

func metadataFor(eventType string, t Ticket, at time.Time) event.KitchenTicketEventMetadata {
	meta := event.KitchenTicketEventMetadata{
		EventType:   eventType,
		OccurredAt:  at,
		TicketID:    t.ID.String(),
		OrderID:     t.OrderID.String(),
		OrderNumber: t.OrderNumber,
		Station:     t.Station,
		TokenNumber: t.TokenNumber,
	}
	if t.TableID != nil {
		meta.TableID = t.TableID.String()
	}
	return meta
}

// CreatedEvent builds the payload for a new ticket, or for a ticket whose
// items were replaced when updated is true.
func CreatedEvent(t Ticket, updated bool) event.KitchenTicketCreatedEvent {
	eventType := event.EventKitchenTicketCreated
	if updated {
		eventType = event.EventKitchenTicketUpdated
	}
	items := make([]event.KitchenTicketItem, 0, len(t.Items))
	for _, it := range t.Items {
		items = append(items, event.KitchenTicketItem{
			Name:      it.Name,
			Quantity:  it.Quantity,
			Modifiers: it.Modifiers,
			Notes:     it.Notes,
		})
	}
	return event.KitchenTicketCreatedEvent{
		KitchenTicketEventMetadata: metadataFor(eventType, t, t.UpdatedAt),
		Status:                     t.Status,
		Priority:                   t.Priority,
		Items:                      items,
	}
}

func StatusChangedEvent(t Ticket, previous string) event.KitchenTicketStatusChangedEvent {
	return event.KitchenTicketStatusChangedEvent{
		KitchenTicketEventMetadata: metadataFor(event.EventKitchenTicketStatusChange, t, t.UpdatedAt),
		NewStatus:                  t.Status,
		PreviousStatus:             previous,
		StartedAt:                  t.StartedAt,
		ReadyAt:                    t.ReadyAt,
		BumpedAt:                   t.BumpedAt,
	}
}

func ticketFromCreated(evt event.KitchenTicketCreatedEvent) Ticket {
	t := Ticket{
		ID:          parseUUID(evt.TicketID),
		OrderID:     parseUUID(evt.OrderID),
		OrderNumber: evt.OrderNumber,
		TokenNumber: evt.TokenNumber,
		Station:     evt.Station,
		Priority:    evt.Priority,
		Status:      evt.Status,
		CreatedAt:   evt.OccurredAt,
		UpdatedAt:   evt.OccurredAt,
	}
	if evt.TableID != "" {
		id := parseUUID(evt.TableID)
		t.TableID = &id
	}
	for _, it := range evt.Items {
		t.Items = append(t.Items, TicketItem{
			Name:      it.Name,
			Quantity:  it.Quantity,
			Modifiers: it.Modifiers,
			Notes:     it.Notes,
		})
	}
	return t
}

func parseUUID(s string) uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil
	}
	return id
}
