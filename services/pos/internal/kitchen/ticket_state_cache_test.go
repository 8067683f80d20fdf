package kitchen

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/appetiteclub/apt/events"
	"github.com/google/uuid"
)

func TestTicketStateCacheWarm(t *testing.T) {
	active := NewTicket(uuid.New(), "HOT", t0)

	tests := []struct {
		name      string
		repo      TicketLoader
		stream    func() events.StreamConsumer
		wantCount int
	}{
		{
			name:      "fromRepository",
			repo:      &MockTicketLoader{tickets: []Ticket{*active}},
			stream:    func() events.StreamConsumer { return nil },
			wantCount: 1,
		},
		{
			name: "repositoryFailsFallsBackToStream",
			repo: &MockTicketLoader{ListActiveTicketsFunc: func(ctx context.Context) ([]Ticket, error) {
				return nil, errors.New("db down")
			}},
			stream: func() events.StreamConsumer {
				s := NewMockStreamConsumer()
				data, _ := json.Marshal(CreatedEvent(*active, false))
				s.AddMessage(data)
				return s
			},
			wantCount: 1,
		},
		{
			name:      "nothingConfigured",
			stream:    func() events.StreamConsumer { return nil },
			wantCount: 0,
		},
		{
			name: "streamFails",
			stream: func() events.StreamConsumer {
				s := NewMockStreamConsumer()
				s.FetchFunc = func(ctx context.Context, n int) ([]events.StreamMessage, error) {
					return nil, errors.New("stream gone")
				}
				return s
			},
			wantCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := NewTicketStateCache(tt.stream(), tt.repo, nil)

			if err := cache.Warm(context.Background()); err != nil {
				t.Fatalf("warm returned error: %v", err)
			}
			if got := cache.Count(); got != tt.wantCount {
				t.Errorf("count = %d, want %d", got, tt.wantCount)
			}
		})
	}
}

func TestTicketStateCacheReplayDropsBumped(t *testing.T) {
	stream := NewMockStreamConsumer()
	kept := NewTicket(uuid.New(), "HOT", t0)
	gone := NewTicket(uuid.New(), "BAR", t0)

	for _, tk := range []*Ticket{kept, gone} {
		data, _ := json.Marshal(CreatedEvent(*tk, false))
		stream.AddMessage(data)
	}

	bumped := gone.Clone()
	if err := bumped.Apply(ActionBump, t0.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}
	data, _ := json.Marshal(StatusChangedEvent(bumped, "pending"))
	stream.AddMessage(data)

	cache := NewTicketStateCache(stream, nil, nil)
	if err := cache.Warm(context.Background()); err != nil {
		t.Fatal(err)
	}

	if cache.Count() != 1 {
		t.Fatalf("count = %d, want 1", cache.Count())
	}
	if _, ok := cache.Get(kept.ID); !ok {
		t.Error("active ticket missing after replay")
	}
}

func TestTicketStateCacheIndexesFollowStatus(t *testing.T) {
	cache := NewTicketStateCache(nil, nil, nil)
	tk := NewTicket(uuid.New(), "HOT", t0)
	cache.Set(*tk)

	if n := len(cache.GetByStatus("pending")); n != 1 {
		t.Fatalf("pending index = %d", n)
	}

	updated := tk.Clone()
	if err := updated.Apply(ActionStart, t0); err != nil {
		t.Fatal(err)
	}
	cache.Set(updated)

	if n := len(cache.GetByStatus("pending")); n != 0 {
		t.Errorf("stale pending index entry: %d", n)
	}
	if n := len(cache.GetByStatus("preparing")); n != 1 {
		t.Errorf("preparing index = %d", n)
	}
	if n := len(cache.GetByStationCode("HOT")); n != 1 {
		t.Errorf("station index = %d", n)
	}

	cache.Remove(tk.ID)
	if _, ok := cache.Lookup(tk.OrderID, "HOT"); ok {
		t.Error("route index kept removed ticket")
	}
	if cache.Count() != 0 {
		t.Error("ticket not removed")
	}
}

func TestTicketStateCacheReturnsCopies(t *testing.T) {
	cache := NewTicketStateCache(nil, nil, nil)
	tk := NewTicket(uuid.New(), "HOT", t0)
	tk.Items = []TicketItem{{Name: "Paneer Tikka", Quantity: 1}}
	cache.Set(*tk)

	got, _ := cache.Get(tk.ID)
	got.Items[0].Quantity = 99
	got.Status = "bumped"

	again, _ := cache.Get(tk.ID)
	if again.Items[0].Quantity != 1 || again.Status != "pending" {
		t.Error("cache exposed internal ticket state")
	}
}

func TestTicketStateCacheReplayDropsCancelled(t *testing.T) {
	stream := NewMockStreamConsumer()
	kept := NewTicket(uuid.New(), "HOT", t0)
	gone := NewTicket(uuid.New(), "HOT", t0)

	for _, tk := range []*Ticket{kept, gone} {
		data, _ := json.Marshal(CreatedEvent(*tk, false))
		stream.AddMessage(data)
	}

	cancelled := gone.Clone()
	if err := cancelled.Apply(ActionCancel, t0.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}
	data, _ := json.Marshal(StatusChangedEvent(cancelled, "pending"))
	stream.AddMessage(data)

	cache := NewTicketStateCache(stream, nil, nil)
	if err := cache.Warm(context.Background()); err != nil {
		t.Fatal(err)
	}

	if _, ok := cache.Get(gone.ID); ok {
		t.Error("cancelled ticket survived replay")
	}
	if got := cache.GetByStationCode("HOT"); len(got) != 1 || got[0].ID != kept.ID {
		t.Errorf("HOT tickets after replay = %d", len(got))
	}
}
