package session

import (
	"context"
	"sync"

	"github.com/appetiteclub/appetite/services/pos/internal/menu"
	"github.com/appetiteclub/appetite/services/pos/internal/poserr"
	"github.com/google/uuid"
)

type MockMenuLoader struct {
	mu    sync.Mutex
	items map[uuid.UUID]menu.MenuItem
	calls int

	LoadMenuItemFunc func(ctx context.Context, id uuid.UUID) (menu.MenuItem, error)
}

func NewMockMenuLoader(items ...menu.MenuItem) *MockMenuLoader {
	m := &MockMenuLoader{items: make(map[uuid.UUID]menu.MenuItem)}
	for _, it := range items {
		m.items[it.ID] = it
	}
	return m
}

func (m *MockMenuLoader) LoadMenuItem(ctx context.Context, id uuid.UUID) (menu.MenuItem, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.LoadMenuItemFunc != nil {
		return m.LoadMenuItemFunc(ctx, id)
	}
	it, ok := m.items[id]
	if !ok {
		return menu.MenuItem{}, poserr.NotFound("mock.LoadMenuItem", "menu item", id)
	}
	return it, nil
}
