package pos

import (
	"context"
	"sync"

	"github.com/appetiteclub/appetite/services/pos/internal/gateway"
	"github.com/appetiteclub/appetite/services/pos/internal/menu"
	"github.com/appetiteclub/appetite/services/pos/internal/tables"
	"github.com/google/uuid"
)

// MockPublisher records every published message by topic.
type MockPublisher struct {
	mu       sync.Mutex
	messages map[string][][]byte

	PublishFunc func(ctx context.Context, topic string, msg []byte) error
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{messages: make(map[string][][]byte)}
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, msg []byte) error {
	m.mu.Lock()
	m.messages[topic] = append(m.messages[topic], msg)
	m.mu.Unlock()

	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, topic, msg)
	}
	return nil
}

func (m *MockPublisher) Count(topic string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages[topic])
}

// MockGateway is the in-memory gateway with injectable transaction
// failures.
type MockGateway struct {
	*gateway.Memory

	mu        sync.Mutex
	CommitErr error
	BeginErr  error
	begun     int

	// BeforeLoadTable runs ahead of every LoadTable when set.
	BeforeLoadTable func()
}

func NewMockGateway() *MockGateway {
	return &MockGateway{Memory: gateway.NewMemory()}
}

func (m *MockGateway) BeginTx(ctx context.Context) (gateway.Tx, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.begun++
	if m.BeginErr != nil {
		return nil, m.BeginErr
	}
	tx, err := m.Memory.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	return &mockTx{Tx: tx, commitErr: m.CommitErr}, nil
}

func (m *MockGateway) LoadTable(ctx context.Context, id uuid.UUID) (tables.Table, error) {
	if m.BeforeLoadTable != nil {
		m.BeforeLoadTable()
	}
	return m.Memory.LoadTable(ctx, id)
}

func (m *MockGateway) SetCommitErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CommitErr = err
}

type mockTx struct {
	gateway.Tx
	commitErr error
}

func (tx *mockTx) Commit(ctx context.Context) error {
	if tx.commitErr != nil {
		_ = tx.Tx.Rollback(ctx)
		return tx.commitErr
	}
	return tx.Tx.Commit(ctx)
}

// MockMenuStore records every saved menu item before passing it on, the way
// the Redis menu cache drops its copy on write.
type MockMenuStore struct {
	MenuStore

	mu    sync.Mutex
	saved []uuid.UUID
}

func (m *MockMenuStore) SaveMenuItem(ctx context.Context, item menu.MenuItem) error {
	if err := m.MenuStore.SaveMenuItem(ctx, item); err != nil {
		return err
	}
	m.mu.Lock()
	m.saved = append(m.saved, item.ID)
	m.mu.Unlock()
	return nil
}

func (m *MockMenuStore) Saved() []uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]uuid.UUID(nil), m.saved...)
}
