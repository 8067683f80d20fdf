// Package session keeps the in-progress draft of every waiter session in
// its own actor.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/appetiteclub/appetite/pkg/enums/station"
	"github.com/appetiteclub/appetite/services/pos/internal/menu"
	"github.com/appetiteclub/appetite/services/pos/internal/order"
	"github.com/appetiteclub/appetite/services/pos/internal/poserr"
	"github.com/appetiteclub/appetite/services/pos/internal/pricing"
	"github.com/appetiteclub/apt"
	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	DefaultRequestTimeout = 10 * time.Second
	DefaultSubmitTimeout  = 60 * time.Second
	DefaultIdleTimeout    = 30 * time.Minute
)

type MenuLoader interface {
	LoadMenuItem(ctx context.Context, id uuid.UUID) (menu.MenuItem, error)
}

type Options struct {
	Rates          pricing.Rates
	Stations       station.Mapper
	RequestTimeout time.Duration
	// SubmitTimeout bounds a submit, which waits on the gateway and the
	// kitchen commit rather than on the draft alone.
	SubmitTimeout time.Duration
	IdleTimeout   time.Duration
}

type AddItemRequest struct {
	MenuItemID uuid.UUID        `json:"menu_item_id"`
	Quantity   int              `json:"quantity"`
	Selections []menu.Selection `json:"selections,omitempty"`
	Notes      string           `json:"notes,omitempty"`
}

// Manager spawns one actor per session id on first use and routes requests
// to it.
type Manager struct {
	system *actor.ActorSystem
	menu   MenuLoader
	opts   Options
	logger apt.Logger

	mu   sync.Mutex
	pids map[string]*actor.PID
}

func NewManager(system *actor.ActorSystem, menu MenuLoader, opts Options, logger apt.Logger) *Manager {
	if system == nil {
		system = actor.NewActorSystem()
	}
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}
	if opts.SubmitTimeout <= 0 {
		opts.SubmitTimeout = DefaultSubmitTimeout
	}
	if opts.IdleTimeout < 0 {
		opts.IdleTimeout = 0
	}

	return &Manager{
		system: system,
		menu:   menu,
		opts:   opts,
		logger: logger,
		pids:   make(map[string]*actor.PID),
	}
}

// Start replaces whatever draft the session had with a new empty one.
func (m *Manager) Start(ctx context.Context, sessionID string, opts order.DraftOptions) (*order.Draft, error) {
	r, err := m.request(ctx, sessionID, &startDraft{opts: opts})
	if err != nil {
		return nil, err
	}
	return r.draft, nil
}

func (m *Manager) Draft(ctx context.Context, sessionID string) (*order.Draft, error) {
	r, err := m.request(ctx, sessionID, &snapshot{})
	if err != nil {
		return nil, err
	}
	return r.draft, nil
}

// AddItem loads the menu item before messaging the session so the actor
// never waits on the gateway for it.
func (m *Manager) AddItem(ctx context.Context, sessionID string, req AddItemRequest) (order.OrderItem, *order.Draft, error) {
	item, err := m.menu.LoadMenuItem(ctx, req.MenuItemID)
	if err != nil {
		return order.OrderItem{}, nil, poserr.Gateway("session.AddItem", err)
	}

	r, err := m.request(ctx, sessionID, &addItem{
		item:       item,
		quantity:   req.Quantity,
		selections: req.Selections,
		notes:      req.Notes,
	})
	if err != nil {
		return order.OrderItem{}, nil, err
	}
	return r.line, r.draft, nil
}

func (m *Manager) RemoveItem(ctx context.Context, sessionID string, lineID uuid.UUID) (*order.Draft, error) {
	r, err := m.request(ctx, sessionID, &removeItem{lineID: lineID})
	if err != nil {
		return nil, err
	}
	return r.draft, nil
}

func (m *Manager) SetQuantity(ctx context.Context, sessionID string, lineID uuid.UUID, quantity int) (*order.Draft, error) {
	r, err := m.request(ctx, sessionID, &setQuantity{lineID: lineID, quantity: quantity})
	if err != nil {
		return nil, err
	}
	return r.draft, nil
}

func (m *Manager) SetDiscount(ctx context.Context, sessionID string, pct decimal.Decimal) (*order.Draft, error) {
	r, err := m.request(ctx, sessionID, &setDiscount{percent: pct})
	if err != nil {
		return nil, err
	}
	return r.draft, nil
}

func (m *Manager) Discard(ctx context.Context, sessionID string) error {
	_, err := m.request(ctx, sessionID, &discard{})
	return err
}

// Submit runs fn against the session draft. On success the draft is
// consumed; on failure it stays in the session unchanged.
func (m *Manager) Submit(ctx context.Context, sessionID string, fn SubmitFunc) (*order.Order, error) {
	r, err := m.requestWithin(ctx, sessionID, &submit{ctx: ctx, fn: fn}, m.opts.SubmitTimeout)
	if err != nil {
		return nil, err
	}
	return r.order, nil
}

func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pids)
}

// Stop stops every session actor and waits for them to finish.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	pids := make([]*actor.PID, 0, len(m.pids))
	for _, pid := range m.pids {
		pids = append(pids, pid)
	}
	m.mu.Unlock()

	for _, pid := range pids {
		if err := m.system.Root.StopFuture(pid).Wait(); err != nil {
			m.logger.Debug("session stop wait failed", "pid", pid.Id, "error", err)
		}
	}
	return nil
}

func (m *Manager) request(ctx context.Context, sessionID string, msg any) (*reply, error) {
	return m.requestWithin(ctx, sessionID, msg, m.opts.RequestTimeout)
}

func (m *Manager) requestWithin(ctx context.Context, sessionID string, msg any, timeout time.Duration) (*reply, error) {
	const op = "session.request"

	if sessionID == "" {
		return nil, poserr.Validation(op, "session id is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, poserr.Gateway(op, err)
	}

	pid, err := m.pid(sessionID)
	if err != nil {
		return nil, poserr.Gateway(op, err)
	}

	res, err := m.system.Root.RequestFuture(pid, msg, timeout).Result()
	if errors.Is(err, actor.ErrDeadLetter) {
		m.forget(sessionID, pid)
		return nil, poserr.NotFound(op, "draft for session", sessionID)
	}
	if err != nil {
		return nil, poserr.Gateway(op, err)
	}

	r, ok := res.(*reply)
	if !ok {
		return nil, poserr.Gateway(op, errors.New("unexpected session reply"))
	}
	if r.err != nil {
		return r, r.err
	}
	return r, nil
}

func (m *Manager) pid(sessionID string) (*actor.PID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if pid, ok := m.pids[sessionID]; ok {
		return pid, nil
	}

	props := actor.PropsFromProducer(func() actor.Actor {
		return &draftActor{
			id:       sessionID,
			rates:    m.opts.Rates,
			stations: m.opts.Stations,
			idle:     m.opts.IdleTimeout,
			onStop:   m.forget,
			logger:   m.logger,
		}
	})

	pid, err := m.system.Root.SpawnNamed(props, "session-"+sessionID)
	if err != nil {
		return nil, err
	}
	m.pids[sessionID] = pid
	return pid, nil
}

func (m *Manager) forget(sessionID string, pid *actor.PID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cur, ok := m.pids[sessionID]; ok && cur.Equal(pid) {
		delete(m.pids, sessionID)
	}
}
