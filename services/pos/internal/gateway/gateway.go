// Package gateway defines the persistence contract of the POS core and an
// in-memory implementation of it.
//
// Every multi-row write (submit, ticket transition, payment) goes through a
// Tx so either all rows land or none do. Adapters report failures as
// poserr Gateway errors, or NotFound for missing records.
package gateway

import (
	"context"
	"time"

	"github.com/appetiteclub/appetite/services/pos/internal/billing"
	"github.com/appetiteclub/appetite/services/pos/internal/kitchen"
	"github.com/appetiteclub/appetite/services/pos/internal/menu"
	"github.com/appetiteclub/appetite/services/pos/internal/order"
	"github.com/appetiteclub/appetite/services/pos/internal/tables"
	"github.com/google/uuid"
)

type Gateway interface {
	LoadMenuItem(ctx context.Context, id uuid.UUID) (menu.MenuItem, error)
	LoadOrder(ctx context.Context, id uuid.UUID) (order.Order, error)
	LoadTable(ctx context.Context, id uuid.UUID) (tables.Table, error)
	// ListOrders returns orders matching filter, newest first.
	ListOrders(ctx context.Context, filter order.ListFilter) ([]order.Order, error)
	ListActiveTickets(ctx context.Context) ([]kitchen.Ticket, error)
	// ListBills returns bills paid in [from, to).
	ListBills(ctx context.Context, from, to time.Time) ([]billing.Bill, error)
	BeginTx(ctx context.Context) (Tx, error)
}

type Tx interface {
	InsertOrder(ctx context.Context, o order.Order) error
	InsertOrderItems(ctx context.Context, orderID uuid.UUID, items []order.OrderItem) error
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status string, at time.Time) error
	UpsertTicket(ctx context.Context, t kitchen.Ticket) error
	UpdateTableStatus(ctx context.Context, id uuid.UUID, status string, currentOrderID *uuid.UUID) error
	InsertBill(ctx context.Context, b billing.Bill) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Seeder writes reference data outside the order flow. Used by the
// operator CLI and demo seeding.
type Seeder interface {
	SaveMenuItem(ctx context.Context, item menu.MenuItem) error
	SaveTable(ctx context.Context, t tables.Table) error
	// Reset removes orders, tickets and bills and frees every table.
	Reset(ctx context.Context) error
}

// Store is a gateway backed by a real storage engine.
type Store interface {
	Gateway
	Seeder
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Run executes fn inside a transaction, committing when fn succeeds and
// rolling back otherwise.
func Run(ctx context.Context, gw Gateway, fn func(tx Tx) error) error {
	tx, err := gw.BeginTx(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}
