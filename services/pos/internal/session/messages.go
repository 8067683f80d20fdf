package session

import (
	"context"

	"github.com/appetiteclub/appetite/services/pos/internal/menu"
	"github.com/appetiteclub/appetite/services/pos/internal/order"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SubmitFunc persists the draft and returns the order it became. It runs
// inside the session actor so no other mutation can interleave with it.
type SubmitFunc func(ctx context.Context, d *order.Draft) (*order.Order, error)

type startDraft struct {
	opts order.DraftOptions
}

type addItem struct {
	item       menu.MenuItem
	quantity   int
	selections []menu.Selection
	notes      string
}

type removeItem struct {
	lineID uuid.UUID
}

type setQuantity struct {
	lineID   uuid.UUID
	quantity int
}

type setDiscount struct {
	percent decimal.Decimal
}

type snapshot struct{}

type discard struct{}

type submit struct {
	ctx context.Context
	fn  SubmitFunc
}

type reply struct {
	draft *order.Draft
	line  order.OrderItem
	order *order.Order
	err   error
}
