package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/appetiteclub/appetite/pkg/enums/orderstatus"
	"github.com/appetiteclub/appetite/services/pos/internal/billing"
	"github.com/appetiteclub/appetite/services/pos/internal/kitchen"
	"github.com/appetiteclub/appetite/services/pos/internal/order"
	"github.com/appetiteclub/appetite/services/pos/internal/poserr"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type sqlTx struct {
	db *gorm.DB
}

func (t *sqlTx) InsertOrder(ctx context.Context, o order.Order) error {
	rec := orderToRecord(o)
	if err := t.db.WithContext(ctx).Omit("Items").Create(&rec).Error; err != nil {
		return poserr.Gateway("sqlstore.InsertOrder", fmt.Errorf("cannot insert order: %w", err))
	}
	return nil
}

func (t *sqlTx) InsertOrderItems(ctx context.Context, orderID uuid.UUID, items []order.OrderItem) error {
	const op = "sqlstore.InsertOrderItems"
	if len(items) == 0 {
		return nil
	}

	var existing int64
	if err := t.db.WithContext(ctx).Model(&orderRecord{}).Where("id = ?", orderID.String()).Count(&existing).Error; err != nil {
		return poserr.Gateway(op, fmt.Errorf("cannot check order: %w", err))
	}
	if existing == 0 {
		return poserr.NotFound(op, "order", orderID)
	}

	var offset int64
	if err := t.db.WithContext(ctx).Model(&orderItemRecord{}).Where("order_id = ?", orderID.String()).Count(&offset).Error; err != nil {
		return poserr.Gateway(op, fmt.Errorf("cannot count order items: %w", err))
	}

	recs := orderItemsToRecords(orderID, int(offset), items)
	if err := t.db.WithContext(ctx).Create(&recs).Error; err != nil {
		return poserr.Gateway(op, fmt.Errorf("cannot insert order items: %w", err))
	}
	return nil
}

func (t *sqlTx) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status string, at time.Time) error {
	const op = "sqlstore.UpdateOrderStatus"

	updates := map[string]any{"status": status, "updated_at": at}
	if status == orderstatus.Statuses.Completed.Code() {
		updates["completed_at"] = at
	}

	res := t.db.WithContext(ctx).Model(&orderRecord{}).Where("id = ?", id.String()).Updates(updates)
	if res.Error != nil {
		return poserr.Gateway(op, fmt.Errorf("cannot update order status: %w", res.Error))
	}
	if res.RowsAffected == 0 {
		return poserr.NotFound(op, "order", id)
	}
	return nil
}

func (t *sqlTx) UpsertTicket(ctx context.Context, ticket kitchen.Ticket) error {
	rec := ticketToRecord(ticket)
	if err := t.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&rec).Error; err != nil {
		return poserr.Gateway("sqlstore.UpsertTicket", fmt.Errorf("cannot upsert ticket: %w", err))
	}
	return nil
}

// UpdateTableStatus seats an order only on a table that is free or already
// held by that same order. Clearing the reference is unconditional.
func (t *sqlTx) UpdateTableStatus(ctx context.Context, id uuid.UUID, status string, currentOrderID *uuid.UUID) error {
	const op = "sqlstore.UpdateTableStatus"

	q := t.db.WithContext(ctx).Model(&tableRecord{}).Where("id = ?", id.String())
	if currentOrderID != nil {
		q = q.Where("current_order_id IS NULL OR current_order_id = ?", currentOrderID.String())
	}
	res := q.Updates(map[string]any{
		"status":           status,
		"current_order_id": ref(currentOrderID),
		"updated_at":       time.Now(),
	})
	if res.Error != nil {
		return poserr.Gateway(op, fmt.Errorf("cannot update table status: %w", res.Error))
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var n int64
	if err := t.db.WithContext(ctx).Model(&tableRecord{}).Where("id = ?", id.String()).Count(&n).Error; err != nil {
		return poserr.Gateway(op, fmt.Errorf("cannot check table: %w", err))
	}
	if n == 0 {
		return poserr.NotFound(op, "table", id)
	}
	return poserr.State(op, "table %s is held by another order", id)
}

func (t *sqlTx) InsertBill(ctx context.Context, b billing.Bill) error {
	rec := billToRecord(b)
	if err := t.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return poserr.Gateway("sqlstore.InsertBill", fmt.Errorf("cannot insert bill: %w", err))
	}
	return nil
}

func (t *sqlTx) Commit(ctx context.Context) error {
	if err := t.db.Commit().Error; err != nil {
		return poserr.Gateway("sqlstore.Commit", fmt.Errorf("cannot commit transaction: %w", err))
	}
	return nil
}

func (t *sqlTx) Rollback(ctx context.Context) error {
	if err := t.db.Rollback().Error; err != nil {
		return poserr.Gateway("sqlstore.Rollback", fmt.Errorf("cannot roll back transaction: %w", err))
	}
	return nil
}
