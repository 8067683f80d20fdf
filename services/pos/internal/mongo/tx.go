package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/appetiteclub/appetite/pkg/enums/orderstatus"
	"github.com/appetiteclub/appetite/services/pos/internal/billing"
	"github.com/appetiteclub/appetite/services/pos/internal/gateway"
	"github.com/appetiteclub/appetite/services/pos/internal/kitchen"
	"github.com/appetiteclub/appetite/services/pos/internal/order"
	"github.com/appetiteclub/appetite/services/pos/internal/poserr"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type tx struct {
	store *Store
	sess  mongo.Session
	sctx  mongo.SessionContext
}

func (s *Store) BeginTx(ctx context.Context) (gateway.Tx, error) {
	const op = "mongo.BeginTx"

	sess, err := s.client.StartSession()
	if err != nil {
		return nil, poserr.Gateway(op, fmt.Errorf("cannot start session: %w", err))
	}
	if err := sess.StartTransaction(); err != nil {
		sess.EndSession(ctx)
		return nil, poserr.Gateway(op, fmt.Errorf("cannot start transaction: %w", err))
	}

	return &tx{
		store: s,
		sess:  sess,
		sctx:  mongo.NewSessionContext(ctx, sess),
	}, nil
}

func (t *tx) col(name string) *mongo.Collection {
	return t.store.collection(name)
}

func (t *tx) InsertOrder(ctx context.Context, o order.Order) error {
	if _, err := t.col(ordersCollection).InsertOne(t.sctx, orderToDoc(o)); err != nil {
		return poserr.Gateway("mongo.InsertOrder", fmt.Errorf("cannot insert order: %w", err))
	}
	return nil
}

func (t *tx) InsertOrderItems(ctx context.Context, orderID uuid.UUID, items []order.OrderItem) error {
	const op = "mongo.InsertOrderItems"

	update := bson.M{"$push": bson.M{"items": bson.M{"$each": orderItemsToDocs(items)}}}
	res, err := t.col(ordersCollection).UpdateOne(t.sctx, bson.M{"_id": orderID.String()}, update)
	if err != nil {
		return poserr.Gateway(op, fmt.Errorf("cannot insert order items: %w", err))
	}
	if res.MatchedCount == 0 {
		return poserr.NotFound(op, "order", orderID)
	}
	return nil
}

func (t *tx) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status string, at time.Time) error {
	const op = "mongo.UpdateOrderStatus"

	set := bson.M{"status": status, "updated_at": at}
	if status == orderstatus.Statuses.Completed.Code() {
		set["completed_at"] = at
	}

	res, err := t.col(ordersCollection).UpdateOne(t.sctx, bson.M{"_id": id.String()}, bson.M{"$set": set})
	if err != nil {
		return poserr.Gateway(op, fmt.Errorf("cannot update order status: %w", err))
	}
	if res.MatchedCount == 0 {
		return poserr.NotFound(op, "order", id)
	}
	return nil
}

func (t *tx) UpsertTicket(ctx context.Context, ticket kitchen.Ticket) error {
	doc := ticketToDoc(ticket)
	opts := options.Replace().SetUpsert(true)
	if _, err := t.col(ticketsCollection).ReplaceOne(t.sctx, bson.M{"_id": doc.ID}, doc, opts); err != nil {
		return poserr.Gateway("mongo.UpsertTicket", fmt.Errorf("cannot upsert ticket: %w", err))
	}
	return nil
}

// UpdateTableStatus seats an order only on a table that is free or already
// held by that same order. Clearing the reference is unconditional.
func (t *tx) UpdateTableStatus(ctx context.Context, id uuid.UUID, status string, currentOrderID *uuid.UUID) error {
	const op = "mongo.UpdateTableStatus"

	filter := bson.M{"_id": id.String()}
	if currentOrderID != nil {
		filter["$or"] = bson.A{
			bson.M{"current_order_id": nil},
			bson.M{"current_order_id": currentOrderID.String()},
		}
	}

	set := bson.M{
		"status":           status,
		"current_order_id": idRef(currentOrderID),
		"updated_at":       time.Now(),
	}
	res, err := t.col(tablesCollection).UpdateOne(t.sctx, filter, bson.M{"$set": set})
	if err != nil {
		return poserr.Gateway(op, fmt.Errorf("cannot update table status: %w", err))
	}
	if res.MatchedCount > 0 {
		return nil
	}

	n, err := t.col(tablesCollection).CountDocuments(t.sctx, bson.M{"_id": id.String()})
	if err != nil {
		return poserr.Gateway(op, fmt.Errorf("cannot check table: %w", err))
	}
	if n == 0 {
		return poserr.NotFound(op, "table", id)
	}
	return poserr.State(op, "table %s is held by another order", id)
}

func (t *tx) InsertBill(ctx context.Context, b billing.Bill) error {
	if _, err := t.col(billsCollection).InsertOne(t.sctx, billToDoc(b)); err != nil {
		return poserr.Gateway("mongo.InsertBill", fmt.Errorf("cannot insert bill: %w", err))
	}
	return nil
}

func (t *tx) Commit(ctx context.Context) error {
	defer t.sess.EndSession(ctx)
	if err := t.sess.CommitTransaction(ctx); err != nil {
		return poserr.Gateway("mongo.Commit", fmt.Errorf("cannot commit transaction: %w", err))
	}
	return nil
}

func (t *tx) Rollback(ctx context.Context) error {
	defer t.sess.EndSession(ctx)
	if err := t.sess.AbortTransaction(ctx); err != nil {
		return poserr.Gateway("mongo.Rollback", fmt.Errorf("cannot abort transaction: %w", err))
	}
	return nil
}
