package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/appetiteclub/appetite/pkg/enums/kitchenstatus"
	"github.com/appetiteclub/appetite/pkg/enums/tablestatus"
	"github.com/appetiteclub/appetite/services/pos/internal/billing"
	"github.com/appetiteclub/appetite/services/pos/internal/gateway"
	"github.com/appetiteclub/appetite/services/pos/internal/kitchen"
	"github.com/appetiteclub/appetite/services/pos/internal/menu"
	"github.com/appetiteclub/appetite/services/pos/internal/order"
	"github.com/appetiteclub/appetite/services/pos/internal/poserr"
	"github.com/appetiteclub/appetite/services/pos/internal/tables"
	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	menuItemsCollection = "menu_items"
	tablesCollection    = "tables"
	ordersCollection    = "orders"
	ticketsCollection   = "tickets"
	billsCollection     = "bills"
	countersCollection  = "counters"
)

var _ gateway.Store = (*Store)(nil)

// Store is the MongoDB gateway. Submit and payment writes run inside a
// multi-document transaction, which needs a replica set deployment.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	logger apt.Logger
	config *apt.Config
}

func NewStore(config *apt.Config, logger apt.Logger) *Store {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Store{
		logger: logger,
		config: config,
	}
}

func (s *Store) Start(ctx context.Context) error {
	mongoURL, _ := s.config.GetString("db.mongo.url")
	connString := mongoURL
	if connString == "" {
		connString = "mongodb://localhost:27017/?replicaSet=rs0"
	}

	dbName, _ := s.config.GetString("db.mongo.name")
	if dbName == "" {
		dbName = "appetite_pos"
	}

	clientOptions := options.Client().ApplyURI(connString).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("cannot connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("cannot ping MongoDB: %w", err)
	}

	s.client = client
	s.db = client.Database(dbName)

	if err := s.ensureIndexes(ctx); err != nil {
		return err
	}

	s.logger.Infof("Connected to MongoDB: %s, database: %s", connString, dbName)
	return nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	indexes := []struct {
		collection string
		model      mongo.IndexModel
	}{
		{ordersCollection, mongo.IndexModel{Keys: bson.D{{Key: "order_number", Value: 1}}, Options: options.Index().SetUnique(true)}},
		{ordersCollection, mongo.IndexModel{Keys: bson.D{{Key: "status", Value: 1}}}},
		{ordersCollection, mongo.IndexModel{Keys: bson.D{{Key: "created_at", Value: -1}}}},
		{ticketsCollection, mongo.IndexModel{Keys: bson.D{{Key: "order_id", Value: 1}, {Key: "station", Value: 1}}, Options: options.Index().SetUnique(true)}},
		{ticketsCollection, mongo.IndexModel{Keys: bson.D{{Key: "status", Value: 1}}}},
		{billsCollection, mongo.IndexModel{Keys: bson.D{{Key: "order_id", Value: 1}}, Options: options.Index().SetUnique(true)}},
		{billsCollection, mongo.IndexModel{Keys: bson.D{{Key: "paid_at", Value: 1}}}},
	}

	for _, idx := range indexes {
		if _, err := s.db.Collection(idx.collection).Indexes().CreateOne(ctx, idx.model); err != nil {
			return fmt.Errorf("cannot create %s index: %w", idx.collection, err)
		}
	}
	return nil
}

func (s *Store) Stop(ctx context.Context) error {
	if s.client != nil {
		if err := s.client.Disconnect(ctx); err != nil {
			return fmt.Errorf("cannot disconnect from MongoDB: %w", err)
		}
		s.logger.Info("Disconnected from MongoDB")
	}
	return nil
}

func (s *Store) collection(name string) *mongo.Collection {
	return s.db.Collection(name)
}

func (s *Store) LoadMenuItem(ctx context.Context, id uuid.UUID) (menu.MenuItem, error) {
	var doc menuItemDoc
	if err := s.findOne(ctx, menuItemsCollection, id, &doc); err != nil {
		return menu.MenuItem{}, classify("mongo.LoadMenuItem", "menu item", id, err)
	}
	return doc.toDomain(), nil
}

func (s *Store) LoadOrder(ctx context.Context, id uuid.UUID) (order.Order, error) {
	var doc orderDoc
	if err := s.findOne(ctx, ordersCollection, id, &doc); err != nil {
		return order.Order{}, classify("mongo.LoadOrder", "order", id, err)
	}
	return doc.toDomain(), nil
}

func (s *Store) LoadTable(ctx context.Context, id uuid.UUID) (tables.Table, error) {
	var doc tableDoc
	if err := s.findOne(ctx, tablesCollection, id, &doc); err != nil {
		return tables.Table{}, classify("mongo.LoadTable", "table", id, err)
	}
	return doc.toDomain(), nil
}

func (s *Store) findOne(ctx context.Context, collection string, id uuid.UUID, out any) error {
	return s.collection(collection).FindOne(ctx, bson.M{"_id": id.String()}).Decode(out)
}

func (s *Store) ListOrders(ctx context.Context, filter order.ListFilter) ([]order.Order, error) {
	const op = "mongo.ListOrders"

	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.OrderType != "" {
		query["order_type"] = filter.OrderType
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "order_number", Value: -1}}).
		SetLimit(int64(filter.EffectiveLimit()))

	cursor, err := s.collection(ordersCollection).Find(ctx, query, opts)
	if err != nil {
		return nil, poserr.Gateway(op, fmt.Errorf("cannot find orders: %w", err))
	}
	defer cursor.Close(ctx)

	var docs []orderDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, poserr.Gateway(op, fmt.Errorf("cannot decode orders: %w", err))
	}

	orders := make([]order.Order, 0, len(docs))
	for _, d := range docs {
		orders = append(orders, d.toDomain())
	}
	return orders, nil
}

func (s *Store) ListActiveTickets(ctx context.Context) ([]kitchen.Ticket, error) {
	const op = "mongo.ListActiveTickets"

	filter := bson.M{"status": bson.M{"$nin": bson.A{
		kitchenstatus.Statuses.Bumped.Code(),
		kitchenstatus.Statuses.Cancelled.Code(),
	}}}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := s.collection(ticketsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, poserr.Gateway(op, fmt.Errorf("cannot find tickets: %w", err))
	}
	defer cursor.Close(ctx)

	var docs []ticketDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, poserr.Gateway(op, fmt.Errorf("cannot decode tickets: %w", err))
	}

	tickets := make([]kitchen.Ticket, 0, len(docs))
	for _, d := range docs {
		tickets = append(tickets, d.toDomain())
	}
	return tickets, nil
}

func (s *Store) ListBills(ctx context.Context, from, to time.Time) ([]billing.Bill, error) {
	const op = "mongo.ListBills"

	filter := bson.M{"paid_at": bson.M{"$gte": from, "$lt": to}}
	opts := options.Find().SetSort(bson.D{{Key: "paid_at", Value: 1}})

	cursor, err := s.collection(billsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, poserr.Gateway(op, fmt.Errorf("cannot find bills: %w", err))
	}
	defer cursor.Close(ctx)

	var docs []billDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, poserr.Gateway(op, fmt.Errorf("cannot decode bills: %w", err))
	}

	bills := make([]billing.Bill, 0, len(docs))
	for _, d := range docs {
		bills = append(bills, d.toDomain())
	}
	return bills, nil
}

func (s *Store) SaveMenuItem(ctx context.Context, item menu.MenuItem) error {
	doc := menuItemToDoc(item)
	return s.replace(ctx, "mongo.SaveMenuItem", menuItemsCollection, doc.ID, doc)
}

func (s *Store) SaveTable(ctx context.Context, t tables.Table) error {
	doc := tableToDoc(t)
	return s.replace(ctx, "mongo.SaveTable", tablesCollection, doc.ID, doc)
}

func (s *Store) replace(ctx context.Context, op, collection, id string, doc any) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := s.collection(collection).ReplaceOne(ctx, bson.M{"_id": id}, doc, opts); err != nil {
		return poserr.Gateway(op, fmt.Errorf("cannot save %s: %w", collection, err))
	}
	return nil
}

func (s *Store) Reset(ctx context.Context) error {
	const op = "mongo.Reset"

	for _, name := range []string{ordersCollection, ticketsCollection, billsCollection} {
		if _, err := s.collection(name).DeleteMany(ctx, bson.M{}); err != nil {
			return poserr.Gateway(op, fmt.Errorf("cannot clear %s: %w", name, err))
		}
	}

	update := bson.M{"$set": bson.M{
		"status":           tablestatus.Statuses.Available.Code(),
		"current_order_id": nil,
		"updated_at":       time.Now(),
	}}
	if _, err := s.collection(tablesCollection).UpdateMany(ctx, bson.M{}, update); err != nil {
		return poserr.Gateway(op, fmt.Errorf("cannot free tables: %w", err))
	}
	return nil
}

type counterDoc struct {
	ID    string `bson:"_id"`
	Value int64  `bson:"value"`
}

// Next advances a named counter atomically, creating it on first use. Order
// and bill numbers drawn here survive restarts and are shared by every
// instance on the same database.
func (s *Store) Next(ctx context.Context, name string) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc counterDoc
	err := s.collection(countersCollection).
		FindOneAndUpdate(ctx, bson.M{"_id": name}, bson.M{"$inc": bson.M{"value": int64(1)}}, opts).
		Decode(&doc)
	if err != nil {
		return 0, poserr.Gateway("mongo.Next", fmt.Errorf("cannot advance counter %s: %w", name, err))
	}
	return doc.Value, nil
}

func classify(op, what string, id uuid.UUID, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return poserr.NotFound(op, what, id)
	}
	return poserr.Gateway(op, fmt.Errorf("cannot find %s: %w", what, err))
}
