// Package sqlstore is the MySQL gateway built on gorm.
package sqlstore

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
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const defaultDSN = "root:root@tcp(localhost:3306)/appetite_pos?charset=utf8mb4&parseTime=True&loc=UTC"

var _ gateway.Store = (*Store)(nil)

type Store struct {
	db     *gorm.DB
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

// NewStoreWithDB wraps an already opened connection. Start then only
// migrates the schema.
func NewStoreWithDB(db *gorm.DB, logger apt.Logger) *Store {
	s := NewStore(nil, logger)
	s.db = db
	return s
}

func (s *Store) Start(ctx context.Context) error {
	if s.db == nil {
		dsn := defaultDSN
		if s.config != nil {
			dsn = s.config.GetStringOrDef("db.mysql.dsn", defaultDSN)
		}

		db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
			Logger: logger.Default.LogMode(s.gormLogLevel()),
		})
		if err != nil {
			return fmt.Errorf("cannot connect to MySQL: %w", err)
		}

		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("cannot get database instance: %w", err)
		}
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)

		if err := sqlDB.PingContext(ctx); err != nil {
			return fmt.Errorf("cannot ping MySQL: %w", err)
		}
		s.db = db
	}

	err := s.db.WithContext(ctx).AutoMigrate(
		&menuItemRecord{},
		&tableRecord{},
		&orderRecord{},
		&orderItemRecord{},
		&ticketRecord{},
		&billRecord{},
		&counterRecord{},
	)
	if err != nil {
		return fmt.Errorf("cannot migrate schema: %w", err)
	}

	s.logger.Info("Connected to MySQL")
	return nil
}

func (s *Store) gormLogLevel() logger.LogLevel {
	if s.config == nil {
		return logger.Error
	}
	switch s.config.GetStringOrDef("log.level", "info") {
	case "debug":
		return logger.Info
	case "info":
		return logger.Warn
	default:
		return logger.Error
	}
}

func (s *Store) Stop(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("cannot get database instance: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("cannot close MySQL connection: %w", err)
	}
	s.logger.Info("Disconnected from MySQL")
	return nil
}

func (s *Store) LoadMenuItem(ctx context.Context, id uuid.UUID) (menu.MenuItem, error) {
	var rec menuItemRecord
	if err := s.db.WithContext(ctx).First(&rec, "id = ?", id.String()).Error; err != nil {
		return menu.MenuItem{}, classify("sqlstore.LoadMenuItem", "menu item", id, err)
	}
	return rec.toDomain(), nil
}

func (s *Store) LoadOrder(ctx context.Context, id uuid.UUID) (order.Order, error) {
	var rec orderRecord
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		First(&rec, "id = ?", id.String()).Error
	if err != nil {
		return order.Order{}, classify("sqlstore.LoadOrder", "order", id, err)
	}
	return rec.toDomain(), nil
}

func (s *Store) LoadTable(ctx context.Context, id uuid.UUID) (tables.Table, error) {
	var rec tableRecord
	if err := s.db.WithContext(ctx).First(&rec, "id = ?", id.String()).Error; err != nil {
		return tables.Table{}, classify("sqlstore.LoadTable", "table", id, err)
	}
	return rec.toDomain(), nil
}

func (s *Store) ListOrders(ctx context.Context, filter order.ListFilter) ([]order.Order, error) {
	q := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position") })
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.OrderType != "" {
		q = q.Where("order_type = ?", filter.OrderType)
	}

	var recs []orderRecord
	err := q.Order("created_at DESC, order_number DESC").Limit(filter.EffectiveLimit()).Find(&recs).Error
	if err != nil {
		return nil, poserr.Gateway("sqlstore.ListOrders", fmt.Errorf("cannot find orders: %w", err))
	}

	orders := make([]order.Order, 0, len(recs))
	for _, r := range recs {
		orders = append(orders, r.toDomain())
	}
	return orders, nil
}

func (s *Store) ListActiveTickets(ctx context.Context) ([]kitchen.Ticket, error) {
	var recs []ticketRecord
	err := s.db.WithContext(ctx).
		Where("status NOT IN ?", []string{kitchenstatus.Statuses.Bumped.Code(), kitchenstatus.Statuses.Cancelled.Code()}).
		Order("created_at, id").
		Find(&recs).Error
	if err != nil {
		return nil, poserr.Gateway("sqlstore.ListActiveTickets", fmt.Errorf("cannot find tickets: %w", err))
	}

	tickets := make([]kitchen.Ticket, 0, len(recs))
	for _, r := range recs {
		tickets = append(tickets, r.toDomain())
	}
	return tickets, nil
}

func (s *Store) ListBills(ctx context.Context, from, to time.Time) ([]billing.Bill, error) {
	var recs []billRecord
	err := s.db.WithContext(ctx).
		Where("paid_at >= ? AND paid_at < ?", from, to).
		Order("paid_at").
		Find(&recs).Error
	if err != nil {
		return nil, poserr.Gateway("sqlstore.ListBills", fmt.Errorf("cannot find bills: %w", err))
	}

	bills := make([]billing.Bill, 0, len(recs))
	for _, r := range recs {
		bills = append(bills, r.toDomain())
	}
	return bills, nil
}

func (s *Store) SaveMenuItem(ctx context.Context, item menu.MenuItem) error {
	rec := menuItemToRecord(item)
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&rec).Error; err != nil {
		return poserr.Gateway("sqlstore.SaveMenuItem", fmt.Errorf("cannot save menu item: %w", err))
	}
	return nil
}

func (s *Store) SaveTable(ctx context.Context, t tables.Table) error {
	rec := tableToRecord(t)
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&rec).Error; err != nil {
		return poserr.Gateway("sqlstore.SaveTable", fmt.Errorf("cannot save table: %w", err))
	}
	return nil
}

func (s *Store) Reset(ctx context.Context) error {
	const op = "sqlstore.Reset"

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		for _, model := range []any{&orderItemRecord{}, &orderRecord{}, &ticketRecord{}, &billRecord{}} {
			if err := all.Delete(model).Error; err != nil {
				return poserr.Gateway(op, fmt.Errorf("cannot clear demo data: %w", err))
			}
		}
		err := all.Model(&tableRecord{}).Updates(map[string]any{
			"status":           tablestatus.Statuses.Available.Code(),
			"current_order_id": nil,
		}).Error
		if err != nil {
			return poserr.Gateway(op, fmt.Errorf("cannot free tables: %w", err))
		}
		return nil
	})
}

func (s *Store) BeginTx(ctx context.Context) (gateway.Tx, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, poserr.Gateway("sqlstore.BeginTx", fmt.Errorf("cannot begin transaction: %w", tx.Error))
	}
	return &sqlTx{db: tx}, nil
}

// Next advances a named counter inside its own transaction. The upsert takes
// the row lock, so concurrent callers get distinct values.
func (s *Store) Next(ctx context.Context, name string) (int64, error) {
	const op = "sqlstore.Next"

	var rec counterRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		upsert := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.Assignments(map[string]any{"value": gorm.Expr("value + 1")}),
		})
		if err := upsert.Create(&counterRecord{Name: name, Value: 1}).Error; err != nil {
			return err
		}
		return tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&rec, "name = ?", name).Error
	})
	if err != nil {
		return 0, poserr.Gateway(op, fmt.Errorf("cannot advance counter %s: %w", name, err))
	}
	return rec.Value, nil
}

func classify(op, what string, id uuid.UUID, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return poserr.NotFound(op, what, id)
	}
	return poserr.Gateway(op, fmt.Errorf("cannot find %s: %w", what, err))
}
