// Package menucache keeps menu items in Redis in front of a gateway store.
// Redis is an accelerator only: any Redis failure falls through to the store.
package menucache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/appetiteclub/appetite/services/pos/internal/gateway"
	"github.com/appetiteclub/appetite/services/pos/internal/menu"
	"github.com/appetiteclub/apt"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const DefaultTTL = 30 * time.Minute

type Cache struct {
	gateway.Store
	client *redis.Client
	ttl    time.Duration
	logger apt.Logger
}

func New(store gateway.Store, client *redis.Client, ttl time.Duration, logger apt.Logger) *Cache {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		Store:  store,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func key(id uuid.UUID) string {
	return fmt.Sprintf("pos:menu:%s", id)
}

func (c *Cache) LoadMenuItem(ctx context.Context, id uuid.UUID) (menu.MenuItem, error) {
	var item menu.MenuItem
	err := c.getJSON(ctx, key(id), &item)
	if err == nil {
		return item, nil
	}
	if err != redis.Nil {
		c.logger.Debug("menu cache read failed", "menu_item_id", id, "error", err)
	}

	item, err = c.Store.LoadMenuItem(ctx, id)
	if err != nil {
		return menu.MenuItem{}, err
	}

	if err := c.setJSON(ctx, key(id), item); err != nil {
		c.logger.Debug("menu cache write failed", "menu_item_id", id, "error", err)
	}
	return item, nil
}

// SaveMenuItem writes through to the store and drops the cached copy so
// the next read sees the new price or availability.
func (c *Cache) SaveMenuItem(ctx context.Context, item menu.MenuItem) error {
	if err := c.Store.SaveMenuItem(ctx, item); err != nil {
		return err
	}
	c.Invalidate(ctx, item.ID)
	return nil
}

func (c *Cache) Invalidate(ctx context.Context, id uuid.UUID) {
	if err := c.client.Del(ctx, key(id)).Err(); err != nil {
		c.logger.Info("cannot invalidate cached menu item", "menu_item_id", id, "error", err)
	}
}

func (c *Cache) setJSON(ctx context.Context, k string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, k, data, c.ttl).Err()
}

func (c *Cache) getJSON(ctx context.Context, k string, dest any) error {
	data, err := c.client.Get(ctx, k).Result()
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), dest)
}
