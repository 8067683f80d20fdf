// Package seeding loads the demo menu and floor plan through a gateway
// seeder. Ids are derived from names so applying twice overwrites instead
// of duplicating.
package seeding

import (
	"context"
	"fmt"
	"time"

	"github.com/appetiteclub/appetite/services/pos/internal/gateway"
	"github.com/appetiteclub/appetite/services/pos/internal/menu"
	"github.com/appetiteclub/appetite/services/pos/internal/tables"
	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var namespace = uuid.MustParse("6f1c7a52-3d0e-4b5a-9c1e-5a0c2b7d9e41")

// ID returns the stable id of a demo record.
func ID(kind, name string) uuid.UUID {
	return uuid.NewSHA1(namespace, []byte(kind+":"+name))
}

type demoItem struct {
	name     string
	category string
	dineIn   int64
	takeaway int64
	delivery int64
	food     menu.FoodType
}

var demoMenu = []demoItem{
	{"Paneer Tikka", "Starters", 280, 280, 300, menu.Veg},
	{"Chicken 65", "Starters", 320, 320, 340, menu.NonVeg},
	{"Butter Chicken", "Main Course", 420, 420, 450, menu.NonVeg},
	{"Dal Makhani", "Main Course", 300, 300, 320, menu.Veg},
	{"Garlic Naan", "Breads", 60, 60, 70, menu.Veg},
	{"Green Salad", "Salads", 150, 150, 160, menu.Veg},
	{"Mango Lassi", "Beverages", 80, 80, 90, menu.Veg},
	{"Masala Chai", "Beverages", 40, 40, 50, menu.Veg},
	{"Gulab Jamun", "Desserts", 120, 120, 130, menu.Veg},
}

var demoTables = []struct {
	name     string
	capacity int
}{
	{"T1", 4},
	{"T2", 4},
	{"T3", 2},
	{"T4", 6},
	{"Patio-1", 4},
}

// MenuItems returns the demo menu stamped with at.
func MenuItems(at time.Time) []menu.MenuItem {
	items := make([]menu.MenuItem, 0, len(demoMenu))
	for _, d := range demoMenu {
		items = append(items, menu.MenuItem{
			ID:       ID("menu", d.name),
			Name:     d.name,
			Category: d.category,
			Prices: menu.Prices{
				DineIn:   decimal.NewFromInt(d.dineIn),
				Takeaway: decimal.NewFromInt(d.takeaway),
				Delivery: decimal.NewFromInt(d.delivery),
			},
			GSTPercent:  decimal.NewFromInt(5),
			FoodType:    d.food,
			IsAvailable: true,
			CreatedAt:   at,
			UpdatedAt:   at,
		})
	}
	return items
}

// Tables returns the demo floor plan, every table available.
func Tables(at time.Time) []tables.Table {
	out := make([]tables.Table, 0, len(demoTables))
	for _, d := range demoTables {
		t := tables.NewTable(d.name, d.capacity)
		t.ID = ID("table", d.name)
		t.CreatedAt = at
		t.UpdatedAt = at
		out = append(out, *t)
	}
	return out
}

// Apply writes the demo menu and tables.
func Apply(ctx context.Context, seeder gateway.Seeder, logger apt.Logger) error {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	now := time.Now().UTC()

	for _, item := range MenuItems(now) {
		if err := seeder.SaveMenuItem(ctx, item); err != nil {
			return fmt.Errorf("seed menu item %s: %w", item.Name, err)
		}
	}
	for _, t := range Tables(now) {
		if err := seeder.SaveTable(ctx, t); err != nil {
			return fmt.Errorf("seed table %s: %w", t.Name, err)
		}
	}

	logger.Info("Demo data applied", "menu_items", len(demoMenu), "tables", len(demoTables))
	return nil
}

// Clear removes orders, tickets and bills and frees every table. Menu and
// tables are kept.
func Clear(ctx context.Context, seeder gateway.Seeder, logger apt.Logger) error {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	if err := seeder.Reset(ctx); err != nil {
		return fmt.Errorf("clear demo data: %w", err)
	}
	logger.Info("Demo data cleared")
	return nil
}
