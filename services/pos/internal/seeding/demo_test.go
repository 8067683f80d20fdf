package seeding

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/appetiteclub/appetite/pkg/enums/station"
	"github.com/appetiteclub/appetite/pkg/enums/tablestatus"
	"github.com/appetiteclub/appetite/services/pos/internal/gateway"
	"github.com/appetiteclub/appetite/services/pos/internal/tables"
	"github.com/shopspring/decimal"
)

type failingSeeder struct {
	*gateway.Memory
}

func (f failingSeeder) SaveTable(ctx context.Context, t tables.Table) error {
	return errors.New("disk full")
}

func TestIDIsStable(t *testing.T) {
	if ID("menu", "Paneer Tikka") != ID("menu", "Paneer Tikka") {
		t.Fatal("ID() not stable")
	}
	if ID("menu", "T1") == ID("table", "T1") {
		t.Fatal("ID() ignores kind")
	}
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	store := gateway.NewMemory()

	if err := Apply(ctx, store, nil); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if err := Apply(ctx, store, nil); err != nil {
		t.Fatalf("second Apply() error = %v", err)
	}

	item, err := store.LoadMenuItem(ctx, ID("menu", "Paneer Tikka"))
	if err != nil {
		t.Fatalf("LoadMenuItem() error = %v", err)
	}
	if item.Category != "Starters" || !item.Prices.DineIn.Equal(decimal.NewFromInt(280)) {
		t.Errorf("item = %+v", item)
	}

	table, err := store.LoadTable(ctx, ID("table", "T1"))
	if err != nil {
		t.Fatalf("LoadTable() error = %v", err)
	}
	if table.Status != tablestatus.Statuses.Available.Code() {
		t.Errorf("table status = %s", table.Status)
	}
}

func TestApplyStopsOnError(t *testing.T) {
	err := Apply(context.Background(), failingSeeder{gateway.NewMemory()}, nil)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestMenuItemsCoverEveryStation(t *testing.T) {
	stations := map[string]bool{}
	for _, item := range MenuItems(time.Now()) {
		stations[station.ForCategory(item.Category).Code()] = true
	}
	for _, want := range []string{"HOT", "COLD", "BAR", "DESSERT"} {
		if !stations[want] {
			t.Errorf("no demo item for station %s", want)
		}
	}
}
