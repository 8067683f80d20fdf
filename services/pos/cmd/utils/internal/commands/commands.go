package commands

import (
	"context"
	"fmt"

	"github.com/appetiteclub/appetite/services/pos/internal/app"
	"github.com/appetiteclub/appetite/services/pos/internal/gateway"
	"github.com/appetiteclub/appetite/services/pos/internal/seeding"
	"github.com/appetiteclub/apt"
)

// SeedMenu saves the demo menu and floor plan into the configured store.
func SeedMenu(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	return withStore(ctx, config, logger, func(store gateway.Store) error {
		return seeding.Apply(ctx, store, logger)
	})
}

// ClearDemo drops transactional data. Menu items and tables survive.
func ClearDemo(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	return withStore(ctx, config, logger, func(store gateway.Store) error {
		return seeding.Clear(ctx, store, logger)
	})
}

func withStore(ctx context.Context, config *apt.Config, logger apt.Logger, fn func(gateway.Store) error) error {
	store, err := app.OpenStore(config, logger)
	if err != nil {
		return err
	}
	if err := store.Start(ctx); err != nil {
		return fmt.Errorf("start store: %w", err)
	}
	defer func() {
		if err := store.Stop(ctx); err != nil {
			logger.Info("cannot stop store", "error", err)
		}
	}()

	logger.Info("Connected to store", "driver", config.GetStringOrDef("db.driver", app.DriverMongo))
	return fn(store)
}
