package commands

import (
	"context"
	"testing"

	"github.com/appetiteclub/apt"
)

func TestCommandsWithMemoryDriver(t *testing.T) {
	t.Setenv("POSUTILTEST_DB_DRIVER", "memory")
	config, err := apt.LoadConfig("POSUTILTEST", nil)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	logger := apt.NewNoopLogger()
	ctx := context.Background()

	tests := []struct {
		name string
		run  func(context.Context, *apt.Config, apt.Logger) error
	}{
		{name: "seedMenu", run: SeedMenu},
		{name: "clearDemo", run: ClearDemo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(ctx, config, logger); err != nil {
				t.Fatalf("%s error = %v", tt.name, err)
			}
		})
	}
}

func TestCommandsUnknownDriver(t *testing.T) {
	t.Setenv("POSUTILTEST_DB_DRIVER", "sqlite")
	config, err := apt.LoadConfig("POSUTILTEST", nil)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if err := SeedMenu(context.Background(), config, apt.NewNoopLogger()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
