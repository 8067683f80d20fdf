package app

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/appetiteclub/appetite/pkg"
	"github.com/appetiteclub/appetite/pkg/event"
	"github.com/appetiteclub/appetite/services/pos/internal/discovery"
	"github.com/appetiteclub/appetite/services/pos/internal/gateway"
	"github.com/appetiteclub/appetite/services/pos/internal/grpcapi"
	"github.com/appetiteclub/appetite/services/pos/internal/kitchen"
	"github.com/appetiteclub/appetite/services/pos/internal/menucache"
	"github.com/appetiteclub/appetite/services/pos/internal/mongo"
	"github.com/appetiteclub/appetite/services/pos/internal/notify"
	"github.com/appetiteclub/appetite/services/pos/internal/pos"
	"github.com/appetiteclub/appetite/services/pos/internal/seeding"
	"github.com/appetiteclub/appetite/services/pos/internal/sequence"
	"github.com/appetiteclub/appetite/services/pos/internal/session"
	"github.com/appetiteclub/appetite/services/pos/internal/settings"
	"github.com/appetiteclub/appetite/services/pos/internal/sqlstore"
	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/apt/middleware"
	"github.com/asynkron/protoactor-go/actor"
	"github.com/go-redis/redis/v8"
)

const (
	AppName    = "pos"
	AppVersion = "0.1.0"
)

const (
	DriverMemory = "memory"
	DriverMongo  = "mongo"
	DriverMySQL  = "mysql"
)

// App encapsulates the POS service application
type App struct {
	config *apt.Config
	logger apt.Logger
	micro  *apt.Micro
}

func New(config *apt.Config, logger apt.Logger) (*App, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &App{
		config: config,
		logger: logger,
	}, nil
}

// Initialize sets up all dependencies and components
func (a *App) Initialize(ctx context.Context) error {
	store, err := OpenStore(a.config, a.logger)
	if err != nil {
		return err
	}

	rules, err := settings.Load(a.config.GetStringOrDef("settings.file", "pos.toml"))
	if err != nil {
		return err
	}

	// Redis backs sequences and the menu cache when configured
	redisClient := NewRedisClient(a.config)
	generator := Sequences(store, redisClient)
	var menus pos.MenuStore = store
	if redisClient != nil {
		menus = menucache.New(store, redisClient, menucache.DefaultTTL, a.logger)
		a.logger.Info("Redis enabled for sequences and menu cache")
	} else {
		a.logger.Info("Redis not configured, sequences are kept by the store")
	}

	// Initialize NATS
	natsURL := a.config.GetStringOrDef("nats.url", "nats://localhost:4222")

	publisher, err := pkg.NewNATSPublisher(natsURL)
	if err != nil {
		return err
	}
	subscriber, err := pkg.NewNATSSubscriber(natsURL, a.logger)
	if err != nil {
		return err
	}

	var kitchenStream *pkg.NATSStream
	var ticketPublisher events.Publisher = publisher
	var streamForCache events.StreamConsumer
	if a.config.GetStringOrDef("nats.stream.enabled", "false") == "true" {
		streamConfig, err := pkg.StreamConfigFrom(a.config, event.KitchenTicketsTopic)
		if err != nil {
			return err
		}
		kitchenStream, err = pkg.NewNATSStream(ctx, streamConfig, a.logger)
		if err != nil {
			return err
		}
		ticketPublisher = kitchenStream
		streamForCache = kitchenStream
		a.logger.Info("NATS stream initialized for kitchen tickets")
	}

	// Kitchen
	ticketCache := kitchen.NewTicketStateCache(streamForCache, store, a.logger)
	router := kitchen.NewRouter(ticketCache, a.logger, kitchen.WithPublisher(ticketPublisher))

	// Draft sessions
	system := actor.NewActorSystem()
	sessions := session.NewManager(system, menus, session.Options{
		Rates:         rules.Rates(),
		Stations:      rules.StationMapper(),
		SubmitTimeout: parseDuration(a.config.GetStringOrDef("session.submit_timeout", ""), session.DefaultSubmitTimeout),
		IdleTimeout:   parseDuration(a.config.GetStringOrDef("session.timeout", ""), session.DefaultIdleTimeout),
	}, a.logger)

	// Notifications
	notifier := notify.NewCenter(publisher, a.logger)
	notificationSubscriber := notify.NewSubscriber(subscriber, notifier, a.logger)

	service := pos.NewService(pos.ServiceDeps{
		Gateway:   store,
		Sessions:  sessions,
		Router:    router,
		Numbers:   sequence.NewNumbers(generator, time.Now),
		Menu:      menus,
		Notifier:  notifier,
		Settings:  rules,
		Publisher: publisher,
	}, a.logger)

	handler := pos.NewHandler(service, a.config, a.logger)
	health := grpcapi.NewHealth(a.logger)
	registrar := discovery.NewRegistrar(a.config, AppName, a.logger)

	// Setup middleware
	stack := middleware.DefaultStack(middleware.StackOptions{
		Logger:      a.logger,
		DisableCORS: true,
	})
	stack = append(stack, middleware.InternalOnly())

	// Setup lifecycle hooks, store first so seeding and warm-up can read it
	lifecycles := []interface{}{store}

	if a.config.GetStringOrDef("seeding.demo", "false") == "true" {
		lifecycles = append(lifecycles, apt.LifecycleHooks{
			OnStart: func(ctx context.Context) error {
				if err := seeding.Apply(ctx, store, a.logger); err != nil {
					a.logger.Errorf("Demo seeding failed (non-fatal): %v", err)
				}
				return nil
			},
		})
	}

	lifecycles = append(lifecycles,
		apt.LifecycleHooks{
			OnStart: func(ctx context.Context) error {
				if err := ticketCache.Warm(ctx); err != nil {
					a.logger.Info("failed to warm ticket cache", "error", err)
				}
				return nil
			},
		},
		notificationSubscriber,
		apt.LifecycleHooks{
			OnStop: sessions.Stop,
		},
		health,
		registrar,
		apt.LifecycleHooks{
			OnStop: func(context.Context) error {
				_ = subscriber.Close()
				return publisher.Close()
			},
		},
	)

	if kitchenStream != nil {
		lifecycles = append(lifecycles, apt.LifecycleHooks{
			OnStop: func(context.Context) error { return kitchenStream.Close() },
		})
	}
	if redisClient != nil {
		lifecycles = append(lifecycles, apt.LifecycleHooks{
			OnStop: func(context.Context) error { return redisClient.Close() },
		})
	}

	// Build micro service
	options := []apt.Option{
		apt.WithConfig(a.config),
		apt.WithLogger(a.logger),
		apt.WithHTTPMiddleware(stack...),
		apt.WithHTTPServerModules("web.port", handler),
		apt.WithGRPCServerModules("grpc.port", health),
		apt.WithLifecycle(lifecycles...),
		apt.WithHealthChecks(AppName),
	}

	a.micro = apt.NewMicro(options...)
	return nil
}

// Run starts the application
func (a *App) Run(ctx context.Context) error {
	if a.micro == nil {
		return fmt.Errorf("app not initialized")
	}
	a.logger.Infof("Starting %s(%s)", AppName, AppVersion)
	if err := a.micro.Run(ctx); err != nil {
		return err
	}
	a.logger.Infof("%s(%s) stopped", AppName, AppVersion)
	return nil
}

// Shutdown is a no-op, lifecycle cleanup is handled by apt.Micro
func (a *App) Shutdown(ctx context.Context) error {
	return nil
}

// OpenStore picks the gateway adapter named by db.driver.
func OpenStore(config *apt.Config, logger apt.Logger) (gateway.Store, error) {
	driver := config.GetStringOrDef("db.driver", DriverMongo)
	switch driver {
	case DriverMemory:
		return gateway.NewMemory(), nil
	case DriverMongo:
		return mongo.NewStore(config, logger), nil
	case DriverMySQL:
		return sqlstore.NewStore(config, logger), nil
	default:
		return nil, fmt.Errorf("unknown db.driver %q", driver)
	}
}

// NewRedisClient returns nil when redis.addr is not set.
func NewRedisClient(config *apt.Config) *redis.Client {
	addr := config.GetStringOrDef("redis.addr", "")
	if addr == "" {
		return nil
	}
	db, err := strconv.Atoi(config.GetStringOrDef("redis.db", "0"))
	if err != nil {
		db = 0
	}
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: config.GetStringOrDef("redis.password", ""),
		DB:       db,
	})
}

// Sequences picks where order, token and bill numbers come from: Redis when
// configured, otherwise the store itself. Only a store that keeps no
// counters falls back to process memory.
func Sequences(store gateway.Store, client *redis.Client) sequence.Generator {
	if client != nil {
		return sequence.NewRedis(client)
	}
	if gen, ok := store.(sequence.Generator); ok {
		return gen
	}
	return sequence.NewMemory()
}

func parseDuration(raw string, def time.Duration) time.Duration {
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
