// Package container provides dependency injection using Uber FX
package container

import (
	"context"
	"fmt"
	"time"

	"github.com/greenbite/mealplanner/internal/application/inventory"
	"github.com/greenbite/mealplanner/internal/application/mealplan"
	"github.com/greenbite/mealplanner/internal/infrastructure/ai/gemini"
	"github.com/greenbite/mealplanner/internal/infrastructure/ai/ollama"
	"github.com/greenbite/mealplanner/internal/infrastructure/cache"
	"github.com/greenbite/mealplanner/internal/infrastructure/config"
	"github.com/greenbite/mealplanner/internal/infrastructure/http/handlers"
	"github.com/greenbite/mealplanner/internal/infrastructure/http/server"
	"github.com/greenbite/mealplanner/internal/infrastructure/monitoring"
	gormRepo "github.com/greenbite/mealplanner/internal/infrastructure/persistence/gorm"
	"github.com/greenbite/mealplanner/internal/infrastructure/persistence/memory"
	"github.com/greenbite/mealplanner/internal/infrastructure/persistence/postgres"
	redisStore "github.com/greenbite/mealplanner/internal/infrastructure/persistence/redis"
	"github.com/greenbite/mealplanner/internal/infrastructure/persistence/seed"
	"github.com/greenbite/mealplanner/internal/infrastructure/persistence/sqlite"
	"github.com/greenbite/mealplanner/internal/infrastructure/providers/catalog"
	"github.com/greenbite/mealplanner/internal/infrastructure/providers/generative"
	"github.com/greenbite/mealplanner/internal/infrastructure/providers/mealdb"
	"github.com/greenbite/mealplanner/internal/infrastructure/queue"
	"github.com/greenbite/mealplanner/internal/ports/inbound"
	"github.com/greenbite/mealplanner/internal/ports/outbound"
	"github.com/greenbite/mealplanner/pkg/healthcheck"
	"github.com/greenbite/mealplanner/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ConfigPath is the optional config file handed to config.Load
type ConfigPath string

// Module provides all dependency injection modules
var Module = fx.Options(
	// Infrastructure modules
	ConfigModule,
	LoggerModule,
	DatabaseModule,
	CacheModule,
	MonitoringModule,

	// Repository modules
	RepositoryModule,

	// Recipe sources
	ProviderModule,

	// Service modules
	ServiceModule,

	// HTTP modules
	HTTPModule,

	// Lifecycle hooks
	LifecycleModule,
)

// ConfigModule provides configuration
var ConfigModule = fx.Provide(
	func(path ConfigPath) (*config.Config, error) {
		return config.Load(string(path))
	},
)

// LoggerModule provides logging
var LoggerModule = fx.Provide(
	func(cfg *config.Config) (*zap.Logger, error) {
		return logger.New(logger.Config{
			Level:       cfg.App.LogLevel,
			Format:      cfg.App.LogFormat,
			Development: cfg.App.Debug,
			Service:     cfg.App.Name,
			Version:     cfg.App.Version,
			Environment: cfg.App.Environment,
		})
	},
)

// DatabaseModule provides the GORM connection for the configured driver
var DatabaseModule = fx.Provide(
	func(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
		switch cfg.Database.Driver {
		case "postgres":
			return postgres.Open(cfg, log)
		default:
			db, err := sqlite.SetupDatabase(cfg.Database.Path, sqlite.ParseLogLevel(cfg.Database.LogLevel))
			if err != nil {
				return nil, fmt.Errorf("failed to setup SQLite database: %w", err)
			}
			log.Info("Connected to SQLite database", zap.String("path", cfg.Database.Path))
			return db, nil
		}
	},
)

// CacheModule provides the Redis client when a component needs it. It is nil otherwise.
var CacheModule = fx.Provide(
	func(cfg *config.Config, log *zap.Logger) (redis.UniversalClient, error) {
		if cfg.Dispatch.Backend != "redis" {
			return nil, nil
		}
		return cache.NewRedisClient(&cfg.Redis, log)
	},
)

// MonitoringModule provides metrics and tracing
var MonitoringModule = fx.Provide(
	monitoring.NewMetricsCollector,
	func(m *monitoring.MetricsCollector) outbound.PlanMetrics { return m },
	func(cfg *config.Config, log *zap.Logger) (*monitoring.TracingProvider, error) {
		return monitoring.NewTracingProvider(context.Background(), monitoring.TracingConfig{
			Enabled:        cfg.Monitoring.TracingEnabled,
			ServiceName:    cfg.App.Name,
			ServiceVersion: cfg.App.Version,
			Environment:    cfg.App.Environment,
			Endpoint:       cfg.Monitoring.TracingEndpoint,
			Insecure:       cfg.Monitoring.TracingInsecure,
			SamplingRate:   cfg.Monitoring.SamplingRate,
		}, log)
	},
)

// RepositoryModule provides repository implementations
var RepositoryModule = fx.Provide(
	gormRepo.NewMealPlanRepository,
	gormRepo.NewRecipeRepository,
	gormRepo.NewPantryRepository,
	func(cfg *config.Config, client redis.UniversalClient) outbound.TaskStore {
		if client != nil {
			return redisStore.NewTaskStore(client, cfg.Dispatch.TaskTTL)
		}
		return memory.NewTaskStore()
	},
	func(cfg *config.Config, client redis.UniversalClient, log *zap.Logger) (outbound.JobQueue, error) {
		switch cfg.Dispatch.Backend {
		case "redis":
			return queue.NewRedisQueue(client, cfg.Dispatch.Queue, log), nil
		case "amqp":
			q, err := queue.NewAMQPQueue(cfg.Dispatch.AMQPURL, cfg.Dispatch.Queue, log)
			if err != nil {
				return nil, err
			}
			return q, nil
		default:
			return queue.NewMemoryQueue(256, log), nil
		}
	},
)

// ProviderModule provides the recipe sources in chain order
var ProviderModule = fx.Provide(
	NewTextGenerator,
	NewProviders,
)

// NewTextGenerator builds the configured LLM backend, or nil when none is configured
func NewTextGenerator(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (outbound.TextGenerator, error) {
	gen := cfg.Providers.Generative
	switch gen.Backend {
	case "gemini":
		client, err := gemini.NewClient(context.Background(), gen.GeminiKey, gen.GeminiModel, log)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{OnStop: func(context.Context) error { return client.Close() }})
		return client, nil
	case "ollama":
		return ollama.NewClient(ollama.Config{
			Host:    gen.OllamaHost,
			Model:   gen.OllamaModel,
			Timeout: gen.Timeout,
		}, log), nil
	default:
		return nil, nil
	}
}

// NewProviders assembles the primary providers and the optional generative fallback
func NewProviders(cfg *config.Config, recipes outbound.RecipeRepository, gen outbound.TextGenerator, log *zap.Logger) mealplan.Providers {
	providers := mealplan.Providers{
		Primary: []outbound.RecipeProvider{
			catalog.NewProvider(recipes, cfg.Catalog.Limit, log),
		},
	}

	if m := cfg.Providers.MealDB; m.Enabled {
		client := mealdb.NewClient(mealdb.Config{
			BaseURL:    m.BaseURL,
			Timeout:    m.Timeout,
			RatePerSec: m.RatePerSec,
			Burst:      m.Burst,
		}, log)
		providers.Primary = append(providers.Primary, mealdb.NewProvider(client, m.MealIDs, m.Searches, log))
	}

	if gen != nil {
		providers.Fallback = generative.NewProvider(gen, cfg.Providers.Generative.BatchSize, log)
	}

	names := make([]string, 0, len(providers.Primary)+1)
	for _, p := range providers.Primary {
		names = append(names, p.Name())
	}
	if providers.Fallback != nil {
		names = append(names, providers.Fallback.Name()+" (fallback)")
	}
	log.Info("Recipe providers configured", zap.Strings("providers", names))

	return providers
}

// ServiceModule provides application services
var ServiceModule = fx.Provide(
	inventory.NewService,
	func(s *inventory.Service) outbound.InventoryService { return s },
	func(s *inventory.Service) handlers.PantryService { return s },

	mealplan.NewBuilder,
	func(cfg *config.Config, q outbound.JobQueue, tasks outbound.TaskStore, metrics outbound.PlanMetrics, log *zap.Logger) *mealplan.Dispatcher {
		return mealplan.NewDispatcher(q, tasks, metrics, cfg.Dispatch.Timeout, log)
	},
	func(
		repo outbound.MealPlanRepository,
		inv outbound.InventoryService,
		providers mealplan.Providers,
		builder *mealplan.Builder,
		dispatcher *mealplan.Dispatcher,
		tasks outbound.TaskStore,
		metrics outbound.PlanMetrics,
		log *zap.Logger,
	) *mealplan.PlanningService {
		return mealplan.NewPlanningService(repo, inv, providers, builder, dispatcher, tasks, metrics, log)
	},
	func(s *mealplan.PlanningService) inbound.MealPlanningService { return s },

	fx.Annotate(
		mealplan.NewConfirmationService,
		fx.As(new(inbound.ConfirmationService)),
	),
)

// HTTPModule provides HTTP server and handlers
var HTTPModule = fx.Provide(
	func(cfg *config.Config, planning inbound.MealPlanningService, confirmation inbound.ConfirmationService, log *zap.Logger) *handlers.MealPlanHandlers {
		return handlers.NewMealPlanHandlers(planning, confirmation, cfg.Planning, log)
	},
	handlers.NewPantryHandlers,
	NewHealthCheck,
	server.NewServer,
)

// NewHealthCheck registers a checker per backing service
func NewHealthCheck(cfg *config.Config, db *gorm.DB, client redis.UniversalClient, recipes outbound.RecipeRepository, log *zap.Logger) (*healthcheck.HealthCheck, error) {
	hc := healthcheck.New(cfg.App.Version, log)

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	hc.Register("database", healthcheck.NewDatabaseChecker(sqlDB))
	hc.Register("catalog", healthcheck.CheckFunc(func(ctx context.Context) (healthcheck.Status, string) {
		n, err := recipes.Count(ctx)
		if err != nil {
			return healthcheck.StatusUnhealthy, err.Error()
		}
		if n == 0 {
			return healthcheck.StatusDegraded, "recipe catalog is empty"
		}
		return healthcheck.StatusHealthy, ""
	}))

	if client != nil {
		hc.Register("redis", healthcheck.NewRedisChecker(client))
	}
	if m := cfg.Providers.MealDB; m.Enabled {
		hc.Register("mealdb", healthcheck.NewExternalServiceChecker("mealdb", m.BaseURL+"/categories.php", 5*time.Second))
	}

	return hc, nil
}

// LifecycleModule provides lifecycle hooks
var LifecycleModule = fx.Invoke(
	RegisterLifecycleHooks,
)

// RegisterLifecycleHooks registers application lifecycle hooks
func RegisterLifecycleHooks(
	lc fx.Lifecycle,
	cfg *config.Config,
	log *zap.Logger,
	db *gorm.DB,
	client redis.UniversalClient,
	recipes outbound.RecipeRepository,
	planning *mealplan.PlanningService,
	dispatcher *mealplan.Dispatcher,
	tracing *monitoring.TracingProvider,
	srv *server.Server,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting meal planner",
				zap.String("version", cfg.App.Version),
				zap.String("environment", cfg.App.Environment),
				zap.String("database", cfg.Database.Driver),
				zap.String("dispatch", cfg.Dispatch.Backend),
			)

			if _, err := seed.SeedCatalog(ctx, recipes, cfg.Catalog.SeedFile, log); err != nil {
				log.Warn("Failed to seed recipe catalog", zap.Error(err))
			}

			dispatcher.Start(planning.RunJob, cfg.Dispatch.Workers)

			return srv.Start()
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down meal planner")

			if err := srv.Shutdown(ctx); err != nil {
				log.Error("Failed to shutdown HTTP server", zap.Error(err))
			}

			if err := dispatcher.Stop(ctx); err != nil {
				log.Error("Failed to stop dispatcher", zap.Error(err))
			}

			if err := tracing.Shutdown(ctx); err != nil {
				log.Error("Failed to flush traces", zap.Error(err))
			}

			if client != nil {
				if err := client.Close(); err != nil {
					log.Error("Failed to close Redis client", zap.Error(err))
				}
			}

			if sqlDB, err := db.DB(); err == nil {
				if err := sqlDB.Close(); err != nil {
					log.Error("Failed to close database connection", zap.Error(err))
				}
			}

			_ = log.Sync()

			return nil
		},
	})
}
