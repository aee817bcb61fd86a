package di

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"

	"github.com/jorge6242/graph-builder-api/application/ports"
	"github.com/jorge6242/graph-builder-api/application/services"
	domainconfig "github.com/jorge6242/graph-builder-api/domain/config"
	domainservices "github.com/jorge6242/graph-builder-api/domain/services"
	"github.com/jorge6242/graph-builder-api/infrastructure/cache"
	"github.com/jorge6242/graph-builder-api/infrastructure/config"
	"github.com/jorge6242/graph-builder-api/infrastructure/messaging"
	"github.com/jorge6242/graph-builder-api/infrastructure/messaging/eventbridge"
	"github.com/jorge6242/graph-builder-api/infrastructure/persistence"
	"github.com/jorge6242/graph-builder-api/infrastructure/persistence/dynamodb"
	"github.com/jorge6242/graph-builder-api/infrastructure/persistence/memory"
	"github.com/jorge6242/graph-builder-api/infrastructure/persistence/sqlstore"
	"github.com/jorge6242/graph-builder-api/interfaces/http/rest"
	"github.com/jorge6242/graph-builder-api/pkg/observability"
)

const (
	serviceName      = "graph-builder-api"
	metricsNamespace = "graph_builder"
	cacheKeyPrefix   = "graph-builder"
)

// Backend is the configured store together with its lifecycle hooks
type Backend struct {
	Name    string
	Factory ports.UnitOfWorkFactory

	ping    func(ctx context.Context) error
	migrate func(ctx context.Context) error
}

// Ping reports whether the store can serve requests
func (b *Backend) Ping(ctx context.Context) error {
	if b.ping == nil {
		return nil
	}
	return b.ping(ctx)
}

// Migrate creates the schema or table the store needs
func (b *Backend) Migrate(ctx context.Context) error {
	if b.migrate == nil {
		return nil
	}
	return b.migrate(ctx)
}

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = level

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("service", serviceName)), nil
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideBackend opens the store selected by STORE_DRIVER
func ProvideBackend(ctx context.Context, cfg *config.Config, awsCfg aws.Config, logger *zap.Logger) (*Backend, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		return &Backend{Name: config.StoreMemory, Factory: memory.NewStore()}, func() {}, nil

	case config.StorePostgres, config.StoreSQLite:
		dsn := cfg.DatabaseURL
		if cfg.StoreDriver == config.StoreSQLite {
			dsn = cfg.SQLitePath
		}
		store, err := sqlstore.Open(cfg.StoreDriver, dsn, logger)
		if err != nil {
			return nil, nil, err
		}
		cleanup := func() {
			if err := store.Close(); err != nil {
				logger.Warn("Failed to close database", zap.Error(err))
			}
		}
		return &Backend{
			Name:    cfg.StoreDriver,
			Factory: store,
			ping:    store.Ping,
			migrate: store.Migrate,
		}, cleanup, nil

	case config.StoreDynamoDB:
		store := dynamodb.NewStore(awsdynamodb.NewFromConfig(awsCfg), cfg.TableName, logger)
		return &Backend{
			Name:    config.StoreDynamoDB,
			Factory: store,
			ping:    store.Ping,
			migrate: store.EnsureTable,
		}, func() {}, nil
	}
	return nil, nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
}

// ProvideUnitOfWorkFactory guards the backend with a circuit breaker
func ProvideUnitOfWorkFactory(backend *Backend, logger *zap.Logger) ports.UnitOfWorkFactory {
	return persistence.NewCircuitBreakerUnitOfWorkFactory(
		backend.Factory,
		persistence.DefaultCircuitBreakerConfig(backend.Name),
		logger,
	)
}

// ProvideCache creates the related-topics cache; nil when caching is off
func ProvideCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.Cache, func(), error) {
	switch cfg.CacheDriver {
	case config.CacheMemory:
		c := cache.NewMemoryCache(time.Minute)
		return c, func() { _ = c.Close() }, nil
	case config.CacheRedis:
		c, err := cache.NewRedisCache(ctx, cfg.RedisAddr, cacheKeyPrefix, logger)
		if err != nil {
			return nil, nil, err
		}
		return c, func() { _ = c.Close() }, nil
	}
	return nil, func() {}, nil
}

// ProvideEventPublisher publishes to EventBridge when events are enabled
func ProvideEventPublisher(cfg *config.Config, awsCfg aws.Config, logger *zap.Logger) ports.EventPublisher {
	if !cfg.EnableEvents {
		return messaging.NewLoggingPublisher(logger)
	}
	return eventbridge.NewPublisher(awseventbridge.NewFromConfig(awsCfg), cfg.EventBusName, logger)
}

// ProvideMetrics creates the prometheus collector
func ProvideMetrics() *observability.Collector {
	return observability.NewCollector(metricsNamespace)
}

// ProvideTracing exports spans over OTLP when tracing is enabled
func ProvideTracing(cfg *config.Config, logger *zap.Logger) (*observability.TracerProvider, func(), error) {
	if !cfg.EnableTracing {
		return nil, func() {}, nil
	}
	tp, err := observability.InitTracing(context.Background(), observability.TracingConfig{
		ServiceName: serviceName,
		Environment: cfg.Environment,
		Endpoint:    cfg.OTELEndpoint,
		SampleRatio: cfg.TraceSampleRatio,
	})
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Warn("Failed to flush traces", zap.Error(err))
		}
	}
	return tp, cleanup, nil
}

// ProvideDefaultsWatcher serves the relationship defaults and refuses a
// default strategy the generator does not know
func ProvideDefaultsWatcher(cfg *config.Config, generator *domainservices.RelationshipGenerator, logger *zap.Logger) (*config.Watcher, func(), error) {
	registry := generator.Registry()
	watcher, err := config.NewWatcher(cfg, logger, config.WithDefaultsCheck(func(d config.RelationshipDefaults) error {
		_, err := registry.Get(d.Strategy)
		return err
	}))
	if err != nil {
		return nil, nil, err
	}
	return watcher, watcher.Stop, nil
}

// ProvideDomainConfig derives the business limits from configuration
func ProvideDomainConfig(cfg *config.Config) *domainconfig.DomainConfig {
	return cfg.DomainConfig()
}

// ProvideRelationshipGenerator creates the pair scorer
func ProvideRelationshipGenerator(domain *domainconfig.DomainConfig) *domainservices.RelationshipGenerator {
	return domainservices.NewRelationshipGenerator(
		domainservices.NewDefaultStrategyRegistry(),
		domainservices.WithParallelThreshold(domain.ParallelPairThreshold),
		domainservices.WithMaxWorkers(domain.MaxScoringWorkers),
	)
}

// ProvideGraphService assembles the application service
func ProvideGraphService(
	factory ports.UnitOfWorkFactory,
	generator *domainservices.RelationshipGenerator,
	domain *domainconfig.DomainConfig,
	c ports.Cache,
	publisher ports.EventPublisher,
	metrics *observability.Collector,
	_ *observability.TracerProvider,
	cfg *config.Config,
	logger *zap.Logger,
) *services.GraphService {
	opts := []services.Option{
		services.WithEventPublisher(publisher),
		services.WithMetrics(metrics),
	}
	if c != nil {
		opts = append(opts, services.WithCache(c, cfg.CacheTTL))
	}
	return services.NewGraphService(factory, generator, nil, domain, logger, opts...)
}

// ProvideRouter creates the HTTP router
func ProvideRouter(
	service *services.GraphService,
	watcher *config.Watcher,
	domain *domainconfig.DomainConfig,
	metrics *observability.Collector,
	backend *Backend,
	cfg *config.Config,
	logger *zap.Logger,
) *rest.Router {
	return rest.NewRouter(service, watcher, domain, metrics, logger, rest.Options{
		EnableCORS: cfg.EnableCORS,
		Debug:      cfg.IsDevelopment(),
		Readiness:  backend.Ping,
	})
}
