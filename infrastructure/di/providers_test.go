package di

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jorge6242/graph-builder-api/application/services"
	"github.com/jorge6242/graph-builder-api/infrastructure/config"
	"github.com/jorge6242/graph-builder-api/infrastructure/messaging"
	"github.com/jorge6242/graph-builder-api/infrastructure/persistence"
)

func TestProvideLogger(t *testing.T) {
	cfg := config.Default()
	cfg.LogLevel = "debug"
	logger, err := ProvideLogger(cfg)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))

	cfg.LogLevel = "chatty"
	_, err = ProvideLogger(cfg)
	assert.Error(t, err)
}

func TestProvideBackend(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		cfg := config.Default()
		backend, cleanup, err := ProvideBackend(ctx, cfg, aws.Config{}, zap.NewNop())
		require.NoError(t, err)
		defer cleanup()

		assert.Equal(t, config.StoreMemory, backend.Name)
		assert.NoError(t, backend.Ping(ctx))
		assert.NoError(t, backend.Migrate(ctx))
	})

	t.Run("sqlite", func(t *testing.T) {
		cfg := config.Default()
		cfg.StoreDriver = config.StoreSQLite
		cfg.SQLitePath = filepath.Join(t.TempDir(), "graphs.db")

		backend, cleanup, err := ProvideBackend(ctx, cfg, aws.Config{}, zap.NewNop())
		require.NoError(t, err)
		defer cleanup()

		require.NoError(t, backend.Migrate(ctx))
		assert.NoError(t, backend.Ping(ctx))

		factory := ProvideUnitOfWorkFactory(backend, zap.NewNop())
		assert.IsType(t, &persistence.CircuitBreakerUnitOfWorkFactory{}, factory)
	})

	t.Run("unknown driver", func(t *testing.T) {
		cfg := config.Default()
		cfg.StoreDriver = "cassandra"
		_, _, err := ProvideBackend(ctx, cfg, aws.Config{}, zap.NewNop())
		assert.Error(t, err)
	})
}

func TestProvideCache(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()

	cfg.CacheDriver = config.CacheNone
	c, cleanup, err := ProvideCache(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	cleanup()
	assert.Nil(t, c)

	cfg.CacheDriver = config.CacheMemory
	c, cleanup, err = ProvideCache(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	defer cleanup()
	assert.NotNil(t, c)
}

func TestProvideEventPublisherWithoutEvents(t *testing.T) {
	cfg := config.Default()
	cfg.EnableEvents = false
	assert.IsType(t, &messaging.LoggingPublisher{}, ProvideEventPublisher(cfg, aws.Config{}, zap.NewNop()))
}

func TestProvideRelationshipGeneratorUsesLimits(t *testing.T) {
	cfg := config.Default()
	generator := ProvideRelationshipGenerator(ProvideDomainConfig(cfg))

	assert.Equal(t, []string{"keyword_jaccard"}, generator.Registry().Names())
}

func TestUnknownDefaultStrategyFailsStartup(t *testing.T) {
	cfg := config.Default()
	cfg.Environment = "test"
	cfg.Relationship.Strategy = "keyword_jacard"

	container, cleanup, err := InitializeContainer(context.Background(), cfg)
	require.Error(t, err)
	assert.Nil(t, container)
	assert.Nil(t, cleanup)
	assert.Contains(t, err.Error(), "keyword_jacard")
}

func TestInitializeContainer(t *testing.T) {
	cfg := config.Default()
	cfg.Environment = "test"

	container, cleanup, err := InitializeContainer(context.Background(), cfg)
	require.NoError(t, err)
	defer cleanup()

	result, err := container.Service.CreateGraph(context.Background(), services.CreateGraphInput{
		Topics:    []string{"Digital PR", "PR Strategy"},
		Strategy:  cfg.Relationship.Strategy,
		Threshold: cfg.Relationship.Threshold,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.EdgesCreated)

	server := httptest.NewServer(container.Router.Setup())
	defer server.Close()

	resp, err := http.Post(server.URL+"/v1/graphs", "application/json", strings.NewReader(`{"topics":["SEO","Local SEO"]}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	ready, err := http.Get(server.URL + "/ready")
	require.NoError(t, err)
	defer ready.Body.Close()
	assert.Equal(t, http.StatusOK, ready.StatusCode)
}
