package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFile("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ServerAddress)
	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Equal(t, CacheMemory, cfg.CacheDriver)
	assert.Equal(t, RelationshipDefaults{Strategy: "keyword_jaccard", Threshold: 0.1}, cfg.RelationshipDefaults())
	assert.Equal(t, 1000, cfg.MaxTopicsPerGraph)
	assert.Equal(t, 256, cfg.ParallelPairThreshold)
	assert.True(t, cfg.IsDevelopment())
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, `
store_driver: sqlite
cache_ttl: 90s
relationship:
  strategy: keyword_jaccard
  threshold: 0.3
max_topics_per_graph: 50
`)
	t.Setenv("RELATIONSHIP_THRESHOLD_DEFAULT", "0.25")
	t.Setenv("CACHE_DRIVER", "none")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.ConfigFile)
	assert.Equal(t, StoreSQLite, cfg.StoreDriver)
	assert.Equal(t, CacheNone, cfg.CacheDriver)
	assert.Equal(t, 90*time.Second, cfg.CacheTTL)
	assert.Equal(t, 0.25, cfg.Relationship.Threshold)
	assert.Equal(t, 50, cfg.DomainConfig().MaxTopicsPerGraph)
	assert.Equal(t, 80, cfg.DomainConfig().MaxLabelLength)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"unknown store", func(c *Config) { c.StoreDriver = "mongo" }, "STORE_DRIVER"},
		{"postgres without url", func(c *Config) { c.StoreDriver = StorePostgres }, "DATABASE_URL"},
		{"dynamodb without table", func(c *Config) { c.StoreDriver = StoreDynamoDB; c.TableName = "" }, "TABLE_NAME"},
		{"unknown cache", func(c *Config) { c.CacheDriver = "memcached" }, "CACHE_DRIVER"},
		{"redis without addr", func(c *Config) { c.CacheDriver = CacheRedis; c.RedisAddr = "" }, "REDIS_ADDR"},
		{"empty strategy", func(c *Config) { c.Relationship.Strategy = "" }, "RELATIONSHIP_STRATEGY_DEFAULT"},
		{"threshold above one", func(c *Config) { c.Relationship.Threshold = 1.5 }, "RELATIONSHIP_THRESHOLD_DEFAULT"},
		{"threshold below zero", func(c *Config) { c.Relationship.Threshold = -0.1 }, "RELATIONSHIP_THRESHOLD_DEFAULT"},
		{"topic cap too small", func(c *Config) { c.MaxTopicsPerGraph = 1 }, "MAX_TOPICS_PER_GRAPH"},
		{"production events without bus", func(c *Config) {
			c.Environment = "production"
			c.EnableEvents = true
			c.EventBusName = ""
		}, "EVENT_BUS_NAME"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	writeFile(t, path, "relationship: [not, a, map]")
	_, err = LoadFile(path)
	assert.Error(t, err)
}

func TestWatcherDisabledOutsideDevelopment(t *testing.T) {
	cfg := Default()
	cfg.Environment = "production"
	cfg.ConfigFile = "config.yaml"

	w, err := NewWatcher(cfg, zap.NewNop())
	require.NoError(t, err)
	defer w.Stop()

	assert.Nil(t, w.watcher)
	assert.Equal(t, cfg.Relationship, w.RelationshipDefaults())
}

func TestWatcherReloadsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "relationship:\n  strategy: keyword_jaccard\n  threshold: 0.1\n")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	w, err := NewWatcher(cfg, zap.NewNop())
	require.NoError(t, err)
	defer w.Stop()

	var mu sync.Mutex
	var seen []RelationshipDefaults
	w.OnChange(func(d RelationshipDefaults) {
		mu.Lock()
		seen = append(seen, d)
		mu.Unlock()
	})

	writeFile(t, path, "relationship:\n  strategy: keyword_jaccard\n  threshold: 0.4\n")

	assert.Eventually(t, func() bool {
		return w.RelationshipDefaults().Threshold == 0.4
	}, 5*time.Second, 50*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, seen)
	assert.Equal(t, 0.4, seen[len(seen)-1].Threshold)
}

func TestWatcherKeepsDefaultsOnInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "relationship:\n  strategy: keyword_jaccard\n  threshold: 0.2\n")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	w, err := NewWatcher(cfg, zap.NewNop())
	require.NoError(t, err)
	defer w.Stop()

	writeFile(t, path, "relationship:\n  strategy: keyword_jaccard\n  threshold: 7\n")
	w.reload()

	assert.Equal(t, 0.2, w.RelationshipDefaults().Threshold)
}

func TestWatcherDefaultsCheck(t *testing.T) {
	known := WithDefaultsCheck(func(d RelationshipDefaults) error {
		if d.Strategy != "keyword_jaccard" {
			return fmt.Errorf("unknown strategy %q", d.Strategy)
		}
		return nil
	})

	cfg := Default()
	cfg.Relationship.Strategy = "keyword_jacard"
	_, err := NewWatcher(cfg, zap.NewNop(), known)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "keyword_jacard")

	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "relationship:\n  strategy: keyword_jaccard\n  threshold: 0.2\n")
	cfg, err = LoadFile(path)
	require.NoError(t, err)
	w, err := NewWatcher(cfg, zap.NewNop(), known)
	require.NoError(t, err)
	defer w.Stop()

	writeFile(t, path, "relationship:\n  strategy: cosine\n  threshold: 0.5\n")
	w.reload()

	assert.Equal(t, RelationshipDefaults{Strategy: "keyword_jaccard", Threshold: 0.2}, w.RelationshipDefaults())
}
