// Package config loads application configuration from an optional YAML file
// overlaid with environment variables.
package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	domainconfig "github.com/jorge6242/graph-builder-api/domain/config"
)

// Store drivers
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
	StoreDynamoDB = "dynamodb"
)

// Cache drivers
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// RelationshipDefaults fill in strategy and threshold when a request omits them
type RelationshipDefaults struct {
	Strategy  string  `yaml:"strategy"`
	Threshold float64 `yaml:"threshold"`
}

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string `yaml:"server_address"`
	Environment   string `yaml:"environment"`
	LogLevel      string `yaml:"log_level"`

	// Persistence
	StoreDriver string `yaml:"store_driver"`
	DatabaseURL string `yaml:"database_url"`
	SQLitePath  string `yaml:"sqlite_path"`

	// AWS configuration
	AWSRegion    string `yaml:"aws_region"`
	TableName    string `yaml:"table_name"`
	EventBusName string `yaml:"event_bus_name"`
	EnableEvents bool   `yaml:"enable_events"`

	// Caching
	CacheDriver string        `yaml:"cache_driver"`
	RedisAddr   string        `yaml:"redis_addr"`
	CacheTTL    time.Duration `yaml:"cache_ttl"`

	// Relationship generation
	Relationship          RelationshipDefaults `yaml:"relationship"`
	MaxTopicsPerGraph     int                  `yaml:"max_topics_per_graph"`
	ParallelPairThreshold int                  `yaml:"parallel_pair_threshold"`

	// Feature flags
	EnableTracing    bool    `yaml:"enable_tracing"`
	OTELEndpoint     string  `yaml:"otel_endpoint"`
	TraceSampleRatio float64 `yaml:"trace_sample_ratio"`
	EnableCORS       bool    `yaml:"enable_cors"`

	// ConfigFile is the YAML file the configuration was read from, if any
	ConfigFile string `yaml:"-"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	domain := domainconfig.DefaultDomainConfig()
	return &Config{
		ServerAddress: ":8080",
		Environment:   "development",
		LogLevel:      "info",
		StoreDriver:   StoreMemory,
		SQLitePath:    "graph-builder.db",
		AWSRegion:     "us-west-2",
		TableName:     "graph-builder",
		EventBusName:  "graph-builder-events",
		CacheDriver:   CacheMemory,
		RedisAddr:     "localhost:6379",
		CacheTTL:      5 * time.Minute,
		Relationship: RelationshipDefaults{
			Strategy:  "keyword_jaccard",
			Threshold: 0.1,
		},
		MaxTopicsPerGraph:     domain.MaxTopicsPerGraph,
		ParallelPairThreshold: domain.ParallelPairThreshold,
		OTELEndpoint:          "localhost:4317",
		TraceSampleRatio:      1,
		EnableCORS:            true,
	}
}

// LoadConfig loads configuration from CONFIG_FILE (when set) and environment variables
func LoadConfig() (*Config, error) {
	return LoadFile(os.Getenv("CONFIG_FILE"))
}

// Load is an alias for LoadConfig
func Load() (*Config, error) {
	return LoadConfig()
}

// LoadFile loads defaults, then path (if not empty), then environment
// variables, and validates the result
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		cfg.ConfigFile = path
	}

	cfg.applyEnvironment()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnvironment() {
	c.ServerAddress = getEnv("SERVER_ADDRESS", c.ServerAddress)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	c.StoreDriver = getEnv("STORE_DRIVER", c.StoreDriver)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.SQLitePath = getEnv("SQLITE_PATH", c.SQLitePath)

	c.AWSRegion = getEnv("AWS_REGION", c.AWSRegion)
	c.TableName = getEnv("TABLE_NAME", c.TableName)
	c.EventBusName = getEnv("EVENT_BUS_NAME", c.EventBusName)
	c.EnableEvents = getEnvBool("ENABLE_EVENTS", c.EnableEvents)

	c.CacheDriver = getEnv("CACHE_DRIVER", c.CacheDriver)
	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)
	c.CacheTTL = getEnvDuration("CACHE_TTL", c.CacheTTL)

	c.Relationship.Strategy = getEnv("RELATIONSHIP_STRATEGY_DEFAULT", c.Relationship.Strategy)
	c.Relationship.Threshold = getEnvFloat("RELATIONSHIP_THRESHOLD_DEFAULT", c.Relationship.Threshold)
	c.MaxTopicsPerGraph = getEnvInt("MAX_TOPICS_PER_GRAPH", c.MaxTopicsPerGraph)
	c.ParallelPairThreshold = getEnvInt("PARALLEL_PAIR_THRESHOLD", c.ParallelPairThreshold)

	c.EnableTracing = getEnvBool("ENABLE_TRACING", c.EnableTracing)
	c.OTELEndpoint = getEnv("OTEL_ENDPOINT", c.OTELEndpoint)
	c.TraceSampleRatio = getEnvFloat("TRACE_SAMPLE_RATIO", c.TraceSampleRatio)
	c.EnableCORS = getEnvBool("ENABLE_CORS", c.EnableCORS)
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreMemory, StoreSQLite:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	case StoreDynamoDB:
		if c.TableName == "" {
			return fmt.Errorf("TABLE_NAME is required for the dynamodb store")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	switch c.CacheDriver {
	case CacheMemory, CacheNone:
	case CacheRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis cache")
		}
	default:
		return fmt.Errorf("unknown CACHE_DRIVER %q", c.CacheDriver)
	}

	if err := c.Relationship.Validate(); err != nil {
		return err
	}
	if c.MaxTopicsPerGraph < 2 {
		return fmt.Errorf("MAX_TOPICS_PER_GRAPH must be at least 2, got %d", c.MaxTopicsPerGraph)
	}
	if c.TraceSampleRatio < 0 || c.TraceSampleRatio > 1 {
		return fmt.Errorf("TRACE_SAMPLE_RATIO must be within [0, 1], got %v", c.TraceSampleRatio)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("CACHE_TTL must not be negative")
	}
	if c.IsProduction() && c.EnableEvents && c.EventBusName == "" {
		return fmt.Errorf("EVENT_BUS_NAME is required when events are enabled in production")
	}
	return nil
}

// Validate checks the defaults are usable
func (d RelationshipDefaults) Validate() error {
	if d.Strategy == "" {
		return fmt.Errorf("RELATIONSHIP_STRATEGY_DEFAULT must not be empty")
	}
	if math.IsNaN(d.Threshold) || d.Threshold < 0 || d.Threshold > 1 {
		return fmt.Errorf("RELATIONSHIP_THRESHOLD_DEFAULT must be within [0, 1], got %v", d.Threshold)
	}
	return nil
}

// RelationshipDefaults returns the configured defaults
func (c *Config) RelationshipDefaults() RelationshipDefaults {
	return c.Relationship
}

// DomainConfig returns the business rules with configured overrides applied
func (c *Config) DomainConfig() *domainconfig.DomainConfig {
	domain := domainconfig.DefaultDomainConfig()
	domain.MaxTopicsPerGraph = c.MaxTopicsPerGraph
	domain.ParallelPairThreshold = c.ParallelPairThreshold
	return domain
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
