package ports

import (
	"context"
	"time"

	"github.com/jorge6242/graph-builder-api/domain/core/entities"
	"github.com/jorge6242/graph-builder-api/domain/events"
)

// GraphRepository defines the interface for graph persistence
// This is a port in hexagonal architecture - the domain doesn't know about the implementation
type GraphRepository interface {
	// Create persists a new graph
	Create(ctx context.Context, graph *entities.Graph) error

	// GetByID retrieves a graph by its ID, failing with GRAPH_NOT_FOUND
	GetByID(ctx context.Context, id string) (*entities.Graph, error)

	// GetForUpdate retrieves a graph and holds an exclusive lock on it until
	// the owning unit of work commits or rolls back
	GetForUpdate(ctx context.Context, id string) (*entities.Graph, error)
}

// TopicRepository defines the interface for topic persistence
type TopicRepository interface {
	// CreateBatch persists new topics; (graphID, normalizedLabel) must be unique
	CreateBatch(ctx context.Context, topics []*entities.Topic) error

	// GetByGraphID retrieves all topics of a graph ordered by creation
	GetByGraphID(ctx context.Context, graphID string) ([]*entities.Topic, error)

	// GetByID retrieves one topic of a graph, failing with TOPIC_NOT_FOUND
	GetByID(ctx context.Context, graphID, topicID string) (*entities.Topic, error)

	// GetByIDs retrieves the topics of a graph with the given IDs; unknown IDs are skipped
	GetByIDs(ctx context.Context, graphID string, topicIDs []string) ([]*entities.Topic, error)
}

// EdgeRepository defines the interface for edge persistence
type EdgeRepository interface {
	// CreateBatch persists new edges; (graphID, source, target) must be unique
	CreateBatch(ctx context.Context, edges []*entities.Edge) error

	// GetByGraphID retrieves all edges of a graph
	GetByGraphID(ctx context.Context, graphID string) ([]*entities.Edge, error)

	// GetByTopicID retrieves the edges that have topicID in either endpoint slot
	GetByTopicID(ctx context.Context, graphID, topicID string) ([]*entities.Edge, error)
}

// UnitOfWork defines a transaction boundary for graph operations.
// Nothing written through its repositories is visible to others before Commit.
type UnitOfWork interface {
	// Commit makes every write of the unit visible atomically
	Commit(ctx context.Context) error

	// Rollback discards the unit; calling it after Commit is a no-op
	Rollback() error

	// Graphs returns the graph repository for this transaction
	Graphs() GraphRepository

	// Topics returns the topic repository for this transaction
	Topics() TopicRepository

	// Edges returns the edge repository for this transaction
	Edges() EdgeRepository
}

// UnitOfWorkFactory opens units of work against a store
type UnitOfWorkFactory interface {
	Begin(ctx context.Context) (UnitOfWork, error)
}

// IDGenerator hands out identifiers for new records
type IDGenerator interface {
	NewID() string
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// Cache defines the interface for caching
type Cache interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores a value in cache; a zero ttl never expires
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error
}
