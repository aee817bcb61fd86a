package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/jorge6242/graph-builder-api/application/ports"
	"github.com/jorge6242/graph-builder-api/domain/config"
	"github.com/jorge6242/graph-builder-api/domain/core/entities"
	"github.com/jorge6242/graph-builder-api/domain/core/valueobjects"
	"github.com/jorge6242/graph-builder-api/domain/events"
	domainservices "github.com/jorge6242/graph-builder-api/domain/services"
	apperrors "github.com/jorge6242/graph-builder-api/pkg/errors"
	"github.com/jorge6242/graph-builder-api/pkg/observability"
)

// GraphService builds graphs from topic labels and answers neighborhood queries.
// Every write runs in a single unit of work; events and cache invalidation
// happen only after a successful commit.
type GraphService struct {
	uowFactory ports.UnitOfWorkFactory
	generator  *domainservices.RelationshipGenerator
	ids        ports.IDGenerator
	config     *config.DomainConfig
	logger     *zap.Logger

	publisher ports.EventPublisher
	cache     ports.Cache
	cacheTTL  time.Duration
	metrics   *observability.Collector
	tracer    trace.Tracer
	now       func() time.Time
}

// Option configures optional GraphService collaborators
type Option func(*GraphService)

// WithEventPublisher publishes domain events after each committed write
func WithEventPublisher(publisher ports.EventPublisher) Option {
	return func(s *GraphService) {
		s.publisher = publisher
	}
}

// WithCache caches related-topics results for ttl
func WithCache(cache ports.Cache, ttl time.Duration) Option {
	return func(s *GraphService) {
		s.cache = cache
		s.cacheTTL = ttl
	}
}

// WithMetrics records business metrics on the collector
func WithMetrics(metrics *observability.Collector) Option {
	return func(s *GraphService) {
		s.metrics = metrics
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *GraphService) {
		s.now = now
	}
}

// NewGraphService creates a new graph service
func NewGraphService(
	uowFactory ports.UnitOfWorkFactory,
	generator *domainservices.RelationshipGenerator,
	ids ports.IDGenerator,
	cfg *config.DomainConfig,
	logger *zap.Logger,
	opts ...Option,
) *GraphService {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if ids == nil {
		ids = valueobjects.UUIDGenerator{}
	}

	s := &GraphService{
		uowFactory: uowFactory,
		generator:  generator,
		ids:        ids,
		config:     cfg,
		logger:     logger,
		tracer:     observability.Tracer(),
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Strategies lists the registered similarity strategies
func (s *GraphService) Strategies() []string {
	return s.generator.Registry().Names()
}

// CreateGraph deduplicates the labels, creates a graph with one topic per
// unique label and an edge for every pair scoring at or above the threshold.
// Graph, topics and edges are committed together or not at all.
func (s *GraphService) CreateGraph(ctx context.Context, in CreateGraphInput) (result *GraphResult, err error) {
	ctx, span := s.tracer.Start(ctx, "GraphService.CreateGraph",
		trace.WithAttributes(
			attribute.Int("topics.requested", len(in.Topics)),
			attribute.String("strategy", in.Strategy),
			attribute.Float64("threshold", in.Threshold),
		),
	)
	defer func() { observability.EndSpan(span, err) }()

	if _, err := s.generator.Registry().Get(in.Strategy); err != nil {
		return nil, err
	}
	if len(in.Topics) < s.config.MinTopicsOnCreate {
		return nil, apperrors.InvalidInput("at least %d topics are required, got %d", s.config.MinTopicsOnCreate, len(in.Topics))
	}
	if err := s.validateLabels(in.Topics); err != nil {
		return nil, err
	}

	unique := domainservices.Deduplicate(in.Topics)
	if len(unique) > s.config.MaxTopicsPerGraph {
		return nil, apperrors.InvalidInput("a graph holds at most %d topics, got %d", s.config.MaxTopicsPerGraph, len(unique))
	}

	now := s.now()
	graph, err := entities.NewGraph(s.ids.NewID(), in.Name, now)
	if err != nil {
		return nil, apperrors.InvalidInput("%s", err.Error())
	}

	topics, index, err := s.newTopics(graph.ID, unique, nil, now)
	if err != nil {
		return nil, err
	}

	candidates, err := s.generate(ctx, labelsOf(topics), in.Strategy, in.Threshold)
	if err != nil {
		return nil, err
	}

	edges, err := s.newEdges(graph.ID, candidates, index, in.Strategy, now)
	if err != nil {
		return nil, err
	}

	err = s.inUnitOfWork(ctx, "create_graph", func(uow ports.UnitOfWork) error {
		if err := uow.Graphs().Create(ctx, graph); err != nil {
			return err
		}
		if err := uow.Topics().CreateBatch(ctx, topics); err != nil {
			return err
		}
		return uow.Edges().CreateBatch(ctx, edges)
	})
	if err != nil {
		return nil, err
	}

	result = &GraphResult{
		GraphID:       graph.ID,
		TopicsCreated: len(topics),
		EdgesCreated:  len(edges),
		Strategy:      in.Strategy,
		Threshold:     in.Threshold,
	}

	s.logger.Info("Graph created",
		zap.String("graphID", graph.ID),
		zap.Int("topics", result.TopicsCreated),
		zap.Int("edges", result.EdgesCreated),
		zap.String("strategy", in.Strategy),
	)
	if s.metrics != nil {
		s.metrics.GraphsCreated.Inc()
		s.metrics.TopicsCreated.Add(float64(result.TopicsCreated))
		s.metrics.EdgesCreated.Add(float64(result.EdgesCreated))
	}
	s.publish(ctx, events.NewGraphCreated(graph.ID, graph.Name, result.TopicsCreated, result.EdgesCreated, in.Strategy, in.Threshold, now))

	return result, nil
}

// AddTopics adds the labels that are new to the graph and connects them to
// every topic, new or existing, they score at or above the threshold against.
// Pairs of pre-existing topics are never rescored. The graph is locked for the
// duration, so concurrent adds on one graph see each other's topics.
func (s *GraphService) AddTopics(ctx context.Context, graphID string, in AddTopicsInput) (result *GraphResult, err error) {
	ctx, span := s.tracer.Start(ctx, "GraphService.AddTopics",
		trace.WithAttributes(
			attribute.String("graph.id", graphID),
			attribute.Int("topics.requested", len(in.Topics)),
			attribute.String("strategy", in.Strategy),
			attribute.Float64("threshold", in.Threshold),
		),
	)
	defer func() { observability.EndSpan(span, err) }()

	if _, err := s.generator.Registry().Get(in.Strategy); err != nil {
		return nil, err
	}
	if err := s.validateLabels(in.Topics); err != nil {
		return nil, err
	}
	canonicalID, err := valueobjects.ParseID(graphID)
	if err != nil {
		return nil, apperrors.GraphNotFound(graphID)
	}
	graphID = canonicalID

	result = &GraphResult{
		GraphID:   graphID,
		Strategy:  in.Strategy,
		Threshold: in.Threshold,
	}
	var created []*entities.Topic
	now := s.now()

	err = s.inUnitOfWork(ctx, "add_topics", func(uow ports.UnitOfWork) error {
		if _, err := uow.Graphs().GetForUpdate(ctx, graphID); err != nil {
			return err
		}

		existing, err := uow.Topics().GetByGraphID(ctx, graphID)
		if err != nil {
			return err
		}
		present := make(map[string]struct{}, len(existing))
		for _, topic := range existing {
			present[topic.NormalizedLabel] = struct{}{}
		}

		fresh := domainservices.ExcludeExisting(domainservices.Deduplicate(in.Topics), present)
		if len(fresh) == 0 {
			return nil
		}
		if len(existing)+len(fresh) > s.config.MaxTopicsPerGraph {
			return apperrors.InvalidInput("a graph holds at most %d topics, adding %d to %d would exceed it",
				s.config.MaxTopicsPerGraph, len(fresh), len(existing))
		}

		topics, index, err := s.newTopics(graphID, fresh, existing, now)
		if err != nil {
			return err
		}

		labels := make([]string, 0, len(existing)+len(topics))
		labels = append(labels, labelsOf(existing)...)
		labels = append(labels, labelsOf(topics)...)

		candidates, err := s.generate(ctx, labels, in.Strategy, in.Threshold)
		if err != nil {
			return err
		}

		freshLabels := make(map[string]struct{}, len(topics))
		for _, topic := range topics {
			freshLabels[topic.NormalizedLabel] = struct{}{}
		}
		touching := candidates[:0]
		for _, c := range candidates {
			if domainservices.TouchesAny(c, freshLabels) {
				touching = append(touching, c)
			}
		}

		edges, err := s.newEdges(graphID, touching, index, in.Strategy, now)
		if err != nil {
			return err
		}

		if err := uow.Topics().CreateBatch(ctx, topics); err != nil {
			return err
		}
		if err := uow.Edges().CreateBatch(ctx, edges); err != nil {
			return err
		}

		created = topics
		result.TopicsCreated = len(topics)
		result.EdgesCreated = len(edges)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.TopicsCreated == 0 {
		s.logger.Debug("No new topics to add",
			zap.String("graphID", graphID),
			zap.Int("requested", len(in.Topics)),
		)
		return result, nil
	}

	s.logger.Info("Topics added",
		zap.String("graphID", graphID),
		zap.Int("topics", result.TopicsCreated),
		zap.Int("edges", result.EdgesCreated),
		zap.String("strategy", in.Strategy),
	)
	if s.metrics != nil {
		s.metrics.TopicsCreated.Add(float64(result.TopicsCreated))
		s.metrics.EdgesCreated.Add(float64(result.EdgesCreated))
	}
	s.invalidate(ctx, graphID)

	topicIDs := make([]string, len(created))
	for i, topic := range created {
		topicIDs[i] = topic.ID
	}
	s.publish(ctx, events.NewTopicsAdded(graphID, topicIDs, result.EdgesCreated, in.Strategy, in.Threshold, now))

	return result, nil
}

// RelatedTopics returns the topics sharing an edge with topicID, highest
// score first and ties by topic ID. limit is clamped to the configured
// default and maximum.
func (s *GraphService) RelatedTopics(ctx context.Context, graphID, topicID string, limit int) (result *RelatedTopicsResult, err error) {
	ctx, span := s.tracer.Start(ctx, "GraphService.RelatedTopics",
		trace.WithAttributes(
			attribute.String("graph.id", graphID),
			attribute.String("topic.id", topicID),
			attribute.Int("limit", limit),
		),
	)
	defer func() { observability.EndSpan(span, err) }()

	limit = s.config.ClampRelatedLimit(limit)

	canonicalTopic, err := valueobjects.ParseID(topicID)
	if err != nil {
		return nil, apperrors.TopicNotFound(topicID)
	}
	canonicalGraph, err := valueobjects.ParseID(graphID)
	if err != nil {
		return nil, apperrors.TopicNotFound(topicID)
	}
	graphID, topicID = canonicalGraph, canonicalTopic

	key := s.relatedKey(ctx, graphID, topicID, limit)
	if cached, ok := s.cachedRelated(ctx, key); ok {
		return cached, nil
	}

	result = &RelatedTopicsResult{
		GraphID: graphID,
		TopicID: topicID,
		Limit:   limit,
		Related: []RelatedTopic{},
	}

	err = s.read(ctx, func(uow ports.UnitOfWork) error {
		topic, err := uow.Topics().GetByID(ctx, graphID, topicID)
		if err != nil {
			return err
		}
		result.Label = topic.Label

		edges, err := uow.Edges().GetByTopicID(ctx, graphID, topicID)
		if err != nil {
			return err
		}
		if len(edges) == 0 {
			return nil
		}

		scores := make(map[string]float64, len(edges))
		for _, edge := range edges {
			if !edge.Touches(topicID) {
				continue
			}
			scores[edge.OtherEnd(topicID)] = edge.Score
		}

		ids := make([]string, 0, len(scores))
		for id := range scores {
			ids = append(ids, id)
		}
		neighbors, err := uow.Topics().GetByIDs(ctx, graphID, ids)
		if err != nil {
			return err
		}

		for _, topic := range neighbors {
			result.Related = append(result.Related, RelatedTopic{
				TopicID: topic.ID,
				Label:   topic.Label,
				Score:   scores[topic.ID],
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(result.Related, func(i, j int) bool {
		a, b := result.Related[i], result.Related[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.TopicID < b.TopicID
	})
	if len(result.Related) > limit {
		result.Related = result.Related[:limit]
	}

	s.storeRelated(ctx, key, result)
	return result, nil
}

// GetGraph returns a graph with all of its topics and edges
func (s *GraphService) GetGraph(ctx context.Context, graphID string) (detail *GraphDetail, err error) {
	ctx, span := s.tracer.Start(ctx, "GraphService.GetGraph",
		trace.WithAttributes(attribute.String("graph.id", graphID)),
	)
	defer func() { observability.EndSpan(span, err) }()

	canonicalID, err := valueobjects.ParseID(graphID)
	if err != nil {
		return nil, apperrors.GraphNotFound(graphID)
	}

	err = s.read(ctx, func(uow ports.UnitOfWork) error {
		graph, err := uow.Graphs().GetByID(ctx, canonicalID)
		if err != nil {
			return err
		}
		topics, err := uow.Topics().GetByGraphID(ctx, canonicalID)
		if err != nil {
			return err
		}
		edges, err := uow.Edges().GetByGraphID(ctx, canonicalID)
		if err != nil {
			return err
		}

		detail = &GraphDetail{
			ID:        graph.ID,
			Name:      graph.Name,
			CreatedAt: graph.CreatedAt,
			Nodes:     make([]GraphNode, len(topics)),
			Edges:     make([]GraphEdge, len(edges)),
		}
		for i, topic := range topics {
			detail.Nodes[i] = GraphNode{ID: topic.ID, Label: topic.Label}
		}
		for i, edge := range edges {
			detail.Edges[i] = GraphEdge{
				ID:       edge.ID,
				Source:   edge.SourceTopicID,
				Target:   edge.TargetTopicID,
				Score:    edge.Score,
				Strategy: edge.Strategy,
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// validateLabels rejects labels that are blank or longer than allowed
func (s *GraphService) validateLabels(labels []string) error {
	for i, label := range labels {
		if strings.TrimSpace(label) == "" {
			return apperrors.InvalidInput("topic %d is blank", i)
		}
		if n := len([]rune(label)); n > s.config.MaxLabelLength {
			return apperrors.InvalidInput("topic %d is %d characters long, the limit is %d", i, n, s.config.MaxLabelLength)
		}
	}
	return nil
}

// newTopics creates topic records for labels and returns them together with
// a normalized-label index covering both them and existing.
func (s *GraphService) newTopics(graphID string, labels []string, existing []*entities.Topic, now time.Time) ([]*entities.Topic, map[string]*entities.Topic, error) {
	index := make(map[string]*entities.Topic, len(existing)+len(labels))
	for _, topic := range existing {
		index[topic.NormalizedLabel] = topic
	}

	topics := make([]*entities.Topic, 0, len(labels))
	for _, label := range labels {
		topic, err := entities.NewTopic(s.ids.NewID(), graphID, label, domainservices.Normalize(label), now)
		if err != nil {
			return nil, nil, apperrors.InvalidInput("%s", err.Error())
		}
		topics = append(topics, topic)
		index[topic.NormalizedLabel] = topic
	}
	return topics, index, nil
}

// generate runs the relationship generator and records how long it took
func (s *GraphService) generate(ctx context.Context, labels []string, strategy string, threshold float64) ([]domainservices.EdgeCandidate, error) {
	_, span := s.tracer.Start(ctx, "RelationshipGenerator.Generate",
		trace.WithAttributes(attribute.Int("labels", len(labels))),
	)
	start := time.Now()
	candidates, err := s.generator.Generate(labels, strategy, threshold)
	observability.EndSpan(span, err)
	if err != nil {
		return nil, err
	}

	elapsed := time.Since(start)
	if s.metrics != nil {
		s.metrics.ObserveGeneration(strategy, len(labels), elapsed)
	}
	s.logger.Debug("Edge candidates generated",
		zap.Int("labels", len(labels)),
		zap.Int("candidates", len(candidates)),
		zap.Duration("elapsed", elapsed),
	)
	return candidates, nil
}

// newEdges resolves candidates to topic identities and builds edge records
func (s *GraphService) newEdges(graphID string, candidates []domainservices.EdgeCandidate, index map[string]*entities.Topic, strategy string, now time.Time) ([]*entities.Edge, error) {
	pairs, err := domainservices.ResolveCandidates(candidates, index)
	if err != nil {
		s.logger.Error("Edge candidates do not match graph topics",
			zap.String("graphID", graphID),
			zap.Int("candidates", len(candidates)),
			zap.Error(err),
		)
		return nil, err
	}

	edges := make([]*entities.Edge, 0, len(pairs))
	for _, pair := range pairs {
		score := domainservices.RoundScore(pair.Score, s.config.ScorePrecision)
		edge, err := entities.NewEdge(s.ids.NewID(), graphID, pair.SourceTopicID, pair.TargetTopicID, score, strategy, now)
		if err != nil {
			return nil, apperrors.InvariantViolation("%s", err.Error())
		}
		edges = append(edges, edge)
	}
	return edges, nil
}

// inUnitOfWork runs fn in a fresh unit of work and commits if it succeeds
func (s *GraphService) inUnitOfWork(ctx context.Context, operation string, fn func(ports.UnitOfWork) error) (err error) {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveStore(operation, err, time.Since(start))
		}
	}()

	uow, err := s.uowFactory.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if rbErr := uow.Rollback(); rbErr != nil {
			s.logger.Warn("Rollback failed", zap.String("operation", operation), zap.Error(rbErr))
		}
	}()

	if err := fn(uow); err != nil {
		return err
	}
	if err := uow.Commit(ctx); err != nil {
		return fmt.Errorf("commit %s: %w", operation, err)
	}
	return nil
}

// read runs fn in a unit of work that is always rolled back
func (s *GraphService) read(ctx context.Context, fn func(ports.UnitOfWork) error) error {
	uow, err := s.uowFactory.Begin(ctx)
	if err != nil {
		return err
	}
	defer uow.Rollback()
	return fn(uow)
}

// publish hands an event to the publisher; failures never fail the write
func (s *GraphService) publish(ctx context.Context, event events.DomainEvent) {
	if s.publisher == nil {
		return
	}

	status := "success"
	if err := s.publisher.Publish(ctx, event); err != nil {
		status = "error"
		s.logger.Warn("Failed to publish event",
			zap.String("type", event.GetEventType()),
			zap.String("aggregateID", event.GetAggregateID()),
			zap.Error(err),
		)
	}
	if s.metrics != nil {
		s.metrics.EventsPublished.WithLabelValues(event.GetEventType(), status).Inc()
	}
}

func generationKey(graphID string) string {
	return "graph:" + graphID + ":generation"
}

// relatedKey embeds the graph's cache generation, so bumping the generation
// orphans every related-topics entry of that graph.
func (s *GraphService) relatedKey(ctx context.Context, graphID, topicID string, limit int) string {
	if s.cache == nil {
		return ""
	}
	generation := "0"
	if value, ok := s.cache.Get(ctx, generationKey(graphID)); ok {
		generation = string(value)
	}
	return fmt.Sprintf("related:%s:%s:%s:%d", graphID, generation, topicID, limit)
}

func (s *GraphService) cachedRelated(ctx context.Context, key string) (*RelatedTopicsResult, bool) {
	if s.cache == nil || key == "" {
		return nil, false
	}

	value, ok := s.cache.Get(ctx, key)
	if ok {
		var result RelatedTopicsResult
		if err := json.Unmarshal(value, &result); err == nil {
			if s.metrics != nil {
				s.metrics.CacheHits.Inc()
			}
			return &result, true
		}
		s.logger.Warn("Discarding unreadable cache entry", zap.String("key", key))
	}
	if s.metrics != nil {
		s.metrics.CacheMisses.Inc()
	}
	return nil, false
}

func (s *GraphService) storeRelated(ctx context.Context, key string, result *RelatedTopicsResult) {
	if s.cache == nil || key == "" {
		return
	}
	value, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cacheTTL); err != nil {
		s.logger.Warn("Failed to cache related topics", zap.String("key", key), zap.Error(err))
	}
}

// invalidate bumps the graph's cache generation
func (s *GraphService) invalidate(ctx context.Context, graphID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, generationKey(graphID), []byte(s.ids.NewID()), 0); err != nil {
		s.logger.Warn("Failed to invalidate graph cache", zap.String("graphID", graphID), zap.Error(err))
	}
}

func labelsOf(topics []*entities.Topic) []string {
	labels := make([]string, len(topics))
	for i, topic := range topics {
		labels[i] = topic.NormalizedLabel
	}
	return labels
}
