package dynamodb

import (
	"context"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/jorge6242/graph-builder-api/application/ports"
	"github.com/jorge6242/graph-builder-api/domain/core/entities"
	apperrors "github.com/jorge6242/graph-builder-api/pkg/errors"
)

// unitOfWork buffers writes until Commit. Atomicity holds per graph.
type unitOfWork struct {
	store *Store
	id    string

	graphs []*entities.Graph
	topics []*entities.Topic
	edges  []*entities.Edge

	locks map[string]*Lock
	done  bool
}

func (u *unitOfWork) Graphs() ports.GraphRepository { return &graphRepository{uow: u} }
func (u *unitOfWork) Topics() ports.TopicRepository { return &topicRepository{uow: u} }
func (u *unitOfWork) Edges() ports.EdgeRepository   { return &edgeRepository{uow: u} }

// graphWrites groups the buffered writes of one graph
type graphWrites struct {
	graph  *entities.Graph
	topics []*entities.Topic
	edges  []*entities.Edge
}

func (u *unitOfWork) Commit(ctx context.Context) error {
	if u.done {
		return apperrors.NewInternalError("unit of work already finished")
	}
	defer u.finish()
	if err := ctx.Err(); err != nil {
		return err
	}

	order := make([]string, 0, 1)
	byGraph := make(map[string]*graphWrites)
	group := func(graphID string) *graphWrites {
		w, ok := byGraph[graphID]
		if !ok {
			w = &graphWrites{}
			byGraph[graphID] = w
			order = append(order, graphID)
		}
		return w
	}
	for _, g := range u.graphs {
		w := group(g.ID)
		if w.graph != nil {
			return apperrors.DuplicateRecord("graph "+g.ID, nil)
		}
		w.graph = g
	}
	for _, t := range u.topics {
		w := group(t.GraphID)
		w.topics = append(w.topics, t)
	}
	for _, e := range u.edges {
		w := group(e.GraphID)
		w.edges = append(w.edges, e)
	}

	for _, graphID := range order {
		w := byGraph[graphID]
		var err error
		switch {
		case w.graph != nil:
			err = u.commitNewGraph(ctx, w)
		case u.locks[graphID] != nil:
			err = u.commitAppend(ctx, graphID, w)
		default:
			err = apperrors.InvariantViolation("write to graph %s without holding its lock", graphID)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (u *unitOfWork) Rollback() error {
	if u.done {
		return nil
	}
	u.finish()
	return nil
}

// finish drops buffered writes and releases held locks
func (u *unitOfWork) finish() {
	u.done = true
	u.graphs, u.topics, u.edges = nil, nil, nil
	if len(u.locks) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()
	for graphID, lock := range u.locks {
		if err := lock.Release(ctx); err != nil {
			u.store.logger.Warn("Failed to release graph lock",
				zap.String("graphID", graphID),
				zap.Error(err),
			)
		}
	}
	u.locks = nil
}

// commitNewGraph writes a graph's items at version 1 and then creates META,
// which is what makes them visible.
func (u *unitOfWork) commitNewGraph(ctx context.Context, w *graphWrites) error {
	s := u.store
	existing, err := s.getMeta(ctx, w.graph.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		return apperrors.DuplicateRecord("graph "+w.graph.ID, nil)
	}
	if err := validateWrites(w, nil, nil); err != nil {
		return err
	}

	keys, err := s.writeItems(ctx, w, initialVersion)
	if err != nil {
		s.discard(keys)
		return err
	}
	if err := s.putMeta(ctx, w.graph); err != nil {
		s.discard(keys)
		return err
	}
	return nil
}

// commitAppend writes items under a freshly reserved version and publishes
// the version once every item is stored.
func (u *unitOfWork) commitAppend(ctx context.Context, graphID string, w *graphWrites) error {
	s := u.store
	meta, err := s.getMeta(ctx, graphID)
	if err != nil {
		return err
	}
	if meta == nil {
		return apperrors.GraphNotFound(graphID)
	}
	committedTopics, err := s.committedTopics(ctx, meta)
	if err != nil {
		return err
	}
	committedEdges, err := s.committedEdges(ctx, meta)
	if err != nil {
		return err
	}
	if err := validateWrites(w, committedTopics, committedEdges); err != nil {
		return err
	}

	version, err := s.reserveVersion(ctx, graphID)
	if err != nil {
		return err
	}
	keys, err := s.writeItems(ctx, w, version)
	if err != nil {
		s.discard(keys)
		return err
	}
	if u.locks[graphID].IsExpired() {
		s.discard(keys)
		return apperrors.NewConflictError("lock on graph " + graphID + " expired before commit")
	}
	if err := s.publishVersion(ctx, graphID, version); err != nil {
		s.discard(keys)
		return err
	}
	return nil
}

// writeItems stores topics and edges tagged with version. The returned keys
// cover every item attempted so a failure can be cleaned up.
func (s *Store) writeItems(ctx context.Context, w *graphWrites, version int64) ([]map[string]types.AttributeValue, error) {
	items := make([]interface{}, 0, len(w.topics)+len(w.edges))
	for _, t := range w.topics {
		items = append(items, newTopicItem(t, version))
	}
	for _, e := range w.edges {
		items = append(items, newEdgeItem(e, version))
	}

	requests, keys, err := putRequests(items)
	if err != nil {
		return nil, err
	}
	return keys, s.batchWrite(ctx, requests)
}

// validateWrites enforces label and pair uniqueness, edge orientation and
// edge endpoints against the committed state of the graph
func validateWrites(w *graphWrites, committedTopics []*entities.Topic, committedEdges []*entities.Edge) error {
	labels := make(map[string]bool, len(committedTopics)+len(w.topics))
	topicIDs := make(map[string]bool, len(committedTopics)+len(w.topics))
	for _, t := range committedTopics {
		labels[t.NormalizedLabel] = true
		topicIDs[t.ID] = true
	}
	for _, t := range w.topics {
		if labels[t.NormalizedLabel] {
			return apperrors.DuplicateRecord("topic "+t.NormalizedLabel, nil)
		}
		labels[t.NormalizedLabel] = true
		topicIDs[t.ID] = true
	}

	pairs := make(map[string]bool, len(committedEdges)+len(w.edges))
	for _, e := range committedEdges {
		pairs[edgeSK(e.SourceTopicID, e.TargetTopicID)] = true
	}
	for _, e := range w.edges {
		if e.SourceTopicID >= e.TargetTopicID {
			return apperrors.InvariantViolation("edge %s endpoints out of order", e.ID)
		}
		if !topicIDs[e.SourceTopicID] || !topicIDs[e.TargetTopicID] {
			return apperrors.InvariantViolation("edge %s references a topic outside graph %s", e.ID, e.GraphID)
		}
		key := edgeSK(e.SourceTopicID, e.TargetTopicID)
		if pairs[key] {
			return apperrors.DuplicateRecord("edge "+key, nil)
		}
		pairs[key] = true
	}
	return nil
}

func (u *unitOfWork) bufferedGraph(id string) *entities.Graph {
	for _, g := range u.graphs {
		if g.ID == id {
			return g
		}
	}
	return nil
}

type graphRepository struct {
	uow *unitOfWork
}

func (r *graphRepository) Create(ctx context.Context, graph *entities.Graph) error {
	copied := *graph
	r.uow.graphs = append(r.uow.graphs, &copied)
	return nil
}

func (r *graphRepository) GetByID(ctx context.Context, id string) (*entities.Graph, error) {
	if g := r.uow.bufferedGraph(id); g != nil {
		copied := *g
		return &copied, nil
	}
	meta, err := r.uow.store.getMeta(ctx, id)
	if err != nil {
		return nil, err
	}
	if meta == nil {
		return nil, apperrors.GraphNotFound(id)
	}
	return meta.toEntity(), nil
}

func (r *graphRepository) GetForUpdate(ctx context.Context, id string) (*entities.Graph, error) {
	if _, held := r.uow.locks[id]; held {
		return r.GetByID(ctx, id)
	}

	s := r.uow.store
	lock, err := s.locker.TryAcquireLock(ctx, graphPK(id), r.uow.id, s.lockDuration, s.lockTimeout)
	if err != nil {
		return nil, mapError("lock graph", err)
	}
	graph, err := r.GetByID(ctx, id)
	if err != nil {
		releaseCtx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()
		if releaseErr := lock.Release(releaseCtx); releaseErr != nil {
			s.logger.Warn("Failed to release graph lock", zap.String("graphID", id), zap.Error(releaseErr))
		}
		return nil, err
	}
	r.uow.locks[id] = lock
	return graph, nil
}

type topicRepository struct {
	uow *unitOfWork
}

func (r *topicRepository) CreateBatch(ctx context.Context, topics []*entities.Topic) error {
	for _, t := range topics {
		copied := *t
		r.uow.topics = append(r.uow.topics, &copied)
	}
	return nil
}

func (r *topicRepository) GetByGraphID(ctx context.Context, graphID string) ([]*entities.Topic, error) {
	var topics []*entities.Topic
	if r.uow.bufferedGraph(graphID) == nil {
		meta, err := r.uow.store.getMeta(ctx, graphID)
		if err != nil {
			return nil, err
		}
		if meta != nil {
			if topics, err = r.uow.store.committedTopics(ctx, meta); err != nil {
				return nil, err
			}
		}
	}
	sort.SliceStable(topics, func(i, j int) bool {
		if !topics[i].CreatedAt.Equal(topics[j].CreatedAt) {
			return topics[i].CreatedAt.Before(topics[j].CreatedAt)
		}
		return topics[i].ID < topics[j].ID
	})

	for _, t := range r.uow.topics {
		if t.GraphID == graphID {
			copied := *t
			topics = append(topics, &copied)
		}
	}
	if topics == nil {
		topics = []*entities.Topic{}
	}
	return topics, nil
}

func (r *topicRepository) GetByID(ctx context.Context, graphID, topicID string) (*entities.Topic, error) {
	for _, t := range r.uow.topics {
		if t.GraphID == graphID && t.ID == topicID {
			copied := *t
			return &copied, nil
		}
	}

	s := r.uow.store
	meta, err := s.getMeta(ctx, graphID)
	if err != nil {
		return nil, err
	}
	if meta == nil {
		return nil, apperrors.TopicNotFound(topicID)
	}

	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: graphPK(graphID)},
			"SK": &types.AttributeValueMemberS{Value: topicSK(topicID)},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, mapError("get topic", err)
	}
	if len(out.Item) == 0 {
		return nil, apperrors.TopicNotFound(topicID)
	}
	var item topicItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, apperrors.NewDatabaseError("decode topic", err)
	}
	if !meta.committed(item.Version) {
		return nil, apperrors.TopicNotFound(topicID)
	}
	return item.toEntity(), nil
}

func (r *topicRepository) GetByIDs(ctx context.Context, graphID string, topicIDs []string) ([]*entities.Topic, error) {
	wanted := make(map[string]bool, len(topicIDs))
	for _, id := range topicIDs {
		wanted[id] = true
	}

	all, err := r.GetByGraphID(ctx, graphID)
	if err != nil {
		return nil, err
	}
	topics := make([]*entities.Topic, 0, len(topicIDs))
	for _, t := range all {
		if wanted[t.ID] {
			topics = append(topics, t)
		}
	}
	return topics, nil
}

type edgeRepository struct {
	uow *unitOfWork
}

func (r *edgeRepository) CreateBatch(ctx context.Context, edges []*entities.Edge) error {
	for _, e := range edges {
		copied := *e
		r.uow.edges = append(r.uow.edges, &copied)
	}
	return nil
}

func (r *edgeRepository) GetByGraphID(ctx context.Context, graphID string) ([]*entities.Edge, error) {
	var edges []*entities.Edge
	if r.uow.bufferedGraph(graphID) == nil {
		meta, err := r.uow.store.getMeta(ctx, graphID)
		if err != nil {
			return nil, err
		}
		if meta != nil {
			if edges, err = r.uow.store.committedEdges(ctx, meta); err != nil {
				return nil, err
			}
		}
	}

	for _, e := range r.uow.edges {
		if e.GraphID == graphID {
			copied := *e
			edges = append(edges, &copied)
		}
	}
	if edges == nil {
		edges = []*entities.Edge{}
	}
	return edges, nil
}

func (r *edgeRepository) GetByTopicID(ctx context.Context, graphID, topicID string) ([]*entities.Edge, error) {
	all, err := r.GetByGraphID(ctx, graphID)
	if err != nil {
		return nil, err
	}
	edges := make([]*entities.Edge, 0)
	for _, e := range all {
		if e.Touches(topicID) {
			edges = append(edges, e)
		}
	}
	return edges, nil
}
