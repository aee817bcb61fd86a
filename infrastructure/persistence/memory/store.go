// Package memory is an in-process store with the same transactional
// guarantees as the database-backed stores. It backs tests and local runs.
package memory

import (
	"context"
	"sync"

	"github.com/jorge6242/graph-builder-api/application/ports"
	"github.com/jorge6242/graph-builder-api/domain/core/entities"
	apperrors "github.com/jorge6242/graph-builder-api/pkg/errors"
)

// Store holds committed graphs, topics and edges
type Store struct {
	mu     sync.RWMutex
	graphs map[string]*entities.Graph
	topics map[string][]*entities.Topic
	edges  map[string][]*entities.Edge

	locksMu sync.Mutex
	locks   map[string]chan struct{}
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		graphs: make(map[string]*entities.Graph),
		topics: make(map[string][]*entities.Topic),
		edges:  make(map[string][]*entities.Edge),
		locks:  make(map[string]chan struct{}),
	}
}

// Begin implements ports.UnitOfWorkFactory
func (s *Store) Begin(ctx context.Context) (ports.UnitOfWork, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &unitOfWork{store: s}, nil
}

// lock acquires the per-graph lock, waiting until ctx is done
func (s *Store) lock(ctx context.Context, graphID string) error {
	s.locksMu.Lock()
	ch, ok := s.locks[graphID]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[graphID] = ch
	}
	s.locksMu.Unlock()

	select {
	case ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) unlock(graphID string) {
	s.locksMu.Lock()
	ch := s.locks[graphID]
	s.locksMu.Unlock()
	<-ch
}

// unitOfWork buffers writes and applies them under the store lock on commit
type unitOfWork struct {
	store *Store

	graphs []*entities.Graph
	topics []*entities.Topic
	edges  []*entities.Edge

	held []string
	done bool
}

func (u *unitOfWork) Graphs() ports.GraphRepository { return &graphRepository{uow: u} }
func (u *unitOfWork) Topics() ports.TopicRepository { return &topicRepository{uow: u} }
func (u *unitOfWork) Edges() ports.EdgeRepository   { return &edgeRepository{uow: u} }

// Commit validates every buffered write against committed state and applies
// all of them, or none.
func (u *unitOfWork) Commit(ctx context.Context) error {
	if u.done {
		return apperrors.NewInternalError("unit of work already finished")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s := u.store
	s.mu.Lock()
	err := u.validate()
	if err == nil {
		for _, g := range u.graphs {
			s.graphs[g.ID] = g
		}
		for _, t := range u.topics {
			s.topics[t.GraphID] = append(s.topics[t.GraphID], t)
		}
		for _, e := range u.edges {
			s.edges[e.GraphID] = append(s.edges[e.GraphID], e)
		}
	}
	s.mu.Unlock()

	u.finish()
	return err
}

// Rollback discards buffered writes and releases held locks
func (u *unitOfWork) Rollback() error {
	if u.done {
		return nil
	}
	u.finish()
	return nil
}

func (u *unitOfWork) finish() {
	u.done = true
	u.graphs, u.topics, u.edges = nil, nil, nil
	for _, id := range u.held {
		u.store.unlock(id)
	}
	u.held = nil
}

// validate enforces the uniqueness and reference constraints; the caller
// holds the store write lock.
func (u *unitOfWork) validate() error {
	s := u.store

	graphs := make(map[string]bool, len(u.graphs))
	for _, g := range u.graphs {
		if _, ok := s.graphs[g.ID]; ok || graphs[g.ID] {
			return apperrors.DuplicateRecord("graph "+g.ID, nil)
		}
		graphs[g.ID] = true
	}

	// Per-graph indexes over committed state, built on first use
	labels := make(map[string]map[string]bool)
	topicIDs := make(map[string]map[string]bool)
	pairs := make(map[string]map[string]bool)
	indexTopics := func(graphID string) {
		if _, ok := labels[graphID]; ok {
			return
		}
		labels[graphID] = make(map[string]bool)
		topicIDs[graphID] = make(map[string]bool)
		for _, t := range s.topics[graphID] {
			labels[graphID][t.NormalizedLabel] = true
			topicIDs[graphID][t.ID] = true
		}
	}

	for _, t := range u.topics {
		if _, ok := s.graphs[t.GraphID]; !ok && !graphs[t.GraphID] {
			return apperrors.GraphNotFound(t.GraphID)
		}
		indexTopics(t.GraphID)
		if labels[t.GraphID][t.NormalizedLabel] {
			return apperrors.DuplicateRecord("topic "+t.NormalizedLabel, nil)
		}
		labels[t.GraphID][t.NormalizedLabel] = true
		topicIDs[t.GraphID][t.ID] = true
	}

	for _, e := range u.edges {
		if e.SourceTopicID >= e.TargetTopicID {
			return apperrors.InvariantViolation("edge %s endpoints out of order", e.ID)
		}
		indexTopics(e.GraphID)
		if !topicIDs[e.GraphID][e.SourceTopicID] || !topicIDs[e.GraphID][e.TargetTopicID] {
			return apperrors.InvariantViolation("edge %s references a topic outside graph %s", e.ID, e.GraphID)
		}

		existing, ok := pairs[e.GraphID]
		if !ok {
			existing = make(map[string]bool, len(s.edges[e.GraphID]))
			for _, committed := range s.edges[e.GraphID] {
				existing[committed.SourceTopicID+"|"+committed.TargetTopicID] = true
			}
			pairs[e.GraphID] = existing
		}
		key := e.SourceTopicID + "|" + e.TargetTopicID
		if existing[key] {
			return apperrors.DuplicateRecord("edge "+key, nil)
		}
		existing[key] = true
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
	for _, g := range r.uow.graphs {
		if g.ID == id {
			copied := *g
			return &copied, nil
		}
	}

	s := r.uow.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.graphs[id]
	if !ok {
		return nil, apperrors.GraphNotFound(id)
	}
	copied := *g
	return &copied, nil
}

func (r *graphRepository) GetForUpdate(ctx context.Context, id string) (*entities.Graph, error) {
	for _, held := range r.uow.held {
		if held == id {
			return r.GetByID(ctx, id)
		}
	}

	if err := r.uow.store.lock(ctx, id); err != nil {
		return nil, err
	}
	graph, err := r.GetByID(ctx, id)
	if err != nil {
		r.uow.store.unlock(id)
		return nil, err
	}
	r.uow.held = append(r.uow.held, id)
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
	s := r.uow.store
	s.mu.RLock()
	committed := s.topics[graphID]
	topics := make([]*entities.Topic, 0, len(committed))
	for _, t := range committed {
		copied := *t
		topics = append(topics, &copied)
	}
	s.mu.RUnlock()

	for _, t := range r.uow.topics {
		if t.GraphID == graphID {
			copied := *t
			topics = append(topics, &copied)
		}
	}
	return topics, nil
}

func (r *topicRepository) GetByID(ctx context.Context, graphID, topicID string) (*entities.Topic, error) {
	topics, err := r.GetByIDs(ctx, graphID, []string{topicID})
	if err != nil {
		return nil, err
	}
	if len(topics) == 0 {
		return nil, apperrors.TopicNotFound(topicID)
	}
	return topics[0], nil
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
	s := r.uow.store
	s.mu.RLock()
	committed := s.edges[graphID]
	edges := make([]*entities.Edge, 0, len(committed))
	for _, e := range committed {
		copied := *e
		edges = append(edges, &copied)
	}
	s.mu.RUnlock()

	for _, e := range r.uow.edges {
		if e.GraphID == graphID {
			copied := *e
			edges = append(edges, &copied)
		}
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
