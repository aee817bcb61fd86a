// Package sqlstore persists graphs in a relational database through gorm.
// PostgreSQL is the production target; SQLite serves local runs and tests.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormLogger "gorm.io/gorm/logger"

	"github.com/jorge6242/graph-builder-api/application/ports"
	"github.com/jorge6242/graph-builder-api/domain/core/entities"
	apperrors "github.com/jorge6242/graph-builder-api/pkg/errors"
)

// Supported drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const insertBatchSize = 200

// Store opens gorm transactions as units of work
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Open connects to the database behind dsn with the named driver
func Open(driver, dsn string, logger *zap.Logger) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormLogger.Default.LogMode(gormLogger.Silent),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		// SQLite allows one writer; a single connection serializes units of work
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	return New(db, logger), nil
}

// New wraps an open gorm handle
func New(db *gorm.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, logger: logger}
}

// DB exposes the gorm handle
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Migrate creates or updates the schema
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&GraphModel{}, &TopicModel{}, &EdgeModel{}); err != nil {
		return apperrors.NewDatabaseError("migrate", err)
	}
	s.logger.Info("Schema migrated", zap.String("dialect", s.db.Dialector.Name()))
	return nil
}

// Ping checks the connection
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the connection pool
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Begin implements ports.UnitOfWorkFactory
func (s *Store) Begin(ctx context.Context) (ports.UnitOfWork, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, mapError("begin", tx.Error)
	}
	return &unitOfWork{tx: tx, dialect: s.db.Dialector.Name()}, nil
}

type unitOfWork struct {
	tx      *gorm.DB
	dialect string
	done    bool
}

func (u *unitOfWork) Graphs() ports.GraphRepository { return &graphRepository{uow: u} }
func (u *unitOfWork) Topics() ports.TopicRepository { return &topicRepository{uow: u} }
func (u *unitOfWork) Edges() ports.EdgeRepository   { return &edgeRepository{uow: u} }

func (u *unitOfWork) Commit(ctx context.Context) error {
	if u.done {
		return apperrors.NewInternalError("unit of work already finished")
	}
	u.done = true
	if err := u.tx.Commit().Error; err != nil {
		return mapError("commit", err)
	}
	return nil
}

func (u *unitOfWork) Rollback() error {
	if u.done {
		return nil
	}
	u.done = true
	if err := u.tx.Rollback().Error; err != nil && !errors.Is(err, gorm.ErrInvalidTransaction) {
		return mapError("rollback", err)
	}
	return nil
}

func (u *unitOfWork) db(ctx context.Context) *gorm.DB {
	return u.tx.WithContext(ctx)
}

// mapError translates driver errors into application errors
func mapError(operation string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperrors.DuplicateRecord(operation, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated), errors.Is(err, gorm.ErrCheckConstraintViolated):
		return apperrors.InvariantViolation("%s violates a schema constraint: %v", operation, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return apperrors.NewDatabaseError(operation, err)
	}
}

type graphRepository struct {
	uow *unitOfWork
}

func (r *graphRepository) Create(ctx context.Context, graph *entities.Graph) error {
	if err := r.uow.db(ctx).Create(graphFromEntity(graph)).Error; err != nil {
		return mapError("create graph", err)
	}
	return nil
}

func (r *graphRepository) GetByID(ctx context.Context, id string) (*entities.Graph, error) {
	return r.get(r.uow.db(ctx), id)
}

// GetForUpdate takes a row lock on PostgreSQL. SQLite runs on a single
// connection, so the open transaction already excludes every other one.
func (r *graphRepository) GetForUpdate(ctx context.Context, id string) (*entities.Graph, error) {
	q := r.uow.db(ctx)
	if r.uow.dialect == DriverPostgres {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return r.get(q, id)
}

func (r *graphRepository) get(q *gorm.DB, id string) (*entities.Graph, error) {
	var m GraphModel
	if err := q.Where("id = ?", id).Take(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.GraphNotFound(id)
		}
		return nil, mapError("get graph", err)
	}
	return m.toEntity(), nil
}

type topicRepository struct {
	uow *unitOfWork
}

func (r *topicRepository) CreateBatch(ctx context.Context, topics []*entities.Topic) error {
	if len(topics) == 0 {
		return nil
	}
	models := make([]*TopicModel, len(topics))
	for i, t := range topics {
		models[i] = topicFromEntity(t)
	}
	if err := r.uow.db(ctx).Omit(clause.Associations).CreateInBatches(models, insertBatchSize).Error; err != nil {
		return mapError("create topics", err)
	}
	return nil
}

func (r *topicRepository) GetByGraphID(ctx context.Context, graphID string) ([]*entities.Topic, error) {
	var models []*TopicModel
	err := r.uow.db(ctx).
		Where("graph_id = ?", graphID).
		Order("created_at ASC").Order("id ASC").
		Find(&models).Error
	if err != nil {
		return nil, mapError("list topics", err)
	}
	return topicsToEntities(models), nil
}

func (r *topicRepository) GetByID(ctx context.Context, graphID, topicID string) (*entities.Topic, error) {
	var m TopicModel
	err := r.uow.db(ctx).Where("graph_id = ? AND id = ?", graphID, topicID).Take(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.TopicNotFound(topicID)
		}
		return nil, mapError("get topic", err)
	}
	return m.toEntity(), nil
}

func (r *topicRepository) GetByIDs(ctx context.Context, graphID string, topicIDs []string) ([]*entities.Topic, error) {
	if len(topicIDs) == 0 {
		return []*entities.Topic{}, nil
	}
	var models []*TopicModel
	err := r.uow.db(ctx).Where("graph_id = ? AND id IN ?", graphID, topicIDs).Find(&models).Error
	if err != nil {
		return nil, mapError("get topics", err)
	}
	return topicsToEntities(models), nil
}

func topicsToEntities(models []*TopicModel) []*entities.Topic {
	topics := make([]*entities.Topic, len(models))
	for i, m := range models {
		topics[i] = m.toEntity()
	}
	return topics
}

type edgeRepository struct {
	uow *unitOfWork
}

func (r *edgeRepository) CreateBatch(ctx context.Context, edges []*entities.Edge) error {
	if len(edges) == 0 {
		return nil
	}
	models := make([]*EdgeModel, len(edges))
	for i, e := range edges {
		models[i] = edgeFromEntity(e)
	}
	if err := r.uow.db(ctx).Omit(clause.Associations).CreateInBatches(models, insertBatchSize).Error; err != nil {
		return mapError("create edges", err)
	}
	return nil
}

func (r *edgeRepository) GetByGraphID(ctx context.Context, graphID string) ([]*entities.Edge, error) {
	var models []*EdgeModel
	err := r.uow.db(ctx).
		Where("graph_id = ?", graphID).
		Order("source_topic_id ASC").Order("target_topic_id ASC").
		Find(&models).Error
	if err != nil {
		return nil, mapError("list edges", err)
	}
	return edgesToEntities(models), nil
}

func (r *edgeRepository) GetByTopicID(ctx context.Context, graphID, topicID string) ([]*entities.Edge, error) {
	var models []*EdgeModel
	err := r.uow.db(ctx).
		Where("graph_id = ? AND (source_topic_id = ? OR target_topic_id = ?)", graphID, topicID, topicID).
		Find(&models).Error
	if err != nil {
		return nil, mapError("list topic edges", err)
	}
	return edgesToEntities(models), nil
}

func edgesToEntities(models []*EdgeModel) []*entities.Edge {
	edges := make([]*entities.Edge, len(models))
	for i, m := range models {
		edges[i] = m.toEntity()
	}
	return edges
}
