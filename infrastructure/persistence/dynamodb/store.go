// Package dynamodb stores graphs in a single DynamoDB table.
//
// Units of work buffer writes. On commit the items are written tagged with a
// version reserved from the graph's META record and become visible when that
// version is appended to META.CommittedVersions, so readers never observe a
// partially written batch. Writers to an existing graph hold a per-graph
// distributed lock from GetForUpdate until commit or rollback.
package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jorge6242/graph-builder-api/application/ports"
	"github.com/jorge6242/graph-builder-api/domain/core/entities"
	apperrors "github.com/jorge6242/graph-builder-api/pkg/errors"
)

const (
	batchWriteLimit = 25
	maxBatchRetries = 5
	defaultLockTTL  = 30 * time.Second
	defaultLockWait = 10 * time.Second
	releaseTimeout  = 5 * time.Second
	initialVersion  = int64(1)
	storeName       = "dynamodb"
)

// Store opens units of work against one DynamoDB table
type Store struct {
	client       API
	tableName    string
	locker       *DistributedLock
	logger       *zap.Logger
	lockDuration time.Duration
	lockTimeout  time.Duration
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithLockTimings sets how long a graph lock lives and how long to wait for it
func WithLockTimings(duration, wait time.Duration) StoreOption {
	return func(s *Store) {
		s.lockDuration = duration
		s.lockTimeout = wait
	}
}

// NewStore creates a store over tableName
func NewStore(client API, tableName string, logger *zap.Logger, opts ...StoreOption) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		client:       client,
		tableName:    tableName,
		locker:       NewDistributedLock(client, tableName, logger),
		logger:       logger,
		lockDuration: defaultLockTTL,
		lockTimeout:  defaultLockWait,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ping checks that the table is reachable
func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.tableName)}); err != nil {
		return mapError("describe table", err)
	}
	return nil
}

// EnsureTable creates the table if it does not exist and waits until it is active
func (s *Store) EnsureTable(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.tableName)})
	if err == nil {
		return nil
	}
	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return mapError("describe table", err)
	}

	_, err = s.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName:   aws.String(s.tableName),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("PK"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("SK"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("PK"), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String("SK"), KeyType: types.KeyTypeRange},
		},
	})
	if err != nil {
		return mapError("create table", err)
	}

	waiter := dynamodb.NewTableExistsWaiter(s.client)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.tableName)}, 2*time.Minute); err != nil {
		return fmt.Errorf("wait for table %s: %w", s.tableName, err)
	}
	s.logger.Info("DynamoDB table created", zap.String("table", s.tableName))
	return nil
}

// Begin implements ports.UnitOfWorkFactory
func (s *Store) Begin(ctx context.Context) (ports.UnitOfWork, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &unitOfWork{
		store: s,
		id:    uuid.NewString(),
		locks: make(map[string]*Lock),
	}, nil
}

// mapError classifies SDK errors; throttling and lock contention surface as
// STORE_UNAVAILABLE
func mapError(operation string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, ErrLockHeld) {
		return apperrors.StoreUnavailable(storeName, err)
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ProvisionedThroughputExceededException", "ThrottlingException", "RequestLimitExceeded":
			return apperrors.StoreUnavailable(storeName, err)
		}
	}
	return apperrors.NewDatabaseError(operation, err)
}

func isConditionFailed(err error) bool {
	var conditionalCheckFailed *types.ConditionalCheckFailedException
	return errors.As(err, &conditionalCheckFailed)
}

// getMeta reads a graph's META record; nil when the graph does not exist
func (s *Store) getMeta(ctx context.Context, graphID string) (*graphItem, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: graphPK(graphID)},
			"SK": &types.AttributeValueMemberS{Value: metaSK},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, mapError("get graph", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var item graphItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, apperrors.NewDatabaseError("decode graph", err)
	}
	return &item, nil
}

// queryPrefix loads every item of a graph partition whose sort key starts with prefix
func (s *Store) queryPrefix(ctx context.Context, graphID, prefix string) ([]map[string]types.AttributeValue, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(graphPK(graphID))).
		And(expression.Key("SK").BeginsWith(prefix))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	paginator := dynamodb.NewQueryPaginator(s.client, &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ConsistentRead:            aws.Bool(true),
	})

	var items []map[string]types.AttributeValue
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, mapError("query "+prefix, err)
		}
		items = append(items, page.Items...)
	}
	return items, nil
}

// committedTopics returns the visible topics of a graph
func (s *Store) committedTopics(ctx context.Context, meta *graphItem) ([]*entities.Topic, error) {
	raw, err := s.queryPrefix(ctx, meta.GraphID, topicPrefix)
	if err != nil {
		return nil, err
	}
	var items []topicItem
	if err := attributevalue.UnmarshalListOfMaps(raw, &items); err != nil {
		return nil, apperrors.NewDatabaseError("decode topics", err)
	}

	topics := make([]*entities.Topic, 0, len(items))
	for _, item := range items {
		if meta.committed(item.Version) {
			topics = append(topics, item.toEntity())
		}
	}
	return topics, nil
}

// committedEdges returns the visible edges of a graph
func (s *Store) committedEdges(ctx context.Context, meta *graphItem) ([]*entities.Edge, error) {
	raw, err := s.queryPrefix(ctx, meta.GraphID, edgePrefix)
	if err != nil {
		return nil, err
	}
	var items []edgeItem
	if err := attributevalue.UnmarshalListOfMaps(raw, &items); err != nil {
		return nil, apperrors.NewDatabaseError("decode edges", err)
	}

	edges := make([]*entities.Edge, 0, len(items))
	for _, item := range items {
		if meta.committed(item.Version) {
			edges = append(edges, item.toEntity())
		}
	}
	return edges, nil
}

// batchWrite sends write requests in chunks of 25, retrying unprocessed items
func (s *Store) batchWrite(ctx context.Context, requests []types.WriteRequest) error {
	for start := 0; start < len(requests); start += batchWriteLimit {
		pending := requests[start:min(start+batchWriteLimit, len(requests))]
		backoff := 50 * time.Millisecond

		for attempt := 0; len(pending) > 0; attempt++ {
			if attempt == maxBatchRetries {
				return apperrors.StoreUnavailable(storeName, fmt.Errorf("%d items left unprocessed", len(pending)))
			}
			if attempt > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(backoff):
					backoff *= 2
				}
			}

			out, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
				RequestItems: map[string][]types.WriteRequest{s.tableName: pending},
			})
			if err != nil {
				return mapError("batch write", err)
			}
			pending = out.UnprocessedItems[s.tableName]
		}
	}
	return nil
}

// putRequests marshals items into put requests and collects their keys
func putRequests(items []interface{}) ([]types.WriteRequest, []map[string]types.AttributeValue, error) {
	requests := make([]types.WriteRequest, 0, len(items))
	keys := make([]map[string]types.AttributeValue, 0, len(items))
	for _, item := range items {
		av, err := attributevalue.MarshalMap(item)
		if err != nil {
			return nil, nil, apperrors.NewDatabaseError("encode item", err)
		}
		requests = append(requests, types.WriteRequest{PutRequest: &types.PutRequest{Item: av}})
		keys = append(keys, map[string]types.AttributeValue{"PK": av["PK"], "SK": av["SK"]})
	}
	return requests, keys, nil
}

// discard deletes items written by a failed commit. They are invisible
// already; this only reclaims space.
func (s *Store) discard(keys []map[string]types.AttributeValue) {
	if len(keys) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()

	requests := make([]types.WriteRequest, len(keys))
	for i, key := range keys {
		requests[i] = types.WriteRequest{DeleteRequest: &types.DeleteRequest{Key: key}}
	}
	if err := s.batchWrite(ctx, requests); err != nil {
		s.logger.Warn("Failed to discard uncommitted items", zap.Int("items", len(keys)), zap.Error(err))
	}
}

// reserveVersion atomically bumps META.NextVersion and returns the new value
func (s *Store) reserveVersion(ctx context.Context, graphID string) (int64, error) {
	update := expression.Add(expression.Name("NextVersion"), expression.Value(1))
	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.AttributeExists(expression.Name("PK"))).
		Build()
	if err != nil {
		return 0, fmt.Errorf("build reserve: %w", err)
	}

	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: graphPK(graphID)},
			"SK": &types.AttributeValueMemberS{Value: metaSK},
		},
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueUpdatedNew,
	})
	if err != nil {
		if isConditionFailed(err) {
			return 0, apperrors.GraphNotFound(graphID)
		}
		return 0, mapError("reserve version", err)
	}

	n, ok := out.Attributes["NextVersion"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, apperrors.NewDatabaseError("reserve version", errors.New("NextVersion missing from response"))
	}
	return strconv.ParseInt(n.Value, 10, 64)
}

// publishVersion appends version to META.CommittedVersions
func (s *Store) publishVersion(ctx context.Context, graphID string, version int64) error {
	update := expression.Set(
		expression.Name("CommittedVersions"),
		expression.Name("CommittedVersions").ListAppend(expression.Value([]int64{version})),
	)
	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.AttributeExists(expression.Name("PK"))).
		Build()
	if err != nil {
		return fmt.Errorf("build publish: %w", err)
	}

	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: graphPK(graphID)},
			"SK": &types.AttributeValueMemberS{Value: metaSK},
		},
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		if isConditionFailed(err) {
			return apperrors.GraphNotFound(graphID)
		}
		return mapError("publish version", err)
	}
	return nil
}

// putMeta creates the META record of a new graph, making version 1 visible
func (s *Store) putMeta(ctx context.Context, graph *entities.Graph) error {
	av, err := attributevalue.MarshalMap(newGraphItem(graph, initialVersion))
	if err != nil {
		return apperrors.NewDatabaseError("encode graph", err)
	}
	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name("PK"))).
		Build()
	if err != nil {
		return fmt.Errorf("build create graph: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(s.tableName),
		Item:                      av,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		if isConditionFailed(err) {
			return apperrors.DuplicateRecord("graph "+graph.ID, err)
		}
		return mapError("create graph", err)
	}
	return nil
}
