package dynamodb

import (
	"context"
	"fmt"

	"mlmdview/application/ports"
	"mlmdview/domain/core/entities"
	"mlmdview/domain/core/valueobjects"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// DynamoDBAPI is the subset of the DynamoDB client used by the metadata store
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// MetadataStore implements ports.MetadataStore over a single DynamoDB table
type MetadataStore struct {
	client    DynamoDBAPI
	tableName string
	indexName string
	logger    *zap.Logger
}

var _ ports.MetadataStore = (*MetadataStore)(nil)

// NewMetadataStore creates a new DynamoDB metadata store. indexName is the GSI
// holding every event keyed by time (GSI1).
func NewMetadataStore(client DynamoDBAPI, tableName, indexName string, logger *zap.Logger) *MetadataStore {
	if indexName == "" {
		indexName = "GSI1"
	}
	return &MetadataStore{
		client:    client,
		tableName: tableName,
		indexName: indexName,
		logger:    logger,
	}
}

// GetEntityByID implements ports.MetadataStore
func (s *MetadataStore) GetEntityByID(ctx context.Context, role valueobjects.Role, id int64) (*entities.EntityRecord, error) {
	var item entityItem
	found, err := s.getItem(ctx, entityPK(role, id), &item)
	if err != nil || !found {
		return nil, err
	}
	record := item.toRecord()
	return &record, nil
}

// GetTypeByID implements ports.MetadataStore
func (s *MetadataStore) GetTypeByID(ctx context.Context, role valueobjects.Role, typeID int64) (*entities.EntityType, error) {
	var item typeItem
	found, err := s.getItem(ctx, typePK(typeID), &item)
	if err != nil || !found {
		return nil, err
	}
	if valueobjects.Role(item.Role) != role {
		s.logger.Debug("Type exists with another role",
			zap.Int64("typeID", typeID),
			zap.String("wantRole", string(role)),
			zap.String("role", item.Role),
		)
		return nil, nil
	}
	typ := item.toEntityType()
	return &typ, nil
}

func (s *MetadataStore) getItem(ctx context.Context, pk string, out interface{}) (bool, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"PK": pk, "SK": metadataSK})
	if err != nil {
		return false, fmt.Errorf("failed to marshal key: %w", err)
	}

	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       key,
	})
	if err != nil {
		return false, fmt.Errorf("failed to get %s: %w", pk, err)
	}
	if len(result.Item) == 0 {
		return false, nil
	}
	if err := attributevalue.UnmarshalMap(result.Item, out); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", pk, err)
	}
	return true, nil
}

// GetEventsFor implements ports.MetadataStore
func (s *MetadataStore) GetEventsFor(ctx context.Context, role valueobjects.Role, id int64) ([]entities.Event, error) {
	keyEx := expression.Key("PK").Equal(expression.Value(entityPK(role, id))).
		And(expression.Key("SK").BeginsWith(eventPrefix))

	expr, err := expression.NewBuilder().WithKeyCondition(keyEx).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(true),
	}
	return s.queryEvents(ctx, input, 0, -1)
}

// ListEvents implements ports.MetadataStore
func (s *MetadataStore) ListEvents(ctx context.Context, filter ports.EventFilter) ([]entities.Event, error) {
	filter = filter.Normalize()

	var keyEx expression.KeyConditionBuilder
	var indexName *string
	switch {
	case filter.ArtifactID != nil:
		keyEx = expression.Key("PK").Equal(expression.Value(entityPK(valueobjects.RoleArtifact, *filter.ArtifactID))).
			And(expression.Key("SK").BeginsWith(eventPrefix))
	case filter.ExecutionID != nil:
		keyEx = expression.Key("PK").Equal(expression.Value(entityPK(valueobjects.RoleExecution, *filter.ExecutionID))).
			And(expression.Key("SK").BeginsWith(eventPrefix))
	default:
		keyEx = expression.Key("GSI1PK").Equal(expression.Value(eventsGSI1PK))
		indexName = aws.String(s.indexName)
	}

	builder := expression.NewBuilder().WithKeyCondition(keyEx)
	if filter.ArtifactID != nil && filter.ExecutionID != nil {
		builder = builder.WithFilter(expression.Name("ExecutionID").Equal(expression.Value(*filter.ExecutionID)))
	}
	expr, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		IndexName:                 indexName,
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(filter.Asc),
	}
	return s.queryEvents(ctx, input, filter.Offset, filter.Limit)
}

// queryEvents pages through a query, skipping offset events and returning at
// most limit of them (limit < 0 means all)
func (s *MetadataStore) queryEvents(ctx context.Context, input *dynamodb.QueryInput, offset, limit int) ([]entities.Event, error) {
	events := []entities.Event{}
	skipped := 0

	paginator := dynamodb.NewQueryPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to query events: %w", err)
		}

		var items []eventItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal events: %w", err)
		}

		for _, item := range items {
			if skipped < offset {
				skipped++
				continue
			}
			event, err := item.toEvent()
			if err != nil {
				return nil, fmt.Errorf("invalid event item %s/%s: %w", item.PK, item.SK, err)
			}
			events = append(events, event)
			if limit >= 0 && len(events) >= limit {
				return events, nil
			}
		}
	}
	return events, nil
}

// GetContextMembers implements ports.MetadataStore
func (s *MetadataStore) GetContextMembers(ctx context.Context, contextID int64) (*entities.ContextMembers, error) {
	keyEx := expression.Key("PK").Equal(expression.Value(entityPK(valueobjects.RoleContext, contextID))).
		And(expression.Key("SK").BeginsWith(memberPrefix))

	expr, err := expression.NewBuilder().WithKeyCondition(keyEx).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	members := &entities.ContextMembers{Artifacts: []int64{}, Executions: []int64{}}
	paginator := dynamodb.NewQueryPaginator(s.client, &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(true),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to query members of context %d: %w", contextID, err)
		}

		var items []memberItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal members: %w", err)
		}
		// member keys are zero padded, so each role arrives in id order
		for _, item := range items {
			switch valueobjects.Role(item.Role) {
			case valueobjects.RoleArtifact:
				members.Artifacts = append(members.Artifacts, item.MemberID)
			case valueobjects.RoleExecution:
				members.Executions = append(members.Executions, item.MemberID)
			}
		}
	}
	return members, nil
}

// Ping implements ports.MetadataStore
func (s *MetadataStore) Ping(ctx context.Context) error {
	out, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.tableName)})
	if err != nil {
		return fmt.Errorf("failed to describe table %s: %w", s.tableName, err)
	}
	if out.Table != nil && out.Table.TableStatus != types.TableStatusActive {
		return fmt.Errorf("table %s is %s", s.tableName, out.Table.TableStatus)
	}
	return nil
}

// Close implements ports.MetadataStore
func (s *MetadataStore) Close() error {
	return nil
}
