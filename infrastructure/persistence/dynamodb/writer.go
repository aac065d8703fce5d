package dynamodb

import (
	"context"
	"fmt"

	"mlmdview/domain/core/entities"
	"mlmdview/domain/core/valueobjects"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"
)

// PutType writes an artifact, execution or context type
func (s *MetadataStore) PutType(ctx context.Context, typ entities.EntityType) error {
	props := make(map[string]string, len(typ.Properties))
	for name, kind := range typ.Properties {
		props[name] = string(kind)
	}
	return s.put(ctx, typeItem{
		PK:         typePK(typ.ID),
		SK:         metadataSK,
		EntityType: "TYPE",
		ID:         typ.ID,
		Role:       string(typ.Role),
		Name:       typ.Name,
		Properties: props,
	})
}

// PutEntity writes an artifact, execution or context record
func (s *MetadataStore) PutEntity(ctx context.Context, role valueobjects.Role, record entities.EntityRecord) error {
	return s.put(ctx, newEntityItem(role, record))
}

// PutEvent writes both sides of an event
func (s *MetadataStore) PutEvent(ctx context.Context, event entities.Event) error {
	artifactSide, executionSide := newEventItems(event)
	if err := s.put(ctx, artifactSide); err != nil {
		return err
	}
	return s.put(ctx, executionSide)
}

func (s *MetadataStore) put(ctx context.Context, item interface{}) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	}); err != nil {
		s.logger.Error("Failed to write item to DynamoDB",
			zap.Error(err),
			zap.String("table", s.tableName),
		)
		return fmt.Errorf("failed to put item: %w", err)
	}
	return nil
}

// PutContextMembers writes the attributions and associations of a context
func (s *MetadataStore) PutContextMembers(ctx context.Context, contextID int64, members entities.ContextMembers) error {
	for _, id := range members.Artifacts {
		if err := s.put(ctx, newMemberItem(contextID, valueobjects.RoleArtifact, id)); err != nil {
			return err
		}
	}
	for _, id := range members.Executions {
		if err := s.put(ctx, newMemberItem(contextID, valueobjects.RoleExecution, id)); err != nil {
			return err
		}
	}
	return nil
}
