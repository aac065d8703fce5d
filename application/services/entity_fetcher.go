package services

import (
	"context"
	"errors"

	"mlmdview/application/ports"
	"mlmdview/domain/core/entities"
	"mlmdview/domain/core/valueobjects"
	apperrors "mlmdview/pkg/errors"
)

// ErrNotFound is the cause attached to errors for ids the store does not know
var ErrNotFound = errors.New("entity not found")

// EntityFetcher loads one artifact or execution together with its declared type.
// Every call goes to the store: two round trips, no caching.
type EntityFetcher struct {
	store ports.MetadataStore
}

// NewEntityFetcher creates a new entity fetcher
func NewEntityFetcher(store ports.MetadataStore) *EntityFetcher {
	return &EntityFetcher{store: store}
}

// Fetch returns the display-ready entity for id
func (f *EntityFetcher) Fetch(ctx context.Context, id valueobjects.NodeID) (*entities.Entity, error) {
	record, err := f.store.GetEntityByID(ctx, id.Role, id.ID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("get "+string(id.Role), err)
	}
	if record == nil {
		return nil, apperrors.NewNotFoundError(id.String()).WithCause(ErrNotFound)
	}

	typ, err := f.store.GetTypeByID(ctx, id.Role, record.TypeID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("get "+string(id.Role)+" type", err)
	}
	if typ == nil {
		// The store references a type it cannot return: the metadata is inconsistent.
		return nil, apperrors.NewInternalError("type of " + id.String() + " is missing").
			WithDetails(map[string]interface{}{"type_id": record.TypeID})
	}

	return entities.NewEntity(id, *record, *typ), nil
}
