package ports

import (
	"context"

	"mlmdview/domain/core/entities"
	"mlmdview/domain/core/valueobjects"
)

// MetadataStore is the read-only port onto the ML metadata store.
// This is a port in hexagonal architecture - the application doesn't know about the backend.
//
// Lookups by id return (nil, nil) when nothing matches; an error always means the
// store itself failed.
type MetadataStore interface {
	// GetEntityByID retrieves one artifact, execution or context
	GetEntityByID(ctx context.Context, role valueobjects.Role, id int64) (*entities.EntityRecord, error)

	// GetTypeByID retrieves an artifact, execution or context type. A type of
	// another kind with the same id does not match.
	GetTypeByID(ctx context.Context, role valueobjects.Role, typeID int64) (*entities.EntityType, error)

	// GetContextMembers lists the artifacts and executions of a context.
	// Unknown contexts have no members.
	GetContextMembers(ctx context.Context, contextID int64) (*entities.ContextMembers, error)

	// GetEventsFor retrieves every event whose artifact (or execution) is the given id
	GetEventsFor(ctx context.Context, role valueobjects.Role, id int64) ([]entities.Event, error)

	// ListEvents retrieves a page of events
	ListEvents(ctx context.Context, filter EventFilter) ([]entities.Event, error)

	// Ping checks connectivity
	Ping(ctx context.Context) error

	// Close releases the underlying connection
	Close() error
}

// EventFilter defines event listing parameters
type EventFilter struct {
	ArtifactID  *int64
	ExecutionID *int64
	Limit       int
	Offset      int
	Asc         bool
}

// DefaultEventLimit is the page size used when no limit is given
const DefaultEventLimit = 100

// Normalize applies defaults
func (f EventFilter) Normalize() EventFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultEventLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}
