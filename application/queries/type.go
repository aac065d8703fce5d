package queries

import (
	"mlmdview/domain/core/entities"
	"mlmdview/domain/core/valueobjects"
)

// GetTypeQuery asks for one artifact, execution or context type
type GetTypeQuery struct {
	Kind string `validate:"required,oneof=artifact execution context"`
	ID   int64  `validate:"gt=0"`
}

// Validate validates the GetTypeQuery
func (q GetTypeQuery) Validate() error {
	return validate(q)
}

// Role returns the kind of entity the type describes
func (q GetTypeQuery) Role() valueobjects.Role {
	return valueobjects.Role(q.Kind)
}

// GetTypeResult is a type with its own URL
type GetTypeResult struct {
	entities.EntityType
	URL string `json:"url"`
}
