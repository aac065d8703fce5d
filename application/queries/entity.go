package queries

import (
	"mlmdview/domain/core/entities"
	"mlmdview/domain/core/valueobjects"
)

// GetEntityQuery asks for the detail of one artifact or execution
type GetEntityQuery struct {
	Role string `validate:"required,oneof=artifact execution"`
	ID   int64  `validate:"gt=0"`
}

// Validate validates the GetEntityQuery
func (q GetEntityQuery) Validate() error {
	return validate(q)
}

// NodeID returns the id of the requested entity
func (q GetEntityQuery) NodeID() valueobjects.NodeID {
	return valueobjects.NodeID{Role: valueobjects.Role(q.Role), ID: q.ID}
}

// GetEntityResult is an entity with links to its own page and its lineage graph
type GetEntityResult struct {
	*entities.Entity
	Node     string `json:"node"`
	URL      string `json:"url"`
	GraphURL string `json:"graph_url"`
}
