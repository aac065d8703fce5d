package queries

import (
	"mlmdview/domain/core/entities"
	"mlmdview/domain/core/valueobjects"
)

// GetContextQuery asks for one context with its attributed artifacts and associated executions
type GetContextQuery struct {
	ID int64 `validate:"gt=0"`
}

// Validate validates the GetContextQuery
func (q GetContextQuery) Validate() error {
	return validate(q)
}

// NodeID returns the id of the requested context
func (q GetContextQuery) NodeID() valueobjects.NodeID {
	return valueobjects.NodeID{Role: valueobjects.RoleContext, ID: q.ID}
}

// NodeLink points at the detail view of an artifact or execution
type NodeLink struct {
	Node     string `json:"node"`
	URL      string `json:"url"`
	GraphURL string `json:"graph_url"`
}

// GetContextResult is a context together with links to its members
type GetContextResult struct {
	*entities.Entity
	Node       string     `json:"node"`
	URL        string     `json:"url"`
	TypeURL    string     `json:"type_url"`
	Artifacts  []NodeLink `json:"artifacts"`
	Executions []NodeLink `json:"executions"`
}
