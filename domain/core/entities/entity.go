package entities

import (
	"time"

	"mlmdview/domain/core/valueobjects"
)

// EntityType is the declared type of an artifact, execution or context
type EntityType struct {
	ID         int64                   `json:"id"`
	Role       valueobjects.Role       `json:"kind"`
	Name       string                  `json:"name"`
	Properties map[string]PropertyKind `json:"properties,omitempty"`
}

// ContextMembers lists the artifacts attributed to a context and the
// executions associated with it, by ascending id
type ContextMembers struct {
	Artifacts  []int64
	Executions []int64
}

// EntityRecord is an artifact, execution or context row as returned by the metadata store.
// It carries the type id only; the type name is resolved separately.
type EntityRecord struct {
	ID               int64
	TypeID           int64
	Name             string
	URI              string
	State            string
	CreateTime       time.Time
	UpdateTime       time.Time
	Properties       Properties
	CustomProperties Properties
}

// Entity is a fully typed artifact or execution, ready for display
type Entity struct {
	NodeID           valueobjects.NodeID `json:"-"`
	ID               int64               `json:"id"`
	Role             valueobjects.Role   `json:"role"`
	TypeID           int64               `json:"type_id"`
	TypeName         string              `json:"type"`
	Name             string              `json:"name,omitempty"`
	URI              string              `json:"uri,omitempty"`
	State            string              `json:"state,omitempty"`
	CreateTime       time.Time           `json:"ctime"`
	UpdateTime       time.Time           `json:"utime"`
	Properties       Properties          `json:"properties,omitempty"`
	CustomProperties Properties          `json:"custom_properties,omitempty"`
}

// NewEntity combines a stored record with its declared type
func NewEntity(id valueobjects.NodeID, record EntityRecord, typ EntityType) *Entity {
	state := record.State
	if state == "" && id.Role != valueobjects.RoleContext {
		state = string(ArtifactStateUnknown)
	}
	return &Entity{
		NodeID:           id,
		ID:               record.ID,
		Role:             id.Role,
		TypeID:           typ.ID,
		TypeName:         typ.Name,
		Name:             record.Name,
		URI:              record.URI,
		State:            state,
		CreateTime:       record.CreateTime,
		UpdateTime:       record.UpdateTime,
		Properties:       record.Properties,
		CustomProperties: record.CustomProperties,
	}
}

// StateName converts a stored state number into its name for the given role.
// Contexts have no state.
func StateName(role valueobjects.Role, code int64) string {
	switch role {
	case valueobjects.RoleExecution:
		return string(ExecutionStateFromCode(code))
	case valueobjects.RoleContext:
		return ""
	default:
		return string(ArtifactStateFromCode(code))
	}
}
