package entities

import (
	"time"

	"mlmdview/domain/core/valueobjects"
)

// Event records that an execution consumed or produced an artifact
type Event struct {
	// ID is the store-assigned event id, zero when the source has none
	ID          int64                  `json:"id,omitempty"`
	ArtifactID  int64                  `json:"artifact_id"`
	ExecutionID int64                  `json:"execution_id"`
	Type        valueobjects.EventType `json:"type"`
	Path        valueobjects.EventPath `json:"path,omitempty"`
	Time        time.Time              `json:"time"`
}

// Artifact returns the artifact endpoint of the event
func (e Event) Artifact() valueobjects.NodeID {
	return valueobjects.ArtifactID(e.ArtifactID)
}

// Execution returns the execution endpoint of the event
func (e Event) Execution() valueobjects.NodeID {
	return valueobjects.ExecutionID(e.ExecutionID)
}

// Endpoint returns the id of the event's endpoint with the given role
func (e Event) Endpoint(role valueobjects.Role) valueobjects.NodeID {
	if role == valueobjects.RoleArtifact {
		return e.Artifact()
	}
	return e.Execution()
}

// Label combines the event type and its path for display
func (e Event) Label() string {
	if len(e.Path) == 0 {
		return e.Type.String()
	}
	return e.Type.String() + "\n" + e.Path.String()
}
