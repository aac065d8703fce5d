package valueobjects

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Role discriminates the kinds of stored entities. Only artifacts and
// executions appear in lineage graphs.
type Role string

const (
	RoleArtifact  Role = "artifact"
	RoleExecution Role = "execution"
	// RoleContext groups artifacts and executions
	RoleContext Role = "context"
)

// ParseRole converts a role name into a Role
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "artifact", "artifacts", "a":
		return RoleArtifact, nil
	case "execution", "executions", "e":
		return RoleExecution, nil
	default:
		return "", fmt.Errorf("unknown role: %q", s)
	}
}

// ParseKind is ParseRole extended with contexts
func ParseKind(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "context", "contexts", "c":
		return RoleContext, nil
	}
	return ParseRole(s)
}

// Valid reports whether the role is a lineage role
func (r Role) Valid() bool {
	return r == RoleArtifact || r == RoleExecution
}

// Opposite returns the other role
func (r Role) Opposite() Role {
	if r == RoleArtifact {
		return RoleExecution
	}
	return RoleArtifact
}

// Prefix returns the single-letter display prefix of the role
func (r Role) Prefix() string {
	switch r {
	case RoleArtifact:
		return "A"
	case RoleContext:
		return "C"
	default:
		return "E"
	}
}

// Plural returns the collection name used in URLs
func (r Role) Plural() string {
	return string(r) + "s"
}

// TypeCollection returns the URL collection of the role's types, e.g. "artifact_types"
func (r Role) TypeCollection() string {
	return string(r) + "_types"
}

// NodeID is a value object identifying one node of a lineage graph.
// Two NodeIDs are equal iff they share role and numeric id, so the struct is
// used directly as a map key.
type NodeID struct {
	Role Role
	ID   int64
}

// ArtifactID creates a NodeID for an artifact
func ArtifactID(id int64) NodeID {
	return NodeID{Role: RoleArtifact, ID: id}
}

// ExecutionID creates a NodeID for an execution
func ExecutionID(id int64) NodeID {
	return NodeID{Role: RoleExecution, ID: id}
}

// NewNodeID creates a NodeID after validating its parts
func NewNodeID(role Role, id int64) (NodeID, error) {
	if !role.Valid() {
		return NodeID{}, fmt.Errorf("invalid role: %q", role)
	}
	if id <= 0 {
		return NodeID{}, errors.New("node ID must be a positive integer")
	}
	return NodeID{Role: role, ID: id}, nil
}

// ParseNodeID parses the display form ("A7", "E42")
func ParseNodeID(s string) (NodeID, error) {
	if len(s) < 2 {
		return NodeID{}, fmt.Errorf("invalid node ID: %q", s)
	}
	role, err := ParseRole(s[:1])
	if err != nil {
		return NodeID{}, fmt.Errorf("invalid node ID: %q", s)
	}
	id, err := strconv.ParseInt(s[1:], 10, 64)
	if err != nil {
		return NodeID{}, fmt.Errorf("invalid node ID: %q", s)
	}
	return NewNodeID(role, id)
}

// String returns the display form, e.g. "A7" or "E42"
func (id NodeID) String() string {
	return id.Role.Prefix() + strconv.FormatInt(id.ID, 10)
}

// IsArtifact reports whether the node is an artifact
func (id NodeID) IsArtifact() bool {
	return id.Role == RoleArtifact
}

// IsExecution reports whether the node is an execution
func (id NodeID) IsExecution() bool {
	return id.Role == RoleExecution
}

// IsZero checks if the NodeID is the zero value
func (id NodeID) IsZero() bool {
	return id.Role == "" && id.ID == 0
}

// Less orders artifacts before executions, then by ascending id
func (id NodeID) Less(other NodeID) bool {
	if id.Role != other.Role {
		return id.Role == RoleArtifact
	}
	return id.ID < other.ID
}

// MarshalText implements encoding.TextMarshaler
func (id NodeID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (id *NodeID) UnmarshalText(data []byte) error {
	parsed, err := ParseNodeID(string(data))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
