package aggregates

import (
	"errors"
	"fmt"
	"sort"

	"mlmdview/domain/core/entities"
	"mlmdview/domain/core/valueobjects"
)

// MaxLineageNodes is the node cap of a single lineage graph
const MaxLineageNodes = 100

var (
	// ErrTooManyNodes is returned when a graph would exceed its node cap
	ErrTooManyNodes = errors.New("too many nodes in lineage graph")

	// ErrDuplicateNode is returned when a node id is inserted twice
	ErrDuplicateNode = errors.New("duplicate lineage node")

	// ErrDanglingEdge is returned by Validate when an edge references a missing node
	ErrDanglingEdge = errors.New("edge references a node outside the graph")
)

// LineageNode is one artifact or execution of a lineage graph together with
// the number of input and output events recorded for it.
type LineageNode struct {
	Entity  *entities.Entity
	Inputs  int
	Outputs int
}

// ID returns the node's identity
func (n *LineageNode) ID() valueobjects.NodeID {
	return n.Entity.NodeID
}

// NewLineageNode creates a node and derives its counters from its own events
func NewLineageNode(entity *entities.Entity, events []entities.Event) *LineageNode {
	node := &LineageNode{Entity: entity}
	for _, e := range events {
		switch {
		case e.Type.IsInput():
			node.Inputs++
		case e.Type.IsOutput():
			node.Outputs++
		}
	}
	return node
}

// LineageEdge is a directed "source produced/supplied target" relation
type LineageEdge struct {
	Source valueobjects.NodeID
	Target valueobjects.NodeID
	Event  entities.Event
}

// LineageGraph is the provenance graph built for one seed.
// It is built by a single goroutine and discarded after rendering.
type LineageGraph struct {
	seed     valueobjects.NodeID
	maxNodes int
	nodes    map[valueobjects.NodeID]*LineageNode
	edges    []LineageEdge
}

// NewLineageGraph creates an empty graph for the given seed with the default node cap
func NewLineageGraph(seed valueobjects.NodeID) *LineageGraph {
	return NewLineageGraphWithLimit(seed, MaxLineageNodes)
}

// NewLineageGraphWithLimit creates an empty graph with a custom node cap.
// Caps above MaxLineageNodes are clamped.
func NewLineageGraphWithLimit(seed valueobjects.NodeID, maxNodes int) *LineageGraph {
	if maxNodes <= 0 || maxNodes > MaxLineageNodes {
		maxNodes = MaxLineageNodes
	}
	return &LineageGraph{
		seed:     seed,
		maxNodes: maxNodes,
		nodes:    make(map[valueobjects.NodeID]*LineageNode),
		edges:    []LineageEdge{},
	}
}

// Seed returns the lineage seed
func (g *LineageGraph) Seed() valueobjects.NodeID {
	return g.seed
}

// MaxNodes returns the node cap
func (g *LineageGraph) MaxNodes() int {
	return g.maxNodes
}

// HasNode reports whether the id has already been inserted
func (g *LineageGraph) HasNode(id valueobjects.NodeID) bool {
	_, ok := g.nodes[id]
	return ok
}

// AddNode inserts a completed node. The node is rejected when the graph is
// already at its cap, so the graph never holds more than MaxNodes entries.
func (g *LineageGraph) AddNode(node *LineageNode) error {
	if node == nil || node.Entity == nil {
		return errors.New("lineage node requires an entity")
	}
	id := node.ID()
	if g.HasNode(id) {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, id)
	}
	if len(g.nodes) >= g.maxNodes {
		return fmt.Errorf("%w: %s would be node %d of at most %d", ErrTooManyNodes, id, len(g.nodes)+1, g.maxNodes)
	}
	g.nodes[id] = node
	return nil
}

// AddEdge appends an edge. Endpoints may be discovered later in the traversal.
func (g *LineageGraph) AddEdge(source, target valueobjects.NodeID, event entities.Event) {
	g.edges = append(g.edges, LineageEdge{Source: source, Target: target, Event: event})
}

// Node returns the node with the given id
func (g *LineageGraph) Node(id valueobjects.NodeID) (*LineageNode, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// NodeCount returns the number of nodes
func (g *LineageGraph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges
func (g *LineageGraph) EdgeCount() int {
	return len(g.edges)
}

// Nodes returns the nodes sorted by id
func (g *LineageGraph) Nodes() []*LineageNode {
	nodes := make([]*LineageNode, 0, len(g.nodes))
	for _, n := range g.nodes {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].ID().Less(nodes[j].ID())
	})
	return nodes
}

// Edges returns the edges sorted by (source, target), keeping insertion
// order between edges with the same endpoints
func (g *LineageGraph) Edges() []LineageEdge {
	edges := make([]LineageEdge, len(g.edges))
	copy(edges, g.edges)
	sort.SliceStable(edges, func(i, j int) bool {
		if edges[i].Source != edges[j].Source {
			return edges[i].Source.Less(edges[j].Source)
		}
		return edges[i].Target.Less(edges[j].Target)
	})
	return edges
}

// Validate checks that every edge endpoint is present in the node set
func (g *LineageGraph) Validate() error {
	for _, e := range g.edges {
		if !g.HasNode(e.Source) {
			return fmt.Errorf("%w: %s -> %s (missing %s)", ErrDanglingEdge, e.Source, e.Target, e.Source)
		}
		if !g.HasNode(e.Target) {
			return fmt.Errorf("%w: %s -> %s (missing %s)", ErrDanglingEdge, e.Source, e.Target, e.Target)
		}
	}
	return nil
}
