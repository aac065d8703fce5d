package services

import (
	"fmt"
	"strings"

	"mlmdview/domain/core/aggregates"
	"mlmdview/domain/core/valueobjects"
)

// DotRenderer serializes lineage graphs into Graphviz DOT
type DotRenderer struct {
	linkBase string
}

// NewDotRenderer creates a renderer whose node URLs are prefixed with linkBase.
// An empty linkBase yields relative links.
func NewDotRenderer(linkBase string) *DotRenderer {
	return &DotRenderer{linkBase: strings.TrimRight(linkBase, "/")}
}

// Render returns the DOT description of graph. Nodes are sorted by id and edges
// by (source, target) so identical graphs render identically.
func (r *DotRenderer) Render(graph *aggregates.LineageGraph) string {
	var sb strings.Builder

	sb.WriteString("digraph lineage {\n")

	for _, node := range graph.Nodes() {
		id := node.ID()
		label := fmt.Sprintf("%s\n%s\nin=%d,out=%d", id, node.Entity.TypeName, node.Inputs, node.Outputs)
		fmt.Fprintf(&sb, "  %s [label=%s, shape=%s, URL=%s];\n",
			quote(id.String()),
			quote(label),
			shapeOf(id),
			quote(r.Link(id)),
		)
	}

	for _, edge := range graph.Edges() {
		fmt.Fprintf(&sb, "  %s -> %s [label=%s];\n",
			quote(edge.Source.String()),
			quote(edge.Target.String()),
			quote(edge.Event.Label()),
		)
	}

	sb.WriteString("}\n")
	return sb.String()
}

// Link returns the detail view URL of a node
func (r *DotRenderer) Link(id valueobjects.NodeID) string {
	return fmt.Sprintf("%s/%s/%d", r.linkBase, id.Role.Plural(), id.ID)
}

// TypeLink returns the detail view URL of an artifact, execution or context type
func (r *DotRenderer) TypeLink(role valueobjects.Role, typeID int64) string {
	return fmt.Sprintf("%s/%s/%d", r.linkBase, role.TypeCollection(), typeID)
}

func shapeOf(id valueobjects.NodeID) string {
	if id.IsExecution() {
		return "box"
	}
	return "ellipse"
}

var dotEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\r\n", `\n`,
	"\n", `\n`,
	"\r", `\n`,
)

// quote produces a DOT double-quoted string
func quote(s string) string {
	return `"` + dotEscaper.Replace(s) + `"`
}
