// internal/models/lineage.go
package models

// LineageEdgeType is the only relationship type walked by lineage traversal.
const LineageEdgeType = "LOADS_INTO"

type NodeKind string

const (
	NodeCenter  NodeKind = "center"
	NodeRelated NodeKind = "related"
)

type LineageNode struct {
	ID    string   `json:"id"`
	Label string   `json:"label"`
	Kind  NodeKind `json:"type"`
}

type LineageEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type"`
}

// LineageGraph holds unique nodes in first-seen order and every traversed edge.
type LineageGraph struct {
	Nodes []LineageNode `json:"nodes"`
	Edges []LineageEdge `json:"edges"`

	index map[string]int
}

// NewLineageGraph seeds the graph with the center node.
func NewLineageGraph(center string) *LineageGraph {
	g := &LineageGraph{
		Nodes: []LineageNode{},
		Edges: []LineageEdge{},
		index: make(map[string]int),
	}
	g.addNode(center, NodeCenter)
	return g
}

// AddRelated inserts a related node unless a node with that name already exists.
func (g *LineageGraph) AddRelated(name string) bool {
	return g.addNode(name, NodeRelated)
}

func (g *LineageGraph) addNode(name string, kind NodeKind) bool {
	if _, ok := g.index[name]; ok {
		return false
	}
	g.index[name] = len(g.Nodes)
	g.Nodes = append(g.Nodes, LineageNode{ID: name, Label: name, Kind: kind})
	return true
}

// AddEdge appends a lineage edge. Duplicates are kept.
func (g *LineageGraph) AddEdge(source, target string) {
	g.Edges = append(g.Edges, LineageEdge{Source: source, Target: target, Type: LineageEdgeType})
}

func (g *LineageGraph) HasNode(name string) bool {
	_, ok := g.index[name]
	return ok
}

// DedupeEdges drops repeated (source, target) pairs, keeping the first of each.
func (g *LineageGraph) DedupeEdges() {
	seen := make(map[[2]string]struct{}, len(g.Edges))
	kept := g.Edges[:0]
	for _, e := range g.Edges {
		key := [2]string{e.Source, e.Target}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, e)
	}
	g.Edges = kept
}
