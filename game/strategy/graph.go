package strategy

import (
	"fmt"
	"slices"

	"github.com/wricardo/mcp-training/vectorrace/game/engine"
)

// Edge is a directed edge between two positions
type Edge struct {
	From engine.Vector2 `json:"from"`
	To   engine.Vector2 `json:"to"`
}

// Graph is a directed graph of positions stored as a node list with
// adjacency lists by index
type Graph struct {
	nodes []engine.Vector2
	index map[engine.Vector2]int
	succ  [][]int
	pred  [][]int
	edges int
}

// NewGraph returns an empty graph
func NewGraph() *Graph {
	return &Graph{index: make(map[engine.Vector2]int)}
}

// AddNode adds a node for pos and reports whether it was newly created
func (g *Graph) AddNode(pos engine.Vector2) (int, bool) {
	if i, ok := g.index[pos]; ok {
		return i, false
	}
	i := len(g.nodes)
	g.nodes = append(g.nodes, pos)
	g.index[pos] = i
	g.succ = append(g.succ, nil)
	g.pred = append(g.pred, nil)
	return i, true
}

// AddEdge adds the edge from -> to. Both nodes must exist. Adding an existing
// edge is a no-op.
func (g *Graph) AddEdge(from, to engine.Vector2) error {
	fi, ok := g.index[from]
	if !ok {
		return fmt.Errorf("edge source %v is not in the graph", from)
	}
	ti, ok := g.index[to]
	if !ok {
		return fmt.Errorf("edge target %v is not in the graph", to)
	}
	if slices.Contains(g.succ[fi], ti) {
		return nil
	}
	g.succ[fi] = append(g.succ[fi], ti)
	g.pred[ti] = append(g.pred[ti], fi)
	g.edges++
	return nil
}

// Contains reports whether pos is a node
func (g *Graph) Contains(pos engine.Vector2) bool {
	_, ok := g.index[pos]
	return ok
}

// ContainsEdge reports whether the edge from -> to exists
func (g *Graph) ContainsEdge(from, to engine.Vector2) bool {
	fi, ok := g.index[from]
	if !ok {
		return false
	}
	ti, ok := g.index[to]
	if !ok {
		return false
	}
	return slices.Contains(g.succ[fi], ti)
}

// Successors returns the targets of the edges leaving pos, in insertion order
func (g *Graph) Successors(pos engine.Vector2) []engine.Vector2 {
	i, ok := g.index[pos]
	if !ok {
		return nil
	}
	return g.positions(g.succ[i])
}

// Predecessors returns the sources of the edges entering pos
func (g *Graph) Predecessors(pos engine.Vector2) []engine.Vector2 {
	i, ok := g.index[pos]
	if !ok {
		return nil
	}
	return g.positions(g.pred[i])
}

func (g *Graph) positions(indices []int) []engine.Vector2 {
	out := make([]engine.Vector2, len(indices))
	for k, i := range indices {
		out[k] = g.nodes[i]
	}
	return out
}

// NodeCount returns the number of nodes
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges
func (g *Graph) EdgeCount() int { return g.edges }

// IsEmpty reports whether the graph has no nodes
func (g *Graph) IsEmpty() bool { return len(g.nodes) == 0 }

// Nodes returns all nodes in insertion order
func (g *Graph) Nodes() []engine.Vector2 {
	return slices.Clone(g.nodes)
}

// Edges returns all edges grouped by source in node insertion order
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, 0, g.edges)
	for fi, targets := range g.succ {
		for _, ti := range targets {
			edges = append(edges, Edge{From: g.nodes[fi], To: g.nodes[ti]})
		}
	}
	return edges
}

// Clear removes all nodes and edges
func (g *Graph) Clear() {
	g.nodes = nil
	g.index = make(map[engine.Vector2]int)
	g.succ = nil
	g.pred = nil
	g.edges = 0
}
