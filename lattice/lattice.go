// Package lattice provides the immutable graph topology the field engine
// runs on: plain adjacency with per-edge topological-sensitivity (TS)
// flags and an optional antipode mapping between identified node pairs.
package lattice

import (
	"fmt"
	"sort"
)

// NodeID identifies a single lattice site.
type NodeID int

// Edge is an undirected edge between two sites. TS marks the edge as
// topologically sensitive: it connects a node to its identification
// partner and couples with a π phase offset in the field model.
type Edge struct {
	U  NodeID
	V  NodeID
	TS bool
}

// Topology is the read-only contract the engine consumes. Implementations
// must return nodes in a stable order and must not change for the lifetime
// of a simulation run.
type Topology interface {
	// Nodes returns every node ID in a stable order.
	Nodes() []NodeID
	// Neighbors returns the adjacency list of n. The returned slice must
	// not be mutated by callers.
	Neighbors(n NodeID) []NodeID
	// IsTS reports whether the edge (a, b) exists and is marked
	// topologically sensitive.
	IsTS(a, b NodeID) bool
	// Antipode returns the identification partner of n, if any.
	Antipode(n NodeID) (NodeID, bool)
	// Edges returns every undirected edge exactly once.
	Edges() []Edge
	// Center returns the designated central node, used by the
	// single-center activation pattern.
	Center() NodeID
}

type edgeKey struct {
	a, b NodeID
}

func keyFor(u, v NodeID) edgeKey {
	if u > v {
		u, v = v, u
	}
	return edgeKey{a: u, b: v}
}

// Graph is an adjacency-indexed Topology built once and then treated as
// read-only. The adjacency index is precomputed at build time so per-tick
// components never pay for repeated edge scans.
type Graph struct {
	nodes     []NodeID
	adjacency map[NodeID][]NodeID
	edges     map[edgeKey]bool // value: TS flag
	antipodes map[NodeID]NodeID
	center    NodeID
	hasCenter bool
}

// NewGraph constructs an empty graph.
func NewGraph() *Graph {
	return &Graph{
		adjacency: make(map[NodeID][]NodeID),
		edges:     make(map[edgeKey]bool),
		antipodes: make(map[NodeID]NodeID),
	}
}

// AddNode registers a node. Adding the same node twice is an error since
// the engine requires exactly one field entry per site.
func (g *Graph) AddNode(n NodeID) error {
	if _, ok := g.adjacency[n]; ok {
		return fmt.Errorf("lattice: node %d already present", n)
	}
	g.nodes = append(g.nodes, n)
	g.adjacency[n] = nil
	return nil
}

// AddEdge registers an undirected edge between two existing nodes.
func (g *Graph) AddEdge(u, v NodeID, ts bool) error {
	if u == v {
		return fmt.Errorf("lattice: self-edge on node %d", u)
	}
	if _, ok := g.adjacency[u]; !ok {
		return fmt.Errorf("lattice: edge (%d,%d): node %d unknown", u, v, u)
	}
	if _, ok := g.adjacency[v]; !ok {
		return fmt.Errorf("lattice: edge (%d,%d): node %d unknown", u, v, v)
	}
	key := keyFor(u, v)
	if _, ok := g.edges[key]; ok {
		return fmt.Errorf("lattice: edge (%d,%d) already present", u, v)
	}
	g.edges[key] = ts
	g.adjacency[u] = append(g.adjacency[u], v)
	g.adjacency[v] = append(g.adjacency[v], u)
	return nil
}

// SetAntipode records u and v as identification partners of each other.
// A node may have at most one antipode; a node may be its own antipode
// (the fixed point of the identification).
func (g *Graph) SetAntipode(u, v NodeID) error {
	if existing, ok := g.antipodes[u]; ok && existing != v {
		return fmt.Errorf("lattice: node %d already has antipode %d", u, existing)
	}
	if existing, ok := g.antipodes[v]; ok && existing != u {
		return fmt.Errorf("lattice: node %d already has antipode %d", v, existing)
	}
	g.antipodes[u] = v
	g.antipodes[v] = u
	return nil
}

// SetCenter designates the central node for single-center initialization.
func (g *Graph) SetCenter(n NodeID) error {
	if _, ok := g.adjacency[n]; !ok {
		return fmt.Errorf("lattice: center node %d unknown", n)
	}
	g.center = n
	g.hasCenter = true
	return nil
}

// Nodes returns node IDs in insertion order. Implements Topology.
func (g *Graph) Nodes() []NodeID {
	return g.nodes
}

// Neighbors implements Topology.
func (g *Graph) Neighbors(n NodeID) []NodeID {
	return g.adjacency[n]
}

// IsTS implements Topology.
func (g *Graph) IsTS(a, b NodeID) bool {
	return g.edges[keyFor(a, b)]
}

// Antipode implements Topology.
func (g *Graph) Antipode(n NodeID) (NodeID, bool) {
	partner, ok := g.antipodes[n]
	return partner, ok
}

// Edges returns all edges once, ordered by (min, max) node ID so exports
// are reproducible. Implements Topology.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, len(g.edges))
	for key, ts := range g.edges {
		out = append(out, Edge{U: key.a, V: key.b, TS: ts})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].U != out[j].U {
			return out[i].U < out[j].U
		}
		return out[i].V < out[j].V
	})
	return out
}

// Center implements Topology. It falls back to the first node when no
// center was designated, so small hand-built test graphs still work with
// the single-center pattern.
func (g *Graph) Center() NodeID {
	if g.hasCenter {
		return g.center
	}
	if len(g.nodes) > 0 {
		return g.nodes[0]
	}
	return 0
}

// NumNodes returns the node count.
func (g *Graph) NumNodes() int { return len(g.nodes) }

// NumEdges returns the edge count.
func (g *Graph) NumEdges() int { return len(g.edges) }
