// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package lattice

import (
	"fmt"
	"slices"
)

// Subgraph is the subgraph of a [Grid] induced by a set of nodes. It is
// immutable; duplicate input nodes collapse to one.
type Subgraph struct {
	grid  *Grid
	nodes []Node
	set   map[Node]struct{}
}

// Subgraph builds the subgraph induced by nodes. It panics if a node lies
// outside the grid.
func (g *Grid) Subgraph(nodes []Node) *Subgraph {
	set := make(map[Node]struct{}, len(nodes))
	sorted := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		if !g.Contains(n) {
			panic(fmt.Sprintf("node %v outside %dx%d grid", n, g.rows, g.cols))
		}
		if _, ok := set[n]; ok {
			continue
		}
		set[n] = struct{}{}
		sorted = append(sorted, n)
	}
	slices.SortFunc(sorted, Node.Compare)
	return &Subgraph{grid: g, nodes: sorted, set: set}
}

// Len returns the number of nodes.
func (s *Subgraph) Len() int { return len(s.nodes) }

// Nodes returns the node set in row-major order. The caller must not modify
// the returned slice.
func (s *Subgraph) Nodes() []Node { return s.nodes }

// Contains reports whether n is in the node set.
func (s *Subgraph) Contains(n Node) bool {
	_, ok := s.set[n]
	return ok
}

// Edges returns the grid edges whose endpoints are both in the subgraph,
// ordered by their From node.
func (s *Subgraph) Edges() []Edge {
	var out []Edge
	for _, n := range s.nodes {
		for _, m := range s.grid.Neighbors(n) {
			if n.Compare(m) < 0 && s.Contains(m) && s.grid.Adjacent(n, m) {
				out = append(out, Edge{From: n, To: m})
			}
		}
	}
	return out
}

// IsBoundary reports whether n belongs to the subgraph and has at least one
// grid neighbor outside it.
func (s *Subgraph) IsBoundary(n Node) bool {
	if !s.Contains(n) {
		return false
	}
	for _, m := range s.grid.Neighbors(n) {
		if !s.Contains(m) {
			return true
		}
	}
	return false
}

// BoundaryNodes returns the subgraph's boundary nodes in row-major order.
func (s *Subgraph) BoundaryNodes() []Node {
	var out []Node
	for _, n := range s.nodes {
		if s.IsBoundary(n) {
			out = append(out, n)
		}
	}
	return out
}

// BoundaryCount returns the number of boundary nodes.
func (s *Subgraph) BoundaryCount() int {
	return len(s.BoundaryNodes())
}

// Union returns the subgraph induced on grid by the union of both node sets.
func Union(grid *Grid, a, b *Subgraph) *Subgraph {
	nodes := make([]Node, 0, a.Len()+b.Len())
	nodes = append(nodes, a.nodes...)
	nodes = append(nodes, b.nodes...)
	return grid.Subgraph(nodes)
}

// Equal reports whether both subgraphs have the same node set.
func (s *Subgraph) Equal(o *Subgraph) bool {
	return slices.Equal(s.nodes, o.nodes)
}
