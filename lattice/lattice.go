// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package lattice models the rectangular grid graph that gets partitioned,
// and the node-induced subgraphs of it that partitions and merge results
// carry around.
//
// A [Grid] wraps an lvlath grid graph with 4-connectivity and its core graph
// form; adjacency and edge membership come from there. A [Subgraph] stores
// only its node set; its edges are always re-derived from the grid, so
// merging two subgraphs can never leak stale or partial edge sets.
package lattice

import (
	"cmp"
	"fmt"

	"github.com/katalvlaran/lvlath/core"
	"github.com/katalvlaran/lvlath/gridgraph"

	"github.com/petenewcomb/latticesim-go/internal/cerr"
)

// ErrEmptyGrid is returned by [NewGrid] for a grid without rows or columns.
const ErrEmptyGrid = cerr.Error("lattice: grid must have at least one row and one column")

// Node identifies a grid site by its coordinates.
type Node struct {
	Row, Col int
}

func (n Node) String() string {
	return fmt.Sprintf("(%d,%d)", n.Row, n.Col)
}

// Compare orders nodes row-major.
func (n Node) Compare(o Node) int {
	if c := cmp.Compare(n.Row, o.Row); c != 0 {
		return c
	}
	return cmp.Compare(n.Col, o.Col)
}

// Edge is an undirected grid edge with From ordered before To.
type Edge struct {
	From, To Node
}

// Grid is an immutable rows×cols lattice with 4-neighbor adjacency.
type Grid struct {
	rows, cols int
	gg         *gridgraph.GridGraph
	graph      *core.Graph
}

// NewGrid builds a rows×cols grid. Every site is land, so the whole grid is
// one connected component.
func NewGrid(rows, cols int) (*Grid, error) {
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("%w: rows=%d, cols=%d", ErrEmptyGrid, rows, cols)
	}
	values := make([][]int, rows)
	for r := range values {
		values[r] = make([]int, cols)
		for c := range values[r] {
			values[r][c] = 1
		}
	}
	opts := gridgraph.DefaultGridOptions()
	opts.Conn = gridgraph.Conn4
	gg, err := gridgraph.NewGridGraph(values, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmptyGrid, err)
	}
	return &Grid{rows: rows, cols: cols, gg: gg, graph: gg.ToCoreGraph()}, nil
}

// Rows returns the number of grid rows.
func (g *Grid) Rows() int { return g.rows }

// Cols returns the number of grid columns.
func (g *Grid) Cols() int { return g.cols }

// Len returns the number of nodes in the grid.
func (g *Grid) Len() int { return g.rows * g.cols }

// Contains reports whether n lies within the grid.
func (g *Grid) Contains(n Node) bool {
	return g.gg.InBounds(n.Col, n.Row)
}

// Neighbors returns the in-bounds orthogonal neighbors of n in up, right,
// down, left order.
func (g *Grid) Neighbors(n Node) []Node {
	offsets := g.gg.NeighborOffsets()
	out := make([]Node, 0, len(offsets))
	for _, d := range offsets {
		m := Node{Row: n.Row + d[1], Col: n.Col + d[0]}
		if g.Contains(m) {
			out = append(out, m)
		}
	}
	return out
}

// Adjacent reports whether a and b share a grid edge.
func (g *Grid) Adjacent(a, b Node) bool {
	return g.graph.HasEdge(vertexID(a), vertexID(b))
}

// vertexID names n the way gridgraph names its core graph vertices: "x,y".
func vertexID(n Node) string {
	return fmt.Sprintf("%d,%d", n.Col, n.Row)
}

// Nodes returns every node in row-major order.
func (g *Grid) Nodes() []Node {
	out := make([]Node, 0, g.Len())
	for r := range g.rows {
		for c := range g.cols {
			out = append(out, Node{Row: r, Col: c})
		}
	}
	return out
}

// EdgeCount returns the number of edges in the full grid.
func (g *Grid) EdgeCount() int {
	return g.graph.EdgeCount()
}

// Full returns the subgraph spanning the whole grid.
func (g *Grid) Full() *Subgraph {
	return g.Subgraph(g.Nodes())
}
