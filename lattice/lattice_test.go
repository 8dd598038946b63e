// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package lattice_test

import (
	"slices"
	"testing"

	"github.com/petenewcomb/latticesim-go/lattice"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestNewGridRejectsEmpty(t *testing.T) {
	chk := require.New(t)
	_, err := lattice.NewGrid(0, 3)
	chk.ErrorIs(err, lattice.ErrEmptyGrid)
	_, err = lattice.NewGrid(3, -1)
	chk.ErrorIs(err, lattice.ErrEmptyGrid)
}

func TestNeighborsCorner(t *testing.T) {
	chk := require.New(t)
	g, err := lattice.NewGrid(3, 4)
	chk.NoError(err)
	chk.Equal([]lattice.Node{{Row: 0, Col: 1}, {Row: 1, Col: 0}}, g.Neighbors(lattice.Node{}))
	chk.Equal([]lattice.Node{{Row: 0, Col: 1}, {Row: 1, Col: 2}, {Row: 2, Col: 1}, {Row: 1, Col: 0}}, g.Neighbors(lattice.Node{Row: 1, Col: 1}))
}

func TestSubgraphDeduplicatesAndSorts(t *testing.T) {
	chk := require.New(t)
	g, err := lattice.NewGrid(2, 2)
	chk.NoError(err)
	s := g.Subgraph([]lattice.Node{{Row: 1, Col: 1}, {Row: 0, Col: 0}, {Row: 1, Col: 1}})
	chk.Equal([]lattice.Node{{Row: 0, Col: 0}, {Row: 1, Col: 1}}, s.Nodes())
	chk.Empty(s.Edges())
}

func TestSubgraphOutOfBoundsPanics(t *testing.T) {
	chk := require.New(t)
	g, err := lattice.NewGrid(2, 2)
	chk.NoError(err)
	chk.PanicsWithValue("node (2,0) outside 2x2 grid", func() {
		g.Subgraph([]lattice.Node{{Row: 2, Col: 0}})
	})
}

func TestBoundaryNodes(t *testing.T) {
	chk := require.New(t)
	g, err := lattice.NewGrid(3, 3)
	chk.NoError(err)
	chk.Zero(g.Full().BoundaryCount())

	left := g.Subgraph([]lattice.Node{{Row: 0, Col: 0}, {Row: 1, Col: 0}, {Row: 2, Col: 0}})
	chk.Equal(3, left.BoundaryCount())
	chk.Equal(left.Nodes(), left.BoundaryNodes())

	corner := g.Subgraph([]lattice.Node{{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 1, Col: 0}, {Row: 1, Col: 1}})
	chk.Equal([]lattice.Node{{Row: 0, Col: 1}, {Row: 1, Col: 0}, {Row: 1, Col: 1}}, corner.BoundaryNodes())
	chk.False(left.IsBoundary(lattice.Node{Row: 0, Col: 1}))
}

func TestFullGridEdges(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		chk := require.New(t)
		rows := rapid.IntRange(1, 12).Draw(t, "rows")
		cols := rapid.IntRange(1, 12).Draw(t, "cols")
		g, err := lattice.NewGrid(rows, cols)
		chk.NoError(err)
		full := g.Full()
		chk.Equal(rows*cols, full.Len())
		chk.Equal(rows*(cols-1)+cols*(rows-1), g.EdgeCount())
		chk.Len(full.Edges(), g.EdgeCount())
		for _, n := range full.Nodes() {
			// Every node of a grid with more than one node has a neighbor.
			if g.Len() > 1 {
				chk.NotEmpty(g.Neighbors(n))
			}
		}
	})
}

func TestUnionRederivesEdges(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		chk := require.New(t)
		g, err := lattice.NewGrid(rapid.IntRange(1, 8).Draw(t, "rows"), rapid.IntRange(1, 8).Draw(t, "cols"))
		chk.NoError(err)
		all := g.Nodes()
		pick := func(name string) *lattice.Subgraph {
			return g.Subgraph(rapid.SliceOfDistinct(rapid.SampledFrom(all), func(n lattice.Node) lattice.Node { return n }).Draw(t, name))
		}
		a, b := pick("a"), pick("b")
		u := lattice.Union(g, a, b)
		for _, n := range all {
			chk.Equal(a.Contains(n) || b.Contains(n), u.Contains(n))
		}
		for _, e := range u.Edges() {
			chk.True(u.Contains(e.From))
			chk.True(u.Contains(e.To))
		}
		chk.True(u.Equal(lattice.Union(g, b, a)))
	})
}

func TestAdjacentMatchesNeighbors(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		chk := require.New(t)
		g, err := lattice.NewGrid(rapid.IntRange(1, 6).Draw(t, "rows"), rapid.IntRange(1, 6).Draw(t, "cols"))
		chk.NoError(err)
		all := g.Nodes()
		a := rapid.SampledFrom(all).Draw(t, "a")
		b := rapid.SampledFrom(all).Draw(t, "b")
		chk.Equal(slices.Contains(g.Neighbors(a), b), g.Adjacent(a, b))
		chk.Equal(g.Adjacent(a, b), g.Adjacent(b, a))
		chk.False(g.Contains(lattice.Node{Row: g.Rows(), Col: 0}))
		chk.False(g.Contains(lattice.Node{Row: 0, Col: -1}))
	})
}
