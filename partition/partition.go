// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package partition cuts a [lattice.Grid] into a target number of regions
// using a spatial hash over square-ish tiles, and scores each region with a
// synthetic complexity.
//
// Each region also carries a halo: copies of the neighboring nodes that hash
// to a different region. A node on a border therefore appears in the node
// sets of every region it touches, which lets each region evaluate its own
// boundary without consulting the full grid.
package partition

import (
	"fmt"

	"github.com/petenewcomb/latticesim-go/lattice"
)

// BaselineAccuracy is the accuracy, in percentage points, of a partition that
// has not been degraded by execution on a capped resource.
const BaselineAccuracy = 100.0

// Partition is one region of the grid.
type Partition struct {
	// Index is unique within a run and lies in [0, count).
	Index int
	// Nodes is the region including its halo.
	Nodes *lattice.Subgraph
	// Core holds the nodes that hash to this region, row-major.
	Core []lattice.Node
	// Halo holds the neighboring nodes copied in from other regions, row-major.
	Halo []lattice.Node
	// Complexity is one plus the number of activated nodes.
	Complexity int
	// Accuracy starts at BaselineAccuracy and is only lowered by execution.
	Accuracy float64
}

// Len returns the number of nodes, halo included.
func (p *Partition) Len() int {
	return p.Nodes.Len()
}

func (p *Partition) String() string {
	return fmt.Sprintf("Partition#%d", p.Index)
}
