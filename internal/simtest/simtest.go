// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package simtest provides rapid generators for the grids, resource pools and
// workloads exercised by the property tests across this module.
package simtest

import (
	"fmt"

	"pgregory.net/rapid"
)

type BiasedIntConfig struct {
	Min int
	Med int
	Max int
}

func (c *BiasedIntConfig) Draw(t *rapid.T, name string) int {
	if c.Med < c.Min || c.Max < c.Med {
		panic(fmt.Sprint("invalid BiasedIntConfig:", *c))
	}
	return rapid.Custom(func(t *rapid.T) int {
		// Generate a value in the range [min-med, max-med] instead of [min,
		// max] to take advantage of rapid's bias toward generating numbers near
		// zero as well as at the provided bounds.
		return c.Med + rapid.IntRange(c.Min-c.Med, c.Max-c.Med).Draw(t, name+"(internal)")
	}).Draw(t, name)
}

var (
	GridSize   = BiasedIntConfig{Min: 1, Med: 5, Max: 16}
	PoolSize   = BiasedIntConfig{Min: 0, Med: 2, Max: 6}
	Threshold  = BiasedIntConfig{Min: 0, Med: 2, Max: 8}
	Complexity = BiasedIntConfig{Min: 1, Med: 2, Max: 12}
)

// GridConfig is a drawn grid shape.
type GridConfig struct {
	Rows, Cols int
}

// DrawGrid draws grid dimensions between 1 and 16.
func DrawGrid(t *rapid.T, name string) GridConfig {
	return GridConfig{
		Rows: GridSize.Draw(t, name+".Rows"),
		Cols: GridSize.Draw(t, name+".Cols"),
	}
}

// PoolConfig is a drawn resource pool shape.
type PoolConfig struct {
	NumHigh   int
	NumLow    int
	Threshold int
}

// DrawPool draws a resource pool shape with at least one capped resource.
func DrawPool(t *rapid.T, name string) PoolConfig {
	low := PoolSize
	low.Min = 1
	return PoolConfig{
		NumHigh:   PoolSize.Draw(t, name+".NumHigh"),
		NumLow:    low.Draw(t, name+".NumLow"),
		Threshold: Threshold.Draw(t, name+".Threshold"),
	}
}

// DrawComplexities draws count complexity scores biased toward small values.
func DrawComplexities(t *rapid.T, name string, count int) []int {
	out := make([]int, count)
	for i := range out {
		out[i] = Complexity.Draw(t, fmt.Sprintf("%s[%d]", name, i))
	}
	return out
}
