// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package resource

import (
	"fmt"
	"math"
)

// Class tags the two kinds of simulated processing resource.
type Class int

const (
	// Unconstrained resources accept any complexity and run a cubic-time
	// decoder.
	Unconstrained Class = iota
	// Capped resources accept complexity up to a threshold and run a
	// near-linear decoder at reduced accuracy.
	Capped
)

func (c Class) String() string {
	switch c {
	case Unconstrained:
		return "unconstrained"
	case Capped:
		return "capped"
	default:
		return fmt.Sprintf("Class(%d)", int(c))
	}
}

// Capability captures everything that differs between resource classes, so
// that the scheduler and execution model never branch on the class.
type Capability interface {
	Class() Class
	// CanHandle reports whether complexity is within MaxComplexity.
	CanHandle(complexity int) bool
	// MaxComplexity is math.MaxInt for unconstrained resources.
	MaxComplexity() int
	// ProcessingTime estimates seconds needed for a partition of the given
	// complexity.
	ProcessingTime(complexity int) float64
	// Degrade returns the accuracy of a partition after executing here.
	Degrade(accuracy float64) float64
}

// UnconstrainedCapability accepts any complexity at cubic cost and full accuracy.
type UnconstrainedCapability struct {
	// Scale is k_high in complexity³·k_high.
	Scale float64
}

func (UnconstrainedCapability) Class() Class              { return Unconstrained }
func (UnconstrainedCapability) CanHandle(int) bool        { return true }
func (UnconstrainedCapability) MaxComplexity() int        { return math.MaxInt }
func (UnconstrainedCapability) Degrade(a float64) float64 { return a }

func (c UnconstrainedCapability) ProcessingTime(complexity int) float64 {
	x := float64(complexity)
	return x * x * x * c.Scale
}

// CappedCapability accepts complexities up to Threshold at linear cost and
// reduced accuracy.
type CappedCapability struct {
	Threshold int
	// Scale is k_low in complexity·k_low.
	Scale float64
	// Penalty is subtracted from accuracy, in percentage points.
	Penalty float64
}

func (CappedCapability) Class() Class         { return Capped }
func (c CappedCapability) MaxComplexity() int { return c.Threshold }

func (c CappedCapability) CanHandle(complexity int) bool {
	return complexity <= c.Threshold
}

func (c CappedCapability) ProcessingTime(complexity int) float64 {
	return float64(complexity) * c.Scale
}

func (c CappedCapability) Degrade(a float64) float64 {
	return a - c.Penalty
}
