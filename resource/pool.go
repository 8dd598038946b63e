// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package resource

import (
	"fmt"

	"github.com/petenewcomb/latticesim-go/internal/cerr"
)

// ErrInvalidPool is returned by NewPool for negative counts, scales or penalties.
const ErrInvalidPool = cerr.Error("resource: invalid pool configuration")

// PoolConfig sizes a Pool and parameterizes its capabilities.
type PoolConfig struct {
	NumHigh   int
	NumLow    int
	Threshold int
	// HighScale is k_high for unconstrained resources.
	HighScale float64
	// LowScale is k_low for capped resources.
	LowScale float64
	// Penalty is the accuracy lost on capped resources.
	Penalty float64
}

// DefaultPoolConfig returns two unconstrained and three capped resources with threshold 2.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		NumHigh:   2,
		NumLow:    3,
		Threshold: 2,
		HighScale: 1e-7,
		LowScale:  1e-7,
		Penalty:   5,
	}
}

// Pool is the fixed set of resources for one run. High resources are
// numbered first, then low resources.
type Pool struct {
	High []*Resource
	Low  []*Resource
}

// NewPool builds the resources described by config.
func NewPool(config PoolConfig) (*Pool, error) {
	switch {
	case config.NumHigh < 0 || config.NumLow < 0:
		return nil, fmt.Errorf("%w: negative resource count (high=%d, low=%d)", ErrInvalidPool, config.NumHigh, config.NumLow)
	case config.Threshold < 0:
		return nil, fmt.Errorf("%w: negative threshold %d", ErrInvalidPool, config.Threshold)
	case config.HighScale < 0 || config.LowScale < 0:
		return nil, fmt.Errorf("%w: negative time scale", ErrInvalidPool)
	case config.Penalty < 0:
		return nil, fmt.Errorf("%w: negative accuracy penalty %v", ErrInvalidPool, config.Penalty)
	}
	p := &Pool{
		High: make([]*Resource, config.NumHigh),
		Low:  make([]*Resource, config.NumLow),
	}
	for i := range p.High {
		p.High[i] = New(i, UnconstrainedCapability{Scale: config.HighScale})
	}
	for i := range p.Low {
		p.Low[i] = New(config.NumHigh+i, CappedCapability{
			Threshold: config.Threshold,
			Scale:     config.LowScale,
			Penalty:   config.Penalty,
		})
	}
	return p, nil
}

// All returns high resources followed by low resources.
func (p *Pool) All() []*Resource {
	out := make([]*Resource, 0, len(p.High)+len(p.Low))
	out = append(out, p.High...)
	return append(out, p.Low...)
}
