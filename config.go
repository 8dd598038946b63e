// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package latticesim

import (
	"math"

	"github.com/pkg/errors"

	"github.com/petenewcomb/latticesim-go/combine"
	"github.com/petenewcomb/latticesim-go/partition"
	"github.com/petenewcomb/latticesim-go/resource"
)

// Config parameterizes one run. Start from [DefaultConfig].
type Config struct {
	Rows, Cols int
	Partitions int
	// NumHigh and NumLow count unconstrained and capped resources.
	NumHigh, NumLow int
	// Threshold is the largest complexity a capped resource accepts.
	Threshold int
	// TimeLimit is in seconds; math.Inf(1) means unbounded.
	TimeLimit float64
	Seed      uint64

	ActivationProbability float64
	MaxRetries            int

	HighScale       float64
	LowScale        float64
	AccuracyPenalty float64

	BoundaryLatency float64
	// CombineWorkers bounds concurrent pair merges; zero means GOMAXPROCS.
	CombineWorkers int
}

// DefaultConfig returns a 5x5 grid in 8 partitions over 2 unconstrained and
// 3 capped resources, with no time limit.
func DefaultConfig() Config {
	pc := partition.DefaultConfig()
	rc := resource.DefaultPoolConfig()
	cc := combine.DefaultConfig()
	return Config{
		Rows:                  5,
		Cols:                  5,
		Partitions:            8,
		NumHigh:               rc.NumHigh,
		NumLow:                rc.NumLow,
		Threshold:             rc.Threshold,
		TimeLimit:             math.Inf(1),
		Seed:                  1,
		ActivationProbability: pc.ActivationProbability,
		MaxRetries:            pc.MaxRetries,
		HighScale:             rc.HighScale,
		LowScale:              rc.LowScale,
		AccuracyPenalty:       rc.Penalty,
		BoundaryLatency:       cc.BoundaryLatency,
	}
}

// Validate reports the first invalid field, wrapped around ErrConfiguration.
func (c *Config) Validate() error {
	switch {
	case c.Rows < 1 || c.Cols < 1:
		return errors.Wrapf(ErrConfiguration, "grid size %dx%d must be at least 1x1", c.Rows, c.Cols)
	case c.Partitions < 1:
		return errors.Wrapf(ErrConfiguration, "partitions=%d must be at least 1", c.Partitions)
	case c.NumHigh < 0:
		return errors.Wrapf(ErrConfiguration, "num_hr=%d must not be negative", c.NumHigh)
	case c.NumLow < 1:
		return errors.Wrapf(ErrConfiguration, "num_lr=%d must be at least 1", c.NumLow)
	case c.Threshold < 0:
		return errors.Wrapf(ErrConfiguration, "thresh_compl=%d must not be negative", c.Threshold)
	case math.IsNaN(c.TimeLimit) || c.TimeLimit <= 0:
		return errors.Wrapf(ErrConfiguration, "time_limit=%v must be positive", c.TimeLimit)
	case math.IsNaN(c.ActivationProbability) || c.ActivationProbability < 0 || c.ActivationProbability > 1:
		return errors.Wrapf(ErrConfiguration, "activation probability %v must lie in [0, 1]", c.ActivationProbability)
	case c.MaxRetries < 0:
		return errors.Wrapf(ErrConfiguration, "max retries %d must not be negative", c.MaxRetries)
	case !finiteNonNegative(c.HighScale) || !finiteNonNegative(c.LowScale):
		return errors.Wrapf(ErrConfiguration, "time scales %v, %v must be finite and non-negative", c.HighScale, c.LowScale)
	case !finiteNonNegative(c.AccuracyPenalty) || c.AccuracyPenalty > partition.BaselineAccuracy:
		return errors.Wrapf(ErrConfiguration, "accuracy penalty %v must lie in [0, %v]", c.AccuracyPenalty, partition.BaselineAccuracy)
	case !finiteNonNegative(c.BoundaryLatency):
		return errors.Wrapf(ErrConfiguration, "boundary latency %v must be finite and non-negative", c.BoundaryLatency)
	case c.CombineWorkers < 0:
		return errors.Wrapf(ErrConfiguration, "combine workers %d must not be negative", c.CombineWorkers)
	}
	return nil
}

func finiteNonNegative(v float64) bool {
	return v >= 0 && !math.IsInf(v, 1)
}

func (c *Config) partitionConfig() partition.Config {
	return partition.Config{
		ActivationProbability: c.ActivationProbability,
		MaxRetries:            c.MaxRetries,
	}
}

func (c *Config) poolConfig() resource.PoolConfig {
	return resource.PoolConfig{
		NumHigh:   c.NumHigh,
		NumLow:    c.NumLow,
		Threshold: c.Threshold,
		HighScale: c.HighScale,
		LowScale:  c.LowScale,
		Penalty:   c.AccuracyPenalty,
	}
}
