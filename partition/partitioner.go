// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package partition

import (
	"fmt"
	"math"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/petenewcomb/latticesim-go/internal/cerr"
	"github.com/petenewcomb/latticesim-go/lattice"
)

// Errors returned by [Partitioner.Partition].
const (
	ErrInvalidCount       = cerr.Error("partition: partition count must be at least 1")
	ErrInvalidProbability = cerr.Error("partition: activation probability must lie in [0, 1]")
	ErrConvergence        = cerr.Error("partition: empty regions remain after retries")
)

// ConvergenceError reports that the empty-region retry loop was exhausted.
// It matches ErrConvergence under errors.Is.
type ConvergenceError struct {
	Nodes      int
	Partitions int
	Retries    int
	// Empty lists the region indices that were still empty on the last try.
	Empty []int
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("%s: %d nodes into %d regions, %d retries, empty regions %v",
		ErrConvergence, e.Nodes, e.Partitions, e.Retries, e.Empty)
}

func (e *ConvergenceError) Unwrap() error {
	return ErrConvergence
}

// Config parameterizes a Partitioner.
type Config struct {
	// ActivationProbability is the chance that any one node is activated
	// when scoring complexity.
	ActivationProbability float64
	// MaxRetries bounds how many times the tile size is halved when a
	// region comes out empty.
	MaxRetries int
}

// DefaultConfig returns p=0.001 and 16 halving retries.
func DefaultConfig() Config {
	return Config{
		ActivationProbability: 0.001,
		MaxRetries:            16,
	}
}

// Partitioner is not safe for concurrent use since it draws from its
// generator.
type Partitioner struct {
	config Config
	rng    *rand.Rand
	logger *zap.Logger
}

// New returns a Partitioner that draws activations from rng. A nil logger
// disables logging.
func New(config Config, rng *rand.Rand, logger *zap.Logger) *Partitioner {
	if rng == nil {
		panic("random generator must be non-nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Partitioner{config: config, rng: rng, logger: logger}
}

// Partition splits grid into count regions ordered by index.
func (p *Partitioner) Partition(grid *lattice.Grid, count int) ([]*Partition, error) {
	if count < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCount, count)
	}
	if prob := p.config.ActivationProbability; prob < 0 || prob > 1 || math.IsNaN(prob) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidProbability, prob)
	}

	buckets, err := p.assign(grid, count)
	if err != nil {
		return nil, err
	}

	// Copy each border node into every other region it touches.
	halos := make([][]lattice.Node, count)
	for _, n := range grid.Nodes() {
		b := buckets[n.Row*grid.Cols()+n.Col]
		seen := make(map[int]bool, 4)
		for _, m := range grid.Neighbors(n) {
			mb := buckets[m.Row*grid.Cols()+m.Col]
			if mb != b && !seen[mb] {
				seen[mb] = true
				halos[mb] = append(halos[mb], n)
			}
		}
	}

	cores := make([][]lattice.Node, count)
	for _, n := range grid.Nodes() {
		b := buckets[n.Row*grid.Cols()+n.Col]
		cores[b] = append(cores[b], n)
	}

	partitions := make([]*Partition, count)
	for i := range partitions {
		nodes := make([]lattice.Node, 0, len(cores[i])+len(halos[i]))
		nodes = append(nodes, cores[i]...)
		nodes = append(nodes, halos[i]...)
		sub := grid.Subgraph(nodes)
		partitions[i] = &Partition{
			Index:      i,
			Nodes:      sub,
			Core:       cores[i],
			Halo:       halos[i],
			Complexity: 1 + p.activations(sub),
			Accuracy:   BaselineAccuracy,
		}
		p.logger.Debug("partition created",
			zap.Int("partition", i),
			zap.Int("core", len(cores[i])),
			zap.Int("halo", len(partitions[i].Halo)),
			zap.Int("complexity", partitions[i].Complexity))
	}
	return partitions, nil
}

// assign returns the region of every node in row-major order, halving the
// tile size until no region is empty.
func (p *Partitioner) assign(grid *lattice.Grid, count int) ([]int, error) {
	n := grid.Len()
	sqrtN := math.Sqrt(float64(n))
	cell := sqrtN / math.Sqrt(float64(count))
	buckets := make([]int, n)
	sizes := make([]int, count)

	// Fewer nodes than regions can never converge.
	retries := p.config.MaxRetries
	if count > n {
		retries = 0
	}

	var empty []int
	for attempt := 0; ; attempt++ {
		clear(sizes)
		stride := math.Floor(sqrtN / cell)
		for _, node := range grid.Nodes() {
			b := SpatialHash(node, cell, stride, count)
			buckets[node.Row*grid.Cols()+node.Col] = b
			sizes[b]++
		}
		empty = empty[:0]
		for i, size := range sizes {
			if size == 0 {
				empty = append(empty, i)
			}
		}
		if len(empty) == 0 {
			return buckets, nil
		}
		if attempt >= retries || count > n {
			return nil, &ConvergenceError{
				Nodes:      n,
				Partitions: count,
				Retries:    attempt,
				Empty:      empty,
			}
		}
		p.logger.Debug("empty regions, halving tile size",
			zap.Int("attempt", attempt),
			zap.Float64("cell", cell),
			zap.Int("empty", len(empty)))
		cell /= 2
	}
}

// SpatialHash maps a node to a region: tiles of side cell are numbered
// row-tile first, then col-tile times stride, modulo count.
func SpatialHash(n lattice.Node, cell, stride float64, count int) int {
	tileRow := math.Floor(float64(n.Row) / cell)
	tileCol := math.Floor(float64(n.Col) / cell)
	return int(math.Mod(tileRow+tileCol*stride, float64(count)))
}

func (p *Partitioner) activations(sub *lattice.Subgraph) int {
	activated := 0
	for range sub.Nodes() {
		if p.rng.Float64() < p.config.ActivationProbability {
			activated++
		}
	}
	return activated
}
