// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package state_test

import (
	"sync"
	"testing"

	"github.com/petenewcomb/latticesim-go/internal/state"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestInFlightCounterLimit(t *testing.T) {
	chk := require.New(t)
	var c state.InFlightCounter
	chk.True(c.IncrementIfUnder(2))
	chk.True(c.IncrementIfUnder(2))
	chk.False(c.IncrementIfUnder(2))
	chk.Equal(int64(2), c.Load())
	chk.False(c.Decrement())
	chk.True(c.Decrement())
	chk.False(c.GreaterThanZero())
	chk.Equal(int64(2), c.Peak())
}

func TestInFlightCounterUnlimited(t *testing.T) {
	chk := require.New(t)
	var c state.InFlightCounter
	for range 10 {
		chk.True(c.IncrementIfUnder(-1))
	}
	chk.Equal(int64(10), c.Peak())
}

func TestInFlightCounterUnderflowPanic(t *testing.T) {
	chk := require.New(t)
	var c state.InFlightCounter
	chk.PanicsWithValue("nothing in flight", func() {
		c.Decrement()
	})
}

func TestInFlightCounterConcurrentPeak(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		chk := require.New(t)
		limit := rapid.IntRange(1, 8).Draw(t, "limit")
		workers := rapid.IntRange(1, 32).Draw(t, "workers")

		var c state.InFlightCounter
		var wg sync.WaitGroup
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for range 100 {
					if c.IncrementIfUnder(limit) {
						c.Decrement()
					}
				}
			}()
		}
		wg.Wait()
		chk.False(c.GreaterThanZero())
		chk.LessOrEqual(c.Peak(), int64(limit))
	})
}
