// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package state holds the small pieces of synchronized bookkeeping shared by
// the worker pools in internal/psg.
package state

import (
	"sync/atomic"
)

// InFlightCounter counts work items that have been launched but not yet
// retired. It is safe for concurrent use and remembers the highest value it
// has ever held so that callers can verify concurrency bounds after the fact.
type InFlightCounter struct {
	v    atomic.Int64
	peak atomic.Int64
}

func (c *InFlightCounter) Increment() {
	c.notePeak(c.v.Add(1))
}

// IncrementIfUnder increments the counter only if the result would not exceed
// limit. A negative limit means no limit.
func (c *InFlightCounter) IncrementIfUnder(limit int) bool {
	if limit < 0 {
		c.Increment()
		return true
	}
	// Tentatively increment the counter and check against limit. If over limit,
	// remove the tentative increment and try again if we notice that another
	// goroutine has made room between the increment and decrement.
	for {
		newValue := c.v.Add(1)
		if newValue <= int64(limit) {
			c.notePeak(newValue)
			return true
		}
		// Back out tentative increment and re-check.
		if c.v.Add(-1) >= int64(limit) {
			// Still at or over limit.
			return false
		}
	}
}

// Decrement decrements the counter and reports whether it reached zero.
func (c *InFlightCounter) Decrement() bool {
	newValue := c.v.Add(-1)
	if newValue < 0 {
		panic("nothing in flight")
	}
	return newValue == 0
}

func (c *InFlightCounter) GreaterThanZero() bool {
	return c.v.Load() > 0
}

func (c *InFlightCounter) Load() int64 {
	return c.v.Load()
}

// Peak returns the largest value the counter has held.
func (c *InFlightCounter) Peak() int64 {
	return c.peak.Load()
}

func (c *InFlightCounter) notePeak(v int64) {
	for {
		p := c.peak.Load()
		if v <= p || c.peak.CompareAndSwap(p, v) {
			return
		}
	}
}
