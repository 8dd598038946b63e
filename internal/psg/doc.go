// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package psg launches (scatters) tasks into bounded pools of goroutines and
// aggregates (gathers) their results on the calling goroutine. Tasks run
// concurrently while aggregation stays sequential, so gather functions may
// mutate local state, such as a running latency total or a slice of merged
// results, without any locking.
//
// A [Job] is single-threaded: all calls to [Gather.Scatter] and the gathering
// methods of the Job must come from the same goroutine. When a [TaskPool] is
// at its limit, Scatter applies backpressure by gathering completed results
// until a slot frees up. A TaskFunc may run its own sub-Job, which is how a
// merge round or a per-resource execution nests inside a larger run.
package psg
