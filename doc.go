// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package latticesim simulates distributing a partitioned grid workload across
// a fixed pool of heterogeneous processing resources.
//
// A run cuts a rows×cols grid into regions of varying complexity, schedules
// each region onto the least-loaded compatible resource, estimates each
// resource's processing time and the accuracy of its results, and
// concurrently reassembles the regions into one grid while charging latency
// for the boundary nodes that every merge reconciles. [Run] returns a
// [Report] with the populated resources, their execution intervals, the
// maximum time taken by any resource and the net accuracy.
//
// Processing times are analytic estimates, not measured work: unconstrained
// resources are charged complexity³·k_high and capped resources
// complexity·k_low. The configured time limit is only compared against the
// result after the fact; nothing is aborted.
package latticesim
