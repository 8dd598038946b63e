// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package psg

import "github.com/petenewcomb/latticesim-go/internal/cerr"

// ErrTaskPanic is passed to a [GatherFunc] in place of the task's error when
// the task panicked.
const ErrTaskPanic = cerr.Error("task panicked")
