// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package latticesim

import (
	"fmt"

	"github.com/petenewcomb/latticesim-go/internal/cerr"
)

// ErrConfiguration is wrapped by every Config.Validate failure.
const ErrConfiguration = cerr.Error("latticesim: invalid configuration")

// Stage names the part of a run that failed.
type Stage string

const (
	StageValidate  Stage = "validate"
	StagePartition Stage = "partition"
	StageSchedule  Stage = "schedule"
	StageExecute   Stage = "execute"
	StageCombine   Stage = "combine"
)

// StageError identifies which stage of a run failed and, when known, which
// partition or resource triggered the failure.
type StageError struct {
	Stage Stage
	// Entity describes the partition, resource or configuration field
	// involved, such as "resource 3".
	Entity string
	Err    error
}

func (e *StageError) Error() string {
	if e.Entity == "" {
		return fmt.Sprintf("latticesim: %s failed: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("latticesim: %s failed for %s: %v", e.Stage, e.Entity, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
