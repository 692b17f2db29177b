package pipeline

import (
	"context"
	"fmt"
)

// Pseudo stage names used when the failure happens outside the chain.
const (
	StageSource = "src"
	StageDest   = "dest"
)

// StageFailure is the single error kind a task run produces: a failure
// of one stage of one task.
type StageFailure struct {
	Task  string
	Stage string
	Err   error
}

// Error implements the error interface.
func (f *StageFailure) Error() string {
	return fmt.Sprintf("task %q: stage %q: %v", f.Task, f.Stage, f.Err)
}

// Unwrap returns the underlying cause.
func (f *StageFailure) Unwrap() error {
	return f.Err
}

// ErrorHandler receives every StageFailure. It is called synchronously from
// the runner and must not panic.
type ErrorHandler func(ctx context.Context, failure *StageFailure)
