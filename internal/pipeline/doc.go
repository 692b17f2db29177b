// Package pipeline implements the asset pipeline core: a generic Runner that
// executes a Task (read sources, apply an ordered chain of Stages, write the
// results) and a Group that composes tasks and control steps into a strict
// sequence.
//
// # Error isolation
//
// Any failure inside a task, whether it comes from reading sources, from a
// Stage, from a panic in a Stage or from writing outputs, is reported as a
// *StageFailure to the Runner's ErrorHandler and recorded on the Result. It
// never aborts the surrounding Group and never leaves the Runner unusable.
//
// # Incremental tasks
//
// A task marked Incremental only reads sources modified after the start of
// its last successful run. FullRebuild disables that filter for one call.
package pipeline
