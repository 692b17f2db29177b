package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/specialistvlad/assetgrid/internal/ctxlog"
)

// Step is one entry of a Group: either a task or a control action.
type Step interface {
	Name() string
	// Execute runs the step. A returned error is fatal for the group;
	// task failures are reported on the Result instead.
	Execute(ctx context.Context, runner *Runner) (*Result, error)
}

// TaskStep runs a Task.
type TaskStep struct {
	Task *Task
}

// Name implements Step.
func (s TaskStep) Name() string { return s.Task.Name }

// Execute implements Step.
func (s TaskStep) Execute(ctx context.Context, runner *Runner) (*Result, error) {
	return runner.Run(ctx, s.Task), nil
}

// ControlStep starts background work such as the dev server or the
// watcher and returns once it is running.
type ControlStep struct {
	StepName string
	Start    func(ctx context.Context) error
}

// Name implements Step.
func (s ControlStep) Name() string { return s.StepName }

// Execute implements Step.
func (s ControlStep) Execute(ctx context.Context, _ *Runner) (*Result, error) {
	res := &Result{Task: s.StepName, Start: time.Now()}
	err := s.Start(ctx)
	res.End = time.Now()
	return res, err
}

// GroupResult collects the results of one Group run.
type GroupResult struct {
	Group   string
	RunID   string
	Start   time.Time
	End     time.Time
	Results []*Result
}

// Failures returns every StageFailure recorded during the run.
func (g *GroupResult) Failures() []*StageFailure {
	var out []*StageFailure
	for _, r := range g.Results {
		if r.Failed() {
			out = append(out, r.Err)
		}
	}
	return out
}

// Written returns every output file whose content changed during the run.
func (g *GroupResult) Written() []string {
	var out []string
	for _, r := range g.Results {
		out = append(out, r.Written...)
	}
	return out
}

// Outputs returns every file produced by tasks that did not fail, whether
// or not its content changed.
func (g *GroupResult) Outputs() []string {
	var out []string
	for _, r := range g.Results {
		if !r.Failed() {
			out = append(out, r.Outputs...)
		}
	}
	return out
}

// Group is an ordered composition of steps run strictly in sequence.
type Group struct {
	Name   string
	Steps  []Step
	runner *Runner
}

// NewGroup creates a group executing steps with runner.
func NewGroup(name string, runner *Runner, steps ...Step) *Group {
	return &Group{Name: name, Steps: steps, runner: runner}
}

// Tasks returns the tasks of the group's task steps, in order.
func (g *Group) Tasks() []*Task {
	var out []*Task
	for _, s := range g.Steps {
		if ts, ok := s.(TaskStep); ok {
			out = append(out, ts.Task)
		}
	}
	return out
}

// Run executes every step in order. Each step completes before the next one
// starts. Task failures are isolated; a control step error or a cancelled
// context stops the group and is returned.
func (g *Group) Run(ctx context.Context) (*GroupResult, error) {
	res := &GroupResult{Group: g.Name, RunID: uuid.NewString(), Start: time.Now()}
	logger := ctxlog.FromContext(ctx).With("group", g.Name, "run_id", res.RunID)
	ctx = ctxlog.WithLogger(ctx, logger)

	logger.Info("🚀 Starting group.", "steps", len(g.Steps))
	for _, step := range g.Steps {
		if err := ctx.Err(); err != nil {
			res.End = time.Now()
			return res, err
		}
		r, err := step.Execute(ctx, g.runner)
		if r != nil {
			res.Results = append(res.Results, r)
		}
		if err != nil {
			res.End = time.Now()
			logger.Error("Group aborted.", "step", step.Name(), "error", err)
			return res, fmt.Errorf("step %q: %w", step.Name(), err)
		}
	}
	res.End = time.Now()

	failures := res.Failures()
	if len(failures) > 0 {
		logger.Warn("🏁 Group finished with failed tasks.", "failed", len(failures), "duration", res.End.Sub(res.Start))
	} else {
		logger.Info("🏁 Group finished.", "duration", res.End.Sub(res.Start))
	}
	return res, nil
}
