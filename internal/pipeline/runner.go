package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/specialistvlad/assetgrid/internal/ctxlog"
	"github.com/specialistvlad/assetgrid/internal/fsutil"
)

// Result describes one task execution.
type Result struct {
	Task  string
	Start time.Time
	End   time.Time
	// Inputs is the number of source files read.
	Inputs int
	// Outputs lists every file the task produced, absolute.
	Outputs []string
	// Written is the subset of Outputs whose content changed on disk.
	Written []string
	Err     *StageFailure
}

// Failed reports whether the run ended in a StageFailure.
func (r *Result) Failed() bool {
	return r != nil && r.Err != nil
}

// Runner executes tasks. It is safe for concurrent use; callers are
// expected to keep concurrently running tasks on disjoint destinations.
type Runner struct {
	onError ErrorHandler
	writer  *Writer
	now     func() time.Time

	mu      sync.Mutex
	lastRun map[string]time.Time
}

// NewRunner creates a Runner. A nil onError only logs failures; a nil writer
// gets a default one.
func NewRunner(onError ErrorHandler, writer *Writer) *Runner {
	if writer == nil {
		writer = NewWriter(DefaultWriterCacheSize)
	}
	return &Runner{
		onError: onError,
		writer:  writer,
		now:     time.Now,
		lastRun: make(map[string]time.Time),
	}
}

// LastRun returns the start time of the task's last successful run.
func (r *Runner) LastRun(task string) (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.lastRun[task]
	return t, ok
}

// Run executes task once. Failures are reported to the error handler and
// returned on the Result; Run itself never panics because of a stage.
func (r *Runner) Run(ctx context.Context, task *Task) *Result {
	logger := ctxlog.FromContext(ctx).With("task", task.Name)
	ctx = ctxlog.WithLogger(ctx, logger)

	res := &Result{Task: task.Name, Start: r.now()}
	defer func() { res.End = r.now() }()

	logger.Debug("Task started.", "inputs", task.Inputs, "dest", task.Dest)

	assets, err := r.read(ctx, task)
	if err != nil {
		r.fail(ctx, res, StageSource, err)
		return res
	}
	res.Inputs = len(assets)

	if len(assets) == 0 {
		logger.Debug("No inputs matched, nothing to do.")
		r.markRun(task.Name, res.Start)
		return res
	}

	for _, stage := range task.Stages {
		logger.Debug("Applying stage.", "stage", stage.Name(), "assets", len(assets))
		assets, err = r.apply(ctx, stage, assets)
		if err != nil {
			r.fail(ctx, res, stage.Name(), err)
			return res
		}
	}

	if err := r.write(task, assets, res); err != nil {
		r.fail(ctx, res, StageDest, err)
		return res
	}

	r.markRun(task.Name, res.Start)
	logger.Info("✅ Task finished.", "inputs", res.Inputs, "outputs", len(res.Outputs), "written", len(res.Written), "duration", r.now().Sub(res.Start))
	return res
}

func (r *Runner) read(ctx context.Context, task *Task) ([]*Asset, error) {
	matches, err := fsutil.ExpandGlobs(task.Inputs)
	if err != nil {
		return nil, err
	}

	since, incremental := r.since(ctx, task)
	assets := make([]*Asset, 0, len(matches))
	for _, m := range matches {
		info, err := os.Stat(m.Path)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", m.Path, err)
		}
		if incremental && !info.ModTime().After(since) {
			continue
		}
		data, err := os.ReadFile(m.Path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", m.Path, err)
		}
		assets = append(assets, &Asset{
			Path:    m.Rel,
			Source:  m.Path,
			Base:    m.Base,
			Data:    data,
			ModTime: info.ModTime(),
		})
	}

	if incremental {
		ctxlog.FromContext(ctx).Debug("Incremental read.", "since", since, "matched", len(matches), "changed", len(assets))
	}
	return assets, nil
}

func (r *Runner) since(ctx context.Context, task *Task) (time.Time, bool) {
	if !task.Incremental || isFullRebuild(ctx) {
		return time.Time{}, false
	}
	return r.LastRun(task.Name)
}

func (r *Runner) apply(ctx context.Context, stage Stage, in []*Asset) (out []*Asset, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return stage.Transform(ctx, in)
}

func (r *Runner) write(task *Task, assets []*Asset, res *Result) error {
	dest := filepath.Clean(task.Dest)
	for _, a := range assets {
		target := filepath.Join(dest, filepath.FromSlash(a.Path))
		if target != dest && !strings.HasPrefix(target, dest+string(filepath.Separator)) {
			return fmt.Errorf("output %q escapes destination %s", a.Path, dest)
		}
		data, sourceMap := linkSourceMap(a)
		if err := r.writeFile(res, target, data); err != nil {
			return err
		}
		if sourceMap != nil {
			if err := r.writeFile(res, target+MapSuffix, sourceMap); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Runner) writeFile(res *Result, target string, data []byte) error {
	changed, err := r.writer.Write(target, data)
	if err != nil {
		return err
	}
	res.Outputs = append(res.Outputs, target)
	if changed {
		res.Written = append(res.Written, target)
	}
	return nil
}

func (r *Runner) fail(ctx context.Context, res *Result, stage string, err error) {
	failure := &StageFailure{Task: res.Task, Stage: stage, Err: err}
	res.Err = failure
	ctxlog.FromContext(ctx).Error("❌ Task failed.", "stage", stage, "error", err)
	if r.onError != nil {
		r.onError(ctx, failure)
	}
}

func (r *Runner) markRun(task string, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastRun[task] = at
}
