package pipeline_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/specialistvlad/assetgrid/internal/fsutil"
	"github.com/specialistvlad/assetgrid/internal/pipeline"
	"github.com/specialistvlad/assetgrid/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failureSink collects StageFailures handed to the runner's error handler.
type failureSink struct {
	mu       sync.Mutex
	failures []*pipeline.StageFailure
}

func (s *failureSink) handle(_ context.Context, f *pipeline.StageFailure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, f)
}

func (s *failureSink) all() []*pipeline.StageFailure {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*pipeline.StageFailure(nil), s.failures...)
}

// countingStage records how many assets it saw on each call.
func countingStage(seen *[]int) pipeline.Stage {
	return pipeline.StageFunc{
		StageName: "count",
		Fn: func(_ context.Context, in []*pipeline.Asset) ([]*pipeline.Asset, error) {
			*seen = append(*seen, len(in))
			return in, nil
		},
	}
}

func newTask(root, name, glob string, stages ...pipeline.Stage) *pipeline.Task {
	return &pipeline.Task{
		Name:   name,
		Inputs: []string{fsutil.Absolute(root, glob)},
		Dest:   filepath.Join(root, "dist", name),
		Stages: stages,
	}
}

func TestRunner_TransformsAndWrites(t *testing.T) {
	ctx, _ := testutil.NewContext(t)
	root := t.TempDir()
	testutil.WriteFiles(t, root, map[string]string{
		"src/a.txt":     "alpha",
		"src/sub/b.txt": "beta",
	})

	runner := pipeline.NewRunner(nil, nil)
	res := runner.Run(ctx, newTask(root, "text", "src/**/*.txt", testutil.UpperStage()))

	require.False(t, res.Failed())
	assert.Equal(t, 2, res.Inputs)
	assert.Len(t, res.Written, 2)
	assert.Equal(t, "ALPHA", testutil.ReadFile(t, root, "dist/text/a.txt"))
	assert.Equal(t, "BETA", testutil.ReadFile(t, root, "dist/text/sub/b.txt"))
	assert.False(t, res.End.Before(res.Start))
}

func TestRunner_EmptyMatchIsNoop(t *testing.T) {
	ctx, _ := testutil.NewContext(t)
	root := t.TempDir()
	sink := &failureSink{}

	runner := pipeline.NewRunner(sink.handle, nil)
	res := runner.Run(ctx, newTask(root, "images", "src/images/*.png", testutil.FailingStage()))

	require.False(t, res.Failed(), "an empty match must not reach the stage chain")
	assert.Zero(t, res.Inputs)
	assert.Empty(t, sink.all())
	_, err := os.Stat(filepath.Join(root, "dist", "images"))
	assert.True(t, os.IsNotExist(err))
}

func TestRunner_StageFailureIsIsolated(t *testing.T) {
	ctx, _ := testutil.NewContext(t)
	root := t.TempDir()
	testutil.WriteFiles(t, root, map[string]string{"src/a.txt": "alpha"})
	sink := &failureSink{}

	var seen []int
	runner := pipeline.NewRunner(sink.handle, nil)
	res := runner.Run(ctx, newTask(root, "broken", "src/*.txt", testutil.FailingStage(), countingStage(&seen)))

	require.True(t, res.Failed())
	assert.Equal(t, "broken", res.Err.Task)
	assert.Equal(t, "broken", res.Err.Stage)
	assert.ErrorIs(t, res.Err, testutil.ErrStageBroken)
	assert.Empty(t, seen, "stages after the failing one must be skipped")
	assert.Empty(t, res.Outputs)

	failures := sink.all()
	require.Len(t, failures, 1)
	assert.Same(t, res.Err, failures[0])

	// The runner keeps working after a failure.
	ok := runner.Run(ctx, newTask(root, "fine", "src/*.txt", testutil.UpperStage()))
	require.False(t, ok.Failed())
	assert.Equal(t, "ALPHA", testutil.ReadFile(t, root, "dist/fine/a.txt"))
}

func TestRunner_PanicBecomesStageFailure(t *testing.T) {
	ctx, _ := testutil.NewContext(t)
	root := t.TempDir()
	testutil.WriteFiles(t, root, map[string]string{"src/a.txt": "alpha"})
	sink := &failureSink{}

	runner := pipeline.NewRunner(sink.handle, nil)
	res := runner.Run(ctx, newTask(root, "panicky", "src/*.txt", testutil.PanickingStage()))

	require.True(t, res.Failed())
	assert.Equal(t, "panicky", res.Err.Stage)
	assert.Contains(t, res.Err.Error(), "boom")
	assert.Len(t, sink.all(), 1)
}

func TestRunner_UnwritableDestinationIsStageFailure(t *testing.T) {
	ctx, _ := testutil.NewContext(t)
	root := t.TempDir()
	testutil.WriteFiles(t, root, map[string]string{
		"src/a.txt": "alpha",
		"dist/file": "i am a file, not a directory",
	})
	sink := &failureSink{}

	task := &pipeline.Task{
		Name:   "text",
		Inputs: []string{fsutil.Absolute(root, "src/*.txt")},
		Dest:   filepath.Join(root, "dist", "file"),
	}
	res := pipeline.NewRunner(sink.handle, nil).Run(ctx, task)

	require.True(t, res.Failed())
	assert.Equal(t, pipeline.StageDest, res.Err.Stage)
	assert.Len(t, sink.all(), 1)
}

func TestRunner_RebuildIsIdempotent(t *testing.T) {
	ctx, _ := testutil.NewContext(t)
	root := t.TempDir()
	testutil.WriteFiles(t, root, map[string]string{"src/a.txt": "alpha", "src/b.txt": "beta"})

	runner := pipeline.NewRunner(nil, nil)
	task := newTask(root, "text", "src/*.txt", testutil.UpperStage())

	first := runner.Run(ctx, task)
	require.False(t, first.Failed())
	require.Len(t, first.Written, 2)
	before := testutil.ReadFile(t, root, "dist/text/a.txt")
	infoBefore, err := os.Stat(filepath.Join(root, "dist", "text", "a.txt"))
	require.NoError(t, err)

	second := runner.Run(ctx, task)
	require.False(t, second.Failed())
	assert.Len(t, second.Outputs, 2)
	assert.Empty(t, second.Written, "unchanged outputs must not be rewritten")
	assert.Equal(t, before, testutil.ReadFile(t, root, "dist/text/a.txt"))

	infoAfter, err := os.Stat(filepath.Join(root, "dist", "text", "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, infoBefore.ModTime(), infoAfter.ModTime())

	// A fresh runner (new process) still detects identical content on disk.
	third := pipeline.NewRunner(nil, nil).Run(ctx, task)
	assert.Empty(t, third.Written)
}

func TestRunner_IncrementalReadsOnlyModifiedSources(t *testing.T) {
	ctx, _ := testutil.NewContext(t)
	root := t.TempDir()
	testutil.WriteFiles(t, root, map[string]string{"src/images/a.png": "a", "src/images/b.png": "b"})

	var seen []int
	task := newTask(root, "images", "src/images/*.png", countingStage(&seen))
	task.Incremental = true
	runner := pipeline.NewRunner(nil, nil)

	require.False(t, runner.Run(ctx, task).Failed())
	_, ok := runner.LastRun("images")
	require.True(t, ok)

	// Nothing changed since the last run.
	res := runner.Run(ctx, task)
	assert.Zero(t, res.Inputs)

	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(root, "src", "images", "b.png"), future, future))
	res = runner.Run(ctx, task)
	assert.Equal(t, 1, res.Inputs)

	res = runner.Run(pipeline.FullRebuild(ctx), task)
	assert.Equal(t, 2, res.Inputs)

	assert.Equal(t, []int{2, 1, 2}, seen)
}

func TestRunner_IncrementalThenFullEqualsFull(t *testing.T) {
	ctx, _ := testutil.NewContext(t)
	root := t.TempDir()
	testutil.WriteFiles(t, root, map[string]string{"src/images/a.png": "a", "src/images/b.png": "b"})

	incremental := newTask(root, "incremental", "src/images/*.png", testutil.UpperStage())
	incremental.Incremental = true
	full := newTask(root, "full", "src/images/*.png", testutil.UpperStage())

	runner := pipeline.NewRunner(nil, nil)
	require.False(t, runner.Run(ctx, incremental).Failed())

	testutil.WriteFiles(t, root, map[string]string{"src/images/b.png": "b2", "src/images/c.png": "c"})
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(root, "src", "images", "b.png"), future, future))
	require.NoError(t, os.Chtimes(filepath.Join(root, "src", "images", "c.png"), future, future))

	require.False(t, runner.Run(ctx, incremental).Failed())
	require.False(t, runner.Run(pipeline.FullRebuild(ctx), incremental).Failed())
	require.False(t, runner.Run(ctx, full).Failed())

	incFiles, err := fsutil.FindFiles(incremental.Dest)
	require.NoError(t, err)
	fullFiles, err := fsutil.FindFiles(full.Dest)
	require.NoError(t, err)
	require.Len(t, incFiles, len(fullFiles))

	for _, name := range []string{"a.png", "b.png", "c.png"} {
		assert.Equal(t,
			testutil.ReadFile(t, full.Dest, name),
			testutil.ReadFile(t, incremental.Dest, name),
			"output %s differs between incremental and full rebuild", name)
	}
}

func TestRunner_RejectsOutputsEscapingDestination(t *testing.T) {
	ctx, _ := testutil.NewContext(t)
	root := t.TempDir()
	testutil.WriteFiles(t, root, map[string]string{"src/a.txt": "alpha"})

	escape := pipeline.EachAsset("escape", func(_ context.Context, a *pipeline.Asset) ([]*pipeline.Asset, error) {
		return []*pipeline.Asset{a.Derive("../../outside.txt", a.Data)}, nil
	})
	res := pipeline.NewRunner(nil, nil).Run(ctx, newTask(root, "text", "src/*.txt", escape))

	require.True(t, res.Failed())
	assert.Equal(t, pipeline.StageDest, res.Err.Stage)
}

func mappedStage() pipeline.Stage {
	return pipeline.EachAsset("mapped", func(_ context.Context, a *pipeline.Asset) ([]*pipeline.Asset, error) {
		out := a.Derive(a.Path, a.Data)
		out.SourceMap = []byte(`{"version":3,"sources":["` + a.Path + `"]}`)
		return []*pipeline.Asset{out}, nil
	})
}

func TestRunner_WritesSourceMapNextToOutput(t *testing.T) {
	// --- Arrange ---
	ctx, _ := testutil.NewContext(t)
	root := t.TempDir()
	testutil.WriteFiles(t, root, map[string]string{
		"src/app.js":   "var a = 1;",
		"src/site.css": "a{color:red}",
		"src/doc.txt":  "plain",
	})
	rename := pipeline.EachAsset("min", func(_ context.Context, a *pipeline.Asset) ([]*pipeline.Asset, error) {
		return []*pipeline.Asset{a.Moved(a.WithExt(".min" + a.Ext()))}, nil
	})

	// --- Act ---
	res := pipeline.NewRunner(nil, nil).Run(ctx, newTask(root, "assets", "src/*", mappedStage(), rename))

	// --- Assert ---
	require.False(t, res.Failed())
	assert.Equal(t, "var a = 1;\n//# sourceMappingURL=app.min.js.map\n", testutil.ReadFile(t, root, "dist/assets/app.min.js"))
	assert.JSONEq(t, `{"version":3,"sources":["app.js"]}`, testutil.ReadFile(t, root, "dist/assets/app.min.js.map"))
	assert.Equal(t, "a{color:red}\n/*# sourceMappingURL=site.min.css.map */\n", testutil.ReadFile(t, root, "dist/assets/site.min.css"))
	assert.FileExists(t, filepath.Join(root, "dist", "assets", "site.min.css.map"))

	assert.Equal(t, "plain", testutil.ReadFile(t, root, "dist/assets/doc.min.txt"))
	assert.NoFileExists(t, filepath.Join(root, "dist", "assets", "doc.min.txt.map"))
	assert.Len(t, res.Outputs, 5)
}

func TestInlineSourceMap(t *testing.T) {
	a := &pipeline.Asset{Path: "a.js", Data: []byte("x"), SourceMap: []byte("{}")}
	assert.Equal(t, "x\n//# sourceMappingURL=data:application/json;base64,e30=\n", string(pipeline.InlineSourceMap(a)))

	plain := &pipeline.Asset{Path: "a.js", Data: []byte("x")}
	assert.Equal(t, "x", string(pipeline.InlineSourceMap(plain)))
}
