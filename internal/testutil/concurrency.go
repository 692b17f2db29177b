package testutil

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/specialistvlad/assetgrid/internal/pipeline"
)

// ExecutionRecord holds the start and end times of one stage execution.
type ExecutionRecord struct {
	Name  string
	Start time.Time
	End   time.Time
}

// Recorder collects ExecutionRecords from instrumented stages.
type Recorder struct {
	mu      sync.Mutex
	records []ExecutionRecord
}

// Records returns a copy of everything recorded so far, in completion order.
func (r *Recorder) Records() []ExecutionRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ExecutionRecord(nil), r.records...)
}

// Count returns how many executions were recorded for name.
func (r *Recorder) Count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, rec := range r.records {
		if rec.Name == name {
			n++
		}
	}
	return n
}

func (r *Recorder) add(rec ExecutionRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
}

// SleeperStage returns a pass-through stage that sleeps for d and records its
// start and end under name.
func SleeperStage(name string, d time.Duration, rec *Recorder) pipeline.Stage {
	return pipeline.StageFunc{
		StageName: "sleeper",
		Fn: func(ctx context.Context, in []*pipeline.Asset) ([]*pipeline.Asset, error) {
			start := time.Now()
			time.Sleep(d)
			rec.add(ExecutionRecord{Name: name, Start: start, End: time.Now()})
			return in, nil
		},
	}
}

// UpperStage upper-cases every asset.
func UpperStage() pipeline.Stage {
	return pipeline.EachAsset("upper", func(_ context.Context, a *pipeline.Asset) ([]*pipeline.Asset, error) {
		return []*pipeline.Asset{a.Derive(a.Path, []byte(strings.ToUpper(string(a.Data))))}, nil
	})
}

// ErrStageBroken is returned by FailingStage.
var ErrStageBroken = errors.New("stage is broken")

// FailingStage always fails with ErrStageBroken.
func FailingStage() pipeline.Stage {
	return pipeline.StageFunc{
		StageName: "broken",
		Fn: func(context.Context, []*pipeline.Asset) ([]*pipeline.Asset, error) {
			return nil, ErrStageBroken
		},
	}
}

// PanickingStage panics on every call.
func PanickingStage() pipeline.Stage {
	return pipeline.StageFunc{
		StageName: "panicky",
		Fn: func(context.Context, []*pipeline.Asset) ([]*pipeline.Asset, error) {
			panic("boom")
		},
	}
}
