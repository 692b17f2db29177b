package registry

import (
	"context"
	"fmt"

	"github.com/specialistvlad/assetgrid/internal/config"
	"github.com/specialistvlad/assetgrid/internal/ctxlog"
	"github.com/specialistvlad/assetgrid/internal/pipeline"
)

// BuildTasks compiles every task definition of a validated model into a
// runnable pipeline.Task, keyed by name.
func (r *Registry) BuildTasks(ctx context.Context, model *config.Model) (map[string]*pipeline.Task, error) {
	logger := ctxlog.FromContext(ctx)
	env := Env{Root: model.Root}
	tasks := make(map[string]*pipeline.Task, len(model.Tasks))

	for _, def := range model.Tasks {
		inputs, err := model.Resolve(def.Src...)
		if err != nil {
			return nil, fmt.Errorf("task %q: %w", def.Name, err)
		}
		dest, err := model.ResolveDir(def.Dest)
		if err != nil {
			return nil, fmt.Errorf("task %q: %w", def.Name, err)
		}

		task := &pipeline.Task{
			Name:        def.Name,
			Inputs:      inputs,
			Dest:        dest,
			Incremental: def.Incremental,
		}
		for _, s := range def.Stages {
			stage, err := r.NewStage(env, s)
			if err != nil {
				return nil, fmt.Errorf("task %q: %w", def.Name, err)
			}
			task.Stages = append(task.Stages, stage)
		}
		tasks[def.Name] = task
		logger.Debug("Task compiled.", "task", def.Name, "inputs", len(inputs), "stages", len(task.Stages), "dest", dest)
	}
	return tasks, nil
}
