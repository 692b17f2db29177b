package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/specialistvlad/assetgrid/internal/config"
	"github.com/specialistvlad/assetgrid/internal/ctxlog"
)

// ValidateModel checks that every stage referenced by the model is registered
// and that its options decode into the stage's options struct.
func (r *Registry) ValidateModel(ctx context.Context, model *config.Model) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	for _, task := range model.Tasks {
		for i, def := range task.Stages {
			registered, ok := r.stages[def.Type]
			if !ok {
				errs = append(errs, fmt.Sprintf("task %q, stage #%d: unknown stage type %q (registered: %s)",
					task.Name, i+1, def.Type, strings.Join(r.StageTypes(), ", ")))
				continue
			}
			if _, err := decodeOptions(registered, def.Options); err != nil {
				errs = append(errs, fmt.Sprintf("task %q, stage #%d (%s): %v", task.Name, i+1, def.Type, err))
			}
		}
		if len(task.Stages) == 0 {
			logger.Warn("Task has no stages and copies its sources unchanged.", "task", task.Name)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
