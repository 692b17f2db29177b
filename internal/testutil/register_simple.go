package testutil

import (
	"github.com/specialistvlad/assetgrid/internal/pipeline"
	"github.com/specialistvlad/assetgrid/internal/registry"
)

// SimpleModule is a test helper for easily creating a mock module that
// registers a single stage type.
type SimpleModule struct {
	StageName string
	Stage     *registry.RegisteredStage
}

// Register implements the registry.Module interface.
func (m *SimpleModule) Register(r *registry.Registry) {
	if m.StageName != "" && m.Stage != nil {
		r.RegisterStage(m.StageName, m.Stage)
	}
}

// StaticStage registers a stage type that always returns stage and takes no
// options.
func StaticStage(name string, stage pipeline.Stage) *SimpleModule {
	return &SimpleModule{
		StageName: name,
		Stage: &registry.RegisteredStage{
			New: func(registry.Env, any) (pipeline.Stage, error) { return stage, nil },
		},
	}
}
