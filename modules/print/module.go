package print

import (
	"context"

	"github.com/specialistvlad/assetgrid/internal/ctxlog"
	"github.com/specialistvlad/assetgrid/internal/pipeline"
	"github.com/specialistvlad/assetgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Options defines the settings of a `print` stage.
type Options struct {
	Title string `stage:"title"`
}

// Stage logs every asset passing through it and forwards them unchanged.
type Stage struct {
	title string
}

// Name implements pipeline.Stage.
func (s *Stage) Name() string { return "print" }

// Transform implements pipeline.Stage.
func (s *Stage) Transform(ctx context.Context, in []*pipeline.Asset) ([]*pipeline.Asset, error) {
	logger := ctxlog.FromContext(ctx)
	var total int
	for _, a := range in {
		logger.Info("🖨️ Asset.", "title", s.title, "path", a.Path, "bytes", len(a.Data))
		total += len(a.Data)
	}
	logger.Info("🖨️ Assets printed.", "title", s.title, "count", len(in), "bytes", total)
	return in, nil
}

// Register registers the stage with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterStage("print", &registry.RegisteredStage{
		NewOptions: func() any { return &Options{} },
		New: func(_ registry.Env, opts any) (pipeline.Stage, error) {
			return &Stage{title: opts.(*Options).Title}, nil
		},
	})
}
