package concat

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/specialistvlad/assetgrid/internal/pipeline"
	"github.com/specialistvlad/assetgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Options defines the settings of a `concat` stage.
type Options struct {
	// Name is the output path of the bundle, relative to the destination.
	Name      string `stage:"name"`
	Separator string `stage:"separator"`
}

// Stage joins every asset into a single bundle, in input order.
type Stage struct {
	opts Options
}

func newStage(opts *Options) (*Stage, error) {
	name := path.Clean(strings.TrimSpace(opts.Name))
	if name == "." || name == "" || strings.HasPrefix(name, "../") || path.IsAbs(name) {
		return nil, fmt.Errorf("name must be a relative file path, got %q", opts.Name)
	}
	return &Stage{opts: Options{Name: name, Separator: opts.Separator}}, nil
}

// Name implements pipeline.Stage.
func (s *Stage) Name() string { return "concat" }

// Transform implements pipeline.Stage.
func (s *Stage) Transform(_ context.Context, in []*pipeline.Asset) ([]*pipeline.Asset, error) {
	if len(in) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	bundle := &pipeline.Asset{Path: s.opts.Name, Base: in[0].Base}
	for i, a := range in {
		if i > 0 {
			buf.WriteString(s.opts.Separator)
		}
		buf.Write(a.Data)
		if a.ModTime.After(bundle.ModTime) {
			bundle.ModTime = a.ModTime
		}
	}
	bundle.Data = buf.Bytes()
	return []*pipeline.Asset{bundle}, nil
}

// Register registers the stage with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterStage("concat", &registry.RegisteredStage{
		NewOptions: func() any { return &Options{Separator: "\n"} },
		New: func(_ registry.Env, opts any) (pipeline.Stage, error) {
			return newStage(opts.(*Options))
		},
	})
}
