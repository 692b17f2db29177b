package rename

import (
	"context"
	"path"
	"strings"

	"github.com/specialistvlad/assetgrid/internal/pipeline"
	"github.com/specialistvlad/assetgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Options defines the settings of a `rename` stage. Every field is optional;
// a file "css/site.css" renamed with prefix "x-", suffix ".min" and dirname
// "styles" becomes "styles/x-site.min.css".
type Options struct {
	Dirname  *string `stage:"dirname"`
	Basename *string `stage:"basename"`
	Prefix   string  `stage:"prefix"`
	Suffix   string  `stage:"suffix"`
	Extname  *string `stage:"extname"`
}

// Stage rewrites output paths without touching contents or source maps.
type Stage struct {
	opts Options
}

// Name implements pipeline.Stage.
func (s *Stage) Name() string { return "rename" }

// Transform implements pipeline.Stage.
func (s *Stage) Transform(ctx context.Context, in []*pipeline.Asset) ([]*pipeline.Asset, error) {
	return pipeline.EachAsset(s.Name(), func(_ context.Context, a *pipeline.Asset) ([]*pipeline.Asset, error) {
		return []*pipeline.Asset{a.Moved(s.rename(a.Path))}, nil
	}).Transform(ctx, in)
}

func (s *Stage) rename(p string) string {
	dir, file := path.Split(p)
	ext := path.Ext(file)
	base := strings.TrimSuffix(file, ext)

	if s.opts.Dirname != nil {
		dir = *s.opts.Dirname
	}
	if s.opts.Basename != nil {
		base = *s.opts.Basename
	}
	if s.opts.Extname != nil {
		ext = *s.opts.Extname
	}
	return path.Join(dir, s.opts.Prefix+base+s.opts.Suffix+ext)
}

// Register registers the stage with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterStage("rename", &registry.RegisteredStage{
		NewOptions: func() any { return &Options{} },
		New: func(_ registry.Env, opts any) (pipeline.Stage, error) {
			return &Stage{opts: *opts.(*Options)}, nil
		},
	})
}
