package twig

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/flosch/pongo2/v6"
	"github.com/specialistvlad/assetgrid/internal/ctxlog"
	"github.com/specialistvlad/assetgrid/internal/pipeline"
	"github.com/specialistvlad/assetgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Options defines the settings of a `twig` stage.
type Options struct {
	// Templates is the directory includes and extends are resolved against.
	// Defaults to the glob base of each page.
	Templates string `stage:"templates"`
	// Data is passed to every page as template variables.
	Data map[string]any `stage:"data"`
	// Extension replaces the page extension. Defaults to ".html".
	Extension string `stage:"extension"`
}

// Stage renders Twig-style templates into pages. Partials are only reachable
// through include or extends and are not rendered on their own.
type Stage struct {
	opts      Options
	templates string
}

func newStage(env registry.Env, opts *Options) *Stage {
	s := &Stage{opts: *opts}
	if opts.Templates != "" {
		s.templates = opts.Templates
		if !filepath.IsAbs(s.templates) {
			s.templates = filepath.Join(env.Root, s.templates)
		}
	}
	return s
}

// Name implements pipeline.Stage.
func (s *Stage) Name() string { return "twig" }

// Transform implements pipeline.Stage.
func (s *Stage) Transform(ctx context.Context, in []*pipeline.Asset) ([]*pipeline.Asset, error) {
	logger := ctxlog.FromContext(ctx)
	sets := make(map[string]*pongo2.TemplateSet)
	out := make([]*pipeline.Asset, 0, len(in))

	for _, a := range in {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if a.IsPartial() {
			logger.Debug("Skipping partial.", "path", a.Path)
			continue
		}

		set, err := s.set(sets, a)
		if err != nil {
			return nil, err
		}
		tpl, err := set.FromBytes(a.Data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", a.Path, err)
		}
		html, err := tpl.ExecuteBytes(s.context(a))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", a.Path, err)
		}
		out = append(out, a.Derive(a.WithExt(s.opts.Extension), html))
	}
	return out, nil
}

// set returns the template set rooted at the asset's template directory.
// Sets live for one Transform call so that edited partials are always reread.
func (s *Stage) set(sets map[string]*pongo2.TemplateSet, a *pipeline.Asset) (*pongo2.TemplateSet, error) {
	dir := s.templates
	if dir == "" {
		dir = a.Base
	}
	if dir == "" {
		dir = filepath.Dir(a.Source)
	}
	if set, ok := sets[dir]; ok {
		return set, nil
	}
	loader, err := pongo2.NewLocalFileSystemLoader(dir)
	if err != nil {
		return nil, fmt.Errorf("template directory %s: %w", dir, err)
	}
	set := pongo2.NewSet("twig:"+dir, loader)
	sets[dir] = set
	return set, nil
}

func (s *Stage) context(a *pipeline.Asset) pongo2.Context {
	ctx := make(pongo2.Context, len(s.opts.Data)+1)
	for k, v := range s.opts.Data {
		ctx[k] = v
	}
	ctx["page"] = map[string]any{"path": a.WithExt(s.opts.Extension)}
	return ctx
}

// Register registers the stage with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterStage("twig", &registry.RegisteredStage{
		NewOptions: func() any { return &Options{Extension: ".html"} },
		New: func(env registry.Env, opts any) (pipeline.Stage, error) {
			return newStage(env, opts.(*Options)), nil
		},
	})
}
