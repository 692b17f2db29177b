package sass

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/bep/godartsass/v2"
	"github.com/specialistvlad/assetgrid/internal/ctxlog"
	"github.com/specialistvlad/assetgrid/internal/pipeline"
	"github.com/specialistvlad/assetgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Options defines the settings of a `sass` stage.
type Options struct {
	// OutputStyle is "expanded" or "compressed".
	OutputStyle  string   `stage:"output_style"`
	IncludePaths []string `stage:"include_paths"`
	SourceMap    bool     `stage:"sourcemap"`
	// Binary is the Dart Sass executable speaking the embedded protocol.
	Binary string `stage:"binary"`
}

// compiler is the part of godartsass.Transpiler the stage needs.
type compiler interface {
	Execute(args godartsass.Args) (godartsass.Result, error)
}

// Stage compiles SASS and SCSS sources to CSS. Partials are compiled only
// through the files that import them and produce no output of their own.
type Stage struct {
	opts         Options
	includePaths []string
	start        func() (compiler, error)

	once     sync.Once
	c        compiler
	startErr error
}

func newStage(env registry.Env, opts *Options, start func() (compiler, error)) (*Stage, error) {
	switch opts.OutputStyle {
	case "", "expanded", "compressed":
	default:
		return nil, fmt.Errorf("output_style must be \"expanded\" or \"compressed\", got %q", opts.OutputStyle)
	}

	s := &Stage{opts: *opts, start: start}
	for _, p := range opts.IncludePaths {
		if !filepath.IsAbs(p) {
			p = filepath.Join(env.Root, p)
		}
		s.includePaths = append(s.includePaths, p)
	}
	return s, nil
}

// Name implements pipeline.Stage.
func (s *Stage) Name() string { return "sass" }

// Transform implements pipeline.Stage.
func (s *Stage) Transform(ctx context.Context, in []*pipeline.Asset) ([]*pipeline.Asset, error) {
	logger := ctxlog.FromContext(ctx)
	out := make([]*pipeline.Asset, 0, len(in))

	for _, a := range in {
		syntax, ok := sourceSyntax(a.Ext())
		if !ok {
			out = append(out, a)
			continue
		}
		if a.IsPartial() {
			logger.Debug("Skipping partial.", "path", a.Path)
			continue
		}

		c, err := s.transpiler()
		if err != nil {
			return nil, err
		}

		result, err := c.Execute(godartsass.Args{
			Source:          string(a.Data),
			URL:             "file://" + filepath.ToSlash(a.Source),
			IncludePaths:    append([]string{filepath.Dir(a.Source)}, s.includePaths...),
			OutputStyle:     outputStyle(s.opts.OutputStyle),
			SourceSyntax:    syntax,
			EnableSourceMap: s.opts.SourceMap,
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", a.Path, err)
		}

		compiled := a.Derive(a.WithExt(".css"), []byte(result.CSS))
		if s.opts.SourceMap {
			compiled.SourceMap = []byte(result.SourceMap)
		}
		out = append(out, compiled)
	}
	return out, nil
}

// transpiler starts the Dart Sass process on first use.
func (s *Stage) transpiler() (compiler, error) {
	s.once.Do(func() {
		s.c, s.startErr = s.start()
	})
	if s.startErr != nil {
		return nil, fmt.Errorf("starting sass compiler: %w", s.startErr)
	}
	return s.c, nil
}

func sourceSyntax(ext string) (godartsass.SourceSyntax, bool) {
	switch ext {
	case ".scss":
		return godartsass.SourceSyntaxSCSS, true
	case ".sass":
		return godartsass.SourceSyntaxSASS, true
	default:
		return "", false
	}
}

func outputStyle(s string) godartsass.OutputStyle {
	if s == "compressed" {
		return godartsass.OutputStyleCompressed
	}
	return godartsass.OutputStyleExpanded
}

// Register registers the stage with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterStage("sass", &registry.RegisteredStage{
		NewOptions: func() any { return &Options{OutputStyle: "expanded"} },
		New: func(env registry.Env, opts any) (pipeline.Stage, error) {
			o := opts.(*Options)
			return newStage(env, o, func() (compiler, error) {
				return godartsass.Start(godartsass.Options{DartSassEmbeddedFilename: o.Binary})
			})
		},
	})
}
