package esbuild

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/specialistvlad/assetgrid/internal/pipeline"
	"github.com/specialistvlad/assetgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Options defines the settings of an `esbuild` stage.
type Options struct {
	// Target is the language level, e.g. "es2015". Defaults to "esnext".
	Target string `stage:"target"`
	// Engines are browser targets such as "chrome58" or "safari11". They drive
	// syntax lowering and CSS vendor prefixing.
	Engines   []string `stage:"engines"`
	Minify    bool     `stage:"minify"`
	SourceMap bool     `stage:"sourcemap"`
}

// Stage transpiles and minifies JavaScript, TypeScript and CSS assets. Other
// assets pass through untouched.
type Stage struct {
	opts    Options
	target  api.Target
	engines []api.Engine
}

func newStage(opts *Options) (*Stage, error) {
	target, err := parseTarget(opts.Target)
	if err != nil {
		return nil, err
	}
	s := &Stage{opts: *opts, target: target}
	for _, e := range opts.Engines {
		engine, err := parseEngine(e)
		if err != nil {
			return nil, err
		}
		s.engines = append(s.engines, engine)
	}
	return s, nil
}

// Name implements pipeline.Stage.
func (s *Stage) Name() string { return "esbuild" }

// Transform implements pipeline.Stage.
func (s *Stage) Transform(ctx context.Context, in []*pipeline.Asset) ([]*pipeline.Asset, error) {
	out := make([]*pipeline.Asset, 0, len(in))
	for _, a := range in {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		loader, outExt, ok := loaderFor(a.Ext())
		if !ok {
			out = append(out, a)
			continue
		}

		// An incoming map is chained through so the result maps to the
		// original sources.
		withMap := s.opts.SourceMap || len(a.SourceMap) > 0
		opts := api.TransformOptions{
			Loader:            loader,
			Target:            s.target,
			Engines:           s.engines,
			MinifyWhitespace:  s.opts.Minify,
			MinifyIdentifiers: s.opts.Minify,
			MinifySyntax:      s.opts.Minify,
			Sourcefile:        path.Base(a.Path),
		}
		if withMap {
			opts.Sourcemap = api.SourceMapExternal
		}

		result := api.Transform(string(pipeline.InlineSourceMap(a)), opts)
		if len(result.Errors) > 0 {
			return nil, fmt.Errorf("%s: %s", a.Path, formatMessages(result.Errors))
		}

		transformed := a.Derive(a.WithExt(outExt), result.Code)
		if withMap {
			transformed.SourceMap = result.Map
		}
		out = append(out, transformed)
	}
	return out, nil
}

func loaderFor(ext string) (api.Loader, string, bool) {
	switch ext {
	case ".js", ".mjs":
		return api.LoaderJS, ext, true
	case ".jsx":
		return api.LoaderJSX, ".js", true
	case ".ts":
		return api.LoaderTS, ".js", true
	case ".tsx":
		return api.LoaderTSX, ".js", true
	case ".css":
		return api.LoaderCSS, ".css", true
	default:
		return api.LoaderNone, "", false
	}
}

func formatMessages(msgs []api.Message) string {
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if m.Location != nil {
			parts = append(parts, fmt.Sprintf("%d:%d: %s", m.Location.Line, m.Location.Column, m.Text))
			continue
		}
		parts = append(parts, m.Text)
	}
	return strings.Join(parts, "; ")
}

var targets = map[string]api.Target{
	"":       api.ESNext,
	"esnext": api.ESNext,
	"es5":    api.ES5,
	"es2015": api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2021": api.ES2021,
	"es2022": api.ES2022,
	"es2023": api.ES2023,
	"es2024": api.ES2024,
}

func parseTarget(s string) (api.Target, error) {
	t, ok := targets[strings.ToLower(s)]
	if !ok {
		return 0, fmt.Errorf("unknown target %q", s)
	}
	return t, nil
}

var engineNames = map[string]api.EngineName{
	"chrome":  api.EngineChrome,
	"edge":    api.EngineEdge,
	"firefox": api.EngineFirefox,
	"ie":      api.EngineIE,
	"ios":     api.EngineIOS,
	"node":    api.EngineNode,
	"opera":   api.EngineOpera,
	"safari":  api.EngineSafari,
}

// parseEngine splits "chrome58" or "safari11.1" into an engine and version.
func parseEngine(s string) (api.Engine, error) {
	i := strings.IndexFunc(s, func(r rune) bool { return r >= '0' && r <= '9' })
	if i <= 0 {
		return api.Engine{}, fmt.Errorf("invalid engine %q: expected a name followed by a version, e.g. chrome58", s)
	}
	name, ok := engineNames[strings.ToLower(s[:i])]
	if !ok {
		return api.Engine{}, fmt.Errorf("unknown engine %q", s[:i])
	}
	return api.Engine{Name: name, Version: s[i:]}, nil
}

// Register registers the stage with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterStage("esbuild", &registry.RegisteredStage{
		NewOptions: func() any { return &Options{Minify: true} },
		New: func(_ registry.Env, opts any) (pipeline.Stage, error) {
			return newStage(opts.(*Options))
		},
	})
}
