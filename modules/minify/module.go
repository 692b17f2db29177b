package minify

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/specialistvlad/assetgrid/internal/pipeline"
	"github.com/specialistvlad/assetgrid/internal/registry"
	tdminify "github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"github.com/tdewolff/minify/v2/json"
	"github.com/tdewolff/minify/v2/svg"
	"github.com/tdewolff/minify/v2/xml"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Options defines the settings of a `minify` stage.
type Options struct {
	// Types restricts minification to these extensions, e.g. [".html"].
	// Empty means every supported type.
	Types          []string `stage:"types"`
	KeepWhitespace bool     `stage:"keep_whitespace"`
	KeepComments   bool     `stage:"keep_comments"`
}

var mediaTypes = map[string]string{
	".css":  "text/css",
	".js":   "application/javascript",
	".mjs":  "application/javascript",
	".html": "text/html",
	".htm":  "text/html",
	".svg":  "image/svg+xml",
	".json": "application/json",
	".map":  "application/json",
	".xml":  "text/xml",
}

// New returns a minifier for every supported media type.
func New(opts Options) *tdminify.M {
	m := tdminify.New()
	m.AddFunc("text/css", css.Minify)
	m.Add("text/html", &html.Minifier{
		KeepDocumentTags: true,
		KeepEndTags:      true,
		KeepWhitespace:   opts.KeepWhitespace,
		KeepComments:     opts.KeepComments,
	})
	m.AddFunc("image/svg+xml", svg.Minify)
	m.AddFuncRegexp(regexp.MustCompile("^(application|text)/(x-)?(java|ecma)script$"), js.Minify)
	m.AddFuncRegexp(regexp.MustCompile("[/+]json$"), json.Minify)
	m.AddFuncRegexp(regexp.MustCompile("[/+]xml$"), xml.Minify)
	return m
}

// MediaType returns the media type minify uses for a file extension.
func MediaType(ext string) (string, bool) {
	t, ok := mediaTypes[strings.ToLower(ext)]
	return t, ok
}

// Stage minifies HTML, CSS, JavaScript, SVG, JSON and XML assets.
type Stage struct {
	m     *tdminify.M
	types map[string]struct{}
}

func newStage(opts *Options) (*Stage, error) {
	s := &Stage{m: New(*opts)}
	if len(opts.Types) > 0 {
		s.types = make(map[string]struct{}, len(opts.Types))
		for _, ext := range opts.Types {
			ext = strings.ToLower(ext)
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			if _, ok := mediaTypes[ext]; !ok {
				return nil, fmt.Errorf("unsupported type %q", ext)
			}
			s.types[ext] = struct{}{}
		}
	}
	return s, nil
}

// Name implements pipeline.Stage.
func (s *Stage) Name() string { return "minify" }

// Transform implements pipeline.Stage.
func (s *Stage) Transform(ctx context.Context, in []*pipeline.Asset) ([]*pipeline.Asset, error) {
	return pipeline.EachAsset(s.Name(), s.minify).Transform(ctx, in)
}

func (s *Stage) minify(_ context.Context, a *pipeline.Asset) ([]*pipeline.Asset, error) {
	ext := strings.ToLower(a.Ext())
	mediaType, ok := mediaTypes[ext]
	if !ok {
		return []*pipeline.Asset{a}, nil
	}
	if s.types != nil {
		if _, want := s.types[ext]; !want {
			return []*pipeline.Asset{a}, nil
		}
	}

	data, err := s.m.Bytes(mediaType, a.Data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.Path, err)
	}
	return []*pipeline.Asset{a.Derive(a.Path, data)}, nil
}

// Register registers the stage with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterStage("minify", &registry.RegisteredStage{
		NewOptions: func() any { return &Options{} },
		New: func(_ registry.Env, opts any) (pipeline.Stage, error) {
			return newStage(opts.(*Options))
		},
	})
}
