package env

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/specialistvlad/assetgrid/internal/pipeline"
	"github.com/specialistvlad/assetgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Options defines the settings of an `env` stage.
type Options struct {
	// Prefix restricts substitution to variables starting with it, so a
	// bundle cannot leak unrelated secrets from the environment.
	Prefix string `stage:"prefix"`
	// Defaults are used for variables missing from the environment.
	Defaults map[string]string `stage:"defaults"`
}

var placeholder = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Stage replaces `${NAME}` placeholders with environment variables.
type Stage struct {
	opts   Options
	lookup func(string) (string, bool)
}

// Name implements pipeline.Stage.
func (s *Stage) Name() string { return "env" }

// Transform implements pipeline.Stage. An undefined variable fails the stage.
func (s *Stage) Transform(ctx context.Context, in []*pipeline.Asset) ([]*pipeline.Asset, error) {
	return pipeline.EachAsset(s.Name(), s.expand).Transform(ctx, in)
}

func (s *Stage) expand(_ context.Context, a *pipeline.Asset) ([]*pipeline.Asset, error) {
	var missing []string
	data := placeholder.ReplaceAllFunc(a.Data, func(match []byte) []byte {
		name := string(placeholder.FindSubmatch(match)[1])
		if !strings.HasPrefix(name, s.opts.Prefix) {
			return match
		}
		if v, ok := s.lookup(name); ok {
			return []byte(v)
		}
		if v, ok := s.opts.Defaults[name]; ok {
			return []byte(v)
		}
		missing = append(missing, name)
		return match
	})
	if len(missing) > 0 {
		return nil, fmt.Errorf("%s: undefined environment variables: %s", a.Path, strings.Join(missing, ", "))
	}
	return []*pipeline.Asset{a.Derive(a.Path, data)}, nil
}

// Register registers the stage with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterStage("env", &registry.RegisteredStage{
		NewOptions: func() any { return &Options{} },
		New: func(_ registry.Env, opts any) (pipeline.Stage, error) {
			return &Stage{opts: *opts.(*Options), lookup: os.LookupEnv}, nil
		},
	})
}
