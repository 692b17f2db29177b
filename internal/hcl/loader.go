package hcl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/assetgrid/internal/config"
	"github.com/specialistvlad/assetgrid/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads and translates the configuration file at path. Relative paths in
// the resulting model are resolved against the file's directory.
func (l *Loader) Load(ctx context.Context, path string) (*config.Model, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration: %w", err)
	}

	model, err := l.Parse(ctx, path, src)
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving configuration path: %w", err)
	}
	model.Source = abs
	model.Root = filepath.Dir(abs)
	return model, nil
}

// Parse translates HCL source into a model. filename is only used in
// diagnostics.
func (l *Loader) Parse(ctx context.Context, filename string, src []byte) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "file", filename)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}

	var root fileRoot
	diags = gohcl.DecodeBody(file.Body, nil, &root)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	model, diags := l.translate(&root)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}
	model.Source = filename

	logger.Debug("HCL loading complete.",
		"paths", len(model.Paths),
		"tasks", len(model.Tasks),
		"groups", len(model.Groups),
		"watches", len(model.Watches),
	)
	return model, nil
}

// Diagnostics are accumulated across blocks so that one run reports every
// problem in the file.
func (l *Loader) translate(root *fileRoot) (*config.Model, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	model := &config.Model{Paths: make(map[string][]string)}

	if root.Paths != nil {
		paths, d := translatePaths(root.Paths)
		diags = append(diags, d...)
		model.Paths = paths
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{pathsVariable: pathsValue(model.Paths)},
	}

	for _, t := range root.Tasks {
		task, d := translateTask(t, evalCtx)
		diags = append(diags, d...)
		if task != nil {
			model.Tasks = append(model.Tasks, task)
		}
	}
	for _, g := range root.Groups {
		model.Groups = append(model.Groups, &config.GroupDefinition{Name: g.Name, Steps: g.Steps})
	}
	for _, w := range root.Watches {
		roles, d := pathRoles(w.Paths)
		diags = append(diags, d...)
		model.Watches = append(model.Watches, &config.WatchDefinition{Paths: roles, Run: w.Run})
	}
	if root.Server != nil {
		server, d := translateServer(root.Server)
		diags = append(diags, d...)
		model.Server = server
	}

	model.Notify = translateNotify(root.Notify)

	if root.Publish != nil {
		publish, d := translatePublish(root.Publish)
		diags = append(diags, d...)
		model.Publish = publish
	}
	return model, diags
}
