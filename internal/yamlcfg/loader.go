package yamlcfg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/specialistvlad/assetgrid/internal/config"
	"github.com/specialistvlad/assetgrid/internal/ctxlog"
	"gopkg.in/yaml.v3"
)

// Loader is the YAML implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new YAML configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads the YAML file at path. Relative paths in the resulting model are
// resolved against the file's directory.
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

// Parse translates YAML source into a model.
func (l *Loader) Parse(ctx context.Context, filename string, src []byte) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("YAML loader started.", "file", filename)

	var doc document
	if err := yaml.Unmarshal(src, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode YAML file %s: %w", filename, err)
	}

	model, err := translate(&doc)
	if err != nil {
		return nil, fmt.Errorf("failed to decode YAML file %s: %w", filename, err)
	}
	model.Source = filename

	logger.Debug("YAML loading complete.", "paths", len(model.Paths), "tasks", len(model.Tasks), "groups", len(model.Groups))
	return model, nil
}

func translate(doc *document) (*config.Model, error) {
	model := &config.Model{
		Paths:  make(map[string][]string, len(doc.Paths)),
		Notify: config.DefaultNotify(),
	}
	for role, values := range doc.Paths {
		model.Paths[role] = values
	}

	for i, t := range doc.Tasks {
		task := &config.TaskDefinition{
			Name:        t.Name,
			Src:         t.Src,
			Dest:        t.Dest,
			Incremental: t.Incremental,
		}
		for j, raw := range t.Stages {
			stage, err := translateStage(raw)
			if err != nil {
				return nil, fmt.Errorf("task #%d (%s) stage #%d: %w", i+1, t.Name, j+1, err)
			}
			task.Stages = append(task.Stages, stage)
		}
		model.Tasks = append(model.Tasks, task)
	}

	for _, g := range doc.Groups {
		model.Groups = append(model.Groups, &config.GroupDefinition{Name: g.Name, Steps: g.Steps})
	}
	for _, w := range doc.Watch {
		model.Watches = append(model.Watches, &config.WatchDefinition{Paths: w.Paths, Run: w.Run})
	}

	if s := doc.Server; s != nil {
		server := &config.ServerDefinition{
			Root:           s.Root,
			Host:           "localhost",
			Port:           3000,
			ReloadDebounce: time.Second,
			InjectChanges:  true,
		}
		if s.Host != nil {
			server.Host = *s.Host
		}
		if s.Port != nil {
			server.Port = *s.Port
		}
		if s.InjectChanges != nil {
			server.InjectChanges = *s.InjectChanges
		}
		if s.ReloadDebounce != nil {
			d, err := time.ParseDuration(*s.ReloadDebounce)
			if err != nil {
				return nil, fmt.Errorf("server.reload_debounce: %w", err)
			}
			server.ReloadDebounce = d
		}
		model.Server = server
	}

	if n := doc.Notify; n != nil {
		if n.Title != nil {
			model.Notify.Title = *n.Title
		}
		if n.Subtitle != nil {
			model.Notify.Subtitle = *n.Subtitle
		}
		if n.Desktop != nil {
			model.Notify.Desktop = *n.Desktop
		}
		if n.Console != nil {
			model.Notify.Console = *n.Console
		}
	}

	if p := doc.Publish; p != nil {
		model.Publish = &config.PublishDefinition{
			Root:     p.Root,
			Endpoint: p.Endpoint,
			Bucket:   p.Bucket,
			Prefix:   p.Prefix,
			Region:   p.Region,
			UseSSL:   true,
		}
		if p.UseSSL != nil {
			model.Publish.UseSSL = *p.UseSSL
		}
	}
	return model, nil
}

// translateStage splits a stage mapping into its type and its options.
func translateStage(raw map[string]any) (*config.StageDefinition, error) {
	typ, ok := raw["type"].(string)
	if !ok || typ == "" {
		return nil, fmt.Errorf("missing stage type")
	}
	options := make(map[string]any, len(raw)-1)
	for k, v := range raw {
		if k != "type" {
			options[k] = v
		}
	}
	return &config.StageDefinition{Type: typ, Options: options}, nil
}
