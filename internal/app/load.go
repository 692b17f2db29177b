package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/assetgrid/internal/config"
	"github.com/specialistvlad/assetgrid/internal/ctxlog"
	"github.com/specialistvlad/assetgrid/internal/hcl"
	"github.com/specialistvlad/assetgrid/internal/yamlcfg"
)

// LoaderFor picks the configuration loader by file extension.
func LoaderFor(path string) (config.Loader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hcl":
		return hcl.NewLoader(), nil
	case ".yaml", ".yml":
		return yamlcfg.NewLoader(), nil
	default:
		return nil, fmt.Errorf("unsupported configuration file %s: expected .hcl, .yaml or .yml", path)
	}
}

// loadModel loads and validates the configuration, then checks it against
// the registered stages.
func (a *App) loadModel(ctx context.Context, loader config.Loader) error {
	logger := ctxlog.FromContext(ctx)

	model, err := loader.Load(ctx, a.config.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Debug("Configuration loaded and translated into unified model.", "source", model.Source)

	if err := model.Validate(); err != nil {
		return err
	}
	if err := a.registry.ValidateModel(ctx, model); err != nil {
		return err
	}
	logger.Debug("Registry validation passed.")

	for _, role := range model.OverlappingWatchDestinations() {
		logger.Warn("Watch bindings share an output directory and may race.", "role", role)
	}

	tasks, err := a.registry.BuildTasks(ctx, model)
	if err != nil {
		return err
	}

	a.model = model
	a.tasks = tasks
	return nil
}
