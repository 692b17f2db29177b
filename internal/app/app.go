package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/specialistvlad/assetgrid/internal/config"
	"github.com/specialistvlad/assetgrid/internal/ctxlog"
	"github.com/specialistvlad/assetgrid/internal/notify"
	"github.com/specialistvlad/assetgrid/internal/pipeline"
	"github.com/specialistvlad/assetgrid/internal/registry"
)

const notifyFlushTimeout = 5 * time.Second

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	registry *registry.Registry
	model    *config.Model
	tasks    map[string]*pipeline.Task
	notifier notify.Notifier
	runner   *pipeline.Runner
}

// NewApp is the constructor for the main application. It loads and validates
// the configuration file and compiles every task. A nil loader is chosen from
// the file extension; no modules means the core modules.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader, modules ...registry.Module) (*App, error) {
	logger := NewLogger(cfg, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All Go modules registered.", "count", len(modules), "stages", reg.StageTypes())

	if loader == nil {
		l, err := LoaderFor(cfg.ConfigPath)
		if err != nil {
			return nil, err
		}
		loader = l
	}

	a := &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		registry: reg,
	}
	if err := a.loadModel(ctx, loader); err != nil {
		return nil, err
	}

	a.notifier = notify.FromConfig(a.model.Notify, outW)
	a.runner = pipeline.NewRunner(notify.Handler(a.notifier, a.model.Notify), nil)
	return a, nil
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Model returns the loaded configuration.
func (a *App) Model() *config.Model {
	return a.model
}

// SetNotifier replaces the notifier Stage Failures are delivered to.
func (a *App) SetNotifier(n notify.Notifier) {
	a.notifier = n
	a.runner = pipeline.NewRunner(notify.Handler(n, a.model.Notify), nil)
}

// Close waits briefly for notifications still being delivered in the
// background, so a failure reported just before exit is not lost.
func (a *App) Close() {
	if !notify.Flush(a.notifier, notifyFlushTimeout) {
		a.logger.Warn("Gave up waiting for notifications.", "timeout", notifyFlushTimeout)
	}
}

func (a *App) context(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}

func (a *App) task(name string) (*pipeline.Task, error) {
	t, ok := a.tasks[name]
	if !ok {
		return nil, fmt.Errorf("unknown task %q", name)
	}
	return t, nil
}
