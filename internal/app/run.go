package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/specialistvlad/assetgrid/internal/config"
	"github.com/specialistvlad/assetgrid/internal/ctxlog"
	"github.com/specialistvlad/assetgrid/internal/devserver"
	"github.com/specialistvlad/assetgrid/internal/pipeline"
	"github.com/specialistvlad/assetgrid/internal/watch"
)

// Names of the groups the CLI runs.
const (
	GroupBuild = "build"
	GroupDev   = "dev"
)

// defaultWatchDebounce applies when the configuration has no server block.
const defaultWatchDebounce = 200 * time.Millisecond

// ErrTasksFailed is returned by a strict build when any task failed.
var ErrTasksFailed = errors.New("one or more tasks failed")

// Build runs the build group once. Task failures are reported through the
// notifier; they only become an error in strict mode.
func (a *App) Build(ctx context.Context) (*pipeline.GroupResult, error) {
	ctx = a.context(ctx)
	group, err := a.group(GroupBuild, nil)
	if err != nil {
		return nil, err
	}

	res, err := group.Run(pipeline.FullRebuild(ctx))
	if err != nil {
		return res, err
	}
	if failures := res.Failures(); len(failures) > 0 && a.config.Strict {
		names := make([]string, 0, len(failures))
		for _, f := range failures {
			names = append(names, f.Task)
		}
		return res, fmt.Errorf("%w: %s", ErrTasksFailed, strings.Join(names, ", "))
	}
	return res, nil
}

// RunTasks runs the named tasks once, in the given order.
func (a *App) RunTasks(ctx context.Context, names ...string) (*pipeline.GroupResult, error) {
	ctx = a.context(ctx)
	steps := make([]pipeline.Step, 0, len(names))
	for _, name := range names {
		t, err := a.task(name)
		if err != nil {
			return nil, err
		}
		steps = append(steps, pipeline.TaskStep{Task: t})
	}
	res, err := pipeline.NewGroup("run", a.runner, steps...).Run(pipeline.FullRebuild(ctx))
	if err != nil {
		return res, err
	}
	if len(res.Failures()) > 0 && a.config.Strict {
		return res, ErrTasksFailed
	}
	return res, nil
}

// devSession holds what the control steps of the dev group start.
type devSession struct {
	server     *devserver.Server
	dispatcher *watch.Dispatcher
}

// Dev runs the dev group, then blocks serving and watching until ctx is
// cancelled.
func (a *App) Dev(ctx context.Context) error {
	ctx = a.context(ctx)
	logger := ctxlog.FromContext(ctx)

	session := &devSession{}
	group, err := a.group(GroupDev, session)
	if err != nil {
		return err
	}
	if _, err := group.Run(ctx); err != nil {
		return err
	}

	logger.Info("Dev session running. Press Ctrl+C to stop.")
	<-ctx.Done()
	if session.dispatcher != nil {
		session.dispatcher.Wait()
	}
	logger.Info("Dev session stopped.")
	return nil
}

// group assembles the named group. Control steps are only available when a
// dev session is given.
func (a *App) group(name string, session *devSession) (*pipeline.Group, error) {
	def, ok := a.model.Group(name)
	if !ok {
		return nil, fmt.Errorf("group %q is not defined in %s", name, a.model.Source)
	}

	steps := make([]pipeline.Step, 0, len(def.Steps))
	for _, step := range def.Steps {
		switch step {
		case config.StepServe, config.StepWatch:
			if session == nil {
				return nil, fmt.Errorf("group %q: step %q is only available in dev mode", name, step)
			}
			steps = append(steps, a.controlStep(step, session))
		default:
			t, err := a.task(step)
			if err != nil {
				return nil, fmt.Errorf("group %q: %w", name, err)
			}
			steps = append(steps, pipeline.TaskStep{Task: t})
		}
	}
	return pipeline.NewGroup(name, a.runner, steps...), nil
}

func (a *App) controlStep(name string, session *devSession) pipeline.Step {
	if name == config.StepServe {
		return pipeline.ControlStep{StepName: name, Start: func(ctx context.Context) error {
			srv, err := a.newDevServer()
			if err != nil {
				return err
			}
			if err := srv.Start(ctx); err != nil {
				return err
			}
			session.server = srv
			return nil
		}}
	}
	return pipeline.ControlStep{StepName: name, Start: func(ctx context.Context) error {
		d, err := a.newDispatcher(session.server)
		if err != nil {
			return err
		}
		if err := d.Start(ctx); err != nil {
			return err
		}
		session.dispatcher = d
		return nil
	}}
}

func (a *App) newDevServer() (*devserver.Server, error) {
	s := a.model.Server
	root, err := a.model.ResolveDir(s.Root)
	if err != nil {
		return nil, err
	}
	return devserver.New(devserver.Options{
		Root:          root,
		Host:          s.Host,
		Port:          s.Port,
		InjectChanges: s.InjectChanges,
	}), nil
}

// newDispatcher builds one binding per watch block. A nil server means
// changes are rebuilt without browser reloads.
func (a *App) newDispatcher(server *devserver.Server) (*watch.Dispatcher, error) {
	var bindings []watch.Binding
	for i, w := range a.model.Watches {
		patterns, err := a.model.Resolve(w.Paths...)
		if err != nil {
			return nil, fmt.Errorf("watch #%d: %w", i+1, err)
		}
		steps := make([]pipeline.Step, 0, len(w.Run))
		for _, name := range w.Run {
			t, err := a.task(name)
			if err != nil {
				return nil, fmt.Errorf("watch #%d: %w", i+1, err)
			}
			steps = append(steps, pipeline.TaskStep{Task: t})
		}
		group := pipeline.NewGroup("watch:"+strings.Join(w.Run, ","), a.runner, steps...)
		bindings = append(bindings, watch.Binding{Patterns: patterns, Group: group})
	}

	debounce := defaultWatchDebounce
	if a.model.Server != nil {
		debounce = a.model.Server.ReloadDebounce
	}

	var reloader watch.Reloader
	if server != nil {
		reloader = server
	}
	outputs := make([]string, 0, len(a.tasks))
	for _, t := range a.tasks {
		outputs = append(outputs, t.Dest)
	}
	return watch.New(bindings, debounce, reloader, watch.WithIgnoredDirs(outputs...)), nil
}
