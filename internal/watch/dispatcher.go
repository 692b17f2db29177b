package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/specialistvlad/assetgrid/internal/ctxlog"
	"github.com/specialistvlad/assetgrid/internal/fsutil"
	"github.com/specialistvlad/assetgrid/internal/pipeline"
)

// Reloader is told which files changed once a re-run has written them.
type Reloader interface {
	Reload(ctx context.Context, files []string) error
}

// Binding ties absolute source globs to the group re-run when they change.
type Binding struct {
	Patterns []string
	Group    *pipeline.Group
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithStateHook registers fn to be called on every state transition of
// every binding. fn runs on the binding's goroutine.
func WithStateHook(fn func(binding int, s State)) Option {
	return func(d *Dispatcher) { d.onState = fn }
}

// WithIgnoredDirs keeps the given absolute directories, typically task
// outputs, out of recursive watches.
func WithIgnoredDirs(dirs ...string) Option {
	return func(d *Dispatcher) {
		for _, dir := range dirs {
			d.ignored[filepath.Clean(dir)] = struct{}{}
		}
	}
}

// WithoutFileSystem disables fsnotify listeners; changes are then only
// delivered through Dispatcher.Notify.
func WithoutFileSystem() Option {
	return func(d *Dispatcher) { d.noFS = true }
}

// Dispatcher owns every watch binding of a dev session.
type Dispatcher struct {
	bindings []*binding
	debounce time.Duration
	reloader Reloader
	onState  func(int, State)
	noFS     bool
	ignored  map[string]struct{}

	wg sync.WaitGroup
}

type binding struct {
	index    int
	patterns []string
	group    *pipeline.Group
	pending  chan struct{}
	watcher  *fsnotify.Watcher
}

// New creates a Dispatcher. A nil reloader skips the reload notification.
func New(bindings []Binding, debounce time.Duration, reloader Reloader, opts ...Option) *Dispatcher {
	d := &Dispatcher{debounce: debounce, reloader: reloader, ignored: make(map[string]struct{})}
	for i, b := range bindings {
		d.bindings = append(d.bindings, &binding{
			index:    i,
			patterns: b.Patterns,
			group:    b.Group,
			pending:  make(chan struct{}, 1),
		})
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start installs the listeners and returns once every binding is watching.
// Bindings stop when ctx is cancelled; Wait blocks until they have.
func (d *Dispatcher) Start(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	for _, b := range d.bindings {
		if !d.noFS {
			w, err := fsnotify.NewWatcher()
			if err != nil {
				d.closeWatchers()
				return fmt.Errorf("creating watcher: %w", err)
			}
			b.watcher = w
			dirs, err := d.watchRoots(b)
			if err != nil {
				d.closeWatchers()
				return err
			}
			for _, dir := range dirs {
				if err := w.Add(dir); err != nil {
					d.closeWatchers()
					return fmt.Errorf("watching %s: %w", dir, err)
				}
			}
			logger.Debug("Watching directories.", "binding", b.index, "dirs", len(dirs))

			d.wg.Add(1)
			go d.listen(ctx, b)
		}

		d.wg.Add(1)
		go d.loop(ctx, b)
	}

	logger.Info("👀 Watching sources.", "bindings", len(d.bindings), "debounce", d.debounce)
	return nil
}

// Wait blocks until every binding goroutine has exited.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Notify reports a change of path to every binding whose globs match it.
func (d *Dispatcher) Notify(path string) {
	for _, b := range d.bindings {
		if fsutil.MatchAny(b.patterns, path) {
			b.schedule()
		}
	}
}

func (d *Dispatcher) closeWatchers() {
	for _, b := range d.bindings {
		if b.watcher != nil {
			b.watcher.Close()
		}
	}
}

// schedule never blocks: a run already pending absorbs the change.
func (b *binding) schedule() {
	select {
	case b.pending <- struct{}{}:
	default:
	}
}

// skippedDirs are never entered while walking below a glob base.
var skippedDirs = map[string]struct{}{
	"node_modules": {},
}

// watchRoots returns every directory to watch for the binding. A base that
// does not exist yet is approached from its nearest existing ancestor.
func (d *Dispatcher) watchRoots(b *binding) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	for _, base := range b.bases() {
		dir := base
		for {
			if _, err := os.Stat(dir); err == nil {
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
		dirs, err := d.dirsFor(b, dir)
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", dir, err)
		}
		for _, dir := range dirs {
			if _, ok := seen[dir]; !ok {
				seen[dir] = struct{}{}
				out = append(out, dir)
			}
		}
	}
	return out, nil
}

// dirsFor returns the directories to watch at or below dir. Inside a glob
// base the whole tree is watched, minus skipped and ignored directories.
// Above a base only dir itself and the existing directories leading down to
// the base are watched. Any other directory yields nothing.
func (d *Dispatcher) dirsFor(b *binding, dir string) ([]string, error) {
	dir = filepath.Clean(dir)
	bases := b.bases()
	for _, base := range bases {
		if within(base, dir) {
			return d.walk(dir)
		}
	}

	var out []string
	for _, base := range bases {
		if !within(dir, base) {
			continue
		}
		if out == nil {
			out = []string{dir}
		}
		rel, err := filepath.Rel(dir, base)
		if err != nil {
			continue
		}
		next := filepath.Join(dir, strings.SplitN(rel, string(filepath.Separator), 2)[0])
		if info, err := os.Stat(next); err != nil || !info.IsDir() {
			continue
		}
		sub, err := d.dirsFor(b, next)
		if err != nil {
			return nil, err
		}
		out = append(out, sub...)
	}
	return out, nil
}

func (d *Dispatcher) walk(root string) ([]string, error) {
	var dirs []string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !entry.IsDir() {
			return nil
		}
		if path != root {
			if _, skip := skippedDirs[entry.Name()]; skip || strings.HasPrefix(entry.Name(), ".") {
				return filepath.SkipDir
			}
			if _, ignored := d.ignored[path]; ignored {
				return filepath.SkipDir
			}
		}
		dirs = append(dirs, path)
		return nil
	})
	return dirs, err
}

func (b *binding) bases() []string {
	out := make([]string, 0, len(b.patterns))
	for _, p := range b.patterns {
		out = append(out, filepath.Clean(fsutil.GlobBase(p)))
	}
	return out
}

// within reports whether path is dir or lies below it.
func within(dir, path string) bool {
	if path == dir {
		return true
	}
	if !strings.HasSuffix(dir, string(filepath.Separator)) {
		dir += string(filepath.Separator)
	}
	return strings.HasPrefix(path, dir)
}

func (d *Dispatcher) listen(ctx context.Context, b *binding) {
	defer d.wg.Done()
	defer b.watcher.Close()
	logger := ctxlog.FromContext(ctx).With("binding", b.index)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-b.watcher.Events:
			if !ok {
				return
			}
			if ev.Op == fsnotify.Chmod {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					d.addDirs(ctx, b, ev.Name)
				}
			}
			if fsutil.MatchAny(b.patterns, ev.Name) {
				logger.Debug("Source changed.", "path", ev.Name, "op", ev.Op.String())
				b.schedule()
			}
		case err, ok := <-b.watcher.Errors:
			if !ok {
				return
			}
			if !errors.Is(err, fsnotify.ErrEventOverflow) {
				logger.Warn("Watcher error.", "error", err)
				continue
			}
			logger.Warn("Watcher overflowed, scheduling a run.", "error", err)
			b.schedule()
		}
	}
}

// addDirs starts watching a newly created directory when it leads to or
// lies inside a glob base. Files created inside it before the watch was
// installed are picked up by scheduling a run.
func (d *Dispatcher) addDirs(ctx context.Context, b *binding, root string) {
	dirs, err := d.dirsFor(b, root)
	if err != nil {
		ctxlog.FromContext(ctx).Warn("Failed to list new directory.", "path", root, "error", err)
		return
	}
	for _, dir := range dirs {
		if err := b.watcher.Add(dir); err != nil {
			ctxlog.FromContext(ctx).Warn("Failed to watch new directory.", "path", dir, "error", err)
		}
	}
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !e.IsDir() && fsutil.MatchAny(b.patterns, filepath.Join(dir, e.Name())) {
				b.schedule()
				return
			}
		}
	}
}

func (d *Dispatcher) loop(ctx context.Context, b *binding) {
	defer d.wg.Done()
	logger := ctxlog.FromContext(ctx).With("binding", b.index)
	ctx = ctxlog.WithLogger(ctx, logger)

	for {
		select {
		case <-ctx.Done():
			return
		case <-b.pending:
		}

		if !d.settle(ctx, b) {
			return
		}

		d.setState(b, StateRerunning)
		res, err := b.group.Run(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("Watch run failed.", "error", err)
			d.setState(b, StateIdle)
			continue
		}

		d.setState(b, StateNotifying)
		d.reload(ctx, res)
		d.setState(b, StateIdle)
	}
}

// settle waits until no change has arrived for a full debounce window.
func (d *Dispatcher) settle(ctx context.Context, b *binding) bool {
	if d.debounce <= 0 {
		return true
	}
	timer := time.NewTimer(d.debounce)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return false
		case <-b.pending:
			timer.Reset(d.debounce)
		case <-timer.C:
			return true
		}
	}
}

func (d *Dispatcher) reload(ctx context.Context, res *pipeline.GroupResult) {
	if d.reloader == nil {
		return
	}
	files := res.Outputs()
	if len(files) == 0 {
		ctxlog.FromContext(ctx).Debug("Nothing produced, skipping reload.")
		return
	}
	if err := d.reloader.Reload(ctx, files); err != nil {
		ctxlog.FromContext(ctx).Warn("Failed to notify browsers.", "error", err)
	}
}

func (d *Dispatcher) setState(b *binding, s State) {
	if d.onState != nil {
		d.onState(b.index, s)
	}
}
