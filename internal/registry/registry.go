package registry

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/specialistvlad/assetgrid/internal/pipeline"
)

// Module is the interface that all core modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Env carries what a stage constructor may need from the loaded configuration.
type Env struct {
	// Root is the directory relative option paths are resolved against.
	Root string
}

// RegisteredStage holds the compiled Go parts of a stage type.
type RegisteredStage struct {
	// NewOptions returns a pointer to a fresh options struct. Fields are
	// decoded from the `stage` struct tag. May be nil for stages without
	// options.
	NewOptions func() any
	// New builds the stage from decoded options.
	New func(env Env, opts any) (pipeline.Stage, error)
}

// Registry holds all the registered stage types for a single application
// instance.
type Registry struct {
	stages map[string]*RegisteredStage
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{stages: make(map[string]*RegisteredStage)}
}

// RegisterStage registers the constructor of a stage type.
func (r *Registry) RegisterStage(name string, stage *RegisteredStage) {
	if _, exists := r.stages[name]; exists {
		panic(fmt.Sprintf("stage with name '%s' already registered", name))
	}
	slog.Debug("Registering stage.", "name", name)
	r.stages[name] = stage
}

// Stage returns the registered stage type called name.
func (r *Registry) Stage(name string) (*RegisteredStage, bool) {
	s, ok := r.stages[name]
	return s, ok
}

// StageTypes returns the sorted names of every registered stage type.
func (r *Registry) StageTypes() []string {
	names := make([]string, 0, len(r.stages))
	for name := range r.stages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
