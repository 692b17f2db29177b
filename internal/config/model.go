package config

import (
	"fmt"
	"path/filepath"
	"time"
)

// Names of the control steps a group may contain besides tasks.
const (
	StepServe = "serve"
	StepWatch = "watch"
)

// Default notification texts.
const (
	DefaultNotifyTitle    = "assetgrid"
	DefaultNotifySubtitle = "Error!"
)

// Model is the unified, format-agnostic representation of the entire
// configuration file.
type Model struct {
	// Source is the file the model was loaded from.
	Source string
	// Root is the directory relative paths are resolved against.
	Root string

	// Paths maps a logical role to one or more globs or directories.
	Paths   map[string][]string
	Tasks   []*TaskDefinition
	Groups  []*GroupDefinition
	Watches []*WatchDefinition
	Server  *ServerDefinition
	Notify  *NotifyDefinition
	Publish *PublishDefinition
}

// TaskDefinition is the format-agnostic representation of a `task` block.
type TaskDefinition struct {
	Name string
	// Src holds path roles whose globs are the task inputs.
	Src []string
	// Dest is the path role of the output directory.
	Dest        string
	Incremental bool
	Stages      []*StageDefinition
}

// StageDefinition is one entry of a task's transform chain.
type StageDefinition struct {
	Type    string
	Options map[string]any
}

// GroupDefinition is an ordered list of task names and control steps.
type GroupDefinition struct {
	Name  string
	Steps []string
}

// WatchDefinition binds source path roles to the tasks re-run when they change.
type WatchDefinition struct {
	Paths []string
	Run   []string
}

// ServerDefinition configures the development server.
type ServerDefinition struct {
	// Root is the path role served as the document root.
	Root           string
	Host           string
	Port           int
	ReloadDebounce time.Duration
	InjectChanges  bool
}

// NotifyDefinition configures Stage Failure notifications.
type NotifyDefinition struct {
	Title    string
	Subtitle string
	Desktop  bool
	Console  bool
}

// PublishDefinition configures uploads of the build output to object storage.
type PublishDefinition struct {
	// Root is the path role of the directory to upload.
	Root     string
	Endpoint string
	Bucket   string
	Prefix   string
	Region   string
	UseSSL   bool
}

// DefaultNotify returns the notification settings used when a file has no
// `notify` block.
func DefaultNotify() *NotifyDefinition {
	return &NotifyDefinition{
		Title:    DefaultNotifyTitle,
		Subtitle: DefaultNotifySubtitle,
		Desktop:  true,
		Console:  true,
	}
}

// Task returns the task called name.
func (m *Model) Task(name string) (*TaskDefinition, bool) {
	for _, t := range m.Tasks {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}

// Group returns the group called name.
func (m *Model) Group(name string) (*GroupDefinition, bool) {
	for _, g := range m.Groups {
		if g.Name == name {
			return g, true
		}
	}
	return nil, false
}

// Resolve returns the absolute patterns of every given role, in order.
func (m *Model) Resolve(roles ...string) ([]string, error) {
	var out []string
	for _, role := range roles {
		values, ok := m.Paths[role]
		if !ok {
			return nil, fmt.Errorf("unknown path role %q", role)
		}
		for _, v := range values {
			out = append(out, m.abs(v))
		}
	}
	return out, nil
}

// ResolveDir returns the single absolute directory of a destination role.
func (m *Model) ResolveDir(role string) (string, error) {
	values, ok := m.Paths[role]
	if !ok {
		return "", fmt.Errorf("unknown path role %q", role)
	}
	if len(values) != 1 {
		return "", fmt.Errorf("path role %q must name exactly one directory, got %d values", role, len(values))
	}
	return m.abs(values[0]), nil
}

func (m *Model) abs(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(m.Root, p)
}
