package config

import (
	"fmt"
	"sort"
	"strings"
)

// Validate checks the structural integrity of a loaded model: unique names,
// resolvable references and that every path role is consumed somewhere.
// Stage types are checked separately by the registry.
func (m *Model) Validate() error {
	var errs []string
	consumed := make(map[string]struct{})

	use := func(owner, role string) {
		if _, ok := m.Paths[role]; !ok {
			errs = append(errs, fmt.Sprintf("%s: unknown path role %q", owner, role))
			return
		}
		consumed[role] = struct{}{}
	}
	useDir := func(owner, role string) {
		use(owner, role)
		if values, ok := m.Paths[role]; ok && len(values) != 1 {
			errs = append(errs, fmt.Sprintf("%s: path role %q must name exactly one directory", owner, role))
		}
	}

	tasks := make(map[string]struct{})
	for _, t := range m.Tasks {
		owner := fmt.Sprintf("task %q", t.Name)
		if t.Name == StepServe || t.Name == StepWatch {
			errs = append(errs, fmt.Sprintf("%s: name is reserved for a control step", owner))
		}
		if _, dup := tasks[t.Name]; dup {
			errs = append(errs, fmt.Sprintf("%s: declared more than once", owner))
		}
		tasks[t.Name] = struct{}{}

		if len(t.Src) == 0 {
			errs = append(errs, fmt.Sprintf("%s: at least one source path role is required", owner))
		}
		for _, role := range t.Src {
			use(owner, role)
		}
		useDir(owner, t.Dest)
		for i, s := range t.Stages {
			if strings.TrimSpace(s.Type) == "" {
				errs = append(errs, fmt.Sprintf("%s: stage #%d has no type", owner, i+1))
			}
		}
	}

	groups := make(map[string]struct{})
	for _, g := range m.Groups {
		owner := fmt.Sprintf("group %q", g.Name)
		if _, dup := groups[g.Name]; dup {
			errs = append(errs, fmt.Sprintf("%s: declared more than once", owner))
		}
		groups[g.Name] = struct{}{}

		for _, step := range g.Steps {
			switch step {
			case StepServe:
				if m.Server == nil {
					errs = append(errs, fmt.Sprintf("%s: step %q requires a server block", owner, step))
				}
			case StepWatch:
			default:
				if _, ok := tasks[step]; !ok {
					errs = append(errs, fmt.Sprintf("%s: unknown task %q", owner, step))
				}
			}
		}
	}

	for i, w := range m.Watches {
		owner := fmt.Sprintf("watch #%d", i+1)
		if len(w.Paths) == 0 || len(w.Run) == 0 {
			errs = append(errs, fmt.Sprintf("%s: both paths and run are required", owner))
		}
		for _, role := range w.Paths {
			use(owner, role)
		}
		for _, name := range w.Run {
			if _, ok := tasks[name]; !ok {
				errs = append(errs, fmt.Sprintf("%s: unknown task %q", owner, name))
			}
		}
	}

	if m.Server != nil {
		useDir("server", m.Server.Root)
		if m.Server.Port < 0 || m.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: invalid port %d", m.Server.Port))
		}
		if m.Server.ReloadDebounce < 0 {
			errs = append(errs, "server: reload_debounce must not be negative")
		}
	}

	if m.Publish != nil {
		useDir("publish", m.Publish.Root)
		if strings.TrimSpace(m.Publish.Bucket) == "" {
			errs = append(errs, "publish: bucket is required")
		}
	}

	var unused []string
	for role := range m.Paths {
		if _, ok := consumed[role]; !ok {
			unused = append(unused, role)
		}
	}
	sort.Strings(unused)
	for _, role := range unused {
		errs = append(errs, fmt.Sprintf("paths: role %q is not used by any task, watch, server or publish block", role))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// OverlappingWatchDestinations returns destination roles shared by tasks of
// different watch bindings. Such bindings may race when triggered together.
func (m *Model) OverlappingWatchDestinations() []string {
	bindings := make(map[string]map[int]struct{})
	for i, w := range m.Watches {
		for _, name := range w.Run {
			t, ok := m.Task(name)
			if !ok {
				continue
			}
			if bindings[t.Dest] == nil {
				bindings[t.Dest] = make(map[int]struct{})
			}
			bindings[t.Dest][i] = struct{}{}
		}
	}

	var shared []string
	for role, owners := range bindings {
		if len(owners) > 1 {
			shared = append(shared, role)
		}
	}
	sort.Strings(shared)
	return shared
}
