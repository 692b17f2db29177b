package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validModel() *Model {
	return &Model{
		Root: "/project",
		Paths: map[string][]string{
			"dist":        {"./dist/"},
			"src_styles":  {"src/stylesheets/**/*.scss"},
			"dist_styles": {"dist/stylesheets/"},
			"src_vendors": {"node_modules/jquery/dist/jquery.min.js", "node_modules/bootstrap/dist/js/bootstrap.min.js"},
			"dist_js":     {"dist/javascripts/"},
		},
		Tasks: []*TaskDefinition{
			{Name: "styles", Src: []string{"src_styles"}, Dest: "dist_styles", Stages: []*StageDefinition{{Type: "sass"}}},
			{Name: "vendors", Src: []string{"src_vendors"}, Dest: "dist_js", Stages: []*StageDefinition{{Type: "concat"}}},
		},
		Groups: []*GroupDefinition{
			{Name: "build", Steps: []string{"vendors", "styles"}},
			{Name: "dev", Steps: []string{"vendors", "styles", StepServe, StepWatch}},
		},
		Watches: []*WatchDefinition{{Paths: []string{"src_styles"}, Run: []string{"styles"}}},
		Server:  &ServerDefinition{Root: "dist", Port: 3000, ReloadDebounce: time.Second},
	}
}

func TestValidate_AcceptsValidModel(t *testing.T) {
	require.NoError(t, validModel().Validate())
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	m := validModel()
	m.Paths["orphan"] = []string{"src/unused/*"}
	m.Tasks = append(m.Tasks,
		&TaskDefinition{Name: "styles", Src: []string{"src_styles"}, Dest: "dist_styles"},
		&TaskDefinition{Name: "bad", Src: []string{"nope"}, Dest: "src_vendors"},
	)
	m.Groups = append(m.Groups, &GroupDefinition{Name: "build", Steps: []string{"ghost"}})
	m.Watches = append(m.Watches, &WatchDefinition{Paths: []string{"src_styles"}, Run: []string{"ghost"}})
	m.Server = nil

	err := m.Validate()
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, `task "styles": declared more than once`)
	assert.Contains(t, msg, `task "bad": unknown path role "nope"`)
	assert.Contains(t, msg, `task "bad": path role "src_vendors" must name exactly one directory`)
	assert.Contains(t, msg, `group "build": declared more than once`)
	assert.Contains(t, msg, `group "build": unknown task "ghost"`)
	assert.Contains(t, msg, `group "dev": step "serve" requires a server block`)
	assert.Contains(t, msg, `watch #2: unknown task "ghost"`)
	assert.Contains(t, msg, `role "dist" is not used`)
	assert.Contains(t, msg, `role "orphan" is not used`)
}

func TestValidate_ReservedTaskNames(t *testing.T) {
	m := validModel()
	m.Tasks[0].Name = StepWatch
	m.Groups = nil
	m.Watches = nil

	err := m.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reserved for a control step")
}

func TestModel_Resolve(t *testing.T) {
	m := validModel()

	patterns, err := m.Resolve("src_vendors", "src_styles")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join("/project", "node_modules/jquery/dist/jquery.min.js"),
		filepath.Join("/project", "node_modules/bootstrap/dist/js/bootstrap.min.js"),
		filepath.Join("/project", "src/stylesheets/**/*.scss"),
	}, patterns)

	dir, err := m.ResolveDir("dist")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/project", "dist"), dir)

	_, err = m.ResolveDir("src_vendors")
	assert.Error(t, err)
	_, err = m.Resolve("missing")
	assert.Error(t, err)
}

func TestModel_OverlappingWatchDestinations(t *testing.T) {
	m := validModel()
	assert.Empty(t, m.OverlappingWatchDestinations())

	m.Tasks = append(m.Tasks, &TaskDefinition{Name: "more_styles", Src: []string{"src_styles"}, Dest: "dist_styles"})
	m.Watches = append(m.Watches, &WatchDefinition{Paths: []string{"src_styles"}, Run: []string{"more_styles"}})
	assert.Equal(t, []string{"dist_styles"}, m.OverlappingWatchDestinations())
}
