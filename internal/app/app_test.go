package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/specialistvlad/assetgrid/internal/notify"
	"github.com/specialistvlad/assetgrid/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const projectConfig = `
paths {
  dist        = "dist/"
  src_vendors = ["vendor/jquery.js", "vendor/popper.js", "vendor/bootstrap.js"]
  dist_js     = "dist/javascripts/"
  src_scripts = "src/javascripts/**/*.js"
  src_html    = "src/html/**/*.twig"
}

task "html" {
  src  = paths.src_html
  dest = paths.dist

  stage "twig" {
    data = { title = "Innnteg" }
  }
  stage "minify" {}
}

task "vendors" {
  src  = paths.src_vendors
  dest = paths.dist_js

  stage "concat" {
    name = "vendors.min.js"
  }
}

task "scripts" {
  src  = paths.src_scripts
  dest = paths.dist_js

  stage "esbuild" {
    minify = true
  }
  stage "rename" {
    suffix = ".min"
  }
}

group "build" {
  steps = ["html", "vendors", "scripts"]
}

group "dev" {
  steps = ["html", "vendors", "scripts", "watch"]
}

watch {
  paths = paths.src_scripts
  run   = ["scripts"]
}

notify {
  title    = "Innnteg"
  subtitle = "Error!"
  desktop  = false
}
`

func projectFiles(script string) map[string]string {
	return map[string]string{
		"assetgrid.hcl":          projectConfig,
		"vendor/jquery.js":       "var jq=1;",
		"vendor/popper.js":       "var pop=2;",
		"vendor/bootstrap.js":    "var bs=3;",
		"src/javascripts/app.js": script,
		"src/html/_layout.twig":  "<html><body>{% block body %}{% endblock %}</body></html>",
		"src/html/index.twig":    `{% extends "_layout.twig" %}{% block body %}<h1>{{ title }}</h1>{% endblock %}`,
	}
}

func TestBuild_ProducesEveryOutput(t *testing.T) {
	// --- Arrange ---
	a, _, root := SetupAppTest(t, "assetgrid.hcl", projectFiles("export function hello(name) { return 'hi ' + name; }\n"))

	// --- Act ---
	res, err := a.Build(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	assert.Empty(t, res.Failures())
	assert.Equal(t, "var jq=1;\nvar pop=2;\nvar bs=3;", testutil.ReadFile(t, root, "dist/javascripts/vendors.min.js"))
	assert.Contains(t, testutil.ReadFile(t, root, "dist/javascripts/app.min.js"), "hello")
	assert.Contains(t, testutil.ReadFile(t, root, "dist/index.html"), "<h1>Innnteg</h1>")
	assert.NoFileExists(t, filepath.Join(root, "dist", "_layout.html"))

	require.Len(t, res.Results, 3)
	testutil.AssertSequential(t, res.Results)
}

func TestBuild_IsolatesFailuresAndSucceeds(t *testing.T) {
	// --- Arrange ---
	a, logs, root := SetupAppTest(t, "assetgrid.hcl", projectFiles("function ( {"))

	// --- Act ---
	res, err := a.Build(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	failures := res.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, "scripts", failures[0].Task)
	assert.Equal(t, "esbuild", failures[0].Stage)

	assert.FileExists(t, filepath.Join(root, "dist", "javascripts", "vendors.min.js"))
	assert.FileExists(t, filepath.Join(root, "dist", "index.html"))
	assert.NoFileExists(t, filepath.Join(root, "dist", "javascripts", "app.min.js"))
	assert.Contains(t, logs.String(), "Innnteg")
	assert.Contains(t, logs.String(), `task "scripts": stage "esbuild"`)
}

func TestBuild_StrictReportsFailures(t *testing.T) {
	a, _, _ := SetupAppTest(t, "assetgrid.hcl", projectFiles("function ( {"))
	a.config.Strict = true

	_, err := a.Build(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTasksFailed))
	assert.Contains(t, err.Error(), "scripts")
}

func TestBuild_SecondRunRewritesNothing(t *testing.T) {
	// --- Arrange ---
	a, _, root := SetupAppTest(t, "assetgrid.hcl", projectFiles("export const x = 1;\n"))
	first, err := a.Build(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, first.Written())

	bundle := filepath.Join(root, "dist", "javascripts", "vendors.min.js")
	before, err := os.Stat(bundle)
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)

	// --- Act ---
	second, err := a.Build(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	assert.Empty(t, second.Written())
	after, err := os.Stat(bundle)
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime())
}

func TestRunTasks(t *testing.T) {
	a, _, root := SetupAppTest(t, "assetgrid.hcl", projectFiles("export const x = 1;\n"))

	res, err := a.RunTasks(context.Background(), "vendors")
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	assert.FileExists(t, filepath.Join(root, "dist", "javascripts", "vendors.min.js"))
	assert.NoFileExists(t, filepath.Join(root, "dist", "index.html"))

	_, err = a.RunTasks(context.Background(), "ghost")
	assert.ErrorContains(t, err, `unknown task "ghost"`)
}

func TestDev_RebuildsOnChange(t *testing.T) {
	// --- Arrange ---
	a, _, root := SetupAppTest(t, "assetgrid.hcl", projectFiles("export const version = 1;\n"))
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	var devErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		devErr = a.Dev(ctx)
	}()

	out := filepath.Join(root, "dist", "javascripts", "app.min.js")
	require.Eventually(t, func() bool {
		_, err := os.Stat(out)
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)
	time.Sleep(100 * time.Millisecond)

	// --- Act ---
	testutil.WriteFiles(t, root, map[string]string{"src/javascripts/app.js": "export const version = 2;\n"})

	// --- Assert ---
	require.Eventually(t, func() bool {
		data, err := os.ReadFile(out)
		return err == nil && strings.Contains(string(data), "2")
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	wg.Wait()
	assert.NoError(t, devErr)
}

func TestNewApp_RejectsUnknownStage(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFiles(t, root, map[string]string{"assetgrid.hcl": `
paths {
  src  = "src/*.txt"
  dist = "dist/"
}

task "copy" {
  src  = paths.src
  dest = paths.dist

  stage "nope" {}
}
`})
	cfg, err := NewConfig(Config{ConfigPath: filepath.Join(root, "assetgrid.hcl")})
	require.NoError(t, err)

	_, err = NewApp(&testutil.SafeBuffer{}, cfg, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown stage type "nope"`)
}

func TestNewApp_CustomModules(t *testing.T) {
	// --- Arrange ---
	files := map[string]string{
		"assetgrid.yaml": `
paths:
  src: src/*.txt
  dist: dist/
tasks:
  - name: shout
    src: src
    dest: dist
    stages:
      - type: upper
groups:
  - name: build
    steps: [shout]
notify:
  desktop: false
`,
		"src/a.txt": "hello",
	}
	a, _, root := SetupAppTest(t, "assetgrid.yaml", files, testutil.StaticStage("upper", testutil.UpperStage()))

	// --- Act ---
	_, err := a.Build(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, []string{"upper"}, a.Registry().StageTypes())
	assert.Equal(t, "HELLO", testutil.ReadFile(t, root, "dist/a.txt"))
}

func TestBuild_MissingGroup(t *testing.T) {
	files := map[string]string{
		"assetgrid.hcl": `
paths {
  src  = "src/*.txt"
  dist = "dist/"
}

task "copy" {
  src  = paths.src
  dest = paths.dist
}

notify {
  desktop = false
}
`,
	}
	a, _, _ := SetupAppTest(t, "assetgrid.hcl", files)

	_, err := a.Build(context.Background())
	assert.ErrorContains(t, err, `group "build" is not defined`)
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (r *recordingNotifier) Notify(_ context.Context, msg notify.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg.Title+": "+msg.Body)
	return nil
}

func TestSetNotifier_ReceivesStageFailures(t *testing.T) {
	a, _, _ := SetupAppTest(t, "assetgrid.hcl", projectFiles("function ( {"))
	rec := &recordingNotifier{}
	a.SetNotifier(rec)

	_, err := a.RunTasks(context.Background(), "scripts", "vendors")

	require.NoError(t, err)
	require.Len(t, rec.messages, 1)
	assert.Contains(t, rec.messages[0], `Innnteg: task "scripts": stage "esbuild"`)
}

// slowNotifier delivers in the background like the desktop notifier.
type slowNotifier struct {
	wg        sync.WaitGroup
	delivered atomic.Int32
}

func (s *slowNotifier) Notify(context.Context, notify.Message) error {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		time.Sleep(100 * time.Millisecond)
		s.delivered.Add(1)
	}()
	return nil
}

func (s *slowNotifier) Wait() { s.wg.Wait() }

func TestClose_WaitsForBackgroundNotifications(t *testing.T) {
	// --- Arrange ---
	a, _, _ := SetupAppTest(t, "assetgrid.hcl", projectFiles("function ( {"))
	slow := &slowNotifier{}
	a.SetNotifier(slow)
	_, err := a.RunTasks(context.Background(), "scripts")
	require.NoError(t, err)

	// --- Act ---
	a.Close()

	// --- Assert ---
	assert.Equal(t, int32(1), slow.delivered.Load())
}
