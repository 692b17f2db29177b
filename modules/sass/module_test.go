package sass

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/bep/godartsass/v2"
	"github.com/specialistvlad/assetgrid/internal/pipeline"
	"github.com/specialistvlad/assetgrid/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCompiler strips `$var: value;` declarations and substitutes them,
// enough to observe what the stage passes along.
type fakeCompiler struct {
	calls []godartsass.Args
	err   error
}

var declRe = regexp.MustCompile(`\$(\w+):\s*([^;]+);\s*`)

func (f *fakeCompiler) Execute(args godartsass.Args) (godartsass.Result, error) {
	f.calls = append(f.calls, args)
	if f.err != nil {
		return godartsass.Result{}, f.err
	}
	vars := map[string]string{}
	css := declRe.ReplaceAllStringFunc(args.Source, func(m string) string {
		parts := declRe.FindStringSubmatch(m)
		vars[parts[1]] = strings.TrimSpace(parts[2])
		return ""
	})
	for k, v := range vars {
		css = strings.ReplaceAll(css, "$"+k, v)
	}
	return godartsass.Result{CSS: strings.TrimSpace(css), SourceMap: `{"version":3}`}, nil
}

func startWith(c compiler, err error) func() (compiler, error) {
	return func() (compiler, error) { return c, err }
}

func TestTransform_CompilesAndSkipsPartials(t *testing.T) {
	// --- Arrange ---
	fake := &fakeCompiler{}
	stage, err := newStage(registry.Env{Root: "/project"}, &Options{
		OutputStyle:  "compressed",
		IncludePaths: []string{"node_modules"},
	}, startWith(fake, nil))
	require.NoError(t, err)

	in := []*pipeline.Asset{
		{Path: "main.scss", Source: "/project/src/main.scss", Data: []byte("$c: red; a { color: $c; }")},
		{Path: "_vars.scss", Source: "/project/src/_vars.scss", Data: []byte("$c: blue;")},
		{Path: "plain.txt", Source: "/project/src/plain.txt", Data: []byte("keep")},
	}

	// --- Act ---
	out, err := stage.Transform(context.Background(), in)

	// --- Assert ---
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "main.css", out[0].Path)
	assert.Equal(t, "a { color: red; }", string(out[0].Data))
	assert.Equal(t, "plain.txt", out[1].Path)

	require.Len(t, fake.calls, 1)
	call := fake.calls[0]
	assert.Equal(t, godartsass.OutputStyleCompressed, call.OutputStyle)
	assert.Equal(t, godartsass.SourceSyntaxSCSS, call.SourceSyntax)
	assert.Equal(t, "file:///project/src/main.scss", call.URL)
	assert.Equal(t, []string{"/project/src", "/project/node_modules"}, call.IncludePaths)
}

func TestTransform_EmitsSourceMap(t *testing.T) {
	stage, err := newStage(registry.Env{}, &Options{SourceMap: true}, startWith(&fakeCompiler{}, nil))
	require.NoError(t, err)

	out, err := stage.Transform(context.Background(), []*pipeline.Asset{
		{Path: "css/app.scss", Source: "/src/css/app.scss", Data: []byte("a { b: c; }")},
	})

	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "css/app.css", out[0].Path)
	assert.NotContains(t, string(out[0].Data), "sourceMappingURL")
	assert.JSONEq(t, `{"version":3}`, string(out[0].SourceMap))
}

func TestTransform_CompileErrorNamesFile(t *testing.T) {
	stage, err := newStage(registry.Env{}, &Options{}, startWith(&fakeCompiler{err: errors.New("expected \";\"")}, nil))
	require.NoError(t, err)

	_, err = stage.Transform(context.Background(), []*pipeline.Asset{
		{Path: "broken.scss", Source: "/src/broken.scss", Data: []byte("a {")},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.scss")
}

func TestTransform_MissingCompilerIsAStageError(t *testing.T) {
	stage, err := newStage(registry.Env{}, &Options{}, startWith(nil, errors.New("executable not found")))
	require.NoError(t, err)

	_, err = stage.Transform(context.Background(), []*pipeline.Asset{
		{Path: "a.scss", Source: "/src/a.scss", Data: []byte("a {}")},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "starting sass compiler")
}

func TestNewStage_RejectsUnknownStyle(t *testing.T) {
	_, err := newStage(registry.Env{}, &Options{OutputStyle: "nested"}, startWith(nil, nil))
	require.Error(t, err)
}
