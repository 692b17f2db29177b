package twig

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/specialistvlad/assetgrid/internal/pipeline"
	"github.com/specialistvlad/assetgrid/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemplates(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return dir
}

func page(dir, name string) *pipeline.Asset {
	data, _ := os.ReadFile(filepath.Join(dir, name))
	return &pipeline.Asset{Path: name, Source: filepath.Join(dir, name), Base: dir, Data: data}
}

func TestTransform_RendersPagesWithPartials(t *testing.T) {
	// --- Arrange ---
	dir := writeTemplates(t, map[string]string{
		"_layout.twig": "<html><body>{% block content %}{% endblock %}</body></html>",
		"_nav.twig":    "<nav>{{ site }}</nav>",
		"index.twig":   `{% extends "_layout.twig" %}{% block content %}{% include "_nav.twig" %}<p>{{ page.path }}</p>{% endblock %}`,
	})
	stage := newStage(registry.Env{}, &Options{Extension: ".html", Data: map[string]any{"site": "Innnteg"}})

	// --- Act ---
	out, err := stage.Transform(context.Background(), []*pipeline.Asset{
		page(dir, "_layout.twig"),
		page(dir, "_nav.twig"),
		page(dir, "index.twig"),
	})

	// --- Assert ---
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "index.html", out[0].Path)
	assert.Equal(t, "<html><body><nav>Innnteg</nav><p>index.html</p></body></html>", strings.TrimSpace(string(out[0].Data)))
}

func TestTransform_TemplatesDirRelativeToRoot(t *testing.T) {
	root := writeTemplates(t, map[string]string{
		"templates/_footer.twig": "(c) {{ year }}",
		"pages/about.twig":       `about {% include "_footer.twig" %}`,
	})
	stage := newStage(registry.Env{Root: root}, &Options{Templates: "templates", Extension: ".htm", Data: map[string]any{"year": 2025}})

	out, err := stage.Transform(context.Background(), []*pipeline.Asset{page(filepath.Join(root, "pages"), "about.twig")})

	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "about.htm", out[0].Path)
	assert.Equal(t, "about (c) 2025", string(out[0].Data))
}

func TestTransform_SyntaxErrorFails(t *testing.T) {
	dir := writeTemplates(t, map[string]string{"broken.twig": "{% if %}"})
	stage := newStage(registry.Env{}, &Options{Extension: ".html"})

	_, err := stage.Transform(context.Background(), []*pipeline.Asset{page(dir, "broken.twig")})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.twig")
}
