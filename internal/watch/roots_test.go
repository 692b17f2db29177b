package watch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkdirs(t *testing.T, root string, dirs ...string) {
	t.Helper()
	for _, dir := range dirs {
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0o755))
	}
}

func TestWatchRoots_ExistingBaseSkipsVendoredAndOutputTrees(t *testing.T) {
	// --- Arrange ---
	root := t.TempDir()
	mkdirs(t, root, "src/js/lib", "src/node_modules/pkg", "src/.cache", "src/dist")
	d := New(nil, 0, nil, WithIgnoredDirs(filepath.Join(root, "src/dist")))
	b := &binding{patterns: []string{filepath.Join(root, "src/**/*.js")}}

	// --- Act ---
	dirs, err := d.watchRoots(b)

	// --- Assert ---
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(root, "src"),
		filepath.Join(root, "src/js"),
		filepath.Join(root, "src/js/lib"),
	}, dirs)
}

func TestWatchRoots_MissingBaseWatchesOnlyThePathTowardIt(t *testing.T) {
	// --- Arrange ---
	root := t.TempDir()
	mkdirs(t, root, "node_modules/pkg/deep", "public/css", "assets/other")
	d := New(nil, 0, nil)
	b := &binding{patterns: []string{filepath.Join(root, "assets/scss/**/*.scss")}}

	// --- Act ---
	dirs, err := d.watchRoots(b)

	// --- Assert ---
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		root,
		filepath.Join(root, "assets"),
	}, dirs)
}

func TestDirsFor_NewDirectories(t *testing.T) {
	// --- Arrange ---
	root := t.TempDir()
	mkdirs(t, root, "assets/scss/parts", "node_modules/pkg")
	d := New(nil, 0, nil)
	b := &binding{patterns: []string{filepath.Join(root, "assets/scss/**/*.scss")}}

	// --- Act ---
	created, err := d.dirsFor(b, filepath.Join(root, "assets/scss"))
	require.NoError(t, err)
	unrelated, err := d.dirsFor(b, filepath.Join(root, "node_modules"))
	require.NoError(t, err)

	// --- Assert ---
	assert.ElementsMatch(t, []string{
		filepath.Join(root, "assets/scss"),
		filepath.Join(root, "assets/scss/parts"),
	}, created)
	assert.Empty(t, unrelated)
}
