package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/assetgrid/internal/registry"
	"github.com/specialistvlad/assetgrid/internal/testutil"
	"github.com/stretchr/testify/require"
)

// SetupAppTest writes files into a temporary project, loads configFile from
// it and returns the app with its captured log output.
func SetupAppTest(t *testing.T, configFile string, files map[string]string, modules ...registry.Module) (*App, *testutil.SafeBuffer, string) {
	t.Helper()

	root := t.TempDir()
	testutil.WriteFiles(t, root, files)

	logBuffer := &testutil.SafeBuffer{}
	cfg, err := NewConfig(Config{ConfigPath: filepath.Join(root, configFile), LogLevel: "debug"})
	require.NoError(t, err)

	testApp, err := NewApp(logBuffer, cfg, nil, modules...)
	require.NoError(t, err)

	t.Cleanup(func() {
		if os.Getenv("ASSETGRID_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return testApp, logBuffer, root
}
