package app

import (
	"context"
	"os"
	"testing"

	"github.com/specialistvlad/texgridgo/internal/registry"
	"github.com/specialistvlad/texgridgo/internal/testutil"
	"github.com/stretchr/testify/require"
)

// SetupAppTest creates a new app instance for system testing. The app logs
// at debug level and is closed when the test ends.
func SetupAppTest(t *testing.T, cfg Config, modules ...registry.Module) (*App, *testutil.SafeBuffer) {
	t.Helper()

	logBuffer := &testutil.SafeBuffer{}
	cfg.LogLevel = "debug"
	validated, err := NewConfig(cfg)
	require.NoError(t, err)
	testApp, err := NewApp(context.Background(), logBuffer, validated, modules...)
	require.NoError(t, err)

	t.Cleanup(func() {
		if err := testApp.Close(context.Background()); err != nil {
			t.Errorf("failed to close app: %v", err)
		}
		if os.Getenv("TEXGRID_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return testApp, logBuffer
}
