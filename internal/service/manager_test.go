package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kayz/biometrics/internal/shell/shelltest"
)

func newManager(t *testing.T, platform string) (*Manager, *shelltest.Runner) {
	t.Helper()
	runner := shelltest.NewRunner()
	return &Manager{
		Runner:   runner,
		Platform: platform,
		Home:     t.TempDir(),
		Binary:   "/usr/local/bin/biometrics",
		Args:     []string{"serve", "--addr", ":8080"},
	}, runner
}

func TestInstallLinuxWritesUserUnit(t *testing.T) {
	m, runner := newManager(t, "linux")
	require.NoError(t, m.Install(context.Background()))

	path, _ := m.ConfigPath()
	assert.Equal(t, filepath.Join(m.Home, ".config", "systemd", "user", UnitName), path)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read unit: %v", err)
	}
	assert.Contains(t, string(data), "ExecStart=/usr/local/bin/biometrics serve --addr :8080")
	assert.Contains(t, string(data), "append:"+filepath.Join(m.Home, ".biometrics", "dashboard.log"))

	assert.Equal(t, []string{
		"systemctl --user daemon-reload",
		"systemctl --user enable --now " + UnitName,
	}, runner.Lines())
}

func TestInstallDarwinWritesPlist(t *testing.T) {
	m, runner := newManager(t, "darwin")
	require.NoError(t, m.Install(context.Background()))

	path, _ := m.ConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read plist: %v", err)
	}
	body := string(data)
	assert.Contains(t, body, "<string>"+Label+"</string>")
	assert.Contains(t, body, "<string>--addr</string>")
	if !strings.HasSuffix(path, filepath.Join("LaunchAgents", Label+".plist")) {
		t.Fatalf("unexpected plist path %s", path)
	}
	assert.Equal(t, []string{"launchctl load -w " + path}, runner.Lines())
}

func TestInstallReportsServiceManagerFailure(t *testing.T) {
	m, runner := newManager(t, "linux")
	runner.Fail("systemctl --user daemon-reload", "Failed to connect to bus")

	err := m.Install(context.Background())
	if err == nil || !strings.Contains(err.Error(), "Failed to connect to bus") {
		t.Fatalf("expected daemon-reload error, got %v", err)
	}
}

func TestUninstallRemovesDefinition(t *testing.T) {
	m, runner := newManager(t, "linux")
	require.NoError(t, m.Install(context.Background()))
	runner.Reset()
	runner.Fail("systemctl --user disable --now "+UnitName, "not loaded")

	require.NoError(t, m.Uninstall(context.Background()))
	path, _ := m.ConfigPath()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected unit removed, stat err=%v", err)
	}
	// Removing twice is fine.
	require.NoError(t, m.Uninstall(context.Background()))
}

func TestStatus(t *testing.T) {
	m, runner := newManager(t, "linux")
	runner.Fail("systemctl --user is-active --quiet "+UnitName, "inactive")

	installed, running, err := m.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, installed)
	assert.False(t, running)

	require.NoError(t, m.Install(context.Background()))
	runner.Succeed("systemctl --user is-active --quiet "+UnitName, "")
	installed, running, err = m.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, installed)
	assert.True(t, running)
}

func TestUnsupportedPlatform(t *testing.T) {
	m, _ := newManager(t, "windows")
	if err := m.Install(context.Background()); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}
