package requirements

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kayz/biometrics/internal/shell/shelltest"
	"github.com/kayz/biometrics/internal/ui"
)

func newInstaller(runner *shelltest.Runner, prober *shelltest.Prober, platform string) (*Installer, *bytes.Buffer) {
	var out bytes.Buffer
	return &Installer{
		Runner:   runner,
		Prober:   prober,
		Platform: platform,
		Printer:  ui.New(&out),
	}, &out
}

func TestPlatformRestrictedEntriesAreNeverProbed(t *testing.T) {
	runner := shelltest.NewRunner()
	prober := shelltest.NewProber()
	in, _ := newInstaller(runner, prober, "linux")

	reports := in.Run(context.Background(), Defaults())

	assert.NotContains(t, prober.Probed(), "brew")
	for _, line := range runner.Lines() {
		assert.NotContains(t, line, "Homebrew/install")
	}
	for _, r := range reports {
		if r.Name == "Homebrew" {
			assert.Equal(t, StatusSkipped, r.Status)
		}
	}
}

func TestPlatformRestrictedEntryRunsOnMatchingPlatform(t *testing.T) {
	runner := shelltest.NewRunner()
	prober := shelltest.NewProber("git", "node", "pnpm", "python3")
	in, _ := newInstaller(runner, prober, "darwin")

	in.Run(context.Background(), Defaults())

	assert.Contains(t, prober.Probed(), "brew")
	require.Len(t, runner.Calls(), 5)
	assert.Equal(t, "/bin/bash", runner.Calls()[3].Name)
}

func TestPresentToolReportsVersion(t *testing.T) {
	runner := shelltest.NewRunner().Succeed("git --version", "git version 2.44.0\n")
	prober := shelltest.NewProber("git")
	in, out := newInstaller(runner, prober, "linux")

	reports := in.Run(context.Background(), []Requirement{Defaults()[0]})

	require.Len(t, reports, 1)
	assert.Equal(t, StatusPresent, reports[0].Status)
	assert.Equal(t, "git version 2.44.0", reports[0].Version)
	assert.Contains(t, out.String(), "Git git version 2.44.0 already installed")
}

func TestVersionProbeFailureFallsBackToPresent(t *testing.T) {
	runner := shelltest.NewRunner().Fail("node --version", "boom")
	prober := shelltest.NewProber("node")
	in, out := newInstaller(runner, prober, "linux")

	reports := in.Run(context.Background(), []Requirement{Defaults()[1]})

	assert.Equal(t, StatusPresent, reports[0].Status)
	assert.Empty(t, reports[0].Version)
	assert.Contains(t, out.String(), "Node.js already installed")
}

func TestFailedInstallContinuesWithManualHint(t *testing.T) {
	runner := shelltest.NewRunner().Fail("brew install git", "exit 1")
	prober := shelltest.NewProber()
	in, out := newInstaller(runner, prober, "linux")

	reports := in.Run(context.Background(), []Requirement{Defaults()[0], Defaults()[1]})

	require.Len(t, reports, 2)
	assert.Equal(t, StatusFailed, reports[0].Status)
	assert.Equal(t, StatusInstalled, reports[1].Status)
	assert.True(t, runner.Ran("brew install node"))
	assert.Contains(t, out.String(), "Manual installation required: brew install git")
}

func TestSecondRunWithEverythingPresentInstallsNothing(t *testing.T) {
	runner := shelltest.NewRunner()
	prober := shelltest.NewProber("git", "node", "pnpm", "brew", "python3")
	in, _ := newInstaller(runner, prober, "darwin")

	in.Run(context.Background(), Defaults())
	runner.Reset()
	in.Run(context.Background(), Defaults())

	for _, line := range runner.Lines() {
		if !strings.HasSuffix(line, "--version") {
			t.Fatalf("unexpected install invocation on second run: %s", line)
		}
	}
}

func TestMissingInstallerIsReportedNotPanicking(t *testing.T) {
	in, out := newInstaller(shelltest.NewRunner(), shelltest.NewProber(), "linux")

	reports := in.Run(context.Background(), []Requirement{{Name: "Thing", Command: "thing"}})

	assert.Equal(t, StatusFailed, reports[0].Status)
	assert.Contains(t, out.String(), "no installer")
}
