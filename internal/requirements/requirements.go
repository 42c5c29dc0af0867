// Package requirements makes sure the base toolchain needed by the
// onboarding (git, node, pnpm, brew, python) is present.
package requirements

import (
	"context"
	"runtime"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/host"

	"github.com/kayz/biometrics/internal/logger"
	"github.com/kayz/biometrics/internal/shell"
	"github.com/kayz/biometrics/internal/ui"
)

// Requirement is one tool the onboarding needs before it can install
// anything else.
type Requirement struct {
	Name string
	// Command is the executable looked up on PATH.
	Command string
	// Probe prints the installed version, e.g. git --version.
	Probe []string
	// Install installs the tool when it is missing.
	Install []string
	// Platform restricts the entry to one GOOS value; empty means any.
	Platform string
}

// Status is what happened to a requirement during a run.
type Status string

const (
	StatusSkipped   Status = "skipped"
	StatusPresent   Status = "present"
	StatusInstalled Status = "installed"
	StatusFailed    Status = "failed"
)

// Report describes the outcome for one requirement.
type Report struct {
	Name    string
	Status  Status
	Version string
	Message string
}

// Defaults returns the built-in requirement list.
func Defaults() []Requirement {
	return []Requirement{
		{
			Name:    "Git",
			Command: "git",
			Probe:   []string{"git", "--version"},
			Install: []string{"brew", "install", "git"},
		},
		{
			Name:    "Node.js",
			Command: "node",
			Probe:   []string{"node", "--version"},
			Install: []string{"brew", "install", "node"},
		},
		{
			Name:    "pnpm",
			Command: "pnpm",
			Probe:   []string{"pnpm", "--version"},
			Install: []string{"brew", "install", "pnpm"},
		},
		{
			Name:     "Homebrew",
			Command:  "brew",
			Probe:    []string{"brew", "--version"},
			Install:  []string{"/bin/bash", "-c", "$(curl -fsSL https://raw.githubusercontent.com/Homebrew/install/HEAD/install.sh)"},
			Platform: "darwin",
		},
		{
			Name:    "Python 3",
			Command: "python3",
			Probe:   []string{"python3", "--version"},
			Install: []string{"brew", "install", "python@3.11"},
		},
	}
}

// Installer probes each requirement and installs the missing ones.
// Installation failures are reported and never stop the run.
type Installer struct {
	Runner   shell.Runner
	Prober   shell.Prober
	Platform string
	Printer  *ui.Printer
}

// CurrentPlatform returns the host OS name as reported by gopsutil,
// falling back to runtime.GOOS.
func CurrentPlatform(ctx context.Context) string {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	info, err := host.InfoWithContext(ctx)
	if err != nil || info == nil || info.OS == "" {
		return runtime.GOOS
	}
	return strings.ToLower(info.OS)
}

// Run processes the requirements in order.
func (in *Installer) Run(ctx context.Context, reqs []Requirement) []Report {
	platform := in.Platform
	if platform == "" {
		platform = runtime.GOOS
	}

	in.Printer.Info("Checking system requirements...")
	in.Printer.Blank()

	reports := make([]Report, 0, len(reqs))
	for _, req := range reqs {
		reports = append(reports, in.one(ctx, req, platform))
	}
	in.Printer.Blank()
	return reports
}

func (in *Installer) one(ctx context.Context, req Requirement, platform string) Report {
	if req.Platform != "" && !strings.EqualFold(req.Platform, platform) {
		logger.Debug("[Requirements] %s skipped on %s (only %s)", req.Name, platform, req.Platform)
		return Report{Name: req.Name, Status: StatusSkipped}
	}

	if in.Prober.Available(req.Command) {
		version := in.version(ctx, req)
		if version != "" {
			in.Printer.Info("%s %s already installed", req.Name, version)
		} else {
			in.Printer.Info("%s already installed", req.Name)
		}
		return Report{Name: req.Name, Status: StatusPresent, Version: version}
	}

	if len(req.Install) == 0 {
		in.Printer.Warn("%s is missing and has no installer", req.Name)
		return Report{Name: req.Name, Status: StatusFailed, Message: "no install command"}
	}

	installLine := shell.CommandLine(req.Install[0], req.Install[1:])
	in.Printer.Step("Installing %s...", req.Name)
	in.Printer.Detail("→ Running: %s", installLine)

	res := in.Runner.Run(ctx, req.Install[0], req.Install[1:], shell.Options{})
	if !res.Succeeded {
		logger.Warn("[Requirements] install %s failed: %s", req.Name, res.Err)
		in.Printer.Fail("Failed to install %s", req.Name)
		in.Printer.Hint("Manual installation required: %s", installLine)
		return Report{Name: req.Name, Status: StatusFailed, Message: res.Err}
	}

	in.Printer.Succeed("%s installed successfully", req.Name)
	return Report{Name: req.Name, Status: StatusInstalled}
}

// version is best effort: any failure yields "".
func (in *Installer) version(ctx context.Context, req Requirement) string {
	if len(req.Probe) == 0 {
		return ""
	}
	res := in.Runner.Run(ctx, req.Probe[0], req.Probe[1:], shell.Options{})
	if !res.Succeeded {
		return ""
	}
	return shell.FirstLine(res.Stdout)
}
