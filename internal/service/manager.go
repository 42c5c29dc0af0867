// Package service keeps `biometrics serve` running as a per-user
// background service (launchd agent on macOS, systemd user unit on Linux).
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/kayz/biometrics/internal/logger"
	"github.com/kayz/biometrics/internal/shell"
)

const (
	Label    = "com.biometrics.dashboard"
	UnitName = "biometrics-dashboard.service"
)

// ErrUnsupported is returned on platforms without a service manager.
var ErrUnsupported = errors.New("background service is only supported on darwin and linux")

// Manager installs and controls the dashboard service.
type Manager struct {
	Runner   shell.Runner
	Platform string
	Home     string
	// Binary is the absolute path of the biometrics executable.
	Binary string
	// Args are passed after the binary, e.g. serve --addr :8080.
	Args []string
	// LogPath receives stdout and stderr of the service.
	LogPath string
}

// ConfigPath is where the plist or unit file lives.
func (m *Manager) ConfigPath() (string, error) {
	switch m.Platform {
	case "darwin":
		return filepath.Join(m.Home, "Library", "LaunchAgents", Label+".plist"), nil
	case "linux":
		return filepath.Join(m.Home, ".config", "systemd", "user", UnitName), nil
	default:
		return "", ErrUnsupported
	}
}

func (m *Manager) logPath() string {
	if m.LogPath != "" {
		return m.LogPath
	}
	return filepath.Join(m.Home, ".biometrics", "dashboard.log")
}

// Render returns the service definition for the current platform.
func (m *Manager) Render() (string, error) {
	var tmpl string
	switch m.Platform {
	case "darwin":
		tmpl = launchdPlistTemplate
	case "linux":
		tmpl = systemdUnitTemplate
	default:
		return "", ErrUnsupported
	}

	t, err := template.New("service").Parse(tmpl)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	err = t.Execute(&buf, map[string]any{
		"Label":   Label,
		"Binary":  m.Binary,
		"Args":    m.Args,
		"Command": shell.CommandLine(m.Binary, m.Args),
		"LogPath": m.logPath(),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Install writes the service definition and starts it.
func (m *Manager) Install(ctx context.Context) error {
	path, err := m.ConfigPath()
	if err != nil {
		return err
	}
	body, err := m.Render()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create service directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(m.logPath()), 0755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		return fmt.Errorf("write service config: %w", err)
	}
	logger.Info("[Service] wrote %s", path)

	switch m.Platform {
	case "darwin":
		return m.run(ctx, "launchctl", "load", "-w", path)
	default:
		if err := m.run(ctx, "systemctl", "--user", "daemon-reload"); err != nil {
			return err
		}
		return m.run(ctx, "systemctl", "--user", "enable", "--now", UnitName)
	}
}

// Uninstall stops the service and removes its definition. Stop failures
// are ignored; the service may not be running.
func (m *Manager) Uninstall(ctx context.Context) error {
	path, err := m.ConfigPath()
	if err != nil {
		return err
	}

	switch m.Platform {
	case "darwin":
		_ = m.run(ctx, "launchctl", "unload", "-w", path)
	default:
		_ = m.run(ctx, "systemctl", "--user", "disable", "--now", UnitName)
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove service config: %w", err)
	}
	if m.Platform == "linux" {
		_ = m.run(ctx, "systemctl", "--user", "daemon-reload")
	}
	return nil
}

// Status reports whether the definition exists and the service runs.
func (m *Manager) Status(ctx context.Context) (installed, running bool, err error) {
	path, err := m.ConfigPath()
	if err != nil {
		return false, false, err
	}
	if _, err := os.Stat(path); err == nil {
		installed = true
	}

	var res shell.Result
	switch m.Platform {
	case "darwin":
		res = m.Runner.Run(ctx, "launchctl", []string{"list", Label}, shell.Options{})
	default:
		res = m.Runner.Run(ctx, "systemctl", []string{"--user", "is-active", "--quiet", UnitName}, shell.Options{})
	}
	return installed, res.Succeeded, nil
}

func (m *Manager) run(ctx context.Context, name string, args ...string) error {
	res := m.Runner.Run(ctx, name, args, shell.Options{})
	if !res.Succeeded {
		return fmt.Errorf("%s: %s", shell.CommandLine(name, args), strings.TrimSpace(res.Err))
	}
	return nil
}

const launchdPlistTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>{{.Label}}</string>
    <key>ProgramArguments</key>
    <array>
        <string>{{.Binary}}</string>
{{- range .Args}}
        <string>{{.}}</string>
{{- end}}
    </array>
    <key>RunAtLoad</key>
    <true/>
    <key>KeepAlive</key>
    <true/>
    <key>StandardOutPath</key>
    <string>{{.LogPath}}</string>
    <key>StandardErrorPath</key>
    <string>{{.LogPath}}</string>
</dict>
</plist>
`

const systemdUnitTemplate = `[Unit]
Description=BIOMETRICS Dashboard Server
After=network.target

[Service]
Type=simple
ExecStart={{.Command}}
Restart=always
RestartSec=5
StandardOutput=append:{{.LogPath}}
StandardError=append:{{.LogPath}}

[Install]
WantedBy=default.target
`
