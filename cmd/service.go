package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kayz/biometrics/internal/config"
	"github.com/kayz/biometrics/internal/requirements"
	"github.com/kayz/biometrics/internal/service"
	"github.com/kayz/biometrics/internal/shell"
	"github.com/kayz/biometrics/internal/ui"
)

var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Run the dashboard server in the background",
	Long: `Manage the per-user background service that runs "biometrics serve".

  biometrics service install     Write the launchd agent / systemd user unit and start it
  biometrics service uninstall   Stop and remove it
  biometrics service status      Show whether it is installed and running`,
}

var serviceInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install and start the dashboard service",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newServiceManager(cmd)
		if err != nil {
			return err
		}
		if err := m.Install(cmd.Context()); err != nil {
			return fmt.Errorf("install service: %w", err)
		}
		path, _ := m.ConfigPath()
		p := ui.New(cmd.OutOrStdout())
		p.Succeed("Dashboard service installed")
		p.Detail("→ %s", path)
		return nil
	},
}

var serviceUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Stop and remove the dashboard service",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newServiceManager(cmd)
		if err != nil {
			return err
		}
		if err := m.Uninstall(cmd.Context()); err != nil {
			return fmt.Errorf("uninstall service: %w", err)
		}
		ui.New(cmd.OutOrStdout()).Succeed("Dashboard service removed")
		return nil
	},
}

var serviceStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the dashboard service status",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newServiceManager(cmd)
		if err != nil {
			return err
		}
		installed, running, err := m.Status(cmd.Context())
		if err != nil {
			return err
		}
		p := ui.New(cmd.OutOrStdout())
		switch {
		case running:
			p.Succeed("Dashboard service is running")
		case installed:
			p.Warn("Dashboard service is installed but not running")
		default:
			p.Info("Dashboard service is not installed")
		}
		return nil
	},
}

func init() {
	serviceCmd.AddCommand(serviceInstallCmd, serviceUninstallCmd, serviceStatusCmd)
	rootCmd.AddCommand(serviceCmd)
}

func newServiceManager(cmd *cobra.Command) (*service.Manager, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("resolve executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return &service.Manager{
		Runner:   shell.Exec{},
		Platform: requirements.CurrentPlatform(cmd.Context()),
		Home:     home,
		Binary:   exe,
		Args:     []string{"serve", "--addr", loadedConfig().Dashboard.Addr},
		LogPath:  filepath.Join(config.ConfigDir(), "dashboard.log"),
	}, nil
}
