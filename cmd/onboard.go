package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kayz/biometrics/internal/config"
	"github.com/kayz/biometrics/internal/logger"
	"github.com/kayz/biometrics/internal/onboard"
	"github.com/kayz/biometrics/internal/prompt"
	"github.com/kayz/biometrics/internal/requirements"
	"github.com/kayz/biometrics/internal/shell"
	"github.com/kayz/biometrics/internal/ui"
	"github.com/kayz/biometrics/internal/verify"
)

var (
	onboardSetValues []string
	onboardOffline   bool
)

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Interactive setup of the BIOMETRICS toolchain",
	Long: `Interactive setup of the BIOMETRICS toolchain.

The run installs missing requirements, asks for API keys, creates the
GitLab media project and installs NLM, OpenCode, OpenClaw and the
Antigravity plugin. It writes:
  - ./.env                              GitLab credentials
  - ~/.config/opencode/opencode.json    OpenCode provider config
  - ~/.openclaw/openclaw.json           OpenClaw integrations

Answers can be pre-filled with --set key=value, for example
--set installOpenCode=true.`,
	RunE: runOnboard,
}

func init() {
	registerOnboardFlags(onboardCmd)
	rootCmd.AddCommand(onboardCmd)
}

func registerOnboardFlags(c *cobra.Command) {
	c.Flags().StringArrayVar(&onboardSetValues, "set", nil, "Pre-fill answers as key=value (repeatable)")
	c.Flags().BoolVar(&onboardOffline, "offline", false, "Skip the online NVIDIA and Telegram credential checks")
}

func runOnboard(cmd *cobra.Command, args []string) error {
	prefill, err := prompt.ParseSet(onboardSetValues)
	if err != nil {
		return err
	}
	if err := prompt.CheckPrefill(onboard.Questions(), prefill); err != nil {
		return fmt.Errorf("--set: %w", err)
	}
	conf := loadedConfig()
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, ui.Banner("BIOMETRICS", "Onboarding v"+Version, "Setting up your agent toolchain"))
	fmt.Fprintln(out)

	session := prompt.NewSession(os.Stdin, out)
	session.Prefill(prefill)

	printer := ui.New(out)
	runner := shell.Exec{}
	o := &onboard.Orchestrator{
		Runner:        runner,
		Prober:        shell.PathProber{},
		Printer:       printer,
		Session:       session,
		Requirements:  requirements.Defaults(),
		Platform:      requirements.CurrentPlatform(cmd.Context()),
		GitLabURL:     conf.GitLab.URL,
		NvidiaBaseURL: conf.Nvidia.BaseURL,
		Verifier: &verify.Verifier{
			Runner:        runner,
			Printer:       printer,
			NvidiaBaseURL: conf.Nvidia.BaseURL,
			Timeout:       time.Duration(conf.Verify.TimeoutSeconds) * time.Second,
		},
		CheckCredentials: conf.Verify.Online && !onboardOffline,
	}
	if err := o.Run(cmd.Context()); err != nil {
		return err
	}
	seedConfig()
	return nil
}

// seedConfig leaves an editable config.yaml behind on first use.
func seedConfig() {
	written, err := config.WriteDefault()
	if err != nil {
		logger.Warn("[Config] could not write %s: %v", config.ConfigPath(), err)
		return
	}
	if written {
		logger.Info("[Config] wrote defaults to %s", config.ConfigPath())
	}
}
