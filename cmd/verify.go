package cmd

import (
	"errors"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kayz/biometrics/internal/shell"
	"github.com/kayz/biometrics/internal/ui"
	"github.com/kayz/biometrics/internal/verify"
)

var verifyOffline bool

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Re-check installed tools and saved credentials",
	RunE:  runVerify,
}

func init() {
	verifyCmd.Flags().BoolVar(&verifyOffline, "offline", false, "Only probe local tools")
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	conf := loadedConfig()
	printer := ui.New(cmd.OutOrStdout())
	v := &verify.Verifier{
		Runner:        shell.Exec{},
		Printer:       printer,
		NvidiaBaseURL: conf.Nvidia.BaseURL,
		Timeout:       time.Duration(conf.Verify.TimeoutSeconds) * time.Second,
	}

	printer.Heading("Host:")
	printer.Plain("   %s", verify.Host(cmd.Context()))
	printer.Blank()

	printer.Heading("Tools:")
	v.Tools(cmd.Context(), verify.ToolProbes())

	if verifyOffline || !conf.Verify.Online {
		return nil
	}

	env, err := credentials(envFile)
	if err != nil {
		return err
	}
	printer.Blank()
	printer.Heading("Credentials:")
	if key := env["NVIDIA_API_KEY"]; key != "" {
		v.Nvidia(cmd.Context(), key)
	} else {
		printer.Info("NVIDIA_API_KEY not set, skipping")
	}
	if token := env["TELEGRAM_BOT_TOKEN"]; token != "" {
		v.Telegram(cmd.Context(), token)
	} else {
		printer.Info("TELEGRAM_BOT_TOKEN not set, skipping")
	}
	return nil
}

// credentials reads the env file, falling back to the process
// environment for keys the file does not set.
func credentials(path string) (map[string]string, error) {
	values, err := godotenv.Read(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if values == nil {
		values = map[string]string{}
	}
	for _, key := range []string{"NVIDIA_API_KEY", "TELEGRAM_BOT_TOKEN", "GITLAB_TOKEN"} {
		if values[key] == "" {
			values[key] = os.Getenv(key)
		}
	}
	return values, nil
}
