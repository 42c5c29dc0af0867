package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kayz/biometrics/internal/config"
	"github.com/kayz/biometrics/internal/logger"
)

var (
	logLevel string
	envFile  string
	cfg      *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "biometrics",
	Short: "BIOMETRICS onboarding and dashboard",
	Long: `BIOMETRICS sets up the agent toolchain and watches it run.

Commands:
  biometrics             Run the interactive onboarding (default)
  biometrics dashboard   Terminal dashboard for the agent roster
  biometrics serve       Dashboard server (push channel + roster API)
  biometrics verify      Re-check installed tools and credentials
  biometrics templates   Show the built-in agent and task templates`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage: true,
	RunE:         runOnboard,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(envFile); err != nil {
			return err
		}

		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded

		// Priority: flag > BIOMETRICS_LOG > config file
		level := cfg.Logging.Level
		if env := os.Getenv(config.EnvLogLevel); env != "" {
			level = env
		}
		if cmd.Flags().Changed("log") {
			level = logLevel
		}
		parsed, err := logger.ParseLevel(level)
		if err != nil {
			return err
		}
		logger.SetLevel(parsed)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info",
		"Log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env",
		"Environment file loaded before the config")
	registerOnboardFlags(rootCmd)
}

// loadedConfig returns the config resolved by PersistentPreRunE, or the
// defaults when a command runs without it.
func loadedConfig() *config.Config {
	if cfg == nil {
		return config.DefaultConfig()
	}
	return cfg
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
