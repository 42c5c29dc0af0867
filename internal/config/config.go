package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment overrides, usually set through the working directory .env.
const (
	EnvHome          = "BIOMETRICS_HOME"
	EnvGitLabURL     = "BIOMETRICS_GITLAB_URL"
	EnvNvidiaBaseURL = "BIOMETRICS_NVIDIA_BASE_URL"
	EnvDashboardAddr = "BIOMETRICS_DASHBOARD_ADDR"
	EnvDashboardURL  = "BIOMETRICS_DASHBOARD_URL"
	EnvDBPath        = "BIOMETRICS_DB_PATH"
	EnvLogLevel      = "BIOMETRICS_LOG"
)

type Config struct {
	GitLab    GitLabConfig    `yaml:"gitlab"`
	Nvidia    NvidiaConfig    `yaml:"nvidia"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Database  DatabaseConfig  `yaml:"database"`
	Verify    VerifyConfig    `yaml:"verify"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type GitLabConfig struct {
	URL string `yaml:"url"`
}

type NvidiaConfig struct {
	BaseURL string `yaml:"base_url"`
}

// DashboardConfig is shared by `serve` (Addr) and `dashboard` (URL).
type DashboardConfig struct {
	Addr string `yaml:"addr"`
	URL  string `yaml:"url"`
}

type DatabaseConfig struct {
	// Path of the SQLite roster database; empty uses ConfigDir()/biometrics.db.
	Path string `yaml:"path,omitempty"`
}

type VerifyConfig struct {
	// Online enables the NVIDIA and Telegram credential checks.
	Online         bool `yaml:"online"`
	TimeoutSeconds int  `yaml:"timeout_seconds"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

func DefaultConfig() *Config {
	return &Config{
		GitLab:    GitLabConfig{URL: "https://gitlab.com"},
		Nvidia:    NvidiaConfig{BaseURL: "https://integrate.api.nvidia.com/v1"},
		Dashboard: DashboardConfig{Addr: ":8080", URL: "http://localhost:8080"},
		Verify:    VerifyConfig{Online: true, TimeoutSeconds: 15},
		Logging:   LoggingConfig{Level: "info"},
	}
}

// ConfigDir is ~/.biometrics unless BIOMETRICS_HOME is set.
func ConfigDir() string {
	if dir := strings.TrimSpace(os.Getenv(EnvHome)); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".biometrics"
	}
	return filepath.Join(home, ".biometrics")
}

func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// DBPath returns the configured database path or the default one.
func (c *Config) DBPath() string {
	if c.Database.Path != "" {
		return c.Database.Path
	}
	return filepath.Join(ConfigDir(), "biometrics.db")
}

// LoadDotEnv loads KEY=value pairs from path into the process environment
// without overriding variables that are already set. A missing file is
// not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

func Load() (*Config, error) {
	return LoadFromPath(ConfigPath())
}

// LoadFromPath reads the YAML file at path over the defaults and applies
// environment overrides. A missing file yields the defaults.
func LoadFromPath(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.GitLab.URL, EnvGitLabURL)
	set(&c.Nvidia.BaseURL, EnvNvidiaBaseURL)
	set(&c.Dashboard.Addr, EnvDashboardAddr)
	set(&c.Dashboard.URL, EnvDashboardURL)
	set(&c.Database.Path, EnvDBPath)
	set(&c.Logging.Level, EnvLogLevel)
}

// WriteDefault seeds ConfigPath with the defaults when no config file
// exists yet. It reports whether a file was written.
func WriteDefault() (bool, error) {
	_, err := os.Stat(ConfigPath())
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return false, err
	}
	if err := DefaultConfig().Save(); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Config) Save() error {
	return c.SaveTo(ConfigPath())
}

func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}
