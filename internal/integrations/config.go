package integrations

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	NvidiaBaseURL = "https://integrate.api.nvidia.com/v1"
	NvidiaModelID = "qwen/qwen3.5-397b-a17b"
	ClawdBotURL   = "https://clawdbot.com/api"
)

// Settings carries the answers the config files depend on.
type Settings struct {
	NvidiaAPIKey     string
	NvidiaBaseURL    string
	WhatsApp         bool
	WhatsAppToken    string
	Telegram         bool
	TelegramBotToken string
	Gmail            bool
	Twitter          bool
}

func (s Settings) baseURL() string {
	if s.NvidiaBaseURL != "" {
		return s.NvidiaBaseURL
	}
	return NvidiaBaseURL
}

// HasBotToken reports whether any messaging bot token was given.
func (s Settings) HasBotToken() bool {
	return s.WhatsAppToken != "" || s.TelegramBotToken != ""
}

type ModelRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ProviderOptions struct {
	BaseURL string `json:"baseURL"`
}

type OpenCodeProvider struct {
	NPM     string              `json:"npm"`
	Options *ProviderOptions    `json:"options,omitempty"`
	Models  map[string]ModelRef `json:"models"`
}

// OpenCodeConfig is ~/.config/opencode/opencode.json.
type OpenCodeConfig struct {
	Provider map[string]OpenCodeProvider `json:"provider"`
}

func BuildOpenCode(s Settings) OpenCodeConfig {
	return OpenCodeConfig{
		Provider: map[string]OpenCodeProvider{
			"google": {
				NPM: "@ai-sdk/google",
				Models: map[string]ModelRef{
					"gemini-2.5-pro": {ID: "gemini-2.5-pro", Name: "Gemini 2.5 Pro"},
				},
			},
			"nvidia": {
				NPM:     "@ai-sdk/openai-compatible",
				Options: &ProviderOptions{BaseURL: s.baseURL()},
				Models: map[string]ModelRef{
					"qwen-3.5-397b": {ID: NvidiaModelID, Name: "Qwen 3.5 397B"},
				},
			},
		},
	}
}

type OpenClawProvider struct {
	BaseURL string   `json:"baseUrl"`
	API     string   `json:"api"`
	Models  []string `json:"models"`
}

type OpenClawModels struct {
	Providers map[string]OpenClawProvider `json:"providers"`
}

type OpenClawModel struct {
	Primary string `json:"primary"`
}

type OpenClawDefaults struct {
	Model OpenClawModel `json:"model"`
}

type OpenClawAgents struct {
	Defaults OpenClawDefaults `json:"defaults"`
}

// Integration is one entry of the OpenClaw integrations block. Disabled
// entries serialize as {"enabled": false}.
type Integration struct {
	Enabled  bool   `json:"enabled"`
	Token    string `json:"token,omitempty"`
	BotToken string `json:"botToken,omitempty"`
	Auth     string `json:"auth,omitempty"`
	URL      string `json:"url,omitempty"`
}

// OpenClawConfig is ~/.openclaw/openclaw.json.
type OpenClawConfig struct {
	Env          map[string]string      `json:"env"`
	Models       OpenClawModels         `json:"models"`
	Agents       OpenClawAgents         `json:"agents"`
	Integrations map[string]Integration `json:"integrations"`
}

func BuildOpenClaw(s Settings) OpenClawConfig {
	env := map[string]string{"NVIDIA_API_KEY": s.NvidiaAPIKey}
	if s.WhatsAppToken != "" {
		env["WHATSAPP_TOKEN"] = s.WhatsAppToken
	}
	if s.TelegramBotToken != "" {
		env["TELEGRAM_BOT_TOKEN"] = s.TelegramBotToken
	}

	integrations := map[string]Integration{
		"whatsapp": {},
		"telegram": {},
		"gmail":    {},
		"twitter":  {},
		"clawdbot": {Enabled: true, URL: ClawdBotURL},
	}
	if s.WhatsApp {
		integrations["whatsapp"] = Integration{Enabled: true, Token: orPlaceholder(s.WhatsAppToken, "WHATSAPP_TOKEN")}
	}
	if s.Telegram {
		integrations["telegram"] = Integration{Enabled: true, BotToken: orPlaceholder(s.TelegramBotToken, "TELEGRAM_BOT_TOKEN")}
	}
	if s.Gmail {
		integrations["gmail"] = Integration{Enabled: true, Auth: "oauth2"}
	}
	if s.Twitter {
		integrations["twitter"] = Integration{Enabled: true, Auth: "oauth2"}
	}

	return OpenClawConfig{
		Env: env,
		Models: OpenClawModels{Providers: map[string]OpenClawProvider{
			"nvidia": {BaseURL: s.baseURL(), API: "openai-completions", Models: []string{}},
		}},
		Agents: OpenClawAgents{Defaults: OpenClawDefaults{
			Model: OpenClawModel{Primary: "nvidia/" + NvidiaModelID},
		}},
		Integrations: integrations,
	}
}

func orPlaceholder(v, envName string) string {
	if v != "" {
		return v
	}
	return "${" + envName + "}"
}

func OpenCodePath(home string) string {
	return filepath.Join(home, ".config", "opencode", "opencode.json")
}

func OpenClawPath(home string) string {
	return filepath.Join(home, ".openclaw", "openclaw.json")
}

// WriteJSON writes v as two-space indented JSON, creating parent
// directories as needed.
func WriteJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
