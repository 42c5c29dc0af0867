package integrations

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildOpenCode(t *testing.T) {
	cfg := BuildOpenCode(Settings{})

	nvidia := cfg.Provider["nvidia"]
	require.NotNil(t, nvidia.Options)
	assert.Equal(t, NvidiaBaseURL, nvidia.Options.BaseURL)
	assert.Equal(t, "qwen/qwen3.5-397b-a17b", nvidia.Models["qwen-3.5-397b"].ID)
	assert.Equal(t, "@ai-sdk/google", cfg.Provider["google"].NPM)
	assert.Nil(t, cfg.Provider["google"].Options)
}

func TestBuildOpenClawGatesIntegrations(t *testing.T) {
	cfg := BuildOpenClaw(Settings{
		NvidiaAPIKey:     "nvapi-1234567890",
		WhatsApp:         true,
		Telegram:         true,
		TelegramBotToken: "123:abc",
		Gmail:            true,
	})

	assert.Equal(t, Integration{Enabled: true, Token: "${WHATSAPP_TOKEN}"}, cfg.Integrations["whatsapp"])
	assert.Equal(t, Integration{Enabled: true, BotToken: "123:abc"}, cfg.Integrations["telegram"])
	assert.Equal(t, Integration{Enabled: true, Auth: "oauth2"}, cfg.Integrations["gmail"])
	assert.Equal(t, Integration{}, cfg.Integrations["twitter"])
	assert.True(t, cfg.Integrations["clawdbot"].Enabled)

	assert.Equal(t, map[string]string{"NVIDIA_API_KEY": "nvapi-1234567890", "TELEGRAM_BOT_TOKEN": "123:abc"}, cfg.Env)
	assert.Equal(t, "nvidia/qwen/qwen3.5-397b-a17b", cfg.Agents.Defaults.Model.Primary)
}

func TestWriteJSONShape(t *testing.T) {
	home := t.TempDir()
	path := OpenClawPath(home)
	require.NoError(t, WriteJSON(path, BuildOpenClaw(Settings{NvidiaAPIKey: "k"})))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))

	twitter := doc["integrations"].(map[string]any)["twitter"].(map[string]any)
	if len(twitter) != 1 || twitter["enabled"] != false {
		t.Fatalf("disabled integration should be {enabled:false}, got %v", twitter)
	}
	models := doc["models"].(map[string]any)["providers"].(map[string]any)["nvidia"].(map[string]any)["models"]
	if arr, ok := models.([]any); !ok || len(arr) != 0 {
		t.Fatalf("expected empty models array, got %v", models)
	}
	assert.Equal(t, filepath.Join(home, ".openclaw", "openclaw.json"), path)
}

func TestWriteJSONFailsUnderFile(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0600))

	err := WriteJSON(filepath.Join(blocker, "sub", "x.json"), map[string]int{})
	require.Error(t, err)
}
