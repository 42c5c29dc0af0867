package onboard

import (
	"errors"
	"strings"

	"github.com/kayz/biometrics/internal/prompt"
)

// Answer keys.
const (
	KeyNeedGitLabToken  = "needGitLabToken"
	KeyGitLabToken      = "gitlabToken"
	KeyNvidiaAPIKey     = "nvidiaApiKey"
	KeySetupWhatsApp    = "setupWhatsApp"
	KeyWhatsAppToken    = "whatsappToken"
	KeySetupTelegram    = "setupTelegram"
	KeyTelegramBotToken = "telegramBotToken"
	KeySetupGmail       = "setupGmail"
	KeySetupTwitter     = "setupTwitter"
	KeyInstallOpenCode  = "installOpenCode"
	KeyInstallOpenClaw  = "installOpenClaw"
)

// Questions returns the onboarding questionnaire in asking order.
func Questions() []prompt.Question {
	return []prompt.Question{
		{
			Key:     KeyNeedGitLabToken,
			Kind:    prompt.Confirm,
			Prompt:  "Do you have a GitLab Personal Access Token?",
			Default: "no",
		},
		{
			Key:      KeyGitLabToken,
			Kind:     prompt.Text,
			Prompt:   "Enter your GitLab Personal Access Token",
			Secret:   true,
			Validate: validateGitLabToken,
			When:     KeyNeedGitLabToken,
		},
		{
			Key:      KeyNvidiaAPIKey,
			Kind:     prompt.Text,
			Prompt:   "Enter your NVIDIA API Key (for Qwen 3.5)",
			Secret:   true,
			Validate: validateNvidiaKey,
		},
		{
			Key:     KeySetupWhatsApp,
			Kind:    prompt.Confirm,
			Prompt:  "Setup WhatsApp integration?",
			Default: "yes",
		},
		{
			Key:    KeyWhatsAppToken,
			Kind:   prompt.Text,
			Prompt: "Enter WhatsApp Business API Token (or press Enter to skip)",
			Secret: true,
			When:   KeySetupWhatsApp,
		},
		{
			Key:     KeySetupTelegram,
			Kind:    prompt.Confirm,
			Prompt:  "Setup Telegram integration?",
			Default: "yes",
		},
		{
			Key:    KeyTelegramBotToken,
			Kind:   prompt.Text,
			Prompt: "Enter Telegram Bot Token (or press Enter to skip)",
			Secret: true,
			When:   KeySetupTelegram,
		},
		{
			Key:     KeySetupGmail,
			Kind:    prompt.Confirm,
			Prompt:  "Setup Gmail integration?",
			Default: "yes",
		},
		{
			Key:     KeySetupTwitter,
			Kind:    prompt.Confirm,
			Prompt:  "Setup Twitter/X integration?",
			Default: "no",
		},
		{
			Key:     KeyInstallOpenCode,
			Kind:    prompt.Confirm,
			Prompt:  "Install OpenCode (AI coding assistant)?",
			Default: "yes",
		},
		{
			Key:     KeyInstallOpenClaw,
			Kind:    prompt.Confirm,
			Prompt:  "Install OpenClaw (AI orchestration)?",
			Default: "yes",
		},
	}
}

func validateGitLabToken(v string) error {
	if !strings.HasPrefix(v, "glpat-") {
		return errors.New(`GitLab token must start with "glpat-"`)
	}
	return nil
}

func validateNvidiaKey(v string) error {
	if len(v) < 10 {
		return errors.New("please enter a valid NVIDIA API key")
	}
	return nil
}
