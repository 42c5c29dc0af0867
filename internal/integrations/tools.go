// Package integrations describes the external tools the onboarding
// installs and renders their configuration files.
package integrations

// Step is one follow-up command run after a tool installed successfully.
type Step struct {
	Command []string
	// Inherit hands the terminal to the command, for browser logins.
	Inherit bool
	// Notice is printed before the command runs.
	Notice string
}

// Tool is an installable integration.
type Tool struct {
	Name    string
	Binary  string
	Install []string
	// FollowUp runs in order after a successful install.
	FollowUp []Step
}

var (
	NLM = Tool{
		Name:    "NLM CLI",
		Binary:  "nlm",
		Install: []string{"pnpm", "add", "-g", "nlm-cli"},
		FollowUp: []Step{{
			Command: []string{"nlm", "auth", "login"},
			Inherit: true,
			Notice:  "Browser will open for NLM authentication...",
		}},
	}

	OpenCode = Tool{
		Name:    "OpenCode",
		Binary:  "opencode",
		Install: []string{"brew", "install", "opencode"},
	}

	OpenClaw = Tool{
		Name:    "OpenClaw",
		Binary:  "openclaw",
		Install: []string{"pnpm", "add", "-g", "@delqhi/openclaw"},
	}

	Antigravity = Tool{
		Name:    "Google Antigravity plugin",
		Binary:  "opencode",
		Install: []string{"opencode", "plugin", "add", "opencode-antigravity-auth"},
		FollowUp: []Step{{
			Command: []string{"opencode", "auth", "login"},
			Inherit: true,
			Notice:  "Browser will open for Google authentication...",
		}},
	}
)

// OpenClawSetup wires the messaging bots into OpenClaw. It only runs when
// a WhatsApp or Telegram token was supplied.
var OpenClawSetup = Step{Command: []string{"openclaw", "integrations", "setup"}}

// HelpLink points at the page where an API credential is issued.
type HelpLink struct {
	Service string
	URL     string
}

// HelpLinks lists the credential pages in the order they are shown.
func HelpLinks() []HelpLink {
	return []HelpLink{
		{"GitLab", "https://gitlab.com/-/profile/personal_access_tokens"},
		{"NVIDIA", "https://build.nvidia.com/explore/discover"},
		{"WhatsApp", "https://developers.facebook.com/apps/creation/"},
		{"Telegram", "https://core.telegram.org/bots/features#botfather"},
		{"Gmail", "https://console.cloud.google.com/apis/credentials"},
		{"Twitter", "https://developer.twitter.com/en/portal/dashboard"},
		{"ClawdBot", "https://clawdbot.com/dashboard"},
	}
}
