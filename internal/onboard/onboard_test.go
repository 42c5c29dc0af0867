package onboard

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kayz/biometrics/internal/gitlab"
	"github.com/kayz/biometrics/internal/integrations"
	"github.com/kayz/biometrics/internal/prompt"
	"github.com/kayz/biometrics/internal/requirements"
	"github.com/kayz/biometrics/internal/shell/shelltest"
	"github.com/kayz/biometrics/internal/ui"
)

type harness struct {
	orch   *Orchestrator
	runner *shelltest.Runner
	out    *bytes.Buffer
	env    map[string]string
	home   string
	dir    string
}

func newHarness(t *testing.T, input string, prefill map[string]string) *harness {
	t.Helper()
	h := &harness{
		runner: shelltest.NewRunner(),
		out:    &bytes.Buffer{},
		env:    map[string]string{},
		home:   t.TempDir(),
		dir:    t.TempDir(),
	}
	session := prompt.NewSession(strings.NewReader(input), h.out)
	session.Prefill(prefill)
	h.orch = &Orchestrator{
		Runner:          h.runner,
		Prober:          shelltest.NewProber("git", "node", "pnpm", "brew", "python3"),
		Printer:         ui.New(h.out),
		Session:         session,
		Requirements:    requirements.Defaults(),
		Platform:        "linux",
		Home:            h.home,
		CredentialsPath: filepath.Join(h.dir, ".env"),
		GitLab: func(string) ProjectCreator {
			t.Fatalf("gitlab must not be contacted")
			return nil
		},
		Setenv: func(k, v string) error {
			h.env[k] = v
			return nil
		},
	}
	return h
}

func minimalAnswers() map[string]string {
	return map[string]string{
		KeyNeedGitLabToken: "no",
		KeyNvidiaAPIKey:    "nvapi-0123456789",
		KeySetupWhatsApp:   "no",
		KeySetupTelegram:   "no",
		KeySetupGmail:      "no",
		KeySetupTwitter:    "no",
		KeyInstallOpenCode: "yes",
		KeyInstallOpenClaw: "no",
	}
}

func TestScenarioOpenCodeOnlySkipsGitLabAndOpenClaw(t *testing.T) {
	h := newHarness(t, "", minimalAnswers())

	require.NoError(t, h.orch.Run(context.Background()))

	for _, line := range h.runner.Lines() {
		if strings.Contains(line, "openclaw") && line != "openclaw --version" {
			t.Fatalf("OpenClaw step ran: %s", line)
		}
	}
	assert.True(t, h.runner.Ran("brew install opencode"))
	assert.NoFileExists(t, integrations.OpenClawPath(h.home))
	assert.FileExists(t, integrations.OpenCodePath(h.home))
	assert.NoFileExists(t, h.orch.CredentialsPath)
	assert.Equal(t, "nvapi-0123456789", h.env["NVIDIA_API_KEY"])

	answers := prompt.Answers{
		KeyNeedGitLabToken: false, KeySetupWhatsApp: false, KeySetupTelegram: false,
		KeySetupGmail: false, KeySetupTwitter: false, KeyInstallOpenCode: true, KeyInstallOpenClaw: false,
	}
	assert.Equal(t, []string{
		"NLM CLI (NotebookLM)",
		"OpenCode (AI coding assistant)",
		"Google Antigravity (OAuth)",
	}, Summary(answers))
	assert.Contains(t, h.out.String(), "No GitLab token provided")
}

func TestScenarioGitLabCredentialsFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": 42, "path_with_namespace": "x/y", "web_url": "https://gitlab.com/x/y",
		})
	}))
	defer srv.Close()

	answers := minimalAnswers()
	answers[KeyNeedGitLabToken] = "yes"
	answers[KeyGitLabToken] = "glpat-abc123"
	h := newHarness(t, "", answers)
	h.orch.GitLab = func(token string) ProjectCreator { return gitlab.New(srv.URL, token) }

	require.NoError(t, h.orch.Run(context.Background()))

	raw, err := os.ReadFile(h.orch.CredentialsPath)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "GITLAB_PROJECT_ID=42")
	assert.Contains(t, string(raw), "GITLAB_PROJECT_PATH=x/y")
	assert.Contains(t, h.out.String(), "GitLab project created: https://gitlab.com/x/y")
}

type failingCreator struct{ err error }

func (f failingCreator) CreateProject(context.Context, gitlab.ProjectRequest) (*gitlab.Project, error) {
	return nil, f.err
}

func TestGitLabFailureIsNotFatal(t *testing.T) {
	answers := minimalAnswers()
	answers[KeyNeedGitLabToken] = "yes"
	answers[KeyGitLabToken] = "glpat-abc123"
	h := newHarness(t, "", answers)
	h.orch.GitLab = func(string) ProjectCreator { return failingCreator{gitlab.ErrNoProjectID} }

	require.NoError(t, h.orch.Run(context.Background()))
	assert.NoFileExists(t, h.orch.CredentialsPath)
	assert.Contains(t, h.out.String(), "may already exist")
	assert.True(t, h.runner.Ran("pnpm add -g nlm-cli"))
}

func TestCredentialsWriteFailureIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":42,"path_with_namespace":"x/y"}`))
	}))
	defer srv.Close()

	answers := minimalAnswers()
	answers[KeyNeedGitLabToken] = "yes"
	answers[KeyGitLabToken] = "glpat-abc123"
	h := newHarness(t, "", answers)
	h.orch.GitLab = func(token string) ProjectCreator { return gitlab.New(srv.URL, token) }
	h.orch.CredentialsPath = filepath.Join(h.dir, "missing", ".env")

	err := h.orch.Run(context.Background())
	require.Error(t, err)
	assert.False(t, h.runner.Ran("pnpm add -g nlm-cli"), "tools must not install after a fatal error")
}

func TestClosedInputStopsBeforeInstalling(t *testing.T) {
	h := newHarness(t, "", nil)

	err := h.orch.Run(context.Background())
	require.ErrorIs(t, err, prompt.ErrInputClosed)
	for _, line := range h.runner.Lines() {
		if !strings.HasSuffix(line, "--version") {
			t.Fatalf("unexpected command after closed input: %s", line)
		}
	}
}

func TestFailedInstallSkipsConfigurationAndContinues(t *testing.T) {
	answers := minimalAnswers()
	answers[KeyInstallOpenClaw] = "yes"
	h := newHarness(t, "", answers)
	h.runner.Fail("brew install opencode", "no formula")

	require.NoError(t, h.orch.Run(context.Background()))

	assert.NoFileExists(t, integrations.OpenCodePath(h.home))
	assert.Empty(t, h.env)
	assert.FileExists(t, integrations.OpenClawPath(h.home))
	assert.True(t, h.runner.Ran("opencode plugin add opencode-antigravity-auth"))
	assert.False(t, h.runner.Ran("openclaw integrations setup"))
	assert.Contains(t, h.out.String(), "You can install manually: brew install opencode")
}

func TestToolSequenceOrderAndOptions(t *testing.T) {
	answers := minimalAnswers()
	answers[KeyInstallOpenClaw] = "yes"
	answers[KeySetupTelegram] = "yes"
	answers[KeyTelegramBotToken] = "123:abc"
	h := newHarness(t, "", answers)

	require.NoError(t, h.orch.Run(context.Background()))

	var tools []string
	for _, c := range h.runner.Calls() {
		if strings.HasSuffix(c.Line(), "--version") {
			continue
		}
		tools = append(tools, c.Line())
		assert.Equal(t, h.home, c.Opts.Dir, c.Line())
	}
	assert.Equal(t, []string{
		"pnpm add -g nlm-cli",
		"nlm auth login",
		"brew install opencode",
		"pnpm add -g @delqhi/openclaw",
		"openclaw integrations setup",
		"opencode plugin add opencode-antigravity-auth",
		"opencode auth login",
	}, tools)

	for _, c := range h.runner.Calls() {
		if c.Line() == "nlm auth login" || c.Line() == "opencode auth login" {
			assert.True(t, c.Opts.Inherit, c.Line())
		}
	}

	var claw integrations.OpenClawConfig
	raw, err := os.ReadFile(integrations.OpenClawPath(h.home))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &claw))
	assert.Equal(t, "123:abc", claw.Integrations["telegram"].BotToken)
}

func TestQuestionGuardsAreValid(t *testing.T) {
	if err := prompt.CheckGuards(Questions()); err != nil {
		t.Fatalf("onboarding questions: %v", err)
	}
}

func TestSummaryListsRequestedIntegrations(t *testing.T) {
	got := Summary(prompt.Answers{
		KeyGitLabToken:     "glpat-x",
		KeyInstallOpenClaw: true,
		KeySetupGmail:      true,
		KeySetupTwitter:    true,
	})
	assert.Equal(t, []string{
		"GitLab media storage project",
		"NLM CLI (NotebookLM)",
		"OpenClaw (AI orchestration)",
		"Google Antigravity (OAuth)",
		"Gmail integration",
		"Twitter integration",
	}, got)
}
