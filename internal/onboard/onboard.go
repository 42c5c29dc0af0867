// Package onboard runs the complete onboarding: requirements, questions,
// GitLab project, tool installs, verification and the final summary.
package onboard

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/kayz/biometrics/internal/gitlab"
	"github.com/kayz/biometrics/internal/integrations"
	"github.com/kayz/biometrics/internal/logger"
	"github.com/kayz/biometrics/internal/prompt"
	"github.com/kayz/biometrics/internal/requirements"
	"github.com/kayz/biometrics/internal/shell"
	"github.com/kayz/biometrics/internal/ui"
	"github.com/kayz/biometrics/internal/verify"
)

// ProjectCreator creates the GitLab media project.
type ProjectCreator interface {
	CreateProject(ctx context.Context, p gitlab.ProjectRequest) (*gitlab.Project, error)
}

// Orchestrator owns one onboarding run. Phases never interleave: every
// answer is collected before anything is installed or written.
type Orchestrator struct {
	Runner  shell.Runner
	Prober  shell.Prober
	Printer *ui.Printer
	Session *prompt.Session

	Requirements []requirements.Requirement
	Platform     string

	// Home is where tools are installed from and config files land.
	Home string
	// CredentialsPath is the .env file receiving the GitLab credentials.
	CredentialsPath string

	// GitLab returns a client for the token; defaults to gitlab.New with
	// GitLabURL.
	GitLab    func(token string) ProjectCreator
	GitLabURL string
	// NvidiaBaseURL overrides the provider endpoint written to the configs.
	NvidiaBaseURL string

	Verifier *verify.Verifier
	// CheckCredentials enables the online NVIDIA and Telegram checks.
	CheckCredentials bool

	// Setenv exports variables for later child processes.
	Setenv func(key, value string) error
}

// Run executes every phase in order. Only a closed prompt input or a
// failed file write aborts the run.
func (o *Orchestrator) Run(ctx context.Context) error {
	if err := o.defaults(); err != nil {
		return err
	}
	runID := uuid.NewString()
	logger.Info("[Onboard] run %s started (platform=%s, home=%s)", runID, o.Platform, o.Home)

	installer := &requirements.Installer{
		Runner:   o.Runner,
		Prober:   o.Prober,
		Platform: o.Platform,
		Printer:  o.Printer,
	}
	installer.Run(ctx, o.Requirements)

	o.printHelpLinks()

	answers, err := o.Session.Run(Questions())
	if err != nil {
		return fmt.Errorf("onboarding questions: %w", err)
	}

	if err := o.createProject(ctx, answers); err != nil {
		return err
	}
	if err := o.installTools(ctx, answers); err != nil {
		return err
	}
	o.verify(ctx, answers)
	o.summary(answers)

	logger.Info("[Onboard] run %s finished", runID)
	return nil
}

func (o *Orchestrator) defaults() error {
	if o.Runner == nil {
		o.Runner = shell.Exec{}
	}
	if o.Prober == nil {
		o.Prober = shell.PathProber{}
	}
	if o.Printer == nil {
		o.Printer = ui.New(os.Stdout)
	}
	if o.Session == nil {
		o.Session = prompt.NewSession(os.Stdin, os.Stdout)
	}
	if o.Requirements == nil {
		o.Requirements = requirements.Defaults()
	}
	if o.Home == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home directory: %w", err)
		}
		o.Home = home
	}
	if o.CredentialsPath == "" {
		o.CredentialsPath = ".env"
	}
	if o.GitLab == nil {
		base := o.GitLabURL
		o.GitLab = func(token string) ProjectCreator { return gitlab.New(base, token) }
	}
	if o.Verifier == nil {
		o.Verifier = &verify.Verifier{Runner: o.Runner, Printer: o.Printer, NvidiaBaseURL: o.NvidiaBaseURL}
	}
	if o.Setenv == nil {
		o.Setenv = os.Setenv
	}
	return nil
}

func (o *Orchestrator) printHelpLinks() {
	o.Printer.Heading("API key help links:")
	for _, l := range integrations.HelpLinks() {
		o.Printer.Plain("   %-9s %s", l.Service+":", ui.Muted(l.URL))
	}
	o.Printer.Blank()
}

func (o *Orchestrator) createProject(ctx context.Context, a prompt.Answers) error {
	token := a.String(KeyGitLabToken)
	if token == "" {
		o.Printer.Warn("No GitLab token provided. Skipping GitLab project creation.")
		o.Printer.Hint("You can create one later at: %s", gitlab.TokenHelpURL)
		return nil
	}

	o.Printer.Step("Creating GitLab media storage project...")
	project, err := o.GitLab(token).CreateProject(ctx, gitlab.MediaProject())
	switch {
	case errors.Is(err, gitlab.ErrNoProjectID):
		o.Printer.Warn("GitLab project may already exist")
		return nil
	case err != nil:
		logger.Warn("[Onboard] gitlab project creation failed: %v", err)
		o.Printer.Fail("GitLab project creation failed")
		o.Printer.Hint("You can create manually at: %s", gitlab.ManualURL)
		return nil
	}
	o.Printer.Succeed("GitLab project created: %s", project.WebURL)

	if err := gitlab.WriteCredentials(o.CredentialsPath, token, project); err != nil {
		return fmt.Errorf("save gitlab credentials: %w", err)
	}
	o.Printer.Succeed("GitLab credentials saved to %s", filepath.Base(o.CredentialsPath))
	return nil
}

func (o *Orchestrator) installTools(ctx context.Context, a prompt.Answers) error {
	settings := settingsFrom(a)
	settings.NvidiaBaseURL = o.NvidiaBaseURL

	o.install(ctx, integrations.NLM)

	if a.Bool(KeyInstallOpenCode) && o.install(ctx, integrations.OpenCode) {
		o.Printer.Step("Configuring OpenCode...")
		if err := integrations.WriteJSON(integrations.OpenCodePath(o.Home), integrations.BuildOpenCode(settings)); err != nil {
			return fmt.Errorf("configure OpenCode: %w", err)
		}
		o.Printer.Succeed("OpenCode configured")

		if err := o.Setenv("NVIDIA_API_KEY", settings.NvidiaAPIKey); err != nil {
			logger.Warn("[Onboard] export NVIDIA_API_KEY: %v", err)
		} else {
			o.Printer.Succeed("NVIDIA API key configured (environment)")
		}
	}

	if a.Bool(KeyInstallOpenClaw) && o.install(ctx, integrations.OpenClaw) {
		o.Printer.Step("Configuring OpenClaw...")
		if err := integrations.WriteJSON(integrations.OpenClawPath(o.Home), integrations.BuildOpenClaw(settings)); err != nil {
			return fmt.Errorf("configure OpenClaw: %w", err)
		}
		o.Printer.Succeed("OpenClaw configured")

		if settings.HasBotToken() {
			o.Printer.Step("Setting up ClawdBot integration...")
			o.followUp(ctx, integrations.OpenClawSetup, "ClawdBot integration complete")
		}
	}

	o.install(ctx, integrations.Antigravity)
	return nil
}

// install runs the tool installer and, on success, its follow-up steps.
func (o *Orchestrator) install(ctx context.Context, tool integrations.Tool) bool {
	o.Printer.Step("Installing %s...", tool.Name)
	res := o.Runner.Run(ctx, tool.Install[0], tool.Install[1:], shell.Options{Dir: o.Home})
	if !res.Succeeded {
		logger.Warn("[Onboard] install %s failed: %s", tool.Name, res.Err)
		o.Printer.Fail("%s installation failed", tool.Name)
		o.Printer.Hint("You can install manually: %s", shell.CommandLine(tool.Install[0], tool.Install[1:]))
		return false
	}
	o.Printer.Succeed("%s installed", tool.Name)

	for _, step := range tool.FollowUp {
		o.followUp(ctx, step, "")
	}
	return true
}

func (o *Orchestrator) followUp(ctx context.Context, step integrations.Step, done string) {
	if step.Notice != "" {
		o.Printer.Blank()
		o.Printer.Info("%s", step.Notice)
	}
	line := shell.CommandLine(step.Command[0], step.Command[1:])
	res := o.Runner.Run(ctx, step.Command[0], step.Command[1:], shell.Options{Dir: o.Home, Inherit: step.Inherit})
	if !res.Succeeded {
		logger.Warn("[Onboard] %s failed: %s", line, res.Err)
		o.Printer.Warn("%s did not complete", line)
		o.Printer.Hint("Run it again later: %s", line)
		return
	}
	if done == "" {
		done = line + " completed"
	}
	o.Printer.Succeed("%s", done)
}

func (o *Orchestrator) verify(ctx context.Context, a prompt.Answers) {
	o.Printer.Heading("Running verification tests...")
	o.Printer.Blank()

	o.Verifier.Tools(ctx, verify.ToolProbes())

	if a.Bool(KeySetupWhatsApp) && a.String(KeyWhatsAppToken) != "" {
		o.Printer.Succeed("WhatsApp integration configured")
	}
	if a.Bool(KeySetupTelegram) && a.String(KeyTelegramBotToken) != "" {
		o.Printer.Succeed("Telegram integration configured")
	}
	if a.Bool(KeySetupGmail) {
		o.Printer.Succeed("Gmail integration ready (OAuth setup required)")
	}
	if a.Bool(KeySetupTwitter) {
		o.Printer.Succeed("Twitter integration ready (OAuth setup required)")
	}

	if !o.CheckCredentials {
		return
	}
	if key := a.String(KeyNvidiaAPIKey); key != "" {
		o.Verifier.Nvidia(ctx, key)
	}
	if token := a.String(KeyTelegramBotToken); token != "" {
		o.Verifier.Telegram(ctx, token)
	}
}

func (o *Orchestrator) summary(a prompt.Answers) {
	o.Printer.Blank()
	o.Printer.Plain("%s", ui.Done("ONBOARDING COMPLETE!"))
	o.Printer.Blank()

	o.Printer.Plain("What was set up:")
	for _, item := range Summary(a) {
		o.Printer.Plain("  ✅ %s", item)
	}

	o.Printer.Blank()
	o.Printer.Plain("Next steps:")
	for i, s := range nextSteps {
		o.Printer.Plain("  %d. %s", i+1, s.text)
		o.Printer.Plain("     %s", ui.Muted(s.command))
	}
	o.Printer.Blank()
}

var nextSteps = []struct{ text, command string }{
	{"Clone the BIOMETRICS repo:", "git clone https://github.com/Delqhi/BIOMETRICS.git"},
	{"Navigate to the project:", "cd BIOMETRICS"},
	{"Start building with AI assistance!", "opencode"},
	{"Use OpenClaw for automation:", "openclaw start"},
}

// Summary lists what the run set up. It reflects what was requested, not
// what succeeded.
func Summary(a prompt.Answers) []string {
	var items []string
	if a.String(KeyGitLabToken) != "" {
		items = append(items, "GitLab media storage project")
	}
	items = append(items, "NLM CLI (NotebookLM)")
	if a.Bool(KeyInstallOpenCode) {
		items = append(items, "OpenCode (AI coding assistant)")
	}
	if a.Bool(KeyInstallOpenClaw) {
		items = append(items, "OpenClaw (AI orchestration)")
	}
	items = append(items, "Google Antigravity (OAuth)")
	if a.Bool(KeySetupWhatsApp) {
		items = append(items, "WhatsApp integration")
	}
	if a.Bool(KeySetupTelegram) {
		items = append(items, "Telegram integration")
	}
	if a.Bool(KeySetupGmail) {
		items = append(items, "Gmail integration")
	}
	if a.Bool(KeySetupTwitter) {
		items = append(items, "Twitter integration")
	}
	return items
}

func settingsFrom(a prompt.Answers) integrations.Settings {
	return integrations.Settings{
		NvidiaAPIKey:     a.String(KeyNvidiaAPIKey),
		WhatsApp:         a.Bool(KeySetupWhatsApp),
		WhatsAppToken:    a.String(KeyWhatsAppToken),
		Telegram:         a.Bool(KeySetupTelegram),
		TelegramBotToken: a.String(KeyTelegramBotToken),
		Gmail:            a.Bool(KeySetupGmail),
		Twitter:          a.Bool(KeySetupTwitter),
	}
}
