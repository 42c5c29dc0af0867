// Package verify re-checks what the onboarding installed. Every check is
// informational: failures are reported, never returned.
package verify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sashabaranov/go-openai"
	"github.com/shirou/gopsutil/v4/host"

	"github.com/kayz/biometrics/internal/integrations"
	"github.com/kayz/biometrics/internal/logger"
	"github.com/kayz/biometrics/internal/shell"
	"github.com/kayz/biometrics/internal/ui"
)

const DefaultTimeout = 15 * time.Second

// Probe is a tool whose presence is confirmed by running --version.
type Probe struct {
	Name   string
	Binary string
}

// ToolProbes lists the tools re-probed after installation.
func ToolProbes() []Probe {
	return []Probe{
		{Name: "NLM CLI", Binary: "nlm"},
		{Name: "OpenCode", Binary: "opencode"},
		{Name: "OpenClaw", Binary: "openclaw"},
	}
}

// Result is the outcome of one check.
type Result struct {
	Name   string
	OK     bool
	Detail string
}

// Verifier runs the checks and prints one line per result.
type Verifier struct {
	Runner  shell.Runner
	Printer *ui.Printer

	// NvidiaBaseURL defaults to the public NVIDIA endpoint.
	NvidiaBaseURL string
	// TelegramEndpoint is a tgbotapi endpoint format; defaults to
	// tgbotapi.APIEndpoint.
	TelegramEndpoint string
	Timeout          time.Duration
}

func (v *Verifier) timeout() time.Duration {
	if v.Timeout > 0 {
		return v.Timeout
	}
	return DefaultTimeout
}

// Tools runs `<binary> --version` for every probe.
func (v *Verifier) Tools(ctx context.Context, probes []Probe) []Result {
	results := make([]Result, 0, len(probes))
	for _, p := range probes {
		res := v.Runner.Run(ctx, p.Binary, []string{"--version"}, shell.Options{})
		r := Result{Name: p.Name, OK: res.Succeeded}
		if res.Succeeded {
			r.Detail = shell.FirstLine(res.Stdout)
			v.Printer.Succeed("%s is installed", p.Name)
		} else {
			r.Detail = res.Err
			v.Printer.Warn("%s not found", p.Name)
		}
		results = append(results, r)
	}
	return results
}

// Nvidia lists models at the NVIDIA OpenAI-compatible endpoint to confirm
// the API key works.
func (v *Verifier) Nvidia(ctx context.Context, apiKey string) Result {
	ctx, cancel := context.WithTimeout(ctx, v.timeout())
	defer cancel()

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = integrations.NvidiaBaseURL
	if v.NvidiaBaseURL != "" {
		cfg.BaseURL = strings.TrimRight(v.NvidiaBaseURL, "/")
	}
	client := openai.NewClientWithConfig(cfg)

	list, err := client.ListModels(ctx)
	if err != nil {
		logger.Debug("[Verify] nvidia list models: %v", err)
		v.Printer.Warn("NVIDIA API key could not be verified: %v", err)
		return Result{Name: "NVIDIA", Detail: err.Error()}
	}

	detail := fmt.Sprintf("%d models available", len(list.Models))
	for _, m := range list.Models {
		if m.ID == integrations.NvidiaModelID {
			detail += ", " + m.ID + " included"
			break
		}
	}
	v.Printer.Succeed("NVIDIA API key accepted (%s)", detail)
	return Result{Name: "NVIDIA", OK: true, Detail: detail}
}

// Telegram calls getMe with the bot token.
func (v *Verifier) Telegram(ctx context.Context, token string) Result {
	endpoint := v.TelegramEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	client := &http.Client{Timeout: v.timeout()}

	type outcome struct {
		bot *tgbotapi.BotAPI
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
		done <- outcome{bot, err}
	}()

	select {
	case <-ctx.Done():
		v.Printer.Warn("Telegram bot token could not be verified: %v", ctx.Err())
		return Result{Name: "Telegram", Detail: ctx.Err().Error()}
	case o := <-done:
		if o.err != nil {
			logger.Debug("[Verify] telegram getMe: %v", o.err)
			v.Printer.Warn("Telegram bot token could not be verified: %v", o.err)
			return Result{Name: "Telegram", Detail: o.err.Error()}
		}
		detail := "@" + o.bot.Self.UserName
		v.Printer.Succeed("Telegram bot %s reachable", detail)
		return Result{Name: "Telegram", OK: true, Detail: detail}
	}
}

// Host describes the machine, e.g. "darwin 14.5 (arm64)".
func Host(ctx context.Context) string {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	info, err := host.InfoWithContext(ctx)
	if err != nil || info == nil {
		return "unknown host"
	}
	name := info.Platform
	if name == "" {
		name = info.OS
	}
	out := strings.TrimSpace(name + " " + info.PlatformVersion)
	if info.KernelArch != "" {
		out += " (" + info.KernelArch + ")"
	}
	return out
}
