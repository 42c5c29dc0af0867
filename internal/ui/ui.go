// Package ui renders the onboarding progress lines and banners.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5555"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F1C40F"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00B7FF"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#808080"))
	boldStyle    = lipgloss.NewStyle().Bold(true)

	bannerStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("#00F5FF")).
			Padding(0, 4).
			Align(lipgloss.Center)
	bannerTitle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F1C40F"))

	doneStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("#04B575")).
			Bold(true).
			Padding(0, 10)
)

// Printer writes human-readable progress lines.
type Printer struct {
	Out io.Writer
}

func New(out io.Writer) *Printer {
	return &Printer{Out: out}
}

func (p *Printer) line(s string) {
	fmt.Fprintln(p.Out, s)
}

// Step announces a step that is about to run.
func (p *Printer) Step(format string, args ...any) {
	p.line(infoStyle.Render("• ") + fmt.Sprintf(format, args...))
}

func (p *Printer) Succeed(format string, args ...any) {
	p.line(successStyle.Render("✓ " + fmt.Sprintf(format, args...)))
}

func (p *Printer) Fail(format string, args ...any) {
	p.line(failStyle.Render("✗ " + fmt.Sprintf(format, args...)))
}

func (p *Printer) Warn(format string, args ...any) {
	p.line(warnStyle.Render("⚠ " + fmt.Sprintf(format, args...)))
}

func (p *Printer) Info(format string, args ...any) {
	p.line(infoStyle.Render("ℹ " + fmt.Sprintf(format, args...)))
}

// Detail prints an indented muted line, e.g. the command being run.
func (p *Printer) Detail(format string, args ...any) {
	p.line(mutedStyle.Render("   " + fmt.Sprintf(format, args...)))
}

// Hint prints an indented warning-colored line, e.g. a manual install command.
func (p *Printer) Hint(format string, args ...any) {
	p.line(warnStyle.Render("   " + fmt.Sprintf(format, args...)))
}

func (p *Printer) Heading(s string) {
	p.line("")
	p.line(boldStyle.Render(s))
}

func (p *Printer) Blank() {
	p.line("")
}

// Plain prints the line unstyled.
func (p *Printer) Plain(format string, args ...any) {
	p.line(fmt.Sprintf(format, args...))
}

// Muted renders s in the muted color without printing it.
func Muted(s string) string {
	return mutedStyle.Render(s)
}

// Banner renders a framed title with subtitle lines.
func Banner(title string, lines ...string) string {
	body := []string{bannerTitle.Render(title)}
	for _, l := range lines {
		body = append(body, mutedStyle.Render(l))
	}
	return bannerStyle.Render(strings.Join(body, "\n"))
}

// Done renders the completion box.
func Done(title string) string {
	return doneStyle.Render(title)
}
