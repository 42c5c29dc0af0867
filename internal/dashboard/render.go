package dashboard

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00F5FF"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0A0B0"))
	cardStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3A3A4A")).
			Padding(0, 1)
	valueStyle = lipgloss.NewStyle().Bold(true)

	requestColor  = lipgloss.Color("#00F5FF")
	responseColor = lipgloss.Color("#FF00FF")

	severityColors = map[string]lipgloss.Color{
		SeveritySuccess: lipgloss.Color("#04B575"),
		SeverityInfo:    lipgloss.Color("#00B7FF"),
		SeverityWarning: lipgloss.Color("#F1C40F"),
		SeverityError:   lipgloss.Color("#FF3366"),
	}
	statusColors = map[string]lipgloss.Color{
		"active": lipgloss.Color("#04B575"),
		"idle":   lipgloss.Color("#808080"),
		"error":  lipgloss.Color("#FF3366"),
	}
)

const progressWidth = 20

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// Render turns a snapshot into the terminal view. It has no side effects.
func Render(s State, width int) string {
	if width <= 0 {
		width = 80
	}
	var b strings.Builder

	b.WriteString(renderHeader(s))
	b.WriteString("\n")
	if s.Alert.Visible {
		b.WriteString(renderAlert(s.Alert, width))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(renderMetrics(s))
	b.WriteString("\n\n")
	b.WriteString(renderSeries("Requests/s   ", s.RequestSeries, requestColor))
	b.WriteString("\n")
	b.WriteString(renderSeries("Response ms  ", s.ResponseSeries, responseColor))
	b.WriteString("\n\n")
	b.WriteString(renderAgents(s, width))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("f: filter agents  q: quit"))
	return b.String()
}

func renderHeader(s State) string {
	status := lipgloss.NewStyle().Foreground(severityColors[SeverityError]).Render("○ offline")
	if s.Connected {
		status = lipgloss.NewStyle().Foreground(severityColors[SeveritySuccess]).Render("● live")
	}
	if s.Synthetic {
		status += mutedStyle.Render(" (demo data)")
	}
	last := "-"
	if !s.LastUpdate.IsZero() {
		last = s.LastUpdate.Format("15:04:05")
	}
	return fmt.Sprintf("%s  %s  %s",
		titleStyle.Render("BIOMETRICS Dashboard"),
		status,
		mutedStyle.Render(fmt.Sprintf("uptime %s  last update %s", FormatUptime(s.Uptime()), last)),
	)
}

func renderAlert(a AlertBanner, width int) string {
	color, ok := severityColors[a.Severity]
	if !ok {
		color = severityColors[SeverityInfo]
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("#000000")).
		Background(color).
		Padding(0, 1).
		MaxWidth(width).
		Render(a.Message)
}

func renderMetrics(s State) string {
	m := s.Metrics
	cards := []string{
		metricCard("Request Rate", fmt.Sprintf("%.0f/s", m.RequestRate)),
		metricCard("Avg Response", fmt.Sprintf("%dms", int(math.Round(m.AvgResponse)))),
		metricCard("Error Rate", fmt.Sprintf("%.2f%%", m.ErrorRate)),
		metricCard("Queue", fmt.Sprintf("%d", m.QueueSize)),
		metricCard("Active Agents", fmt.Sprintf("%d", s.ActiveAgents())),
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func metricCard(label, value string) string {
	return cardStyle.Render(mutedStyle.Render(label) + "\n" + valueStyle.Render(value))
}

func renderSeries(label string, series []float64, color lipgloss.Color) string {
	return mutedStyle.Render(label) + lipgloss.NewStyle().Foreground(color).Render(Sparkline(series))
}

// Sparkline maps the samples onto block characters scaled to the series
// maximum.
func Sparkline(series []float64) string {
	peak := 0.0
	for _, v := range series {
		if v > peak {
			peak = v
		}
	}
	out := make([]rune, len(series))
	for i, v := range series {
		idx := 0
		if peak > 0 && v > 0 {
			idx = int(math.Round(v / peak * float64(len(sparkRunes)-1)))
		}
		out[i] = sparkRunes[idx]
	}
	return string(out)
}

func renderAgents(s State, width int) string {
	agents := s.VisibleAgents()
	filter := s.Filter
	if filter == "" {
		filter = FilterAll
	}
	head := titleStyle.Render("Agents") + mutedStyle.Render(fmt.Sprintf("  [%s] %d shown", filter, len(agents)))
	if len(agents) == 0 {
		return head + "\n" + mutedStyle.Render("  no agents")
	}

	cardWidth := 38
	perRow := width / (cardWidth + 2)
	if perRow < 1 {
		perRow = 1
	}

	var rows []string
	for i := 0; i < len(agents); i += perRow {
		end := i + perRow
		if end > len(agents) {
			end = len(agents)
		}
		var cards []string
		for _, a := range agents[i:end] {
			cards = append(cards, agentCard(a, cardWidth))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	}
	return head + "\n" + strings.Join(rows, "\n")
}

func agentCard(a Agent, width int) string {
	color, ok := statusColors[a.Status]
	if !ok {
		color = statusColors["idle"]
	}
	badge := lipgloss.NewStyle().Foreground(color).Render(a.Status)
	task := a.CurrentTask
	if task == "" {
		task = "Idle"
	}
	lines := []string{
		valueStyle.Render(a.Name) + " " + badge,
		mutedStyle.Render(a.Role),
		fmt.Sprintf("tasks %d  avg %dms  errors %d", a.TasksCompleted, a.AvgTime, a.Errors),
		ProgressBar(a.Progress, progressWidth) + fmt.Sprintf(" %.0f%%", a.Progress),
		mutedStyle.Render(task),
	}
	return cardStyle.Width(width).Render(strings.Join(lines, "\n"))
}

// ProgressBar renders pct (0..100) as a fixed width bar.
func ProgressBar(pct float64, width int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := int(math.Round(pct / 100 * float64(width)))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
