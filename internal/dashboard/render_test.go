package dashboard

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRenderShowsSnapshot(t *testing.T) {
	start := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	s := NewState(start)
	s.Now = start.Add(65 * time.Second)
	s.SetAgents(MockAgents())
	s.ApplyMetrics(Metrics{RequestRate: 42, AvgResponse: 187.4, ErrorRate: 0.12, QueueSize: 15})
	s.ShowAlert(Alert{Message: "Connected to BIOMETRICS", Severity: SeveritySuccess})
	s.Synthetic = true

	out := Render(s, 120)
	for _, want := range []string{
		"BIOMETRICS Dashboard",
		"00:01:05",
		"demo data",
		"Connected to BIOMETRICS",
		"42/s",
		"187ms",
		"0.12%",
		"Sisyphus",
		"Refactoring API endpoints",
		"75%",
	} {
		assert.Contains(t, out, want)
	}
}

func TestRenderIsPure(t *testing.T) {
	s := NewState(time.Unix(0, 0))
	s.SetAgents(MockAgents())
	before := s.Clone()

	first := Render(s, 80)
	second := Render(s, 80)
	assert.Equal(t, first, second)
	assert.Equal(t, before, s)
}

func TestRenderHidesAlertAndFiltersAgents(t *testing.T) {
	s := NewState(time.Unix(0, 0))
	s.SetAgents(MockAgents())
	s.ShowAlert(Alert{Message: "gone soon"})
	s.HideAlert()
	s.Filter = FilterIdle

	out := Render(s, 100)
	assert.NotContains(t, out, "gone soon")
	assert.Contains(t, out, "Oracle")
	assert.NotContains(t, out, "Librarian")
}

func TestSparklineAndProgress(t *testing.T) {
	assert.Equal(t, "▁▁▁", Sparkline([]float64{0, 0, 0}))
	assert.Equal(t, "▁▅█", Sparkline([]float64{0, 5, 10}))
	assert.Equal(t, strings.Repeat("█", 5)+strings.Repeat("░", 5), ProgressBar(50, 10))
	assert.Equal(t, strings.Repeat("█", 10), ProgressBar(150, 10))
}
