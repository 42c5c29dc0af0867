package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogAgents(t *testing.T) {
	agents := Agents()
	require.Len(t, agents, 3)
	keys := []string{agents[0].Key, agents[1].Key, agents[2].Key}
	assert.Equal(t, []string{"sisyphus", "prometheus", "librarian"}, keys)

	a, ok := Agent("librarian")
	if !ok {
		t.Fatalf("librarian not found")
	}
	assert.Equal(t, "opencode-zen/zen-big-pickle", a.Model)
	assert.Contains(t, a.Capabilities, "documentation")

	s, _ := Agent("sisyphus")
	assert.Equal(t, "nvidia-nim/qwen-3.5-397b", s.Model)

	if _, ok := Agent("hermes"); ok {
		t.Fatalf("unexpected agent hermes")
	}
}

func TestCatalogTasks(t *testing.T) {
	tasks := Tasks()
	require.Len(t, tasks, 3)

	task, ok := Task("create_plan")
	if !ok {
		t.Fatalf("create_plan not found")
	}
	assert.Equal(t, "prometheus", task.Agent)
	assert.Equal(t, []string{"constraints", "goal"}, Fields(task.Input))
	assert.Equal(t, "array", task.Output["milestones"])

	for _, tk := range tasks {
		if _, ok := Agent(tk.Agent); !ok {
			t.Fatalf("task %s references unknown agent %s", tk.ID, tk.Agent)
		}
	}
}

func TestListsAreCopies(t *testing.T) {
	agents := Agents()
	agents[0].Name = "changed"
	a, _ := Agent("sisyphus")
	assert.Equal(t, "Sisyphus", a.Name)
}

func TestParseRejectsBrokenCatalogs(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"invalid yaml", "agents: [\n"},
		{"missing key", "agents:\n  - name: X\n"},
		{"duplicate", "agents:\n  - key: a\n  - key: a\n"},
		{"unknown agent", "agents:\n  - key: a\ntasks:\n  - id: t\n    agent: b\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parse([]byte(tt.data)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
