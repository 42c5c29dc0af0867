// Package templates is the built-in catalog of project-template agents
// and the tasks they run.
package templates

import (
	_ "embed"
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

type AgentDef struct {
	Key          string   `yaml:"key"`
	Name         string   `yaml:"name"`
	Description  string   `yaml:"description"`
	Model        string   `yaml:"model"`
	Capabilities []string `yaml:"capabilities"`
	Instructions string   `yaml:"instructions"`
}

type TaskDef struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// Agent is the key of the agent that runs the task.
	Agent  string            `yaml:"agent"`
	Input  map[string]string `yaml:"input"`
	Output map[string]string `yaml:"output"`
}

type catalog struct {
	Agents []AgentDef `yaml:"agents"`
	Tasks  []TaskDef  `yaml:"tasks"`
}

var (
	loadOnce sync.Once
	loaded   catalog
	loadErr  error
)

// parse decodes a catalog and checks that every task names a known agent.
func parse(data []byte) (catalog, error) {
	var c catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return catalog{}, fmt.Errorf("parse template catalog: %w", err)
	}
	agents := make(map[string]bool, len(c.Agents))
	for _, a := range c.Agents {
		if a.Key == "" {
			return catalog{}, fmt.Errorf("template agent %q has no key", a.Name)
		}
		if agents[a.Key] {
			return catalog{}, fmt.Errorf("duplicate template agent %q", a.Key)
		}
		agents[a.Key] = true
	}
	for _, t := range c.Tasks {
		if !agents[t.Agent] {
			return catalog{}, fmt.Errorf("task %q references unknown agent %q", t.ID, t.Agent)
		}
	}
	return c, nil
}

func get() catalog {
	loadOnce.Do(func() {
		loaded, loadErr = parse(catalogYAML)
	})
	if loadErr != nil {
		// The catalog is compiled in; a parse error is a build defect.
		panic(loadErr)
	}
	return loaded
}

// Agents lists the catalog agents in declaration order.
func Agents() []AgentDef {
	return append([]AgentDef(nil), get().Agents...)
}

// Agent looks up an agent by key.
func Agent(key string) (AgentDef, bool) {
	for _, a := range get().Agents {
		if a.Key == key {
			return a, true
		}
	}
	return AgentDef{}, false
}

// Tasks lists the catalog tasks in declaration order.
func Tasks() []TaskDef {
	return append([]TaskDef(nil), get().Tasks...)
}

func Task(id string) (TaskDef, bool) {
	for _, t := range get().Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return TaskDef{}, false
}

// Fields returns the schema keys sorted, for stable printing.
func Fields(schema map[string]string) []string {
	keys := make([]string, 0, len(schema))
	for k := range schema {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
