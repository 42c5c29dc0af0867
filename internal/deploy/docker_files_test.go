package deploy

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestDockerfileContainsHealthcheck(t *testing.T) {
	content, err := os.ReadFile(filepath.Join("..", "..", "Dockerfile"))
	if err != nil {
		t.Fatalf("read Dockerfile: %v", err)
	}
	text := string(content)
	if !strings.Contains(text, "HEALTHCHECK") || !strings.Contains(text, "/api/status") {
		t.Fatalf("expected Dockerfile to probe /api/status in HEALTHCHECK")
	}
	if !strings.Contains(text, `CMD ["serve", "--addr", ":8080"]`) {
		t.Fatalf("expected Dockerfile default command for the dashboard server")
	}
}

func TestComposeContainsHealthcheck(t *testing.T) {
	content, err := os.ReadFile(filepath.Join("..", "..", "docker-compose.yml"))
	if err != nil {
		t.Fatalf("read docker-compose.yml: %v", err)
	}

	var compose struct {
		Services map[string]struct {
			Ports       []string       `yaml:"ports"`
			Healthcheck map[string]any `yaml:"healthcheck"`
		} `yaml:"services"`
	}
	if err := yaml.Unmarshal(content, &compose); err != nil {
		t.Fatalf("parse compose file: %v", err)
	}
	svc, ok := compose.Services["biometrics-dashboard"]
	if !ok {
		t.Fatalf("expected compose file to include biometrics-dashboard service")
	}
	if svc.Healthcheck == nil {
		t.Fatalf("expected compose file to include healthcheck")
	}
	if len(svc.Ports) == 0 || svc.Ports[0] != "8080:8080" {
		t.Fatalf("unexpected ports: %v", svc.Ports)
	}
}
