// Package gitlab creates the media storage project and records its
// credentials.
package gitlab

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/ini.v1"

	"github.com/kayz/biometrics/internal/logger"
)

const (
	DefaultBaseURL = "https://gitlab.com"
	// ManualURL is shown when the project has to be created by hand.
	ManualURL = "https://gitlab.com/projects/new"
	// TokenHelpURL is where personal access tokens are issued.
	TokenHelpURL = "https://gitlab.com/-/profile/personal_access_tokens"
)

// ErrNoProjectID is returned when GitLab answered without a project id,
// usually because the project already exists.
var ErrNoProjectID = errors.New("gitlab response carries no project id")

// ProjectRequest is the body of POST /api/v4/projects.
type ProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Visibility  string `json:"visibility"`
}

// MediaProject is the project the onboarding creates.
func MediaProject() ProjectRequest {
	return ProjectRequest{
		Name:        "biometrics-media",
		Description: "BIOMETRICS project media storage (videos, PDFs, images)",
		Visibility:  "public",
	}
}

// Project is the subset of the GitLab project resource we use.
type Project struct {
	ID                int64  `json:"id"`
	PathWithNamespace string `json:"path_with_namespace"`
	WebURL            string `json:"web_url"`
}

// Client talks to the GitLab REST API with a personal access token.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

func New(baseURL, token string) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// CreateProject issues one creation request. It never retries.
func (c *Client) CreateProject(ctx context.Context, p ProjectRequest) (*Project, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v4/projects", bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("PRIVATE-TOKEN", c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("gitlab api returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var project Project
	if err := json.Unmarshal(body, &project); err != nil {
		return nil, fmt.Errorf("decode project: %w", err)
	}
	if project.ID == 0 {
		return nil, ErrNoProjectID
	}
	return &project, nil
}

func credentialValues(token string, p *Project) [][2]string {
	return [][2]string{
		{"GITLAB_TOKEN", token},
		{"GITLAB_PROJECT_ID", fmt.Sprintf("%d", p.ID)},
		{"GITLAB_PROJECT_PATH", p.PathWithNamespace},
	}
}

// WriteCredentials stores the token and project coordinates as KEY=value
// lines in path. Unrelated keys already in the file are kept. Only a
// failed write is an error: a file that cannot be parsed is merged
// through godotenv, or replaced when even that fails.
func WriteCredentials(path, token string, p *Project) error {
	prev := ini.PrettyFormat
	ini.PrettyFormat = false
	defer func() { ini.PrettyFormat = prev }()

	f, err := ini.LoadSources(ini.LoadOptions{Loose: true, IgnoreInlineComment: true}, path)
	if err != nil {
		logger.Debug("[GitLab] %s is not flat key=value (%v), merging with godotenv", path, err)
		return writeDotEnv(path, token, p)
	}
	sec := f.Section(ini.DefaultSection)
	for _, kv := range credentialValues(token, p) {
		sec.Key(kv[0]).SetValue(kv[1])
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// writeDotEnv handles files ini cannot express, e.g. quoted multiline
// values. godotenv.Marshal quotes them back.
func writeDotEnv(path, token string, p *Project) error {
	values, err := godotenv.Read(path)
	if err != nil {
		logger.Warn("[GitLab] %s could not be parsed, overwriting: %v", path, err)
		values = map[string]string{}
	}
	for _, kv := range credentialValues(token, p) {
		values[kv[0]] = kv[1]
	}
	content, err := godotenv.Marshal(values)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(content+"\n"), 0600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
