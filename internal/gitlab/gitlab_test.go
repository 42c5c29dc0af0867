package gitlab

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProjectSendsTokenAndBody(t *testing.T) {
	var got ProjectRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v4/projects" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("PRIVATE-TOKEN") != "glpat-abc123" {
			t.Fatalf("missing token header")
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":42,"path_with_namespace":"x/y","web_url":"https://gitlab.com/x/y"}`))
	}))
	defer srv.Close()

	p, err := New(srv.URL, "glpat-abc123").CreateProject(context.Background(), MediaProject())
	require.NoError(t, err)

	assert.Equal(t, int64(42), p.ID)
	assert.Equal(t, "x/y", p.PathWithNamespace)
	assert.Equal(t, "https://gitlab.com/x/y", p.WebURL)
	assert.Equal(t, "biometrics-media", got.Name)
	assert.Equal(t, "public", got.Visibility)
}

func TestCreateProjectFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		noID   bool
	}{
		{name: "malformed", status: http.StatusOK, body: `not json`},
		{name: "missing id", status: http.StatusOK, body: `{"message":"has already been taken"}`, noID: true},
		{name: "rejected", status: http.StatusBadRequest, body: `{"message":"bad"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := New(srv.URL, "glpat-x").CreateProject(context.Background(), MediaProject())
			if err == nil {
				t.Fatalf("expected error")
			}
			if errors.Is(err, ErrNoProjectID) != tt.noID {
				t.Fatalf("ErrNoProjectID = %v, want %v (%v)", !tt.noID, tt.noID, err)
			}
		})
	}
}

func TestWriteCredentials(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("OTHER=keep\n"), 0600))

	err := WriteCredentials(path, "glpat-abc123", &Project{ID: 42, PathWithNamespace: "x/y"})
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(raw)
	for _, line := range []string{"GITLAB_TOKEN=glpat-abc123", "GITLAB_PROJECT_ID=42", "GITLAB_PROJECT_PATH=x/y", "OTHER=keep"} {
		if !strings.Contains(text, line) {
			t.Fatalf("missing %q in:\n%s", line, text)
		}
	}

	env, err := godotenv.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "42", env["GITLAB_PROJECT_ID"])
}

func TestWriteCredentialsUnwritable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", ".env")
	err := WriteCredentials(path, "glpat-x", &Project{ID: 1, PathWithNamespace: "a/b"})
	require.Error(t, err)
}

func TestWriteCredentialsKeepsMultilineValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("CERT=\"line1\nline2\"\nOTHER=keep\n"), 0600))

	err := WriteCredentials(path, "glpat-abc123", &Project{ID: 42, PathWithNamespace: "x/y"})
	if err != nil {
		t.Fatalf("WriteCredentials: %v", err)
	}

	env, err := godotenv.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "line1\nline2", env["CERT"])
	assert.Equal(t, "keep", env["OTHER"])
	assert.Equal(t, "glpat-abc123", env["GITLAB_TOKEN"])
	assert.Equal(t, "42", env["GITLAB_PROJECT_ID"])
	assert.Equal(t, "x/y", env["GITLAB_PROJECT_PATH"])

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}
