package shell

import (
	"context"
	"runtime"
	"strings"
	"testing"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

func TestExecRunCapturesOutput(t *testing.T) {
	skipOnWindows(t)

	res := Exec{}.Run(context.Background(), "sh", []string{"-c", "echo hello; echo oops >&2"}, Options{})
	if !res.Succeeded {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.Stdout != "hello" {
		t.Fatalf("unexpected stdout %q", res.Stdout)
	}
	if res.Stderr != "oops" {
		t.Fatalf("unexpected stderr %q", res.Stderr)
	}
}

func TestExecRunNonzeroExitIsNotAnError(t *testing.T) {
	skipOnWindows(t)

	res := Exec{}.Run(context.Background(), "sh", []string{"-c", "echo bad >&2; exit 3"}, Options{})
	if res.Succeeded {
		t.Fatalf("expected failure")
	}
	if !strings.Contains(res.Err, "exit code 3") || !strings.Contains(res.Err, "bad") {
		t.Fatalf("unexpected failure message %q", res.Err)
	}
}

func TestExecRunMissingCommand(t *testing.T) {
	res := Exec{}.Run(context.Background(), "definitely-not-a-real-binary-4821", nil, Options{})
	if res.Succeeded {
		t.Fatalf("expected failure for missing command")
	}
	if res.Err == "" {
		t.Fatalf("expected failure message")
	}
}

func TestExecRunUsesWorkingDirectory(t *testing.T) {
	skipOnWindows(t)

	dir := t.TempDir()
	res := Exec{}.Run(context.Background(), "pwd", nil, Options{Dir: dir})
	if !res.Succeeded {
		t.Fatalf("pwd failed: %s", res.Err)
	}
	if !strings.HasSuffix(res.Stdout, strings.TrimPrefix(dir, "/private")) {
		t.Fatalf("expected cwd %s, got %s", dir, res.Stdout)
	}
}

func TestPathProber(t *testing.T) {
	if (PathProber{}).Available("definitely-not-a-real-binary-4821") {
		t.Fatalf("missing binary reported as available")
	}
	if runtime.GOOS != "windows" && !(PathProber{}).Available("sh") {
		t.Fatalf("sh should be on PATH")
	}
}

func TestFirstLine(t *testing.T) {
	if got := FirstLine("\n  git version 2.44.0\nextra\n"); got != "git version 2.44.0" {
		t.Fatalf("FirstLine = %q", got)
	}
}
