package ui

import (
	"bytes"
	"strings"
	"testing"
)

func TestPrinterLines(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf)

	p.Succeed("%s installed", "Git")
	p.Fail("Failed to install %s", "pnpm")
	p.Hint("Manual installation required: %s", "brew install pnpm")
	p.Plain("plain %d", 1)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d: %q", len(lines), buf.String())
	}
	for i, want := range []string{"✓ Git installed", "✗ Failed to install pnpm", "brew install pnpm", "plain 1"} {
		if !strings.Contains(lines[i], want) {
			t.Fatalf("line %d = %q, want it to contain %q", i, lines[i], want)
		}
	}
}

func TestBannerContainsLines(t *testing.T) {
	out := Banner("BIOMETRICS", "Onboarding v1.0.0")
	if !strings.Contains(out, "BIOMETRICS") || !strings.Contains(out, "Onboarding v1.0.0") {
		t.Fatalf("unexpected banner:\n%s", out)
	}
}
