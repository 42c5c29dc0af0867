// Package shell runs child processes for the onboarding steps and probes
// the search path for executables.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/kayz/biometrics/internal/logger"
)

// Result is the outcome of one command invocation. It is never retained
// beyond the step that produced it.
type Result struct {
	Succeeded bool
	Stdout    string
	Stderr    string
	// Err holds the failure message when Succeeded is false.
	Err string
}

// Options controls how a command is executed.
type Options struct {
	// Dir is the working directory; empty means the current one.
	Dir string
	// Inherit passes the terminal through to the child, used for
	// interactive flows such as browser based logins.
	Inherit bool
	// Env is appended to the current process environment.
	Env []string
}

// Runner executes external commands. Run must not return an error or
// panic: every failure collapses into Result.Succeeded == false.
type Runner interface {
	Run(ctx context.Context, name string, args []string, opts Options) Result
}

// Prober reports whether an executable is available.
type Prober interface {
	Available(name string) bool
}

// PathProber looks executables up on $PATH.
type PathProber struct{}

func (PathProber) Available(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// Exec runs commands with os/exec. The zero value uses the process stdio
// for inherited commands.
type Exec struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

func (e Exec) Run(ctx context.Context, name string, args []string, opts Options) Result {
	logger.Debug("[Shell] run: %s", CommandLine(name, args))

	cmd := exec.CommandContext(ctx, name, args...)
	if opts.Dir != "" {
		cmd.Dir = opts.Dir
	}
	if len(opts.Env) > 0 {
		cmd.Env = append(os.Environ(), opts.Env...)
	}

	var stdout, stderr bytes.Buffer
	if opts.Inherit {
		cmd.Stdin = orReader(e.Stdin, os.Stdin)
		cmd.Stdout = orWriter(e.Stdout, os.Stdout)
		cmd.Stderr = orWriter(e.Stderr, os.Stderr)
	} else {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	}

	err := cmd.Run()
	res := Result{
		Stdout: strings.TrimSpace(stdout.String()),
		Stderr: strings.TrimSpace(stderr.String()),
	}
	if err != nil {
		res.Err = describe(name, args, err, res.Stderr)
		logger.Debug("[Shell] failed: %s", res.Err)
		return res
	}
	res.Succeeded = true
	return res
}

func describe(name string, args []string, err error, stderr string) string {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		msg := fmt.Sprintf("command failed with exit code %d: %s", exitErr.ExitCode(), CommandLine(name, args))
		if stderr != "" {
			msg += "\n" + stderr
		}
		return msg
	}
	return err.Error()
}

// CommandLine joins a command for display.
func CommandLine(name string, args []string) string {
	return strings.TrimSpace(name + " " + strings.Join(args, " "))
}

// FirstLine returns the first non-empty line of s.
func FirstLine(s string) string {
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			return l
		}
	}
	return ""
}

func orReader(r, def io.Reader) io.Reader {
	if r != nil {
		return r
	}
	return def
}

func orWriter(w, def io.Writer) io.Writer {
	if w != nil {
		return w
	}
	return def
}
