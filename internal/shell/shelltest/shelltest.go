// Package shelltest provides scripted stand-ins for shell.Runner and
// shell.Prober.
package shelltest

import (
	"context"
	"sync"

	"github.com/kayz/biometrics/internal/shell"
)

// Call records one Run invocation.
type Call struct {
	Name string
	Args []string
	Opts shell.Options
}

// Line returns the call as a display command line.
func (c Call) Line() string {
	return shell.CommandLine(c.Name, c.Args)
}

// Runner replays scripted results keyed by command line. Unscripted
// commands succeed with empty output unless FailUnknown is set.
type Runner struct {
	mu          sync.Mutex
	results     map[string]shell.Result
	calls       []Call
	FailUnknown bool
}

func NewRunner() *Runner {
	return &Runner{results: make(map[string]shell.Result)}
}

// On scripts the result for an exact command line such as "brew install git".
func (r *Runner) On(line string, res shell.Result) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[line] = res
	return r
}

// Fail scripts a failed result for the command line.
func (r *Runner) Fail(line, msg string) *Runner {
	return r.On(line, shell.Result{Err: msg})
}

// Succeed scripts a successful result with stdout.
func (r *Runner) Succeed(line, stdout string) *Runner {
	return r.On(line, shell.Result{Succeeded: true, Stdout: stdout})
}

func (r *Runner) Run(_ context.Context, name string, args []string, opts shell.Options) shell.Result {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := Call{Name: name, Args: append([]string(nil), args...), Opts: opts}
	r.calls = append(r.calls, c)
	if res, ok := r.results[c.Line()]; ok {
		return res
	}
	if r.FailUnknown {
		return shell.Result{Err: "unscripted command: " + c.Line()}
	}
	return shell.Result{Succeeded: true}
}

// Calls returns a copy of the recorded calls.
func (r *Runner) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Lines returns the recorded command lines in order.
func (r *Runner) Lines() []string {
	calls := r.Calls()
	out := make([]string, 0, len(calls))
	for _, c := range calls {
		out = append(out, c.Line())
	}
	return out
}

// Ran reports whether the command line was invoked.
func (r *Runner) Ran(line string) bool {
	for _, l := range r.Lines() {
		if l == line {
			return true
		}
	}
	return false
}

// Reset clears recorded calls but keeps the script.
func (r *Runner) Reset() {
	r.mu.Lock()
	r.calls = nil
	r.mu.Unlock()
}

// Prober answers from a fixed set and records every probe.
type Prober struct {
	mu      sync.Mutex
	present map[string]bool
	probed  []string
}

func NewProber(present ...string) *Prober {
	p := &Prober{present: make(map[string]bool)}
	for _, name := range present {
		p.present[name] = true
	}
	return p
}

// Install marks name as present, e.g. after a scripted install.
func (p *Prober) Install(name string) {
	p.mu.Lock()
	p.present[name] = true
	p.mu.Unlock()
}

func (p *Prober) Available(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.probed = append(p.probed, name)
	return p.present[name]
}

// Probed returns the names probed so far.
func (p *Prober) Probed() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.probed...)
}
