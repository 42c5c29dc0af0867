// Package prompt asks an ordered list of questions on a line-based input
// and collects the answers.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"golang.org/x/term"
)

// Kind selects how an answer is parsed.
type Kind int

const (
	// Text answers are kept as trimmed strings.
	Text Kind = iota
	// Confirm answers are stored as bool.
	Confirm
)

var (
	// ErrUnknownGuard is returned when a question's When key does not name
	// an earlier confirm question.
	ErrUnknownGuard = errors.New("guard references unknown question")
	// ErrInputClosed means the input ended before every question was answered.
	ErrInputClosed = errors.New("prompt input closed")
	// ErrUnknownKey is returned when a prefilled key matches no question.
	ErrUnknownKey = errors.New("no question with this key")
)

// Question is one prompt. When, if set, is the key of an earlier Confirm
// question; the question is only asked when that answer is true.
type Question struct {
	Key      string
	Kind     Kind
	Prompt   string
	Default  string
	Secret   bool
	Validate func(string) error
	When     string
}

// Answers maps question keys to string (Text) or bool (Confirm) values.
// Skipped conditional questions have no entry.
type Answers map[string]any

// Has reports whether key was answered.
func (a Answers) Has(key string) bool {
	_, ok := a[key]
	return ok
}

// Bool returns the confirm answer for key, false when absent.
func (a Answers) Bool(key string) bool {
	v, _ := a[key].(bool)
	return v
}

// String returns the text answer for key, "" when absent.
func (a Answers) String(key string) string {
	v, _ := a[key].(string)
	return v
}

// Session reads answers from In and writes prompts to Out.
type Session struct {
	in      io.Reader
	out     io.Writer
	reader  *bufio.Reader
	prefill map[string]string

	// readSecret reads one line without echo; nil falls back to reader.
	readSecret func() (string, error)
}

func NewSession(in io.Reader, out io.Writer) *Session {
	s := &Session{
		in:      in,
		out:     out,
		reader:  bufio.NewReader(in),
		prefill: make(map[string]string),
	}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd := int(f.Fd())
		s.readSecret = func() (string, error) {
			b, err := term.ReadPassword(fd)
			fmt.Fprintln(s.out)
			return string(b), err
		}
	}
	return s
}

// Prefill answers keys without prompting. Prefilled values are still
// validated.
func (s *Session) Prefill(values map[string]string) {
	for k, v := range values {
		s.prefill[k] = v
	}
}

// Run asks every question in order. Input errors abort the session.
func (s *Session) Run(questions []Question) (Answers, error) {
	if err := CheckGuards(questions); err != nil {
		return nil, err
	}
	if err := CheckPrefill(questions, s.prefill); err != nil {
		return nil, err
	}

	answers := make(Answers, len(questions))
	for _, q := range questions {
		if q.When != "" && !answers.Bool(q.When) {
			continue
		}
		v, err := s.ask(q)
		if err != nil {
			return nil, err
		}
		answers[q.Key] = v
	}
	return answers, nil
}

// CheckPrefill rejects values whose keys match no question.
func CheckPrefill(questions []Question, values map[string]string) error {
	known := make(map[string]bool, len(questions))
	for _, q := range questions {
		known[q.Key] = true
	}
	var keys []string
	for k := range values {
		if !known[k] {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	sort.Strings(keys)
	return fmt.Errorf("%w: %s", ErrUnknownKey, strings.Join(keys, ", "))
}

// CheckGuards verifies that every When refers to a confirm question
// defined earlier in the list.
func CheckGuards(questions []Question) error {
	seen := make(map[string]Kind, len(questions))
	for _, q := range questions {
		if q.When != "" {
			kind, ok := seen[q.When]
			if !ok || kind != Confirm {
				return fmt.Errorf("%s: %w %q", q.Key, ErrUnknownGuard, q.When)
			}
		}
		seen[q.Key] = q.Kind
	}
	return nil
}

func (s *Session) ask(q Question) (any, error) {
	if v, ok := s.prefill[q.Key]; ok {
		v = strings.TrimSpace(v)
		if v == "" {
			v = q.Default
		}
		if err := check(q, v); err != nil {
			return nil, fmt.Errorf("%s: %w", q.Key, err)
		}
		return value(q, v), nil
	}

	for {
		fmt.Fprint(s.out, label(q))

		line, err := s.readLine(q.Secret)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", q.Key, err)
		}
		v := strings.TrimSpace(line)
		if v == "" {
			v = q.Default
		}
		if err := check(q, v); err != nil {
			fmt.Fprintf(s.out, "Invalid value: %v\n", err)
			continue
		}
		return value(q, v), nil
	}
}

func (s *Session) readLine(secret bool) (string, error) {
	if secret && s.readSecret != nil {
		line, err := s.readSecret()
		if err != nil {
			return "", ErrInputClosed
		}
		return line, nil
	}
	line, err := s.reader.ReadString('\n')
	if err != nil {
		// A final line without newline still counts.
		if errors.Is(err, io.EOF) && line != "" {
			return line, nil
		}
		return "", ErrInputClosed
	}
	return line, nil
}

func label(q Question) string {
	if q.Kind == Confirm {
		if ParseBool(q.Default, false) {
			return q.Prompt + " [Y/n]: "
		}
		return q.Prompt + " [y/N]: "
	}
	if q.Default != "" && !q.Secret {
		return fmt.Sprintf("%s [%s]: ", q.Prompt, q.Default)
	}
	return q.Prompt + ": "
}

func check(q Question, v string) error {
	if q.Kind == Confirm {
		if v == "" {
			return nil
		}
		return ValidateBool(v)
	}
	if q.Validate != nil {
		return q.Validate(v)
	}
	return nil
}

func value(q Question, v string) any {
	if q.Kind == Confirm {
		return ParseBool(v, false)
	}
	return v
}

// ValidateBool accepts the usual yes/no spellings.
func ValidateBool(v string) error {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "y", "yes", "n", "no", "true", "false", "1", "0":
		return nil
	default:
		return fmt.Errorf("expected yes/no")
	}
}

func ParseBool(v string, defaultValue bool) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "y", "yes", "true", "1":
		return true
	case "n", "no", "false", "0":
		return false
	default:
		return defaultValue
	}
}

// ParseSet parses repeated key=value flags.
func ParseSet(raw []string) (map[string]string, error) {
	out := make(map[string]string, len(raw))
	for _, item := range raw {
		key, value, ok := strings.Cut(item, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set value %q, expected key=value", item)
		}
		out[key] = strings.TrimSpace(value)
	}
	return out, nil
}
