package dashboard

import (
	"encoding/json"
	"fmt"
	"time"
)

// WindowSize is the number of samples kept per trailing series.
const WindowSize = 10

// Filter values for the roster view.
const (
	FilterAll    = "all"
	FilterActive = "active"
	FilterIdle   = "idle"
)

// AlertBanner is the transient message line.
type AlertBanner struct {
	Message  string
	Severity string
	Visible  bool
}

// State is the dashboard snapshot. It is a plain value: Board owns the
// live copy and hands out clones.
type State struct {
	Metrics        Metrics
	RequestSeries  []float64
	ResponseSeries []float64
	Agents         []Agent
	Alert          AlertBanner

	StartedAt  time.Time
	Now        time.Time
	LastUpdate time.Time

	Connected bool
	// Synthetic is set while the data is generated locally because the
	// bootstrap fetch failed.
	Synthetic bool
	Filter    string
}

// NewState returns a state with both series zero-filled.
func NewState(start time.Time) State {
	return State{
		RequestSeries:  make([]float64, WindowSize),
		ResponseSeries: make([]float64, WindowSize),
		StartedAt:      start,
		Now:            start,
		Filter:         FilterAll,
	}
}

// Apply folds one push message into the state. Unknown types are ignored.
func (s *State) Apply(env Envelope) error {
	switch env.Type {
	case TypeMetrics:
		var m Metrics
		if err := decodePayload(env, &m); err != nil {
			return err
		}
		s.ApplyMetrics(m)
	case TypeAgents:
		var agents []Agent
		if err := decodePayload(env, &agents); err != nil {
			return err
		}
		s.SetAgents(agents)
	case TypeAlert:
		var a Alert
		if err := decodePayload(env, &a); err != nil {
			return err
		}
		s.ShowAlert(a)
	}
	return nil
}

func decodePayload(env Envelope, v any) error {
	if len(env.Payload) == 0 || string(env.Payload) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", env.Type, err)
	}
	return nil
}

// ApplyMetrics records m and pushes its rates onto both series, dropping
// the oldest sample.
func (s *State) ApplyMetrics(m Metrics) {
	s.Metrics = m
	s.RequestSeries = push(s.RequestSeries, m.RequestRate)
	s.ResponseSeries = push(s.ResponseSeries, m.AvgResponse)
}

func push(series []float64, v float64) []float64 {
	out := make([]float64, 0, WindowSize)
	out = append(out, series...)
	out = append(out, v)
	for len(out) > WindowSize {
		out = out[1:]
	}
	for len(out) < WindowSize {
		out = append([]float64{0}, out...)
	}
	return out
}

// SetAgents replaces the roster wholesale.
func (s *State) SetAgents(agents []Agent) {
	s.Agents = append([]Agent(nil), agents...)
}

func (s *State) ShowAlert(a Alert) {
	if a.Severity == "" {
		a.Severity = SeverityInfo
	}
	s.Alert = AlertBanner{Message: a.Message, Severity: a.Severity, Visible: true}
}

func (s *State) HideAlert() {
	s.Alert.Visible = false
}

// ActiveAgents counts agents whose status is "active".
func (s State) ActiveAgents() int {
	n := 0
	for _, a := range s.Agents {
		if a.Status == FilterActive {
			n++
		}
	}
	return n
}

// VisibleAgents applies the roster filter.
func (s State) VisibleAgents() []Agent {
	if s.Filter == "" || s.Filter == FilterAll {
		return s.Agents
	}
	var out []Agent
	for _, a := range s.Agents {
		if a.Status == s.Filter {
			out = append(out, a)
		}
	}
	return out
}

func (s State) Uptime() time.Duration {
	if s.Now.Before(s.StartedAt) {
		return 0
	}
	return s.Now.Sub(s.StartedAt)
}

// Clone returns a deep copy safe to read without the board lock.
func (s State) Clone() State {
	c := s
	c.RequestSeries = append([]float64(nil), s.RequestSeries...)
	c.ResponseSeries = append([]float64(nil), s.ResponseSeries...)
	c.Agents = append([]Agent(nil), s.Agents...)
	return c
}

// FormatUptime renders d as HH:MM:SS.
func FormatUptime(d time.Duration) string {
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}
