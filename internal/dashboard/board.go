package dashboard

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/kayz/biometrics/internal/logger"
)

const (
	AlertDuration     = 5 * time.Second
	UptimeInterval    = time.Second
	ReconnectDelay    = 5 * time.Second
	SyntheticInterval = 3 * time.Second
)

// Timer names.
const (
	timerAlert     = "alert"
	timerUptime    = "uptime"
	timerReconnect = "reconnect"
	timerSynthetic = "synthetic"
)

// Board is the shared dashboard state. The push reader, the scheduler
// callbacks and the terminal program all go through it.
type Board struct {
	mu       sync.Mutex
	state    State
	clock    Clock
	sched    *Scheduler
	onChange func()
	rng      *rand.Rand
}

// NewBoard creates a board. onChange is called after every mutation,
// outside the lock.
func NewBoard(clock Clock, onChange func()) *Board {
	if clock == nil {
		clock = RealClock()
	}
	now := clock.Now()
	return &Board{
		state:    NewState(now),
		clock:    clock,
		sched:    NewScheduler(clock),
		onChange: onChange,
		rng:      rand.New(rand.NewPCG(uint64(now.UnixNano()), 0x5eed)),
	}
}

// Start arms the uptime ticker.
func (b *Board) Start() {
	b.sched.Every(timerUptime, UptimeInterval, func() {
		b.update(func(s *State) { s.Now = b.clock.Now() })
	})
}

// Stop cancels every timer.
func (b *Board) Stop() {
	b.sched.Stop()
}

func (b *Board) Scheduler() *Scheduler { return b.sched }

// Snapshot returns a copy of the current state.
func (b *Board) Snapshot() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.Clone()
}

func (b *Board) update(fn func(s *State)) {
	b.mu.Lock()
	fn(&b.state)
	b.mu.Unlock()
	if b.onChange != nil {
		b.onChange()
	}
}

// Apply folds a real push message in. The first one ends synthetic mode.
func (b *Board) Apply(env Envelope) error {
	var err error
	var alert bool
	switch env.Type {
	case TypeMetrics, TypeAgents, TypeAlert:
	default:
		logger.Debug("[Dashboard] ignoring push message of type %q", env.Type)
		return nil
	}
	b.update(func(s *State) {
		if err = s.Apply(env); err != nil {
			return
		}
		if s.Synthetic {
			s.Synthetic = false
			b.sched.Cancel(timerSynthetic)
			logger.Debug("[Dashboard] live data received, synthetic feed stopped")
		}
		now := b.clock.Now()
		s.Now = now
		s.LastUpdate = now
		alert = env.Type == TypeAlert
	})
	if alert {
		b.armAlert()
	}
	return err
}

// Alert shows a local banner, e.g. connection state changes.
func (b *Board) Alert(message, severity string) {
	b.update(func(s *State) {
		s.ShowAlert(Alert{Message: message, Severity: severity})
	})
	b.armAlert()
}

// armAlert hides the banner AlertDuration after the most recent alert.
func (b *Board) armAlert() {
	b.sched.After(timerAlert, AlertDuration, func() {
		b.update(func(s *State) { s.HideAlert() })
	})
}

func (b *Board) SetConnected(ok bool) {
	b.update(func(s *State) { s.Connected = ok })
}

// SetFilter selects which agents Render shows.
func (b *Board) SetFilter(f string) {
	b.update(func(s *State) { s.Filter = f })
}

// CycleFilter moves all -> active -> idle -> all.
func (b *Board) CycleFilter() {
	b.update(func(s *State) {
		switch s.Filter {
		case FilterAll, "":
			s.Filter = FilterActive
		case FilterActive:
			s.Filter = FilterIdle
		default:
			s.Filter = FilterAll
		}
	})
}

// Load applies a bootstrap snapshot.
func (b *Board) Load(snap Snapshot) {
	b.update(func(s *State) {
		s.ApplyMetrics(snap.Metrics)
		s.SetAgents(snap.Agents)
		now := b.clock.Now()
		s.Now = now
		s.LastUpdate = now
	})
}

// StartSynthetic loads the demo roster and re-randomizes the rates every
// SyntheticInterval until a real push message arrives. A second call while
// the feed runs is a no-op.
func (b *Board) StartSynthetic() {
	if b.sched.Pending(timerSynthetic) {
		return
	}
	metrics := MockMetrics()
	b.update(func(s *State) {
		s.SetAgents(MockAgents())
		s.ApplyMetrics(metrics)
		s.Synthetic = true
	})
	b.sched.Every(timerSynthetic, SyntheticInterval, b.syntheticTick)
}

// syntheticTick may still fire once after Apply cancelled the feed.
func (b *Board) syntheticTick() {
	b.update(func(s *State) {
		if !s.Synthetic {
			return
		}
		m := s.Metrics
		m.RequestRate = float64(b.rng.IntN(50) + 20)
		m.AvgResponse = float64(b.rng.IntN(100) + 150)
		s.ApplyMetrics(m)
		s.Now = b.clock.Now()
	})
}

// MockAgents is the roster shown while no server is reachable.
func MockAgents() []Agent {
	return []Agent{
		{ID: "sisyphus", Name: "Sisyphus", Role: "Main Coder", Status: "active", TasksCompleted: 127, AvgTime: 2340, Errors: 2, Progress: 75, CurrentTask: "Refactoring API endpoints"},
		{ID: "prometheus", Name: "Prometheus", Role: "Planner", Status: "active", TasksCompleted: 89, AvgTime: 1890, Errors: 0, Progress: 45, CurrentTask: "Creating sprint plan"},
		{ID: "oracle", Name: "Oracle", Role: "Architect", Status: "idle", TasksCompleted: 56, AvgTime: 3200, Errors: 1, Progress: 0, CurrentTask: "Idle"},
		{ID: "librarian", Name: "Librarian", Role: "Documentation", Status: "active", TasksCompleted: 203, AvgTime: 1560, Errors: 0, Progress: 90, CurrentTask: "Writing API docs"},
	}
}

func MockMetrics() Metrics {
	return Metrics{RequestRate: 42, AvgResponse: 187, ErrorRate: 0.12, QueueSize: 15}
}
