package dashboard

import (
	"sync"
	"time"
)

// Timer is a pending callback.
type Timer interface {
	Stop() bool
}

// Clock abstracts time so timers can be driven by tests.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

// RealClock is the wall clock.
func RealClock() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type entry struct {
	timer Timer
}

// Scheduler owns named timers. Arming a name that is already pending
// replaces the previous timer, so at most one callback per name is ever
// outstanding.
type Scheduler struct {
	mu      sync.Mutex
	clock   Clock
	timers  map[string]*entry
	stopped bool
}

func NewScheduler(clock Clock) *Scheduler {
	if clock == nil {
		clock = RealClock()
	}
	return &Scheduler{clock: clock, timers: make(map[string]*entry)}
}

// After runs fn once after d.
func (s *Scheduler) After(name string, d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopLocked(name)

	e := &entry{}
	e.timer = s.clock.AfterFunc(d, func() {
		s.mu.Lock()
		if s.timers[name] != e {
			s.mu.Unlock()
			return
		}
		delete(s.timers, name)
		s.mu.Unlock()
		fn()
	})
	s.timers[name] = e
}

// Every runs fn every d until cancelled.
func (s *Scheduler) Every(name string, d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopLocked(name)

	e := &entry{}
	var tick func()
	tick = func() {
		s.mu.Lock()
		if s.timers[name] != e {
			s.mu.Unlock()
			return
		}
		e.timer = s.clock.AfterFunc(d, tick)
		s.mu.Unlock()
		fn()
	}
	e.timer = s.clock.AfterFunc(d, tick)
	s.timers[name] = e
}

// Cancel stops the named timer. It reports whether one was pending.
func (s *Scheduler) Cancel(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopLocked(name)
}

// Pending reports whether the named timer is armed.
func (s *Scheduler) Pending(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[name]
	return ok
}

// Stop cancels every timer and rejects new ones.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name := range s.timers {
		s.stopLocked(name)
	}
	s.stopped = true
}

func (s *Scheduler) stopLocked(name string) bool {
	e, ok := s.timers[name]
	if !ok {
		return false
	}
	e.timer.Stop()
	delete(s.timers, name)
	return true
}
