// Package scheduler runs delayed one-shot jobs, used for the automatic
// group unmute.
package scheduler

import (
	"log/slog"
	"sync"
	"time"
)

// Scheduler tracks pending one-shot jobs. Jobs are intentionally not
// cancellable: a manual unmute does not suppress a scheduled one, both fire.
type Scheduler struct {
	mu      sync.Mutex
	pending map[string]int
}

// New creates a Scheduler.
func New() *Scheduler {
	return &Scheduler{pending: make(map[string]int)}
}

// After runs fn once after d on its own goroutine. name groups jobs for
// status reporting only.
func (s *Scheduler) After(name string, d time.Duration, fn func()) {
	s.mu.Lock()
	s.pending[name]++
	s.mu.Unlock()
	slog.Info("Scheduler job armed", "name", name, "delay", d)

	time.AfterFunc(d, func() {
		defer func() {
			s.mu.Lock()
			s.pending[name]--
			if s.pending[name] <= 0 {
				delete(s.pending, name)
			}
			s.mu.Unlock()
		}()
		slog.Info("Scheduler job firing", "name", name)
		fn()
	})
}

// Pending returns the number of armed jobs for name.
func (s *Scheduler) Pending(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending[name]
}
