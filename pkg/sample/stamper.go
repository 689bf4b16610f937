package sample

import (
	"sync"
	"time"
)

// Stamper produces the local receipt instant attached to each
// record. Stamps are monotonic-nondecreasing within a run even if
// the wall clock steps backwards: the stamp is only used to
// cross-reference device time with local time, never for ordering,
// so clamping to the previous value is safe.
type Stamper struct {
	mu   sync.Mutex
	now  func() time.Time
	last time.Time
}

// NewStamper builds a stamper around the given clock function;
// nil means time.Now.
func NewStamper(now func() time.Time) *Stamper {
	if now == nil {
		now = time.Now
	}
	return &Stamper{now: now}
}

func (s *Stamper) Stamp() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.now()
	if t.Before(s.last) {
		return s.last
	}
	s.last = t
	return t
}
