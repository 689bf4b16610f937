package acquire

import (
	"sync"
	"time"
)

// State of the input stream as seen by the stall detector.
type State int

const (
	Live State = iota
	Stalled
)

func (s State) String() string {
	if s == Stalled {
		return "stalled"
	}
	return "live"
}

// StallDetector tracks the time since the last successfully parsed
// record. Only successful parses reset the clock: a device spewing
// garbage keeps the clock running and eventually trips the
// detector just like plain silence would.
//
// Stalling is a warning condition, never a reason to stop the run;
// the stream recovers to Live on the very next good record.
type StallDetector struct {
	mu          sync.Mutex
	timeout     time.Duration
	now         func() time.Time
	lastSuccess time.Time
	state       State
}

func NewStallDetector(timeout time.Duration) *StallDetector {
	d := &StallDetector{
		timeout: timeout,
		now:     time.Now,
	}
	d.lastSuccess = d.now()
	return d
}

// Success records a good read, returning true when this read
// recovered the stream from a stall.
func (d *StallDetector) Success() (recovered bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastSuccess = d.now()
	if d.state == Stalled {
		d.state = Live
		return true
	}
	return false
}

// Check evaluates the timeout, returning true exactly once per
// stall: on the Live to Stalled transition.
func (d *StallDetector) Check() (justStalled bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == Live && d.now().Sub(d.lastSuccess) > d.timeout {
		d.state = Stalled
		return true
	}
	return false
}

func (d *StallDetector) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *StallDetector) Timeout() time.Duration {
	return d.timeout
}
