package window

import (
	"sync"

	"github.com/zeehio/aves/pkg/sample"
)

// Window keeps the last cap records for visualization. The
// acquisition loop is the only writer; any number of readers may
// take snapshots concurrently. A cap of 0 disables eviction, which
// is acceptable for finite captures.
//
// Eviction happens under the same lock as the append, so a reader
// never observes more than cap records.
type Window struct {
	mu    sync.RWMutex
	cap   int
	start int
	buf   []sample.Record
	total uint64
}

func New(cap int) *Window {
	if cap < 0 {
		cap = 0
	}
	return &Window{cap: cap}
}

// Append adds a record, evicting the oldest one when the window is
// full. Amortized O(1): eviction advances a start index and the
// retained tail is compacted to the front of the slice once the
// dead prefix outgrows the live part.
func (w *Window) Append(r sample.Record) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf = append(w.buf, r)
	w.total++
	if w.cap > 0 && len(w.buf)-w.start > w.cap {
		w.start++
	}
	if w.start > 0 && w.start >= len(w.buf)-w.start {
		n := copy(w.buf, w.buf[w.start:])
		w.buf = w.buf[:n]
		w.start = 0
	}
}

// Snapshot returns an independent copy of the current contents in
// arrival order. Later appends never mutate a returned snapshot;
// the records themselves are shared but immutable by contract.
func (w *Window) Snapshot() []sample.Record {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]sample.Record, len(w.buf)-w.start)
	copy(out, w.buf[w.start:])
	return out
}

func (w *Window) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.buf) - w.start
}

func (w *Window) Cap() int {
	return w.cap
}

// Total counts every record ever appended, evicted or not. The
// snapshot publisher uses it to decide whether enough new samples
// arrived to justify a fresh frame.
func (w *Window) Total() uint64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.total
}
