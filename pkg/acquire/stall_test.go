package acquire

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeClock drives the detector without real sleeps.
type fakeClock struct {
	at time.Time
}

func (c *fakeClock) now() time.Time { return c.at }

func (c *fakeClock) advance(d time.Duration) { c.at = c.at.Add(d) }

func newTestDetector(timeout time.Duration) (*StallDetector, *fakeClock) {
	clock := &fakeClock{at: time.Date(2023, 4, 1, 12, 0, 0, 0, time.UTC)}
	d := NewStallDetector(timeout)
	d.now = clock.now
	d.lastSuccess = clock.at
	return d, clock
}

func TestStallDetectorTransitions(t *testing.T) {
	d, clock := newTestDetector(time.Second)
	require.Equal(t, Live, d.State())

	// silence below the threshold is fine
	clock.advance(900 * time.Millisecond)
	require.False(t, d.Check())
	require.Equal(t, Live, d.State())

	// two seconds without input trips the detector once
	clock.advance(1100 * time.Millisecond)
	require.True(t, d.Check())
	require.Equal(t, Stalled, d.State())
	require.False(t, d.Check(), "transition must be reported only once")

	// the very next good record recovers the stream
	require.True(t, d.Success())
	require.Equal(t, Live, d.State())
	require.False(t, d.Success(), "recovery must be reported only once")
}

func TestStallDetectorSuccessResetsClock(t *testing.T) {
	d, clock := newTestDetector(time.Second)

	for i := 0; i < 5; i++ {
		clock.advance(800 * time.Millisecond)
		d.Success()
	}
	require.False(t, d.Check())
	require.Equal(t, Live, d.State())
}

func TestStallDetectorStateStrings(t *testing.T) {
	require.Equal(t, "live", Live.String())
	require.Equal(t, "stalled", Stalled.String())
}
