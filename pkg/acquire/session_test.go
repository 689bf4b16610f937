package acquire

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/zeehio/aves/pkg/client"
	"github.com/zeehio/aves/pkg/observe"
	"github.com/zeehio/aves/pkg/sample"
	"github.com/zeehio/aves/pkg/window"
)

var testColumns = []sample.Column{
	{Name: "time", Factor: 0.001},
	{Name: "Sensor 1", Factor: 0.004887586},
	{Name: "Sensor 2", Factor: 0.004887586},
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// mockProducer feeds scripted lines through the producer
// interface the way a LineConnection would.
type mockProducer struct {
	data chan []byte
	err  chan error
}

func newMockProducer(lines []string, terminal error) *mockProducer {
	p := &mockProducer{
		data: make(chan []byte, len(lines)),
		err:  make(chan error, 1),
	}
	for _, line := range lines {
		p.data <- []byte(line)
	}
	if terminal != nil {
		p.err <- terminal
	}
	close(p.err)
	close(p.data)
	return p
}

func (p *mockProducer) ID() string          { return "mock" }
func (p *mockProducer) Data() <-chan []byte { return p.data }
func (p *mockProducer) Err() <-chan error   { return p.err }
func (p *mockProducer) Close() error        { return nil }

// collectWriter records what the session persists.
type collectWriter struct {
	records  []sample.Record
	closed   bool
	writeErr error
}

func (w *collectWriter) Write(rec sample.Record) error {
	if w.writeErr != nil {
		return w.writeErr
	}
	w.records = append(w.records, rec)
	return nil
}

func (w *collectWriter) Close() error {
	w.closed = true
	return nil
}

func TestSessionAcquiresAndConverts(t *testing.T) {
	win := window.New(10)
	writer := &collectWriter{}
	s := NewSession(SessionConfig{
		Columns: testColumns,
		Window:  win,
		Writer:  writer,
		Stall:   NewStallDetector(time.Second),
		Logger:  quietLogger(),
	})

	producer := newMockProducer([]string{"100 512 300", "200 600 310"}, nil)
	require.NoError(t, s.Run(context.Background(), producer))

	require.Equal(t, 2, win.Len())
	snap := win.Snapshot()
	require.InDelta(t, 0.1, snap[0].Values["time"], 1e-12)
	require.InDelta(t, 512*0.004887586, snap[0].Values["Sensor 1"], 1e-12)
	require.InDelta(t, 300*0.004887586, snap[0].Values["Sensor 2"], 1e-12)
	require.InDelta(t, 0.2, snap[1].Values["time"], 1e-12)
	require.False(t, snap[0].At.IsZero(), "records must carry a receipt stamp")
	require.False(t, snap[1].At.Before(snap[0].At))

	require.Len(t, writer.records, 2)
	require.True(t, writer.closed, "sink must be closed when the run ends")
}

func TestSessionEvictsOldestRecords(t *testing.T) {
	win := window.New(2)
	s := NewSession(SessionConfig{
		Columns: testColumns,
		Window:  win,
		Stall:   NewStallDetector(time.Second),
		Logger:  quietLogger(),
	})

	producer := newMockProducer(
		[]string{"100 512 300", "200 600 310", "300 610 320"}, nil)
	require.NoError(t, s.Run(context.Background(), producer))

	snap := win.Snapshot()
	require.Len(t, snap, 2)
	require.InDelta(t, 0.2, snap[0].Values["time"], 1e-12)
	require.InDelta(t, 0.3, snap[1].Values["time"], 1e-12)
}

func TestSessionDropsMalformedLines(t *testing.T) {
	win := window.New(10)
	s := NewSession(SessionConfig{
		Columns: testColumns,
		Window:  win,
		Stall:   NewStallDetector(time.Second),
		Logger:  quietLogger(),
	})

	producer := newMockProducer([]string{
		"garbage",
		"100 512 300",
		"1 2",      // too few fields
		"1 2 x",    // non-numeric
		"200 600 310",
	}, nil)
	require.NoError(t, s.Run(context.Background(), producer))
	require.Equal(t, 2, win.Len())
}

func TestSessionSkipsInitialRecords(t *testing.T) {
	win := window.New(10)
	s := NewSession(SessionConfig{
		Columns:   testColumns,
		Window:    win,
		Stall:     NewStallDetector(time.Second),
		Logger:    quietLogger(),
		SkipFirst: 2,
	})

	producer := newMockProducer(
		[]string{"100 512 300", "200 600 310", "300 610 320"}, nil)
	require.NoError(t, s.Run(context.Background(), producer))

	snap := win.Snapshot()
	require.Len(t, snap, 1)
	require.InDelta(t, 0.3, snap[0].Values["time"], 1e-12)
}

func TestSessionStopsAtSampleLimit(t *testing.T) {
	win := window.New(10)
	s := NewSession(SessionConfig{
		Columns:    testColumns,
		Window:     win,
		Stall:      NewStallDetector(time.Second),
		Logger:     quietLogger(),
		MaxSamples: 2,
	})

	// leave the producer open: the limit alone must stop the run
	p := &mockProducer{data: make(chan []byte, 3), err: make(chan error, 1)}
	p.data <- []byte("100 512 300")
	p.data <- []byte("200 600 310")
	p.data <- []byte("300 610 320")

	require.NoError(t, s.Run(context.Background(), p))
	require.Equal(t, 2, win.Len())
}

func TestSessionTransportErrorIsFatal(t *testing.T) {
	win := window.New(10)
	writer := &collectWriter{}
	s := NewSession(SessionConfig{
		Columns: testColumns,
		Window:  win,
		Writer:  writer,
		Stall:   NewStallDetector(time.Second),
		Logger:  quietLogger(),
	})

	producer := newMockProducer(
		[]string{"100 512 300"}, errors.New("device unplugged"))
	err := s.Run(context.Background(), producer)
	require.ErrorIs(t, err, ErrTransport)
	require.True(t, writer.closed, "sink must be closed on fatal errors too")
}

func TestSessionSinkErrorIsFatal(t *testing.T) {
	win := window.New(10)
	writer := &collectWriter{writeErr: errors.New("disk full")}
	s := NewSession(SessionConfig{
		Columns: testColumns,
		Window:  win,
		Writer:  writer,
		Stall:   NewStallDetector(time.Second),
		Logger:  quietLogger(),
	})

	producer := newMockProducer([]string{"100 512 300", "200 600 310"}, nil)
	err := s.Run(context.Background(), producer)
	require.ErrorIs(t, err, ErrSinkWrite)
	require.True(t, writer.closed)
}

func TestSessionObservesCancellation(t *testing.T) {
	win := window.New(10)
	writer := &collectWriter{}
	s := NewSession(SessionConfig{
		Columns: testColumns,
		Window:  win,
		Writer:  writer,
		Stall:   NewStallDetector(time.Second),
		Logger:  quietLogger(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// producer stays open and silent; cancellation must stop Run
	p := &mockProducer{data: make(chan []byte), err: make(chan error, 1)}
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, p) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("session did not observe cancellation")
	}
	require.True(t, writer.closed)
}

// stallObserver records the stall transitions the session reports.
type stallObserver struct {
	observe.Nop
	mu     sync.Mutex
	states []bool
}

func (o *stallObserver) SetStalled(stalled bool) {
	o.mu.Lock()
	o.states = append(o.states, stalled)
	o.mu.Unlock()
}

func (o *stallObserver) snapshot() []bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]bool(nil), o.states...)
}

func (o *stallObserver) last() (bool, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.states) == 0 {
		return false, false
	}
	return o.states[len(o.states)-1], true
}

func TestSessionReportsStallAndRecovery(t *testing.T) {
	win := window.New(10)
	obs := &stallObserver{}
	stall := NewStallDetector(40 * time.Millisecond)
	// the interval and threshold are prohibitive on purpose: only a
	// stall transition should request a frame here
	pub := NewPublisher(PublisherConfig{
		Window:     win,
		Stall:      stall,
		Subs:       client.NewConsumers(),
		Interval:   time.Hour,
		MinSamples: 1000,
		Logger:     quietLogger(),
	})
	s := NewSession(SessionConfig{
		Columns:   testColumns,
		Window:    win,
		Stall:     stall,
		Publisher: pub,
		Observer:  obs,
		Logger:    quietLogger(),
	})

	// producer stays open but silent until the test speaks
	p := &mockProducer{data: make(chan []byte), err: make(chan error, 1)}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, p) }()

	require.Eventually(t, func() bool {
		stalled, ok := obs.last()
		return ok && stalled && len(pub.force) == 1
	}, 2*time.Second, 5*time.Millisecond,
		"silence past the timeout must be reported as a stall with a forced frame")
	<-pub.force

	p.data <- []byte("100 512 300")
	require.Eventually(t, func() bool {
		stalled, ok := obs.last()
		return ok && !stalled && len(pub.force) == 1
	}, 2*time.Second, 5*time.Millisecond,
		"the first record after a stall must clear it and force a frame")

	cancel()
	require.NoError(t, <-done)
	require.Equal(t, []bool{true, false}, obs.snapshot())
	require.Equal(t, 1, win.Len())
	require.Equal(t, Live, stall.State())
}

func TestSessionStopsAtDurationLimit(t *testing.T) {
	win := window.New(10)
	s := NewSession(SessionConfig{
		Columns:     testColumns,
		Window:      win,
		Stall:       NewStallDetector(time.Hour),
		Logger:      quietLogger(),
		MaxDuration: 20 * time.Millisecond,
	})

	p := &mockProducer{data: make(chan []byte), err: make(chan error, 1)}
	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background(), p) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("session did not observe the duration limit")
	}
}
