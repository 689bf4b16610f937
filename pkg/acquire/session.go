package acquire

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zeehio/aves/pkg/common"
	"github.com/zeehio/aves/pkg/observe"
	"github.com/zeehio/aves/pkg/sample"
	"github.com/zeehio/aves/pkg/storage"
	"github.com/zeehio/aves/pkg/window"
)

var (
	// ErrTransport marks an unrecoverable input stream failure,
	// e.g. the device disappearing, as opposed to mere silence.
	ErrTransport = errors.New("transport failure")
	// ErrSinkWrite marks a failed capture write. Always fatal: a
	// capture silently missing samples is worse than no capture.
	ErrSinkWrite = errors.New("sink write failure")
)

// Session drives the read, parse, stamp, buffer, persist pipeline
// at whatever pace the device dictates. The session is the sole
// writer to the window and the sink; viewers only ever see
// snapshots through the publisher.
type Session struct {
	parser    *sample.Parser
	stamper   *sample.Stamper
	win       *window.Window
	writer    storage.RecordWriter
	stall     *StallDetector
	publisher *Publisher
	log       *logrus.Logger
	obs       observe.Observer

	maxDuration time.Duration
	maxSamples  int
	skipFirst   int
}

type SessionConfig struct {
	Columns []sample.Column
	Window  *window.Window
	// Writer persists records; nil disables persistence (the
	// -no-save flag) while acquisition and rendering continue.
	Writer    storage.RecordWriter
	Stall     *StallDetector
	Publisher *Publisher
	Logger    *logrus.Logger
	Observer  observe.Observer

	MaxDuration time.Duration // 0 = unlimited
	MaxSamples  int           // 0 = unlimited
	// SkipFirst discards the first N good records: right after the
	// port opens the device buffer often holds stale or partial
	// output.
	SkipFirst int
}

func NewSession(cfg SessionConfig) *Session {
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	if cfg.Observer == nil {
		cfg.Observer = observe.Nop{}
	}
	return &Session{
		parser:      sample.NewParser(cfg.Columns),
		stamper:     sample.NewStamper(nil),
		win:         cfg.Window,
		writer:      cfg.Writer,
		stall:       cfg.Stall,
		publisher:   cfg.Publisher,
		log:         cfg.Logger,
		obs:         cfg.Observer,
		maxDuration: cfg.MaxDuration,
		maxSamples:  cfg.MaxSamples,
		skipFirst:   cfg.SkipFirst,
	}
}

// Run consumes the producer until a limit is reached, the stream
// ends, the context is cancelled or a fatal error occurs. On every
// exit path the sink is flushed and closed before Run returns.
func (s *Session) Run(ctx context.Context, producer common.Producer) (err error) {
	defer func() {
		if s.writer == nil {
			return
		}
		if cerr := s.writer.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: %s", ErrSinkWrite, cerr)
		}
	}()

	var deadline <-chan time.Time
	if s.maxDuration > 0 {
		timer := time.NewTimer(s.maxDuration)
		defer timer.Stop()
		deadline = timer.C
	}

	check := time.NewTicker(stallCheckInterval(s.stall.Timeout()))
	defer check.Stop()

	recorded := 0
	for {
		select {
		case <-ctx.Done():
			s.log.Info("acquisition cancelled")
			return nil

		case <-deadline:
			s.log.WithField("records", recorded).Info("duration limit reached")
			return nil

		case <-check.C:
			if s.stall.Check() {
				s.log.WithField("timeout", s.stall.Timeout()).
					Warn("no data from device, connection presumed dropped")
				s.obs.SetStalled(true)
				if s.publisher != nil {
					s.publisher.Force()
				}
			}

		case line, open := <-producer.Data():
			if !open {
				// the producer pushes its terminal error, if any,
				// before closing the data channel
				if rerr := <-producer.Err(); rerr != nil {
					return fmt.Errorf("%w: %s", ErrTransport, rerr)
				}
				s.log.WithField("records", recorded).Info("input stream ended")
				return nil
			}
			done, herr := s.handleLine(line, &recorded)
			if herr != nil {
				return herr
			}
			if done {
				return nil
			}
		}
	}
}

func (s *Session) handleLine(line []byte, recorded *int) (done bool, err error) {
	rec, perr := s.parser.Parse(line)
	if perr != nil {
		// malformed lines are dropped, the capture continues
		s.log.WithError(perr).Warn("dropping malformed line")
		s.obs.ParseDropped()
		return false, nil
	}
	rec.At = s.stamper.Stamp()

	if recovered := s.stall.Success(); recovered {
		s.log.Info("device stream recovered")
		s.obs.SetStalled(false)
		if s.publisher != nil {
			s.publisher.Force()
		}
	}

	if s.skipFirst > 0 {
		s.skipFirst--
		return false, nil
	}

	s.win.Append(rec)
	s.obs.RecordIngested()

	if s.writer != nil {
		if werr := s.writer.Write(rec); werr != nil {
			return false, fmt.Errorf("%w: %s", ErrSinkWrite, werr)
		}
	}

	*recorded++
	if s.maxSamples > 0 && *recorded >= s.maxSamples {
		s.log.WithField("records", *recorded).Info("sample limit reached")
		return true, nil
	}
	return false, nil
}

// stallCheckInterval keeps the detector responsive without
// spinning: a quarter of the timeout, clamped to sane bounds.
func stallCheckInterval(timeout time.Duration) time.Duration {
	interval := timeout / 4
	if interval < 10*time.Millisecond {
		return 10 * time.Millisecond
	}
	if interval > time.Second {
		return time.Second
	}
	return interval
}
