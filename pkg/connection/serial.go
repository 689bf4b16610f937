package connection

import (
	"bufio"
	"context"
	"io"
	"log"
	"os"
	"sync"

	"github.com/tarm/serial"
)

// LineConnection scans an io.ReadWriter for tokens and forwards
// them on a channel, so the acquisition loop can select over data,
// errors and its own timers instead of blocking in Read.
// Tokenizer defaults to bufio.ScanLines (one Arduino sample per
// line) but is public, so a caller may switch it before Listen
// starts scanning.
type LineConnection struct {
	io.ReadWriter
	context.Context
	Tokenizer bufio.SplitFunc
	DataChan  chan []byte
	errChan   chan error

	errMu  sync.Mutex
	closed bool
}

// Listen scans the stream until it ends or the context is
// cancelled. Intended to be run in a separate goroutine; it closes
// both channels on exit, after pushing the scanner error (nil on a
// plain EOF) unless the shutdown was context-driven.
func (lc *LineConnection) Listen() {
	defer func() {
		lc.errMu.Lock()
		lc.closed = true
		close(lc.errChan)
		close(lc.DataChan)
		lc.errMu.Unlock()
	}()
	scanner := bufio.NewScanner(lc)
	scanner.Split(lc.Tokenizer)
	for scanner.Scan() {
		// the scanner reuses its buffer between tokens
		line := append([]byte(nil), scanner.Bytes()...)
		lc.DataChan <- line
	}
	select {
	case <-lc.Done():
		return
	default:
		log.Println("Stream ended before context finished")
		lc.errChan <- scanner.Err()
	}
}

// reportWriteErr forwards a write error to the error channel unless
// Listen has already closed it. Scanner errors take precedence when
// the buffer is full.
func (lc *LineConnection) reportWriteErr(err error) {
	lc.errMu.Lock()
	defer lc.errMu.Unlock()
	if lc.closed {
		return
	}
	select {
	case lc.errChan <- err:
	default:
	}
}

// SerialProvider opens real serial ports at the given baudrate.
// Reads block until the device sends data; silence is detected by
// the session's stall timer, not by a read timeout.
func SerialProvider(baudrate int) ConnectionProvider {
	return func(name string) (wr io.ReadWriter, cancel func(), err error) {
		c := &serial.Config{Name: name, Baud: baudrate}
		stream, err := serial.OpenPort(c)
		if err != nil {
			return nil, nil, err
		}
		return stream, func() { stream.Close() }, nil
	}
}

// FileProvider replays a finished capture or any line-oriented
// file through the same pipeline, standing in for the device.
func FileProvider() ConnectionProvider {
	return func(name string) (wr io.ReadWriter, cancel func(), err error) {
		f, err := os.Open(name)
		if err != nil {
			return nil, nil, err
		}
		return f, func() { f.Close() }, nil
	}
}
