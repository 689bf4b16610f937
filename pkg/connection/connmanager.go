package connection

import (
	"bufio"
	"context"
	"errors"
	"io"
	"sync"

	"github.com/zeehio/aves/pkg/common"
)

type streamHandler struct {
	*LineConnection
	writer     chan []byte
	streamName string
	closed     bool
	close      func() error
}

func (handle *streamHandler) ID() string {
	return handle.streamName
}

func (handle *streamHandler) Data() <-chan []byte {
	return handle.DataChan
}

func (handle *streamHandler) Err() <-chan error {
	return handle.errChan
}

var ErrAlreadyClosed = errors.New("this producer has been closed already")

func (handle *streamHandler) Close() error {
	if handle.closed {
		return ErrAlreadyClosed
	}
	handle.closed = true
	return handle.close()
}

// Writer lazily starts a goroutine pumping outgoing bytes into the
// stream, e.g. calibration commands sent back to the device.
func (handle *streamHandler) Writer() chan<- []byte {
	if handle.writer != nil {
		return handle.writer
	}
	handle.writer = make(chan []byte)
	go func() {
		for d := range handle.writer {
			_, err := handle.LineConnection.Write(d)
			if err != nil {
				// the scanner may have closed the error channel
				// already; a late write error must not panic
				handle.reportWriteErr(err)
			}
		}
	}()
	return handle.writer
}

type ConnectionProvider func(string) (wr io.ReadWriter, cancel func(), err error)

// Manager pools open input streams by name, so the capture CLI,
// the probe and tests all obtain producers the same way. The
// provider is a dependency injected into the manager, which keeps
// the tests free of actual serial ports.
type Manager struct {
	context.Context
	lock     *sync.RWMutex
	pool     map[string]*streamHandler
	provider ConnectionProvider
}

func NewManager(ctx context.Context, p ConnectionProvider) *Manager {
	return &Manager{
		lock:     &sync.RWMutex{},
		pool:     map[string]*streamHandler{},
		Context:  ctx,
		provider: p,
	}
}

func (cm *Manager) IsOpen(name string) bool {
	cm.lock.RLock()
	defer cm.lock.RUnlock()
	_, open := cm.pool[name]
	return open
}

// Open returns the stream registered under name, creating it via
// the provider when it does not exist yet. Provider errors are
// propagated as-is.
func (cm *Manager) Open(name string) (common.DuplexProducer, error) {
	cm.lock.Lock()
	defer cm.lock.Unlock()
	if stream, open := cm.pool[name]; open {
		return stream, nil
	}
	wr, canceler, err := cm.provider(name)
	if err == nil && wr != nil {
		ctx, ctxCancel := context.WithCancel(cm)
		conn := &LineConnection{
			ReadWriter: wr,
			Context:    ctx,
			Tokenizer:  bufio.ScanLines,
			DataChan:   make(chan []byte, 1),
			errChan:    make(chan error, 1),
		}
		handler := &streamHandler{
			streamName:     name,
			LineConnection: conn,
			close: func() error {
				ctxCancel()
				canceler()
				return cm.closerFunc(name)
			},
		}
		cm.pool[name] = handler
		// start scanning for lines
		go conn.Listen()
		return handler, nil
	}
	return nil, err
}

var ErrNotOpen = errors.New("stream does not exist")

func (cm *Manager) Close(name string) error {
	cm.lock.Lock()
	stream, open := cm.pool[name]
	if !open {
		cm.lock.Unlock()
		return ErrNotOpen
	}
	delete(cm.pool, name)
	// release the lock before closing: the handler's close
	// callback re-enters closerFunc on the same mutex
	cm.lock.Unlock()
	stream.Close()
	// check if something went wrong with the stream
	// and propagate the error if any
	// use select to avoid unnesessary blocks
	select {
	case err := <-stream.errChan:
		return err
	default:
		return nil
	}
}

func (cm *Manager) closerFunc(name string) error {
	cm.lock.Lock()
	defer cm.lock.Unlock()
	stream, open := cm.pool[name]
	if !open {
		return ErrNotOpen
	}
	delete(cm.pool, name)
	select {
	case err := <-stream.errChan:
		return err
	default:
		return nil
	}
}
