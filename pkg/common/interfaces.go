package common

// Producer is a live source of raw lines, e.g. a serial port or a
// capture file being replayed. Data yields one token per receive;
// Err carries at most one terminal error and both channels are
// closed once the source stops.
type Producer interface {
	ID() string
	Data() <-chan []byte
	Err() <-chan error
	Close() error
}

// DuplexProducer can additionally accept outgoing bytes,
// e.g. commands sent back to the device.
type DuplexProducer interface {
	Producer
	Writer() chan<- []byte
}

type ProducerManager interface {
	IsOpen(string) bool
	Open(string) (DuplexProducer, error)
	Close(string) error
}

// Consumer receives published frames. Offer must never block:
// a consumer that cannot keep up sees superseded frames dropped,
// not queued.
type Consumer interface {
	ID() string
	Offer(frame []byte)
}

type Consumers []Consumer

type CtxKey string

const ViewerIDKey CtxKey = "viewerID"
